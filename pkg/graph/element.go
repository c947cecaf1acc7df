// Package graph holds the domain elements of Elementipelago and the
// procedural recipe graph generator fed by the session's slot data.
package graph

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/grovetools/elementipelago/pkg/protocol"
)

const (
	// GameName is the game this client plays.
	GameName = "Elementipelago"

	// ElementIDOffset is the first item id that maps to an element.
	// Lower ids belong to items outside this game's domain.
	ElementIDOffset = 100

	// LocationAmount is the id offset between compound and intermediate locations.
	LocationAmount = 2000

	// StartItems is the number of input elements available without crafting.
	StartItems = 4
)

// Kind is the role of an element in the recipe graph.
type Kind int

const (
	KindInput Kind = iota + 1
	KindIntermediate
	KindOutput
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindIntermediate:
		return "intermediate"
	case KindOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Element identifies one element by kind and 1-based id.
type Element struct {
	ID   uint64
	Kind Kind
}

var elementName = regexp.MustCompile(`^(Element|Intermediate|Compound)\s+(\d+)$`)

// ParseElement parses names such as "Element 3", "Intermediate 7" or "Compound 12".
func ParseElement(name string) (Element, bool) {
	m := elementName.FindStringSubmatch(name)
	if m == nil {
		return Element{}, false
	}
	id, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return Element{}, false
	}
	switch m[1] {
	case "Element":
		return Element{ID: id, Kind: KindInput}, true
	case "Intermediate":
		return Element{ID: id, Kind: KindIntermediate}, true
	default:
		return Element{ID: id, Kind: KindOutput}, true
	}
}

// String returns the element's display name.
func (e Element) String() string {
	switch e.Kind {
	case KindInput:
		return fmt.Sprintf("Element %d", e.ID)
	case KindIntermediate:
		return fmt.Sprintf("Intermediate %d", e.ID)
	case KindOutput:
		return fmt.Sprintf("Compound %d", e.ID)
	default:
		return fmt.Sprintf("Unknown %d", e.ID)
	}
}

// LocationID returns the location checked when this element is crafted.
// Inputs are received, never crafted, so they have no location.
func (e Element) LocationID() (protocol.LocationID, bool) {
	switch e.Kind {
	case KindOutput:
		return protocol.LocationID(e.ID), true
	case KindIntermediate:
		return protocol.LocationID(LocationAmount + e.ID), true
	default:
		return 0, false
	}
}

// ElementFromItemID maps a received item id to its input element.
func ElementFromItemID(id protocol.ItemID) (Element, bool) {
	if id < ElementIDOffset {
		return Element{}, false
	}
	return Element{ID: uint64(id-ElementIDOffset) + 1, Kind: KindInput}, true
}
