// Package datapackage holds per-game item and location catalogs and their
// on-disk cache.
package datapackage

import (
	"github.com/grovetools/elementipelago/pkg/protocol"
)

// Catalog maps item and location names to ids and back for one game.
// A catalog is only trusted for name resolution while its checksum matches
// the one the server announced for that game.
type Catalog struct {
	Checksum         string
	ItemNameToID     map[string]protocol.ItemID
	ItemIDToName     map[protocol.ItemID]string
	LocationNameToID map[string]protocol.LocationID
	LocationIDToName map[protocol.LocationID]string
}

// NewCatalog builds a catalog and its reverse maps.
func NewCatalog(checksum string, items map[string]protocol.ItemID, locations map[string]protocol.LocationID) *Catalog {
	c := &Catalog{
		Checksum:         checksum,
		ItemNameToID:     make(map[string]protocol.ItemID, len(items)),
		ItemIDToName:     make(map[protocol.ItemID]string, len(items)),
		LocationNameToID: make(map[string]protocol.LocationID, len(locations)),
		LocationIDToName: make(map[protocol.LocationID]string, len(locations)),
	}
	for name, id := range items {
		c.ItemNameToID[name] = id
		c.ItemIDToName[id] = name
	}
	for name, id := range locations {
		c.LocationNameToID[name] = id
		c.LocationIDToName[id] = name
	}
	return c
}

// FromGameData builds a catalog from a DataPackage entry.
func FromGameData(data protocol.GameData) *Catalog {
	return NewCatalog(data.Checksum, data.ItemNameToID, data.LocationNameToID)
}

// ItemName resolves an item id.
func (c *Catalog) ItemName(id protocol.ItemID) (string, bool) {
	if c == nil {
		return "", false
	}
	name, ok := c.ItemIDToName[id]
	return name, ok
}

// LocationName resolves a location id.
func (c *Catalog) LocationName(id protocol.LocationID) (string, bool) {
	if c == nil {
		return "", false
	}
	name, ok := c.LocationIDToName[id]
	return name, ok
}
