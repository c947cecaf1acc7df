package graph

import (
	"testing"

	"github.com/grovetools/elementipelago/pkg/protocol"
	"github.com/stretchr/testify/assert"
)

func TestParseElement(t *testing.T) {
	tests := []struct {
		name string
		want Element
		ok   bool
	}{
		{name: "Element 3", want: Element{ID: 3, Kind: KindInput}, ok: true},
		{name: "Intermediate 12", want: Element{ID: 12, Kind: KindIntermediate}, ok: true},
		{name: "Compound   7", want: Element{ID: 7, Kind: KindOutput}, ok: true},
		{name: "Compound", ok: false},
		{name: "Filler 1", ok: false},
		{name: "Element -1", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseElement(tt.name)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestElementString(t *testing.T) {
	assert.Equal(t, "Element 1", Element{ID: 1, Kind: KindInput}.String())
	assert.Equal(t, "Intermediate 2", Element{ID: 2, Kind: KindIntermediate}.String())
	assert.Equal(t, "Compound 3", Element{ID: 3, Kind: KindOutput}.String())
}

func TestElementLocationID(t *testing.T) {
	loc, ok := Element{ID: 5, Kind: KindOutput}.LocationID()
	assert.True(t, ok)
	assert.Equal(t, protocol.LocationID(5), loc)

	loc, ok = Element{ID: 7, Kind: KindIntermediate}.LocationID()
	assert.True(t, ok)
	assert.Equal(t, protocol.LocationID(2007), loc)

	_, ok = Element{ID: 1, Kind: KindInput}.LocationID()
	assert.False(t, ok)
}

func TestElementFromItemID(t *testing.T) {
	el, ok := ElementFromItemID(100)
	assert.True(t, ok)
	assert.Equal(t, Element{ID: 1, Kind: KindInput}, el)

	el, ok = ElementFromItemID(142)
	assert.True(t, ok)
	assert.Equal(t, Element{ID: 43, Kind: KindInput}, el)

	_, ok = ElementFromItemID(99)
	assert.False(t, ok)
}
