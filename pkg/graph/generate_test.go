package graph

import (
	"encoding/json"
	"testing"

	"github.com/grovetools/elementipelago/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNGSequence(t *testing.T) {
	r := newRNG(29992)
	assert.Equal(t, uint64(251593086328), r.next())
	assert.Equal(t, uint64(342458941848), r.next())
	assert.Equal(t, uint64(2110500793385715367), r.next())
}

func craftedOutputs(g *Graph) map[Element]int {
	seen := make(map[Element]int)
	for _, outs := range g.Recipes {
		for _, out := range outs {
			seen[out]++
		}
	}
	return seen
}

func TestGenerateDeterministic(t *testing.T) {
	sd := protocol.SlotData{ElementAmount: 12, CompoundAmount: 10, IntermediateAmount: 8, GraphSeed: 2827108, CompoundsAreIngredients: true}

	a, err := Generate(sd)
	require.NoError(t, err)
	b, err := Generate(sd)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	sd.GraphSeed++
	c, err := Generate(sd)
	require.NoError(t, err)
	assert.NotEqual(t, a.Recipes, c.Recipes)
}

func TestGenerateEveryCraftableOnce(t *testing.T) {
	for _, flag := range []bool{true, false} {
		sd := protocol.SlotData{ElementAmount: 12, CompoundAmount: 10, IntermediateAmount: 8, GraphSeed: 99, CompoundsAreIngredients: flag}
		g, err := Generate(sd)
		require.NoError(t, err)

		seen := craftedOutputs(g)
		for id := uint64(1); id <= 8; id++ {
			assert.Equal(t, 1, seen[Element{ID: id, Kind: KindIntermediate}], "intermediate %d", id)
		}
		for id := uint64(1); id <= 10; id++ {
			assert.Equal(t, 1, seen[Element{ID: id, Kind: KindOutput}], "compound %d", id)
		}
		for el := range seen {
			assert.NotEqual(t, KindInput, el.Kind)
		}

		if !flag {
			for pair := range g.Recipes {
				assert.NotEqual(t, KindOutput, pair.A.Kind)
				assert.NotEqual(t, KindOutput, pair.B.Kind)
			}
		}
	}
}

func TestGenerateIngredients(t *testing.T) {
	sd := protocol.SlotData{ElementAmount: 6, CompoundAmount: 3, IntermediateAmount: 2, GraphSeed: 7, CompoundsAreIngredients: true}
	g, err := Generate(sd)
	require.NoError(t, err)
	assert.Len(t, g.Elements, 11)
	assert.Contains(t, g.Elements, Element{ID: 3, Kind: KindOutput})

	sd.CompoundsAreIngredients = false
	g, err = Generate(sd)
	require.NoError(t, err)
	assert.Len(t, g.Elements, 8)
	assert.NotContains(t, g.Elements, Element{ID: 1, Kind: KindOutput})
}

func TestGenerateOnlyInputsLeftTerminates(t *testing.T) {
	// One compound lets at most one input be placed behind it; the rest
	// must still be placed once nothing else is left.
	g, err := Generate(protocol.SlotData{ElementAmount: 30, CompoundAmount: 1, GraphSeed: 5, CompoundsAreIngredients: true})
	require.NoError(t, err)
	assert.Equal(t, map[Element]int{{ID: 1, Kind: KindOutput}: 1}, craftedOutputs(g))
	assert.Len(t, g.Elements, 31)
}

func TestRecipeEitherOrder(t *testing.T) {
	g, err := Generate(protocol.SlotData{ElementAmount: 8, CompoundAmount: 4, IntermediateAmount: 4, GraphSeed: 11, CompoundsAreIngredients: true})
	require.NoError(t, err)
	require.NotEmpty(t, g.Recipes)

	for pair, outs := range g.Recipes {
		assert.Equal(t, outs, g.Recipe(pair.A, pair.B))
		if pair.A != pair.B {
			if _, reversed := g.Recipes[Pair{A: pair.B, B: pair.A}]; !reversed {
				assert.Equal(t, outs, g.Recipe(pair.B, pair.A))
			}
		}
	}
	assert.Nil(t, g.Recipe(Element{ID: 999, Kind: KindInput}, Element{ID: 998, Kind: KindInput}))
}

func TestGeneratorFromRaw(t *testing.T) {
	g, err := Generator{}.Generate(json.RawMessage(`{"element_amount":6,"filler_amount":0,"intermediate_amount":3,"graph_seed":3}`))
	require.NoError(t, err)
	assert.NotNil(t, g)

	_, err = Generator{}.Generate(json.RawMessage(`{"bogus":1}`))
	assert.Error(t, err)
}
