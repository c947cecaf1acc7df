package graph

import (
	"encoding/json"
	"fmt"

	"github.com/grovetools/elementipelago/pkg/protocol"
)

// Pair is an unordered pair of ingredients.
type Pair struct {
	A, B Element
}

// Graph is the recipe table for one slot.
type Graph struct {
	// Recipes maps two ingredients to everything they craft.
	Recipes map[Pair][]Element
	// Elements lists every element that can be used as an ingredient.
	Elements []Element
}

// Recipe returns what combining a and b produces, in either order.
func (g *Graph) Recipe(a, b Element) []Element {
	if out, ok := g.Recipes[Pair{A: a, B: b}]; ok {
		return out
	}
	return g.Recipes[Pair{A: b, B: a}]
}

// Generator builds graphs from raw slot data.
type Generator struct{}

// Generate decodes raw slot data and builds its graph.
func (Generator) Generate(raw json.RawMessage) (*Graph, error) {
	sd, err := protocol.ParseSlotData(raw)
	if err != nil {
		return nil, err
	}
	return Generate(sd)
}

type edge struct {
	left, right int
	out         uint64
	kind        Kind
}

type indexPair struct {
	left, right int
}

// Generate builds the layered recipe graph described by sd. The same slot
// data always yields the same graph.
func Generate(sd protocol.SlotData) (*Graph, error) {
	inputs := int(sd.ElementAmount)
	outputs := int(sd.Compounds())
	intermediates := int(sd.IntermediateAmount)

	r := newRNG(sd.GraphSeed)
	var (
		dag       []edge
		compounds []edge
		used      = make(map[indexPair]bool)
	)

	inputsLeft := seq(1, inputs)
	intermediatesLeft := seq(1, intermediates)
	outputsLeft := seq(1, outputs)

	for i := 1; i <= StartItems; i++ {
		dag = append(dag, edge{left: -1, right: -1, out: uint64(i), kind: KindInput})
		if len(inputsLeft) > 0 {
			inputsLeft = inputsLeft[1:]
		}
	}

	inputsPlaced, outputsPlaced := 0, 0
	remaining := len(inputsLeft) + len(intermediatesLeft) + len(outputsLeft)

	for remaining > 0 {
		previous := len(dag)
		maxLayer := min(previous*previous/2-len(used)-1, remaining-1)
		layerSize := 1
		if maxLayer > 0 {
			layerSize = r.intn(maxLayer) + 1
		}

		var layer []edge
		for i := 0; i < layerSize; i++ {
			kind := pickKind(r, len(inputsLeft), len(intermediatesLeft), len(outputsLeft), inputsPlaced, outputsPlaced)
			switch kind {
			case KindInput:
				inputsPlaced++
			case KindOutput:
				outputsPlaced++
			}

			if len(used) >= previous*(previous+1)/2 {
				return nil, fmt.Errorf("graph: ran out of ingredient pairs after %d elements", previous)
			}
			var left, right int
			for {
				left, right = r.intn(previous), r.intn(previous)
				if left > right {
					left, right = right, left
				}
				if !used[indexPair{left, right}] {
					break
				}
			}
			used[indexPair{left, right}] = true

			var out uint64
			switch kind {
			case KindInput:
				out, inputsLeft = take(r, inputsLeft)
			case KindIntermediate:
				out, intermediatesLeft = take(r, intermediatesLeft)
			case KindOutput:
				out, outputsLeft = take(r, outputsLeft)
			}

			e := edge{left: left, right: right, out: out, kind: kind}
			if sd.CompoundsAreIngredients || kind != KindOutput {
				layer = append(layer, e)
			} else {
				compounds = append(compounds, e)
			}
		}

		remaining = len(inputsLeft) + len(intermediatesLeft) + len(outputsLeft)
		dag = append(dag, layer...)
	}
	dag = append(dag, compounds...)

	g := &Graph{Recipes: make(map[Pair][]Element)}
	for _, e := range dag {
		// Inputs arrive as items; their position only gates when they unlock.
		if e.kind == KindInput || e.left < 0 {
			continue
		}
		key := Pair{
			A: Element{ID: dag[e.left].out, Kind: dag[e.left].kind},
			B: Element{ID: dag[e.right].out, Kind: dag[e.right].kind},
		}
		g.Recipes[key] = append(g.Recipes[key], Element{ID: e.out, Kind: e.kind})
	}

	for _, id := range seq(1, inputs) {
		g.Elements = append(g.Elements, Element{ID: uint64(id), Kind: KindInput})
	}
	for _, id := range seq(1, intermediates) {
		g.Elements = append(g.Elements, Element{ID: uint64(id), Kind: KindIntermediate})
	}
	if sd.CompoundsAreIngredients {
		for _, id := range seq(1, outputs) {
			g.Elements = append(g.Elements, Element{ID: uint64(id), Kind: KindOutput})
		}
	}
	return g, nil
}

// pickKind draws kinds until one can be placed. Inputs are only placed
// behind outputs, unless only inputs are left and none could be drawn.
func pickKind(r *rng, inputs, intermediates, outputs, inputsPlaced, outputsPlaced int) Kind {
	if intermediates == 0 && outputs == 0 && outputsPlaced <= inputsPlaced {
		return KindInput
	}
	for {
		switch Kind(r.next()%3) + 1 {
		case KindInput:
			if outputsPlaced > inputsPlaced && inputs > 0 {
				return KindInput
			}
		case KindIntermediate:
			if intermediates > 0 {
				return KindIntermediate
			}
		case KindOutput:
			if outputs > 0 {
				return KindOutput
			}
		}
	}
}

func take(r *rng, ids []int) (uint64, []int) {
	idx := r.intn(len(ids))
	out := ids[idx]
	return uint64(out), append(ids[:idx], ids[idx+1:]...)
}

func seq(from, to int) []int {
	if to < from {
		return nil
	}
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}
