package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/grovetools/elementipelago/errors"
	"github.com/mitchellh/mapstructure"
)

// SlotData is the slot-specific payload sent with Connected.
type SlotData struct {
	ElementAmount           uint64 `mapstructure:"element_amount" json:"element_amount"`
	CompoundAmount          uint64 `mapstructure:"compound_amount" json:"compound_amount,omitempty"`
	FillerAmount            uint64 `mapstructure:"filler_amount" json:"filler_amount,omitempty"`
	IntermediateAmount      uint64 `mapstructure:"intermediate_amount" json:"intermediate_amount"`
	GraphSeed               uint64 `mapstructure:"graph_seed" json:"graph_seed"`
	CompoundsAreIngredients bool   `mapstructure:"compounds_are_ingredients" json:"compounds_are_ingredients"`
}

// Compounds returns the number of output elements. An explicit compound
// amount wins; otherwise every element plus the filler becomes a compound.
func (s SlotData) Compounds() uint64 {
	if s.CompoundAmount > 0 {
		return s.CompoundAmount
	}
	return s.ElementAmount + s.FillerAmount
}

// ParseSlotData decodes slot data strictly: unknown keys and missing
// required keys are errors.
func ParseSlotData(raw json.RawMessage) (SlotData, error) {
	sd := SlotData{CompoundsAreIngredients: true}
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return sd, errors.SlotDataInvalid(fmt.Errorf("slot data is empty"))
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return sd, errors.SlotDataInvalid(err)
	}

	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &sd,
		Metadata:    &md,
		ErrorUnused: true,
		DecodeHook:  intToBool,
	})
	if err != nil {
		return sd, errors.SlotDataInvalid(err)
	}
	if err := decoder.Decode(fields); err != nil {
		return sd, errors.SlotDataInvalid(err)
	}

	seen := make(map[string]bool, len(md.Keys))
	for _, k := range md.Keys {
		seen[k] = true
	}
	for _, required := range []string{"element_amount", "intermediate_amount", "graph_seed"} {
		if !seen[required] {
			return sd, errors.SlotDataInvalid(fmt.Errorf("missing %s", required))
		}
	}
	if !seen["compound_amount"] && !seen["filler_amount"] {
		return sd, errors.SlotDataInvalid(fmt.Errorf("missing compound_amount or filler_amount"))
	}
	return sd, nil
}

// intToBool accepts 0 and 1 for boolean fields.
func intToBool(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	n, ok := data.(json.Number)
	if !ok || to.Kind() != reflect.Bool {
		return data, nil
	}
	switch n.String() {
	case "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return nil, fmt.Errorf("expected 0 or 1, got %s", n)
	}
}
