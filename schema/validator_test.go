package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigSchema(t *testing.T) {
	v, err := NewConfigValidator()
	require.NoError(t, err)

	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{name: "empty", doc: `{}`},
		{name: "full", doc: `{"server":{"address":"localhost:38281","slot":"alice"},"transport":{"read_timeout":"10ms"},"client":{"reconnect":{"enabled":true,"jitter":0.5}},"logging":{"level":"debug"}}`},
		{name: "extension", doc: `{"my_tool":{"anything":1}}`},
		{name: "unknown server key", doc: `{"server":{"host":"x"}}`, wantErr: "/server"},
		{name: "bad duration", doc: `{"transport":{"idle_sleep":"soon"}}`, wantErr: "/transport/idle_sleep"},
		{name: "jitter out of range", doc: `{"client":{"reconnect":{"jitter":2}}}`, wantErr: "/client/reconnect/jitter"},
		{name: "bad log level", doc: `{"logging":{"level":"loud"}}`, wantErr: "/logging/level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateJSON([]byte(tt.doc))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDataPackageSchema(t *testing.T) {
	v, err := NewDataPackageValidator()
	require.NoError(t, err)

	valid := map[string]interface{}{
		"game": "Elementipelago",
		"datapackage": map[string]interface{}{
			"checksum":            "abc",
			"location_name_to_id": map[string]int{"Compound 1": 1},
			"location_id_to_name": map[string]string{"1": "Compound 1"},
			"item_name_to_id":     map[string]int{"Element 1": 100},
			"item_id_to_name":     map[string]string{"100": "Element 1"},
		},
	}
	assert.NoError(t, v.Validate(valid))

	assert.Error(t, v.ValidateJSON([]byte(`{"game":"G"}`)))
	assert.Error(t, v.ValidateJSON([]byte(`{"game":"G","datapackage":{"checksum":"x","location_name_to_id":{},"location_id_to_name":{"one":"x"},"item_name_to_id":{},"item_id_to_name":{}}}`)))
	assert.Error(t, v.ValidateJSON([]byte(`not json`)))
}
