// Package state persists small pieces of client state between runs, such as
// the last server and slot a connection succeeded with.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/grovetools/elementipelago/pkg/paths"
	"gopkg.in/yaml.v3"
)

// State is the persisted state as a generic map of key-value pairs.
type State map[string]interface{}

// Keys written by SaveLastConnection.
const (
	KeyLastAddress     = "last_connection.address"
	KeyLastSlot        = "last_connection.slot"
	KeyLastConnectedAt = "last_connection.connected_at"
)

// stateFilePath returns the path to the state file, under the user state dir.
func stateFilePath() (string, error) {
	path := paths.StateFilePath()
	if path == "" {
		return "", fmt.Errorf("no state directory available")
	}
	return path, nil
}

// Load loads the state from the state file.
// Returns an empty state if the file doesn't exist.
func Load() (State, error) {
	path, err := stateFilePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(State), nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var state State
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}

	if state == nil {
		state = make(State)
	}

	return state, nil
}

// Save saves the state to the state file.
func Save(state State) error {
	path, err := stateFilePath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	return nil
}

// Get retrieves a value from the state by key.
// Returns the value and true if found, nil and false otherwise.
func Get(key string) (interface{}, bool, error) {
	state, err := Load()
	if err != nil {
		return nil, false, err
	}

	val, ok := state[key]
	return val, ok, nil
}

// GetString is a convenience function to get a string value from state.
// Returns empty string if the key doesn't exist or the value is not a string.
func GetString(key string) (string, error) {
	val, ok, err := Get(key)
	if err != nil || !ok {
		return "", err
	}

	str, _ := val.(string)
	return str, nil
}

// Set sets a value in the state.
func Set(key string, value interface{}) error {
	state, err := Load()
	if err != nil {
		return err
	}

	state[key] = value
	return Save(state)
}

// Delete removes a key from the state.
func Delete(key string) error {
	state, err := Load()
	if err != nil {
		return err
	}

	delete(state, key)
	return Save(state)
}

// LastConnection is the last address and slot a login succeeded with.
type LastConnection struct {
	Address     string
	Slot        string
	ConnectedAt time.Time
}

// SaveLastConnection records a successful login. Passwords are never stored.
func SaveLastConnection(address, slot string, at time.Time) error {
	state, err := Load()
	if err != nil {
		return err
	}

	state[KeyLastAddress] = address
	state[KeyLastSlot] = slot
	state[KeyLastConnectedAt] = at.UTC().Format(time.RFC3339)
	return Save(state)
}

// LoadLastConnection returns the last successful login, or false if none was recorded.
func LoadLastConnection() (LastConnection, bool, error) {
	state, err := Load()
	if err != nil {
		return LastConnection{}, false, err
	}

	address, _ := state[KeyLastAddress].(string)
	slot, _ := state[KeyLastSlot].(string)
	if address == "" {
		return LastConnection{}, false, nil
	}

	last := LastConnection{Address: address, Slot: slot}
	switch at := state[KeyLastConnectedAt].(type) {
	case string:
		last.ConnectedAt, _ = time.Parse(time.RFC3339, at)
	case time.Time:
		last.ConnectedAt = at
	}
	return last, true, nil
}
