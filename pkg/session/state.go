// Package session reconciles server messages into the client's view of a
// multiworld room and turns application intents into outbound messages.
package session

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/grovetools/elementipelago/pkg/datapackage"
	"github.com/grovetools/elementipelago/pkg/graph"
	"github.com/grovetools/elementipelago/pkg/protocol"
)

// ServerSlotName is the directory entry for slot 0, the server itself.
const ServerSlotName = "Archipelago"

// Status is the login status of the session.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Room is the room metadata from RoomInfo and later RoomUpdates.
type Room struct {
	SeedName            string
	Version             protocol.Version
	GeneratorVersion    protocol.Version
	Tags                []string
	Password            bool
	Permissions         protocol.Permissions
	HintCost            int
	LocationCheckPoints int
	Games               []string
	// Checksums are the datapackage checksums last announced per game.
	Checksums map[string]string
}

// State is everything the client knows about its session. It is owned by
// a single Engine and must not be shared between goroutines.
type State struct {
	Status   Status
	Address  string
	Slot     string
	Password string
	Game     string

	Team             protocol.TeamID
	SlotID           protocol.SlotID
	CheckedLocations map[protocol.LocationID]struct{}
	MissingLocations map[protocol.LocationID]struct{}
	HintPoints       int
	// Directory maps a slot id to the game played in it.
	Directory map[protocol.SlotID]string
	Players   []protocol.NetworkPlayer
	Room      Room

	Catalogs map[string]*datapackage.Catalog
	SlotData json.RawMessage
	Graph    *graph.Graph

	// NextItemIndex is the index of the next ReceivedItems entry expected.
	NextItemIndex int
}

// NewState creates a disconnected state for game with catalogs warmed from disk.
func NewState(game string, catalogs map[string]*datapackage.Catalog) *State {
	if catalogs == nil {
		catalogs = make(map[string]*datapackage.Catalog)
	}
	return &State{
		Status:           StatusDisconnected,
		Game:             game,
		CheckedLocations: make(map[protocol.LocationID]struct{}),
		MissingLocations: make(map[protocol.LocationID]struct{}),
		Directory:        make(map[protocol.SlotID]string),
		Room:             Room{Checksums: make(map[string]string)},
		Catalogs:         catalogs,
	}
}

// Fresh reports whether the catalog held for game matches the checksum the
// server last announced for it.
func (s *State) Fresh(game string) bool {
	cat, ok := s.Catalogs[game]
	if !ok || cat == nil {
		return false
	}
	announced, ok := s.Room.Checksums[game]
	return ok && announced == cat.Checksum
}

// Catalog returns the catalog for game if it is fresh.
func (s *State) Catalog(game string) (*datapackage.Catalog, bool) {
	if !s.Fresh(game) {
		return nil, false
	}
	return s.Catalogs[game], true
}

// IsChecked reports whether loc is in the checked set.
func (s *State) IsChecked(loc protocol.LocationID) bool {
	_, ok := s.CheckedLocations[loc]
	return ok
}

// Checked returns the checked locations in ascending order.
func (s *State) Checked() []protocol.LocationID {
	return sortedIDs(s.CheckedLocations)
}

// Missing returns the missing locations in ascending order.
func (s *State) Missing() []protocol.LocationID {
	return sortedIDs(s.MissingLocations)
}

// PlayerName returns the display name for slot on the session's team.
func (s *State) PlayerName(slot protocol.SlotID) string {
	if slot == 0 {
		return ServerSlotName
	}
	for _, p := range s.Players {
		if p.Slot != slot || p.Team != s.Team {
			continue
		}
		if p.Alias != "" {
			return p.Alias
		}
		return p.Name
	}
	return fmt.Sprintf("Slot %d", slot)
}

// staleGames returns, sorted, the games whose announced checksum differs
// from the held catalog or that have no catalog.
func (s *State) staleGames(announced map[string]string) []string {
	var games []string
	for game, checksum := range announced {
		cat, ok := s.Catalogs[game]
		if !ok || cat == nil || cat.Checksum != checksum {
			games = append(games, game)
		}
	}
	sort.Strings(games)
	return games
}

// Snapshot is a copy of the public parts of State.
type Snapshot struct {
	Status           Status
	Address          string
	Slot             string
	Game             string
	Team             protocol.TeamID
	SlotID           protocol.SlotID
	HintPoints       int
	CheckedLocations []protocol.LocationID
	MissingLocations []protocol.LocationID
	Directory        map[protocol.SlotID]string
	Players          []protocol.NetworkPlayer
	SeedName         string
	Games            []string
	NextItemIndex    int
	HasGraph         bool
}

// Snapshot copies the state so it can be read outside the engine.
func (s *State) Snapshot() Snapshot {
	dir := make(map[protocol.SlotID]string, len(s.Directory))
	for k, v := range s.Directory {
		dir[k] = v
	}
	games := make([]string, 0, len(s.Catalogs))
	for g := range s.Catalogs {
		games = append(games, g)
	}
	sort.Strings(games)

	return Snapshot{
		Status:           s.Status,
		Address:          s.Address,
		Slot:             s.Slot,
		Game:             s.Game,
		Team:             s.Team,
		SlotID:           s.SlotID,
		HintPoints:       s.HintPoints,
		CheckedLocations: s.Checked(),
		MissingLocations: s.Missing(),
		Directory:        dir,
		Players:          append([]protocol.NetworkPlayer(nil), s.Players...),
		SeedName:         s.Room.SeedName,
		Games:            games,
		NextItemIndex:    s.NextItemIndex,
		HasGraph:         s.Graph != nil,
	}
}

func sortedIDs(set map[protocol.LocationID]struct{}) []protocol.LocationID {
	ids := make([]protocol.LocationID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func idSet(ids []protocol.LocationID) map[protocol.LocationID]struct{} {
	set := make(map[protocol.LocationID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
