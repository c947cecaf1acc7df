package protocol

import "strings"

// SlotID identifies one participant seat in a room. Slot 0 is the server.
type SlotID int

// TeamID identifies a team within a room.
type TeamID int

// ItemID is the numeric id of an item on the wire.
type ItemID int64

// LocationID is the numeric id of a location on the wire.
type LocationID int64

// Version is the protocol version triple sent at login and announced by the server.
type Version struct {
	Major int    `json:"major"`
	Minor int    `json:"minor"`
	Build int    `json:"build"`
	Class string `json:"class"`
}

// DefaultVersion is the protocol version this client speaks.
var DefaultVersion = Version{Major: 0, Minor: 6, Build: 5, Class: "Version"}

// ItemsHandling selects which item-received notifications the client wants.
type ItemsHandling uint8

const (
	ItemsHandlingOwnWorld          ItemsHandling = 1 << 0
	ItemsHandlingOtherWorlds       ItemsHandling = 1 << 1
	ItemsHandlingStartingInventory ItemsHandling = 1 << 2

	// ItemsHandlingAll is what this client always requests.
	ItemsHandlingAll = ItemsHandlingOwnWorld | ItemsHandlingOtherWorlds | ItemsHandlingStartingInventory
)

// Has reports whether every bit of flag is set.
func (h ItemsHandling) Has(flag ItemsHandling) bool {
	return h&flag == flag
}

// SlotType is the role of a slot in the room.
type SlotType int

const (
	SlotTypeSpectator SlotType = 0
	SlotTypePlayer    SlotType = 1
	SlotTypeGroup     SlotType = 2
)

func (t SlotType) String() string {
	switch t {
	case SlotTypeSpectator:
		return "spectator"
	case SlotTypePlayer:
		return "player"
	case SlotTypeGroup:
		return "group"
	default:
		return "unknown"
	}
}

// NetworkSlot describes a slot in the Connected/RoomUpdate slot_info map.
type NetworkSlot struct {
	Name         string   `json:"name"`
	Game         string   `json:"game"`
	Type         SlotType `json:"type"`
	GroupMembers []SlotID `json:"group_members,omitempty"`
}

// NetworkPlayer is one entry of the room roster.
type NetworkPlayer struct {
	Team  TeamID `json:"team"`
	Slot  SlotID `json:"slot"`
	Alias string `json:"alias"`
	Name  string `json:"name"`
}

// NetworkItem is an item placed at a location, as reported by the server.
type NetworkItem struct {
	Item     ItemID     `json:"item"`
	Location LocationID `json:"location"`
	Player   SlotID     `json:"player"`
	Flags    int        `json:"flags"`
}

// Permission is the bit set controlling release/collect/remaining commands.
type Permission int

const (
	PermissionDisabled    Permission = 0b000
	PermissionEnabled     Permission = 0b001
	PermissionGoal        Permission = 0b010
	PermissionAuto        Permission = 0b110
	PermissionAutoEnabled Permission = 0b111
)

// Permissions is the room permission table.
type Permissions struct {
	Release   Permission `json:"release"`
	Collect   Permission `json:"collect"`
	Remaining Permission `json:"remaining"`
}

// HintStatus is the status of a hint.
type HintStatus int

const (
	HintUnspecified HintStatus = 0
	HintNoPriority  HintStatus = 10
	HintAvoid       HintStatus = 20
	HintPriority    HintStatus = 30
	HintFound       HintStatus = 40
)

// ClientStatus is the status a client reports with StatusUpdate.
type ClientStatus int

const (
	ClientUnknown   ClientStatus = 0
	ClientConnected ClientStatus = 5
	ClientReady     ClientStatus = 10
	ClientPlaying   ClientStatus = 20
	ClientGoal      ClientStatus = 30
)

// Refusal reasons sent in ConnectionRefused.errors.
const (
	RefusedInvalidSlot          = "InvalidSlot"
	RefusedInvalidGame          = "InvalidGame"
	RefusedIncompatibleVersion  = "IncompatibleVersion"
	RefusedInvalidPassword      = "InvalidPassword"
	RefusedInvalidItemsHandling = "InvalidItemsHandling"
)

// JSONMessagePart is one display fragment of a PrintJSON message.
type JSONMessagePart struct {
	Type   string `json:"type,omitempty"`
	Text   string `json:"text,omitempty"`
	Color  string `json:"color,omitempty"`
	Flags  int    `json:"flags,omitempty"`
	Player SlotID `json:"player,omitempty"`
}

// GameData is the per-game catalog sent in a DataPackage message.
type GameData struct {
	Checksum           string                `json:"checksum"`
	ItemNameGroups     map[string][]string   `json:"item_name_groups,omitempty"`
	ItemNameToID       map[string]ItemID     `json:"item_name_to_id"`
	LocationNameGroups map[string][]string   `json:"location_name_groups,omitempty"`
	LocationNameToID   map[string]LocationID `json:"location_name_to_id"`
}

func joinParts(parts []JSONMessagePart) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.Text)
	}
	return b.String()
}
