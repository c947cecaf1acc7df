package protocol

import "encoding/json"

// Server command tags.
const (
	CmdRoomInfo          = "RoomInfo"
	CmdConnectionRefused = "ConnectionRefused"
	CmdConnected         = "Connected"
	CmdReceivedItems     = "ReceivedItems"
	CmdLocationInfo      = "LocationInfo"
	CmdRoomUpdate        = "RoomUpdate"
	CmdPrintJSON         = "PrintJSON"
	CmdDataPackage       = "DataPackage"
	CmdBounced           = "Bounced"
	CmdInvalidPacket     = "InvalidPacket"
	CmdRetrieved         = "Retrieved"
	CmdSetReply          = "SetReply"
)

// ServerMessage is a message received from the server.
// Implementations are pointers to the types below.
type ServerMessage interface {
	Command() string
	serverMessage()
}

// RoomInfo is sent once the socket is open, before login.
type RoomInfo struct {
	Version              Version           `json:"version"`
	GeneratorVersion     Version           `json:"generator_version"`
	Tags                 []string          `json:"tags"`
	Password             bool              `json:"password"`
	Permissions          Permissions       `json:"permissions"`
	HintCost             int               `json:"hint_cost"`
	LocationCheckPoints  int               `json:"location_check_points"`
	Games                []string          `json:"games"`
	DataPackageChecksums map[string]string `json:"datapackage_checksums"`
	SeedName             string            `json:"seed_name"`
	Time                 float64           `json:"time"`
}

// ConnectionRefused rejects a Connect.
type ConnectionRefused struct {
	Errors []string `json:"errors"`
}

// Connected accepts a Connect.
type Connected struct {
	Team             TeamID                 `json:"team"`
	Slot             SlotID                 `json:"slot"`
	Players          []NetworkPlayer        `json:"players"`
	MissingLocations []LocationID           `json:"missing_locations"`
	CheckedLocations []LocationID           `json:"checked_locations"`
	SlotData         json.RawMessage        `json:"slot_data,omitempty"`
	SlotInfo         map[SlotID]NetworkSlot `json:"slot_info"`
	HintPoints       int                    `json:"hint_points"`
}

// ReceivedItems delivers items starting at Index in the slot's item history.
type ReceivedItems struct {
	Index int           `json:"index"`
	Items []NetworkItem `json:"items"`
}

// LocationInfo answers LocationScouts.
type LocationInfo struct {
	Locations []NetworkItem `json:"locations"`
}

// RoomUpdate carries a partial update. Absent fields are nil.
type RoomUpdate struct {
	Version              *Version               `json:"version,omitempty"`
	GeneratorVersion     *Version               `json:"generator_version,omitempty"`
	Tags                 []string               `json:"tags,omitempty"`
	Password             *bool                  `json:"password,omitempty"`
	Permissions          *Permissions           `json:"permissions,omitempty"`
	HintCost             *int                   `json:"hint_cost,omitempty"`
	LocationCheckPoints  *int                   `json:"location_check_points,omitempty"`
	Games                []string               `json:"games,omitempty"`
	DataPackageChecksums map[string]string      `json:"datapackage_checksums,omitempty"`
	SeedName             *string                `json:"seed_name,omitempty"`
	Time                 *float64               `json:"time,omitempty"`
	Team                 *TeamID                `json:"team,omitempty"`
	Slot                 *SlotID                `json:"slot,omitempty"`
	Players              []NetworkPlayer        `json:"players,omitempty"`
	CheckedLocations     []LocationID           `json:"checked_locations,omitempty"`
	SlotData             json.RawMessage        `json:"slot_data,omitempty"`
	SlotInfo             map[SlotID]NetworkSlot `json:"slot_info,omitempty"`
	HintPoints           *int                   `json:"hint_points,omitempty"`
}

// PrintJSON is a display message.
type PrintJSON struct {
	Type      string            `json:"type,omitempty"`
	Data      []JSONMessagePart `json:"data"`
	Receiving *SlotID           `json:"receiving,omitempty"`
	Item      *NetworkItem      `json:"item,omitempty"`
	Found     *bool             `json:"found,omitempty"`
	Team      *TeamID           `json:"team,omitempty"`
	Slot      *SlotID           `json:"slot,omitempty"`
	Message   *string           `json:"message,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
	Countdown *int              `json:"countdown,omitempty"`
}

// PlainText concatenates the text of every part.
func (p *PrintJSON) PlainText() string {
	return joinParts(p.Data)
}

// DataPackageData holds the catalogs keyed by game name.
type DataPackageData struct {
	Games map[string]GameData `json:"games"`
}

// DataPackage answers GetDataPackage.
type DataPackage struct {
	Data DataPackageData `json:"data"`
}

// Bounced is a relayed Bounce.
type Bounced struct {
	Games []string       `json:"games,omitempty"`
	Slots []SlotID       `json:"slots,omitempty"`
	Tags  []string       `json:"tags,omitempty"`
	Data  map[string]any `json:"data"`
}

// InvalidPacket reports a packet the server could not handle.
type InvalidPacket struct {
	Type        string `json:"type"`
	OriginalCmd string `json:"original_cmd,omitempty"`
	Text        string `json:"text"`
}

// Retrieved answers Get.
type Retrieved struct {
	Keys map[string]any `json:"keys"`
}

// SetReply answers Set and SetNotify.
type SetReply struct {
	Key           string `json:"key"`
	Value         any    `json:"value"`
	OriginalValue any    `json:"original_value"`
	Slot          SlotID `json:"slot"`
}

// Unrecognized is a message whose tag this client does not know.
type Unrecognized struct {
	Cmd string
	Raw json.RawMessage
}

func (*RoomInfo) Command() string          { return CmdRoomInfo }
func (*ConnectionRefused) Command() string { return CmdConnectionRefused }
func (*Connected) Command() string         { return CmdConnected }
func (*ReceivedItems) Command() string     { return CmdReceivedItems }
func (*LocationInfo) Command() string      { return CmdLocationInfo }
func (*RoomUpdate) Command() string        { return CmdRoomUpdate }
func (*PrintJSON) Command() string         { return CmdPrintJSON }
func (*DataPackage) Command() string       { return CmdDataPackage }
func (*Bounced) Command() string           { return CmdBounced }
func (*InvalidPacket) Command() string     { return CmdInvalidPacket }
func (*Retrieved) Command() string         { return CmdRetrieved }
func (*SetReply) Command() string          { return CmdSetReply }
func (u *Unrecognized) Command() string    { return u.Cmd }

func (*RoomInfo) serverMessage()          {}
func (*ConnectionRefused) serverMessage() {}
func (*Connected) serverMessage()         {}
func (*ReceivedItems) serverMessage()     {}
func (*LocationInfo) serverMessage()      {}
func (*RoomUpdate) serverMessage()        {}
func (*PrintJSON) serverMessage()         {}
func (*DataPackage) serverMessage()       {}
func (*Bounced) serverMessage()           {}
func (*InvalidPacket) serverMessage()     {}
func (*Retrieved) serverMessage()         {}
func (*SetReply) serverMessage()          {}
func (*Unrecognized) serverMessage()      {}
