package protocol

// Client command tags.
const (
	CmdConnect        = "Connect"
	CmdConnectUpdate  = "ConnectUpdate"
	CmdSync           = "Sync"
	CmdLocationChecks = "LocationChecks"
	CmdLocationScouts = "LocationScouts"
	CmdCreateHints    = "CreateHints"
	CmdUpdateHint     = "UpdateHint"
	CmdStatusUpdate   = "StatusUpdate"
	CmdSay            = "Say"
	CmdGetDataPackage = "GetDataPackage"
	CmdBounce         = "Bounce"
	CmdGet            = "Get"
	CmdSet            = "Set"
	CmdSetNotify      = "SetNotify"
)

// ClientMessage is a message sent from the client to the server.
// The set of implementations is closed.
type ClientMessage interface {
	Command() string
	clientMessage()
}

// Connect logs into a slot.
type Connect struct {
	Password      string        `json:"password"`
	Game          string        `json:"game"`
	Name          string        `json:"name"`
	UUID          string        `json:"uuid"`
	Version       Version       `json:"version"`
	ItemsHandling ItemsHandling `json:"items_handling"`
	Tags          []string      `json:"tags"`
	SlotData      bool          `json:"slot_data"`
}

// ConnectUpdate changes the items handling or tags of an existing login.
type ConnectUpdate struct {
	ItemsHandling ItemsHandling `json:"items_handling"`
	Tags          []string      `json:"tags"`
}

// Sync asks the server to resend every received item.
type Sync struct{}

// LocationChecks reports locations as checked.
type LocationChecks struct {
	Locations []LocationID `json:"locations"`
}

// LocationScouts asks what is placed at the given locations.
type LocationScouts struct {
	Locations    []LocationID `json:"locations"`
	CreateAsHint int          `json:"create_as_hint"`
}

// CreateHints creates hints for locations in a player's world.
type CreateHints struct {
	Locations []LocationID `json:"locations"`
	Player    SlotID       `json:"player"`
	Status    HintStatus   `json:"status"`
}

// UpdateHint changes the status of an existing hint.
type UpdateHint struct {
	Player   SlotID     `json:"player"`
	Location LocationID `json:"location"`
	Status   HintStatus `json:"status"`
}

// StatusUpdate reports the client status.
type StatusUpdate struct {
	Status ClientStatus `json:"status"`
}

// Say sends a chat message.
type Say struct {
	Text string `json:"text"`
}

// GetDataPackage requests the catalogs of the named games.
type GetDataPackage struct {
	Games []string `json:"games"`
}

// Bounce is relayed by the server without interpretation.
type Bounce struct {
	Fields map[string]any
}

// Get reads data storage keys.
type Get struct {
	Fields map[string]any
}

// Set writes a data storage key.
type Set struct {
	Fields map[string]any
}

// SetNotify subscribes to data storage key changes.
type SetNotify struct {
	Fields map[string]any
}

func (Connect) Command() string        { return CmdConnect }
func (ConnectUpdate) Command() string  { return CmdConnectUpdate }
func (Sync) Command() string           { return CmdSync }
func (LocationChecks) Command() string { return CmdLocationChecks }
func (LocationScouts) Command() string { return CmdLocationScouts }
func (CreateHints) Command() string    { return CmdCreateHints }
func (UpdateHint) Command() string     { return CmdUpdateHint }
func (StatusUpdate) Command() string   { return CmdStatusUpdate }
func (Say) Command() string            { return CmdSay }
func (GetDataPackage) Command() string { return CmdGetDataPackage }
func (Bounce) Command() string         { return CmdBounce }
func (Get) Command() string            { return CmdGet }
func (Set) Command() string            { return CmdSet }
func (SetNotify) Command() string      { return CmdSetNotify }

func (Connect) clientMessage()        {}
func (ConnectUpdate) clientMessage()  {}
func (Sync) clientMessage()           {}
func (LocationChecks) clientMessage() {}
func (LocationScouts) clientMessage() {}
func (CreateHints) clientMessage()    {}
func (UpdateHint) clientMessage()     {}
func (StatusUpdate) clientMessage()   {}
func (Say) clientMessage()            {}
func (GetDataPackage) clientMessage() {}
func (Bounce) clientMessage()         {}
func (Get) clientMessage()            {}
func (Set) clientMessage()            {}
func (SetNotify) clientMessage()      {}

func (m Bounce) MarshalJSON() ([]byte, error)    { return marshalFields(m.Fields) }
func (m Get) MarshalJSON() ([]byte, error)       { return marshalFields(m.Fields) }
func (m Set) MarshalJSON() ([]byte, error)       { return marshalFields(m.Fields) }
func (m SetNotify) MarshalJSON() ([]byte, error) { return marshalFields(m.Fields) }
