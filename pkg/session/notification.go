package session

import "github.com/grovetools/elementipelago/pkg/graph"

// Notification is reported to the application after reconciliation.
type Notification interface {
	notification()
}

// Connected is emitted once per accepted login.
type Connected struct {
	Slot string
	Team int
	// SlotID is the numeric slot the server assigned.
	SlotID int
}

// ReceivedItem is one item delivered to this slot.
type ReceivedItem struct {
	Element graph.Element
	// ItemName is empty when no fresh catalog could resolve the id.
	ItemName string
	Sender   string
	Index    int
}

// ConnectionError reports a failed connect or a refused login.
type ConnectionError struct {
	Reason   string
	Refusals []string
}

// Disconnected reports that the connection ended.
type Disconnected struct {
	Reason string
}

// Print is a display message from the server.
type Print struct {
	Type    string
	Message string
}

func (Connected) notification()       {}
func (ReceivedItem) notification()    {}
func (ConnectionError) notification() {}
func (Disconnected) notification()    {}
func (Print) notification()           {}
