package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/grovetools/elementipelago/logging"
	"github.com/grovetools/elementipelago/pkg/session"
)

// Printer writes session notifications for a human or, in JSON mode, one
// JSON object per line.
type Printer struct {
	w      io.Writer
	json   bool
	pretty *logging.PrettyLogger
}

// NewPrinter creates a printer for w. plain disables colours.
func NewPrinter(w io.Writer, jsonOutput, plain bool) *Printer {
	return &Printer{
		w:      w,
		json:   jsonOutput,
		pretty: logging.NewPrettyLoggerFor(w, plain),
	}
}

type jsonNotification struct {
	Type     string   `json:"type"`
	Slot     string   `json:"slot,omitempty"`
	SlotID   *int     `json:"slot_id,omitempty"`
	Element  string   `json:"element,omitempty"`
	ItemName string   `json:"item_name,omitempty"`
	Sender   string   `json:"sender,omitempty"`
	Index    *int     `json:"index,omitempty"`
	Reason   string   `json:"reason,omitempty"`
	Refusals []string `json:"refusals,omitempty"`
	Kind     string   `json:"kind,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// Notify prints one notification.
func (p *Printer) Notify(n session.Notification) {
	if p.json {
		p.printJSON(n)
		return
	}

	s := p.pretty.Styles()
	switch n := n.(type) {
	case session.Connected:
		p.pretty.Success(fmt.Sprintf("connected as %s (slot %d, team %d)", n.Slot, n.SlotID, n.Team))
	case session.ReceivedItem:
		line := fmt.Sprintf("%s %s %s", s.Item.Render(n.Element.String()), s.Muted.Render("from"), s.Player.Render(n.Sender))
		if n.ItemName != "" && n.ItemName != n.Element.String() {
			line += s.Muted.Render(fmt.Sprintf(" (%s)", n.ItemName))
		}
		p.pretty.Line(line)
	case session.ConnectionError:
		if len(n.Refusals) > 0 {
			p.pretty.ErrorPretty("login refused", fmt.Errorf("%s", strings.Join(n.Refusals, ", ")))
			return
		}
		p.pretty.ErrorPretty("connection failed", fmt.Errorf("%s", n.Reason))
	case session.Disconnected:
		p.pretty.WarnPretty("disconnected: " + n.Reason)
	case session.Print:
		p.pretty.InfoPretty(n.Message)
	}
}

func (p *Printer) printJSON(n session.Notification) {
	var out jsonNotification
	switch n := n.(type) {
	case session.Connected:
		id := n.SlotID
		out = jsonNotification{Type: "connected", Slot: n.Slot, SlotID: &id}
	case session.ReceivedItem:
		idx := n.Index
		out = jsonNotification{Type: "received_item", Element: n.Element.String(), ItemName: n.ItemName, Sender: n.Sender, Index: &idx}
	case session.ConnectionError:
		out = jsonNotification{Type: "connection_error", Reason: n.Reason, Refusals: n.Refusals}
	case session.Disconnected:
		out = jsonNotification{Type: "disconnected", Reason: n.Reason}
	case session.Print:
		out = jsonNotification{Type: "print", Kind: n.Type, Message: n.Message}
	default:
		return
	}
	data, err := json.Marshal(out)
	if err != nil {
		return
	}
	fmt.Fprintln(p.w, string(data))
}
