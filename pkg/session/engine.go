package session

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/grovetools/elementipelago/errors"
	"github.com/grovetools/elementipelago/logging"
	"github.com/grovetools/elementipelago/pkg/datapackage"
	"github.com/grovetools/elementipelago/pkg/graph"
	"github.com/grovetools/elementipelago/pkg/protocol"
	"github.com/grovetools/elementipelago/pkg/queue"
	"github.com/grovetools/elementipelago/pkg/transport"
	"github.com/sirupsen/logrus"
)

// ReasonEmptyAddress is the ConnectionError reason for StartConnect without an address.
const ReasonEmptyAddress = "address is empty"

// ReasonClosed is the ConnectionError reason for StartConnect after the transport was shut down.
const ReasonClosed = "transport is shut down"

// Generator builds the recipe graph from the slot data of a Connected message.
type Generator interface {
	Generate(slotData json.RawMessage) (*graph.Graph, error)
}

// CatalogStore persists catalogs received from the server.
type CatalogStore interface {
	Save(game string, catalog *datapackage.Catalog) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger replaces the component logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithUUID replaces the login identity generator.
func WithUUID(fn func() string) Option {
	return func(e *Engine) {
		e.newUUID = fn
	}
}

// Engine applies transport events and server messages to a State and
// enqueues the resulting transport commands. It is not safe for concurrent use.
type Engine struct {
	state     *State
	commands  *queue.Queue[transport.Command]
	store     CatalogStore
	generator Generator
	logger    *logrus.Entry
	newUUID   func() string
}

// NewEngine creates an engine owning state. store and generator may be nil.
func NewEngine(state *State, commands *queue.Queue[transport.Command], store CatalogStore, generator Generator, opts ...Option) *Engine {
	e := &Engine{
		state:     state,
		commands:  commands,
		store:     store,
		generator: generator,
		newUUID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewLogger("session")
	}
	return e
}

// State returns the engine's state.
func (e *Engine) State() *State {
	return e.state
}

// SetCredentials sets the address, slot and password used by the next StartConnect.
func (e *Engine) SetCredentials(address, slot, password string) {
	e.state.Address = address
	e.state.Slot = slot
	e.state.Password = password
}

// StartConnect asks the transport to connect to the configured address.
func (e *Engine) StartConnect() []Notification {
	address := strings.TrimSpace(e.state.Address)
	if address == "" {
		e.state.Status = StatusDisconnected
		return []Notification{ConnectionError{Reason: ReasonEmptyAddress}}
	}

	e.state.Status = StatusConnecting
	e.state.NextItemIndex = 0
	if !e.commands.Push(transport.Connect{Address: address}) {
		e.state.Status = StatusDisconnected
		return []Notification{ConnectionError{Reason: ReasonClosed}}
	}
	e.logger.WithFields(logrus.Fields{
		"address": address,
		"slot":    e.state.Slot,
	}).Info("Connecting")
	return nil
}

// HandleEvent applies one transport event.
func (e *Engine) HandleEvent(ev transport.Event) []Notification {
	switch ev := ev.(type) {
	case transport.Connected:
		e.logger.WithField("url", ev.URL).Debug("Socket open, waiting for RoomInfo")
		return nil
	case transport.ConnectionError:
		e.state.Status = StatusDisconnected
		return []Notification{ConnectionError{Reason: ev.Message}}
	case transport.Disconnected:
		e.state.Status = StatusDisconnected
		e.logger.WithField("reason", ev.Reason).Info("Disconnected")
		return []Notification{Disconnected{Reason: ev.Reason}}
	case transport.TextMessage:
		msgs, err := protocol.Decode([]byte(ev.Payload))
		if err != nil {
			e.logger.WithError(err).WithField("frame", truncate(ev.Payload, 256)).Warn("Dropping undecodable frame")
			return nil
		}
		var out []Notification
		for _, msg := range msgs {
			out = append(out, e.HandleMessage(msg)...)
		}
		return out
	default:
		e.logger.WithField("event", fmt.Sprintf("%T", ev)).Warn("Ignoring unknown transport event")
		return nil
	}
}

// HandleMessage applies one decoded server message.
func (e *Engine) HandleMessage(msg protocol.ServerMessage) []Notification {
	switch m := msg.(type) {
	case *protocol.RoomInfo:
		e.handleRoomInfo(m)
	case *protocol.ConnectionRefused:
		return e.handleConnectionRefused(m)
	case *protocol.Connected:
		return e.handleConnected(m)
	case *protocol.ReceivedItems:
		return e.handleReceivedItems(m)
	case *protocol.DataPackage:
		e.handleDataPackage(m)
	case *protocol.RoomUpdate:
		e.handleRoomUpdate(m)
	case *protocol.PrintJSON:
		return []Notification{Print{Type: m.Type, Message: m.PlainText()}}
	case *protocol.InvalidPacket:
		e.logger.WithFields(logrus.Fields{
			"type":         m.Type,
			"original_cmd": m.OriginalCmd,
		}).Warn("Server rejected packet: " + m.Text)
	case *protocol.Unrecognized:
		e.logger.WithField("cmd", m.Cmd).Debug("Ignoring unrecognized message")
	default:
		e.logger.WithField("cmd", msg.Command()).Debug("Ignoring message")
	}
	return nil
}

func (e *Engine) handleRoomInfo(m *protocol.RoomInfo) {
	if e.state.Status == StatusConnected {
		e.logger.Debug("Ignoring RoomInfo while connected")
		return
	}

	checksums := make(map[string]string, len(m.DataPackageChecksums))
	for game, sum := range m.DataPackageChecksums {
		checksums[game] = sum
	}
	e.state.Room = Room{
		SeedName:            m.SeedName,
		Version:             m.Version,
		GeneratorVersion:    m.GeneratorVersion,
		Tags:                m.Tags,
		Password:            m.Password,
		Permissions:         m.Permissions,
		HintCost:            m.HintCost,
		LocationCheckPoints: m.LocationCheckPoints,
		Games:               m.Games,
		Checksums:           checksums,
	}

	var batch []protocol.ClientMessage
	if stale := e.state.staleGames(checksums); len(stale) > 0 {
		e.logger.WithField("games", stale).Debug("Requesting datapackages")
		batch = append(batch, protocol.GetDataPackage{Games: stale})
	}
	batch = append(batch, protocol.Connect{
		Password:      e.state.Password,
		Game:          e.state.Game,
		Name:          e.state.Slot,
		UUID:          e.newUUID(),
		Version:       protocol.DefaultVersion,
		ItemsHandling: protocol.ItemsHandlingAll,
		Tags:          []string{},
		SlotData:      true,
	})
	e.send(batch...)
}

func (e *Engine) handleConnectionRefused(m *protocol.ConnectionRefused) []Notification {
	e.state.Status = StatusDisconnected
	err := errors.ConnectionRefused(m.Errors)
	e.logger.WithField("errors", m.Errors).Warn("Login refused")
	return []Notification{ConnectionError{
		Reason:   err.Error(),
		Refusals: append([]string(nil), m.Errors...),
	}}
}

func (e *Engine) handleConnected(m *protocol.Connected) []Notification {
	var g *graph.Graph
	if e.generator != nil {
		var err error
		if g, err = e.generator.Generate(m.SlotData); err != nil {
			e.state.Status = StatusDisconnected
			e.logger.WithError(err).Error("Could not generate recipe graph from slot data")
			return []Notification{ConnectionError{Reason: err.Error()}}
		}
	}

	s := e.state
	s.Team = m.Team
	s.SlotID = m.Slot
	s.HintPoints = m.HintPoints
	s.SlotData = m.SlotData
	s.CheckedLocations = idSet(m.CheckedLocations)
	s.MissingLocations = idSet(m.MissingLocations)
	s.Players = m.Players

	s.Directory[0] = ServerSlotName
	e.updateDirectory(m.SlotInfo)

	s.Graph = g
	s.Status = StatusConnected
	e.logger.WithFields(logrus.Fields{
		"slot":    m.Slot,
		"team":    m.Team,
		"checked": len(s.CheckedLocations),
		"missing": len(s.MissingLocations),
	}).Info("Logged in")
	return []Notification{Connected{Slot: s.Slot, Team: int(m.Team), SlotID: int(m.Slot)}}
}

func (e *Engine) updateDirectory(info map[protocol.SlotID]protocol.NetworkSlot) {
	for slot, ns := range info {
		if ns.Type == protocol.SlotTypeGroup {
			e.logger.WithFields(logrus.Fields{
				"slot":    slot,
				"group":   ns.Name,
				"members": ns.GroupMembers,
			}).Debug("Registering item group slot")
		}
		e.state.Directory[slot] = ns.Game
	}
}

func (e *Engine) handleReceivedItems(m *protocol.ReceivedItems) []Notification {
	s := e.state
	start := m.Index
	items := m.Items

	switch {
	case start == 0:
		s.NextItemIndex = 0
	case start > s.NextItemIndex:
		e.logger.WithFields(logrus.Fields{
			"expected": s.NextItemIndex,
			"index":    start,
		}).Warn("Gap in received items, requesting resync")
		e.send(protocol.Sync{})
		return nil
	case start < s.NextItemIndex:
		seen := s.NextItemIndex - start
		if seen >= len(items) {
			return nil
		}
		items = items[seen:]
		start = s.NextItemIndex
	}

	var out []Notification
	for i, item := range items {
		el, ok := graph.ElementFromItemID(item.Item)
		if !ok {
			e.logger.WithField("item", item.Item).Debug("Skipping item outside the element range")
			continue
		}
		var name string
		if game, ok := s.Directory[item.Player]; ok {
			if cat, ok := s.Catalog(game); ok {
				name, _ = cat.ItemName(item.Item)
			}
		}
		out = append(out, ReceivedItem{
			Element:  el,
			ItemName: name,
			Sender:   s.PlayerName(item.Player),
			Index:    start + i,
		})
	}
	s.NextItemIndex = start + len(items)
	return out
}

func (e *Engine) handleDataPackage(m *protocol.DataPackage) {
	games := make([]string, 0, len(m.Data.Games))
	for game := range m.Data.Games {
		games = append(games, game)
	}
	sort.Strings(games)

	for _, game := range games {
		cat := datapackage.FromGameData(m.Data.Games[game])
		if e.store != nil {
			if err := e.store.Save(game, cat); err != nil {
				e.logger.WithError(err).WithField("game", game).Warn("Could not cache datapackage")
			}
		}
		e.state.Catalogs[game] = cat
		e.logger.WithFields(logrus.Fields{
			"game":      game,
			"checksum":  cat.Checksum,
			"items":     len(cat.ItemNameToID),
			"locations": len(cat.LocationNameToID),
		}).Debug("Datapackage received")
	}
}

func (e *Engine) handleRoomUpdate(m *protocol.RoomUpdate) {
	s := e.state
	if m.HintPoints != nil {
		s.HintPoints = *m.HintPoints
	}
	if m.Tags != nil {
		s.Room.Tags = m.Tags
	}
	if m.Password != nil {
		s.Room.Password = *m.Password
	}
	if m.Permissions != nil {
		s.Room.Permissions = *m.Permissions
	}
	if m.HintCost != nil {
		s.Room.HintCost = *m.HintCost
	}
	if m.LocationCheckPoints != nil {
		s.Room.LocationCheckPoints = *m.LocationCheckPoints
	}
	if m.SeedName != nil {
		s.Room.SeedName = *m.SeedName
	}
	if m.Team != nil {
		s.Team = *m.Team
	}
	if m.Slot != nil {
		s.SlotID = *m.Slot
	}
	if m.Players != nil {
		s.Players = m.Players
	}
	if m.SlotInfo != nil {
		e.updateDirectory(m.SlotInfo)
	}
	for _, loc := range m.CheckedLocations {
		s.CheckedLocations[loc] = struct{}{}
		delete(s.MissingLocations, loc)
	}

	fields := logrus.Fields{}
	if m.Version != nil {
		fields["version"] = *m.Version
	}
	if m.GeneratorVersion != nil {
		fields["generator_version"] = *m.GeneratorVersion
	}
	if m.Time != nil {
		fields["time"] = *m.Time
	}
	if m.Games != nil {
		fields["games"] = m.Games
	}
	if m.DataPackageChecksums != nil {
		fields["datapackage_checksums"] = m.DataPackageChecksums
	}
	if m.SlotData != nil {
		fields["slot_data"] = string(m.SlotData)
	}
	if len(fields) > 0 {
		e.logger.WithFields(fields).Debug("Room update fields not applied")
	}
}

// SendItem reports the location for a crafted element as checked.
// Already checked locations are not sent again.
func (e *Engine) SendItem(el graph.Element) error {
	if e.state.Status != StatusConnected {
		return errors.New(errors.ErrCodeNotConnected, "cannot send item while not connected").
			WithDetail("element", el.String())
	}
	loc, ok := el.LocationID()
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("%s is not a location", el))
	}
	if e.state.IsChecked(loc) {
		e.logger.WithField("location", loc).Debug("Location already checked")
		return nil
	}
	return e.send(protocol.LocationChecks{Locations: []protocol.LocationID{loc}})
}

// Say sends a chat message.
func (e *Engine) Say(text string) error {
	if e.state.Status != StatusConnected {
		return errors.New(errors.ErrCodeNotConnected, "cannot send chat while not connected")
	}
	return e.send(protocol.Say{Text: text})
}

// UpdateStatus reports the client status to the server.
func (e *Engine) UpdateStatus(status protocol.ClientStatus) error {
	if e.state.Status != StatusConnected {
		return errors.New(errors.ErrCodeNotConnected, "cannot update status while not connected")
	}
	return e.send(protocol.StatusUpdate{Status: status})
}

func (e *Engine) send(msgs ...protocol.ClientMessage) error {
	data, err := protocol.Encode(msgs...)
	if err != nil {
		e.logger.WithError(err).Error("Could not encode outbound messages")
		return err
	}
	if !e.commands.Push(transport.SendText{Payload: string(data)}) {
		return errors.New(errors.ErrCodeDisconnected, ReasonClosed)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
