package session

import (
	"encoding/json"
	"fmt"
	"io"
	"testing"

	"github.com/grovetools/elementipelago/errors"
	"github.com/grovetools/elementipelago/pkg/datapackage"
	"github.com/grovetools/elementipelago/pkg/graph"
	"github.com/grovetools/elementipelago/pkg/protocol"
	"github.com/grovetools/elementipelago/pkg/queue"
	"github.com/grovetools/elementipelago/pkg/transport"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	saved map[string]*datapackage.Catalog
	err   error
}

func (s *fakeStore) Save(game string, cat *datapackage.Catalog) error {
	if s.err != nil {
		return s.err
	}
	if s.saved == nil {
		s.saved = make(map[string]*datapackage.Catalog)
	}
	s.saved[game] = cat
	return nil
}

type fakeGenerator struct {
	calls int
	err   error
}

func (g *fakeGenerator) Generate(raw json.RawMessage) (*graph.Graph, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &graph.Graph{Recipes: map[graph.Pair][]graph.Element{}}, nil
}

type fixture struct {
	engine   *Engine
	commands *queue.Queue[transport.Command]
	store    *fakeStore
	gen      *fakeGenerator
}

func newFixture(t *testing.T, catalogs map[string]*datapackage.Catalog) *fixture {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)

	f := &fixture{
		commands: queue.New[transport.Command](),
		store:    &fakeStore{},
		gen:      &fakeGenerator{},
	}
	state := NewState(graph.GameName, catalogs)
	state.Address = "localhost:38281"
	state.Slot = "alice"
	state.Password = "hunter2"
	f.engine = NewEngine(state, f.commands, f.store, f.gen,
		WithLogger(logrus.NewEntry(l)),
		WithUUID(func() string { return "test-uuid" }),
	)
	return f
}

// sent drains the command queue and decodes every SendText batch.
func (f *fixture) sent(t *testing.T) [][]map[string]any {
	t.Helper()
	cmds, _ := f.commands.Drain()
	var batches [][]map[string]any
	for _, cmd := range cmds {
		st, ok := cmd.(transport.SendText)
		if !ok {
			continue
		}
		var batch []map[string]any
		require.NoError(t, json.Unmarshal([]byte(st.Payload), &batch))
		batches = append(batches, batch)
	}
	return batches
}

func (f *fixture) connect(t *testing.T, checked ...protocol.LocationID) {
	t.Helper()
	f.engine.HandleMessage(&protocol.Connected{
		Team:             0,
		Slot:             2,
		CheckedLocations: checked,
		MissingLocations: []protocol.LocationID{1, 5, 9, 2001},
		SlotData:         json.RawMessage(`{}`),
		Players: []protocol.NetworkPlayer{
			{Team: 0, Slot: 1, Name: "bob"},
			{Team: 0, Slot: 2, Name: "alice", Alias: "Alice"},
		},
		SlotInfo: map[protocol.SlotID]protocol.NetworkSlot{
			1: {Name: "bob", Game: "Clique", Type: protocol.SlotTypePlayer},
			2: {Name: "alice", Game: graph.GameName, Type: protocol.SlotTypePlayer},
		},
	})
	f.sent(t)
}

func commandsOf(batch []map[string]any) []string {
	var out []string
	for _, m := range batch {
		out = append(out, m["cmd"].(string))
	}
	return out
}

func TestStartConnect(t *testing.T) {
	f := newFixture(t, nil)
	f.engine.State().NextItemIndex = 7

	assert.Empty(t, f.engine.StartConnect())
	assert.Equal(t, StatusConnecting, f.engine.State().Status)
	assert.Equal(t, 0, f.engine.State().NextItemIndex)

	cmds, _ := f.commands.Drain()
	assert.Equal(t, []transport.Command{transport.Connect{Address: "localhost:38281"}}, cmds)
}

func TestStartConnectEmptyAddress(t *testing.T) {
	f := newFixture(t, nil)
	f.engine.SetCredentials("  ", "alice", "")

	got := f.engine.StartConnect()

	assert.Equal(t, []Notification{ConnectionError{Reason: ReasonEmptyAddress}}, got)
	assert.Equal(t, StatusDisconnected, f.engine.State().Status)
	assert.Equal(t, 0, f.commands.Len())
}

func TestStartConnectAfterQueueClosed(t *testing.T) {
	f := newFixture(t, nil)
	f.commands.Close()

	got := f.engine.StartConnect()

	assert.Equal(t, []Notification{ConnectionError{Reason: ReasonClosed}}, got)
	assert.Equal(t, StatusDisconnected, f.engine.State().Status)
}

func TestRoomInfoFetchesOnlyStaleGames(t *testing.T) {
	catalogs := map[string]*datapackage.Catalog{
		"Archipelago":  datapackage.NewCatalog("ap1", nil, nil),
		"Clique":       datapackage.NewCatalog("old", nil, nil),
		graph.GameName: datapackage.NewCatalog("el1", nil, nil),
	}
	f := newFixture(t, catalogs)

	f.engine.HandleMessage(&protocol.RoomInfo{
		SeedName: "seed",
		DataPackageChecksums: map[string]string{
			"Archipelago":  "ap1",
			"Clique":       "new",
			graph.GameName: "el1",
			"Zelda":        "z1",
		},
	})

	batches := f.sent(t)
	require.Len(t, batches, 1)
	batch := batches[0]
	require.Equal(t, []string{"GetDataPackage", "Connect"}, commandsOf(batch))
	assert.Equal(t, []any{"Clique", "Zelda"}, batch[0]["games"])

	login := batch[1]
	assert.Equal(t, "hunter2", login["password"])
	assert.Equal(t, graph.GameName, login["game"])
	assert.Equal(t, "alice", login["name"])
	assert.Equal(t, "test-uuid", login["uuid"])
	assert.Equal(t, float64(7), login["items_handling"])
	assert.Equal(t, []any{}, login["tags"])
	assert.Equal(t, true, login["slot_data"])
	assert.Equal(t, map[string]any{"major": float64(0), "minor": float64(6), "build": float64(5), "class": "Version"}, login["version"])

	assert.Equal(t, "seed", f.engine.State().Room.SeedName)
	assert.True(t, f.engine.State().Fresh("Archipelago"))
	assert.False(t, f.engine.State().Fresh("Clique"))
}

func TestRoomInfoAllFreshSendsOnlyConnect(t *testing.T) {
	f := newFixture(t, map[string]*datapackage.Catalog{
		"Archipelago": datapackage.NewCatalog("ap1", nil, nil),
	})

	f.engine.HandleMessage(&protocol.RoomInfo{DataPackageChecksums: map[string]string{"Archipelago": "ap1"}})

	batches := f.sent(t)
	require.Len(t, batches, 1)
	assert.Equal(t, []string{"Connect"}, commandsOf(batches[0]))
}

func TestRoomInfoIgnoredWhileConnected(t *testing.T) {
	f := newFixture(t, nil)
	f.engine.HandleMessage(&protocol.RoomInfo{})
	require.Len(t, f.sent(t), 1)
	f.connect(t)

	f.engine.HandleMessage(&protocol.RoomInfo{DataPackageChecksums: map[string]string{"Zelda": "z1"}})

	assert.Empty(t, f.sent(t))
}

func TestConnectedPopulatesState(t *testing.T) {
	f := newFixture(t, nil)

	got := f.engine.HandleMessage(&protocol.Connected{
		Team:             1,
		Slot:             3,
		HintPoints:       12,
		CheckedLocations: []protocol.LocationID{1, 2},
		MissingLocations: []protocol.LocationID{3},
		SlotData:         json.RawMessage(`{"element_amount":4}`),
		SlotInfo: map[protocol.SlotID]protocol.NetworkSlot{
			1: {Name: "bob", Game: "Clique", Type: protocol.SlotTypePlayer},
			2: {Name: "eve", Game: "Zelda", Type: protocol.SlotTypeSpectator},
			3: {Name: "alice", Game: graph.GameName, Type: protocol.SlotTypePlayer},
			9: {Name: "Zelda Group", Game: "Zelda", Type: protocol.SlotTypeGroup, GroupMembers: []protocol.SlotID{2}},
		},
	})

	assert.Equal(t, []Notification{Connected{Slot: "alice", Team: 1, SlotID: 3}}, got)
	s := f.engine.State()
	assert.Equal(t, StatusConnected, s.Status)
	assert.Equal(t, protocol.SlotID(3), s.SlotID)
	assert.Equal(t, 12, s.HintPoints)
	assert.Equal(t, []protocol.LocationID{1, 2}, s.Checked())
	assert.Equal(t, []protocol.LocationID{3}, s.Missing())
	assert.Equal(t, map[protocol.SlotID]string{
		0: ServerSlotName,
		1: "Clique",
		2: "Zelda",
		3: graph.GameName,
		9: "Zelda",
	}, s.Directory)
	assert.JSONEq(t, `{"element_amount":4}`, string(s.SlotData))
	assert.Equal(t, 1, f.gen.calls)
	assert.NotNil(t, s.Graph)
}

func TestConnectedGeneratorFailureDropsLogin(t *testing.T) {
	f := newFixture(t, nil)
	f.engine.StartConnect()
	f.gen.err = fmt.Errorf("bad slot data")

	got := f.engine.HandleMessage(&protocol.Connected{Slot: 1, CheckedLocations: []protocol.LocationID{4}})

	assert.Equal(t, []Notification{ConnectionError{Reason: "bad slot data"}}, got)
	s := f.engine.State()
	assert.Equal(t, StatusDisconnected, s.Status)
	assert.Nil(t, s.Graph)
	assert.Empty(t, s.Checked())
	assert.ErrorContains(t, f.engine.Say("hi"), string(errors.ErrCodeNotConnected))
}

func TestConnectedWithInvalidSlotDataFrame(t *testing.T) {
	f := newFixture(t, nil)
	f.engine.StartConnect()
	f.commands.Drain()

	got := f.engine.HandleEvent(transport.TextMessage{Payload: `[{"cmd":"Connected","team":0,"slot":1,` +
		`"slot_data":{"element_amount":4,"filler_amount":1,"intermediate_amount":2,"graph_seed":42,"bogus_field":1}}]`})

	assert.Empty(t, got)
	assert.Equal(t, StatusConnecting, f.engine.State().Status)
	assert.Equal(t, 0, f.gen.calls)
}

func TestConnectionRefused(t *testing.T) {
	f := newFixture(t, nil)
	f.engine.StartConnect()
	f.engine.State().Directory[1] = "Clique"

	got := f.engine.HandleMessage(&protocol.ConnectionRefused{Errors: []string{protocol.RefusedInvalidSlot}})

	require.Len(t, got, 1)
	ce := got[0].(ConnectionError)
	assert.Equal(t, []string{"InvalidSlot"}, ce.Refusals)
	assert.Contains(t, ce.Reason, "InvalidSlot")
	assert.Equal(t, StatusDisconnected, f.engine.State().Status)
	assert.Equal(t, "Clique", f.engine.State().Directory[1])
}

func TestReceivedItemsFiltersAndKeepsOrder(t *testing.T) {
	f := newFixture(t, map[string]*datapackage.Catalog{
		"Clique": datapackage.NewCatalog("c1", map[string]protocol.ItemID{"Element 3": 102}, nil),
	})
	f.engine.HandleMessage(&protocol.RoomInfo{DataPackageChecksums: map[string]string{"Clique": "c1"}})
	f.connect(t)

	got := f.engine.HandleMessage(&protocol.ReceivedItems{
		Index: 0,
		Items: []protocol.NetworkItem{
			{Item: 100, Player: 2},
			{Item: 5, Player: 1},
			{Item: 102, Player: 1},
			{Item: 99, Player: 0},
			{Item: 150, Player: 0},
		},
	})

	assert.Equal(t, []Notification{
		ReceivedItem{Element: graph.Element{ID: 1, Kind: graph.KindInput}, Sender: "Alice", Index: 0},
		ReceivedItem{Element: graph.Element{ID: 3, Kind: graph.KindInput}, ItemName: "Element 3", Sender: "bob", Index: 2},
		ReceivedItem{Element: graph.Element{ID: 51, Kind: graph.KindInput}, Sender: ServerSlotName, Index: 4},
	}, got)
	assert.Equal(t, 5, f.engine.State().NextItemIndex)
}

func TestReceivedItemsStaleCatalogNotUsed(t *testing.T) {
	f := newFixture(t, map[string]*datapackage.Catalog{
		"Clique": datapackage.NewCatalog("old", map[string]protocol.ItemID{"Element 1": 100}, nil),
	})
	f.engine.HandleMessage(&protocol.RoomInfo{DataPackageChecksums: map[string]string{"Clique": "new"}})
	f.connect(t)

	got := f.engine.HandleMessage(&protocol.ReceivedItems{Items: []protocol.NetworkItem{{Item: 100, Player: 1}}})

	require.Len(t, got, 1)
	assert.Empty(t, got[0].(ReceivedItem).ItemName)
}

func TestReceivedItemsIndexHandling(t *testing.T) {
	items := func(ids ...protocol.ItemID) []protocol.NetworkItem {
		var out []protocol.NetworkItem
		for _, id := range ids {
			out = append(out, protocol.NetworkItem{Item: id, Player: 1})
		}
		return out
	}

	f := newFixture(t, nil)
	f.connect(t)

	got := f.engine.HandleMessage(&protocol.ReceivedItems{Index: 0, Items: items(100, 101)})
	assert.Len(t, got, 2)

	// in order
	got = f.engine.HandleMessage(&protocol.ReceivedItems{Index: 2, Items: items(102)})
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].(ReceivedItem).Index)
	assert.Equal(t, 3, f.engine.State().NextItemIndex)

	// overlapping resend only yields the unseen tail
	got = f.engine.HandleMessage(&protocol.ReceivedItems{Index: 1, Items: items(101, 102, 103)})
	require.Len(t, got, 1)
	assert.Equal(t, graph.Element{ID: 4, Kind: graph.KindInput}, got[0].(ReceivedItem).Element)
	assert.Equal(t, 4, f.engine.State().NextItemIndex)

	// fully seen
	got = f.engine.HandleMessage(&protocol.ReceivedItems{Index: 2, Items: items(102)})
	assert.Empty(t, got)
	assert.Empty(t, f.sent(t))

	// gap asks for a resync and drops the batch
	got = f.engine.HandleMessage(&protocol.ReceivedItems{Index: 9, Items: items(109)})
	assert.Empty(t, got)
	batches := f.sent(t)
	require.Len(t, batches, 1)
	assert.Equal(t, []string{"Sync"}, commandsOf(batches[0]))
	assert.Equal(t, 4, f.engine.State().NextItemIndex)

	// full resend resets the counter
	got = f.engine.HandleMessage(&protocol.ReceivedItems{Index: 0, Items: items(100, 101, 102, 103, 104)})
	assert.Len(t, got, 5)
	assert.Equal(t, 5, f.engine.State().NextItemIndex)
}

func TestDataPackagePersistsAndReplaces(t *testing.T) {
	f := newFixture(t, map[string]*datapackage.Catalog{
		"Clique": datapackage.NewCatalog("old", nil, nil),
	})

	f.engine.HandleMessage(&protocol.DataPackage{Data: protocol.DataPackageData{Games: map[string]protocol.GameData{
		"Clique": {
			Checksum:         "new",
			ItemNameToID:     map[string]protocol.ItemID{"Feeling of Satisfaction": 69696969},
			LocationNameToID: map[string]protocol.LocationID{"The Big Red Button": 69696969},
		},
	}}})

	cat := f.engine.State().Catalogs["Clique"]
	require.NotNil(t, cat)
	assert.Equal(t, "new", cat.Checksum)
	assert.Equal(t, "Feeling of Satisfaction", cat.ItemIDToName[69696969])
	assert.Equal(t, "The Big Red Button", cat.LocationIDToName[69696969])
	assert.Same(t, cat, f.store.saved["Clique"])
}

func TestDataPackageStoreFailureStillReplaces(t *testing.T) {
	f := newFixture(t, nil)
	f.store.err = fmt.Errorf("disk full")

	f.engine.HandleMessage(&protocol.DataPackage{Data: protocol.DataPackageData{Games: map[string]protocol.GameData{
		"Clique": {Checksum: "c2"},
	}}})

	assert.Equal(t, "c2", f.engine.State().Catalogs["Clique"].Checksum)
}

func TestRoomUpdate(t *testing.T) {
	hints := 30

	t.Run("hint points only leaves checked set untouched", func(t *testing.T) {
		f := newFixture(t, nil)
		f.connect(t, 1, 5)

		f.engine.HandleMessage(&protocol.RoomUpdate{HintPoints: &hints})

		assert.Equal(t, 30, f.engine.State().HintPoints)
		assert.Equal(t, []protocol.LocationID{1, 5}, f.engine.State().Checked())
	})

	t.Run("checked locations merge additively", func(t *testing.T) {
		f := newFixture(t, nil)
		f.connect(t, 1, 5)

		f.engine.HandleMessage(&protocol.RoomUpdate{CheckedLocations: []protocol.LocationID{5, 9}})

		assert.Equal(t, []protocol.LocationID{1, 5, 9}, f.engine.State().Checked())
		assert.Equal(t, []protocol.LocationID{2001}, f.engine.State().Missing())
	})

	t.Run("present fields overwrite", func(t *testing.T) {
		f := newFixture(t, nil)
		f.connect(t)
		seed := "S2"
		cost := 5
		team := protocol.TeamID(1)

		f.engine.HandleMessage(&protocol.RoomUpdate{
			SeedName: &seed,
			HintCost: &cost,
			Team:     &team,
			Tags:     []string{"AP"},
			Players:  []protocol.NetworkPlayer{{Team: 1, Slot: 2, Name: "alice"}},
			SlotInfo: map[protocol.SlotID]protocol.NetworkSlot{4: {Name: "dan", Game: "Zelda"}},
		})

		s := f.engine.State()
		assert.Equal(t, "S2", s.Room.SeedName)
		assert.Equal(t, 5, s.Room.HintCost)
		assert.Equal(t, protocol.TeamID(1), s.Team)
		assert.Equal(t, []string{"AP"}, s.Room.Tags)
		assert.Equal(t, "Zelda", s.Directory[4])
		assert.Equal(t, "Clique", s.Directory[1])
		assert.Equal(t, "alice", s.PlayerName(2))
	})
}

func TestSendItem(t *testing.T) {
	compound := graph.Element{ID: 5, Kind: graph.KindOutput}
	intermediate := graph.Element{ID: 1, Kind: graph.KindIntermediate}

	t.Run("not connected", func(t *testing.T) {
		f := newFixture(t, nil)
		err := f.engine.SendItem(compound)
		assert.True(t, errors.Is(err, errors.ErrCodeNotConnected))
		assert.Empty(t, f.sent(t))
	})

	t.Run("already checked location sends nothing", func(t *testing.T) {
		f := newFixture(t, nil)
		f.connect(t, 5)
		require.NoError(t, f.engine.SendItem(compound))
		assert.Empty(t, f.sent(t))
	})

	t.Run("unchecked compound and intermediate", func(t *testing.T) {
		f := newFixture(t, nil)
		f.connect(t)
		require.NoError(t, f.engine.SendItem(compound))
		require.NoError(t, f.engine.SendItem(intermediate))

		batches := f.sent(t)
		require.Len(t, batches, 2)
		assert.Equal(t, []any{float64(5)}, batches[0][0]["locations"])
		assert.Equal(t, []any{float64(2001)}, batches[1][0]["locations"])
	})

	t.Run("raw input is not a location", func(t *testing.T) {
		f := newFixture(t, nil)
		f.connect(t)
		err := f.engine.SendItem(graph.Element{ID: 1, Kind: graph.KindInput})
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
		assert.Empty(t, f.sent(t))
	})
}

func TestSayAndStatusUpdate(t *testing.T) {
	f := newFixture(t, nil)
	assert.Error(t, f.engine.Say("hi"))

	f.connect(t)
	require.NoError(t, f.engine.Say("hi"))
	require.NoError(t, f.engine.UpdateStatus(protocol.ClientGoal))

	batches := f.sent(t)
	require.Len(t, batches, 2)
	assert.Equal(t, map[string]any{"cmd": "Say", "text": "hi"}, batches[0][0])
	assert.Equal(t, map[string]any{"cmd": "StatusUpdate", "status": float64(30)}, batches[1][0])

	f.commands.Close()
	err := f.engine.Say("bye")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDisconnected, errors.GetCode(err))
}

func TestHandleEvent(t *testing.T) {
	f := newFixture(t, nil)
	f.engine.StartConnect()
	f.commands.Drain()

	assert.Empty(t, f.engine.HandleEvent(transport.Connected{URL: "ws://localhost:38281"}))
	assert.Equal(t, StatusConnecting, f.engine.State().Status)

	got := f.engine.HandleEvent(transport.TextMessage{Payload: `[{"cmd":"PrintJSON","type":"Chat","data":[{"text":"bob: "},{"text":"hi"}]},{"cmd":"Mystery"}]`})
	assert.Equal(t, []Notification{Print{Type: "Chat", Message: "bob: hi"}}, got)

	assert.Empty(t, f.engine.HandleEvent(transport.TextMessage{Payload: `not json`}))

	got = f.engine.HandleEvent(transport.ConnectionError{Message: "failed to connect"})
	assert.Equal(t, []Notification{ConnectionError{Reason: "failed to connect"}}, got)
	assert.Equal(t, StatusDisconnected, f.engine.State().Status)

	f.connect(t, 3)
	got = f.engine.HandleEvent(transport.Disconnected{Reason: "closed by server (1000)"})
	assert.Equal(t, []Notification{Disconnected{Reason: "closed by server (1000)"}}, got)
	assert.Equal(t, StatusDisconnected, f.engine.State().Status)
	assert.Equal(t, []protocol.LocationID{3}, f.engine.State().Checked())
}
