package client

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grovetools/elementipelago/config"
	"github.com/grovetools/elementipelago/errors"
	"github.com/grovetools/elementipelago/pkg/graph"
	"github.com/grovetools/elementipelago/pkg/protocol"
	"github.com/grovetools/elementipelago/pkg/session"
	"github.com/grovetools/elementipelago/pkg/transport"
	"github.com/grovetools/elementipelago/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const slotData = `{"element_amount":12,"compound_amount":10,"intermediate_amount":8,"graph_seed":99,"compounds_are_ingredients":1}`

func newTestClient(t *testing.T, address string) *Client {
	t.Helper()
	c, err := New(Config{
		Address:   address,
		Slot:      "alice",
		CacheDir:  t.TempDir(),
		Transport: transport.Config{ConnectTimeout: 2 * time.Second},
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

// tickUntil ticks until want accepts the notifications collected so far.
func tickUntil(t *testing.T, c *Client, want func([]session.Notification) bool) []session.Notification {
	t.Helper()
	var all []session.Notification
	deadline := time.Now().Add(testutil.DefaultTimeout)
	for time.Now().Before(deadline) {
		all = append(all, c.Tick()...)
		if want(all) {
			return all
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.FailNow(t, "timed out waiting for notifications", "got %#v", all)
	return nil
}

func has[T session.Notification](ns []session.Notification) bool {
	for _, n := range ns {
		if _, ok := n.(T); ok {
			return true
		}
	}
	return false
}

func TestClientSession(t *testing.T) {
	srv := testutil.NewWebsocketServer(t, nil)
	c := newTestClient(t, srv.Address())

	c.StartConnect()
	conn := srv.Accept(t)

	conn.WriteJSON(map[string]any{
		"cmd":                   "RoomInfo",
		"seed_name":             "S1",
		"datapackage_checksums": map[string]string{graph.GameName: "e1"},
	})

	login := conn.ReadMessages()
	require.Equal(t, []string{"GetDataPackage", "Connect"}, testutil.Commands(login))
	assert.Equal(t, []any{graph.GameName}, login[0]["games"])
	assert.Equal(t, "alice", login[1]["name"])
	assert.NotEmpty(t, login[1]["uuid"])

	conn.WriteJSON(
		map[string]any{"cmd": "DataPackage", "data": map[string]any{"games": map[string]any{
			graph.GameName: map[string]any{
				"checksum":            "e1",
				"item_name_to_id":     map[string]int{"Element 1": 100},
				"location_name_to_id": map[string]int{"Compound 1": 1},
			},
		}}},
		map[string]any{
			"cmd":               "Connected",
			"team":              0,
			"slot":              1,
			"players":           []any{map[string]any{"team": 0, "slot": 1, "alias": "", "name": "alice"}},
			"missing_locations": []int{1, 2},
			"checked_locations": []int{},
			"slot_data":         json.RawMessage(slotData),
			"slot_info":         map[string]any{"1": map[string]any{"name": "alice", "game": graph.GameName, "type": 1}},
			"hint_points":       0,
		},
		map[string]any{"cmd": "ReceivedItems", "index": 0, "items": []any{
			map[string]any{"item": 100, "location": 7, "player": 1, "flags": 0},
		}},
	)

	got := tickUntil(t, c, has[session.ReceivedItem])
	require.Len(t, got, 2)
	assert.Equal(t, session.Connected{Slot: "alice", Team: 0, SlotID: 1}, got[0])
	assert.Equal(t, session.ReceivedItem{
		Element:  graph.Element{ID: 1, Kind: graph.KindInput},
		ItemName: "Element 1",
		Sender:   "alice",
	}, got[1])

	snap := c.Snapshot()
	assert.Equal(t, session.StatusConnected, snap.Status)
	assert.True(t, snap.HasGraph)
	assert.Equal(t, "S1", snap.SeedName)

	entries, err := c.Cache().Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "e1", entries[0].Checksum)

	require.NoError(t, c.SendItem(graph.Element{ID: 1, Kind: graph.KindOutput}))
	checks := conn.ReadMessages()
	assert.Equal(t, []string{"LocationChecks"}, testutil.Commands(checks))
	assert.Equal(t, []any{float64(1)}, checks[0]["locations"])

	conn.CloseWith(websocket.CloseNormalClosure, "room closed")
	got = tickUntil(t, c, has[session.Disconnected])
	assert.Contains(t, got[len(got)-1].(session.Disconnected).Reason, "room closed")
	assert.Equal(t, session.StatusDisconnected, c.Snapshot().Status)
}

func TestClientWarmsCatalogsFromCache(t *testing.T) {
	srv := testutil.NewWebsocketServer(t, nil)
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Clique.json"), []byte(`{
		"game": "Clique",
		"datapackage": {
			"checksum": "c1",
			"item_name_to_id": {"Feeling of Satisfaction": 69696969},
			"item_id_to_name": {"69696969": "Feeling of Satisfaction"},
			"location_name_to_id": {"The Big Red Button": 69696969},
			"location_id_to_name": {"69696969": "The Big Red Button"}
		}
	}`), 0o644))

	c, err := New(Config{Address: srv.Address(), Slot: "alice", CacheDir: dir})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	assert.Equal(t, []string{"Clique"}, c.Snapshot().Games)

	c.StartConnect()
	conn := srv.Accept(t)
	conn.WriteJSON(map[string]any{
		"cmd":                   "RoomInfo",
		"datapackage_checksums": map[string]string{"Clique": "c1"},
	})
	assert.Equal(t, []string{"Connect"}, testutil.Commands(conn.ReadMessages()))
}

func TestClientEmptyAddress(t *testing.T) {
	c := newTestClient(t, "")

	c.StartConnect()

	assert.Equal(t, []session.Notification{session.ConnectionError{Reason: session.ReasonEmptyAddress}}, c.Tick())
	assert.Empty(t, c.Tick())
}

func TestClientConnectFailure(t *testing.T) {
	c := newTestClient(t, "127.0.0.1:1")

	c.StartConnect()

	got := tickUntil(t, c, has[session.ConnectionError])
	assert.Contains(t, got[0].(session.ConnectionError).Reason, "failed to connect")
}

func TestClientSendItemWhileDisconnected(t *testing.T) {
	c := newTestClient(t, "localhost:1")
	err := c.SendItem(graph.Element{ID: 1, Kind: graph.KindOutput})
	assert.True(t, errors.Is(err, errors.ErrCodeNotConnected))
}

func TestClientCacheDirUnavailable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := New(Config{CacheDir: filepath.Join(blocker, "datapackages")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeCacheDirUnavailable))
}

func TestClientCloseWithoutConnect(t *testing.T) {
	c := newTestClient(t, "localhost:1")
	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(testutil.DefaultTimeout):
		t.Fatal("Close blocked")
	}
}

func TestClientStartConnectAfterClose(t *testing.T) {
	c := newTestClient(t, "localhost:1")
	c.Close()

	c.StartConnect()

	assert.Equal(t, []session.Notification{session.ConnectionError{Reason: session.ReasonClosed}}, c.Tick())
	assert.Equal(t, session.StatusDisconnected, c.Snapshot().Status)
}

func TestConfigFrom(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Address = "archipelago.gg:38281"
	cfg.Server.Slot = "alice"
	cfg.Cache.Dir = "/tmp/dp"
	cfg.SetDefaults()
	disabled := false
	cfg.Transport.EnableCompression = &disabled

	got := ConfigFrom(cfg)

	assert.Equal(t, "archipelago.gg:38281", got.Address)
	assert.Equal(t, "alice", got.Slot)
	assert.Equal(t, config.DefaultGame, got.Game)
	assert.Equal(t, "/tmp/dp", got.CacheDir)
	assert.Equal(t, config.DefaultReadTimeout, got.Transport.ReadTimeout)
	assert.Equal(t, config.DefaultConnectTimeout, got.Transport.ConnectTimeout)
	assert.False(t, got.EnableCompression)
}

func TestClientRunDeliversNotifications(t *testing.T) {
	c := newTestClient(t, "")
	c.StartConnect()

	ctx, cancel := context.WithTimeout(context.Background(), testutil.DefaultTimeout)
	defer cancel()

	var got []session.Notification
	err := c.Run(ctx, time.Millisecond, func(n session.Notification) {
		got = append(got, n)
		cancel()
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []session.Notification{session.ConnectionError{Reason: session.ReasonEmptyAddress}}, got)
}

func TestClientIntentsWhileDisconnected(t *testing.T) {
	c := newTestClient(t, "localhost:1")

	assert.True(t, errors.Is(c.Say("hello"), errors.ErrCodeNotConnected))
	assert.True(t, errors.Is(c.UpdateStatus(protocol.ClientGoal), errors.ErrCodeNotConnected))
	assert.Equal(t, transport.StateIdle, c.TransportState())
}
