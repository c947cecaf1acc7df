package datapackage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grovetools/elementipelago/errors"
	"github.com/grovetools/elementipelago/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCatalog() *Catalog {
	return NewCatalog("abc123",
		map[string]protocol.ItemID{"Element 1": 100, "Element 2": 101},
		map[string]protocol.LocationID{"Compound 1": 1, "Intermediate 1": 2001},
	)
}

func TestNewCatalogReverseMaps(t *testing.T) {
	c := sampleCatalog()

	name, ok := c.ItemName(101)
	assert.True(t, ok)
	assert.Equal(t, "Element 2", name)

	name, ok = c.LocationName(2001)
	assert.True(t, ok)
	assert.Equal(t, "Intermediate 1", name)

	_, ok = c.ItemName(5)
	assert.False(t, ok)

	var missing *Catalog
	_, ok = missing.ItemName(100)
	assert.False(t, ok)
}

func TestFromGameData(t *testing.T) {
	c := FromGameData(protocol.GameData{
		Checksum:         "x",
		ItemNameToID:     map[string]protocol.ItemID{"A": 1},
		LocationNameToID: map[string]protocol.LocationID{"L": 2},
	})
	assert.Equal(t, "x", c.Checksum)
	assert.Equal(t, "A", c.ItemIDToName[1])
	assert.Equal(t, "L", c.LocationIDToName[2])
}

func TestCacheRoundTrip(t *testing.T) {
	cache, err := Open(filepath.Join(t.TempDir(), "datapackages"))
	require.NoError(t, err)

	want := sampleCatalog()
	require.NoError(t, cache.Save("Elementipelago", want))

	_, err = os.Stat(filepath.Join(cache.Dir(), "Elementipelago.json"))
	require.NoError(t, err)

	loaded := cache.Load()
	require.Contains(t, loaded, "Elementipelago")
	assert.Equal(t, want, loaded["Elementipelago"])
}

func TestCacheSaveOverwrites(t *testing.T) {
	cache, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cache.Save("Game", NewCatalog("old", nil, nil)))
	require.NoError(t, cache.Save("Game", NewCatalog("new", map[string]protocol.ItemID{"X": 7}, nil)))

	loaded := cache.Load()
	assert.Equal(t, "new", loaded["Game"].Checksum)
	assert.Equal(t, protocol.ItemID(7), loaded["Game"].ItemNameToID["X"])
}

func TestCacheGameNameSanitized(t *testing.T) {
	cache, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cache.Save("Weird/Game: 2", sampleCatalog()))
	assert.Regexp(t, `^Weird_Game_ 2_[0-9a-f]{8}\.json$`, filepath.Base(cache.Path("Weird/Game: 2")))
	assert.Equal(t, filepath.Join(cache.Dir(), "Clique.json"), cache.Path("Clique"))

	loaded := cache.Load()
	assert.Contains(t, loaded, "Weird/Game: 2")
}

func TestCacheSanitizedNamesDoNotCollide(t *testing.T) {
	cache, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cache.Save("A/B", NewCatalog("slash", nil, nil)))
	require.NoError(t, cache.Save("A_B", NewCatalog("underscore", nil, nil)))
	assert.NotEqual(t, cache.Path("A/B"), cache.Path("A_B"))

	loaded := cache.Load()
	require.Len(t, loaded, 2)
	assert.Equal(t, "slash", loaded["A/B"].Checksum)
	assert.Equal(t, "underscore", loaded["A_B"].Checksum)
}

func TestCacheLoadSkipsBadEntries(t *testing.T) {
	dir := t.TempDir()
	cache, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, cache.Save("Good", sampleCatalog()))

	files := map[string]string{
		"garbage.json":   "{not json",
		"wrongtype.json": `{"game":"Wrong","datapackage":{"checksum":1}}`,
		"missing.json":   `{"game":"Missing"}`,
		"notes.txt":      "ignored",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	loaded := cache.Load()
	assert.Len(t, loaded, 1)
	assert.Contains(t, loaded, "Good")
}

func TestOpenUnavailableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := Open(filepath.Join(blocker, "datapackages"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCacheDirUnavailable, errors.GetCode(err))

	_, err = Open("")
	assert.Equal(t, errors.ErrCodeCacheDirUnavailable, errors.GetCode(err))
}

func TestCacheEntriesAndClear(t *testing.T) {
	cache, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cache.Save("Zelda", NewCatalog("z", nil, nil)))
	require.NoError(t, cache.Save("Alttp", NewCatalog("a", nil, nil)))

	entries, err := cache.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Alttp", entries[0].Game)
	assert.Equal(t, "a", entries[0].Checksum)
	assert.Positive(t, entries[0].Size)
	assert.Equal(t, "Zelda", entries[1].Game)

	removed, err := cache.Clear()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Empty(t, cache.Load())
}

func TestCacheSaveFailure(t *testing.T) {
	dir := t.TempDir()
	cache, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(dir))
	err = cache.Save("Game", sampleCatalog())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCacheWriteFailed, errors.GetCode(err))
}
