package datapackage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/grovetools/elementipelago/errors"
	"github.com/grovetools/elementipelago/logging"
	"github.com/grovetools/elementipelago/pkg/paths"
	"github.com/grovetools/elementipelago/pkg/protocol"
	"github.com/grovetools/elementipelago/schema"
	"github.com/grovetools/elementipelago/util/pathutil"
	"github.com/grovetools/elementipelago/util/sanitize"
	"github.com/sirupsen/logrus"
)

const entryExt = ".json"

// entryFile is the on-disk layout of one cached game.
type entryFile struct {
	Game        string      `json:"game"`
	DataPackage catalogFile `json:"datapackage"`
}

type catalogFile struct {
	Checksum         string                         `json:"checksum"`
	LocationNameToID map[string]protocol.LocationID `json:"location_name_to_id"`
	LocationIDToName map[protocol.LocationID]string `json:"location_id_to_name"`
	ItemNameToID     map[string]protocol.ItemID     `json:"item_name_to_id"`
	ItemIDToName     map[protocol.ItemID]string     `json:"item_id_to_name"`
}

// Entry describes one cache file.
type Entry struct {
	Game     string
	Checksum string
	Path     string
	Size     int64
	ModTime  time.Time
}

// Cache stores one catalog per game under a directory.
type Cache struct {
	dir       string
	validator *schema.Validator
	logger    *logrus.Entry
}

// DefaultDir returns <platform cache dir>/elementipelago/datapackages.
func DefaultDir() string {
	return paths.DataPackageDir()
}

// Open expands ~ and environment variables in dir and creates it if needed.
// A directory that cannot be created is fatal for the client, so the error
// is CACHE_DIR_UNAVAILABLE.
func Open(dir string) (*Cache, error) {
	if dir == "" {
		return nil, errors.CacheDirUnavailable(dir, os.ErrNotExist)
	}
	expanded, err := pathutil.Expand(dir)
	if err != nil {
		return nil, errors.CacheDirUnavailable(dir, err)
	}
	dir = expanded
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.CacheDirUnavailable(dir, err)
	}

	validator, err := schema.NewDataPackageValidator()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to compile datapackage schema")
	}

	return &Cache{
		dir:       dir,
		validator: validator,
		logger:    logging.NewLogger("datapackage"),
	}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns the file a game's catalog is stored in. Names that are not
// already safe file names get a hash suffix so that distinct games never
// share a file.
func (c *Cache) Path(game string) string {
	name := sanitize.ForFileName(game)
	if name != game {
		hash := sha256.Sum256([]byte(game))
		name = fmt.Sprintf("%s_%s", name, hex.EncodeToString(hash[:])[:8])
	}
	return filepath.Join(c.dir, name+entryExt)
}

// Load reads every readable entry. Unreadable, invalid or undecodable files
// are skipped: a stale or missing cache only costs a refetch.
func (c *Cache) Load() map[string]*Catalog {
	catalogs := make(map[string]*Catalog)

	files, err := c.files()
	if err != nil {
		c.logger.WithError(err).WithField("dir", c.dir).Debug("Could not list datapackage cache")
		return catalogs
	}

	for _, path := range files {
		entry, err := c.read(path)
		if err != nil {
			c.logger.WithError(err).WithField("path", path).Debug("Skipping datapackage cache entry")
			continue
		}
		catalogs[entry.Game] = NewCatalog(entry.DataPackage.Checksum, entry.DataPackage.ItemNameToID, entry.DataPackage.LocationNameToID)
	}

	c.logger.WithField("games", len(catalogs)).Debug("Loaded datapackage cache")
	return catalogs
}

// Save writes a game's catalog, replacing any previous entry.
func (c *Cache) Save(game string, catalog *Catalog) error {
	path := c.Path(game)

	data, err := json.Marshal(entryFile{
		Game: game,
		DataPackage: catalogFile{
			Checksum:         catalog.Checksum,
			LocationNameToID: nonNil(catalog.LocationNameToID),
			LocationIDToName: nonNil(catalog.LocationIDToName),
			ItemNameToID:     nonNil(catalog.ItemNameToID),
			ItemIDToName:     nonNil(catalog.ItemIDToName),
		},
	})
	if err != nil {
		return errors.CacheWriteFailed(game, path, err)
	}

	tmp, err := os.CreateTemp(c.dir, ".tmp-*"+entryExt)
	if err != nil {
		return errors.CacheWriteFailed(game, path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.CacheWriteFailed(game, path, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.CacheWriteFailed(game, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.CacheWriteFailed(game, path, err)
	}

	c.logger.WithFields(logrus.Fields{"game": game, "checksum": catalog.Checksum}).Debug("Cached datapackage")
	return nil
}

// Entries lists the valid cache entries sorted by game name.
func (c *Cache) Entries() ([]Entry, error) {
	files, err := c.files()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheReadFailed, "failed to list datapackage cache").
			WithDetail("dir", c.dir)
	}

	var entries []Entry
	for _, path := range files {
		entry, err := c.read(path)
		if err != nil {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Game:     entry.Game,
			Checksum: entry.DataPackage.Checksum,
			Path:     path,
			Size:     info.Size(),
			ModTime:  info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Game < entries[j].Game })
	return entries, nil
}

// Clear removes every cache file and returns how many were removed.
func (c *Cache) Clear() (int, error) {
	files, err := c.files()
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeCacheReadFailed, "failed to list datapackage cache").
			WithDetail("dir", c.dir)
	}

	removed := 0
	for _, path := range files {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return removed, errors.Wrap(err, errors.ErrCodeCacheWriteFailed, "failed to remove cache entry").
				WithDetail("path", path)
		}
		removed++
	}
	return removed, nil
}

func (c *Cache) files() ([]string, error) {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, entryExt) || strings.HasPrefix(name, ".tmp-") {
			continue
		}
		files = append(files, filepath.Join(c.dir, name))
	}
	return files, nil
}

func (c *Cache) read(path string) (*entryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := c.validator.ValidateJSON(data); err != nil {
		return nil, err
	}

	var entry entryFile
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func nonNil[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return map[K]V{}
	}
	return m
}
