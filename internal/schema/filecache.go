package schema

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Cache persists Constants across runs, keyed by model name and firmware
// version. The extraction core (Extract, ReadRaw, Decode, Parse) never
// touches disk or implements Cache itself — persistence can only be wired
// in by a caller of focusmute.ExtractSchema; cmd/focusmutectl passes no
// cache.
type Cache interface {
	Load(modelName, firmwareVersion string) (Constants, bool)
	Save(c Constants) error
}

// FileCache is a JSON-file-backed Cache: read-whole-file, unmarshal into a
// zero value, write-whole-file with MarshalIndent, all under a mutex.
type FileCache struct {
	mu   sync.Mutex
	path string
}

// NewFileCache returns a FileCache backed by path. The caller is
// responsible for choosing an appropriate per-platform config directory;
// this package does not guess one.
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

// Load reads the cache file and returns its contents if they match
// modelName (case-insensitive) and a non-empty, equal firmwareVersion. Any
// read, parse, or mismatch failure is a silent miss: a stale or unreadable
// cache should never block schema extraction, since Extract can always
// regenerate the same data from the device.
func (c *FileCache) Load(modelName, firmwareVersion string) (Constants, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		return Constants{}, false
	}
	var cached Constants
	if err := json.Unmarshal(data, &cached); err != nil {
		return Constants{}, false
	}
	if !strings.EqualFold(cached.ProductName, modelName) {
		return Constants{}, false
	}
	if cached.FirmwareVersion == "" || cached.FirmwareVersion != firmwareVersion {
		return Constants{}, false
	}
	return cached, true
}

// Save writes c to the cache file, creating its parent directory if
// needed. Best-effort: a write failure is returned but never needs to be
// fatal to a caller that only uses the cache as an optimization.
func (c *FileCache) Save(constants Constants) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(constants, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o644)
}

// DefaultCachePath returns configDir/focusmute/schema_cache.json.
func DefaultCachePath(configDir string) string {
	return filepath.Join(configDir, "focusmute", "schema_cache.json")
}
