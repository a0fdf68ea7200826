package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dropout-studio/dropout-studio-go/utils"
)

// Entry is a cached parsed dataset plus its upload metadata
type Entry struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Dataset    *Dataset  `json:"-"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Cache memoizes parsed datasets by content hash so repeated identical
// uploads are parsed once. Entries are addressable by short hash ID.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewCache creates an empty dataset cache
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Entry)}
}

// LoadOrParse returns the cached dataset for identical content, or parses
// and caches it. The second return reports a cache hit.
func (c *Cache) LoadOrParse(name string, content []byte) (*Entry, bool, error) {
	id := contentID(content)

	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()
	if ok {
		return entry, true, nil
	}

	ds, err := Load(name, content)
	if err != nil {
		return nil, false, err
	}

	entry = &Entry{
		ID:         id,
		Filename:   name,
		Dataset:    ds,
		UploadedAt: time.Now(),
	}

	c.mu.Lock()
	// A concurrent upload of the same bytes may have won; keep the first
	if existing, ok := c.entries[id]; ok {
		entry = existing
	} else {
		c.entries[id] = entry
	}
	c.mu.Unlock()

	utils.GetLogger().Info("Dataset cached",
		utils.Component("dataset"),
		utils.String("dataset_id", id),
		utils.String("filename", name),
		utils.Int("rows", entry.Dataset.RowCount))

	return entry, false, nil
}

// PutDemo caches a generated demo dataset keyed by its seed, so repeated
// demo requests with the same seed reuse one entry.
func (c *Cache) PutDemo(seed int64) *Entry {
	id := contentID([]byte(fmt.Sprintf("demo:%d", seed)))

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[id]; ok {
		return existing
	}

	entry := &Entry{
		ID:         id,
		Filename:   DemoName(seed),
		Dataset:    Demo(seed),
		UploadedAt: time.Now(),
	}
	c.entries[id] = entry
	return entry
}

// Get returns the cached entry for a dataset ID
func (c *Cache) Get(id string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[id]
	return entry, ok
}

// List returns all cached entries, newest first
func (c *Cache) List() []*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]*Entry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UploadedAt.After(entries[j].UploadedAt)
	})
	return entries
}

// contentID derives a short stable identifier from file content
func contentID(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:12]
}
