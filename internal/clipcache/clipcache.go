// Package clipcache maps (source fingerprint, render parameters) keys to
// previously rendered clip files so unchanged media is never re-encoded.
// There is no eviction; cleaning the cache directory is a manual operation.
package clipcache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/On-Jun9/YearReel/pkg/types"
)

// Key identifies one rendered clip. Two distinct sources can never collide:
// the fingerprint covers the file content identity and the params hash covers
// every encoder setting that shapes the output.
type Key struct {
	Fingerprint string
	ParamsHash  string
}

func (k Key) String() string {
	return k.Fingerprint + "|" + k.ParamsHash
}

// ParamsHash condenses the render parameters that affect clip output into a
// short stable hash.
func ParamsHash(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

type Entry struct {
	ClipPath   string    `json:"clip_path"`
	RenderedAt time.Time `json:"rendered_at"`
}

type Cache struct {
	indexPath string
	Entries   map[string]Entry `json:"entries"`
}

// Open loads the cache index from dir. Missing index means an empty cache;
// a corrupt index is discarded with a StateCorruptionError returned alongside
// the usable empty cache.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	c := &Cache{
		indexPath: filepath.Join(dir, "clip_index.json"),
		Entries:   make(map[string]Entry),
	}

	data, err := os.ReadFile(c.indexPath)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return c, &types.StateCorruptionError{Path: c.indexPath, Err: err}
	}

	if err := json.Unmarshal(data, c); err != nil {
		c.Entries = make(map[string]Entry)
		return c, &types.StateCorruptionError{Path: c.indexPath, Err: err}
	}
	if c.Entries == nil {
		c.Entries = make(map[string]Entry)
	}

	return c, nil
}

// GetOrRender returns the cached clip path for key when the index has an
// entry and the clip file is still on disk. Otherwise it invokes render once,
// records the result and persists the index. The second return value reports
// whether the clip came from the cache.
func (c *Cache) GetOrRender(key Key, render func() (string, error)) (string, bool, error) {
	if entry, ok := c.Entries[key.String()]; ok {
		if _, err := os.Stat(entry.ClipPath); err == nil {
			return entry.ClipPath, true, nil
		}
		// Clip file vanished; fall through to a fresh render that
		// overwrites the stale entry.
	}

	clipPath, err := render()
	if err != nil {
		return "", false, err
	}

	c.Entries[key.String()] = Entry{ClipPath: clipPath, RenderedAt: time.Now()}
	if err := c.save(); err != nil {
		return clipPath, false, err
	}

	return clipPath, false, nil
}

func (c *Cache) save() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	tmp := c.indexPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, c.indexPath)
}
