// Package cache persists fetched timetables and geolocation lookups. The
// file store is the default; the Redis store lets several processes share
// one timetable tier.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/smokyabdulrahman/prayer-timer/internal/geo"
)

const (
	entryFile    = "entry_%s.json" // keyed by hash
	geoCacheKey  = "geolocation"
	geoTTL       = 24 * time.Hour
	appCacheName = "prayer-timer"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Store is a JSON key/value store with per-entry expiry.
type Store interface {
	// Get decodes the value stored under key into out.
	Get(ctx context.Context, key string, out any) error
	// Set stores value under key. A zero ttl never expires.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Key builds a deterministic hash from the parameters that affect a cached
// value so that different locations, methods and years get separate entries.
func Key(parts ...any) string {
	var raw string
	for i, p := range parts {
		if i > 0 {
			raw += "|"
		}
		raw += fmt.Sprintf("%v", p)
	}
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", h[:8]) // 16 hex chars is plenty for uniqueness
}

// FileStore keeps one JSON file per entry under a directory.
type FileStore struct {
	dir string
}

type fileEntry struct {
	Key       string          `json:"key"`
	ExpiresAt time.Time       `json:"expires_at,omitempty"`
	Data      json.RawMessage `json:"data"`
}

// New creates a FileStore rooted at the given directory.
// If dir is empty, it defaults to ~/.cache/prayer-timer/.
func New(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".cache", appCacheName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}

	return &FileStore{dir: dir}, nil
}

// Dir returns the directory backing the store.
func (c *FileStore) Dir() string { return c.dir }

func (c *FileStore) path(key string) string {
	h := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, fmt.Sprintf(entryFile, fmt.Sprintf("%x", h[:8])))
}

// Get reads the entry for key. Unreadable, mismatched or expired files count
// as a miss.
func (c *FileStore) Get(_ context.Context, key string, out any) error {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return ErrMiss
	}

	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return ErrMiss
	}
	// A hash collision or a hand-edited file must not leak another entry.
	if entry.Key != key {
		return ErrMiss
	}
	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		return ErrMiss
	}

	if err := json.Unmarshal(entry.Data, out); err != nil {
		return fmt.Errorf("failed to decode cache entry %q: %w", key, err)
	}
	return nil
}

// Set writes the entry for key.
func (c *FileStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	entry := fileEntry{Key: key, Data: raw}
	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := os.WriteFile(c.path(key), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// LoadGeo attempts to read a cached geolocation result.
// Returns nil if the cache is missing or older than the TTL (24 hours).
func LoadGeo(ctx context.Context, s Store) *geo.Location {
	var loc geo.Location
	if err := s.Get(ctx, geoCacheKey, &loc); err != nil {
		return nil
	}
	return &loc
}

// SaveGeo writes a geolocation result to the cache.
func SaveGeo(ctx context.Context, s Store, loc *geo.Location) error {
	if err := s.Set(ctx, geoCacheKey, loc, geoTTL); err != nil {
		return fmt.Errorf("failed to write geo cache: %w", err)
	}
	return nil
}
