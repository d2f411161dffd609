// Package gallerystore persists the gallery to remote object storage with a
// local cache file and timestamped backups.
package gallerystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/boviclouds/muzzle-id/internal/blob"
	"github.com/boviclouds/muzzle-id/internal/gallery"
)

const (
	// GalleryKey is the remote key of the persisted gallery document.
	GalleryKey = "database/gallery.json"

	// backupPrefix is where timestamped copies of the gallery live. The
	// stamp format sorts lexicographically in chronological order.
	backupPrefix    = "database/backups/"
	backupTimeStamp = "20060102_150405"
)

// Store reads and writes the persisted gallery.
//
// The remote object store is authoritative. The local cache file is refreshed
// as a side effect of every successful load and save, and written best-effort
// when a remote save fails, so operators can inspect the last known state.
// It is never read back automatically: a reachable-but-erroring remote must
// fail loudly rather than silently serve stale data.
type Store struct {
	blobs     blob.Store
	cachePath string
	timeout   time.Duration
	location  string
}

// Info describes the persisted gallery without its contents.
type Info struct {
	Exists       bool      `json:"exists"`
	Size         int64     `json:"size,omitempty"`
	LastModified time.Time `json:"last_modified,omitzero"`
	Location     string    `json:"location"`
}

// New creates a gallery store. location is a human-readable description of
// the remote gallery object (e.g. "s3://bucket/database/gallery.json") used
// in info responses and logs.
func New(blobs blob.Store, cachePath string, timeout time.Duration, location string) *Store {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Store{
		blobs:     blobs,
		cachePath: cachePath,
		timeout:   timeout,
		location:  location,
	}
}

// Location returns the remote gallery location description.
func (s *Store) Location() string {
	return s.location
}

// CachePath returns the local cache file path.
func (s *Store) CachePath() string {
	return s.cachePath
}

func (s *Store) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Load fetches the persisted gallery from the remote store.
//
// A missing document means this is a fresh deployment: an empty gallery is
// initialized, persisted, and returned. Any other remote error is returned
// as-is; callers at startup are expected to abort rather than run with
// questionable state.
func (s *Store) Load(ctx context.Context) (*gallery.Gallery, error) {
	cctx, cancel := s.callCtx(ctx)
	defer cancel()

	data, err := s.blobs.Get(cctx, GalleryKey)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			log.Printf("no gallery at %s, initializing empty gallery", s.location)
			g := gallery.New()
			if !s.Save(ctx, g) {
				log.Printf("warning: failed to persist initial empty gallery to %s", s.location)
			}
			return g, nil
		}
		return nil, fmt.Errorf("loading gallery from %s: %w", s.location, err)
	}

	var g gallery.Gallery
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parsing gallery document: %w", err)
	}
	if len(g.Labels) != len(g.Embeddings) {
		return nil, fmt.Errorf("corrupt gallery document: %d labels but %d embeddings",
			len(g.Labels), len(g.Embeddings))
	}
	if g.Labels == nil {
		g.Labels = []string{}
	}
	if g.Embeddings == nil {
		g.Embeddings = [][]float32{}
	}

	s.writeCache(data)
	return &g, nil
}

// Save serializes the gallery and writes it to the remote store, then
// refreshes the local cache. On remote failure the cache is still written
// best-effort and false is returned; callers treat a failed save as
// non-fatal to the request but reportable.
func (s *Store) Save(ctx context.Context, g *gallery.Gallery) bool {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		log.Printf("failed to serialize gallery: %v", err)
		return false
	}

	cctx, cancel := s.callCtx(ctx)
	defer cancel()

	if err := s.blobs.Put(cctx, GalleryKey, data, "application/json"); err != nil {
		log.Printf("failed to save gallery to %s: %v", s.location, err)
		s.writeCache(data)
		return false
	}

	s.writeCache(data)
	return true
}

// Backup copies the current persisted gallery to a timestamped backup key
// and returns that key. Failures are non-fatal to the caller.
func (s *Store) Backup(ctx context.Context) (string, error) {
	cctx, cancel := s.callCtx(ctx)
	defer cancel()

	key := fmt.Sprintf("%sgallery_%s.json", backupPrefix, time.Now().UTC().Format(backupTimeStamp))
	if err := s.blobs.Copy(cctx, GalleryKey, key); err != nil {
		return "", fmt.Errorf("backing up gallery: %w", err)
	}
	log.Printf("gallery backup created: %s", key)
	return key, nil
}

// Info reports whether a persisted gallery exists, its size, and its last
// modification time, without downloading the contents.
func (s *Store) Info(ctx context.Context) (Info, error) {
	cctx, cancel := s.callCtx(ctx)
	defer cancel()

	obj, err := s.blobs.Stat(cctx, GalleryKey)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return Info{Exists: false, Location: s.location}, nil
		}
		return Info{}, fmt.Errorf("stat gallery: %w", err)
	}
	return Info{
		Exists:       true,
		Size:         obj.Size,
		LastModified: obj.LastModified,
		Location:     s.location,
	}, nil
}

// writeCache mirrors the serialized gallery to the local cache file.
// Cache failures are logged, never propagated.
func (s *Store) writeCache(data []byte) {
	if s.cachePath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.cachePath), 0o755); err != nil {
		log.Printf("failed to create cache directory: %v", err)
		return
	}
	if err := os.WriteFile(s.cachePath, data, 0o644); err != nil {
		log.Printf("failed to write gallery cache: %v", err)
	}
}
