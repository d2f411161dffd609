// Package registry owns the single process-wide mutable gallery and its
// lifecycle. All mutating sequences (read-modify-upsert-persist,
// read-modify-remove-persist) are linearized under one writer lock;
// identification takes the read lock so predictions observe either the
// pre- or post-mutation gallery, never a partially mutated one.
package registry

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/boviclouds/muzzle-id/internal/gallery"
	"github.com/boviclouds/muzzle-id/internal/gallerystore"
	"github.com/boviclouds/muzzle-id/internal/muzzle"
)

// ErrNotFound is returned when an animal identifier is not enrolled.
var ErrNotFound = errors.New("registry: animal not found")

// Registry is the synchronization layer between request handlers and the
// persisted gallery.
type Registry struct {
	mu        sync.RWMutex
	gallery   *gallery.Gallery
	store     *gallerystore.Store
	muzzleDir string
}

// Load builds a registry from the persisted gallery. A load failure here is
// fatal by contract: the process must not serve from unknown state.
func Load(ctx context.Context, store *gallerystore.Store, muzzleDir string) (*Registry, error) {
	g, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Registry{gallery: g, store: store, muzzleDir: muzzleDir}, nil
}

// Size returns the number of enrolled animals.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gallery.Len()
}

// Labels returns the enrolled identifiers in gallery order.
func (r *Registry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	labels := make([]string, len(r.gallery.Labels))
	copy(labels, r.gallery.Labels)
	return labels
}

// Snapshot returns a deep copy of the current gallery.
func (r *Registry) Snapshot() *gallery.Gallery {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gallery.Clone()
}

// Identify matches a query signature against the current gallery.
func (r *Registry) Identify(query []float32, threshold float64) gallery.Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return gallery.Identify(query, r.gallery, threshold)
}

// Upsert inserts or replaces an animal's signature and persists the gallery.
// A failed save leaves the in-memory gallery authoritative; the caller
// reports saved=false to the end user and Reload is the recovery path.
func (r *Registry) Upsert(ctx context.Context, label string, signature []float32) (replaced, saved bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	replaced = r.gallery.Upsert(label, signature)
	saved = r.store.Save(ctx, r.gallery)
	return replaced, saved
}

// RemoveResult reports the outcome of removing an animal.
type RemoveResult struct {
	BackupKey    string // empty when the pre-removal backup failed
	Saved        bool
	CropsDeleted int
	Remaining    int
}

// Remove deletes an enrolled animal: backup first (non-fatal on failure),
// then drop the index-aligned gallery entry, persist, and clean up the
// retained muzzle crops.
func (r *Registry) Remove(ctx context.Context, label string) (*RemoveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gallery.Index(label) < 0 {
		return nil, ErrNotFound
	}

	backupKey, err := r.store.Backup(ctx)
	if err != nil {
		log.Printf("warning: backup before removing %s failed: %v", label, err)
	}

	r.gallery.Remove(label)
	saved := r.store.Save(ctx, r.gallery)

	crops, err := muzzle.RemoveCrops(r.muzzleDir, label)
	if err != nil {
		log.Printf("warning: failed to remove crops for %s: %v", label, err)
	}

	return &RemoveResult{
		BackupKey:    backupKey,
		Saved:        saved,
		CropsDeleted: crops,
		Remaining:    r.gallery.Len(),
	}, nil
}

// Reload discards the in-memory gallery and loads fresh from the store.
// This is the operator escape hatch for suspected memory/remote divergence.
// On failure the previous in-memory gallery stays in place.
func (r *Registry) Reload(ctx context.Context) (int, error) {
	g, err := r.store.Load(ctx)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.gallery = g
	return g.Len(), nil
}
