package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/boviclouds/muzzle-id/internal/blob"
	"github.com/boviclouds/muzzle-id/internal/gallerystore"
	"github.com/boviclouds/muzzle-id/internal/registry"
)

// deadStore fails every ping to simulate an unreachable remote.
type deadStore struct {
	blob.Store
}

func (d *deadStore) Ping(_ context.Context) error {
	return errors.New("connection refused")
}

func newHealthSetup(t *testing.T, blobs blob.Store) (*registry.Registry, *gallerystore.Store) {
	t.Helper()
	store := gallerystore.New(blobs, "", 5*time.Second, "mem://gallery")
	reg, err := registry.Load(context.Background(), store, t.TempDir())
	if err != nil {
		t.Fatalf("failed to load registry: %v", err)
	}
	return reg, store
}

func TestHealthCheck(t *testing.T) {
	blobs := blob.NewMemoryStore()
	reg, store := newHealthSetup(t, blobs)
	reg.Upsert(context.Background(), "cow-1", []float32{1, 0})
	h := NewHealthHandler(reg, store, blobs)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Check(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp struct {
		Status   string `json:"status"`
		Storage  string `json:"storage"`
		Database *struct {
			Exists   bool   `json:"exists"`
			Location string `json:"location"`
		} `json:"database"`
		TotalCows int `json:"total_cows"`
	}
	parseJSONResponse(t, rec, &resp)

	if resp.Status != "ok" || resp.Storage != "ok" || resp.TotalCows != 1 {
		t.Errorf("unexpected health response: %+v", resp)
	}
	if resp.Database == nil || !resp.Database.Exists || resp.Database.Location != "mem://gallery" {
		t.Errorf("expected persisted gallery metadata, got %+v", resp.Database)
	}
}

func TestHealthCheck_StorageUnreachable(t *testing.T) {
	blobs := blob.NewMemoryStore()
	reg, store := newHealthSetup(t, blobs)
	h := NewHealthHandler(reg, store, &deadStore{Store: blobs})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Check(rec, req)

	// Still 200: a broken dependency is not a dead process.
	assertStatusCode(t, rec, http.StatusOK)
	var resp struct {
		Status  string `json:"status"`
		Storage string `json:"storage"`
	}
	parseJSONResponse(t, rec, &resp)

	if resp.Status != "ok" || resp.Storage != "unreachable" {
		t.Errorf("unexpected health response: %+v", resp)
	}
}
