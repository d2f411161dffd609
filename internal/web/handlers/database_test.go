package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/boviclouds/muzzle-id/internal/gallery"
)

func TestDatabaseInfo(t *testing.T) {
	reg, store := newTestRegistry(t)
	reg.Upsert(context.Background(), "cow-1", []float32{1, 0})
	h := NewDatabaseHandler(reg, store)

	req := httptest.NewRequest(http.MethodGet, "/database/info", nil)
	rec := httptest.NewRecorder()
	h.Info(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp struct {
		Database struct {
			Exists   bool   `json:"exists"`
			Location string `json:"location"`
		} `json:"database"`
		TotalCows int `json:"total_cows"`
	}
	parseJSONResponse(t, rec, &resp)

	if !resp.Database.Exists {
		t.Error("expected persisted gallery to exist")
	}
	if resp.TotalCows != 1 {
		t.Errorf("expected 1 cow, got %d", resp.TotalCows)
	}
}

func TestDatabaseBackup(t *testing.T) {
	reg, store := newTestRegistry(t)
	reg.Upsert(context.Background(), "cow-1", []float32{1, 0})
	h := NewDatabaseHandler(reg, store)

	req := httptest.NewRequest(http.MethodPost, "/database/backup", nil)
	rec := httptest.NewRecorder()
	h.Backup(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp map[string]string
	parseJSONResponse(t, rec, &resp)

	if !strings.HasPrefix(resp["backup_key"], "database/backups/gallery_") {
		t.Errorf("unexpected backup key: %s", resp["backup_key"])
	}
}

func TestDatabaseReload(t *testing.T) {
	reg, store := newTestRegistry(t)
	h := NewDatabaseHandler(reg, store)

	// Simulate another writer updating the remote document.
	g := gallery.New()
	g.Upsert("cow-9", []float32{1, 2})
	if !store.Save(context.Background(), g) {
		t.Fatal("failed to seed remote gallery")
	}

	req := httptest.NewRequest(http.MethodPost, "/database/reload", nil)
	rec := httptest.NewRecorder()
	h.Reload(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp struct {
		TotalCows int `json:"total_cows"`
	}
	parseJSONResponse(t, rec, &resp)

	if resp.TotalCows != 1 || reg.Size() != 1 {
		t.Errorf("expected reload to pick up 1 cow, got %+v (size %d)", resp, reg.Size())
	}
}
