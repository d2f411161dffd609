package handlers

import (
	"net/http"

	"github.com/boviclouds/muzzle-id/internal/blob"
	"github.com/boviclouds/muzzle-id/internal/gallerystore"
	"github.com/boviclouds/muzzle-id/internal/registry"
)

// HealthHandler reports service and storage health.
type HealthHandler struct {
	registry *registry.Registry
	store    *gallerystore.Store
	blobs    blob.Store
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(reg *registry.Registry, store *gallerystore.Store, blobs blob.Store) *HealthHandler {
	return &HealthHandler{registry: reg, store: store, blobs: blobs}
}

// Check handles the health check endpoint. The remote store is probed with a
// ping and the persisted gallery metadata is included when available.
// Storage problems degrade the report but the endpoint itself stays 200 so
// orchestrators can tell a broken dependency from a dead process.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	storage := "ok"
	if err := h.blobs.Ping(r.Context()); err != nil {
		storage = "unreachable"
	}

	resp := map[string]any{
		"status":     "ok",
		"storage":    storage,
		"total_cows": h.registry.Size(),
	}
	if info, err := h.store.Info(r.Context()); err == nil {
		resp["database"] = info
	}

	respondJSON(w, http.StatusOK, resp)
}
