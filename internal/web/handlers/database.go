package handlers

import (
	"log"
	"net/http"

	"github.com/boviclouds/muzzle-id/internal/gallerystore"
	"github.com/boviclouds/muzzle-id/internal/registry"
)

// DatabaseHandler handles gallery persistence endpoints.
type DatabaseHandler struct {
	registry *registry.Registry
	store    *gallerystore.Store
}

// NewDatabaseHandler creates a new database handler.
func NewDatabaseHandler(reg *registry.Registry, store *gallerystore.Store) *DatabaseHandler {
	return &DatabaseHandler{registry: reg, store: store}
}

// Info handles GET /database/info: describe the persisted gallery without
// downloading it.
func (h *DatabaseHandler) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.store.Info(r.Context())
	if err != nil {
		log.Printf("gallery info failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to inspect the gallery")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"database":   info,
		"total_cows": h.registry.Size(),
	})
}

// Backup handles POST /database/backup: copy the persisted gallery to a
// timestamped backup key.
func (h *DatabaseHandler) Backup(w http.ResponseWriter, r *http.Request) {
	key, err := h.store.Backup(r.Context())
	if err != nil {
		log.Printf("gallery backup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "backup failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"backup_key": key})
}

// Reload handles POST /database/reload: discard the in-memory gallery and
// load fresh from the remote store.
func (h *DatabaseHandler) Reload(w http.ResponseWriter, r *http.Request) {
	n, err := h.registry.Reload(r.Context())
	if err != nil {
		log.Printf("gallery reload failed: %v", err)
		respondError(w, http.StatusInternalServerError, "reload failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"total_cows": n})
}
