package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/boviclouds/muzzle-id/internal/blob"
	"github.com/boviclouds/muzzle-id/internal/enroll"
	"github.com/boviclouds/muzzle-id/internal/muzzle"
	"github.com/boviclouds/muzzle-id/internal/registry"
)

// CowsHandler handles enrollment and animal management endpoints.
type CowsHandler struct {
	registry  *registry.Registry
	enroller  *enroll.Aggregator
	images    blob.Store
	muzzleDir string
}

// NewCowsHandler creates a new cows handler.
func NewCowsHandler(reg *registry.Registry, enroller *enroll.Aggregator, images blob.Store, muzzleDir string) *CowsHandler {
	return &CowsHandler{
		registry:  reg,
		enroller:  enroller,
		images:    images,
		muzzleDir: muzzleDir,
	}
}

// Add handles POST /add-cow: enroll an animal from its raw images in the
// object store.
func (h *CowsHandler) Add(w http.ResponseWriter, r *http.Request) {
	cowID := r.FormValue("cow_id")
	if cowID == "" {
		respondError(w, http.StatusBadRequest, "cow_id is required")
		return
	}

	res, err := h.enroller.Enroll(r.Context(), cowID)
	if err != nil {
		switch {
		case errors.Is(err, enroll.ErrNoImages):
			respondError(w, http.StatusNotFound, "no raw images found for "+cowID)
		case errors.Is(err, enroll.ErrNoValidImages):
			respondError(w, http.StatusBadRequest, "no valid images with a detectable muzzle for "+cowID)
		default:
			log.Printf("enrollment of %s failed: %v", sanitizeForLog(cowID), err)
			respondError(w, http.StatusInternalServerError, "enrollment failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, res)
}

type cowInfo struct {
	CowID            string `json:"cow_id"`
	MuzzleFilesCount int    `json:"muzzle_files_count"`
}

// List handles GET /cows: every enrolled identifier together with how many
// muzzle crops its enrollment retained.
func (h *CowsHandler) List(w http.ResponseWriter, r *http.Request) {
	snapshot := h.registry.Snapshot()

	cows := make([]cowInfo, 0, snapshot.Len())
	for _, label := range snapshot.Labels {
		names, err := muzzle.ListCrops(h.muzzleDir, label)
		if err != nil {
			log.Printf("warning: listing muzzle crops for %s failed: %v", sanitizeForLog(label), err)
		}
		cows = append(cows, cowInfo{CowID: label, MuzzleFilesCount: len(names)})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"cows":  cows,
		"total": len(cows),
	})
}

// RawImages handles GET /cow/{id}/raw-images: list the source image keys
// stored under the animal's prefix.
func (h *CowsHandler) RawImages(w http.ResponseWriter, r *http.Request) {
	cowID := chi.URLParam(r, "id")

	keys, err := h.images.List(r.Context(), cowID+"/")
	if err != nil {
		log.Printf("listing raw images for %s failed: %v", sanitizeForLog(cowID), err)
		respondError(w, http.StatusInternalServerError, "failed to list raw images")
		return
	}

	images := []string{}
	for _, key := range keys {
		if muzzle.IsImageKey(key) {
			images = append(images, key)
		}
	}
	if len(images) == 0 {
		respondError(w, http.StatusNotFound, "no raw images found for "+cowID)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"cow_id": cowID,
		"images": images,
		"total":  len(images),
	})
}

// MuzzleImages handles GET /cow/{id}/muzzle-images: list the retained muzzle
// crops from the animal's enrollment.
func (h *CowsHandler) MuzzleImages(w http.ResponseWriter, r *http.Request) {
	cowID := chi.URLParam(r, "id")

	names, err := muzzle.ListCrops(h.muzzleDir, cowID)
	if err != nil {
		log.Printf("listing muzzle crops for %s failed: %v", sanitizeForLog(cowID), err)
		respondError(w, http.StatusInternalServerError, "failed to list muzzle images")
		return
	}
	if len(names) == 0 {
		respondError(w, http.StatusNotFound, "no muzzle images found for "+cowID)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"cow_id": cowID,
		"images": names,
		"total":  len(names),
	})
}

// Delete handles DELETE /cow/{id}: remove an enrolled animal from the gallery
// along with its retained crops.
func (h *CowsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	cowID := chi.URLParam(r, "id")

	res, err := h.registry.Remove(r.Context(), cowID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			respondError(w, http.StatusNotFound, cowID+" is not enrolled")
			return
		}
		log.Printf("removing %s failed: %v", sanitizeForLog(cowID), err)
		respondError(w, http.StatusInternalServerError, "removal failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"cow_id":         cowID,
		"backup_key":     res.BackupKey,
		"database_saved": res.Saved,
		"crops_deleted":  res.CropsDeleted,
		"remaining":      res.Remaining,
	})
}
