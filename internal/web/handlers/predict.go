package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/boviclouds/muzzle-id/internal/gallery"
	"github.com/boviclouds/muzzle-id/internal/muzzle"
	"github.com/boviclouds/muzzle-id/internal/registry"
)

// Sentinel prediction values returned in place of an animal identifier.
const (
	PredictionUnknown      = "unknown"
	PredictionNoMuzzle     = "muzzle not detected"
	PredictionGalleryEmpty = "gallery empty"
)

// PredictHandler identifies an animal from an uploaded photo.
type PredictHandler struct {
	detector      muzzle.Detector
	extractor     muzzle.Extractor
	registry      *registry.Registry
	confidence    float64
	inputSize     int
	threshold     float64
	predictionDir string
}

// NewPredictHandler creates a prediction handler. confidence is the detector
// threshold for identification requests; threshold the minimum similarity to
// accept a match.
func NewPredictHandler(detector muzzle.Detector, extractor muzzle.Extractor, reg *registry.Registry,
	confidence float64, inputSize int, threshold float64, predictionDir string) *PredictHandler {
	return &PredictHandler{
		detector:      detector,
		extractor:     extractor,
		registry:      reg,
		confidence:    confidence,
		inputSize:     inputSize,
		threshold:     threshold,
		predictionDir: predictionDir,
	}
}

type predictResponse struct {
	CowID     string  `json:"cow_id"`
	Score     float64 `json:"score"`
	TotalCows int     `json:"total_cows"`
	CropPath  string  `json:"crop_path,omitempty"`
}

// Predict handles POST /predict: detect the muzzle, extract a signature, and
// match it against the gallery. Detector misses and an empty gallery are
// reported as sentinel identifiers with a 200, not as errors.
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	data, _, err := readImageUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	crop, err := h.detector.Detect(r.Context(), data, h.confidence)
	if err != nil {
		if errors.Is(err, muzzle.ErrNoMuzzle) {
			respondJSON(w, http.StatusOK, predictResponse{
				CowID:     PredictionNoMuzzle,
				TotalCows: h.registry.Size(),
			})
			return
		}
		log.Printf("prediction detector call failed: %v", err)
		respondError(w, http.StatusInternalServerError, "muzzle detection failed")
		return
	}

	cropPath := h.saveCrop(crop)

	normalized, err := muzzle.Normalize(crop, h.inputSize)
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not process the uploaded image")
		return
	}

	signature, err := h.extractor.Extract(r.Context(), normalized)
	if err != nil {
		log.Printf("prediction extractor call failed: %v", err)
		respondError(w, http.StatusInternalServerError, "signature extraction failed")
		return
	}

	m := h.registry.Identify(signature, h.threshold)
	resp := predictResponse{
		Score:     m.Score,
		TotalCows: h.registry.Size(),
		CropPath:  cropPath,
	}
	switch m.Outcome {
	case gallery.OutcomeMatched:
		resp.CowID = m.Label
	case gallery.OutcomeUnknown:
		resp.CowID = PredictionUnknown
	case gallery.OutcomeGalleryEmpty:
		resp.CowID = PredictionGalleryEmpty
	}

	respondJSON(w, http.StatusOK, resp)
}

// saveCrop retains the detected crop for later inspection. Failures only
// cost the audit trail, never the prediction.
func (h *PredictHandler) saveCrop(crop []byte) string {
	if h.predictionDir == "" {
		return ""
	}
	if err := os.MkdirAll(h.predictionDir, 0o755); err != nil {
		log.Printf("warning: failed to create prediction directory: %v", err)
		return ""
	}
	path := filepath.Join(h.predictionDir, fmt.Sprintf("prediction_%s.jpg", uuid.New().String()))
	if err := os.WriteFile(path, crop, 0o644); err != nil {
		log.Printf("warning: failed to retain prediction crop: %v", err)
		return ""
	}
	return path
}
