package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newPredictHandler(t *testing.T, detector *stubDetector, extractor *stubExtractor) (*PredictHandler, string) {
	t.Helper()
	reg, _ := newTestRegistry(t)
	reg.Upsert(context.Background(), "cow-1", []float32{1, 0})
	predictionDir := t.TempDir()
	h := NewPredictHandler(detector, extractor, reg, 0.3, 64, 0.9, predictionDir)
	return h, predictionDir
}

func TestPredict_Matched(t *testing.T) {
	h, predictionDir := newPredictHandler(t, &stubDetector{}, &stubExtractor{signature: []float32{1, 0}})

	req := multipartImageRequest(t, "/predict", "image", "image/jpeg", testJPEG(t, 80, 60))
	rec := httptest.NewRecorder()
	h.Predict(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp predictResponse
	parseJSONResponse(t, rec, &resp)

	if resp.CowID != "cow-1" {
		t.Errorf("expected cow-1, got %s", resp.CowID)
	}
	if resp.Score < 0.999 {
		t.Errorf("expected score near 1.0, got %f", resp.Score)
	}
	if resp.TotalCows != 1 {
		t.Errorf("expected total_cows 1, got %d", resp.TotalCows)
	}

	// The detected crop must be retained with a unique name.
	if resp.CropPath == "" || !strings.HasPrefix(filepath.Base(resp.CropPath), "prediction_") {
		t.Errorf("unexpected crop path: %s", resp.CropPath)
	}
	if _, err := os.Stat(resp.CropPath); err != nil {
		t.Errorf("retained crop missing: %v", err)
	}
	entries, _ := os.ReadDir(predictionDir)
	if len(entries) != 1 {
		t.Errorf("expected one retained crop, got %d", len(entries))
	}
}

func TestPredict_Unknown(t *testing.T) {
	h, _ := newPredictHandler(t, &stubDetector{}, &stubExtractor{signature: []float32{0, 1}})

	req := multipartImageRequest(t, "/predict", "image", "image/jpeg", testJPEG(t, 80, 60))
	rec := httptest.NewRecorder()
	h.Predict(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp predictResponse
	parseJSONResponse(t, rec, &resp)

	if resp.CowID != PredictionUnknown {
		t.Errorf("expected %q, got %q", PredictionUnknown, resp.CowID)
	}
	// The best rejected score is still reported.
	if resp.Score > 0.01 {
		t.Errorf("expected near-zero score for orthogonal query, got %f", resp.Score)
	}
}

func TestPredict_GalleryEmpty(t *testing.T) {
	reg, _ := newTestRegistry(t)
	h := NewPredictHandler(&stubDetector{}, &stubExtractor{signature: []float32{1, 0}}, reg, 0.3, 64, 0.9, t.TempDir())

	req := multipartImageRequest(t, "/predict", "image", "image/jpeg", testJPEG(t, 80, 60))
	rec := httptest.NewRecorder()
	h.Predict(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp predictResponse
	parseJSONResponse(t, rec, &resp)

	if resp.CowID != PredictionGalleryEmpty {
		t.Errorf("expected %q, got %q", PredictionGalleryEmpty, resp.CowID)
	}
}

func TestPredict_NoMuzzle(t *testing.T) {
	h, _ := newPredictHandler(t, &stubDetector{noMuzzle: true}, &stubExtractor{signature: []float32{1, 0}})

	req := multipartImageRequest(t, "/predict", "image", "image/jpeg", testJPEG(t, 80, 60))
	rec := httptest.NewRecorder()
	h.Predict(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp predictResponse
	parseJSONResponse(t, rec, &resp)

	if resp.CowID != PredictionNoMuzzle {
		t.Errorf("expected %q, got %q", PredictionNoMuzzle, resp.CowID)
	}
}

func TestPredict_MissingImage(t *testing.T) {
	h, _ := newPredictHandler(t, &stubDetector{}, &stubExtractor{signature: []float32{1, 0}})

	req := httptest.NewRequest(http.MethodPost, "/predict", nil)
	rec := httptest.NewRecorder()
	h.Predict(rec, req)

	assertStatusCode(t, rec, http.StatusBadRequest)
}

func TestPredict_RejectsNonImageUpload(t *testing.T) {
	h, _ := newPredictHandler(t, &stubDetector{}, &stubExtractor{signature: []float32{1, 0}})

	req := multipartImageRequest(t, "/predict", "image", "text/plain", []byte("not a picture"))
	rec := httptest.NewRecorder()
	h.Predict(rec, req)

	assertStatusCode(t, rec, http.StatusBadRequest)
}

func TestPredict_UndecodableImage(t *testing.T) {
	h, _ := newPredictHandler(t, &stubDetector{}, &stubExtractor{signature: []float32{1, 0}})

	req := multipartImageRequest(t, "/predict", "image", "image/jpeg", []byte("garbage bytes"))
	rec := httptest.NewRecorder()
	h.Predict(rec, req)

	assertStatusCode(t, rec, http.StatusBadRequest)
}
