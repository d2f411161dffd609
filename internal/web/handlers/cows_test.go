package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/boviclouds/muzzle-id/internal/blob"
	"github.com/boviclouds/muzzle-id/internal/enroll"
	"github.com/boviclouds/muzzle-id/internal/muzzle"
	"github.com/boviclouds/muzzle-id/internal/registry"
)

func newCowsHandler(t *testing.T, detector *stubDetector) (*CowsHandler, *registry.Registry, blob.Store, string) {
	t.Helper()
	reg, _ := newTestRegistry(t)
	images := blob.NewMemoryStore()
	muzzleDir := t.TempDir()
	enroller := enroll.New(images, detector, &stubExtractor{signature: []float32{1, 0}}, reg, 0.1, 64, muzzleDir)
	return NewCowsHandler(reg, enroller, images, muzzleDir), reg, images, muzzleDir
}

func formRequest(method, path string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestAddCow_Success(t *testing.T) {
	h, reg, images, _ := newCowsHandler(t, &stubDetector{})
	images.Put(context.Background(), "cow-1/a.jpg", testJPEG(t, 80, 60), "image/jpeg")

	req := formRequest(http.MethodPost, "/add-cow", url.Values{"cow_id": {"cow-1"}})
	rec := httptest.NewRecorder()
	h.Add(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp enroll.Result
	parseJSONResponse(t, rec, &resp)

	if resp.CowID != "cow-1" || resp.SignaturesExtracted != 1 || !resp.Saved {
		t.Errorf("unexpected enrollment result: %+v", resp)
	}
	if reg.Size() != 1 {
		t.Errorf("expected 1 enrolled animal, got %d", reg.Size())
	}
}

func TestAddCow_MissingID(t *testing.T) {
	h, _, _, _ := newCowsHandler(t, &stubDetector{})

	req := formRequest(http.MethodPost, "/add-cow", url.Values{})
	rec := httptest.NewRecorder()
	h.Add(rec, req)

	assertStatusCode(t, rec, http.StatusBadRequest)
}

func TestAddCow_NoImages(t *testing.T) {
	h, _, _, _ := newCowsHandler(t, &stubDetector{})

	req := formRequest(http.MethodPost, "/add-cow", url.Values{"cow_id": {"cow-404"}})
	rec := httptest.NewRecorder()
	h.Add(rec, req)

	assertStatusCode(t, rec, http.StatusNotFound)
}

func TestAddCow_NoValidImages(t *testing.T) {
	h, reg, images, _ := newCowsHandler(t, &stubDetector{noMuzzle: true})
	images.Put(context.Background(), "cow-1/a.jpg", testJPEG(t, 80, 60), "image/jpeg")

	req := formRequest(http.MethodPost, "/add-cow", url.Values{"cow_id": {"cow-1"}})
	rec := httptest.NewRecorder()
	h.Add(rec, req)

	assertStatusCode(t, rec, http.StatusBadRequest)
	if reg.Size() != 0 {
		t.Error("failed enrollment must not touch the gallery")
	}
}

func TestListCows(t *testing.T) {
	h, reg, _, muzzleDir := newCowsHandler(t, &stubDetector{})
	reg.Upsert(context.Background(), "cow-1", []float32{1, 0})
	reg.Upsert(context.Background(), "cow-2", []float32{0, 1})
	for i := 0; i < 3; i++ {
		if _, err := muzzle.SaveCrop(muzzleDir, "cow-1", i, []byte("jpg")); err != nil {
			t.Fatalf("failed to seed crops: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/cows", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp struct {
		Cows []struct {
			CowID            string `json:"cow_id"`
			MuzzleFilesCount int    `json:"muzzle_files_count"`
		} `json:"cows"`
		Total int `json:"total"`
	}
	parseJSONResponse(t, rec, &resp)

	if resp.Total != 2 || len(resp.Cows) != 2 {
		t.Fatalf("unexpected listing: %+v", resp)
	}
	if resp.Cows[0].CowID != "cow-1" || resp.Cows[0].MuzzleFilesCount != 3 {
		t.Errorf("expected cow-1 with 3 muzzle files, got %+v", resp.Cows[0])
	}
	if resp.Cows[1].CowID != "cow-2" || resp.Cows[1].MuzzleFilesCount != 0 {
		t.Errorf("expected cow-2 with 0 muzzle files, got %+v", resp.Cows[1])
	}
}

func TestRawImages_FiltersNonImages(t *testing.T) {
	h, _, images, _ := newCowsHandler(t, &stubDetector{})
	images.Put(context.Background(), "cow-1/a.jpg", testJPEG(t, 40, 40), "image/jpeg")
	images.Put(context.Background(), "cow-1/notes.txt", []byte("text"), "text/plain")

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/cow/cow-1/raw-images", nil),
		map[string]string{"id": "cow-1"},
	)
	rec := httptest.NewRecorder()
	h.RawImages(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp struct {
		Images []string `json:"images"`
		Total  int      `json:"total"`
	}
	parseJSONResponse(t, rec, &resp)

	if resp.Total != 1 || resp.Images[0] != "cow-1/a.jpg" {
		t.Errorf("unexpected raw image listing: %+v", resp)
	}
}

func TestRawImages_NotFound(t *testing.T) {
	h, _, _, _ := newCowsHandler(t, &stubDetector{})

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/cow/cow-404/raw-images", nil),
		map[string]string{"id": "cow-404"},
	)
	rec := httptest.NewRecorder()
	h.RawImages(rec, req)

	assertStatusCode(t, rec, http.StatusNotFound)
}

func TestMuzzleImages(t *testing.T) {
	h, _, _, muzzleDir := newCowsHandler(t, &stubDetector{})
	for i := 0; i < 2; i++ {
		if _, err := muzzle.SaveCrop(muzzleDir, "cow-1", i, []byte("jpg")); err != nil {
			t.Fatalf("failed to seed crops: %v", err)
		}
	}

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/cow/cow-1/muzzle-images", nil),
		map[string]string{"id": "cow-1"},
	)
	rec := httptest.NewRecorder()
	h.MuzzleImages(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp struct {
		Images []string `json:"images"`
		Total  int      `json:"total"`
	}
	parseJSONResponse(t, rec, &resp)

	if resp.Total != 2 {
		t.Errorf("expected 2 muzzle images, got %+v", resp)
	}
}

func TestMuzzleImages_NotFound(t *testing.T) {
	h, _, _, _ := newCowsHandler(t, &stubDetector{})

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/cow/cow-404/muzzle-images", nil),
		map[string]string{"id": "cow-404"},
	)
	rec := httptest.NewRecorder()
	h.MuzzleImages(rec, req)

	assertStatusCode(t, rec, http.StatusNotFound)
}

func TestDeleteCow(t *testing.T) {
	h, reg, _, _ := newCowsHandler(t, &stubDetector{})
	reg.Upsert(context.Background(), "cow-1", []float32{1, 0})

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodDelete, "/cow/cow-1", nil),
		map[string]string{"id": "cow-1"},
	)
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	if reg.Size() != 0 {
		t.Errorf("expected empty gallery after delete, got %d", reg.Size())
	}
}

func TestDeleteCow_NotFound(t *testing.T) {
	h, _, _, _ := newCowsHandler(t, &stubDetector{})

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodDelete, "/cow/cow-404", nil),
		map[string]string{"id": "cow-404"},
	)
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	assertStatusCode(t, rec, http.StatusNotFound)
}
