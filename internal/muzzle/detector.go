// Package muzzle is the boundary to the model collaborators: the detector
// that locates a muzzle in a cow photo and the extractor that turns a
// normalized muzzle crop into a signature vector. Both are plain interfaces
// so the matching and enrollment core is testable with fixed stub vectors.
package muzzle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
)

const defaultDetectorURL = "http://localhost:8001"

// ErrNoMuzzle is returned when the detector finds no muzzle in an image.
var ErrNoMuzzle = errors.New("muzzle: no muzzle detected")

// Detector locates a muzzle region in an arbitrary cow image.
// Detect returns the cropped muzzle as an encoded image, or ErrNoMuzzle when
// no box clears the confidence threshold.
type Detector interface {
	Detect(ctx context.Context, imageData []byte, confidence float64) ([]byte, error)
}

// HTTPDetector talks to the detection model server. The server returns the
// highest-confidence bounding box; the crop happens client-side.
type HTTPDetector struct {
	baseURL string
	client  *http.Client
}

// NewHTTPDetector creates a detector client for the given base URL.
func NewHTTPDetector(baseURL string) *HTTPDetector {
	if baseURL == "" {
		baseURL = defaultDetectorURL
	}
	return &HTTPDetector{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

// detectResponse represents the response from the detection server.
type detectResponse struct {
	Found      bool      `json:"found"`
	BBox       []float64 `json:"bbox"` // [x1, y1, x2, y2] in pixels
	Confidence float64   `json:"confidence"`
}

func (d *HTTPDetector) Detect(ctx context.Context, imageData []byte, confidence float64) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("confidence", strconv.FormatFloat(confidence, 'f', -1, 64)); err != nil {
		return nil, fmt.Errorf("failed to write confidence field: %w", err)
	}

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/detect", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detector request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read detector response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector error (status %d): %s", resp.StatusCode, string(body))
	}

	var det detectResponse
	if err := json.Unmarshal(body, &det); err != nil {
		return nil, fmt.Errorf("failed to parse detector response: %w", err)
	}

	if !det.Found || len(det.BBox) != 4 {
		return nil, ErrNoMuzzle
	}

	return Crop(imageData, det.BBox)
}

// Crop cuts a bounding box out of an encoded image and re-encodes it as JPEG.
// Coordinates are clamped to the image bounds.
func Crop(imageData []byte, bbox []float64) ([]byte, error) {
	if len(bbox) != 4 {
		return nil, fmt.Errorf("invalid bounding box: %v", bbox)
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	rect := image.Rect(int(bbox[0]), int(bbox[1]), int(bbox[2]), int(bbox[3])).Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("bounding box %v outside image bounds %v", bbox, bounds)
	}

	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	var cropped image.Image
	if si, ok := img.(subImager); ok {
		cropped = si.SubImage(rect)
	} else {
		cropped = cropFallback(img, rect)
	}

	return encodeJPEG(cropped)
}
