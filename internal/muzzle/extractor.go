package muzzle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

const defaultExtractorURL = "http://localhost:8000"

// Extractor maps a normalized muzzle crop to a fixed-length signature vector.
type Extractor interface {
	Extract(ctx context.Context, imageData []byte) ([]float32, error)
}

// HTTPExtractor computes signature vectors using the embedding model server.
type HTTPExtractor struct {
	baseURL string
	dim     int // expected vector length; 0 disables the check
	client  *http.Client
}

// NewHTTPExtractor creates an extractor client. dim is the expected signature
// length; responses with a different length are rejected.
func NewHTTPExtractor(baseURL string, dim int) *HTTPExtractor {
	if baseURL == "" {
		baseURL = defaultExtractorURL
	}
	return &HTTPExtractor{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		dim:     dim,
		client:  &http.Client{},
	}
}

// extractResponse represents the response from the embedding server.
type extractResponse struct {
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
}

func (e *HTTPExtractor) Extract(ctx context.Context, imageData []byte) ([]float32, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "muzzle.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extractor request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read extractor response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extractor error (status %d): %s", resp.StatusCode, string(body))
	}

	var ext extractResponse
	if err := json.Unmarshal(body, &ext); err != nil {
		return nil, fmt.Errorf("failed to parse extractor response: %w", err)
	}

	if len(ext.Embedding) == 0 {
		return nil, errors.New("empty embedding returned")
	}
	if e.dim > 0 && len(ext.Embedding) != e.dim {
		return nil, fmt.Errorf("unexpected signature length %d, want %d", len(ext.Embedding), e.dim)
	}

	return ext.Embedding, nil
}
