package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/boviclouds/muzzle-id/internal/constants"
)

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// isImageContentType accepts the content types the model servers can decode.
func isImageContentType(ct string) bool {
	switch strings.ToLower(ct) {
	case "image/jpeg", "image/jpg", "image/png", "image/bmp", "image/gif":
		return true
	}
	// Browsers sometimes omit the part content type entirely.
	return ct == "" || ct == "application/octet-stream"
}

// readImageUpload extracts the "image" part from a multipart request, enforcing
// the upload size cap and a plausible image content type.
func readImageUpload(r *http.Request) ([]byte, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		return nil, nil, errors.New("failed to parse multipart form")
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, nil, errors.New("image file is required")
	}
	defer file.Close()

	if !isImageContentType(header.Header.Get("Content-Type")) {
		return nil, nil, errors.New("uploaded file is not an image")
	}

	data, err := io.ReadAll(io.LimitReader(file, constants.MaxUploadSize+1))
	if err != nil {
		return nil, nil, errors.New("failed to read uploaded file")
	}
	if len(data) > constants.MaxUploadSize {
		return nil, nil, errors.New("uploaded file exceeds the size limit")
	}
	if len(data) == 0 {
		return nil, nil, errors.New("uploaded file is empty")
	}
	return data, header, nil
}
