package muzzle

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Detected muzzle crops are retained on local disk per animal for audit and
// debugging. They are an observable side effect, not part of the identity
// vector.

// CropDir returns the crop folder for an animal.
func CropDir(root, cowID string) string {
	return filepath.Join(root, filepath.Base(cowID))
}

// SaveCrop writes a detected muzzle crop for an animal and returns the
// file name.
func SaveCrop(root, cowID string, index int, data []byte) (string, error) {
	dir := CropDir(root, cowID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating crop directory: %w", err)
	}
	name := fmt.Sprintf("muzzle_%s_%03d.jpg", filepath.Base(cowID), index)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("writing crop: %w", err)
	}
	return name, nil
}

// ListCrops returns the retained crop file names for an animal, sorted.
// A missing folder yields an empty list.
func ListCrops(root, cowID string) ([]string, error) {
	entries, err := os.ReadDir(CropDir(root, cowID))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && IsImageKey(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// RemoveCrops deletes an animal's crop folder and returns how many image
// files it contained.
func RemoveCrops(root, cowID string) (int, error) {
	names, err := ListCrops(root, cowID)
	if err != nil {
		return 0, err
	}
	if err := os.RemoveAll(CropDir(root, cowID)); err != nil {
		return 0, err
	}
	return len(names), nil
}
