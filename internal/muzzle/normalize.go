package muzzle

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// Normalize resizes a muzzle crop to the square input size the extractor
// model expects and re-encodes it as JPEG. Scaling pixel values into the
// model's numeric range is the extractor service's side of the contract.
func Normalize(crop []byte, size int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(crop))
	if err != nil {
		return nil, fmt.Errorf("failed to decode crop: %w", err)
	}

	resized := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, img.Bounds(), draw.Over, nil)

	return encodeJPEG(resized)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// cropFallback copies a rectangle out of images that do not support SubImage.
func cropFallback(img image.Image, rect image.Rectangle) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Copy(dst, image.Point{}, img, rect, draw.Src, nil)
	return dst
}

// IsImageKey reports whether an object key looks like an image file.
func IsImageKey(key string) bool {
	lower := strings.ToLower(key)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".bmp", ".gif"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
