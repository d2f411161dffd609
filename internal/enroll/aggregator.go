// Package enroll turns a batch of raw cow photos into exactly one gallery
// entry: detect the muzzle in each image, extract a signature per usable
// crop, average the signatures, and upsert the result into the registry.
package enroll

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/boviclouds/muzzle-id/internal/blob"
	"github.com/boviclouds/muzzle-id/internal/gallery"
	"github.com/boviclouds/muzzle-id/internal/muzzle"
	"github.com/boviclouds/muzzle-id/internal/registry"
)

// extractWorkers bounds concurrent detector/extractor calls per enrollment.
const extractWorkers = 4

var (
	// ErrNoImages means no raw images exist for the identifier.
	ErrNoImages = errors.New("enroll: no raw images found")

	// ErrNoValidImages means no image yielded a detectable muzzle.
	ErrNoValidImages = errors.New("enroll: no valid images with a detectable muzzle")
)

// Result reports what happened during one enrollment.
type Result struct {
	CowID               string `json:"cow_id"`
	ImagesFound         int    `json:"images_found"`
	MuzzlesDetected     int    `json:"muzzles_detected"`
	SignaturesExtracted int    `json:"signatures_extracted"`
	CropsSaved          int    `json:"crops_saved"`
	Replaced            bool   `json:"replaced"`
	Saved               bool   `json:"database_saved"`
}

// Aggregator runs the enrollment pipeline.
type Aggregator struct {
	images     blob.Store
	detector   muzzle.Detector
	extractor  muzzle.Extractor
	registry   *registry.Registry
	confidence float64
	inputSize  int
	muzzleDir  string
}

// New creates an aggregator. confidence is the detector threshold for
// enrollment; inputSize the extractor's square input edge.
func New(images blob.Store, detector muzzle.Detector, extractor muzzle.Extractor,
	reg *registry.Registry, confidence float64, inputSize int, muzzleDir string) *Aggregator {
	return &Aggregator{
		images:     images,
		detector:   detector,
		extractor:  extractor,
		registry:   reg,
		confidence: confidence,
		inputSize:  inputSize,
		muzzleDir:  muzzleDir,
	}
}

// Enroll processes every raw image stored under the identifier's key prefix.
// Images where no muzzle is detected are skipped, not fatal. Zero usable
// images fails the whole enrollment without touching the gallery.
//
// The Result is also returned alongside ErrNoValidImages so callers can
// report how many images were found but unusable.
func (a *Aggregator) Enroll(ctx context.Context, cowID string) (*Result, error) {
	keys, err := a.listRawImages(ctx, cowID)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoImages, cowID)
	}

	res := &Result{CowID: cowID, ImagesFound: len(keys)}
	signatures := a.collectSignatures(ctx, cowID, keys, res)

	res.SignaturesExtracted = len(signatures)
	if len(signatures) == 0 {
		return res, fmt.Errorf("%w for %s (%d images found)", ErrNoValidImages, cowID, len(keys))
	}

	averaged := gallery.Mean(signatures)
	if averaged == nil {
		return res, fmt.Errorf("enroll: inconsistent signature lengths for %s", cowID)
	}

	res.Replaced, res.Saved = a.registry.Upsert(ctx, cowID, averaged)
	log.Printf("enrolled %s from %d/%d images (replaced=%v saved=%v)",
		cowID, len(signatures), len(keys), res.Replaced, res.Saved)
	return res, nil
}

// listRawImages returns the image keys stored under the identifier's prefix.
func (a *Aggregator) listRawImages(ctx context.Context, cowID string) ([]string, error) {
	keys, err := a.images.List(ctx, cowID+"/")
	if err != nil {
		return nil, fmt.Errorf("listing raw images for %s: %w", cowID, err)
	}
	var imageKeys []string
	for _, key := range keys {
		if muzzle.IsImageKey(key) {
			imageKeys = append(imageKeys, key)
		}
	}
	return imageKeys, nil
}

// imageOutcome records what happened to a single raw image. A detected
// muzzle counts even when the later extraction steps fail, so the result
// counters show where the pipeline lost each image.
type imageOutcome struct {
	signature []float32
	detected  bool
	cropSaved bool
}

// collectSignatures runs the download, detect, normalize, extract pipeline
// for each key with bounded concurrency. Per-image failures are logged and skipped;
// detector misses are counted silently. Crop indices follow the source key
// order so retained file names are deterministic.
func (a *Aggregator) collectSignatures(ctx context.Context, cowID string, keys []string, res *Result) [][]float32 {
	outcomes := make([]imageOutcome, len(keys))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(extractWorkers)

	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			out := a.processImage(gctx, cowID, key, i)
			mu.Lock()
			defer mu.Unlock()
			if out.detected {
				res.MuzzlesDetected++
			}
			if out.cropSaved {
				res.CropsSaved++
			}
			outcomes[i] = out
			return nil
		})
	}
	// Workers never return errors; skips are recorded per image.
	_ = g.Wait()

	var signatures [][]float32
	for i := range outcomes {
		if outcomes[i].signature != nil {
			signatures = append(signatures, outcomes[i].signature)
		}
	}
	return signatures
}

// processImage handles one raw image.
func (a *Aggregator) processImage(ctx context.Context, cowID, key string, index int) imageOutcome {
	var out imageOutcome

	data, err := a.images.Get(ctx, key)
	if err != nil {
		log.Printf("skipping %s: download failed: %v", key, err)
		return out
	}

	crop, err := a.detector.Detect(ctx, data, a.confidence)
	if err != nil {
		if !errors.Is(err, muzzle.ErrNoMuzzle) {
			log.Printf("skipping %s: detector failed: %v", key, err)
		}
		return out
	}
	out.detected = true

	if _, err := muzzle.SaveCrop(a.muzzleDir, cowID, index, crop); err != nil {
		log.Printf("warning: failed to retain crop for %s: %v", key, err)
	} else {
		out.cropSaved = true
	}

	normalized, err := muzzle.Normalize(crop, a.inputSize)
	if err != nil {
		log.Printf("skipping %s: normalization failed: %v", key, err)
		return out
	}

	sig, err := a.extractor.Extract(ctx, normalized)
	if err != nil {
		log.Printf("skipping %s: extraction failed: %v", key, err)
		return out
	}
	out.signature = sig
	return out
}
