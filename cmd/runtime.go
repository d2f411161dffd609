package cmd

import (
	"context"
	"fmt"

	"github.com/boviclouds/muzzle-id/internal/blob"
	"github.com/boviclouds/muzzle-id/internal/config"
	"github.com/boviclouds/muzzle-id/internal/constants"
	"github.com/boviclouds/muzzle-id/internal/enroll"
	"github.com/boviclouds/muzzle-id/internal/gallerystore"
	"github.com/boviclouds/muzzle-id/internal/muzzle"
	"github.com/boviclouds/muzzle-id/internal/registry"
)

// services wires the full pipeline from configuration: object store, gallery
// store, registry, model clients, and the enrollment aggregator. Every
// command except version starts here.
type services struct {
	cfg       *config.Config
	blobs     *blob.MinioStore
	store     *gallerystore.Store
	registry  *registry.Registry
	detector  muzzle.Detector
	extractor muzzle.Extractor
	enroller  *enroll.Aggregator
}

func newServices(ctx context.Context) (*services, error) {
	cfg := config.Load()

	blobs, err := blob.NewMinioStore(&cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("connecting to object storage: %w", err)
	}
	if err := blobs.EnsureBucket(ctx, cfg.Store.Region); err != nil {
		return nil, fmt.Errorf("ensuring bucket %s exists: %w", cfg.Store.Bucket, err)
	}

	location := fmt.Sprintf("s3://%s/%s", cfg.Store.Bucket, gallerystore.GalleryKey)
	store := gallerystore.New(blobs, cfg.Store.CachePath, cfg.Store.Timeout, location)

	reg, err := registry.Load(ctx, store, cfg.Assets.MuzzleDir)
	if err != nil {
		return nil, fmt.Errorf("loading gallery: %w", err)
	}

	detector := muzzle.NewHTTPDetector(cfg.Detector.URL)
	extractor := muzzle.NewHTTPExtractor(cfg.Extractor.URL, cfg.Extractor.Dim)

	enroller := enroll.New(
		blobs,
		detector,
		extractor,
		reg,
		cfg.DetectorConfidence(constants.ProfileEnroll),
		cfg.Extractor.InputSize,
		cfg.Assets.MuzzleDir,
	)

	return &services{
		cfg:       cfg,
		blobs:     blobs,
		store:     store,
		registry:  reg,
		detector:  detector,
		extractor: extractor,
		enroller:  enroller,
	}, nil
}
