package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boviclouds/muzzle-id/internal/gallery"
	"github.com/boviclouds/muzzle-id/internal/muzzle"
)

var identifyCmd = &cobra.Command{
	Use:   "identify <image-path>",
	Short: "Identify a cow from a local photo",
	Long: `Identify a cow from a photo on the local filesystem.

The muzzle is detected and cropped, a signature is extracted, and the
gallery entry with the highest cosine similarity is reported. A best
score below the matching threshold reports the animal as unknown.

Example:
  muzzle-id identify ./field-photos/IMG_2041.jpg
  muzzle-id identify --profile strict ./field-photos/IMG_2041.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runIdentify,
}

func init() {
	rootCmd.AddCommand(identifyCmd)

	identifyCmd.Flags().String("profile", "predict", "Detector confidence profile (enroll, predict, strict)")
	identifyCmd.Flags().Float64("threshold", 0, "Override the matching threshold (0 = use config)")
}

func runIdentify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}

	svc, err := newServices(ctx)
	if err != nil {
		return err
	}

	threshold := mustGetFloat64(cmd, "threshold")
	if threshold <= 0 {
		threshold = svc.cfg.Matcher.Threshold
	}
	confidence := svc.cfg.DetectorConfidence(mustGetString(cmd, "profile"))

	crop, err := svc.detector.Detect(ctx, data, confidence)
	if err != nil {
		if errors.Is(err, muzzle.ErrNoMuzzle) {
			fmt.Println("No muzzle detected in the image")
			return nil
		}
		return fmt.Errorf("detecting muzzle: %w", err)
	}

	normalized, err := muzzle.Normalize(crop, svc.cfg.Extractor.InputSize)
	if err != nil {
		return fmt.Errorf("processing crop: %w", err)
	}

	signature, err := svc.extractor.Extract(ctx, normalized)
	if err != nil {
		return fmt.Errorf("extracting signature: %w", err)
	}

	m := svc.registry.Identify(signature, threshold)
	switch m.Outcome {
	case gallery.OutcomeMatched:
		fmt.Printf("Match: %s (score %.4f, threshold %.2f)\n", m.Label, m.Score, threshold)
	case gallery.OutcomeUnknown:
		fmt.Printf("Unknown cow (best score %.4f, threshold %.2f)\n", m.Score, threshold)
	case gallery.OutcomeGalleryEmpty:
		fmt.Println("The gallery is empty, enroll some cows first")
	}
	return nil
}
