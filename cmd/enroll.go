package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/boviclouds/muzzle-id/internal/enroll"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <cow-id> [cow-id...]",
	Short: "Enroll cows from their raw images in the object store",
	Long: `Enroll one or more cows into the identification gallery.

For each identifier, raw images are read from the bucket under the
<cow-id>/ prefix, muzzles are detected and cropped, and the averaged
signature is stored in the gallery. Re-enrolling an identifier replaces
its existing signature.

Example:
  muzzle-id enroll FR-4962-0137
  muzzle-id enroll FR-4962-0137 FR-4962-0138 FR-4962-0142`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
}

func runEnroll(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := newServices(ctx)
	if err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(args)), "enrolling")
	failed := 0
	for _, cowID := range args {
		res, err := svc.enroller.Enroll(ctx, cowID)
		bar.Add(1)

		switch {
		case errors.Is(err, enroll.ErrNoImages):
			fmt.Fprintf(os.Stderr, "%s: no raw images in the bucket\n", cowID)
			failed++
		case errors.Is(err, enroll.ErrNoValidImages):
			fmt.Fprintf(os.Stderr, "%s: no muzzle detected in %d images\n", cowID, res.ImagesFound)
			failed++
		case err != nil:
			fmt.Fprintf(os.Stderr, "%s: %v\n", cowID, err)
			failed++
		default:
			status := "enrolled"
			if res.Replaced {
				status = "re-enrolled"
			}
			fmt.Printf("%s: %s from %d/%d images (saved=%v)\n",
				cowID, status, res.SignaturesExtracted, res.ImagesFound, res.Saved)
		}
	}

	fmt.Printf("Done: %d enrolled, %d failed, %d cows in gallery\n",
		len(args)-failed, failed, svc.registry.Size())
	if failed > 0 {
		return fmt.Errorf("%d of %d enrollments failed", failed, len(args))
	}
	return nil
}
