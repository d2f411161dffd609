// Package constants provides shared constants used across the codebase.
package constants

// Upload constants
const (
	// MaxUploadSize is the maximum prediction image upload size in bytes (10MB)
	MaxUploadSize = 10 << 20
)

// Detector profile names resolved against the embedded confidence profiles.
const (
	// ProfileEnroll is the permissive profile used during enrollment, where a
	// human curated the source images.
	ProfileEnroll = "enroll"

	// ProfilePredict is the default profile for identification requests.
	ProfilePredict = "predict"

	// ProfileStrict is the high-confidence profile for noisy field captures.
	ProfileStrict = "strict"
)
