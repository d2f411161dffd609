package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var profilesYAML []byte

type Config struct {
	Store     StoreConfig
	Detector  DetectorConfig
	Extractor ExtractorConfig
	Matcher   MatcherConfig
	Assets    AssetsConfig
	Profiles  ProfilesConfig
}

type StoreConfig struct {
	Endpoint  string        // S3-compatible endpoint (e.g. s3.amazonaws.com or minio:9000)
	Region    string        // defaults to us-east-1
	Bucket    string        // bucket holding raw images and the gallery document
	AccessKey string
	SecretKey string
	UseSSL    bool
	Timeout   time.Duration // per-call timeout for remote store operations
	CachePath string        // local gallery cache file
}

type DetectorConfig struct {
	URL     string // defaults to http://localhost:8001
	Profile string // named profile from profiles.yaml (defaults to "predict")
}

type ExtractorConfig struct {
	URL       string // defaults to http://localhost:8000
	Dim       int    // expected signature vector length (default 256)
	InputSize int    // square edge length the model expects (default 224)
}

type MatcherConfig struct {
	Threshold float64 // minimum cosine similarity to accept a match (default 0.9)
}

type AssetsConfig struct {
	MuzzleDir     string // detected muzzle crops retained per animal
	PredictionDir string // crops saved from prediction requests
}

type ProfilesConfig struct {
	Profiles map[string]DetectorProfile `yaml:"profiles"`
}

type DetectorProfile struct {
	Confidence float64 `yaml:"confidence"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float in (0, 1].
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f <= 1 {
		return f
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var profiles ProfilesConfig
	if err := yaml.Unmarshal(profilesYAML, &profiles); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded profiles.yaml: " + err.Error())
	}

	return &Config{
		Store: StoreConfig{
			Endpoint:  envString("MUZZLE_S3_ENDPOINT", "s3.amazonaws.com"),
			Region:    envString("AWS_REGION", "us-east-1"),
			Bucket:    envString("MUZZLE_S3_BUCKET", "cow-muzzle-images"),
			AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			UseSSL:    envBool("MUZZLE_S3_USE_SSL", true),
			Timeout:   time.Duration(envInt("MUZZLE_STORE_TIMEOUT_SECONDS", 30)) * time.Second,
			CachePath: envString("MUZZLE_CACHE_PATH", "cache/gallery.json"),
		},
		Detector: DetectorConfig{
			URL:     os.Getenv("DETECTOR_URL"),
			Profile: envString("DETECTOR_PROFILE", "predict"),
		},
		Extractor: ExtractorConfig{
			URL:       os.Getenv("EXTRACTOR_URL"),
			Dim:       envInt("EMBEDDING_DIM", 256),
			InputSize: envInt("EXTRACTOR_INPUT_SIZE", 224),
		},
		Matcher: MatcherConfig{
			Threshold: envFloat("MATCH_THRESHOLD", 0.9),
		},
		Assets: AssetsConfig{
			MuzzleDir:     envString("MUZZLE_DIR", "muzzle_images"),
			PredictionDir: envString("PREDICTION_DIR", "prediction_results"),
		},
		Profiles: profiles,
	}
}

// DetectorConfidence returns the confidence threshold for a named detector
// profile. The DETECTOR_CONFIDENCE env var overrides every profile when set.
// Unknown profiles fall back to the "predict" profile.
func (c *Config) DetectorConfidence(profile string) float64 {
	if override := envFloat("DETECTOR_CONFIDENCE", 0); override > 0 {
		return override
	}
	if p, ok := c.Profiles.Profiles[profile]; ok {
		return p.Confidence
	}
	if p, ok := c.Profiles.Profiles["predict"]; ok {
		return p.Confidence
	}
	return 0.3
}
