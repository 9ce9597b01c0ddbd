package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"go-realtone/pkg/validation"
)

// Detector and region strategy names
const (
	DetectorPixel       = "pixel"
	DetectorPlaceholder = "placeholder"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64

	// Skin tone detection
	Detector        string
	RegionStrategy  string
	FaceCascadePath string

	// Skin sampling: preset name plus optional overrides; zero keeps the preset
	SamplerProfile      string
	SamplerWorkers      int
	SamplerMaxDimension int
	SamplerSkipSkinMask bool

	// Image stores; empty values disable the store
	LocalImageRoot      string
	AzureStorageAccount string
	AzureStorageKey     string
	AllowedSchemes      []string
	AllowedHosts        []string

	BatchConcurrency  int
	CaptureSessionTTL time.Duration

	// YAML file of processor config overrides
	ProfilePath string
	LogLevel    string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:                getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                getEnvOrDefault("PORT", "8080"),
		RequestTimeout:      parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:   parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		AnalysisTimeout:     parseDurationOrDefault("ANALYSIS_TIMEOUT", 20*time.Second),
		MaxRequestBodySize:  parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		Detector:            strings.ToLower(getEnvOrDefault("DETECTOR", DetectorPixel)),
		RegionStrategy:      strings.ToLower(getEnvOrDefault("REGION_STRATEGY", "face")),
		FaceCascadePath:     os.Getenv("FACE_CASCADE_PATH"),
		SamplerProfile:      strings.ToLower(getEnvOrDefault("SAMPLER_PROFILE", "default")),
		SamplerWorkers:      int(parseIntOrDefault("SAMPLER_WORKERS", 0)),
		SamplerMaxDimension: int(parseIntOrDefault("SAMPLER_MAX_DIMENSION", 0)),
		SamplerSkipSkinMask: parseBoolOrDefault("SAMPLER_SKIP_SKIN_MASK", false),
		LocalImageRoot:      os.Getenv("LOCAL_IMAGE_ROOT"),
		AzureStorageAccount: os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:     os.Getenv("AZURE_STORAGE_KEY"),
		AllowedSchemes:      parseListOrDefault("ALLOWED_SCHEMES", validation.DefaultSchemes),
		AllowedHosts:        parseListOrDefault("ALLOWED_HOSTS", nil),
		BatchConcurrency:    int(parseIntOrDefault("BATCH_CONCURRENCY", 4)),
		CaptureSessionTTL:   parseDurationOrDefault("CAPTURE_SESSION_TTL", 10*time.Minute),
		ProfilePath:         os.Getenv("REALTONE_PROFILE"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 || cfg.AnalysisTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout, cfg.AnalysisTimeout)
	}
	if cfg.Detector != DetectorPixel && cfg.Detector != DetectorPlaceholder {
		return nil, fmt.Errorf("invalid DETECTOR: %q (want %s or %s)", cfg.Detector, DetectorPixel, DetectorPlaceholder)
	}
	switch cfg.RegionStrategy {
	case "face", "center", "full":
	default:
		return nil, fmt.Errorf("invalid REGION_STRATEGY: %q (want face, center or full)", cfg.RegionStrategy)
	}
	switch cfg.SamplerProfile {
	case "default", "fast", "strict":
	default:
		return nil, fmt.Errorf("invalid SAMPLER_PROFILE: %q (want default, fast or strict)", cfg.SamplerProfile)
	}
	if cfg.SamplerWorkers < 0 || cfg.SamplerMaxDimension < 0 {
		return nil, fmt.Errorf("SAMPLER_WORKERS and SAMPLER_MAX_DIMENSION must be >= 0 (got %d, %d)",
			cfg.SamplerWorkers, cfg.SamplerMaxDimension)
	}
	if cfg.BatchConcurrency < 1 {
		return nil, fmt.Errorf("BATCH_CONCURRENCY must be >= 1 (got %d)", cfg.BatchConcurrency)
	}
	if (cfg.AzureStorageAccount == "") != (cfg.AzureStorageKey == "") {
		return nil, fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY must be set together")
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

// parseListOrDefault splits a comma separated value, dropping blanks
func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
