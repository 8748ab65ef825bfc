package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/opscart/hardware-explorer/pkg/storage"
)

// Config holds process configuration read from the environment
type Config struct {
	// Workspace
	WorkspaceDir string

	// Result cache
	Cache storage.Config

	// Trials
	TrialCommand  string
	TrialTimeout  time.Duration
	PrometheusURL string // empty reads measurement.json instead

	// Cleanup: "kubernetes" or "none"
	Cleanup    string
	Kubeconfig string

	// Output
	LogLevel    string
	MetricsFile string
	Verbose     bool
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	return &Config{
		WorkspaceDir: getEnv("HWX_WORKSPACE", "build/hardware-exploration"),
		Cache: storage.Config{
			Type:            getEnv("HWX_CACHE_BACKEND", "bolt"),
			Path:            os.Getenv("HWX_CACHE_PATH"),
			URL:             os.Getenv("DATABASE_URL"),
			Bucket:          os.Getenv("HWX_S3_BUCKET"),
			Prefix:          getEnv("HWX_S3_PREFIX", "hardware-exploration"),
			Region:          getEnv("AWS_REGION", "eu-west-1"),
			Endpoint:        os.Getenv("HWX_S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
		TrialCommand:  os.Getenv("HWX_TRIAL_COMMAND"),
		TrialTimeout:  getEnvDuration("HWX_TRIAL_TIMEOUT", 2*time.Hour),
		PrometheusURL: os.Getenv("PROMETHEUS_URL"),
		Cleanup:       getEnv("HWX_CLEANUP", "none"),
		Kubeconfig:    os.Getenv("KUBECONFIG"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		MetricsFile:   os.Getenv("HWX_METRICS_FILE"),
		Verbose:       getEnvBool("HWX_VERBOSE", false),
	}
}

// CachePath is where the bolt cache lives unless set explicitly
func (c *Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return filepath.Join(c.WorkspaceDir, "results.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.WorkspaceDir == "" {
		return fmt.Errorf("HWX_WORKSPACE must not be empty")
	}

	switch c.Cache.Type {
	case "", "bolt", "memory":
	case "postgres":
		if c.Cache.URL == "" {
			return fmt.Errorf("DATABASE_URL must be set when the cache backend is postgres")
		}
	case "s3":
		if c.Cache.Bucket == "" {
			return fmt.Errorf("HWX_S3_BUCKET must be set when the cache backend is s3")
		}
	default:
		return fmt.Errorf("unknown cache backend %q, expected bolt, postgres, s3 or memory", c.Cache.Type)
	}

	if c.TrialTimeout < time.Minute {
		return fmt.Errorf("trial timeout must be at least 1 minute")
	}

	switch c.Cleanup {
	case "none", "kubernetes":
	default:
		return fmt.Errorf("HWX_CLEANUP must be none or kubernetes, got %q", c.Cleanup)
	}
	return nil
}
