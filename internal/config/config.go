// Package config provides configuration loading and management for the Glimpse client core.
// It handles environment variable parsing and provides default values for all settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// init loads environment variables from .env files during package initialization.
// In development, it loads .env and .env.local files if they exist.
// In production, it relies solely on system environment variables.
// The loading order ensures that system environment variables take precedence over .env files.
func init() {
	// godotenv.Load() does not override already-set environment variables,
	// preserving OS env > .env precedence

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
		}
	}

	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Load(".env.local"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env.local file: %v\n", err)
		}
	}
}

// Config captures environment-driven settings for the Glimpse client core.
type Config struct {
	Env         string // Deployment environment (dev, staging, prod)
	Port        string // Local facade HTTP port
	BackendURL  string // Base URL of the remote social backend (required)
	LibraryRoot string // Root directory of the on-device media library
	UserName    string // Display name used for comments and like membership
	NATSURL     string // NATS server URL for library events (optional)

	// S3 mirror for published media (optional; disabled when endpoint or bucket is empty)
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	// Content limits
	MaxCaptionLength int // Maximum caption length in characters
	MaxCommentLength int // Maximum comment length in characters

	// CORS configuration for the local facade (empty means deny all)
	CORSAllowedOrigins []string
}

// Default configuration values used when environment variables are not set
const (
	defaultPort        = "8787"
	defaultS3Region    = "us-east-1"
	defaultEnv         = "dev"
	defaultLibraryRoot = "./library"
	defaultUserName    = "anonymous"
)

// Load reads environment variables and produces a Config suitable for wiring the daemon.
// It handles both required and optional configuration parameters, providing defaults
// where appropriate. Returns an error if required parameters are missing or invalid.
func Load() (Config, error) {
	cfg := Config{}

	if env, exists := os.LookupEnv("GLIMPSE_ENV"); exists {
		cfg.Env = env
	} else {
		cfg.Env = defaultEnv
	}

	if port, exists := os.LookupEnv("GLIMPSE_PORT"); exists {
		cfg.Port = port
	} else {
		cfg.Port = defaultPort
	}

	if backendURL, exists := os.LookupEnv("GLIMPSE_BACKEND_URL"); exists {
		cfg.BackendURL = strings.TrimRight(backendURL, "/")
	}

	if root, exists := os.LookupEnv("GLIMPSE_LIBRARY_ROOT"); exists {
		cfg.LibraryRoot = root
	} else {
		cfg.LibraryRoot = defaultLibraryRoot
	}

	if userName, exists := os.LookupEnv("GLIMPSE_USER_NAME"); exists {
		cfg.UserName = userName
	} else {
		cfg.UserName = defaultUserName
	}

	if natsURL, exists := os.LookupEnv("GLIMPSE_NATS_URL"); exists {
		cfg.NATSURL = natsURL
	}

	if s3Endpoint, exists := os.LookupEnv("GLIMPSE_S3_ENDPOINT"); exists {
		cfg.S3Endpoint = s3Endpoint
	}

	if s3Region, exists := os.LookupEnv("GLIMPSE_S3_REGION"); exists {
		cfg.S3Region = s3Region
	} else {
		cfg.S3Region = defaultS3Region
	}

	if s3Bucket, exists := os.LookupEnv("GLIMPSE_S3_BUCKET"); exists {
		cfg.S3Bucket = s3Bucket
	}

	if s3AccessKey, exists := os.LookupEnv("GLIMPSE_S3_ACCESS_KEY"); exists {
		cfg.S3AccessKey = s3AccessKey
	}

	if s3SecretKey, exists := os.LookupEnv("GLIMPSE_S3_SECRET_KEY"); exists {
		cfg.S3SecretKey = s3SecretKey
	}

	// Handle content limits
	if maxCaption, exists := os.LookupEnv("GLIMPSE_MAX_CAPTION_LENGTH"); exists {
		if n, err := strconv.Atoi(maxCaption); err == nil && n > 0 {
			cfg.MaxCaptionLength = n
		}
	}
	if cfg.MaxCaptionLength == 0 {
		cfg.MaxCaptionLength = 2200
	}

	if maxComment, exists := os.LookupEnv("GLIMPSE_MAX_COMMENT_LENGTH"); exists {
		if n, err := strconv.Atoi(maxComment); err == nil && n > 0 {
			cfg.MaxCommentLength = n
		}
	}
	if cfg.MaxCommentLength == 0 {
		cfg.MaxCommentLength = 2200
	}

	// Handle CORS configuration
	if corsOrigins, exists := os.LookupEnv("GLIMPSE_CORS_ALLOWED_ORIGINS"); exists {
		cfg.CORSAllowedOrigins = strings.Split(corsOrigins, ",")
		for i, origin := range cfg.CORSAllowedOrigins {
			cfg.CORSAllowedOrigins[i] = strings.TrimSpace(origin)
		}
	}

	// Validate required parameters
	if cfg.BackendURL == "" {
		return cfg, fmt.Errorf("GLIMPSE_BACKEND_URL is required")
	}

	return cfg, nil
}
