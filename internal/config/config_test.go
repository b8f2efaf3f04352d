// internal/config/config_test.go
package config

import (
	"testing"
)

// TestLoadDefaults verifies the default values applied when only the
// required variables are set.
func TestLoadDefaults(t *testing.T) {
	t.Setenv("GLIMPSE_BACKEND_URL", "http://localhost:8000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Port != "8787" {
		t.Errorf("port: got %q want %q", cfg.Port, "8787")
	}
	if cfg.Env != "dev" {
		t.Errorf("env: got %q want %q", cfg.Env, "dev")
	}
	if cfg.LibraryRoot != "./library" {
		t.Errorf("library root: got %q want %q", cfg.LibraryRoot, "./library")
	}
	if cfg.UserName != "anonymous" {
		t.Errorf("user name: got %q want %q", cfg.UserName, "anonymous")
	}
	if cfg.MaxCaptionLength != 2200 || cfg.MaxCommentLength != 2200 {
		t.Errorf("content limits: got %d/%d want 2200/2200", cfg.MaxCaptionLength, cfg.MaxCommentLength)
	}
	if cfg.BackendURL != "http://localhost:8000" {
		t.Errorf("backend url: got %q", cfg.BackendURL)
	}
}

// TestLoadRequiresBackendURL verifies the required-variable validation.
func TestLoadRequiresBackendURL(t *testing.T) {
	t.Setenv("GLIMPSE_BACKEND_URL", "")

	if _, err := Load(); err == nil {
		t.Error("expected error for missing GLIMPSE_BACKEND_URL")
	}
}

// TestLoadTrimsBackendURL verifies trailing-slash normalization.
func TestLoadTrimsBackendURL(t *testing.T) {
	t.Setenv("GLIMPSE_BACKEND_URL", "http://localhost:8000/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.BackendURL != "http://localhost:8000" {
		t.Errorf("backend url: got %q want %q", cfg.BackendURL, "http://localhost:8000")
	}
}

// TestLoadOverrides verifies environment overrides and CORS parsing.
func TestLoadOverrides(t *testing.T) {
	t.Setenv("GLIMPSE_BACKEND_URL", "http://localhost:8000")
	t.Setenv("GLIMPSE_PORT", "9000")
	t.Setenv("GLIMPSE_USER_NAME", "alice")
	t.Setenv("GLIMPSE_MAX_CAPTION_LENGTH", "500")
	t.Setenv("GLIMPSE_CORS_ALLOWED_ORIGINS", "http://localhost:3000, http://localhost:5173")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("port: got %q want %q", cfg.Port, "9000")
	}
	if cfg.UserName != "alice" {
		t.Errorf("user name: got %q want %q", cfg.UserName, "alice")
	}
	if cfg.MaxCaptionLength != 500 {
		t.Errorf("caption limit: got %d want 500", cfg.MaxCaptionLength)
	}
	want := []string{"http://localhost:3000", "http://localhost:5173"}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[0] != want[0] || cfg.CORSAllowedOrigins[1] != want[1] {
		t.Errorf("cors origins: got %v want %v", cfg.CORSAllowedOrigins, want)
	}
}
