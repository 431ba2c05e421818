package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ServerPort != "8080" {
		t.Fatalf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.MaxUploadBytes != 5*1024*1024 {
		t.Fatalf("MaxUploadBytes = %d, want 5MiB", cfg.MaxUploadBytes)
	}
	if cfg.AcceptedFormats != ".pdf,.jpg,.jpeg,.png" {
		t.Fatalf("AcceptedFormats = %q", cfg.AcceptedFormats)
	}
	if cfg.RateLimitWindow != time.Minute {
		t.Fatalf("RateLimitWindow = %v, want 1m", cfg.RateLimitWindow)
	}
	if cfg.TracingEnabled {
		t.Fatalf("TracingEnabled = true by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("ACCEPTED_FORMATS", ".pdf")
	t.Setenv("RATE_LIMIT_REQUESTS", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("STORAGE_BUCKET", "test-bucket")
	t.Setenv("TRACING_ENABLED", "true")

	cfg := Load()

	if cfg.ServerPort != "9999" {
		t.Fatalf("ServerPort = %q, want 9999", cfg.ServerPort)
	}
	if cfg.MaxUploadBytes != 1048576 {
		t.Fatalf("MaxUploadBytes = %d, want 1048576", cfg.MaxUploadBytes)
	}
	if cfg.AcceptedFormats != ".pdf" {
		t.Fatalf("AcceptedFormats = %q, want .pdf", cfg.AcceptedFormats)
	}
	if cfg.RateLimitRequests != 5 {
		t.Fatalf("RateLimitRequests = %d, want 5", cfg.RateLimitRequests)
	}
	if cfg.RateLimitWindow != 30*time.Second {
		t.Fatalf("RateLimitWindow = %v, want 30s", cfg.RateLimitWindow)
	}
	if cfg.StorageBucket != "test-bucket" {
		t.Fatalf("StorageBucket = %q", cfg.StorageBucket)
	}
	if !cfg.TracingEnabled {
		t.Fatalf("TracingEnabled = false")
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("MAX_UPLOAD_BYTES", "not-a-number")
	t.Setenv("RATE_LIMIT_WINDOW", "soon")

	cfg := Load()

	if cfg.MaxUploadBytes != 5*1024*1024 {
		t.Fatalf("MaxUploadBytes = %d, want default", cfg.MaxUploadBytes)
	}
	if cfg.RateLimitWindow != time.Minute {
		t.Fatalf("RateLimitWindow = %v, want default", cfg.RateLimitWindow)
	}
}
