package client

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(zerolog.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.APIBase != "http://localhost:8080" {
		t.Fatalf("unexpected api base %q", cfg.APIBase)
	}
	if cfg.HTTPTimeout != 30*time.Second || cfg.FetchGuardTimeout != 10*time.Second {
		t.Fatalf("unexpected timeouts: %v %v", cfg.HTTPTimeout, cfg.FetchGuardTimeout)
	}
	if cfg.PerPage != 20 || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("INFLUENTER_API_BASE", "https://api.influenter.test")
	t.Setenv("INFLUENTER_HTTP_TIMEOUT", "5s")
	t.Setenv("INFLUENTER_PER_PAGE", "50")
	t.Setenv("INFLUENTER_CACHE_DIR", t.TempDir())

	cfg, err := LoadConfig(zerolog.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	c, err := New(cfg.APIBase, cfg.Options()...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	if c.http.Timeout != 5*time.Second {
		t.Fatalf("timeout not applied: %v", c.http.Timeout)
	}
	if c.perPage != 50 || c.fetchGuard != 10*time.Second {
		t.Fatalf("options not applied: per_page=%d guard=%v", c.perPage, c.fetchGuard)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("INFLUENTER_PER_PAGE", "0")
	if _, err := LoadConfig(zerolog.Nop()); err == nil {
		t.Fatalf("expected error for zero page size")
	}

	t.Setenv("INFLUENTER_PER_PAGE", "20")
	t.Setenv("INFLUENTER_HTTP_TIMEOUT", "soon")
	if _, err := LoadConfig(zerolog.Nop()); err == nil {
		t.Fatalf("expected parse error")
	}
}
