package config

import (
	"testing"
	"time"

	"github.com/imelnik/fintrack/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.CacheTTL != time.Hour {
		t.Errorf("expected default cache TTL 1h, got %v", cfg.CacheTTL)
	}
	if _, ok := cfg.CategoryAliases["issuance"]; !ok {
		t.Error("expected default issuance alias")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_TTL", "15m")
	t.Setenv("DB_PATH", "/tmp/test.db")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.CacheTTL != 15*time.Minute {
		t.Errorf("expected cache TTL 15m, got %v", cfg.CacheTTL)
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("expected db path /tmp/test.db, got %s", cfg.DBPath)
	}
}

func TestLoadCategoryAliases(t *testing.T) {
	aliases := loadCategoryAliases("выдача=issuance, сбор=collection,bogus")

	if c, ok := aliases["выдача"]; !ok || c != domain.CategoryIssuance {
		t.Errorf("expected выдача → issuance, got %v (ok=%v)", c, ok)
	}
	if c, ok := aliases["сбор"]; !ok || c != domain.CategoryCollection {
		t.Errorf("expected сбор → collection, got %v (ok=%v)", c, ok)
	}
	// Defaults always survive.
	if _, ok := aliases["collection"]; !ok {
		t.Error("expected default collection alias to survive")
	}
}
