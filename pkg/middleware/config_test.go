package middleware_test

import (
	"testing"

	"github.com/JaimeStill/document-manager/pkg/middleware"
)

func TestCORSConfig_Finalize_Defaults(t *testing.T) {
	cfg := &middleware.CORSConfig{}

	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if len(cfg.AllowedMethods) == 0 {
		t.Error("AllowedMethods should have defaults")
	}
	if len(cfg.AllowedHeaders) == 0 {
		t.Error("AllowedHeaders should have defaults")
	}
	if cfg.MaxAge <= 0 {
		t.Error("MaxAge should have default value")
	}
}

func TestCORSConfig_Finalize_EnvOverrides(t *testing.T) {
	t.Setenv("TEST_CORS_ENABLED", "true")
	t.Setenv("TEST_CORS_ORIGINS", "http://localhost:3000, http://localhost:8080")
	t.Setenv("TEST_CORS_METHODS", "GET, POST")
	t.Setenv("TEST_CORS_HEADERS", "Content-Type, Authorization")
	t.Setenv("TEST_CORS_CREDENTIALS", "true")
	t.Setenv("TEST_CORS_MAX_AGE", "7200")

	cfg := &middleware.CORSConfig{}
	env := &middleware.CORSEnv{
		Enabled:          "TEST_CORS_ENABLED",
		Origins:          "TEST_CORS_ORIGINS",
		AllowedMethods:   "TEST_CORS_METHODS",
		AllowedHeaders:   "TEST_CORS_HEADERS",
		AllowCredentials: "TEST_CORS_CREDENTIALS",
		MaxAge:           "TEST_CORS_MAX_AGE",
	}

	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if !cfg.Enabled {
		t.Error("Enabled should be true from env")
	}
	if len(cfg.Origins) != 2 || cfg.Origins[1] != "http://localhost:8080" {
		t.Errorf("Origins = %v", cfg.Origins)
	}
	if len(cfg.AllowedMethods) != 2 {
		t.Errorf("AllowedMethods length = %d, want 2", len(cfg.AllowedMethods))
	}
	if !cfg.AllowCredentials {
		t.Error("AllowCredentials should be true from env")
	}
	if cfg.MaxAge != 7200 {
		t.Errorf("MaxAge = %d, want 7200", cfg.MaxAge)
	}
}

func TestCORSConfig_Finalize_WildcardWithCredentials(t *testing.T) {
	cfg := &middleware.CORSConfig{
		Enabled:          true,
		Origins:          []string{"*"},
		AllowCredentials: true,
	}

	if err := cfg.Finalize(nil); err == nil {
		t.Error("Finalize() should reject wildcard origin with credentials")
	}
}

func TestCORSConfig_Merge(t *testing.T) {
	base := middleware.CORSConfig{
		Origins:        []string{"http://a.com"},
		AllowedMethods: []string{"GET", "POST"},
	}

	base.Merge(&middleware.CORSConfig{})
	if len(base.Origins) != 1 || len(base.AllowedMethods) != 2 {
		t.Errorf("nil overlay slices should preserve base, got %+v", base)
	}

	base.Merge(&middleware.CORSConfig{
		Enabled:          true,
		Origins:          []string{"http://b.com", "http://c.com"},
		AllowCredentials: true,
		MaxAge:           60,
	})
	if !base.Enabled || !base.AllowCredentials {
		t.Error("overlay booleans should apply")
	}
	if len(base.Origins) != 2 {
		t.Errorf("Origins length = %d, want 2", len(base.Origins))
	}
	if base.MaxAge != 60 {
		t.Errorf("MaxAge = %d, want 60", base.MaxAge)
	}
}
