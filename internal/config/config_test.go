package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.App.Env != "dev" || cfg.Server.Addr != ":8080" {
		t.Fatalf("defaults: env=%q addr=%q", cfg.App.Env, cfg.Server.Addr)
	}
	if cfg.Auth.AccessTTL != time.Hour || cfg.Auth.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("session ttls: %v / %v", cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	}
	if cfg.Auth.EmailTokenTTL != 15*time.Minute || cfg.Auth.TfaTokenTTL != 5*time.Minute {
		t.Fatalf("token ttls: %v / %v", cfg.Auth.EmailTokenTTL, cfg.Auth.TfaTokenTTL)
	}
	if cfg.Auth.Cookie.SameSite != "lax" {
		t.Fatalf("samesite: %q", cfg.Auth.Cookie.SameSite)
	}
}

func TestLoad_RequiresSecretKey(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error without SECRET_KEY")
	}
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("SERVER_ADDR", ":9999")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "server:\n  addr: \":8081\"\nlog:\n  level: debug\nauth:\n  access_ttl: 30m\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	// ENV pisa YAML
	if cfg.Server.Addr != ":9999" {
		t.Fatalf("addr: %q", cfg.Server.Addr)
	}
	if cfg.Log.Level != "debug" || cfg.Auth.AccessTTL != 30*time.Minute {
		t.Fatalf("yaml values: level=%q ttl=%v", cfg.Log.Level, cfg.Auth.AccessTTL)
	}
}

func TestLoad_SecondsCompatDurations(t *testing.T) {
	// Los ENV aceptan duraciones Go o segundos a secas.
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("ACCESS_TOKEN_EX", "3600")
	t.Setenv("TFA_TOKEN_EX", "10m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Auth.AccessTTL != time.Hour {
		t.Fatalf("access ttl: %v", cfg.Auth.AccessTTL)
	}
	if cfg.Auth.TfaTokenTTL != 10*time.Minute {
		t.Fatalf("tfa ttl: %v", cfg.Auth.TfaTokenTTL)
	}
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Fatalf("missing config file should not fail: %v", err)
	}
}
