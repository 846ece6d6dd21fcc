package repo

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigUserRoundTrip(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := r.SetConfigValue("user.name", "Alice"); err != nil {
		t.Fatalf("SetConfigValue(user.name): %v", err)
	}
	if err := r.SetConfigValue("user.email", " alice@example.com "); err != nil {
		t.Fatalf("SetConfigValue(user.email): %v", err)
	}
	name, err := r.ConfigValue("user.name")
	if err != nil || name != "Alice" {
		t.Fatalf("ConfigValue(user.name) = %q, %v", name, err)
	}
	cfg, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.User.Name != "Alice" || cfg.User.Email != "alice@example.com" {
		t.Fatalf("user = %+v", cfg.User)
	}
}

func TestConfigValueRejectsUnknownKeys(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := r.SetConfigValue("remote.origin.url", "x"); err == nil {
		t.Error("SetConfigValue accepted an unknown key")
	}
	if _, err := r.ConfigValue("nope"); err == nil {
		t.Error("ConfigValue accepted an unknown key")
	}
	if err := r.SetConfigValue("core.timezone", "Not/AZone"); err == nil {
		t.Error("SetConfigValue accepted an unknown timezone")
	}
}

func TestReadConfigMissingReturnsEmptyConfig(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(r.GitDir, "config.toml")); err != nil {
		t.Fatal(err)
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg == nil || cfg.User.Name != "" {
		t.Fatalf("config = %+v, want empty", cfg)
	}
}

func TestReadConfigMalformed(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(r.GitDir, "config.toml"), []byte("[user\nname ="), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := r.ReadConfig(); err == nil {
		t.Fatal("ReadConfig succeeded on malformed TOML")
	}
}

func TestSignature_ConfigAndEnvironment(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	r, err := Init(t.TempDir(), WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("GIT_AUTHOR_NAME", "")
	t.Setenv("GIT_AUTHOR_EMAIL", "")
	t.Setenv("GIT_AUTHOR_DATE", "")

	cfg := &Config{
		User: UserConfig{Name: "Config User", Email: "config@example.com"},
		Core: CoreConfig{Timezone: "UTC"},
	}
	sig, err := r.signature(cfg, "AUTHOR")
	if err != nil {
		t.Fatalf("signature: %v", err)
	}
	if sig.Identity != "Config User <config@example.com>" || sig.When != fixed.Unix() || sig.Zone != "+0000" {
		t.Errorf("signature = %+v", sig)
	}

	t.Setenv("GIT_AUTHOR_NAME", "Env User")
	t.Setenv("GIT_AUTHOR_EMAIL", "env@example.com")
	t.Setenv("GIT_AUTHOR_DATE", "1700000000 -0230")
	sig, err = r.signature(cfg, "AUTHOR")
	if err != nil {
		t.Fatalf("signature: %v", err)
	}
	if sig.Identity != "Env User <env@example.com>" || sig.When != 1700000000 || sig.Zone != "-0230" {
		t.Errorf("signature = %+v", sig)
	}

	t.Setenv("GIT_AUTHOR_DATE", "yesterday")
	if _, err := r.signature(cfg, "AUTHOR"); err == nil {
		t.Error("signature accepted a malformed GIT_AUTHOR_DATE")
	}
}

func TestSignature_BadTimezone(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("GIT_COMMITTER_DATE", "")
	cfg := &Config{Core: CoreConfig{Timezone: "Not/AZone"}}
	if _, err := r.signature(cfg, "COMMITTER"); err == nil {
		t.Error("signature accepted an unknown timezone")
	}
}
