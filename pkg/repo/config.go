package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/odvcencio/gitlite/pkg/object"
)

// Config stores repository-local settings.
type Config struct {
	User UserConfig `toml:"user"`
	Core CoreConfig `toml:"core"`
}

// UserConfig is the default identity for new commits.
type UserConfig struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// CoreConfig holds repository-wide behaviour switches.
type CoreConfig struct {
	// Timezone is an IANA zone name used for commit offsets. Empty means the
	// local zone.
	Timezone string `toml:"timezone"`
}

// DefaultConfig is written by Init.
func DefaultConfig() *Config {
	return &Config{}
}

func (r *Repo) configPath() string {
	return filepath.Join(r.GitDir, "config.toml")
}

// ReadConfig reads .git/config.toml. Missing config returns an empty config.
func (r *Repo) ReadConfig() (*Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(r.configPath(), &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		r.logger.Warn("ignoring unknown config keys", zap.Strings("keys", keys))
	}
	return &cfg, nil
}

// WriteConfig atomically writes .git/config.toml.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tmp, err := os.CreateTemp(r.GitDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, r.configPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}

// ConfigValue returns a single setting by its dotted key: user.name,
// user.email or core.timezone.
func (r *Repo) ConfigValue(key string) (string, error) {
	cfg, err := r.ReadConfig()
	if err != nil {
		return "", err
	}
	field, err := cfg.field(key)
	if err != nil {
		return "", err
	}
	return *field, nil
}

// SetConfigValue updates a single setting by its dotted key.
func (r *Repo) SetConfigValue(key, value string) error {
	cfg, err := r.ReadConfig()
	if err != nil {
		return err
	}
	field, err := cfg.field(key)
	if err != nil {
		return err
	}
	value = strings.TrimSpace(value)
	if field == &cfg.Core.Timezone && value != "" {
		if _, err := time.LoadLocation(value); err != nil {
			return fmt.Errorf("set config %s: %w", key, err)
		}
	}
	*field = value
	return r.WriteConfig(cfg)
}

func (c *Config) field(key string) (*string, error) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "user.name":
		return &c.User.Name, nil
	case "user.email":
		return &c.User.Email, nil
	case "core.timezone":
		return &c.Core.Timezone, nil
	default:
		return nil, fmt.Errorf("unknown config key %q", key)
	}
}

// role is "AUTHOR" or "COMMITTER", matching the environment variable names
// GIT_<role>_NAME, GIT_<role>_EMAIL and GIT_<role>_DATE.
func (r *Repo) signature(cfg *Config, role string) (object.Signature, error) {
	name := firstNonEmpty(os.Getenv("GIT_"+role+"_NAME"), cfg.User.Name, os.Getenv("USER"), "unknown")
	email := firstNonEmpty(os.Getenv("GIT_"+role+"_EMAIL"), cfg.User.Email)

	loc := time.Local
	if tz := strings.TrimSpace(cfg.Core.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return object.Signature{}, fmt.Errorf("config core.timezone: %w", err)
		}
		loc = l
	}
	when := r.now().In(loc)

	if raw := strings.TrimSpace(os.Getenv("GIT_" + role + "_DATE")); raw != "" {
		sig, err := parseDateOverride(raw, loc)
		if err != nil {
			return object.Signature{}, fmt.Errorf("GIT_%s_DATE: %w", role, err)
		}
		sig.Identity = identity(name, email)
		return sig, nil
	}

	return object.Signature{
		Identity: identity(name, email),
		When:     when.Unix(),
		Zone:     when.Format("-0700"),
	}, nil
}

// parseDateOverride accepts "<epoch>" or "<epoch> <+HHMM>".
func parseDateOverride(raw string, loc *time.Location) (object.Signature, error) {
	epoch, zone, hasZone := strings.Cut(raw, " ")
	secs, err := strconv.ParseInt(strings.TrimPrefix(epoch, "@"), 10, 64)
	if err != nil {
		return object.Signature{}, fmt.Errorf("bad epoch %q", epoch)
	}
	if hasZone {
		if _, err := time.Parse("-0700", zone); err != nil {
			return object.Signature{}, fmt.Errorf("bad zone %q", zone)
		}
		return object.Signature{When: secs, Zone: zone}, nil
	}
	return object.Signature{When: secs, Zone: time.Unix(secs, 0).In(loc).Format("-0700")}, nil
}

func identity(name, email string) string {
	return fmt.Sprintf("%s <%s>", name, email)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
