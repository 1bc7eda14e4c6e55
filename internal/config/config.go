package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HUBLINK_"

var (
	ErrNoProfile      = errors.New("config: no profile selected and no default_profile set")
	ErrUnknownProfile = errors.New("config: unknown profile")
)

var validate = validator.New()

// Config is the hubctl runtime configuration.
type Config struct {
	// DefaultProfile names the profile used when none is given on the command line.
	DefaultProfile string `koanf:"default_profile"`

	Profiles map[string]Profile `koanf:"profiles" validate:"dive"`

	Token TokenConfig `koanf:"token"`

	Log LogConfig `koanf:"log"`
}

// Profile is one named hub connection.
type Profile struct {
	ConnectionString string `koanf:"connection_string" validate:"required"`
}

// TokenConfig controls SAS token signing.
type TokenConfig struct {
	// TTL is how long a signed service token stays valid.
	TTL time.Duration `koanf:"ttl" validate:"gt=0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is the log level (debug, info, warn, error)
	Level string `koanf:"level" validate:"oneof=debug info warn warning error"`
}

func getDefaults() map[string]interface{} {
	return map[string]interface{}{
		"default_profile": "",
		"token": map[string]interface{}{
			"ttl": "8760h",
		},
		"log": map[string]interface{}{
			"level": "info",
		},
	}
}

// DefaultPath is the config file read when no --config flag is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "hublink", "config.yaml")
}

// Load reads configuration from defaults, then the YAML file at path, then
// HUBLINK_* environment variables. A missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(getDefaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to access config file %s: %w", path, err)
		}
	}

	// HUBLINK_LOG_LEVEL=debug -> log.level
	// HUBLINK_PROFILES_PROD_CONNECTION_STRING=... -> profiles.prod.connection_string
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	switch s {
	case "default_profile":
		return "default_profile"
	case "token_ttl":
		return "token.ttl"
	case "log_level":
		return "log.level"
	}
	const profilePrefix, connSuffix = "profiles_", "_connection_string"
	if strings.HasPrefix(s, profilePrefix) && strings.HasSuffix(s, connSuffix) {
		name := strings.TrimSuffix(strings.TrimPrefix(s, profilePrefix), connSuffix)
		if name != "" {
			return "profiles." + name + ".connection_string"
		}
	}
	return strings.ReplaceAll(s, "_", ".")
}

// Validate checks field constraints and that the default profile exists.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.DefaultProfile != "" {
		if _, ok := c.Profiles[c.DefaultProfile]; !ok {
			return fmt.Errorf("%w: default_profile %q", ErrUnknownProfile, c.DefaultProfile)
		}
	}
	return nil
}

// Profile resolves name, or the default profile when name is empty.
func (c *Config) Profile(name string) (string, Profile, error) {
	if name == "" {
		name = c.DefaultProfile
	}
	if name == "" {
		return "", Profile{}, ErrNoProfile
	}
	p, ok := c.Profiles[name]
	if !ok {
		return "", Profile{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownProfile, name, strings.Join(c.ProfileNames(), ", "))
	}
	return name, p, nil
}

// ProfileNames lists configured profiles in sorted order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
