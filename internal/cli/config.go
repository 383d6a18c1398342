package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/stacsmith/stacsmith/pkg/buildinfo"
)

// Config is the file-backed CLI configuration. Every field has a working
// default; a config file only needs the sections it changes.
type Config struct {
	Cache CacheConfig `toml:"cache"`
	HTTP  HTTPConfig  `toml:"http"`
	Mongo MongoConfig `toml:"mongo"`
}

// CacheConfig selects and tunes the byte cache in front of document reads.
type CacheConfig struct {
	// Backend is one of "file", "badger", "redis" or "none".
	Backend string `toml:"backend"`
	// Dir overrides the XDG cache directory for the file and badger
	// backends.
	Dir string `toml:"dir"`
	// TTL bounds the age of cached documents, e.g. "24h". Zero means no
	// expiry.
	TTL duration `toml:"ttl"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// HTTPConfig tunes remote document fetching.
type HTTPConfig struct {
	Timeout   duration `toml:"timeout"`
	Retries   int      `toml:"retries"`
	UserAgent string   `toml:"user_agent"`
}

// MongoConfig switches document storage to MongoDB when URI is set.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// duration decodes TOML strings like "30s" or "24h".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Backend: "file",
			TTL:     duration(24 * time.Hour),
		},
		HTTP: HTTPConfig{
			Timeout:   duration(10 * time.Second),
			Retries:   3,
			UserAgent: buildinfo.UserAgent(),
		},
	}
}

// LoadConfig reads the config file at path, or the default location when
// path is empty. A missing default file is not an error; a missing explicit
// file is.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		var err error
		if path, err = defaultConfigPath(); err != nil {
			return cfg, nil
		}
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0])
	}
	return cfg, nil
}

// defaultConfigPath returns the XDG config location
// (~/.config/stacsmith/config.toml).
func defaultConfigPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}
