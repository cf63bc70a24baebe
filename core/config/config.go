package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"conduit-sync/core/database"
	"conduit-sync/core/logger"
	"conduit-sync/core/server"
	"conduit-sync/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the process configuration, one section per component.
type Config struct {
	Server   server.Config   `mapstructure:"server"`
	Storage  storage.Config  `mapstructure:"storage"`
	Log      logger.Config   `mapstructure:"log"`
	Database database.Config `mapstructure:"database"`
	Sync     SyncConfig      `mapstructure:"sync"`
}

// SyncConfig holds reconciliation settings.
type SyncConfig struct {
	// ConduitsFile is the YAML file with conduit definitions.
	ConduitsFile string `mapstructure:"conduits_file" default:"conduits.yaml"`
	// MaxConcurrentScans caps concurrently running directory scanners.
	MaxConcurrentScans int `mapstructure:"max_concurrent_scans" default:"2"`
	// AutosyncDelayMS is the debounce delay between a change and its pass.
	AutosyncDelayMS int `mapstructure:"autosync_delay_ms" default:"2000"`
}

// AutosyncDelay returns AutosyncDelayMS as a duration.
func (s SyncConfig) AutosyncDelay() time.Duration {
	return time.Duration(s.AutosyncDelayMS) * time.Millisecond
}

// LoadConfig reads dir/.env, then the environment, then validates the result.
// Variables use the section as prefix: SYNC_CONDUITS_FILE sets sync.conduits_file.
func LoadConfig(dir string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Overload(filepath.Join(dir, ".env"))

	v := viper.New()
	bindDefaults(v, Config{}, "")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case database.DriverSQLite, database.DriverMySQL:
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported driver %q", c.Database.Driver))
	}
	if c.Sync.ConduitsFile == "" {
		errs = append(errs, errors.New("sync.conduits_file: must be set"))
	}
	if c.Sync.MaxConcurrentScans < 1 {
		errs = append(errs, fmt.Errorf("sync.max_concurrent_scans: must be at least 1, got %d", c.Sync.MaxConcurrentScans))
	}
	if c.Sync.AutosyncDelayMS < 0 {
		errs = append(errs, fmt.Errorf("sync.autosync_delay_ms: must not be negative, got %d", c.Sync.AutosyncDelayMS))
	}
	return errors.Join(errs...)
}

// bindDefaults walks the struct tags and registers every key with its
// `default` value. Registration is also what lets AutomaticEnv see the key.
func bindDefaults(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindDefaults(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
