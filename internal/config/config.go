// Package config loads parktrack settings from config.yaml and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Ev19Coding/parktrack/internal/paths"
	"github.com/Ev19Coding/parktrack/pkg/types"
)

// EnvPrefix prefixes environment overrides, e.g. PARKTRACK_CACHE_INDEX_TTL.
const EnvPrefix = "PARKTRACK"

const (
	configName = "config"
	configType = "yaml"
)

// Keys understood in config.yaml.
const (
	KeyDataDir         = "data_dir"
	KeyDatabaseFile    = "database_file"
	KeyMigrationsDir   = "migrations_dir"
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
	KeyCacheIndexTTL   = "cache.index_ttl"
	KeyCacheRecordSize = "cache.record_size"
	KeyCacheRecordTTL  = "cache.record_ttl"
	KeySearchMax       = "search.max_results"
	KeyNearRange       = "near.range_km"
	KeyNearMax         = "near.max_results"
)

// ErrInvalid wraps every validation failure returned by Load.
var ErrInvalid = errors.New("invalid configuration")

// Load reads config.yaml from configDir, applying defaults and PARKTRACK_
// environment overrides. The directory and a default file are created on
// first use. A missing file after that is not an error.
func Load(configDir string) (types.Config, error) {
	if err := EnsureDefaultFile(configDir); err != nil {
		return types.Config{}, err
	}

	v := newViper()
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := types.DefaultConfig()
	v.SetDefault(KeyDataDir, d.DataDir)
	v.SetDefault(KeyDatabaseFile, d.DatabaseFile)
	v.SetDefault(KeyMigrationsDir, d.MigrationsDir)
	v.SetDefault(KeyLogLevel, d.Log.Level)
	v.SetDefault(KeyLogFormat, d.Log.Format)
	v.SetDefault(KeyCacheIndexTTL, d.Cache.IndexTTL)
	v.SetDefault(KeyCacheRecordSize, d.Cache.RecordSize)
	v.SetDefault(KeyCacheRecordTTL, d.Cache.RecordTTL)
	v.SetDefault(KeySearchMax, d.Search.MaxResults)
	v.SetDefault(KeyNearRange, d.Near.RangeKm)
	v.SetDefault(KeyNearMax, d.Near.MaxResults)
	return v
}

// EnsureDefaultFile creates configDir and writes a config.yaml holding the
// defaults when none exists.
func EnsureDefaultFile(configDir string) error {
	_, err := WriteDefaultFile(configDir, types.DefaultConfig())
	return err
}

// WriteDefaultFile writes cfg to config.yaml in configDir unless the file
// already exists. It reports whether the file was created.
func WriteDefaultFile(configDir string, cfg types.Config) (bool, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config dir: %w", err)
	}

	path := paths.ConfigFile(configDir)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
