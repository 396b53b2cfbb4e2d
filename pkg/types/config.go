package types

import (
	"errors"
	"time"
)

// Config holds the settings needed to open the store and size its caches.
type Config struct {
	DataDir       string      `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	DatabaseFile  string      `json:"database_file" yaml:"database_file" mapstructure:"database_file"`
	MigrationsDir string      `json:"migrations_dir,omitempty" yaml:"migrations_dir,omitempty" mapstructure:"migrations_dir"`
	Log           LogConfig   `json:"log" yaml:"log" mapstructure:"log"`
	Cache         CacheConfig `json:"cache" yaml:"cache" mapstructure:"cache"`
	Search        LimitConfig `json:"search" yaml:"search" mapstructure:"search"`
	Near          NearConfig  `json:"near" yaml:"near" mapstructure:"near"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// CacheConfig sizes the location caches.
type CacheConfig struct {
	IndexTTL   time.Duration `json:"index_ttl" yaml:"index_ttl" mapstructure:"index_ttl"`
	RecordSize int           `json:"record_size" yaml:"record_size" mapstructure:"record_size"`
	RecordTTL  time.Duration `json:"record_ttl" yaml:"record_ttl" mapstructure:"record_ttl"`
}

// LimitConfig holds a default result count.
type LimitConfig struct {
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// NearConfig holds proximity query defaults.
type NearConfig struct {
	RangeKm    float64 `json:"range_km" yaml:"range_km" mapstructure:"range_km"`
	MaxResults int     `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// Default values.
const (
	DefaultDatabaseFile     = "parktrack.db"
	DefaultIndexTTL         = 5 * time.Minute
	DefaultRecordCacheSize  = 128
	DefaultRecordTTL        = 5 * time.Minute
	DefaultSearchMaxResults = 10
	DefaultNearRangeKm      = 10
	DefaultNearMaxResults   = 20
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config validation errors.
var (
	ErrDatabaseFileEmpty = errors.New("database file must not be empty")
	ErrLogFormatUnknown  = errors.New("unknown log format")
	ErrIndexTTLInvalid   = errors.New("index ttl must be positive")
	ErrRecordSizeInvalid = errors.New("record cache size must be positive")
	ErrRecordTTLInvalid  = errors.New("record ttl must be positive")
	ErrMaxResultsInvalid = errors.New("max results must be positive")
	ErrNearRangeInvalid  = errors.New("near range must be positive")
)

var knownLogFormats = map[string]bool{
	LogFormatText: true,
	LogFormatJSON: true,
}

// DefaultConfig returns a Config populated with default values. DataDir is
// left empty so the caller's directory resolution applies.
func DefaultConfig() Config {
	return Config{
		DatabaseFile: DefaultDatabaseFile,
		Log:          LogConfig{Level: "info", Format: LogFormatText},
		Cache: CacheConfig{
			IndexTTL:   DefaultIndexTTL,
			RecordSize: DefaultRecordCacheSize,
			RecordTTL:  DefaultRecordTTL,
		},
		Search: LimitConfig{MaxResults: DefaultSearchMaxResults},
		Near:   NearConfig{RangeKm: DefaultNearRangeKm, MaxResults: DefaultNearMaxResults},
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.DatabaseFile == "" {
		return ErrDatabaseFileEmpty
	}
	if !knownLogFormats[c.Log.Format] {
		return ErrLogFormatUnknown
	}
	if c.Cache.IndexTTL <= 0 {
		return ErrIndexTTLInvalid
	}
	if c.Cache.RecordSize <= 0 {
		return ErrRecordSizeInvalid
	}
	if c.Cache.RecordTTL <= 0 {
		return ErrRecordTTLInvalid
	}
	if c.Search.MaxResults <= 0 || c.Near.MaxResults <= 0 {
		return ErrMaxResultsInvalid
	}
	if c.Near.RangeKm <= 0 {
		return ErrNearRangeInvalid
	}
	return nil
}
