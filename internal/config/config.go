// Package config loads lumora's per-repo configuration from
// .lumora/config.yaml via viper, with LUMORA_STATE_DIR overriding the
// state directory location per the engine's external interface.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the complete lumora configuration.
type Config struct {
	StateDir string        `mapstructure:"stateDir"`
	Scan     ScanConfig    `mapstructure:"scan"`
	Watcher  WatcherConfig `mapstructure:"watcher"`
	Clone    CloneConfig   `mapstructure:"clone"`
	Query    QueryConfig   `mapstructure:"query"`
	Index    IndexConfig   `mapstructure:"index"`
	Logging  LoggingConfig `mapstructure:"logging"`
}

// ScanConfig controls the file scanner.
type ScanConfig struct {
	MaxFileSizeBytes int64    `mapstructure:"maxFileSizeBytes"`
	IgnoreGlobs      []string `mapstructure:"ignoreGlobs"`
}

// WatcherConfig controls the fsnotify-based watcher daemon.
type WatcherConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	DebounceMs  int  `mapstructure:"debounceMs"`
	QueueDepth  int  `mapstructure:"queueDepth"`
}

// CloneConfig controls the clone detector.
type CloneConfig struct {
	WindowLines        int     `mapstructure:"windowLines"`
	Stride             int     `mapstructure:"stride"`
	MinSimilarity      float64 `mapstructure:"minSimilarity"`
	SkipBelowLineCount int     `mapstructure:"skipBelowLineCount"`
}

// QueryConfig controls default pagination for the query engine.
type QueryConfig struct {
	DefaultLimit int `mapstructure:"defaultLimit"`
	MaxLimit     int `mapstructure:"maxLimit"`
}

// IndexConfig controls the indexer's worker pool and retry behavior.
type IndexConfig struct {
	WorkerCount  int `mapstructure:"workerCount"`
	RetryAttempts int `mapstructure:"retryAttempts"`
}

// LoggingConfig controls internal/logging output.
type LoggingConfig struct {
	Format string `mapstructure:"format"`
	Level  string `mapstructure:"level"`
}

// ConfigFileName is the name of the on-disk config file within the
// state directory.
const ConfigFileName = "config.yaml"

// EnvStateDir is the environment variable that overrides StateDir.
const EnvStateDir = "LUMORA_STATE_DIR"

// DefaultConfig returns lumora's built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		StateDir: ".lumora",
		Scan: ScanConfig{
			MaxFileSizeBytes: 2 << 20,
			IgnoreGlobs:      []string{"*.min.js", "*.generated.go"},
		},
		Watcher: WatcherConfig{
			Enabled:    true,
			DebounceMs: 300,
			QueueDepth: 512,
		},
		Clone: CloneConfig{
			WindowLines:        5,
			Stride:             1,
			MinSimilarity:      0.35,
			SkipBelowLineCount: 5,
		},
		Query: QueryConfig{
			DefaultLimit: 50,
			MaxLimit:     500,
		},
		Index: IndexConfig{
			WorkerCount:   0, // 0 means runtime.NumCPU()
			RetryAttempts: 3,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads <repoRoot>/<stateDir>/config.yaml if present, layering it
// over DefaultConfig, then applies the LUMORA_STATE_DIR environment
// override last so it always wins regardless of what the file says.
func Load(repoRoot string) (*Config, error) {
	defaults := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(repoRoot, defaults.StateDir))
	setViperDefaults(v, defaults)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if envDir := os.Getenv(EnvStateDir); envDir != "" {
		cfg.StateDir = envDir
	}

	return &cfg, nil
}

func setViperDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("stateDir", d.StateDir)
	v.SetDefault("scan.maxFileSizeBytes", d.Scan.MaxFileSizeBytes)
	v.SetDefault("scan.ignoreGlobs", d.Scan.IgnoreGlobs)
	v.SetDefault("watcher.enabled", d.Watcher.Enabled)
	v.SetDefault("watcher.debounceMs", d.Watcher.DebounceMs)
	v.SetDefault("watcher.queueDepth", d.Watcher.QueueDepth)
	v.SetDefault("clone.windowLines", d.Clone.WindowLines)
	v.SetDefault("clone.stride", d.Clone.Stride)
	v.SetDefault("clone.minSimilarity", d.Clone.MinSimilarity)
	v.SetDefault("clone.skipBelowLineCount", d.Clone.SkipBelowLineCount)
	v.SetDefault("query.defaultLimit", d.Query.DefaultLimit)
	v.SetDefault("query.maxLimit", d.Query.MaxLimit)
	v.SetDefault("index.workerCount", d.Index.WorkerCount)
	v.SetDefault("index.retryAttempts", d.Index.RetryAttempts)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
}

// StatePath returns the absolute path to the state directory for repoRoot.
func (c *Config) StatePath(repoRoot string) string {
	if filepath.IsAbs(c.StateDir) {
		return c.StateDir
	}
	return filepath.Join(repoRoot, c.StateDir)
}
