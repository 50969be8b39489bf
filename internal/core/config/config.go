// Package config handles configuration loading and validation for taskhive.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/taskhive/internal/core/history"
	"github.com/colonyops/taskhive/internal/core/search"
	"github.com/colonyops/taskhive/internal/core/styles"
)

// DefaultStoreFile is the backing file name inside the data directory.
const DefaultStoreFile = "tasks.json"

// Config holds the application configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Search  SearchConfig  `yaml:"search"`
	TUI     TUIConfig     `yaml:"tui"`
	// Actor is recorded as modifiedBy on task change logs.
	Actor   string `yaml:"actor"`
	DataDir string `yaml:"-"` // set by caller, not from config file
}

// StorageConfig controls the backing file.
type StorageConfig struct {
	File           string         `yaml:"file"`
	CoalesceWindow *time.Duration `yaml:"coalesce_window"` // 0 writes synchronously
	HistoryLimit   int            `yaml:"history_limit"`
	ExportMarkdown *bool          `yaml:"export_markdown"`
	Lock           *bool          `yaml:"lock"`
}

// SearchConfig tunes the search engine.
type SearchConfig struct {
	FuzzyThreshold  *float64           `yaml:"fuzzy_threshold"`
	SuggestionLimit int                `yaml:"suggestion_limit"`
	Weights         map[string]float64 `yaml:"weights"`
}

// TUIConfig holds display settings.
type TUIConfig struct {
	Theme string `yaml:"theme"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	var (
		window    = 50 * time.Millisecond
		threshold = search.DefaultFuzzyThreshold
		enabled   = true
		locked    = true
	)
	return Config{
		Storage: StorageConfig{
			CoalesceWindow: &window,
			HistoryLimit:   history.DefaultLimit,
			ExportMarkdown: &enabled,
			Lock:           &locked,
		},
		Search: SearchConfig{
			FuzzyThreshold:  &threshold,
			SuggestionLimit: search.DefaultSuggestionLimit,
		},
		TUI: TUIConfig{
			Theme: styles.DefaultTheme,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.DataDir = dataDir
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Storage.CoalesceWindow == nil {
		c.Storage.CoalesceWindow = defaults.Storage.CoalesceWindow
	}
	if c.Storage.HistoryLimit == 0 {
		c.Storage.HistoryLimit = defaults.Storage.HistoryLimit
	}
	if c.Storage.ExportMarkdown == nil {
		c.Storage.ExportMarkdown = defaults.Storage.ExportMarkdown
	}
	if c.Storage.Lock == nil {
		c.Storage.Lock = defaults.Storage.Lock
	}
	if c.Search.FuzzyThreshold == nil {
		c.Search.FuzzyThreshold = defaults.Search.FuzzyThreshold
	}
	if c.Search.SuggestionLimit == 0 {
		c.Search.SuggestionLimit = defaults.Search.SuggestionLimit
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = defaults.TUI.Theme
	}
}

// StoreFile returns the backing file path. Relative paths resolve against
// the data directory.
func (c *Config) StoreFile() string {
	switch {
	case c.Storage.File == "":
		return filepath.Join(c.DataDir, DefaultStoreFile)
	case filepath.IsAbs(c.Storage.File):
		return c.Storage.File
	default:
		return filepath.Join(c.DataDir, c.Storage.File)
	}
}

// DefaultLogFile returns the log file path used when none is given.
func DefaultLogFile(dataDir string) string {
	return filepath.Join(dataDir, "taskhive.log")
}

// Window returns the configured write coalescing window.
func (s StorageConfig) Window() time.Duration {
	if s.CoalesceWindow == nil {
		return 0
	}
	return *s.CoalesceWindow
}

// ExportEnabled reports whether saves regenerate the markdown export.
func (s StorageConfig) ExportEnabled() bool {
	return s.ExportMarkdown == nil || *s.ExportMarkdown
}

// LockEnabled reports whether the store takes the process lock.
func (s StorageConfig) LockEnabled() bool {
	return s.Lock == nil || *s.Lock
}

// Engine converts the search section to an engine config. Weights are
// layered over the defaults.
func (s SearchConfig) Engine() search.Config {
	cfg := search.Config{SuggestionLimit: s.SuggestionLimit}
	if s.FuzzyThreshold != nil {
		th := *s.FuzzyThreshold
		cfg.FuzzyThreshold = &th
	}
	if len(s.Weights) > 0 {
		cfg.Weights = search.DefaultWeights()
		for name, w := range s.Weights {
			cfg.Weights[search.Field(name)] = w
		}
	}
	return cfg
}
