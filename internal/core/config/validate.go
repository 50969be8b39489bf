package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/taskhive/internal/core/search"
	"github.com/colonyops/taskhive/internal/core/styles"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("data_dir", c.DataDir, required),
		criterio.Run("storage.coalesce_window", c.Storage.Window(), nonNegative),
		criterio.Run("storage.history_limit", c.Storage.HistoryLimit, positive),
		criterio.Run("search.fuzzy_threshold", c.threshold(), unitInterval),
		criterio.Run("search.suggestion_limit", c.Search.SuggestionLimit, positive),
		criterio.Run("tui.theme", c.TUI.Theme, knownTheme),
		c.validateWeights(),
	)
}

// ValidateDeep runs Validate and adds file system checks. The configPath
// argument names the config file to check (empty skips it).
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
		criterio.Run("storage.file", c.StoreFile(), isFileOrNotExist),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if !c.Storage.ExportEnabled() {
		warnings = append(warnings, ValidationWarning{
			Category: "Storage",
			Item:     "export_markdown",
			Message:  "markdown export is disabled; import only works with hand-written documents",
		})
	}
	if !c.Storage.LockEnabled() {
		warnings = append(warnings, ValidationWarning{
			Category: "Storage",
			Item:     "lock",
			Message:  "process lock is disabled; concurrent writers may lose updates",
		})
	}

	total := 0.0
	for _, w := range c.Search.Weights {
		total += w
	}
	if len(c.Search.Weights) > 0 && total == 0 {
		warnings = append(warnings, ValidationWarning{
			Category: "Search",
			Item:     "weights",
			Message:  "configured weights are all zero; the defaults still apply to unlisted fields",
		})
	}

	return warnings
}

func (c *Config) threshold() float64 {
	if c.Search.FuzzyThreshold == nil {
		return search.DefaultFuzzyThreshold
	}
	return *c.Search.FuzzyThreshold
}

func (c *Config) validateWeights() error {
	var errs criterio.FieldErrorsBuilder
	for name, w := range c.Search.Weights {
		field := fmt.Sprintf("search.weights[%q]", name)
		if _, err := search.ParseFields([]string{name}); err != nil {
			errs = errs.Append(field, err)
			continue
		}
		if w < 0 {
			errs = errs.Append(field, fmt.Errorf("must not be negative"))
		}
	}
	return errs.ToError()
}

func required(s string) error {
	if s == "" {
		return fmt.Errorf("cannot be empty")
	}
	return nil
}

func positive(n int) error {
	if n < 1 {
		return fmt.Errorf("must be at least 1")
	}
	return nil
}

func nonNegative(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func unitInterval(f float64) error {
	if f <= 0 || f > 1 {
		return fmt.Errorf("must be in (0, 1], got %g", f)
	}
	return nil
}

func knownTheme(name string) error {
	if _, ok := styles.GetPalette(name); !ok {
		return fmt.Errorf("unknown theme %q; available: %v", name, styles.ThemeNames())
	}
	return nil
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

// isFileOrNotExist validates that a path is a regular file, or absent with
// a creatable parent.
func isFileOrNotExist(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return isDirectoryOrNotExist(filepath.Dir(path))
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	return nil
}
