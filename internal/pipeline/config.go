package pipeline

import (
	"fmt"

	"github.com/oukeidos/capt/internal/captioner"
	"github.com/oukeidos/capt/internal/prompts"
)

// Provider identifies which caption backend to use.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds all configuration required for running a captioning or resume session.
type Config struct {
	// IO Paths
	RootDir string
	LogPath string // Session log path, required for resume

	// API Configuration
	Provider string
	APIKey   string
	Model    string

	// Processing Parameters
	Concurrency int
	Preset      prompts.Preset

	// Flags
	Overwrite bool // If true, regenerate captions for files that already have one

	// Callbacks
	// OnProgress is called with per-item captioning updates.
	OnProgress func(captioner.Progress)

	// OnConfirmOverwrite is called when existing captions would be replaced.
	// It should return true if they should be regenerated.
	// If nil, the Overwrite flag decides on its own.
	OnConfirmOverwrite func(count int) bool
}

const (
	MinConcurrency = 1
	MaxConcurrency = 20
)

func ClampConcurrency(value int) (int, bool) {
	if value < MinConcurrency {
		return MinConcurrency, true
	}
	if value > MaxConcurrency {
		return MaxConcurrency, true
	}
	return value, false
}

// Normalize applies safe bounds to config values and returns any adjustments.
func (c Config) Normalize() (Config, []string) {
	var notes []string
	if clamped, changed := ClampConcurrency(c.Concurrency); changed {
		notes = append(notes, fmt.Sprintf("concurrency clamped from %d to %d (max %d)", c.Concurrency, clamped, MaxConcurrency))
		c.Concurrency = clamped
	}
	return c, notes
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.RootDir == "" {
		return fmt.Errorf("folder path is required")
	}
	if c.Provider != ProviderGemini && c.Provider != ProviderOpenAI {
		return fmt.Errorf("unsupported provider: %s", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model name is required")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be greater than 0, got %d", c.Concurrency)
	}
	if err := c.Preset.Validate(); err != nil {
		return fmt.Errorf("invalid preset: %w", err)
	}
	if c.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	return nil
}

// ValidateResumeRuntime checks only runtime config required for resume.
// Session-derived settings (provider/model/concurrency) are validated on the session log.
func (c Config) ValidateResumeRuntime() error {
	if c.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	return nil
}
