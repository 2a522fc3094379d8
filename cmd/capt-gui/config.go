package main

import (
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"

	"github.com/oukeidos/capt/internal/logger"
	"github.com/oukeidos/capt/internal/metadata"
	"github.com/oukeidos/capt/internal/pipeline"
)

type AppConfig struct {
	Provider   string
	Model      string
	PresetName string
	LastFolder string

	// Advanced Settings
	Concurrency int
}

const (
	defaultGUIProvider    = pipeline.ProviderGemini
	defaultGUIModel       = "gemini-3-flash-preview"
	defaultGUIOpenAIModel = "gpt-5.2"
	defaultGUIConcurrency = 3
)

// normalizeModel maps removed or unknown model IDs to the provider default.
func normalizeModel(provider, model string) string {
	ids := metadata.GeminiModelIDs()
	fallback := defaultGUIModel
	if provider == pipeline.ProviderOpenAI {
		ids = metadata.OpenAIModelIDs()
		fallback = defaultGUIOpenAIModel
	}
	for _, id := range ids {
		if id == model {
			return model
		}
	}
	return fallback
}

func normalizeProvider(provider string) string {
	if provider == pipeline.ProviderGemini || provider == pipeline.ProviderOpenAI {
		return provider
	}
	return defaultGUIProvider
}

func (a *captApp) loadConfig() {
	prefs := fyne.CurrentApp().Preferences()

	a.config.Provider = normalizeProvider(prefs.StringWithFallback("Provider", defaultGUIProvider))
	storedModel := prefs.StringWithFallback("Model", defaultGUIModel)
	a.config.Model = normalizeModel(a.config.Provider, storedModel)
	if a.config.Model != storedModel {
		logger.Warn("Stored model no longer available, falling back", "stored", storedModel, "effective", a.config.Model)
	}
	a.config.PresetName = prefs.String("PresetName")
	a.config.LastFolder = prefs.String("LastFolder")

	// Advanced
	a.config.Concurrency = prefs.IntWithFallback("Concurrency", defaultGUIConcurrency)
	if clamped, changed := pipeline.ClampConcurrency(a.config.Concurrency); changed {
		logger.Warn("Concurrency clamped", "requested", a.config.Concurrency, "effective", clamped, "max", pipeline.MaxConcurrency)
		a.config.Concurrency = clamped
		prefs.SetInt("Concurrency", a.config.Concurrency)
	}

	// Ensure the presets directory exists
	home, _ := os.UserHomeDir()
	os.MkdirAll(filepath.Join(home, ".capt"), 0700)
}

func (a *captApp) saveConfig() {
	prefs := fyne.CurrentApp().Preferences()
	prefs.SetString("Provider", a.config.Provider)
	prefs.SetString("Model", a.config.Model)
	prefs.SetString("PresetName", a.config.PresetName)
	prefs.SetString("LastFolder", a.config.LastFolder)

	// Advanced
	prefs.SetInt("Concurrency", a.config.Concurrency)
}
