package main

import (
	"fmt"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"

	"github.com/oukeidos/capt/internal/logger"
	"github.com/oukeidos/capt/internal/prompts"
)

// userPresetsPath is the JSON file holding user-defined caption presets.
func userPresetsPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".capt", "presets.json")
}

func isBuiltInPreset(name string) bool {
	_, ok := prompts.Find(prompts.BuiltIn(), name)
	return ok
}

// loadUserPresets reads the user preset file; a missing file is an empty list.
func loadUserPresets() ([]prompts.Preset, error) {
	path := userPresetsPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return prompts.LoadFile(path)
}

// listPresets returns built-in presets followed by user presets. A user
// preset shadowing a built-in name is skipped with a warning.
func (a *captApp) listPresets(parent fyne.Window) []prompts.Preset {
	presets := prompts.BuiltIn()
	user, err := loadUserPresets()
	if err != nil {
		a.reportPresetError(parent, err)
		return presets
	}
	for _, p := range user {
		if isBuiltInPreset(p.Name) {
			logger.Warn("User preset shadows a built-in preset, skipping", "name", p.Name)
			continue
		}
		presets = append(presets, p)
	}
	return presets
}

func (a *captApp) reportPresetError(parent fyne.Window, err error) {
	if err == nil || a == nil || parent == nil {
		return
	}
	logger.Error("Preset store error", "error", err)
	a.presetErrOnce.Do(func() {
		a.safeDo("presets.error_dialog", func() {
			dialog.ShowError(err, parent)
		})
	})
}

// saveUserPreset adds or replaces a user preset by name.
func saveUserPreset(p prompts.Preset) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if isBuiltInPreset(p.Name) {
		return fmt.Errorf("%q is a built-in preset and cannot be changed", p.Name)
	}
	user, err := loadUserPresets()
	if err != nil {
		return err
	}
	replaced := false
	for i, existing := range user {
		if existing.Name == p.Name {
			user[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		user = append(user, p)
	}
	return prompts.SaveFile(userPresetsPath(), user)
}

// deleteUserPreset removes a user preset by name. Built-ins cannot be removed.
func deleteUserPreset(name string) error {
	if isBuiltInPreset(name) {
		return fmt.Errorf("%q is a built-in preset and cannot be deleted", name)
	}
	user, err := loadUserPresets()
	if err != nil {
		return err
	}
	kept := user[:0]
	removed := false
	for _, p := range user {
		if p.Name == name {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	if !removed {
		return fmt.Errorf("unknown preset: %s", name)
	}
	return prompts.SaveFile(userPresetsPath(), kept)
}

// activePreset resolves the configured preset name, falling back to the
// first built-in preset.
func (a *captApp) activePreset() prompts.Preset {
	if a.config.PresetName != "" {
		if p, ok := prompts.Find(a.listPresets(a.window), a.config.PresetName); ok {
			return p
		}
		logger.Warn("Configured preset not found, using default", "name", a.config.PresetName)
	}
	return prompts.BuiltIn()[0]
}
