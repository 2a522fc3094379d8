package main

import (
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/oukeidos/capt/internal/auth"
	"github.com/oukeidos/capt/internal/logger"
	"github.com/oukeidos/capt/internal/metadata"
	"github.com/oukeidos/capt/internal/pipeline"
	"github.com/oukeidos/capt/internal/prompts"
)

func (a *captApp) showSettingsWindow() {
	if a.currentSettingsWin != nil {
		a.currentSettingsWin.RequestFocus()
		return
	}

	w := fyne.CurrentApp().NewWindow("Settings")
	a.currentSettingsWin = w
	w.SetOnClosed(func() {
		a.currentSettingsWin = nil
		a.settingsGeminiEntry = nil
		a.settingsOpenaiEntry = nil
	})

	// --- 1. Keys Tab ---
	a.settingsGeminiEntry = widget.NewPasswordEntry()
	a.settingsGeminiEntry.SetPlaceHolder("Enter new key")
	a.settingsOpenaiEntry = widget.NewPasswordEntry()
	a.settingsOpenaiEntry.SetPlaceHolder("Enter new key")

	a.settingsGeminiStatus = widget.NewLabel("")
	a.settingsOpenaiStatus = widget.NewLabel("")
	a.refreshSettingsEntries()

	keysTab := container.NewPadded(container.NewVBox(
		widget.NewLabelWithStyle("API Keys", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewForm(
			widget.NewFormItem("Gemini Key", container.NewVBox(a.settingsGeminiEntry, a.settingsGeminiStatus)),
			widget.NewFormItem("OpenAI Key", container.NewVBox(a.settingsOpenaiEntry, a.settingsOpenaiStatus)),
		),
		widget.NewButton("Save Keys to Keychain", func() {
			saveResult, err := saveKeysToKeychain(a.settingsGeminiEntry.Text, a.settingsOpenaiEntry.Text, auth.SaveKey)
			if saveResult.GeminiSaved && a.config.Provider == pipeline.ProviderGemini {
				a.sessionKey = strings.TrimSpace(a.settingsGeminiEntry.Text)
			}
			if saveResult.OpenAISaved && a.config.Provider == pipeline.ProviderOpenAI {
				a.sessionKey = strings.TrimSpace(a.settingsOpenaiEntry.Text)
			}
			a.syncMainKeyState()
			a.refreshSettingsEntries()
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			a.settingsGeminiEntry.SetText("")
			a.settingsOpenaiEntry.SetText("")
			dialog.ShowInformation("Saved", "API Keys have been updated in your keychain.", w)
		}),
		widget.NewSeparator(),
		widget.NewButtonWithIcon("Reset All Keys", theme.DeleteIcon(), func() {
			dialog.ShowConfirm("Reset", "Are you sure you want to delete all saved keys from keychain?", func(ok bool) {
				if ok {
					err := resetKeysInKeychain(auth.DeleteKey)
					a.refreshSettingsEntries()
					if err != nil {
						dialog.ShowError(err, w)
						return
					}
					a.sessionKey = "" // Also clear session key on reset
					a.settingsGeminiEntry.SetText("")
					a.settingsOpenaiEntry.SetText("")
					dialog.ShowInformation("Reset Complete", "All saved keys were deleted from keychain.", w)
				}
			}, w)
		}),
	))

	// --- 2. Models Tab ---
	var modelSelect *widget.Select
	modelOptions := func() []string {
		if a.config.Provider == pipeline.ProviderOpenAI {
			return metadata.OpenAIModelIDs()
		}
		return metadata.GeminiModelIDs()
	}

	providerSelect := widget.NewSelect([]string{pipeline.ProviderGemini, pipeline.ProviderOpenAI}, func(s string) {
		if s == a.config.Provider {
			return
		}
		a.config.Provider = s
		a.config.Model = normalizeModel(s, a.config.Model)
		a.sessionKey = "" // Session keys are per provider
		a.saveConfig()
		if modelSelect != nil {
			modelSelect.Options = modelOptions()
			modelSelect.SetSelected(a.config.Model)
			modelSelect.Refresh()
		}
	})
	providerSelect.SetSelected(a.config.Provider)

	modelSelect = widget.NewSelect(modelOptions(), func(s string) {
		a.config.Model = s
		a.saveConfig()
	})
	modelSelect.SetSelected(a.config.Model)

	modelsTab := container.NewPadded(container.NewVBox(
		widget.NewLabelWithStyle("Model Selection", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewForm(
			widget.NewFormItem("Provider", providerSelect),
			widget.NewFormItem("Caption Model", modelSelect),
		),
	))

	// --- 3. Presets Tab ---
	nameEntry := widget.NewEntry()
	promptEntry := widget.NewMultiLineEntry()
	promptEntry.Wrapping = fyne.TextWrapWord
	promptEntry.SetMinRowsVisible(5)
	maxLenEntry := newFixedWidthEntry(120)

	presets := a.listPresets(w)
	presetSelect := widget.NewSelect(nil, nil)
	var refreshPresetOptions func()

	showPreset := func(p prompts.Preset) {
		nameEntry.SetText(p.Name)
		promptEntry.SetText(p.Prompt)
		maxLenEntry.SetText(strconv.Itoa(p.MaxLength))
		builtIn := isBuiltInPreset(p.Name)
		if builtIn {
			nameEntry.Disable()
			promptEntry.Disable()
			maxLenEntry.Disable()
		} else {
			nameEntry.Enable()
			promptEntry.Enable()
			maxLenEntry.Enable()
		}
	}

	presetSelect.OnChanged = func(s string) {
		p, ok := prompts.Find(presets, s)
		if !ok {
			return
		}
		a.config.PresetName = p.Name
		a.saveConfig()
		showPreset(p)
	}

	refreshPresetOptions = func() {
		presets = a.listPresets(w)
		options := make([]string, 0, len(presets))
		for _, p := range presets {
			options = append(options, p.Name)
		}
		presetSelect.Options = options
		active := a.activePreset()
		presetSelect.SetSelected(active.Name)
		presetSelect.Refresh()
		showPreset(active)
	}
	refreshPresetOptions()

	newBtn := widget.NewButtonWithIcon("New", theme.ContentAddIcon(), func() {
		nameEntry.Enable()
		promptEntry.Enable()
		maxLenEntry.Enable()
		nameEntry.SetText("")
		promptEntry.SetText("")
		maxLenEntry.SetText("0")
	})

	savePresetBtn := widget.NewButtonWithIcon("Save Preset", theme.DocumentSaveIcon(), func() {
		maxLen, err := strconv.Atoi(strings.TrimSpace(maxLenEntry.Text))
		if err != nil || maxLen < 0 {
			dialog.ShowError(fmt.Errorf("max length must be a non-negative number"), w)
			return
		}
		p := prompts.Preset{
			Name:      strings.TrimSpace(nameEntry.Text),
			Prompt:    strings.TrimSpace(promptEntry.Text),
			MaxLength: maxLen,
		}
		if err := saveUserPreset(p); err != nil {
			dialog.ShowError(err, w)
			return
		}
		a.config.PresetName = p.Name
		a.saveConfig()
		refreshPresetOptions()
		dialog.ShowInformation("Saved", "Preset has been saved.", w)
	})

	deletePresetBtn := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
		sel := presetSelect.Selected
		if sel == "" {
			return
		}
		if isBuiltInPreset(sel) {
			dialog.ShowError(fmt.Errorf("%q is a built-in preset and cannot be deleted", sel), w)
			return
		}
		dialog.ShowConfirm("Delete Preset", "Are you sure you want to delete '"+sel+"'?", func(ok bool) {
			if ok {
				if err := deleteUserPreset(sel); err != nil {
					dialog.ShowError(err, w)
					return
				}
				if a.config.PresetName == sel {
					a.config.PresetName = ""
					a.saveConfig()
				}
				refreshPresetOptions()
			}
		}, w)
	})

	presetsTab := container.NewPadded(container.NewVBox(
		widget.NewLabelWithStyle("Caption Presets", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(
			widget.NewLabel("Active Preset:"),
			container.NewGridWrap(fyne.NewSize(240, 40), presetSelect),
			container.NewGridWrap(fyne.NewSize(40, 40), deletePresetBtn),
			newBtn,
		),
		widget.NewSeparator(),
		widget.NewForm(
			widget.NewFormItem("Name", nameEntry),
			widget.NewFormItem("Prompt", promptEntry),
			widget.NewFormItem("Max Length (0 = off)", maxLenEntry),
		),
		savePresetBtn,
	))

	// --- 4. Advanced Tab ---
	concurrencyEntry := newFixedWidthEntry(120)
	concurrencyEntry.SetText(strconv.Itoa(a.config.Concurrency))
	concurrencyEntry.OnChanged = func(s string) {
		if v, err := strconv.Atoi(s); err == nil {
			clamped, changed := pipeline.ClampConcurrency(v)
			if changed {
				logger.Warn("Concurrency clamped", "requested", v, "effective", clamped, "max", pipeline.MaxConcurrency)
			}
			a.config.Concurrency = clamped
			a.saveConfig()
			if changed && strconv.Itoa(clamped) != s {
				concurrencyEntry.SetText(strconv.Itoa(clamped))
			}
		}
	}

	resetBtn := widget.NewButtonWithIcon("Reset to Defaults", theme.HistoryIcon(), func() {
		a.config.Concurrency = defaultGUIConcurrency
		a.config.Provider = defaultGUIProvider
		a.config.Model = defaultGUIModel
		a.config.PresetName = ""

		// Update UI
		concurrencyEntry.SetText(strconv.Itoa(defaultGUIConcurrency))
		providerSelect.SetSelected(defaultGUIProvider)
		modelSelect.SetSelected(defaultGUIModel)
		refreshPresetOptions()

		a.saveConfig()
		dialog.ShowInformation("Reset", "Settings have been reset to defaults.", w)
	})
	resetBtn.Resize(fyne.NewSize(220, 40))

	advancedTab := container.NewPadded(container.NewVBox(
		widget.NewLabelWithStyle("Technical Parameters", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewForm(
			widget.NewFormItem(fmt.Sprintf("Concurrency (%d-%d)", pipeline.MinConcurrency, pipeline.MaxConcurrency), concurrencyEntry),
		),
		container.NewCenter(container.NewPadded(container.NewHBox(layout.NewSpacer(), resetBtn, layout.NewSpacer()))),
	))

	// --- 5. About Tab ---
	aboutTab := buildAboutTab(w)

	tabs := container.NewAppTabs(
		container.NewTabItemWithIcon("Keys", theme.StorageIcon(), keysTab),
		container.NewTabItemWithIcon("Models", theme.GridIcon(), modelsTab),
		container.NewTabItemWithIcon("Presets", theme.DocumentIcon(), presetsTab),
		container.NewTabItemWithIcon("Advanced", theme.SettingsIcon(), advancedTab),
		container.NewTabItemWithIcon("About", theme.InfoIcon(), aboutTab),
	)

	minSize := tabs.MinSize()
	targetSize := fyne.NewSize(minSize.Width+80, minSize.Height+10)
	content := container.NewStack(&minSizeBox{size: targetSize}, tabs)

	w.SetContent(content)
	w.Resize(targetSize)
	w.CenterOnScreen()
	w.Show()
}
