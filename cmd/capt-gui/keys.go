package main

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"fyne.io/fyne/v2"

	"github.com/oukeidos/capt/internal/auth"
)

type keySaveResult struct {
	GeminiSaved bool
	OpenAISaved bool
}

func saveKeysToKeychain(geminiKey, openaiKey string, saveFn func(service, key string) error) (keySaveResult, error) {
	result := keySaveResult{}
	var errs []string
	if strings.TrimSpace(geminiKey) != "" {
		if err := saveFn("gemini", geminiKey); err != nil {
			errs = append(errs, fmt.Sprintf("failed to save Gemini key: %v", err))
		} else {
			result.GeminiSaved = true
		}
	}
	if strings.TrimSpace(openaiKey) != "" {
		if err := saveFn("openai", openaiKey); err != nil {
			errs = append(errs, fmt.Sprintf("failed to save OpenAI key: %v", err))
		} else {
			result.OpenAISaved = true
		}
	}
	if len(errs) > 0 {
		return result, errors.New(strings.Join(errs, "; "))
	}
	return result, nil
}

func resetKeysInKeychain(deleteFn func(service string) error) error {
	var errs []string
	if err := deleteFn("gemini"); err != nil {
		errs = append(errs, fmt.Sprintf("failed to delete Gemini key: %v", err))
	}
	if err := deleteFn("openai"); err != nil {
		errs = append(errs, fmt.Sprintf("failed to delete OpenAI key: %v", err))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// currentAPIKey returns the key used for caption generation: a session-only
// key wins over the keychain.
func (a *captApp) currentAPIKey() string {
	if a.sessionKey != "" {
		return a.sessionKey
	}
	key, _ := auth.GetKey(a.config.Provider, false)
	return key
}

// createApiKeyView is the overlay shown when generation is requested without
// a stored key. SAVE persists to the keychain, ONCE keeps it for this session.
func (a *captApp) createApiKeyView() fyne.CanvasObject {
	input := widget.NewPasswordEntry()
	input.SetPlaceHolder("API KEY")

	title := canvas.NewText("SET API KEY", color.Black)
	title.TextSize = 28
	title.TextStyle = fyne.TextStyle{Bold: true}
	title.Alignment = fyne.TextAlignCenter

	accent := theme.Color(theme.ColorNamePrimary)
	saveBtn := newHugeButton("SAVE", accent, func() {
		key := strings.TrimSpace(input.Text)
		if key == "" {
			a.flashRed()
			return
		}
		if err := auth.SaveKey(a.config.Provider, key); err != nil {
			a.flashRed()
			return
		}
		a.sessionKey = key
		a.syncMainKeyState()
		a.refreshSettingsEntries()
		input.SetText("")
	})

	onceBtn := newHugeButton("ONCE", color.NRGBA{R: 200, G: 200, B: 200, A: 255}, func() {
		key := strings.TrimSpace(input.Text)
		if key == "" {
			a.flashRed()
			return
		}
		a.sessionKey = key
		a.syncMainKeyState()
		input.SetText("")
	})

	backBtn := widget.NewButton("Back", func() {
		a.setState(StateIdle)
	})

	btns := container.NewGridWithColumns(2, saveBtn, onceBtn)

	card := container.NewVBox(
		container.NewCenter(title),
		input,
		container.NewPadded(btns),
		container.NewCenter(backBtn),
	)

	return container.NewCenter(container.NewPadded(card))
}
