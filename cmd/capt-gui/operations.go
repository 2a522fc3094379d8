package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2/dialog"

	"github.com/oukeidos/capt/internal/apperrors"
	"github.com/oukeidos/capt/internal/captioner"
	"github.com/oukeidos/capt/internal/captions"
	"github.com/oukeidos/capt/internal/gemini"
	"github.com/oukeidos/capt/internal/library"
	"github.com/oukeidos/capt/internal/logger"
	"github.com/oukeidos/capt/internal/pipeline"
	"github.com/oukeidos/capt/internal/prompts"
)

// confirmCaptionFolder resolves the overwrite question before the batch
// starts so no worker ever blocks on a dialog.
func (a *captApp) confirmCaptionFolder() {
	if a.folder == "" {
		return
	}
	a.saveCurrentCaption()

	images := library.Images(a.items)
	if len(images) == 0 {
		a.statusLabel.SetText("No images to caption in this folder.")
		return
	}
	existing := 0
	for _, item := range images {
		if captions.Exists(item.Path) {
			existing++
		}
	}
	if existing == 0 {
		go a.startCaptionFolder(a.folder, false)
		return
	}
	msg := fmt.Sprintf("%d of %d images already have captions. Regenerate them too?", existing, len(images))
	a.showConfirmWindow("Regenerate Captions", msg,
		func() { go a.startCaptionFolder(a.folder, true) },
		func() { go a.startCaptionFolder(a.folder, false) },
	)
}

func (a *captApp) startCaptionFolder(folder string, overwrite bool) {
	a.setState(StateProcessing)
	a.lastInputPath = folder
	a.lastWasResume = false
	a.lastOverwrite = overwrite
	a.lastSessionLogPath = ""
	a.safeDo("ops.caption.progress_reset", func() {
		a.progressLabel.SetText("Preparing...")
	})

	// Mock flow for debug paths
	if state, ok := debugStateForPath(folder); ok {
		time.Sleep(1 * time.Second)
		a.setState(state)
		return
	}

	apiKey := a.currentAPIKey()
	if apiKey == "" {
		a.flashRed()
		a.setState(StateNoKey)
		return
	}

	var done atomic.Int64
	cfg := pipeline.Config{
		RootDir:     folder,
		Provider:    a.config.Provider,
		APIKey:      apiKey,
		Model:       a.config.Model,
		Concurrency: a.config.Concurrency,
		Preset:      a.activePreset(),
		Overwrite:   overwrite,
		// The question was already asked in the UI.
		OnConfirmOverwrite: func(int) bool { return true },
		OnProgress: func(p captioner.Progress) {
			switch p.State {
			case captioner.StateCompleted:
				n := done.Add(1)
				total := p.TotalItems
				a.safeDo("ops.caption.progress", func() {
					a.progressLabel.SetText(fmt.Sprintf("Captioned %d of %d", n, total))
				})
			case captioner.StateInProgress:
				logger.Info("Retrying caption", "path", p.Path, "attempt", p.Attempt)
			}
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancelID := a.setActiveCancel(cancel)
	a.safeGo("ops.caption_folder", func() {
		defer a.clearActiveCancel(cancelID)
		result, err := pipeline.RunCaptioning(ctx, cfg)
		a.refreshAfterBatch()
		a.lastSessionLogPath = result.SessionLogPath
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				a.setState(StateCanceled)
				return
			}
			if isModelNotFound(err) {
				a.safeDo("ops.caption.model_not_found_dialog", func() {
					dialog.ShowError(fmt.Errorf("Model not found or no access. Please choose a different model in Settings."), a.window)
				})
			}
			logger.Error("Captioning failed", "error", err)
			a.setState(StateFailure)
			return
		}
		a.setState(stateForCaptionResult(result))
	})
}

func (a *captApp) startResume(logPath string) {
	a.setState(StateProcessing)
	a.lastInputPath = logPath
	a.lastWasResume = true
	a.lastSessionLogPath = logPath
	a.safeDo("ops.resume.progress_reset", func() {
		a.progressLabel.SetText("Preparing...")
	})

	// Mock flow for debug paths
	if state, ok := debugStateForPath(logPath); ok {
		time.Sleep(1 * time.Second)
		a.setState(state)
		return
	}

	apiKey := a.currentAPIKey()
	if apiKey == "" {
		a.flashRed()
		a.setState(StateNoKey)
		return
	}

	var done atomic.Int64
	cfg := pipeline.Config{
		LogPath: logPath,
		APIKey:  apiKey,
		OnProgress: func(p captioner.Progress) {
			if p.State == captioner.StateCompleted {
				n := done.Add(1)
				total := p.TotalItems
				a.safeDo("ops.resume.progress", func() {
					a.progressLabel.SetText(fmt.Sprintf("Captioned %d of %d", n, total))
				})
			}
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancelID := a.setActiveCancel(cancel)
	a.safeGo("ops.resume", func() {
		defer a.clearActiveCancel(cancelID)
		_, err := pipeline.RunResume(ctx, cfg)
		a.refreshAfterBatch()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				a.setState(StateCanceled)
				return
			}
			if isResumePartial(err) {
				a.setState(StatePartialSuccess)
				return
			}
			if isModelNotFound(err) {
				a.safeDo("ops.resume.model_not_found_dialog", func() {
					dialog.ShowError(fmt.Errorf("Model not found or no access. Please choose a different model in Settings."), a.window)
				})
			}
			logger.Error("Resume failed", "error", err)
			a.setState(StateFailure)
			return
		}
		a.setState(StateSuccess)
	})
}

// startCaptionSelected generates a caption for the selected image only and
// puts the result into the caption bar.
func (a *captApp) startCaptionSelected() {
	if a.selected < 0 || a.selected >= len(a.items) {
		return
	}
	item := a.items[a.selected]
	if item.Kind != library.KindImage {
		a.statusLabel.SetText("Captions can only be generated for images.")
		return
	}
	a.saveCurrentCaption()

	apiKey := a.currentAPIKey()
	if apiKey == "" {
		a.flashRed()
		a.setState(StateNoKey)
		return
	}

	preset := a.activePreset()
	provider := a.config.Provider
	model := a.config.Model
	a.generateBtn.Disable()
	a.statusLabel.SetText("Generating caption...")

	ctx, cancel := context.WithCancel(context.Background())
	cancelID := a.setActiveCancel(cancel)
	a.safeGo("ops.caption_one", func() {
		defer a.clearActiveCancel(cancelID)
		caption, err := captionSingle(ctx, provider, apiKey, model, preset, item)
		a.safeDo("ops.caption_one.done", func() {
			a.generateBtn.Enable()
			if err != nil {
				if errors.Is(err, context.Canceled) {
					a.statusLabel.SetText("Caption generation canceled.")
					return
				}
				if isModelNotFound(err) {
					dialog.ShowError(fmt.Errorf("Model not found or no access. Please choose a different model in Settings."), a.window)
				}
				logger.Error("Caption generation failed", "path", item.Path, "error", err)
				a.statusLabel.SetText(apperrors.PublicMessage(err))
				return
			}
			a.statusLabel.SetText("")
			a.setCurrentCaption(item.Path, caption)
		})
	})
}

// captionSingle sends one image straight through the provider client.
func captionSingle(ctx context.Context, provider, apiKey, model string, preset prompts.Preset, item library.Item) (string, error) {
	client, closeClient, err := pipeline.NewCaptionClient(ctx, provider, apiKey, model)
	if err != nil {
		return "", err
	}
	defer closeClient()

	data, err := os.ReadFile(item.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filepath.Base(item.Path), err)
	}

	client.SetSystemInstruction(prompts.SystemPrompt(preset))
	result, err := client.Caption(ctx, gemini.CaptionRequest{
		ImageData: data,
		MIMEType:  library.MIMEForPath(item.Path),
		Prompt:    preset.Prompt,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Caption), nil
}

func isModelNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "model_not_found") {
		return true
	}
	if strings.Contains(msg, "model not found or no access") {
		return true
	}
	if strings.Contains(msg, "does not exist or you do not have access to it") {
		return true
	}
	if strings.Contains(msg, "the model") && strings.Contains(msg, "does not exist") {
		return true
	}
	if strings.Contains(msg, "publisher model") && strings.Contains(msg, "was not found") {
		return true
	}
	if strings.Contains(msg, "models/") && strings.Contains(msg, "not found") && strings.Contains(msg, "generatecontent") {
		return true
	}
	if strings.Contains(msg, "not supported for generatecontent") && strings.Contains(msg, "models/") {
		return true
	}
	return false
}

// isResumePartial reports whether a resume run completed its API work but
// still has failed items left in the session log.
func isResumePartial(err error) bool {
	return err != nil && strings.Contains(err.Error(), "resume finished with")
}

func stateForCaptionResult(result pipeline.CaptionResult) AppState {
	switch result.Status {
	case pipeline.CaptionStatusSuccess:
		return StateSuccess
	case pipeline.CaptionStatusPartialSuccess:
		return StatePartialSuccess
	case pipeline.CaptionStatusFailure:
		return StateFailure
	case pipeline.CaptionStatusSkipped:
		return StateCanceled
	default:
		// Treat empty/unknown status as failure to avoid false-positive success states.
		return StateFailure
	}
}
