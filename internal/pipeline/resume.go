package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/oukeidos/capt/internal/captioner"
	"github.com/oukeidos/capt/internal/captions"
	"github.com/oukeidos/capt/internal/files"
	"github.com/oukeidos/capt/internal/gemini"
	"github.com/oukeidos/capt/internal/library"
	"github.com/oukeidos/capt/internal/logger"
	"github.com/oukeidos/capt/internal/prompts"
)

// ResumeResult contains the result of a resume operation.
type ResumeResult struct {
	Model     string
	Usage     gemini.UsageMetadata
	Captioned int
}

// RunResume re-captions the failed items recorded in a session log.
func RunResume(ctx context.Context, cfg Config) (ResumeResult, error) {
	// 1. Validation & Load Log
	if cfg.LogPath == "" {
		return ResumeResult{}, fmt.Errorf("session log path is required for resume")
	}

	logFile, origHash, err := captioner.LoadSessionLogWithHash(cfg.LogPath)
	if err != nil {
		return ResumeResult{}, fmt.Errorf("failed to load session log: %w", err)
	}
	if err := logFile.Validate(); err != nil {
		return ResumeResult{}, fmt.Errorf("invalid session log: %w", err)
	}
	if err := cfg.ValidateResumeRuntime(); err != nil {
		return ResumeResult{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := files.RejectSymlinkPath(cfg.LogPath); err != nil {
		return ResumeResult{}, err
	}

	rootDir := captioner.ResolvePath(cfg.LogPath, logFile.RootDir)
	if info, err := os.Stat(rootDir); err != nil || !info.IsDir() {
		return ResumeResult{}, fmt.Errorf("invalid session log: folder not found: %s", logFile.RootDir)
	}

	// 2. Re-resolve failed items and detect files edited since the session.
	items := make([]library.Item, 0, len(logFile.FailedItems))
	for _, failedItem := range logFile.FailedItems {
		path := captioner.ResolvePath(cfg.LogPath, failedItem.Path)
		info, err := os.Stat(path)
		if err != nil {
			logger.Warn("Failed item no longer exists, skipping", "path", failedItem.Path)
			continue
		}
		if failedItem.Hash != "" {
			hash, err := captioner.HashFileHex(path)
			if err != nil {
				return ResumeResult{}, fmt.Errorf("failed to hash %s: %w", failedItem.Path, err)
			}
			if hash != failedItem.Hash {
				logger.Warn("File changed since the session was recorded", "path", failedItem.Path)
			}
		}
		kind, ok := library.KindForPath(path)
		if !ok {
			continue
		}
		items = append(items, library.Item{Path: path, Kind: kind, Size: info.Size(), ModTime: info.ModTime()})
	}
	if len(items) == 0 {
		return ResumeResult{}, fmt.Errorf("no failed items left to resume")
	}

	// 3. Setup Client & Engine
	// Use provider and model from the log, but the API key from config (runtime).
	preset := cfg.Preset
	if preset.Name == "" && logFile.PresetName != "" {
		if found, ok := prompts.Find(prompts.BuiltIn(), logFile.PresetName); ok {
			preset = found
		}
	}
	if preset.Name == "" {
		preset = prompts.BuiltIn()[0]
	}

	client, closeClient, err := NewCaptionClient(ctx, logFile.Provider, cfg.APIKey, logFile.Model)
	if err != nil {
		return ResumeResult{}, err
	}
	defer closeClient()

	engine, err := captioner.NewEngine(client, logFile.Concurrency, preset)
	if err != nil {
		return ResumeResult{}, fmt.Errorf("failed to initialize captioner: %w", err)
	}

	// 4. Resume
	logger.Info("Resuming captioning", "model", logFile.Model, "failed_items", len(items))
	results, failed, err := engine.CaptionAll(ctx, items, cfg.OnProgress)
	if err != nil {
		return ResumeResult{}, fmt.Errorf("resume failed: %w", err)
	}

	saved := 0
	stillFailed := make(map[string]bool, len(failed))
	for _, idx := range failed {
		stillFailed[items[idx].Path] = true
	}
	for idx, caption := range results {
		if err := captions.Save(items[idx].Path, caption); err != nil {
			logger.Error("Failed to save caption", "path", items[idx].Path, "error", err)
			stillFailed[items[idx].Path] = true
			continue
		}
		saved++
	}

	result := ResumeResult{Model: logFile.Model, Usage: engine.GetUsage(), Captioned: saved}

	// 5. Handle Results
	if len(stillFailed) == 0 {
		logger.Info("Resume finished", "status", "Success")

		// Clean up log file on success
		if currentHash, err := captioner.HashFile(cfg.LogPath); err != nil {
			logger.Warn("Failed to read session log for verification", "path", cfg.LogPath, "error", err)
		} else if currentHash != origHash {
			logger.Warn("Session log content changed; skipping delete", "path", cfg.LogPath)
		} else if err := os.Remove(cfg.LogPath); err != nil {
			logger.Warn("Failed to remove session log after success", "path", cfg.LogPath, "error", err)
		}
		return result, nil
	}

	status := captioner.CalculateStatus(len(stillFailed), logFile.TotalItems)
	logger.Info("Resume finished", "status", status)

	remaining := make([]captioner.FailedItem, 0, len(stillFailed))
	for _, item := range logFile.FailedItems {
		path := captioner.ResolvePath(cfg.LogPath, item.Path)
		if stillFailed[path] {
			remaining = append(remaining, item)
		}
	}
	logFile.FailedItems = remaining
	logFile.Status = status
	if err := captioner.SaveSessionLog(cfg.LogPath, logFile); err != nil {
		logger.Error("Failed to update session log", "error", err)
	} else {
		logger.Warn("Partial resume - session log updated", "path", cfg.LogPath)
	}
	return result, fmt.Errorf("resume finished with %d failed items", len(stillFailed))
}
