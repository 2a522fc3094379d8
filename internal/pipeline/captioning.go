package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/oukeidos/capt/internal/captioner"
	"github.com/oukeidos/capt/internal/captions"
	"github.com/oukeidos/capt/internal/files"
	"github.com/oukeidos/capt/internal/library"
	"github.com/oukeidos/capt/internal/logger"
)

// RunCaptioning executes the full batch captioning pipeline over a folder.
func RunCaptioning(ctx context.Context, cfg Config) (CaptionResult, error) {
	var notes []string
	cfg, notes = cfg.Normalize()
	for _, note := range notes {
		logger.Warn("Config normalized", "detail", note)
	}
	if err := cfg.Validate(); err != nil {
		return CaptionResult{}, fmt.Errorf("invalid configuration: %w", err)
	}

	// 1. Validation & Setup
	absRoot, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return CaptionResult{}, fmt.Errorf("failed to resolve folder path: %w", err)
	}
	if err := files.RejectSymlinkPath(absRoot); err != nil {
		return CaptionResult{}, err
	}

	items, err := library.Scan(absRoot)
	if err != nil {
		return CaptionResult{}, fmt.Errorf("failed to scan folder: %w", err)
	}
	images := library.Images(items)
	logger.Info("Scanned folder", "path", absRoot, "media", len(items), "images", len(images))
	if len(images) == 0 {
		return CaptionResult{Status: CaptionStatusSkipped, Model: cfg.Model}, nil
	}

	// 2. Select targets: skip files that already have a caption unless
	// the user asked to regenerate them.
	var targets []library.Item
	existing := 0
	for _, item := range images {
		if captions.Exists(item.Path) {
			existing++
			if !cfg.Overwrite {
				continue
			}
		}
		targets = append(targets, item)
	}
	if cfg.Overwrite && existing > 0 && cfg.OnConfirmOverwrite != nil {
		if !cfg.OnConfirmOverwrite(existing) {
			logger.Info("Existing captions kept. Aborted by user.", "count", existing)
			return CaptionResult{Status: CaptionStatusSkipped, Model: cfg.Model}, nil
		}
	}
	if len(targets) == 0 {
		logger.Info("All images already captioned", "count", existing)
		return CaptionResult{Status: CaptionStatusSkipped, Model: cfg.Model, TotalItems: len(images)}, nil
	}
	if existing > 0 && !cfg.Overwrite {
		logger.Info("Skipping already captioned images", "count", existing)
	}

	// 3. Initialize Client & Engine
	client, closeClient, err := NewCaptionClient(ctx, cfg.Provider, cfg.APIKey, cfg.Model)
	if err != nil {
		return CaptionResult{}, err
	}
	defer closeClient()

	engine, err := captioner.NewEngine(client, cfg.Concurrency, cfg.Preset)
	if err != nil {
		return CaptionResult{}, fmt.Errorf("failed to initialize captioner: %w", err)
	}

	// 4. Caption
	logger.Info("Starting captioning", "provider", cfg.Provider, "model", cfg.Model, "items", len(targets))
	results, failed, err := engine.CaptionAll(ctx, targets, cfg.OnProgress)
	if err != nil {
		return CaptionResult{Usage: engine.GetUsage()}, fmt.Errorf("fatal captioning error: %w", err)
	}

	// 5. Save captions next to their media files
	failedSet := make(map[int]bool, len(failed))
	for _, idx := range failed {
		failedSet[idx] = true
	}
	saved := 0
	for idx, caption := range results {
		if err := captions.Save(targets[idx].Path, caption); err != nil {
			logger.Error("Failed to save caption", "path", targets[idx].Path, "error", err)
			failedSet[idx] = true
			continue
		}
		saved++
	}
	failed = failed[:0]
	for idx := range failedSet {
		failed = append(failed, idx)
	}
	sort.Ints(failed)

	status := captionStatusFromSession(captioner.CalculateStatus(len(failed), len(targets)))
	result := CaptionResult{
		Status:      status,
		Model:       cfg.Model,
		Usage:       engine.GetUsage(),
		Captioned:   saved,
		FailedItems: len(failed),
		TotalItems:  len(targets),
	}
	logger.Info("Captioning finished", "status", status, "captioned", saved, "failed", len(failed))
	canceled := ctx.Err() != nil

	// 6. Session log for resume on partial results
	if status == CaptionStatusPartialSuccess || status == CaptionStatusFailure {
		logPath := captioner.GenerateSessionPath(absRoot)

		session, err := buildSessionLog(logPath, absRoot, cfg, targets, failed)
		if err != nil {
			return result, err
		}
		session.Status = string(status)
		if canceled {
			session.StatusReason = "canceled"
		}
		if err := captioner.SaveSessionLog(logPath, session); err != nil {
			logger.Error("Failed to save session log", "error", err)
		} else {
			if status == CaptionStatusPartialSuccess {
				logger.Warn("Partial success - session log saved", "path", logPath)
			} else {
				logger.Error("Captioning failed - session log saved", "path", logPath)
			}
		}
		result.SessionLogPath = logPath
	}

	return result, nil
}

func buildSessionLog(logPath, absRoot string, cfg Config, targets []library.Item, failed []int) (*captioner.SessionLog, error) {
	relRoot, err := captioner.ToRelativePath(logPath, absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to convert folder path to relative: %w", err)
	}

	failedItems := make([]captioner.FailedItem, 0, len(failed))
	for _, idx := range failed {
		item := targets[idx]
		relPath, err := captioner.ToRelativePath(logPath, item.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to convert item path to relative: %w", err)
		}
		hash, err := captioner.HashFileHex(item.Path)
		if err != nil {
			// The file may have vanished mid-session; keep it resumable.
			logger.Warn("Failed to hash failed item", "path", item.Path, "error", err)
			hash = ""
		}
		failedItems = append(failedItems, captioner.FailedItem{Path: relPath, Hash: hash})
	}

	return &captioner.SessionLog{
		LogVersion:  captioner.CurrentLogVersion,
		RootDir:     relRoot,
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		PresetName:  cfg.Preset.Name,
		Concurrency: cfg.Concurrency,
		Overwrite:   cfg.Overwrite,
		FailedItems: failedItems,
		TotalItems:  len(targets),
	}, nil
}
