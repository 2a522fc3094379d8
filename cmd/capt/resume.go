package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/oukeidos/capt/internal/captioner"
	"github.com/oukeidos/capt/internal/logger"
	"github.com/oukeidos/capt/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	runResumePipeline    = pipeline.RunResume
	printResumeStatsFunc = printUsageStats
)

type resumeOptions struct {
	presetName  string
	presetsPath string
	allowEnv    bool
	envOnly     bool
	debug       bool
}

func newResumeCmd() *cobra.Command {
	opts := resumeOptions{}
	cmd := &cobra.Command{
		Use:   "resume <captions_session.json>",
		Short: "Resume a failed captioning run using a session log",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				_ = cmd.Usage()
				return fmt.Errorf("captions_session.json is required")
			}
			return runResume(cmd, args, &opts)
		},
		SilenceUsage: true,
	}

	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().StringVar(&opts.presetName, "preset", "", "Override the preset recorded in the session log")
	cmd.Flags().StringVar(&opts.presetsPath, "presets-file", "", "Path to a user presets JSON file")
	cmd.Flags().BoolVar(&opts.allowEnv, "allow-env", false, "Allow reading API key from environment variables")
	cmd.Flags().BoolVar(&opts.envOnly, "env-only", false, "Use only environment variables for API keys")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	return cmd
}

func runResume(cmd *cobra.Command, args []string, opts *resumeOptions) error {
	startTime := time.Now()
	logPath := args[0]

	logLevel := logger.LevelInfo
	if opts.debug {
		logLevel = logger.LevelDebug
	}
	logger.Init(logLevel, nil)

	// The provider comes from the session log; peek at it to resolve the
	// matching API key.
	logFile, err := captioner.LoadSessionLog(logPath)
	if err != nil {
		return fmt.Errorf("failed to load session log: %w", err)
	}
	if err := logFile.Validate(); err != nil {
		return fmt.Errorf("invalid session log: %w", err)
	}

	actualKey, source, err := resolveAPIKey(logFile.Provider, opts.allowEnv, opts.envOnly)
	if err != nil {
		return err
	}
	logger.Info("Using API Key", "service", logFile.Provider, "source", source)

	cfg := pipeline.Config{
		LogPath: logPath,
		APIKey:  actualKey,
		OnProgress: func(p captioner.Progress) {
			switch p.State {
			case captioner.StateCompleted:
				logger.Info("Caption completed", "path", p.Path)
			case captioner.StateInProgress:
				logger.Warn("Caption retry", "path", p.Path, "attempt", p.Attempt, "error", p.Error)
			}
		},
	}
	if opts.presetName != "" {
		preset, err := resolvePreset(opts.presetName, opts.presetsPath)
		if err != nil {
			return err
		}
		cfg.Preset = preset
	}

	ctx, stop := signalContext()
	defer stop()
	result, err := runResumePipeline(ctx, cfg)

	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("Resume canceled", "error", err)
			return nil
		}
		if shouldPrintResumeStats(result) {
			printResumeStatsFunc(&result.Usage, time.Since(startTime), logFile.Provider, result.Model)
		}
		return err
	}
	printResumeStatsFunc(&result.Usage, time.Since(startTime), logFile.Provider, result.Model)

	return nil
}

func shouldPrintResumeStats(result pipeline.ResumeResult) bool {
	if strings.TrimSpace(result.Model) != "" {
		return true
	}
	usage := result.Usage
	return usage.PromptTokenCount > 0 ||
		usage.CandidatesTokenCount > 0 ||
		usage.TotalTokenCount > 0
}
