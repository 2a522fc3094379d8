package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oukeidos/capt/internal/captioner"
	"github.com/oukeidos/capt/internal/captions"
	"github.com/oukeidos/capt/internal/cleanup"
	"github.com/oukeidos/capt/internal/files"
	"github.com/oukeidos/capt/internal/library"
	"github.com/oukeidos/capt/internal/logger"
	"github.com/oukeidos/capt/internal/pipeline"
	"github.com/oukeidos/capt/internal/prompt"
	"github.com/spf13/cobra"
)

type captionOptions struct {
	provider    string
	modelName   string
	concurrency int
	presetName  string
	presetsPath string
	yes         bool
	logFilePath string
	allowEnv    bool
	envOnly     bool
	debug       bool
}

func newCaptionCmd() *cobra.Command {
	opts := captionOptions{}
	cmd := &cobra.Command{
		Use:   "caption <folder>",
		Short: "Generate captions for every image in a folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				_ = cmd.Usage()
				return fmt.Errorf("media folder is required")
			}
			return runCaption(cmd, args, &opts)
		},
		SilenceUsage: true,
	}

	cmd.SetUsageTemplate(subcommandUsageTemplate)
	addCaptionFlags(cmd, &opts)
	return cmd
}

func addCaptionFlags(cmd *cobra.Command, opts *captionOptions) {
	cmd.Flags().StringVar(&opts.provider, "provider", "gemini", "Caption provider (gemini or openai)")
	cmd.Flags().StringVar(&opts.modelName, "model", "", "Model name (default depends on provider)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 3, "Number of concurrent API requests (1-20)")
	cmd.Flags().StringVar(&opts.presetName, "preset", "", "Caption style preset name (default: Descriptive)")
	cmd.Flags().StringVar(&opts.presetsPath, "presets-file", "", "Path to a user presets JSON file")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Regenerate existing captions without asking")
	cmd.Flags().StringVar(&opts.logFilePath, "log-file", "", "Path to save machine-readable JSONL logs")
	cmd.Flags().BoolVar(&opts.allowEnv, "allow-env", false, "Allow reading API key from environment variables")
	cmd.Flags().BoolVar(&opts.envOnly, "env-only", false, "Use only environment variables for API keys")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
}

func defaultModelForProvider(provider string) string {
	if provider == "openai" {
		return "gpt-5.2"
	}
	return "gemini-3-flash-preview"
}

func runCaption(cmd *cobra.Command, args []string, opts *captionOptions) error {
	if len(args) < 1 {
		return fmt.Errorf("media folder is required")
	}
	if len(args) > 1 {
		fmt.Fprintf(os.Stderr, "Warning: expected 1 argument but got %d. Did you forget quotes around the folder path?\n", len(args))
		fmt.Fprintf(os.Stderr, "  Using folder: %s\n", args[0])
	}

	logLevel := logger.LevelInfo
	if opts.debug {
		logLevel = logger.LevelDebug
	}
	var logFileW io.Writer
	if opts.logFilePath != "" {
		if err := files.RejectSymlinkPath(opts.logFilePath); err != nil {
			return err
		}
		f, err := os.OpenFile(opts.logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		cleanup.Register(f.Close)
		logFileW = f
	}
	logger.Init(logLevel, logFileW)

	startTime := time.Now()

	model := opts.modelName
	if model == "" {
		model = defaultModelForProvider(opts.provider)
	}

	actualKey, source, err := resolveAPIKey(opts.provider, opts.allowEnv, opts.envOnly)
	if err != nil {
		return err
	}
	logger.Info("Using API Key", "service", opts.provider, "source", source)

	preset, err := resolvePreset(opts.presetName, opts.presetsPath)
	if err != nil {
		return err
	}
	logger.Info("Using caption preset", "name", preset.Name)

	overwrite := opts.yes
	if !overwrite {
		overwrite, err = confirmRegenerate(args[0], prompt.DefaultConfirmer())
		if err != nil {
			return err
		}
	}

	cfg := pipeline.Config{
		RootDir:     args[0],
		Provider:    opts.provider,
		APIKey:      actualKey,
		Model:       model,
		Concurrency: opts.concurrency,
		Preset:      preset,
		Overwrite:   overwrite,
		OnProgress: func(p captioner.Progress) {
			switch p.State {
			case captioner.StateCompleted:
				logger.Info("Caption completed", "path", p.Path, "index", p.ItemIndex, "total", p.TotalItems)
			case captioner.StateInProgress:
				logger.Warn("Caption retry", "path", p.Path, "attempt", p.Attempt, "error", p.Error)
			}
		},
		OnConfirmOverwrite: func(count int) bool {
			// The question was already answered before the run started.
			return true
		},
	}

	ctx, stop := signalContext()
	defer stop()
	result, err := pipeline.RunCaptioning(ctx, cfg)

	// Always print stats (even on partial success)
	printUsageStats(&result.Usage, time.Since(startTime), opts.provider, model)

	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("Captioning canceled", "error", err)
			return nil
		}
		return err
	}

	return captionStatusError(result)
}

// confirmRegenerate asks whether images that already have captions should be
// regenerated. With nothing captioned yet there is nothing to ask; a
// non-interactive run keeps existing captions and only fills the gaps.
func confirmRegenerate(dir string, confirmer prompt.Confirmer) (bool, error) {
	items, err := library.Scan(dir)
	if err != nil {
		return false, err
	}
	existing := 0
	for _, item := range library.Images(items) {
		if captions.Exists(item.Path) {
			existing++
		}
	}
	if existing == 0 {
		return false, nil
	}
	confirmed, err := confirmer.Confirm(
		fmt.Sprintf("Warning: %d images already have captions. Regenerate them? (y/n): ", existing), false)
	if err != nil {
		logger.Info("Keeping existing captions", "count", existing, "reason", err)
		return false, nil
	}
	return confirmed, nil
}

func captionStatusError(result pipeline.CaptionResult) error {
	switch result.Status {
	case pipeline.CaptionStatusSuccess:
		return nil
	case pipeline.CaptionStatusSkipped:
		return nil
	case pipeline.CaptionStatusPartialSuccess, pipeline.CaptionStatusFailure:
		if result.SessionLogPath != "" {
			return fmt.Errorf("captioning finished with status: %s (session log: %s)", result.Status, result.SessionLogPath)
		}
		return fmt.Errorf("captioning finished with status: %s", result.Status)
	default:
		return fmt.Errorf("captioning finished with unknown status: %q", result.Status)
	}
}
