package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/oukeidos/capt/internal/auth"
	"github.com/oukeidos/capt/internal/gemini"
	"github.com/oukeidos/capt/internal/logger"
	"github.com/oukeidos/capt/internal/metadata"
	"github.com/oukeidos/capt/internal/prompts"
	"golang.org/x/term"
)

var (
	isTerminal   = term.IsTerminal
	getKey       = auth.GetKey
	getEnvKey    = auth.GetEnvKey
	getStatus    = auth.GetStatus
	promptForKey = auth.PromptForAPIKey
)

// resolveAPIKey handles the logic for finding the API key.
func resolveAPIKey(service string, allowEnv, envOnly bool) (string, string, error) {
	if envOnly {
		allowEnv = true
	}
	if envOnly {
		if key, ok := getEnvKey(service); ok {
			return key, "Environment Variable", nil
		}
		return "", "", fmt.Errorf("env-only set but %s_API_KEY is not set", strings.ToUpper(service))
	}

	if key, source := getKey(service, false); key != "" {
		return key, source, nil
	}

	if allowEnv {
		if key, ok := getEnvKey(service); ok {
			return key, "Environment Variable", nil
		}
	}

	if isTerminal(int(os.Stdin.Fd())) {
		svcName := "Gemini"
		if service == "openai" {
			svcName = "OpenAI"
		}
		key, err := promptForKey(fmt.Sprintf("%s API Key (press Enter to skip): ", svcName))
		if err != nil {
			return "", "", fmt.Errorf("error reading API key: %w", err)
		}
		if strings.TrimSpace(key) != "" {
			return strings.TrimSpace(key), "Terminal Prompt", nil
		}
	}

	if !isTerminal(int(os.Stdin.Fd())) {
		return "", "", fmt.Errorf("no API key available (non-interactive shell); set keychain or use --allow-env")
	}
	if allowEnv {
		return "", "", fmt.Errorf("API key is required; not found in keychain or environment")
	}
	return "", "", fmt.Errorf("API key is required; not found in keychain (environment disabled by default; use --allow-env)")
}

// resolvePreset finds a caption preset by name among the built-in presets
// plus an optional user presets file.
func resolvePreset(name, presetsPath string) (prompts.Preset, error) {
	available := prompts.BuiltIn()
	if presetsPath != "" {
		user, err := prompts.LoadFile(presetsPath)
		if err != nil {
			return prompts.Preset{}, err
		}
		available = append(available, user...)
	}
	if name == "" {
		return available[0], nil
	}
	if p, ok := prompts.Find(available, name); ok {
		return p, nil
	}
	names := make([]string, 0, len(available))
	for _, p := range available {
		names = append(names, p.Name)
	}
	return prompts.Preset{}, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(names, ", "))
}

func printUsageStats(usage *gemini.UsageMetadata, duration time.Duration, provider, model string) {
	fmt.Println("\n--- Execution Stats ---")
	fmt.Printf("Time: %s\n", duration)
	fmt.Printf("Model: %s\n", model)
	if usage != nil && usage.TotalTokenCount > 0 {
		fmt.Printf("Tokens: In=%d, Out=%d, Total=%d\n",
			usage.PromptTokenCount, usage.CandidatesTokenCount, usage.TotalTokenCount)

		// Reasoning tokens are billed as output tokens.
		// Reasoning Tokens = Total - (Prompt + Candidates)
		reasoningTokens := usage.TotalTokenCount - (usage.PromptTokenCount + usage.CandidatesTokenCount)
		if reasoningTokens < 0 {
			reasoningTokens = 0
		}
		billableOutput := usage.CandidatesTokenCount + reasoningTokens

		var inRate, outRate float64
		if provider == "openai" {
			pricing, _ := metadata.OpenAIPricing(model)
			inRate = pricing.InputPerMillion
			outRate = pricing.OutputPerMillion
		} else {
			pricing, _ := metadata.GeminiPricing(model)
			inRate = pricing.InputPerMillion
			outRate = pricing.OutputPerMillion
		}

		inCost := (float64(usage.PromptTokenCount) / 1_000_000) * inRate
		outCost := (float64(billableOutput) / 1_000_000) * outRate

		fmt.Printf("Estimated Cost: $%.5f (Reasoning Tokens: %d)\n", inCost+outCost, reasoningTokens)
	}
}

func signalContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn("Cancellation requested")
		cancel()
	}()
	stop := func() {
		signal.Stop(sigCh)
		cancel()
	}
	return ctx, stop
}
