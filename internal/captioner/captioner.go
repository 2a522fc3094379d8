// Package captioner runs batch AI captioning over a set of media files.
package captioner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/oukeidos/capt/internal/apperrors"
	"github.com/oukeidos/capt/internal/gemini"
	"github.com/oukeidos/capt/internal/library"
	"github.com/oukeidos/capt/internal/logger"
	"github.com/oukeidos/capt/internal/prompts"
	"github.com/rivo/uniseg"
)

// Engine orchestrates concurrent captioning of many images through one
// provider client.
type Engine struct {
	client      gemini.Captioner
	concurrency int
	preset      prompts.Preset
	usage       gemini.UsageMetadata
	usageMu     sync.Mutex
}

// NewEngine creates an engine for the given provider client.
func NewEngine(client gemini.Captioner, concurrency int, preset prompts.Preset) (*Engine, error) {
	if concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be greater than 0, got %d", concurrency)
	}
	if err := preset.Validate(); err != nil {
		return nil, fmt.Errorf("invalid preset: %w", err)
	}
	return &Engine{
		client:      client,
		concurrency: concurrency,
		preset:      preset,
	}, nil
}

// State represents the current state of one item's captioning.
type State int

const (
	StateStarted State = iota
	StateInProgress
	StateCompleted
	StateCanceled
)

var defaultQPS = 3
var defaultRampUp = 2 * time.Second

// Progress reports per-item captioning updates.
type Progress struct {
	ItemIndex  int
	TotalItems int
	Path       string
	Attempt    int
	State      State
	Error      error
}

func (e *Engine) setSystemInstruction() {
	e.client.SetSystemInstruction(prompts.SystemPrompt(e.preset))
}

// CaptionAll captions every item and returns the captions keyed by item
// index plus the indices that failed after retries.
func (e *Engine) CaptionAll(ctx context.Context, items []library.Item, onProgress func(Progress)) (map[int]string, []int, error) {
	return e.run(ctx, items, nil, onProgress)
}

// CaptionItems captions only the listed indices, used when resuming a
// partially failed session.
func (e *Engine) CaptionItems(ctx context.Context, items []library.Item, indices []int, onProgress func(Progress)) (map[int]string, []int, error) {
	return e.run(ctx, items, indices, onProgress)
}

func (e *Engine) run(ctx context.Context, items []library.Item, indices []int, onProgress func(Progress)) (map[int]string, []int, error) {
	e.setSystemInstruction()

	toCaption := make(map[int]bool, len(items))
	if indices == nil {
		for i := range items {
			toCaption[i] = true
		}
	} else {
		for _, idx := range indices {
			if idx >= 0 && idx < len(items) {
				toCaption[idx] = true
			}
		}
	}

	results := make(map[int]string, len(toCaption))
	processed := make(map[int]bool, len(toCaption))
	var wg sync.WaitGroup
	var mu sync.Mutex

	rateCh, stopRate := newRateLimiter(defaultQPS)
	defer stopRate()

	jobs := make(chan int, len(items))
	for i := range items {
		if toCaption[i] {
			jobs <- i
		}
	}
	close(jobs)

	for w := 0; w < e.concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			if delay := rampDelay(worker, e.concurrency, defaultRampUp); delay > 0 {
				timer := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			}
			for i := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				if rateCh != nil {
					select {
					case <-ctx.Done():
						return
					case <-rateCh:
					}
				}
				item := items[i]

				var err error
				const maxAttempts = 3
				attemptsUsed := 0

				for attempt := 1; attempt <= maxAttempts; attempt++ {
					attemptsUsed = attempt
					if onProgress != nil {
						state := StateStarted
						if attempt > 1 {
							state = StateInProgress
						}
						onProgress(Progress{
							ItemIndex:  i,
							TotalItems: len(items),
							Path:       item.Path,
							Attempt:    attempt,
							State:      state,
							Error:      err,
						})
					}

					var caption string
					caption, err = e.captionOne(ctx, item)
					if err == nil {
						mu.Lock()
						results[i] = caption
						processed[i] = true
						mu.Unlock()

						if onProgress != nil {
							onProgress(Progress{
								ItemIndex:  i,
								TotalItems: len(items),
								Path:       item.Path,
								Attempt:    attempt,
								State:      StateCompleted,
							})
						}
						break
					}

					retry, backoff := retryDecision(ctx, err, attempt, maxAttempts)
					if !retry {
						break
					}
					select {
					case <-ctx.Done():
						return
					case <-time.After(backoff):
					}
				}

				if err != nil {
					if attemptsUsed >= maxAttempts && apperrors.IsRetryable(err) {
						logger.Error("Item failed after maximum retries", "index", i, "attempts", attemptsUsed, "error", err)
					} else {
						logger.Error("Item failed without retry", "index", i, "attempts", attemptsUsed, "error", err)
					}
				}
			}
		}(w)
	}

	wg.Wait()
	if ctx.Err() != nil && onProgress != nil {
		onProgress(Progress{
			ItemIndex:  -1,
			TotalItems: len(items),
			State:      StateCanceled,
			Error:      ctx.Err(),
		})
	}

	var failed []int
	for idx := range toCaption {
		if !processed[idx] {
			failed = append(failed, idx)
		}
	}
	sortInts(failed)
	return results, failed, nil
}

// captionOne reads one image from disk and requests a caption for it.
func (e *Engine) captionOne(ctx context.Context, item library.Item) (string, error) {
	if item.Kind != library.KindImage {
		return "", apperrors.New(apperrors.KindBadRequest, "Only still images can be captioned by the model.", fmt.Errorf("unsupported kind %s: %s", item.Kind, item.Path))
	}
	data, err := os.ReadFile(item.Path)
	if err != nil {
		return "", apperrors.New(apperrors.KindDecode, "Could not read image file.", err)
	}

	resp, err := e.client.Caption(ctx, gemini.CaptionRequest{
		ImageData: data,
		MIMEType:  library.MIMEForPath(item.Path),
		Prompt:    e.preset.Prompt,
	})
	if err != nil {
		return "", err
	}

	e.usageMu.Lock()
	e.usage.PromptTokenCount += resp.Usage.PromptTokenCount
	e.usage.CandidatesTokenCount += resp.Usage.CandidatesTokenCount
	e.usage.TotalTokenCount += resp.Usage.TotalTokenCount
	e.usageMu.Unlock()

	caption := strings.TrimSpace(resp.Caption)
	if err := e.validateCaption(caption); err != nil {
		return "", apperrors.Validation(err)
	}
	return caption, nil
}

func (e *Engine) validateCaption(caption string) error {
	if caption == "" {
		return fmt.Errorf("model returned an empty caption")
	}
	if e.preset.MaxLength > 0 {
		// Allow some slack over the prompted cap before retrying.
		limit := float64(e.preset.MaxLength) * 1.5
		count := uniseg.GraphemeClusterCount(caption)
		if float64(count) > limit {
			return fmt.Errorf("caption too long: %d chars (max %.0f)", count, limit)
		}
	}
	return nil
}

func retryDecision(ctx context.Context, err error, attempt, maxAttempts int) (bool, time.Duration) {
	if err == nil {
		return false, 0
	}
	if attempt >= maxAttempts {
		return false, 0
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false, 0
	}
	if !apperrors.IsRetryable(err) {
		return false, 0
	}
	base := 1 * time.Second
	maxBackoff := 20 * time.Second
	jitterMax := 1 * time.Second

	backoff := base << (attempt - 1)
	if apperrors.IsRateLimit(err) {
		backoff = backoff * 2
	}
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	jitter := time.Duration(rand.Int63n(int64(jitterMax)))
	return true, backoff + jitter
}

func newRateLimiter(qps int) (<-chan time.Time, func()) {
	if qps <= 0 {
		return nil, func() {}
	}
	interval := time.Second / time.Duration(qps)
	ticker := time.NewTicker(interval)
	return ticker.C, ticker.Stop
}

func rampDelay(worker, concurrency int, ramp time.Duration) time.Duration {
	if ramp <= 0 || concurrency <= 1 {
		return 0
	}
	return time.Duration(int64(ramp) * int64(worker) / int64(concurrency-1))
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}

// GetUsage returns the total token usage.
func (e *Engine) GetUsage() gemini.UsageMetadata {
	e.usageMu.Lock()
	defer e.usageMu.Unlock()
	return e.usage
}
