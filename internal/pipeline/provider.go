package pipeline

import (
	"context"
	"fmt"

	"github.com/oukeidos/capt/internal/gemini"
	"github.com/oukeidos/capt/internal/openai"
)

// NewCaptionClient builds the provider client for a session. The returned
// close function must be called when the session ends.
func NewCaptionClient(ctx context.Context, provider, apiKey, model string) (gemini.Captioner, func() error, error) {
	switch provider {
	case ProviderGemini:
		client, err := gemini.NewClient(ctx, apiKey, model)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return client, client.Close, nil
	case ProviderOpenAI:
		client := openai.NewClient(apiKey, model)
		return &openaiCaptioner{client: client}, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// openaiCaptioner adapts the OpenAI client to the shared captioning interface.
type openaiCaptioner struct {
	client *openai.Client
}

func (o *openaiCaptioner) SetSystemInstruction(prompt string) {
	o.client.SetSystemInstruction(prompt)
}

func (o *openaiCaptioner) Caption(ctx context.Context, request gemini.CaptionRequest) (*gemini.CaptionResult, error) {
	caption, usage, err := o.client.CaptionImage(ctx, request.ImageData, request.MIMEType, request.Prompt)
	if err != nil {
		return nil, err
	}
	return &gemini.CaptionResult{
		Caption: caption,
		Usage: gemini.UsageMetadata{
			PromptTokenCount:     usage.InputTokens,
			CandidatesTokenCount: usage.OutputTokens,
			TotalTokenCount:      usage.TotalTokens,
		},
	}, nil
}
