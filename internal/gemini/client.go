package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/oukeidos/capt/internal/apperrors"
	"github.com/oukeidos/capt/internal/httpclient"
	"google.golang.org/api/option"
)

// Client handles communication with the Gemini API.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, apiKey string, modelName string) (*Client, error) {
	// Note: We avoid using option.WithHTTPClient because it interferes with the genai library's
	// internal header injection for API keys, causing 403 errors.
	// Instead, we enforce timeouts via context in the Caption method.
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "text/plain"

	return &Client{
		client: client,
		model:  model,
	}, nil
}

// Close closes the underlying genai client.
func (c *Client) Close() error {
	return c.client.Close()
}

// SetSystemInstruction sets the system prompt for the model.
func (c *Client) SetSystemInstruction(prompt string) {
	c.model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(prompt)},
	}
}

// Captioner interface for mocking and dependency injection.
type Captioner interface {
	Caption(ctx context.Context, request CaptionRequest) (*CaptionResult, error)
	SetSystemInstruction(prompt string)
}

// Ensure Client implements Captioner
var _ Captioner = (*Client)(nil)

// Caption sends an image to Gemini and returns the generated caption.
func (c *Client) Caption(ctx context.Context, request CaptionRequest) (*CaptionResult, error) {
	// Enforce default timeout to prevent indefinite hangs, since we are not using a custom HTTP client with timeout.
	ctx, cancel := context.WithTimeout(ctx, httpclient.DefaultTimeout)
	defer cancel()

	if len(request.ImageData) == 0 {
		return nil, apperrors.New(apperrors.KindBadRequest, "Image data is empty.", nil)
	}
	mime := request.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}

	resp, err := c.model.GenerateContent(ctx,
		genai.Blob{MIMEType: mime, Data: request.ImageData},
		genai.Text(request.Prompt),
	)
	if err != nil {
		return nil, classifyGeminiError(err)
	}

	text, err := extractResponseText(resp)
	if err != nil {
		return nil, apperrors.Validation(err)
	}
	caption := strings.TrimSpace(text)
	if caption == "" {
		return nil, apperrors.Validation(fmt.Errorf("model returned an empty caption"))
	}

	result := &CaptionResult{Caption: caption}
	if resp.UsageMetadata != nil {
		result.Usage = UsageMetadata{
			PromptTokenCount:     int(resp.UsageMetadata.PromptTokenCount),
			CandidatesTokenCount: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokenCount:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return result, nil
}

func extractResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("no response received from Gemini")
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}
	for i, candidate := range resp.Candidates {
		if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
			continue
		}
		var combined string
		for _, part := range candidate.Content.Parts {
			text, ok := part.(genai.Text)
			if !ok {
				continue
			}
			combined += string(text)
		}
		if combined != "" {
			return combined, nil
		}
		if i == len(resp.Candidates)-1 {
			break
		}
	}
	return "", fmt.Errorf("no text parts found in Gemini response")
}
