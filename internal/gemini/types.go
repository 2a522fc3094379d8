package gemini

// CaptionRequest carries one image and the prompt describing the desired caption.
type CaptionRequest struct {
	// ImageData is the raw encoded image file (JPEG, PNG, WebP...).
	ImageData []byte
	// MIMEType of ImageData, e.g. "image/jpeg".
	MIMEType string
	// Prompt is the user-visible instruction, usually from a style preset.
	Prompt string
}

// CaptionResult is the model's caption plus token accounting.
type CaptionResult struct {
	Caption string
	Usage   UsageMetadata
}

// UsageMetadata holds token usage information.
type UsageMetadata struct {
	PromptTokenCount     int
	CandidatesTokenCount int
	TotalTokenCount      int
}
