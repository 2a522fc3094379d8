package gemini

import "context"

// MockClient for testing
type MockClient struct {
	Result                *CaptionResult
	Error                 error
	LastRequest           CaptionRequest
	LastSystemInstruction string
}

func (m *MockClient) Caption(ctx context.Context, request CaptionRequest) (*CaptionResult, error) {
	m.LastRequest = request
	return m.Result, m.Error
}

func (m *MockClient) SetSystemInstruction(prompt string) {
	m.LastSystemInstruction = prompt
}
