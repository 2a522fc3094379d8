package pipeline

import "github.com/oukeidos/capt/internal/gemini"

// CaptionStatus is the terminal state of a captioning run.
type CaptionStatus string

const (
	CaptionStatusSuccess        CaptionStatus = "Success"
	CaptionStatusPartialSuccess CaptionStatus = "Partial Success"
	CaptionStatusFailure        CaptionStatus = "Failure"
	CaptionStatusSkipped        CaptionStatus = "Skipped"
)

// CaptionResult contains structured outputs from RunCaptioning.
type CaptionResult struct {
	Status         CaptionStatus
	SessionLogPath string
	Model          string
	Usage          gemini.UsageMetadata
	Captioned      int
	FailedItems    int
	TotalItems     int
}

func captionStatusFromSession(status string) CaptionStatus {
	switch status {
	case string(CaptionStatusSuccess):
		return CaptionStatusSuccess
	case string(CaptionStatusPartialSuccess):
		return CaptionStatusPartialSuccess
	case string(CaptionStatusFailure):
		return CaptionStatusFailure
	default:
		return CaptionStatusFailure
	}
}
