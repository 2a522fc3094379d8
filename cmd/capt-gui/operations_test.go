package main

import (
	"errors"
	"testing"

	"github.com/oukeidos/capt/internal/pipeline"
)

func TestIsModelNotFound(t *testing.T) {
	cases := []struct {
		msg  string
		want bool
	}{
		{"The model `gpt-5.2` does not exist or you do not have access to it.", true},
		{"code: model_not_found", true},
		{"models/gemini-3-flash-preview is not found for API version v1beta, or is not supported for generateContent", true},
		{"Publisher Model foo was not found or your project does not have access to it.", true},
		{"Gemini model not found or no access (404).", true},
		{"random error", false},
	}
	for _, tc := range cases {
		if got := isModelNotFound(errString(tc.msg)); got != tc.want {
			t.Fatalf("isModelNotFound(%q) = %v, want %v", tc.msg, got, tc.want)
		}
	}
}

func TestIsResumePartial(t *testing.T) {
	if !isResumePartial(errors.New("resume finished with 3 failed items")) {
		t.Fatalf("expected partial for leftover failures")
	}
	if isResumePartial(errors.New("invalid session log")) {
		t.Fatalf("expected non-partial for other errors")
	}
	if isResumePartial(nil) {
		t.Fatalf("expected non-partial for nil")
	}
}

func TestStateForCaptionResult(t *testing.T) {
	cases := []struct {
		name   string
		status pipeline.CaptionStatus
		want   AppState
	}{
		{name: "success", status: pipeline.CaptionStatusSuccess, want: StateSuccess},
		{name: "partial_success", status: pipeline.CaptionStatusPartialSuccess, want: StatePartialSuccess},
		{name: "failure", status: pipeline.CaptionStatusFailure, want: StateFailure},
		{name: "skipped", status: pipeline.CaptionStatusSkipped, want: StateCanceled},
		{name: "unknown", status: pipeline.CaptionStatus(""), want: StateFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := stateForCaptionResult(pipeline.CaptionResult{Status: tc.status})
			if got != tc.want {
				t.Fatalf("stateForCaptionResult(%q) = %v, want %v", tc.status, got, tc.want)
			}
		})
	}
}

func TestPartialSuccessResumeLogPath(t *testing.T) {
	t.Run("uses_stored_session_log_after_batch", func(t *testing.T) {
		app := &captApp{
			lastInputPath:      "/tmp/photos",
			lastSessionLogPath: "/tmp/photos/captions_session.json",
			lastWasResume:      false,
		}
		got := app.partialSuccessResumeLogPath()
		if got != "/tmp/photos/captions_session.json" {
			t.Fatalf("partialSuccessResumeLogPath() = %q, want %q", got, "/tmp/photos/captions_session.json")
		}
	})

	t.Run("uses_current_log_path_when_resume_session", func(t *testing.T) {
		app := &captApp{
			lastInputPath:      "/tmp/current_session.json",
			lastSessionLogPath: "/tmp/old_session.json",
			lastWasResume:      true,
		}
		got := app.partialSuccessResumeLogPath()
		if got != "/tmp/current_session.json" {
			t.Fatalf("partialSuccessResumeLogPath() = %q, want %q", got, "/tmp/current_session.json")
		}
	})

	t.Run("empty_when_no_log_recorded", func(t *testing.T) {
		app := &captApp{lastInputPath: "/tmp/photos"}
		if got := app.partialSuccessResumeLogPath(); got != "" {
			t.Fatalf("partialSuccessResumeLogPath() = %q, want empty", got)
		}
	})
}

type errString string

func (e errString) Error() string { return string(e) }
