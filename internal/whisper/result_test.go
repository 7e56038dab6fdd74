package whisper

import (
	"errors"
	"testing"
)

func TestResultErrAndCompatText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		result  Result
		wantErr error
		compat  string
	}{
		{"ok", Result{Outcome: OutcomeOK, Text: "hi"}, nil, "hi"},
		{"no context", Result{Outcome: OutcomeNoContext, Text: "stale"}, ErrNoContext, ""},
		{"engine failure", Result{Outcome: OutcomeEngineFailure, Status: -3}, ErrEngineFailure, ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.result.Err()
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if got := tc.result.CompatText(); got != tc.compat {
				t.Fatalf("CompatText() = %q, want %q", got, tc.compat)
			}
		})
	}
}

func TestOutcomeString(t *testing.T) {
	if OutcomeEngineFailure.String() != "engine_failure" {
		t.Fatalf("unexpected string %q", OutcomeEngineFailure.String())
	}
	if Outcome(42).String() != "outcome(42)" {
		t.Fatalf("unexpected string %q", Outcome(42).String())
	}
}
