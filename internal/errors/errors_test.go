package errors

import (
	"errors"
	"testing"
)

func TestErrorString(t *testing.T) {
	err := New(CodeNetworkFailure, "connection refused")
	want := "[NETWORK_FAILURE] connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(cause, CodeNetworkFailure, "transcription call failed")

	if !errors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap() should return cause")
	}
}

func TestIsCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"direct match", New(CodeEmptyTranscript, "nothing heard"), CodeEmptyTranscript, true},
		{"no match", New(CodeEmptyTranscript, "nothing heard"), CodeStorageCorrupt, false},
		{"nested match", Wrap(New(CodeTimeout, "deadline"), CodeNetworkFailure, "call failed"), CodeTimeout, true},
		{"plain error", errors.New("plain"), CodeTimeout, false},
		{"nil", nil, CodeTimeout, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCode(tt.err, tt.code); got != tt.want {
				t.Errorf("IsCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithMetadata(t *testing.T) {
	err := New(CodeMalformedResponse, "bad body").WithMetadata("stage", "analysis")
	if err.Metadata["stage"] != "analysis" {
		t.Errorf("metadata stage = %q, want %q", err.Metadata["stage"], "analysis")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(New(CodeUnavailable, "down")) {
		t.Error("UNAVAILABLE should be retryable")
	}
	if !IsRetryable(New(CodeNetworkFailure, "refused")) {
		t.Error("NETWORK_FAILURE should be retryable")
	}
	if IsRetryable(New(CodePermissionDenied, "mic blocked")) {
		t.Error("PERMISSION_DENIED should not be retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("plain error should not be retryable")
	}
}

func TestCodeOf(t *testing.T) {
	if CodeOf(New(CodeStorageCorrupt, "bad json")) != CodeStorageCorrupt {
		t.Error("CodeOf should return the outer code")
	}
	if CodeOf(errors.New("plain")) != CodeUnknown {
		t.Error("CodeOf of a plain error should be UNKNOWN")
	}
}
