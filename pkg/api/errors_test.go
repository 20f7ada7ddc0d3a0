package api

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestAPIErrorInterface(t *testing.T) {
	var _ error = &APIError{}
}

func TestAPIErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			"with status",
			&APIError{Kind: ErrorKindRateLimited, Status: 429, Message: "slow down"},
			"rate_limited: slow down (HTTP 429)",
		},
		{
			"without status",
			&APIError{Kind: ErrorKindTransportFailure, Message: "connection reset"},
			"transport_failure: connection reset",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("APIError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantKind   ErrorKind
		wantStatus int
	}{
		{"rate limited", NewRateLimitedError(429, "rate limit exceeded"), ErrorKindRateLimited, 429},
		{"quota exceeded", NewQuotaExceededError(402, "insufficient credits"), ErrorKindQuotaExceeded, 402},
		{"transport", NewTransportError(503, "unavailable"), ErrorKindTransportFailure, 503},
		{"transport no status", NewTransportError(0, "reset"), ErrorKindTransportFailure, 0},
		{"malformed", NewMalformedPayloadError("bad json"), ErrorKindMalformedPayload, 0},
		{"garbage", NewDecodeGarbageError("event: ping"), ErrorKindDecodeGarbage, 0},
		{"invalid state", NewInvalidStateError("turn already open"), ErrorKindInvalidState, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", tt.err.Kind, tt.wantKind)
			}
			if tt.err.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", tt.err.Status, tt.wantStatus)
			}
		})
	}
}

func TestErrorKindSurfaced(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want bool
	}{
		{ErrorKindRateLimited, true},
		{ErrorKindQuotaExceeded, true},
		{ErrorKindTransportFailure, true},
		{ErrorKindInvalidState, true},
		{ErrorKindDecodeGarbage, false},
		{ErrorKindMalformedPayload, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.Surfaced(); got != tt.want {
				t.Errorf("%s.Surfaced() = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}

func TestIsKind(t *testing.T) {
	err := NewRateLimitedError(429, "slow down")
	wrapped := fmt.Errorf("sending turn: %w", err)

	if !IsKind(wrapped, ErrorKindRateLimited) {
		t.Error("IsKind(wrapped, rate_limited) = false, want true")
	}
	if IsKind(wrapped, ErrorKindQuotaExceeded) {
		t.Error("IsKind(wrapped, quota_exceeded) = true, want false")
	}
	if IsKind(fmt.Errorf("plain"), ErrorKindRateLimited) {
		t.Error("IsKind(plain error) = true, want false")
	}
	if IsKind(nil, ErrorKindRateLimited) {
		t.Error("IsKind(nil) = true, want false")
	}
}

func TestAPIErrorJSON(t *testing.T) {
	data, err := json.Marshal(NewQuotaExceededError(402, "out of credits"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"kind":"quota_exceeded","status":402,"message":"out of credits"}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}
