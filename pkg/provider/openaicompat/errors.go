package openaicompat

import (
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/rhuss/chatstream/pkg/api"
)

// maxErrorBody bounds how much of an error response body is read.
const maxErrorBody = 4096

// MapNetworkError converts a network-level error (connection refused, timeout,
// DNS resolution failure) into an APIError with a descriptive message.
func MapNetworkError(err error) *api.APIError {
	return api.NewTransportError(0, fmt.Sprintf("backend connection error: %s", err.Error()))
}

// ExtractErrorMessage reads up to 4 KiB of body and returns the backend's
// error message ("error.message", or a plain string "error"), if any.
func ExtractErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 || !gjson.ValidBytes(data) {
		return ""
	}

	if msg := gjson.GetBytes(data, "error.message"); msg.Type == gjson.String && msg.Str != "" {
		return msg.Str
	}
	if msg := gjson.GetBytes(data, "error"); msg.Type == gjson.String {
		return msg.Str
	}
	return ""
}

// StatusMessage returns the backend's error message for resp, falling back
// to a generic description of the status code.
func StatusMessage(resp *http.Response, fallback string) string {
	if resp.Body != nil {
		if msg := ExtractErrorMessage(resp.Body); msg != "" {
			return msg
		}
	}
	if fallback != "" {
		return fallback
	}
	return fmt.Sprintf("unexpected backend status (HTTP %d)", resp.StatusCode)
}
