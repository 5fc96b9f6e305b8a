package filemaker

import (
	"fmt"
	"log/slog"
)

// APIError describes a failed Data API call. StatusCode is zero when no response was received.
type APIError struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
	Body       string
	Cause      error
}

func (e *APIError) Error() string {
	switch {
	case e.Cause != nil:
		return fmt.Sprintf("filemaker %s: %v", e.Op, e.Cause)
	case e.Code != "":
		return fmt.Sprintf("filemaker %s: status %d: code %s: %s", e.Op, e.StatusCode, e.Code, e.Message)
	default:
		return fmt.Sprintf("filemaker %s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
}

func (e *APIError) Unwrap() error { return e.Cause }

// HTTPStatus returns the HTTP status code of the failed call.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

// ResponseBody returns the (truncated) response body of the failed call.
func (e *APIError) ResponseBody() string { return e.Body }

// LogValue implements slog.LogValuer.
func (e *APIError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("op", e.Op),
		slog.Int("statusCode", e.StatusCode),
		slog.String("code", e.Code),
		slog.String("message", e.Message),
		slog.String("body", e.Body),
	)
}
