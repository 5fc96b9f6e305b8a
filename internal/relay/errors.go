package relay

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
)

// Kind names a class of recovered failure.
type Kind string

const (
	KindParse         Kind = "parse"
	KindUpstreamFetch Kind = "upstream_fetch"
	KindAuth          Kind = "auth"
	KindWrite         Kind = "write"
	KindTeardown      Kind = "teardown"
)

// Failure is implemented by every recovered relay error.
type Failure interface {
	error
	Kind() Kind
}

// Downstream carries what a remote service answered, when it answered at all.
// It is satisfied by the controller error types.
type Downstream interface {
	HTTPStatus() int
	ResponseBody() string
}

// downstreamAttrs extracts status code and body from cause for structured logging.
func downstreamAttrs(cause error) []slog.Attr {
	attrs := []slog.Attr{slog.String("cause", fmt.Sprint(cause))}
	if d, ok := asDownstream(cause); ok {
		if code := d.HTTPStatus(); code != 0 {
			attrs = append(attrs, slog.Int("statusCode", code))
		}
		if body := d.ResponseBody(); body != "" {
			attrs = append(attrs, slog.String("body", body))
		}
	}
	return attrs
}

func asDownstream(err error) (Downstream, bool) {
	var d Downstream
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// ParseError reports a malformed Payload. Defaults were applied.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string { return fmt.Sprintf("payload parse error: %v", e.Cause) }
func (e *ParseError) Unwrap() error { return e.Cause }
func (e *ParseError) Kind() Kind    { return KindParse }

// LogValue implements slog.LogValuer.
func (e *ParseError) LogValue() slog.Value {
	return slog.GroupValue(slog.String("kind", string(KindParse)), slog.String("cause", fmt.Sprint(e.Cause)))
}

// UpstreamFetchError reports a failed enrichment call. The sentinel body was applied.
type UpstreamFetchError struct {
	MessageSid string
	Cause      error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("failed to fetch message %s: %v", e.MessageSid, e.Cause)
}
func (e *UpstreamFetchError) Unwrap() error { return e.Cause }
func (e *UpstreamFetchError) Kind() Kind    { return KindUpstreamFetch }

// LogValue implements slog.LogValuer.
func (e *UpstreamFetchError) LogValue() slog.Value {
	attrs := append([]slog.Attr{slog.String("kind", string(KindUpstreamFetch)), slog.String("messageSid", e.MessageSid)}, downstreamAttrs(e.Cause)...)
	return slog.GroupValue(attrs...)
}

// AuthError reports a failed datastore session acquisition. No write was attempted.
type AuthError struct {
	Cause error
}

func (e *AuthError) Error() string { return fmt.Sprintf("datastore session error: %v", e.Cause) }
func (e *AuthError) Unwrap() error { return e.Cause }
func (e *AuthError) Kind() Kind    { return KindAuth }

// LogValue implements slog.LogValuer.
func (e *AuthError) LogValue() slog.Value {
	return slog.GroupValue(append([]slog.Attr{slog.String("kind", string(KindAuth))}, downstreamAttrs(e.Cause)...)...)
}

// WriteError reports a failed record creation or script invocation.
type WriteError struct {
	Mode  WriteMode
	Cause error
}

func (e *WriteError) Error() string { return fmt.Sprintf("datastore %s error: %v", e.Mode, e.Cause) }
func (e *WriteError) Unwrap() error { return e.Cause }
func (e *WriteError) Kind() Kind    { return KindWrite }

// LogValue implements slog.LogValuer.
func (e *WriteError) LogValue() slog.Value {
	attrs := append([]slog.Attr{slog.String("kind", string(KindWrite)), slog.String("mode", string(e.Mode))}, downstreamAttrs(e.Cause)...)
	return slog.GroupValue(attrs...)
}

// TeardownError reports a failed session release.
type TeardownError struct {
	Cause error
}

func (e *TeardownError) Error() string { return fmt.Sprintf("datastore logout error: %v", e.Cause) }
func (e *TeardownError) Unwrap() error { return e.Cause }
func (e *TeardownError) Kind() Kind    { return KindTeardown }

// LogValue implements slog.LogValuer.
func (e *TeardownError) LogValue() slog.Value {
	return slog.GroupValue(append([]slog.Attr{slog.String("kind", string(KindTeardown))}, downstreamAttrs(e.Cause)...)...)
}
