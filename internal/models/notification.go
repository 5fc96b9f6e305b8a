package models

import (
	"log/slog"
	"net/url"

	"github.com/pkg/errors"
)

// Form field names sent by Twilio on debugger and status callbacks.
const (
	FieldSid       = "Sid"
	FieldTimestamp = "Timestamp"
	FieldLevel     = "Level"
	FieldPayload   = "Payload"
)

// Notification is the decoded form body of a Twilio callback.
// Every field is optional.
type Notification struct {
	Sid       string
	Timestamp string
	Level     string
	Payload   string

	Form url.Values
}

// ParseNotification decodes a form-encoded body. Pairs that cannot be decoded are dropped;
// the readable fields are returned alongside the first decode error.
func ParseNotification(body []byte) (Notification, error) {
	form, err := url.ParseQuery(string(body))
	if form == nil {
		form = url.Values{}
	}
	n := Notification{
		Sid:       form.Get(FieldSid),
		Timestamp: form.Get(FieldTimestamp),
		Level:     form.Get(FieldLevel),
		Payload:   form.Get(FieldPayload),
		Form:      form,
	}
	if err != nil {
		return n, errors.Wrap(err, "failed to decode form body")
	}
	return n, nil
}

// Params flattens the form to its first value per key.
func (n Notification) Params() map[string]string {
	params := make(map[string]string, len(n.Form))
	for k, v := range n.Form {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}

// LogValue implements slog.LogValuer.
func (n Notification) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("sid", n.Sid),
		slog.String("timestamp", n.Timestamp),
		slog.String("level", n.Level),
		slog.Int("payloadBytes", len(n.Payload)),
	)
}
