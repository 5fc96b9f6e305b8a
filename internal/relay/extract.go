// Package relay derives datastore payloads from Twilio callbacks and defines the failure
// taxonomy of the relay pipeline.
package relay

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/isometry/twilio-fm-relay/internal/models"
	"github.com/pkg/errors"
)

// Unknown is the sentinel for values the callback or the upstream did not provide.
const Unknown = "Unknown"

// Payload keys read from the Payload JSON.
const (
	PayloadResourceSid = "resource_sid"
	PayloadErrorCode   = "error_code"
)

// Extraction holds the values derived from a single notification.
type Extraction struct {
	Sid         string
	Timestamp   string
	Level       string
	ResourceSid string
	ErrorCode   string
	MessageBody string

	// Payload is the flattened top level of the Payload JSON.
	Payload map[string]string
	Form    map[string][]string
}

// Extract derives an Extraction from n. It never fails the request: absent top-level fields
// become Unknown, an absent or malformed Payload leaves ResourceSid and ErrorCode empty. A
// malformed Payload is reported as a *ParseError next to the defaulted Extraction.
func Extract(n models.Notification) (Extraction, error) {
	e := Extraction{
		Sid:         orUnknown(n.Sid),
		Timestamp:   orUnknown(n.Timestamp),
		Level:       orUnknown(n.Level),
		MessageBody: Unknown,
		Payload:     map[string]string{},
		Form:        n.Form,
	}
	if e.Form == nil {
		e.Form = map[string][]string{}
	}
	if strings.TrimSpace(n.Payload) == "" {
		return e, nil
	}

	payload, err := decodePayload(n.Payload)
	if err != nil {
		return e, &ParseError{Cause: err}
	}
	e.Payload = payload
	e.ResourceSid = payload[PayloadResourceSid]
	e.ErrorCode = payload[PayloadErrorCode]
	return e, nil
}

func decodePayload(raw string) (map[string]string, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, errors.Wrap(err, "invalid payload JSON")
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = stringify(v)
	}
	return out, nil
}

// stringify renders a decoded JSON value as a flat string. Nested values stay JSON.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func orUnknown(v string) string {
	if v == "" {
		return Unknown
	}
	return v
}
