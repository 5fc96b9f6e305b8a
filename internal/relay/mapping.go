package relay

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// Source names a value of an Extraction that can be copied into a datastore field.
type Source string

const (
	SourceSid         Source = "sid"
	SourceTimestamp   Source = "timestamp"
	SourceLevel       Source = "level"
	SourceResourceSid Source = "resource_sid"
	SourceErrorCode   Source = "error_code"
	SourceMessageBody Source = "message_body"

	// payloadPrefix selects any top-level key of the Payload JSON, e.g. "payload.more_info".
	payloadPrefix = "payload."
	// formPrefix selects any raw form field, e.g. "form.AccountSid".
	formPrefix = "form."
)

var namedSources = []Source{SourceSid, SourceTimestamp, SourceLevel, SourceResourceSid, SourceErrorCode, SourceMessageBody}

// Valid reports whether s can be resolved.
func (s Source) Valid() bool {
	str := string(s)
	switch {
	case slices.Contains(namedSources, s):
		return true
	case strings.HasPrefix(str, payloadPrefix):
		return len(str) > len(payloadPrefix)
	case strings.HasPrefix(str, formPrefix):
		return len(str) > len(formPrefix)
	}
	return false
}

// Resolve returns the value s selects from e.
func (s Source) Resolve(e Extraction) string {
	switch s {
	case SourceSid:
		return e.Sid
	case SourceTimestamp:
		return e.Timestamp
	case SourceLevel:
		return e.Level
	case SourceResourceSid:
		return e.ResourceSid
	case SourceErrorCode:
		return e.ErrorCode
	case SourceMessageBody:
		return e.MessageBody
	}
	if key, ok := strings.CutPrefix(string(s), payloadPrefix); ok {
		return e.Payload[key]
	}
	if key, ok := strings.CutPrefix(string(s), formPrefix); ok {
		if v := e.Form[key]; len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// FieldMapping maps datastore field names to the Source that fills them.
type FieldMapping map[string]Source

// DefaultFieldMapping returns the mapping used when none is configured.
func DefaultFieldMapping() FieldMapping {
	return FieldMapping{
		"MessageSID":  SourceResourceSid,
		"ErrorCode":   SourceErrorCode,
		"Level":       SourceLevel,
		"Timestamp":   SourceTimestamp,
		"MessageBody": SourceMessageBody,
	}
}

// ParseFieldMapping validates a field→source map. An empty map yields the default mapping.
func ParseFieldMapping(raw map[string]string) (FieldMapping, error) {
	if len(raw) == 0 {
		return DefaultFieldMapping(), nil
	}
	m := make(FieldMapping, len(raw))
	for field, source := range raw {
		field = strings.TrimSpace(field)
		src := Source(strings.TrimSpace(source))
		if field == "" {
			return nil, errors.Errorf("empty field name for source %q", source)
		}
		if !src.Valid() {
			return nil, errors.Errorf("unknown source %q for field %q", source, field)
		}
		m[field] = src
	}
	return m, nil
}

// Compose builds the flat record for e. The same Extraction always yields the same record.
func (m FieldMapping) Compose(e Extraction) map[string]string {
	record := make(map[string]string, len(m))
	for field, src := range m {
		record[field] = src.Resolve(e)
	}
	return record
}

// Uses reports whether any field is filled from s.
func (m FieldMapping) Uses(s Source) bool {
	return slices.Contains(slices.Collect(maps.Values(m)), s)
}

// String renders the mapping as sorted "Field=source" pairs.
func (m FieldMapping) String() string {
	pairs := make([]string, 0, len(m))
	for _, field := range slices.Sorted(maps.Keys(m)) {
		pairs = append(pairs, fmt.Sprintf("%s=%s", field, m[field]))
	}
	return strings.Join(pairs, ",")
}

// WriteMode selects the datastore operation.
type WriteMode string

const (
	// WriteModeRecord creates one record with the composed fields.
	WriteModeRecord WriteMode = "record"
	// WriteModeScript runs a named script with the composed payload as its parameter.
	WriteModeScript WriteMode = "script"
	// WriteModeNone only logs the notification.
	WriteModeNone WriteMode = "none"
)

// ParseWriteMode validates a configured write mode.
func ParseWriteMode(s string) (WriteMode, error) {
	switch m := WriteMode(strings.ToLower(strings.TrimSpace(s))); m {
	case WriteModeRecord, WriteModeScript, WriteModeNone:
		return m, nil
	default:
		return "", errors.Errorf("unsupported write mode: %q", s)
	}
}
