package relay

import (
	"strings"
	"text/template"

	"github.com/isometry/twilio-fm-relay/internal/relay/templates"
	"github.com/pkg/errors"
)

// MessageTemplate renders a free-text message from an Extraction and its composed record.
type MessageTemplate struct {
	tmpl *template.Template
}

// MessageData is the value templates are executed against.
type MessageData struct {
	Extraction
	Record map[string]string
}

// ParseMessageTemplate parses text. An empty text yields a nil template.
func ParseMessageTemplate(text string) (*MessageTemplate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	tmpl, err := template.New("message").Funcs(templates.StandardFuncs).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse message template")
	}
	return &MessageTemplate{tmpl: tmpl}, nil
}

// Render executes the template.
func (t *MessageTemplate) Render(e Extraction, record map[string]string) (string, error) {
	var buf strings.Builder
	if err := t.tmpl.Execute(&buf, MessageData{Extraction: e, Record: record}); err != nil {
		return "", errors.Wrap(err, "failed to render message template")
	}
	return buf.String(), nil
}
