package processor

import (
	"context"
	"log/slog"

	"github.com/isometry/twilio-fm-relay/internal/helpers"
	"github.com/isometry/twilio-fm-relay/internal/relay"
)

type recordComposer struct {
	logger   *slog.Logger
	mapping  relay.FieldMapping
	template *relay.MessageTemplate
}

// NewRecordComposer returns a Processor building the datastore record from the field mapping and,
// when template is not nil, rendering the free-text message.
func NewRecordComposer(mapping relay.FieldMapping, template *relay.MessageTemplate, opts ...Option) Processor {
	if mapping == nil {
		mapping = relay.DefaultFieldMapping()
	}
	_inst := &recordComposer{mapping: mapping, template: template, logger: helpers.NewNoopLogger()}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *recordComposer) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("composer:record")
}

func (p *recordComposer) Process(_ context.Context, bus *relay.Bus) error {
	bus.Record = p.mapping.Compose(bus.Extraction)
	if p.template == nil {
		return nil
	}
	message, err := p.template.Render(bus.Extraction, bus.Record)
	if err != nil {
		p.logger.Warn("failed to render message, falling back to the record", slog.String("requestID", bus.ID), slog.Any("error", err))
		return nil
	}
	bus.Message = message
	return nil
}
