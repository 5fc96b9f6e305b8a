package processor

import (
	"context"
	"log/slog"

	"github.com/isometry/twilio-fm-relay/internal/helpers"
	"github.com/isometry/twilio-fm-relay/internal/models"
	"github.com/isometry/twilio-fm-relay/internal/relay"
	"github.com/pkg/errors"
)

type extractorPreProcessor struct {
	logger *slog.Logger
}

// NewExtractorPreProcessor returns a Processor decoding the form body and extracting the notification fields.
func NewExtractorPreProcessor(opts ...Option) Processor {
	_inst := &extractorPreProcessor{logger: helpers.NewNoopLogger()}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *extractorPreProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("pre-processor:extractor")
}

func (p *extractorPreProcessor) Process(_ context.Context, bus *relay.Bus) error {
	notification, err := models.ParseNotification([]byte(bus.Request.Body))
	if err != nil {
		p.fail(bus, &relay.ParseError{Cause: err})
	}
	bus.Notification = notification

	extraction, err := relay.Extract(notification)
	if err != nil {
		var parseErr *relay.ParseError
		if !errors.As(err, &parseErr) {
			parseErr = &relay.ParseError{Cause: err}
		}
		p.fail(bus, parseErr)
	}
	bus.Extraction = extraction

	p.logger.Info("received notification", slog.Any("request", bus), slog.Any("notification", notification))
	return nil
}

func (p *extractorPreProcessor) fail(bus *relay.Bus, f *relay.ParseError) {
	bus.Fail(f)
	p.logger.Warn("failed to parse notification, defaults applied", slog.String("requestID", bus.ID), slog.Any("error", f))
}
