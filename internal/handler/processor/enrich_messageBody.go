package processor

import (
	"context"
	"log/slog"

	"github.com/isometry/twilio-fm-relay/internal/helpers"
	"github.com/isometry/twilio-fm-relay/internal/relay"
	"golang.org/x/time/rate"
)

type messageBodyEnricher struct {
	logger   *slog.Logger
	fetcher  MessageFetcher
	throttle *rate.Sometimes
}

// NewMessageBodyEnricher returns a Processor filling Extraction.MessageBody from Twilio.
// A nil fetcher leaves the body at relay.Unknown.
func NewMessageBodyEnricher(fetcher MessageFetcher, opts ...Option) Processor {
	_inst := &messageBodyEnricher{fetcher: fetcher, logger: helpers.NewNoopLogger(), throttle: helpers.NewThrottle()}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *messageBodyEnricher) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("enricher:messageBody")
}

func (p *messageBodyEnricher) Process(ctx context.Context, bus *relay.Bus) error {
	if p.fetcher == nil {
		p.throttle.Do(func() {
			p.logger.Warn("Twilio credentials not configured, message bodies will not be fetched")
		})
		return nil
	}
	messageSid := bus.Extraction.ResourceSid
	if messageSid == "" {
		p.logger.Debug("no resource SID, skipping message fetch", slog.String("requestID", bus.ID))
		return nil
	}

	body, err := p.fetcher.FetchMessageBody(ctx, messageSid)
	if err != nil {
		f := &relay.UpstreamFetchError{MessageSid: messageSid, Cause: err}
		bus.Fail(f)
		p.logger.Warn("failed to fetch message body", slog.String("requestID", bus.ID), slog.Any("error", f))
		return nil
	}
	bus.Extraction.MessageBody = body
	p.logger.Debug("fetched message body", slog.String("requestID", bus.ID), slog.Int("bytes", len(body)))
	return nil
}
