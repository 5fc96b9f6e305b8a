// Package processor provides the ordered steps a notification passes through on its way to FileMaker.
package processor

import (
	"context"
	"log/slog"

	"github.com/isometry/twilio-fm-relay/internal/relay"
	"github.com/pkg/errors"
)

// ErrRejected stops the pipeline after a processor rejected the request.
var ErrRejected = errors.New("request rejected")

// Option is a function that applies an option to a Processor.
type Option = func(Processor)

// Processor is an interface that defines a method to process a request.
// Processors record recovered failures on the bus and only return an error to stop the pipeline.
type Processor interface {
	SetLogger(logger *slog.Logger)
	Process(ctx context.Context, bus *relay.Bus) error
}

// MessageFetcher fetches the body of a Twilio message.
type MessageFetcher interface {
	FetchMessageBody(ctx context.Context, messageSid string) (string, error)
}

// Archiver stores a document under a bucket.
type Archiver interface {
	PutS3Object(ctx context.Context, id string, bucket string, body []byte) (string, error)
}

// WithLogger sets the logger of a Processor.
func WithLogger(logger *slog.Logger) Option {
	return func(p Processor) {
		p.SetLogger(logger)
	}
}

// Process runs bus through processors in order, stopping at the first error.
func Process(ctx context.Context, bus *relay.Bus, processors ...Processor) error {
	for _, p := range processors {
		if err := p.Process(ctx, bus); err != nil {
			return err
		}
	}
	return nil
}

func applyOpts(m Processor, opts ...Option) {
	for _, opt := range opts {
		opt(m)
	}
}
