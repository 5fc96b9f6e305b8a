// Package handler turns a raw Twilio callback into a FileMaker write and an acknowledgment.
package handler

import (
	"context"
	"log/slog"

	"github.com/isometry/twilio-fm-relay/internal/controllers/filemaker"
	"github.com/isometry/twilio-fm-relay/internal/handler/processor"
	"github.com/isometry/twilio-fm-relay/internal/helpers"
	"github.com/isometry/twilio-fm-relay/internal/metrics"
	"github.com/isometry/twilio-fm-relay/internal/models"
	"github.com/isometry/twilio-fm-relay/internal/relay"
	"github.com/isometry/twilio-fm-relay/internal/validation"
	"github.com/pkg/errors"
)

// Option defines a function type used to configure an instance of the Handler struct.
type Option func(*Handler)

// Handler relays notifications. It is immutable once built and safe for concurrent use.
type Handler struct {
	logger   *slog.Logger
	recorder *metrics.Recorder

	signature  *validation.AuthToken
	webhookURL string

	fileMaker *filemaker.Controller
	twilio    processor.MessageFetcher
	archiver  processor.Archiver

	writeMode     relay.WriteMode
	layout        string
	script        string
	mapping       relay.FieldMapping
	template      *relay.MessageTemplate
	archiveBucket string
	dumpFile      string

	lambdaPayloadType string

	processors []processor.Processor
}

// NewRelayHandler validates the options and assembles the processor pipeline.
func NewRelayHandler(opts ...Option) (*Handler, error) {
	_inst := &Handler{
		logger:    helpers.NewNoopLogger(),
		writeMode: relay.WriteModeRecord,
	}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.mapping == nil {
		_inst.mapping = relay.DefaultFieldMapping()
	}

	if _inst.fileMaker != nil {
		switch _inst.writeMode {
		case relay.WriteModeRecord:
			if _inst.layout == "" {
				return nil, errors.New("record write mode requires a FileMaker layout")
			}
		case relay.WriteModeScript:
			if _inst.layout == "" || _inst.script == "" {
				return nil, errors.New("script write mode requires a FileMaker layout and script")
			}
		}
	}

	enrich := _inst.mapping.Uses(relay.SourceMessageBody) || _inst.template != nil

	if _inst.signature != nil {
		_inst.processors = append(_inst.processors, processor.NewSignatureValidatorPreProcessor(_inst.signature, _inst.webhookURL))
	}
	_inst.processors = append(_inst.processors,
		processor.NewExtractorPreProcessor(),
	)
	if enrich {
		_inst.processors = append(_inst.processors, processor.NewMessageBodyEnricher(_inst.twilio))
	}
	_inst.processors = append(_inst.processors,
		processor.NewRecordComposer(_inst.mapping, _inst.template),
		processor.NewFileMakerWriter(_inst.fileMaker, _inst.writeMode, _inst.layout, _inst.script),
		processor.NewS3ArchiverPostProcessor(_inst.archiver, _inst.archiveBucket),
		processor.NewFileDumpPostProcessor(_inst.dumpFile),
	)
	for _, p := range _inst.processors {
		p.SetLogger(_inst.logger)
	}

	_inst.logger.Info("relay handler ready",
		slog.String("writeMode", string(_inst.writeMode)),
		slog.String("fieldMapping", _inst.mapping.String()),
		slog.Bool("signatureValidation", _inst.signature != nil),
		slog.Bool("enrichment", enrich && _inst.twilio != nil),
		slog.Bool("fileMaker", _inst.fileMaker != nil))
	return _inst, nil
}

// Process relays one notification. Every recovered failure is logged and counted; the returned
// response is the acknowledgment unless the request was rejected before relaying.
// Downstream calls are not cancelled when ctx is.
func (h *Handler) Process(ctx context.Context, req models.Request) models.Response {
	bus := relay.NewBus(req)
	logger := h.logger.With(slog.String("requestID", bus.ID))
	logger.Debug("processing request...")

	if err := processor.Process(context.WithoutCancel(ctx), bus, h.processors...); err != nil && !errors.Is(err, processor.ErrRejected) {
		logger.Error("pipeline aborted", slog.Any("error", err))
	}
	h.recorder.Observe(bus)

	outcome := bus.Outcome()
	logger.Info("request processed", slog.Any("request", bus), slog.String("outcome", string(outcome)), slog.Int("failures", len(bus.Failures)))
	if outcome == relay.Rejected {
		return *bus.Response
	}
	return relay.Ack()
}

// GetLambdaPayloadType returns the configured Lambda event format.
func (h *Handler) GetLambdaPayloadType() string {
	return h.lambdaPayloadType
}
