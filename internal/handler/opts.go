package handler

import (
	"log/slog"

	"github.com/isometry/twilio-fm-relay/internal/controllers/aws"
	"github.com/isometry/twilio-fm-relay/internal/controllers/filemaker"
	"github.com/isometry/twilio-fm-relay/internal/controllers/twilio"
	"github.com/isometry/twilio-fm-relay/internal/metrics"
	"github.com/isometry/twilio-fm-relay/internal/relay"
	"github.com/isometry/twilio-fm-relay/internal/validation"
)

// WithLogger sets the logger instance for the handler.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithRecorder sets the metrics recorder. Without one nothing is recorded.
func WithRecorder(recorder *metrics.Recorder) Option {
	return func(h *Handler) {
		h.recorder = recorder
	}
}

// WithSignatureValidation enables X-Twilio-Signature validation with authToken. The signature is
// checked against webhookURL when set, otherwise against the URL the request was received on.
func WithSignatureValidation(authToken, webhookURL string) Option {
	return func(h *Handler) {
		h.signature = validation.NewAuthToken(authToken)
		h.webhookURL = webhookURL
	}
}

// WithFileMaker sets the FileMaker controller. A nil controller disables writes.
func WithFileMaker(controller *filemaker.Controller) Option {
	return func(h *Handler) {
		h.fileMaker = controller
	}
}

// WithTwilio sets the Twilio controller used for enrichment. A nil controller disables enrichment.
func WithTwilio(controller *twilio.Controller) Option {
	return func(h *Handler) {
		if controller != nil {
			h.twilio = controller
		}
	}
}

// WithArchive archives every notification to bucket through controller.
func WithArchive(controller *aws.Controller, bucket string) Option {
	return func(h *Handler) {
		if controller != nil {
			h.archiver = controller
		}
		h.archiveBucket = bucket
	}
}

// WithWriteMode selects the FileMaker operation together with its layout and script.
func WithWriteMode(mode relay.WriteMode, layout, script string) Option {
	return func(h *Handler) {
		h.writeMode = mode
		h.layout = layout
		h.script = script
	}
}

// WithFieldMapping sets how records are composed from a notification.
func WithFieldMapping(mapping relay.FieldMapping) Option {
	return func(h *Handler) {
		h.mapping = mapping
	}
}

// WithMessageTemplate sets the template rendering the free-text message.
func WithMessageTemplate(template *relay.MessageTemplate) Option {
	return func(h *Handler) {
		h.template = template
	}
}

// WithDumpFile appends every received form to path.
func WithDumpFile(path string) Option {
	return func(h *Handler) {
		h.dumpFile = path
	}
}

// WithLambdaPayloadType sets the lambda payload type for a Handler instance.
func WithLambdaPayloadType(payloadType string) Option {
	return func(h *Handler) {
		h.lambdaPayloadType = payloadType
	}
}
