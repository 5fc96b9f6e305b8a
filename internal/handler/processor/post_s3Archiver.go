package processor

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/isometry/twilio-fm-relay/internal/helpers"
	"github.com/isometry/twilio-fm-relay/internal/relay"
)

type s3ArchiverPostProcessor struct {
	logger   *slog.Logger
	archiver Archiver
	bucket   string
}

// archiveDocument is the JSON stored for every notification.
type archiveDocument struct {
	RequestID string              `json:"requestID"`
	Form      map[string][]string `json:"form"`
	Record    map[string]string   `json:"record,omitempty"`
	Written   bool                `json:"written"`
	Failures  []string            `json:"failures,omitempty"`
}

// NewS3ArchiverPostProcessor returns a Processor archiving the raw notification to bucket.
// A nil archiver or an empty bucket disables archiving.
func NewS3ArchiverPostProcessor(archiver Archiver, bucket string, opts ...Option) Processor {
	_inst := &s3ArchiverPostProcessor{archiver: archiver, bucket: bucket, logger: helpers.NewNoopLogger()}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *s3ArchiverPostProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("post-processor:s3Archiver")
}

func (p *s3ArchiverPostProcessor) Process(ctx context.Context, bus *relay.Bus) error {
	if p.archiver == nil || p.bucket == "" {
		p.logger.Debug("s3 archive is disabled")
		return nil
	}

	doc := archiveDocument{
		RequestID: bus.ID,
		Form:      bus.Notification.Form,
		Record:    bus.Record,
		Written:   bus.Written,
	}
	for _, f := range bus.Failures {
		doc.Failures = append(doc.Failures, f.Error())
	}
	body, err := json.Marshal(doc)
	if err != nil {
		p.logger.Warn("failed to encode archive document", slog.String("requestID", bus.ID), slog.Any("error", err))
		return nil
	}

	key, err := p.archiver.PutS3Object(ctx, bus.ID, p.bucket, body)
	if err != nil {
		p.logger.Warn("failed to archive notification in S3", slog.String("requestID", bus.ID), slog.Any("error", err))
		return nil
	}
	p.logger.Debug("archived notification", slog.String("requestID", bus.ID), slog.String("bucket", p.bucket), slog.String("key", key))
	return nil
}
