package relay

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/isometry/twilio-fm-relay/internal/models"
)

// Acknowledgment is the TwiML body returned to Twilio for every relayed notification.
const Acknowledgment = "<Response></Response>"

// Ack returns the fixed acknowledgment Twilio expects.
func Ack() models.Response {
	return models.Response{
		Body:       Acknowledgment,
		Headers:    map[string]string{"Content-Type": "application/xml"},
		StatusCode: http.StatusOK,
	}
}

// Outcome summarises how far a notification got.
type Outcome string

const (
	// Relayed means every step succeeded.
	Relayed Outcome = "relayed"
	// Degraded means at least one step failed and was recovered.
	Degraded Outcome = "degraded"
	// Rejected means the request was refused before relaying.
	Rejected Outcome = "rejected"
)

// Bus carries one notification through the processor pipeline.
type Bus struct {
	ID string

	Request      models.Request
	Notification models.Notification
	Extraction   Extraction
	Record       map[string]string
	Message      string

	// Written is set once the datastore accepted the write.
	Written bool
	// Failures holds the recovered failures in the order they happened.
	Failures []Failure
	// Response is the answer to the caller. Processors only set it to reject a request.
	Response *models.Response
}

// NewBus returns a Bus for req with a fresh correlation ID.
func NewBus(req models.Request) *Bus {
	return &Bus{
		ID:      uuid.NewString(),
		Request: req,
	}
}

// Fail records a recovered failure.
func (b *Bus) Fail(f Failure) {
	b.Failures = append(b.Failures, f)
}

// Failed reports whether a failure of kind k was recorded.
func (b *Bus) Failed(k Kind) bool {
	for _, f := range b.Failures {
		if f.Kind() == k {
			return true
		}
	}
	return false
}

// Reject stops the pipeline with response.
func (b *Bus) Reject(response models.Response) {
	b.Response = &response
}

// Outcome classifies the bus once the pipeline finished.
func (b *Bus) Outcome() Outcome {
	switch {
	case b.Response != nil:
		return Rejected
	case len(b.Failures) > 0:
		return Degraded
	default:
		return Relayed
	}
}

// LogValue implements slog.LogValuer.
func (b *Bus) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("requestID", b.ID),
		slog.String("sid", b.Extraction.Sid),
	}
	if b.Extraction.ResourceSid != "" {
		attrs = append(attrs, slog.String("resourceSid", b.Extraction.ResourceSid))
	}
	if b.Extraction.ErrorCode != "" {
		attrs = append(attrs, slog.String("errorCode", b.Extraction.ErrorCode))
	}
	return slog.GroupValue(attrs...)
}
