package processor

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/isometry/twilio-fm-relay/internal/helpers"
	"github.com/isometry/twilio-fm-relay/internal/models"
	"github.com/isometry/twilio-fm-relay/internal/relay"
	"github.com/isometry/twilio-fm-relay/internal/validation"
)

type signatureValidatorPreProcessor struct {
	logger     *slog.Logger
	authToken  *validation.AuthToken
	webhookURL string
}

// NewSignatureValidatorPreProcessor returns a Processor rejecting requests whose X-Twilio-Signature does not
// match. The signed URL is webhookURL when set, otherwise the URL the request was received on.
func NewSignatureValidatorPreProcessor(authToken *validation.AuthToken, webhookURL string, opts ...Option) Processor {
	_inst := &signatureValidatorPreProcessor{authToken: authToken, webhookURL: webhookURL, logger: helpers.NewNoopLogger()}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *signatureValidatorPreProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("pre-processor:signature")
}

func (p *signatureValidatorPreProcessor) Process(_ context.Context, bus *relay.Bus) error {
	url := helpers.Coalesce(p.webhookURL, bus.Request.URL)
	notification, err := models.ParseNotification([]byte(bus.Request.Body))
	if err == nil {
		err = p.authToken.ValidateSignature(url, notification.Params(), bus.Request.Headers)
	}
	if err != nil {
		p.logger.Warn("rejecting request", slog.String("requestID", bus.ID), slog.String("url", url), slog.Any("error", err))
		bus.Reject(models.Response{Body: http.StatusText(http.StatusForbidden), StatusCode: http.StatusForbidden})
		return ErrRejected
	}
	p.logger.Debug("signature is valid", slog.String("requestID", bus.ID))
	return nil
}
