package aws

import (
	"context"
	"log/slog"
	"time"
)

// WithLogger sets a custom slog.Logger instance for the Controller struct to use for logging operations.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Controller) {
		a.logger = logger
	}
}

// WithContext sets the context used while loading configuration and fetching secrets.
func WithContext(ctx context.Context) Option {
	return func(a *Controller) {
		a.ctx = ctx
	}
}

// WithClients injects pre-built SSM and S3 clients, skipping default configuration loading.
func WithClients(ssmClient SSMAPI, s3Client S3API) Option {
	return func(a *Controller) {
		a.ssmClient = ssmClient
		a.s3Client = s3Client
	}
}

// WithClock overrides the clock used to name archived objects.
func WithClock(now func() time.Time) Option {
	return func(a *Controller) {
		a.now = now
	}
}
