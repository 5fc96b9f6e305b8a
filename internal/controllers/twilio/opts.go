package twilio

import (
	"log/slog"
	"net/http"
	"time"
)

// WithCredentials sets the account SID and auth token used for Basic auth.
func WithCredentials(accountSid, authToken string) Option {
	return func(c *Controller) {
		c.accountSid = accountSid
		c.authToken = authToken
	}
}

// WithBaseURL sends API calls to baseURL instead of the public Twilio endpoints.
func WithBaseURL(baseURL string) Option {
	return func(c *Controller) {
		c.baseURL = baseURL
	}
}

// WithTimeout bounds every call. A non-positive timeout keeps DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Controller) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithHTTPClient sets the base HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Controller) {
		c.httpClient = client
	}
}

// WithLogger sets a custom logger for the Controller instance to use for logging operations.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}
