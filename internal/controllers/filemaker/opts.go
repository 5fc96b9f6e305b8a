package filemaker

import (
	"log/slog"
	"net/http"
	"time"
)

// WithHost sets the FileMaker Server host, with or without scheme.
func WithHost(host string) Option {
	return func(c *Controller) {
		c.host = host
	}
}

// WithDatabase sets the hosted database name.
func WithDatabase(database string) Option {
	return func(c *Controller) {
		c.database = database
	}
}

// WithCredentials sets the account used to open sessions.
func WithCredentials(username, password string) Option {
	return func(c *Controller) {
		c.username = username
		c.password = password
	}
}

// WithVersion overrides the Data API version segment. Empty keeps the default.
func WithVersion(version string) Option {
	return func(c *Controller) {
		if version != "" {
			c.version = version
		}
	}
}

// WithTimeout bounds every Data API call. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Controller) {
		c.timeout = timeout
	}
}

// WithHTTPClient sets the base HTTP client used for every call.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Controller) {
		c.client = client
	}
}

// WithLogger sets a custom logger for the Controller instance to use for logging operations.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}
