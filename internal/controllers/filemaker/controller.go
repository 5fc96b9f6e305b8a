// Package filemaker provides a client for the FileMaker Data API: session login, record
// creation, script execution and logout.
package filemaker

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/isometry/twilio-fm-relay/internal/helpers"
	"github.com/pkg/errors"
)

const (
	// DefaultVersion is the Data API version path segment.
	DefaultVersion = "vLatest"
	// DefaultTimeout bounds every Data API call.
	DefaultTimeout = 5 * time.Second

	// AccessTokenHeader carries the session token on login responses.
	AccessTokenHeader = "X-FM-Data-Access-Token"

	maxBodyBytes   = 1 << 20
	maxLoggedBytes = 512
)

// Controller talks to one FileMaker database through the Data API.
type Controller struct {
	logger *slog.Logger
	client *http.Client

	host     string
	database string
	username string
	password string
	version  string
	timeout  time.Duration
	baseURL  *url.URL
}

// Option defines a function type used to configure an instance of the Controller struct.
type Option func(*Controller)

// NewController initializes a Controller. Host and database are required; the host may omit
// its scheme, in which case https is assumed.
func NewController(opts ...Option) (*Controller, error) {
	_inst := &Controller{
		version: DefaultVersion,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	_inst.logger = _inst.logger.With("controller", "filemaker")
	if _inst.client == nil {
		_inst.client = cleanhttp.DefaultPooledClient()
	}
	if strings.TrimSpace(_inst.host) == "" {
		return nil, errors.New("missing FileMaker host")
	}
	if strings.TrimSpace(_inst.database) == "" {
		return nil, errors.New("missing FileMaker database")
	}
	host := strings.TrimRight(strings.TrimSpace(_inst.host), "/")
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid FileMaker host %q", _inst.host)
	}
	if u.Host == "" {
		return nil, errors.Errorf("invalid FileMaker host %q", _inst.host)
	}
	_inst.baseURL = u
	return _inst, nil
}

// endpoint builds a database-scoped Data API URL. Every path segment is escaped.
func (c *Controller) endpoint(segments ...string) string {
	parts := append([]string{"fmi", "data", c.version, "databases", c.database}, segments...)
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.TrimRight(c.baseURL.String(), "/") + "/" + strings.Join(parts, "/")
}

// envelope is the common Data API response shape.
type envelope struct {
	Response json.RawMessage `json:"response"`
	Messages []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"messages"`
}

// withTimeout derives the per-call context.
func (c *Controller) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// do executes req and decodes the response member of the envelope into out.
// It returns the raw HTTP response headers for callers that need them.
func (c *Controller) do(client *http.Client, op string, req *http.Request, out any) (http.Header, error) {
	logger := c.logger.With("op", op, "method", req.Method)
	logger.Debug("calling FileMaker Data API...")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &APIError{Op: op, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.Header, &APIError{Op: op, StatusCode: resp.StatusCode, Cause: errors.Wrap(err, "failed to read response body")}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	apiErr := &APIError{Op: op, StatusCode: resp.StatusCode, Body: helpers.Truncate(string(raw), maxLoggedBytes)}
	if len(env.Messages) > 0 {
		apiErr.Code = env.Messages[0].Code
		apiErr.Message = env.Messages[0].Message
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return resp.Header, apiErr
	}
	if apiErr.Code != "" && apiErr.Code != "0" {
		return resp.Header, apiErr
	}
	if out == nil {
		return resp.Header, nil
	}
	if decodeErr != nil {
		apiErr.Cause = errors.Wrap(decodeErr, "failed to decode response")
		return resp.Header, apiErr
	}
	if len(env.Response) == 0 {
		return resp.Header, nil
	}
	if err = json.Unmarshal(env.Response, out); err != nil {
		apiErr.Cause = errors.Wrap(err, "failed to decode response member")
		return resp.Header, apiErr
	}
	logger.Debug("FileMaker Data API call succeeded", slog.Int("statusCode", resp.StatusCode))
	return resp.Header, nil
}

// Login opens a Data API session using Basic credentials.
func (c *Controller) Login(ctx context.Context) (*Session, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("sessions"), bytes.NewReader([]byte("{}")))
	if err != nil {
		return nil, &APIError{Op: "login", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.username, c.password)

	var out struct {
		Token string `json:"token"`
	}
	headers, err := c.do(c.client, "login", req, &out)
	if err != nil {
		return nil, err
	}
	token := helpers.Coalesce(out.Token, headers.Get(AccessTokenHeader))
	if token == "" {
		return nil, &APIError{Op: "login", StatusCode: http.StatusOK, Message: "no session token in response"}
	}
	c.logger.Debug("FileMaker session opened")
	return newSession(c, token), nil
}
