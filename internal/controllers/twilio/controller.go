// Package twilio provides the Controller used to enrich notifications with message details
// fetched from the Twilio REST API.
package twilio

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/isometry/twilio-fm-relay/internal/helpers"
	"github.com/pkg/errors"
	twilio "github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// DefaultTimeout bounds every Twilio call.
const DefaultTimeout = 5 * time.Second

// FetchError describes a failed message fetch.
type FetchError struct {
	MessageSid string
	StatusCode int
	Message    string
	Cause      error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("twilio fetch %s: %v", e.MessageSid, e.Cause)
	}
	return fmt.Sprintf("twilio fetch %s: status %d: %s", e.MessageSid, e.StatusCode, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// HTTPStatus returns the HTTP status reported by Twilio, or zero.
func (e *FetchError) HTTPStatus() int { return e.StatusCode }

// ResponseBody returns Twilio's error message, if any.
func (e *FetchError) ResponseBody() string { return e.Message }

// Controller fetches messages with static account credentials.
type Controller struct {
	logger *slog.Logger

	accountSid string
	authToken  string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client

	rest *twilio.RestClient
}

// Option defines a function type used to configure an instance of the Controller struct.
type Option func(*Controller)

// NewController initializes a Controller. Both credentials are required.
func NewController(opts ...Option) (*Controller, error) {
	_inst := &Controller{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	_inst.logger = _inst.logger.With("controller", "twilio")
	if _inst.accountSid == "" || _inst.authToken == "" {
		return nil, errors.New("missing Twilio account SID or auth token")
	}

	base := _inst.httpClient
	if base == nil {
		base = cleanhttp.DefaultPooledClient()
	}
	hc := *base
	hc.Timeout = _inst.timeout
	if _inst.baseURL != "" {
		target, err := url.Parse(strings.TrimRight(_inst.baseURL, "/"))
		if err != nil || target.Host == "" {
			return nil, errors.Errorf("invalid Twilio base URL %q", _inst.baseURL)
		}
		next := hc.Transport
		if next == nil {
			next = http.DefaultTransport
		}
		hc.Transport = &rewriteTransport{target: target, next: next}
	}

	restClient := &client.Client{
		Credentials: client.NewCredentials(_inst.accountSid, _inst.authToken),
		HTTPClient:  &hc,
	}
	restClient.SetAccountSid(_inst.accountSid)
	_inst.rest = twilio.NewRestClientWithParams(twilio.ClientParams{Client: restClient})
	return _inst, nil
}

// FetchMessageBody returns the body of messageSid. A message without a body is an error.
func (c *Controller) FetchMessageBody(ctx context.Context, messageSid string) (string, error) {
	logger := c.logger.With("messageSid", messageSid)
	logger.Debug("fetching message from Twilio...")

	type result struct {
		msg *openapi.ApiV2010Message
		err error
	}
	done := make(chan result, 1)
	go func() {
		params := &openapi.FetchMessageParams{}
		params.SetPathAccountSid(c.accountSid)
		msg, err := c.rest.Api.FetchMessage(messageSid, params)
		done <- result{msg: msg, err: err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return "", &FetchError{MessageSid: messageSid, Cause: ctx.Err()}
	case r = <-done:
	}

	if r.err != nil {
		fetchErr := &FetchError{MessageSid: messageSid, Cause: r.err}
		var restErr *client.TwilioRestError
		if errors.As(r.err, &restErr) {
			fetchErr.StatusCode = restErr.Status
			fetchErr.Message = restErr.Message
		}
		return "", fetchErr
	}
	if r.msg == nil || helpers.String(r.msg.Body) == "" {
		return "", &FetchError{MessageSid: messageSid, StatusCode: http.StatusOK, Message: "message has no body"}
	}
	logger.Debug("fetched message from Twilio")
	return *r.msg.Body, nil
}

// rewriteTransport sends every request to target, keeping path and query.
type rewriteTransport struct {
	target *url.URL
	next   http.RoundTripper
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	r.URL.Path = t.target.Path + req.URL.Path
	r.Host = t.target.Host
	return t.next.RoundTrip(r)
}
