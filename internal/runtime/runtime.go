// Package runtime adapts the relay handler to net/http and to AWS Lambda events.
package runtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/isometry/twilio-fm-relay/internal/handler"
	"github.com/isometry/twilio-fm-relay/internal/helpers"
	"github.com/isometry/twilio-fm-relay/internal/models"
	"github.com/pkg/errors"
)

// Supported Lambda payload types.
const (
	PayloadAPIGatewayV1 = "api-gateway-v1"
	PayloadAPIGatewayV2 = "api-gateway-v2"
	PayloadLambdaURL    = "lambda-url"
)

const maxBodyBytes = 1 << 20

type Option func(*Runtime)

// WithLogger sets the runtime logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

type Runtime struct {
	*handler.Handler
	logger *slog.Logger
}

// NewRuntime creates a new runtime instance
func NewRuntime(handler *handler.Handler, opts ...Option) *Runtime {
	_inst := &Runtime{Handler: handler}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	return _inst
}

// ServeHTTP is the HTTP handler for the runtime
func (r *Runtime) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.logger.Debug("rejecting HTTP request...", slog.Any("requestor", req.RemoteAddr), "reason", "method not allowed", slog.Any("method", req.Method))
		resp.Header().Set("Allow", http.MethodPost)
		helpers.RespondHTTP(models.Response{StatusCode: http.StatusMethodNotAllowed}, resp)
		return
	}

	r.logger.Debug("received HTTP request...", slog.Any("requestor", req.RemoteAddr), slog.Any("path", req.URL.Path))
	body, err := io.ReadAll(io.LimitReader(req.Body, maxBodyBytes))
	if err != nil {
		r.logger.Error("failed to read request body", slog.Any("error", err))
		helpers.RespondHTTP(models.Response{StatusCode: http.StatusBadRequest}, resp)
		return
	}

	headers := make(map[string]string)
	for k, v := range req.Header {
		headers[strings.ToLower(k)] = v[0]
	}

	response := r.Handler.Process(req.Context(), models.Request{
		Body:    string(body),
		Headers: headers,
		URL:     requestURL(req),
	})
	helpers.RespondHTTP(response, resp)
}

// requestURL reconstructs the absolute URL the caller posted to. The scheme set by a proxy-aware
// middleware wins over the connection state.
func requestURL(req *http.Request) string {
	scheme := req.URL.Scheme
	if scheme == "" {
		scheme = "http"
		if req.TLS != nil {
			scheme = "https"
		}
	}
	return scheme + "://" + req.Host + req.URL.RequestURI()
}

// Lambda is the Lambda handler for the runtime. The event format follows the configured payload type.
func (r *Runtime) Lambda(ctx context.Context, raw json.RawMessage) (any, error) {
	payloadType := r.Handler.GetLambdaPayloadType()
	r.logger.Debug("received Lambda event", slog.String("payloadType", payloadType))

	switch payloadType {
	case PayloadAPIGatewayV1:
		var event events.APIGatewayProxyRequest
		if err := json.Unmarshal(raw, &event); err != nil {
			return nil, errors.Wrap(err, "failed to decode API Gateway v1 event")
		}
		url := "https://" + helpers.Coalesce(event.Headers["Host"], event.Headers["host"], event.RequestContext.DomainName) + helpers.Coalesce(event.RequestContext.Path, event.Path)
		response, err := r.lambdaProcess(ctx, event.HTTPMethod, event.Body, event.IsBase64Encoded, event.Headers, url)
		return events.APIGatewayProxyResponse{
			Body:       response.Body,
			Headers:    response.Headers,
			StatusCode: response.StatusCode,
		}, err
	case PayloadAPIGatewayV2:
		var event events.APIGatewayV2HTTPRequest
		if err := json.Unmarshal(raw, &event); err != nil {
			return nil, errors.Wrap(err, "failed to decode API Gateway v2 event")
		}
		url := absoluteURL(event.RequestContext.DomainName, event.RawPath, event.RawQueryString)
		response, err := r.lambdaProcess(ctx, event.RequestContext.HTTP.Method, event.Body, event.IsBase64Encoded, event.Headers, url)
		return events.APIGatewayV2HTTPResponse{
			Body:       response.Body,
			Headers:    response.Headers,
			StatusCode: response.StatusCode,
		}, err
	case PayloadLambdaURL:
		var event events.LambdaFunctionURLRequest
		if err := json.Unmarshal(raw, &event); err != nil {
			return nil, errors.Wrap(err, "failed to decode Lambda function URL event")
		}
		url := absoluteURL(event.RequestContext.DomainName, event.RawPath, event.RawQueryString)
		response, err := r.lambdaProcess(ctx, event.RequestContext.HTTP.Method, event.Body, event.IsBase64Encoded, event.Headers, url)
		return events.LambdaFunctionURLResponse{
			Body:       response.Body,
			Headers:    response.Headers,
			StatusCode: response.StatusCode,
		}, err
	default:
		return nil, fmt.Errorf("unsupported lambda payload type: %s", payloadType)
	}
}

func (r *Runtime) lambdaProcess(ctx context.Context, method, body string, encoded bool, headers map[string]string, url string) (models.Response, error) {
	if method != "" && !strings.EqualFold(method, http.MethodPost) {
		r.logger.Debug("rejecting Lambda request...", "reason", "method not allowed", slog.String("method", method))
		return models.Response{StatusCode: http.StatusMethodNotAllowed}, nil
	}
	if encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			r.logger.Error("failed to decode request body", slog.Any("error", err))
			return models.Response{StatusCode: http.StatusBadRequest}, nil
		}
		body = string(decoded)
	}

	lch := make(map[string]string, len(headers))
	for k, v := range headers {
		lch[strings.ToLower(k)] = v
	}
	return r.Handler.Process(ctx, models.Request{Body: body, Headers: lch, URL: url}), nil
}

func absoluteURL(host, path, query string) string {
	url := "https://" + host + path
	if query != "" {
		url += "?" + query
	}
	return url
}
