package runtime_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/isometry/twilio-fm-relay/internal/handler"
	"github.com/isometry/twilio-fm-relay/internal/relay"
	"github.com/isometry/twilio-fm-relay/internal/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const body = "Sid=NO1&Level=ERROR"

func newRuntime(t *testing.T, payloadType string, opts ...handler.Option) *runtime.Runtime {
	t.Helper()
	opts = append(opts,
		handler.WithWriteMode(relay.WriteModeNone, "", ""),
		handler.WithLambdaPayloadType(payloadType))
	h, err := handler.NewRelayHandler(opts...)
	require.NoError(t, err)
	return runtime.NewRuntime(h)
}

func TestServeHTTP(t *testing.T) {
	testCases := []struct {
		Name         string
		Method       string
		ExpectStatus int
		ExpectBody   string
	}{
		{
			Name:         "post",
			Method:       http.MethodPost,
			ExpectStatus: http.StatusOK,
			ExpectBody:   relay.Acknowledgment,
		},
		{
			Name:         "get",
			Method:       http.MethodGet,
			ExpectStatus: http.StatusMethodNotAllowed,
		},
	}

	rt := newRuntime(t, "")
	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			req := httptest.NewRequest(tc.Method, "/", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rw := httptest.NewRecorder()

			rt.ServeHTTP(rw, req)

			assert.Equal(t, tc.ExpectStatus, rw.Code)
			assert.Equal(t, tc.ExpectBody, rw.Body.String())
		})
	}
}

func TestServeHTTPRejectsForgedSignature(t *testing.T) {
	rt := newRuntime(t, "", handler.WithSignatureValidation("secret", ""))
	req := httptest.NewRequest(http.MethodPost, "https://relay.example.com/twilio", strings.NewReader(body))
	req.Header.Set("X-Twilio-Signature", "forged")
	rw := httptest.NewRecorder()

	rt.ServeHTTP(rw, req)
	assert.Equal(t, http.StatusForbidden, rw.Code)
}

func TestLambda(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte(body))

	testCases := []struct {
		Name        string
		PayloadType string
		Event       any
		Status      func(any) (int, string)
	}{
		{
			Name:        "api_gateway_v1",
			PayloadType: runtime.PayloadAPIGatewayV1,
			Event: events.APIGatewayProxyRequest{
				HTTPMethod: http.MethodPost,
				Body:       body,
				Headers:    map[string]string{"Host": "relay.example.com"},
			},
			Status: func(r any) (int, string) {
				resp := r.(events.APIGatewayProxyResponse)
				return resp.StatusCode, resp.Body
			},
		},
		{
			Name:        "api_gateway_v2_base64",
			PayloadType: runtime.PayloadAPIGatewayV2,
			Event: events.APIGatewayV2HTTPRequest{
				RawPath:         "/",
				Body:            encoded,
				IsBase64Encoded: true,
				RequestContext: events.APIGatewayV2HTTPRequestContext{
					DomainName: "relay.example.com",
					HTTP:       events.APIGatewayV2HTTPRequestContextHTTPDescription{Method: http.MethodPost},
				},
			},
			Status: func(r any) (int, string) {
				resp := r.(events.APIGatewayV2HTTPResponse)
				return resp.StatusCode, resp.Body
			},
		},
		{
			Name:        "lambda_url",
			PayloadType: runtime.PayloadLambdaURL,
			Event: events.LambdaFunctionURLRequest{
				RawPath: "/",
				Body:    body,
				RequestContext: events.LambdaFunctionURLRequestContext{
					DomainName: "abc.lambda-url.eu-west-1.on.aws",
					HTTP:       events.LambdaFunctionURLRequestContextHTTPDescription{Method: http.MethodPost},
				},
			},
			Status: func(r any) (int, string) {
				resp := r.(events.LambdaFunctionURLResponse)
				return resp.StatusCode, resp.Body
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			raw, err := json.Marshal(tc.Event)
			require.NoError(t, err)

			response, err := newRuntime(t, tc.PayloadType).Lambda(context.Background(), raw)
			require.NoError(t, err)

			status, body := tc.Status(response)
			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, relay.Acknowledgment, body)
		})
	}
}

func TestLambdaUnsupportedPayloadType(t *testing.T) {
	_, err := newRuntime(t, "sqs").Lambda(context.Background(), json.RawMessage(`{}`))
	assert.Error(t, err)
}
