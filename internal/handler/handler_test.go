package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/isometry/twilio-fm-relay/internal/controllers/filemaker"
	"github.com/isometry/twilio-fm-relay/internal/controllers/twilio"
	"github.com/isometry/twilio-fm-relay/internal/handler"
	"github.com/isometry/twilio-fm-relay/internal/metrics"
	"github.com/isometry/twilio-fm-relay/internal/models"
	"github.com/isometry/twilio-fm-relay/internal/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	database = "Twilio"
	layout   = "Errors"
	script   = "Log Error"
	token    = "tok-1"

	workedExample = `Sid=EVxxx&Timestamp=2024-01-01T00:00:00Z&Level=ERROR&Payload=%7B%22resource_sid%22%3A%22SMxxx%22%2C%22error_code%22%3A%2230003%22%7D`
)

// fakeFileMaker answers the Data API endpoints with configurable status codes.
type fakeFileMaker struct {
	LoginStatus  int
	WriteStatus  int
	LogoutStatus int

	mu          sync.Mutex
	calls       []string
	fieldData   map[string]string
	scriptParam string
}

func (f *fakeFileMaker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	base := fmt.Sprintf("/fmi/data/vLatest/databases/%s", database)
	path := strings.TrimPrefix(r.URL.Path, base)
	f.calls = append(f.calls, r.Method+" "+path)

	status, response := http.StatusOK, map[string]any{}
	switch {
	case r.Method == http.MethodPost && path == "/sessions":
		status, response = f.LoginStatus, map[string]any{"token": token}
	case r.Method == http.MethodPost && path == "/layouts/"+layout+"/records":
		var body struct {
			FieldData map[string]string `json:"fieldData"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.fieldData = body.FieldData
		status, response = f.WriteStatus, map[string]any{"recordId": "42", "modId": "0"}
	case r.Method == http.MethodGet && path == "/layouts/"+layout+"/script/"+script:
		f.scriptParam = r.URL.Query().Get("script.param")
		status, response = f.WriteStatus, map[string]any{"scriptResult": "ok", "scriptError": "0"}
	case r.Method == http.MethodDelete && path == "/sessions/"+token:
		status = f.LogoutStatus
	default:
		status = http.StatusNotFound
	}
	if status == 0 {
		status = http.StatusOK
	}
	code := "0"
	if status >= http.StatusBadRequest {
		code, response = "500", map[string]any{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"response": response,
		"messages": []map[string]string{{"code": code, "message": http.StatusText(status)}},
	})
}

func (f *fakeFileMaker) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newFileMaker(t *testing.T, fake *fakeFileMaker) *filemaker.Controller {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	ctl, err := filemaker.NewController(
		filemaker.WithHost(srv.URL),
		filemaker.WithDatabase(database),
		filemaker.WithCredentials("admin", "secret"),
		filemaker.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return ctl
}

func assertAck(t *testing.T, response models.Response) {
	t.Helper()
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, "<Response></Response>", response.Body)
	assert.Equal(t, "application/xml", response.Headers["Content-Type"])
}

func TestProcessDatastoreOutcomes(t *testing.T) {
	testCases := []struct {
		Name          string
		Fake          *fakeFileMaker
		ExpectCalls   []string
		ExpectFailure relay.Kind
	}{
		{
			Name: "success",
			Fake: &fakeFileMaker{},
			ExpectCalls: []string{
				"POST /sessions",
				"POST /layouts/" + layout + "/records",
				"DELETE /sessions/" + token,
			},
		},
		{
			Name:          "session_failure_skips_write_and_teardown",
			Fake:          &fakeFileMaker{LoginStatus: http.StatusUnauthorized},
			ExpectCalls:   []string{"POST /sessions"},
			ExpectFailure: relay.KindAuth,
		},
		{
			Name: "write_failure_still_tears_down",
			Fake: &fakeFileMaker{WriteStatus: http.StatusInternalServerError},
			ExpectCalls: []string{
				"POST /sessions",
				"POST /layouts/" + layout + "/records",
				"DELETE /sessions/" + token,
			},
			ExpectFailure: relay.KindWrite,
		},
		{
			Name: "teardown_failure",
			Fake: &fakeFileMaker{LogoutStatus: http.StatusInternalServerError},
			ExpectCalls: []string{
				"POST /sessions",
				"POST /layouts/" + layout + "/records",
				"DELETE /sessions/" + token,
			},
			ExpectFailure: relay.KindTeardown,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			recorder := metrics.NewRecorder()
			h, err := handler.NewRelayHandler(
				handler.WithFileMaker(newFileMaker(t, tc.Fake)),
				handler.WithWriteMode(relay.WriteModeRecord, layout, ""),
				handler.WithRecorder(recorder))
			require.NoError(t, err)

			assertAck(t, h.Process(context.Background(), models.Request{Body: workedExample}))
			assert.Equal(t, tc.ExpectCalls, tc.Fake.Calls())

			body := scrape(t, recorder)
			if tc.ExpectFailure == "" {
				assert.Contains(t, body, `relay_notifications_total{outcome="relayed"} 1`)
			} else {
				assert.Contains(t, body, `relay_notifications_total{outcome="degraded"} 1`)
				assert.Contains(t, body, fmt.Sprintf(`relay_failures_total{kind=%q} 1`, tc.ExpectFailure))
			}
		})
	}
}

func TestProcessComposedRecord(t *testing.T) {
	testCases := []struct {
		Name     string
		Body     string
		Expected map[string]string
	}{
		{
			Name: "worked_example",
			Body: workedExample,
			Expected: map[string]string{
				"MessageSID":  "SMxxx",
				"ErrorCode":   "30003",
				"Level":       "ERROR",
				"Timestamp":   "2024-01-01T00:00:00Z",
				"MessageBody": relay.Unknown,
			},
		},
		{
			Name: "no_payload",
			Body: "Sid=EVxxx&Timestamp=2024-01-01T00:00:00Z&Level=ERROR",
			Expected: map[string]string{
				"MessageSID":  "",
				"ErrorCode":   "",
				"Level":       "ERROR",
				"Timestamp":   "2024-01-01T00:00:00Z",
				"MessageBody": relay.Unknown,
			},
		},
		{
			Name: "partially_malformed_body",
			Body: workedExample + "&Extra=100%",
			Expected: map[string]string{
				"MessageSID":  "SMxxx",
				"ErrorCode":   "30003",
				"Level":       "ERROR",
				"Timestamp":   "2024-01-01T00:00:00Z",
				"MessageBody": relay.Unknown,
			},
		},
		{
			Name: "invalid_payload",
			Body: "Payload=not-json",
			Expected: map[string]string{
				"MessageSID":  "",
				"ErrorCode":   "",
				"Level":       relay.Unknown,
				"Timestamp":   relay.Unknown,
				"MessageBody": relay.Unknown,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			fake := &fakeFileMaker{}
			h, err := handler.NewRelayHandler(
				handler.WithFileMaker(newFileMaker(t, fake)),
				handler.WithWriteMode(relay.WriteModeRecord, layout, ""))
			require.NoError(t, err)

			assertAck(t, h.Process(context.Background(), models.Request{Body: tc.Body}))
			assert.Equal(t, tc.Expected, fake.fieldData)

			// same input, same record
			first := fake.fieldData
			h.Process(context.Background(), models.Request{Body: tc.Body})
			assert.Equal(t, first, fake.fieldData)
		})
	}
}

func TestProcessScriptModeWithEnrichment(t *testing.T) {
	twilioSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"sid":"SMxxx","body":"Your code is <1234> & more"}`)
	}))
	defer twilioSrv.Close()
	twilioCtl, err := twilio.NewController(
		twilio.WithCredentials("AC1", "secret"),
		twilio.WithBaseURL(twilioSrv.URL))
	require.NoError(t, err)

	tmpl, err := relay.ParseMessageTemplate(`{{ .ErrorCode }} on {{ .ResourceSid }}: {{ .MessageBody }}`)
	require.NoError(t, err)

	testCases := []struct {
		Name     string
		Template *relay.MessageTemplate
		Expected string
	}{
		{
			Name:     "json_record",
			Expected: `{"ErrorCode":"30003","Level":"ERROR","MessageBody":"Your code is <1234> & more","MessageSID":"SMxxx","Timestamp":"2024-01-01T00:00:00Z"}`,
		},
		{
			Name:     "message_template",
			Template: tmpl,
			Expected: "30003 on SMxxx: Your code is <1234> & more",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			fake := &fakeFileMaker{}
			h, err := handler.NewRelayHandler(
				handler.WithFileMaker(newFileMaker(t, fake)),
				handler.WithTwilio(twilioCtl),
				handler.WithMessageTemplate(tc.Template),
				handler.WithWriteMode(relay.WriteModeScript, layout, script))
			require.NoError(t, err)

			assertAck(t, h.Process(context.Background(), models.Request{Body: workedExample}))
			assert.Equal(t, tc.Expected, fake.scriptParam)
			assert.Contains(t, fake.Calls(), "DELETE /sessions/"+token)
		})
	}
}

func TestProcessWithoutDatastore(t *testing.T) {
	for _, mode := range []relay.WriteMode{relay.WriteModeNone, relay.WriteModeRecord} {
		t.Run(string(mode), func(t *testing.T) {
			h, err := handler.NewRelayHandler(handler.WithWriteMode(mode, "", ""))
			require.NoError(t, err)
			assertAck(t, h.Process(context.Background(), models.Request{Body: workedExample}))
		})
	}
}

func TestProcessRejectsInvalidSignature(t *testing.T) {
	fake := &fakeFileMaker{}
	recorder := metrics.NewRecorder()
	h, err := handler.NewRelayHandler(
		handler.WithFileMaker(newFileMaker(t, fake)),
		handler.WithWriteMode(relay.WriteModeRecord, layout, ""),
		handler.WithSignatureValidation("secret", "https://relay.example.com/"),
		handler.WithRecorder(recorder))
	require.NoError(t, err)

	response := h.Process(context.Background(), models.Request{
		Body:    workedExample,
		Headers: map[string]string{"x-twilio-signature": "forged"},
	})
	assert.Equal(t, http.StatusForbidden, response.StatusCode)
	assert.Empty(t, fake.Calls())
	assert.Contains(t, scrape(t, recorder), `relay_notifications_total{outcome="rejected"} 1`)
}

func TestProcessIgnoresCallerCancellation(t *testing.T) {
	fake := &fakeFileMaker{}
	h, err := handler.NewRelayHandler(
		handler.WithFileMaker(newFileMaker(t, fake)),
		handler.WithWriteMode(relay.WriteModeRecord, layout, ""))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assertAck(t, h.Process(ctx, models.Request{Body: workedExample}))
	assert.Len(t, fake.Calls(), 3)
}

func TestNewRelayHandlerValidation(t *testing.T) {
	ctl, err := filemaker.NewController(filemaker.WithHost("fm.example.com"), filemaker.WithDatabase(database))
	require.NoError(t, err)

	_, err = handler.NewRelayHandler(handler.WithFileMaker(ctl), handler.WithWriteMode(relay.WriteModeRecord, "", ""))
	assert.Error(t, err)
	_, err = handler.NewRelayHandler(handler.WithFileMaker(ctl), handler.WithWriteMode(relay.WriteModeScript, layout, ""))
	assert.Error(t, err)
	_, err = handler.NewRelayHandler(handler.WithFileMaker(ctl), handler.WithWriteMode(relay.WriteModeScript, layout, script))
	assert.NoError(t, err)
}

func scrape(t *testing.T, r *metrics.Recorder) string {
	t.Helper()
	rw := httptest.NewRecorder()
	r.Handler().ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rw.Body.String()
}
