package filemaker

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/oauth2"
)

// Session is an open Data API session. It is meant for one short unit of work and must be
// released with Logout.
type Session struct {
	controller *Controller
	token      string
	client     *http.Client

	mu     sync.Mutex
	closed bool
}

// ScriptResult is the outcome of a script run.
type ScriptResult struct {
	Result string `json:"scriptResult"`
	Error  string `json:"scriptError"`
}

// ScriptParam encodes v as a JSON script parameter. HTML characters are kept literal.
func ScriptParam(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func newSession(c *Controller, token string) *Session {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.client)
	return &Session{
		controller: c,
		token:      token,
		client: oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		})),
	}
}

// Token returns the bearer token of the session.
func (s *Session) Token() string {
	return s.token
}

// CreateRecord creates one record on layout and returns its record ID.
func (s *Session) CreateRecord(ctx context.Context, layout string, fieldData map[string]string) (string, error) {
	c := s.controller
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	payload, err := json.Marshal(struct {
		FieldData map[string]string `json:"fieldData"`
	}{FieldData: fieldData})
	if err != nil {
		return "", &APIError{Op: "create-record", Cause: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("layouts", layout, "records"), bytes.NewReader(payload))
	if err != nil {
		return "", &APIError{Op: "create-record", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		RecordID string `json:"recordId"`
		ModID    string `json:"modId"`
	}
	if _, err = c.do(s.client, "create-record", req, &out); err != nil {
		return "", err
	}
	return out.RecordID, nil
}

// RunScript runs script in the context of layout with param as its parameter.
// A non-zero script error is reported as an *APIError.
func (s *Session) RunScript(ctx context.Context, layout, script, param string) (*ScriptResult, error) {
	c := s.controller
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	target := c.endpoint("layouts", layout, "script", script) + "?" + url.Values{"script.param": {param}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &APIError{Op: "run-script", Cause: err}
	}

	var out ScriptResult
	if _, err = c.do(s.client, "run-script", req, &out); err != nil {
		return nil, err
	}
	if out.Error != "" && out.Error != "0" {
		return &out, &APIError{Op: "run-script", StatusCode: http.StatusOK, Code: out.Error, Message: "script error"}
	}
	return &out, nil
}

// Logout releases the session. Calling it more than once only calls the server once.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	c := s.controller
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint("sessions", s.token), nil)
	if err != nil {
		return &APIError{Op: "logout", Cause: err}
	}
	if _, err = c.do(c.client, "logout", req, nil); err != nil {
		return err
	}
	c.logger.Debug("FileMaker session closed")
	return nil
}
