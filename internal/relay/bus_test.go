package relay_test

import (
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/isometry/twilio-fm-relay/internal/models"
	"github.com/isometry/twilio-fm-relay/internal/relay"
	"github.com/stretchr/testify/assert"
)

type fakeDownstream struct{}

func (fakeDownstream) Error() string        { return "boom" }
func (fakeDownstream) HTTPStatus() int      { return http.StatusInternalServerError }
func (fakeDownstream) ResponseBody() string { return `{"messages":[]}` }

func TestAck(t *testing.T) {
	ack := relay.Ack()
	assert.Equal(t, http.StatusOK, ack.StatusCode)
	assert.Equal(t, "<Response></Response>", ack.Body)
	assert.Equal(t, "application/xml", ack.Headers["Content-Type"])
}

func TestBusOutcome(t *testing.T) {
	bus := relay.NewBus(models.Request{})
	assert.NotEmpty(t, bus.ID)
	assert.Equal(t, relay.Relayed, bus.Outcome())

	bus.Fail(&relay.WriteError{Mode: relay.WriteModeRecord, Cause: errors.New("x")})
	assert.Equal(t, relay.Degraded, bus.Outcome())
	assert.True(t, bus.Failed(relay.KindWrite))
	assert.False(t, bus.Failed(relay.KindAuth))

	bus.Reject(models.Response{StatusCode: http.StatusForbidden})
	assert.Equal(t, relay.Rejected, bus.Outcome())
}

func TestFailureLogValue(t *testing.T) {
	testCases := []struct {
		Name    string
		Failure relay.Failure
		Kind    relay.Kind
		Attrs   []string
	}{
		{
			Name:    "auth_with_downstream",
			Failure: &relay.AuthError{Cause: fakeDownstream{}},
			Kind:    relay.KindAuth,
			Attrs:   []string{"kind", "cause", "statusCode", "body"},
		},
		{
			Name:    "teardown_plain",
			Failure: &relay.TeardownError{Cause: errors.New("timeout")},
			Kind:    relay.KindTeardown,
			Attrs:   []string{"kind", "cause"},
		},
		{
			Name:    "upstream_fetch",
			Failure: &relay.UpstreamFetchError{MessageSid: "SM1", Cause: fakeDownstream{}},
			Kind:    relay.KindUpstreamFetch,
			Attrs:   []string{"kind", "messageSid", "cause", "statusCode", "body"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Kind, tc.Failure.Kind())
			v := tc.Failure.(slog.LogValuer).LogValue()
			var keys []string
			for _, a := range v.Group() {
				keys = append(keys, a.Key)
			}
			assert.Equal(t, tc.Attrs, keys)
		})
	}
}
