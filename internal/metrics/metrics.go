// Package metrics exposes Prometheus counters for relay outcomes and instruments outbound calls.
package metrics

import (
	"net/http"

	"github.com/isometry/twilio-fm-relay/internal/relay"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "relay"

// Upstream label values.
const (
	UpstreamFileMaker = "filemaker"
	UpstreamTwilio    = "twilio"
)

// Recorder owns a dedicated registry. A nil *Recorder records nothing.
type Recorder struct {
	registry      *prometheus.Registry
	notifications *prometheus.CounterVec
	failures      *prometheus.CounterVec
	upstream      *prometheus.HistogramVec
}

// NewRecorder registers the relay collectors together with the Go and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications handled, by outcome.",
		}, []string{"outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Recovered failures, by kind.",
		}, []string{"kind"}),
		upstream: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of outbound calls to FileMaker and Twilio.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"upstream", "code", "method"}),
	}
	r.registry.MustRegister(
		r.notifications,
		r.failures,
		r.upstream,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe counts the outcome of bus and each of its failures.
func (r *Recorder) Observe(bus *relay.Bus) {
	if r == nil || bus == nil {
		return
	}
	r.notifications.WithLabelValues(string(bus.Outcome())).Inc()
	for _, f := range bus.Failures {
		r.failures.WithLabelValues(string(f.Kind())).Inc()
	}
}

// InstrumentTransport wraps next so that every round trip is timed under upstream.
func (r *Recorder) InstrumentTransport(upstream string, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if r == nil {
		return next
	}
	observer := r.upstream.MustCurryWith(prometheus.Labels{"upstream": upstream})
	return promhttp.InstrumentRoundTripperDuration(observer, next)
}

// InstrumentClient returns a shallow copy of client with an instrumented transport.
func (r *Recorder) InstrumentClient(upstream string, client *http.Client) *http.Client {
	instrumented := *client
	instrumented.Transport = r.InstrumentTransport(upstream, client.Transport)
	return &instrumented
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
