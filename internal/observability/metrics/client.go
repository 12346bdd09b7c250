// Package metrics emits the client's session and API-call metrics.
package metrics

import (
	"strconv"
	"time"

	obserrors "github.com/cutdesk/cutdesk/internal/observability/errors"
	"github.com/cutdesk/cutdesk/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultTimeout = "timeout"
	ResultShared  = "shared"
)

// ClientMetrics records client-side events. A nil receiver or sink drops
// every metric.
type ClientMetrics struct {
	Sink statsd.Sink
}

// New returns a ClientMetrics writing to sink.
func New(sink statsd.Sink) *ClientMetrics {
	return &ClientMetrics{Sink: sink}
}

func (m *ClientMetrics) enabled() bool { return m != nil && m.Sink != nil }

// APIRequest records one logical backend call. status 0 means the request
// never produced a response.
func (m *ClientMetrics) APIRequest(method string, status int, d time.Duration, err error) {
	if !m.enabled() {
		return
	}
	tags := map[string]string{
		"method": method,
		"status": strconv.Itoa(status),
	}
	withErrorClass(tags, err)
	m.Sink.Count("api.request", 1, tags)
	if d > 0 {
		m.Sink.Timing("api.request.duration", d, CloneTags(tags))
	}
}

// Refresh records a token refresh attempt. shared marks callers that joined
// an in-flight refresh instead of starting one.
func (m *ClientMetrics) Refresh(shared bool, err error) {
	if !m.enabled() {
		return
	}
	tags := map[string]string{"result": result(err)}
	if shared && err == nil {
		tags["result"] = ResultShared
	}
	withErrorClass(tags, err)
	m.Sink.Count("auth.refresh", 1, tags)
}

// SignIn records an interactive sign-in outcome.
func (m *ClientMetrics) SignIn(d time.Duration, err error) {
	if !m.enabled() {
		return
	}
	tags := map[string]string{"result": result(err)}
	withErrorClass(tags, err)
	m.Sink.Count("auth.signin", 1, tags)
	if d > 0 {
		m.Sink.Timing("auth.signin.duration", d, CloneTags(tags))
	}
}

// SessionExpired records a terminal session expiry.
func (m *ClientMetrics) SessionExpired() {
	if !m.enabled() {
		return
	}
	m.Sink.Count("auth.session_expired", 1, nil)
}

// DemoIntercepted records a mutating call skipped by demo mode.
func (m *ClientMetrics) DemoIntercepted(method string) {
	if !m.enabled() {
		return
	}
	m.Sink.Count("demo.intercepted", 1, map[string]string{"method": method})
}

// Connectivity reports the current backend reachability as a gauge.
func (m *ClientMetrics) Connectivity(online bool) {
	if !m.enabled() {
		return
	}
	v := 0.0
	if online {
		v = 1
	}
	m.Sink.Gauge("api.online", v, nil)
}

func result(err error) string {
	if err == nil {
		return ResultSuccess
	}
	if obserrors.Classify(err) == "timeout" {
		return ResultTimeout
	}
	return ResultError
}

func withErrorClass(tags map[string]string, err error) {
	if err == nil {
		return
	}
	if class := obserrors.Classify(err); class != "" {
		tags["error_class"] = class
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
