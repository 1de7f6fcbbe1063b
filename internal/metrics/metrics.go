// Package metrics records resolver and preview-server activity as Prometheus
// metrics.
package metrics

import (
	"net/http"
	"strconv"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resolution outcomes.
const (
	ResultOK          = "ok"
	ResultConfigError = "config_error"
)

// Recorder is the sink the host tool reports into.
type Recorder interface {
	ObserveResolution(result string)
	ObserveWarning(code string)
	ObserveRequest(method string, status int)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) ObserveResolution(string) {}
func (NoopRecorder) ObserveWarning(string) {}
func (NoopRecorder) ObserveRequest(string, int) {}

// PrometheusRecorder implements Recorder using Prometheus counters.
type PrometheusRecorder struct {
	resolutions *prom.CounterVec
	warnings    *prom.CounterVec
	requests    *prom.CounterVec
}

// NewPrometheusRecorder creates the counters and registers them on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	pr := &PrometheusRecorder{
		resolutions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "shellbuild",
			Name:      "resolutions_total",
			Help:      "Option literal resolutions by outcome",
		}, []string{"result"}),
		warnings: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "shellbuild",
			Name:      "pairing_warnings_total",
			Help:      "Advisory directive pairing warnings by code",
		}, []string{"code"}),
		requests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "shellbuild",
			Name:      "http_requests_total",
			Help:      "Preview server requests by method and status",
		}, []string{"method", "status"}),
	}
	reg.MustRegister(pr.resolutions, pr.warnings, pr.requests)
	return pr
}

func (p *PrometheusRecorder) ObserveResolution(result string) {
	p.resolutions.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) ObserveWarning(code string) {
	p.warnings.WithLabelValues(code).Inc()
}

func (p *PrometheusRecorder) ObserveRequest(method string, status int) {
	p.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// HTTPHandler serves the metrics gathered by reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
