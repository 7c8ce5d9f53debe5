package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/realmctl/pkg/metrics"
)

func init() {
	metrics.RegisterRealmMetricsConstructor(NewRealmMetrics)
}

// realmMetrics is the Prometheus implementation of metrics.RealmMetrics.
type realmMetrics struct {
	calls        *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	diagnostics  *prometheus.CounterVec
	outcomes     *prometheus.CounterVec
	cancels      prometheus.Counter
}

// NewRealmMetrics creates a Prometheus-backed RealmMetrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewRealmMetrics() metrics.RealmMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &realmMetrics{
		calls: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "realmctl_calls_total",
				Help: "Total number of realmd calls by method and error",
			},
			[]string{"method", "error"},
		),
		callDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "realmctl_call_duration_seconds",
				Help: "Duration of realmd calls in seconds",
				Buckets: []float64{
					0.05, // local cache hit
					0.25,
					1,
					5,   // DNS SRV + LDAP discovery
					15,  // typical join
					60,  // slow KDC
					300, // call timeout
				},
			},
			[]string{"method"},
		),
		diagnostics: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "realmctl_diagnostics_total",
				Help: "Total number of diagnostics chunks received by operation kind",
			},
			[]string{"operation"},
		),
		outcomes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "realmctl_runs_total",
				Help: "Total number of join/leave runs by terminal state",
			},
			[]string{"action", "state"},
		),
		cancels: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "realmctl_cancel_requests_total",
				Help: "Total number of Cancel requests sent to realmd",
			},
		),
	}
}

func (m *realmMetrics) ObserveCall(method string, duration time.Duration, errorName string) {
	m.calls.WithLabelValues(method, errorName).Inc()
	m.callDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func (m *realmMetrics) RecordDiagnostic(operation string) {
	m.diagnostics.WithLabelValues(operation).Inc()
}

func (m *realmMetrics) RecordOutcome(action, state string) {
	m.outcomes.WithLabelValues(action, state).Inc()
}

func (m *realmMetrics) RecordCancel() {
	m.cancels.Inc()
}
