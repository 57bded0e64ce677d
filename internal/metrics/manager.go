package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Namespace = "weighttracker"
	Subsystem = "client"
)

// Manager holds every collector of the client. A nil *Manager is valid and
// records nothing.
type Manager struct {
	// counters
	CounterBackendRequests *prometheus.CounterVec
	CounterServedRequests  *prometheus.CounterVec
	CounterEpochs          prometheus.Counter
	CounterCoalesced       prometheus.Counter
	CounterStaleDiscarded  prometheus.Counter
	CounterSectionFailures *prometheus.CounterVec
	CounterMutations       *prometheus.CounterVec

	// gauges
	GaugePublishedEpoch prometheus.Gauge

	// histograms
	HistBackendRequestDuration prometheus.Histogram
	HistEpochDuration          prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("backend", "test_client", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("backend", "test_client", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterBackendRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "backend_request",
		Help:      "The total number of requests sent to the backend API",
	}, []string{"method", "status"})
	counterServedRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "served_request",
		Help:      "The total number of dashboard requests served",
	}, []string{"method", "status"})
	counterEpochs := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "refresh_epochs",
		Help:      "The total number of started refresh epochs",
	})
	counterCoalesced := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "refresh_coalesced",
		Help:      "Invalidations folded into an already pending refresh",
	})
	counterStale := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "refresh_stale_discarded",
		Help:      "Epoch results dropped because a newer epoch had started",
	})
	counterSectionFailures := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "section_failures",
		Help:      "Failed section reads during refresh",
	}, []string{"section"})
	counterMutations := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "mutations",
		Help:      "Mutations submitted through the forms",
	}, []string{"op", "result"})

	gaugePublishedEpoch := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "published_epoch",
		Help:      "Sequence number of the last published view model",
	})

	histBackendRequestDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of backend API calls in seconds",
	})
	histEpochDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		Name:      "refresh_epoch_duration_seconds",
		Help:      "Duration of a full refresh fan-out in seconds",
	})

	return &Manager{
		CounterBackendRequests:     counterBackendRequests,
		CounterServedRequests:      counterServedRequests,
		CounterEpochs:              counterEpochs,
		CounterCoalesced:           counterCoalesced,
		CounterStaleDiscarded:      counterStale,
		CounterSectionFailures:     counterSectionFailures,
		CounterMutations:           counterMutations,
		GaugePublishedEpoch:        gaugePublishedEpoch,
		HistBackendRequestDuration: histBackendRequestDuration,
		HistEpochDuration:          histEpochDuration,
	}
}

// StatusClass buckets an HTTP status into "2xx", "4xx" and so on. Zero means
// no response was received.
func StatusClass(code int) string {
	if code == 0 {
		return "error"
	}
	return strconv.Itoa(code/100) + "xx"
}

func (m *Manager) BackendRequest(method string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.CounterBackendRequests.WithLabelValues(method, StatusClass(status)).Inc()
	m.HistBackendRequestDuration.Observe(took.Seconds())
}

func (m *Manager) Served(method string, status int) {
	if m == nil {
		return
	}
	m.CounterServedRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func (m *Manager) EpochStarted() {
	if m == nil {
		return
	}
	m.CounterEpochs.Inc()
}

func (m *Manager) EpochPublished(epoch uint64, took time.Duration) {
	if m == nil {
		return
	}
	m.GaugePublishedEpoch.Set(float64(epoch))
	m.HistEpochDuration.Observe(took.Seconds())
}

func (m *Manager) Coalesced() {
	if m == nil {
		return
	}
	m.CounterCoalesced.Inc()
}

func (m *Manager) StaleDiscarded() {
	if m == nil {
		return
	}
	m.CounterStaleDiscarded.Inc()
}

func (m *Manager) SectionFailed(section string) {
	if m == nil {
		return
	}
	m.CounterSectionFailures.WithLabelValues(section).Inc()
}

func (m *Manager) Mutation(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.CounterMutations.WithLabelValues(op, result).Inc()
}
