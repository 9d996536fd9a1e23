package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Dispatch metrics
	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ava_dispatch_total",
			Help: "Total number of dispatch cycles by branch",
		},
		[]string{"branch", "status"}, // status: success|aborted|error
	)

	DispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ava_dispatch_duration_seconds",
			Help:    "Dispatch cycle duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"branch"},
	)

	// Agent metrics
	AgentCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ava_agent_calls_total",
			Help: "Total number of model calls per agent",
		},
		[]string{"agent", "model", "status"}, // status: success|error|retry
	)

	AgentLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ava_agent_latency_seconds",
			Help:    "Model call latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"agent", "model"},
	)

	AgentTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ava_agent_tokens_total",
			Help: "Total tokens used by agents",
		},
		[]string{"agent", "model", "type"}, // type: input|output
	)

	// Market data metrics
	CollaboratorCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ava_collaborator_calls_total",
			Help: "Total number of market data collaborator calls",
		},
		[]string{"collaborator", "status"}, // status: success|error|cache_hit
	)

	CollaboratorLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ava_collaborator_latency_seconds",
			Help:    "Market data collaborator latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"collaborator"},
	)
)

var initOnce sync.Once

// Init registers all metrics with the default registry
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(DispatchTotal)
		prometheus.MustRegister(DispatchDuration)

		prometheus.MustRegister(AgentCalls)
		prometheus.MustRegister(AgentLatency)
		prometheus.MustRegister(AgentTokens)

		prometheus.MustRegister(CollaboratorCalls)
		prometheus.MustRegister(CollaboratorLatency)
	})
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordDispatch records one dispatch cycle
func RecordDispatch(branch, status string, duration time.Duration) {
	DispatchTotal.WithLabelValues(branch, status).Inc()
	DispatchDuration.WithLabelValues(branch).Observe(duration.Seconds())
}

// RecordAgentCall records one model call attempt
func RecordAgentCall(agent, model string, latency time.Duration, inputTokens, outputTokens int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	AgentCalls.WithLabelValues(agent, model, status).Inc()
	AgentLatency.WithLabelValues(agent, model).Observe(latency.Seconds())

	if inputTokens > 0 {
		AgentTokens.WithLabelValues(agent, model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		AgentTokens.WithLabelValues(agent, model, "output").Add(float64(outputTokens))
	}
}

// RecordAgentRetry records a retried model call
func RecordAgentRetry(agent, model string) {
	AgentCalls.WithLabelValues(agent, model, "retry").Inc()
}

// RecordCollaboratorCall records a market data lookup
func RecordCollaboratorCall(collaborator string, latency time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	CollaboratorCalls.WithLabelValues(collaborator, status).Inc()
	CollaboratorLatency.WithLabelValues(collaborator).Observe(latency.Seconds())
}

// RecordCacheHit records a lookup served from cache
func RecordCacheHit(collaborator string) {
	CollaboratorCalls.WithLabelValues(collaborator, "cache_hit").Inc()
}
