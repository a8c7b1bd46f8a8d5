package metrics

import (
    "net/http"
    "sync"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    sectionsGenerated = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pagecomposer",
            Name:      "sections_generated_total",
            Help:      "Section generation attempts by strategy and result",
        },
        []string{"strategy", "result"},
    )

    generationLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "pagecomposer",
            Name:      "generation_duration_seconds",
            Help:      "Duration of section generation by strategy",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"strategy"},
    )

    serviceReqs = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pagecomposer",
            Name:      "service_requests_total",
            Help:      "Generation service calls by endpoint and result",
        },
        []string{"endpoint", "result"},
    )

    inflight = prometheus.NewGauge(
        prometheus.GaugeOpts{
            Namespace: "pagecomposer",
            Name:      "sections_inflight",
            Help:      "Sections currently generating",
        },
    )

    downgrades = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "pagecomposer",
            Name:      "strategy_downgrades_total",
            Help:      "Crop renders downgraded to the fallback render",
        },
    )

    breakerEvents = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pagecomposer",
            Name:      "breaker_events_total",
            Help:      "Circuit breaker events by endpoint and action",
        },
        []string{"endpoint", "action"},
    )

    pagesSaved = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pagecomposer",
            Name:      "pages_saved_total",
            Help:      "Assembled pages handed to persistence by backend and result",
        },
        []string{"backend", "result"},
    )

    once sync.Once
)

// Init registers collectors. Safe to call more than once.
func Init() {
    once.Do(func() {
        prometheus.MustRegister(sectionsGenerated, generationLatency, serviceReqs, inflight, downgrades, breakerEvents, pagesSaved)
    })
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveGeneration(strategy, result string, dur time.Duration) {
    sectionsGenerated.WithLabelValues(strategy, result).Inc()
    generationLatency.WithLabelValues(strategy).Observe(dur.Seconds())
}

func ObserveService(endpoint, result string) { serviceReqs.WithLabelValues(endpoint, result).Inc() }

func SetInflight(n int) { inflight.Set(float64(n)) }

func IncDowngrade() { downgrades.Inc() }

func BreakerOpened(endpoint string) { breakerEvents.WithLabelValues(endpoint, "opened").Inc() }
func BreakerClosed(endpoint string) { breakerEvents.WithLabelValues(endpoint, "closed").Inc() }
func BreakerRejected(endpoint string) { breakerEvents.WithLabelValues(endpoint, "rejected").Inc() }

func IncSaved(backend string, ok bool) {
    result := "success"
    if !ok { result = "error" }
    pagesSaved.WithLabelValues(backend, result).Inc()
}
