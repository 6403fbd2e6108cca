package api

import (
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality (no per-entity labels)
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_tick_duration_seconds",
		Help:    "Time spent in one simulation tick",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	deliveriesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deliveries_completed_total",
		Help: "Deliveries completed",
	})

	deliveriesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deliveries_failed_total",
		Help: "Deliveries failed",
	}, []string{"reason"}) // Bounded: "timeout", "dropped"

	tricksLanded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tricks_landed_total",
		Help: "Tricks landed successfully",
	})

	obstacleCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "world_obstacle_count",
		Help: "Live ambient entities by kind",
	}, []string{"kind"}) // Bounded: "car", "drone", "pedestrian"

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit"

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket messages sent",
	})
)

// ObservabilityConfig configures the debug server.
type ObservabilityConfig struct {
	Enabled    bool
	ListenAddr string // MUST stay on localhost in production
}

// DefaultObservabilityConfig returns safe defaults.
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060", // Localhost only - never expose externally
	}
}

// StartDebugServer starts pprof + metrics on a localhost-only listener.
func StartDebugServer(cfg ObservabilityConfig) error {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}

	// SECURITY: force localhost unless explicitly overridden
	if cfg.ListenAddr != "127.0.0.1:6060" && cfg.ListenAddr != "localhost:6060" {
		if os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
			log.Println("⚠️ Debug server forced to localhost")
			cfg.ListenAddr = "127.0.0.1:6060"
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	go func() {
		log.Printf("📊 Debug server on %s (pprof + metrics)", cfg.ListenAddr)
		if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()

	return nil
}

// RecordTick records tick timing.
func RecordTick(duration time.Duration) {
	tickDuration.Observe(duration.Seconds())
}

// RecordDeliveryCompleted increments the completion counter.
func RecordDeliveryCompleted() {
	deliveriesCompleted.Inc()
}

// RecordDeliveryFailed increments the failure counter.
// reason must be "timeout" or "dropped".
func RecordDeliveryFailed(reason string) {
	deliveriesFailed.WithLabelValues(reason).Inc()
}

// RecordTrickLanded increments the trick counter.
func RecordTrickLanded() {
	tricksLanded.Inc()
}

// UpdateObstacleCount sets the population gauge for one entity kind.
func UpdateObstacleCount(kind string, count int) {
	obstacleCount.WithLabelValues(kind).Set(float64(count))
}

// RecordConnectionRejected increments the rejection counter.
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// UpdateWSConnections sets the active connection gauge.
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages counts one broadcast.
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}
