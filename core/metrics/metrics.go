// Package metrics exposes Prometheus collectors for handlers, conversations and storage.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/wishbot/core/logger"
)

var (
	handlerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wishbot_handler_duration_seconds",
			Help:    "Duration of Telegram update handlers in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler", "status"},
	)

	handlerTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wishbot_handler_total",
			Help: "Total number of handled Telegram updates",
		},
		[]string{"handler", "status"},
	)

	transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wishbot_conversation_transitions_total",
			Help: "Conversation state machine transitions by phase, input kind and outcome",
		},
		[]string{"phase", "kind", "outcome"},
	)

	flowsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wishbot_flows_completed_total",
			Help: "Conversation flows that reached their terminal action",
		},
		[]string{"flow", "status"},
	)

	storeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wishbot_store_operation_duration_seconds",
			Help:    "Duration of persistence operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)

	storeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wishbot_store_operations_total",
			Help: "Total number of persistence operations",
		},
		[]string{"operation", "status"},
	)

	sendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wishbot_send_failures_total",
			Help: "Outbound Telegram calls that failed after retries",
		},
	)
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveHandler records one handled update.
func ObserveHandler(handler string, d time.Duration, err error) {
	s := status(err)
	handlerDuration.WithLabelValues(handler, s).Observe(d.Seconds())
	handlerTotal.WithLabelValues(handler, s).Inc()
}

// RecordTransition counts one state machine step.
func RecordTransition(phase, kind, outcome string) {
	transitions.WithLabelValues(phase, kind, outcome).Inc()
}

// RecordFlowCompleted counts a flow that ran its terminal action.
func RecordFlowCompleted(flow string, err error) {
	flowsCompleted.WithLabelValues(flow, status(err)).Inc()
}

// RecordStoreOperation records one persistence call.
func RecordStoreOperation(operation string, d time.Duration, err error) {
	s := status(err)
	storeDuration.WithLabelValues(operation, s).Observe(d.Seconds())
	storeTotal.WithLabelValues(operation, s).Inc()
}

// RecordSendFailure counts an outbound call given up on.
func RecordSendFailure() {
	sendFailures.Inc()
}

// Serve exposes /metrics on addr until ctx is done. An empty addr disables the listener.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info(ctx, logger.CompApp, "metrics.listen", slog.String("listen", addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
