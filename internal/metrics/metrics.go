// Package metrics exposes Prometheus collectors for RPC traffic and split calculations.
package metrics

import (
	"context"
	"strconv"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/receiptsplit/internal/calculator"
)

const namespace = "receiptsplit"

// Metrics holds the collectors. The zero value is not usable; call New.
type Metrics struct {
	rpcRequests *prometheus.CounterVec
	rpcDuration *prometheus.HistogramVec
	splits      *prometheus.CounterVec
	unassigned  prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "Connect RPCs handled, by procedure and code.",
		}, []string{"procedure", "code"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "Connect RPC latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		splits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "split_calculations_total",
			Help:      "Split calculations performed.",
		}, []string{"reconciled"}),
		unassigned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "split_unassigned_amount",
			Help:      "Rounded amount left unassigned per calculation.",
			Buckets:   []float64{0, 1, 10, 100, 1000, 10000, 100000},
		}),
	}
	reg.MustRegister(m.rpcRequests, m.rpcDuration, m.splits, m.unassigned)
	return m
}

// Interceptor returns a Connect interceptor recording request counts and latency.
func (m *Metrics) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			procedure := req.Spec().Procedure
			code := "ok"
			if err != nil {
				code = connect.CodeOf(err).String()
			}
			m.rpcRequests.WithLabelValues(procedure, code).Inc()
			m.rpcDuration.WithLabelValues(procedure).Observe(time.Since(start).Seconds())
			return resp, err
		}
	}
}

// ObserveSplit records one split calculation.
func (m *Metrics) ObserveSplit(result *calculator.SplitResult, reconciled bool) {
	m.splits.WithLabelValues(strconv.FormatBool(reconciled)).Inc()
	m.unassigned.Observe(result.UnassignedTotal.InexactFloat64())
}
