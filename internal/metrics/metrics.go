// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes process-level Prometheus counters and
// histograms for the sliding-window statistics service. Recording
// functions are cheap, lock-free, and safe to call unconditionally from
// the hot path; serving them on an HTTP endpoint is opt-in.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	observationsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "streamstat_observations_accepted_total",
		Help: "Total observations accepted into an aggregator across all symbols.",
	})
	observationsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "streamstat_observations_skipped_total",
		Help: "Total observations silently skipped for being non-finite or out of range.",
	})
	batchSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "streamstat_add_batch_size",
		Help:    "Distribution of the number of values per add_batch request.",
		Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 256, 1024, 4096},
	})
	statsLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "streamstat_stats_request_duration_seconds",
		Help:    "Latency of GET /stats/ requests.",
		Buckets: prometheus.DefBuckets,
	})
	addBatchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "streamstat_add_batch_request_duration_seconds",
		Help:    "Latency of POST /add_batch/ requests.",
		Buckets: prometheus.DefBuckets,
	})
	symbolsTracked = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "streamstat_symbols_tracked",
		Help: "Number of distinct symbols currently held in the directory.",
	})
)

func init() {
	prometheus.MustRegister(
		observationsAccepted,
		observationsSkipped,
		batchSize,
		statsLatency,
		addBatchLatency,
		symbolsTracked,
	)
}

// ObserveBatch records the outcome of a single add_batch request: how many
// of the submitted values were accepted vs. silently skipped.
func ObserveBatch(accepted, skipped int) {
	if accepted > 0 {
		observationsAccepted.Add(float64(accepted))
	}
	if skipped > 0 {
		observationsSkipped.Add(float64(skipped))
	}
	batchSize.Observe(float64(accepted + skipped))
}

// ObserveAddBatchLatency records how long an add_batch request took.
func ObserveAddBatchLatency(d time.Duration) {
	addBatchLatency.Observe(d.Seconds())
}

// ObserveStatsLatency records how long a stats request took.
func ObserveStatsLatency(d time.Duration) {
	statsLatency.Observe(d.Seconds())
}

// SetSymbolsTracked updates the gauge reporting directory size.
func SetSymbolsTracked(n int) {
	symbolsTracked.Set(float64(n))
}

// Handler returns the promhttp handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartEndpoint exposes /metrics on addr in a background goroutine. Safe
// to call with an empty addr, which is a no-op (the caller is expected to
// check first, but this stays total for convenience).
func StartEndpoint(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		_ = server.ListenAndServe()
	}()
}
