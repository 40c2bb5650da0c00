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

// Package api implements the public-facing HTTP server for the
// sliding-window statistics service. It handles request parsing and
// serialization and delegates all statistical logic to the directory and
// the per-symbol aggregators it resolves.
package api

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"streamstat/internal/directory"
	"streamstat/internal/metrics"
	"streamstat/pkg/aggregator"
)

// Server handles the HTTP requests for the statistics service.
type Server struct {
	dir *directory.Directory
	log zerolog.Logger
}

// NewServer creates a new API server backed by dir.
func NewServer(dir *directory.Directory, log zerolog.Logger) *Server {
	return &Server{dir: dir, log: log}
}

// RegisterRoutes wires the service's two endpoints onto mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/add_batch/", s.handleAddBatch)
	mux.HandleFunc("/stats/", s.handleStats)
}

// ListenAndServe starts the HTTP server on addr.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	s.log.Info().Str("addr", addr).Msg("statistics API server listening")
	return httpServer.ListenAndServe()
}

// handleAddBatch implements POST /add_batch/. The body is
// {"symbol": "<id>", "values": [<f64>, ...]}. Values that are non-finite
// or exceed the aggregator's magnitude bound are silently skipped by the
// aggregator itself, not here; this handler only validates shape.
func (s *Server) handleAddBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req addBatchRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "malformed JSON body", http.StatusBadRequest)
		return
	}
	if req.Symbol == "" {
		http.Error(w, "missing required field: symbol", http.StatusBadRequest)
		return
	}

	start := time.Now()
	agg := s.dir.GetOrCreate(req.Symbol)
	s.addBatchOrDie(agg, req.Symbol, req.Values)
	metrics.ObserveAddBatchLatency(time.Since(start))
	metrics.SetSymbolsTracked(s.dir.Count())

	accepted, skipped := countAccepted(req.Values)
	metrics.ObserveBatch(accepted, skipped)

	s.log.Debug().
		Str("symbol", req.Symbol).
		Int("submitted", len(req.Values)).
		Int("accepted", accepted).
		Int("skipped", skipped).
		Msg("add_batch applied")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("{}"))
}

// addBatchOrDie calls AddBatch and turns an ErrIndexOverflow panic into a
// process exit. The absolute-index counter overflowing is an unrecoverable
// invariant violation, not a request-scoped failure: net/http's default
// per-connection panic recovery would otherwise just log a stack trace and
// keep serving other symbols on a corrupted aggregator, which is worse than
// going down.
func (s *Server) addBatchOrDie(agg *aggregator.Aggregator, symbol string, values []float64) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Fatal().
				Str("symbol", symbol).
				Interface("panic", r).
				Msg("fatal invariant violation in add_batch, exiting")
		}
	}()
	agg.AddBatch(values)
}

// countAccepted re-derives how many of the submitted values the aggregator
// will accept, purely for metrics/logging; it duplicates the aggregator's
// acceptance rule rather than the aggregator reporting it back, keeping
// Aggregator's public surface free of anything transport-shaped.
func countAccepted(values []float64) (accepted, skipped int) {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > 1e153 {
			skipped++
		} else {
			accepted++
		}
	}
	return accepted, skipped
}

// handleStats implements GET /stats/?symbol=<id>&k=<1..8>. A symbol never
// referenced before yields a 200 with an empty response rather than a 404,
// matching the directory's own create-on-first-reference semantics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		http.Error(w, "missing required parameter: symbol", http.StatusBadRequest)
		return
	}

	kStr := r.URL.Query().Get("k")
	if kStr == "" {
		http.Error(w, "missing required parameter: k", http.StatusBadRequest)
		return
	}
	k, err := strconv.Atoi(kStr)
	if err != nil || k < 1 || k > aggregator.NumLevels {
		http.Error(w, "k must be an integer in [1,8]", http.StatusBadRequest)
		return
	}

	start := time.Now()
	var resp statsResponse
	if agg, ok := s.dir.Lookup(symbol); ok {
		st := agg.Stats(k)
		resp = statsResponse{
			Min:  sanitize(st.Min),
			Max:  sanitize(st.Max),
			Last: sanitize(st.Last),
			Avg:  sanitize(st.Avg),
			Var:  sanitize(st.Var),
			Size: st.Count,
		}
	}
	metrics.ObserveStatsLatency(time.Since(start))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// sanitize clamps a non-finite result to 0 so the JSON encoder never has
// to reject a NaN/Infinity value it cannot represent.
func sanitize(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}
