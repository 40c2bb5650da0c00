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

// Package main provides the entry point for the streamstat service.
//
// streamstat keeps a rolling window of numeric observations per symbol and
// answers sliding-window statistics (min, max, last, average, variance)
// over eight fixed window levels (10^1 .. 10^8 observations). This file
// wires together the directory of per-symbol aggregators, the HTTP API,
// the Prometheus metrics endpoint, and the periodic housekeeping logger,
// and manages graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"streamstat/internal/api"
	"streamstat/internal/directory"
	"streamstat/internal/metrics"
)

type opts struct {
	addr              string
	metricsAddr       string
	logLevel          string
	housekeepInterval time.Duration
	shutdownTimeout   time.Duration
}

func main() {
	var o opts

	root := &cobra.Command{
		Use:   "streamstat",
		Short: "In-memory sliding-window statistics service",
		Long: `streamstat ingests batches of numeric observations tagged by symbol and
answers sliding-window statistics (min, max, last, avg, var) over eight
fixed window sizes: 10, 100, 1000, ..., 100000000 most recent observations.

Examples:
  streamstat --addr :3000 --metrics_addr :9090
  streamstat --log_level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(o)
		},
	}

	root.Flags().StringVar(&o.addr, "addr", ":3000", "HTTP listen address for the statistics API")
	root.Flags().StringVar(&o.metricsAddr, "metrics_addr", "", "if non-empty, expose Prometheus /metrics on this address (e.g., :9090)")
	root.Flags().StringVar(&o.logLevel, "log_level", "info", "minimum log level: debug, info, warn, error")
	root.Flags().DurationVar(&o.housekeepInterval, "housekeep_interval", 30*time.Second, "how often to log directory size; 0 disables")
	root.Flags().DurationVar(&o.shutdownTimeout, "shutdown_timeout", 5*time.Second, "grace period for in-flight requests during shutdown")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(o opts) error {
	level, err := zerolog.ParseLevel(o.logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	dir := directory.New()

	housekeeper := directory.NewHousekeeper(dir, log, o.housekeepInterval)
	housekeeper.Start()

	metrics.StartEndpoint(o.metricsAddr)
	if o.metricsAddr != "" {
		log.Info().Str("addr", o.metricsAddr).Msg("metrics endpoint listening")
	}

	apiServer := api.NewServer(dir, log)
	mux := http.NewServeMux()
	apiServer.RegisterRoutes(mux)
	httpServer := &http.Server{
		Addr:         o.addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", o.addr).Msg("statistics API server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		housekeeper.Stop()
		return err
	case <-stop:
	}

	log.Info().Msg("shutting down")
	housekeeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), o.shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return err
	}

	log.Info().Msg("server stopped")
	return nil
}
