package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"quality-predictor/internal/cfg"
	"quality-predictor/internal/client"
	"quality-predictor/internal/metrics"
	"quality-predictor/internal/ml"
	"quality-predictor/internal/web"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		healthcheck = flag.Bool("healthcheck", false, "Probe a running instance and exit 0 if healthy")
		target      = flag.String("target", "", "Base URL probed by -healthcheck (default derived from LISTEN_ADDR)")
	)
	flag.Parse()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	setupLogging(c)

	if *healthcheck {
		os.Exit(runHealthcheck(c, *target))
	}

	artifacts, err := ml.LoadArtifacts(ml.ArtifactConfig{
		ScalerPath:        c.ScalerPath,
		ModelPath:         c.ModelPath,
		ModelMetadataPath: c.ModelMetadataPath,
		ONNXLibraryPath:   c.ONNXLibrary,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load artifacts")
	}
	defer func() {
		if err := artifacts.Close(); err != nil {
			log.Error().Err(err).Msg("failed to release artifacts")
		}
	}()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	predictor, err := ml.NewPredictor(artifacts,
		ml.WithMetrics(mw),
		ml.WithStrictLabels(c.StrictLabels),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create predictor")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	startMetricsServer(ctx, &wg, c)

	srv := web.NewServer(c.ListenAddr, predictor, mw, c.RequestTimeout)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("prediction server failed")
			cancel()
		}
	}()

	waitForShutdown(ctx, cancel)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown prediction server")
	}

	waitForGoroutines(&wg, 10*time.Second)
}

// setupLogging applies the configured level and output format to the
// global logger.
func setupLogging(c cfg.Settings) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// runHealthcheck probes the JSON API of a running instance and returns the
// process exit code.
func runHealthcheck(c cfg.Settings, target string) int {
	if target == "" {
		target = baseURL(c.ListenAddr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.RequestTimeout)
	defer cancel()

	health, err := client.New(target, c.RequestTimeout).Health(ctx)
	if err != nil {
		log.Error().Err(err).Str("target", target).Msg("healthcheck failed")
		return 1
	}
	log.Info().
		Str("target", target).
		Str("status", health.Status).
		Int64("predictions", health.Predictor.PredictionCount).
		Msg("healthcheck ok")
	return 0
}

// baseURL turns a listen address such as ":8501" into a loopback URL.
func baseURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://127.0.0.1" + addr
	}
	return "http://" + addr
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(ctx context.Context, wg *sync.WaitGroup, c cfg.Settings) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", c.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		if err := server.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to shutdown metrics server")
		}
	}()

	go func() {
		log.Info().Int("port", c.MetricsPort).Msg("starting metrics server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// waitForShutdown blocks until a shutdown signal arrives or ctx is canceled.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()
}

func waitForGoroutines(wg *sync.WaitGroup, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("all goroutines stopped")
	case <-time.After(timeout):
		log.Warn().Msg("shutdown timeout, forcing exit")
	}
}
