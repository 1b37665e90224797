/*
Copyright 2026 Altaira Labs.

SPDX-License-Identifier: Apache-2.0

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Command thumbnail-api is an example HTTP server exposing the thumbnail
// pipeline and metadata store. It is a thin caller of the library packages
// under pkg/ and internal/, not itself the core of the module.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/altairalabs/thumbnailpipe/internal/api"
	"github.com/altairalabs/thumbnailpipe/internal/config"
	"github.com/altairalabs/thumbnailpipe/internal/objectstore"
	"github.com/altairalabs/thumbnailpipe/internal/pipeline"
	"github.com/altairalabs/thumbnailpipe/internal/provider/polling"
	syncprovider "github.com/altairalabs/thumbnailpipe/internal/provider/sync"
	"github.com/altairalabs/thumbnailpipe/internal/thumbnailstore"
	"github.com/altairalabs/thumbnailpipe/pkg/enhancer"
	"github.com/altairalabs/thumbnailpipe/pkg/logging"
	"github.com/altairalabs/thumbnailpipe/pkg/metrics"
	"github.com/altairalabs/thumbnailpipe/pkg/preset"
)

type flags struct {
	apiAddr     string
	healthAddr  string
	metricsAddr string
}

func parseFlags() *flags {
	f := &flags{}
	flag.StringVar(&f.apiAddr, "api-addr", ":8080", "API server listen address")
	flag.StringVar(&f.healthAddr, "health-addr", ":8081", "Health probe listen address")
	flag.StringVar(&f.metricsAddr, "metrics-addr", ":9090", "Metrics server listen address")
	flag.Parse()
	return f
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	f := parseFlags()

	log, syncLog, err := logging.NewLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer syncLog()

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := thumbnailstore.New(thumbnailstore.Config{
		ConnString: cfg.DatabaseURL,
		MaxConns:   cfg.PGMaxConns,
		MinConns:   cfg.PGMinConns,
	})
	if err != nil {
		return fmt.Errorf("creating thumbnail store: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := runMigrations(cfg.DatabaseURL, log); err != nil {
		return err
	}
	log.V(1).Info("migrations complete")

	p, cleanup, err := buildPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	service := api.NewService(p, store, log)
	handler := api.NewHandler(service, log)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	healthSrv := newHealthServer(f.healthAddr, store)
	metricsSrv := newMetricsServer(f.metricsAddr)
	apiSrv := &http.Server{Addr: f.apiAddr, Handler: mux}

	startHTTPServer(log, "health", f.healthAddr, healthSrv)
	startHTTPServer(log, "metrics", f.metricsAddr, metricsSrv)
	startHTTPServer(log, "thumbnail API", f.apiAddr, apiSrv)

	log.Info("thumbnail-api ready", "api", f.apiAddr, "health", f.healthAddr, "metrics", f.metricsAddr)

	<-ctx.Done()
	log.Info("shutting down")

	shutdownServers(log, apiSrv, healthSrv, metricsSrv)
	return nil
}

// buildPipeline wires the preset catalog, enhancer, provider clients, and
// object store into a pipeline.Pipeline. Each provider client is constructed
// only when its API key is set: a missing key simply leaves that backend unavailable, which
// pipeline.Generate reports as thumbnail.ErrInvalidRequest rather than
// failing startup.
func buildPipeline(ctx context.Context, cfg *config.Config, log logr.Logger) (*pipeline.Pipeline, func(), error) {
	var pollClient *polling.Client
	if cfg.BFLAPIKey != "" {
		c, err := polling.New(polling.Config{
			APIKey:        cfg.BFLAPIKey,
			Region:        polling.Region(cfg.FluxAPIRegion),
			MaxConcurrent: cfg.PollMaxConcurrent,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("creating polling provider: %w", err)
		}
		pollClient = c
		log.V(1).Info("polling provider initialized", "region", cfg.FluxAPIRegion)
	}

	var syncClient *syncprovider.Client
	if cfg.ReveAPIKey != "" {
		c, err := syncprovider.New(syncprovider.Config{APIKey: cfg.ReveAPIKey})
		if err != nil {
			return nil, nil, fmt.Errorf("creating synchronous provider: %w", err)
		}
		syncClient = c
		log.V(1).Info("synchronous provider initialized")
	}

	var store *objectstore.Store
	cleanup := func() {}
	if cfg.S3Bucket != "" {
		s, err := objectstore.New(ctx, objectstore.Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    cfg.S3Endpoint != "",
		})
		if err != nil {
			return nil, nil, fmt.Errorf("creating object store: %w", err)
		}
		store = s
		cleanup = func() { _ = s.Close() }
		log.V(1).Info("object store initialized", "bucket", cfg.S3Bucket)
	}

	genMetrics := metrics.NewGenerationMetrics(metrics.GenerationMetricsConfig{Namespace: "thumbnailpipe"})

	p := pipeline.New(pipeline.Config{
		Presets: preset.Default(),
		Brand:   enhancer.BrandGuidelines{},
		Polling: pollClient,
		Sync:    syncClient,
		Store:   store,
		Metrics: genMetrics,
		Logger:  log,
	})
	return p, cleanup, nil
}

func runMigrations(connStr string, log logr.Logger) error {
	migrator, err := thumbnailstore.NewMigrator(connStr, log)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer func() { _ = migrator.Close() }()
	if err := migrator.Up(); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

func startHTTPServer(log logr.Logger, name, addr string, srv *http.Server) {
	go func() {
		log.Info("starting server", "server", name, "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "server error", "server", name)
		}
	}()
}

func shutdownServers(log logr.Logger, servers ...*http.Server) {
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutCancel()

	for _, srv := range servers {
		if err := srv.Shutdown(shutCtx); err != nil {
			log.Error(err, "server shutdown error", "addr", srv.Addr)
		}
	}
}

func newMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}

func newHealthServer(addr string, store *thumbnailstore.Store) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return &http.Server{Addr: addr, Handler: mux}
}
