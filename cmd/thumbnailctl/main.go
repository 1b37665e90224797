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

// Command thumbnailctl is a one-shot CLI that runs the thumbnail pipeline
// directly, without standing up an HTTP server. It is an example caller of
// the library packages under pkg/ and internal/.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

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
	"github.com/altairalabs/thumbnailpipe/pkg/thumbnail"
)

type cliFlags struct {
	prompt  string
	preset  string
	model   string
	backend string
	output  string
	persist bool
}

func parseCLIFlags() *cliFlags {
	f := &cliFlags{}
	flag.StringVar(&f.prompt, "prompt", "", "thumbnail prompt (required)")
	flag.StringVar(&f.preset, "preset", "", "preset id, e.g. youtube")
	flag.StringVar(&f.model, "model", "", "override the resolved model")
	flag.StringVar(&f.backend, "backend", string(thumbnail.BackendSynchronous), "synchronous or polling")
	flag.StringVar(&f.output, "output", "", "write the generated image to this file")
	flag.BoolVar(&f.persist, "persist", false, "record the result in the metadata store (requires DATABASE_URL)")
	flag.Parse()
	return f
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	f := parseCLIFlags()
	if f.prompt == "" {
		return fmt.Errorf("-prompt is required")
	}

	log, syncLog, err := logging.NewLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer syncLog()

	cfg := config.Load()

	fmt.Printf("thumbnailctl generating\n")
	fmt.Printf("  Prompt:  %s\n", f.prompt)
	fmt.Printf("  Preset:  %s\n", orDefault(f.preset, "(none)"))
	fmt.Printf("  Backend: %s\n", f.backend)

	var pollClient *polling.Client
	if f.backend == string(thumbnail.BackendPolling) {
		if cfg.BFLAPIKey == "" {
			return fmt.Errorf("BFL_API_KEY is required for the polling backend")
		}
		pollClient, err = polling.New(polling.Config{
			APIKey:        cfg.BFLAPIKey,
			Region:        polling.Region(cfg.FluxAPIRegion),
			MaxConcurrent: cfg.PollMaxConcurrent,
		})
		if err != nil {
			return fmt.Errorf("creating polling provider: %w", err)
		}
	}

	var syncClient *syncprovider.Client
	if f.backend == string(thumbnail.BackendSynchronous) {
		if cfg.ReveAPIKey == "" {
			return fmt.Errorf("REVE_API_KEY is required for the synchronous backend")
		}
		syncClient, err = syncprovider.New(syncprovider.Config{APIKey: cfg.ReveAPIKey})
		if err != nil {
			return fmt.Errorf("creating synchronous provider: %w", err)
		}
	}

	var store *objectstore.Store
	storeResult := false
	if cfg.S3Bucket != "" {
		store, err = objectstore.New(ctx, objectstore.Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    cfg.S3Endpoint != "",
		})
		if err != nil {
			return fmt.Errorf("creating object store: %w", err)
		}
		defer func() { _ = store.Close() }()
		storeResult = true
	}

	p := pipeline.New(pipeline.Config{
		Presets: preset.Default(),
		Brand:   enhancer.BrandGuidelines{},
		Polling: pollClient,
		Sync:    syncClient,
		Store:   store,
		Metrics: &metrics.NoOpGenerationMetrics{},
		Logger:  log,
	})

	req := thumbnail.GenerateRequest{
		Prompt:      f.prompt,
		PresetID:    f.preset,
		Model:       f.model,
		Backend:     thumbnail.Backend(f.backend),
		StoreResult: &storeResult,
	}

	data, image, err := p.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("generating thumbnail: %w", err)
	}

	fmt.Printf("  Model:      %s\n", data.Model)
	fmt.Printf("  Dimensions: %dx%d\n", data.Width, data.Height)
	fmt.Printf("  Size:       %d bytes\n", data.FileSizeBytes)
	fmt.Printf("  Checksum:   %s\n", data.Checksum)
	fmt.Printf("  Cost:       %d cents\n", data.CostCents)
	if data.S3Key != "" {
		fmt.Printf("  Stored at:  s3://%s/%s\n", data.S3Bucket, data.S3Key)
	}

	if f.output != "" {
		if err := os.WriteFile(f.output, image, 0o644); err != nil {
			return fmt.Errorf("writing output file: %w", err)
		}
		fmt.Printf("  Written to: %s\n", f.output)
	}

	if f.persist {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("-persist requires DATABASE_URL")
		}
		metaStore, err := thumbnailstore.New(thumbnailstore.Config{
			ConnString: cfg.DatabaseURL,
			MaxConns:   cfg.PGMaxConns,
			MinConns:   cfg.PGMinConns,
		})
		if err != nil {
			return fmt.Errorf("creating thumbnail store: %w", err)
		}
		defer func() { _ = metaStore.Close() }()

		thumb, err := metaStore.Create(ctx, *data)
		if err != nil {
			return fmt.Errorf("persisting thumbnail: %w", err)
		}
		fmt.Printf("  Persisted:  %s\n", thumb.ID)
	}

	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
