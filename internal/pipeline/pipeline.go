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

// Package pipeline orchestrates a single thumbnail generation: preset
// resolution, prompt enhancement, provider selection, storage, and cost
// accounting. It composes the narrower pkg/preset, pkg/enhancer,
// internal/provider/*, and internal/objectstore packages without owning
// persistence; the metadata store write is the caller's responsibility.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/altairalabs/thumbnailpipe/internal/objectstore"
	"github.com/altairalabs/thumbnailpipe/internal/provider/polling"
	syncprovider "github.com/altairalabs/thumbnailpipe/internal/provider/sync"
	"github.com/altairalabs/thumbnailpipe/pkg/enhancer"
	"github.com/altairalabs/thumbnailpipe/pkg/metrics"
	"github.com/altairalabs/thumbnailpipe/pkg/preset"
	"github.com/altairalabs/thumbnailpipe/pkg/thumbnail"
)

// PriceTable maps a model name to its per-generation cost in US dollars.
// Used only for the polling backend; the synchronous backend's cost is
// tracked by the provider in credits, not dollars, so it is always 0.
type PriceTable map[string]float64

// DefaultPrices is the built-in price table for the polling backend's
// known models. Unlisted models fall back to DefaultUnitCost.
var DefaultPrices = PriceTable{
	"flux-2-pro":  0.05,
	"flux-2-flex": 0.03,
}

// DefaultUnitCost is used for a polling-backend model absent from the
// price table.
const DefaultUnitCost = 0.04

// Config wires the narrower services a Pipeline composes. Polling and Sync
// may be nil if the corresponding backend is never requested; Generate
// returns thumbnail.ErrInvalidRequest if a request needs a nil client.
type Config struct {
	Presets      *preset.Registry
	Brand        enhancer.BrandGuidelines
	DefaultModel string
	Polling      *polling.Client
	Sync         *syncprovider.Client
	Store        *objectstore.Store
	Metrics      metrics.GenerationMetricsRecorder
	Logger       logr.Logger
	Prices       PriceTable
}

// Pipeline is the single entry point described by generate(request).
type Pipeline struct {
	cfg Config
}

// New constructs a Pipeline. Store may be nil if callers always set
// StoreResult=false; Metrics defaults to a no-op recorder if nil.
func New(cfg Config) *Pipeline {
	if cfg.Metrics == nil {
		cfg.Metrics = &metrics.NoOpGenerationMetrics{}
	}
	if cfg.Prices == nil {
		cfg.Prices = DefaultPrices
	}
	return &Pipeline{cfg: cfg}
}

// Generate resolves the preset and model, optionally enhances the prompt,
// calls the selected provider backend, optionally uploads the result, and
// returns a ready-to-persist record plus the generated bytes. Persisting
// the record is the caller's responsibility.
func (p *Pipeline) Generate(ctx context.Context, req thumbnail.GenerateRequest) (*thumbnail.CreateThumbnailData, []byte, error) {
	start := time.Now()

	var resolvedPreset *preset.Preset
	if req.PresetID != "" {
		if p.cfg.Presets == nil {
			return nil, nil, thumbnail.ErrInvalidRequest
		}
		found, ok := p.cfg.Presets.Get(req.PresetID)
		if !ok {
			return nil, nil, thumbnail.ErrInvalidRequest
		}
		resolvedPreset = &found
	}

	width, height := preset.ResolveDimensions(resolvedPreset, req.Width, req.Height)
	if width <= 0 || height <= 0 {
		return nil, nil, thumbnail.ErrInvalidRequest
	}

	model := req.Model
	if model == "" && resolvedPreset != nil {
		model = resolvedPreset.DefaultModel
	}
	if model == "" {
		model = p.cfg.DefaultModel
	}

	prompt := req.Prompt
	var enhancedPrompt *string
	if req.EnhancePromptOrDefault() {
		enhanced := enhancer.Enhance(prompt, resolvedPreset, p.cfg.Brand)
		if enhanced != prompt {
			enhancedPrompt = &enhanced
		}
	}
	effectivePrompt := prompt
	if enhancedPrompt != nil {
		effectivePrompt = *enhancedPrompt
	}

	backend := req.BackendOrDefault()
	p.cfg.Logger.V(1).Info("generating thumbnail", "backend", backend, "model", model, "width", width, "height", height)

	var (
		imageBytes []byte
		seed       int64
		costCents  int64
		err        error
	)

	switch backend {
	case thumbnail.BackendPolling:
		imageBytes, seed, err = p.generatePolling(ctx, model, effectivePrompt, width, height, req)
		if err != nil {
			p.recordFailure(backend, model, start)
			return nil, nil, err
		}
		costCents = roundUnitCostToCents(p.cfg.Prices, model)
	case thumbnail.BackendSynchronous:
		imageBytes, err = p.generateSynchronous(ctx, effectivePrompt, width, height)
		if err != nil {
			p.recordFailure(backend, model, start)
			return nil, nil, err
		}
		seed = 0
		costCents = 0
	default:
		return nil, nil, thumbnail.ErrInvalidRequest
	}

	checksum := sha256.Sum256(imageBytes)
	checksumHex := hex.EncodeToString(checksum[:])

	var presetID *string
	if resolvedPreset != nil {
		presetID = &resolvedPreset.ID
	}

	var s3Bucket, s3Key string
	if req.StoreResultOrDefault() && p.cfg.Store != nil {
		tempID := uuid.NewString()
		s3Key = objectstore.ThumbnailKey(presetID, tempID, 1, time.Now())
		result, putErr := p.cfg.Store.Put(ctx, s3Key, imageBytes, "image/png")
		if putErr != nil {
			p.recordFailure(backend, model, start)
			return nil, nil, &thumbnail.StorageError{Op: "put", Key: s3Key, Err: putErr}
		}
		s3Bucket = result.Bucket
		s3Key = result.Key
	}

	durationSeconds := time.Since(start).Seconds()
	p.cfg.Metrics.RecordRequest(metrics.GenerationRequestMetrics{
		Backend:         string(backend),
		Model:           model,
		CostCents:       costCents,
		FileSizeBytes:   int64(len(imageBytes)),
		DurationSeconds: durationSeconds,
		Success:         true,
	})
	p.cfg.Logger.V(1).Info("thumbnail generated", "backend", backend, "model", model, "costCents", costCents, "durationMs", int64(durationSeconds*1000))

	presetParam := thumbnail.CustomPresetKey
	if presetID != nil {
		presetParam = *presetID
	}

	data := &thumbnail.CreateThumbnailData{
		Prompt:           prompt,
		EnhancedPrompt:   enhancedPrompt,
		Preset:           presetID,
		Width:            width,
		Height:           height,
		Model:            model,
		Seed:             &seed,
		S3Bucket:         s3Bucket,
		S3Key:            s3Key,
		FileSizeBytes:    int64(len(imageBytes)),
		Checksum:         checksumHex,
		GenerationTimeMs: int64(durationSeconds * 1000),
		CostCents:        costCents,
		Metadata:         req.Metadata,
		GenerationParams: map[string]string{
			"backend":        string(backend),
			"originalPrompt": prompt,
			"preset":         presetParam,
			"model":          model,
		},
		GeneratedBy: "user",
	}

	return data, imageBytes, nil
}

func (p *Pipeline) generatePolling(ctx context.Context, model, prompt string, width, height int, req thumbnail.GenerateRequest) ([]byte, int64, error) {
	if p.cfg.Polling == nil {
		return nil, 0, thumbnail.ErrInvalidRequest
	}

	params := map[string]any{
		"prompt": prompt,
		"width":  width,
		"height": height,
	}
	if req.Seed != nil {
		params["seed"] = *req.Seed
	}
	if req.SafetyTolerance != nil {
		params["safety_tolerance"] = *req.SafetyTolerance
	}

	_, result, data, err := p.cfg.Polling.GenerateAndDownload(ctx, model, params, polling.PollOptions{})
	if err != nil {
		return nil, 0, err
	}

	var seed int64
	if result != nil {
		if raw, ok := result.Raw["seed"].(float64); ok {
			seed = int64(raw)
		}
	}
	return data, seed, nil
}

func (p *Pipeline) generateSynchronous(ctx context.Context, prompt string, width, height int) ([]byte, error) {
	if p.cfg.Sync == nil {
		return nil, thumbnail.ErrInvalidRequest
	}

	aspectRatio := syncprovider.AspectRatioForDimensions(width, height)
	result, err := p.cfg.Sync.Create(ctx, prompt, syncprovider.Options{AspectRatio: aspectRatio})
	if err != nil {
		return nil, err
	}
	return result.Image, nil
}

func (p *Pipeline) recordFailure(backend thumbnail.Backend, model string, start time.Time) {
	p.cfg.Metrics.RecordRequest(metrics.GenerationRequestMetrics{
		Backend:         string(backend),
		Model:           model,
		DurationSeconds: time.Since(start).Seconds(),
		Success:         false,
	})
}

func roundUnitCostToCents(prices PriceTable, model string) int64 {
	unitCost, ok := prices[model]
	if !ok {
		unitCost = DefaultUnitCost
	}
	return int64(math.Round(unitCost * 100))
}
