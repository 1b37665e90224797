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

// Package api exposes the thumbnail pipeline and metadata store over HTTP.
package api

import (
	"context"
	"errors"

	"github.com/go-logr/logr"

	"github.com/altairalabs/thumbnailpipe/internal/pipeline"
	"github.com/altairalabs/thumbnailpipe/internal/thumbnailstore"
	"github.com/altairalabs/thumbnailpipe/pkg/thumbnail"
)

// Errors returned by Service for malformed requests, mapped to 4xx codes by
// writeError.
var (
	ErrMissingID     = errors.New("thumbnail id is required")
	ErrMissingBody   = errors.New("request body is required")
	ErrMissingPrompt = errors.New("prompt is required")
)

// Service wires the pipeline and metadata store behind the operations the
// HTTP handler exposes.
type Service struct {
	pipeline *pipeline.Pipeline
	store    *thumbnailstore.Store
	log      logr.Logger
}

// NewService creates a Service.
func NewService(p *pipeline.Pipeline, store *thumbnailstore.Store, log logr.Logger) *Service {
	return &Service{pipeline: p, store: store, log: log.WithName("thumbnail-service")}
}

// Generate runs the pipeline and persists the result as a new thumbnail.
func (s *Service) Generate(ctx context.Context, req thumbnail.GenerateRequest) (*thumbnail.Thumbnail, error) {
	if req.Prompt == "" {
		return nil, ErrMissingPrompt
	}

	data, _, err := s.pipeline.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.store.Create(ctx, *data)
}

// Regenerate runs the pipeline again and supersedes id's current artifact,
// recording the pre-update artifact as a version row.
func (s *Service) Regenerate(ctx context.Context, id string, req thumbnail.GenerateRequest) (*thumbnail.Thumbnail, *thumbnail.ThumbnailVersion, error) {
	if id == "" {
		return nil, nil, ErrMissingID
	}
	if req.Prompt == "" {
		return nil, nil, ErrMissingPrompt
	}

	data, _, err := s.pipeline.Generate(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	return s.store.CreateVersion(ctx, id, thumbnail.CreateVersionData{
		NewS3Key:         data.S3Key,
		NewS3Bucket:      data.S3Bucket,
		NewFileSizeBytes: data.FileSizeBytes,
		NewChecksum:      data.Checksum,
		NewPrompt:        &data.Prompt,
		GenerationTimeMs: &data.GenerationTimeMs,
		CostCents:        &data.CostCents,
		Seed:             data.Seed,
	})
}

// Get returns a thumbnail by id.
func (s *Service) Get(ctx context.Context, id string) (*thumbnail.Thumbnail, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	return s.store.GetByID(ctx, id)
}

// GetWithVersions returns a thumbnail and its version history.
func (s *Service) GetWithVersions(ctx context.Context, id string) (*thumbnail.Thumbnail, []thumbnail.ThumbnailVersion, error) {
	if id == "" {
		return nil, nil, ErrMissingID
	}
	return s.store.GetWithVersions(ctx, id)
}

// Update applies a partial update to a thumbnail's feedback/metadata.
func (s *Service) Update(ctx context.Context, id string, data thumbnail.UpdateThumbnailData) (*thumbnail.Thumbnail, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	return s.store.Update(ctx, id, data)
}

// Delete soft-deletes a thumbnail.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, ErrMissingID
	}
	return s.store.Delete(ctx, id)
}

// List returns a filtered, paginated page of thumbnails.
func (s *Service) List(ctx context.Context, filters thumbnail.ListFilters, page, limit int) (*thumbnail.ListPage, error) {
	return s.store.List(ctx, filters, page, limit)
}

// Stats returns aggregate counters across all non-deleted thumbnails.
func (s *Service) Stats(ctx context.Context) (*thumbnail.Stats, error) {
	return s.store.Stats(ctx)
}
