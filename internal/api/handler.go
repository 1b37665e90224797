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

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-logr/logr"

	"github.com/altairalabs/thumbnailpipe/internal/httputil"
	"github.com/altairalabs/thumbnailpipe/pkg/thumbnail"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ErrorResponse is the JSON response body for a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ThumbnailResponse wraps a single thumbnail.
type ThumbnailResponse struct {
	Thumbnail *thumbnail.Thumbnail `json:"thumbnail"`
}

// VersionsResponse wraps a thumbnail plus its version history.
type VersionsResponse struct {
	Thumbnail *thumbnail.Thumbnail         `json:"thumbnail"`
	Versions  []thumbnail.ThumbnailVersion `json:"versions"`
}

// ListResponse is the JSON response for GET /v1/thumbnails.
type ListResponse struct {
	Items []thumbnail.Thumbnail `json:"items"`
	Total int                   `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// GenerateRequestBody is the JSON body for POST /v1/thumbnails and
// POST /v1/thumbnails/{id}/versions.
type GenerateRequestBody struct {
	Prompt          string            `json:"prompt"`
	PresetID        string            `json:"presetId,omitempty"`
	Width           *int              `json:"width,omitempty"`
	Height          *int              `json:"height,omitempty"`
	Model           string            `json:"model,omitempty"`
	Backend         string            `json:"backend,omitempty"`
	EnhancePrompt   *bool             `json:"enhancePrompt,omitempty"`
	StoreResult     *bool             `json:"storeResult,omitempty"`
	Seed            *int64            `json:"seed,omitempty"`
	SafetyTolerance *int              `json:"safetyTolerance,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

func (b GenerateRequestBody) toDomain() thumbnail.GenerateRequest {
	return thumbnail.GenerateRequest{
		Prompt:          b.Prompt,
		PresetID:        b.PresetID,
		Width:           b.Width,
		Height:          b.Height,
		Model:           b.Model,
		Backend:         thumbnail.Backend(b.Backend),
		EnhancePrompt:   b.EnhancePrompt,
		StoreResult:     b.StoreResult,
		Seed:            b.Seed,
		SafetyTolerance: b.SafetyTolerance,
		Metadata:        b.Metadata,
	}
}

// UpdateRequestBody is the JSON body for PATCH /v1/thumbnails/{id}.
type UpdateRequestBody struct {
	Feedback *string           `json:"feedback,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Handler serves the thumbnail HTTP API.
type Handler struct {
	service *Service
	log     logr.Logger
}

// NewHandler creates a Handler.
func NewHandler(service *Service, log logr.Logger) *Handler {
	return &Handler{service: service, log: log.WithName("thumbnail-handler")}
}

// RegisterRoutes registers the thumbnail API routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/thumbnails", h.handleGenerate)
	mux.HandleFunc("GET /v1/thumbnails", h.handleList)
	mux.HandleFunc("GET /v1/thumbnails/{id}", h.handleGet)
	mux.HandleFunc("GET /v1/thumbnails/{id}/versions", h.handleGetWithVersions)
	mux.HandleFunc("POST /v1/thumbnails/{id}/versions", h.handleRegenerate)
	mux.HandleFunc("PATCH /v1/thumbnails/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE /v1/thumbnails/{id}", h.handleDelete)
	mux.HandleFunc("GET /v1/stats", h.handleStats)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var body GenerateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, ErrMissingBody)
		return
	}

	thumb, err := h.service.Generate(r.Context(), body.toDomain())
	if err != nil {
		h.log.Error(err, "Generate failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ThumbnailResponse{Thumbnail: thumb})
}

func (h *Handler) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var body GenerateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, ErrMissingBody)
		return
	}

	thumb, _, err := h.service.Regenerate(r.Context(), id, body.toDomain())
	if err != nil {
		h.log.Error(err, "Regenerate failed", "id", id)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ThumbnailResponse{Thumbnail: thumb})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	thumb, err := h.service.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, thumbnail.ErrNotFound) {
			h.log.Error(err, "Get failed", "id", id)
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ThumbnailResponse{Thumbnail: thumb})
}

func (h *Handler) handleGetWithVersions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	thumb, versions, err := h.service.GetWithVersions(r.Context(), id)
	if err != nil {
		if !errors.Is(err, thumbnail.ErrNotFound) {
			h.log.Error(err, "GetWithVersions failed", "id", id)
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VersionsResponse{Thumbnail: thumb, Versions: versions})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var body UpdateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, ErrMissingBody)
		return
	}

	thumb, err := h.service.Update(r.Context(), id, thumbnail.UpdateThumbnailData{
		Feedback: body.Feedback,
		Metadata: body.Metadata,
	})
	if err != nil {
		if !errors.Is(err, thumbnail.ErrNotFound) {
			h.log.Error(err, "Update failed", "id", id)
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ThumbnailResponse{Thumbnail: thumb})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ok, err := h.service.Delete(r.Context(), id)
	if err != nil {
		h.log.Error(err, "Delete failed", "id", id)
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, thumbnail.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := thumbnail.ListFilters{Search: q.Get("search")}
	if v := q.Get("preset"); v != "" {
		filters.Preset = &v
	}
	if v := q.Get("model"); v != "" {
		filters.Model = &v
	}
	if v := q.Get("generatedBy"); v != "" {
		filters.GeneratedBy = &v
	}
	if v := q.Get("dateFrom"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, err)
			return
		}
		filters.DateFrom = &t
	}
	if v := q.Get("dateTo"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, err)
			return
		}
		filters.DateTo = &t
	}

	page := parseIntParam(r, "page", 1)
	limit := min(parseIntParam(r, "limit", defaultListLimit), maxListLimit)

	result, err := h.service.List(r.Context(), filters, page, limit)
	if err != nil {
		h.log.Error(err, "List failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Items: result.Items,
		Total: result.Total,
		Page:  result.Page,
		Limit: result.Limit,
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.log.Error(err, "Stats failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func parseIntParam(r *http.Request, name string, def int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	if err := httputil.WriteJSON(w, status, v); err != nil {
		_ = err
	}
}

// writeError maps known errors to HTTP status codes and writes a JSON error
// response.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal server error"

	var provErr *thumbnail.ProviderError
	var modErr *thumbnail.ModerationError
	var cvErr *thumbnail.ContentViolationError
	var timeoutErr *thumbnail.TimeoutError
	var storageErr *thumbnail.StorageError
	var dbErr *thumbnail.DBError

	switch {
	case errors.Is(err, thumbnail.ErrNotFound):
		status, msg = http.StatusNotFound, "thumbnail not found"
	case errors.Is(err, thumbnail.ErrInvalidRequest),
		errors.Is(err, ErrMissingID),
		errors.Is(err, ErrMissingBody),
		errors.Is(err, ErrMissingPrompt):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, thumbnail.ErrNoCapacity):
		status, msg = http.StatusServiceUnavailable, "provider at capacity"
	case errors.As(err, &cvErr):
		status, msg = http.StatusUnprocessableEntity, "content violation"
	case errors.As(err, &modErr):
		status, msg = http.StatusUnprocessableEntity, "moderated"
	case errors.As(err, &timeoutErr):
		status, msg = http.StatusGatewayTimeout, "provider timed out"
	case errors.As(err, &provErr):
		status, msg = http.StatusBadGateway, "provider error"
	case errors.As(err, &storageErr), errors.As(err, &dbErr):
		status, msg = http.StatusInternalServerError, "internal server error"
	default:
		var timeErr *time.ParseError
		if errors.As(err, &timeErr) {
			status, msg = http.StatusBadRequest, "invalid time format, expected RFC3339"
		}
	}

	w.Header().Set(httputil.HeaderContentType, httputil.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}
