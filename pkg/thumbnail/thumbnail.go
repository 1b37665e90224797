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

// Package thumbnail defines the domain types shared across the provider
// clients, the object store, the metadata store, and the pipeline service.
package thumbnail

import "time"

// Backend selects which provider generates a thumbnail.
type Backend string

const (
	// BackendSynchronous is the default: a provider that returns bytes
	// inline in a single request/response.
	BackendSynchronous Backend = "synchronous"
	// BackendPolling is a provider that returns a task id and requires
	// periodic polling until the result is ready or moderated.
	BackendPolling Backend = "polling"
)

// GenerateRequest is the user-facing input to the pipeline service.
type GenerateRequest struct {
	// Prompt is the user-supplied base prompt. Required.
	Prompt string
	// PresetID optionally selects a catalog preset.
	PresetID string
	// Width overrides the preset's width when non-nil.
	Width *int
	// Height overrides the preset's height when non-nil.
	Height *int
	// Model overrides the preset's default model when non-empty.
	Model string
	// Backend selects the provider. Empty means BackendSynchronous.
	Backend Backend
	// EnhancePrompt defaults to true; set to a false pointer to disable.
	EnhancePrompt *bool
	// StoreResult defaults to true; set to a false pointer to disable.
	StoreResult *bool
	// Seed is an optional generation seed.
	Seed *int64
	// SafetyTolerance is an optional provider-specific safety parameter.
	SafetyTolerance *int
	// Metadata carries arbitrary caller-supplied key/value pairs.
	Metadata map[string]string
}

// EnhancePromptOrDefault reports whether prompt enhancement should run.
func (r GenerateRequest) EnhancePromptOrDefault() bool {
	if r.EnhancePrompt == nil {
		return true
	}
	return *r.EnhancePrompt
}

// StoreResultOrDefault reports whether the pipeline should persist the
// generated artifact.
func (r GenerateRequest) StoreResultOrDefault() bool {
	if r.StoreResult == nil {
		return true
	}
	return *r.StoreResult
}

// BackendOrDefault returns the request's backend, defaulting to synchronous.
func (r GenerateRequest) BackendOrDefault() Backend {
	if r.Backend == "" {
		return BackendSynchronous
	}
	return r.Backend
}

// Thumbnail is the persisted entity recorded by the metadata store.
type Thumbnail struct {
	// ID is the globally unique identifier.
	ID string
	// ReadableID is a human-friendly opaque 6-character code, e.g. "TH-7K3M9P".
	ReadableID string

	// Prompt is the original, un-enhanced user prompt.
	Prompt string
	// EnhancedPrompt is set only when enhancement changed the prompt.
	EnhancedPrompt *string
	// Preset is the preset id used, if any.
	Preset *string
	// Width is the final canvas width in pixels.
	Width int
	// Height is the final canvas height in pixels.
	Height int
	// Model is the model used for generation.
	Model string
	// Seed is the generation seed, if known.
	Seed *int64

	// S3Bucket is the object-store bucket holding the current artifact.
	S3Bucket string
	// S3Key is the object-store key of the current artifact.
	S3Key string
	// FileSizeBytes is the size of the current artifact.
	FileSizeBytes int64
	// Checksum is the SHA-256 hex digest of the current artifact, if computed.
	Checksum string

	// GenerationTimeMs is how long generation took, in milliseconds.
	GenerationTimeMs int64
	// CostCents is the estimated cost of generation, in cents.
	CostCents int64

	// Version starts at 1 and increments with each createVersion call.
	Version int
	// ParentID is a weak back-pointer to the thumbnail this was derived
	// from. It never implies ownership.
	ParentID *string

	// Feedback is optional free-text feedback.
	Feedback *string
	// Metadata is an open key/value map supplied by the caller.
	Metadata map[string]string
	// GenerationParams records the backend choice and original prompt.
	GenerationParams map[string]string

	// GeneratedBy is a free-form attribution tag, default "user".
	GeneratedBy string

	// CreatedAt is when the thumbnail was first created.
	CreatedAt time.Time
	// UpdatedAt is when the thumbnail was last updated.
	UpdatedAt time.Time
	// DeletedAt is the soft-delete tombstone; nil means not deleted.
	DeletedAt *time.Time
}

// ThumbnailVersion is an immutable row recording a previous artifact for a
// thumbnail. It is created only when a new version supersedes it.
type ThumbnailVersion struct {
	// ThumbnailID links this version to its parent thumbnail.
	ThumbnailID string
	// Version is the version number this row captures.
	Version int
	// S3Bucket is the bucket the superseded artifact lived in.
	S3Bucket string
	// S3Key is the key the superseded artifact lived at.
	S3Key string
	// FileSizeBytes is the size of the superseded artifact.
	FileSizeBytes int64
	// Prompt is the prompt in effect for the superseded artifact.
	Prompt string
	// Feedback is the caller-supplied feedback at the time of supersession.
	Feedback *string
	// CreatedAt is when this version row was inserted.
	CreatedAt time.Time
}

// TaskStatus is the observed state of a transient, provider-side task.
type TaskStatus string

const (
	// TaskReady indicates the task completed successfully.
	TaskReady TaskStatus = "ready"
	// TaskPending indicates the task is still in progress.
	TaskPending TaskStatus = "pending"
	// TaskError indicates the provider reported an internal error.
	TaskError TaskStatus = "error"
	// TaskRequestModerated indicates pre-generation moderation rejected the request.
	TaskRequestModerated TaskStatus = "request_moderated"
	// TaskContentModerated indicates post-generation moderation rejected the result.
	TaskContentModerated TaskStatus = "content_moderated"
)

// IsTerminal reports whether status requires no further polling.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskReady, TaskError, TaskRequestModerated, TaskContentModerated:
		return true
	default:
		return false
	}
}

// CreateThumbnailData is the input to the metadata store's create operation.
type CreateThumbnailData struct {
	Prompt           string
	EnhancedPrompt   *string
	Preset           *string
	Width            int
	Height           int
	Model            string
	Seed             *int64
	S3Bucket         string
	S3Key            string
	FileSizeBytes    int64
	Checksum         string
	GenerationTimeMs int64
	CostCents        int64
	ParentID         *string
	Metadata         map[string]string
	GenerationParams map[string]string
	GeneratedBy      string
}

// UpdateThumbnailData is the input to the metadata store's partial update
// operation. Nil fields are left unchanged.
type UpdateThumbnailData struct {
	Feedback *string
	Metadata map[string]string
}

// CreateVersionData is the input to the metadata store's createVersion
// operation.
type CreateVersionData struct {
	NewS3Key         string
	NewS3Bucket      string
	NewFileSizeBytes int64
	NewChecksum      string
	NewPrompt        *string
	Feedback         *string
	GenerationTimeMs *int64
	CostCents        *int64
	Seed             *int64
}

// ListFilters composes with AND across all non-empty fields.
type ListFilters struct {
	Preset      *string
	Model       *string
	GeneratedBy *string
	Search      string
	DateFrom    *time.Time
	DateTo      *time.Time
}

// ListPage is a paginated listing result.
type ListPage struct {
	Items []Thumbnail
	Total int
	Page  int
	Limit int
}

// Stats aggregates metadata-store statistics over non-deleted rows.
type Stats struct {
	Total           int
	ByPreset        map[string]int
	ByModel         map[string]int
	TotalSizeBytes  int64
	TotalCostCents  int64
}

// CustomPresetKey is the key used in Stats.ByPreset for thumbnails with no preset.
const CustomPresetKey = "custom"
