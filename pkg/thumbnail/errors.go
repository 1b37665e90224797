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

package thumbnail

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple not-found/invalid conditions.
var (
	// ErrNotFound is returned when a lookup misses, including soft-deleted rows.
	ErrNotFound = errors.New("thumbnail not found")
	// ErrInvalidRequest is returned for malformed input caught before any
	// network call: non-positive dimensions, or an unknown preset id.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNoCapacity is returned by the polling provider client when
	// activeTasks is already at maxConcurrent.
	ErrNoCapacity = errors.New("no capacity")
	// ErrDownload is returned when downloading a generated image fails.
	ErrDownload = errors.New("download failed")
)

// ProviderError represents a non-2xx response from an image provider. It
// carries enough detail (status, body) for operators to diagnose the call.
type ProviderError struct {
	StatusCode int
	StatusText string
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error: %d %s: %s", e.StatusCode, e.StatusText, e.Body)
}

// ModerationError represents a polling-provider "Request Moderated" or
// "Content Moderated" terminal status. Distinct from ProviderError so
// callers can surface it to end users with a dedicated message.
type ModerationError struct {
	TaskID string
	Kind   TaskStatus
}

func (e *ModerationError) Error() string {
	return fmt.Sprintf("task %s moderated: %s", e.TaskID, e.Kind)
}

// ContentViolationError represents a synchronous-provider response with
// contentViolation set to true.
type ContentViolationError struct {
	RequestID string
}

func (e *ContentViolationError) Error() string {
	return fmt.Sprintf("content violation on request %s", e.RequestID)
}

// TimeoutError represents a polling provider exhausting its attempt budget
// without reaching a terminal status.
type TimeoutError struct {
	TaskID   string
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("task %s timed out after %d attempts", e.TaskID, e.Attempts)
}

// StorageError wraps an object-store put/get/presign failure.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// DBError wraps an underlying database failure, propagated verbatim.
type DBError struct {
	Op  string
	Err error
}

func (e *DBError) Error() string {
	return fmt.Sprintf("db %s: %v", e.Op, e.Err)
}

func (e *DBError) Unwrap() error {
	return e.Err
}
