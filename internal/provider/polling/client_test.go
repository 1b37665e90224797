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

package polling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altairalabs/thumbnailpipe/pkg/thumbnail"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestNewUnknownRegion(t *testing.T) {
	_, err := New(Config{APIKey: "k", Region: Region("mars")})
	assert.Error(t, err)
}

func TestNewBaseURLOverridesRegion(t *testing.T) {
	c, err := New(Config{APIKey: "k", Region: RegionEU, BaseURL: "http://localhost:1"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:1", c.baseURL)
}

func TestCreateFailsWhenAtCapacity(t *testing.T) {
	c, err := New(Config{APIKey: "k", BaseURL: "http://localhost:1", MaxConcurrent: 1})
	require.NoError(t, err)
	c.active = 1

	_, err = c.Create(context.Background(), "flux-2-pro", map[string]any{})
	assert.ErrorIs(t, err, thumbnail.ErrNoCapacity)
}

func TestCreateReleasesSlotOnProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad request"}`))
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	_, err = c.Create(context.Background(), "flux-2-pro", map[string]any{})
	var provErr *thumbnail.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, int32(0), c.active)
}

func TestCreateSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get(apiKeyHeader))
		_ = json.NewEncoder(w).Encode(createResponse{ID: "task-1", PollingURL: "http://poll"})
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	handle, err := c.Create(context.Background(), "flux-2-pro", map[string]any{"prompt": "a cat"})
	require.NoError(t, err)
	assert.Equal(t, "task-1", handle.ID)
	assert.Equal(t, int32(1), c.active)
}

func TestPollReadyReleasesSlotAndReturnsResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(pollResponse{Status: StatusReady, Result: map[string]any{"sample": "http://img"}})
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)
	c.active = 1

	result, err := c.Poll(context.Background(), "task-1", PollOptions{})
	require.NoError(t, err)
	assert.Equal(t, "http://img", result.SampleURL)
	assert.Equal(t, int32(0), c.active)
}

func TestPollModeratedFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(pollResponse{Status: StatusContentModerated})
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)
	c.active = 1

	_, err = c.Poll(context.Background(), "task-1", PollOptions{})
	var modErr *thumbnail.ModerationError
	require.ErrorAs(t, err, &modErr)
	assert.Equal(t, thumbnail.TaskContentModerated, modErr.Kind)
	assert.Equal(t, int32(0), c.active)
}

func TestPollTimesOutAfterMaxAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(pollResponse{Status: StatusPending})
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)
	c.active = 1

	_, err = c.Poll(context.Background(), "task-1", PollOptions{MaxAttempts: 2, IntervalMs: 1})
	var timeoutErr *thumbnail.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 2, timeoutErr.Attempts)
	assert.Equal(t, int32(0), c.active)
}

func TestDownloadFailsOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	_, err = c.Download(context.Background(), srv.URL)
	assert.ErrorIs(t, err, thumbnail.ErrDownload)
}

func TestStatusDoesNotAffectSlotCounter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(pollResponse{Status: StatusPending})
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)
	c.active = 3

	status, err := c.Status(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status)
	assert.Equal(t, int32(3), c.active)
}

func TestGenerateAndDownloadEndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	var sampleURL string
	mux.HandleFunc("/flux-2-pro", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(createResponse{ID: "task-9"})
	})
	mux.HandleFunc("/get_result", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(pollResponse{Status: StatusReady, Result: map[string]any{"sample": sampleURL}})
	})
	mux.HandleFunc("/sample.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pngbytes"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	sampleURL = srv.URL + "/sample.png"

	c, err := New(Config{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	taskID, result, data, err := c.GenerateAndDownload(context.Background(), "flux-2-pro", map[string]any{}, PollOptions{})
	require.NoError(t, err)
	assert.Equal(t, "task-9", taskID)
	assert.Equal(t, sampleURL, result.SampleURL)
	assert.Equal(t, []byte("pngbytes"), data)
}

func TestPollIntervalHonored(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		status := StatusPending
		if calls >= 2 {
			status = StatusReady
		}
		_ = json.NewEncoder(w).Encode(pollResponse{Status: status, Result: map[string]any{"sample": "http://img"}})
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	start := time.Now()
	_, err = c.Poll(context.Background(), "task-1", PollOptions{MaxAttempts: 5, IntervalMs: 10})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	assert.Equal(t, 2, calls)
}
