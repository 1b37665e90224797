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

// Package polling implements a client for image providers that follow a
// create-then-poll interaction model: POST to a model-named endpoint
// returns a task handle, then GET the result endpoint with the task id
// until the task reaches a terminal status.
package polling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/altairalabs/thumbnailpipe/pkg/thumbnail"
)

// Region selects the provider's regional endpoint.
type Region string

const (
	RegionGlobal Region = "global"
	RegionEU     Region = "eu"
	RegionUS     Region = "us"
)

var regionBaseURLs = map[Region]string{
	RegionGlobal: "https://api.bfl.ai",
	RegionEU:     "https://api.eu.bfl.ai",
	RegionUS:     "https://api.us.bfl.ai",
}

// DefaultMaxConcurrent is the default concurrency slot count.
const DefaultMaxConcurrent = 24

// DefaultPollInterval and DefaultMaxAttempts are the default poll cadence.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxAttempts  = 60
)

const apiKeyHeader = "X-Key"

// Status is a task's polling status.
type Status string

const (
	StatusReady            Status = "Ready"
	StatusPending          Status = "Pending"
	StatusError            Status = "Error"
	StatusRequestModerated Status = "Request Moderated"
	StatusContentModerated Status = "Content Moderated"
	StatusTaskNotFound     Status = "Task not found"
)

// TaskHandle identifies an in-flight generation task.
type TaskHandle struct {
	ID         string
	PollingURL string
}

// Result is a ready task's payload.
type Result struct {
	SampleURL string
	Raw       map[string]any
}

// PollOptions overrides the default poll cadence.
type PollOptions struct {
	MaxAttempts  int
	IntervalMs   int
}

func (o PollOptions) maxAttemptsOrDefault() int {
	if o.MaxAttempts > 0 {
		return o.MaxAttempts
	}
	return DefaultMaxAttempts
}

func (o PollOptions) intervalOrDefault() time.Duration {
	if o.IntervalMs > 0 {
		return time.Duration(o.IntervalMs) * time.Millisecond
	}
	return DefaultPollInterval
}

// Config configures a Client.
type Config struct {
	APIKey        string
	Region        Region
	BaseURL       string // overrides Region when non-empty
	MaxConcurrent int32
	HTTPClient    *http.Client
}

// Client is a concurrency-limited polling provider client.
type Client struct {
	apiKey        string
	baseURL       string
	maxConcurrent int32
	active        int32
	httpClient    *http.Client
}

// New constructs a Client from cfg. Returns an error if the API key is
// missing, per the provider's construction-time failure contract.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("polling provider: API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		region := cfg.Region
		if region == "" {
			region = RegionGlobal
		}
		u, ok := regionBaseURLs[region]
		if !ok {
			return nil, fmt.Errorf("polling provider: unknown region %q", region)
		}
		baseURL = u
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		apiKey:        cfg.APIKey,
		baseURL:       baseURL,
		maxConcurrent: maxConcurrent,
		httpClient:    httpClient,
	}, nil
}

// acquire reserves one concurrency slot, returning false when the client
// is already at capacity.
func (c *Client) acquire() bool {
	for {
		cur := atomic.LoadInt32(&c.active)
		if cur >= c.maxConcurrent {
			return false
		}
		if atomic.CompareAndSwapInt32(&c.active, cur, cur+1) {
			return true
		}
	}
}

// release decrements the slot counter, clamped at zero so a double-release
// never goes negative.
func (c *Client) release() {
	for {
		cur := atomic.LoadInt32(&c.active)
		if cur <= 0 {
			return
		}
		if atomic.CompareAndSwapInt32(&c.active, cur, cur-1) {
			return
		}
	}
}

type createResponse struct {
	ID         string `json:"id"`
	PollingURL string `json:"polling_url"`
}

// Create reserves a concurrency slot and submits a generation request for
// model with params. Fails with thumbnail.ErrNoCapacity when the client is
// already at its concurrency limit.
func (c *Client) Create(ctx context.Context, model string, params map[string]any) (*TaskHandle, error) {
	if !c.acquire() {
		return nil, thumbnail.ErrNoCapacity
	}

	body, err := json.Marshal(params)
	if err != nil {
		c.release()
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+model, bytes.NewReader(body))
	if err != nil {
		c.release()
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.release()
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.release()
		return nil, &thumbnail.ProviderError{StatusCode: resp.StatusCode, StatusText: resp.Status, Body: string(respBody)}
	}

	var cr createResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		c.release()
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &TaskHandle{ID: cr.ID, PollingURL: cr.PollingURL}, nil
}

type pollResponse struct {
	Status Status         `json:"status"`
	Result map[string]any `json:"result"`
	Error  string         `json:"error"`
}

// Status performs a single non-blocking probe of taskID's current status.
// It does not affect the concurrency slot.
func (c *Client) Status(ctx context.Context, taskID string) (Status, error) {
	resp, err := c.fetch(ctx, taskID)
	if err != nil {
		return "", err
	}
	return resp.Status, nil
}

func (c *Client) fetch(ctx context.Context, taskID string) (*pollResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get_result?id="+taskID, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &thumbnail.ProviderError{StatusCode: resp.StatusCode, StatusText: resp.Status, Body: string(respBody)}
	}

	var pr pollResponse
	if err := json.Unmarshal(respBody, &pr); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &pr, nil
}

// Poll polls taskID at opts' interval until a terminal status is reached
// or the attempt budget is exhausted, releasing the concurrency slot on
// any terminal outcome.
func (c *Client) Poll(ctx context.Context, taskID string, opts PollOptions) (*Result, error) {
	maxAttempts := opts.maxAttemptsOrDefault()
	interval := opts.intervalOrDefault()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		pr, err := c.fetch(ctx, taskID)
		if err != nil {
			c.release()
			return nil, err
		}

		switch {
		case pr.Status == StatusReady:
			c.release()
			sampleURL, _ := pr.Result["sample"].(string)
			return &Result{SampleURL: sampleURL, Raw: pr.Result}, nil
		case pr.Status == StatusError:
			c.release()
			return nil, &thumbnail.ProviderError{StatusCode: 0, StatusText: string(pr.Status), Body: pr.Error}
		case pr.Status == StatusRequestModerated:
			c.release()
			return nil, &thumbnail.ModerationError{TaskID: taskID, Kind: thumbnail.TaskRequestModerated}
		case pr.Status == StatusContentModerated:
			c.release()
			return nil, &thumbnail.ModerationError{TaskID: taskID, Kind: thumbnail.TaskContentModerated}
		}

		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			c.release()
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}

	c.release()
	return nil, &thumbnail.TimeoutError{TaskID: taskID, Attempts: maxAttempts}
}

// Download fetches the bytes at url.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, thumbnail.ErrDownload
	}

	return io.ReadAll(resp.Body)
}

// Generate creates a task and polls it to completion, returning the
// result and the task id.
func (c *Client) Generate(ctx context.Context, model string, params map[string]any, opts PollOptions) (*Result, string, error) {
	handle, err := c.Create(ctx, model, params)
	if err != nil {
		return nil, "", err
	}
	result, err := c.Poll(ctx, handle.ID, opts)
	if err != nil {
		return nil, handle.ID, err
	}
	return result, handle.ID, nil
}

// GenerateAndDownload creates a task, polls it to completion, and
// downloads the resulting image bytes.
func (c *Client) GenerateAndDownload(ctx context.Context, model string, params map[string]any, opts PollOptions) (string, *Result, []byte, error) {
	result, taskID, err := c.Generate(ctx, model, params, opts)
	if err != nil {
		return taskID, nil, nil, err
	}
	if result.SampleURL == "" {
		return taskID, result, nil, &thumbnail.ProviderError{StatusText: "ready result missing sample URL"}
	}

	data, err := c.Download(ctx, result.SampleURL)
	if err != nil {
		return taskID, result, nil, err
	}
	return taskID, result, data, nil
}
