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

// Package sync implements a client for image providers that return a
// base64-encoded image inline, without a create-then-poll handshake.
package sync

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/altairalabs/thumbnailpipe/pkg/thumbnail"
)

// DefaultBaseURL is the provider's default API endpoint.
const DefaultBaseURL = "https://api.reve.com"

// ValidAspectRatios lists the fixed aspect-ratio strings the provider accepts.
var ValidAspectRatios = map[string]bool{
	"16:9": true, "9:16": true, "3:2": true, "2:3": true,
	"4:3": true, "3:4": true, "1:1": true,
}

// Options carries the shared optional parameters across create/edit/remix.
type Options struct {
	AspectRatio     string
	Version         string
	TestTimeScaling string
	Postprocessing  string
}

// Result is a provider response.
type Result struct {
	Image             []byte
	Version           string
	ContentViolation  bool
	RequestID         string
	CreditsUsed       int
	CreditsRemaining  int
}

// Config configures a Client.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Client is a synchronous provider client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New constructs a Client from cfg. Returns an error if the API key is
// missing, per the provider's construction-time failure contract.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("synchronous provider: API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{apiKey: cfg.APIKey, baseURL: baseURL, httpClient: httpClient}, nil
}

type apiResponse struct {
	Image            string `json:"image"`
	Version          string `json:"version"`
	ContentViolation bool   `json:"content_violation"`
	RequestID        string `json:"request_id"`
	CreditsUsed      int    `json:"credits_used"`
	CreditsRemaining int    `json:"credits_remaining"`
}

// Create generates an image from prompt.
func (c *Client) Create(ctx context.Context, prompt string, opts Options) (*Result, error) {
	body := map[string]any{"prompt": prompt}
	addOptions(body, opts)
	return c.call(ctx, "/v1/image/create", body)
}

// Edit modifies referenceImage per instruction.
func (c *Client) Edit(ctx context.Context, instruction string, referenceImage []byte, opts Options) (*Result, error) {
	body := map[string]any{
		"instruction":     instruction,
		"reference_image": base64.StdEncoding.EncodeToString(referenceImage),
	}
	addOptions(body, opts)
	return c.call(ctx, "/v1/image/edit", body)
}

// Remix reimagines referenceImage per prompt.
func (c *Client) Remix(ctx context.Context, prompt string, referenceImage []byte, opts Options) (*Result, error) {
	body := map[string]any{
		"prompt":          prompt,
		"reference_image": base64.StdEncoding.EncodeToString(referenceImage),
	}
	addOptions(body, opts)
	return c.call(ctx, "/v1/image/remix", body)
}

func addOptions(body map[string]any, opts Options) {
	if opts.AspectRatio != "" {
		body["aspect_ratio"] = opts.AspectRatio
	}
	if opts.Version != "" {
		body["version"] = opts.Version
	}
	if opts.TestTimeScaling != "" {
		body["test_time_scaling"] = opts.TestTimeScaling
	}
	if opts.Postprocessing != "" {
		body["postprocessing"] = opts.Postprocessing
	}
}

func (c *Client) call(ctx context.Context, path string, body map[string]any) (*Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &thumbnail.ProviderError{StatusCode: resp.StatusCode, StatusText: resp.Status, Body: string(respBody)}
	}

	var ar apiResponse
	if err := json.Unmarshal(respBody, &ar); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if ar.ContentViolation {
		return nil, &thumbnail.ContentViolationError{RequestID: ar.RequestID}
	}

	image, err := base64.StdEncoding.DecodeString(ar.Image)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	return &Result{
		Image:            image,
		Version:          ar.Version,
		ContentViolation: ar.ContentViolation,
		RequestID:        ar.RequestID,
		CreditsUsed:      ar.CreditsUsed,
		CreditsRemaining: ar.CreditsRemaining,
	}, nil
}

// AspectRatioForDimensions reduces (width, height) by their greatest common
// divisor and returns the matching fixed aspect-ratio string, falling back
// to "16:9" when the reduced ratio is not one the provider accepts.
func AspectRatioForDimensions(width, height int) string {
	if width <= 0 || height <= 0 {
		return "16:9"
	}
	g := gcd(width, height)
	ratio := fmt.Sprintf("%d:%d", width/g, height/g)
	if ValidAspectRatios[ratio] {
		return ratio
	}
	return "16:9"
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
