/*
Copyright 2025.

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

// Package metrics provides shared Prometheus metrics for thumbnailpipe
// components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status label constants for metrics.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// GenerationMetrics holds all Prometheus metrics for thumbnail generation
// requests, tracked by backend and model for cost and latency analysis.
type GenerationMetrics struct {
	// RequestsTotal is the total number of generation requests.
	RequestsTotal *prometheus.CounterVec

	// CostCentsTotal is the total estimated cost in cents.
	CostCentsTotal *prometheus.CounterVec

	// RequestDuration is the histogram of generation request durations.
	RequestDuration *prometheus.HistogramVec

	// FileSizeBytes is the histogram of generated artifact sizes.
	FileSizeBytes *prometheus.HistogramVec
}

// GenerationMetricsConfig configures the generation metrics.
type GenerationMetricsConfig struct {
	Namespace string

	// DurationBuckets are the histogram buckets for the request-duration
	// histogram. If nil, defaults to DefaultGenerationDurationBuckets.
	DurationBuckets []float64
}

// DefaultGenerationDurationBuckets are the default histogram buckets for
// generation request durations. Polling-backend generations can take
// minutes, so buckets extend well past a typical synchronous call.
var DefaultGenerationDurationBuckets = []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300}

// DefaultFileSizeBuckets are the default histogram buckets for generated
// artifact sizes, in bytes.
var DefaultFileSizeBuckets = []float64{50_000, 100_000, 250_000, 500_000, 1_000_000, 2_000_000, 5_000_000}

// NewGenerationMetrics creates and registers all Prometheus metrics for
// thumbnail generation requests.
func NewGenerationMetrics(cfg GenerationMetricsConfig) *GenerationMetrics {
	labels := prometheus.Labels{
		"namespace": cfg.Namespace,
	}

	buckets := cfg.DurationBuckets
	if buckets == nil {
		buckets = DefaultGenerationDurationBuckets
	}

	return &GenerationMetrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "thumbnailpipe_generation_requests_total",
			Help:        "Total number of thumbnail generation requests",
			ConstLabels: labels,
		}, []string{"backend", "model", "status"}),

		CostCentsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "thumbnailpipe_generation_cost_cents_total",
			Help:        "Total estimated generation cost in cents",
			ConstLabels: labels,
		}, []string{"backend", "model"}),

		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "thumbnailpipe_generation_duration_seconds",
			Help:        "Thumbnail generation request duration in seconds",
			ConstLabels: labels,
			Buckets:     buckets,
		}, []string{"backend", "model"}),

		FileSizeBytes: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "thumbnailpipe_generation_file_size_bytes",
			Help:        "Size of generated thumbnail artifacts in bytes",
			ConstLabels: labels,
			Buckets:     DefaultFileSizeBuckets,
		}, []string{"backend", "model"}),
	}
}

// Initialize pre-registers metrics with the given label values so they
// appear in /metrics output immediately at startup, before any request has
// been recorded.
func (m *GenerationMetrics) Initialize(backend, model string) {
	m.RequestsTotal.WithLabelValues(backend, model, StatusSuccess).Add(0)
	m.RequestsTotal.WithLabelValues(backend, model, StatusError).Add(0)
	m.CostCentsTotal.WithLabelValues(backend, model).Add(0)
}

// GenerationRequestMetrics contains the metrics for a single generation request.
type GenerationRequestMetrics struct {
	Backend         string
	Model           string
	CostCents       int64
	FileSizeBytes   int64
	DurationSeconds float64
	Success         bool
}

// RecordRequest records metrics for a thumbnail generation request.
func (m *GenerationMetrics) RecordRequest(req GenerationRequestMetrics) {
	status := StatusSuccess
	if !req.Success {
		status = StatusError
	}

	m.RequestsTotal.WithLabelValues(req.Backend, req.Model, status).Inc()
	m.CostCentsTotal.WithLabelValues(req.Backend, req.Model).Add(float64(req.CostCents))
	m.RequestDuration.WithLabelValues(req.Backend, req.Model).Observe(req.DurationSeconds)
	if req.Success {
		m.FileSizeBytes.WithLabelValues(req.Backend, req.Model).Observe(float64(req.FileSizeBytes))
	}
}

// GenerationMetricsRecorder is the interface for recording generation
// metrics. This allows a no-op implementation when metrics are disabled.
type GenerationMetricsRecorder interface {
	RecordRequest(req GenerationRequestMetrics)
}

// NoOpGenerationMetrics is a no-op implementation for when metrics are disabled.
type NoOpGenerationMetrics struct{}

// RecordRequest is a no-op implementation that intentionally does nothing.
func (n *NoOpGenerationMetrics) RecordRequest(_ GenerationRequestMetrics) {
}
