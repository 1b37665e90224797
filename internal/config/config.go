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

// Package config provides environment-driven configuration for the
// thumbnailpipe binaries: provider credentials, object-store coordinates,
// and the database connection string.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// FluxRegion selects the regional endpoint for the polling provider.
type FluxRegion string

const (
	FluxRegionGlobal FluxRegion = "global"
	FluxRegionEU     FluxRegion = "eu"
	FluxRegionUS     FluxRegion = "us"
)

// Config holds every environment-driven setting the pipeline needs.
type Config struct {
	// BFLAPIKey is the polling provider's API key. Required if the polling
	// backend is used.
	BFLAPIKey string
	// FluxAPIRegion selects the polling provider's regional endpoint.
	FluxAPIRegion FluxRegion
	// ReveAPIKey is the synchronous provider's API key. Required if the
	// synchronous backend is used.
	ReveAPIKey string

	// S3Endpoint is the object-store endpoint URL.
	S3Endpoint string
	// S3Region is the object-store region.
	S3Region string
	// S3AccessKeyID is the object-store access key.
	S3AccessKeyID string
	// S3SecretAccessKey is the object-store secret key.
	S3SecretAccessKey string
	// S3Bucket is the default bucket for thumbnail artifacts.
	S3Bucket string

	// DatabaseURL is the relational-database connection string.
	DatabaseURL string

	// PollMaxConcurrent bounds the polling provider's in-flight task count.
	PollMaxConcurrent int32
	// PollInterval is the default interval between polling attempts.
	PollInterval time.Duration
	// PollMaxAttempts is the default number of polling attempts before timeout.
	PollMaxAttempts int32

	// PGMaxConns bounds the Postgres pool's maximum connections.
	PGMaxConns int32
	// PGMinConns bounds the Postgres pool's minimum connections.
	PGMinConns int32
}

// Load reads a Config from the process environment. Unset or empty
// variables fall back to the defaults set below, and an S3_ENDPOINT without
// a scheme gets "https://" prepended.
func Load() *Config {
	c := &Config{
		BFLAPIKey:         os.Getenv("BFL_API_KEY"),
		FluxAPIRegion:     FluxRegion(envString("FLUX_API_REGION", string(FluxRegionGlobal))),
		ReveAPIKey:        os.Getenv("REVE_API_KEY"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3Region:          envString("S3_REGION", "us-east-1"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3Bucket:          envString("S3_BUCKET", "thumbnails"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		PollMaxConcurrent: envInt32("POLL_MAX_CONCURRENT", 24),
		PollInterval:      envDuration("POLL_INTERVAL", 2*time.Second),
		PollMaxAttempts:   envInt32("POLL_MAX_ATTEMPTS", 60),
		PGMaxConns:        envInt32("PG_MAX_CONNS", 25),
		PGMinConns:        envInt32("PG_MIN_CONNS", 5),
	}
	if c.S3Endpoint != "" && !hasScheme(c.S3Endpoint) {
		c.S3Endpoint = "https://" + c.S3Endpoint
	}
	return c
}

// ValidateForBackend checks that the configuration carries the credentials
// a given backend requires, returning a descriptive error otherwise.
func (c *Config) ValidateForBackend(backend string) error {
	switch backend {
	case "polling":
		if c.BFLAPIKey == "" {
			return fmt.Errorf("BFL_API_KEY is required for the polling backend")
		}
	case "synchronous":
		if c.ReveAPIKey == "" {
			return fmt.Errorf("REVE_API_KEY is required for the synchronous backend")
		}
	}
	return nil
}

func hasScheme(url string) bool {
	for i := 0; i < len(url); i++ {
		if url[i] == ':' {
			return i+2 < len(url) && url[i+1] == '/' && url[i+2] == '/'
		}
		if url[i] == '/' {
			return false
		}
	}
	return false
}

// envString reads an environment variable, returning def when unset or empty.
func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt32 reads an environment variable as int32, returning def on missing/invalid values.
func envInt32(key string, def int32) int32 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return def
	}
	return int32(n)
}

// envDuration reads an environment variable as a time.Duration, returning def on missing/invalid.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
