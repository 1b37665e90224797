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

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"BFL_API_KEY", "FLUX_API_REGION", "REVE_API_KEY",
		"S3_ENDPOINT", "S3_REGION", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY", "S3_BUCKET",
		"DATABASE_URL", "POLL_MAX_CONCURRENT", "POLL_INTERVAL", "POLL_MAX_ATTEMPTS",
		"PG_MAX_CONNS", "PG_MIN_CONNS",
	} {
		t.Setenv(k, "")
	}

	c := Load()

	assert.Equal(t, FluxRegionGlobal, c.FluxAPIRegion)
	assert.Equal(t, "us-east-1", c.S3Region)
	assert.Equal(t, "thumbnails", c.S3Bucket)
	assert.Equal(t, int32(24), c.PollMaxConcurrent)
	assert.Equal(t, 2*time.Second, c.PollInterval)
	assert.Equal(t, int32(60), c.PollMaxAttempts)
	assert.Equal(t, int32(25), c.PGMaxConns)
	assert.Equal(t, int32(5), c.PGMinConns)
}

func TestLoadSchemelessS3EndpointGetsHTTPS(t *testing.T) {
	t.Setenv("S3_ENDPOINT", "minio.internal:9000")
	c := Load()
	assert.Equal(t, "https://minio.internal:9000", c.S3Endpoint)
}

func TestLoadS3EndpointWithSchemeUnchanged(t *testing.T) {
	t.Setenv("S3_ENDPOINT", "http://minio.internal:9000")
	c := Load()
	assert.Equal(t, "http://minio.internal:9000", c.S3Endpoint)
}

func TestValidateForBackend(t *testing.T) {
	c := &Config{}

	err := c.ValidateForBackend("polling")
	assert.ErrorContains(t, err, "BFL_API_KEY")

	err = c.ValidateForBackend("synchronous")
	assert.ErrorContains(t, err, "REVE_API_KEY")

	c.BFLAPIKey = "key"
	assert.NoError(t, c.ValidateForBackend("polling"))
}

func TestEnvInt32InvalidFallsBackToDefault(t *testing.T) {
	t.Setenv("POLL_MAX_CONCURRENT", "not-a-number")
	c := Load()
	assert.Equal(t, int32(24), c.PollMaxConcurrent)
}

func TestEnvDurationInvalidFallsBackToDefault(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "not-a-duration")
	c := Load()
	assert.Equal(t, 2*time.Second, c.PollInterval)
}
