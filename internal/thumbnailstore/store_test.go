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

package thumbnailstore

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/altairalabs/thumbnailpipe/pkg/thumbnail"
)

var testConnStr string

func TestMain(m *testing.M) {
	flag.Parse()

	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("thumbnailpipe_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	testConnStr, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get connection string: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := container.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate container: %v\n", err)
	}

	os.Exit(code)
}

// freshDB creates an isolated database within the shared container and
// returns its connection string and a ready-to-query Store built atop it.
func freshDB(t *testing.T) (*Store, string) {
	t.Helper()

	dbName := fmt.Sprintf("test_%d", time.Now().UnixNano())

	admin, err := sql.Open("pgx", testConnStr)
	require.NoError(t, err)
	_, err = admin.Exec(fmt.Sprintf("CREATE DATABASE %s", dbName))
	require.NoError(t, err)
	require.NoError(t, admin.Close())

	connStr := replaceDBName(testConnStr, dbName)

	mg, err := NewMigrator(connStr, logr.Discard())
	require.NoError(t, err)
	require.NoError(t, mg.Up())
	require.NoError(t, mg.Close())

	pool, err := pgxpool.New(context.Background(), connStr)
	require.NoError(t, err)

	store := NewFromPool(pool)

	t.Cleanup(func() {
		pool.Close()
		mainDB, err := sql.Open("pgx", testConnStr)
		if err == nil {
			_, _ = mainDB.Exec(fmt.Sprintf("DROP DATABASE %s WITH (FORCE)", dbName))
			_ = mainDB.Close()
		}
	})

	return store, connStr
}

func replaceDBName(connStr, newDB string) string {
	qIdx := len(connStr)
	for i, c := range connStr {
		if c == '?' {
			qIdx = i
			break
		}
	}
	slashIdx := 0
	for i := qIdx - 1; i >= 0; i-- {
		if connStr[i] == '/' {
			slashIdx = i
			break
		}
	}
	return connStr[:slashIdx+1] + newDB + connStr[qIdx:]
}

func sampleCreateData() thumbnail.CreateThumbnailData {
	return thumbnail.CreateThumbnailData{
		Prompt:           "a red fox in a forest",
		Width:            1200,
		Height:           630,
		Model:            "flux-2-pro",
		S3Bucket:         "thumbnails",
		S3Key:            "thumbnails/custom/2026/07/abc-v1.png",
		FileSizeBytes:    1024,
		Checksum:         "deadbeef",
		GenerationTimeMs: 1500,
		CostCents:        5,
		GeneratedBy:      "user",
		GenerationParams: map[string]string{"backend": "polling", "model": "flux-2-pro"},
	}
}

func TestMigratorUpDownThumbnailstore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	_, connStr := freshDB(t)

	mg, err := NewMigrator(connStr, logr.Discard())
	require.NoError(t, err)
	defer func() { _ = mg.Close() }()

	v, dirty, err := mg.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)

	require.NoError(t, mg.Down())
}

func TestStoreCreateAndGetByID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	store, _ := freshDB(t)
	ctx := context.Background()

	created, err := store.Create(ctx, sampleCreateData())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(created.ReadableID, "TH-"))
	assert.Len(t, created.ReadableID, len("TH-")+readableIDLength)
	assert.Equal(t, 1, created.Version)
	assert.Nil(t, created.DeletedAt)

	fetched, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ReadableID, fetched.ReadableID)
	assert.Equal(t, "a red fox in a forest", fetched.Prompt)
}

func TestStoreGetByIDMissing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	store, _ := freshDB(t)
	_, err := store.GetByID(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, thumbnail.ErrNotFound)
}

func TestStoreUpdatePartial(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	store, _ := freshDB(t)
	ctx := context.Background()

	created, err := store.Create(ctx, sampleCreateData())
	require.NoError(t, err)

	feedback := "great shot"
	updated, err := store.Update(ctx, created.ID, thumbnail.UpdateThumbnailData{Feedback: &feedback})
	require.NoError(t, err)
	require.NotNil(t, updated.Feedback)
	assert.Equal(t, feedback, *updated.Feedback)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
}

func TestStoreDeleteIsIdempotentFalseOnSecondCall(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	store, _ := freshDB(t)
	ctx := context.Background()

	created, err := store.Create(ctx, sampleCreateData())
	require.NoError(t, err)

	ok, err := store.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, thumbnail.ErrNotFound)
}

func TestStoreListFiltersAndPaginates(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	store, _ := freshDB(t)
	ctx := context.Background()

	preset := "youtube-16x9"
	for i := 0; i < 3; i++ {
		data := sampleCreateData()
		data.Preset = &preset
		_, err := store.Create(ctx, data)
		require.NoError(t, err)
	}
	other := sampleCreateData()
	other.Model = "reve-image-1"
	_, err := store.Create(ctx, other)
	require.NoError(t, err)

	page, err := store.List(ctx, thumbnail.ListFilters{Preset: &preset}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 2)

	page2, err := store.List(ctx, thumbnail.ListFilters{Preset: &preset}, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page2.Items, 1)

	pageBeyondLast, err := store.List(ctx, thumbnail.ListFilters{Preset: &preset}, 5, 2)
	require.NoError(t, err)
	assert.Empty(t, pageBeyondLast.Items)
	assert.Equal(t, 3, pageBeyondLast.Total)
}

func TestStoreCreateVersionIncrementsAndRecordsPreUpdateArtifact(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	store, _ := freshDB(t)
	ctx := context.Background()

	created, err := store.Create(ctx, sampleCreateData())
	require.NoError(t, err)

	updated, version, err := store.CreateVersion(ctx, created.ID, thumbnail.CreateVersionData{
		NewS3Key:         "thumbnails/custom/2026/07/abc-v2.png",
		NewS3Bucket:      "thumbnails",
		NewFileSizeBytes: 2048,
		NewChecksum:      "cafef00d",
	})
	require.NoError(t, err)

	assert.Equal(t, created.Version+1, updated.Version)
	assert.Equal(t, created.S3Key, version.S3Key)
	assert.Equal(t, created.FileSizeBytes, version.FileSizeBytes)
	assert.Equal(t, "thumbnails/custom/2026/07/abc-v2.png", updated.S3Key)

	_, versions, err := store.GetWithVersions(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].Version)
}

func TestStoreStatsAggregatesByPresetAndModel(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	store, _ := freshDB(t)
	ctx := context.Background()

	_, err := store.Create(ctx, sampleCreateData())
	require.NoError(t, err)

	preset := "instagram-square"
	withPreset := sampleCreateData()
	withPreset.Preset = &preset
	_, err = store.Create(ctx, withPreset)
	require.NoError(t, err)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByPreset[thumbnail.CustomPresetKey])
	assert.Equal(t, 1, stats.ByPreset[preset])
	assert.Equal(t, 2, stats.ByModel["flux-2-pro"])
}
