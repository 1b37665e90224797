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

// Package thumbnailstore implements the thumbnail metadata store on top of
// PostgreSQL.
package thumbnailstore

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altairalabs/thumbnailpipe/internal/pgutil"
	"github.com/altairalabs/thumbnailpipe/pkg/thumbnail"
)

// readableIDAlphabet excludes visually ambiguous characters 0, 1, I, O.
const readableIDAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const readableIDLength = 6

// maxReadableIDAttempts bounds the retry loop on unique-constraint
// collisions for readable_id.
const maxReadableIDAttempts = 5

// Config configures a Store's connection pool.
type Config struct {
	ConnString        string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// Store persists thumbnail metadata in PostgreSQL.
type Store struct {
	pool     *pgxpool.Pool
	ownsPool bool
}

// New creates a Store that owns its connection pool, verified with a ping.
func New(cfg Config) (*Store, error) {
	if cfg.ConnString == "" {
		return nil, fmt.Errorf("thumbnailstore: connection string is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("thumbnailstore: parsing connection string: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("thumbnailstore: creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("thumbnailstore: ping failed: %w", err)
	}

	return &Store{pool: pool, ownsPool: true}, nil
}

// NewFromPool wraps an existing pool. Close is a no-op; the caller retains
// ownership.
func NewFromPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, ownsPool: false}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	if s.ownsPool {
		s.pool.Close()
	}
	return nil
}

// --- readable ID generation --------------------------------------------------

func generateReadableID() (string, error) {
	var b strings.Builder
	b.WriteString("TH-")
	for i := 0; i < readableIDLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(readableIDAlphabet))))
		if err != nil {
			return "", fmt.Errorf("thumbnailstore: generating readable id: %w", err)
		}
		b.WriteByte(readableIDAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation
// (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "23505")
}

// --- columns and scanning ----------------------------------------------------

const thumbnailColumns = `id, readable_id, prompt, enhanced_prompt, preset,
	width, height, model, seed, s3_bucket, s3_key, file_size_bytes, checksum,
	generation_time_ms, cost_cents, version, parent_id, feedback,
	metadata, generation_params, generated_by, created_at, updated_at`

func scanThumbnail(row pgx.Row) (*thumbnail.Thumbnail, error) {
	var t thumbnail.Thumbnail
	var enhancedPrompt, preset, parentID, feedback *string
	var seed *int64
	var metadataJSON, paramsJSON []byte

	err := row.Scan(
		&t.ID, &t.ReadableID, &t.Prompt, &enhancedPrompt, &preset,
		&t.Width, &t.Height, &t.Model, &seed, &t.S3Bucket, &t.S3Key, &t.FileSizeBytes, &t.Checksum,
		&t.GenerationTimeMs, &t.CostCents, &t.Version, &parentID, &feedback,
		&metadataJSON, &paramsJSON, &t.GeneratedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, thumbnail.ErrNotFound
		}
		return nil, &thumbnail.DBError{Op: "scan thumbnail", Err: err}
	}

	t.EnhancedPrompt = enhancedPrompt
	t.Preset = preset
	t.ParentID = parentID
	t.Feedback = feedback
	t.Seed = seed
	t.Metadata = unmarshalMap(metadataJSON)
	t.GenerationParams = unmarshalMap(paramsJSON)
	return &t, nil
}

func scanVersion(row pgx.Row) (*thumbnail.ThumbnailVersion, error) {
	var v thumbnail.ThumbnailVersion
	var feedback *string

	err := row.Scan(&v.ThumbnailID, &v.Version, &v.S3Bucket, &v.S3Key, &v.FileSizeBytes, &v.Prompt, &feedback, &v.CreatedAt)
	if err != nil {
		return nil, &thumbnail.DBError{Op: "scan version", Err: err}
	}
	v.Feedback = feedback
	return &v, nil
}

func unmarshalMap(data []byte) map[string]string {
	m := pgutil.UnmarshalJSONB(data)
	if len(m) == 0 {
		return nil
	}
	return m
}

// --- create -------------------------------------------------------------------

func (s *Store) Create(ctx context.Context, data thumbnail.CreateThumbnailData) (*thumbnail.Thumbnail, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	query := `INSERT INTO thumbnails (
		id, readable_id, prompt, enhanced_prompt, preset,
		width, height, model, seed, s3_bucket, s3_key, file_size_bytes, checksum,
		generation_time_ms, cost_cents, version, parent_id,
		metadata, generation_params, generated_by, created_at, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,1,$16,$17,$18,$19,$20,$20)`

	var lastErr error
	for attempt := 0; attempt < maxReadableIDAttempts; attempt++ {
		readableID, err := generateReadableID()
		if err != nil {
			return nil, err
		}

		_, err = s.pool.Exec(ctx, query,
			id, readableID, data.Prompt, data.EnhancedPrompt, data.Preset,
			data.Width, data.Height, data.Model, data.Seed, data.S3Bucket, data.S3Key, data.FileSizeBytes, data.Checksum,
			data.GenerationTimeMs, data.CostCents, data.ParentID,
			pgutil.MarshalJSONB(data.Metadata), pgutil.MarshalJSONB(data.GenerationParams), data.GeneratedBy, now,
		)
		if err == nil {
			return s.GetByID(ctx, id)
		}
		if !isUniqueViolation(err) {
			return nil, &thumbnail.DBError{Op: "create thumbnail", Err: err}
		}
		lastErr = err
	}

	return nil, &thumbnail.DBError{Op: "create thumbnail", Err: fmt.Errorf("exhausted %d readable_id attempts: %w", maxReadableIDAttempts, lastErr)}
}

// --- getById / getWithVersions -------------------------------------------------

func (s *Store) GetByID(ctx context.Context, id string) (*thumbnail.Thumbnail, error) {
	query := `SELECT ` + thumbnailColumns + ` FROM thumbnails WHERE id=$1 AND deleted_at IS NULL`
	return scanThumbnail(s.pool.QueryRow(ctx, query, id))
}

func (s *Store) GetWithVersions(ctx context.Context, id string) (*thumbnail.Thumbnail, []thumbnail.ThumbnailVersion, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	query := `SELECT thumbnail_id, version, s3_bucket, s3_key, file_size_bytes, prompt, feedback, created_at
		FROM thumbnail_versions WHERE thumbnail_id=$1 ORDER BY version DESC`

	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return nil, nil, &thumbnail.DBError{Op: "get versions", Err: err}
	}
	defer rows.Close()

	var versions []thumbnail.ThumbnailVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, nil, err
		}
		versions = append(versions, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, &thumbnail.DBError{Op: "iterate versions", Err: err}
	}

	return t, versions, nil
}

// --- update ---------------------------------------------------------------

func (s *Store) Update(ctx context.Context, id string, data thumbnail.UpdateThumbnailData) (*thumbnail.Thumbnail, error) {
	now := time.Now().UTC()

	query := `UPDATE thumbnails SET feedback=COALESCE($2, feedback), metadata=COALESCE($3, metadata), updated_at=$4
		WHERE id=$1 AND deleted_at IS NULL`

	var metadataArg any
	if data.Metadata != nil {
		metadataArg = pgutil.MarshalJSONB(data.Metadata)
	}

	res, err := s.pool.Exec(ctx, query, id, data.Feedback, metadataArg, now)
	if err != nil {
		return nil, &thumbnail.DBError{Op: "update thumbnail", Err: err}
	}
	if res.RowsAffected() == 0 {
		return nil, thumbnail.ErrNotFound
	}

	return s.GetByID(ctx, id)
}

// --- delete -----------------------------------------------------------------

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	now := time.Now().UTC()
	res, err := s.pool.Exec(ctx, `UPDATE thumbnails SET deleted_at=$2 WHERE id=$1 AND deleted_at IS NULL`, id, now)
	if err != nil {
		return false, &thumbnail.DBError{Op: "delete thumbnail", Err: err}
	}
	return res.RowsAffected() > 0, nil
}

// --- list -------------------------------------------------------------------

func (s *Store) List(ctx context.Context, filters thumbnail.ListFilters, page, limit int) (*thumbnail.ListPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	qb := &pgutil.QueryBuilder{}
	applyListFilters(qb, filters)
	where := qb.Where()
	args := qb.Args()

	var total int64
	countQuery := `SELECT count(*) FROM thumbnails WHERE deleted_at IS NULL` + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, &thumbnail.DBError{Op: "count thumbnails", Err: err}
	}

	query := `SELECT ` + thumbnailColumns + ` FROM thumbnails WHERE deleted_at IS NULL` + where +
		` ORDER BY created_at DESC`
	query = qb.AppendPagination(query, limit, (page-1)*limit)

	rows, err := s.pool.Query(ctx, query, qb.Args()...)
	if err != nil {
		return nil, &thumbnail.DBError{Op: "list thumbnails", Err: err}
	}
	defer rows.Close()

	var items []thumbnail.Thumbnail
	for rows.Next() {
		t, err := scanThumbnail(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, &thumbnail.DBError{Op: "iterate thumbnails", Err: err}
	}
	if items == nil {
		items = []thumbnail.Thumbnail{}
	}

	return &thumbnail.ListPage{Items: items, Total: int(total), Page: page, Limit: limit}, nil
}

func applyListFilters(qb *pgutil.QueryBuilder, f thumbnail.ListFilters) {
	if f.Preset != nil {
		qb.Add("preset=$?", *f.Preset)
	}
	if f.Model != nil {
		qb.Add("model=$?", *f.Model)
	}
	if f.GeneratedBy != nil {
		qb.Add("generated_by=$?", *f.GeneratedBy)
	}
	if f.Search != "" {
		qb.Add("(prompt ILIKE $? OR enhanced_prompt ILIKE $?)", "%"+f.Search+"%")
	}
	if f.DateFrom != nil {
		qb.Add("created_at >= $?", *f.DateFrom)
	}
	if f.DateTo != nil {
		qb.Add("created_at <= $?", *f.DateTo)
	}
}

// --- createVersion ------------------------------------------------------------

func (s *Store) CreateVersion(ctx context.Context, id string, data thumbnail.CreateVersionData) (*thumbnail.Thumbnail, *thumbnail.ThumbnailVersion, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, &thumbnail.DBError{Op: "begin tx", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanThumbnail(tx.QueryRow(ctx,
		`SELECT `+thumbnailColumns+` FROM thumbnails WHERE id=$1 AND deleted_at IS NULL FOR UPDATE`, id))
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()

	versionRow := &thumbnail.ThumbnailVersion{
		ThumbnailID:   current.ID,
		Version:       current.Version,
		S3Bucket:      current.S3Bucket,
		S3Key:         current.S3Key,
		FileSizeBytes: current.FileSizeBytes,
		Prompt:        current.Prompt,
		Feedback:      data.Feedback,
		CreatedAt:     now,
	}

	_, err = tx.Exec(ctx, `INSERT INTO thumbnail_versions
		(thumbnail_id, version, s3_bucket, s3_key, file_size_bytes, prompt, feedback, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		versionRow.ThumbnailID, versionRow.Version, versionRow.S3Bucket, versionRow.S3Key,
		versionRow.FileSizeBytes, versionRow.Prompt, versionRow.Feedback, versionRow.CreatedAt,
	)
	if err != nil {
		return nil, nil, &thumbnail.DBError{Op: "insert version", Err: err}
	}

	newPrompt := current.Prompt
	if data.NewPrompt != nil {
		newPrompt = *data.NewPrompt
	}
	generationTimeMs := current.GenerationTimeMs
	if data.GenerationTimeMs != nil {
		generationTimeMs = *data.GenerationTimeMs
	}
	costCents := current.CostCents
	if data.CostCents != nil {
		costCents = *data.CostCents
	}
	seed := current.Seed
	if data.Seed != nil {
		seed = data.Seed
	}

	_, err = tx.Exec(ctx, `UPDATE thumbnails SET
		s3_bucket=$2, s3_key=$3, file_size_bytes=$4, checksum=$5,
		prompt=$6, generation_time_ms=$7, cost_cents=$8, seed=$9,
		version=version+1, updated_at=$10
		WHERE id=$1`,
		id, data.NewS3Bucket, data.NewS3Key, data.NewFileSizeBytes, data.NewChecksum,
		newPrompt, generationTimeMs, costCents, seed, now,
	)
	if err != nil {
		return nil, nil, &thumbnail.DBError{Op: "update thumbnail version", Err: err}
	}

	updated, err := scanThumbnail(tx.QueryRow(ctx, `SELECT `+thumbnailColumns+` FROM thumbnails WHERE id=$1`, id))
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, &thumbnail.DBError{Op: "commit create version", Err: err}
	}

	return updated, versionRow, nil
}

// --- stats --------------------------------------------------------------------

func (s *Store) Stats(ctx context.Context) (*thumbnail.Stats, error) {
	stats := &thumbnail.Stats{ByPreset: map[string]int{}, ByModel: map[string]int{}}

	err := s.pool.QueryRow(ctx,
		`SELECT count(*), COALESCE(sum(file_size_bytes),0), COALESCE(sum(cost_cents),0)
		FROM thumbnails WHERE deleted_at IS NULL`,
	).Scan(&stats.Total, &stats.TotalSizeBytes, &stats.TotalCostCents)
	if err != nil {
		return nil, &thumbnail.DBError{Op: "stats totals", Err: err}
	}

	rows, err := s.pool.Query(ctx,
		`SELECT COALESCE(preset, 'custom'), count(*) FROM thumbnails WHERE deleted_at IS NULL GROUP BY 1`)
	if err != nil {
		return nil, &thumbnail.DBError{Op: "stats by preset", Err: err}
	}
	for rows.Next() {
		var preset string
		var count int
		if err := rows.Scan(&preset, &count); err != nil {
			rows.Close()
			return nil, &thumbnail.DBError{Op: "scan stats by preset", Err: err}
		}
		stats.ByPreset[preset] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, &thumbnail.DBError{Op: "iterate stats by preset", Err: err}
	}

	rows, err = s.pool.Query(ctx,
		`SELECT model, count(*) FROM thumbnails WHERE deleted_at IS NULL GROUP BY 1`)
	if err != nil {
		return nil, &thumbnail.DBError{Op: "stats by model", Err: err}
	}
	defer rows.Close()
	for rows.Next() {
		var model string
		var count int
		if err := rows.Scan(&model, &count); err != nil {
			return nil, &thumbnail.DBError{Op: "scan stats by model", Err: err}
		}
		stats.ByModel[model] = count
	}
	if err := rows.Err(); err != nil {
		return nil, &thumbnail.DBError{Op: "iterate stats by model", Err: err}
	}

	return stats, nil
}
