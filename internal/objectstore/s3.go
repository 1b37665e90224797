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

// Package objectstore is an S3-compatible put/get/presign adapter for
// thumbnail artifacts, using structured keys under a deterministic template.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/altairalabs/thumbnailpipe/pkg/thumbnail"
)

// DefaultContentType is used by Put when the caller does not specify one.
const DefaultContentType = "image/png"

// DefaultPresignExpiry is the presigned URL lifetime used by PresignGet
// when the caller does not override it.
const DefaultPresignExpiry = 3600 * time.Second

// Config configures the S3-compatible adapter.
type Config struct {
	// Endpoint is an optional custom endpoint for S3-compatible services.
	Endpoint string
	// Region is the storage region.
	Region string
	// AccessKeyID and SecretAccessKey are static credentials. When both are
	// empty, the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
	// Bucket is the default bucket for put/get/presign operations.
	Bucket string
	// UsePathStyle forces path-style addressing, required by most
	// S3-compatible services (e.g. MinIO) that front a custom endpoint.
	UsePathStyle bool
}

// PutResult is returned by Put.
type PutResult struct {
	Bucket string
	Key    string
	URL    string
}

// Store is an S3-compatible object-store adapter.
type Store struct {
	client *s3.Client
	presig *s3.PresignClient
	cfg    Config
}

// New creates a Store from cfg, loading AWS configuration and wiring an
// optional custom endpoint with path-style addressing.
func New(ctx context.Context, cfg Config) (*Store, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return &Store{
		client: client,
		presig: s3.NewPresignClient(client),
		cfg:    cfg,
	}, nil
}

// Put uploads data under key with the given content type, defaulting to
// image/png when contentType is empty. The returned URL is
// {endpoint}/{bucket}/{key}.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (*PutResult, error) {
	if contentType == "" {
		contentType = DefaultContentType
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, &thumbnail.StorageError{Op: "put", Key: key, Err: err}
	}

	return &PutResult{
		Bucket: s.cfg.Bucket,
		Key:    key,
		URL:    fmt.Sprintf("%s/%s/%s", s.cfg.Endpoint, s.cfg.Bucket, key),
	}, nil
}

// Get downloads the bytes stored at key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, &thumbnail.StorageError{Op: "get", Key: key, Err: thumbnail.ErrNotFound}
		}
		return nil, &thumbnail.StorageError{Op: "get", Key: key, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &thumbnail.StorageError{Op: "get", Key: key, Err: err}
	}
	return data, nil
}

// PresignGet returns a presigned GET URL for key, valid for expiresIn. A
// non-positive expiresIn defaults to DefaultPresignExpiry.
func (s *Store) PresignGet(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	if expiresIn <= 0 {
		expiresIn = DefaultPresignExpiry
	}

	req, err := s.presig.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", &thumbnail.StorageError{Op: "presignGet", Key: key, Err: err}
	}
	return req.URL, nil
}

// Close releases any resources held by the store. The AWS SDK client keeps
// no open resources of its own, so this is currently a no-op, kept for
// interface symmetry with other adapters in the pipeline.
func (s *Store) Close() error {
	return nil
}
