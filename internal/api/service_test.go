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

package api

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"

	"github.com/altairalabs/thumbnailpipe/pkg/thumbnail"
)

// Service's dependencies (pipeline.Pipeline, thumbnailstore.Store) are
// concrete types backed by network clients and a Postgres pool, so these
// tests cover only the validation performed before either is touched -
// the same boundary internal/objectstore's own tests draw around the AWS
// SDK.

func TestServiceGenerateRequiresPrompt(t *testing.T) {
	s := NewService(nil, nil, logr.Discard())

	_, err := s.Generate(context.Background(), thumbnail.GenerateRequest{})

	assert.ErrorIs(t, err, ErrMissingPrompt)
}

func TestServiceRegenerateRequiresIDAndPrompt(t *testing.T) {
	s := NewService(nil, nil, logr.Discard())

	_, _, err := s.Regenerate(context.Background(), "", thumbnail.GenerateRequest{Prompt: "a cat"})
	assert.ErrorIs(t, err, ErrMissingID)

	_, _, err = s.Regenerate(context.Background(), "thumb-1", thumbnail.GenerateRequest{})
	assert.ErrorIs(t, err, ErrMissingPrompt)
}

func TestServiceGetRequiresID(t *testing.T) {
	s := NewService(nil, nil, logr.Discard())

	_, err := s.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestServiceGetWithVersionsRequiresID(t *testing.T) {
	s := NewService(nil, nil, logr.Discard())

	_, _, err := s.GetWithVersions(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestServiceUpdateRequiresID(t *testing.T) {
	s := NewService(nil, nil, logr.Discard())

	_, err := s.Update(context.Background(), "", thumbnail.UpdateThumbnailData{})
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestServiceDeleteRequiresID(t *testing.T) {
	s := NewService(nil, nil, logr.Discard())

	_, err := s.Delete(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingID)
}
