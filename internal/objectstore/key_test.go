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

package objectstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThumbnailKeyWithPreset(t *testing.T) {
	preset := "youtube"
	at := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	got := ThumbnailKey(&preset, "abc123", 2, at)

	assert.Equal(t, "thumbnails/youtube/2026/03/abc123-v2.png", got)
}

func TestThumbnailKeyNilPresetIsCustom(t *testing.T) {
	at := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	got := ThumbnailKey(nil, "xyz", 1, at)

	assert.Equal(t, "thumbnails/custom/2026/12/xyz-v1.png", got)
}

func TestThumbnailKeyEmptyPresetIsCustom(t *testing.T) {
	empty := ""
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	got := ThumbnailKey(&empty, "xyz", 1, at)

	assert.Equal(t, "thumbnails/custom/2026/01/xyz-v1.png", got)
}

func TestThumbnailKeyMonthIsZeroPadded(t *testing.T) {
	preset := "og-image"
	at := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	got := ThumbnailKey(&preset, "id1", 1, at)

	assert.Equal(t, "thumbnails/og-image/2026/06/id1-v1.png", got)
}
