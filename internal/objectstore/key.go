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
	"fmt"
	"time"

	"github.com/altairalabs/thumbnailpipe/pkg/thumbnail"
)

// ThumbnailKey builds the deterministic object-store key
// thumbnails/{preset|"custom"}/{YYYY}/{MM}/{id}-v{version}.png for the given
// preset (nil means "custom"), id, version, and creation time.
func ThumbnailKey(preset *string, id string, version int, at time.Time) string {
	p := thumbnail.CustomPresetKey
	if preset != nil && *preset != "" {
		p = *preset
	}
	return fmt.Sprintf("thumbnails/%s/%04d/%02d/%s-v%d.png", p, at.Year(), at.Month(), id, version)
}
