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

// Package preset provides the read-only catalog of thumbnail presets:
// named bundles of canvas dimensions, default model, and prompt suffix for
// a common target surface.
package preset

// Preset is an immutable catalog entry. Presets are loaded once at startup
// and never mutated.
type Preset struct {
	// ID is the stable catalog key, e.g. "og-image".
	ID string
	// Name is a human-readable label.
	Name string
	// Width is the default canvas width in pixels.
	Width int
	// Height is the default canvas height in pixels.
	Height int
	// AspectRatio is a display string, e.g. "1.91:1".
	AspectRatio string
	// DefaultModel is the model used when the request does not override it.
	DefaultModel string
	// PromptSuffix is appended to the base prompt during enhancement.
	PromptSuffix string
	// UseCase is a short human-readable description of the intended surface.
	UseCase string
}

// Registry is the read-only preset catalog.
type Registry struct {
	byID map[string]Preset
	all  []Preset
}

// NewRegistry builds a Registry from the given presets. Later entries with a
// duplicate ID overwrite earlier ones in the lookup map but all entries are
// retained in All's iteration order.
func NewRegistry(presets []Preset) *Registry {
	byID := make(map[string]Preset, len(presets))
	for _, p := range presets {
		byID[p.ID] = p
	}
	all := make([]Preset, len(presets))
	copy(all, presets)
	return &Registry{byID: byID, all: all}
}

// Default returns the built-in preset catalog.
func Default() *Registry {
	return NewRegistry([]Preset{
		{
			ID:           "og-image",
			Name:         "Open Graph image",
			Width:        1200,
			Height:       630,
			AspectRatio:  "1.91:1",
			DefaultModel: "reve-create",
			PromptSuffix: "social share card, clean composition, readable at small size",
			UseCase:      "Link preview card for social platforms",
		},
		{
			ID:           "youtube",
			Name:         "YouTube thumbnail",
			Width:        1280,
			Height:       720,
			AspectRatio:  "16:9",
			DefaultModel: "flux-2-pro",
			PromptSuffix: "bold thumbnail composition, high contrast, eye-catching",
			UseCase:      "Video thumbnail",
		},
		{
			ID:           "blog-hero",
			Name:         "Blog hero image",
			Width:        1600,
			Height:       900,
			AspectRatio:  "16:9",
			DefaultModel: "flux-2-pro",
			PromptSuffix: "editorial header image, wide composition",
			UseCase:      "Blog post header",
		},
		{
			ID:           "square-social",
			Name:         "Square social post",
			Width:        1080,
			Height:       1080,
			AspectRatio:  "1:1",
			DefaultModel: "reve-create",
			PromptSuffix: "square social media post, centered subject",
			UseCase:      "Instagram/LinkedIn post",
		},
		{
			ID:           "story",
			Name:         "Vertical story",
			Width:        1080,
			Height:       1920,
			AspectRatio:  "9:16",
			DefaultModel: "flux-2-pro",
			PromptSuffix: "vertical story format, full-bleed composition",
			UseCase:      "Instagram/TikTok story",
		},
	})
}

// Get returns the preset for id and whether it was found.
func (r *Registry) Get(id string) (Preset, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// All returns every preset in catalog order.
func (r *Registry) All() []Preset {
	out := make([]Preset, len(r.all))
	copy(out, r.all)
	return out
}

// ResolveDimensions returns overrideW/overrideH when given (non-nil),
// otherwise the preset's defaults. When preset is nil and no override is
// given for a dimension, that dimension is 0. Overrides are returned
// verbatim, including non-positive values; validating width/height > 0 is
// the caller's responsibility, performed before any remote call.
func ResolveDimensions(p *Preset, overrideW, overrideH *int) (int, int) {
	w, h := 0, 0
	if p != nil {
		w, h = p.Width, p.Height
	}
	if overrideW != nil {
		w = *overrideW
	}
	if overrideH != nil {
		h = *overrideH
	}
	return w, h
}
