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

// Package enhancer combines a user prompt, a preset's prompt suffix, and
// brand guidelines into a single prompt to send to an image provider.
package enhancer

import (
	"strings"

	"github.com/altairalabs/thumbnailpipe/pkg/preset"
)

// BrandGuidelines configures how enhance folds brand context into a prompt.
// Once set it is read-only; mutating it concurrently with calls to Enhance
// is racy and should only be done at startup.
type BrandGuidelines struct {
	// ColorPalette is an ordered list of human-readable palette entries,
	// e.g. "deep blue (#0066cc)".
	ColorPalette []string
	// StyleKeywords is an ordered list of style descriptors.
	StyleKeywords []string
	// AvoidKeywords is an ordered list of terms the provider should avoid.
	AvoidKeywords []string
}

// Enhance deterministically folds basePrompt, the preset's suffix (if any),
// and brand into a single enhanced prompt. It is a pure function: the same
// inputs always produce the same output. Calling Enhance on its own output
// appends another copy of the suffix/brand segments, so callers must
// enhance a given prompt at most once.
func Enhance(basePrompt string, p *preset.Preset, brand BrandGuidelines) string {
	segments := []string{basePrompt}

	if p != nil && p.PromptSuffix != "" {
		segments = append(segments, p.PromptSuffix)
	}

	if len(brand.StyleKeywords) > 0 {
		segments = append(segments, "Style: "+strings.Join(firstN(brand.StyleKeywords, 3), ", "))
	}

	if len(brand.ColorPalette) > 0 {
		segments = append(segments, "Color palette: "+strings.Join(firstN(brand.ColorPalette, 2), " and "))
	}

	if len(brand.AvoidKeywords) > 0 {
		segments = append(segments, "Avoid: "+strings.Join(firstN(brand.AvoidKeywords, 2), ", "))
	}

	return strings.Join(segments, ". ")
}

// firstN returns the first n elements of s, or all of s if shorter than n.
func firstN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
