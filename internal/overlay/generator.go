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

// Package overlay generates deterministic SVG "isotropic vector matrix"
// patterns and composites them over a base raster image.
package overlay

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
)

// Corner identifies one of the four canvas corners for badge placement.
type Corner string

const (
	CornerTopLeft     Corner = "top-left"
	CornerTopRight    Corner = "top-right"
	CornerBottomLeft  Corner = "bottom-left"
	CornerBottomRight Corner = "bottom-right"
)

// Badge is a small labeled rounded-rect placed at one canvas corner.
type Badge struct {
	Corner          Corner
	Text            string
	BackgroundColor string
	TextColor       string
	Padding         float64
}

// Options configures the pattern generator.
type Options struct {
	Width, Height int

	SideLength      float64
	RotationDeg     float64
	CornerMargin    float64
	Colors          []string
	LineWidth       float64
	Opacity         float64
	BlurAmount      float64
	BlurProbability float64
	Seed            uint32

	// Title, when non-empty, renders a translucent band with centered text.
	Title                 string
	TitleBottomOffset     float64 // fraction of height from the bottom; default 0.12
	TitleMaxWidthFraction float64 // fraction of canvas width; default 0.8

	Badges []Badge
}

const (
	defaultTitleBottomOffset     = 0.12
	defaultTitleMaxWidthFraction = 0.8
	badgeCharWidth               = 10
	badgeExtraWidth              = 24
)

// Generate renders the pattern described by opts as SVG text. Identical
// opts produce byte-identical output.
func Generate(opts Options) string {
	var b bytes.Buffer

	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		opts.Width, opts.Height, opts.Width, opts.Height)

	writeDefs(&b, opts)
	writeSegments(&b, opts)

	if opts.Title != "" {
		writeTitle(&b, opts)
	}
	for _, badge := range opts.Badges {
		writeBadge(&b, opts, badge)
	}

	b.WriteString(`</svg>`)
	return b.String()
}

func writeDefs(b *bytes.Buffer, opts Options) {
	if opts.BlurAmount <= 0 || opts.BlurProbability <= 0 {
		return
	}
	b.WriteString(`<defs><filter id="blur" x="-50%" y="-50%" width="200%" height="200%">`)
	fmt.Fprintf(b, `<feGaussianBlur stdDeviation="%s"/>`, fnum(opts.BlurAmount))
	b.WriteString(`</filter></defs>`)
}

func writeSegments(b *bytes.Buffer, opts Options) {
	segs := generateSegments(opts.Width, opts.Height, opts.SideLength)
	if len(segs) == 0 || len(opts.Colors) == 0 {
		return
	}

	center := point{float64(opts.Width) / 2, float64(opts.Height) / 2}
	diagonal := math.Sqrt(float64(opts.Width)*float64(opts.Width) + float64(opts.Height)*float64(opts.Height))
	marginDist := opts.CornerMargin * diagonal

	rng := newXorshift32(opts.Seed)

	b.WriteString(`<g>`)
	for _, seg := range segs {
		a := rotate(seg.A, center, opts.RotationDeg)
		bPt := rotate(seg.B, center, opts.RotationDeg)

		dA := nearestCornerDistance(a, opts.Width, opts.Height)
		dB := nearestCornerDistance(bPt, opts.Width, opts.Height)
		d := math.Min(dA, dB)

		blurred := opts.BlurProbability > 0 && rng.float64() < opts.BlurProbability

		if d > marginDist {
			continue
		}

		cornerOpacity := 1 - d/marginDist
		strokeOpacity := opts.Opacity * cornerOpacity
		color := opts.Colors[seg.Family%len(opts.Colors)]

		filterAttr := ""
		if blurred && opts.BlurAmount > 0 {
			filterAttr = ` filter="url(#blur)"`
		}

		fmt.Fprintf(b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s" stroke-opacity="%s"%s/>`,
			fnum(a.X), fnum(a.Y), fnum(bPt.X), fnum(bPt.Y),
			xmlEscape(color), fnum(opts.LineWidth), fnum(strokeOpacity), filterAttr)
	}
	b.WriteString(`</g>`)
}

func writeTitle(b *bytes.Buffer, opts Options) {
	bottomOffset := opts.TitleBottomOffset
	if bottomOffset <= 0 {
		bottomOffset = defaultTitleBottomOffset
	}
	maxWidthFraction := opts.TitleMaxWidthFraction
	if maxWidthFraction <= 0 {
		maxWidthFraction = defaultTitleMaxWidthFraction
	}

	bandHeight := float64(opts.Height) * 0.16
	bandY := float64(opts.Height)*(1-bottomOffset) - bandHeight/2
	textY := bandY + bandHeight*0.65
	textLength := float64(opts.Width) * maxWidthFraction

	fmt.Fprintf(b, `<rect x="0" y="%s" width="%d" height="%s" fill="#000000" fill-opacity="0.45"/>`,
		fnum(bandY), opts.Width, fnum(bandHeight))
	fmt.Fprintf(b, `<text x="%s" y="%s" text-anchor="middle" textLength="%s" lengthAdjust="spacing" fill="#ffffff">%s</text>`,
		fnum(float64(opts.Width)/2), fnum(textY), fnum(textLength), xmlEscape(opts.Title))
}

func writeBadge(b *bytes.Buffer, opts Options, badge Badge) {
	padding := badge.Padding
	if padding <= 0 {
		padding = 8
	}
	textWidth := float64(len(badge.Text)) * badgeCharWidth
	boxWidth := textWidth + badgeExtraWidth
	boxHeight := 24.0 + padding

	var x, y float64
	switch badge.Corner {
	case CornerTopLeft:
		x, y = padding, padding
	case CornerTopRight:
		x, y = float64(opts.Width)-boxWidth-padding, padding
	case CornerBottomLeft:
		x, y = padding, float64(opts.Height)-boxHeight-padding
	case CornerBottomRight:
		x, y = float64(opts.Width)-boxWidth-padding, float64(opts.Height)-boxHeight-padding
	}

	bg := badge.BackgroundColor
	if bg == "" {
		bg = "#000000"
	}
	fg := badge.TextColor
	if fg == "" {
		fg = "#ffffff"
	}

	fmt.Fprintf(b, `<rect x="%s" y="%s" width="%s" height="%s" rx="6" ry="6" fill="%s"/>`,
		fnum(x), fnum(y), fnum(boxWidth), fnum(boxHeight), xmlEscape(bg))
	fmt.Fprintf(b, `<text x="%s" y="%s" text-anchor="middle" fill="%s">%s</text>`,
		fnum(x+boxWidth/2), fnum(y+boxHeight/2+5), xmlEscape(fg), xmlEscape(badge.Text))
}

// fnum formats a float deterministically with exactly three decimal places
// (trailing zeros are kept), so output is stable across runs.
func fnum(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
