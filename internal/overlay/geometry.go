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

package overlay

import "math"

type point struct {
	X, Y float64
}

type segment struct {
	A, B   point
	Family int
}

// generateSegments lays out three families of parallel segments forming an
// equilateral triangulation over a rectangle extending 50% beyond the
// canvas on every side, with side length sideLength.
func generateSegments(w, h int, sideLength float64) []segment {
	if sideLength <= 0 {
		return nil
	}

	width, height := float64(w), float64(h)
	xMin, xMax := -0.5*width, 1.5*width
	yMin, yMax := -0.5*height, 1.5*height

	rowSpacing := sideLength * math.Sqrt(3) / 2
	var segs []segment

	row := 0
	for y := yMin; y <= yMax; y += rowSpacing {
		offset := 0.0
		if row%2 == 1 {
			offset = sideLength / 2
		}

		for x := xMin + offset; x < xMax; x += sideLength {
			segs = append(segs, segment{A: point{x, y}, B: point{x + sideLength, y}, Family: 0})
			segs = append(segs, segment{A: point{x, y}, B: point{x + sideLength/2, y + rowSpacing}, Family: 1})
			segs = append(segs, segment{A: point{x, y}, B: point{x - sideLength/2, y + rowSpacing}, Family: 2})
		}
		row++
	}

	return segs
}

// rotate rotates p by degrees around center.
func rotate(p, center point, degrees float64) point {
	if degrees == 0 {
		return p
	}
	rad := degrees * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	dx, dy := p.X-center.X, p.Y-center.Y
	return point{
		X: center.X + dx*cos - dy*sin,
		Y: center.Y + dx*sin + dy*cos,
	}
}

func distance(a, b point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// nearestCornerDistance returns the minimum distance from p to any of the
// four canvas corners.
func nearestCornerDistance(p point, w, h int) float64 {
	corners := [4]point{{0, 0}, {float64(w), 0}, {0, float64(h)}, {float64(w), float64(h)}}
	min := distance(p, corners[0])
	for _, c := range corners[1:] {
		if d := distance(p, c); d < min {
			min = d
		}
	}
	return min
}
