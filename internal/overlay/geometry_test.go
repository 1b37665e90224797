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

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSegmentsNonEmpty(t *testing.T) {
	segs := generateSegments(1200, 630, 80)
	assert.NotEmpty(t, segs)

	families := map[int]bool{}
	for _, s := range segs {
		families[s.Family] = true
	}
	assert.Len(t, families, 3)
}

func TestGenerateSegmentsZeroSideLength(t *testing.T) {
	assert.Nil(t, generateSegments(1200, 630, 0))
}

func TestRotateZeroDegreesIsIdentity(t *testing.T) {
	p := point{10, 20}
	center := point{5, 5}
	assert.Equal(t, p, rotate(p, center, 0))
}

func TestRotate90DegreesAroundOrigin(t *testing.T) {
	p := point{1, 0}
	got := rotate(p, point{0, 0}, 90)
	assert.InDelta(t, 0, got.X, 1e-9)
	assert.InDelta(t, 1, got.Y, 1e-9)
}

func TestNearestCornerDistance(t *testing.T) {
	d := nearestCornerDistance(point{0, 0}, 100, 100)
	assert.Equal(t, 0.0, d)

	d2 := nearestCornerDistance(point{50, 50}, 100, 100)
	assert.InDelta(t, math.Sqrt(50*50+50*50), d2, 1e-9)
}
