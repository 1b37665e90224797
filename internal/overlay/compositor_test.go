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
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCompositeProducesTargetDimensions(t *testing.T) {
	base := solidPNG(t, 400, 200, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	svg := Generate(baseOptions())

	out, err := Composite(base, svg, 200, 200, FormatPNG)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, 200, img.Bounds().Dx())
	require.Equal(t, 200, img.Bounds().Dy())
}

func TestCompositeWebPFormat(t *testing.T) {
	base := solidPNG(t, 100, 100, color.RGBA{R: 255, A: 255})
	svg := Generate(baseOptions())

	out, err := Composite(base, svg, 100, 100, FormatWebP)
	require.NoError(t, err)
	require.NotEmpty(t, out)
}

func TestCompositeRejectsUnknownFormat(t *testing.T) {
	base := solidPNG(t, 10, 10, color.RGBA{A: 255})
	_, err := Composite(base, Generate(baseOptions()), 10, 10, Format("bmp"))
	require.Error(t, err)
}

func TestCompositeInvalidBaseImageFails(t *testing.T) {
	_, err := Composite([]byte("not an image"), Generate(baseOptions()), 10, 10, FormatPNG)
	require.Error(t, err)
}
