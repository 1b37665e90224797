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
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // register JPEG decoding for image.Decode
	"image/png"
	"strings"

	"github.com/chai2010/webp"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
)

// Format is the compositor's output encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

const webpQuality = 90

// Composite rasterizes overlaySVG at (width, height), resizes baseImage to
// cover that canvas, alpha-composites the overlay on top, and encodes the
// result in format.
func Composite(baseImage []byte, overlaySVG string, width, height int, format Format) ([]byte, error) {
	base, _, err := image.Decode(bytes.NewReader(baseImage))
	if err != nil {
		return nil, fmt.Errorf("decoding base image: %w", err)
	}

	overlayImg, err := rasterizeSVG(overlaySVG, width, height)
	if err != nil {
		return nil, fmt.Errorf("rasterizing overlay: %w", err)
	}

	resized := coverFitResize(base, width, height)

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), resized, image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), overlayImg, image.Point{}, draw.Over)

	return encode(canvas, format)
}

func rasterizeSVG(svg string, width, height int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(strings.NewReader(svg))
	if err != nil {
		return nil, err
	}
	icon.SetTarget(0, 0, float64(width), float64(height))

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	raster := rasterx.NewDasher(width, height, scanner)
	icon.Draw(raster, 1.0)

	return img, nil
}

// coverFitResize resizes src to fill (width, height), preserving aspect
// ratio and cropping whatever overflows, rather than letterboxing.
func coverFitResize(src image.Image, width, height int) image.Image {
	sb := src.Bounds()
	srcW, srcH := float64(sb.Dx()), float64(sb.Dy())
	dstW, dstH := float64(width), float64(height)

	scale := srcW / srcH
	targetScale := dstW / dstH

	var scaledW, scaledH int
	if scale > targetScale {
		scaledH = height
		scaledW = int(dstH * scale)
	} else {
		scaledW = width
		scaledH = int(dstW / scale)
	}

	scaled := image.NewRGBA(image.Rect(0, 0, scaledW, scaledH))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), src, sb, xdraw.Over, nil)

	offsetX := (scaledW - width) / 2
	offsetY := (scaledH - height) / 2

	cropped := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(cropped, cropped.Bounds(), scaled, image.Point{X: offsetX, Y: offsetY}, draw.Src)
	return cropped
}

func encode(img image.Image, format Format) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatWebP:
		if err := webp.Encode(&buf, img, &webp.Options{Quality: webpQuality}); err != nil {
			return nil, fmt.Errorf("encoding webp: %w", err)
		}
	case FormatPNG, "":
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encoding png: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return buf.Bytes(), nil
}
