// Copyright (C) 2021 The ionospheric-correction authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package preview renders phase rasters to colour images for a quick look
// at seam residuals.
package preview

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/evavra/ionospheric-correction/internal/stats"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/tiff"
	"gonum.org/v1/gonum/mat"
)

// Colour mapping modes
const (
	ModeWrap   = "wrap"   // cyclic hue over a period, for rewrapped phase
	ModeLinear = "linear" // two-colour blend between robust min and max
)

// Options for rendering a preview
type Options struct {
	Mode     string  // ModeWrap or ModeLinear
	Period   float64 // Wrap period, 2π if zero
	MaxWidth int     // Downsample wider images, 0 for no limit
	Quality  int     // JPEG quality
}

// DefaultOptions returns wrapped-phase previews at most 2048 pixels wide
func DefaultOptions() Options {
	return Options{Mode: ModeWrap, Period: 2 * math.Pi, MaxWidth: 2048, Quality: 95}
}

// Endpoints of the linear colour ramp
var (
	linearLow  = colorful.Hcl(260, 0.6, 0.3)
	linearHigh = colorful.Hcl(60, 0.8, 0.9)
)

// Percentiles clipped for the linear colour ramp
const robustClip = 0.02

// Write renders z and writes it to the given file. The format follows from
// the file suffix: .jpg, .jpeg, .png, .tif or .tiff.
func Write(fileName string, z mat.Matrix, o Options) error {
	format := strings.ToLower(filepath.Ext(fileName))
	switch format {
	case ".jpg", ".jpeg", ".png", ".tif", ".tiff":
	default:
		return fmt.Errorf("unknown preview format %q", format)
	}

	img := Render(z, o)

	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := Encode(writer, img, format, o.Quality); err != nil {
		return err
	}
	return writer.Flush()
}

// Encode writes an image in the format named by a file suffix
func Encode(writer io.Writer, img image.Image, format string, quality int) error {
	switch strings.ToLower(format) {
	case ".jpg", ".jpeg":
		if quality <= 0 {
			quality = 95
		}
		return imaging.Encode(writer, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case ".png":
		return imaging.Encode(writer, img, imaging.PNG)
	case ".tif", ".tiff":
		return tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	}
	return fmt.Errorf("unknown preview format %q", format)
}

// Render maps z to colours, one pixel per cell, row 0 at the top.
// Missing values are black.
func Render(z mat.Matrix, o Options) image.Image {
	rows, cols := z.Dims()
	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))

	var mapColor func(v float64) colorful.Color
	if o.Mode == ModeLinear {
		lo, hi := robustRange(z)
		scale := 1.0
		if hi > lo {
			scale = 1 / (hi - lo)
		}
		mapColor = func(v float64) colorful.Color {
			t := math.Min(math.Max((v-lo)*scale, 0), 1)
			return linearLow.BlendHcl(linearHigh, t).Clamped()
		}
	} else {
		period := o.Period
		if !(period > 0) {
			period = 2 * math.Pi
		}
		mapColor = func(v float64) colorful.Color {
			frac := math.Mod(v, period) / period
			if frac < 0 {
				frac += 1
			}
			return colorful.Hsv(frac*360, 0.85, 0.95)
		}
	}

	black := color.NRGBA{0, 0, 0, 255}
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := z.At(y, x)
			// NaNs would break the colour conversion
			if math.IsNaN(v) || math.IsInf(v, 0) {
				img.SetNRGBA(x, y, black)
				continue
			}
			r, g, b := mapColor(v).RGB255()
			img.SetNRGBA(x, y, color.NRGBA{r, g, b, 255})
		}
	}

	if o.MaxWidth > 0 && cols > o.MaxWidth {
		return imaging.Resize(img, o.MaxWidth, 0, imaging.Lanczos)
	}
	return img
}

// robustRange returns the 2nd and 98th percentile of the finite values of z
func robustRange(z mat.Matrix) (lo, hi float64) {
	rows, cols := z.Dims()
	valid := make([]float64, 0, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if v := z.At(y, x); !math.IsNaN(v) && !math.IsInf(v, 0) {
				valid = append(valid, v)
			}
		}
	}
	n := len(valid)
	if n == 0 {
		return 0, 1
	}
	loK := 1 + int(robustClip*float64(n-1))
	hiK := 1 + int((1-robustClip)*float64(n-1))
	lo = stats.QSelect(valid, loK)
	hi = stats.QSelect(valid, hiK)
	return lo, hi
}
