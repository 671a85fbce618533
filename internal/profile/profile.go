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

// Package profile plots per-column median phase across range, before and
// after seam correction.
package profile

import (
	"fmt"
	"image/color"
	"math"

	"github.com/evavra/ionospheric-correction/internal/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	beforeColor = color.RGBA{R: 200, G: 60, B: 40, A: 255}
	afterColor  = color.RGBA{R: 30, G: 90, B: 200, A: 255}
	seamColor   = color.RGBA{R: 90, G: 90, B: 90, A: 255}
)

// Write plots the column medians of before and after into an image file,
// with a dashed marker at each seam. Either raster may be nil. The format
// follows from the file suffix, e.g. .png, .svg or .pdf.
func Write(fileName string, before, after mat.Matrix, seams []int) error {
	p := plot.New()
	p.Title.Text = "Range profile"
	p.X.Label.Text = "Column"
	p.Y.Label.Text = "Median phase"

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, series := range []struct {
		label string
		z     mat.Matrix
		color color.Color
	}{
		{"before", before, beforeColor},
		{"after", after, afterColor},
	} {
		if series.z == nil {
			continue
		}
		pts := Points(stats.ColumnMedians(series.z))
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = series.color
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(series.label, line)

		for _, pt := range pts {
			lo, hi = math.Min(lo, pt.Y), math.Max(hi, pt.Y)
		}
	}
	if lo > hi {
		lo, hi = 0, 1
	}

	for _, s := range seams {
		x := float64(s) - 0.5
		marker, err := plotter.NewLine(plotter.XYs{{X: x, Y: lo}, {X: x, Y: hi}})
		if err != nil {
			return err
		}
		marker.Color = seamColor
		marker.Width = vg.Points(0.5)
		marker.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(marker)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 5*vg.Inch, fileName); err != nil {
		return fmt.Errorf("error saving profile %s: %w", fileName, err)
	}
	return nil
}

// Points turns column medians into plot points, skipping columns without
// valid data
func Points(medians []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(medians))
	for c, m := range medians {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(c), Y: m})
	}
	return pts
}

// Jumps returns the step in column median across each seam, comparing the
// last column left of the seam with the first column right of it. NaN where
// either column has no valid data.
func Jumps(z mat.Matrix, seams []int) []float64 {
	medians := stats.ColumnMedians(z)
	res := make([]float64, len(seams))
	for i, s := range seams {
		if s < 1 || s >= len(medians) {
			res[i] = math.NaN()
			continue
		}
		res[i] = medians[s] - medians[s-1]
	}
	return res
}

// MaxJump returns the largest absolute jump across the seams, ignoring NaN
func MaxJump(z mat.Matrix, seams []int) float64 {
	jumps := Jumps(z, seams)
	abs := make([]float64, 0, len(jumps))
	for _, j := range jumps {
		if !math.IsNaN(j) {
			abs = append(abs, math.Abs(j))
		}
	}
	if len(abs) == 0 {
		return math.NaN()
	}
	return floats.Max(abs)
}
