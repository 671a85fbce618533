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

// Package grid loads and saves geocoded rasters in the GMT-compatible netCDF
// layout: two 1-D coordinate variables and one 2-D value variable z(y,x).
package grid

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNotFound is returned when the grid file does not exist
	ErrNotFound = errors.New("grid file not found")
	// ErrFormat is returned when the file is not a recognizable grid
	ErrFormat = errors.New("unrecognized grid format")
)

// A geocoded raster. Z has one row per Y coordinate and one column per X
// coordinate. NaN marks missing values.
type Raster struct {
	FileName string // Original file name, if any, for log output

	X []float64  // Coordinates along columns (range, or longitude)
	Y []float64  // Coordinates along rows (azimuth, or latitude)
	Z *mat.Dense // Values, rows x columns

	XName string // Coordinate variable names, "x"/"y" or "lon"/"lat"
	YName string
	ZName string

	Float32 bool   // Store values as 32-bit floats on save
	Title   string // Global title attribute, carried through on save
	Units   string // Units of the value variable, if known
}

// NewRaster creates a raster from coordinates and values. Values are not copied.
func NewRaster(x, y []float64, z *mat.Dense) (*Raster, error) {
	if z == nil {
		return nil, fmt.Errorf("%w: no values", ErrFormat)
	}
	rows, cols := z.Dims()
	if len(x) != cols || len(y) != rows {
		return nil, fmt.Errorf("%w: %d x coordinates and %d y coordinates for %dx%d values",
			ErrFormat, len(x), len(y), cols, rows)
	}
	return &Raster{
		X: x, Y: y, Z: z,
		XName: "x", YName: "y", ZName: "z",
		Float32: true,
	}, nil
}

// Dims returns the number of rows and columns
func (r *Raster) Dims() (rows, cols int) { return r.Z.Dims() }

func (r *Raster) DimensionsToString() string {
	rows, cols := r.Dims()
	return fmt.Sprintf("%dx%d", cols, rows)
}

// Clone returns a deep copy of the raster
func (r *Raster) Clone() *Raster {
	c := *r
	c.X = append([]float64(nil), r.X...)
	c.Y = append([]float64(nil), r.Y...)
	c.Z = mat.DenseCopyOf(r.Z)
	return &c
}

// WithValues returns a shallow copy of the raster carrying the given values.
// The values must have the same shape.
func (r *Raster) WithValues(z *mat.Dense) *Raster {
	c := *r
	c.Z = z
	return &c
}

// ActualRange returns the minimum and maximum of the non-NaN values in xs.
// Both are NaN if there are none.
func ActualRange(xs []float64) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	valid := false
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		valid = true
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	if !valid {
		return math.NaN(), math.NaN()
	}
	return min, max
}

// Increment returns the smallest absolute spacing between consecutive
// coordinates, or 0 for fewer than two coordinates
func Increment(coords []float64) float64 {
	if len(coords) < 2 {
		return 0
	}
	diffs := make([]float64, len(coords)-1)
	for i := range diffs {
		diffs[i] = math.Abs(coords[i+1] - coords[i])
	}
	return floats.Min(diffs)
}

// valuesActualRange scans the raster values row by row
func valuesActualRange(z *mat.Dense) (min, max float64) {
	rows, _ := z.Dims()
	min, max = math.NaN(), math.NaN()
	for i := 0; i < rows; i++ {
		rmin, rmax := ActualRange(z.RawRowView(i))
		if math.IsNaN(rmin) {
			continue
		}
		if math.IsNaN(min) || rmin < min {
			min = rmin
		}
		if math.IsNaN(max) || rmax > max {
			max = rmax
		}
	}
	return min, max
}
