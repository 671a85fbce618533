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

// Package seam removes phase offsets between independently unwrapped
// subswaths of a mosaicked interferogram, and masks residual outliers.
//
// Seams are processed left to right on a single working buffer. Each seam's
// offset is estimated from the already corrected columns to its left and the
// not yet corrected columns to its right, then subtracted from the whole
// subswath to its right. Offsets therefore accumulate across seams without a
// separate cumulative sum. The leftmost subswath is the reference and is never
// shifted.
package seam

import (
	"errors"
	"fmt"
	"math"

	"github.com/evavra/ionospheric-correction/internal/grid"
	"github.com/evavra/ionospheric-correction/internal/stats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrMissingInput is returned when a required input file does not exist
	ErrMissingInput = errors.New("missing input")
	// ErrContract is returned for invalid seam lists or parameters
	ErrContract = errors.New("invalid input")
)

// Correction parameters
type Params struct {
	Width   int     `json:"seamWidth" yaml:"seamWidth"` // Columns sampled on each side of a seam
	DispMax float64 `json:"dispMax"   yaml:"dispMax"`   // Max deviation from the global median before a pixel is discarded
}

// The offset estimated at one seam
type Offset struct {
	Index  int     `json:"index"`  // Seam number, 0-based
	Seam   int     `json:"seam"`   // Seam column, 0-based
	Start  int     `json:"start"`  // First column of the shifted block
	End    int     `json:"end"`    // One past the last column of the shifted block
	Left   float64 `json:"left"`   // Median of the window left of the seam
	Right  float64 `json:"right"`  // Median of the window right of the seam
	Offset float64 `json:"offset"` // Left - Right; subtracted from the block
}

// Outcome of a correction
type Result struct {
	Offsets      []Offset `json:"offsets"`
	GlobalMedian float64  `json:"globalMedian"`
	Masked       int      `json:"masked"` // Number of pixels set to NaN by the outlier mask
}

// Total returns the accumulated shift applied to the subswath right of seam i
func (r *Result) Total(i int) float64 {
	sum := 0.0
	for _, o := range r.Offsets[:i+1] {
		sum += o.Offset
	}
	return sum
}

// Validate checks parameters and seam positions against a raster with the
// given number of columns. Every sampling window must lie inside the raster
// and inside the two subswaths adjacent to its seam.
func Validate(cols int, seams []int, p Params) error {
	if p.Width <= 0 {
		return fmt.Errorf("%w: seam width %d must be positive", ErrContract, p.Width)
	}
	if !(p.DispMax > 0) || math.IsInf(p.DispMax, 1) {
		return fmt.Errorf("%w: displacement threshold %g must be positive and finite", ErrContract, p.DispMax)
	}
	if len(seams) == 0 {
		return fmt.Errorf("%w: empty seam list", ErrContract)
	}
	for i, s := range seams {
		if i > 0 && s <= seams[i-1] {
			return fmt.Errorf("%w: seams not strictly increasing at position %d (%d after %d)",
				ErrContract, i+1, s+1, seams[i-1]+1)
		}
		if s < p.Width || s >= cols-p.Width {
			return fmt.Errorf("%w: seam %d at column %d leaves no room for a %d column window in %d columns",
				ErrContract, i+1, s+1, p.Width, cols)
		}
		if i > 0 && s-seams[i-1] < p.Width {
			return fmt.Errorf("%w: subswath between seams %d and %d is %d columns wide, narrower than seam width %d",
				ErrContract, i, i+1, s-seams[i-1], p.Width)
		}
	}
	return nil
}

// Correct removes seam offsets from z in place and masks outliers.
// z is owned exclusively by Correct for the duration of the call. On a
// validation error z is not modified. obs may be nil.
func Correct(z *mat.Dense, seams []int, p Params, obs Observer) (*Result, error) {
	if z == nil || z.IsEmpty() {
		return nil, fmt.Errorf("%w: empty raster", ErrContract)
	}
	rows, cols := z.Dims()
	if err := Validate(cols, seams, p); err != nil {
		return nil, err
	}
	if obs == nil {
		obs = nopObserver{}
	}

	res := &Result{Offsets: make([]Offset, 0, len(seams))}
	window := make([]float64, 0, rows*p.Width)
	for i := range seams {
		o := correctSeam(z, seams, i, p.Width, window)
		res.Offsets = append(res.Offsets, o)
		obs.SeamCorrected(o)
	}

	res.GlobalMedian, res.Masked = MaskOutliers(z, p.DispMax)
	obs.Masked(res.GlobalMedian, res.Masked)
	return res, nil
}

// Apply corrects a copy of the raster values. The input raster is unchanged.
func Apply(r *grid.Raster, seams []int, p Params, obs Observer) (*grid.Raster, *Result, error) {
	z := mat.DenseCopyOf(r.Z)
	res, err := Correct(z, seams, p, obs)
	if err != nil {
		return nil, nil, err
	}
	return r.WithValues(z), res, nil
}

// One step of the left-to-right fold: estimate the offset at seam i from
// the current state of z, and shift the block right of it
func correctSeam(z *mat.Dense, seams []int, i, width int, window []float64) Offset {
	_, cols := z.Dims()
	s := seams[i]
	end := cols
	if i+1 < len(seams) {
		end = seams[i+1]
	}

	left := stats.MedianInPlace(gatherColumns(window[:0], z, s-width, s))
	right := stats.MedianInPlace(gatherColumns(window[:0], z, s, s+width))
	o := Offset{Index: i, Seam: s, Start: s, End: end, Left: left, Right: right, Offset: left - right}

	shiftColumns(z, s, end, o.Offset)
	return o
}

// Appends all values in columns [from,to) of z to buf
func gatherColumns(buf []float64, z *mat.Dense, from, to int) []float64 {
	rows, _ := z.Dims()
	for r := 0; r < rows; r++ {
		buf = append(buf, z.RawRowView(r)[from:to]...)
	}
	return buf
}

// Subtracts offset from columns [from,to) of z. NaN cells stay NaN. A NaN
// offset turns the whole block into NaN.
func shiftColumns(z *mat.Dense, from, to int, offset float64) {
	rows, _ := z.Dims()
	for r := 0; r < rows; r++ {
		row := z.RawRowView(r)[from:to]
		for c := range row {
			row[c] -= offset
		}
	}
}

// MaskOutliers sets every value deviating from the global median of z by
// more than dispMax to NaN. Returns the median and the number of values masked.
func MaskOutliers(z *mat.Dense, dispMax float64) (median float64, masked int) {
	rows, cols := z.Dims()
	scratch := make([]float64, 0, rows*cols)
	for r := 0; r < rows; r++ {
		scratch = append(scratch, z.RawRowView(r)...)
	}
	median = stats.MedianInPlace(scratch)
	if math.IsNaN(median) {
		return median, 0
	}

	for r := 0; r < rows; r++ {
		row := z.RawRowView(r)
		for c, v := range row {
			if math.Abs(v-median) > dispMax {
				row[c] = math.NaN()
				masked++
			}
		}
	}
	return median, masked
}
