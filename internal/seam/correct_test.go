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

package seam

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/evavra/ionospheric-correction/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// Builds a rows x cols raster whose subswaths hold constant values.
// Subswath k spans [bounds[k], bounds[k+1]) with bounds framed by 0 and cols.
func blocks(rows, cols int, seams []int, values ...float64) *mat.Dense {
	z := mat.NewDense(rows, cols, nil)
	bounds := append(append([]int{0}, seams...), cols)
	for k := 0; k+1 < len(bounds); k++ {
		for r := 0; r < rows; r++ {
			for c := bounds[k]; c < bounds[k+1]; c++ {
				z.Set(r, c, values[k])
			}
		}
	}
	return z
}

const noMask = 1e9

type recorder struct {
	offsets []Offset
	median  float64
	masked  int
	calls   int
}

func (r *recorder) SeamCorrected(o Offset) { r.offsets = append(r.offsets, o) }
func (r *recorder) Masked(m float64, n int) {
	r.median, r.masked = m, n
	r.calls++
}

func TestSingleSeamConstantBlocks(t *testing.T) {
	const L, R = 3.0, 1.0
	z := blocks(4, 10, []int{4}, L, R)

	res, err := Correct(z, []int{4}, Params{Width: 2, DispMax: noMask}, nil)
	require.NoError(t, err)
	require.Len(t, res.Offsets, 1)
	assert.Equal(t, L-R, res.Offsets[0].Offset)
	assert.Equal(t, L, res.Offsets[0].Left)
	assert.Equal(t, R, res.Offsets[0].Right)

	for r := 0; r < 4; r++ {
		for c := 0; c < 10; c++ {
			want := L
			if c >= 4 {
				want = 2*R - L
			}
			assert.Equal(t, want, z.At(r, c), "cell %d,%d", r, c)
		}
	}
}

func TestOffsetsAccumulateLeftToRight(t *testing.T) {
	const a, b, c = 1.0, 4.0, -2.0
	seams := []int{3, 7}
	z := blocks(3, 12, seams, a, b, c)

	rec := &recorder{}
	res, err := Correct(z, seams, Params{Width: 2, DispMax: noMask}, rec)
	require.NoError(t, err)

	// second seam samples the already shifted middle block on its left
	middle := b - (a - b)
	last := c - (middle - c)
	assert.Equal(t, a-b, res.Offsets[0].Offset)
	assert.Equal(t, middle, res.Offsets[1].Left)
	assert.Equal(t, c, res.Offsets[1].Right)
	assert.Equal(t, middle-c, res.Offsets[1].Offset)
	assert.Equal(t, (a-b)+(middle-c), res.Total(1))

	assert.Equal(t, a, z.At(0, 2))
	assert.Equal(t, middle, z.At(1, 3))
	assert.Equal(t, middle, z.At(1, 6))
	assert.Equal(t, last, z.At(2, 7))
	assert.Equal(t, last, z.At(2, 11))

	assert.Len(t, rec.offsets, 2)
	assert.Equal(t, 3, rec.offsets[0].Start)
	assert.Equal(t, 7, rec.offsets[0].End)
	assert.Equal(t, 7, rec.offsets[1].Start)
	assert.Equal(t, 12, rec.offsets[1].End)
	assert.Equal(t, 1, rec.calls)
}

func TestReferenceSubswathUnchanged(t *testing.T) {
	rows, cols := 5, 9
	z := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			z.Set(r, c, float64(r*cols+c)*0.37-4)
		}
	}
	orig := mat.DenseCopyOf(z)

	_, err := Correct(z, []int{4}, Params{Width: 3, DispMax: noMask}, nil)
	require.NoError(t, err)
	for r := 0; r < rows; r++ {
		for c := 0; c < 4; c++ {
			assert.Equal(t, orig.At(r, c), z.At(r, c), "cell %d,%d", r, c)
		}
	}
}

func TestSeamlessRasterIsFixedPoint(t *testing.T) {
	// values vary along azimuth only, so windows on both sides of every seam agree
	rows, cols := 6, 15
	z := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			z.Set(r, c, math.Sin(float64(r)))
		}
	}
	orig := mat.DenseCopyOf(z)

	res, err := Correct(z, []int{5, 10}, Params{Width: 3, DispMax: noMask}, nil)
	require.NoError(t, err)
	for _, o := range res.Offsets {
		assert.InDelta(t, 0, o.Offset, 1e-12)
	}
	assert.True(t, mat.EqualApprox(orig, z, 1e-12))
	assert.Equal(t, 0, res.Masked)
}

func TestShapePreserved(t *testing.T) {
	z := blocks(7, 20, []int{8}, 1, 2)
	r, err := grid.NewRaster(make([]float64, 20), make([]float64, 7), z)
	require.NoError(t, err)

	out, _, err := Apply(r, []int{8}, Params{Width: 4, DispMax: 10}, nil)
	require.NoError(t, err)
	rows, cols := out.Dims()
	assert.Equal(t, 7, rows)
	assert.Equal(t, 20, cols)
	assert.Equal(t, r.X, out.X)
	assert.Equal(t, r.Y, out.Y)
}

func TestApplyLeavesInputUntouched(t *testing.T) {
	z := blocks(2, 10, []int{5}, 5, 1)
	r, err := grid.NewRaster(make([]float64, 10), make([]float64, 2), z)
	require.NoError(t, err)

	out, _, err := Apply(r, []int{5}, Params{Width: 2, DispMax: noMask}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, r.Z.At(0, 7))
	assert.Equal(t, -3.0, out.Z.At(0, 7))
}

func TestOutlierMask(t *testing.T) {
	const dispMax = 0.5
	z := blocks(4, 10, []int{5}, 0, 0)
	z.Set(2, 8, 2*dispMax)

	rec := &recorder{}
	res, err := Correct(z, []int{5}, Params{Width: 2, DispMax: dispMax}, rec)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.GlobalMedian)
	assert.Equal(t, 1, res.Masked)
	assert.Equal(t, 1, rec.masked)

	for r := 0; r < 4; r++ {
		for c := 0; c < 10; c++ {
			if r == 2 && c == 8 {
				assert.True(t, math.IsNaN(z.At(r, c)))
				continue
			}
			assert.Equal(t, 0.0, z.At(r, c), "cell %d,%d", r, c)
		}
	}
}

func TestOutlierMaskThresholdIsExclusive(t *testing.T) {
	z := mat.NewDense(1, 5, []float64{0, 0, 0, 1, -1})
	median, masked := MaskOutliers(z, 1)
	assert.Equal(t, 0.0, median)
	assert.Equal(t, 0, masked)
}

func TestMissingValuesExcludedFromOffset(t *testing.T) {
	nan := math.NaN()
	z := blocks(4, 8, []int{4}, 2, 1)
	z.Set(0, 3, nan)
	z.Set(1, 2, 100)
	z.Set(0, 5, nan)

	res, err := Correct(z, []int{4}, Params{Width: 2, DispMax: noMask}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Offsets[0].Offset)
	assert.True(t, math.IsNaN(z.At(0, 5)), "missing cells stay missing")
	assert.True(t, math.IsNaN(z.At(0, 3)))
	assert.Equal(t, 0.0, z.At(1, 6))
}

func TestAllMissingWindowPropagates(t *testing.T) {
	nan := math.NaN()
	z := blocks(3, 10, []int{4}, 1, 2)
	for r := 0; r < 3; r++ {
		z.Set(r, 2, nan)
		z.Set(r, 3, nan)
	}

	rec := &recorder{}
	res, err := Correct(z, []int{4}, Params{Width: 2, DispMax: noMask}, rec)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(res.Offsets[0].Left))
	assert.True(t, math.IsNaN(res.Offsets[0].Offset))
	require.Len(t, rec.offsets, 1)
	assert.True(t, math.IsNaN(rec.offsets[0].Offset))

	for r := 0; r < 3; r++ {
		for c := 4; c < 10; c++ {
			assert.True(t, math.IsNaN(z.At(r, c)), "cell %d,%d", r, c)
		}
		assert.Equal(t, 1.0, z.At(r, 0))
	}
	assert.Equal(t, 1.0, res.GlobalMedian)
}

func TestAllMissingRaster(t *testing.T) {
	nan := math.NaN()
	z := blocks(2, 6, []int{3}, nan, nan)
	res, err := Correct(z, []int{3}, Params{Width: 1, DispMax: 1}, nil)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(res.GlobalMedian))
	assert.Equal(t, 0, res.Masked)
}

func TestValidation(t *testing.T) {
	good := Params{Width: 2, DispMax: 1}
	cases := []struct {
		name  string
		seams []int
		p     Params
	}{
		{"empty", nil, good},
		{"decreasing", []int{6, 3}, good},
		{"duplicate", []int{4, 4}, good},
		{"too close to left edge", []int{1}, good},
		{"too close to right edge", []int{8}, good},
		{"subswath narrower than width", []int{3, 4}, good},
		{"zero width", []int{4}, Params{Width: 0, DispMax: 1}},
		{"negative width", []int{4}, Params{Width: -1, DispMax: 1}},
		{"zero threshold", []int{4}, Params{Width: 2, DispMax: 0}},
		{"negative threshold", []int{4}, Params{Width: 2, DispMax: -1}},
		{"NaN threshold", []int{4}, Params{Width: 2, DispMax: math.NaN()}},
		{"infinite threshold", []int{4}, Params{Width: 2, DispMax: math.Inf(1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			z := blocks(2, 10, []int{5}, 1, 2)
			orig := mat.DenseCopyOf(z)
			_, err := Correct(z, tc.seams, tc.p, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrContract), "got %v", err)
			assert.False(t, errors.Is(err, ErrMissingInput))
			assert.True(t, mat.Equal(orig, z), "raster must not be touched")
		})
	}
}

func TestValidationBoundaries(t *testing.T) {
	p := Params{Width: 2, DispMax: 1}
	assert.NoError(t, Validate(10, []int{2}, p))
	assert.NoError(t, Validate(10, []int{7}, p))
	assert.Error(t, Validate(10, []int{8}, p))
	assert.NoError(t, Validate(10, []int{2, 4}, p))
	assert.Error(t, Validate(10, []int{2, 3}, p))
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	obs := &LogObserver{Log: &buf, Width: 2, Verbose: true}
	z := blocks(2, 10, []int{4}, 3, 1)
	_, err := Correct(z, []int{4}, Params{Width: 2, DispMax: noMask}, obs)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Seam 1 at column 5: offset 2")
	assert.Contains(t, out, "shifting columns 5-10")
	assert.Contains(t, out, "left window columns 3-4, right window columns 5-6")
	assert.Contains(t, out, "masked 0 outlier pixels")
}
