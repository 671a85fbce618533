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

package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fastrand"
	"gonum.org/v1/gonum/mat"
)

func TestMedian(t *testing.T) {
	rng := fastrand.RNG{}
	for i := 1; i < 1000; i++ {
		// prepare array of given length with a random permutation of 1..n
		arr := make([]float64, i)
		for j := 0; j < len(arr); j++ {
			arr[j] = float64(j + 1)
		}
		for j := 0; j < len(arr); j++ {
			k := rng.Uint32n(uint32(len(arr)))
			arr[j], arr[k] = arr[k], arr[j]
		}

		// calculate expected result
		var expect float64
		if (i & 1) != 0 {
			expect = float64((i + 1) / 2)
		} else {
			expect = 0.5 * (float64(i/2) + float64(i/2+1))
		}

		res := Median(arr)
		if res != expect {
			t.Logf("median(1..%d) got %f expect %f\n", i, res, expect)
			t.Fail()
		}
	}
}

func TestMedianIgnoresNaN(t *testing.T) {
	nan := math.NaN()
	assert.Equal(t, 2.0, Median([]float64{nan, 3, 1, nan, 2}))
	assert.Equal(t, 2.5, Median([]float64{4, nan, 1, 2, 3}))
	assert.Equal(t, 7.0, Median([]float64{nan, 7}))
}

func TestMedianAllNaN(t *testing.T) {
	nan := math.NaN()
	assert.True(t, math.IsNaN(Median([]float64{nan, nan})))
	assert.True(t, math.IsNaN(Median(nil)))
}

func TestMedianDoesNotReorderInput(t *testing.T) {
	in := []float64{5, 1, 4, 2, 3}
	Median(in)
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, in)
}

func TestMedianDuplicates(t *testing.T) {
	assert.Equal(t, 1.0, Median([]float64{1, 1, 1, 1}))
	assert.Equal(t, 1.5, Median([]float64{2, 1, 2, 1}))
}

func TestSummarize(t *testing.T) {
	z := mat.NewDense(2, 3, []float64{
		1, 2, math.NaN(),
		3, 4, 5,
	})
	s := Summarize(z)
	assert.Equal(t, 5, s.Valid)
	assert.Equal(t, 1, s.Missing)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.InDelta(t, 3.0, s.Mean, 1e-12)
	assert.Equal(t, 3.0, s.Median)
	assert.Equal(t, 1.0, z.At(0, 0), "summary must not reorder the raster")
}

func TestSummarizeEmpty(t *testing.T) {
	s := SummarizeValues([]float64{math.NaN()})
	assert.Equal(t, 0, s.Valid)
	assert.Equal(t, 1, s.Missing)
	assert.True(t, math.IsNaN(s.Median))
}

func TestColumnMedians(t *testing.T) {
	z := mat.NewDense(3, 2, []float64{
		1, 10,
		math.NaN(), 30,
		3, 20,
	})
	assert.Equal(t, []float64{2, 20}, ColumnMedians(z))
	assert.Equal(t, 30.0, z.At(1, 1))
}
