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
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Summary statistics of a raster, computed over non-NaN values only
type Summary struct {
	Valid   int     `json:"valid"`
	Missing int     `json:"missing"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"stdDev"`
	Median  float64 `json:"median"`
}

func (s Summary) String() string {
	return fmt.Sprintf("valid %d missing %d min %.4g max %.4g mean %.4g stddev %.4g median %.4g",
		s.Valid, s.Missing, s.Min, s.Max, s.Mean, s.StdDev, s.Median)
}

// Summarize computes summary statistics over all cells of z
func Summarize(z *mat.Dense) Summary {
	rows, cols := z.Dims()
	valid := make([]float64, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for _, v := range z.RawRowView(r) {
			if !math.IsNaN(v) {
				valid = append(valid, v)
			}
		}
	}
	return summarizeValid(valid, rows*cols-len(valid))
}

// SummarizeValues computes summary statistics over a flat slice
func SummarizeValues(xs []float64) Summary {
	valid := make([]float64, 0, len(xs))
	for _, v := range xs {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	return summarizeValid(valid, len(xs)-len(valid))
}

func summarizeValid(valid []float64, missing int) Summary {
	s := Summary{Valid: len(valid), Missing: missing}
	if len(valid) == 0 {
		nan := math.NaN()
		s.Min, s.Max, s.Mean, s.StdDev, s.Median = nan, nan, nan, nan, nan
		return s
	}
	s.Min, s.Max = floats.Min(valid), floats.Max(valid)
	if len(valid) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(valid, nil)
	} else {
		s.Mean = valid[0]
	}
	s.Median = MedianInPlace(valid)
	return s
}

// ColumnMedians returns the NaN-aware median of every column of z
func ColumnMedians(z mat.Matrix) []float64 {
	_, cols := z.Dims()
	res := make([]float64, cols)
	col := []float64(nil)
	for c := 0; c < cols; c++ {
		col = mat.Col(col, c, z)
		res[c] = MedianInPlace(col)
	}
	return res
}
