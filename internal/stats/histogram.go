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

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// Histogram counts values between min and max into the given bins.
// Values outside [min, max] and NaNs are ignored.
func Histogram(data []float64, min, max float64, bins []int) {
	for i := range bins {
		bins[i] = 0
	}
	width := (max - min) / float64(len(bins))
	for _, d := range data {
		if !(d >= min && d <= max) {
			continue
		}
		index := len(bins) - 1
		if width > 0 {
			if i := int((d - min) / width); i < index {
				index = i
			}
		}
		bins[index]++
	}
}

// binCenter returns the center of bin i of a histogram between min and max
func binCenter(i int, min, max float64, numBins int) float64 {
	return min + (float64(i)+0.5)*(max-min)/float64(numBins)
}

// Peak returns the location and the count of the fullest bin
func Peak(bins []int, min, max float64) (x float64, y int) {
	maxIndex, maxValue := 0, math.MinInt
	for i, v := range bins {
		if v > maxValue {
			maxIndex, maxValue = i, v
		}
	}
	return binCenter(maxIndex, min, max, len(bins)), maxValue
}

// ModeStdDev fits a normal distribution to the histogram of the non-NaN
// values and returns its mean and standard deviation. For unwrapped phase
// this is the dominant level of the scene, robust against outlier patches.
func ModeStdDev(data []float64, numBins int) (mode, stdDev float64, err error) {
	valid := make([]float64, 0, len(data))
	for _, d := range data {
		if !math.IsNaN(d) && !math.IsInf(d, 0) {
			valid = append(valid, d)
		}
	}
	if len(valid) == 0 {
		return math.NaN(), math.NaN(), nil
	}
	min, max := floats.Min(valid), floats.Max(valid)
	if min == max || numBins < 3 {
		return min, 0, nil
	}

	bins := make([]int, numBins)
	Histogram(valid, min, max, bins)

	// Take an educated initial guess: the peak of the histogram
	peak, peakVal := Peak(bins, min, max)
	binWidth := (max - min) / float64(numBins)
	sigma0 := SummarizeValues(valid).StdDev
	if !(sigma0 > 0) {
		sigma0 = binWidth
	}
	alpha0 := float64(peakVal) * sigma0 * math.Sqrt(2*math.Pi)

	// Now minimize the distance between the histogram and a normal distribution
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			alpha, mu, sigma := x[0], x[1], math.Abs(x[2])
			if sigma == 0 {
				return math.Inf(1)
			}
			scaler := alpha / (sigma * math.Sqrt(2*math.Pi))
			sumSqDiff := 0.0
			for i, y := range bins {
				xmusig := (binCenter(i, min, max, numBins) - mu) / sigma
				diff := float64(y) - scaler*math.Exp(-0.5*xmusig*xmusig)
				sumSqDiff += diff * diff
			}
			return math.Sqrt(sumSqDiff / float64(numBins))
		},
	}
	result, err := optimize.Minimize(problem, []float64{alpha0, peak, sigma0}, nil, &optimize.NelderMead{})
	if err != nil {
		return math.NaN(), math.NaN(), err
	}
	return result.X[1], math.Abs(result.X[2]), nil
}
