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
	"github.com/stretchr/testify/require"
)

func TestHistogram(t *testing.T) {
	bins := make([]int, 4)
	Histogram([]float64{0, 0.5, 1, 2.5, 4, 5, -1, math.NaN()}, 0, 4, bins)
	assert.Equal(t, []int{2, 1, 1, 1}, bins)

	x, y := Peak(bins, 0, 4)
	assert.Equal(t, 0.5, x)
	assert.Equal(t, 2, y)
}

func TestModeStdDev(t *testing.T) {
	// normal distribution with mean 1 and sigma 0.5, plus a patch of outliers
	data := []float64{}
	for i := -40; i <= 40; i++ {
		v := float64(i) * 0.05
		n := int(1000*math.Exp(-0.5*(v/0.5)*(v/0.5)) + 0.5)
		for j := 0; j < n; j++ {
			data = append(data, 1+v)
		}
	}
	for j := 0; j < 600; j++ {
		data = append(data, 6, math.NaN())
	}

	mode, stdDev, err := ModeStdDev(data, 100)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mode, 0.1)
	assert.InDelta(t, 0.5, stdDev, 0.15)
	assert.Greater(t, SummarizeValues(data).Mean, 1.1)
}

func TestModeStdDevDegenerate(t *testing.T) {
	mode, stdDev, err := ModeStdDev([]float64{2, 2, math.NaN()}, 10)
	require.NoError(t, err)
	assert.Equal(t, 2.0, mode)
	assert.Equal(t, 0.0, stdDev)

	mode, stdDev, err = ModeStdDev([]float64{math.NaN()}, 10)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(mode))
	assert.True(t, math.IsNaN(stdDev))
}
