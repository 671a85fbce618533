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

import "math"

// Median returns the median of the non-NaN values in xs, averaging the two
// middle values for an even count. Returns NaN if xs holds no valid values.
// The input is left untouched.
func Median(xs []float64) float64 {
	scratch := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			scratch = append(scratch, x)
		}
	}
	return medianOfValid(scratch)
}

// MedianInPlace is like Median, but compacts the valid values to the front of
// xs and partially reorders them. Use it on scratch buffers only.
func MedianInPlace(xs []float64) float64 {
	n := 0
	for _, x := range xs {
		if !math.IsNaN(x) {
			xs[n] = x
			n++
		}
	}
	return medianOfValid(xs[:n])
}

func medianOfValid(a []float64) float64 {
	n := len(a)
	if n == 0 {
		return math.NaN()
	}
	if n&1 != 0 {
		return QSelect(a, n/2+1)
	}
	lo := QSelect(a, n/2)
	hi := QSelect(a, n/2+1)
	return 0.5 * (lo + hi)
}

// QSelect returns the kth lowest element (1-based) of a, partially reordering it.
// Array must not contain IEEE NaN
func QSelect(a []float64, k int) float64 {
	left, right := 0, len(a)-1
	for left < right {
		mid := (left + right) >> 1
		pivot := a[mid]
		l, r := left-1, right+1
		for {
			for {
				l++
				if a[l] >= pivot {
					break
				}
			}
			for {
				r--
				if a[r] <= pivot {
					break
				}
			}
			if l >= r {
				break
			}
			a[l], a[r] = a[r], a[l]
		}
		index := r

		offset := index - left + 1
		if k <= offset {
			right = index
		} else {
			left = index + 1
			k = k - offset
		}
	}
	return a[left]
}
