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
	"encoding/json"
	"math"
)

// Nullable maps NaN and infinities to nil, which JSON encodes as null
func Nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// MarshalJSON encodes the statistics of an all-missing raster as nulls
func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary
	return json.Marshal(struct {
		plain
		Min    *float64 `json:"min"`
		Max    *float64 `json:"max"`
		Mean   *float64 `json:"mean"`
		StdDev *float64 `json:"stdDev"`
		Median *float64 `json:"median"`
	}{
		plain:  plain(s),
		Min:    Nullable(s.Min),
		Max:    Nullable(s.Max),
		Mean:   Nullable(s.Mean),
		StdDev: Nullable(s.StdDev),
		Median: Nullable(s.Median),
	})
}
