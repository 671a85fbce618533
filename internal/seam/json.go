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
	"encoding/json"

	"github.com/evavra/ionospheric-correction/internal/stats"
)

// MarshalJSON encodes offsets of all-missing windows as nulls
func (o Offset) MarshalJSON() ([]byte, error) {
	type plain Offset
	return json.Marshal(struct {
		plain
		Left   *float64 `json:"left"`
		Right  *float64 `json:"right"`
		Offset *float64 `json:"offset"`
	}{plain(o), stats.Nullable(o.Left), stats.Nullable(o.Right), stats.Nullable(o.Offset)})
}

func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	return json.Marshal(struct {
		plain
		GlobalMedian *float64 `json:"globalMedian"`
	}{plain(r), stats.Nullable(r.GlobalMedian)})
}
