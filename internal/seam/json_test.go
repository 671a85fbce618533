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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultJSON(t *testing.T) {
	res := Result{
		Offsets: []Offset{
			{Index: 0, Seam: 4, Start: 4, End: 8, Left: 1, Right: 3, Offset: -2},
			{Index: 1, Seam: 8, Start: 8, End: 12, Left: math.NaN(), Right: 3, Offset: math.NaN()},
		},
		GlobalMedian: math.NaN(),
	}
	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"offsets": [
			{"index":0,"seam":4,"start":4,"end":8,"left":1,"right":3,"offset":-2},
			{"index":1,"seam":8,"start":8,"end":12,"left":null,"right":3,"offset":null}
		],
		"globalMedian": null,
		"masked": 0
	}`, string(data))
}
