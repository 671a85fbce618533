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
	"fmt"
	"io"
)

// Observer receives progress from Correct at well-defined points
type Observer interface {
	SeamCorrected(o Offset)                  // after the block right of a seam was shifted
	Masked(globalMedian float64, masked int) // after the outlier mask was applied
}

type nopObserver struct{}

func (nopObserver) SeamCorrected(Offset) {}
func (nopObserver) Masked(float64, int)  {}

// LogObserver writes progress lines to a log. Seam columns are reported
// 1-based, as in the seam file.
type LogObserver struct {
	Log     io.Writer
	Width   int  // Seam width, to report the sampled column ranges
	Verbose bool // Also report the sampled windows
}

func (l *LogObserver) SeamCorrected(o Offset) {
	fmt.Fprintf(l.Log, "Seam %d at column %d: offset %.6g (left median %.6g, right median %.6g), shifting columns %d-%d\n",
		o.Index+1, o.Seam+1, o.Offset, o.Left, o.Right, o.Start+1, o.End)
	if l.Verbose && l.Width > 0 {
		fmt.Fprintf(l.Log, "  left window columns %d-%d, right window columns %d-%d\n",
			o.Seam-l.Width+1, o.Seam, o.Seam+1, o.Seam+l.Width)
	}
}

func (l *LogObserver) Masked(globalMedian float64, masked int) {
	fmt.Fprintf(l.Log, "Global median %.6g, masked %d outlier pixels\n", globalMedian, masked)
}
