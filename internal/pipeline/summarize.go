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

package pipeline

import (
	"errors"
	"fmt"

	"github.com/evavra/ionospheric-correction/internal/stats"
)

// Statistics of one grid file
type FileSummary struct {
	FileName string        `json:"fileName"`
	Rows     int           `json:"rows"`
	Cols     int           `json:"cols"`
	Summary  stats.Summary `json:"summary"`
	Mode     *float64      `json:"mode"`   // Peak of a normal fit to the value histogram, null if unknown
	Spread   *float64      `json:"spread"` // Standard deviation of the fit
}

// Bins for the histogram fit
const histogramBins = 256

// SummarizeFiles loads the given grids concurrently, at most c.MaxThreads
// at a time, and returns their statistics in input order. Files that fail
// to load are left out and their errors joined.
func SummarizeFiles(fileNames []string, c *Context) (outs []FileSummary, err error) {
	if len(fileNames) == 0 {
		return nil, nil
	}
	maxThreads := c.MaxThreads
	if maxThreads < 1 {
		maxThreads = 1
	}

	results := make([]*FileSummary, len(fileNames))
	errs := make([]error, len(fileNames))
	limiter := make(chan bool, maxThreads)
	for i, fileName := range fileNames {
		limiter <- true
		go func(i int, fileName string) {
			defer func() { <-limiter }()
			r, err := LoadGrid(fileName)
			if err != nil {
				errs[i] = err
				return
			}
			rows, cols := r.Dims()
			res := &FileSummary{FileName: fileName, Rows: rows, Cols: cols, Summary: stats.Summarize(r.Z)}
			values := make([]float64, 0, rows*cols)
			for row := 0; row < rows; row++ {
				values = append(values, r.Z.RawRowView(row)...)
			}
			if mode, spread, err := stats.ModeStdDev(values, histogramBins); err == nil {
				res.Mode, res.Spread = stats.Nullable(mode), stats.Nullable(spread)
			}
			results[i] = res
		}(i, fileName)
	}
	for i := 0; i < cap(limiter); i++ { // wait for goroutines to finish
		limiter <- true
	}

	for _, r := range results {
		if r != nil {
			fmt.Fprintf(c.Log, "%s: %dx%d grid with %v", r.FileName, r.Cols, r.Rows, r.Summary)
			if r.Mode != nil && r.Spread != nil {
				fmt.Fprintf(c.Log, " mode %.4g spread %.4g", *r.Mode, *r.Spread)
			}
			fmt.Fprintln(c.Log)
			outs = append(outs, *r)
		}
	}
	return outs, errors.Join(errs...)
}
