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

// Package pipeline runs seam correction jobs end to end: read the inputs,
// correct, write the corrected grid and any requested by-products.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/evavra/ionospheric-correction/internal/config"
	"github.com/evavra/ionospheric-correction/internal/grid"
	"github.com/evavra/ionospheric-correction/internal/preview"
	"github.com/evavra/ionospheric-correction/internal/profile"
	"github.com/evavra/ionospheric-correction/internal/seam"
	"github.com/evavra/ionospheric-correction/internal/stats"
	"github.com/pbnjay/memory"
)

// An execution context for jobs
type Context struct {
	Log io.Writer

	// memory.TotalMemory()/1024/1024
	MemoryMB int

	// MemoryMB*7/10
	BudgetMB int

	MaxThreads int

	// GMT executable, unless the job names one
	GMT string
}

func NewContext(log io.Writer) *Context {
	memoryMB := int(memory.TotalMemory() / 1024 / 1024)
	return &Context{
		Log:        log,
		MemoryMB:   memoryMB,
		BudgetMB:   memoryMB * 7 / 10,
		MaxThreads: runtime.GOMAXPROCS(0),
		GMT:        "gmt",
	}
}

// Outcome of a job
type Report struct {
	Job        *config.Job   `json:"job"`
	Seams      []int         `json:"seams"` // 0-based
	Result     *seam.Result  `json:"result"`
	Before     stats.Summary `json:"before"`
	After      stats.Summary `json:"after"`
	JumpBefore float64       `json:"jumpBefore"` // Largest step in column median across a seam
	JumpAfter  float64       `json:"jumpAfter"`
	Registered bool          `json:"registered"` // Registration fix succeeded
	Elapsed    time.Duration `json:"elapsed"`
}

// Run executes a job with a background context
func Run(job *config.Job, c *Context) (*Report, error) {
	return RunContext(context.Background(), job, c)
}

// RunContext executes a job. Parameters and seams are checked before the
// output is touched; on error the output file is left as it was.
func RunContext(ctx context.Context, job *config.Job, c *Context) (*Report, error) {
	start := time.Now()
	if err := job.Check(); err != nil {
		return nil, err
	}

	seams, err := seam.ReadSeams(job.Seams)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(c.Log, "Read %d seams from %s\n", len(seams), job.Seams)

	in, err := LoadGrid(job.Grid)
	if err != nil {
		return nil, err
	}
	rep := &Report{Job: job, Seams: seams, Before: stats.Summarize(in.Z)}
	fmt.Fprintf(c.Log, "Loaded %s grid from %s with %v\n", in.DimensionsToString(), in.FileName, rep.Before)
	c.checkMemory(in)

	if err := seam.Validate(colsOf(in), seams, job.Params); err != nil {
		return nil, err
	}
	fmt.Fprintf(c.Log, "Correcting %d seams with width %d, masking deviations over %g\n",
		len(seams), job.Width, job.DispMax)

	obs := &seam.LogObserver{Log: c.Log, Width: job.Width, Verbose: job.Verbose}
	out, res, err := seam.Apply(in, seams, job.Params, obs)
	if err != nil {
		return nil, err
	}
	rep.Result = res
	rep.After = stats.Summarize(out.Z)
	rep.JumpBefore = profile.MaxJump(in.Z, seams)
	rep.JumpAfter = profile.MaxJump(out.Z, seams)
	fmt.Fprintf(c.Log, "Corrected grid has %v\n", rep.After)
	fmt.Fprintf(c.Log, "Largest jump across seams %.4g before, %.4g after correction\n", rep.JumpBefore, rep.JumpAfter)

	if err := grid.Save(out, job.Output); err != nil {
		return nil, err
	}
	fmt.Fprintf(c.Log, "Wrote corrected grid to %s\n", job.Output)

	if job.Registration {
		gmt := job.GMT
		if gmt == "" {
			gmt = c.GMT
		}
		// best effort, the grid is usable without it
		if err := grid.FixRegistration(ctx, gmt, job.Output, out, c.Log); err != nil {
			fmt.Fprintf(c.Log, "Warning: could not fix grid registration: %s\n", err.Error())
		} else {
			rep.Registered = true
		}
	}

	if fileName := job.ExpandAuto(job.Preview, ".jpg"); fileName != "" {
		opts := preview.DefaultOptions()
		if job.PreviewMode != "" {
			opts.Mode = job.PreviewMode
		}
		if err := preview.Write(fileName, out.Z, opts); err != nil {
			return rep, fmt.Errorf("error writing preview %s: %w", fileName, err)
		}
		fmt.Fprintf(c.Log, "Wrote %s preview to %s\n", opts.Mode, fileName)
	}

	if fileName := job.ExpandAuto(job.Profile, "_profile.png"); fileName != "" {
		if err := profile.Write(fileName, in.Z, out.Z, seams); err != nil {
			return rep, err
		}
		fmt.Fprintf(c.Log, "Wrote range profile to %s\n", fileName)
	}

	rep.Elapsed = time.Since(start)
	fmt.Fprintf(c.Log, "Done after %v\n", rep.Elapsed)
	return rep, nil
}

// LoadGrid loads a grid. Any failure, whether the file is absent or
// unreadable, is reported as missing input; the grid error stays
// reachable for errors.Is.
func LoadGrid(fileName string) (*grid.Raster, error) {
	r, err := grid.Load(fileName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", seam.ErrMissingInput, err)
	}
	return r, nil
}

func colsOf(r *grid.Raster) int {
	_, cols := r.Dims()
	return cols
}

// Warns if the input and the corrected copy exceed the memory budget
func (c *Context) checkMemory(r *grid.Raster) {
	rows, cols := r.Dims()
	neededMB := rows * cols * 8 * 2 / 1024 / 1024
	if c.BudgetMB > 0 && neededMB > c.BudgetMB {
		fmt.Fprintf(c.Log, "Warning: grid needs %d MB, more than %d MB or 70%% of %d MB physical memory\n",
			neededMB, c.BudgetMB, c.MemoryMB)
	}
}

// MarshalJSON encodes jumps across seams without valid data as nulls
func (r Report) MarshalJSON() ([]byte, error) {
	type plain Report
	return json.Marshal(struct {
		plain
		JumpBefore *float64 `json:"jumpBefore"`
		JumpAfter  *float64 `json:"jumpAfter"`
	}{plain(r), stats.Nullable(r.JumpBefore), stats.Nullable(r.JumpAfter)})
}
