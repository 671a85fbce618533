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

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/evavra/ionospheric-correction/internal/config"
	"github.com/evavra/ionospheric-correction/internal/seam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobFromPositionalArgs(t *testing.T) {
	job, err := jobFromArgs([]string{"unwrap.grd", "seams.txt", "100", "6.28"})
	require.NoError(t, err)
	assert.Equal(t, "unwrap.grd", job.Grid)
	assert.Equal(t, "seams.txt", job.Seams)
	assert.Equal(t, 100, job.Width)
	assert.Equal(t, 6.28, job.DispMax)
	assert.Equal(t, config.DefaultOutput, job.Output)
	assert.True(t, job.Registration)
}

func TestJobFromArgsWrongArity(t *testing.T) {
	for _, args := range [][]string{nil, {"unwrap.grd"}, {"a", "b", "c"}, {"a", "b", "c", "d", "e"}} {
		_, err := jobFromArgs(args)
		assert.True(t, errors.Is(err, errUsage), "%v", args)
	}
}

func TestJobFromArgsBadNumbers(t *testing.T) {
	_, err := jobFromArgs([]string{"unwrap.grd", "seams.txt", "wide", "6.28"})
	assert.True(t, errors.Is(err, seam.ErrContract))
	_, err = jobFromArgs([]string{"unwrap.grd", "seams.txt", "100", "far"})
	assert.True(t, errors.Is(err, seam.ErrContract))
}

// Runs last, as explicitly set flags stay set
func TestJobFromConfigFile(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(fileName, []byte("grid: unwrap.grd\nseams: seams.txt\nseamWidth: 50\ndispMax: 3\noutput: from_file.grd\n"), 0644))
	require.NoError(t, flag.CommandLine.Set("config", fileName))
	require.NoError(t, flag.CommandLine.Set("out", "from_flag.grd"))
	require.NoError(t, flag.CommandLine.Set("T", "false"))
	defer func() {
		*jobFile, *out, *registration = "", config.DefaultOutput, true
	}()

	job, err := jobFromArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, "unwrap.grd", job.Grid)
	assert.Equal(t, 50, job.Width)
	assert.Equal(t, 3.0, job.DispMax)
	assert.Equal(t, "from_flag.grd", job.Output)
	assert.False(t, job.Registration)

	job, err = jobFromArgs([]string{"other.grd", "seams.txt", "20", "1"})
	require.NoError(t, err)
	assert.Equal(t, "other.grd", job.Grid)
	assert.Equal(t, 20, job.Width)

	_, err = jobFromArgs([]string{"other.grd"})
	assert.True(t, errors.Is(err, errUsage))
}

func TestExitCodes(t *testing.T) {
	missing := fmt.Errorf("%w: seam file", seam.ErrMissingInput)
	contract := fmt.Errorf("%w: seam width", seam.ErrContract)
	other := errors.New("disk full")

	assert.Equal(t, 1, exitCode(missing))
	assert.Equal(t, 2, exitCode(contract))
	assert.Equal(t, 3, exitCode(other))
	assert.Equal(t, 1, exitCode(errors.Join(missing, other)))

	assert.Equal(t, "Error: missing input: seam file", errorMessage(missing))
	assert.Equal(t, "Error: invalid input: seam width", errorMessage(contract))
	assert.Equal(t, "Error: disk full", errorMessage(other))
	assert.Equal(t, "Error: missing input: grid: not a grid", errorMessage(fmt.Errorf("%w: %w", seam.ErrMissingInput, errors.New("grid: not a grid"))))
}
