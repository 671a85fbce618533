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

// Package config provides the job description for a seam correction run.
// Jobs can be loaded from YAML files and overridden from the command line.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evavra/ionospheric-correction/internal/seam"
	"gopkg.in/yaml.v3"
)

// Default name of the corrected grid
const DefaultOutput = "ph_correct.grd"

// Marker for output-derived file names
const Auto = "%auto"

// Job describes one seam correction run
type Job struct {
	Grid  string `json:"grid"  yaml:"grid"`  // Input grid file
	Seams string `json:"seams" yaml:"seams"` // Seam index file, 1-based

	seam.Params `yaml:",inline"`

	Output       string `json:"output"       yaml:"output"`       // Corrected grid file
	Registration bool   `json:"registration" yaml:"registration"` // Fix grid registration with gmt grdedit
	GMT          string `json:"gmt"          yaml:"gmt"`          // GMT executable

	Preview     string `json:"preview"     yaml:"preview"`     // Preview image of the corrected grid, empty for none
	PreviewMode string `json:"previewMode" yaml:"previewMode"` // wrap or linear
	Profile     string `json:"profile"     yaml:"profile"`     // Range profile plot, empty for none

	Verbose bool `json:"verbose" yaml:"verbose"`
}

// DefaultJob returns a job with default values and no inputs
func DefaultJob() *Job {
	return &Job{
		Output:       DefaultOutput,
		Registration: true,
		GMT:          "gmt",
		PreviewMode:  "wrap",
	}
}

// LoadJob loads a job from a YAML file on top of the defaults
func LoadJob(fileName string) (*Job, error) {
	job := DefaultJob()
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("error reading job file: %w", err)
	}
	if err := yaml.Unmarshal(data, job); err != nil {
		return nil, fmt.Errorf("error parsing job file %s: %w", fileName, err)
	}
	return job, nil
}

// SaveJob writes a job to a YAML file
func SaveJob(job *Job, fileName string) error {
	data, err := yaml.Marshal(job)
	if err != nil {
		return fmt.Errorf("error marshaling job: %w", err)
	}
	if err := os.WriteFile(fileName, data, 0644); err != nil {
		return fmt.Errorf("error writing job file: %w", err)
	}
	return nil
}

// Check verifies that a job names its inputs and carries valid parameters.
// Seam positions are checked later, against the loaded grid.
func (j *Job) Check() error {
	var errs []error
	if j.Grid == "" {
		errs = append(errs, fmt.Errorf("%w: no grid file", seam.ErrContract))
	}
	if j.Seams == "" {
		errs = append(errs, fmt.Errorf("%w: no seam file", seam.ErrContract))
	}
	if j.Output == "" {
		errs = append(errs, fmt.Errorf("%w: no output file", seam.ErrContract))
	}
	if j.Width <= 0 {
		errs = append(errs, fmt.Errorf("%w: seam width %d must be positive", seam.ErrContract, j.Width))
	}
	if !(j.DispMax > 0) {
		errs = append(errs, fmt.Errorf("%w: displacement threshold %g must be positive", seam.ErrContract, j.DispMax))
	}
	if j.PreviewMode != "" && j.PreviewMode != "wrap" && j.PreviewMode != "linear" {
		errs = append(errs, fmt.Errorf("%w: unknown preview mode %q", seam.ErrContract, j.PreviewMode))
	}
	return errors.Join(errs...)
}

// ExpandAuto replaces %auto in a file name with the output file name
// carrying the given suffix
func (j *Job) ExpandAuto(fileName, suffix string) string {
	if fileName != Auto {
		return fileName
	}
	if j.Output == "" {
		return ""
	}
	return strings.TrimSuffix(j.Output, filepath.Ext(j.Output)) + suffix
}
