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

package grid

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"time"

	"github.com/ctessum/cdf"
)

// Save writes the raster to a classic netCDF file, replacing any existing
// file. Coordinate and value variables carry their actual_range.
func Save(r *Raster, fileName string) error {
	rows, cols := r.Dims()
	if len(r.X) != cols || len(r.Y) != rows {
		return fmt.Errorf("%w: %d x coordinates and %d y coordinates for %dx%d values",
			ErrFormat, len(r.X), len(r.Y), cols, rows)
	}
	if err := os.Remove(fileName); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	f, err := os.Create(fileName)
	if err != nil {
		return err
	}
	if err := writeCDF(f, r); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", fileName, err)
	}
	return f.Close()
}

func writeCDF(f *os.File, r *Raster) error {
	rows, cols := r.Dims()
	xName, yName, zName := names(r)

	h := cdf.NewHeader([]string{xName, yName}, []int{cols, rows})
	h.AddAttribute("", "Conventions", "CF-1.7")
	if r.Title != "" {
		h.AddAttribute("", "title", r.Title)
	}
	h.AddAttribute("", "history", fmt.Sprintf("%s seamfix: subswath seam correction", time.Now().UTC().Format(time.RFC3339)))

	xmin, xmax := ActualRange(r.X)
	ymin, ymax := ActualRange(r.Y)
	zmin, zmax := valuesActualRange(r.Z)

	h.AddVariable(xName, []string{xName}, []float64{0})
	h.AddAttribute(xName, "long_name", xName)
	h.AddAttribute(xName, "actual_range", []float64{xmin, xmax})
	h.AddVariable(yName, []string{yName}, []float64{0})
	h.AddAttribute(yName, "long_name", yName)
	h.AddAttribute(yName, "actual_range", []float64{ymin, ymax})

	if r.Float32 {
		h.AddVariable(zName, []string{yName, xName}, []float32{0})
		h.AddAttribute(zName, "_FillValue", []float32{float32(math.NaN())})
		h.AddAttribute(zName, "actual_range", []float32{float32(zmin), float32(zmax)})
	} else {
		h.AddVariable(zName, []string{yName, xName}, []float64{0})
		h.AddAttribute(zName, "_FillValue", []float64{math.NaN()})
		h.AddAttribute(zName, "actual_range", []float64{zmin, zmax})
	}
	h.AddAttribute(zName, "long_name", zName)
	if r.Units != "" {
		h.AddAttribute(zName, "units", r.Units)
	}
	h.Define()

	nc, err := cdf.Create(f, h) // writes the header
	if err != nil {
		return err
	}
	if err := writeCDFVar(nc, xName, r.X); err != nil {
		return err
	}
	if err := writeCDFVar(nc, yName, r.Y); err != nil {
		return err
	}

	var values interface{}
	if r.Float32 {
		z32 := make([]float32, 0, rows*cols)
		for i := 0; i < rows; i++ {
			for _, v := range r.Z.RawRowView(i) {
				z32 = append(z32, float32(v))
			}
		}
		values = z32
	} else {
		z64 := make([]float64, 0, rows*cols)
		for i := 0; i < rows; i++ {
			z64 = append(z64, r.Z.RawRowView(i)...)
		}
		values = z64
	}
	if err := writeCDFVar(nc, zName, values); err != nil {
		return err
	}
	return cdf.UpdateNumRecs(f)
}

func writeCDFVar(nc *cdf.File, name string, values interface{}) error {
	end := nc.Header.Lengths(name)
	start := make([]int, len(end))
	w := nc.Writer(name, start, end)
	if _, err := w.Write(values); err != nil {
		return fmt.Errorf("variable %s: %w", name, err)
	}
	return nil
}

// Variable names to write, falling back to x/y/z
func names(r *Raster) (x, y, z string) {
	x, y, z = r.XName, r.YName, r.ZName
	if x == "" || y == "" {
		x, y = "x", "y"
	}
	if z == "" {
		z = "z"
	}
	return x, y, z
}
