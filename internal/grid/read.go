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
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"

	"github.com/ctessum/cdf"
	"gonum.org/v1/gonum/mat"
)

var (
	magicCDF1 = []byte{'C', 'D', 'F', 1}
	magicCDF2 = []byte{'C', 'D', 'F', 2}
	magicHDF5 = []byte{0x89, 'H', 'D', 'F'}
)

// Coordinate variable names to try, in order of preference
var coordNames = [][2]string{{"lon", "lat"}, {"x", "y"}}

// Load reads a geocoded raster from the given file. Classic netCDF and
// netCDF-4 (HDF5) containers are supported.
func Load(fileName string) (*Raster, error) {
	f, err := os.Open(fileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, fileName)
		}
		return nil, err
	}
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, fileName, err)
	}

	var r *Raster
	switch {
	case bytes.Equal(magic, magicCDF1), bytes.Equal(magic, magicCDF2):
		r, err = readCDF(f)
	case bytes.Equal(magic, magicHDF5):
		r, err = readHDF5(fileName)
	default:
		err = fmt.Errorf("%w: unknown magic %q", ErrFormat, magic)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	r.FileName = fileName
	return r, nil
}

// Reads a classic netCDF grid
func readCDF(f *os.File) (*Raster, error) {
	nc, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	h := nc.Header

	have := map[string]bool{}
	for _, v := range h.Variables() {
		have[v] = true
	}
	xName, yName := "", ""
	for _, names := range coordNames {
		if have[names[0]] && have[names[1]] {
			xName, yName = names[0], names[1]
			break
		}
	}
	if xName == "" || !have["z"] {
		return nil, fmt.Errorf("%w: missing coordinate or z variables", ErrFormat)
	}

	x, _, err := readCDFVar(nc, xName)
	if err != nil {
		return nil, err
	}
	y, _, err := readCDFVar(nc, yName)
	if err != nil {
		return nil, err
	}
	zs, isFloat32, err := readCDFVar(nc, "z")
	if err != nil {
		return nil, err
	}
	if lengths := h.Lengths("z"); len(lengths) != 2 {
		return nil, fmt.Errorf("%w: z has %d dimensions, want 2", ErrFormat, len(lengths))
	}
	replaceFill(zs, h.GetAttribute("z", "_FillValue"))
	replaceFill(zs, h.GetAttribute("z", "missing_value"))

	if len(x)*len(y) != len(zs) || len(zs) == 0 {
		return nil, fmt.Errorf("%w: %d values for %d x and %d y coordinates", ErrFormat, len(zs), len(x), len(y))
	}
	r, err := NewRaster(x, y, mat.NewDense(len(y), len(x), zs))
	if err != nil {
		return nil, err
	}
	r.XName, r.YName, r.ZName = xName, yName, "z"
	r.Float32 = isFloat32
	if title, ok := h.GetAttribute("", "title").(string); ok {
		r.Title = title
	}
	if units, ok := h.GetAttribute("z", "units").(string); ok {
		r.Units = units
	}
	return r, nil
}

// Reads a whole variable and converts it to float64
func readCDFVar(nc *cdf.File, name string) (values []float64, isFloat32 bool, err error) {
	n := 1
	for _, l := range nc.Header.Lengths(name) {
		n *= l
	}
	rd := nc.Reader(name, nil, nil)
	buf := rd.Zero(n)
	got, err := rd.Read(buf)
	if err != nil && !(errors.Is(err, io.EOF) && got == n) {
		return nil, false, fmt.Errorf("%w: reading %s: %v", ErrFormat, name, err)
	}
	values, isFloat32, err = toFloat64(buf)
	if err != nil {
		return nil, false, fmt.Errorf("%w: variable %s: %v", ErrFormat, name, err)
	}
	return values, isFloat32, nil
}

func toFloat64(buf interface{}) (values []float64, isFloat32 bool, err error) {
	switch b := buf.(type) {
	case []float64:
		return b, false, nil
	case []float32:
		values = make([]float64, len(b))
		for i, v := range b {
			values[i] = float64(v)
		}
		return values, true, nil
	case []int32:
		values = make([]float64, len(b))
		for i, v := range b {
			values[i] = float64(v)
		}
		return values, true, nil
	case []int16:
		values = make([]float64, len(b))
		for i, v := range b {
			values[i] = float64(v)
		}
		return values, true, nil
	case []int8:
		values = make([]float64, len(b))
		for i, v := range b {
			values[i] = float64(v)
		}
		return values, true, nil
	}
	return nil, false, fmt.Errorf("unsupported element type %T", buf)
}

// Replaces cells equal to the given fill attribute with NaN
func replaceFill(values []float64, attr interface{}) {
	fill, ok := fillValue(attr)
	if !ok {
		return
	}
	for i, v := range values {
		if v == fill {
			values[i] = math.NaN()
		}
	}
}

// Returns the value of a fill attribute. Single-element attributes may
// arrive as scalars or as one-element slices, depending on the reader.
// A NaN fill needs no replacement and is reported as absent.
func fillValue(attr interface{}) (float64, bool) {
	var fill float64
	switch a := attr.(type) {
	case nil:
		return 0, false
	case float64:
		fill = a
	case float32:
		fill = float64(a)
	case int32:
		fill = float64(a)
	case int16:
		fill = float64(a)
	case int8:
		fill = float64(a)
	default:
		fills, _, err := toFloat64(attr)
		if err != nil || len(fills) == 0 {
			return 0, false
		}
		fill = fills[0]
	}
	if math.IsNaN(fill) {
		return 0, false
	}
	return fill, true
}
