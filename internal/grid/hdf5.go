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
	"fmt"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"gonum.org/v1/gonum/mat"
)

// Reads a netCDF-4 grid, as written by default by recent GMT versions
func readHDF5(fileName string) (*Raster, error) {
	nc, err := netcdf.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	defer nc.Close()
	return rasterFromGroup(nc)
}

// Converts the root group of a netCDF-4 file into a raster
func rasterFromGroup(nc api.Group) (*Raster, error) {
	var xVar, yVar *api.Variable
	xName, yName := "", ""
	for _, names := range coordNames {
		xv, errX := nc.GetVariable(names[0])
		yv, errY := nc.GetVariable(names[1])
		if errX == nil && errY == nil && xv != nil && yv != nil {
			xVar, yVar = xv, yv
			xName, yName = names[0], names[1]
			break
		}
	}
	zVar, err := nc.GetVariable("z")
	if xVar == nil || err != nil || zVar == nil {
		return nil, fmt.Errorf("%w: missing coordinate or z variables", ErrFormat)
	}

	x, _, err := toFloat64(xVar.Values)
	if err != nil {
		return nil, fmt.Errorf("%w: variable %s: %v", ErrFormat, xName, err)
	}
	y, _, err := toFloat64(yVar.Values)
	if err != nil {
		return nil, fmt.Errorf("%w: variable %s: %v", ErrFormat, yName, err)
	}
	zs, isFloat32, err := flatten2D(zVar.Values)
	if err != nil {
		return nil, fmt.Errorf("%w: variable z: %v", ErrFormat, err)
	}
	zAttrs := zVar.Attributes
	if zAttrs != nil {
		if fill, ok := zAttrs.Get("_FillValue"); ok {
			replaceFill(zs, fill)
		}
		if fill, ok := zAttrs.Get("missing_value"); ok {
			replaceFill(zs, fill)
		}
	}

	if len(x)*len(y) != len(zs) || len(zs) == 0 {
		return nil, fmt.Errorf("%w: %d values for %d x and %d y coordinates", ErrFormat, len(zs), len(x), len(y))
	}
	r, err := NewRaster(x, y, mat.NewDense(len(y), len(x), zs))
	if err != nil {
		return nil, err
	}
	r.XName, r.YName, r.ZName = xName, yName, "z"
	r.Float32 = isFloat32
	r.Title = stringAttr(nc.Attributes(), "title")
	r.Units = stringAttr(zAttrs, "units")
	return r, nil
}

func stringAttr(attrs api.AttributeMap, key string) string {
	if attrs == nil {
		return ""
	}
	v, _ := attrs.Get(key)
	s, _ := v.(string)
	return s
}

// Flattens a row-major 2-D slice into a single float64 slice. All rows
// must have the same length.
func flatten2D(values interface{}) (flat []float64, isFloat32 bool, err error) {
	var rows [][]float64
	switch v := values.(type) {
	case [][]float64:
		rows = v
	case [][]float32:
		rows, isFloat32 = make([][]float64, len(v)), true
		for i, row := range v {
			rows[i], _, _ = toFloat64(row)
		}
	case [][]int32:
		rows, isFloat32 = make([][]float64, len(v)), true
		for i, row := range v {
			rows[i], _, _ = toFloat64(row)
		}
	case [][]int16:
		rows, isFloat32 = make([][]float64, len(v)), true
		for i, row := range v {
			rows[i], _, _ = toFloat64(row)
		}
	case [][]int8:
		rows, isFloat32 = make([][]float64, len(v)), true
		for i, row := range v {
			rows[i], _, _ = toFloat64(row)
		}
	default:
		return nil, false, fmt.Errorf("unsupported 2-D element type %T", values)
	}

	for i, row := range rows {
		if len(row) != len(rows[0]) {
			return nil, false, fmt.Errorf("row %d has %d values, want %d", i, len(row), len(rows[0]))
		}
		flat = append(flat, row...)
	}
	return flat, isFloat32, nil
}
