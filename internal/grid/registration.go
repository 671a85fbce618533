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
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// RegistrationArgs returns the gmt arguments which widen the grid bounds by half
// an increment on each side and toggle it to pixel registration
func RegistrationArgs(fileName string, r *Raster) []string {
	dx, dy := Increment(r.X), Increment(r.Y)
	xmin, xmax := ActualRange(r.X)
	ymin, ymax := ActualRange(r.Y)
	bounds := strings.Join([]string{
		fmtFloat(xmin - dx/2), fmtFloat(xmax + dx/2),
		fmtFloat(ymin - dy/2), fmtFloat(ymax + dy/2),
	}, "/")
	return []string{"grdedit", fileName, "-R" + bounds, "-T"}
}

func fmtFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// FixRegistration runs `gmt grdedit` on a saved grid. The tool is external and
// best effort: callers should log a returned error, not abort on it.
func FixRegistration(ctx context.Context, gmt, fileName string, r *Raster, logWriter io.Writer) error {
	args := RegistrationArgs(fileName, r)
	fmt.Fprintf(logWriter, "Running %s %s\n", gmt, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, gmt, args...)
	out, err := cmd.CombinedOutput()
	if len(out) > 0 {
		logWriter.Write(out)
	}
	if err != nil {
		return fmt.Errorf("%s grdedit: %w", gmt, err)
	}
	return nil
}
