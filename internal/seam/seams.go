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
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// ReadSeams reads seam positions from a text file with one 1-based column
// index per line, the left pixel of each new subswath. Blank lines and
// lines starting with # are ignored. Returns 0-based indices in file order.
func ReadSeams(fileName string) ([]int, error) {
	f, err := os.Open(fileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: seam file %s does not exist", ErrMissingInput, fileName)
		}
		return nil, fmt.Errorf("%w: %v", ErrMissingInput, err)
	}
	defer f.Close()

	var seams []int
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		index, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %q is not a column index", ErrContract, fileName, lineNo, line)
		}
		if index < 1 {
			return nil, fmt.Errorf("%w: %s line %d: column index %d is not 1-based", ErrContract, fileName, lineNo, index)
		}
		seams = append(seams, index-1)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return seams, nil
}
