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
	"runtime"
	"runtime/pprof"
	"strconv"
	"time"

	ic "github.com/evavra/ionospheric-correction/internal"
	"github.com/evavra/ionospheric-correction/internal/config"
	"github.com/evavra/ionospheric-correction/internal/pipeline"
	"github.com/evavra/ionospheric-correction/internal/rest"
	"github.com/evavra/ionospheric-correction/internal/seam"
	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"
)

const version = "0.1.0"

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")

var (
	jobFile      = flag.String("config", "", "load job from YAML `file`. Flags given explicitly override its values")
	out          = flag.String("out", config.DefaultOutput, "save corrected grid to `file`")
	log          = flag.String("log", config.Auto, "save log output to `file`. `%auto` replaces suffix of output file with .log")
	registration = flag.Bool("T", true, "fix grid registration with gmt grdedit after saving")
	gmt          = flag.String("gmt", "gmt", "GMT executable for the registration fix")
	previewFile  = flag.String("preview", "", "save colour preview of the corrected grid to `file` (.jpg, .png, .tif). `%auto` replaces suffix of output file with .jpg")
	previewMode  = flag.String("previewMode", "wrap", "preview colouring, wrap=cyclic phase or linear=colour ramp")
	profileFile  = flag.String("profile", "", "save plot of column medians before and after correction to `file`. `%auto` replaces suffix of output file with _profile.png")
	verbose      = flag.Bool("v", false, "also log the sampled windows of each seam")
)

var (
	addr   = flag.String("addr", ":8080", "listen on given address for serve")
	chroot = flag.String("chroot", "", "change filesystem root to `dir` before serving, requires root")
	setuid = flag.Int("setuid", -1, "change user id before serving, -1=keep")
)

// Returned for command lines that only warrant the usage text
var errUsage = errors.New("usage")

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `seamfix Copyright (c) 2021 The ionospheric-correction authors
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Removes phase offsets between the subswaths of a merged, unwrapped interferogram.

Usage: %s [-flag value] correct grd_file seam_file seam_width disp_max
       %s [-flag value] correct -config job.yaml
       %s [-flag value] (stats|serve|legal|version|help) (grd0 ... grdn)

Arguments:
  grd_file   unwrapped phase grid, netCDF
  seam_file  column of each seam between subswaths, one 1-based index per line
  seam_width number of columns sampled on each side of a seam
  disp_max   pixels further than this from the global median are discarded, in radians

Commands:
  correct Correct subswath offsets and save the corrected grid
  stats   Show grid statistics
  serve   Serve the REST API
  legal   Show license and attribution information
  version Show version information

Flags:
`, os.Args[0], os.Args[0], os.Args[0])
	flag.PrintDefaults()
}

func main() {
	start := time.Now()
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}
	// flags may also follow the command
	cmd := args[0]
	flag.CommandLine.Parse(args[1:])
	args = append([]string{cmd}, flag.Args()...)

	// Enable CPU profiling if flagged
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			ic.LogFatal("Could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			ic.LogFatal("Could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	var err error
	switch args[0] {
	case "correct":
		err = cmdCorrect(args[1:])
	case "stats":
		err = cmdStats(args[1:])
	case "serve":
		err = cmdServe()
	case "legal":
		cmdLegal()
	case "version":
		cmdVersion()
	case "help", "?":
		flag.Usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command '%s'\n\n", args[0])
		flag.Usage()
		os.Exit(2)
	}

	if errors.Is(err, errUsage) {
		flag.Usage()
		return
	}
	if err != nil {
		ic.LogPrintln(errorMessage(err))
		ic.LogSync()
		if *cpuprofile != "" {
			pprof.StopCPUProfile()
		}
		os.Exit(exitCode(err))
	}
	if args[0] == "correct" || args[0] == "stats" {
		ic.LogPrintf("Total running time %v\n", time.Since(start))
	}
	ic.LogSync()
}

// Corrects a single grid
func cmdCorrect(args []string) error {
	job, err := jobFromArgs(args)
	if err != nil {
		return err
	}

	if fileName := job.ExpandAuto(*log, ".log"); fileName != "" {
		if err := ic.LogAlsoToFile(fileName); err != nil {
			return fmt.Errorf("unable to open logfile '%s': %w", fileName, err)
		}
	}

	_, err = pipeline.Run(job, pipeline.NewContext(ic.LogWriter()))
	return err
}

// Builds the job from an optional job file, positional arguments and
// explicitly given flags, in that order of precedence
func jobFromArgs(args []string) (*config.Job, error) {
	job := config.DefaultJob()
	if *jobFile != "" {
		var err error
		if job, err = config.LoadJob(*jobFile); err != nil {
			return nil, err
		}
		if len(args) != 0 && len(args) != 4 {
			return nil, errUsage
		}
	} else if len(args) != 4 {
		return nil, errUsage
	}

	if len(args) == 4 {
		width, err := strconv.Atoi(args[2])
		if err != nil {
			return nil, fmt.Errorf("%w: seam width %q is not an integer", seam.ErrContract, args[2])
		}
		dispMax, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: displacement threshold %q is not a number", seam.ErrContract, args[3])
		}
		job.Grid, job.Seams, job.Width, job.DispMax = args[0], args[1], width, dispMax
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["out"] {
		job.Output = *out
	}
	if set["T"] {
		job.Registration = *registration
	}
	if set["gmt"] {
		job.GMT = *gmt
	}
	if set["preview"] {
		job.Preview = *previewFile
	}
	if set["previewMode"] {
		job.PreviewMode = *previewMode
	}
	if set["profile"] {
		job.Profile = *profileFile
	}
	if set["v"] {
		job.Verbose = *verbose
	}
	return job, nil
}

// Shows statistics for one or more grids, expanding wildcards
func cmdStats(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	fileNames := []string{}
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("%w: %s", seam.ErrContract, err.Error())
		}
		if len(matches) == 0 {
			matches = []string{pattern} // report as missing below
		}
		fileNames = append(fileNames, matches...)
	}
	_, err := pipeline.SummarizeFiles(fileNames, pipeline.NewContext(ic.LogWriter()))
	return err
}

// Serves the REST API until it fails
func cmdServe() error {
	logWriter := ic.LogWriter()
	if err := rest.MakeSandbox(*chroot, *setuid, logWriter); err != nil {
		return err
	}
	fmt.Fprintf(logWriter, "Serving on %s\n", *addr)
	return (&rest.Server{GMT: *gmt}).Serve(*addr)
}

// Shows version and platform information
func cmdVersion() {
	ic.LogPrintf("seamfix version %s, built with %s for %s/%s\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	ic.LogPrintf("CPU %s with %d physical cores, %d logical cores, %d MB physical memory\n",
		cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores, memory.TotalMemory()/1024/1024)
}

// Shows licensing information
func cmdLegal() {
	ic.LogPrint(legal)
}

// The error text already names its class, e.g. "missing input: ..."
func errorMessage(err error) string {
	return "Error: " + err.Error()
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, seam.ErrMissingInput):
		return 1
	case errors.Is(err, seam.ErrContract):
		return 2
	}
	return 3
}
