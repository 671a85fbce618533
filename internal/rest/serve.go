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

// Package rest serves seam correction jobs over HTTP.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/evavra/ionospheric-correction/internal/config"
	"github.com/evavra/ionospheric-correction/internal/grid"
	"github.com/evavra/ionospheric-correction/internal/pipeline"
	"github.com/evavra/ionospheric-correction/web"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carrying the id of a correction job
const JobIDHeader = "X-Job-ID"

// Server settings shared by all requests
type Server struct {
	GMT string // GMT executable for registration fixes. Requests cannot override it
}

// Serve listens on the given address, e.g. ":8080", until it fails
func (s *Server) Serve(addr string) error {
	return s.Router().Run(addr)
}

// Router returns the API routes
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.GET("/", getIndex)
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.POST("/stats", postStats)
			v1.POST("/correct", s.postCorrect)
		}
	}
	return r
}

func getIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
}

func getPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

func printArgs(logWriter io.Writer, prefix, suffix string, args interface{}) error {
	m, err := json.MarshalIndent(args, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(logWriter, "%s%s%s", prefix, string(m), suffix)
	return nil
}

// Only relative paths inside the working directory tree are served
func isPathAllowed(p string) bool {
	if filepath.IsAbs(p) {
		return false // relative paths only
	}
	if strings.Contains(p, "..") {
		return false // no going outside the tree
	}
	return true
}

func checkPaths(paths ...string) error {
	for _, p := range paths {
		if p != "" && p != config.Auto && !isPathAllowed(p) {
			return fmt.Errorf("file name %s outside current directory tree", p)
		}
	}
	return nil
}

func (s *Server) postCorrect(c *gin.Context) {
	job := config.DefaultJob()
	if err := c.ShouldBindJSON(job); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	job.GMT = s.GMT
	if err := checkPaths(job.Grid, job.Seams, job.Output, job.Preview, job.Profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := job.Check(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logWriter := c.Writer
	header := logWriter.Header()
	header.Set("Content-Type", "text/plain")
	header.Set(JobIDHeader, uuid.New().String())
	logWriter.WriteHeader(http.StatusOK)

	if err := printArgs(logWriter, "Arguments:\n", "\n", job); err != nil {
		fmt.Fprintf(logWriter, "Error printing arguments: %s\n", err.Error())
		return
	}

	rep, err := pipeline.RunContext(c.Request.Context(), job, pipeline.NewContext(logWriter))
	if err != nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
		logWriter.Flush()
		return
	}
	m, err := json.Marshal(rep)
	if err != nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
	} else {
		fmt.Fprintf(logWriter, "%s\n", m)
	}
	logWriter.Flush()
}

type postStatsArgs struct {
	Grid  string   `json:"grid"`
	Grids []string `json:"grids"`
}

func postStats(c *gin.Context) {
	var args postStatsArgs
	if err := c.ShouldBindJSON(&args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fileNames := args.Grids
	if args.Grid != "" {
		fileNames = append([]string{args.Grid}, fileNames...)
	}
	if len(fileNames) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no grid files"})
		return
	}
	if err := checkPaths(fileNames...); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pc := pipeline.NewContext(io.Discard)
	outs, err := pipeline.SummarizeFiles(fileNames, pc)
	res := gin.H{"files": outs}
	if err != nil {
		res["error"] = err.Error()
		if len(outs) == 0 {
			status := http.StatusUnprocessableEntity
			if errors.Is(err, grid.ErrNotFound) {
				status = http.StatusNotFound
			}
			c.JSON(status, res)
			return
		}
	}
	c.JSON(http.StatusOK, res)
}
