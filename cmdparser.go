// Copyright (C) 2022-2025, VigilantDoomer
//
// This file is part of VigilantPRT program.
//
// VigilantPRT is free software: you can redistribute it
// and/or modify it under the terms of GNU General Public License
// as published by the Free Software Foundation, either version 2 of
// the License, or (at your option) any later version.
//
// VigilantPRT is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with VigilantPRT.  If not, see <https://www.gnu.org/licenses/>.
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
)

// FromCommandLine fills config from command line and environment
func (c *ProgramConfig) FromCommandLine() {
	cli.Register().
		Help("Builds portal file of a BSP tree for vis. Example: vigilantprt -input level.yaml -report level.json").
		Options(c)
	cli.Load()
}

// Validate checks options given by user and fills derived ones
func (c *ProgramConfig) Validate() error {
	if c.Input == "" {
		return errors.New("you must specify an input file").
			WithType(ErrTypeConfig)
	}
	if c.Verbosity < 0 {
		return errors.New("verbosity must not be negative").
			WithType(ErrTypeConfig).
			WithTag("verbosity", c.Verbosity)
	}
	if c.Threads < 0 {
		return errors.New("threads must not be negative").
			WithType(ErrTypeConfig).
			WithTag("threads", c.Threads)
	}
	if c.Output == "" {
		c.Output = DefaultOutputName(c.Input)
	}
	if sameFile(c.Output, c.Input) {
		return errors.New("output file would overwrite input file").
			WithType(ErrTypeConfig).
			WithTag("file", c.Input)
	}
	return nil
}

// DefaultOutputName replaces extension of input file with .prt
func DefaultOutputName(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + ".prt"
}

// sameFile catches same path as well as hardlinks and symlinks. Output file
// not existing yet can only collide by name
func sameFile(a, b string) bool {
	f1, err1 := os.Stat(a)
	f2, err2 := os.Stat(b)
	if err1 == nil && err2 == nil {
		return os.SameFile(f1, f2)
	}
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return a == b
	}
	return aa == bb
}

// SetupLogs applies log options: level, encoder and verbosity
func (c *ProgramConfig) SetupLogs() {
	logs.SetLevel(logs.ParseLevel(c.LogLevel))
	logs.Encoder = json.Marshal
	if c.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}
	errors.Encoder = json.Marshal
	Log.SetVerbosity(c.Verbosity)
}
