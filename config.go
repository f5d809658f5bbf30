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
	"io"
	"os"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"gopkg.in/yaml.v3"
)

const VERSION = "0.1a"

/*
Options are given on command line (or through VIGILANTPRT_* environment
variables), portal building tolerances in an optional YAML file:

	epsilon: 0.0001          # plane dedup and ON classification tolerance
	tiny_edge_length: 0.2    # portals with less than 3 longer edges are dropped
	margin: 24               # space around level bounds, if the level file has none
	world_extent: 0          # half-size of base windings, 0 = derived from bounds
	bogus_range: 65536       # coordinates beyond this are garbage
	closure_tolerance: 0.01  # relative leaf closure error tolerated without warning
	threads: 0               # verification workers, 0 = number of cores
	detail: true             # vis pass stops at detail separators
	write_prt_on_leak: false # write portal file even if level leaks
*/

// BuildOptions are tolerances and switches of portal building
type BuildOptions struct {
	Epsilon          float64 `yaml:"epsilon"`
	TinyEdgeLength   float64 `yaml:"tiny_edge_length"`
	Margin           float64 `yaml:"margin"`
	WorldExtent      float64 `yaml:"world_extent"`
	BogusRange       float64 `yaml:"bogus_range"`
	ClosureTolerance float64 `yaml:"closure_tolerance"`
	Threads          int     `yaml:"threads"`
	Detail           bool    `yaml:"detail"`
	WritePrtOnLeak   bool    `yaml:"write_prt_on_leak"`
}

func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		Epsilon:          DEFAULT_ON_EPSILON,
		TinyEdgeLength:   TINY_EDGE_LENGTH,
		Margin:           SIDESPACE,
		WorldExtent:      0,
		BogusRange:       DEFAULT_BOGUS_RANGE,
		ClosureTolerance: 0.01,
		Threads:          0,
		Detail:           true,
		WritePrtOnLeak:   false,
	}
}

func (o BuildOptions) Validate() error {
	switch {
	case o.Epsilon <= 0 || o.Epsilon >= 1:
		return errors.New("epsilon must be in (0, 1)").
			WithType(ErrTypeConfig).
			WithTag("epsilon", o.Epsilon)
	case o.TinyEdgeLength < 0:
		return errors.New("tiny edge length must not be negative").
			WithType(ErrTypeConfig).
			WithTag("tiny_edge_length", o.TinyEdgeLength)
	case o.Margin < 0:
		return errors.New("margin must not be negative").
			WithType(ErrTypeConfig).
			WithTag("margin", o.Margin)
	case o.WorldExtent < 0:
		return errors.New("world extent must not be negative").
			WithType(ErrTypeConfig).
			WithTag("world_extent", o.WorldExtent)
	case o.BogusRange <= 0:
		return errors.New("bogus range must be positive").
			WithType(ErrTypeConfig).
			WithTag("bogus_range", o.BogusRange)
	case o.ClosureTolerance <= 0:
		return errors.New("closure tolerance must be positive").
			WithType(ErrTypeConfig).
			WithTag("closure_tolerance", o.ClosureTolerance)
	case o.Threads < 0:
		return errors.New("threads must not be negative").
			WithType(ErrTypeConfig).
			WithTag("threads", o.Threads)
	}
	return nil
}

// DecodeBuildOptions reads YAML over base, keys absent from the document
// keep their base values
func DecodeBuildOptions(r io.Reader, base BuildOptions) (BuildOptions, error) {
	opts := base
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && err != io.EOF {
		return base, errors.New("decoding build options failed").
			WithType(ErrTypeConfig).
			Wrap(err)
	}
	if err := opts.Validate(); err != nil {
		return base, err
	}
	return opts, nil
}

// LoadBuildOptions reads options file, or returns defaults if filename is
// empty
func LoadBuildOptions(filename string) (BuildOptions, error) {
	opts := DefaultBuildOptions()
	if filename == "" {
		return opts, nil
	}
	f, err := os.Open(filename)
	if err != nil {
		return opts, errors.New("opening build options failed").
			WithType(ErrTypeConfig).
			WithTag("file", filename).
			Wrap(err)
	}
	defer f.Close()
	return DecodeBuildOptions(f, opts)
}

type ProgramConfig struct {
	Input      string `cli:""        env:"VIGILANTPRT_INPUT"        help:"Level tree file (YAML) to build portals for."`
	Output     string `cli:""        env:"VIGILANTPRT_OUTPUT"       help:"Portal file to write. Defaults to input with .prt extension."`
	Options    string `cli:""        env:"VIGILANTPRT_OPTIONS"      help:"YAML file with portal building options."`
	Report     string `cli:""        env:"VIGILANTPRT_REPORT"       help:"JSON report of the portal graph to write."`
	Metrics    string `cli:""        env:"VIGILANTPRT_METRICS"      help:"Prometheus textfile with pass statistics to write."`
	Threads    int    `cli:""        env:"VIGILANTPRT_THREADS"      help:"Verification workers, overrides options file (0 = keep)."`
	NoDetail   bool   `cli:""        env:"VIGILANTPRT_NO_DETAIL"    help:"Treat detail separators as structural."`
	LeakPrt    bool   `cli:""        env:"VIGILANTPRT_LEAK_PRT"     help:"Write portal file even if the level leaks."`
	Verbosity  int    `cli:""        env:"VIGILANTPRT_VERBOSITY"    help:"Add verbosity to text output (0-2)."`
	LogLevel   string `cli:""        env:"VIGILANTPRT_LOG_LEVEL"    help:"Log level (debug|info|warning|error)."`
	LogIndent  bool   `cli:""        env:"VIGILANTPRT_LOG_INDENT"   help:"Indent logs."`
	CPUProfile string `cli:",hidden" env:"VIGILANTPRT_CPU_PROFILE"  help:"Write cpu profile to file."`
	Version    bool   `cli:""        env:"-"                        help:"Show version."`
	Help       bool   `cli:""        env:"-"                        help:"Show help."`
}

var config *ProgramConfig // global variable that will be accessed from other threads too

func DefaultProgramConfig() *ProgramConfig {
	return &ProgramConfig{
		LogLevel: logs.InfoLevel.String(),
	}
}

func init() {
	// Initialize with defaults, command line is parsed by main
	config = DefaultProgramConfig()
}

// ApplyTo overrides build options with what was given on command line
func (c *ProgramConfig) ApplyTo(opts BuildOptions) BuildOptions {
	if c.Threads > 0 {
		opts.Threads = c.Threads
	}
	if c.NoDetail {
		opts.Detail = false
	}
	if c.LeakPrt {
		opts.WritePrtOnLeak = true
	}
	return opts
}
