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

// -- This file is where the program entry is.
// VigilantPRT takes a finished BSP tree of a Quake-style level and builds the
// portal graph: convex windows between every two adjacent leaves. Portal
// generation follows the qbsp lineage (id Software's qbsp, Q2 tools, ericw's
// tools); cluster handling is the detail brush scheme of Q2 and ericw-tools
package main

import (
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
)

// CompileResult is what a compilation pass hands to output writers. VisGraph
// holds the portals of the vis pass and stays alive until it is written
type CompileResult struct {
	Report    *PortalReport
	VisGraph  *PortalGraph
	Leaks     []NodeID
	Leaked    bool
	WritePrt  bool
	NumLeaves int
}

// CompilePortals runs the whole compilation pass on a loaded tree: full
// portal graph (with detail) for verification, clusters and leak check, then
// teardown and the vis graph, where detail separators are leaves
func CompilePortals(ctx *PassContext, tree *Tree) (*CompileResult, error) {
	graph := NewPortalGraph(tree.NumNodes())
	honourDetail := ctx.Options.Detail

	ctx.Log.Printf("Building full portal graph...")
	if err := MakeTreePortals(ctx, tree, graph, false); err != nil {
		return nil, err
	}
	if err := VerifyPortals(ctx, tree, graph, false); err != nil {
		FreeTreePortals(tree, graph)
		return nil, err
	}
	numClusters := AssignClusters(ctx, tree, graph, honourDetail)
	leaks := FloodFromOutside(tree, graph)
	leaked := ReportLeak(ctx, tree, leaks)
	ctx.LogStats("Full portal graph")

	report := BuildPortalReport(ctx, tree, graph, false, leaks)
	report.AddPhase("full", ctx.Stats.Snapshot())
	numLeaves := len(tree.GraphLeaves(false))

	FreeTreePortals(tree, graph)
	if err := AssertNoPortals(tree, graph); err != nil {
		return nil, err
	}

	ctx.Stats.Reset()
	ctx.Log.Printf("Building vis portal graph...")
	stopAtDetail := honourDetail
	if err := MakeTreePortals(ctx, tree, graph, stopAtDetail); err != nil {
		return nil, err
	}
	if err := VerifyPortals(ctx, tree, graph, stopAtDetail); err != nil {
		FreeTreePortals(tree, graph)
		return nil, err
	}
	ctx.State.NumVisClusters = AssignClusters(ctx, tree, graph, honourDetail)
	ctx.State.NumVisLeafs = NumberVisLeafs(tree)
	CountVisPortals(ctx, tree, graph, honourDetail && tree.HasDetail())
	ctx.LogStats("Vis portal graph")
	report.AddPhase("vis", ctx.Stats.Snapshot())
	report.State = ctx.State

	if numClusters != ctx.State.NumVisClusters {
		// the same tree must cluster the same way in both passes
		ctx.Log.Panic("Cluster count changed between passes: %d vs %d",
			numClusters, ctx.State.NumVisClusters)
	}

	ctx.Log.Printf("%d leaves, %d vis leafs, %d clusters, %d vis portals",
		numLeaves, ctx.State.NumVisLeafs, ctx.State.NumVisClusters,
		ctx.State.NumVisPortals)

	return &CompileResult{
		Report:    report,
		VisGraph:  graph,
		Leaks:     leaks,
		Leaked:    leaked,
		WritePrt:  !leaked || ctx.Options.WritePrtOnLeak,
		NumLeaves: numLeaves,
	}, nil
}

func fatal(err error) {
	Log.ErrorValue(err)
	Log.Sync()
	os.Exit(1)
}

func main() {
	timeStart := time.Now()

	config.FromCommandLine()
	config.SetupLogs()

	if config.Version {
		fmt.Println(VERSION)
		os.Exit(0)
	}

	Log.Printf("VigilantPRT ver %s", VERSION)
	Log.Printf("Copyright (c)   2022-2025 VigilantDoomer")
	Log.Printf("Portal generation is built upon ideas first implemented in qbsp by id Software, and its descendants, and is distributed under the terms of GNU General Public License v2.")

	if err := config.Validate(); err != nil {
		fatal(err)
	}

	if config.CPUProfile != "" {
		f, err := os.Create(config.CPUProfile)
		if err != nil {
			Log.Printf("Could not create CPU profile: %s", err.Error())
		} else {
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				Log.Printf("Could not start CPU profile: %s", err.Error())
			} else {
				defer pprof.StopCPUProfile()
			}
		}
	}

	opts, err := LoadBuildOptions(config.Options)
	if err != nil {
		fatal(err)
	}
	opts = config.ApplyTo(opts)
	if err := opts.Validate(); err != nil {
		fatal(err)
	}

	if !run(opts) {
		Log.Sync()
		os.Exit(1)
	}
	Log.Printf("Took %s", time.Since(timeStart))
}

// run is main minus process exit, so that deferred cleanup always happens
func run(opts BuildOptions) bool {
	timeStart := time.Now()
	mainFileControl := FileControl{}
	defer mainFileControl.Shutdown()

	f, err := mainFileControl.OpenInputFile(config.Input)
	if err != nil {
		Log.ErrorValue(err)
		return false
	}

	ctx := NewPassContext(opts)
	logs.WithTag(PassIDTag, ctx.ID.String()).
		WithTag("input", config.Input).
		Info("starting compilation pass")

	tree, err := LoadLevelTree(f, ctx)
	if err != nil {
		ctx.Log.ErrorValue(err)
		return false
	}

	result, err := CompilePortals(ctx, tree)
	if err != nil {
		ctx.Log.ErrorValue(err)
		return false
	}

	bus := StartWriteBus(&mainFileControl)
	if result.WritePrt {
		state := ctx.State
		bus.WritePortalFile(config.Output, func(w io.Writer) error {
			return WritePortalFile(w, tree, result.VisGraph, state)
		})
	} else {
		ctx.Log.Warn("Level leaks, not writing portal file %s", config.Output)
	}
	if config.Report != "" {
		report := result.Report
		indent := config.LogIndent
		bus.WriteReport(config.Report, func(w io.Writer) error {
			return WriteReport(w, report, indent)
		})
	}
	if err := bus.Shutdown(); err != nil {
		ctx.Log.ErrorValue(err)
		return false
	}
	FreeTreePortals(tree, result.VisGraph)

	if !mainFileControl.Success() {
		return false
	}

	if config.Metrics != "" {
		m := NewPassMetrics(ctx)
		m.Observe(time.Since(timeStart), result.Leaked)
		if err := m.WriteTextfile(config.Metrics); err != nil {
			ctx.Log.ErrorValue(err)
			return false
		}
	}
	return true
}
