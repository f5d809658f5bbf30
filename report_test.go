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
	"testing"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
)

func TestPortalReport(t *testing.T) {
	ctx := newTestContext()
	tree := sealedBoxTree(t, ctx, false, splitRoom(false))
	result, err := CompilePortals(ctx, tree)
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, WriteReport(&b, result.Report, true))

	var r PortalReport
	require.NoError(t, json.Unmarshal([]byte(b.String()), &r))
	require.Equal(t, ctx.ID.String(), r.PassID)
	require.Equal(t, VERSION, r.Version)
	require.False(t, r.Leaked)
	require.Len(t, r.Phases, 2)
	require.Equal(t, "full", r.Phases[0].Name)
	require.Equal(t, "vis", r.Phases[1].Name)
	require.EqualValues(t, 28, r.Phases[0].Stats.PortalSplits)
	require.EqualValues(t, 7, r.Phases[1].Stats.NodePortals)
	require.Equal(t, 1, r.State.NumVisPortals)

	require.Len(t, r.Leaves, 8)
	require.Len(t, r.Portals, 41)
	clusters := map[int]int{}
	for _, leaf := range r.Leaves {
		clusters[leaf.Cluster]++
		if leaf.Contents == "empty" {
			require.Len(t, leaf.Portals, 6)
		}
	}
	require.Equal(t, map[int]int{-1: 6, 0: 1, 1: 1}, clusters)
	for _, p := range r.Portals {
		require.Greater(t, p.Area, 0.0)
		require.GreaterOrEqual(t, len(p.Winding), 3)
		var mean [3]float64
		for _, pt := range p.Winding {
			for i := range mean {
				mean[i] += pt[i] / float64(len(p.Winding))
			}
		}
		for i := range mean {
			require.InDelta(t, mean[i], p.Center[i], 1e-9)
		}
	}
}

func TestPortalReportLeak(t *testing.T) {
	ctx := newTestContext()
	tree := sealedBoxTree(t, ctx, true, emptyRoom)
	result, err := CompilePortals(ctx, tree)
	require.NoError(t, err)
	require.True(t, result.Leaked)
	require.False(t, result.WritePrt)
	require.True(t, result.Report.Leaked)
	require.Len(t, result.Report.Leaks, 2)

	var b strings.Builder
	require.NoError(t, WriteReport(&b, result.Report, false))
	require.Equal(t, 1, strings.Count(b.String(), "\n"))
	require.Contains(t, b.String(), `"leaked":true`)
}

func TestPassMetrics(t *testing.T) {
	ctx := newTestContext()
	tree := sealedBoxTree(t, ctx, false, splitRoom(false))
	_, err := CompilePortals(ctx, tree)
	require.NoError(t, err)

	m := NewPassMetrics(ctx)
	m.Observe(1500*time.Millisecond, false)
	filename := filepath.Join(t.TempDir(), "vigilantprt.prom")
	require.NoError(t, m.WriteTextfile(filename))

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	out := string(data)
	require.Contains(t, out, "vigilantprt_portal_splits_total 28")
	require.Contains(t, out, "vigilantprt_node_portals_total 7")
	require.Contains(t, out, "vigilantprt_vis_portals 1")
	require.Contains(t, out, "vigilantprt_vis_leafs 2")
	require.Contains(t, out, "vigilantprt_leaked 0")
	require.Contains(t, out, "vigilantprt_pass_duration_seconds 1.5")
	require.Contains(t, out, `vigilantprt_info{version="`+VERSION+`"} 1`)

	err = m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	require.Error(t, err)
}
