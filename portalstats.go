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

// portalstats.go
package main

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// PortalStats are counters of a portal build. Verification workers update
// them concurrently, so they are atomics
type PortalStats struct {
	TinyPortals       atomic.Int64
	OnPlanePortals    atomic.Int64
	NodePortals       atomic.Int64
	PortalSplits      atomic.Int64
	SolidSolidPortals atomic.Int64
	ContentConflicts  atomic.Int64
}

// PortalStatsSnapshot is a plain copy of PortalStats, for reports
type PortalStatsSnapshot struct {
	TinyPortals       int64 `json:"tiny_portals"`
	OnPlanePortals    int64 `json:"on_plane_portals"`
	NodePortals       int64 `json:"node_portals"`
	PortalSplits      int64 `json:"portal_splits"`
	SolidSolidPortals int64 `json:"solid_solid_portals"`
	ContentConflicts  int64 `json:"content_conflicts"`
}

func (s *PortalStats) Reset() {
	s.TinyPortals.Store(0)
	s.OnPlanePortals.Store(0)
	s.NodePortals.Store(0)
	s.PortalSplits.Store(0)
	s.SolidSolidPortals.Store(0)
	s.ContentConflicts.Store(0)
}

func (s *PortalStats) Snapshot() PortalStatsSnapshot {
	return PortalStatsSnapshot{
		TinyPortals:       s.TinyPortals.Load(),
		OnPlanePortals:    s.OnPlanePortals.Load(),
		NodePortals:       s.NodePortals.Load(),
		PortalSplits:      s.PortalSplits.Load(),
		SolidSolidPortals: s.SolidSolidPortals.Load(),
		ContentConflicts:  s.ContentConflicts.Load(),
	}
}

// PortalState describes the portal graph that vis is going to see
type PortalState struct {
	NumVisPortals  int  `json:"num_vis_portals"`
	NumVisLeafs    int  `json:"num_vis_leafs"`
	NumVisClusters int  `json:"num_vis_clusters"`
	UsesDetail     bool `json:"uses_detail"`
	NodesDone      int  `json:"nodes_done"`
}

// PassContext is everything that lives for exactly one compilation pass:
// options, the plane table, counters. Nothing about a pass is kept in
// package-level state, so independent passes can run side by side
type PassContext struct {
	ID      uuid.UUID
	Options BuildOptions
	Planes  *PlaneTable
	Stats   *PortalStats
	State   PortalState
	Log     *MyLogger
	// Half-size of base windings, decided from tree bounds
	worldExtent float64
}

func NewPassContext(opts BuildOptions) *PassContext {
	id := uuid.New()
	return &PassContext{
		ID:      id,
		Options: opts,
		Planes:  NewPlaneTable(opts.Epsilon),
		Stats:   &PortalStats{},
		Log:     Log.WithPass(id.String()),
	}
}

// Reset discards everything accumulated by previous pass, giving a new pass
// id. Trees loaded with the old plane table must not be used afterwards
func (ctx *PassContext) Reset() {
	ctx.ID = uuid.New()
	ctx.Planes = NewPlaneTable(ctx.Options.Epsilon)
	ctx.Stats.Reset()
	ctx.State = PortalState{}
	ctx.Log = Log.WithPass(ctx.ID.String())
	ctx.worldExtent = 0
}

// LogStats prints counters the way node builder printed its totals
func (ctx *PassContext) LogStats(what string) {
	s := ctx.Stats.Snapshot()
	ctx.Log.Printf("%s: %d node portals, %d splits, %d tiny portals dropped, %d on-plane portals",
		what, s.NodePortals, s.PortalSplits, s.TinyPortals, s.OnPlanePortals)
	if s.SolidSolidPortals > 0 {
		ctx.Log.Warn("%s: %d portals between two solid leaves", what,
			s.SolidSolidPortals)
	}
	if s.ContentConflicts > 0 {
		ctx.Log.Warn("%s: %d clusters mix different liquids", what,
			s.ContentConflicts)
	}
}
