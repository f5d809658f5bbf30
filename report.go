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

// JSON report of the full portal graph
package main

import (
	"io"

	"github.com/segmentio/encoding/json"
)

type PortalReport struct {
	PassID  string         `json:"pass_id"`
	Version string         `json:"version"`
	Phases  []PhaseReport  `json:"phases"`
	State   PortalState    `json:"state"`
	Leaked  bool           `json:"leaked"`
	Leaks   []NodeID       `json:"leaks,omitempty"`
	Leaves  []LeafReport   `json:"leaves"`
	Portals []PortalRecord `json:"portals"`
}

type PhaseReport struct {
	Name  string              `json:"name"`
	Stats PortalStatsSnapshot `json:"stats"`
}

type LeafReport struct {
	ID       NodeID     `json:"id"`
	Contents string     `json:"contents"`
	Cluster  int        `json:"cluster"`
	Mins     [3]float64 `json:"mins"`
	Maxs     [3]float64 `json:"maxs"`
	Portals  []PortalID `json:"portals"`
}

type PortalRecord struct {
	ID          PortalID     `json:"id"`
	Plane       int          `json:"plane"`
	OnNode      NodeID       `json:"on_node"`
	Nodes       [2]NodeID    `json:"nodes"`
	SameCluster bool         `json:"same_cluster"`
	Area        float64      `json:"area"`
	Center      [3]float64   `json:"center"`
	Winding     [][3]float64 `json:"winding"`
}

// BuildPortalReport captures the graph as it is now. Leaves are the leaves
// of the portal graph
func BuildPortalReport(ctx *PassContext, tree *Tree, graph *PortalGraph,
	stopAtDetail bool, leaks []NodeID) *PortalReport {
	r := &PortalReport{
		PassID:  ctx.ID.String(),
		Version: VERSION,
		Leaked:  len(leaks) > 0,
		Leaks:   leaks,
	}
	for _, id := range tree.GraphLeaves(stopAtDetail) {
		n := tree.Node(id)
		lr := LeafReport{
			ID:       id,
			Contents: graphLeafContents(tree, id).String(),
			Cluster:  n.Cluster,
			Portals:  append([]PortalID{}, graph.PortalsOf(id)...),
		}
		if !n.Bounds.IsEmpty() {
			lr.Mins = vecToArray(n.Bounds.Mins)
			lr.Maxs = vecToArray(n.Bounds.Maxs)
		}
		r.Leaves = append(r.Leaves, lr)
	}
	for _, pid := range graph.LivePortals() {
		p := graph.Portal(pid)
		rec := PortalRecord{
			ID:          pid,
			Plane:       p.PlaneNum,
			OnNode:      p.OnNode,
			Nodes:       p.Nodes,
			SameCluster: p.SameCluster,
			Area:        p.Winding.Area(),
			Center:      vecToArray(p.Winding.Center()),
			Winding:     make([][3]float64, 0, len(p.Winding)),
		}
		for _, pt := range p.Winding {
			rec.Winding = append(rec.Winding, vecToArray(pt))
		}
		r.Portals = append(r.Portals, rec)
	}
	return r
}

func (r *PortalReport) AddPhase(name string, stats PortalStatsSnapshot) {
	r.Phases = append(r.Phases, PhaseReport{Name: name, Stats: stats})
}

func WriteReport(w io.Writer, r *PortalReport, indent bool) error {
	var data []byte
	var err error
	if indent {
		data, err = json.MarshalIndent(r, "", "  ")
	} else {
		data, err = json.Marshal(r)
	}
	if err != nil {
		return err
	}
	if _, err = w.Write(data); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n"))
	return err
}
