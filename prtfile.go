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

// Portal file for vis
package main

import (
	"io"
	"strconv"
	"strings"
)

const (
	PORTALFILE  = "PRT1"
	PORTALFILE2 = "PRT2"
)

func formatCoord(v float64) string {
	// -0 would look odd
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// portalSides returns vis numbers of portal sides: vis leaf numbers when
// there is no detail, cluster numbers otherwise
func portalSides(tree *Tree, p *Portal, usesDetail bool) (int, int) {
	n0 := tree.Node(p.Nodes[0])
	n1 := tree.Node(p.Nodes[1])
	if usesDetail {
		return n0.Cluster, n1.Cluster
	}
	return n0.VisLeafNum, n1.VisLeafNum
}

func writePortalLine(w io.Writer, tree *Tree, p *Portal, usesDetail bool) error {
	a, b := portalSides(tree, p, usesDetail)

	// sometimes planes get turned around when they are very near the
	// changeover point between different axis. Interpret the plane the same
	// way vis will, and flip the side orders if needed
	plane := tree.Planes.Get(p.PlaneNum)
	if p.Winding.Plane().Normal.Dot(plane.Normal) < 0.99 {
		a, b = b, a
	}

	var sb strings.Builder
	sb.WriteString(strconv.Itoa(len(p.Winding)))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(a))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(b))
	sb.WriteByte(' ')
	for _, pt := range p.Winding {
		sb.WriteByte('(')
		for i := 0; i < 3; i++ {
			sb.WriteString(formatCoord(pt[i]))
			sb.WriteByte(' ')
		}
		sb.WriteString(") ")
	}
	return WriterPrintfln(w, false, "%s", strings.TrimRight(sb.String(), " "))
}

// WritePortalFile writes portal graph of the vis pass. Portal state, vis leaf
// numbers and clusters must have been computed
func WritePortalFile(w io.Writer, tree *Tree, graph *PortalGraph, state PortalState) error {
	var err error
	if state.UsesDetail {
		err = WriterPrintfln(w, false, PORTALFILE2)
		if err == nil {
			err = WriterPrintfln(w, false, "%d", state.NumVisLeafs)
		}
		if err == nil {
			err = WriterPrintfln(w, false, "%d", state.NumVisClusters)
		}
	} else {
		err = WriterPrintfln(w, false, PORTALFILE)
		if err == nil {
			err = WriterPrintfln(w, false, "%d", state.NumVisLeafs)
		}
	}
	if err == nil {
		err = WriterPrintfln(w, false, "%d", state.NumVisPortals)
	}
	if err != nil {
		return err
	}

	for _, pid := range graph.LivePortals() {
		p := graph.Portal(pid)
		if !IsVisPortal(tree, p) {
			continue
		}
		if err := writePortalLine(w, tree, p, state.UsesDetail); err != nil {
			return err
		}
	}

	if state.UsesDetail {
		// cluster of every vis leaf, in vis leaf order
		for _, id := range tree.SubtreeLeaves(tree.HeadNode) {
			n := tree.Node(id)
			if n.VisLeafNum < 0 {
				continue
			}
			if err := WriterPrintfln(w, false, "%d", n.Cluster); err != nil {
				return err
			}
		}
	}
	return nil
}
