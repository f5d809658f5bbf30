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

// Leak detection: flood from outside through portals
package main

// FloodFromOutside walks the portal graph breadth-first starting at the
// outside node, passing only into leaves that are neither solid nor sky.
// Returns the occupiable leaves reached in the order they were reached. A
// sealed level returns nothing
func FloodFromOutside(tree *Tree, graph *PortalGraph) []NodeID {
	var reached []NodeID
	visited := make([]bool, tree.NumNodes())
	ring := CreateRingNodeID(uint32(tree.NumNodes()))

	visited[tree.Outside] = true
	ring.Enqueue(tree.Outside)
	for !ring.Empty() {
		id := ring.Dequeue()
		for _, pid := range graph.PortalsOf(id) {
			p := graph.Portal(pid)
			other := p.Nodes[0]
			if other == id {
				other = p.Nodes[1]
			}
			if other == NO_NODE || visited[other] {
				continue
			}
			if !graphLeafContents(tree, other).IsVisible() {
				continue
			}
			visited[other] = true
			ring.Enqueue(other)
			reached = append(reached, other)
		}
	}
	return reached
}

// ReportLeak warns about the first leaked leaf. Returns whether there was a
// leak
func ReportLeak(ctx *PassContext, tree *Tree, reached []NodeID) bool {
	if len(reached) == 0 {
		return false
	}
	first := tree.Node(reached[0])
	ctx.Log.Warn("Level leaks: %d leaves reachable from outside, first is leaf %d (%s) at %s",
		len(reached), reached[0], graphLeafContents(tree, reached[0]).String(),
		first.Bounds.toString())
	return true
}
