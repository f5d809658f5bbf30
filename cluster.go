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

// cluster.go
package main

// ClusterRoot returns the node that represents the cluster id belongs to:
// the topmost detail separator above it, or id itself when there is none.
// Every leaf below a detail separator belongs to one cluster
func ClusterRoot(tree *Tree, id NodeID) NodeID {
	root := id
	for n := tree.Node(id).Parent; n != NO_NODE; n = tree.Node(n).Parent {
		if tree.Node(n).Detail {
			root = n
		}
	}
	return root
}

// MergeContents combines contents of two regions of the same cluster. The
// second return value reports a conflict: two different liquids in one
// cluster
func MergeContents(c0, c1 Contents) (Contents, bool) {
	flags := (c0 | c1) &^ CONTENTS_NATIVE_MASK
	n0 := c0.Native()
	n1 := c1.Native()
	conflict := false
	var native Contents
	switch {
	case n0 == n1:
		native = n0
	case n0 == CONTENTS_EMPTY || n1 == CONTENTS_EMPTY:
		native = CONTENTS_EMPTY
	case c0.IsLiquid():
		native = n0
		conflict = c1.IsLiquid()
	case c1.IsLiquid():
		native = n1
	case n0 == CONTENTS_SKY || n1 == CONTENTS_SKY:
		native = CONTENTS_SKY
	default:
		native = n0
	}
	return native | flags, conflict
}

// subtreeContents merges contents of every leaf below id, front first
func subtreeContents(tree *Tree, id NodeID, conflicts *int) Contents {
	node := tree.Node(id)
	if node.IsLeaf() {
		return node.Contents
	}
	c0 := subtreeContents(tree, node.Children[0], conflicts)
	c1 := subtreeContents(tree, node.Children[1], conflicts)
	c, conflict := MergeContents(c0, c1)
	if conflict && conflicts != nil {
		*conflicts++
	}
	return c
}

// ClusterContents returns merged contents of the cluster node belongs to
func ClusterContents(tree *Tree, id NodeID) Contents {
	return subtreeContents(tree, ClusterRoot(tree, id), nil)
}

// graphLeafContents is the contents a leaf of portal graph presents to vis:
// real leaves have their own, detail separators the merge of their subtree
func graphLeafContents(tree *Tree, id NodeID) Contents {
	node := tree.Node(id)
	if node.IsLeaf() {
		return node.Contents
	}
	return subtreeContents(tree, id, nil)
}

// AssignClusters numbers clusters in tree order and marks portals whose both
// sides end up in the same cluster. Solid clusters get -1. When honourDetail
// is false every leaf is a cluster of its own. Returns number of clusters
func AssignClusters(ctx *PassContext, tree *Tree, graph *PortalGraph, honourDetail bool) int {
	next := 0
	conflicts := 0

	var setCluster func(id NodeID, cluster int)
	setCluster = func(id NodeID, cluster int) {
		node := tree.Node(id)
		node.Cluster = cluster
		if node.IsLeaf() {
			return
		}
		setCluster(node.Children[0], cluster)
		setCluster(node.Children[1], cluster)
	}

	var walk func(id NodeID)
	walk = func(id NodeID) {
		node := tree.Node(id)
		if node.IsLeaf() || (honourDetail && node.Detail) {
			contents := subtreeContents(tree, id, &conflicts)
			cluster := -1
			if !contents.IsSolid() {
				cluster = next
				next++
			}
			setCluster(id, cluster)
			return
		}
		node.Cluster = -1
		walk(node.Children[0])
		walk(node.Children[1])
	}

	tree.Node(tree.Outside).Cluster = -1
	if tree.HeadNode != NO_NODE {
		walk(tree.HeadNode)
	}

	for _, pid := range graph.LivePortals() {
		p := graph.Portal(pid)
		c0 := tree.Node(p.Nodes[0]).Cluster
		c1 := tree.Node(p.Nodes[1]).Cluster
		p.SameCluster = c0 != -1 && c0 == c1
	}

	if conflicts > 0 {
		ctx.Stats.ContentConflicts.Add(int64(conflicts))
		ctx.Log.Warn("%d content conflicts while merging clusters (mixed liquids)",
			conflicts)
	}
	return next
}

// NumberVisLeafs gives consecutive numbers, in tree order, to leaves vis
// sees: all non-solid leaves. Returns their count
func NumberVisLeafs(tree *Tree) int {
	count := 0
	for i := range tree.Nodes {
		tree.Nodes[i].VisLeafNum = -1
	}
	if tree.HeadNode == NO_NODE {
		return 0
	}
	for _, id := range tree.SubtreeLeaves(tree.HeadNode) {
		node := tree.Node(id)
		if node.Contents.IsSolid() {
			continue
		}
		node.VisLeafNum = count
		count++
	}
	return count
}

// IsVisPortal tells whether the portal is going to be written for vis: both
// sides are visible regions of different clusters
func IsVisPortal(tree *Tree, p *Portal) bool {
	if p.Nodes[0] == NO_NODE || p.Nodes[1] == NO_NODE || p.Winding == nil {
		return false
	}
	if p.Nodes[0] == tree.Outside || p.Nodes[1] == tree.Outside {
		return false
	}
	if !graphLeafContents(tree, p.Nodes[0]).IsVisible() ||
		!graphLeafContents(tree, p.Nodes[1]).IsVisible() {
		return false
	}
	c0 := tree.Node(p.Nodes[0]).Cluster
	c1 := tree.Node(p.Nodes[1]).Cluster
	return c0 != c1
}

// CountVisPortals fills portal state of the graph vis is going to get
func CountVisPortals(ctx *PassContext, tree *Tree, graph *PortalGraph, usesDetail bool) {
	ctx.State.NumVisPortals = 0
	for _, pid := range graph.LivePortals() {
		if IsVisPortal(tree, graph.Portal(pid)) {
			ctx.State.NumVisPortals++
		}
	}
	ctx.State.UsesDetail = usesDetail
}
