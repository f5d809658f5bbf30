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
	"math"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func TestUnitCubePortals(t *testing.T) {
	ctx := newTestContext()
	tree, leaf := unitCubeTree(t, ctx)
	graph := NewPortalGraph(tree.NumNodes())

	require.NoError(t, MakeTreePortals(ctx, tree, graph, false))
	require.Len(t, graph.LivePortals(), 6)
	require.Len(t, graph.PortalsOf(leaf), 6)
	require.Len(t, graph.PortalsOf(tree.Outside), 6)

	for _, pid := range graph.PortalsOf(leaf) {
		p := graph.Portal(pid)
		require.Equal(t, leaf, p.Nodes[0], "head node is in front of boundary portals")
		require.Equal(t, tree.Outside, p.Nodes[1])
		require.Equal(t, NO_NODE, p.OnNode)
		require.InDelta(t, 1.0, p.Winding.Area(), 1e-9)
		require.NoError(t, p.Winding.Check(ctx.Options.Epsilon, ctx.Options.BogusRange))
	}

	sum, total := LeafClosure(tree, graph, leaf)
	require.InDelta(t, 0.0, sum.Len(), 1e-9)
	require.InDelta(t, 6.0, total, 1e-9)

	b := tree.Node(leaf).Bounds
	require.True(t, vecEpsilonEqual(b.Mins, mgl64.Vec3{0, 0, 0}, 1e-9))
	require.True(t, vecEpsilonEqual(b.Maxs, mgl64.Vec3{1, 1, 1}, 1e-9))

	require.NoError(t, VerifyPortals(ctx, tree, graph, false))
}

func TestBisectedCubePortals(t *testing.T) {
	ctx := newTestContext()
	tree, front, back := bisectedCubeTree(t, ctx)
	graph := NewPortalGraph(tree.NumNodes())

	require.NoError(t, MakeTreePortals(ctx, tree, graph, false))
	require.Len(t, graph.LivePortals(), 11)
	require.Len(t, graph.PortalsOf(front), 6)
	require.Len(t, graph.PortalsOf(back), 6)
	require.Len(t, graph.PortalsOf(tree.Outside), 10)
	require.Empty(t, graph.PortalsOf(tree.HeadNode))

	shared := portalsBetween(graph, front, back)
	require.Len(t, shared, 1)
	p := graph.Portal(shared[0])
	require.Equal(t, tree.HeadNode, p.OnNode)
	require.Equal(t, tree.Node(tree.HeadNode).PlaneNum, p.PlaneNum)
	require.InDelta(t, 1.0, p.Winding.Area(), 1e-9)
	for _, pt := range p.Winding {
		require.InDelta(t, 0.5, pt[0], 1e-9)
	}
	require.Empty(t, portalsBetween(graph, back, front))

	s := ctx.Stats.Snapshot()
	require.EqualValues(t, 1, s.NodePortals)
	require.EqualValues(t, 4, s.PortalSplits)
	require.EqualValues(t, 0, s.TinyPortals)
	require.EqualValues(t, 0, s.OnPlanePortals)
	require.Equal(t, 1, ctx.State.NodesDone)

	for _, id := range []NodeID{front, back} {
		sum, total := LeafClosure(tree, graph, id)
		require.True(t, closureOK(sum, total, 1e-9), "leaf %d not closed", id)
	}

	require.NoError(t, VerifyPortals(ctx, tree, graph, false))
}

func TestObliqueSplitPortals(t *testing.T) {
	ctx := newTestContext()
	tree := NewTree(ctx.Planes)
	front := tree.AddLeaf(CONTENTS_EMPTY)
	back := tree.AddLeaf(CONTENTS_WATER)
	// x + 2y = 1.5 passes through the middle of the cube
	head := mustNode(t, tree, mgl64.Vec3{1, 2, 0}, 1.5, front, back, false)
	require.NoError(t, tree.SetHead(head))
	tree.Bounds = unitBounds()

	plane := ctx.Planes.Get(tree.Node(head).PlaneNum)
	require.Equal(t, PLANE_ANYY, plane.Type)
	require.InDelta(t, 1.0, plane.Normal.Len(), 1e-12)

	graph := NewPortalGraph(tree.NumNodes())
	require.NoError(t, MakeTreePortals(ctx, tree, graph, false))

	// z faces and x faces are cut, y faces pass whole
	require.Len(t, graph.LivePortals(), 11)
	require.Len(t, graph.PortalsOf(front), 6)
	require.Len(t, graph.PortalsOf(back), 6)
	require.Len(t, graph.PortalsOf(tree.Outside), 10)
	s := ctx.Stats.Snapshot()
	require.EqualValues(t, 4, s.PortalSplits)
	require.EqualValues(t, 1, s.NodePortals)
	require.EqualValues(t, 0, s.TinyPortals)

	shared := portalsBetween(graph, front, back)
	require.Len(t, shared, 1)
	nodePortal := graph.Portal(shared[0]).Winding
	require.InDelta(t, math.Sqrt(1.25), nodePortal.Area(), 1e-9)
	for _, pt := range nodePortal {
		require.Equal(t, SIDE_ON, ClassifyPoint(plane, pt, ctx.Options.Epsilon))
	}

	for _, id := range []NodeID{front, back} {
		sum, total := LeafClosure(tree, graph, id)
		require.True(t, closureOK(sum, total, 1e-9), "leaf %d not closed: %v", id, sum)
		require.InDelta(t, 3+math.Sqrt(1.25), total, 1e-9)
		for _, pid := range graph.PortalsOf(id) {
			p := graph.Portal(pid)
			require.True(t, p.Nodes[0] == id || p.Nodes[1] == id)
			require.NoError(t, p.Winding.Check(ctx.Options.Epsilon, ctx.Options.BogusRange))
		}
	}
	require.NoError(t, VerifyPortals(ctx, tree, graph, false))
}

func TestTinyFragmentsCounted(t *testing.T) {
	ctx := newTestContext()
	tree := NewTree(ctx.Planes)
	front := tree.AddLeaf(CONTENTS_EMPTY)
	back := tree.AddLeaf(CONTENTS_EMPTY)
	// leaves a sliver 0.1 wide behind the plane
	head := mustNode(t, tree, axisX, 0.1, front, back, false)
	require.NoError(t, tree.SetHead(head))
	tree.Bounds = unitBounds()
	graph := NewPortalGraph(tree.NumNodes())

	require.NoError(t, MakeTreePortals(ctx, tree, graph, false))
	s := ctx.Stats.Snapshot()
	require.EqualValues(t, 4, s.TinyPortals, "back pieces of the four side faces")
	require.EqualValues(t, 0, s.PortalSplits)
	require.EqualValues(t, 1, s.NodePortals)

	require.Len(t, graph.LivePortals(), 7)
	require.Len(t, graph.PortalsOf(front), 6)
	require.Len(t, graph.PortalsOf(back), 2)
	require.Len(t, portalsBetween(graph, front, back), 1)
}

func TestSplitFailed(t *testing.T) {
	ctx := newTestContext()
	tree, _, _ := bisectedCubeTree(t, ctx)
	graph := NewPortalGraph(tree.NumNodes())

	// long edges on both sides of x = 0.5, but no area to speak of
	zigzag := Winding{
		{1, 0, 0},
		{-1, 1e-7, 0},
		{1, 2e-7, 0},
		{-1, 3e-7, 0},
	}
	require.False(t, zigzag.IsTiny(ctx.Options.TinyEdgeLength))
	pid := graph.allocPortal(Portal{
		PlaneNum: ctx.Planes.FindPlane(axisZ, 0),
		OnNode:   NO_NODE,
		Winding:  zigzag,
	})
	require.NoError(t, graph.AddPortalToNodes(pid, tree.HeadNode, tree.Outside))

	w := &PortalsWork{ctx: ctx, tree: tree, graph: graph}
	err := w.SplitNodePortals(tree.HeadNode)
	require.Error(t, err)
	require.True(t, errors.IsType(err, ErrTypeSplitFailed))
}

func TestPortalSymmetry(t *testing.T) {
	ctx := newTestContext()
	tree := sealedBoxTree(t, ctx, false, splitRoom(false))
	graph := NewPortalGraph(tree.NumNodes())
	require.NoError(t, MakeTreePortals(ctx, tree, graph, false))

	listed := make(map[PortalID]int)
	for i := range tree.Nodes {
		id := NodeID(i)
		if len(graph.PortalsOf(id)) > 0 {
			require.True(t, id == tree.Outside || tree.IsGraphLeaf(id, false),
				"node %d is not a leaf but has portals", id)
		}
		for _, pid := range graph.PortalsOf(id) {
			p := graph.Portal(pid)
			require.True(t, p.Nodes[0] == id || p.Nodes[1] == id)
			listed[pid]++
		}
	}
	for _, pid := range graph.LivePortals() {
		require.Equal(t, 2, listed[pid], "portal %d", pid)
	}
	require.Len(t, graph.LivePortals(), 41)
	require.Len(t, listed, 41)
}

func TestSealedBoxPortals(t *testing.T) {
	ctx := newTestContext()
	tree := sealedBoxTree(t, ctx, false, emptyRoom)
	graph := NewPortalGraph(tree.NumNodes())
	require.NoError(t, MakeTreePortals(ctx, tree, graph, false))

	require.Len(t, graph.LivePortals(), 36)
	require.Len(t, graph.PortalsOf(tree.Outside), 18)
	room := tree.LeafForPoint(mgl64.Vec3{32, 32, 32})
	require.Len(t, graph.PortalsOf(room), 6)

	s := ctx.Stats.Snapshot()
	require.EqualValues(t, 6, s.NodePortals)
	require.EqualValues(t, 24, s.PortalSplits)

	for _, id := range tree.GraphLeaves(false) {
		sum, total := LeafClosure(tree, graph, id)
		require.True(t, closureOK(sum, total, 1e-6), "leaf %d not closed", id)
	}
	require.NoError(t, VerifyPortals(ctx, tree, graph, false))

	b := tree.Node(room).Bounds
	require.True(t, vecEpsilonEqual(b.Mins, mgl64.Vec3{16, 16, 16}, 1e-9))
	require.True(t, vecEpsilonEqual(b.Maxs, mgl64.Vec3{48, 48, 48}, 1e-9))
}

func TestDegenerateBounds(t *testing.T) {
	ctx := newTestContext()
	tree, _ := unitCubeTree(t, ctx)
	tree.Bounds = NewAABB(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 0})
	graph := NewPortalGraph(tree.NumNodes())

	err := MakeTreePortals(ctx, tree, graph, false)
	require.Error(t, err)
	require.Equal(t, ErrTypeDegenerateBounds, errors.Type(err))
	require.NoError(t, AssertNoPortals(tree, graph))
	require.Equal(t, 0, graph.NumPortals())

	tree.Bounds = EmptyAABB()
	err = MakeTreePortals(ctx, tree, graph, false)
	require.Equal(t, ErrTypeDegenerateBounds, errors.Type(err))
}

func TestTeardownAndRebuild(t *testing.T) {
	ctx := newTestContext()
	tree := sealedBoxTree(t, ctx, false, splitRoom(false))
	graph := NewPortalGraph(tree.NumNodes())

	require.NoError(t, MakeTreePortals(ctx, tree, graph, false))
	first := len(graph.LivePortals())

	err := MakeTreePortals(ctx, tree, graph, false)
	require.Error(t, err, "building over existing portals")
	require.Equal(t, ErrTypePortalsRemain, errors.Type(err))

	FreeTreePortals(tree, graph)
	require.NoError(t, AssertNoPortals(tree, graph))
	for i := range tree.Nodes {
		require.True(t, tree.Nodes[i].Bounds.IsEmpty())
	}

	ctx.Stats.Reset()
	require.NoError(t, MakeTreePortals(ctx, tree, graph, false))
	require.Equal(t, first, len(graph.LivePortals()))
	require.EqualValues(t, 28, ctx.Stats.PortalSplits.Load())
	require.EqualValues(t, 7, ctx.Stats.NodePortals.Load())
}

func TestDetailPortals(t *testing.T) {
	ctx := newTestContext()
	tree := sealedBoxTree(t, ctx, false, splitRoom(true))
	graph := NewPortalGraph(tree.NumNodes())

	require.NoError(t, MakeTreePortals(ctx, tree, graph, false))
	require.Len(t, graph.LivePortals(), 41)
	require.NoError(t, VerifyPortals(ctx, tree, graph, false))
	FreeTreePortals(tree, graph)

	require.NoError(t, MakeTreePortals(ctx, tree, graph, true))
	require.Len(t, graph.LivePortals(), 36)
	room := tree.LeafForPoint(mgl64.Vec3{40, 32, 32})
	sep := tree.Node(room).Parent
	require.True(t, tree.Node(sep).Detail)
	require.Len(t, graph.PortalsOf(sep), 6)
	require.Empty(t, graph.PortalsOf(room))
	require.NoError(t, VerifyPortals(ctx, tree, graph, true))
}

// Two nodes on the same plane: the portal of the upper one lies on the plane
// of the lower one and must go to the child on its side
func onPlaneTree(t *testing.T, ctx *PassContext, flipped bool, c1, c2 Contents) (*Tree, NodeID, NodeID, NodeID) {
	tree := NewTree(ctx.Planes)
	l1 := tree.AddLeaf(c1)
	l2 := tree.AddLeaf(c2)
	var f NodeID
	if flipped {
		f = mustNode(t, tree, axisX.Mul(-1), -0.5, l1, l2, false)
	} else {
		f = mustNode(t, tree, axisX, 0.5, l1, l2, false)
	}
	b := tree.AddLeaf(CONTENTS_EMPTY)
	h := mustNode(t, tree, axisX, 0.5, f, b, false)
	require.NoError(t, tree.SetHead(h))
	tree.Bounds = unitBounds()
	return tree, l1, l2, b
}

func TestOnPlanePortal(t *testing.T) {
	ctx := newTestContext()
	tree, l1, l2, b := onPlaneTree(t, ctx, false, CONTENTS_EMPTY, CONTENTS_SOLID)
	graph := NewPortalGraph(tree.NumNodes())

	require.NoError(t, MakeTreePortals(ctx, tree, graph, false))
	require.Len(t, graph.LivePortals(), 11)
	require.Len(t, graph.PortalsOf(l1), 6)
	require.Empty(t, graph.PortalsOf(l2))
	require.Len(t, graph.PortalsOf(b), 6)
	require.Len(t, portalsBetween(graph, l1, b), 1)

	s := ctx.Stats.Snapshot()
	require.EqualValues(t, 1, s.OnPlanePortals)
	require.EqualValues(t, 1, s.NodePortals)
	require.EqualValues(t, 4, s.PortalSplits)

	require.NoError(t, VerifyPortals(ctx, tree, graph, false))
}

func TestOnPlanePortalFlipped(t *testing.T) {
	ctx := newTestContext()
	tree, l1, l2, b := onPlaneTree(t, ctx, true, CONTENTS_SOLID, CONTENTS_EMPTY)
	graph := NewPortalGraph(tree.NumNodes())

	require.NoError(t, MakeTreePortals(ctx, tree, graph, false))
	require.Empty(t, graph.PortalsOf(l1))
	require.Len(t, graph.PortalsOf(l2), 6)
	require.Len(t, portalsBetween(graph, l2, b), 1)
	require.EqualValues(t, 1, ctx.Stats.OnPlanePortals.Load())
	require.NoError(t, VerifyPortals(ctx, tree, graph, false))
}

func TestOnPlaneChild(t *testing.T) {
	plus := Plane{Normal: axisX, Dist: 1, Type: PLANE_X}
	minus := plus.Flip()
	const front, back NodeID = 10, 20

	require.Equal(t, front, onPlaneChild(plus, plus, 0, front, back))
	require.Equal(t, back, onPlaneChild(plus, plus, 1, front, back))
	require.Equal(t, back, onPlaneChild(minus, plus, 0, front, back))
	require.Equal(t, front, onPlaneChild(minus, plus, 1, front, back))
}

func TestPortalGraphLinks(t *testing.T) {
	graph := NewPortalGraph(4)
	pid := graph.allocPortal(Portal{PlaneNum: 0, OnNode: NO_NODE})
	require.Empty(t, graph.LivePortals())

	require.NoError(t, graph.AddPortalToNodes(pid, 1, 2))
	require.Equal(t, []PortalID{pid}, graph.LivePortals())
	err := graph.AddPortalToNodes(pid, 1, 3)
	require.Equal(t, ErrTypeMislinkedPortal, errors.Type(err))

	side, err := graph.sideOf(pid, 2)
	require.NoError(t, err)
	require.Equal(t, 1, side)
	_, err = graph.sideOf(pid, 3)
	require.Equal(t, ErrTypeMislinkedPortal, errors.Type(err))

	require.NoError(t, graph.RemovePortalFromNode(pid, 1))
	require.Empty(t, graph.PortalsOf(1))
	require.Empty(t, graph.LivePortals())
	err = graph.RemovePortalFromNode(pid, 1)
	require.Equal(t, ErrTypeMislinkedPortal, errors.Type(err))
	require.NoError(t, graph.RemovePortalFromNode(pid, 2))

	graph.Reset(2)
	require.Equal(t, 0, graph.NumPortals())
	require.Nil(t, graph.PortalsOf(3))
}

func TestBaseWindingForNode(t *testing.T) {
	ctx := newTestContext()
	tree := sealedBoxTree(t, ctx, false, splitRoom(false))
	graph := NewPortalGraph(tree.NumNodes())
	require.NoError(t, MakeTreePortals(ctx, tree, graph, false))

	room := tree.LeafForPoint(mgl64.Vec3{40, 32, 32})
	sep := tree.Node(room).Parent
	w := BaseWindingForNode(ctx, tree, sep)
	require.NotNil(t, w)
	// ancestors bound y and z, x is fixed by the plane
	b := w.Bounds()
	require.InDelta(t, 32, b.Mins[0], 1e-9)
	require.InDelta(t, 32, b.Maxs[0], 1e-9)
	require.InDelta(t, 16, b.Mins[1], 1e-6)
	require.InDelta(t, 48, b.Maxs[1], 1e-6)
	require.InDelta(t, 16, b.Mins[2], 1e-6)
	require.InDelta(t, 48, b.Maxs[2], 1e-6)
}

func TestCalcWorldExtent(t *testing.T) {
	ctx := newTestContext()
	b := NewAABB(mgl64.Vec3{-10, 0, 0}, mgl64.Vec3{5, 100, 3})
	require.Equal(t, 4*100.0+64, calcWorldExtent(ctx, b))
	ctx.Options.WorldExtent = 1000
	require.Equal(t, 1000.0, calcWorldExtent(ctx, b))
}
