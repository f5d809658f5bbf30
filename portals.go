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

// portals.go
package main

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
)

// PortalID addresses a portal in PortalGraph arena
type PortalID int32

const NO_PORTAL PortalID = -1

// Portal is a convex window between two regions. Nodes[0] is on the front
// side of the plane, Nodes[1] on the back side
type Portal struct {
	PlaneNum int
	// Node whose plane this portal lies on, NO_NODE for boundary portals
	OnNode      NodeID
	Nodes       [2]NodeID
	Winding     Winding
	SameCluster bool
}

// PortalGraph holds portals in an arena and, for every node, the ordered list
// of portals bounding it. Both sides of a portal list it exactly once
type PortalGraph struct {
	portals   []Portal
	adjacency [][]PortalID
}

func NewPortalGraph(numNodes int) *PortalGraph {
	return &PortalGraph{
		portals:   make([]Portal, 0, numNodes*2),
		adjacency: make([][]PortalID, numNodes),
	}
}

// Portal returns pointer into arena. It is invalidated by allocating
// another portal
func (g *PortalGraph) Portal(id PortalID) *Portal {
	return &g.portals[id]
}

// NumPortals is the size of arena, including portals that were dropped
func (g *PortalGraph) NumPortals() int {
	return len(g.portals)
}

func (g *PortalGraph) PortalsOf(node NodeID) []PortalID {
	if int(node) >= len(g.adjacency) {
		return nil
	}
	return g.adjacency[node]
}

// LivePortals lists portals that are currently linked to both sides
func (g *PortalGraph) LivePortals() []PortalID {
	live := make([]PortalID, 0, len(g.portals))
	for i := range g.portals {
		p := &g.portals[i]
		if p.Nodes[0] != NO_NODE && p.Nodes[1] != NO_NODE {
			live = append(live, PortalID(i))
		}
	}
	return live
}

func (g *PortalGraph) allocPortal(p Portal) PortalID {
	p.Nodes = [2]NodeID{NO_NODE, NO_NODE}
	g.portals = append(g.portals, p)
	return PortalID(len(g.portals) - 1)
}

// AddPortalToNodes links portal to front and back nodes
func (g *PortalGraph) AddPortalToNodes(id PortalID, front, back NodeID) error {
	p := &g.portals[id]
	if p.Nodes[0] != NO_NODE || p.Nodes[1] != NO_NODE {
		return errors.New("portal already included").
			WithType(ErrTypeMislinkedPortal).
			WithTag("portal", id)
	}
	p.Nodes[0] = front
	g.adjacency[front] = append(g.adjacency[front], id)
	p.Nodes[1] = back
	g.adjacency[back] = append(g.adjacency[back], id)
	return nil
}

// RemovePortalFromNode unlinks portal from one of its sides
func (g *PortalGraph) RemovePortalFromNode(id PortalID, node NodeID) error {
	list := g.adjacency[node]
	idx := -1
	for i, pid := range list {
		if pid == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.New("portal not in leaf").
			WithType(ErrTypeMislinkedPortal).
			WithTag("portal", id).
			WithTag("node", node)
	}
	g.adjacency[node] = append(list[:idx], list[idx+1:]...)

	p := &g.portals[id]
	switch node {
	case p.Nodes[0]:
		p.Nodes[0] = NO_NODE
	case p.Nodes[1]:
		p.Nodes[1] = NO_NODE
	default:
		return errors.New("portal not bounding leaf").
			WithType(ErrTypeMislinkedPortal).
			WithTag("portal", id).
			WithTag("node", node)
	}
	return nil
}

// Reset drops every portal and every adjacency list, sized for numNodes
func (g *PortalGraph) Reset(numNodes int) {
	g.portals = g.portals[:0]
	if cap(g.adjacency) >= numNodes {
		g.adjacency = g.adjacency[:numNodes]
		for i := range g.adjacency {
			g.adjacency[i] = nil
		}
	} else {
		g.adjacency = make([][]PortalID, numNodes)
	}
}

// sideOf tells which side of portal node is at
func (g *PortalGraph) sideOf(id PortalID, node NodeID) (int, error) {
	p := &g.portals[id]
	switch node {
	case p.Nodes[0]:
		return 0, nil
	case p.Nodes[1]:
		return 1, nil
	}
	return -1, errors.New("mislinked portal").
		WithType(ErrTypeMislinkedPortal).
		WithTag("portal", id).
		WithTag("node", node).
		WithTag("front", p.Nodes[0]).
		WithTag("back", p.Nodes[1])
}

// PortalsWork is the state of one portal build over a tree
type PortalsWork struct {
	ctx          *PassContext
	tree         *Tree
	graph        *PortalGraph
	stopAtDetail bool
}

// calcWorldExtent decides the half-size of base windings: large enough that
// a square centered anywhere inside bounds covers the whole box
func calcWorldExtent(ctx *PassContext, bounds AABB) float64 {
	if ctx.Options.WorldExtent > 0 {
		return ctx.Options.WorldExtent
	}
	return 4*bounds.MaxAbsCoord() + 64
}

// MakeHeadnodePortals creates the six portals bounding the head node from
// the outside node. Planes face inwards, so the head node is in front of
// each of them
func MakeHeadnodePortals(ctx *PassContext, tree *Tree, graph *PortalGraph) error {
	bounds := tree.Bounds
	if tree.HeadNode == NO_NODE {
		return errors.New("tree has no head node").
			WithType(ErrTypeDegenerateBounds)
	}
	if bounds.IsDegenerate() {
		return errors.New("degenerate tree bounds").
			WithType(ErrTypeDegenerateBounds).
			WithTag("mins", vecToArray(bounds.Mins)).
			WithTag("maxs", vecToArray(bounds.Maxs))
	}
	ctx.worldExtent = calcWorldExtent(ctx, bounds)

	var bplanes [6]Plane
	var portals [6]PortalID
	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			n := j*3 + i
			var normal mgl64.Vec3
			var dist float64
			if j == 0 {
				normal[i] = 1
				dist = bounds.Mins[i]
			} else {
				normal[i] = -1
				dist = -bounds.Maxs[i]
			}
			planeNum := tree.Planes.FindPlane(normal, dist)
			bplanes[n] = tree.Planes.Get(planeNum)
			portals[n] = graph.allocPortal(Portal{
				PlaneNum: planeNum,
				OnNode:   NO_NODE,
				Winding:  BaseWindingForPlane(bplanes[n], ctx.worldExtent),
			})
			err := graph.AddPortalToNodes(portals[n], tree.HeadNode, tree.Outside)
			if err != nil {
				return err
			}
		}
	}

	// clip the basewindings by all the other planes
	for i := 0; i < 6; i++ {
		p := graph.Portal(portals[i])
		for j := 0; j < 6; j++ {
			if j == i {
				continue
			}
			p.Winding, _ = p.Winding.Clip(bplanes[j], ctx.Options.Epsilon, true)
			if p.Winding == nil {
				return errors.New("boundary portal clipped away").
					WithType(ErrTypeDegenerateBounds).
					WithTag("mins", vecToArray(bounds.Mins)).
					WithTag("maxs", vecToArray(bounds.Maxs))
			}
		}
	}
	return nil
}

// BaseWindingForNode returns the winding of node plane limited by planes of
// every ancestor, on the side the node is on
func BaseWindingForNode(ctx *PassContext, tree *Tree, id NodeID) Winding {
	const BASE_WINDING_EPSILON = 0.001
	node := tree.Node(id)
	w := BaseWindingForPlane(tree.Planes.Get(node.PlaneNum), ctx.worldExtent)

	// clip by all the parents
	child := id
	for parent := node.Parent; parent != NO_NODE && w != nil; parent = tree.Node(parent).Parent {
		pn := tree.Node(parent)
		plane := tree.Planes.Get(pn.PlaneNum)
		if pn.Children[0] == child {
			w = w.Chop(plane, BASE_WINDING_EPSILON)
		} else {
			w = w.Chop(plane.Flip(), BASE_WINDING_EPSILON)
		}
		child = parent
	}
	return w
}

// CalcNodeBounds sets node bounds from the windings of its portals
func (w *PortalsWork) CalcNodeBounds(id NodeID) {
	node := w.tree.Node(id)
	b := EmptyAABB()
	for _, pid := range w.graph.PortalsOf(id) {
		b = b.Union(w.graph.Portal(pid).Winding.Bounds())
	}
	node.Bounds = b

	// a node whose region is cut down to nothing is legal (split planes
	// may coincide), but is worth knowing about
	if b.IsEmpty() || b.Mins[0] >= b.Maxs[0] {
		w.ctx.Log.Verbose(1, "Node %d without a volume", id)
	}
	bogus := w.ctx.Options.BogusRange
	for i := 0; i < 3; i++ {
		if !b.IsEmpty() && (b.Mins[i] < -bogus || b.Maxs[i] > bogus) {
			w.ctx.Log.Warn("Node %d with unbounded volume %s", id, b.toString())
			break
		}
	}
}

// MakeNodePortal creates the portal that lies on the node plane and
// separates its two children
func (w *PortalsWork) MakeNodePortal(id NodeID) error {
	node := w.tree.Node(id)
	wind := BaseWindingForNode(w.ctx, w.tree, id)

	// clip the portal by all the other portals in the node
	for _, pid := range w.graph.PortalsOf(id) {
		if wind == nil {
			break
		}
		p := w.graph.Portal(pid)
		side, err := w.graph.sideOf(pid, id)
		if err != nil {
			return err
		}
		plane := w.tree.Planes.Get(p.PlaneNum)
		if side == 1 {
			plane = plane.Flip()
		}
		wind = wind.Chop(plane, w.ctx.Options.Epsilon)
	}

	if wind == nil {
		w.ctx.Log.Verbose(2, "Node %d: portal clipped away", id)
		return nil
	}
	if wind.IsTiny(w.ctx.Options.TinyEdgeLength) {
		w.ctx.Stats.TinyPortals.Add(1)
		return nil
	}
	if len(wind) > MAX_POINTS_ON_WINDING {
		return errors.New("node portal has too many points").
			WithType(ErrTypeWindingOverflow).
			WithTag("node", id).
			WithTag("points", len(wind))
	}

	pid := w.graph.allocPortal(Portal{
		PlaneNum: node.PlaneNum,
		OnNode:   id,
		Winding:  wind,
	})
	w.ctx.Stats.NodePortals.Add(1)
	return w.graph.AddPortalToNodes(pid, node.Children[0], node.Children[1])
}

// attach links portal to child, keeping child on the same side of portal
// plane as the node it replaces
func (w *PortalsWork) attach(pid PortalID, side int, child, other NodeID) error {
	if side == 0 {
		return w.graph.AddPortalToNodes(pid, child, other)
	}
	return w.graph.AddPortalToNodes(pid, other, child)
}

// onPlaneChild decides which child gets a portal lying on the node plane:
// the one on the same side of the portal plane as the node itself
func onPlaneChild(nodePlane, portalPlane Plane, side int, front, back NodeID) NodeID {
	sameFacing := nodePlane.Normal.Dot(portalPlane.Normal) > 0
	if (side == 0) == sameFacing {
		return front
	}
	return back
}

// SplitNodePortals moves every portal of node onto its children, cutting
// portals that cross the node plane in two. The node has no portals
// afterwards
func (w *PortalsWork) SplitNodePortals(id NodeID) error {
	node := w.tree.Node(id)
	plane := w.tree.Planes.Get(node.PlaneNum)
	f := node.Children[0]
	b := node.Children[1]
	eps := w.ctx.Options.Epsilon
	edge := w.ctx.Options.TinyEdgeLength

	for {
		list := w.graph.PortalsOf(id)
		if len(list) == 0 {
			break
		}
		pid := list[0]
		side, err := w.graph.sideOf(pid, id)
		if err != nil {
			return err
		}
		p := w.graph.Portal(pid)
		other := p.Nodes[side^1]
		portalPlane := w.tree.Planes.Get(p.PlaneNum)
		orig := p.Winding

		if err := w.graph.RemovePortalFromNode(pid, p.Nodes[0]); err != nil {
			return err
		}
		if err := w.graph.RemovePortalFromNode(pid, p.Nodes[1]); err != nil {
			return err
		}

		counts := orig.CalcSides(plane, eps, nil, nil)
		if counts[SIDE_FRONT] == 0 && counts[SIDE_BACK] == 0 {
			w.ctx.Stats.OnPlanePortals.Add(1)
			child := onPlaneChild(plane, portalPlane, side, f, b)
			if err := w.attach(pid, side, child, other); err != nil {
				return err
			}
			continue
		}
		if counts[SIDE_BACK] == 0 {
			if err := w.attach(pid, side, f, other); err != nil {
				return err
			}
			continue
		}
		if counts[SIDE_FRONT] == 0 {
			if err := w.attach(pid, side, b, other); err != nil {
				return err
			}
			continue
		}

		front, back := orig.Clip(plane, eps, false)
		// a portal that straddles the plane must leave something behind,
		// unless it was a sliver to begin with
		if front == nil && back == nil && !orig.IsTiny(edge) {
			return errors.New("portal split produced nothing").
				WithType(ErrTypeSplitFailed).
				WithTag("portal", pid).
				WithTag("node", id).
				WithTag("area", orig.Area())
		}
		if front == nil || front.IsTiny(edge) {
			front = nil
			w.ctx.Stats.TinyPortals.Add(1)
		}
		if back == nil || back.IsTiny(edge) {
			back = nil
			w.ctx.Stats.TinyPortals.Add(1)
		}
		if len(front) > MAX_POINTS_ON_WINDING || len(back) > MAX_POINTS_ON_WINDING {
			return errors.New("split portal has too many points").
				WithType(ErrTypeWindingOverflow).
				WithTag("portal", pid).
				WithTag("node", id)
		}

		switch {
		case front == nil && back == nil:
			// both pieces too small, portal is gone
			continue
		case back == nil:
			p.Winding = front
			if err := w.attach(pid, side, f, other); err != nil {
				return err
			}
		case front == nil:
			p.Winding = back
			if err := w.attach(pid, side, b, other); err != nil {
				return err
			}
		default:
			p.Winding = front
			newPortal := Portal{
				PlaneNum: p.PlaneNum,
				OnNode:   p.OnNode,
				Winding:  back,
			}
			// p is not valid past this point
			npid := w.graph.allocPortal(newPortal)
			w.ctx.Stats.PortalSplits.Add(1)
			if err := w.attach(pid, side, f, other); err != nil {
				return err
			}
			if err := w.attach(npid, side, b, other); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *PortalsWork) makeTreePortals_r(id NodeID) error {
	w.CalcNodeBounds(id)
	if w.tree.IsGraphLeaf(id, w.stopAtDetail) {
		return nil
	}

	if err := w.MakeNodePortal(id); err != nil {
		return err
	}
	if err := w.SplitNodePortals(id); err != nil {
		return err
	}
	w.ctx.State.NodesDone++

	node := w.tree.Node(id)
	if err := w.makeTreePortals_r(node.Children[0]); err != nil {
		return err
	}
	return w.makeTreePortals_r(node.Children[1])
}

// MakeTreePortals builds the portal graph of the whole tree into graph,
// which must be empty. When stopAtDetail is set, detail separators are
// leaves of the graph. On error the graph is torn down
func MakeTreePortals(ctx *PassContext, tree *Tree, graph *PortalGraph, stopAtDetail bool) error {
	if err := AssertNoPortals(tree, graph); err != nil {
		return err
	}
	graph.Reset(tree.NumNodes())
	ctx.State.NodesDone = 0

	w := &PortalsWork{
		ctx:          ctx,
		tree:         tree,
		graph:        graph,
		stopAtDetail: stopAtDetail,
	}
	err := MakeHeadnodePortals(ctx, tree, graph)
	if err == nil {
		err = w.makeTreePortals_r(tree.HeadNode)
	}
	if err != nil {
		FreeTreePortals(tree, graph)
		return err
	}
	ctx.Log.Verbose(1, "Portals built over %d nodes, %d portals in arena",
		ctx.State.NodesDone, graph.NumPortals())
	return nil
}

// FreeTreePortals unlinks every portal from every node and drops the arena
func FreeTreePortals(tree *Tree, graph *PortalGraph) {
	for i := range tree.Nodes {
		tree.Nodes[i].Bounds = EmptyAABB()
	}
	graph.Reset(tree.NumNodes())
}

// AssertNoPortals fails if any node still lists a portal
func AssertNoPortals(tree *Tree, graph *PortalGraph) error {
	for i := range tree.Nodes {
		if n := len(graph.PortalsOf(NodeID(i))); n > 0 {
			return errors.New("portals remain on node").
				WithType(ErrTypePortalsRemain).
				WithTag("node", i).
				WithTag("count", n)
		}
	}
	return nil
}

// LeafClosure sums area vectors of the portals of a leaf, oriented outwards.
// A leaf that is a closed convex region sums to zero
func LeafClosure(tree *Tree, graph *PortalGraph, id NodeID) (mgl64.Vec3, float64) {
	var sum mgl64.Vec3
	total := 0.0
	for _, pid := range graph.PortalsOf(id) {
		p := graph.Portal(pid)
		normal := tree.Planes.Get(p.PlaneNum).Normal
		area := p.Winding.Area()
		total += area
		// leaf in front of the plane looks out through -normal
		if p.Nodes[0] == id {
			sum = sum.Sub(normal.Mul(area))
		} else {
			sum = sum.Add(normal.Mul(area))
		}
	}
	return sum, total
}

// closureOK tells whether closure sum is within tolerance relative to the
// total portal area of the leaf
func closureOK(sum mgl64.Vec3, total float64, tolerance float64) bool {
	return sum.Len() <= tolerance*math.Max(1, total)
}
