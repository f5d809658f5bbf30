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

// tree.go
package main

import (
	"fmt"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
)

// NodeID addresses a node in Tree.Nodes
type NodeID int32

const NO_NODE NodeID = -1

// Outside node always occupies slot 0 of the node arena
const OUTSIDE_NODE NodeID = 0

const PLANENUM_LEAF = -1

// Contents holds native content type in the low byte and extra flags above
// it
type Contents uint32

const (
	CONTENTS_EMPTY Contents = iota
	CONTENTS_SOLID
	CONTENTS_WATER
	CONTENTS_SLIME
	CONTENTS_LAVA
	CONTENTS_SKY
)

const CONTENTS_NATIVE_MASK Contents = 0xff

const (
	CFLAGS_DETAIL Contents = 1 << (8 + iota)
	CFLAGS_DETAIL_ILLUSIONARY
	CFLAGS_DETAIL_FENCE
)

const CFLAGS_DETAIL_MASK = CFLAGS_DETAIL | CFLAGS_DETAIL_ILLUSIONARY | CFLAGS_DETAIL_FENCE

var contentsNames = map[Contents]string{
	CONTENTS_EMPTY: "empty",
	CONTENTS_SOLID: "solid",
	CONTENTS_WATER: "water",
	CONTENTS_SLIME: "slime",
	CONTENTS_LAVA:  "lava",
	CONTENTS_SKY:   "sky",
}

var contentsFlagNames = map[Contents]string{
	CFLAGS_DETAIL:             "detail",
	CFLAGS_DETAIL_ILLUSIONARY: "illusionary",
	CFLAGS_DETAIL_FENCE:       "fence",
}

func (c Contents) Native() Contents {
	return c & CONTENTS_NATIVE_MASK
}

func (c Contents) IsSolid() bool {
	return c.Native() == CONTENTS_SOLID
}

func (c Contents) IsEmpty() bool {
	return c.Native() == CONTENTS_EMPTY
}

func (c Contents) IsSky() bool {
	return c.Native() == CONTENTS_SKY
}

func (c Contents) IsLiquid() bool {
	n := c.Native()
	return n == CONTENTS_WATER || n == CONTENTS_SLIME || n == CONTENTS_LAVA
}

func (c Contents) IsDetail() bool {
	return c&CFLAGS_DETAIL_MASK != 0
}

// IsVisible tells whether region is something vis cares about: anything a
// player could be in or look through
func (c Contents) IsVisible() bool {
	return !c.IsSolid() && !c.IsSky()
}

func (c Contents) String() string {
	name, ok := contentsNames[c.Native()]
	if !ok {
		name = fmt.Sprintf("unknown(%d)", uint32(c.Native()))
	}
	for _, flag := range []Contents{CFLAGS_DETAIL, CFLAGS_DETAIL_ILLUSIONARY,
		CFLAGS_DETAIL_FENCE} {
		if c&flag != 0 {
			name += "|" + contentsFlagNames[flag]
		}
	}
	return name
}

// ParseContents converts a native content name and optional flag names into
// Contents value
func ParseContents(name string, flags []string) (Contents, error) {
	var c Contents
	found := false
	lname := strings.ToLower(strings.TrimSpace(name))
	for k, v := range contentsNames {
		if v == lname {
			c = k
			found = true
			break
		}
	}
	if !found {
		return 0, errors.New("unknown contents").
			WithType(ErrTypeLevelFile).
			WithTag("contents", name)
	}
	for _, flag := range flags {
		lflag := strings.ToLower(strings.TrimSpace(flag))
		known := false
		for k, v := range contentsFlagNames {
			if v == lflag {
				c |= k
				known = true
				break
			}
		}
		if !known {
			return 0, errors.New("unknown contents flag").
				WithType(ErrTypeLevelFile).
				WithTag("flag", flag)
		}
	}
	return c, nil
}

// Node is either an internal node (PlaneNum >= 0, two children) or a leaf
// (PlaneNum == PLANENUM_LEAF). A node with Detail set is a detail separator:
// the split does not matter for visibility, and everything below it forms a
// single cluster
type Node struct {
	PlaneNum int
	Children [2]NodeID // 0 is front
	Parent   NodeID
	Contents Contents
	Detail   bool
	// Recomputed from portals on every portal build
	Bounds     AABB
	Cluster    int
	VisLeafNum int
}

func (n *Node) IsLeaf() bool {
	return n.PlaneNum == PLANENUM_LEAF
}

// Tree is the finished BSP tree as produced by CSG stage, with all nodes in
// one arena. Node 0 is the synthetic outside node
type Tree struct {
	Nodes    []Node
	HeadNode NodeID
	Outside  NodeID
	// Box that boundary portals are built on
	Bounds AABB
	Planes *PlaneTable
}

func NewTree(planes *PlaneTable) *Tree {
	t := &Tree{
		Nodes:    make([]Node, 0, 64),
		HeadNode: NO_NODE,
		Outside:  OUTSIDE_NODE,
		Bounds:   EmptyAABB(),
		Planes:   planes,
	}
	t.Nodes = append(t.Nodes, Node{
		PlaneNum:   PLANENUM_LEAF,
		Children:   [2]NodeID{NO_NODE, NO_NODE},
		Parent:     NO_NODE,
		Contents:   CONTENTS_SOLID,
		Bounds:     EmptyAABB(),
		Cluster:    -1,
		VisLeafNum: -1,
	})
	return t
}

func (t *Tree) Node(id NodeID) *Node {
	return &t.Nodes[id]
}

func (t *Tree) NumNodes() int {
	return len(t.Nodes)
}

func (t *Tree) validID(id NodeID) bool {
	return id > OUTSIDE_NODE && int(id) < len(t.Nodes)
}

func (t *Tree) AddLeaf(contents Contents) NodeID {
	id := NodeID(len(t.Nodes))
	t.Nodes = append(t.Nodes, Node{
		PlaneNum:   PLANENUM_LEAF,
		Children:   [2]NodeID{NO_NODE, NO_NODE},
		Parent:     NO_NODE,
		Contents:   contents,
		Bounds:     EmptyAABB(),
		Cluster:    -1,
		VisLeafNum: -1,
	})
	return id
}

// AddNode creates internal node splitting by planeNum, and takes ownership of
// both children. A child can have only one parent
func (t *Tree) AddNode(planeNum int, front, back NodeID, detail bool) (NodeID, error) {
	if !t.Planes.Valid(planeNum) {
		return NO_NODE, errors.New("invalid plane number").
			WithType(ErrTypeLevelFile).
			WithTag("plane", planeNum)
	}
	for _, child := range [2]NodeID{front, back} {
		if !t.validID(child) {
			return NO_NODE, errors.New("invalid child node").
				WithType(ErrTypeLevelFile).
				WithTag("node", child)
		}
		if t.Nodes[child].Parent != NO_NODE {
			return NO_NODE, errors.New("node already has a parent").
				WithType(ErrTypeLevelFile).
				WithTag("node", child)
		}
	}
	if front == back {
		return NO_NODE, errors.New("node children must differ").
			WithType(ErrTypeLevelFile).
			WithTag("node", front)
	}
	id := NodeID(len(t.Nodes))
	t.Nodes = append(t.Nodes, Node{
		PlaneNum:   planeNum,
		Children:   [2]NodeID{front, back},
		Parent:     NO_NODE,
		Detail:     detail,
		Bounds:     EmptyAABB(),
		Cluster:    -1,
		VisLeafNum: -1,
	})
	t.Nodes[front].Parent = id
	t.Nodes[back].Parent = id
	return id, nil
}

// SetHead makes id the root of the tree
func (t *Tree) SetHead(id NodeID) error {
	if !t.validID(id) {
		return errors.New("invalid head node").
			WithType(ErrTypeLevelFile).
			WithTag("node", id)
	}
	if t.Nodes[id].Parent != NO_NODE {
		return errors.New("head node has a parent").
			WithType(ErrTypeLevelFile).
			WithTag("node", id)
	}
	t.HeadNode = id
	return nil
}

// IsGraphLeaf tells whether node is where portal building stops descending:
// a leaf, or a detail separator if detail is not descended into
func (t *Tree) IsGraphLeaf(id NodeID, stopAtDetail bool) bool {
	n := &t.Nodes[id]
	return n.IsLeaf() || (stopAtDetail && n.Detail)
}

// GraphLeaves lists leaves of the portal graph in tree order (front first)
func (t *Tree) GraphLeaves(stopAtDetail bool) []NodeID {
	var leaves []NodeID
	if t.HeadNode == NO_NODE {
		return leaves
	}
	var walk func(id NodeID)
	walk = func(id NodeID) {
		if t.IsGraphLeaf(id, stopAtDetail) {
			leaves = append(leaves, id)
			return
		}
		n := &t.Nodes[id]
		walk(n.Children[0])
		walk(n.Children[1])
	}
	walk(t.HeadNode)
	return leaves
}

// HasDetail reports whether there is any detail separator in the tree
func (t *Tree) HasDetail() bool {
	for i := range t.Nodes {
		if !t.Nodes[i].IsLeaf() && t.Nodes[i].Detail {
			return true
		}
	}
	return false
}

// Height returns the number of levels in the tree, a lone leaf has height 1
func (t *Tree) Height() int {
	if t.HeadNode == NO_NODE {
		return 0
	}
	var height func(id NodeID) int
	height = func(id NodeID) int {
		n := &t.Nodes[id]
		if n.IsLeaf() {
			return 1
		}
		l := height(n.Children[0])
		r := height(n.Children[1])
		if l > r {
			return l + 1
		}
		return r + 1
	}
	return height(t.HeadNode)
}

// LeafForPoint descends the tree to the leaf containing point. Points on a
// node plane go to the front
func (t *Tree) LeafForPoint(point mgl64.Vec3) NodeID {
	id := t.HeadNode
	for id != NO_NODE && !t.Nodes[id].IsLeaf() {
		n := &t.Nodes[id]
		if t.Planes.Get(n.PlaneNum).DistanceTo(point) >= 0 {
			id = n.Children[0]
		} else {
			id = n.Children[1]
		}
	}
	return id
}

// SubtreeLeaves lists every leaf below (and including) node id
func (t *Tree) SubtreeLeaves(id NodeID) []NodeID {
	var leaves []NodeID
	var walk func(id NodeID)
	walk = func(id NodeID) {
		n := &t.Nodes[id]
		if n.IsLeaf() {
			leaves = append(leaves, id)
			return
		}
		walk(n.Children[0])
		walk(n.Children[1])
	}
	walk(id)
	return leaves
}
