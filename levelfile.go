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

// Reading the finished BSP tree handed over by CSG stage
package main

import (
	"io"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

type levelFile struct {
	Bounds *levelBounds `yaml:"bounds"`
	Margin *float64     `yaml:"margin"`
	Tree   *levelNode   `yaml:"tree"`
}

type levelBounds struct {
	Mins []float64 `yaml:"mins"`
	Maxs []float64 `yaml:"maxs"`
}

type levelPlane struct {
	Normal []float64 `yaml:"normal"`
	Dist   float64   `yaml:"dist"`
}

type levelNode struct {
	Plane    *levelPlane `yaml:"plane"`
	Detail   bool        `yaml:"detail"`
	Front    *levelNode  `yaml:"front"`
	Back     *levelNode  `yaml:"back"`
	Contents string      `yaml:"contents"`
	Flags    []string    `yaml:"flags"`
	Mins     []float64   `yaml:"mins"`
	Maxs     []float64   `yaml:"maxs"`
}

func levelError(msg string, path string) error {
	return errors.New(msg).
		WithType(ErrTypeLevelFile).
		WithTag("path", path)
}

func degenerateBoundsError(msg string, path string, mins, maxs mgl64.Vec3) error {
	return errors.New(msg).
		WithType(ErrTypeDegenerateBounds).
		WithTag("path", path).
		WithTag("mins", vecToArray(mins)).
		WithTag("maxs", vecToArray(maxs))
}

func toVec3(v []float64, what string, path string) (mgl64.Vec3, error) {
	if len(v) != 3 {
		return mgl64.Vec3{}, levelError(what+" must have 3 components", path)
	}
	return mgl64.Vec3{v[0], v[1], v[2]}, nil
}

type levelLoader struct {
	tree *Tree
	// union of leaf boxes given in file
	leafBounds AABB
	boxes      []leafBox
}

type leafBox struct {
	id   NodeID
	path string
	box  AABB
}

func (l *levelLoader) loadNode(n *levelNode, path string) (NodeID, error) {
	if n == nil {
		return NO_NODE, levelError("node missing", path)
	}
	if n.Plane == nil {
		if n.Front != nil || n.Back != nil {
			return NO_NODE, levelError("leaf can't have children", path)
		}
		contents, err := ParseContents(n.Contents, n.Flags)
		if err != nil {
			return NO_NODE, errors.New("bad leaf contents").
				WithType(ErrTypeLevelFile).
				WithTag("path", path).
				Wrap(err)
		}
		if n.Mins != nil || n.Maxs != nil {
			mins, err := toVec3(n.Mins, "mins", path)
			if err != nil {
				return NO_NODE, err
			}
			maxs, err := toVec3(n.Maxs, "maxs", path)
			if err != nil {
				return NO_NODE, err
			}
			for i := 0; i < 3; i++ {
				if maxs[i] < mins[i] {
					return NO_NODE, degenerateBoundsError("leaf box is inverted",
						path, mins, maxs)
				}
			}
			l.leafBounds = l.leafBounds.AddPoint(mins).AddPoint(maxs)
			id := l.tree.AddLeaf(contents)
			l.boxes = append(l.boxes, leafBox{id, path, NewAABB(mins, maxs)})
			return id, nil
		}
		return l.tree.AddLeaf(contents), nil
	}

	if n.Contents != "" {
		return NO_NODE, levelError("node with a plane can't have contents", path)
	}
	normal, err := toVec3(n.Plane.Normal, "plane normal", path)
	if err != nil {
		return NO_NODE, err
	}
	if normal.Len() == 0 {
		return NO_NODE, levelError("plane normal is zero", path)
	}
	front, err := l.loadNode(n.Front, path+".front")
	if err != nil {
		return NO_NODE, err
	}
	back, err := l.loadNode(n.Back, path+".back")
	if err != nil {
		return NO_NODE, err
	}
	planeNum := l.tree.Planes.FindPlane(normal, n.Plane.Dist)
	id, err := l.tree.AddNode(planeNum, front, back, n.Detail)
	if err != nil {
		return NO_NODE, errors.New("bad node").
			WithType(ErrTypeLevelFile).
			WithTag("path", path).
			Wrap(err)
	}
	return id, nil
}

// checkLeafBoxes warns about leaf boxes whose center falls into another leaf
// of the tree. Such a box was written for a different tree
func (l *levelLoader) checkLeafBoxes(ctx *PassContext) {
	for _, lb := range l.boxes {
		center := lb.box.Mins.Add(lb.box.Maxs).Mul(0.5)
		if found := l.tree.LeafForPoint(center); found != lb.id {
			ctx.Log.Warn("Box of leaf %d at %s does not match the tree: its center is in leaf %d",
				lb.id, lb.path, found)
		}
	}
}

// LoadLevelTree reads a level tree file. Planes go into the plane table of
// the pass, so equal planes of different nodes share the plane number. Tree
// bounds are the ones given in file (or the union of leaf boxes), grown by
// margin, which defaults to the margin of build options
func LoadLevelTree(r io.Reader, ctx *PassContext) (*Tree, error) {
	var lf levelFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&lf); err != nil {
		return nil, errors.New("decoding level file failed").
			WithType(ErrTypeLevelFile).
			Wrap(err)
	}
	if lf.Tree == nil {
		return nil, levelError("level file has no tree", "tree")
	}

	l := &levelLoader{
		tree:       NewTree(ctx.Planes),
		leafBounds: EmptyAABB(),
	}
	head, err := l.loadNode(lf.Tree, "tree")
	if err != nil {
		return nil, err
	}
	if err := l.tree.SetHead(head); err != nil {
		return nil, err
	}
	l.checkLeafBoxes(ctx)

	var bounds AABB
	var boundsPath string
	if lf.Bounds != nil {
		mins, err := toVec3(lf.Bounds.Mins, "mins", "bounds")
		if err != nil {
			return nil, err
		}
		maxs, err := toVec3(lf.Bounds.Maxs, "maxs", "bounds")
		if err != nil {
			return nil, err
		}
		bounds = NewAABB(mins, maxs)
		boundsPath = "bounds"
	} else if !l.leafBounds.IsEmpty() {
		bounds = l.leafBounds
		boundsPath = "leaf boxes"
	} else {
		return nil, levelError("level bounds missing and no leaf has a box", "bounds")
	}
	// margin must not hide a flat or inverted box
	if bounds.IsDegenerate() {
		return nil, degenerateBoundsError("degenerate level bounds", boundsPath,
			bounds.Mins, bounds.Maxs)
	}

	margin := ctx.Options.Margin
	if lf.Margin != nil {
		margin = *lf.Margin
	}
	if margin < 0 {
		return nil, levelError("margin must not be negative", "margin")
	}
	l.tree.Bounds = bounds.Grow(margin)

	ctx.Log.Verbose(1, "Loaded tree: %d nodes, %d planes, height %d, bounds %s",
		l.tree.NumNodes(), ctx.Planes.Len(), l.tree.Height(), l.tree.Bounds.toString())
	return l.tree, nil
}
