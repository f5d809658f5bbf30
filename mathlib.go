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

// mathlib.go
package main

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Everything that classifies a point against a plane uses these
const (
	SIDE_FRONT = 0
	SIDE_BACK  = 1
	SIDE_ON    = 2
	SIDE_TOTAL = 3
)

const (
	// Default tolerance for both plane deduplication and winding
	// classification. The two must agree, or coplanar faces coming out of CSG
	// will be split by "almost the same" planes and produce slivers
	DEFAULT_ON_EPSILON = 0.0001
	// Normals are compared component-wise with this
	NORMAL_EPSILON = 0.000001
	// A portal is tiny when it has less than three edges longer than this
	TINY_EDGE_LENGTH = 0.2
	// Extra space added around the level bounds before boundary portals are
	// generated, so that no brush face ever lies on a boundary portal
	SIDESPACE = 24.0
	// Coordinates beyond this are considered garbage
	DEFAULT_BOGUS_RANGE = 65536.0
	// Fragments of clipping with area at or below this are "no polygon"
	WINDING_AREA_EPSILON = 0.000001
)

// AABB is an axis-aligned box. Zero value is NOT an empty box, use EmptyAABB
// to start accumulating points
type AABB struct {
	Mins mgl64.Vec3
	Maxs mgl64.Vec3
}

func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Mins: mgl64.Vec3{inf, inf, inf},
		Maxs: mgl64.Vec3{-inf, -inf, -inf},
	}
}

func NewAABB(mins, maxs mgl64.Vec3) AABB {
	return AABB{Mins: mins, Maxs: maxs}
}

func (b AABB) AddPoint(p mgl64.Vec3) AABB {
	for i := 0; i < 3; i++ {
		if p[i] < b.Mins[i] {
			b.Mins[i] = p[i]
		}
		if p[i] > b.Maxs[i] {
			b.Maxs[i] = p[i]
		}
	}
	return b
}

func (b AABB) Union(o AABB) AABB {
	if o.IsEmpty() {
		return b
	}
	return b.AddPoint(o.Mins).AddPoint(o.Maxs)
}

// Grow expands box by margin on every side
func (b AABB) Grow(margin float64) AABB {
	m := mgl64.Vec3{margin, margin, margin}
	return AABB{Mins: b.Mins.Sub(m), Maxs: b.Maxs.Add(m)}
}

// IsEmpty reports whether no point was ever added
func (b AABB) IsEmpty() bool {
	return b.Mins[0] > b.Maxs[0] || b.Mins[1] > b.Maxs[1] || b.Mins[2] > b.Maxs[2]
}

// IsDegenerate is true when any axis has zero or negative extent, or
// coordinates are not finite
func (b AABB) IsDegenerate() bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(b.Mins[i]) || math.IsNaN(b.Maxs[i]) ||
			math.IsInf(b.Mins[i], 0) || math.IsInf(b.Maxs[i], 0) {
			return true
		}
		if b.Maxs[i]-b.Mins[i] <= 0 {
			return true
		}
	}
	return false
}

func (b AABB) Size() mgl64.Vec3 {
	return b.Maxs.Sub(b.Mins)
}

// MaxAbsCoord returns the largest absolute coordinate value of the box
func (b AABB) MaxAbsCoord() float64 {
	m := 0.0
	for i := 0; i < 3; i++ {
		m = math.Max(m, math.Abs(b.Mins[i]))
		m = math.Max(m, math.Abs(b.Maxs[i]))
	}
	return m
}

func (b AABB) toString() string {
	return fmt.Sprintf("(%v %v %v)-(%v %v %v)", b.Mins[0], b.Mins[1], b.Mins[2],
		b.Maxs[0], b.Maxs[1], b.Maxs[2])
}

// ClassifyPoint tells on which side of the plane the point is. Points closer
// than epsilon to the plane are SIDE_ON
func ClassifyPoint(p Plane, point mgl64.Vec3, epsilon float64) int {
	d := p.DistanceTo(point)
	if d > epsilon {
		return SIDE_FRONT
	} else if d < -epsilon {
		return SIDE_BACK
	}
	return SIDE_ON
}

func vecToArray(v mgl64.Vec3) [3]float64 {
	return [3]float64{v[0], v[1], v[2]}
}

func vecEpsilonEqual(a, b mgl64.Vec3, epsilon float64) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(a[i]-b[i]) > epsilon {
			return false
		}
	}
	return true
}
