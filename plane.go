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

// plane.go
package main

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Plane types. Axial planes have exactly one non-zero normal component (which
// is 1 or -1), for the others the type tells the dominant axis
const (
	PLANE_X = iota
	PLANE_Y
	PLANE_Z
	PLANE_ANYX
	PLANE_ANYY
	PLANE_ANYZ
)

type Plane struct {
	Normal mgl64.Vec3
	Dist   float64
	Type   int
}

func (p Plane) DistanceTo(point mgl64.Vec3) float64 {
	switch p.Type {
	case PLANE_X:
		return point[0]*p.Normal[0] - p.Dist
	case PLANE_Y:
		return point[1]*p.Normal[1] - p.Dist
	case PLANE_Z:
		return point[2]*p.Normal[2] - p.Dist
	}
	return p.Normal.Dot(point) - p.Dist
}

func (p Plane) Flip() Plane {
	return Plane{
		Normal: p.Normal.Mul(-1),
		Dist:   -p.Dist,
		Type:   p.Type,
	}
}

func (p Plane) toString() string {
	return fmt.Sprintf("(%v %v %v) %v", p.Normal[0], p.Normal[1], p.Normal[2],
		p.Dist)
}

func PlaneTypeForNormal(normal mgl64.Vec3) int {
	if normal[0] == 1 || normal[0] == -1 {
		return PLANE_X
	}
	if normal[1] == 1 || normal[1] == -1 {
		return PLANE_Y
	}
	if normal[2] == 1 || normal[2] == -1 {
		return PLANE_Z
	}
	ax := math.Abs(normal[0])
	ay := math.Abs(normal[1])
	az := math.Abs(normal[2])
	if ax >= ay && ax >= az {
		return PLANE_ANYX
	}
	if ay >= ax && ay >= az {
		return PLANE_ANYY
	}
	return PLANE_ANYZ
}

// PlaneTable is the deduplicated plane storage of a compilation pass.
// Planes are kept in pairs: index n and n^1 are the same plane facing
// opposite ways, and the even index holds the orientation where the dominant
// normal component is positive. Nodes and portals refer to planes by index
// only, so two planes that are equal within tolerance must never get two
// different indices.
type PlaneTable struct {
	planes  []Plane
	hash    map[int][]int // floor(dist) of canonical plane -> even indices
	epsilon float64
}

func NewPlaneTable(epsilon float64) *PlaneTable {
	return &PlaneTable{
		planes:  make([]Plane, 0, 64),
		hash:    make(map[int][]int),
		epsilon: epsilon,
	}
}

func (t *PlaneTable) Len() int {
	return len(t.planes)
}

func (t *PlaneTable) Epsilon() float64 {
	return t.epsilon
}

func (t *PlaneTable) Get(planeNum int) Plane {
	return t.planes[planeNum]
}

func (t *PlaneTable) Valid(planeNum int) bool {
	return planeNum >= 0 && planeNum < len(t.planes)
}

// snapPlane makes nearly axial normals exactly axial and pulls the distance
// onto an integer when it is within epsilon of one
func (t *PlaneTable) snapPlane(normal mgl64.Vec3, dist float64) (mgl64.Vec3, float64) {
	for i := 0; i < 3; i++ {
		if math.Abs(normal[i]-1) < NORMAL_EPSILON {
			normal = mgl64.Vec3{}
			normal[i] = 1
			break
		}
		if math.Abs(normal[i]+1) < NORMAL_EPSILON {
			normal = mgl64.Vec3{}
			normal[i] = -1
			break
		}
	}
	if r := math.Round(dist); math.Abs(dist-r) < t.epsilon {
		dist = r
	}
	return normal, dist
}

func (t *PlaneTable) planeEqual(p Plane, normal mgl64.Vec3, dist float64) bool {
	return vecEpsilonEqual(p.Normal, normal, NORMAL_EPSILON) &&
		math.Abs(p.Dist-dist) < t.epsilon
}

// FindPlane returns the index of plane (normal, dist), adding it to the table
// if no equal plane was found. The returned index refers to a plane facing the
// same way as the requested one. Normal is renormalized if it is not a unit
// vector (distance is scaled accordingly).
func (t *PlaneTable) FindPlane(normal mgl64.Vec3, dist float64) int {
	if l := normal.Len(); l > 0 && math.Abs(l-1) > NORMAL_EPSILON {
		normal = normal.Mul(1 / l)
		dist /= l
	}
	normal, dist = t.snapPlane(normal, dist)

	tpe := PlaneTypeForNormal(normal)
	// dominant axis decides which orientation is canonical
	flipped := normal[tpe%3] < 0
	if flipped {
		normal = normal.Mul(-1)
		dist = -dist
	}

	key := int(math.Floor(dist))
	for k := key - 1; k <= key+1; k++ {
		for _, idx := range t.hash[k] {
			if t.planeEqual(t.planes[idx], normal, dist) {
				if flipped {
					return idx ^ 1
				}
				return idx
			}
		}
	}

	canonical := Plane{Normal: normal, Dist: dist, Type: tpe}
	idx := len(t.planes)
	t.planes = append(t.planes, canonical, canonical.Flip())
	t.hash[key] = append(t.hash[key], idx)
	if flipped {
		return idx ^ 1
	}
	return idx
}
