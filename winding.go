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

// winding.go
package main

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
)

const MAX_POINTS_ON_WINDING = 96

// Winding is a convex polygon, points wound so that the normal computed from
// them faces the same way as the plane the winding lies on. nil means "no
// polygon". Windings are never modified in place once they are owned by a
// portal, operations return new ones
type Winding []mgl64.Vec3

// BaseWindingForPlane returns a square lying on the plane, centered at the
// point of the plane closest to origin, with half-size extent
func BaseWindingForPlane(p Plane, extent float64) Winding {
	// find the major axis
	x := -1
	max := -1.0
	for i := 0; i < 3; i++ {
		v := math.Abs(p.Normal[i])
		if v > max {
			x = i
			max = v
		}
	}

	var vup mgl64.Vec3
	switch x {
	case 0, 1:
		vup[2] = 1
	case 2:
		vup[0] = 1
	}

	v := vup.Dot(p.Normal)
	vup = vup.Add(p.Normal.Mul(-v)).Normalize()

	org := p.Normal.Mul(p.Dist)
	vright := vup.Cross(p.Normal)

	vup = vup.Mul(extent)
	vright = vright.Mul(extent)

	return Winding{
		org.Sub(vright).Add(vup),
		org.Add(vright).Add(vup),
		org.Add(vright).Sub(vup),
		org.Sub(vright).Sub(vup),
	}
}

func (w Winding) Area() float64 {
	total := 0.0
	for i := 2; i < len(w); i++ {
		d1 := w[i-1].Sub(w[0])
		d2 := w[i].Sub(w[0])
		total += 0.5 * d1.Cross(d2).Len()
	}
	return total
}

func (w Winding) Center() mgl64.Vec3 {
	var c mgl64.Vec3
	if len(w) == 0 {
		return c
	}
	for _, p := range w {
		c = c.Add(p)
	}
	return c.Mul(1 / float64(len(w)))
}

func (w Winding) Bounds() AABB {
	b := EmptyAABB()
	for _, p := range w {
		b = b.AddPoint(p)
	}
	return b
}

// Plane computes the plane of the winding from its first three points
func (w Winding) Plane() Plane {
	v1 := w[1].Sub(w[0])
	v2 := w[2].Sub(w[0])
	normal := v2.Cross(v1).Normalize()
	return Plane{
		Normal: normal,
		Dist:   w[0].Dot(normal),
		Type:   PlaneTypeForNormal(normal),
	}
}

// Flip reverses winding order, the result faces the other way
func (w Winding) Flip() Winding {
	if w == nil {
		return nil
	}
	f := make(Winding, len(w))
	for i := range w {
		f[i] = w[len(w)-1-i]
	}
	return f
}

// IsTiny reports whether the winding has fewer than three edges longer than
// edgeLength. Tiny windings are not worth making portals of
func (w Winding) IsTiny(edgeLength float64) bool {
	edges := 0
	for i := range w {
		j := i + 1
		if j == len(w) {
			j = 0
		}
		if w[j].Sub(w[i]).Len() > edgeLength {
			edges++
			if edges == 3 {
				return false
			}
		}
	}
	return true
}

// CalcSides classifies every point against the plane. dists and sides, when
// not nil, must have room for len(w)+1 entries: the last entry repeats the
// first so that edges can be walked without wrapping
func (w Winding) CalcSides(p Plane, epsilon float64, dists []float64,
	sides []int) [SIDE_TOTAL]int {
	var counts [SIDE_TOTAL]int
	for i, pt := range w {
		side := ClassifyPoint(p, pt, epsilon)
		if dists != nil {
			dists[i] = p.DistanceTo(pt)
		}
		if sides != nil {
			sides[i] = side
		}
		counts[side]++
	}
	if len(w) > 0 {
		if dists != nil {
			dists[len(w)] = dists[0]
		}
		if sides != nil {
			sides[len(w)] = sides[0]
		}
	}
	return counts
}

// Clip cuts the winding by the plane and returns the pieces in front of and
// behind it. Points lying on the plane go to both pieces. A winding lying
// entirely on the plane is returned as front when keepOn is set, otherwise
// as back. A winding with no points on one side is returned whole as the
// other piece. Pieces with less than three points or with no area are nil
func (w Winding) Clip(p Plane, epsilon float64, keepOn bool) (Winding, Winding) {
	n := len(w)
	if n == 0 {
		return nil, nil
	}
	dists := make([]float64, n+1)
	sides := make([]int, n+1)
	counts := w.CalcSides(p, epsilon, dists, sides)

	if keepOn && counts[SIDE_FRONT] == 0 && counts[SIDE_BACK] == 0 {
		return w, nil
	}
	if counts[SIDE_FRONT] == 0 {
		return nil, w
	}
	if counts[SIDE_BACK] == 0 {
		return w, nil
	}

	front := make(Winding, 0, n+4)
	back := make(Winding, 0, n+4)
	for i := 0; i < n; i++ {
		p1 := w[i]

		if sides[i] == SIDE_ON {
			front = append(front, p1)
			back = append(back, p1)
			continue
		}
		if sides[i] == SIDE_FRONT {
			front = append(front, p1)
		} else {
			back = append(back, p1)
		}

		if sides[i+1] == SIDE_ON || sides[i+1] == sides[i] {
			continue
		}

		// generate a split point
		p2 := w[(i+1)%n]
		dot := dists[i] / (dists[i] - dists[i+1])
		var mid mgl64.Vec3
		for j := 0; j < 3; j++ {
			// avoid round off error when possible
			if p.Normal[j] == 1 {
				mid[j] = p.Dist
			} else if p.Normal[j] == -1 {
				mid[j] = -p.Dist
			} else {
				mid[j] = p1[j] + dot*(p2[j]-p1[j])
			}
		}
		front = append(front, mid)
		back = append(back, mid)
	}

	return collapseWinding(front), collapseWinding(back)
}

// Chop keeps only the part of winding in front of the plane. A winding lying
// on the plane is dropped
func (w Winding) Chop(p Plane, epsilon float64) Winding {
	front, _ := w.Clip(p, epsilon, false)
	return front
}

func collapseWinding(w Winding) Winding {
	if len(w) < 3 || w.Area() <= WINDING_AREA_EPSILON {
		return nil
	}
	return w
}

// Check returns an error describing the first violated winding invariant:
// point count, area, coordinate range, coplanarity, degenerate edges and
// convexity
func (w Winding) Check(epsilon float64, bogusRange float64) error {
	if len(w) < 3 {
		return errors.New("winding has less than 3 points").
			WithType(ErrTypeBadWinding).
			WithTag("points", len(w))
	}
	if len(w) > MAX_POINTS_ON_WINDING {
		return errors.New("winding has too many points").
			WithType(ErrTypeWindingOverflow).
			WithTag("points", len(w))
	}
	if area := w.Area(); area <= WINDING_AREA_EPSILON {
		return errors.New("winding has no area").
			WithType(ErrTypeBadWinding).
			WithTag("area", area)
	}

	face := w.Plane()
	for i, p1 := range w {
		for j := 0; j < 3; j++ {
			if p1[j] > bogusRange || p1[j] < -bogusRange {
				return errors.New("winding point out of range").
					WithType(ErrTypeBadWinding).
					WithTag("point", vecToArray(p1))
			}
		}

		// check the point is on the face plane
		if d := face.DistanceTo(p1); d < -epsilon || d > epsilon {
			return errors.New("winding point off plane").
				WithType(ErrTypeBadWinding).
				WithTag("point", vecToArray(p1)).
				WithTag("distance", d)
		}

		p2 := w[(i+1)%len(w)]
		dir := p2.Sub(p1)
		if dir.Len() < epsilon {
			return errors.New("winding has degenerate edge").
				WithType(ErrTypeBadWinding).
				WithTag("index", i)
		}

		edgeNormal := face.Normal.Cross(dir).Normalize()
		edgeDist := p1.Dot(edgeNormal) + epsilon

		// all other points must be on front side
		for j, p := range w {
			if j == i {
				continue
			}
			if p.Dot(edgeNormal) > edgeDist {
				return errors.New("winding is not convex").
					WithType(ErrTypeBadWinding).
					WithTag("index", i)
			}
		}
	}
	return nil
}

// DirectionalEqual compares windings point by point allowing any starting
// point, winding order must match
func (w Winding) DirectionalEqual(o Winding, epsilon float64) bool {
	if len(w) != len(o) {
		return false
	}
	if len(w) == 0 {
		return true
	}
	for start := range o {
		if !vecEpsilonEqual(w[0], o[start], epsilon) {
			continue
		}
		match := true
		for i := range w {
			if !vecEpsilonEqual(w[i], o[(start+i)%len(o)], epsilon) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// UndirectionalEqual is DirectionalEqual that also accepts reversed order
func (w Winding) UndirectionalEqual(o Winding, epsilon float64) bool {
	return w.DirectionalEqual(o, epsilon) ||
		w.DirectionalEqual(o.Flip(), epsilon)
}
