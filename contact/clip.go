package contact

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// clipTolerance keeps points lying on a clipping line despite rounding
const clipTolerance = 1e-9

// plane is the 2D frame of the contact plane: two tangents orthogonal to the normal
type plane struct {
	normal, t1, t2 mgl64.Vec3
}

func (p plane) project(point mgl64.Vec3) mgl64.Vec2 {
	return mgl64.Vec2{point.Dot(p.t1), point.Dot(p.t2)}
}

func (p plane) projectAll(points []mgl64.Vec3) []mgl64.Vec2 {
	result := make([]mgl64.Vec2, len(points))
	for i, point := range points {
		result[i] = p.project(point)
	}

	return result
}

// lift returns the point of a world feature whose projection on the contact plane is q.
// The component along the normal is read from the feature's own plane, segment or point.
func (p plane) lift(q mgl64.Vec2, feature []mgl64.Vec3) mgl64.Vec3 {
	base := p.t1.Mul(q.X()).Add(p.t2.Mul(q.Y()))

	var height float64
	switch {
	case len(feature) >= 3:
		m := newell(feature)
		denominator := m.Dot(p.normal)
		if math.Abs(denominator) > 1e-9 {
			height = m.Dot(feature[0].Sub(base)) / denominator
		} else {
			height = feature[0].Dot(p.normal)
		}
	case len(feature) == 2:
		a, b := p.project(feature[0]), p.project(feature[1])
		ab := b.Sub(a)
		u := 0.0
		if l := ab.LenSqr(); l > 1e-18 {
			u = math.Max(0, math.Min(1, q.Sub(a).Dot(ab)/l))
		}
		height = feature[0].Add(feature[1].Sub(feature[0]).Mul(u)).Dot(p.normal)
	case len(feature) == 1:
		height = feature[0].Dot(p.normal)
	}

	return base.Add(p.normal.Mul(height))
}

// newell computes an area-weighted normal of a planar polygon
func newell(polygon []mgl64.Vec3) mgl64.Vec3 {
	var n mgl64.Vec3
	for i := range polygon {
		n = n.Add(polygon[i].Cross(polygon[(i+1)%len(polygon)]))
	}

	return n
}

func cross2(a, b mgl64.Vec2) float64 {
	return a.X()*b.Y() - a.Y()*b.X()
}

// signedArea is positive for counter-clockwise polygons
func signedArea(polygon []mgl64.Vec2) float64 {
	area := 0.0
	for i := range polygon {
		area += cross2(polygon[i], polygon[(i+1)%len(polygon)])
	}

	return area * 0.5
}

// counterClockwise reverses polygon in place when it winds clockwise
func counterClockwise(polygon []mgl64.Vec2) []mgl64.Vec2 {
	if signedArea(polygon) < 0 {
		for i, j := 0, len(polygon)-1; i < j; i, j = i+1, j-1 {
			polygon[i], polygon[j] = polygon[j], polygon[i]
		}
	}

	return polygon
}

// intersect2 computes the overlap of two convex 2D features (point, segment or polygon).
// An empty result means the features do not overlap once projected.
func intersect2(p, q []mgl64.Vec2) []mgl64.Vec2 {
	if len(p) > len(q) {
		p, q = q, p
	}

	switch {
	case len(p) == 0:
		return nil
	case len(p) == 1:
		// a point feature is where the contact is
		return []mgl64.Vec2{p[0]}
	case len(p) == 2 && len(q) == 2:
		return intersectSegments(p[0], p[1], q[0], q[1])
	case len(p) == 2:
		return clipSegment(p[0], p[1], counterClockwise(q))
	}

	return clipPolygon(counterClockwise(p), counterClockwise(q))
}

// clipPolygon clips subject by every edge of the convex clip polygon (Sutherland-Hodgman).
// Both polygons are counter-clockwise.
func clipPolygon(subject, clip []mgl64.Vec2) []mgl64.Vec2 {
	output := subject
	for i := range clip {
		if len(output) == 0 {
			break
		}
		output = clipAgainstEdge(output, clip[i], clip[(i+1)%len(clip)])
	}

	return deduplicate(output)
}

// deduplicate drops consecutive vertices closer than the clipping tolerance,
// which appear when a vertex lies exactly on a clipping line.
func deduplicate(polygon []mgl64.Vec2) []mgl64.Vec2 {
	if len(polygon) < 2 {
		return polygon
	}

	result := polygon[:1]
	for _, point := range polygon[1:] {
		if point.Sub(result[len(result)-1]).LenSqr() > clipTolerance*clipTolerance {
			result = append(result, point)
		}
	}
	for len(result) > 1 && result[0].Sub(result[len(result)-1]).LenSqr() <= clipTolerance*clipTolerance {
		result = result[:len(result)-1]
	}

	return result
}

// clipAgainstEdge keeps the part of polygon left of the directed line a→b
func clipAgainstEdge(polygon []mgl64.Vec2, a, b mgl64.Vec2) []mgl64.Vec2 {
	edge := b.Sub(a)
	scale := edge.Len()
	if scale < 1e-12 {
		return polygon
	}

	output := make([]mgl64.Vec2, 0, len(polygon)+1)
	for i := range polygon {
		current := polygon[i]
		next := polygon[(i+1)%len(polygon)]

		currentSide := cross2(edge, current.Sub(a)) / scale
		nextSide := cross2(edge, next.Sub(a)) / scale

		if currentSide >= -clipTolerance {
			output = append(output, current)
			if nextSide < -clipTolerance {
				output = append(output, crossing(current, next, currentSide, nextSide))
			}
		} else if nextSide >= -clipTolerance {
			output = append(output, crossing(current, next, currentSide, nextSide))
		}
	}

	return output
}

// crossing interpolates the point where the signed side changes between p1 and p2
func crossing(p1, p2 mgl64.Vec2, side1, side2 float64) mgl64.Vec2 {
	denominator := side1 - side2
	if math.Abs(denominator) < 1e-15 {
		return p1
	}
	t := math.Max(0, math.Min(1, side1/denominator))

	return p1.Add(p2.Sub(p1).Mul(t))
}

// clipSegment keeps the part of the segment inside a convex counter-clockwise polygon (Cyrus-Beck)
func clipSegment(a, b mgl64.Vec2, polygon []mgl64.Vec2) []mgl64.Vec2 {
	direction := b.Sub(a)
	enter, exit := 0.0, 1.0

	for i := range polygon {
		v1 := polygon[i]
		edge := polygon[(i+1)%len(polygon)].Sub(v1)
		scale := edge.Len()
		if scale < 1e-12 {
			continue
		}

		side := cross2(edge, a.Sub(v1)) / scale
		rate := cross2(edge, direction) / scale

		if math.Abs(rate) < 1e-15 {
			if side < -clipTolerance {
				return nil
			}
			continue
		}

		t := -side / rate
		if rate > 0 {
			enter = math.Max(enter, t)
		} else {
			exit = math.Min(exit, t)
		}
		if enter > exit+clipTolerance {
			return nil
		}
	}

	enter = math.Max(0, enter)
	exit = math.Min(1, math.Max(enter, exit))
	if exit-enter < 1e-12 {
		return []mgl64.Vec2{a.Add(direction.Mul(enter))}
	}

	return []mgl64.Vec2{a.Add(direction.Mul(enter)), a.Add(direction.Mul(exit))}
}

// intersectSegments handles crossing and overlapping collinear segments
func intersectSegments(a1, a2, b1, b2 mgl64.Vec2) []mgl64.Vec2 {
	da := a2.Sub(a1)
	db := b2.Sub(b1)
	denominator := cross2(da, db)
	offset := b1.Sub(a1)

	scale := math.Max(da.Len()*db.Len(), 1e-18)
	if math.Abs(denominator) > 1e-9*scale {
		s := cross2(offset, db) / denominator
		t := cross2(offset, da) / denominator
		const slack = 1e-6
		if s < -slack || s > 1+slack || t < -slack || t > 1+slack {
			return nil
		}

		return []mgl64.Vec2{a1.Add(da.Mul(s))}
	}

	// parallel: overlap only when collinear
	length := da.Len()
	if length < 1e-12 {
		return []mgl64.Vec2{a1}
	}
	if math.Abs(cross2(da, offset))/length > 1e-6 {
		return nil
	}

	axis := da.Mul(1 / (length * length))
	t1 := offset.Dot(axis)
	t2 := b2.Sub(a1).Dot(axis)
	lo := math.Max(0, math.Min(t1, t2))
	hi := math.Min(1, math.Max(t1, t2))
	if lo > hi {
		return nil
	}
	if hi-lo < 1e-12 {
		return []mgl64.Vec2{a1.Add(da.Mul(lo))}
	}

	return []mgl64.Vec2{a1.Add(da.Mul(lo)), a1.Add(da.Mul(hi))}
}
