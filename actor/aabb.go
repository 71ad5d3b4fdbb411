package actor

import "github.com/go-gl/mathgl/mgl64"

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// Expand grows the box by margin on every side
func (a AABB) Expand(margin float64) AABB {
	m := mgl64.Vec3{margin, margin, margin}

	return AABB{Min: a.Min.Sub(m), Max: a.Max.Add(m)}
}

// ComputeAABB returns the world bounds of shape placed at transform.
// The bounds are exact for any convex shape: each face of the box is the
// support point of the shape along the matching world axis.
func ComputeAABB(shape Shape, transform Transform) AABB {
	inverse := transform.Rotation.Conjugate()
	var box AABB

	for axis := 0; axis < 3; axis++ {
		var direction mgl64.Vec3
		direction[axis] = 1

		upper := transform.Apply(shape.Support(inverse.Rotate(direction)))
		lower := transform.Apply(shape.Support(inverse.Rotate(direction.Mul(-1))))

		box.Max[axis] = upper[axis]
		box.Min[axis] = lower[axis]
	}

	return box
}
