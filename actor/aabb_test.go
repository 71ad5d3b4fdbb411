package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestAABBOverlaps(t *testing.T) {
	unit := AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 1, 1}}

	tests := []struct {
		name     string
		other    AABB
		expected bool
	}{
		{"separated on X", AABB{Min: mgl64.Vec3{2, 0, 0}, Max: mgl64.Vec3{3, 1, 1}}, false},
		{"separated on Y (negative)", AABB{Min: mgl64.Vec3{0, -2, 0}, Max: mgl64.Vec3{1, -1, 1}}, false},
		{"separated on Z", AABB{Min: mgl64.Vec3{0, 0, 2}, Max: mgl64.Vec3{1, 1, 3}}, false},
		{"partial overlap", AABB{Min: mgl64.Vec3{0.5, 0.5, 0.5}, Max: mgl64.Vec3{2, 2, 2}}, true},
		{"contained", AABB{Min: mgl64.Vec3{0.2, 0.2, 0.2}, Max: mgl64.Vec3{0.8, 0.8, 0.8}}, true},
		{"face touching", AABB{Min: mgl64.Vec3{1, 0, 0}, Max: mgl64.Vec3{2, 1, 1}}, true},
		{"corner touching", AABB{Min: mgl64.Vec3{1, 1, 1}, Max: mgl64.Vec3{2, 2, 2}}, true},
		{"separated on one axis only", AABB{Min: mgl64.Vec3{0.5, 0.5, 1.5}, Max: mgl64.Vec3{2, 2, 2}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := unit.Overlaps(tt.other); got != tt.expected {
				t.Errorf("Expected Overlaps=%v, got %v", tt.expected, got)
			}
			if got := tt.other.Overlaps(unit); got != tt.expected {
				t.Errorf("Expected symmetric Overlaps=%v, got %v", tt.expected, got)
			}
		})
	}
}

func TestAABBContainsPoint(t *testing.T) {
	box := AABB{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 1, 1}}

	tests := []struct {
		name     string
		point    mgl64.Vec3
		expected bool
	}{
		{"center", mgl64.Vec3{0, 0, 0}, true},
		{"corner", mgl64.Vec3{1, 1, 1}, true},
		{"face center", mgl64.Vec3{0, -1, 0}, true},
		{"outside", mgl64.Vec3{0, 1.01, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := box.ContainsPoint(tt.point); got != tt.expected {
				t.Errorf("Expected ContainsPoint=%v, got %v", tt.expected, got)
			}
		})
	}
}

func TestAABBExpand(t *testing.T) {
	box := AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 1, 1}}.Expand(0.5)

	if !vec3Equal(box.Min, mgl64.Vec3{-0.5, -0.5, -0.5}, 1e-12) {
		t.Errorf("Expected min (-0.5,-0.5,-0.5), got %v", box.Min)
	}
	if !vec3Equal(box.Max, mgl64.Vec3{1.5, 1.5, 1.5}, 1e-12) {
		t.Errorf("Expected max (1.5,1.5,1.5), got %v", box.Max)
	}
}

func TestComputeAABB(t *testing.T) {
	t.Run("translated box", func(t *testing.T) {
		transform := NewTransform()
		transform.Position = mgl64.Vec3{5, 0, 0}
		box := ComputeAABB(&Box{HalfExtents: mgl64.Vec3{1, 2, 3}}, transform)

		if !vec3Equal(box.Min, mgl64.Vec3{4, -2, -3}, 1e-9) || !vec3Equal(box.Max, mgl64.Vec3{6, 2, 3}, 1e-9) {
			t.Errorf("Expected [4,-2,-3]..[6,2,3], got %v..%v", box.Min, box.Max)
		}
	})

	t.Run("box rotated 45 degrees about Y", func(t *testing.T) {
		transform := NewTransform()
		transform.Rotation = mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 1, 0})
		box := ComputeAABB(&Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, transform)

		extent := math.Sqrt2
		if !floatEqual(box.Max.X(), extent, 1e-9) || !floatEqual(box.Min.Z(), -extent, 1e-9) {
			t.Errorf("Expected X/Z extent %v, got %v", extent, box)
		}
		if !floatEqual(box.Max.Y(), 1, 1e-9) {
			t.Errorf("Expected Y extent 1, got %v", box.Max.Y())
		}
	})

	t.Run("sphere", func(t *testing.T) {
		transform := NewTransform()
		transform.Position = mgl64.Vec3{0, 3, 0}
		box := ComputeAABB(&Sphere{Radius: 2}, transform)

		if !vec3Equal(box.Min, mgl64.Vec3{-2, 1, -2}, 1e-9) || !vec3Equal(box.Max, mgl64.Vec3{2, 5, 2}, 1e-9) {
			t.Errorf("Expected [-2,1,-2]..[2,5,2], got %v..%v", box.Min, box.Max)
		}
	})

	t.Run("capsule", func(t *testing.T) {
		box := ComputeAABB(&Capsule{HalfHeight: 1, Radius: 0.5}, NewTransform())

		if !floatEqual(box.Max.Y(), 1.5, 1e-9) || !floatEqual(box.Max.X(), 0.5, 1e-9) {
			t.Errorf("Expected capsule bounds y=1.5 x=0.5, got %v", box.Max)
		}
	})
}
