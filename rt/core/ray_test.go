package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestDistanceToAABBHit(t *testing.T) {
	box := AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	ray := NewRay(mgl32.Vec3{0.2, 0.3, -5}, mgl32.Vec3{0, 0, 1})

	d := ray.DistanceToAABB(box)
	if d < 3.99 || d > 4.01 {
		t.Errorf("Expected entry distance ~4, got %f", d)
	}
}

func TestDistanceToAABBMiss(t *testing.T) {
	box := AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	ray := NewRay(mgl32.Vec3{5, 5, -5}, mgl32.Vec3{0.1, 0.1, 1}.Normalize())

	if d := ray.DistanceToAABB(box); d != MaxDistance {
		t.Errorf("Expected MaxDistance sentinel on miss, got %f", d)
	}
}

func TestDistanceToAABBBehindOrigin(t *testing.T) {
	box := AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	ray := NewRay(mgl32.Vec3{0.2, 0.3, 5}, mgl32.Vec3{0, 0, 1})

	if d := ray.DistanceToAABB(box); d != MaxDistance {
		t.Errorf("Expected MaxDistance for box behind origin, got %f", d)
	}
}

func TestDistanceToAABBInside(t *testing.T) {
	box := AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	ray := NewRay(mgl32.Vec3{0.2, 0.3, 0.4}, mgl32.Vec3{0, 0, 1})

	if d := ray.DistanceToAABB(box); d != 0 {
		t.Errorf("Expected 0 for origin inside the box, got %f", d)
	}
}

func TestAABBUnionCenter(t *testing.T) {
	a := AABB{Min: mgl32.Vec3{-2, 0, 0}, Max: mgl32.Vec3{-1, 1, 1}}
	b := AABB{Min: mgl32.Vec3{1, -1, 0}, Max: mgl32.Vec3{2, 1, 3}}

	u := a.Union(b)
	if u.Min != (mgl32.Vec3{-2, -1, 0}) || u.Max != (mgl32.Vec3{2, 1, 3}) {
		t.Errorf("Unexpected union: min=%v max=%v", u.Min, u.Max)
	}
	if c := u.Center(); c != (mgl32.Vec3{0, 0, 1.5}) {
		t.Errorf("Unexpected center: %v", c)
	}
}
