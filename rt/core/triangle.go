package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Epsilon rejects near-parallel triangle planes and self-intersections
// at the ray origin.
const Epsilon = 1e-5

// Intersection is a barycentric UV plus the hit distance along the ray.
// Distance == MaxDistance means no intersection.
type Intersection struct {
	UV       mgl32.Vec2
	Distance float32
}

// Hit is the result of a traversal. InstanceIndex == InvalidIndex means
// the ray escaped to the environment; Distance then holds the traversal
// ceiling that was supplied.
type Hit struct {
	Intersection
	InstanceIndex  uint32
	PrimitiveIndex uint32
}

func NewHit(maxDistance float32) Hit {
	return Hit{
		Intersection:   Intersection{Distance: maxDistance},
		InstanceIndex:  InvalidIndex,
		PrimitiveIndex: InvalidIndex,
	}
}

// IntersectTriangle is a Moller-Trumbore intersection against the
// triangle (a, b, c). Rejects rays near-parallel to the plane, hits
// behind (or at) the origin, and barycentric coordinates outside the
// triangle.
func IntersectTriangle(r Ray, a, b, c mgl32.Vec3) Intersection {
	out := Intersection{Distance: MaxDistance}

	ab := b.Sub(a)
	ac := c.Sub(a)

	p := r.Dir.Cross(ac)
	det := ab.Dot(p)
	if det < Epsilon && det > -Epsilon {
		return out
	}

	invDet := 1.0 / det
	ao := r.Origin.Sub(a)
	u := ao.Dot(p) * invDet
	if u < 0 || u > 1 {
		return out
	}

	q := ao.Cross(ab)
	v := r.Dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return out
	}

	t := ac.Dot(q) * invDet
	if t <= Epsilon {
		return out
	}

	out.UV = mgl32.Vec2{u, v}
	out.Distance = t
	return out
}
