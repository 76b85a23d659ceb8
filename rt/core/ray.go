package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxDistance is the "no intersection" sentinel for distance queries,
// also used as the default traversal ceiling.
const MaxDistance = float32(math.MaxFloat32)

// InvalidIndex marks "no hit" / "no instance" in index fields.
const InvalidIndex = ^uint32(0)

// Ray carries a precomputed reciprocal direction for the slab test.
// Zero direction components produce +/-Inf reciprocals, which the slab
// arithmetic handles without branching.
type Ray struct {
	Origin mgl32.Vec3
	Dir    mgl32.Vec3
	InvDir mgl32.Vec3
}

func NewRay(origin, dir mgl32.Vec3) Ray {
	return Ray{
		Origin: origin,
		Dir:    dir,
		InvDir: mgl32.Vec3{1.0 / dir.X(), 1.0 / dir.Y(), 1.0 / dir.Z()},
	}
}

type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func (b AABB) Union(other AABB) AABB {
	return AABB{
		Min: mgl32.Vec3{min(b.Min.X(), other.Min.X()), min(b.Min.Y(), other.Min.Y()), min(b.Min.Z(), other.Min.Z())},
		Max: mgl32.Vec3{max(b.Max.X(), other.Max.X()), max(b.Max.Y(), other.Max.Y()), max(b.Max.Z(), other.Max.Z())},
	}
}

func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// DistanceToAABB is the slab test. Returns the entry distance along the
// ray, or MaxDistance when the ray misses the box or the box lies fully
// behind the origin.
func (r Ray) DistanceToAABB(b AABB) float32 {
	t1 := (b.Min.X() - r.Origin.X()) * r.InvDir.X()
	t2 := (b.Max.X() - r.Origin.X()) * r.InvDir.X()
	tMin := min(t1, t2)
	tMax := max(t1, t2)

	t1 = (b.Min.Y() - r.Origin.Y()) * r.InvDir.Y()
	t2 = (b.Max.Y() - r.Origin.Y()) * r.InvDir.Y()
	tMin = max(tMin, min(t1, t2))
	tMax = min(tMax, max(t1, t2))

	t1 = (b.Min.Z() - r.Origin.Z()) * r.InvDir.Z()
	t2 = (b.Max.Z() - r.Origin.Z()) * r.InvDir.Z()
	tMin = max(tMin, min(t1, t2))
	tMax = min(tMax, max(t1, t2))

	if tMax < max(tMin, 0) {
		return MaxDistance
	}
	return max(tMin, 0)
}

func min(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
func max(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
