package restir

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/CreatorSiSo/hikari/rt/core"
)

// NormalCosThreshold rejects reuse across surfaces whose normals diverge
// by more than 30 degrees.
const NormalCosThreshold = 0.866

// Depth-ratio window for spatial neighbor acceptance.
const (
	SpatialDepthRatioMin = 0.9
	SpatialDepthRatioMax = 1.1
)

// Jacobian clamp ranges; bounds numerical blow-up near grazing or
// near-coincident geometry.
const (
	jacobianMin    = 1.0
	jacobianMax    = 50.0
	invJacobianMin = 0.06
	invJacobianMax = 1.0
)

// TemporalValid is the reuse gate: history may be statistically blended
// with a new sample only when the reprojected surface is plausibly the
// same one. The depth threshold is randomized to break up disocclusion
// banding.
func TemporalValid(current, previous *Sample, rng *core.RandomState) bool {
	if current.VisibleInstance != previous.VisibleInstance {
		return false
	}

	depth := current.VisiblePosition.W()
	prevDepth := previous.VisiblePosition.W()
	if depth < core.Epsilon {
		return false
	}
	threshold := 0.1 * (1 + rng.NextFloat())
	if abs(prevDepth/depth-1) > threshold {
		return false
	}

	return current.VisibleNormal.Dot(previous.VisibleNormal) >= NormalCosThreshold
}

// Jacobian reweights a neighbor's path for reuse at a different visible
// point: the ratio of cosines at the sampled point times the inverse
// ratio of squared distances. Applied when the neighbor's sample hit
// geometry; clamped to [1, 50].
func Jacobian(newVisible mgl32.Vec3, q *Sample) float32 {
	samplePos := q.SamplePosition.Vec3()
	toOld := q.VisiblePosition.Vec3().Sub(samplePos)
	toNew := newVisible.Sub(samplePos)

	oldSq := toOld.Dot(toOld)
	newSq := toNew.Dot(toNew)
	if oldSq < core.Epsilon || newSq < core.Epsilon {
		return jacobianMin
	}

	cosOld := q.SampleNormal.Dot(toOld.Mul(1 / sqrt(oldSq)))
	cosNew := q.SampleNormal.Dot(toNew.Mul(1 / sqrt(newSq)))
	if cosOld < core.Epsilon {
		return jacobianMin
	}

	j := (cosNew / cosOld) * (oldSq / newSq)
	return clamp(j, jacobianMin, jacobianMax)
}

// InvJacobian is the reciprocal correction, clamped to [0.06, 1]; used
// for samples that escaped to the environment where the distance ratio
// degenerates.
func InvJacobian(newVisible mgl32.Vec3, q *Sample) float32 {
	samplePos := q.SamplePosition.Vec3()
	toOld := q.VisiblePosition.Vec3().Sub(samplePos)
	toNew := newVisible.Sub(samplePos)

	oldSq := toOld.Dot(toOld)
	newSq := toNew.Dot(toNew)
	if oldSq < core.Epsilon || newSq < core.Epsilon {
		return invJacobianMax
	}

	cosOld := q.SampleNormal.Dot(toOld.Mul(1 / sqrt(oldSq)))
	cosNew := q.SampleNormal.Dot(toNew.Mul(1 / sqrt(newSq)))
	if cosNew < core.Epsilon {
		return invJacobianMax
	}

	j := (cosOld / cosNew) * (newSq / oldSq)
	return clamp(j, invJacobianMin, invJacobianMax)
}

// RadianceValid is the periodic validation tolerance: a freshly traced
// radiance must stay within [0.8, 1.25] of the cached luminance or the
// reservoir is reset.
func RadianceValid(cached, fresh mgl32.Vec3) bool {
	cl := core.Luminance(cached)
	fl := core.Luminance(fresh)
	if cl < core.Epsilon {
		return fl < core.Epsilon
	}
	ratio := fl / cl
	return ratio >= 0.8 && ratio <= 1.25
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func sqrt(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}
