// Package light picks one emitter per shading evaluation: the sun or one
// emissive instance, chosen proportionally to estimated flux with a
// single-pass weighted reservoir over the emitter list.
package light

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/CreatorSiSo/hikari/rt/core"
	"github.com/CreatorSiSo/hikari/rt/scene"
)

const tau = 2 * math.Pi

// Selection sentinels for SelectCandidate's instance parameter.
const (
	// DontSampleEmissive restricts selection to the directional light.
	DontSampleEmissive = ^uint32(0)
	// ExcludeNone considers every emitter without skipping any instance.
	ExcludeNone = ^uint32(0) - 1
)

type Kind uint32

const (
	Directional Kind = iota
	Emissive
)

// Candidate is an ephemeral single-sample description of a chosen light.
// Never persisted across frames.
type Candidate struct {
	ConeAxis    mgl32.Vec3
	ConeCos     float32 // cosine of the cone half-angle
	Direction   mgl32.Vec3
	MinDistance float32
	MaxDistance float32
	Kind        Kind
	Instance    uint32 // emissive instance index, InvalidIndex for the sun
	P           float32
}

type Sampler struct {
	Scene      *scene.Scene
	SolarAngle float32 // angular radius of the sun disk
}

// sunFlux is the sun luminance scaled by the solid angle of its disk.
func (ls *Sampler) sunFlux() float32 {
	return core.Luminance(ls.Scene.Sun.Color) * coneSolidAngle(cos32(ls.SolarAngle))
}

// emitterCone bounds an emissive instance by its world AABB sphere as
// seen from position.
func emitterCone(in *scene.Instance, position mgl32.Vec3) (axis mgl32.Vec3, coneCos, distance, radius float32) {
	center := in.Center()
	radius = in.AABB.Max.Sub(in.AABB.Min).Len() * 0.5

	d := center.Sub(position)
	distance = d.Len()
	if distance < core.Epsilon {
		return mgl32.Vec3{0, 1, 0}, 1, 0, radius
	}
	axis = d.Mul(1 / distance)

	sin := radius / distance
	if sin >= 1 {
		// Shading point inside the bounding sphere: full hemisphere.
		return axis, 0, distance, radius
	}
	coneCos = sqrt32(1 - sin*sin)
	return axis, coneCos, distance, radius
}

// emitterFlux combines luminance, the material's area proxy (emissive
// alpha) and a horizon-clipping visibility factor for the cone.
func (ls *Sampler) emitterFlux(in *scene.Instance, position, normal mgl32.Vec3) float32 {
	material := &ls.Scene.Materials[in.MaterialIndex]
	axis, coneCos, _, _ := emitterCone(in, position)

	sin := sqrt32(max(0, 1-coneCos*coneCos))
	noa := normal.Dot(axis)
	visibility := float32(1)
	if sin > core.Epsilon {
		visibility = clamp((noa+sin)/(2*sin), 0, 1)
	} else if noa <= 0 {
		visibility = 0
	}

	return core.Luminance(material.Emissive.Vec3()) * material.Emissive.W() * coneSolidAngle(coneCos) * visibility
}

// SelectCandidate picks exactly one light with probability proportional
// to flux. Passing DontSampleEmissive considers only the sun; otherwise
// an emitter whose index equals the parameter is skipped to prevent
// self-shadowing on the same instance.
func (ls *Sampler) SelectCandidate(rng *core.RandomState, position, normal mgl32.Vec3, excluded uint32) Candidate {
	sun := ls.Scene.Sun
	candidate := Candidate{
		ConeAxis:    sun.Direction.Mul(-1),
		ConeCos:     cos32(ls.SolarAngle),
		MinDistance: core.MaxDistance,
		MaxDistance: core.MaxDistance,
		Kind:        Directional,
		Instance:    core.InvalidIndex,
	}

	flux := ls.sunFlux()
	wSum := flux
	selectedFlux := flux

	if excluded != DontSampleEmissive {
		for _, idx := range ls.Scene.Emissive {
			if idx == excluded {
				continue
			}
			in := &ls.Scene.Instances[idx]

			flux = ls.emitterFlux(in, position, normal)
			if flux <= 0 {
				continue
			}
			wSum += flux

			// Streaming weighted selection: replace with probability
			// flux / wSum keeps the choice flux-proportional.
			if rng.NextFloat() < flux/wSum {
				axis, coneCos, distance, radius := emitterCone(in, position)
				candidate.ConeAxis = axis
				candidate.ConeCos = coneCos
				candidate.MinDistance = max(0, distance-radius)
				candidate.MaxDistance = distance + radius
				candidate.Kind = Emissive
				candidate.Instance = idx
				selectedFlux = flux
			}
		}
	}

	if wSum <= 0 {
		candidate.P = 0
		return candidate
	}

	// P is the light selection probability; the cone direction pdf is
	// carried separately by SampleUniformCone.
	candidate.P = selectedFlux / wSum
	candidate.Direction, _ = SampleUniformCone(rng.NextVec2(), candidate.ConeAxis, candidate.ConeCos)
	return candidate
}

// PDF re-evaluates the candidate's selection probability for an
// arbitrary direction without re-selecting: P inside the sampling cone,
// zero outside.
func (c Candidate) PDF(dir mgl32.Vec3) float32 {
	if dir.Dot(c.ConeAxis) < c.ConeCos {
		return 0
	}
	return c.P
}

// SampleUniformCone maps two uniform randoms to a direction within the
// cone (axis, cosHalf), uniform over the cone's solid angle, and returns
// the direction with its analytic pdf.
func SampleUniformCone(rand2 mgl32.Vec2, axis mgl32.Vec3, cosHalf float32) (mgl32.Vec3, float32) {
	cosTheta := 1 - rand2.X()*(1-cosHalf)
	sinTheta := sqrt32(max(0, 1-cosTheta*cosTheta))
	phi := tau * rand2.Y()

	tangent, bitangent := orthonormalBasis(axis)
	dir := tangent.Mul(sinTheta * cos32(phi)).
		Add(bitangent.Mul(sinTheta * sin32(phi))).
		Add(axis.Mul(cosTheta))
	return dir, ConePDF(cosHalf)
}

// ConePDF is the uniform density over a cone's solid angle.
func ConePDF(cosHalf float32) float32 {
	solid := coneSolidAngle(cosHalf)
	if solid <= 0 {
		return 0
	}
	return 1 / solid
}

func coneSolidAngle(cosHalf float32) float32 {
	return tau * (1 - cosHalf)
}

func orthonormalBasis(n mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	var up mgl32.Vec3
	if abs32(n.X()) > 0.9 {
		up = mgl32.Vec3{0, 1, 0}
	} else {
		up = mgl32.Vec3{1, 0, 0}
	}
	tangent := up.Cross(n).Normalize()
	return tangent, n.Cross(tangent)
}

func cos32(x float32) float32  { return float32(math.Cos(float64(x))) }
func sin32(x float32) float32  { return float32(math.Sin(float64(x))) }
func sqrt32(x float32) float32 { return float32(math.Sqrt(float64(x))) }
func abs32(x float32) float32 {
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

func max(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
