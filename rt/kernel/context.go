// Package kernel contains the three per-frame dispatches: direct
// lighting, indirect ambient bounce, and spatial reuse. They execute in
// strict sequence within a frame; pixels within one dispatch run in
// parallel and never communicate.
package kernel

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/CreatorSiSo/hikari/rt/core"
	"github.com/CreatorSiSo/hikari/rt/light"
	"github.com/CreatorSiSo/hikari/rt/restir"
	"github.com/CreatorSiSo/hikari/rt/scene"
	"github.com/CreatorSiSo/hikari/rt/shading"
	"github.com/CreatorSiSo/hikari/rt/trace"
)

const tau = 2 * math.Pi

// shadowBias offsets shadow/bounce ray origins off the surface.
const shadowBias = 1e-3

// Config selects the algorithmic variants once at construction; no
// per-iteration branching on these inside the kernels.
type Config struct {
	Workers int
	// EmissiveInDirect samples emissive surfaces in the direct kernel;
	// when false only the sun is considered there and emissive lighting
	// arrives through the indirect bounce.
	EmissiveInDirect bool
}

// Context carries everything one frame's kernels touch. The previous
// and current reservoir planes are distinct allocations; the renderer
// swaps them at frame boundaries.
type Context struct {
	Config

	Scene    *scene.Scene
	Tracer   *trace.Tracer
	Lights   *light.Sampler
	Uniforms Uniforms
	GBuffer  *GBuffer
	Noise    *NoiseBank

	DirectPrev   *restir.Buffer
	DirectCurr   *restir.Buffer
	IndirectPrev *restir.Buffer
	IndirectCurr *restir.Buffer
	SpatialPrev  *restir.Buffer
	SpatialCurr  *restir.Buffer

	// DirectRadiance holds the direct kernel's shaded output.
	DirectRadiance *Texture
	// Ambient is the pre-integrated BRDF x ambient fallback used for
	// disoccluded pixels.
	Ambient *Texture
	// Output is the final denoised HDR radiance.
	Output *Texture
}

func (ctx *Context) rngFor(x, y int) *core.RandomState {
	return core.NewRandomState(ctx.Noise.Seed(ctx.Uniforms.FrameNumber, x, y))
}

func (ctx *Context) surfaceAt(instance uint32, uv mgl32.Vec2) shading.Surface {
	in := &ctx.Scene.Instances[instance]
	return shading.Resolve(&ctx.Scene.Materials[in.MaterialIndex], uv)
}

// excludedFor implements the emissive variant selection for the direct
// kernel's light candidate.
func (ctx *Context) excludedFor(instance uint32) uint32 {
	if ctx.EmissiveInDirect {
		return instance
	}
	return light.DontSampleEmissive
}

// reproject maps a pixel back to its previous-frame location through
// the motion vector.
func (ctx *Context) reproject(x, y int) (int, int, bool) {
	v := ctx.GBuffer.Velocity[ctx.GBuffer.Index(x, y)]
	px := x - round32(v.X()*float32(ctx.GBuffer.Width))
	py := y - round32(v.Y()*float32(ctx.GBuffer.Height))
	if !ctx.GBuffer.Contains(px, py) {
		return 0, 0, false
	}
	return px, py, true
}

// candidateRadiance traces the candidate's shadow ray from the given
// point and returns the incoming radiance (zero when occluded) plus the
// hit/miss flag for the sample position W convention.
func (ctx *Context) candidateRadiance(position, normal mgl32.Vec3, candidate light.Candidate) (mgl32.Vec3, mgl32.Vec3, bool) {
	origin := position.Add(normal.Mul(shadowBias))
	ray := core.NewRay(origin, candidate.Direction)

	maxDistance := candidate.MaxDistance
	hit := ctx.Tracer.TraverseTop(ray, maxDistance, candidate.MinDistance)

	if candidate.Kind == light.Directional {
		if hit.InstanceIndex != core.InvalidIndex {
			// Occluded; keep the blocker position for reuse geometry.
			return mgl32.Vec3{}, trace.HitPosition(ray, hit), true
		}
		samplePos := origin.Add(candidate.Direction.Mul(farDistance))
		return ctx.sunIncident(), samplePos, false
	}

	samplePos := trace.HitPosition(ray, hit)
	if hit.InstanceIndex != candidate.Instance {
		// Either occluded or the cone sample missed the emitter.
		if hit.InstanceIndex == core.InvalidIndex {
			samplePos = origin.Add(candidate.Direction.Mul(farDistance))
			return mgl32.Vec3{}, samplePos, false
		}
		return mgl32.Vec3{}, samplePos, true
	}

	material := &ctx.Scene.Materials[ctx.Scene.Instances[candidate.Instance].MaterialIndex]
	radiance := material.Emissive.Vec3().Mul(material.Emissive.W())
	return radiance, samplePos, true
}

// farDistance stands in for "escaped to the environment" sample
// positions so reuse geometry stays finite.
const farDistance = 1e4

// sunIncident is the sun radiance over the apparent disk: the uniform
// color divided by the disk's solid angle.
func (ctx *Context) sunIncident() mgl32.Vec3 {
	return ctx.Scene.Sun.Color.Mul(light.ConePDF(cos32(ctx.Uniforms.SolarAngle)))
}

// shadeSample re-evaluates a reservoir sample's contribution at a
// surface: incoming radiance arriving from the sample point, weighted by
// the validity alpha.
func (ctx *Context) shadeSample(surface shading.Surface, position, normal mgl32.Vec3, s *restir.Sample) mgl32.Vec3 {
	dir := s.SamplePosition.Vec3().Sub(position)
	length := dir.Len()
	if length < core.Epsilon {
		return mgl32.Vec3{}
	}
	dir = dir.Mul(1 / length)

	view := ctx.Uniforms.CameraPosition.Sub(position).Normalize()
	radiance := s.Radiance.Vec3().Mul(s.Radiance.W())
	return surface.Lit(radiance, normal, view, dir)
}

// sampleCosineHemisphere draws a cosine-weighted direction around the
// normal; pdf is cos(theta)/pi.
func sampleCosineHemisphere(rand2 mgl32.Vec2, normal mgl32.Vec3) (mgl32.Vec3, float32) {
	a := tau * rand2.X()
	r := sqrt32(rand2.Y())
	z := sqrt32(1 - rand2.Y())

	tangent, bitangent := orthonormalBasis(normal)
	dir := tangent.Mul(r * cos32(a)).
		Add(bitangent.Mul(r * sin32(a))).
		Add(normal.Mul(z))
	return dir, z / float32(math.Pi)
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

func clampLuminance(c mgl32.Vec3, maxLum float32) mgl32.Vec3 {
	lum := core.Luminance(c)
	if lum > maxLum && lum > 0 {
		return c.Mul(maxLum / lum)
	}
	return c
}

// round32 rounds to the nearest int, symmetric across zero. Plain
// int(v+0.5) truncates toward zero and biases negative motion.
func round32(v float32) int {
	return int(math.Floor(float64(v) + 0.5))
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
