package kernel

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/CreatorSiSo/hikari/rt/core"
	"github.com/CreatorSiSo/hikari/rt/restir"
	"github.com/CreatorSiSo/hikari/rt/shading"
	"github.com/CreatorSiSo/hikari/rt/trace"
)

// Indirect traces one ambient bounce per pixel and maintains the
// indirect temporal reservoirs the spatial pass reuses. It also writes
// the pre-integrated ambient fallback texture.
func Indirect(ctx *Context) {
	gb := ctx.GBuffer
	u := ctx.Uniforms

	dispatch(gb.Width, gb.Height, ctx.Workers, func(x, y int) {
		i := gb.Index(x, y)
		instance := gb.Instance[i]
		r := ctx.IndirectCurr.At(x, y)

		if instance == core.InvalidIndex {
			r.Init()
			ctx.Ambient.Set(x, y, u.AmbientColor.Vec4(1))
			return
		}

		position := gb.Position[i].Vec3()
		depth := gb.Position[i].W()
		normal := gb.Normal[i]
		uv := mgl32.Vec2{gb.Velocity[i].Z(), gb.Velocity[i].W()}
		surface := ctx.surfaceAt(instance, uv)

		ctx.Ambient.Set(x, y, surface.Ambient(u.AmbientColor).Vec4(1))

		rng := ctx.rngFor(x, y)
		seed := rng.Seed

		dir, pdf := sampleCosineHemisphere(rng.NextVec2(), normal)
		s := ctx.traceBounce(position, depth, normal, instance, dir, rng)
		s.Random = seed

		w := sampleWeight(s.Radiance.Vec3(), pdf)

		r.Init()
		if !u.SuppressTemporalReuse {
			if px, py, ok := ctx.reproject(x, y); ok {
				prev := ctx.IndirectPrev.At(px, py)
				if prev.Count > 0 && restir.TemporalValid(&s, &prev.S, rng) {
					*r = *prev
					ctx.validateIndirect(r, rng)
				}
			}
		}

		if r.Count > 0 {
			r.Update(s, w, rng)
		} else {
			r.Set(s, w)
		}
		r.Clamp(u.MaxTemporalReuseCount)
		r.Finalize()
	})
}

// traceBounce follows one cosine-distributed bounce ray and evaluates
// the direct lighting at whatever it hits; escaped rays return the
// environment radiance.
func (ctx *Context) traceBounce(position mgl32.Vec3, depth float32, normal mgl32.Vec3, instance uint32, dir mgl32.Vec3, rng *core.RandomState) restir.Sample {
	u := ctx.Uniforms

	s := restir.Sample{
		VisiblePosition: position.Vec4(depth),
		VisibleNormal:   normal,
		VisibleInstance: instance,
	}

	ray := core.NewRay(position.Add(normal.Mul(shadowBias)), dir)
	hit := ctx.Tracer.TraverseTop(ray, core.MaxDistance, 0)

	if hit.InstanceIndex == core.InvalidIndex {
		s.SamplePosition = position.Add(dir.Mul(farDistance)).Vec4(0)
		s.SampleNormal = dir.Mul(-1)
		s.Radiance = u.AmbientColor.Vec4(1)
		return s
	}

	bouncePos := trace.HitPosition(ray, hit)
	bounceNormal := ctx.Tracer.HitNormal(hit)
	bounceUV := ctx.Tracer.HitUV(hit)
	bounceSurface := ctx.surfaceAt(hit.InstanceIndex, bounceUV)

	candidate := ctx.Lights.SelectCandidate(rng, bouncePos, bounceNormal, hit.InstanceIndex)
	incident, _, _ := ctx.candidateRadiance(bouncePos, bounceNormal, candidate)

	radiance := bounceLit(bounceSurface, incident, bounceNormal, dir.Mul(-1), candidate.Direction, candidate.P)
	radiance = radiance.Add(bounceSurface.Emissive.Vec3().Mul(bounceSurface.Emissive.W()))
	radiance = clampLuminance(radiance, u.MaxIndirectLuminance)

	s.SamplePosition = bouncePos.Vec4(1)
	s.SampleNormal = bounceNormal
	s.Radiance = radiance.Vec4(1)
	return s
}

// bounceLit shades the bounce surface, folding the light selection
// probability back in since no reservoir machinery runs at the bounce
// point.
func bounceLit(surface shading.Surface, incident mgl32.Vec3, n, v, l mgl32.Vec3, p float32) mgl32.Vec3 {
	if p < core.Epsilon {
		return mgl32.Vec3{}
	}
	return surface.Lit(incident, n, v, l).Mul(1 / p)
}

// validateIndirect re-traces the cached bounce segment; a newly
// interposed occluder (or a vanished one) resets the reservoir.
func (ctx *Context) validateIndirect(r *restir.Reservoir, rng *core.RandomState) {
	u := ctx.Uniforms
	if u.DirectValidateInterval == 0 || u.FrameNumber%u.DirectValidateInterval != 0 {
		return
	}

	position := r.S.VisiblePosition.Vec3()
	normal := r.S.VisibleNormal
	toSample := r.S.SamplePosition.Vec3().Sub(position)
	dist := toSample.Len()
	if dist < core.Epsilon {
		return
	}
	dir := toSample.Mul(1 / dist)

	replay := core.NewRandomState(r.S.Random)
	replay.NextVec2() // hemisphere draw consumed before lighting
	s := ctx.traceBounce(position, r.S.VisiblePosition.W(), normal, r.S.VisibleInstance, dir, replay)

	if restir.RadianceValid(r.S.Radiance.Vec3(), s.Radiance.Vec3()) {
		return
	}

	pdf := max32(normal.Dot(dir), core.Epsilon) / float32(math.Pi)
	r.Set(s, sampleWeight(s.Radiance.Vec3(), pdf))
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
