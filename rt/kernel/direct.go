package kernel

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/CreatorSiSo/hikari/rt/core"
	"github.com/CreatorSiSo/hikari/rt/light"
	"github.com/CreatorSiSo/hikari/rt/restir"
)

// Direct computes one light sample per pixel, folds it into the
// temporal reservoir, and writes the shaded direct radiance.
func Direct(ctx *Context) {
	gb := ctx.GBuffer
	u := ctx.Uniforms

	dispatch(gb.Width, gb.Height, ctx.Workers, func(x, y int) {
		i := gb.Index(x, y)
		instance := gb.Instance[i]
		r := ctx.DirectCurr.At(x, y)

		if instance == core.InvalidIndex {
			r.Init()
			ctx.DirectRadiance.Set(x, y, u.AmbientColor.Vec4(1))
			return
		}

		position := gb.Position[i].Vec3()
		depth := gb.Position[i].W()
		normal := gb.Normal[i]
		uv := mgl32.Vec2{gb.Velocity[i].Z(), gb.Velocity[i].W()}
		surface := ctx.surfaceAt(instance, uv)

		rng := ctx.rngFor(x, y)
		seed := rng.Seed

		candidate := ctx.Lights.SelectCandidate(rng, position, normal, ctx.excludedFor(instance))
		radiance, samplePos, sampleHit := ctx.candidateRadiance(position, normal, candidate)

		s := restir.Sample{
			VisiblePosition: position.Vec4(depth),
			VisibleNormal:   normal,
			VisibleInstance: instance,
			SamplePosition:  samplePos.Vec4(sampleFlag(sampleHit)),
			SampleNormal:    candidate.ConeAxis.Mul(-1),
			Radiance:        radiance.Vec4(1),
			Random:          seed,
		}

		w := sampleWeight(s.Radiance.Vec3(), candidate.P)

		r.Init()
		if !u.SuppressTemporalReuse {
			if px, py, ok := ctx.reproject(x, y); ok {
				prev := ctx.DirectPrev.At(px, py)
				if prev.Count > 0 && restir.TemporalValid(&s, &prev.S, rng) {
					*r = *prev
					ctx.validateDirect(r, rng)
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

		out := ctx.shadeSample(surface, position, normal, &r.S).Mul(r.W)
		out = out.Add(surface.Emissive.Vec3().Mul(surface.Emissive.W()))
		ctx.DirectRadiance.Set(x, y, out.Vec4(1))
	})
}

// validateDirect periodically re-traces the cached sample's shadow ray
// and resets the reservoir when the fresh radiance diverges from the
// cached one (a moved occluder, a dimmed emitter).
func (ctx *Context) validateDirect(r *restir.Reservoir, rng *core.RandomState) {
	u := ctx.Uniforms
	if u.DirectValidateInterval == 0 && u.EmissiveValidateInterval == 0 {
		return
	}

	directDue := u.DirectValidateInterval != 0 && u.FrameNumber%u.DirectValidateInterval == 0
	emissiveDue := u.EmissiveValidateInterval != 0 && u.FrameNumber%u.EmissiveValidateInterval == 0
	if !directDue && !emissiveDue {
		return
	}

	// Replaying the stored seed reproduces the original candidate.
	replay := core.NewRandomState(r.S.Random)
	position := r.S.VisiblePosition.Vec3()
	normal := r.S.VisibleNormal
	candidate := ctx.Lights.SelectCandidate(replay, position, normal, ctx.excludedFor(r.S.VisibleInstance))

	if candidate.Kind == light.Directional && !directDue {
		return
	}
	if candidate.Kind == light.Emissive && !emissiveDue {
		return
	}

	fresh, samplePos, sampleHit := ctx.candidateRadiance(position, normal, candidate)
	if restir.RadianceValid(r.S.Radiance.Vec3(), fresh) {
		return
	}

	s := r.S
	s.SamplePosition = samplePos.Vec4(sampleFlag(sampleHit))
	s.Radiance = fresh.Vec4(1)
	r.Set(s, sampleWeight(fresh, candidate.P))
}

// sampleWeight is the reservoir stream weight: target luminance over the
// source pdf. The target matches Finalize's denominator so a steady
// stream of identical samples converges to W = 1/p.
func sampleWeight(radiance mgl32.Vec3, p float32) float32 {
	if p < core.Epsilon {
		return 0
	}
	return core.Luminance(radiance) / p
}

func sampleFlag(hit bool) float32 {
	if hit {
		return 1
	}
	return 0
}
