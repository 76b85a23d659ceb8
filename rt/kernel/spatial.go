package kernel

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/CreatorSiSo/hikari/rt/core"
	"github.com/CreatorSiSo/hikari/rt/restir"
)

const sqrt2 = float32(math.Sqrt2)

// screenMarchTaps is the number of intermediate depth probes between a
// pixel and its spatial neighbor.
const screenMarchTaps = 3

// SpatialReuse merges neighboring pixels' indirect reservoirs into the
// per-pixel spatial reservoir with jacobian-corrected weights, then
// composes the final radiance output.
func SpatialReuse(ctx *Context) {
	gb := ctx.GBuffer
	u := ctx.Uniforms

	dispatch(gb.Width, gb.Height, ctx.Workers, func(x, y int) {
		i := gb.Index(x, y)
		instance := gb.Instance[i]
		r := ctx.SpatialCurr.At(x, y)

		if instance == core.InvalidIndex {
			r.Init()
			ctx.Output.Set(x, y, u.AmbientColor.Vec4(1))
			return
		}

		position := gb.Position[i].Vec3()
		depth := gb.Position[i].W()
		normal := gb.Normal[i]
		uv := mgl32.Vec2{gb.Velocity[i].Z(), gb.Velocity[i].W()}
		surface := ctx.surfaceAt(instance, uv)

		rng := ctx.rngFor(x, y)

		r.Init()
		center := ctx.IndirectCurr.At(x, y)
		r.Merge(center, 1, rng)

		// Carry the previous frame's spatial history through the same
		// validity gate used temporally.
		if !u.SuppressTemporalReuse {
			if px, py, ok := ctx.reproject(x, y); ok {
				prev := ctx.SpatialPrev.At(px, py)
				if prev.Count > 0 && restir.TemporalValid(&center.S, &prev.S, rng) {
					r.Merge(prev, 1, rng)
				}
			}
		}

		// Rotating, expanding neighbor walk: 45 degrees per tap, radius
		// interpolated from sqrt(2) out to the configured range.
		angle := rng.NextFloat() * tau
		for tap := 0; tap < SpatialReuseTaps; tap++ {
			t := float32(tap) / float32(SpatialReuseTaps-1)
			radius := sqrt2 + t*(SpatialReuseRange-sqrt2)
			nx := x + int(radius*cos32(angle)+0.5)
			ny := y + int(radius*sin32(angle)+0.5)
			angle += tau / 8

			if nx == x && ny == y {
				continue
			}
			if !gb.Contains(nx, ny) {
				continue
			}

			ni := gb.Index(nx, ny)
			if gb.Instance[ni] == core.InvalidIndex {
				continue
			}

			neighborDepth := gb.Position[ni].W()
			if depth < core.Epsilon {
				continue
			}
			ratio := neighborDepth / depth
			if ratio < restir.SpatialDepthRatioMin || ratio > restir.SpatialDepthRatioMax {
				continue
			}

			if normal.Dot(gb.Normal[ni]) < restir.NormalCosThreshold {
				continue
			}

			q := ctx.IndirectCurr.At(nx, ny)
			if q.Count < 0.5 {
				continue
			}

			if ctx.screenOccluded(x, y, nx, ny, depth, neighborDepth) {
				continue
			}

			// Reusing a path found from a different visible point skews
			// the solid-angle measure; correct by the jacobian, using
			// the inverse form for samples that escaped to the
			// environment.
			var factor float32
			if q.S.SampleHit() {
				factor = restir.Jacobian(position, &q.S)
			} else {
				factor = restir.InvJacobian(position, &q.S)
			}
			r.Merge(q, factor, rng)
		}

		r.Clamp(u.MaxSpatialReuseCount)
		r.Finalize()

		indirect := ctx.shadeSample(surface, position, normal, &r.S).Mul(r.W)

		// Freshly disoccluded pixels have next to no history; fall back
		// to the pre-integrated ambient term instead of raw noise.
		if r.Count < 1.5 {
			indirect = ctx.Ambient.At(x, y).Vec3()
		}

		direct := ctx.DirectRadiance.At(x, y).Vec3()
		ctx.Output.Set(x, y, direct.Add(indirect).Vec4(1))
	})
}

// screenOccluded marches the screen-space segment between two pixels; a
// tap whose stored depth exceeds the interpolated reference depth by
// more than a small margin indicates disconnected geometry.
func (ctx *Context) screenOccluded(x0, y0, x1, y1 int, d0, d1 float32) bool {
	gb := ctx.GBuffer
	for tap := 1; tap <= screenMarchTaps; tap++ {
		t := float32(tap) / float32(screenMarchTaps+1)
		xi := x0 + int(t*float32(x1-x0)+0.5)
		yi := y0 + int(t*float32(y1-y0)+0.5)
		if !gb.Contains(xi, yi) {
			return true
		}
		reference := d0 + t*(d1-d0)
		actual := gb.Depth(xi, yi)
		if actual > reference*1.05+core.Epsilon {
			return true
		}
	}
	return false
}
