// Package shading evaluates surface response: direct lit radiance split
// into a Lambertian diffuse and a GGX specular lobe, and a flat ambient
// term for environment light.
package shading

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/CreatorSiSo/hikari/rt/scene"
)

// Surface is the shading description resolved from a material plus its
// optional texture taps. Derived per pixel per frame, never persisted.
type Surface struct {
	BaseColor   mgl32.Vec4
	Emissive    mgl32.Vec4
	Reflectance float32
	Metallic    float32
	Roughness   float32
	Occlusion   float32
}

// Resolve flattens a material into a Surface at the given UV.
func Resolve(material *scene.Material, uv mgl32.Vec2) Surface {
	s := Surface{
		BaseColor:   material.BaseColor,
		Emissive:    material.Emissive,
		Reflectance: material.Reflectance,
		Metallic:    material.Metallic,
		Roughness:   material.Roughness,
		Occlusion:   material.Occlusion,
	}
	if material.BaseColorTexture != nil {
		tap := material.BaseColorTexture.Sample(uv)
		s.BaseColor = mgl32.Vec4{
			s.BaseColor.X() * tap.X(),
			s.BaseColor.Y() * tap.Y(),
			s.BaseColor.Z() * tap.Z(),
			s.BaseColor.W() * tap.W(),
		}
	}
	if material.EmissiveTexture != nil {
		tap := material.EmissiveTexture.Sample(uv)
		s.Emissive = mgl32.Vec4{
			s.Emissive.X() * tap.X(),
			s.Emissive.Y() * tap.Y(),
			s.Emissive.Z() * tap.Z(),
			s.Emissive.W(),
		}
	}
	return s
}

// Lit evaluates the outgoing radiance for incident radiance arriving
// along l, viewed from v, with surface normal n. Albedo-normalized
// diffuse: the incident radiance is expected to already carry the solid
// angle of its source.
func (s Surface) Lit(radiance mgl32.Vec3, n, v, l mgl32.Vec3) mgl32.Vec3 {
	nol := n.Dot(l)
	if nol <= 0 {
		return mgl32.Vec3{}
	}

	h := v.Add(l).Normalize()
	nov := max32(n.Dot(v), 1e-4)
	noh := max32(n.Dot(h), 0)
	loh := max32(l.Dot(h), 0)

	diffuseColor := s.BaseColor.Vec3().Mul(1 - s.Metallic)

	f0d := 0.16 * s.Reflectance * s.Reflectance * (1 - s.Metallic)
	f0 := s.BaseColor.Vec3().Mul(s.Metallic).Add(mgl32.Vec3{f0d, f0d, f0d})

	roughness := max32(s.Roughness*s.Roughness, 1e-3)
	d := distributionGGX(noh, roughness)
	vis := visibilitySmith(nov, nol, roughness)
	f := fresnelSchlick(loh, f0)

	specular := f.Mul(d * vis)
	return mul3(radiance, diffuseColor.Add(specular)).Mul(nol)
}

// Ambient is the environment response for disoccluded or escaped paths:
// occluded diffuse plus the emissive term.
func (s Surface) Ambient(env mgl32.Vec3) mgl32.Vec3 {
	diffuseColor := s.BaseColor.Vec3().Mul(1 - s.Metallic)
	ambient := mul3(env, diffuseColor).Mul(s.Occlusion)
	return ambient.Add(s.Emissive.Vec3().Mul(s.Emissive.W()))
}

func distributionGGX(noh, roughness float32) float32 {
	a2 := roughness * roughness
	d := noh*noh*(a2-1) + 1
	return a2 / max32(float32(math.Pi)*d*d, 1e-6)
}

func visibilitySmith(nov, nol, roughness float32) float32 {
	a2 := roughness * roughness
	gv := nol * sqrt32(nov*nov*(1-a2)+a2)
	gl := nov * sqrt32(nol*nol*(1-a2)+a2)
	return 0.5 / max32(gv+gl, 1e-6)
}

func fresnelSchlick(loh float32, f0 mgl32.Vec3) mgl32.Vec3 {
	t := pow5(1 - loh)
	return f0.Add(mgl32.Vec3{1, 1, 1}.Sub(f0).Mul(t))
}

func pow5(x float32) float32 {
	x2 := x * x
	return x2 * x2 * x
}

func mul3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a.X() * b.X(), a.Y() * b.Y(), a.Z() * b.Z()}
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func sqrt32(x float32) float32 { return float32(math.Sqrt(float64(x))) }
