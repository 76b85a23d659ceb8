package shading

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/CreatorSiSo/hikari/rt/scene"
)

func diffuseSurface(base mgl32.Vec3) Surface {
	return Surface{
		BaseColor: base.Vec4(1),
		Roughness: 1,
		Occlusion: 1,
		// Zero reflectance kills the specular lobe for exact diffuse
		// expectations.
		Reflectance: 0,
	}
}

func TestLitBelowHorizon(t *testing.T) {
	s := diffuseSurface(mgl32.Vec3{1, 1, 1})
	n := mgl32.Vec3{0, 1, 0}
	v := mgl32.Vec3{0, 1, 0}
	l := mgl32.Vec3{0, -1, 0}

	out := s.Lit(mgl32.Vec3{10, 10, 10}, n, v, l)
	assert.Equal(t, mgl32.Vec3{}, out, "Light from below the horizon contributes nothing")
}

func TestLitDiffuseNormalIncidence(t *testing.T) {
	base := mgl32.Vec3{0.5, 0.25, 0.125}
	s := diffuseSurface(base)
	n := mgl32.Vec3{0, 1, 0}
	v := mgl32.Vec3{0, 1, 0}
	l := mgl32.Vec3{0, 1, 0}
	radiance := mgl32.Vec3{2, 2, 2}

	out := s.Lit(radiance, n, v, l)
	assert.InDelta(t, 1.0, out.X(), 1e-4)
	assert.InDelta(t, 0.5, out.Y(), 1e-4)
	assert.InDelta(t, 0.25, out.Z(), 1e-4)
}

func TestLitCosineFalloff(t *testing.T) {
	s := diffuseSurface(mgl32.Vec3{1, 1, 1})
	n := mgl32.Vec3{0, 1, 0}
	v := mgl32.Vec3{0, 1, 0}
	l := mgl32.Vec3{1, 1, 0}.Normalize()
	radiance := mgl32.Vec3{1, 1, 1}

	out := s.Lit(radiance, n, v, l)
	assert.InDelta(t, float64(n.Dot(l)), float64(out.X()), 1e-4)
}

func TestLitMetallicHasNoDiffuse(t *testing.T) {
	s := Surface{
		BaseColor:   mgl32.Vec4{1, 0, 0, 1},
		Metallic:    1,
		Roughness:   0.5,
		Reflectance: 0.5,
		Occlusion:   1,
	}
	n := mgl32.Vec3{0, 1, 0}
	v := mgl32.Vec3{0, 1, 0}
	l := mgl32.Vec3{0, 1, 0}

	out := s.Lit(mgl32.Vec3{1, 1, 1}, n, v, l)
	// A pure metal reflects only through the f0-tinted specular lobe,
	// so green and blue vanish at normal incidence (f0 is {1,0,0}).
	assert.Equal(t, float32(0), out.Y())
	assert.Equal(t, float32(0), out.Z())
	assert.Greater(t, out.X(), float32(0))
}

func TestAmbient(t *testing.T) {
	s := Surface{
		BaseColor: mgl32.Vec4{0.5, 0.5, 0.5, 1},
		Emissive:  mgl32.Vec4{1, 0, 0, 2},
		Occlusion: 0.5,
		Roughness: 1,
	}

	out := s.Ambient(mgl32.Vec3{0.2, 0.2, 0.2})
	// env * diffuse * occlusion + emissive * intensity
	assert.InDelta(t, 0.2*0.5*0.5+2.0, float64(out.X()), 1e-4)
	assert.InDelta(t, 0.2*0.5*0.5, float64(out.Y()), 1e-4)
}

func TestResolveTextureTaps(t *testing.T) {
	tex := scene.NewTexture(1, 1)
	tex.Texels[0] = mgl32.Vec4{0.5, 0.5, 0.5, 1}

	m := scene.DefaultMaterial()
	m.BaseColor = mgl32.Vec4{1, 0.5, 1, 1}
	m.BaseColorTexture = tex

	s := Resolve(&m, mgl32.Vec2{0.5, 0.5})
	assert.InDelta(t, 0.5, float64(s.BaseColor.X()), 1e-5)
	assert.InDelta(t, 0.25, float64(s.BaseColor.Y()), 1e-5)
}
