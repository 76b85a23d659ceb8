package light

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/CreatorSiSo/hikari/rt/core"
	"github.com/CreatorSiSo/hikari/rt/scene"
)

const solarAngle = float32(0.25 * math.Pi / 180)

// emitterScene builds a sun plus two emissive panels of different
// strength above a shading point at the origin.
func emitterScene(t *testing.T) *scene.Scene {
	t.Helper()
	s := scene.New()

	up := mgl32.Vec3{0, 1, 0}
	vertices := []scene.Vertex{
		{Position: mgl32.Vec3{-1, 0, -1}, Normal: up},
		{Position: mgl32.Vec3{1, 0, -1}, Normal: up},
		{Position: mgl32.Vec3{1, 0, 1}, Normal: up},
		{Position: mgl32.Vec3{-1, 0, 1}, Normal: up},
	}
	indices := []uint32{0, 2, 1, 0, 3, 2}
	mesh, err := s.AddMesh(vertices, indices)
	require.NoError(t, err)

	dim := scene.DefaultMaterial()
	dim.Emissive = mgl32.Vec4{1, 1, 1, 1}
	bright := scene.DefaultMaterial()
	bright.Emissive = mgl32.Vec4{8, 8, 8, 4}

	matDim := s.AddMaterial(dim)
	matBright := s.AddMaterial(bright)

	_, err = s.AddInstance(mesh, matDim, mgl32.Translate3D(-3, 5, 0))
	require.NoError(t, err)
	_, err = s.AddInstance(mesh, matBright, mgl32.Translate3D(3, 5, 0))
	require.NoError(t, err)

	s.Sun = scene.DirectionalLight{
		Direction: mgl32.Vec3{0, -1, 0},
		Color:     mgl32.Vec3{10, 10, 10},
	}
	s.Commit()
	return s
}

func TestSelectCandidateSunOnly(t *testing.T) {
	ls := &Sampler{Scene: emitterScene(t), SolarAngle: solarAngle}
	rng := core.NewRandomState(1)

	c := ls.SelectCandidate(rng, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, DontSampleEmissive)
	assert.Equal(t, Directional, c.Kind)
	assert.Equal(t, core.InvalidIndex, c.Instance)
	assert.InDelta(t, 1.0, c.P, 1e-6, "Single light must carry probability 1")
	// Cone axis points toward the sun.
	assert.InDelta(t, 1.0, c.ConeAxis.Y(), 1e-6)
	assert.Equal(t, core.MaxDistance, c.MaxDistance)
}

func TestSelectCandidateProbabilitiesSum(t *testing.T) {
	ls := &Sampler{Scene: emitterScene(t), SolarAngle: solarAngle}
	position := mgl32.Vec3{}
	normal := mgl32.Vec3{0, 1, 0}

	// Over many seeds, accumulate the observed selection frequency and
	// the reported P per light kind. Frequencies must track P, and the
	// P values themselves partition unity.
	counts := map[uint32]int{}
	probs := map[uint32]float32{}
	const n = 20000
	for seed := uint32(0); seed < n; seed++ {
		rng := core.NewRandomState(seed)
		c := ls.SelectCandidate(rng, position, normal, ExcludeNone)
		counts[c.Instance]++
		probs[c.Instance] = c.P
	}

	var total float32
	for _, p := range probs {
		total += p
	}
	assert.InDelta(t, 1.0, total, 1e-3, "Selection probabilities must partition unity")

	for instance, p := range probs {
		freq := float32(counts[instance]) / n
		assert.InDelta(t, p, freq, 0.02, "Observed frequency must track P for instance %d", instance)
	}
}

func TestSelectCandidateExcludesInstance(t *testing.T) {
	ls := &Sampler{Scene: emitterScene(t), SolarAngle: solarAngle}

	for seed := uint32(0); seed < 500; seed++ {
		rng := core.NewRandomState(seed)
		c := ls.SelectCandidate(rng, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, 1)
		if c.Instance == 1 {
			t.Fatal("Excluded instance was selected")
		}
	}
}

func TestCandidatePDFIdempotence(t *testing.T) {
	ls := &Sampler{Scene: emitterScene(t), SolarAngle: solarAngle}
	rng := core.NewRandomState(9)

	c := ls.SelectCandidate(rng, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, ExcludeNone)
	require.Greater(t, c.P, float32(0))

	// The direction the candidate itself sampled lies inside the cone,
	// so PDF must reproduce P exactly.
	assert.Equal(t, c.P, c.PDF(c.Direction))
	// A direction far outside the cone has zero density.
	assert.Equal(t, float32(0), c.PDF(c.ConeAxis.Mul(-1)))
}

func TestSampleUniformConeWithinCone(t *testing.T) {
	axis := mgl32.Vec3{0, 0, 1}
	cosHalf := float32(math.Cos(0.3))

	rng := core.NewRandomState(4)
	for i := 0; i < 200; i++ {
		dir, pdf := SampleUniformCone(rng.NextVec2(), axis, cosHalf)
		assert.InDelta(t, 1.0, float64(dir.Len()), 1e-4)
		if dir.Dot(axis) < cosHalf-1e-4 {
			t.Fatalf("Direction %v outside the cone", dir)
		}
		assert.InDelta(t, float64(ConePDF(cosHalf)), float64(pdf), 1e-6)
	}
}

func TestConePDFMatchesSolidAngle(t *testing.T) {
	cosHalf := float32(math.Cos(0.5))
	want := 1 / (2 * math.Pi * (1 - float64(cosHalf)))
	assert.InDelta(t, want, float64(ConePDF(cosHalf)), 1e-4)
}

func TestEmitterFluxBelowHorizon(t *testing.T) {
	s := emitterScene(t)
	ls := &Sampler{Scene: s, SolarAngle: solarAngle}

	// Shading point far above the panels looking up: both emitters sit
	// fully below the horizon and must never be selected.
	position := mgl32.Vec3{0, 100, 0}
	normal := mgl32.Vec3{0, 1, 0}
	for seed := uint32(0); seed < 200; seed++ {
		rng := core.NewRandomState(seed)
		c := ls.SelectCandidate(rng, position, normal, ExcludeNone)
		if c.Kind != Directional {
			t.Fatal("Emitter below the horizon was selected")
		}
	}
}
