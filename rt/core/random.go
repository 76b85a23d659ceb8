package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// RandomState is a per-pixel random stream seeded from the frame's noise
// texture. PCG-style integer hash; cheap enough to advance per sample.
type RandomState struct {
	Seed uint32
}

func NewRandomState(seed uint32) *RandomState {
	return &RandomState{Seed: seed}
}

func (s *RandomState) nextUint() uint32 {
	s.Seed = s.Seed*747796405 + 2891336453
	word := ((s.Seed >> ((s.Seed >> 28) + 4)) ^ s.Seed) * 277803737
	return (word >> 22) ^ word
}

// NextFloat returns a uniform float32 in [0, 1).
func (s *RandomState) NextFloat() float32 {
	return float32(s.nextUint()>>8) * (1.0 / (1 << 24))
}

func (s *RandomState) NextVec2() mgl32.Vec2 {
	return mgl32.Vec2{s.NextFloat(), s.NextFloat()}
}
