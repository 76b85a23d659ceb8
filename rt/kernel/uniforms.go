package kernel

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Uniforms is the per-frame configuration observed by every unit of work
// within one frame. Built once at frame start, never mutated mid-frame.
type Uniforms struct {
	FrameNumber uint32

	// Angular radius of the sun disk, radians.
	SolarAngle float32

	// Reservoir history caps; see restir.Reservoir.Clamp.
	MaxTemporalReuseCount float32
	MaxSpatialReuseCount  float32

	// Validation cadences in frames, separately for the direct and
	// emissive paths. Zero disables validation.
	DirectValidateInterval   uint32
	EmissiveValidateInterval uint32

	// Luminance ceiling for the indirect bounce, clamps fireflies.
	MaxIndirectLuminance float32

	// When set, temporal history is ignored this frame (camera cut).
	SuppressTemporalReuse bool

	CameraPosition mgl32.Vec3
	ViewProj       mgl32.Mat4
	PrevViewProj   mgl32.Mat4

	// Environment radiance for escaped rays.
	AmbientColor mgl32.Vec3
}

func DefaultUniforms() Uniforms {
	return Uniforms{
		SolarAngle:               float32(0.25 * math.Pi / 180),
		MaxTemporalReuseCount:    50,
		MaxSpatialReuseCount:     500,
		DirectValidateInterval:   4,
		EmissiveValidateInterval: 8,
		MaxIndirectLuminance:     10,
		ViewProj:                 mgl32.Ident4(),
		PrevViewProj:             mgl32.Ident4(),
	}
}

// SpatialReuseTaps is the neighbor count visited by the spatial pass.
const SpatialReuseTaps = 8

// SpatialReuseRange is the maximum neighbor offset radius in pixels.
const SpatialReuseRange = 30.0
