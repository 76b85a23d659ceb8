package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Luminance of linear RGB (Rec. 709 weights).
func Luminance(c mgl32.Vec3) float32 {
	return c.Dot(mgl32.Vec3{0.2126, 0.7152, 0.0722})
}
