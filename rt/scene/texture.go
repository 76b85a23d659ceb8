package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Texture is a CPU-resident RGBA float image sampled by the shading
// resolve. Repeat wrapping, nearest filtering; good enough for material
// parameter lookups in the core.
type Texture struct {
	Width  int
	Height int
	Texels []mgl32.Vec4
}

func NewTexture(width, height int) *Texture {
	return &Texture{
		Width:  width,
		Height: height,
		Texels: make([]mgl32.Vec4, width*height),
	}
}

func (t *Texture) Sample(uv mgl32.Vec2) mgl32.Vec4 {
	x := wrap(int(uv.X()*float32(t.Width)), t.Width)
	y := wrap(int(uv.Y()*float32(t.Height)), t.Height)
	return t.Texels[y*t.Width+x]
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
