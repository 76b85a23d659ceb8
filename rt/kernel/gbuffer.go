package kernel

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/CreatorSiSo/hikari/rt/core"
)

// GBuffer is the deferred-geometry input, one texel per screen pixel,
// produced by the host's prepass and read-only during a frame.
type GBuffer struct {
	Width  int
	Height int

	// xyz world position, w view depth.
	Position []mgl32.Vec4
	Normal   []mgl32.Vec3
	// Owning instance per pixel, core.InvalidIndex for background.
	Instance []uint32
	// xy screen-space motion (uv delta to the previous frame),
	// zw surface texture coordinate.
	Velocity []mgl32.Vec4
}

func NewGBuffer(width, height int) *GBuffer {
	n := width * height
	g := &GBuffer{
		Width:    width,
		Height:   height,
		Position: make([]mgl32.Vec4, n),
		Normal:   make([]mgl32.Vec3, n),
		Instance: make([]uint32, n),
		Velocity: make([]mgl32.Vec4, n),
	}
	for i := range g.Instance {
		g.Instance[i] = core.InvalidIndex
	}
	return g
}

func (g *GBuffer) Index(x, y int) int {
	return y*g.Width + x
}

func (g *GBuffer) Contains(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// Depth returns the view depth at a pixel, or 0 for background.
func (g *GBuffer) Depth(x, y int) float32 {
	return g.Position[g.Index(x, y)].W()
}

// Texture is a float RGBA render target.
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

func (t *Texture) At(x, y int) mgl32.Vec4 {
	return t.Texels[y*t.Width+x]
}

func (t *Texture) Set(x, y int, v mgl32.Vec4) {
	t.Texels[y*t.Width+x] = v
}

func (t *Texture) Clear() {
	for i := range t.Texels {
		t.Texels[i] = mgl32.Vec4{}
	}
}
