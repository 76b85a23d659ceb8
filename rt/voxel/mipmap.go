package voxel

import (
	"fmt"
	"math/bits"

	"github.com/go-gl/mathgl/mgl32"
)

// DirectionCount covers the six cardinal axes +X -X +Y -Y +Z -Z.
const DirectionCount = 6

// directionAxis[d] = axis index, directionSign[d] = true when the view
// direction runs toward negative coordinates (near sample has the larger
// coordinate).
var directionAxis = [DirectionCount]int{0, 0, 1, 1, 2, 2}
var directionNeg = [DirectionCount]bool{false, true, false, true, false, true}

// Pyramid is the directional mip chain over a volume. Level l has
// resolution >> (l+1) cells per axis; level 0 filters the volume texture
// itself.
type Pyramid struct {
	Resolution int
	LevelCount int
	levels     [DirectionCount][][]mgl32.Vec4
}

func NewPyramid(resolution int) (*Pyramid, error) {
	if resolution <= 1 || resolution&(resolution-1) != 0 {
		return nil, fmt.Errorf("voxel: pyramid resolution %d is not a power of two", resolution)
	}
	levelCount := bits.TrailingZeros(uint(resolution))

	p := &Pyramid{Resolution: resolution, LevelCount: levelCount}
	for d := 0; d < DirectionCount; d++ {
		p.levels[d] = make([][]mgl32.Vec4, levelCount)
		for l := 0; l < levelCount; l++ {
			size := resolution >> (l + 1)
			p.levels[d][l] = make([]mgl32.Vec4, size*size*size)
		}
	}
	return p, nil
}

// Level returns the filtered texture of one direction and mip level.
func (p *Pyramid) Level(direction, level int) []mgl32.Vec4 {
	return p.levels[direction][level]
}

func (p *Pyramid) LevelResolution(level int) int {
	return p.Resolution >> (level + 1)
}

// Build refreshes all six directions (isotropic sweep).
func (p *Pyramid) Build(v *Volume) {
	for d := 0; d < DirectionCount; d++ {
		p.BuildDirection(v, d)
	}
}

// BuildDirection refreshes a single direction's chain (anisotropic
// variant: the direction is a per-dispatch parameter).
func (p *Pyramid) BuildDirection(v *Volume, direction int) {
	size := p.Resolution >> 1
	downsample(p.levels[direction][0], size, direction, func(x, y, z int) mgl32.Vec4 {
		return v.Texture[v.texelIndex(x, y, z)]
	})

	for l := 1; l < p.LevelCount; l++ {
		prev := p.levels[direction][l-1]
		prevSize := p.Resolution >> l
		size = p.Resolution >> (l + 1)
		downsample(p.levels[direction][l], size, direction, func(x, y, z int) mgl32.Vec4 {
			return prev[(z*prevSize+y)*prevSize+x]
		})
	}
}

// downsample filters each 2x2x2 child block directionally: the near
// sample along the axis is alpha-blended over the far one, the four
// composited pairs are then averaged (net divide by 4).
func downsample(dst []mgl32.Vec4, size, direction int, src func(x, y, z int) mgl32.Vec4) {
	axis := directionAxis[direction]
	neg := directionNeg[direction]

	for z := 0; z < size; z++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				var sum mgl32.Vec4
				for u := 0; u < 2; u++ {
					for w := 0; w < 2; w++ {
						near, far := childPair(x, y, z, axis, neg, u, w)
						sum = sum.Add(composite(src(near[0], near[1], near[2]), src(far[0], far[1], far[2])))
					}
				}
				dst[(z*size+y)*size+x] = sum.Mul(0.25)
			}
		}
	}
}

// childPair resolves one of the four near/far sample pairs of the child
// block at (x, y, z), ordered along the filter axis.
func childPair(x, y, z, axis int, neg bool, u, w int) (near, far [3]int) {
	base := [3]int{2 * x, 2 * y, 2 * z}

	near = base
	far = base
	if neg {
		near[axis]++
	} else {
		far[axis]++
	}

	// Spread u, w over the two remaining axes.
	a1 := (axis + 1) % 3
	a2 := (axis + 2) % 3
	near[a1] += u
	far[a1] += u
	near[a2] += w
	far[a2] += w
	return near, far
}

// composite blends near over far, back-to-front.
func composite(near, far mgl32.Vec4) mgl32.Vec4 {
	t := 1 - near.W()
	return mgl32.Vec4{
		near.X() + far.X()*t,
		near.Y() + far.Y()*t,
		near.Z() + far.Z()*t,
		near.W() + far.W()*t,
	}
}
