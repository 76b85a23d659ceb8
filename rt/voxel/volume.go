// Package voxel maintains the ambient occlusion volume: a cubic grid
// filled through an atomically shared packed-RGBA8 buffer addressed in
// Morton order, unpacked into a float volume texture and reduced into a
// directional mipmap pyramid for cone tracing.
package voxel

import (
	"fmt"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

// LinearIndex interleaves the coordinate bits into a Morton (Z-order)
// index. Eight rounds cover grids up to 256^3; spatially nearby voxels
// land close together in the buffer.
func LinearIndex(x, y, z uint32) uint32 {
	var index uint32
	for i := uint32(0); i < 8; i++ {
		index |= ((x>>i)&1)<<(3*i) | ((y>>i)&1)<<(3*i+1) | ((z>>i)&1)<<(3*i+2)
	}
	return index
}

// Volume owns the shared fill buffer and the unpacked level-0 texture.
// Inject may be called from many goroutines concurrently; Clear and Fill
// are full-volume sweeps run between dispatches.
type Volume struct {
	Resolution int
	buffer     []uint32     // packed RGBA8, Morton-addressed, atomic access
	Texture    []mgl32.Vec4 // unpacked premultiplied color, xyz-linear
}

func NewVolume(resolution int) (*Volume, error) {
	if resolution <= 0 || resolution&(resolution-1) != 0 {
		return nil, fmt.Errorf("voxel: resolution %d is not a power of two", resolution)
	}
	if resolution > 256 {
		return nil, fmt.Errorf("voxel: resolution %d exceeds the 256 Morton range", resolution)
	}
	n := resolution * resolution * resolution
	return &Volume{
		Resolution: resolution,
		buffer:     make([]uint32, n),
		Texture:    make([]mgl32.Vec4, n),
	}, nil
}

func (v *Volume) texelIndex(x, y, z int) int {
	return (z*v.Resolution+y)*v.Resolution + x
}

// Clear zeroes every voxel of the shared buffer.
func (v *Volume) Clear() {
	for i := range v.buffer {
		atomic.StoreUint32(&v.buffer[i], 0)
	}
}

// Inject accumulates a color into one voxel. Saturating per-channel add
// through a CAS loop; multiple source samples mapping to the same voxel
// compose without locking.
func (v *Volume) Inject(x, y, z int, c mgl32.Vec4) {
	idx := LinearIndex(uint32(x), uint32(y), uint32(z))
	add := pack(c)
	for {
		old := atomic.LoadUint32(&v.buffer[idx])
		if atomic.CompareAndSwapUint32(&v.buffer[idx], old, addPacked(old, add)) {
			return
		}
	}
}

// Fill unpacks the shared buffer into the volume texture. The 8-bit
// convention encodes HDR-ish emissive color: RGB scales by 255*alpha,
// final alpha clamps to 1.
func (v *Volume) Fill() {
	res := v.Resolution
	for z := 0; z < res; z++ {
		for y := 0; y < res; y++ {
			for x := 0; x < res; x++ {
				packed := atomic.LoadUint32(&v.buffer[LinearIndex(uint32(x), uint32(y), uint32(z))])
				c := unpack(packed)
				scale := 255 * c.W()
				v.Texture[v.texelIndex(x, y, z)] = mgl32.Vec4{
					c.X() * scale,
					c.Y() * scale,
					c.Z() * scale,
					minf(c.W(), 1),
				}
			}
		}
	}
}

func pack(c mgl32.Vec4) uint32 {
	return uint32(clamp01(c.X())*255+0.5) |
		uint32(clamp01(c.Y())*255+0.5)<<8 |
		uint32(clamp01(c.Z())*255+0.5)<<16 |
		uint32(clamp01(c.W())*255+0.5)<<24
}

func unpack(p uint32) mgl32.Vec4 {
	return mgl32.Vec4{
		float32(p&0xff) / 255,
		float32(p>>8&0xff) / 255,
		float32(p>>16&0xff) / 255,
		float32(p>>24&0xff) / 255,
	}
}

// addPacked adds two packed colors channel-wise, saturating at 255.
func addPacked(a, b uint32) uint32 {
	var out uint32
	for shift := uint32(0); shift < 32; shift += 8 {
		sum := (a>>shift)&0xff + (b>>shift)&0xff
		if sum > 255 {
			sum = 255
		}
		out |= sum << shift
	}
	return out
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
