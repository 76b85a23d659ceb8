package hikari

import "time"

// Profiler accumulates per-kernel wall time for the current frame. Read
// it after RenderFrame; the next frame resets it.
type Profiler struct {
	DirectTime   time.Duration
	IndirectTime time.Duration
	SpatialTime  time.Duration
	VoxelTime    time.Duration
}

func (p *Profiler) Reset() {
	p.DirectTime = 0
	p.IndirectTime = 0
	p.SpatialTime = 0
	p.VoxelTime = 0
}

func (p *Profiler) Total() time.Duration {
	return p.DirectTime + p.IndirectTime + p.SpatialTime + p.VoxelTime
}
