// Package restir implements streaming reservoir resampling of light
// transport samples: one reservoir per pixel, updated by weighted random
// replacement, merged across frames (temporal reuse) and across pixels
// (spatial reuse) with jacobian-corrected weights.
package restir

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/CreatorSiSo/hikari/rt/core"
)

// Sample is the unit of information a reservoir carries. It is always
// replaced or merged as a whole, never partially updated.
type Sample struct {
	// Visible point: xyz world position, w view depth.
	VisiblePosition mgl32.Vec4
	VisibleNormal   mgl32.Vec3
	VisibleInstance uint32

	// Sampled point: xyz world position, w > 0.5 flags "ray hit
	// geometry" as opposed to escaping to the environment.
	SamplePosition mgl32.Vec4
	SampleNormal   mgl32.Vec3

	// Incoming radiance, alpha is the validity weight.
	Radiance mgl32.Vec4

	// Seed that produced the sample, kept for validation re-tracing.
	Random uint32
}

func (s *Sample) SampleHit() bool {
	return s.SamplePosition.W() > 0.5
}

// Reservoir summarizes a stream of candidate samples: the retained
// sample, running weight sums and the derived unbiased contribution
// weight W.
type Reservoir struct {
	S     Sample
	Count float32
	WSum  float32
	W2Sum float32
	W     float32
}

func (r *Reservoir) Init() {
	*r = Reservoir{}
}

// Set discards any history and replaces the reservoir wholesale.
func (r *Reservoir) Set(s Sample, w float32) {
	r.S = s
	r.Count = 1
	r.WSum = w
	r.W2Sum = w * w
}

// Update performs one streaming reservoir step: accumulate the weight
// and probabilistically adopt the new sample.
func (r *Reservoir) Update(s Sample, w float32, rng *core.RandomState) {
	r.WSum += w
	r.W2Sum += w * w
	r.Count++
	if r.WSum > 0 && rng.NextFloat() < w/r.WSum {
		r.S = s
	}
}

// Merge folds another reservoir in as a single weighted batch. factor is
// the jacobian correction applied to the other reservoir's accumulated
// weight. Count and WSum combine commutatively; only the retained sample
// is stochastic.
func (r *Reservoir) Merge(q *Reservoir, factor float32, rng *core.RandomState) {
	w := q.WSum * factor
	r.WSum += w
	r.W2Sum += q.W2Sum * factor * factor
	r.Count += q.Count
	if r.WSum > 0 && rng.NextFloat() < w/r.WSum {
		r.S = q.S
	}
}

// Clamp bounds the history length: weights scale down by max/count so
// the mean estimator WSum/Count is preserved.
func (r *Reservoir) Clamp(maxCount float32) {
	if r.Count <= maxCount {
		return
	}
	ratio := maxCount / r.Count
	r.WSum *= ratio
	r.W2Sum *= ratio
	r.Count = maxCount
}

// Finalize derives the unbiased contribution weight
// W = WSum / (Count * luminance). A negligible denominator short-circuits
// to zero rather than producing Inf/NaN.
func (r *Reservoir) Finalize() {
	den := r.Count * core.Luminance(r.S.Radiance.Vec3())
	if den < 1e-6 {
		r.W = 0
		return
	}
	r.W = r.WSum / den
}

// Buffer is a pixel-indexed reservoir plane. The renderer keeps two and
// swaps them at frame boundaries.
type Buffer struct {
	Width      int
	Height     int
	Reservoirs []Reservoir
}

func NewBuffer(width, height int) *Buffer {
	return &Buffer{
		Width:      width,
		Height:     height,
		Reservoirs: make([]Reservoir, width*height),
	}
}

func (b *Buffer) At(x, y int) *Reservoir {
	return &b.Reservoirs[y*b.Width+x]
}

func (b *Buffer) Contains(x, y int) bool {
	return x >= 0 && x < b.Width && y >= 0 && y < b.Height
}

func (b *Buffer) Clear() {
	for i := range b.Reservoirs {
		b.Reservoirs[i] = Reservoir{}
	}
}
