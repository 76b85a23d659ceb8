// Package hikari is a CPU reference implementation of a real-time
// path-traced lighting pipeline: one-sample direct and indirect
// kernels feeding spatiotemporal reservoir reuse, plus a voxel
// radiance volume with directional mipmaps.
package hikari

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/CreatorSiSo/hikari/rt/core"
	"github.com/CreatorSiSo/hikari/rt/kernel"
	"github.com/CreatorSiSo/hikari/rt/light"
	"github.com/CreatorSiSo/hikari/rt/restir"
	"github.com/CreatorSiSo/hikari/rt/scene"
	"github.com/CreatorSiSo/hikari/rt/trace"
	"github.com/CreatorSiSo/hikari/rt/voxel"
)

// Config fixes the renderer's resources at construction. Per-frame
// tuning lives in kernel.Uniforms, reachable through (*Renderer).Uniforms.
type Config struct {
	Width  int
	Height int
	// Workers caps the parallel pixel dispatch; <= 0 means NumCPU.
	Workers int
	// EmissiveInDirect samples emissive surfaces in the direct kernel
	// instead of routing their light through the indirect bounce.
	EmissiveInDirect bool
	// VoxelResolution is the radiance volume edge length (power of two,
	// at most 256); 0 disables the volume entirely.
	VoxelResolution int
	// VoxelRefreshInterval rebuilds the volume every N frames.
	VoxelRefreshInterval uint32
	// AnisotropicMipmaps rebuilds one mip direction per refresh instead
	// of all six.
	AnisotropicMipmaps bool
	Logger             Logger
}

func DefaultConfig(width, height int) Config {
	return Config{
		Width:                width,
		Height:               height,
		Workers:              runtime.NumCPU(),
		VoxelResolution:      64,
		VoxelRefreshInterval: 4,
	}
}

// View is the per-frame camera state.
type View struct {
	Position mgl32.Vec3
	ViewProj mgl32.Mat4
}

// Renderer owns the double-buffered reservoir planes and radiance
// textures and sequences the frame kernels. Not safe for concurrent
// RenderFrame calls.
type Renderer struct {
	cfg Config
	log Logger

	scene *scene.Scene
	ctx   *kernel.Context

	volume  *voxel.Volume
	pyramid *voxel.Pyramid
	bounds  core.AABB

	profiler Profiler

	prevViewProj mgl32.Mat4
	started      bool
}

func New(cfg Config, sc *scene.Scene) (*Renderer, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("renderer: invalid resolution %dx%d", cfg.Width, cfg.Height)
	}
	if sc == nil {
		return nil, fmt.Errorf("renderer: nil scene")
	}
	log := cfg.Logger
	if log == nil {
		log = NewNopLogger()
	}

	sc.Commit()

	u := kernel.DefaultUniforms()
	ctx := &kernel.Context{
		Config: kernel.Config{
			Workers:          cfg.Workers,
			EmissiveInDirect: cfg.EmissiveInDirect,
		},
		Scene:    sc,
		Tracer:   trace.NewTracer(sc),
		Lights:   &light.Sampler{Scene: sc, SolarAngle: u.SolarAngle},
		Uniforms: u,
		Noise:    kernel.NewNoiseBank(cfg.Width, cfg.Height),

		DirectPrev:   restirBuffer(cfg),
		DirectCurr:   restirBuffer(cfg),
		IndirectPrev: restirBuffer(cfg),
		IndirectCurr: restirBuffer(cfg),
		SpatialPrev:  restirBuffer(cfg),
		SpatialCurr:  restirBuffer(cfg),

		DirectRadiance: kernel.NewTexture(cfg.Width, cfg.Height),
		Ambient:        kernel.NewTexture(cfg.Width, cfg.Height),
		Output:         kernel.NewTexture(cfg.Width, cfg.Height),
	}

	r := &Renderer{cfg: cfg, log: log, scene: sc, ctx: ctx}

	if cfg.VoxelResolution > 0 {
		if cfg.VoxelRefreshInterval == 0 {
			r.cfg.VoxelRefreshInterval = 1
		}
		volume, err := voxel.NewVolume(cfg.VoxelResolution)
		if err != nil {
			return nil, fmt.Errorf("renderer: %w", err)
		}
		pyramid, err := voxel.NewPyramid(cfg.VoxelResolution)
		if err != nil {
			return nil, fmt.Errorf("renderer: %w", err)
		}
		r.volume = volume
		r.pyramid = pyramid
	}

	r.bounds = sceneBounds(sc)
	log.Infof("renderer: %dx%d, %d instances, %d emissive",
		cfg.Width, cfg.Height, len(sc.Instances), len(sc.Emissive))
	return r, nil
}

// Uniforms exposes the per-frame tuning parameters. Mutations apply to
// the next RenderFrame call.
func (r *Renderer) Uniforms() *kernel.Uniforms { return &r.ctx.Uniforms }

// Output returns the final HDR radiance texture of the last frame.
func (r *Renderer) Output() *kernel.Texture { return r.ctx.Output }

// Volume returns the voxel radiance volume, or nil when disabled.
func (r *Renderer) Volume() *voxel.Volume { return r.volume }

// Mipmaps returns the directional mip pyramid, or nil when disabled.
func (r *Renderer) Mipmaps() *voxel.Pyramid { return r.pyramid }

// Profiler exposes the last frame's kernel timings.
func (r *Renderer) Profiler() *Profiler { return &r.profiler }

// RenderFrame runs the direct, indirect and spatial reuse kernels over
// the supplied g-buffer, refreshes the voxel volume on its cadence, and
// returns the HDR output texture. The g-buffer must match the
// configured resolution.
func (r *Renderer) RenderFrame(gb *kernel.GBuffer, view View) (*kernel.Texture, error) {
	if gb == nil || gb.Width != r.cfg.Width || gb.Height != r.cfg.Height {
		return nil, fmt.Errorf("renderer: g-buffer does not match %dx%d", r.cfg.Width, r.cfg.Height)
	}

	u := &r.ctx.Uniforms
	u.CameraPosition = view.Position
	u.ViewProj = view.ViewProj
	if r.started {
		u.PrevViewProj = r.prevViewProj
	} else {
		u.PrevViewProj = view.ViewProj
	}
	r.ctx.GBuffer = gb
	r.ctx.Lights.SolarAngle = u.SolarAngle

	r.profiler.Reset()
	start := time.Now()
	kernel.Direct(r.ctx)
	r.profiler.DirectTime = time.Since(start)

	start = time.Now()
	kernel.Indirect(r.ctx)
	r.profiler.IndirectTime = time.Since(start)

	start = time.Now()
	kernel.SpatialReuse(r.ctx)
	r.profiler.SpatialTime = time.Since(start)

	if r.volume != nil && u.FrameNumber%r.cfg.VoxelRefreshInterval == 0 {
		start = time.Now()
		r.refreshVolume(gb)
		r.profiler.VoxelTime = time.Since(start)
	}

	if r.log.DebugEnabled() {
		r.log.Debugf("frame %d: direct %v, indirect %v, spatial %v, voxel %v, total %v",
			u.FrameNumber,
			r.profiler.DirectTime,
			r.profiler.IndirectTime,
			r.profiler.SpatialTime,
			r.profiler.VoxelTime,
			r.profiler.Total())
	}

	r.swap()
	r.prevViewProj = view.ViewProj
	r.started = true
	u.FrameNumber++
	return r.ctx.Output, nil
}

func (r *Renderer) swap() {
	ctx := r.ctx
	ctx.DirectPrev, ctx.DirectCurr = ctx.DirectCurr, ctx.DirectPrev
	ctx.IndirectPrev, ctx.IndirectCurr = ctx.IndirectCurr, ctx.IndirectPrev
	ctx.SpatialPrev, ctx.SpatialCurr = ctx.SpatialCurr, ctx.SpatialPrev
}

// refreshVolume splats the frame's output radiance into the voxel
// volume at each pixel's world position, then rebuilds the mip chain.
// A stand-in for geometric voxelization that keeps the volume fed from
// what the camera can see.
func (r *Renderer) refreshVolume(gb *kernel.GBuffer) {
	extent := r.bounds.Max.Sub(r.bounds.Min)
	res := r.volume.Resolution

	r.volume.Clear()
	for y := 0; y < gb.Height; y++ {
		for x := 0; x < gb.Width; x++ {
			i := gb.Index(x, y)
			if gb.Instance[i] == core.InvalidIndex {
				continue
			}
			p := gb.Position[i].Vec3().Sub(r.bounds.Min)
			vx := voxelCoord(p.X(), extent.X(), res)
			vy := voxelCoord(p.Y(), extent.Y(), res)
			vz := voxelCoord(p.Z(), extent.Z(), res)
			c := r.ctx.Output.At(x, y)
			// Alpha of 1/255 makes a single splat unpack back to its
			// own radiance after the premultiplied fill.
			r.volume.Inject(vx, vy, vz, mgl32.Vec4{c.X(), c.Y(), c.Z(), 1.0 / 255.0})
		}
	}
	r.volume.Fill()

	if r.cfg.AnisotropicMipmaps {
		direction := int(r.ctx.Uniforms.FrameNumber/r.cfg.VoxelRefreshInterval) % voxel.DirectionCount
		r.pyramid.BuildDirection(r.volume, direction)
	} else {
		r.pyramid.Build(r.volume)
	}
}

func restirBuffer(cfg Config) *restir.Buffer {
	return restir.NewBuffer(cfg.Width, cfg.Height)
}

// voxelCoord maps a bounds-relative offset to a cell index; degenerate
// axes (flat scenes) collapse to cell 0.
func voxelCoord(offset, extent float32, res int) int {
	if extent < core.Epsilon {
		return 0
	}
	v := int(offset / extent * float32(res))
	if v < 0 {
		return 0
	}
	if v >= res {
		return res - 1
	}
	return v
}

func sceneBounds(sc *scene.Scene) core.AABB {
	b := core.AABB{
		Min: mgl32.Vec3{core.MaxDistance, core.MaxDistance, core.MaxDistance},
		Max: mgl32.Vec3{-core.MaxDistance, -core.MaxDistance, -core.MaxDistance},
	}
	for i := range sc.Instances {
		b = b.Union(sc.Instances[i].AABB)
	}
	return b
}
