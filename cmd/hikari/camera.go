package main

import (
	"math"
	"runtime"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/CreatorSiSo/hikari"
	"github.com/CreatorSiSo/hikari/rt/core"
	"github.com/CreatorSiSo/hikari/rt/kernel"
	"github.com/CreatorSiSo/hikari/rt/scene"
	"github.com/CreatorSiSo/hikari/rt/trace"
)

// demoCamera is a fixed perspective camera looking into the room. With
// a static view the motion vectors are zero and reprojection maps every
// pixel onto itself.
type demoCamera struct {
	width, height int
	position      mgl32.Vec3
	forward       mgl32.Vec3
	right         mgl32.Vec3
	up            mgl32.Vec3
	tanHalfFov    float32
	aspect        float32
	viewProj      mgl32.Mat4
}

func newDemoCamera(width, height int) *demoCamera {
	position := mgl32.Vec3{0, 5, 13}
	target := mgl32.Vec3{0, 4, 0}
	worldUp := mgl32.Vec3{0, 1, 0}
	fov := mgl32.DegToRad(50)

	forward := target.Sub(position).Normalize()
	right := forward.Cross(worldUp).Normalize()
	up := right.Cross(forward)

	aspect := float32(width) / float32(height)
	proj := mgl32.Perspective(fov, aspect, 0.1, 100)
	view := mgl32.LookAtV(position, target, worldUp)

	return &demoCamera{
		width:      width,
		height:     height,
		position:   position,
		forward:    forward,
		right:      right,
		up:         up,
		tanHalfFov: float32(math.Tan(float64(fov) / 2)),
		aspect:     aspect,
		viewProj:   proj.Mul4(view),
	}
}

func (c *demoCamera) View() hikari.View {
	return hikari.View{Position: c.position, ViewProj: c.viewProj}
}

// Rasterize synthesizes the g-buffer inputs by tracing one primary ray
// per pixel. It stands in for an engine's geometry prepass.
func (c *demoCamera) Rasterize(sc *scene.Scene) *kernel.GBuffer {
	gb := kernel.NewGBuffer(c.width, c.height)
	tracer := trace.NewTracer(sc)

	rows := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < runtime.NumCPU(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := range rows {
				for x := 0; x < c.width; x++ {
					c.shadePixel(gb, tracer, x, y)
				}
			}
		}()
	}
	for y := 0; y < c.height; y++ {
		rows <- y
	}
	close(rows)
	wg.Wait()
	return gb
}

func (c *demoCamera) shadePixel(gb *kernel.GBuffer, tracer *trace.Tracer, x, y int) {
	ndcX := (2*(float32(x)+0.5)/float32(c.width) - 1) * c.aspect * c.tanHalfFov
	ndcY := (1 - 2*(float32(y)+0.5)/float32(c.height)) * c.tanHalfFov
	dir := c.right.Mul(ndcX).Add(c.up.Mul(ndcY)).Add(c.forward).Normalize()

	ray := core.NewRay(c.position, dir)
	hit := tracer.TraverseTop(ray, core.MaxDistance, core.MaxDistance)

	i := gb.Index(x, y)
	if hit.InstanceIndex == core.InvalidIndex {
		gb.Instance[i] = core.InvalidIndex
		return
	}

	position := trace.HitPosition(ray, hit)
	uv := tracer.HitUV(hit)
	gb.Position[i] = position.Vec4(hit.Distance)
	gb.Normal[i] = tracer.HitNormal(hit)
	gb.Instance[i] = hit.InstanceIndex
	gb.Velocity[i] = mgl32.Vec4{0, 0, uv.X(), uv.Y()}
}
