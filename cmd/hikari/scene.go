package main

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/CreatorSiSo/hikari/rt/scene"
)

// buildDemoScene assembles a Cornell-style room: floor, two walls, two
// boxes, an emissive panel near the ceiling and a tilted sun.
func buildDemoScene() (*scene.Scene, error) {
	sc := scene.New()

	quad, err := sc.AddMesh(quadMesh())
	if err != nil {
		return nil, fmt.Errorf("quad mesh: %w", err)
	}
	box, err := sc.AddMesh(boxMesh())
	if err != nil {
		return nil, fmt.Errorf("box mesh: %w", err)
	}

	white := scene.DefaultMaterial()
	white.BaseColor = mgl32.Vec4{0.73, 0.73, 0.73, 1}
	red := scene.DefaultMaterial()
	red.BaseColor = mgl32.Vec4{0.65, 0.05, 0.05, 1}
	green := scene.DefaultMaterial()
	green.BaseColor = mgl32.Vec4{0.12, 0.45, 0.15, 1}
	metal := scene.DefaultMaterial()
	metal.BaseColor = mgl32.Vec4{0.8, 0.8, 0.85, 1}
	metal.Metallic = 1
	metal.Roughness = 0.25
	lamp := scene.DefaultMaterial()
	lamp.Emissive = mgl32.Vec4{1, 0.95, 0.85, 8}

	matWhite := sc.AddMaterial(white)
	matRed := sc.AddMaterial(red)
	matGreen := sc.AddMaterial(green)
	matMetal := sc.AddMaterial(metal)
	matLamp := sc.AddMaterial(lamp)

	add := func(mesh, material uint32, m mgl32.Mat4) error {
		_, err := sc.AddInstance(mesh, material, m)
		return err
	}

	steps := []struct {
		name     string
		mesh     uint32
		material uint32
		xform    mgl32.Mat4
	}{
		// Floor: quad in the XZ plane, normal up.
		{"floor", quad, matWhite, mgl32.Scale3D(10, 1, 10)},
		// Back wall, facing the camera.
		{"back wall", quad, matWhite,
			mgl32.Translate3D(0, 5, -5).Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(90))).Mul4(mgl32.Scale3D(10, 1, 10))},
		// Side walls.
		{"left wall", quad, matRed,
			mgl32.Translate3D(-5, 5, 0).Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(-90))).Mul4(mgl32.Scale3D(10, 1, 10))},
		{"right wall", quad, matGreen,
			mgl32.Translate3D(5, 5, 0).Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(90))).Mul4(mgl32.Scale3D(10, 1, 10))},
		// Boxes on the floor.
		{"tall box", box, matWhite,
			mgl32.Translate3D(-1.8, 1.6, -1.5).Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(20))).Mul4(mgl32.Scale3D(1.2, 1.6, 1.2))},
		{"short box", box, matMetal,
			mgl32.Translate3D(1.8, 0.8, 1.2).Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(-15))).Mul4(mgl32.Scale3D(1.2, 0.8, 1.2))},
		// Emissive panel near the ceiling, facing down.
		{"lamp", quad, matLamp,
			mgl32.Translate3D(0, 9, 0).Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(180))).Mul4(mgl32.Scale3D(2, 1, 2))},
	}
	for _, s := range steps {
		if err := add(s.mesh, s.material, s.xform); err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
	}

	sc.Sun = scene.DirectionalLight{
		Direction: mgl32.Vec3{-0.35, -1, -0.25}.Normalize(),
		Color:     mgl32.Vec3{1.0, 0.96, 0.9},
	}

	sc.Commit()
	return sc, nil
}

// quadMesh is a unit quad in the XZ plane centered at the origin with
// +Y normals.
func quadMesh() ([]scene.Vertex, []uint32) {
	up := mgl32.Vec3{0, 1, 0}
	vertices := []scene.Vertex{
		{Position: mgl32.Vec3{-0.5, 0, -0.5}, Normal: up, UV: mgl32.Vec2{0, 0}},
		{Position: mgl32.Vec3{0.5, 0, -0.5}, Normal: up, UV: mgl32.Vec2{1, 0}},
		{Position: mgl32.Vec3{0.5, 0, 0.5}, Normal: up, UV: mgl32.Vec2{1, 1}},
		{Position: mgl32.Vec3{-0.5, 0, 0.5}, Normal: up, UV: mgl32.Vec2{0, 1}},
	}
	indices := []uint32{0, 2, 1, 0, 3, 2}
	return vertices, indices
}

// boxMesh is a unit cube centered at the origin with per-face normals.
func boxMesh() ([]scene.Vertex, []uint32) {
	type face struct {
		normal mgl32.Vec3
		a, b   mgl32.Vec3 // tangent axes spanning the face
	}
	faces := []face{
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	}

	var vertices []scene.Vertex
	var indices []uint32
	for _, f := range faces {
		center := f.normal.Mul(0.5)
		base := uint32(len(vertices))
		corners := [4]mgl32.Vec3{
			center.Sub(f.a.Mul(0.5)).Sub(f.b.Mul(0.5)),
			center.Add(f.a.Mul(0.5)).Sub(f.b.Mul(0.5)),
			center.Add(f.a.Mul(0.5)).Add(f.b.Mul(0.5)),
			center.Sub(f.a.Mul(0.5)).Add(f.b.Mul(0.5)),
		}
		uvs := [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
		for i := range corners {
			vertices = append(vertices, scene.Vertex{Position: corners[i], Normal: f.normal, UV: uvs[i]})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return vertices, indices
}
