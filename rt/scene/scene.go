// Package scene holds the geometry, material and lighting description the
// tracer reads. All of it is owned by the host: the renderer treats a
// committed scene as immutable for the duration of a frame.
package scene

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/CreatorSiSo/hikari/rt/bvh"
	"github.com/CreatorSiSo/hikari/rt/core"
)

type AssetId string

func NewAssetId() AssetId {
	return AssetId(uuid.NewString())
}

type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

// Mesh is indexed triangle geometry plus its bottom-level hierarchy,
// both in mesh-local space.
type Mesh struct {
	Id       AssetId
	Vertices []Vertex
	Indices  []uint32
	AABB     core.AABB
	Tree     bvh.Tree
}

// Triangle returns the three vertices of triangle i.
func (m *Mesh) Triangle(i uint32) (Vertex, Vertex, Vertex) {
	return m.Vertices[m.Indices[3*i]], m.Vertices[m.Indices[3*i+1]], m.Vertices[m.Indices[3*i+2]]
}

func (m *Mesh) TriangleCount() uint32 {
	return uint32(len(m.Indices) / 3)
}

// Material parameters follow the metallic/roughness convention. Emissive
// rgb is luminance; its alpha doubles as a surface-area/radius proxy for
// flux-weighted light selection.
type Material struct {
	BaseColor        mgl32.Vec4
	Emissive         mgl32.Vec4
	Reflectance      float32
	Metallic         float32
	Roughness        float32
	Occlusion        float32
	BaseColorTexture *Texture
	EmissiveTexture  *Texture
}

func DefaultMaterial() Material {
	return Material{
		BaseColor:   mgl32.Vec4{1, 1, 1, 1},
		Reflectance: 0.5,
		Roughness:   1.0,
		Occlusion:   1.0,
	}
}

func (m Material) IsEmissive() bool {
	return core.Luminance(m.Emissive.Vec3()) > 0
}

// DirectionalLight is the single sun light. Direction points from the
// light toward the scene; Color carries pre-scaled illuminance.
type DirectionalLight struct {
	Direction mgl32.Vec3
	Color     mgl32.Vec3
}

// Instance places a mesh in world space. Inverse and InverseTranspose
// are derived on Commit; AABB is the conservative world-space bound.
type Instance struct {
	Id               AssetId
	MeshIndex        uint32
	MaterialIndex    uint32
	Transform        mgl32.Mat4
	Inverse          mgl32.Mat4
	InverseTranspose mgl32.Mat4
	AABB             core.AABB
}

// Center of the instance's world bound, used as the emissive source
// position during light selection.
func (in *Instance) Center() mgl32.Vec3 {
	return in.AABB.Center()
}

type Scene struct {
	Meshes    []*Mesh
	Materials []Material
	Instances []Instance
	Sun       DirectionalLight

	TopTree  bvh.Tree
	Emissive []uint32 // instance indices with emissive materials
}

func New() *Scene {
	return &Scene{}
}

// AddMesh validates and registers a mesh, building its bottom-level
// hierarchy once up front.
func (s *Scene) AddMesh(vertices []Vertex, indices []uint32) (uint32, error) {
	if len(indices) == 0 || len(indices)%3 != 0 {
		return 0, fmt.Errorf("scene: mesh index count %d is not a multiple of 3", len(indices))
	}
	for _, idx := range indices {
		if int(idx) >= len(vertices) {
			return 0, fmt.Errorf("scene: mesh index %d out of range (%d vertices)", idx, len(vertices))
		}
	}

	mesh := &Mesh{Id: NewAssetId(), Vertices: vertices, Indices: indices}

	mesh.AABB = core.AABB{Min: vertices[0].Position, Max: vertices[0].Position}
	for _, v := range vertices[1:] {
		mesh.AABB = mesh.AABB.Union(core.AABB{Min: v.Position, Max: v.Position})
	}

	items := make([]bvh.Item, mesh.TriangleCount())
	for i := range items {
		a, b, c := mesh.Triangle(uint32(i))
		box := core.AABB{Min: a.Position, Max: a.Position}
		box = box.Union(core.AABB{Min: b.Position, Max: b.Position})
		box = box.Union(core.AABB{Min: c.Position, Max: c.Position})
		items[i] = bvh.Item{AABB: box, Index: uint32(i)}
	}
	mesh.Tree = bvh.Build(items)

	s.Meshes = append(s.Meshes, mesh)
	return uint32(len(s.Meshes) - 1), nil
}

func (s *Scene) AddMaterial(m Material) uint32 {
	s.Materials = append(s.Materials, m)
	return uint32(len(s.Materials) - 1)
}

func (s *Scene) AddInstance(meshIndex, materialIndex uint32, transform mgl32.Mat4) (uint32, error) {
	if int(meshIndex) >= len(s.Meshes) {
		return 0, fmt.Errorf("scene: mesh index %d out of range", meshIndex)
	}
	if int(materialIndex) >= len(s.Materials) {
		return 0, fmt.Errorf("scene: material index %d out of range", materialIndex)
	}
	s.Instances = append(s.Instances, Instance{
		Id:            NewAssetId(),
		MeshIndex:     meshIndex,
		MaterialIndex: materialIndex,
		Transform:     transform,
	})
	return uint32(len(s.Instances) - 1), nil
}

// Commit derives per-instance matrices and world bounds, rebuilds the
// top-level hierarchy and recollects emissive instances. Must be called
// after any mutation and before tracing.
func (s *Scene) Commit() {
	items := make([]bvh.Item, 0, len(s.Instances))
	s.Emissive = s.Emissive[:0]

	for i := range s.Instances {
		in := &s.Instances[i]
		in.Inverse = in.Transform.Inv()
		in.InverseTranspose = in.Inverse.Transpose()
		in.AABB = transformAABB(s.Meshes[in.MeshIndex].AABB, in.Transform)

		items = append(items, bvh.Item{AABB: in.AABB, Index: uint32(i)})
		if s.Materials[in.MaterialIndex].IsEmissive() {
			s.Emissive = append(s.Emissive, uint32(i))
		}
	}

	s.TopTree = bvh.Build(items)
}

// transformAABB takes the conservative bound of the 8 transformed
// corners.
func transformAABB(b core.AABB, m mgl32.Mat4) core.AABB {
	corners := [8]mgl32.Vec3{
		{b.Min.X(), b.Min.Y(), b.Min.Z()},
		{b.Max.X(), b.Min.Y(), b.Min.Z()},
		{b.Min.X(), b.Max.Y(), b.Min.Z()},
		{b.Max.X(), b.Max.Y(), b.Min.Z()},
		{b.Min.X(), b.Min.Y(), b.Max.Z()},
		{b.Max.X(), b.Min.Y(), b.Max.Z()},
		{b.Min.X(), b.Max.Y(), b.Max.Z()},
		{b.Max.X(), b.Max.Y(), b.Max.Z()},
	}

	inf := float32(math.Inf(1))
	out := core.AABB{Min: mgl32.Vec3{inf, inf, inf}, Max: mgl32.Vec3{-inf, -inf, -inf}}
	for _, c := range corners {
		wc := m.Mul4x1(c.Vec4(1)).Vec3()
		out = out.Union(core.AABB{Min: wc, Max: wc})
	}
	return out
}
