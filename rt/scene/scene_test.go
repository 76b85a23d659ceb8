package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-gl/mathgl/mgl32"
)

func testQuad() ([]Vertex, []uint32) {
	up := mgl32.Vec3{0, 1, 0}
	vertices := []Vertex{
		{Position: mgl32.Vec3{-1, 0, -1}, Normal: up},
		{Position: mgl32.Vec3{1, 0, -1}, Normal: up},
		{Position: mgl32.Vec3{1, 0, 1}, Normal: up},
		{Position: mgl32.Vec3{-1, 0, 1}, Normal: up},
	}
	return vertices, []uint32{0, 2, 1, 0, 3, 2}
}

func TestAddMeshValidation(t *testing.T) {
	s := New()

	vertices, _ := testQuad()
	if _, err := s.AddMesh(vertices, []uint32{0, 1}); err == nil {
		t.Error("Expected error for index count not divisible by 3")
	}
	if _, err := s.AddMesh(vertices, []uint32{0, 1, 9}); err == nil {
		t.Error("Expected error for out-of-range index")
	}
	if _, err := s.AddMesh(vertices, nil); err == nil {
		t.Error("Expected error for empty index buffer")
	}
}

func TestAddMeshBuildsBounds(t *testing.T) {
	s := New()
	idx, err := s.AddMesh(testQuad())
	require.NoError(t, err)

	mesh := s.Meshes[idx]
	assert.Equal(t, mgl32.Vec3{-1, 0, -1}, mesh.AABB.Min)
	assert.Equal(t, mgl32.Vec3{1, 0, 1}, mesh.AABB.Max)
	assert.Equal(t, uint32(2), mesh.TriangleCount())
	assert.Equal(t, 3, len(mesh.Tree.Nodes))
	assert.NotEmpty(t, mesh.Id)
}

func TestAddInstanceValidation(t *testing.T) {
	s := New()
	mesh, err := s.AddMesh(testQuad())
	require.NoError(t, err)
	mat := s.AddMaterial(DefaultMaterial())

	if _, err := s.AddInstance(mesh+1, mat, mgl32.Ident4()); err == nil {
		t.Error("Expected error for bad mesh index")
	}
	if _, err := s.AddInstance(mesh, mat+1, mgl32.Ident4()); err == nil {
		t.Error("Expected error for bad material index")
	}
}

func TestCommitDerivesInstanceState(t *testing.T) {
	s := New()
	mesh, err := s.AddMesh(testQuad())
	require.NoError(t, err)

	plain := s.AddMaterial(DefaultMaterial())
	glow := DefaultMaterial()
	glow.Emissive = mgl32.Vec4{1, 1, 1, 4}
	glowing := s.AddMaterial(glow)

	_, err = s.AddInstance(mesh, plain, mgl32.Translate3D(10, 0, 0).Mul4(mgl32.Scale3D(2, 1, 2)))
	require.NoError(t, err)
	lampIdx, err := s.AddInstance(mesh, glowing, mgl32.Translate3D(0, 5, 0))
	require.NoError(t, err)

	s.Commit()

	in := &s.Instances[0]
	assert.InDelta(t, 8.0, in.AABB.Min.X(), 1e-4)
	assert.InDelta(t, 12.0, in.AABB.Max.X(), 1e-4)
	assert.InDelta(t, 10.0, in.Center().X(), 1e-4)

	// Inverse must undo the transform.
	p := in.Inverse.Mul4x1(mgl32.Vec4{10, 0, 0, 1})
	assert.InDelta(t, 0.0, p.X(), 1e-4)

	require.Len(t, s.Emissive, 1)
	assert.Equal(t, lampIdx, s.Emissive[0])
	assert.Equal(t, 3, len(s.TopTree.Nodes))
}

func TestCommitIsRepeatable(t *testing.T) {
	s := New()
	mesh, err := s.AddMesh(testQuad())
	require.NoError(t, err)
	glow := DefaultMaterial()
	glow.Emissive = mgl32.Vec4{1, 1, 1, 1}
	mat := s.AddMaterial(glow)
	_, err = s.AddInstance(mesh, mat, mgl32.Ident4())
	require.NoError(t, err)

	s.Commit()
	s.Commit()
	assert.Len(t, s.Emissive, 1, "Repeated commits must not duplicate emissive entries")
}
