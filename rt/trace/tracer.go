// Package trace walks the flattened hierarchies. Traversal is an
// iterative entry/exit index walk with no stack: descend into EntryIndex
// when the ray enters a node's box, skip to ExitIndex otherwise or after
// a leaf. Every node is touched at most once per ray.
package trace

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/CreatorSiSo/hikari/rt/core"
	"github.com/CreatorSiSo/hikari/rt/scene"
)

type Tracer struct {
	Scene *scene.Scene
}

func NewTracer(s *scene.Scene) *Tracer {
	return &Tracer{Scene: s}
}

// TraverseTop finds the closest hit within [0, maxDistance], or returns
// as soon as any hit closer than earlyDistance is known (shadow rays
// pass earlyDistance < maxDistance and only need "is anything there").
// A miss leaves InstanceIndex == core.InvalidIndex and Distance ==
// maxDistance.
func (t *Tracer) TraverseTop(ray core.Ray, maxDistance, earlyDistance float32) core.Hit {
	hit := core.NewHit(maxDistance)

	nodes := t.Scene.TopTree.Nodes
	end := t.Scene.TopTree.End()
	idx := uint32(0)
	for idx < end {
		node := nodes[idx]
		if node.IsLeaf() {
			instanceIndex := node.Primitive()
			instance := &t.Scene.Instances[instanceIndex]
			mesh := t.Scene.Meshes[instance.MeshIndex]

			// The unnormalized local direction keeps the ray parameter
			// identical in both spaces, so distances compare directly.
			local := core.NewRay(
				instance.Inverse.Mul4x1(ray.Origin.Vec4(1)).Vec3(),
				instance.Inverse.Mul4x1(ray.Dir.Vec4(0)).Vec3(),
			)
			sub := t.TraverseBottom(local, mesh, instanceIndex, hit.Distance, earlyDistance)
			if sub.InstanceIndex != core.InvalidIndex {
				hit = sub
				if hit.Distance < earlyDistance {
					return hit
				}
			}
			idx = node.ExitIndex
		} else if ray.DistanceToAABB(node.AABB) < hit.Distance {
			idx = node.EntryIndex
		} else {
			idx = node.ExitIndex
		}
	}

	return hit
}

// TraverseBottom walks one mesh's triangle hierarchy with a ray already
// in mesh-local space.
func (t *Tracer) TraverseBottom(ray core.Ray, mesh *scene.Mesh, instanceIndex uint32, maxDistance, earlyDistance float32) core.Hit {
	hit := core.NewHit(maxDistance)

	nodes := mesh.Tree.Nodes
	end := mesh.Tree.End()
	idx := uint32(0)
	for idx < end {
		node := nodes[idx]
		if node.IsLeaf() {
			primitive := node.Primitive()
			a, b, c := mesh.Triangle(primitive)
			intersection := core.IntersectTriangle(ray, a.Position, b.Position, c.Position)
			if intersection.Distance < hit.Distance {
				hit.Intersection = intersection
				hit.InstanceIndex = instanceIndex
				hit.PrimitiveIndex = primitive
				if hit.Distance < earlyDistance {
					return hit
				}
			}
			idx = node.ExitIndex
		} else if ray.DistanceToAABB(node.AABB) < hit.Distance {
			idx = node.EntryIndex
		} else {
			idx = node.ExitIndex
		}
	}

	return hit
}

// HitPosition resolves a hit back to a world-space position along the
// original world ray.
func HitPosition(ray core.Ray, hit core.Hit) mgl32.Vec3 {
	return ray.Origin.Add(ray.Dir.Mul(hit.Distance))
}

// HitNormal interpolates the smooth vertex normal at the hit and brings
// it to world space through the instance's inverse transpose.
func (t *Tracer) HitNormal(hit core.Hit) mgl32.Vec3 {
	instance := &t.Scene.Instances[hit.InstanceIndex]
	mesh := t.Scene.Meshes[instance.MeshIndex]
	a, b, c := mesh.Triangle(hit.PrimitiveIndex)

	u, v := hit.UV.X(), hit.UV.Y()
	n := a.Normal.Mul(1 - u - v).Add(b.Normal.Mul(u)).Add(c.Normal.Mul(v))
	world := instance.InverseTranspose.Mul4x1(n.Vec4(0)).Vec3()
	return world.Normalize()
}

// HitUV interpolates the texture coordinate at the hit.
func (t *Tracer) HitUV(hit core.Hit) mgl32.Vec2 {
	instance := &t.Scene.Instances[hit.InstanceIndex]
	mesh := t.Scene.Meshes[instance.MeshIndex]
	a, b, c := mesh.Triangle(hit.PrimitiveIndex)

	u, v := hit.UV.X(), hit.UV.Y()
	return a.UV.Mul(1 - u - v).Add(b.UV.Mul(u)).Add(c.UV.Mul(v))
}
