package bvh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/CreatorSiSo/hikari/rt/core"
)

func box(min, max mgl32.Vec3) core.AABB {
	return core.AABB{Min: min, Max: max}
}

func TestBuildEmpty(t *testing.T) {
	tree := Build(nil)
	if len(tree.Nodes) != 0 || tree.End() != 0 {
		t.Errorf("Expected empty tree, got %d nodes", len(tree.Nodes))
	}
}

func TestBuildSingleLeaf(t *testing.T) {
	tree := Build([]Item{{AABB: box(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}), Index: 7}})

	if len(tree.Nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(tree.Nodes))
	}
	n := tree.Nodes[0]
	if !n.IsLeaf() {
		t.Error("Single item should flatten to a leaf root")
	}
	if n.Primitive() != 7 {
		t.Errorf("Expected primitive 7, got %d", n.Primitive())
	}
	if n.ExitIndex != tree.End() {
		t.Errorf("Root exit should be End()=%d, got %d", tree.End(), n.ExitIndex)
	}
}

func TestBuildTwoItemsSplit(t *testing.T) {
	// Two boxes far apart along x force a split at the root.
	items := []Item{
		{AABB: box(mgl32.Vec3{-100, -1, -1}, mgl32.Vec3{-98, 1, 1}), Index: 0},
		{AABB: box(mgl32.Vec3{98, -1, -1}, mgl32.Vec3{100, 1, 1}), Index: 1},
	}
	tree := Build(items)

	if len(tree.Nodes) != 3 {
		t.Fatalf("Expected 3 nodes, got %d", len(tree.Nodes))
	}

	root := tree.Nodes[0]
	if root.IsLeaf() {
		t.Fatal("Root should be internal")
	}
	if root.AABB.Min.X() != -100 || root.AABB.Max.X() != 100 {
		t.Errorf("Root AABB should cover both items: %v %v", root.AABB.Min, root.AABB.Max)
	}
	if root.EntryIndex != 1 {
		t.Errorf("Root entry should descend to node 1, got %d", root.EntryIndex)
	}
	if root.ExitIndex != 3 {
		t.Errorf("Root exit should be End()=3, got %d", root.ExitIndex)
	}

	left, right := tree.Nodes[1], tree.Nodes[2]
	if !left.IsLeaf() || !right.IsLeaf() {
		t.Fatal("Both children should be leaves")
	}
	// Sorted along x: item 0 first.
	if left.Primitive() != 0 || right.Primitive() != 1 {
		t.Errorf("Unexpected leaf order: %d, %d", left.Primitive(), right.Primitive())
	}
	if left.ExitIndex != 2 {
		t.Errorf("Left leaf should exit into the right subtree at 2, got %d", left.ExitIndex)
	}
	if right.ExitIndex != 3 {
		t.Errorf("Right leaf should exit to End()=3, got %d", right.ExitIndex)
	}
}

func TestBuildNodeCountAndThreading(t *testing.T) {
	var items []Item
	for i := 0; i < 33; i++ {
		p := mgl32.Vec3{float32(i % 7), float32(i % 5), float32(i)}
		items = append(items, Item{AABB: box(p, p.Add(mgl32.Vec3{1, 1, 1})), Index: uint32(i)})
	}
	tree := Build(items)

	if want := 2*len(items) - 1; len(tree.Nodes) != want {
		t.Fatalf("Expected %d nodes over %d leaves, got %d", want, len(items), len(tree.Nodes))
	}

	// Walking by always taking ExitIndex must visit every node at most
	// once and terminate; taking EntryIndex from internal nodes must
	// stay in bounds and make forward progress.
	seen := make(map[uint32]int)
	leaves := 0
	for idx := uint32(0); idx != tree.End(); {
		seen[idx]++
		if seen[idx] > 1 {
			t.Fatalf("Node %d visited twice", idx)
		}
		n := tree.Nodes[idx]
		if n.IsLeaf() {
			leaves++
			idx = n.ExitIndex
			continue
		}
		if n.EntryIndex <= idx || n.EntryIndex >= tree.End() {
			t.Fatalf("Internal node %d has bad entry %d", idx, n.EntryIndex)
		}
		idx = n.EntryIndex
	}
	// Descending every internal node visits all leaves exactly once.
	if leaves != len(items) {
		t.Errorf("Expected to visit %d leaves, saw %d", len(items), leaves)
	}

	// Each item index appears on exactly one leaf.
	found := make(map[uint32]bool)
	for _, n := range tree.Nodes {
		if n.IsLeaf() {
			if found[n.Primitive()] {
				t.Fatalf("Primitive %d appears on two leaves", n.Primitive())
			}
			found[n.Primitive()] = true
		}
	}
	if len(found) != len(items) {
		t.Errorf("Expected %d distinct primitives, got %d", len(items), len(found))
	}
}
