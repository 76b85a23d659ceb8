// Package bvh builds linearized bounding volume hierarchies walkable
// without a stack. Nodes carry entry/exit indices threaded in depth-first
// order: descend to EntryIndex on a box hit, skip to ExitIndex otherwise.
// The same layout serves the top level (over instances) and the bottom
// level (over triangles of one mesh).
package bvh

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/CreatorSiSo/hikari/rt/core"
)

// LeafFlag marks leaf nodes in EntryIndex; the remaining bits index the
// instance (top level) or the triangle (bottom level).
const LeafFlag = uint32(0x80000000)

type Node struct {
	AABB       core.AABB
	EntryIndex uint32
	ExitIndex  uint32
}

func (n Node) IsLeaf() bool {
	return n.EntryIndex&LeafFlag != 0
}

// Primitive returns the instance/triangle index of a leaf node.
func (n Node) Primitive() uint32 {
	return n.EntryIndex &^ LeafFlag
}

// Tree is a flattened hierarchy. The traversal terminal is
// uint32(len(Nodes)): a walk ends when the cursor reaches it.
type Tree struct {
	Nodes []Node
}

func (t *Tree) End() uint32 {
	return uint32(len(t.Nodes))
}

// Item is one leaf candidate handed to Build.
type Item struct {
	AABB  core.AABB
	Index uint32
}

type buildNode struct {
	aabb   core.AABB
	item   uint32 // valid when leaf
	leaf   bool
	leaves int
	left   *buildNode
	right  *buildNode
}

// Build produces a flattened tree over the given items using a median
// split along the longest centroid axis. Empty input yields an empty
// tree whose End() is 0.
func Build(items []Item) Tree {
	if len(items) == 0 {
		return Tree{}
	}

	scratch := make([]Item, len(items))
	copy(scratch, items)

	root := buildRecursive(scratch)

	// A binary tree over n leaves flattens to exactly 2n-1 nodes.
	var tree Tree
	tree.Nodes = make([]Node, 0, 2*len(items)-1)
	flatten(root, &tree, uint32(2*len(items)-1))
	return tree
}

func buildRecursive(items []Item) *buildNode {
	inf := float32(math.Inf(1))
	bounds := core.AABB{Min: mgl32.Vec3{inf, inf, inf}, Max: mgl32.Vec3{-inf, -inf, -inf}}
	for _, it := range items {
		bounds = bounds.Union(it.AABB)
	}

	if len(items) == 1 {
		return &buildNode{aabb: bounds, item: items[0].Index, leaf: true, leaves: 1}
	}

	extent := bounds.Max.Sub(bounds.Min)
	axis := 0
	if extent.Y() > extent.X() {
		axis = 1
	}
	if extent.Z() > extent[axis] {
		axis = 2
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].AABB.Center()[axis] < items[j].AABB.Center()[axis]
	})

	mid := len(items) / 2
	left := buildRecursive(items[:mid])
	right := buildRecursive(items[mid:])
	return &buildNode{
		aabb:   bounds,
		left:   left,
		right:  right,
		leaves: left.leaves + right.leaves,
	}
}

// flatten emits nodes in depth-first order. exit is where the walk
// resumes when this subtree is missed or exhausted; for the root that is
// one past the last node.
func flatten(n *buildNode, tree *Tree, exit uint32) {
	idx := uint32(len(tree.Nodes))
	tree.Nodes = append(tree.Nodes, Node{AABB: n.aabb, ExitIndex: exit})

	if n.leaf {
		tree.Nodes[idx].EntryIndex = LeafFlag | n.item
		return
	}

	tree.Nodes[idx].EntryIndex = idx + 1
	// The left subtree exits into the right subtree, which starts right
	// after the left one's 2k-1 nodes.
	rightStart := idx + 1 + uint32(2*n.left.leaves-1)
	flatten(n.left, tree, rightStart)
	flatten(n.right, tree, exit)
}
