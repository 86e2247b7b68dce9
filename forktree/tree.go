// Package forktree is a tree of blocks that branches where the chain forks.
// Every node carries a piece of data (an epoch header, a pending authority
// set change) keyed by block hash and number.
package forktree

import (
	"errors"

	"github.com/mezonai/lightsync/types"
)

var (
	ErrDuplicate = errors.New("hash already exists in tree")
	ErrRevert    = errors.New("block number is not greater than the best finalized number")
)

// IsDescendentOf reports whether block descends from base.
type IsDescendentOf func(base, block types.Hash) (bool, error)

type Node[V any] struct {
	Hash     types.Hash
	Number   types.BlockNumber
	Data     V
	Children []Node[V]
}

// Tree keeps its fields exported so the canonical codec can walk it.
type Tree[V any] struct {
	Roots               []Node[V]
	BestFinalizedNumber *types.BlockNumber
}

func New[V any]() Tree[V] {
	return Tree[V]{Roots: []Node[V]{}}
}

// Import inserts a node under its deepest ancestor already in the tree, or as a
// new root when no ancestor is found. It reports whether the node became a root.
func (t *Tree[V]) Import(hash types.Hash, number types.BlockNumber, data V, isDescendentOf IsDescendentOf) (bool, error) {
	if t.BestFinalizedNumber != nil && number <= *t.BestFinalizedNumber {
		return false, ErrRevert
	}

	siblings := &t.Roots
	for {
		next := -1
		for i := range *siblings {
			node := &(*siblings)[i]
			if node.Hash == hash {
				return false, ErrDuplicate
			}
			if node.Number >= number {
				continue
			}
			ok, err := isDescendentOf(node.Hash, hash)
			if err != nil {
				return false, err
			}
			if ok {
				next = i
				break
			}
		}
		if next < 0 {
			break
		}
		siblings = &(*siblings)[next].Children
	}

	isRoot := siblings == &t.Roots
	*siblings = append(*siblings, Node[V]{
		Hash:     hash,
		Number:   number,
		Data:     data,
		Children: []Node[V]{},
	})
	return isRoot, nil
}

// SetBestFinalized records the highest finalized number seen by the tree.
func (t *Tree[V]) SetBestFinalized(number types.BlockNumber) {
	n := number
	t.BestFinalizedNumber = &n
}

// Len counts every node in the tree.
func (t *Tree[V]) Len() int {
	count := 0
	t.Walk(func(*Node[V]) bool {
		count++
		return true
	})
	return count
}

// Walk visits nodes in pre-order until fn returns false.
func (t *Tree[V]) Walk(fn func(node *Node[V]) bool) {
	var walk func(nodes []Node[V]) bool
	walk = func(nodes []Node[V]) bool {
		for i := range nodes {
			if !fn(&nodes[i]) {
				return false
			}
			if !walk(nodes[i].Children) {
				return false
			}
		}
		return true
	}
	walk(t.Roots)
}

// Find returns the node with the given hash, or nil.
func (t *Tree[V]) Find(hash types.Hash) *Node[V] {
	var found *Node[V]
	t.Walk(func(n *Node[V]) bool {
		if n.Hash == hash {
			found = n
			return false
		}
		return true
	})
	return found
}

// Clone deep copies the tree. cloneData copies a node's data; nil means V is copied by value.
func (t *Tree[V]) Clone(cloneData func(V) V) Tree[V] {
	out := Tree[V]{Roots: cloneNodes(t.Roots, cloneData)}
	if t.BestFinalizedNumber != nil {
		out.SetBestFinalized(*t.BestFinalizedNumber)
	}
	return out
}

func cloneNodes[V any](nodes []Node[V], cloneData func(V) V) []Node[V] {
	if nodes == nil {
		return nil
	}
	out := make([]Node[V], len(nodes))
	for i, n := range nodes {
		data := n.Data
		if cloneData != nil {
			data = cloneData(n.Data)
		}
		out[i] = Node[V]{
			Hash:     n.Hash,
			Number:   n.Number,
			Data:     data,
			Children: cloneNodes(n.Children, cloneData),
		}
	}
	return out
}
