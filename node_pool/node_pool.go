// node_pool is the sparse backing store of a grid: a map from position to node,
// holding an entry only for cells that are currently walkable.
package node_pool

import (
	"pathgrid/models"
)

// NodePool owns every Node of the grids built over it. Its single contract is
// that a position is present iff the cell is walkable; SetNode(pos, false)
// deletes the entry rather than storing an unwalkable node, which is what lets
// grids answer walkability queries by presence alone.
type NodePool struct {
	nodes map[models.GridPos]*models.Node
	// gen increments whenever an entry is added or removed.
	gen uint64
}

func New() *NodePool {
	return &NodePool{
		nodes: map[models.GridPos]*models.Node{},
	}
}

// Get returns the node at @pos, if the cell is walkable.
func (pool *NodePool) Get(pos models.GridPos) (node *models.Node, ok bool) {
	node, ok = pool.nodes[pos]
	return
}

// Contains reports whether @pos is present, i.e. walkable.
func (pool *NodePool) Contains(pos models.GridPos) bool {
	_, ok := pool.nodes[pos]
	return ok
}

// SetNode inserts a walkable node at @pos, or returns the existing one so that
// its search state is kept. Marking a position unwalkable removes it and returns nil.
func (pool *NodePool) SetNode(pos models.GridPos, walkable bool) *models.Node {
	if !walkable {
		if _, ok := pool.nodes[pos]; ok {
			delete(pool.nodes, pos)
			pool.gen++
		}
		return nil
	}

	if node, ok := pool.nodes[pos]; ok {
		return node
	}
	node := models.NewNode(pos, true)
	pool.nodes[pos] = node
	pool.gen++
	return node
}

// Generation changes every time the set of walkable cells changes. Views over a
// shared pool compare it against the value they last saw to detect edits made
// through other views.
func (pool *NodePool) Generation() uint64 {
	return pool.gen
}

// Len is the number of walkable cells.
func (pool *NodePool) Len() int {
	return len(pool.nodes)
}

// Visit calls @fn once per entry, in no particular order.
// @fn must not add or remove entries.
func (pool *NodePool) Visit(fn func(pos models.GridPos, node *models.Node)) {
	for pos, node := range pool.nodes {
		fn(pos, node)
	}
}
