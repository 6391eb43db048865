package grid

import (
	"pathgrid/models"
	"pathgrid/node_pool"
)

// DynamicGrid is an unbounded, sparse Grid over a node_pool.NodePool. The pool is
// not owned: several grids (see Clone) may share one, and every edit through any
// of them is seen by all.
//
// The grid caches the bounding box of the walkable cells. Insertions grow the box
// in O(1). A removal that touches a face of the box marks it dirty instead of
// shrinking it, and the next extent read rescans the pool; removals strictly inside
// the box leave it valid. Nothing here is safe for concurrent use: a reader and a
// writer must share a lock spanning the edit and any following extent read.
type DynamicGrid struct {
	pool  *node_pool.NodePool
	box   Cube
	dirty bool
	// gen is the pool generation the box was last known to match.
	gen uint64
	// rescans counts full passes over the pool.
	rescans int
}

// NewDynamicGrid binds a grid to @pool. No scan has happened yet, so the box
// starts dirty.
func NewDynamicGrid(pool *node_pool.NodePool) *DynamicGrid {
	return &DynamicGrid{
		pool:  pool,
		dirty: true,
		gen:   pool.Generation(),
	}
}

// NewDynamicGridFrom copies @other's cached box and dirty state. The pool is shared.
func NewDynamicGridFrom(other *DynamicGrid) *DynamicGrid {
	return &DynamicGrid{
		pool:  other.pool,
		box:   other.box,
		dirty: other.dirty,
		gen:   other.gen,
	}
}

// Pool returns the shared store this grid views.
func (g *DynamicGrid) Pool() *node_pool.NodePool {
	return g.pool
}

// Bounds returns the bounding box of the walkable cells, rescanning if dirty.
// An empty grid reports the zero Cube.
func (g *DynamicGrid) Bounds() Cube {
	g.sync()
	if g.dirty {
		g.rescan()
	}
	return g.box
}

// sync marks the box dirty if another view edited the shared pool since this
// grid last looked at it.
func (g *DynamicGrid) sync() {
	if gen := g.pool.Generation(); gen != g.gen {
		g.dirty = true
		g.gen = gen
	}
}

func (g *DynamicGrid) Width() int {
	return g.Bounds().Width()
}

func (g *DynamicGrid) Length() int {
	return g.Bounds().Length()
}

func (g *DynamicGrid) Height() int {
	return g.Bounds().Height()
}

// rescan recomputes the box from every entry in the pool.
func (g *DynamicGrid) rescan() {
	g.rescans++
	g.box = Cube{}
	g.dirty = false
	if g.pool.Len() == 0 {
		return
	}

	seeded := false
	g.pool.Visit(func(pos models.GridPos, _ *models.Node) {
		if !seeded {
			g.box.Seed(pos)
			seeded = true
			return
		}
		g.box.Extend(pos)
	})
}

func (g *DynamicGrid) GetNodeAt(x, y, z int) *models.Node {
	return g.GetNodeAtPos(models.NewGridPos(x, y, z))
}

func (g *DynamicGrid) GetNodeAtPos(pos models.GridPos) *models.Node {
	node, _ := g.pool.Get(pos)
	return node
}

func (g *DynamicGrid) IsWalkableAt(x, y, z int) bool {
	return g.IsWalkableAtPos(models.NewGridPos(x, y, z))
}

// IsWalkableAtPos is true iff the pool holds an entry at @pos; Node.Walkable is not consulted.
func (g *DynamicGrid) IsWalkableAtPos(pos models.GridPos) bool {
	return g.pool.Contains(pos)
}

func (g *DynamicGrid) SetWalkableAt(x, y, z int, walkable bool) bool {
	return g.SetWalkableAtPos(models.NewGridPos(x, y, z), walkable)
}

func (g *DynamicGrid) SetWalkableAtPos(pos models.GridPos, walkable bool) bool {
	g.sync()
	defer func() { g.gen = g.pool.Generation() }()

	if walkable {
		g.pool.SetNode(pos, true)
		g.grow(pos)
		return true
	}

	present := g.pool.Contains(pos)
	g.pool.SetNode(pos, false)
	if present && !g.dirty && g.box.OnBoundary(pos) {
		g.dirty = true
	}
	return true
}

// grow folds a newly walkable @pos into the box.
func (g *DynamicGrid) grow(pos models.GridPos) {
	// The sole walkable cell is the whole box, whatever was cached before.
	if g.pool.Len() == 1 {
		g.box.Seed(pos)
		g.dirty = false
		return
	}
	// Otherwise a dirty box stays dirty: the other cells' extents are unknown
	// until the next read rescans.
	if !g.dirty {
		g.box.Extend(pos)
	}
}

// Reset clears the search state of every node in the pool. Walkability and the
// bounding box are unaffected.
func (g *DynamicGrid) Reset() {
	g.pool.Visit(func(_ models.GridPos, node *models.Node) {
		node.Reset()
	})
}

// Clone returns a new view over the same pool. The clone's box starts dirty and is
// computed from the pool on its first read.
func (g *DynamicGrid) Clone() Grid {
	return NewDynamicGrid(g.pool)
}
