// grid defines the surface a path search uses to query and edit a 3d grid,
// and DynamicGrid, a sparse implementation backed by a shared node_pool.
package grid

import "pathgrid/models"

// Grid is everything a path search needs from the map: the extents of the
// walkable region, node lookup, walkability queries and edits, and clearing
// per-search node state.
//
// Width, Length and Height are extents (max-min over walkable cells on the
// x, y and z axes), not cell counts. A grid whose walkable cells span x=0..5 has
// a width of 5.
//
// Go has no overloading, so each coordinate method has a Pos variant taking
// the position key.
type Grid interface {
	Width() int
	Length() int
	Height() int

	// GetNodeAt returns nil if the cell is not walkable.
	GetNodeAt(x, y, z int) *models.Node
	GetNodeAtPos(pos models.GridPos) *models.Node

	IsWalkableAt(x, y, z int) bool
	IsWalkableAtPos(pos models.GridPos) bool

	// SetWalkableAt always reports true.
	SetWalkableAt(x, y, z int, walkable bool) bool
	SetWalkableAtPos(pos models.GridPos, walkable bool) bool

	// Reset clears the search state of every node.
	Reset()

	// Clone returns another view over the same cells.
	Clone() Grid
}
