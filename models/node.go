package models

// Node is the per-cell state of a walkable cell. The position is fixed at creation;
// everything else is working state of a path search, which the grid never interprets
// beyond clearing it via Reset.
type Node struct {
	pos      GridPos
	Walkable bool

	// Search state.
	Parent *Node
	Opened bool
	Closed bool
	// G is the cost from the start node to this node.
	G float64
	// H is the heuristic cost from this node to the end node.
	H float64
	// F is G+H, the ordering key of the open list.
	F float64
}

func NewNode(pos GridPos, walkable bool) *Node {
	return &Node{
		pos:      pos,
		Walkable: walkable,
	}
}

func (node *Node) Pos() GridPos {
	return node.pos
}

// Reset returns the search state to its pre-search default. Position and
// walkability are left untouched.
func (node *Node) Reset() {
	node.Parent = nil
	node.Opened = false
	node.Closed = false
	node.G = 0
	node.H = 0
	node.F = 0
}
