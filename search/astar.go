// search finds paths over a grid.Grid with A*, using the grid's nodes to hold
// the per-search state (costs, parent links, open/closed marks).
package search

import (
	"container/heap"
	"errors"
	"fmt"
	"math"

	"pathgrid/grid"
	"pathgrid/models"
)

var (
	ErrStartNotWalkable error = errors.New("start cell is not walkable")
	ErrEndNotWalkable   error = errors.New("end cell is not walkable")
	ErrNoPath           error = errors.New("no path")
)

// Options tune a search. The zero value is 6-connected movement with the
// Manhattan heuristic.
type Options struct {
	// Diagonal allows moves to all 26 neighbours. A diagonal move may not cut a
	// corner: every axis-aligned step it combines must land on a walkable cell.
	Diagonal bool
	// Heuristic defaults to Manhattan.
	Heuristic Heuristic
	// Weight scales the heuristic; values above 1 trade optimality for speed.
	// Zero means 1.
	Weight float64
}

type offset struct {
	delta models.GridPos
	cost  float64
}

var faceOffsets, allOffsets = buildOffsets()

func buildOffsets() (faces, all []offset) {
	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				o := offset{
					delta: models.NewGridPos(dx, dy, dz),
					cost:  math.Sqrt(float64(dx*dx + dy*dy + dz*dz)),
				}
				all = append(all, o)
				if abs(dx)+abs(dy)+abs(dz) == 1 {
					faces = append(faces, o)
				}
			}
		}
	}
	return
}

// FindPath returns the cells from @start to @end inclusive. The grid's search state
// is reset first, so nodes left over from a previous search do not leak in.
// Callers sharing @g with writers must hold their lock for the whole search.
func FindPath(
	g grid.Grid,
	start, end models.GridPos,
	opts Options,
) ([]models.GridPos, error) {
	if !g.IsWalkableAtPos(start) {
		return nil, fmt.Errorf("%w: %v", ErrStartNotWalkable, start)
	}
	if !g.IsWalkableAtPos(end) {
		return nil, fmt.Errorf("%w: %v", ErrEndNotWalkable, end)
	}

	h := opts.Heuristic
	if h == nil {
		h = Manhattan
	}
	weight := opts.Weight
	if weight == 0 {
		weight = 1
	}
	estimate := func(pos models.GridPos) float64 {
		return weight * h(abs(pos.X-end.X), abs(pos.Y-end.Y), abs(pos.Z-end.Z))
	}
	offsets := faceOffsets
	if opts.Diagonal {
		offsets = allOffsets
	}

	g.Reset()

	first := g.GetNodeAtPos(start)
	first.H = estimate(start)
	first.F = first.H
	first.Opened = true
	open := &openList{}
	heap.Push(open, openItem{node: first, f: first.F})

	for open.Len() > 0 {
		current := heap.Pop(open).(openItem).node
		// Nodes are pushed again when their cost improves; skip the stale copies.
		if current.Closed {
			continue
		}
		current.Closed = true
		if current.Pos() == end {
			return backtrace(current), nil
		}

		for _, o := range offsets {
			pos := current.Pos().Add(o.delta)
			neighbor := g.GetNodeAtPos(pos)
			if neighbor == nil || neighbor.Closed {
				continue
			}
			if opts.Diagonal && !canCut(g, current.Pos(), o.delta) {
				continue
			}

			cost := current.G + o.cost
			if neighbor.Opened && cost >= neighbor.G {
				continue
			}
			neighbor.G = cost
			neighbor.H = estimate(pos)
			neighbor.F = neighbor.G + neighbor.H
			neighbor.Parent = current
			neighbor.Opened = true
			heap.Push(open, openItem{node: neighbor, f: neighbor.F})
		}
	}

	return nil, fmt.Errorf("%w: %v to %v", ErrNoPath, start, end)
}

// canCut reports whether every single-axis step of @delta from @from is walkable.
func canCut(g grid.Grid, from, delta models.GridPos) bool {
	if delta.X != 0 && !g.IsWalkableAt(from.X+delta.X, from.Y, from.Z) {
		return false
	}
	if delta.Y != 0 && !g.IsWalkableAt(from.X, from.Y+delta.Y, from.Z) {
		return false
	}
	if delta.Z != 0 && !g.IsWalkableAt(from.X, from.Y, from.Z+delta.Z) {
		return false
	}
	return true
}

func backtrace(end *models.Node) []models.GridPos {
	path := []models.GridPos{}
	for node := end; node != nil; node = node.Parent {
		path = append(path, node.Pos())
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// PathCost is the euclidean length of @path.
func PathCost(path []models.GridPos) (cost float64) {
	for i := 1; i < len(path); i++ {
		dx := path[i].X - path[i-1].X
		dy := path[i].Y - path[i-1].Y
		dz := path[i].Z - path[i-1].Z
		cost += math.Sqrt(float64(dx*dx + dy*dy + dz*dz))
	}
	return
}

// openItem holds the F a node had when pushed; the node's own F may drop later.
type openItem struct {
	node *models.Node
	f    float64
}

// openList is a min-heap of open nodes ordered by F.
type openList []openItem

func (ol openList) Len() int { return len(ol) }

func (ol openList) Less(i, j int) bool { return ol[i].f < ol[j].f }

func (ol openList) Swap(i, j int) { ol[i], ol[j] = ol[j], ol[i] }

func (ol *openList) Push(x any) {
	*ol = append(*ol, x.(openItem))
}

func (ol *openList) Pop() any {
	old := *ol
	n := len(old)
	item := old[n-1]
	old[n-1] = openItem{}
	*ol = old[:n-1]
	return item
}
