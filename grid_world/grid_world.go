package grid_world

import (
	"fmt"
	"io"

	"pathgrid/grid"
	"pathgrid/models"
)

// Layout is a stack of layers, one per z level from the ground up. Each layer is a
// printed map of rows, and each row is a string of cell runes.
// Like a printed track, the bottom row of each layer is y=0 and the leftmost column is x=0.
type Layout [][]string

// Layout cell types
const (
	WALL   = 'W'
	OPEN   = 'o'
	START  = '-'
	FINISH = '+'
)

// A small two-storey layout for development, and a larger multi-storey building
// whose floors connect through stair columns.
var (
	DebugLayout Layout = Layout{
		{
			"WWWWWW",
			"Woooo+",
			"WooWWW",
			"W--WWW",
		},
		{
			"WWWWWW",
			"WooooW",
			"WoWWoW",
			"WWWWoW",
		},
	}

	FullLayout Layout = Layout{
		{
			"WWWWWWWWWWWWWWWWWW",
			"WoooooooooooooooWW",
			"WoWWWWWWWooWWWWoWW",
			"WoWooooooooooooooW",
			"WoWoWWWWWWWWWWWWoW",
			"WoooWoooooooooooWW",
			"WWWWWoWWWWWWWWoWWW",
			"W----ooooooooooooW",
			"WWWWWWWWWWWWWWWWWW",
		},
		{
			"WWWWWWWWWWWWWWWWWW",
			"WWWWWWWWWWWWWWWoWW",
			"WWWWWWWWWWWWWWWoWW",
			"WoooooooooooooooWW",
			"WoWWWWWWWWWWWWWWWW",
			"WoWWWWWWWWWWWWWWWW",
			"WoWWWWWWWWWWWWWWWW",
			"WoWWWWWWWWWWWWWWWW",
			"WWWWWWWWWWWWWWWWWW",
		},
		{
			"WWWWWWWWWWWWWWWWWW",
			"WWWWWWWWWWWWWWWWWW",
			"WWWWWWWWWWWWWWWWWW",
			"WWWWWWWWWWWWWWWWWW",
			"WoWWWWWWWWWWWWWWWW",
			"WooooooooooooooWWW",
			"WWWWWWWWWWWWWWoWWW",
			"WWWWWWWWWWWWWW+WWW",
			"WWWWWWWWWWWWWWWWWW",
		},
	}
)

// Convert marks every non-wall cell of @layout walkable in @g, and returns the
// positions of the start and finish cells. Walls are simply never opened; the grid
// is sparse, so there is nothing to close.
// Note there is no error checking on the layout: ragged rows and unknown runes are
// treated as open cells.
func Convert(layout Layout, g grid.Grid) (starts, finishes []models.GridPos) {
	Visit(layout, func(pos models.GridPos, cellType rune) {
		g.SetWalkableAtPos(pos, true)
		switch cellType {
		case START:
			starts = append(starts, pos)
		case FINISH:
			finishes = append(finishes, pos)
		}
	})
	return
}

// Bounded is a grid that can report its bounding box, e.g. grid.DynamicGrid.
type Bounded interface {
	grid.Grid
	Bounds() grid.Cube
}

// ShowGrid prints each z level of the grid's bounding box, top row first, with
// walkable cells as OPEN and everything else as WALL. Extents are max-min, so a
// level is Width()+1 cells wide.
func ShowGrid(w io.Writer, g Bounded) {
	box := g.Bounds()
	for z := box.MinZ; z <= box.MaxZ; z++ {
		fmt.Fprintf(w, "z=%d\n", z)
		for _, y := range Rev(box.MinY, box.MaxY) {
			for x := box.MinX; x <= box.MaxX; x++ {
				cellType := WALL
				if g.IsWalkableAt(x, y, z) {
					cellType = OPEN
				}
				fmt.Fprintf(w, "%c ", cellType)
			}
			fmt.Fprintln(w, "")
		}
	}
}

// Rev returns the integers from @hi down to @lo inclusive, e.g. for ranging over.
func Rev(lo, hi int) []int {
	if hi < lo {
		return nil
	}
	indices := make([]int, 0, hi-lo+1)
	for i := hi; i >= lo; i-- {
		indices = append(indices, i)
	}
	return indices
}

// Visit visits every non-wall cell of @layout using the passed function.
func Visit(layout Layout, fn func(pos models.GridPos, cellType rune)) {
	for z, layer := range layout {
		height := len(layer)
		for row, line := range layer {
			// Select rows bottom up, so +y is up the printed layer.
			y := height - row - 1
			for x, cellType := range []rune(line) {
				if cellType != WALL {
					fn(models.NewGridPos(x, y, z), cellType)
				}
			}
		}
	}
}
