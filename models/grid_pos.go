package models

import "fmt"

// GridPos is a cell coordinate in the unbounded grid. It is a plain value:
// two positions are the same cell iff all three coordinates are equal, so
// GridPos is used directly as a map key.
type GridPos struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func NewGridPos(x, y, z int) GridPos {
	return GridPos{X: x, Y: y, Z: z}
}

// Add returns the position offset by @delta.
func (pos GridPos) Add(delta GridPos) GridPos {
	return GridPos{
		X: pos.X + delta.X,
		Y: pos.Y + delta.Y,
		Z: pos.Z + delta.Z,
	}
}

// Hash combines the three coordinates into a single value, for callers keying
// structures other than a go map (which hashes GridPos itself).
// This is FNV-1a over the coordinate words, so it is stable across runs.
func (pos GridPos) Hash() uint64 {
	const (
		offset = 14695981039346656037
		prime  = 1099511628211
	)
	h := uint64(offset)
	for _, c := range [3]int{pos.X, pos.Y, pos.Z} {
		h ^= uint64(int64(c))
		h *= prime
	}
	return h
}

func (pos GridPos) String() string {
	return fmt.Sprintf("(%d,%d,%d)", pos.X, pos.Y, pos.Z)
}
