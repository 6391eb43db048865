package grid

import "pathgrid/models"

// Cube is an axis-aligned box over grid positions, with inclusive bounds.
type Cube struct {
	MinX, MaxX int
	MinY, MaxY int
	MinZ, MaxZ int
}

// Seed collapses the cube onto a single position.
func (c *Cube) Seed(pos models.GridPos) {
	c.MinX, c.MaxX = pos.X, pos.X
	c.MinY, c.MaxY = pos.Y, pos.Y
	c.MinZ, c.MaxZ = pos.Z, pos.Z
}

// Extend widens each bound only where @pos lies outside it.
func (c *Cube) Extend(pos models.GridPos) {
	if pos.X < c.MinX {
		c.MinX = pos.X
	}
	if pos.X > c.MaxX {
		c.MaxX = pos.X
	}
	if pos.Y < c.MinY {
		c.MinY = pos.Y
	}
	if pos.Y > c.MaxY {
		c.MaxY = pos.Y
	}
	if pos.Z < c.MinZ {
		c.MinZ = pos.Z
	}
	if pos.Z > c.MaxZ {
		c.MaxZ = pos.Z
	}
}

// OnBoundary reports whether any coordinate of @pos equals a min or max of the cube.
// Removing a cell that is not on the boundary cannot shrink the cube.
func (c Cube) OnBoundary(pos models.GridPos) bool {
	return pos.X == c.MinX || pos.X == c.MaxX ||
		pos.Y == c.MinY || pos.Y == c.MaxY ||
		pos.Z == c.MinZ || pos.Z == c.MaxZ
}

// Contains reports whether @pos lies within the inclusive bounds.
func (c Cube) Contains(pos models.GridPos) bool {
	return pos.X >= c.MinX && pos.X <= c.MaxX &&
		pos.Y >= c.MinY && pos.Y <= c.MaxY &&
		pos.Z >= c.MinZ && pos.Z <= c.MaxZ
}

func (c Cube) Width() int  { return c.MaxX - c.MinX }
func (c Cube) Length() int { return c.MaxY - c.MinY }
func (c Cube) Height() int { return c.MaxZ - c.MinZ }
