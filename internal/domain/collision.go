package domain

// Collides reports whether the piece's shape placed at (x, y) leaves the
// board horizontally, reaches at or below the floor, or overlaps an occupied
// cell. Sub-cells above the top edge (negative rows) never collide with grid
// contents.
func Collides(grid *Grid, piece *Piece, x, y int) bool {
	for row, cells := range piece.Shape {
		for col, filled := range cells {
			if !filled {
				continue
			}
			gx, gy := x+col, y+row
			if gx < 0 || gx >= Width || gy >= Height {
				return true
			}
			if gy >= 0 && grid[gy][gx] != Empty {
				return true
			}
		}
	}
	return false
}

// Place returns a copy of grid with the piece baked in at (x, y). Sub-cells
// outside the board are clipped.
func Place(grid Grid, piece *Piece, x, y int) Grid {
	for row, cells := range piece.Shape {
		for col, filled := range cells {
			if !filled {
				continue
			}
			gx, gy := x+col, y+row
			if gy < 0 || gy >= Height || gx < 0 || gx >= Width {
				continue
			}
			grid[gy][gx] = piece.Color
		}
	}
	return grid
}

// ClearLines removes every full row in one pass and pads the top with empty
// rows. It returns the new grid and the number of rows removed.
func ClearLines(grid Grid) (Grid, int) {
	var out Grid
	dst := Height - 1
	for src := Height - 1; src >= 0; src-- {
		if rowFull(grid[src]) {
			continue
		}
		out[dst] = grid[src]
		dst--
	}
	return out, dst + 1
}

// AddGarbage drops the top n rows and appends n full garbage rows at the
// bottom.
func AddGarbage(grid Grid, n int) Grid {
	if n <= 0 {
		return grid
	}
	if n > Height {
		n = Height
	}
	var out Grid
	copy(out[:], grid[n:])
	for i := Height - n; i < Height; i++ {
		out[i] = garbageRow()
	}
	return out
}
