package domain

// Board dimensions. They never change during a session.
const (
	Width  = 10
	Height = 20
)

// Cell is a single grid cell: Empty or a color token.
type Cell string

// Empty marks an unoccupied cell.
const Empty Cell = ""

// GarbageColor fills rows injected by an opponent's attack.
const GarbageColor Cell = "#ff0000"

// Grid is a fixed Height x Width playing field. It is an array so that
// assignment copies it; placement and line clears return new values.
type Grid [Height][Width]Cell

// EmptyGrid returns a grid with every cell empty.
func EmptyGrid() Grid {
	return Grid{}
}

// rowFull reports whether every cell in the row is occupied.
func rowFull(row [Width]Cell) bool {
	for _, c := range row {
		if c == Empty {
			return false
		}
	}
	return true
}

func garbageRow() [Width]Cell {
	var row [Width]Cell
	for i := range row {
		row[i] = GarbageColor
	}
	return row
}
