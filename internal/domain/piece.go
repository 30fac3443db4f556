package domain

import "math/rand"

// PieceType names one of the seven tetrominoes.
type PieceType string

const (
	PieceI PieceType = "I"
	PieceO PieceType = "O"
	PieceT PieceType = "T"
	PieceS PieceType = "S"
	PieceZ PieceType = "Z"
	PieceJ PieceType = "J"
	PieceL PieceType = "L"
)

// CatalogEntry is an immutable rotation-0 shape and its color.
type CatalogEntry struct {
	Type  PieceType
	Shape [][]bool
	Color Cell
}

// Catalog lists the seven canonical tetrominoes. Entries are shared and must
// not be mutated; pieces copy their shape out of it.
var Catalog = []CatalogEntry{
	{Type: PieceI, Color: "#00f5ff", Shape: [][]bool{
		{true, true, true, true},
	}},
	{Type: PieceO, Color: "#ffff00", Shape: [][]bool{
		{true, true},
		{true, true},
	}},
	{Type: PieceT, Color: "#a000f0", Shape: [][]bool{
		{false, true, false},
		{true, true, true},
	}},
	{Type: PieceS, Color: "#00f000", Shape: [][]bool{
		{false, true, true},
		{true, true, false},
	}},
	{Type: PieceZ, Color: "#f00000", Shape: [][]bool{
		{true, true, false},
		{false, true, true},
	}},
	{Type: PieceJ, Color: "#0000f0", Shape: [][]bool{
		{true, false, false},
		{true, true, true},
	}},
	{Type: PieceL, Color: "#f0a000", Shape: [][]bool{
		{false, false, true},
		{true, true, true},
	}},
}

// Piece is a shape anchored by its top-left corner at (X, Y) in the grid.
type Piece struct {
	Type  PieceType `json:"type"`
	Shape [][]bool  `json:"shape"`
	Color Cell      `json:"color"`
	X     int       `json:"x"`
	Y     int       `json:"y"`
}

// NewPiece copies a catalog entry into a piece at the spawn position:
// row 0, horizontally centered.
func NewPiece(entry CatalogEntry) *Piece {
	shape := cloneShape(entry.Shape)
	return &Piece{
		Type:  entry.Type,
		Shape: shape,
		Color: entry.Color,
		X:     Width/2 - shapeWidth(shape)/2,
		Y:     0,
	}
}

// RandomPiece picks a catalog entry uniformly.
func RandomPiece(rng *rand.Rand) *Piece {
	return NewPiece(Catalog[rng.Intn(len(Catalog))])
}

// Clone returns a deep copy of the piece.
func (p *Piece) Clone() *Piece {
	if p == nil {
		return nil
	}
	c := *p
	c.Shape = cloneShape(p.Shape)
	return &c
}

// RotatedShape returns the shape turned 90 degrees clockwise: transpose,
// then reverse each row. No wall kicks are attempted.
func RotatedShape(shape [][]bool) [][]bool {
	rows := len(shape)
	cols := shapeWidth(shape)
	out := make([][]bool, cols)
	for i := 0; i < cols; i++ {
		out[i] = make([]bool, rows)
		for j := 0; j < rows; j++ {
			out[i][rows-1-j] = shape[j][i]
		}
	}
	return out
}

func shapeWidth(shape [][]bool) int {
	if len(shape) == 0 {
		return 0
	}
	return len(shape[0])
}

func cloneShape(shape [][]bool) [][]bool {
	out := make([][]bool, len(shape))
	for i, row := range shape {
		out[i] = append([]bool(nil), row...)
	}
	return out
}
