package domain

import "math/rand"

// Direction is a player-requested translation of the active piece.
type Direction string

const (
	DirLeft  Direction = "left"
	DirRight Direction = "right"
	DirDown  Direction = "down"
)

// Player holds one participant's simulation state.
type Player struct {
	ID       string
	Name     string
	Grid     Grid
	Active   *Piece
	Next     *Piece
	Score    int
	Level    int
	Lines    int
	Terminal bool
}

// NewPlayer returns a player with an empty grid at level 1 and no pieces.
func NewPlayer(id, name string) *Player {
	return &Player{
		ID:    id,
		Name:  name,
		Grid:  EmptyGrid(),
		Level: 1,
	}
}

// StepResult describes what one gravity step did to a player.
type StepResult struct {
	Moved     bool // piece fell one row
	Locked    bool // piece was baked into the grid
	Cleared   int  // rows removed by the lock
	Attack    int  // garbage rows owed to every opponent
	ToppedOut bool // the spawned piece collided; player is now terminal
}

// Spawn seeds the active and next pieces.
func (p *Player) Spawn(rng *rand.Rand) {
	p.Active = RandomPiece(rng)
	p.Next = RandomPiece(rng)
}

// CanAct reports whether player input may mutate this session.
func (p *Player) CanAct() bool {
	return !p.Terminal && p.Active != nil
}

// Move shifts the active piece one cell. It returns false if the move was
// blocked or the player cannot act.
func (p *Player) Move(dir Direction) bool {
	if !p.CanAct() {
		return false
	}
	x, y := p.Active.X, p.Active.Y
	switch dir {
	case DirLeft:
		x--
	case DirRight:
		x++
	case DirDown:
		y++
	default:
		return false
	}
	if Collides(&p.Grid, p.Active, x, y) {
		return false
	}
	p.Active.X, p.Active.Y = x, y
	return true
}

// Rotate turns the active piece clockwise in place. A rotation that would
// collide is dropped.
func (p *Player) Rotate() bool {
	if !p.CanAct() {
		return false
	}
	candidate := p.Active.Clone()
	candidate.Shape = RotatedShape(p.Active.Shape)
	if Collides(&p.Grid, candidate, candidate.X, candidate.Y) {
		return false
	}
	p.Active.Shape = candidate.Shape
	return true
}

// HardDrop moves the active piece down as far as it goes and awards the
// distance bonus immediately. The piece locks on the next gravity step.
func (p *Player) HardDrop() int {
	if !p.CanAct() {
		return 0
	}
	dropped := 0
	for !Collides(&p.Grid, p.Active, p.Active.X, p.Active.Y+1) {
		p.Active.Y++
		dropped++
	}
	p.Score += dropped * HardDropPointsPerRow
	return dropped
}

// Step applies one row of gravity. When the piece cannot fall it is locked,
// full rows are cleared and scored, and the next piece is promoted.
func (p *Player) Step(rng *rand.Rand) StepResult {
	var res StepResult
	if !p.CanAct() {
		return res
	}
	piece := p.Active
	if !Collides(&p.Grid, piece, piece.X, piece.Y+1) {
		piece.Y++
		res.Moved = true
		return res
	}

	res.Locked = true
	grid, cleared := ClearLines(Place(p.Grid, piece, piece.X, piece.Y))
	p.Grid = grid
	if cleared > 0 {
		res.Cleared = cleared
		p.Lines += cleared
		p.Score += LineClearScore(cleared, p.Level)
		p.Level = LevelForLines(p.Lines)
		res.Attack = AttackRows(cleared)
	}

	p.Active = p.Next
	p.Next = RandomPiece(rng)
	if Collides(&p.Grid, p.Active, p.Active.X, p.Active.Y) {
		p.Terminal = true
		res.ToppedOut = true
	}
	return res
}

// ReceiveGarbage pushes n garbage rows in from the bottom. Terminal players
// are left untouched.
func (p *Player) ReceiveGarbage(n int) {
	if p.Terminal || n <= 0 {
		return
	}
	p.Grid = AddGarbage(p.Grid, n)
}
