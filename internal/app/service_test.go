package app

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"tetrisduel/internal/domain"
)

func newPlayingRoom(t *testing.T, svc *Service) *domain.Room {
	t.Helper()
	room := domain.NewRoom("R1")
	if _, err := svc.Join(room, "a", "Alice"); err != nil {
		t.Fatalf("join a: %v", err)
	}
	if _, err := svc.Join(room, "b", "Bob"); err != nil {
		t.Fatalf("join b: %v", err)
	}
	return room
}

func fillRowExcept(g *domain.Grid, row int, holes ...int) {
	for x := 0; x < domain.Width; x++ {
		g[row][x] = "#777777"
	}
	for _, x := range holes {
		g[row][x] = domain.Empty
	}
}

func verticalI() *domain.Piece {
	p := domain.NewPiece(domain.Catalog[0])
	p.Shape = domain.RotatedShape(p.Shape)
	return p
}

func TestJoinStartsGameOnSecondPlayer(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(42)))
	startedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return startedAt }
	room := domain.NewRoom("R1")

	evs, err := svc.Join(room, "a", "Alice")
	if err != nil {
		t.Fatalf("join error: %v", err)
	}
	if room.Phase != domain.PhaseWaiting || len(evs) != 1 || evs[0].Kind != EventRoomUpdate {
		t.Fatalf("first join: phase=%s events=%v", room.Phase, evs)
	}

	evs, err = svc.Join(room, "b", "Bob")
	if err != nil {
		t.Fatalf("join error: %v", err)
	}
	if room.Phase != domain.PhasePlaying {
		t.Fatalf("phase = %s, want playing", room.Phase)
	}
	if !room.StartedAt.Equal(startedAt) {
		t.Fatalf("StartedAt = %v, want %v", room.StartedAt, startedAt)
	}
	if len(evs) != 2 || evs[0].Kind != EventRoomUpdate || evs[1].Kind != EventGameStart {
		t.Fatalf("second join events = %v", evs)
	}
	for _, p := range room.Players {
		if p.Active == nil || p.Next == nil {
			t.Fatalf("player %s not seeded", p.ID)
		}
		wantX := domain.Width/2 - len(p.Active.Shape[0])/2
		if p.Active.Y != 0 || p.Active.X != wantX {
			t.Fatalf("player %s spawn = (%d,%d), want (%d,0)", p.ID, p.Active.X, p.Active.Y, wantX)
		}
	}
}

func TestCheckJoin(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(1)))
	room := newPlayingRoom(t, svc)

	if err := svc.CheckJoin(room, "c"); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("full room: err = %v, want ErrRoomFull", err)
	}
	if err := svc.CheckJoin(room, "a"); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("duplicate: err = %v, want ErrAlreadyJoined", err)
	}

	svc.Leave(room, "b")
	if err := svc.CheckJoin(room, "c"); !errors.Is(err, ErrRoomInProgress) {
		t.Fatalf("playing room: err = %v, want ErrRoomInProgress", err)
	}

	room.Phase = domain.PhaseFinished
	if err := svc.CheckJoin(room, "c"); !errors.Is(err, ErrRoomFinished) {
		t.Fatalf("finished room: err = %v, want ErrRoomFinished", err)
	}
}

func TestJoinNormalizesName(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(1)))
	room := domain.NewRoom("R1")
	if _, err := svc.Join(room, "a", "   "); err != nil {
		t.Fatalf("join error: %v", err)
	}
	if room.Players[0].Name != DefaultPlayerName {
		t.Fatalf("name = %q, want %q", room.Players[0].Name, DefaultPlayerName)
	}
}

func TestTickAttackOnTripleClear(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(5)))
	room := newPlayingRoom(t, svc)
	a, b := room.Players[0], room.Players[1]

	for row := domain.Height - 3; row < domain.Height; row++ {
		fillRowExcept(&a.Grid, row, 0)
	}
	a.Active = verticalI()
	a.Active.X, a.Active.Y = 0, domain.Height-4
	b.Grid[10][3] = "#123123"

	evs := svc.Tick(room)

	if a.Lines != 3 || a.Score != 500 {
		t.Fatalf("attacker lines/score = %d/%d, want 3/500", a.Lines, a.Score)
	}
	if b.Grid[9][3] != "#123123" {
		t.Fatalf("opponent grid should shift up by one garbage row")
	}
	for x := 0; x < domain.Width; x++ {
		if b.Grid[domain.Height-1][x] != domain.GarbageColor {
			t.Fatalf("opponent bottom row should be garbage")
		}
		if b.Grid[domain.Height-2][x] == domain.GarbageColor {
			t.Fatalf("exactly one garbage row expected")
		}
	}
	if len(evs) != 1 || evs[0].Kind != EventGameUpdate {
		t.Fatalf("tick events = %v", evs)
	}
}

func TestTickSingleClearSendsNoAttack(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(5)))
	room := newPlayingRoom(t, svc)
	a, b := room.Players[0], room.Players[1]

	a.Active = domain.NewPiece(domain.Catalog[1]) // O
	a.Active.Y = domain.Height - 2
	fillRowExcept(&a.Grid, domain.Height-1, 4, 5)

	svc.Tick(room)

	if a.Lines != 1 {
		t.Fatalf("lines = %d, want 1", a.Lines)
	}
	if b.Grid != domain.EmptyGrid() {
		t.Fatalf("single clear must not attack")
	}
}

func TestTickSkipsTerminalOpponentForGarbage(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(5)))
	room := newPlayingRoom(t, svc)
	a, b := room.Players[0], room.Players[1]

	a.Active = domain.NewPiece(domain.Catalog[1])
	a.Active.Y = domain.Height - 2
	fillRowExcept(&a.Grid, domain.Height-1, 4, 5)
	fillRowExcept(&a.Grid, domain.Height-2, 4, 5)
	b.Terminal = true

	svc.Tick(room)

	if b.Grid != domain.EmptyGrid() {
		t.Fatalf("terminal opponent must not receive garbage")
	}
}

func TestTickFinishesWhenAllTerminal(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(5)))
	room := newPlayingRoom(t, svc)
	a, b := room.Players[0], room.Players[1]
	a.Score, b.Score = 10, 20
	a.Terminal = true
	b.Terminal = true

	evs := svc.Tick(room)

	if room.Phase != domain.PhaseFinished {
		t.Fatalf("phase = %s, want finished", room.Phase)
	}
	if len(evs) != 1 || evs[0].Kind != EventGameOver {
		t.Fatalf("events = %v, want single gameOver", evs)
	}
	players := evs[0].Payload.(GameOverPayload).Players
	if players[0].ID != "b" || players[1].ID != "a" {
		t.Fatalf("standings = %+v, want b before a", players)
	}
	if svc.Tick(room) != nil {
		t.Fatalf("finished room must not tick")
	}
}

func TestActionsIgnoredOutsidePlay(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(5)))
	room := domain.NewRoom("R1")
	if _, err := svc.Join(room, "a", "Alice"); err != nil {
		t.Fatalf("join error: %v", err)
	}
	if evs := svc.MovePiece(room, "a", domain.DirLeft); evs != nil {
		t.Fatalf("move in waiting room should be ignored")
	}

	room = newPlayingRoom(t, svc)
	if evs := svc.RotatePiece(room, "nobody"); evs != nil {
		t.Fatalf("unknown player should be ignored")
	}
	if evs := svc.MovePiece(room, "a", domain.DirLeft); len(evs) != 1 || evs[0].Kind != EventGameUpdate {
		t.Fatalf("valid move should produce a game update, got %v", evs)
	}
}

func TestLeave(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(5)))
	room := newPlayingRoom(t, svc)

	if evs := svc.Leave(room, "zzz"); evs != nil {
		t.Fatalf("unknown leave should be a no-op")
	}
	evs := svc.Leave(room, "a")
	if len(evs) != 1 || evs[0].Kind != EventPlayerLeft || evs[0].Payload.(PlayerLeftPayload).ID != "a" {
		t.Fatalf("leave events = %v", evs)
	}
	if room.Phase != domain.PhasePlaying {
		t.Fatalf("room should keep playing after a departure")
	}
	if evs := svc.Leave(room, "b"); evs != nil {
		t.Fatalf("last leave should not notify anyone")
	}
}

func TestGameUpdateIsDetached(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(5)))
	room := newPlayingRoom(t, svc)

	ev := GameUpdate(room)
	room.Players[0].Active.Y = 7
	room.Players[0].Grid[0][0] = "#000001"

	snap := ev.Payload.(GameUpdatePayload).Players[0]
	if snap.ActivePiece.Y == 7 || snap.Grid[0][0] != domain.Empty {
		t.Fatalf("snapshot must not alias live state")
	}
}

func TestForkKeepsClockAndSplitsRandomness(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(42)))
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	fork := svc.Fork()
	if fork == svc || fork.rng == svc.rng {
		t.Fatalf("fork shares state with its parent")
	}
	if !fork.now().Equal(fixed) {
		t.Fatalf("fork clock = %v, want %v", fork.now(), fixed)
	}

	room := newPlayingRoom(t, fork)
	if !room.StartedAt.Equal(fixed) {
		t.Fatalf("StartedAt = %v, want %v", room.StartedAt, fixed)
	}
}
