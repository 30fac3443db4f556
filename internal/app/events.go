package app

import "tetrisduel/internal/domain"

// EventKind identifies outbound notifications; values double as wire type names.
type EventKind string

const (
	EventRoomUpdate EventKind = "roomUpdate"
	EventGameStart  EventKind = "gameStart"
	EventGameUpdate EventKind = "gameUpdate"
	EventGameOver   EventKind = "gameOver"
	EventPlayerLeft EventKind = "playerLeft"
	EventError      EventKind = "error"
)

// Event is an app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // connection ids; empty means every room member
}

// PlayerSummary names one room member.
type PlayerSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoomUpdatePayload carries the member list and phase after a join.
type RoomUpdatePayload struct {
	Players []PlayerSummary `json:"players"`
	State   domain.Phase    `json:"state"`
}

// GameStartPayload is empty; the event itself signals the start.
type GameStartPayload struct{}

// PlayerSnapshot is a detached copy of one player's state.
type PlayerSnapshot struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Grid        domain.Grid   `json:"grid"`
	ActivePiece *domain.Piece `json:"activePiece"`
	NextPiece   *domain.Piece `json:"nextPiece"`
	Score       int           `json:"score"`
	Level       int           `json:"level"`
	Lines       int           `json:"lines"`
	Terminal    bool          `json:"terminal"`
}

// GameUpdatePayload snapshots every member after a tick or action.
type GameUpdatePayload struct {
	Players []PlayerSnapshot `json:"players"`
}

// PlayerResult is one row of the final standings.
type PlayerResult struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Level int    `json:"level"`
	Lines int    `json:"lines"`
}

// GameOverPayload lists standings, best score first.
type GameOverPayload struct {
	Players []PlayerResult `json:"players"`
}

// PlayerLeftPayload names the departed connection.
type PlayerLeftPayload struct {
	ID string `json:"id"`
}

// ErrorPayload explains a rejected request.
type ErrorPayload struct {
	Message string `json:"message"`
}

// RoomUpdate builds the membership notification for a room.
func RoomUpdate(room *domain.Room) Event {
	players := make([]PlayerSummary, len(room.Players))
	for i, p := range room.Players {
		players[i] = PlayerSummary{ID: p.ID, Name: p.Name}
	}
	return Event{
		Kind:    EventRoomUpdate,
		Payload: RoomUpdatePayload{Players: players, State: room.Phase},
	}
}

// GameUpdate snapshots every member. Pieces are cloned so the payload stays
// valid after the simulation moves on.
func GameUpdate(room *domain.Room) Event {
	players := make([]PlayerSnapshot, len(room.Players))
	for i, p := range room.Players {
		players[i] = PlayerSnapshot{
			ID:          p.ID,
			Name:        p.Name,
			Grid:        p.Grid,
			ActivePiece: p.Active.Clone(),
			NextPiece:   p.Next.Clone(),
			Score:       p.Score,
			Level:       p.Level,
			Lines:       p.Lines,
			Terminal:    p.Terminal,
		}
	}
	return Event{Kind: EventGameUpdate, Payload: GameUpdatePayload{Players: players}}
}

// GameOver lists final standings, best score first.
func GameOver(room *domain.Room) Event {
	standings := room.Standings()
	players := make([]PlayerResult, len(standings))
	for i, p := range standings {
		players[i] = PlayerResult{ID: p.ID, Name: p.Name, Score: p.Score, Level: p.Level, Lines: p.Lines}
	}
	return Event{Kind: EventGameOver, Payload: GameOverPayload{Players: players}}
}

// ErrorEvent reports a failed request to a single connection.
func ErrorEvent(recipient string, err error) Event {
	return Event{
		Kind:       EventError,
		Payload:    ErrorPayload{Message: err.Error()},
		Recipients: []string{recipient},
	}
}
