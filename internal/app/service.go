package app

import (
	"errors"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"tetrisduel/internal/domain"
)

// Service contains room use-cases operating on domain state. It holds no
// locks; callers serialize access to each room.
type Service struct {
	rng *rand.Rand
	now func() time.Time
}

// NewService constructs a Service with provided rng or a time-seeded default.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng, now: time.Now}
}

// Fork returns a Service with its own rng seeded from s. A Service is not
// safe for concurrent use, so each room gets a fork. Callers serialize
// calls to Fork on s.
func (s *Service) Fork() *Service {
	return &Service{rng: rand.New(rand.NewSource(s.rng.Int63())), now: s.now}
}

var (
	ErrRoomFull       = errors.New("room is full")
	ErrRoomInProgress = errors.New("game already in progress")
	ErrRoomFinished   = errors.New("game in this room has finished")
	ErrAlreadyJoined  = errors.New("player already joined a room")
	ErrEmptyRoomKey   = errors.New("room id is required")
	ErrUnknownPlayer  = errors.New("player not found")
)

// CheckJoin reports whether a new player may enter the room.
func (s *Service) CheckJoin(room *domain.Room, playerID string) error {
	if room.Player(playerID) != nil {
		return ErrAlreadyJoined
	}
	if room.Full() {
		return ErrRoomFull
	}
	switch room.Phase {
	case domain.PhasePlaying:
		return ErrRoomInProgress
	case domain.PhaseFinished:
		return ErrRoomFinished
	}
	return nil
}

// Join adds a player to the room. The second join seeds both players'
// pieces and starts the game.
func (s *Service) Join(room *domain.Room, playerID, name string) ([]Event, error) {
	if err := s.CheckJoin(room, playerID); err != nil {
		return nil, err
	}

	room.Add(domain.NewPlayer(playerID, normalizeName(name)))
	events := []Event{RoomUpdate(room)}

	if room.Full() {
		for _, p := range room.Players {
			p.Spawn(s.rng)
		}
		room.Phase = domain.PhasePlaying
		room.StartedAt = s.now()
		events = append(events, Event{Kind: EventGameStart, Payload: GameStartPayload{}})
	}
	return events, nil
}

// Leave removes a player. Leaving a room the player is not in is a no-op.
// The room phase is left as is; an emptied room is the caller's to discard.
func (s *Service) Leave(room *domain.Room, playerID string) []Event {
	if !room.Remove(playerID) {
		return nil
	}
	if room.Empty() {
		return nil
	}
	return []Event{{Kind: EventPlayerLeft, Payload: PlayerLeftPayload{ID: playerID}}}
}

// Tick advances every live player by one gravity step, applies attacks, and
// reports either a state snapshot or the final standings.
func (s *Service) Tick(room *domain.Room) []Event {
	if room.Phase != domain.PhasePlaying {
		return nil
	}

	for _, p := range room.Players {
		if !p.CanAct() {
			continue
		}
		res := p.Step(s.rng)
		if res.Attack == 0 {
			continue
		}
		for _, opponent := range room.Players {
			if opponent != p {
				opponent.ReceiveGarbage(res.Attack)
			}
		}
	}

	if room.AllTerminal() {
		room.Phase = domain.PhaseFinished
		return []Event{GameOver(room)}
	}
	return []Event{GameUpdate(room)}
}

// MovePiece shifts the player's active piece. Invalid or blocked moves are
// silently dropped.
func (s *Service) MovePiece(room *domain.Room, playerID string, dir domain.Direction) []Event {
	return s.act(room, playerID, func(p *domain.Player) bool { return p.Move(dir) })
}

// RotatePiece turns the player's active piece if it fits.
func (s *Service) RotatePiece(room *domain.Room, playerID string) []Event {
	return s.act(room, playerID, (*domain.Player).Rotate)
}

// HardDrop drops the player's active piece to its resting row.
func (s *Service) HardDrop(room *domain.Room, playerID string) []Event {
	return s.act(room, playerID, func(p *domain.Player) bool { return p.HardDrop() > 0 })
}

func (s *Service) act(room *domain.Room, playerID string, fn func(*domain.Player) bool) []Event {
	if room.Phase != domain.PhasePlaying {
		return nil
	}
	p := room.Player(playerID)
	if p == nil || !fn(p) {
		return nil
	}
	return []Event{GameUpdate(room)}
}

func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultPlayerName
	}
	if utf8.RuneCountInString(name) > MaxPlayerNameLength {
		name = string([]rune(name)[:MaxPlayerNameLength])
	}
	return name
}
