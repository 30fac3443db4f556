package domain

import (
	"sort"
	"time"
)

// Phase represents the lifecycle stage of a room.
type Phase string

const (
	// PhaseWaiting means the room has fewer than two players and no game.
	PhaseWaiting Phase = "waiting"
	// PhasePlaying means both grids are being simulated.
	PhasePlaying Phase = "playing"
	// PhaseFinished means every player topped out. It is terminal.
	PhaseFinished Phase = "finished"
)

// MaxPlayers is the room capacity.
const MaxPlayers = 2

// Room pairs up to two players under a player-chosen key.
type Room struct {
	ID        string
	Players   []*Player // join order
	Phase     Phase
	StartedAt time.Time
}

// NewRoom returns an empty waiting room.
func NewRoom(id string) *Room {
	return &Room{ID: id, Phase: PhaseWaiting}
}

// Full reports whether the room holds MaxPlayers players.
func (r *Room) Full() bool {
	return len(r.Players) >= MaxPlayers
}

// Player returns the member with the given id, or nil.
func (r *Room) Player(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Add appends a player in join order.
func (r *Room) Add(p *Player) {
	r.Players = append(r.Players, p)
}

// Remove drops the member with the given id and reports whether it was found.
func (r *Room) Remove(id string) bool {
	for i, p := range r.Players {
		if p.ID == id {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return true
		}
	}
	return false
}

// Empty reports whether no players remain.
func (r *Room) Empty() bool {
	return len(r.Players) == 0
}

// AllTerminal reports whether every member has topped out. An empty room is
// not considered finished.
func (r *Room) AllTerminal() bool {
	if len(r.Players) == 0 {
		return false
	}
	for _, p := range r.Players {
		if !p.Terminal {
			return false
		}
	}
	return true
}

// ReferenceLevel is the level that drives the shared tick cadence: the
// first member's level, or 1 for an empty room.
func (r *Room) ReferenceLevel() int {
	if len(r.Players) == 0 {
		return 1
	}
	return r.Players[0].Level
}

// MemberIDs returns player ids in join order.
func (r *Room) MemberIDs() []string {
	ids := make([]string, len(r.Players))
	for i, p := range r.Players {
		ids[i] = p.ID
	}
	return ids
}

// Standings returns the members ordered by score, highest first. Ties keep
// join order.
func (r *Room) Standings() []*Player {
	out := append([]*Player(nil), r.Players...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
