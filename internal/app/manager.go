package app

import (
	"sort"
	"strings"
	"sync"
	"time"

	"tetrisduel/internal/config"
	"tetrisduel/internal/domain"
	"tetrisduel/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// RoomInfo is the public listing entry for a room.
type RoomInfo struct {
	ID          string       `json:"id"`
	PlayerCount int          `json:"playerCount"`
	State       domain.Phase `json:"state"`
}

// SessionRef identifies a joined player.
type SessionRef struct {
	RoomID   string
	PlayerID string
}

type roomEntry struct {
	mu   sync.Mutex
	room *domain.Room
	svc  *Service // owned by the room, guarded by mu
	task roomTask
}

// Manager owns the room registry, pairs players, and drives each playing
// room's tick. Registry changes take mu; room state is guarded by the
// entry's own lock, always acquired after mu.
type Manager struct {
	mu       sync.RWMutex
	rooms    map[string]*roomEntry
	sessions map[string]string // connection id -> room id

	svc    *Service // seeds per-room services; used only under mu
	pub    ports.Publisher
	sched  Scheduler
	cfg    config.GameConfig
	logger runtime.Logger
}

// NewManager wires a Manager. A nil svc or sched falls back to defaults.
func NewManager(svc *Service, pub ports.Publisher, sched Scheduler, cfg config.GameConfig, logger runtime.Logger) *Manager {
	if svc == nil {
		svc = NewService(nil)
	}
	if sched == nil {
		sched = SystemScheduler
	}
	return &Manager{
		rooms:    make(map[string]*roomEntry),
		sessions: make(map[string]string),
		svc:      svc,
		pub:      pub,
		sched:    sched,
		cfg:      cfg,
		logger:   logger,
	}
}

// Join places the connection in the named room, creating it if absent.
// Failures are reported to the requester as an error event and returned.
func (m *Manager) Join(connID, roomID, name string) (SessionRef, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		m.publish(nil, []Event{ErrorEvent(connID, ErrEmptyRoomKey)})
		return SessionRef{}, ErrEmptyRoomKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.sessions[connID]; ok {
		m.logger.Warn("Join: connection %s already in room %s", connID, current)
		m.publish(nil, []Event{ErrorEvent(connID, ErrAlreadyJoined)})
		return SessionRef{}, ErrAlreadyJoined
	}

	entry, exists := m.rooms[roomID]
	if !exists {
		entry = &roomEntry{room: domain.NewRoom(roomID), svc: m.svc.Fork()}
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	events, err := entry.svc.Join(entry.room, connID, name)
	if err != nil {
		m.logger.Warn("Join: connection %s rejected from room %s: %v", connID, roomID, err)
		m.publish(nil, []Event{ErrorEvent(connID, err)})
		return SessionRef{}, err
	}

	if !exists {
		m.rooms[roomID] = entry
		m.logger.Info("Join: room %s created", roomID)
	}
	m.sessions[connID] = roomID
	m.publish(entry.room, events)

	if entry.room.Phase == domain.PhasePlaying {
		entry.task.armed = true
		m.schedule(roomID, entry, m.cfg.StartDelay())
		m.logger.Info("Join: room %s started with %d players", roomID, len(entry.room.Players))
	}
	return SessionRef{RoomID: roomID, PlayerID: connID}, nil
}

// Leave removes the connection from whichever room holds it. An emptied room
// is deleted and its tick cancelled. Unknown connections are ignored.
func (m *Manager) Leave(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	roomID, ok := m.sessions[connID]
	if !ok {
		return
	}
	delete(m.sessions, connID)

	entry := m.rooms[roomID]
	if entry == nil {
		return
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	events := entry.svc.Leave(entry.room, connID)
	if entry.room.Empty() {
		entry.task.disarm()
		delete(m.rooms, roomID)
		m.logger.Info("Leave: room %s deleted", roomID)
		return
	}
	m.logger.Debug("Leave: connection %s left room %s", connID, roomID)
	m.publish(entry.room, events)
}

// MovePiece applies a move request from a connection.
func (m *Manager) MovePiece(connID string, dir domain.Direction) {
	m.act(connID, func(svc *Service, room *domain.Room) []Event {
		return svc.MovePiece(room, connID, dir)
	})
}

// RotatePiece applies a rotate request from a connection.
func (m *Manager) RotatePiece(connID string) {
	m.act(connID, func(svc *Service, room *domain.Room) []Event {
		return svc.RotatePiece(room, connID)
	})
}

// HardDrop applies a hard drop request from a connection.
func (m *Manager) HardDrop(connID string) {
	m.act(connID, func(svc *Service, room *domain.Room) []Event {
		return svc.HardDrop(room, connID)
	})
}

// ListRooms returns a snapshot of the registry ordered by room id.
func (m *Manager) ListRooms() []RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]RoomInfo, 0, len(m.rooms))
	for _, entry := range m.rooms {
		entry.mu.Lock()
		out = append(out, RoomInfo{
			ID:          entry.room.ID,
			PlayerCount: len(entry.room.Players),
			State:       entry.room.Phase,
		})
		entry.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Shutdown cancels every pending tick. Rooms stay registered.
func (m *Manager) Shutdown() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, entry := range m.rooms {
		entry.mu.Lock()
		entry.task.disarm()
		entry.mu.Unlock()
	}
}

func (m *Manager) act(connID string, fn func(*Service, *domain.Room) []Event) {
	m.mu.RLock()
	entry := m.rooms[m.sessions[connID]]
	m.mu.RUnlock()
	if entry == nil {
		return
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	m.publish(entry.room, fn(entry.svc, entry.room))
}

func (m *Manager) schedule(roomID string, entry *roomEntry, d time.Duration) {
	entry.task.timer = m.sched.AfterFunc(d, func() { m.runTick(roomID, entry) })
}

// runTick executes one simulation step and re-arms the timer while the room
// is still playing.
func (m *Manager) runTick(roomID string, entry *roomEntry) {
	m.mu.RLock()
	current := m.rooms[roomID]
	m.mu.RUnlock()
	if current != entry {
		return
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if !entry.task.armed || entry.room.Phase != domain.PhasePlaying {
		return
	}

	m.publish(entry.room, entry.svc.Tick(entry.room))

	if entry.room.Phase == domain.PhaseFinished {
		entry.task.armed = false
		entry.task.timer = nil
		m.logger.Info("Tick: room %s finished", roomID)
		return
	}
	m.schedule(roomID, entry, m.cfg.TickInterval(entry.room.ReferenceLevel()))
}

// publish hands events to the transport. Broadcast events go to room members;
// room may be nil only for targeted events.
func (m *Manager) publish(room *domain.Room, events []Event) {
	for _, ev := range events {
		recipients := ev.Recipients
		if len(recipients) == 0 {
			if room == nil {
				continue
			}
			recipients = room.MemberIDs()
		}
		msg := ports.Message{Type: string(ev.Kind), Payload: ev.Payload}
		if err := m.pub.Publish(recipients, msg); err != nil {
			m.logger.Warn("publish %s: %v", ev.Kind, err)
		}
	}
}
