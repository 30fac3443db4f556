package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"tetrisduel/internal/app"
	"tetrisduel/internal/domain"
	"tetrisduel/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/heroiclabs/nakama-common/runtime"
)

// Rooms is the room manager surface the transport drives.
type Rooms interface {
	Join(connID, roomID, name string) (app.SessionRef, error)
	Leave(connID string)
	MovePiece(connID string, dir domain.Direction)
	RotatePiece(connID string)
	HardDrop(connID string)
	ListRooms() []app.RoomInfo
}

// Server adapts websocket connections to room operations.
type Server struct {
	hub      *Hub
	rooms    Rooms
	logger   runtime.Logger
	upgrader websocket.Upgrader
}

// NewServer builds a Server. hub must be the Publisher the rooms publish to.
func NewServer(hub *Hub, rooms Rooms, logger runtime.Logger) *Server {
	return &Server{
		hub:    hub,
		rooms:  rooms,
		logger: logger,
		upgrader: websocket.Upgrader{
			Subprotocols: []string{SubprotocolJSON, SubprotocolMsgpack},
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Routes mounts the websocket endpoint, the room listing, and an optional
// static file directory.
func (s *Server) Routes(staticDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.handleWebSocket)
	r.Get("/api/rooms", s.handleListRooms)
	if staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(staticDir)))
	}
	return r
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.rooms.ListRooms()); err != nil {
		s.logger.Warn("ws: encode room list: %v", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws: upgrade from %s: %v", r.RemoteAddr, err)
		return
	}

	c := newClient(uuid.NewString(), conn, codecFor(conn.Subprotocol()))
	logger := s.logger.WithFields(map[string]interface{}{"conn": c.id, "remote": r.RemoteAddr})
	logger.Debug("ws: connected (subprotocol %q)", conn.Subprotocol())

	s.hub.register(c)
	go c.writePump(logger)
	c.enqueue(ports.Message{Type: TypeConnected, Payload: ConnectedPayload{ID: c.id}})

	s.readPump(c, logger)

	s.hub.unregister(c.id)
	s.rooms.Leave(c.id)
	logger.Debug("ws: disconnected")
}

func (s *Server) readPump(c *client, logger runtime.Logger) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws: read: %v", err)
			}
			return
		}

		var msg ClientMessage
		if err := c.codec.Decode(data, &msg); err != nil {
			logger.Warn("ws: malformed message: %v", err)
			continue
		}
		s.dispatch(c.id, msg, logger)
	}
}

func (s *Server) dispatch(connID string, msg ClientMessage, logger runtime.Logger) {
	switch msg.Type {
	case TypeJoinRoom:
		if ref, err := s.rooms.Join(connID, msg.RoomID, msg.PlayerName); err == nil {
			logger.Info("ws: joined room %s", ref.RoomID)
		}
	case TypeMovePiece:
		switch dir := domain.Direction(msg.Direction); dir {
		case domain.DirLeft, domain.DirRight, domain.DirDown:
			s.rooms.MovePiece(connID, dir)
		default:
			logger.Debug("ws: ignoring move direction %q", msg.Direction)
		}
	case TypeRotatePiece:
		s.rooms.RotatePiece(connID)
	case TypeHardDrop:
		s.rooms.HardDrop(connID)
	default:
		logger.Warn("ws: unknown message type %q", msg.Type)
	}
}
