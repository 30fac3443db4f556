package ws

// Inbound message types.
const (
	TypeJoinRoom    = "joinRoom"
	TypeMovePiece   = "movePiece"
	TypeRotatePiece = "rotatePiece"
	TypeHardDrop    = "hardDrop"
)

// TypeConnected is sent first on every connection.
const TypeConnected = "connected"

// ClientMessage is the inbound envelope. Fields beyond Type depend on it.
type ClientMessage struct {
	Type       string `json:"type"`
	RoomID     string `json:"roomId,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
	Direction  string `json:"direction,omitempty"`
}

// ConnectedPayload tells a client its connection id.
type ConnectedPayload struct {
	ID string `json:"id"`
}
