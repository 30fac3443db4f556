package nakama

import "time"

const (
	// RpcJoinRoom finds the match hosting a room id, creating it if needed.
	RpcJoinRoom = "join_room"
	// RpcListRooms lists every live room.
	RpcListRooms = "list_rooms"

	// MatchNameTetris is the authoritative match handler name registered with Nakama.
	MatchNameTetris = "tetris_duel"

	// ParamRoomID carries the room id from MatchCreate into MatchInit.
	ParamRoomID = "room_id"
	// MetadataName is the optional join metadata key overriding the username.
	MetadataName = "name"

	// ConfigPath is read once per process on the first MatchInit.
	ConfigPath = "data/game_config.json"
)

// The match loop runs at a fixed rate; gravity is accumulated against it.
const (
	TickRate     = 10
	LoopInterval = time.Second / TickRate
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpMovePiece   int64 = 1
	OpRotatePiece int64 = 2
	OpHardDrop    int64 = 3

	// Server -> Client events
	OpRoomUpdate int64 = 101
	OpGameStart  int64 = 102
	OpGameUpdate int64 = 103
	OpGameOver   int64 = 104
	OpPlayerLeft int64 = 105
	OpError      int64 = 106
)

// gRPC status codes used for RPC errors.
const (
	codeInvalidArgument    = 3
	codeResourceExhausted  = 8
	codeFailedPrecondition = 9
	codeInternal           = 13
)

const listLimit = 100
