package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/heroiclabs/nakama-common/rtapi"
	"github.com/heroiclabs/nakama-go/v2"
)

const (
	ServerKey = "defaultkey"
	Host      = "127.0.0.1"
	Port      = 7350
)

// Op codes of the tetris_duel match handler.
const (
	OpMovePiece   int64 = 1
	OpRotatePiece int64 = 2
	OpHardDrop    int64 = 3

	OpRoomUpdate int64 = 101
	OpGameStart  int64 = 102
	OpGameUpdate int64 = 103
	OpGameOver   int64 = 104
	OpPlayerLeft int64 = 105
	OpError      int64 = 106
)

// requireNakama skips unless a live server is expected.
func requireNakama(t *testing.T) {
	t.Helper()
	if os.Getenv("TETRIS_NAKAMA_INTEGRATION") != "1" {
		t.Skip("set TETRIS_NAKAMA_INTEGRATION=1 to run against a local Nakama")
	}
}

type TestClient struct {
	Client  *nakama.Client
	Session *nakama.Session
	Socket  *nakama.Socket
	UserID  string

	mu      sync.Mutex
	waiters map[int64]chan *rtapi.MatchData
}

func NewTestClient(t *testing.T) *TestClient {
	client := nakama.NewClient(ServerKey, Host, Port, false)

	deviceID := fmt.Sprintf("tetris_device_%d", time.Now().UnixNano())
	session, err := client.AuthenticateDevice(context.Background(), deviceID, true, "")
	if err != nil {
		t.Fatalf("Failed to authenticate: %v", err)
	}

	socket := client.NewSocket()
	if err := socket.Connect(context.Background(), session, true); err != nil {
		t.Fatalf("Failed to connect socket: %v", err)
	}

	tc := &TestClient{
		Client:  client,
		Session: session,
		Socket:  socket,
		UserID:  session.UserId,
		waiters: make(map[int64]chan *rtapi.MatchData),
	}
	socket.OnMatchData = tc.dispatch
	return tc
}

func (tc *TestClient) Close() {
	if tc.Socket != nil {
		tc.Socket.Close()
	}
}

func (tc *TestClient) dispatch(data *rtapi.MatchData) {
	tc.mu.Lock()
	ch, ok := tc.waiters[data.OpCode]
	tc.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- data:
	default:
	}
}

// Expect registers interest in an op code. Call it before the action that
// triggers the message.
func (tc *TestClient) Expect(opCode int64) chan *rtapi.MatchData {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	ch, ok := tc.waiters[opCode]
	if !ok {
		ch = make(chan *rtapi.MatchData, 64)
		tc.waiters[opCode] = ch
	}
	return ch
}

// Wait blocks until a message with opCode arrives.
func (tc *TestClient) Wait(t *testing.T, opCode int64, timeout time.Duration) *rtapi.MatchData {
	t.Helper()
	select {
	case data := <-tc.Expect(opCode):
		return data
	case <-time.After(timeout):
		t.Fatalf("Timeout waiting for OpCode %d", opCode)
		return nil
	}
}

// JoinRoom calls the join_room RPC and joins the returned match with a display name.
func (tc *TestClient) JoinRoom(t *testing.T, roomID, name string) string {
	payload, _ := json.Marshal(map[string]string{"room_id": roomID})
	rpc, err := tc.Client.RpcFunc(context.Background(), tc.Session, "join_room", string(payload))
	if err != nil {
		t.Fatalf("RPC join_room failed: %v", err)
	}

	var resp struct {
		MatchID string `json:"match_id"`
		IsNew   bool   `json:"is_new"`
	}
	if err := json.Unmarshal([]byte(rpc.Payload), &resp); err != nil || resp.MatchID == "" {
		t.Fatalf("RPC join_room returned %q: %v", rpc.Payload, err)
	}

	if _, err := tc.Socket.JoinMatch(context.Background(), nil, resp.MatchID, map[string]string{"name": name}); err != nil {
		t.Fatalf("Failed to join match %s: %v", resp.MatchID, err)
	}
	return resp.MatchID
}
