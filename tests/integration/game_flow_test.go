package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

type roomUpdate struct {
	Players []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"players"`
	State string `json:"state"`
}

type gameUpdate struct {
	Players []struct {
		ID          string          `json:"id"`
		ActivePiece json.RawMessage `json:"activePiece"`
		Score       int             `json:"score"`
	} `json:"players"`
}

func TestDuelStartsAndStreamsUpdates(t *testing.T) {
	requireNakama(t)

	roomID := fmt.Sprintf("it-%d", time.Now().UnixNano())
	a := NewTestClient(t)
	defer a.Close()
	b := NewTestClient(t)
	defer b.Close()

	a.Expect(OpRoomUpdate)
	a.Expect(OpGameStart)
	a.Expect(OpGameUpdate)
	b.Expect(OpGameStart)

	matchID := a.JoinRoom(t, roomID, "Alice")
	first := a.Wait(t, OpRoomUpdate, 5*time.Second)
	var update roomUpdate
	if err := json.Unmarshal(first.Data, &update); err != nil {
		t.Fatalf("Failed to unmarshal roomUpdate: %v", err)
	}
	if len(update.Players) != 1 || update.Players[0].Name != "Alice" || update.State != "waiting" {
		t.Fatalf("Unexpected roomUpdate %+v", update)
	}

	if got := b.JoinRoom(t, roomID, "Bob"); got != matchID {
		t.Fatalf("Second client joined %s, want %s", got, matchID)
	}
	a.Wait(t, OpGameStart, 5*time.Second)
	b.Wait(t, OpGameStart, 5*time.Second)

	if _, err := a.Socket.SendMatchState(context.Background(), matchID, OpHardDrop, nil, nil); err != nil {
		t.Fatalf("Failed to send hardDrop: %v", err)
	}
	data := a.Wait(t, OpGameUpdate, 5*time.Second)
	var game gameUpdate
	if err := json.Unmarshal(data.Data, &game); err != nil {
		t.Fatalf("Failed to unmarshal gameUpdate: %v", err)
	}
	if len(game.Players) != 2 {
		t.Fatalf("Expected 2 players in gameUpdate, got %d", len(game.Players))
	}
}

func TestThirdPlayerIsRejected(t *testing.T) {
	requireNakama(t)

	roomID := fmt.Sprintf("it-full-%d", time.Now().UnixNano())
	clients := make([]*TestClient, 3)
	for i := range clients {
		clients[i] = NewTestClient(t)
		defer clients[i].Close()
	}

	clients[0].Expect(OpGameStart)
	clients[0].JoinRoom(t, roomID, "one")
	clients[1].JoinRoom(t, roomID, "two")
	clients[0].Wait(t, OpGameStart, 5*time.Second)

	payload, _ := json.Marshal(map[string]string{"room_id": roomID})
	if _, err := clients[2].Client.RpcFunc(context.Background(), clients[2].Session, "join_room", string(payload)); err == nil {
		t.Fatalf("Expected join_room to fail for a full room")
	}
}
