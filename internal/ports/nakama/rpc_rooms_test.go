package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"tetrisduel/internal/app"
	"tetrisduel/internal/domain"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// mockNakama overrides the match calls the room RPCs use. Any other call
// panics on the nil embedded module.
type mockNakama struct {
	runtime.NakamaModule
	matches     []*api.Match
	listErr     error
	lastQuery   string
	created     []map[string]interface{}
	nextMatchID string
}

func (m *mockNakama) MatchList(ctx context.Context, limit int, authoritative bool, label string, minSize, maxSize *int, query string) ([]*api.Match, error) {
	m.lastQuery = query
	return m.matches, m.listErr
}

func (m *mockNakama) MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error) {
	if module != MatchNameTetris {
		return "", errors.New("unknown module " + module)
	}
	m.created = append(m.created, params)
	return m.nextMatchID, nil
}

func matchFor(t *testing.T, id string, room *domain.Room) *api.Match {
	t.Helper()
	label, err := encodeLabel(room)
	if err != nil {
		t.Fatalf("encodeLabel: %v", err)
	}
	return &api.Match{MatchId: id, Authoritative: true, Label: wrapperspb.String(label), Size: int32(len(room.Players))}
}

func roomWith(id string, phase domain.Phase, players ...string) *domain.Room {
	r := domain.NewRoom(id)
	for _, p := range players {
		r.Add(domain.NewPlayer(p, p))
	}
	r.Phase = phase
	return r
}

func errorCode(t *testing.T, err error) int {
	t.Helper()
	var rtErr *runtime.Error
	if !errors.As(err, &rtErr) {
		t.Fatalf("expected *runtime.Error, got %T (%v)", err, err)
	}
	return rtErr.Code
}

func TestRpcJoinRoom(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		matches  []*api.Match
		wantID   string
		wantNew  bool
		wantCode int
	}{
		{
			name:    "CreatesWhenAbsent",
			payload: `{"room_id":"R1"}`,
			matches: []*api.Match{matchFor(t, "m-other", roomWith("R2", domain.PhaseWaiting, "a"))},
			wantID:  "m-new",
			wantNew: true,
		},
		{
			name:    "JoinsWaitingRoom",
			payload: `{"room_id":" R1 "}`,
			matches: []*api.Match{matchFor(t, "m-1", roomWith("R1", domain.PhaseWaiting, "a"))},
			wantID:  "m-1",
		},
		{
			name:     "RejectsFullRoom",
			payload:  `{"room_id":"R1"}`,
			matches:  []*api.Match{matchFor(t, "m-1", roomWith("R1", domain.PhasePlaying, "a", "b"))},
			wantCode: codeResourceExhausted,
		},
		{
			name:     "RejectsInProgressRoom",
			payload:  `{"room_id":"R1"}`,
			matches:  []*api.Match{matchFor(t, "m-1", roomWith("R1", domain.PhasePlaying, "a"))},
			wantCode: codeFailedPrecondition,
		},
		{
			name:     "RejectsFinishedRoom",
			payload:  `{"room_id":"R1"}`,
			matches:  []*api.Match{matchFor(t, "m-1", roomWith("R1", domain.PhaseFinished, "a"))},
			wantCode: codeFailedPrecondition,
		},
		{
			name:     "RejectsEmptyRoomID",
			payload:  `{"room_id":"   "}`,
			wantCode: codeInvalidArgument,
		},
		{
			name:     "RejectsMalformedPayload",
			payload:  `room`,
			wantCode: codeInvalidArgument,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			nk := &mockNakama{matches: test.matches, nextMatchID: "m-new"}
			out, err := rpcJoinRoom(context.Background(), noopLogger{}, nil, nk, test.payload)
			if test.wantCode != 0 {
				if got := errorCode(t, err); got != test.wantCode {
					t.Fatalf("code = %d, want %d", got, test.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("rpcJoinRoom: %v", err)
			}

			var resp JoinRoomResponse
			if err := json.Unmarshal([]byte(out), &resp); err != nil {
				t.Fatalf("unmarshal response: %v", err)
			}
			if resp.MatchID != test.wantID || resp.IsNew != test.wantNew {
				t.Fatalf("response = %+v, want id %s new %t", resp, test.wantID, test.wantNew)
			}
			if test.wantNew {
				if len(nk.created) != 1 || nk.created[0][ParamRoomID] != "R1" {
					t.Fatalf("MatchCreate params = %v", nk.created)
				}
			}
		})
	}
}

func TestRpcJoinRoomListError(t *testing.T) {
	nk := &mockNakama{listErr: errors.New("boom")}
	_, err := rpcJoinRoom(context.Background(), noopLogger{}, nil, nk, `{"room_id":"R1"}`)
	if got := errorCode(t, err); got != codeInternal {
		t.Fatalf("code = %d, want %d", got, codeInternal)
	}
}

func TestRpcListRooms(t *testing.T) {
	nk := &mockNakama{matches: []*api.Match{
		matchFor(t, "m-2", roomWith("zeta", domain.PhasePlaying, "a", "b")),
		{MatchId: "m-bad", Label: wrapperspb.String("not json")},
		matchFor(t, "m-1", roomWith("alpha", domain.PhaseWaiting, "c")),
	}}

	out, err := rpcListRooms(context.Background(), noopLogger{}, nil, nk, "")
	if err != nil {
		t.Fatalf("rpcListRooms: %v", err)
	}
	if nk.lastQuery != "+label.game:"+domain.GameName {
		t.Fatalf("query = %q", nk.lastQuery)
	}

	var rooms []app.RoomInfo
	if err := json.Unmarshal([]byte(out), &rooms); err != nil {
		t.Fatalf("unmarshal rooms: %v", err)
	}
	want := []app.RoomInfo{
		{ID: "alpha", PlayerCount: 1, State: domain.PhaseWaiting},
		{ID: "zeta", PlayerCount: 2, State: domain.PhasePlaying},
	}
	if len(rooms) != len(want) || rooms[0] != want[0] || rooms[1] != want[1] {
		t.Fatalf("rooms = %+v, want %+v", rooms, want)
	}
}

func TestLabelRoundTrip(t *testing.T) {
	room := roomWith("R1", domain.PhaseWaiting, "a")
	raw, err := encodeLabel(room)
	if err != nil {
		t.Fatalf("encodeLabel: %v", err)
	}
	got, err := decodeLabel(raw)
	if err != nil {
		t.Fatalf("decodeLabel: %v", err)
	}
	if got != domain.ComputeLabel(room) {
		t.Fatalf("label = %+v, want %+v", got, domain.ComputeLabel(room))
	}
}
