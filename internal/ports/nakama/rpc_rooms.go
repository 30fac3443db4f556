package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"tetrisduel/internal/app"
	"tetrisduel/internal/domain"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// JoinRoomRequest is the join_room RPC payload.
type JoinRoomRequest struct {
	RoomID string `json:"room_id"`
}

// JoinRoomResponse is returned to clients with the match to join.
type JoinRoomResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcJoinRoom, rpcJoinRoom); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcListRooms, rpcListRooms)
}

func rpcJoinRoom(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req JoinRoomRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("invalid join_room payload", codeInvalidArgument)
	}
	roomID := strings.TrimSpace(req.RoomID)
	if roomID == "" {
		return "", runtime.NewError(app.ErrEmptyRoomKey.Error(), codeInvalidArgument)
	}

	matches, err := listTetrisMatches(ctx, nk)
	if err != nil {
		logger.Error("MatchList error: %v", err)
		return "", runtime.NewError("failed to list rooms", codeInternal)
	}

	for _, m := range matches {
		label, err := decodeLabel(m.GetLabel().GetValue())
		if err != nil {
			logger.Warn("join_room: Skipping match %s: %v", m.GetMatchId(), err)
			continue
		}
		if label.Room != roomID {
			continue
		}
		if err := labelJoinError(label); err != nil {
			return "", joinRoomError(err)
		}
		return encodeJoinResponse(JoinRoomResponse{MatchID: m.GetMatchId(), IsNew: false})
	}

	matchID, err := nk.MatchCreate(ctx, MatchNameTetris, map[string]interface{}{ParamRoomID: roomID})
	if err != nil {
		logger.Error("MatchCreate error: %v", err)
		return "", runtime.NewError("failed to create room", codeInternal)
	}
	logger.Info("join_room: Created match %s for room %s", matchID, roomID)
	return encodeJoinResponse(JoinRoomResponse{MatchID: matchID, IsNew: true})
}

func rpcListRooms(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	matches, err := listTetrisMatches(ctx, nk)
	if err != nil {
		logger.Error("MatchList error: %v", err)
		return "", runtime.NewError("failed to list rooms", codeInternal)
	}

	rooms := make([]app.RoomInfo, 0, len(matches))
	for _, m := range matches {
		label, err := decodeLabel(m.GetLabel().GetValue())
		if err != nil {
			logger.Warn("list_rooms: Skipping match %s: %v", m.GetMatchId(), err)
			continue
		}
		rooms = append(rooms, app.RoomInfo{
			ID:          label.Room,
			PlayerCount: label.PlayerCount,
			State:       domain.Phase(label.State),
		})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })

	b, err := json.Marshal(rooms)
	if err != nil {
		return "", runtime.NewError("failed to encode rooms", codeInternal)
	}
	return string(b), nil
}

func listTetrisMatches(ctx context.Context, nk runtime.NakamaModule) ([]*api.Match, error) {
	query := "+label.game:" + domain.GameName
	return nk.MatchList(ctx, listLimit, true, "", nil, nil, query)
}

func joinRoomError(err error) error {
	if errors.Is(err, app.ErrRoomFull) {
		return runtime.NewError(err.Error(), codeResourceExhausted)
	}
	return runtime.NewError(err.Error(), codeFailedPrecondition)
}

func encodeJoinResponse(resp JoinRoomResponse) (string, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return "", runtime.NewError("failed to encode response", codeInternal)
	}
	return string(b), nil
}
