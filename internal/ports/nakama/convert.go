package nakama

import (
	"fmt"

	"tetrisduel/internal/app"
	"tetrisduel/internal/domain"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// encodeLabel renders the room's advertised label as JSON for MatchLabelUpdate.
func encodeLabel(room *domain.Room) (string, error) {
	l := domain.ComputeLabel(room)
	s, err := structpb.NewStruct(map[string]interface{}{
		"open":    l.Open,
		"game":    l.Game,
		"room":    l.Room,
		"state":   l.State,
		"players": l.PlayerCount,
	})
	if err != nil {
		return "", err
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeLabel parses a label produced by encodeLabel.
func decodeLabel(raw string) (domain.LabelPayload, error) {
	var s structpb.Struct
	if err := protojson.Unmarshal([]byte(raw), &s); err != nil {
		return domain.LabelPayload{}, fmt.Errorf("decode label: %w", err)
	}
	f := s.GetFields()
	return domain.LabelPayload{
		Open:        f["open"].GetBoolValue(),
		Game:        f["game"].GetStringValue(),
		Room:        f["room"].GetStringValue(),
		State:       f["state"].GetStringValue(),
		PlayerCount: int(f["players"].GetNumberValue()),
	}, nil
}

// labelJoinError maps a closed room's label to the error a direct join would hit.
func labelJoinError(l domain.LabelPayload) error {
	if l.Open {
		return nil
	}
	if l.PlayerCount >= domain.MaxPlayers {
		return app.ErrRoomFull
	}
	switch domain.Phase(l.State) {
	case domain.PhasePlaying:
		return app.ErrRoomInProgress
	case domain.PhaseFinished:
		return app.ErrRoomFinished
	}
	return nil
}

func opCodeFor(kind app.EventKind) (int64, bool) {
	switch kind {
	case app.EventRoomUpdate:
		return OpRoomUpdate, true
	case app.EventGameStart:
		return OpGameStart, true
	case app.EventGameUpdate:
		return OpGameUpdate, true
	case app.EventGameOver:
		return OpGameOver, true
	case app.EventPlayerLeft:
		return OpPlayerLeft, true
	case app.EventError:
		return OpError, true
	}
	return 0, false
}
