package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"tetrisduel/internal/app"
	"tetrisduel/internal/config"
	"tetrisduel/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchState holds the authoritative runtime state for one room.
type MatchState struct {
	Room      *domain.Room                `json:"-"`
	Presences map[string]runtime.Presence `json:"-"` // Map UserId -> Presence for targeted messaging
	App       *app.Service                `json:"-"`
	Config    config.GameConfig           `json:"config"`
	Tick      int64                       `json:"tick"`
	// UntilTick is the time left before the next gravity step while playing.
	UntilTick time.Duration `json:"until_tick"`

	names map[string]string // display names accepted in MatchJoinAttempt
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

type moveRequest struct {
	Direction string `json:"direction"`
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	if err := config.LoadGameConfig(ConfigPath); err != nil {
		logger.Warn("MatchInit: Could not load game config: %v", err)
	}
	cfg := config.GetGameConfig()
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		if err := cfg.ApplyEnv(env); err != nil {
			logger.Warn("MatchInit: Ignoring invalid env overrides: %v", err)
		}
	}

	roomID, _ := params[ParamRoomID].(string)
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		roomID, _ = ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	}

	state := &MatchState{
		Room:      domain.NewRoom(roomID),
		Presences: make(map[string]runtime.Presence),
		App:       app.NewService(nil),
		Config:    cfg,
		names:     make(map[string]string),
	}

	label, err := encodeLabel(state.Room)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	logger.Info("MatchInit: Room %s created.", roomID)
	return state, TickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	if err := matchState.App.CheckJoin(matchState.Room, presence.GetUserId()); err != nil {
		logger.Info("MatchJoinAttempt: Rejecting %s from room %s: %v", presence.GetUserId(), matchState.Room.ID, err)
		return matchState, false, err.Error()
	}

	name := presence.GetUsername()
	if v, ok := metadata[MetadataName]; ok && strings.TrimSpace(v) != "" {
		name = v
	}
	matchState.names[presence.GetUserId()] = name
	return matchState, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		name, ok := matchState.names[userID]
		if !ok {
			name = p.GetUsername()
		}
		delete(matchState.names, userID)

		matchState.Presences[userID] = p
		events, err := matchState.App.Join(matchState.Room, userID, name)
		if err != nil {
			// Two presences raced past MatchJoinAttempt for the last slot.
			logger.Warn("MatchJoin: User %s could not join room %s: %v", userID, matchState.Room.ID, err)
			mh.broadcastEvent(matchState, dispatcher, logger, app.ErrorEvent(userID, err))
			delete(matchState.Presences, userID)
			if err := dispatcher.MatchKick([]runtime.Presence{p}); err != nil {
				logger.Error("MatchJoin: Failed to kick %s: %v", userID, err)
			}
			continue
		}

		for _, ev := range events {
			if ev.Kind == app.EventGameStart {
				matchState.UntilTick = matchState.Config.StartDelay()
				logger.Info("MatchJoin: Room %s started.", matchState.Room.ID)
			}
			mh.broadcastEvent(matchState, dispatcher, logger, ev)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())
		for _, ev := range matchState.App.Leave(matchState.Room, p.GetUserId()) {
			mh.broadcastEvent(matchState, dispatcher, logger, ev)
		}
		logger.Debug("MatchLeave: User %s left room %s.", p.GetUserId(), matchState.Room.ID)
	}

	if matchState.Room.Empty() {
		logger.Info("MatchLeave: Room %s is empty, terminating.", matchState.Room.ID)
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpMovePiece:
			mh.handleMove(matchState, dispatcher, logger, msg)
		case OpRotatePiece:
			mh.broadcastEvents(matchState, dispatcher, logger, matchState.App.RotatePiece(matchState.Room, msg.GetUserId()))
		case OpHardDrop:
			mh.broadcastEvents(matchState, dispatcher, logger, matchState.App.HardDrop(matchState.Room, msg.GetUserId()))
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	mh.advance(matchState, dispatcher, logger, LoopInterval)
	return matchState
}

// advance accumulates elapsed loop time and runs a gravity step when the
// room's current interval has passed.
func (mh *matchHandler) advance(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, elapsed time.Duration) {
	if state.Room.Phase != domain.PhasePlaying {
		return
	}

	state.UntilTick -= elapsed
	if state.UntilTick > 0 {
		return
	}

	mh.broadcastEvents(state, dispatcher, logger, state.App.Tick(state.Room))
	if state.Room.Phase == domain.PhaseFinished {
		logger.Info("Room %s finished.", state.Room.ID)
		mh.updateLabel(state, dispatcher, logger)
		return
	}
	state.UntilTick = state.Config.TickInterval(state.Room.ReferenceLevel())
}

func (mh *matchHandler) handleMove(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	var req moveRequest
	if err := json.Unmarshal(msg.GetData(), &req); err != nil {
		logger.Warn("handleMove: Invalid payload from %s: %v", msg.GetUserId(), err)
		return
	}

	dir := domain.Direction(req.Direction)
	switch dir {
	case domain.DirLeft, domain.DirRight, domain.DirDown:
	default:
		logger.Debug("handleMove: Ignoring direction %q from %s", req.Direction, msg.GetUserId())
		return
	}
	mh.broadcastEvents(state, dispatcher, logger, state.App.MovePiece(state.Room, msg.GetUserId(), dir))
}

func (mh *matchHandler) broadcastEvents(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, ok := opCodeFor(ev.Kind)
	if !ok {
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	bytes, err := json.Marshal(ev.Payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	// Determine recipients (default to broadcast)
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		if len(recipients) == 0 {
			return
		}
	}

	if err := dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true); err != nil {
		logger.Error("Failed to broadcast %v: %v", ev.Kind, err)
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := encodeLabel(state.Room)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d grace seconds", graceSeconds)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
