package domain

// GameName tags advertised rooms so listings can filter on it.
const GameName = "tetrisduel"

// LabelPayload produces the values needed for room advertisement.
type LabelPayload struct {
	Open        bool   `json:"open"`
	Game        string `json:"game"`
	Room        string `json:"room"`
	State       string `json:"state"`
	PlayerCount int    `json:"players"`
}

// ComputeLabel derives the advertised label from room state.
func ComputeLabel(r *Room) LabelPayload {
	return LabelPayload{
		Open:        r.Phase == PhaseWaiting && !r.Full(),
		Game:        GameName,
		Room:        r.ID,
		State:       string(r.Phase),
		PlayerCount: len(r.Players),
	}
}
