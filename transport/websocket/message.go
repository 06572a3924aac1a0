package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/gungi-backend/internal/entity"
	"github.com/rocketscienceinc/gungi-backend/internal/gungi"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Player *entity.Player `json:"player,omitempty"`
	Game   *entity.Game   `json:"game,omitempty"`
	Move   *MovePayload   `json:"move,omitempty"`
	Moves  []gungi.Coord  `json:"moves,omitempty"`
	Error  string         `json:"error,omitempty"`
	// Reason is the rejection tag of a refused move.
	Reason string `json:"reason,omitempty"`
}

type MovePayload struct {
	PieceType gungi.PieceType `json:"piece_type"`
	From      gungi.Coord     `json:"from"`
	To        gungi.Coord     `json:"to"`
}
