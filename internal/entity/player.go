package entity

import "github.com/rocketscienceinc/gungi-backend/internal/gungi"

type Player struct {
	ID     string       `json:"id"`
	Side   gungi.Player `json:"side,omitempty"`
	GameID string       `json:"game_id,omitempty"`
}

// Release detaches the player from its game.
func (that *Player) Release() {
	that.Side = gungi.NoPlayer
	that.GameID = ""
}
