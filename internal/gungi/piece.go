package gungi

import (
	"errors"
	"fmt"
)

var ErrUnknownPieceType = errors.New("unknown piece type")

// Player is one of the two sides. Player1 moves first and starts on rows 0..2.
type Player int8

const (
	NoPlayer Player = 0
	Player1  Player = 1
	Player2  Player = 2
)

func (that Player) Valid() bool {
	return that == Player1 || that == Player2
}

func (that Player) Opponent() Player {
	switch that {
	case Player1:
		return Player2
	case Player2:
		return Player1
	default:
		return NoPlayer
	}
}

// forward is the row delta pointing at the opponent's home rows.
func (that Player) forward() int {
	if that == Player2 {
		return -1
	}
	return 1
}

type PieceType int8

const (
	PieceNone PieceType = iota
	Marshal
	General
	LieutenantGeneral
	MajorGeneral
	Samurai
	Lancer
	Knight
	Spy
	Fortress
	Pawn
	Cannon
	Bow
	Musketeer
	Captain

	pieceTypeCount
)

var pieceTypeNames = [pieceTypeCount]string{
	PieceNone:         "",
	Marshal:           "marshal",
	General:           "general",
	LieutenantGeneral: "lieutenant_general",
	MajorGeneral:      "major_general",
	Samurai:           "samurai",
	Lancer:            "lancer",
	Knight:            "knight",
	Spy:               "spy",
	Fortress:          "fortress",
	Pawn:              "pawn",
	Cannon:            "cannon",
	Bow:               "bow",
	Musketeer:         "musketeer",
	Captain:           "captain",
}

// PieceTypes lists every playable kind in declaration order.
func PieceTypes() []PieceType {
	types := make([]PieceType, 0, pieceTypeCount-1)
	for pt := Marshal; pt < pieceTypeCount; pt++ {
		types = append(types, pt)
	}
	return types
}

func ParsePieceType(name string) (PieceType, error) {
	for pt, n := range pieceTypeNames {
		if n == name {
			return PieceType(pt), nil
		}
	}
	return PieceNone, fmt.Errorf("%w: %q", ErrUnknownPieceType, name)
}

func (that PieceType) Valid() bool {
	return that > PieceNone && that < pieceTypeCount
}

func (that PieceType) String() string {
	if that < PieceNone || that >= pieceTypeCount {
		return fmt.Sprintf("PieceType(%d)", int8(that))
	}
	return pieceTypeNames[that]
}

func (that PieceType) MarshalText() ([]byte, error) {
	if that < PieceNone || that >= pieceTypeCount {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPieceType, int8(that))
	}
	return []byte(pieceTypeNames[that]), nil
}

func (that *PieceType) UnmarshalText(text []byte) error {
	pt, err := ParsePieceType(string(text))
	if err != nil {
		return err
	}
	*that = pt
	return nil
}

// Piece is an immutable value; the zero Piece is an empty cell.
type Piece struct {
	Type   PieceType `json:"type"`
	Player Player    `json:"player"`
}

func (that Piece) IsEmpty() bool {
	return that.Type == PieceNone
}

func (that Piece) String() string {
	if that.IsEmpty() {
		return "empty"
	}
	return fmt.Sprintf("%s(p%d)", that.Type, that.Player)
}
