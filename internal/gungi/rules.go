package gungi

import "sort"

type reachKind uint8

const (
	// step reaches 1+tier squares along the direction.
	step reachKind = iota
	// slide runs until the edge or the first occupied column.
	slide
	// jump lands on the offset square whatever lies between.
	jump
)

// vector is expressed for Player1; dr is flipped for Player2.
type vector struct {
	dr, dc int
	kind   reachKind
}

var (
	orthogonal = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagonal   = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	allEight   = append(append([][2]int{}, orthogonal...), diagonal...)
)

func vectors(kind reachKind, dirs ...[2]int) []vector {
	out := make([]vector, 0, len(dirs))
	for _, d := range dirs {
		out = append(out, vector{dr: d[0], dc: d[1], kind: kind})
	}
	return out
}

func join(groups ...[]vector) []vector {
	var out []vector
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// patterns holds the geometry of every kind except Cannon, which has its own generator.
var patterns = [pieceTypeCount][]vector{
	Marshal:           vectors(step, allEight...),
	General:           join(vectors(slide, orthogonal...), vectors(step, diagonal...)),
	LieutenantGeneral: join(vectors(slide, diagonal...), vectors(step, orthogonal...)),
	MajorGeneral:      vectors(step, [2]int{1, 0}, [2]int{1, 1}, [2]int{1, -1}, [2]int{0, 1}, [2]int{0, -1}, [2]int{-1, 0}),
	Samurai:           vectors(step, [2]int{1, 0}, [2]int{1, 1}, [2]int{1, -1}, [2]int{-1, 1}, [2]int{-1, -1}),
	Lancer:            join(vectors(slide, [2]int{1, 0}), vectors(step, [2]int{-1, 0})),
	Knight:            vectors(jump, [2]int{1, 2}, [2]int{1, -2}, [2]int{-1, 2}, [2]int{-1, -2}, [2]int{2, 1}, [2]int{2, -1}, [2]int{-2, 1}, [2]int{-2, -1}),
	Spy:               vectors(step, diagonal...),
	Fortress:          vectors(step, orthogonal...),
	Pawn:              vectors(step, [2]int{1, 0}),
	Bow:               vectors(jump, [2]int{2, 0}, [2]int{-2, 0}, [2]int{0, 2}, [2]int{0, -2}, [2]int{2, 2}, [2]int{2, -2}, [2]int{-2, 2}, [2]int{-2, -2}),
	Musketeer:         join(vectors(slide, [2]int{1, 0}), vectors(step, [2]int{1, 1}, [2]int{1, -1})),
	Captain:           vectors(step, allEight...),
}

// LegalDestinations enumerates every cell the piece at from may move to, ignoring
// turn order. Only the top piece of a column moves; a buried piece gets nothing.
// The result is sorted by row, column, tier.
func LegalDestinations(board *Board, from Coord) []Coord {
	if !from.InBounds() {
		return []Coord{}
	}
	mover := board.AtCoord(from)
	if mover.IsEmpty() || from.Tier != board.Height(from.Row, from.Col)-1 {
		return []Coord{}
	}

	gen := &generator{board: board, mover: mover, from: from}
	switch geometry := gen.geometry(); geometry {
	case Cannon:
		gen.cannon()
	default:
		gen.pattern(patterns[geometry])
	}

	if len(gen.out) == 0 {
		return []Coord{}
	}

	sort.Slice(gen.out, func(i, j int) bool {
		a, b := gen.out[i], gen.out[j]
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		if a.Col != b.Col {
			return a.Col < b.Col
		}
		return a.Tier < b.Tier
	})
	return gen.out
}

// IsLegal reports whether to is among the legal destinations of the piece at from.
func IsLegal(board *Board, from, to Coord) bool {
	for _, dest := range LegalDestinations(board, from) {
		if dest == to {
			return true
		}
	}
	return false
}

type generator struct {
	board *Board
	mover Piece
	from  Coord

	seen [cellCount]bool
	out  []Coord
}

// geometry picks the movement table. A stacked Captain borrows the geometry of the
// piece directly beneath it; stacking restrictions still follow the Captain itself.
func (that *generator) geometry() PieceType {
	if that.mover.Type != Captain || that.from.Tier == 0 {
		return that.mover.Type
	}
	beneath := that.board.At(that.from.Row, that.from.Col, that.from.Tier-1)
	return beneath.Type
}

func (that *generator) pattern(vs []vector) {
	fwd := that.mover.Player.forward()
	reach := 1 + that.from.Tier

	for _, v := range vs {
		dr := v.dr * fwd

		switch v.kind {
		case jump:
			that.land(that.from.Row+dr, that.from.Col+v.dc)
		case step, slide:
			limit := reach
			if v.kind == slide {
				limit = Rows
			}
			for i := 1; i <= limit; i++ {
				row, col := that.from.Row+i*dr, that.from.Col+i*v.dc
				if !onBoard(row, col) {
					break
				}
				that.land(row, col)
				if that.board.Height(row, col) > 0 {
					break
				}
			}
		}
	}
}

// cannon moves orthogonally onto empty squares and captures by jumping exactly one
// occupied column.
func (that *generator) cannon() {
	for _, d := range orthogonal {
		screened := false
		row, col := that.from.Row+d[0], that.from.Col+d[1]
		for ; onBoard(row, col); row, col = row+d[0], col+d[1] {
			height := that.board.Height(row, col)
			if !screened {
				if height == 0 {
					that.add(Coord{Row: row, Col: col, Tier: 0})
					continue
				}
				screened = true
				continue
			}
			if height == 0 {
				continue
			}
			if that.canCapture(row, col) {
				that.add(Coord{Row: row, Col: col, Tier: height - 1})
			}
			break
		}
	}
}

// land adds the cells reachable at a column: tier 0 when empty, otherwise a capture of
// the top piece and/or a stack on top of it.
func (that *generator) land(row, col int) {
	if !onBoard(row, col) {
		return
	}
	height := that.board.Height(row, col)
	if height == 0 {
		that.add(Coord{Row: row, Col: col, Tier: 0})
		return
	}
	if that.canCapture(row, col) {
		that.add(Coord{Row: row, Col: col, Tier: height - 1})
	}
	if that.canStack(row, col) {
		that.add(Coord{Row: row, Col: col, Tier: height})
	}
}

// canCapture: the top piece must be an enemy no higher than the mover. The Spy ignores height.
func (that *generator) canCapture(row, col int) bool {
	top, tier, ok := that.board.Top(row, col)
	if !ok || top.Player == that.mover.Player {
		return false
	}
	return tier <= that.from.Tier || that.mover.Type == Spy
}

// canStack: at most one tier above the mover, never on a Marshal, never a Fortress or Cannon.
func (that *generator) canStack(row, col int) bool {
	if that.mover.Type == Fortress || that.mover.Type == Cannon {
		return false
	}
	top, _, ok := that.board.Top(row, col)
	if !ok || top.Type == Marshal {
		return false
	}
	height := that.board.Height(row, col)
	return height < Tiers && height <= that.from.Tier+1
}

func (that *generator) add(c Coord) {
	idx := index(c.Row, c.Col, c.Tier)
	if that.seen[idx] {
		return
	}
	that.seen[idx] = true
	that.out = append(that.out, c)
}
