package chess

// PseudoLegalMoves is the move mask of the piece on sq, ignoring king safety.
func (g *Game) PseudoLegalMoves(sq Square) Mask {
	if !sq.Valid() {
		return Mask{}
	}
	m, _ := g.moves(sq)
	return m
}

// moves dispatches on the piece on sq. For a pawn that can double push it
// also returns the square the pawn would skip.
func (g *Game) moves(sq Square) (Mask, optSquare) {
	p := g.board[sq]
	switch {
	case p.Is(King):
		return g.kingMoves(sq, p), noSquare
	case p.Is(Queen):
		return g.slide(sq, p, allDirs), noSquare
	case p.Is(Rook):
		return g.slide(sq, p, orthogonal), noSquare
	case p.Is(Bishop):
		return g.slide(sq, p, diagonal), noSquare
	case p.Is(Knight):
		return g.knightMoves(sq, p), noSquare
	case p.Is(Pawn):
		return g.pawnMoves(sq, p)
	}
	return Mask{}, noSquare
}

// attacks is the set of squares the piece on sq threatens.
func (g *Game) attacks(sq Square) Mask {
	p := g.board[sq]
	switch {
	case p.Is(King):
		return g.kingSteps(sq, p)
	case p.Is(Pawn):
		return g.pawnAttacks(sq, p)
	}
	m, _ := g.moves(sq)
	return m
}

func (g *Game) kingSteps(sq Square, p Piece) Mask {
	var m Mask
	for _, d := range allDirs {
		if g.geom.Distance(sq, d) == 0 {
			continue
		}
		to := step(sq, d, 1)
		if g.board[to].IsColor(p.Color()) {
			continue
		}
		m.Set(to)
	}
	return m
}

func (g *Game) kingMoves(sq Square, p Piece) Mask {
	m := g.kingSteps(sq, p)

	var attacked *Mask
	for _, c := range castles {
		if c.color != p.Color() || c.king != sq || !*g.castling.flag(c.side) {
			continue
		}
		if g.board[c.rook] != NewPiece(Rook, c.color) || !g.allEmpty(c.between) {
			continue
		}
		if attacked == nil {
			a := g.Attacked(c.color.Opponent())
			attacked = &a
		}
		if anyMarked(attacked, c.path) {
			continue
		}
		m.Set(c.kingTo)
	}
	return m
}

func (g *Game) allEmpty(squares []Square) bool {
	for _, sq := range squares {
		if !g.board[sq].Empty() {
			return false
		}
	}
	return true
}

func anyMarked(m *Mask, squares []Square) bool {
	for _, sq := range squares {
		if m.Has(sq) {
			return true
		}
	}
	return false
}

// slide casts rays along dirs. A ray ends on the first enemy piece
// (inclusive) or the first own piece (exclusive).
func (g *Game) slide(sq Square, p Piece, dirs []Direction) Mask {
	var m Mask
	own, enemy := p.Color(), p.Color().Opponent()
	for _, d := range dirs {
		for n := 1; n <= g.geom.Distance(sq, d); n++ {
			to := step(sq, d, n)
			target := g.board[to]
			if target.IsColor(own) {
				break
			}
			m.Set(to)
			if target.IsColor(enemy) {
				break
			}
		}
	}
	return m
}

// leap is one knight jump split into its vertical and horizontal legs.
type leap struct {
	vert  Direction
	v     int
	horiz Direction
	h     int
}

var knightLeaps = []leap{
	{North, 2, West, 1},
	{North, 2, East, 1},
	{North, 1, West, 2},
	{North, 1, East, 2},
	{South, 1, West, 2},
	{South, 1, East, 2},
	{South, 2, West, 1},
	{South, 2, East, 1},
}

func (g *Game) knightMoves(sq Square, p Piece) Mask {
	var m Mask
	for _, l := range knightLeaps {
		if g.geom.Distance(sq, l.vert) < l.v || g.geom.Distance(sq, l.horiz) < l.h {
			continue
		}
		to := step(step(sq, l.vert, l.v), l.horiz, l.h)
		if g.board[to].IsColor(p.Color()) {
			continue
		}
		m.Set(to)
	}
	return m
}

func pawnForward(c Color) Direction {
	if c == White {
		return North
	}
	return South
}

func pawnCaptures(c Color) [2]Direction {
	if c == White {
		return [2]Direction{NorthWest, NorthEast}
	}
	return [2]Direction{SouthWest, SouthEast}
}

func pawnStartRank(c Color) int {
	if c == White {
		return 6
	}
	return 1
}

func pawnLastRank(c Color) int {
	if c == White {
		return 0
	}
	return 7
}

func (g *Game) pawnMoves(sq Square, p Piece) (Mask, optSquare) {
	var m Mask
	skip := noSquare
	color := p.Color()
	fwd := pawnForward(color)

	if g.geom.Distance(sq, fwd) > 0 {
		one := step(sq, fwd, 1)
		if g.board[one].Empty() {
			m.Set(one)
			if sq.Rank() == pawnStartRank(color) && g.geom.Distance(sq, fwd) > 1 {
				two := step(sq, fwd, 2)
				if g.board[two].Empty() {
					m.Set(two)
					skip = someSquare(one)
				}
			}
		}
	}

	for _, d := range pawnCaptures(color) {
		if g.geom.Distance(sq, d) == 0 {
			continue
		}
		to := step(sq, d, 1)
		if g.board[to].IsColor(color.Opponent()) || (color == g.turn && g.board[to].Empty() && g.enPassant.is(to)) {
			m.Set(to)
		}
	}
	return m, skip
}

// pawnAttacks marks both forward diagonals whatever stands on them. It feeds
// the attack aggregator only and never decides where a pawn may move.
func (g *Game) pawnAttacks(sq Square, p Piece) Mask {
	var m Mask
	for _, d := range pawnCaptures(p.Color()) {
		if g.geom.Distance(sq, d) > 0 {
			m.Set(step(sq, d, 1))
		}
	}
	return m
}
