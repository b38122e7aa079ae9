package chess

// Attacked unions the attack masks of every piece of color c.
func (g *Game) Attacked(c Color) Mask {
	var m Mask
	for sq, p := range g.board {
		if p.IsColor(c) {
			m.Or(g.attacks(Square(sq)))
		}
	}
	return m
}

func (g *Game) kingSquare(c Color) (Square, bool) {
	king := NewPiece(King, c)
	for sq, p := range g.board {
		if p == king {
			return Square(sq), true
		}
	}
	return 0, false
}

// kingAttacked is false for a side with no king on the board.
func (g *Game) kingAttacked(c Color) bool {
	sq, ok := g.kingSquare(c)
	if !ok {
		return false
	}
	attacked := g.Attacked(c.Opponent())
	return attacked.Has(sq)
}
