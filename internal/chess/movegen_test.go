package chess

import "testing"

func TestPieceMaskCounts(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		sq   string
		want int
	}{
		{"rook on empty board", "8/8/8/8/8/8/8/R7 w - - 0 1", "a1", 14},
		{"bishop in corner", "8/8/8/8/8/8/8/B7 w - - 0 1", "a1", 7},
		{"queen in center", "8/8/8/8/3Q4/8/8/8 w - - 0 1", "d4", 27},
		{"king in corner", "8/8/8/8/8/8/8/7K w - - 0 1", "h1", 3},
		{"king in center", "8/8/8/8/3K4/8/8/8 w - - 0 1", "d4", 8},
		{"knight in corner a8", "N7/8/8/8/8/8/8/8 w - - 0 1", "a8", 2},
		{"knight in corner h1", "8/8/8/8/8/8/8/7N w - - 0 1", "h1", 2},
		{"knight on edge", "8/8/8/8/N7/8/8/8 w - - 0 1", "a4", 4},
		{"knight in center", "8/8/8/8/3N4/8/8/8 w - - 0 1", "d4", 8},
		{"knight near corner", "8/8/8/8/8/8/6N1/8 w - - 0 1", "g2", 4},
		{"rook stops at own piece", "8/8/8/8/8/8/P7/R6P w - - 0 1", "a1", 6},
		{"rook takes enemy piece", "8/8/8/8/8/8/p7/R6p w - - 0 1", "a1", 8},
		{"pawn on start rank", "8/8/8/8/8/8/4P3/8 w - - 0 1", "e2", 2},
		{"pawn double push blocked", "8/8/8/8/4p3/8/4P3/8 w - - 0 1", "e2", 1},
		{"pawn blocked", "8/8/8/8/8/4p3/4P3/8 w - - 0 1", "e2", 0},
		{"pawn captures both ways", "8/8/8/8/8/3ppp2/4P3/8 w - - 0 1", "e2", 2},
		{"pawn ignores own diagonals", "8/8/8/8/8/3P1P2/4P3/8 w - - 0 1", "e2", 2},
		{"black pawn on start rank", "8/4p3/8/8/8/8/8/8 b - - 0 1", "e7", 2},
		{"pawn on a-file", "8/8/8/8/8/1p6/P7/8 w - - 0 1", "a2", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustFEN(t, tt.fen)
			m := g.PseudoLegalMoves(sq(t, tt.sq))
			if got := m.Count(); got != tt.want {
				t.Errorf("%s from %s: %d moves, want %d\n%s", tt.name, tt.sq, got, tt.want, m)
			}
		})
	}
}

func TestKnightDoesNotWrap(t *testing.T) {
	g := mustFEN(t, "8/8/8/8/8/8/8/8 w - - 0 1")
	for from := Square(0); from < NumSquares; from++ {
		g.board = Board{}
		g.board[from] = NewPiece(Knight, White)
		for _, to := range g.PseudoLegalMoves(from).Squares() {
			df, dr := abs(to.File()-from.File()), abs(to.Rank()-from.Rank())
			if !(df == 1 && dr == 2) && !(df == 2 && dr == 1) {
				t.Errorf("knight %s -> %s is not an L", from, to)
			}
		}
	}
}

func TestSlidersDoNotWrap(t *testing.T) {
	g := mustFEN(t, "8/8/8/8/8/8/8/8 w - - 0 1")
	for from := Square(0); from < NumSquares; from++ {
		g.board = Board{}
		g.board[from] = NewPiece(Queen, White)
		for _, to := range g.PseudoLegalMoves(from).Squares() {
			df, dr := abs(to.File()-from.File()), abs(to.Rank()-from.Rank())
			if df != 0 && dr != 0 && df != dr {
				t.Errorf("queen %s -> %s is neither straight nor diagonal", from, to)
			}
		}
	}
}

func TestPawnDoublePushReportsSkipSquare(t *testing.T) {
	g := mustFEN(t, StartFEN)
	_, skip := g.moves(sq(t, "d2"))
	if s, ok := skip.get(); !ok || s != sq(t, "d3") {
		t.Errorf("skip = %v (%v), want d3", s, ok)
	}

	g = mustFEN(t, "8/8/8/8/8/3p4/3P4/8 w - - 0 1")
	if _, skip := g.moves(sq(t, "d2")); skip.ok {
		t.Error("blocked pawn should not report a skip square")
	}
}

func TestPawnAttackMaskDiffersFromMoveMask(t *testing.T) {
	g := mustFEN(t, "8/8/8/8/8/2N5/1P6/8 w - - 0 1")
	b2 := sq(t, "b2")

	moves := g.PseudoLegalMoves(b2)
	if moves.Has(sq(t, "a3")) || moves.Has(sq(t, "c3")) {
		t.Error("pawn may not move diagonally onto an empty or friendly square")
	}

	attacks := g.attacks(b2)
	if !attacks.Has(sq(t, "a3")) || !attacks.Has(sq(t, "c3")) || attacks.Count() != 2 {
		t.Errorf("pawn attack mask:\n%s", attacks)
	}
}

func TestAttackedAggregatesColor(t *testing.T) {
	g := mustFEN(t, "4k3/8/8/8/8/8/1P6/R3K3 w - - 0 1")
	white := g.Attacked(White)

	for _, s := range []string{"a3", "c3", "a2", "b1", "c1", "d1", "d2", "e2", "f2", "f1"} {
		if !white.Has(sq(t, s)) {
			t.Errorf("%s should be attacked by white", s)
		}
	}
	for _, s := range []string{"b3", "h4", "e4", "e8"} {
		if white.Has(sq(t, s)) {
			t.Errorf("%s should not be attacked by white", s)
		}
	}

	black := g.Attacked(Black)
	if got := black.Count(); got != 5 {
		t.Errorf("black king attacks %d squares, want 5\n%s", got, black)
	}
}

func TestPieceEncoding(t *testing.T) {
	for _, k := range []Kind{Pawn, Knight, Bishop, Rook, Queen, King} {
		for _, c := range []Color{White, Black} {
			p := NewPiece(k, c)
			if !p.Valid() || p.Kind() != k || p.Color() != c || !p.Is(k) || !p.IsColor(c) {
				t.Errorf("NewPiece(%s, %s) = %d decodes badly", k, c, p)
			}
			if p.IsColor(c.Opponent()) {
				t.Errorf("%s has both colors", p.Name())
			}
			back, ok := PieceFromSymbol(p.Symbol())
			if !ok || back != p {
				t.Errorf("symbol %c does not map back to %s", p.Symbol(), p.Name())
			}
		}
	}
	for _, bad := range []Piece{Piece(Pawn), Piece(White), Piece(Pawn | Knight) | Piece(White), Piece(Pawn) | Piece(White|Black), 3 | 64} {
		if bad.Valid() {
			t.Errorf("piece %d should be invalid", bad)
		}
	}
}
