// Package chess implements the rules of chess over a 64-square board:
// move generation, check detection, castling, en passant and promotion.
package chess

import (
	"fmt"
	"slices"
	"unicode"
)

// Board is the 64-square array, a8 first and h1 last.
type Board [NumSquares]Piece

func (b *Board) At(sq Square) Piece {
	if !sq.Valid() {
		return Empty
	}
	return b[sq]
}

type CastlingRights struct {
	WhiteKingSide  bool
	WhiteQueenSide bool
	BlackKingSide  bool
	BlackQueenSide bool
}

type castleSide int

const (
	whiteKingSide castleSide = iota
	whiteQueenSide
	blackKingSide
	blackQueenSide
)

func (r *CastlingRights) flag(s castleSide) *bool {
	switch s {
	case whiteKingSide:
		return &r.WhiteKingSide
	case whiteQueenSide:
		return &r.WhiteQueenSide
	case blackKingSide:
		return &r.BlackKingSide
	default:
		return &r.BlackQueenSide
	}
}

// castle describes one of the four fixed castling patterns.
type castle struct {
	side    castleSide
	color   Color
	king    Square
	kingTo  Square
	rook    Square
	rookTo  Square
	between []Square // must be empty
	path    []Square // must not be attacked
}

var castles = []castle{
	{whiteKingSide, White, 60, 62, 63, 61, []Square{61, 62}, []Square{60, 61, 62}},
	{whiteQueenSide, White, 60, 58, 56, 59, []Square{57, 58, 59}, []Square{60, 59, 58}},
	{blackKingSide, Black, 4, 6, 7, 5, []Square{5, 6}, []Square{4, 5, 6}},
	{blackQueenSide, Black, 4, 2, 0, 3, []Square{1, 2, 3}, []Square{4, 3, 2}},
}

// Move is one played half-move. Promotion is set once a pending promotion is resolved.
type Move struct {
	From      Square
	To        Square
	Promotion Kind
}

func (m Move) String() string {
	s := m.From.String() + m.To.String()
	if m.Promotion != NoKind {
		s += string(symbolByKind[m.Promotion])
	}
	return s
}

// Game is the whole engine state. It is not safe for concurrent use.
type Game struct {
	geom      *Geometry
	board     Board
	turn      Color
	history   []Move
	enPassant optSquare
	castling  CastlingRights
	check     bool
	draw      bool
	checkmate bool
	promotion optSquare

	halfMove int
	fullMove int
}

// NewGame returns a game at the standard starting position.
func NewGame() *Game {
	g, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Game) Board() Board                   { return g.board }
func (g *Game) Turn() Color                    { return g.turn }
func (g *Game) InCheck() bool                  { return g.check }
func (g *Game) Checkmate() bool                { return g.checkmate }
func (g *Game) Draw() bool                     { return g.draw }
func (g *Game) History() []Move                { return slices.Clone(g.history) }
func (g *Game) CastlingRights() CastlingRights { return g.castling }
func (g *Game) EnPassant() (Square, bool)      { return g.enPassant.get() }
func (g *Game) PendingPromotion() (Square, bool) {
	return g.promotion.get()
}

// Over reports whether the game ended in checkmate or a draw.
func (g *Game) Over() bool { return g.checkmate || g.draw }

func (g *Game) Clone() *Game {
	c := *g
	c.history = slices.Clone(g.history)
	return &c
}

// Move plays from→to given in algebraic notation.
func (g *Game) Move(from, to string) error {
	f, err := ParseSquare(from)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMove, err)
	}
	t, err := ParseSquare(to)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMove, err)
	}
	return g.MoveSquares(f, t)
}

// MoveSquares validates from→to against a clone of the game and commits the
// clone only if the mover's king is safe. A rejected move leaves g untouched.
func (g *Game) MoveSquares(from, to Square) error {
	if sq, ok := g.promotion.get(); ok {
		return fmt.Errorf("%w: promotion pending on %s", ErrInvalidMove, sq)
	}
	if g.Over() {
		return fmt.Errorf("%w: game is over", ErrInvalidMove)
	}
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("%w: square out of range", ErrInvalidMove)
	}

	piece := g.board[from]
	if piece.Empty() {
		return fmt.Errorf("%w: no piece on %s", ErrInvalidMove, from)
	}
	if !piece.IsColor(g.turn) {
		return fmt.Errorf("%w: %s on %s does not belong to %s", ErrInvalidMove, piece.Name(), from, g.turn)
	}

	pseudo, skip := g.moves(from)
	if !pseudo.Has(to) {
		return fmt.Errorf("%w: %s cannot move from %s to %s", ErrInvalidMove, piece.Name(), from, to)
	}

	next, safe := g.try(from, to, skip)
	if !safe {
		return fmt.Errorf("%w: %s to %s leaves the %s king in check", ErrInvalidMove, from, to, g.turn)
	}

	next.refreshStatus()
	*g = *next
	return nil
}

// try plays from→to on a disposable clone and reports whether the mover's king survives it.
func (g *Game) try(from, to Square, skip optSquare) (*Game, bool) {
	next := g.Clone()
	next.apply(from, to, skip)
	return next, !next.kingAttacked(g.turn)
}

// apply mutates the board for a pseudo-legal move without any safety check.
func (g *Game) apply(from, to Square, skip optSquare) {
	piece := g.board[from]
	mover := piece.Color()
	captured := g.board[to]

	if piece.Is(Pawn) && from.File() != to.File() && captured.Empty() && g.enPassant.is(to) {
		behind := step(to, pawnForward(mover.Opponent()), 1)
		captured = g.board[behind]
		g.board[behind] = Empty
	}
	g.enPassant = noSquare
	if s, ok := skip.get(); ok && piece.Is(Pawn) && to == step(s, pawnForward(mover), 1) {
		g.enPassant = someSquare(s)
	}

	if piece.Is(King) {
		for _, c := range castles {
			if c.color != mover || c.king != from || c.kingTo != to {
				continue
			}
			if *g.castling.flag(c.side) && g.board[c.rook] == NewPiece(Rook, mover) {
				g.board[c.rookTo] = g.board[c.rook]
				g.board[c.rook] = Empty
			}
		}
	}

	g.board[to] = piece
	g.board[from] = Empty

	if piece.Is(Pawn) && to.Rank() == pawnLastRank(mover) {
		g.promotion = someSquare(to)
	}

	for _, c := range castles {
		if from == c.king || from == c.rook || to == c.king || to == c.rook {
			*g.castling.flag(c.side) = false
		}
	}

	if piece.Is(Pawn) || !captured.Empty() {
		g.halfMove = 0
	} else {
		g.halfMove++
	}
	if mover == Black {
		g.fullMove++
	}

	g.history = append(g.history, Move{From: from, To: to})
	g.turn = mover.Opponent()
}

// refreshStatus recomputes the flags of the side to move. The side that just
// moved can never be in check here; the clone gate rejected that.
func (g *Game) refreshStatus() {
	g.check = g.kingAttacked(g.turn)
	g.checkmate, g.draw = false, false
	if g.promotion.ok {
		return
	}
	if _, ok := g.kingSquare(g.turn); !ok {
		return
	}
	if !g.hasLegalMove() {
		g.checkmate = g.check
		g.draw = !g.check
	}
}

func (g *Game) hasLegalMove() bool {
	for sq, p := range g.board {
		if p.IsColor(g.turn) && g.legalFrom(Square(sq)).Count() > 0 {
			return true
		}
	}
	return false
}

// LegalMoves is the set of destinations the piece on sq may actually move to.
// It is empty unless that piece belongs to the side to move and play can continue.
func (g *Game) LegalMoves(sq Square) Mask {
	if !sq.Valid() || g.Over() || g.promotion.ok || !g.board[sq].IsColor(g.turn) {
		return Mask{}
	}
	return g.legalFrom(sq)
}

func (g *Game) legalFrom(sq Square) Mask {
	var legal Mask
	pseudo, skip := g.moves(sq)
	for _, to := range pseudo.Squares() {
		if _, ok := g.try(sq, to, skip); ok {
			legal.Set(to)
		}
	}
	return legal
}

// Promote resolves a pending promotion with one of q, r, b or n.
func (g *Game) Promote(selector string) error {
	sq, ok := g.promotion.get()
	if !ok {
		return fmt.Errorf("%w: no promotion pending", ErrInvalidPromotion)
	}
	runes := []rune(selector)
	if len(runes) != 1 {
		return fmt.Errorf("%w: selector %q", ErrInvalidPromotion, selector)
	}
	kind, ok := kindBySymbol[unicode.ToLower(runes[0])]
	if !ok || kind == Pawn || kind == King {
		return fmt.Errorf("%w: cannot promote to %q", ErrInvalidPromotion, selector)
	}

	g.board[sq] = NewPiece(kind, g.turn.Opponent())
	g.promotion = noSquare
	if n := len(g.history); n > 0 {
		g.history[n-1].Promotion = kind
	}
	g.refreshStatus()
	return nil
}

// Status is a one-line summary for display, empty when play is ordinary.
func (g *Game) Status() string {
	switch {
	case g.checkmate:
		return fmt.Sprintf("Checkmate! %s wins!", g.turn.Opponent())
	case g.draw:
		return "Stalemate! The game is drawn."
	case g.promotion.ok:
		return fmt.Sprintf("%s must choose a promotion on %s", g.turn.Opponent(), g.promotion.sq)
	case g.check:
		return fmt.Sprintf("%s is in check!", g.turn)
	}
	return ""
}
