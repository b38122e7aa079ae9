package chess

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the standard starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN builds a game from a position string. Only the placement field is
// required; the other fields fall back to defaults when missing or unreadable.
// The en-passant field may be algebraic or a raw square index.
func ParseFEN(fen string) (*Game, error) {
	parts := strings.Fields(fen)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty position string", ErrInvalidPosition)
	}

	g := &Game{
		geom:     NewGeometry(),
		turn:     White,
		fullMove: 1,
	}

	if err := parsePlacement(&g.board, parts[0]); err != nil {
		return nil, err
	}

	if len(parts) > 1 && parts[1] == "b" {
		g.turn = Black
	}

	if len(parts) > 2 {
		for _, r := range parts[2] {
			switch r {
			case 'K':
				g.castling.WhiteKingSide = true
			case 'Q':
				g.castling.WhiteQueenSide = true
			case 'k':
				g.castling.BlackKingSide = true
			case 'q':
				g.castling.BlackQueenSide = true
			}
		}
	}

	if len(parts) > 3 && parts[3] != "-" {
		if sq, ok := parseSquareOrIndex(parts[3]); ok {
			g.enPassant = someSquare(sq)
		}
	}

	if len(parts) > 4 {
		if n, err := strconv.Atoi(parts[4]); err == nil && n >= 0 {
			g.halfMove = n
		}
	}
	if len(parts) > 5 {
		if n, err := strconv.Atoi(parts[5]); err == nil && n > 0 {
			g.fullMove = n
		}
	}

	g.refreshStatus()
	return g, nil
}

func parsePlacement(board *Board, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: need 8 ranks, got %d", ErrInvalidPosition, len(ranks))
	}

	for rank, row := range ranks {
		file := 0
		for _, r := range row {
			if r >= '1' && r <= '8' {
				file += int(r - '0')
				continue
			}
			p, ok := PieceFromSymbol(r)
			if !ok {
				return fmt.Errorf("%w: unknown piece symbol %q", ErrInvalidPosition, r)
			}
			if file >= 8 {
				return fmt.Errorf("%w: rank %d has more than 8 files", ErrInvalidPosition, 8-rank)
			}
			board[NewSquare(rank, file)] = p
			file++
		}
		if file != 8 {
			return fmt.Errorf("%w: rank %d has %d files", ErrInvalidPosition, 8-rank, file)
		}
	}
	return nil
}

// FEN writes the position back out, with the en-passant square in algebraic form.
func (g *Game) FEN() string {
	var s strings.Builder
	for rank := range 8 {
		empty := 0
		for file := range 8 {
			p := g.board[NewSquare(rank, file)]
			if p.Empty() {
				empty++
				continue
			}
			if empty > 0 {
				s.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			s.WriteRune(p.Symbol())
		}
		if empty > 0 {
			s.WriteString(strconv.Itoa(empty))
		}
		if rank < 7 {
			s.WriteByte('/')
		}
	}

	if g.turn == White {
		s.WriteString(" w ")
	} else {
		s.WriteString(" b ")
	}

	castling := ""
	if g.castling.WhiteKingSide {
		castling += "K"
	}
	if g.castling.WhiteQueenSide {
		castling += "Q"
	}
	if g.castling.BlackKingSide {
		castling += "k"
	}
	if g.castling.BlackQueenSide {
		castling += "q"
	}
	if castling == "" {
		castling = "-"
	}
	s.WriteString(castling)

	if sq, ok := g.enPassant.get(); ok {
		s.WriteString(" " + sq.String())
	} else {
		s.WriteString(" -")
	}

	fmt.Fprintf(&s, " %d %d", g.halfMove, g.fullMove)
	return s.String()
}
