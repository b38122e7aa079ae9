package chess

import (
	"fmt"
	"strconv"
)

// Square indexes the board as rank*8+file, rank 0 being the eighth rank.
type Square uint8

// NumSquares is the board length.
const NumSquares = 64

func NewSquare(rank, file int) Square {
	return Square(rank*8 + file)
}

func (s Square) Valid() bool { return s < NumSquares }

// Rank is the row index counted from the top of the board (0 = rank 8).
func (s Square) Rank() int { return int(s) / 8 }
func (s Square) File() int { return int(s) % 8 }

func (s Square) String() string {
	if !s.Valid() {
		return "invalid"
	}
	return fmt.Sprintf("%c%d", 'a'+s.File(), 8-s.Rank())
}

// ParseSquare converts algebraic notation such as "e2" to an index.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("invalid square %q", s)
	}
	file, digit := s[0], s[1]
	if file >= 'A' && file <= 'H' {
		file += 'a' - 'A'
	}
	if file < 'a' || file > 'h' || digit < '1' || digit > '8' {
		return 0, fmt.Errorf("invalid square %q", s)
	}
	return Square((8-int(digit-'0'))*8 + int(file-'a')), nil
}

// parseSquareOrIndex accepts either algebraic notation or a raw index.
func parseSquareOrIndex(s string) (Square, bool) {
	if sq, err := ParseSquare(s); err == nil {
		return sq, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n >= NumSquares {
		return 0, false
	}
	return Square(n), true
}

// optSquare is a square that may be absent.
type optSquare struct {
	sq Square
	ok bool
}

var noSquare = optSquare{}

func someSquare(sq Square) optSquare { return optSquare{sq: sq, ok: true} }

func (o optSquare) get() (Square, bool) { return o.sq, o.ok }

func (o optSquare) is(sq Square) bool { return o.ok && o.sq == sq }
