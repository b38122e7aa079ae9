package chess

import "strings"

// Mask marks a subset of the board's squares.
type Mask [NumSquares]bool

func (m *Mask) Set(sq Square)     { m[sq] = true }
func (m Mask) Has(sq Square) bool { return sq.Valid() && m[sq] }

// Or adds every square of o to m.
func (m *Mask) Or(o Mask) {
	for i, v := range o {
		if v {
			m[i] = true
		}
	}
}

func (m Mask) Count() int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// Squares lists the marked squares in index order.
func (m Mask) Squares() []Square {
	var out []Square
	for i, v := range m {
		if v {
			out = append(out, Square(i))
		}
	}
	return out
}

// String draws the mask as eight rows of '1' and '.', top rank first.
func (m Mask) String() string {
	var s strings.Builder
	for i, v := range m {
		if v {
			s.WriteByte('1')
		} else {
			s.WriteByte('.')
		}
		if i%8 == 7 {
			s.WriteByte('\n')
		}
	}
	return s.String()
}
