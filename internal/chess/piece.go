package chess

import "unicode"

// Kind is one of the six piece-kind bits.
type Kind uint8

const (
	NoKind Kind = 0
	Pawn   Kind = 1
	Knight Kind = 2
	Bishop Kind = 4
	Rook   Kind = 8
	Queen  Kind = 16
	King   Kind = 32
)

const kindMask = uint8(Pawn | Knight | Bishop | Rook | Queen | King)

func (k Kind) String() string {
	switch k {
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case Rook:
		return "Rook"
	case Queen:
		return "Queen"
	case King:
		return "King"
	}
	return "None"
}

// Color is one of the two color bits. Both sit above the kind bits.
type Color uint8

const (
	NoColor Color = 0
	White   Color = 64
	Black   Color = 128
)

const colorMask = uint8(White | Black)

func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	}
	return "None"
}

func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// Piece packs one kind bit and one color bit into a byte. Zero is an empty square.
type Piece uint8

const Empty Piece = 0

func NewPiece(k Kind, c Color) Piece {
	return Piece(uint8(k) | uint8(c))
}

func (p Piece) Kind() Kind   { return Kind(uint8(p) & kindMask) }
func (p Piece) Color() Color { return Color(uint8(p) & colorMask) }
func (p Piece) Empty() bool  { return p == Empty }

func (p Piece) Is(k Kind) bool       { return uint8(p)&uint8(k) > 0 }
func (p Piece) IsColor(c Color) bool { return uint8(p)&uint8(c) > 0 }

// Valid reports whether p is empty or carries exactly one kind and one color.
func (p Piece) Valid() bool {
	if p == Empty {
		return true
	}
	k, c := uint8(p)&kindMask, uint8(p)&colorMask
	if uint8(p)&^(kindMask|colorMask) != 0 {
		return false
	}
	return k != 0 && k&(k-1) == 0 && (c == uint8(White) || c == uint8(Black))
}

var kindBySymbol = map[rune]Kind{
	'p': Pawn,
	'n': Knight,
	'b': Bishop,
	'r': Rook,
	'q': Queen,
	'k': King,
}

var symbolByKind = map[Kind]rune{
	Pawn:   'p',
	Knight: 'n',
	Bishop: 'b',
	Rook:   'r',
	Queen:  'q',
	King:   'k',
}

// PieceFromSymbol maps a FEN letter to a piece; upper case is white.
func PieceFromSymbol(r rune) (Piece, bool) {
	k, ok := kindBySymbol[unicode.ToLower(r)]
	if !ok {
		return Empty, false
	}
	if unicode.IsUpper(r) {
		return NewPiece(k, White), true
	}
	return NewPiece(k, Black), true
}

// Symbol is the inverse of PieceFromSymbol. Empty squares yield '.'.
func (p Piece) Symbol() rune {
	r, ok := symbolByKind[p.Kind()]
	if !ok {
		return '.'
	}
	if p.IsColor(White) {
		return unicode.ToUpper(r)
	}
	return r
}

func (p Piece) String() string {
	if p.Empty() {
		return " "
	}

	symbols := map[Kind]string{
		Pawn:   "♟",
		Rook:   "♜",
		Knight: "♞",
		Bishop: "♝",
		Queen:  "♛",
		King:   "♚",
	}

	if p.IsColor(White) {
		whiteSymbols := map[Kind]string{
			Pawn:   "♙",
			Rook:   "♖",
			Knight: "♘",
			Bishop: "♗",
			Queen:  "♕",
			King:   "♔",
		}
		return whiteSymbols[p.Kind()]
	}

	return symbols[p.Kind()]
}

// Name is the long form used by status displays, e.g. "White Knight".
func (p Piece) Name() string {
	if p.Empty() {
		return "Empty"
	}
	return p.Color().String() + " " + p.Kind().String()
}
