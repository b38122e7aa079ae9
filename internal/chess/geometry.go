package chess

// Direction selects one of the eight rays. The order matches the Geometry columns.
type Direction int

const (
	North Direction = iota
	South
	West
	East
	NorthWest
	SouthEast
	NorthEast
	SouthWest
)

// Offsets holds the index delta of one step along each Direction.
var Offsets = [8]int{-8, 8, -1, 1, -9, 9, -7, 7}

var (
	orthogonal = []Direction{North, South, West, East}
	diagonal   = []Direction{NorthWest, SouthEast, NorthEast, SouthWest}
	allDirs    = []Direction{North, South, West, East, NorthWest, SouthEast, NorthEast, SouthWest}
)

// Geometry holds, for every square, the number of steps to the board edge
// along each Direction. It is read-only once built.
type Geometry [NumSquares][8]int

func NewGeometry() *Geometry {
	var g Geometry
	for rank := range 8 {
		for file := range 8 {
			north := rank
			south := 7 - rank
			west := file
			east := 7 - file
			g[NewSquare(rank, file)] = [8]int{
				north,
				south,
				west,
				east,
				min(north, west),
				min(south, east),
				min(north, east),
				min(south, west),
			}
		}
	}
	return &g
}

func (g *Geometry) Distance(sq Square, d Direction) int {
	return g[sq][d]
}

// step returns the square n steps from sq along d. Callers must stay within Distance.
func step(sq Square, d Direction, n int) Square {
	return Square(int(sq) + Offsets[d]*n)
}
