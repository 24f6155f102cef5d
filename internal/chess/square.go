package chess

import "fmt"

// Square addresses the board by rank and file index. Rank 0 is Black's back
// rank (the eighth rank in algebraic terms), file 0 is the a-file.
type Square struct {
	Rank int
	File int
}

// Sq is shorthand for Square{rank, file}.
func Sq(rank, file int) Square {
	return Square{Rank: rank, File: file}
}

// IsValid reports whether the square lies on the 8x8 board.
func IsValid(sq Square) bool {
	return sq.Rank >= 0 && sq.Rank < 8 && sq.File >= 0 && sq.File < 8
}

// String returns algebraic coordinates such as "e4".
func (sq Square) String() string {
	if !IsValid(sq) {
		return fmt.Sprintf("(%d,%d)", sq.Rank, sq.File)
	}
	return string([]byte{byte('a' + sq.File), byte('8' - sq.Rank)})
}

// ParseSquare parses algebraic coordinates. Rank digit n maps to index 8-n.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return Square{}, fmt.Errorf("%w: square %q", ErrInvalidNotation, s)
	}
	return Square{Rank: int('8' - s[1]), File: int(s[0] - 'a')}, nil
}

// IsLight reports whether the square is a light square (a8 and h1 are light).
func (sq Square) IsLight() bool {
	return (sq.Rank+sq.File)%2 == 0
}

func (sq Square) offset(dRank, dFile int) Square {
	return Square{Rank: sq.Rank + dRank, File: sq.File + dFile}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}
