package game

import (
	"fmt"

	. "github.com/cricklet/chessmate/internal/helpers"
)

type Move struct {
	Start         Square
	End           Square
	PieceMoved    Piece
	PieceCaptured Piece

	IsEnPassant bool
	IsCastle    bool
	// Always promotes to a queen.
	IsPromotion bool
}

// Reads the moving and captured pieces off the board. Promotion is inferred
// from the destination rank.
func NewMove(g *GameState, start Square, end Square) Move {
	moved := g.Board.At(start)
	return Move{
		Start:         start,
		End:           end,
		PieceMoved:    moved,
		PieceCaptured: g.Board.At(end),
		IsPromotion:   moved.PieceType() == Pawn && end.Row == moved.Player().PromotionRow(),
	}
}

func NewEnPassantMove(g *GameState, start Square, end Square) Move {
	moved := g.Board.At(start)
	return Move{
		Start:         start,
		End:           end,
		PieceMoved:    moved,
		PieceCaptured: PieceForPlayer[moved.Player().Other()][Pawn],
		IsEnPassant:   true,
	}
}

func NewCastlingMove(g *GameState, start Square, end Square) Move {
	return Move{
		Start:      start,
		End:        end,
		PieceMoved: g.Board.At(start),
		IsCastle:   true,
	}
}

func (m Move) ID() int {
	return m.Start.Row*1000 + m.Start.Col*100 + m.End.Row*10 + m.End.Col
}

// Moves are identified by their squares alone.
func (m Move) Equals(o Move) bool {
	return m.ID() == o.ID()
}

func (m Move) IsCapture() bool {
	return m.PieceCaptured != XX
}

// The square holding the captured piece; differs from End for en passant.
func (m Move) CaptureSquare() Square {
	if m.IsEnPassant {
		return Square{m.Start.Row, m.End.Col}
	}
	return m.End
}

// Coordinate form, eg "e2e4".
func (m Move) String() string {
	return m.Start.String() + m.End.String()
}

func (m Move) DebugString() string {
	result := m.PieceMoved.String() + m.Start.String()
	if m.IsCapture() {
		result += "x" + m.PieceCaptured.String()
	}
	result += m.End.String()
	if m.IsPromotion {
		result += "=Q"
	}
	if m.IsEnPassant {
		result += " e.p."
	}
	return result
}

// Short algebraic-style text. Same-kind movers are not disambiguated.
func Notation(m Move) string {
	if m.IsCastle {
		if m.End.Col > m.Start.Col {
			return "O-O"
		}
		return "O-O-O"
	}

	endSquare := m.End.String()
	if m.PieceMoved.PieceType() == Pawn {
		if m.IsCapture() {
			return FileString(m.Start.Col) + "x" + endSquare
		}
		return endSquare
	}

	result := m.PieceMoved.PieceType().Letter()
	if m.IsCapture() {
		result += "x"
	}
	return result + endSquare
}

// Looks up a coordinate string ("e2e4", optionally with a trailing
// promotion letter) among moves.
func FindMove(moves []Move, s string) (Optional[Move], Error) {
	if len(s) != 4 && len(s) != 5 {
		return Empty[Move](), Errorf("invalid move %q", s)
	}
	start, err := SquareFromString(s[0:2])
	if !IsNil(err) {
		return Empty[Move](), err
	}
	end, err := SquareFromString(s[2:4])
	if !IsNil(err) {
		return Empty[Move](), err
	}

	target := Move{Start: start, End: end}
	return FindInSlice(moves, func(m Move) bool {
		return m.Equals(target)
	}), NilError
}

// Numbered pairs, eg "1. e4 e5".
func MoveLog(moves []Move) []string {
	result := []string{}
	for i := 0; i < len(moves); i += 2 {
		line := FormatMoveNumber(i/2+1) + Notation(moves[i])
		if i+1 < len(moves) {
			line += " " + Notation(moves[i+1])
		}
		result = append(result, line)
	}
	return result
}

func FormatMoveNumber(n int) string {
	return fmt.Sprintf("%v. ", n)
}
