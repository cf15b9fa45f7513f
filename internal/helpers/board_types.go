package helpers

import (
	"fmt"
)

// Row 0 is black's back rank ("8"), row 7 is white's back rank ("1"). Col 0
// is the a-file.
type Square struct {
	Row int
	Col int
}

func (s Square) IsValid() bool {
	return s.Row >= 0 && s.Row < 8 && s.Col >= 0 && s.Col < 8
}

func (s Square) Add(d Direction, n int) Square {
	return Square{s.Row + d.DRow*n, s.Col + d.DCol*n}
}

func (s Square) String() string {
	if !s.IsValid() {
		return fmt.Sprintf("(%v,%v)", s.Row, s.Col)
	}
	return FileString(s.Col) + RankString(s.Row)
}

func FileString(col int) string {
	return [8]string{
		"a", "b", "c", "d", "e", "f", "g", "h",
	}[col]
}

func RankString(row int) string {
	return [8]string{
		"8", "7", "6", "5", "4", "3", "2", "1",
	}[row]
}

func ColFromChar(c byte) (int, Error) {
	col := int(c) - 'a'
	if col < 0 || col >= 8 {
		return 0, Errorf("file invalid %q", c)
	}
	return col, NilError
}

func RowFromChar(c byte) (int, Error) {
	rank := int(c) - '1'
	if rank < 0 || rank >= 8 {
		return 0, Errorf("rank invalid %q", c)
	}
	return 7 - rank, NilError
}

func SquareFromString(s string) (Square, Error) {
	if len(s) != 2 {
		return Square{}, Errorf("invalid location %v", s)
	}

	col, colErr := ColFromChar(s[0])
	row, rowErr := RowFromChar(s[1])

	if !IsNil(colErr) || !IsNil(rowErr) {
		return Square{}, Join(Errorf("invalid location %v", s), colErr, rowErr)
	}

	return Square{row, col}, NilError
}

type Direction struct {
	DRow int
	DCol int
}

func (d Direction) Opposite() Direction {
	return Direction{-d.DRow, -d.DCol}
}

// Same line through the king, either way along it.
func (d Direction) SameAxis(o Direction) bool {
	return d == o || d == o.Opposite()
}

func (d Direction) IsOrthogonal() bool {
	return d.DRow == 0 || d.DCol == 0
}

var (
	N  = Direction{-1, 0}
	S  = Direction{1, 0}
	E  = Direction{0, 1}
	W  = Direction{0, -1}
	NE = Direction{-1, 1}
	NW = Direction{-1, -1}
	SE = Direction{1, 1}
	SW = Direction{1, -1}
)

var OrthogonalDirections = [4]Direction{N, W, S, E}
var DiagonalDirections = [4]Direction{NW, NE, SW, SE}
var AllDirections = [8]Direction{N, W, S, E, NW, NE, SW, SE}

var KnightOffsets = [8]Direction{
	{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1},
}

type Player uint

const (
	White Player = iota
	Black
)

var _playerStrings = [2]string{
	"white", "black",
}

func (p Player) String() string {
	return _playerStrings[p]
}

func (p Player) Other() Player {
	return 1 - p
}

// Row delta of a one-square pawn push.
func (p Player) Forward() int {
	if p == White {
		return -1
	}
	return 1
}

func (p Player) HomeRow() int {
	if p == White {
		return 7
	}
	return 0
}

func (p Player) PawnStartRow() int {
	if p == White {
		return 6
	}
	return 1
}

func (p Player) PromotionRow() int {
	if p == White {
		return 0
	}
	return 7
}

func PlayerFromString(c string) (Player, Error) {
	switch c {
	case "b":
		return Black, NilError
	case "w":
		return White, NilError
	default:
		return White, Errorf("invalid player char %v", c)
	}
}

type PieceType uint

const (
	Rook PieceType = iota
	Knight
	Bishop
	King
	Queen
	Pawn
	InvalidPiece
)

var AllPieceTypes = [6]PieceType{Rook, Knight, Bishop, King, Queen, Pawn}

func (p PieceType) String() string {
	return [7]string{
		"r", "n", "b", "k", "q", "p", "?",
	}[p]
}

// Upper-case letter used in move notation.
func (p PieceType) Letter() string {
	return [7]string{
		"R", "N", "B", "K", "Q", "", "?",
	}[p]
}

func (p PieceType) IsValid() bool {
	return p >= Rook && p <= Pawn
}

type Piece uint

const (
	XX Piece = iota
	WR
	WN
	WB
	WK
	WQ
	WP
	BR
	BN
	BB
	BK
	BQ
	BP
)

var PieceTypeLookup [13]PieceType = func() [13]PieceType {
	result := [13]PieceType{}
	result[XX] = InvalidPiece
	for _, pieceType := range AllPieceTypes {
		result[WR+Piece(pieceType)] = pieceType
		result[BR+Piece(pieceType)] = pieceType
	}
	return result
}()

func (p Piece) PieceType() PieceType {
	return PieceTypeLookup[p]
}

func (p Piece) Player() Player {
	if p < BR {
		return White
	}
	return Black
}

func (p Piece) IsEmpty() bool {
	return p == XX
}

func (p Piece) IsWhite() bool {
	return p <= WP && p >= WR
}

func (p Piece) BelongsTo(player Player) bool {
	return p != XX && p.Player() == player
}

var PieceForPlayer [2][7]Piece = func() [2][7]Piece {
	result := [2][7]Piece{}
	for _, pieceType := range AllPieceTypes {
		result[White][pieceType] = WR + Piece(pieceType)
		result[Black][pieceType] = BR + Piece(pieceType)
	}
	return result
}()

func PieceFromRune(c rune) (Piece, Error) {
	switch c {
	case 'R':
		return WR, NilError
	case 'N':
		return WN, NilError
	case 'B':
		return WB, NilError
	case 'K':
		return WK, NilError
	case 'Q':
		return WQ, NilError
	case 'P':
		return WP, NilError
	case 'r':
		return BR, NilError
	case 'n':
		return BN, NilError
	case 'b':
		return BB, NilError
	case 'k':
		return BK, NilError
	case 'q':
		return BQ, NilError
	case 'p':
		return BP, NilError
	default:
		return XX, Errorf("invalid piece %q", c)
	}
}

func (p Piece) String() string {
	return []string{
		" ",
		"R",
		"N",
		"B",
		"K",
		"Q",
		"P",
		"r",
		"n",
		"b",
		"k",
		"q",
		"p",
	}[p]
}

func (p Piece) Unicode() string {
	return []string{
		" ",
		"♖",
		"♘",
		"♗",
		"♔",
		"♕",
		"♙",
		"♜",
		"♞",
		"♝",
		"♚",
		"♛",
		"♟",
	}[p]
}

type BoardArray [8][8]Piece

func (b *BoardArray) At(s Square) Piece {
	return b[s.Row][s.Col]
}

func (b *BoardArray) Set(s Square, p Piece) {
	b[s.Row][s.Col] = p
}

func (b BoardArray) String() string {
	result := ""
	for row := 0; row < 8; row++ {
		for _, p := range b[row] {
			result += p.String()
		}
		if row != 7 {
			result += "\n"
		}
	}
	return result
}

const _hintForeground = "\033[38;5;244m"
const _whiteForeground = "\033[38;5;255m"
const _blackForeground = "\033[38;5;232m"
const _whiteBackground = "\033[48;5;244m"
const _blackBackground = "\033[48;5;243m"
const _resetColors = "\x1b[0m"

func (b BoardArray) Unicode() string {
	result := "  "
	for col := 0; col < 8; col++ {
		result += _hintForeground + " " + FileString(col) + " " + _resetColors
	}
	result += "\n"

	for row := 0; row < 8; row++ {
		result += _hintForeground + RankString(row) + " " + _resetColors
		for col := 0; col < 8; col++ {
			piece := b[row][col]

			if (row+col)%2 == 0 {
				result += _whiteBackground
			} else {
				result += _blackBackground
			}
			if piece.IsWhite() {
				result += _whiteForeground
			} else {
				result += _blackForeground
			}

			result += " " + piece.Unicode() + " " + _resetColors
		}
		result += "\n"
	}

	return result
}

type CastlingSide int

const (
	Kingside CastlingSide = iota
	Queenside
)

var AllCastlingSides = [2]CastlingSide{Kingside, Queenside}

func (c CastlingSide) String() string {
	if c == Kingside {
		return "kingside"
	}
	return "queenside"
}

// Column of the rook that starts on this side.
func (c CastlingSide) RookCol() int {
	if c == Kingside {
		return 7
	}
	return 0
}
