package game

import (
	"fmt"
	"strconv"
	"strings"

	. "github.com/cricklet/chessmate/internal/helpers"
)

func FenStringForPlayer(p Player) string {
	if p == White {
		return "w"
	} else {
		return "b"
	}
}

var fenStringForCastling = [2][2]string{
	{"K", "Q"},
	{"k", "q"},
}

func fenStringForCastlingRights(rights [2][2]bool) string {
	s := ""
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if rights[i][j] {
				s += fenStringForCastling[i][j]
			}
		}
	}
	if len(s) == 0 {
		s += "-"
	}
	return s
}

func fenStringForEnPassant(enPassant Optional[Square]) string {
	if enPassant.IsEmpty() {
		return "-"
	}
	return enPassant.Value().String()
}

func FenStringForBoard(b BoardArray) string {
	s := ""
	for row := 0; row < 8; row++ {
		numSpaces := 0
		for col := 0; col < 8; col++ {
			piece := b[row][col]
			if piece == XX {
				numSpaces++
				continue
			}
			if numSpaces > 0 {
				s += fmt.Sprint(numSpaces)
				numSpaces = 0
			}
			s += piece.String()
		}
		if numSpaces > 0 {
			s += fmt.Sprint(numSpaces)
		}
		if row != 7 {
			s += "/"
		}
	}
	return s
}

func FenStringForGame(g *GameState) string {
	return fmt.Sprintf("%v %v %v %v %v %v",
		FenStringForBoard(g.Board),
		FenStringForPlayer(g.Player),
		fenStringForCastlingRights(g.CastlingRights),
		fenStringForEnPassant(g.EnPassantTarget),
		g.HalfMoveClock,
		g.FullMoveClock)
}

// Accepts the full six fields, or the first two / four with the remainder
// defaulted.
func GamestateFromFenString(s string) (*GameState, Error) {
	ss := strings.Fields(s)
	if len(ss) != 6 && len(ss) != 4 && len(ss) != 2 {
		return &GameState{}, Errorf("wrong num %v of fields in str '%v'", len(ss), s)
	}

	boardStr, playerString := ss[0], ss[1]

	g := &GameState{}

	row, col := 0, 0
	for _, c := range boardStr {
		if c == '/' {
			if col != 8 {
				return &GameState{}, Errorf("not enough squares in rank, '%v'", s)
			}
			row++
			col = 0
		} else if skip, err := strconv.ParseInt(string(c), 10, 0); err == nil {
			col += int(skip)
		} else if p, err := PieceFromRune(c); IsNil(err) {
			if row >= 8 || col >= 8 {
				return &GameState{}, Errorf("too many squares in '%v'", s)
			}
			g.Board[row][col] = p
			col++
		} else {
			return &GameState{}, Errorf("unknown character '%v' in '%v'", c, s)
		}
	}
	if row != 7 || col != 8 {
		return &GameState{}, Errorf("board has wrong shape in '%v'", s)
	}

	player, err := PlayerFromString(playerString)
	if !IsNil(err) {
		return &GameState{}, Errorf("invalid player '%v' in '%v'", playerString, s)
	}
	g.Player = player

	castlingRightsString, enPassantTargetString := "-", "-"
	if len(ss) >= 4 {
		castlingRightsString, enPassantTargetString = ss[2], ss[3]
	}

	halfMoveClockString, fullMoveClockString := "0", "1"
	if len(ss) == 6 {
		halfMoveClockString, fullMoveClockString = ss[4], ss[5]
	}

	for _, c := range castlingRightsString {
		switch c {
		case '-':
			continue
		case 'K':
			g.CastlingRights[White][Kingside] = true
		case 'Q':
			g.CastlingRights[White][Queenside] = true
		case 'k':
			g.CastlingRights[Black][Kingside] = true
		case 'q':
			g.CastlingRights[Black][Queenside] = true
		default:
			return &GameState{}, Errorf("invalid castling rights '%v' in '%v'", castlingRightsString, s)
		}
	}

	if enPassantTargetString == "-" {
		g.EnPassantTarget = Empty[Square]()
	} else if v, err := SquareFromString(enPassantTargetString); IsNil(err) {
		g.EnPassantTarget = Some(v)
	} else {
		return &GameState{}, Errorf("invalid en-passant target '%v' in '%v'", enPassantTargetString, s)
	}

	if v, err := strconv.ParseInt(halfMoveClockString, 10, 0); err == nil && v >= 0 {
		g.HalfMoveClock = int(v)
	} else {
		return &GameState{}, Errorf("invalid half move clock '%v' in '%v'", halfMoveClockString, s)
	}

	if v, err := strconv.ParseInt(fullMoveClockString, 10, 0); err == nil && v >= 1 {
		g.FullMoveClock = int(v)
	} else {
		return &GameState{}, Errorf("invalid full move clock '%v' in '%v'", fullMoveClockString, s)
	}

	if g.EnPassantTarget.HasValue() && !enPassantTargetIsPlausible(g, g.EnPassantTarget.Value()) {
		return &GameState{}, Errorf("en-passant target '%v' doesn't follow a double push in '%v'", enPassantTargetString, s)
	}

	found := [2]int{}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			piece := g.Board[row][col]
			if piece.PieceType() == King {
				found[piece.Player()]++
				g.KingSquares[piece.Player()] = Square{row, col}
			}
		}
	}
	if found[White] != 1 || found[Black] != 1 {
		return &GameState{}, Errorf("expected one king per side in '%v'", s)
	}

	// flags need a generation pass to be meaningful
	g.InCheck, _, _ = PinsAndChecks(g)

	return g, NilError
}

// The target must be the empty square an enemy pawn just skipped over, with
// that pawn now directly behind it.
func enPassantTargetIsPlausible(g *GameState, target Square) bool {
	player := g.Player
	if target.Row != player.Other().PawnStartRow()+player.Other().Forward() {
		return false
	}
	if g.Board.At(target) != XX {
		return false
	}
	pushed := target.Add(Direction{player.Other().Forward(), 0}, 1)
	return g.Board.At(pushed) == PieceForPlayer[player.Other()][Pawn]
}
