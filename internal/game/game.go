package game

import (
	"fmt"

	. "github.com/cricklet/chessmate/internal/helpers"
)

// Everything MakeMove overwrites that can't be recovered from the move itself.
type HistoryEntry struct {
	Move                Move
	PrevCastlingRights  [2][2]bool
	PrevEnPassantTarget Optional[Square]
	PrevHalfMoveClock   int
	PrevFullMoveClock   int
	PrevInCheck         bool
}

type GameState struct {
	Board           BoardArray
	Player          Player
	KingSquares     [2]Square
	CastlingRights  [2][2]bool
	EnPassantTarget Optional[Square]
	HalfMoveClock   int
	FullMoveClock   int

	History []HistoryEntry

	// Recomputed by GenerateLegalMoves.
	InCheck   bool
	Checkmate bool
	Stalemate bool
}

const StartingFen = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func NewGame() *GameState {
	g := &GameState{
		Board: BoardArray{
			{BR, BN, BB, BQ, BK, BB, BN, BR},
			{BP, BP, BP, BP, BP, BP, BP, BP},
			{XX, XX, XX, XX, XX, XX, XX, XX},
			{XX, XX, XX, XX, XX, XX, XX, XX},
			{XX, XX, XX, XX, XX, XX, XX, XX},
			{XX, XX, XX, XX, XX, XX, XX, XX},
			{WP, WP, WP, WP, WP, WP, WP, WP},
			{WR, WN, WB, WQ, WK, WB, WN, WR},
		},
		Player:         White,
		KingSquares:    [2]Square{{7, 4}, {0, 4}},
		CastlingRights: [2][2]bool{{true, true}, {true, true}},
		FullMoveClock:  1,
	}
	return g
}

// Deep copy, so a search worker can own its own state.
func (g *GameState) Clone() *GameState {
	result := *g
	result.History = append([]HistoryEntry(nil), g.History...)
	return &result
}

func (g *GameState) Enemy() Player {
	return g.Player.Other()
}

func (g *GameState) KingSquare(player Player) Square {
	return g.KingSquares[player]
}

func (g *GameState) LastMove() Optional[Move] {
	if len(g.History) == 0 {
		return Empty[Move]()
	}
	return Some(g.History[len(g.History)-1].Move)
}

func (g *GameState) CanCastle(player Player, side CastlingSide) bool {
	return g.CastlingRights[player][side]
}

// Panics when the cached king squares disagree with the board. The mutator
// keeps the cache in sync itself, so this is for tests.
func (g *GameState) CheckInvariants() {
	found := [2]int{}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			piece := g.Board[row][col]
			if piece.PieceType() != King {
				continue
			}
			found[piece.Player()]++
			if g.KingSquares[piece.Player()] != (Square{row, col}) {
				panic(fmt.Sprintf("%v king at %v but cached at %v", piece.Player(), Square{row, col}, g.KingSquares[piece.Player()]))
			}
		}
	}
	if found[White] != 1 || found[Black] != 1 {
		panic(fmt.Sprintf("expected one king per side, found %v", found))
	}
}

func (g *GameState) MakeMove(m Move) {
	player := m.PieceMoved.Player()

	g.History = append(g.History, HistoryEntry{
		Move:                m,
		PrevCastlingRights:  g.CastlingRights,
		PrevEnPassantTarget: g.EnPassantTarget,
		PrevHalfMoveClock:   g.HalfMoveClock,
		PrevFullMoveClock:   g.FullMoveClock,
		PrevInCheck:         g.InCheck,
	})

	g.Board.Set(m.End, m.PieceMoved)
	g.Board.Set(m.Start, XX)

	if m.IsEnPassant {
		g.Board.Set(Square{m.Start.Row, m.End.Col}, XX)
	}

	if m.IsPromotion {
		g.Board.Set(m.End, PieceForPlayer[player][Queen])
	}

	if m.IsCastle {
		rookStart, rookEnd := RookMoveForCastle(m)
		g.Board.Set(rookEnd, g.Board.At(rookStart))
		g.Board.Set(rookStart, XX)
	}

	if m.PieceMoved.PieceType() == King {
		g.KingSquares[player] = m.End
	}

	if m.PieceMoved.PieceType() == Pawn && AbsDiff(m.Start.Row, m.End.Row) == 2 {
		g.EnPassantTarget = Some(Square{(m.Start.Row + m.End.Row) / 2, m.Start.Col})
	} else {
		g.EnPassantTarget = Empty[Square]()
	}

	g.updateCastlingRights(m)

	if m.PieceMoved.PieceType() == Pawn || m.IsCapture() {
		g.HalfMoveClock = 0
	} else {
		g.HalfMoveClock++
	}
	if player == Black {
		g.FullMoveClock++
	}

	g.Player = player.Other()
}

func (g *GameState) updateCastlingRights(m Move) {
	player := m.PieceMoved.Player()

	if m.PieceMoved.PieceType() == King {
		g.CastlingRights[player][Kingside] = false
		g.CastlingRights[player][Queenside] = false
	} else if m.PieceMoved.PieceType() == Rook {
		g.clearRightsForRookSquare(player, m.Start)
	}

	if m.PieceCaptured.PieceType() == Rook {
		g.clearRightsForRookSquare(m.PieceCaptured.Player(), m.End)
	}
}

func (g *GameState) clearRightsForRookSquare(player Player, s Square) {
	if s.Row != player.HomeRow() {
		return
	}
	for _, side := range AllCastlingSides {
		if s.Col == side.RookCol() {
			g.CastlingRights[player][side] = false
		}
	}
}

// No-op when there's nothing to undo.
func (g *GameState) UndoMove() {
	if len(g.History) == 0 {
		return
	}

	entry := g.History[len(g.History)-1]
	g.History = g.History[:len(g.History)-1]
	m := entry.Move

	g.Board.Set(m.Start, m.PieceMoved)
	g.Board.Set(m.End, m.PieceCaptured)

	if m.IsEnPassant {
		g.Board.Set(m.End, XX)
		g.Board.Set(Square{m.Start.Row, m.End.Col}, m.PieceCaptured)
	}

	if m.IsCastle {
		rookStart, rookEnd := RookMoveForCastle(m)
		g.Board.Set(rookStart, g.Board.At(rookEnd))
		g.Board.Set(rookEnd, XX)
	}

	if m.PieceMoved.PieceType() == King {
		g.KingSquares[m.PieceMoved.Player()] = m.Start
	}

	g.CastlingRights = entry.PrevCastlingRights
	g.EnPassantTarget = entry.PrevEnPassantTarget
	g.HalfMoveClock = entry.PrevHalfMoveClock
	g.FullMoveClock = entry.PrevFullMoveClock
	g.InCheck = entry.PrevInCheck

	g.Player = m.PieceMoved.Player()

	g.Checkmate = false
	g.Stalemate = false
}

// Rook origin and destination for a castling king move.
func RookMoveForCastle(m Move) (Square, Square) {
	row := m.End.Row
	if m.End.Col > m.Start.Col {
		return Square{row, Kingside.RookCol()}, Square{row, m.End.Col - 1}
	}
	return Square{row, Queenside.RookCol()}, Square{row, m.End.Col + 1}
}
