package search

import (
	. "github.com/cricklet/chessmate/internal/game"
	. "github.com/cricklet/chessmate/internal/helpers"
)

// Scores are in tenths of a pawn.
const (
	Checkmate = 10000
	Stalemate = 0
	Inf       = 2 * Checkmate
)

// Material per piece type, indexed by PieceType.
var PieceValues = [6]int{
	Rook:   50,
	Knight: 30,
	Bishop: 30,
	King:   0,
	Queen:  90,
	Pawn:   10,
}

var knightScores = [8][8]int{
	{1, 1, 1, 1, 1, 1, 1, 1},
	{1, 2, 2, 2, 2, 2, 2, 1},
	{1, 2, 3, 3, 3, 3, 2, 1},
	{1, 2, 3, 4, 4, 3, 2, 1},
	{1, 2, 3, 4, 4, 3, 2, 1},
	{1, 2, 3, 3, 3, 3, 2, 1},
	{1, 2, 2, 2, 2, 2, 2, 1},
	{1, 1, 1, 1, 1, 1, 1, 1},
}

var bishopScores = [8][8]int{
	{4, 3, 2, 1, 1, 2, 3, 4},
	{3, 4, 3, 2, 2, 3, 4, 3},
	{2, 3, 4, 3, 3, 4, 3, 2},
	{1, 2, 3, 4, 4, 3, 2, 1},
	{1, 2, 3, 4, 4, 3, 2, 1},
	{2, 3, 4, 3, 3, 4, 3, 2},
	{3, 4, 3, 2, 2, 3, 4, 3},
	{4, 3, 2, 1, 1, 2, 3, 4},
}

var queenScores = [8][8]int{
	{1, 1, 1, 3, 1, 1, 1, 1},
	{1, 2, 3, 3, 3, 3, 1, 1},
	{1, 4, 3, 3, 3, 4, 2, 1},
	{1, 2, 3, 3, 3, 2, 2, 1},
	{1, 2, 3, 3, 3, 2, 2, 1},
	{1, 4, 3, 3, 3, 4, 2, 1},
	{1, 1, 2, 3, 3, 1, 1, 1},
	{1, 1, 1, 3, 1, 1, 1, 1},
}

var rookScores = [8][8]int{
	{4, 3, 4, 4, 4, 4, 3, 4},
	{4, 4, 4, 4, 4, 4, 4, 4},
	{1, 1, 2, 3, 3, 2, 1, 1},
	{1, 2, 3, 4, 4, 3, 2, 1},
	{1, 2, 3, 4, 4, 3, 2, 1},
	{1, 1, 2, 2, 2, 2, 1, 1},
	{4, 4, 4, 4, 4, 4, 4, 4},
	{4, 3, 4, 4, 4, 4, 3, 4},
}

var whitePawnScores = [8][8]int{
	{8, 8, 8, 8, 8, 8, 8, 8},
	{8, 8, 8, 8, 8, 8, 8, 8},
	{5, 6, 6, 7, 7, 6, 6, 5},
	{2, 3, 3, 5, 5, 3, 3, 2},
	{1, 2, 3, 4, 4, 3, 2, 1},
	{1, 1, 2, 3, 3, 2, 1, 1},
	{1, 1, 1, 0, 0, 1, 1, 1},
	{0, 0, 0, 0, 0, 0, 0, 0},
}

var zeroScores = [8][8]int{}

// Positional bonus per player and piece type. Black reads the white tables
// upside down.
var PositionScores = [2][6][8][8]int{
	{
		Rook:   rookScores,
		Knight: knightScores,
		Bishop: bishopScores,
		King:   zeroScores,
		Queen:  queenScores,
		Pawn:   whitePawnScores,
	},
	{
		Rook:   FlipArray(rookScores),
		Knight: FlipArray(knightScores),
		Bishop: FlipArray(bishopScores),
		King:   zeroScores,
		Queen:  FlipArray(queenScores),
		Pawn:   FlipArray(whitePawnScores),
	},
}

func EvaluatePiece(piece Piece, s Square) int {
	pieceType := piece.PieceType()
	return PieceValues[pieceType] + PositionScores[piece.Player()][pieceType][s.Row][s.Col]
}

// Positive favours white. Reads the status flags left by the last
// GenerateLegalMoves call on g.
func Evaluate(g *GameState) int {
	if g.Checkmate {
		if g.Player == White {
			return -Checkmate
		}
		return Checkmate
	} else if g.Stalemate {
		return Stalemate
	}

	return EvaluateMaterial(g.Board)
}

func EvaluateMaterial(b BoardArray) int {
	score := 0
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			piece := b[row][col]
			if piece == XX {
				continue
			}
			if piece.IsWhite() {
				score += EvaluatePiece(piece, Square{row, col})
			} else {
				score -= EvaluatePiece(piece, Square{row, col})
			}
		}
	}
	return score
}
