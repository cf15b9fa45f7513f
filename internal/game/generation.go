package game

import (
	. "github.com/cricklet/chessmate/internal/helpers"
)

type moveContext struct {
	inCheck bool
	pins    []Pin
	checks  []Check
}

func (c *moveContext) pinDirection(s Square) Optional[Direction] {
	for _, pin := range c.pins {
		if pin.Square == s {
			return Some(pin.Direction)
		}
	}
	return Empty[Direction]()
}

// Pinned pieces may only slide along the line through their king.
func (c *moveContext) canMoveAlong(s Square, d Direction) bool {
	pin := c.pinDirection(s)
	return pin.IsEmpty() || pin.Value().SameAxis(d)
}

type pieceMoveGenerator func(g *GameState, s Square, ctx *moveContext, moves []Move) []Move

var pieceMoveGenerators = [6]pieceMoveGenerator{
	Rook:   rookMoves,
	Knight: knightMoves,
	Bishop: bishopMoves,
	King:   kingMoves,
	Queen:  queenMoves,
	Pawn:   pawnMoves,
}

func GenerateLegalMoves(g *GameState) []Move {
	moves := []Move{}
	GenerateLegalMovesInto(g, &moves)
	return moves
}

// Overwrites output with the legal moves for the side to move and updates
// InCheck / Checkmate / Stalemate.
func GenerateLegalMovesInto(g *GameState, output *[]Move) {
	inCheck, pins, checks := PinsAndChecks(g)
	ctx := moveContext{inCheck: inCheck, pins: pins, checks: checks}
	king := g.KingSquare(g.Player)

	moves := (*output)[:0]

	if len(checks) > 1 {
		moves = kingMoves(g, king, &ctx, moves)
	} else {
		moves = generatePseudoMoves(g, &ctx, moves)

		if inCheck {
			validSquares := checkResolvingSquares(g, king, checks[0])
			filtered := FilterSlice(moves, func(m Move) bool {
				if m.PieceMoved.PieceType() == King {
					return true
				}
				return Contains(validSquares, m.End) || Contains(validSquares, m.CaptureSquare())
			})
			moves = append(moves[:0], filtered...)
		}
	}

	*output = moves

	g.InCheck = inCheck
	if len(moves) == 0 {
		g.Checkmate = inCheck
		g.Stalemate = !inCheck
	} else {
		g.Checkmate = false
		g.Stalemate = false
	}
}

func generatePseudoMoves(g *GameState, ctx *moveContext, moves []Move) []Move {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			piece := g.Board[row][col]
			if !piece.BelongsTo(g.Player) {
				continue
			}
			moves = pieceMoveGenerators[piece.PieceType()](g, Square{row, col}, ctx, moves)
		}
	}
	return moves
}

// Squares a non-king piece can move to (or capture on) to answer a single
// check: the checker itself plus, for sliders, the squares in between.
func checkResolvingSquares(g *GameState, king Square, check Check) []Square {
	if g.Board.At(check.Square).PieceType() == Knight {
		return []Square{check.Square}
	}

	result := []Square{}
	for i := 1; i < 8; i++ {
		s := king.Add(check.Direction, i)
		result = append(result, s)
		if s == check.Square {
			break
		}
	}
	return result
}

func slidingMoves(g *GameState, s Square, ctx *moveContext, directions []Direction, moves []Move) []Move {
	enemy := g.Enemy()
	for _, d := range directions {
		if !ctx.canMoveAlong(s, d) {
			continue
		}
		for i := 1; i < 8; i++ {
			end := s.Add(d, i)
			if !end.IsValid() {
				break
			}
			piece := g.Board.At(end)
			if piece == XX {
				moves = append(moves, NewMove(g, s, end))
				continue
			}
			if piece.BelongsTo(enemy) {
				moves = append(moves, NewMove(g, s, end))
			}
			break
		}
	}
	return moves
}

func rookMoves(g *GameState, s Square, ctx *moveContext, moves []Move) []Move {
	return slidingMoves(g, s, ctx, OrthogonalDirections[:], moves)
}

func bishopMoves(g *GameState, s Square, ctx *moveContext, moves []Move) []Move {
	return slidingMoves(g, s, ctx, DiagonalDirections[:], moves)
}

func queenMoves(g *GameState, s Square, ctx *moveContext, moves []Move) []Move {
	return slidingMoves(g, s, ctx, AllDirections[:], moves)
}

func knightMoves(g *GameState, s Square, ctx *moveContext, moves []Move) []Move {
	// a pinned knight can never stay on the pin line
	if ctx.pinDirection(s).HasValue() {
		return moves
	}
	for _, offset := range KnightOffsets {
		end := s.Add(offset, 1)
		if end.IsValid() && !g.Board.At(end).BelongsTo(g.Player) {
			moves = append(moves, NewMove(g, s, end))
		}
	}
	return moves
}

func pawnMoves(g *GameState, s Square, ctx *moveContext, moves []Move) []Move {
	player := g.Player
	forward := Direction{player.Forward(), 0}

	if ctx.canMoveAlong(s, forward) {
		one := s.Add(forward, 1)
		if one.IsValid() && g.Board.At(one) == XX {
			moves = append(moves, NewMove(g, s, one))

			two := s.Add(forward, 2)
			if s.Row == player.PawnStartRow() && g.Board.At(two) == XX {
				moves = append(moves, NewMove(g, s, two))
			}
		}
	}

	for _, dCol := range [2]int{-1, 1} {
		d := Direction{player.Forward(), dCol}
		end := s.Add(d, 1)
		if !end.IsValid() || !ctx.canMoveAlong(s, d) {
			continue
		}
		if g.Board.At(end).BelongsTo(player.Other()) {
			moves = append(moves, NewMove(g, s, end))
		} else if g.EnPassantTarget.HasValue() && g.EnPassantTarget.Value() == end {
			if g.Board.At(Square{s.Row, end.Col}) == PieceForPlayer[player.Other()][Pawn] && enPassantIsSafe(g, s, end) {
				moves = append(moves, NewEnPassantMove(g, s, end))
			}
		}
	}

	return moves
}

// En passant empties two squares on the mover's rank at once, which can open
// a line onto the king that no pin records. Play it out and look.
func enPassantIsSafe(g *GameState, start Square, end Square) bool {
	captured := Square{start.Row, end.Col}

	pawn := g.Board.At(start)
	capturedPawn := g.Board.At(captured)
	previousEnd := g.Board.At(end)

	g.Board.Set(start, XX)
	g.Board.Set(captured, XX)
	g.Board.Set(end, pawn)

	attacked := SquareIsAttacked(g, g.KingSquare(g.Player), g.Player)

	g.Board.Set(end, previousEnd)
	g.Board.Set(captured, capturedPawn)
	g.Board.Set(start, pawn)

	return !attacked
}

func kingMoves(g *GameState, s Square, ctx *moveContext, moves []Move) []Move {
	for _, d := range AllDirections {
		end := s.Add(d, 1)
		if !end.IsValid() || g.Board.At(end).BelongsTo(g.Player) {
			continue
		}
		move := NewMove(g, s, end)
		if !kingDestinationIsAttacked(g, s, end) {
			moves = append(moves, move)
		}
	}

	return castlingMoves(g, s, ctx, moves)
}

// Temporarily relocates the king, re-runs the analyzer, then puts everything
// back.
func kingDestinationIsAttacked(g *GameState, start Square, end Square) bool {
	player := g.Player
	king := g.Board.At(start)
	captured := g.Board.At(end)

	g.Board.Set(end, king)
	g.Board.Set(start, XX)
	g.KingSquares[player] = end

	inCheck, _, _ := PinsAndChecks(g)

	g.KingSquares[player] = start
	g.Board.Set(start, king)
	g.Board.Set(end, captured)

	return inCheck
}

func castlingMoves(g *GameState, s Square, ctx *moveContext, moves []Move) []Move {
	if ctx.inCheck {
		return moves
	}

	player := g.Player
	homeRow := player.HomeRow()
	if s != (Square{homeRow, 4}) {
		return moves
	}

	for _, side := range AllCastlingSides {
		if !g.CastlingRights[player][side] {
			continue
		}

		rookSquare := Square{homeRow, side.RookCol()}
		if g.Board.At(rookSquare) != PieceForPlayer[player][Rook] {
			continue
		}

		step := 1
		if side == Queenside {
			step = -1
		}

		pathIsEmpty := true
		for col := s.Col + step; col != rookSquare.Col; col += step {
			if g.Board[homeRow][col] != XX {
				pathIsEmpty = false
				break
			}
		}
		if !pathIsEmpty {
			continue
		}

		transit := Square{homeRow, s.Col + step}
		end := Square{homeRow, s.Col + 2*step}
		if SquareIsAttacked(g, transit, player) || SquareIsAttacked(g, end, player) {
			continue
		}

		moves = append(moves, NewCastlingMove(g, s, end))
	}

	return moves
}
