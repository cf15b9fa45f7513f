package game

import (
	. "github.com/cricklet/chessmate/internal/helpers"
)

// A friendly piece standing between the king and an enemy slider. Direction
// points from the king towards the pinned piece.
type Pin struct {
	Square    Square
	Direction Direction
}

// An enemy piece attacking the king. Direction points from the king towards
// the attacker (a knight offset for knight checks).
type Check struct {
	Square    Square
	Direction Direction
}

// Scans outward from the side-to-move king.
func PinsAndChecks(g *GameState) (bool, []Pin, []Check) {
	return pinsAndChecksFrom(g, g.KingSquare(g.Player), g.Player)
}

// Whether player's enemy attacks s. player's own king is treated as
// transparent so squares the king is about to cross can be tested.
func SquareIsAttacked(g *GameState, s Square, player Player) bool {
	inCheck, _, _ := pinsAndChecksFrom(g, s, player)
	return inCheck
}

func pinsAndChecksFrom(g *GameState, origin Square, player Player) (bool, []Pin, []Check) {
	var pins []Pin
	var checks []Check

	for _, d := range AllDirections {
		possiblePin := Empty[Pin]()
		for i := 1; i < 8; i++ {
			s := origin.Add(d, i)
			if !s.IsValid() {
				break
			}

			piece := g.Board.At(s)
			if piece == XX {
				continue
			}

			if piece.BelongsTo(player) {
				if piece.PieceType() == King {
					continue
				}
				if possiblePin.IsEmpty() {
					possiblePin = Some(Pin{s, d})
					continue
				}
				// two friendly pieces shield the origin
				break
			}

			if attacksAlongRay(piece, d, i) {
				if possiblePin.IsEmpty() {
					checks = append(checks, Check{s, d})
				} else {
					pins = append(pins, possiblePin.Value())
				}
			}
			break
		}
	}

	enemyKnight := PieceForPlayer[player.Other()][Knight]
	for _, offset := range KnightOffsets {
		s := origin.Add(offset, 1)
		if s.IsValid() && g.Board.At(s) == enemyKnight {
			checks = append(checks, Check{s, offset})
		}
	}

	return len(checks) > 0, pins, checks
}

// d points from the target towards piece, distance squares away.
func attacksAlongRay(piece Piece, d Direction, distance int) bool {
	switch piece.PieceType() {
	case Rook:
		return d.IsOrthogonal()
	case Bishop:
		return !d.IsOrthogonal()
	case Queen:
		return true
	case King:
		return distance == 1
	case Pawn:
		// a pawn attacks diagonally forward, so it sits diagonally behind
		// (relative to its own direction) the square it attacks
		return distance == 1 && !d.IsOrthogonal() && d.DRow == -piece.Player().Forward()
	}
	return false
}
