package game

import (
	"fmt"
)

type PerftResult struct {
	Leaves     int
	Captures   int
	EnPassants int
	Castles    int
	Promotions int
}

func (p *PerftResult) Add(o PerftResult) {
	p.Leaves += o.Leaves
	p.Captures += o.Captures
	p.EnPassants += o.EnPassants
	p.Castles += o.Castles
	p.Promotions += o.Promotions
}

func (p PerftResult) String() string {
	return fmt.Sprintf("leaves: %v, captures: %v, e.p.: %v, castles: %v, promotions: %v",
		p.Leaves, p.Captures, p.EnPassants, p.Castles, p.Promotions)
}

func countMove(m Move) PerftResult {
	result := PerftResult{Leaves: 1}
	if m.IsCapture() {
		result.Captures = 1
	}
	if m.IsEnPassant {
		result.EnPassants = 1
	}
	if m.IsCastle {
		result.Castles = 1
	}
	if m.IsPromotion {
		result.Promotions = 1
	}
	return result
}

// Counts leaf nodes depth plies below g. g is restored before returning.
func Perft(g *GameState, depth int) PerftResult {
	if depth == 0 {
		return PerftResult{Leaves: 1}
	}

	moves := GenerateLegalMoves(g)
	result := PerftResult{}

	for _, move := range moves {
		if depth == 1 {
			result.Add(countMove(move))
			continue
		}
		g.MakeMove(move)
		result.Add(Perft(g, depth-1))
		g.UndoMove()
	}

	return result
}

// Per root move results, keyed by coordinate string. progress is called after
// each root move with the number finished so far.
func PerftDivide(g *GameState, depth int, progress func(done int, total int)) map[string]PerftResult {
	result := make(map[string]PerftResult)
	if depth <= 0 {
		return result
	}

	moves := GenerateLegalMoves(g)
	for i, move := range moves {
		g.MakeMove(move)
		if depth == 1 {
			result[move.String()] = countMove(move)
		} else {
			result[move.String()] = Perft(g, depth-1)
		}
		g.UndoMove()

		if progress != nil {
			progress(i+1, len(moves))
		}
	}

	return result
}
