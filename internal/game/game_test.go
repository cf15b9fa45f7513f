package game

import (
	"math/rand"
	"sort"
	"testing"

	. "github.com/cricklet/chessmate/internal/helpers"
	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

const kiwipeteFen = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
const endgameFen = "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1"

func pp(t any) string {
	return spew.Sdump(t)
}

func parseFen(t *testing.T, fen string) *GameState {
	g, err := GamestateFromFenString(fen)
	assert.True(t, IsNil(err), err.String())
	return g
}

func moveStrings(moves []Move) []string {
	result := MapSlice(moves, func(m Move) string { return m.String() })
	sort.Strings(result)
	return result
}

func playMoves(t *testing.T, g *GameState, moves ...string) {
	for _, s := range moves {
		move, err := FindMove(GenerateLegalMoves(g), s)
		assert.True(t, IsNil(err), err.String())
		if !assert.True(t, move.HasValue(), "%v is not legal in\n%v", s, g.Board.Unicode()) {
			return
		}
		g.MakeMove(move.Value())
	}
}

type stateSnapshot struct {
	Board          BoardArray
	Player         Player
	KingSquares    [2]Square
	CastlingRights [2][2]bool
	EnPassant      string
	HalfMoveClock  int
	FullMoveClock  int
	HistoryLength  int
}

func snapshot(g *GameState) stateSnapshot {
	return stateSnapshot{
		Board:          g.Board,
		Player:         g.Player,
		KingSquares:    g.KingSquares,
		CastlingRights: g.CastlingRights,
		EnPassant:      fenStringForEnPassant(g.EnPassantTarget),
		HalfMoveClock:  g.HalfMoveClock,
		FullMoveClock:  g.FullMoveClock,
		HistoryLength:  len(g.History),
	}
}

func TestInitialMoves(t *testing.T) {
	g := NewGame()
	moves := GenerateLegalMoves(g)
	assert.Equal(t, 20, len(moves))
	assert.False(t, g.InCheck)
	assert.False(t, g.Checkmate)
	assert.False(t, g.Stalemate)

	assert.Equal(t, StartingFen, FenStringForGame(g))
}

func TestRookCheckOnFile(t *testing.T) {
	g := parseFen(t, "4r2k/8/8/8/R7/8/3N4/4K3 w - - 0 1")
	moves := GenerateLegalMoves(g)

	assert.True(t, g.InCheck)
	assert.Equal(t, []string{"a4e4", "d2e4", "e1d1", "e1f1", "e1f2"}, moveStrings(moves))
}

func TestDoubleCheckOnlyKingMoves(t *testing.T) {
	g := parseFen(t, "4k3/8/8/8/1b6/5n2/8/R3K3 w Q - 0 1")
	inCheck, _, checks := PinsAndChecks(g)
	assert.True(t, inCheck)
	assert.Equal(t, 2, len(checks), pp(checks))

	moves := GenerateLegalMoves(g)
	assert.Equal(t, []string{"e1d1", "e1e2", "e1f1", "e1f2"}, moveStrings(moves))
	for _, m := range moves {
		assert.Equal(t, King, m.PieceMoved.PieceType())
	}
}

func TestPinnedPawnCapturesAlongPin(t *testing.T) {
	g := parseFen(t, "4k3/8/8/8/8/6b1/5P2/4K3 w - - 0 1")
	_, pins, _ := PinsAndChecks(g)
	assert.Equal(t, []Pin{{Square{6, 5}, NE}}, pins)

	moves := FilterSlice(GenerateLegalMoves(g), func(m Move) bool {
		return m.PieceMoved == WP
	})
	assert.Equal(t, []string{"f2g3"}, moveStrings(moves))
}

func TestPinnedRookSlidesAlongPin(t *testing.T) {
	g := parseFen(t, "4r2k/8/8/8/8/8/4R3/4K3 w - - 0 1")
	moves := FilterSlice(GenerateLegalMoves(g), func(m Move) bool {
		return m.PieceMoved == WR
	})
	assert.Equal(t, []string{"e2e3", "e2e4", "e2e5", "e2e6", "e2e7", "e2e8"}, moveStrings(moves))
}

func TestEnPassantTarget(t *testing.T) {
	g := NewGame()
	playMoves(t, g, "e2e4")
	assert.Equal(t, Some(Square{5, 4}), g.EnPassantTarget)
	assert.Equal(t, "e3", g.EnPassantTarget.Value().String())

	playMoves(t, g, "g8f6")
	assert.True(t, g.EnPassantTarget.IsEmpty())

	g.UndoMove()
	assert.Equal(t, Some(Square{5, 4}), g.EnPassantTarget)
}

func TestEnPassantCapture(t *testing.T) {
	g := parseFen(t, "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 1")
	before := snapshot(g)

	move, err := FindMove(GenerateLegalMoves(g), "e5d6")
	assert.True(t, IsNil(err))
	assert.True(t, move.HasValue())
	assert.True(t, move.Value().IsEnPassant)
	assert.Equal(t, "exd6", Notation(move.Value()))

	g.MakeMove(move.Value())
	assert.Equal(t, WP, g.Board.At(Square{2, 3}))
	assert.Equal(t, XX, g.Board.At(Square{3, 3}))
	assert.Equal(t, XX, g.Board.At(Square{3, 4}))

	g.UndoMove()
	assert.Equal(t, "", cmp.Diff(before, snapshot(g)))
}

func TestEnPassantExposingKing(t *testing.T) {
	g := parseFen(t, "8/8/8/K2pP2r/8/8/8/4k3 w - d6 0 1")
	move, _ := FindMove(GenerateLegalMoves(g), "e5d6")
	assert.True(t, move.IsEmpty())

	// same shape without the rook is fine
	g = parseFen(t, "8/8/8/K2pP3/8/8/8/4k3 w - d6 0 1")
	move, _ = FindMove(GenerateLegalMoves(g), "e5d6")
	assert.True(t, move.HasValue())
}

func TestEnPassantResolvesPawnCheck(t *testing.T) {
	// the d5 pawn gives check and can only be taken en passant
	g := parseFen(t, "8/8/8/3pP3/4K3/8/8/7k w - d6 0 1")
	assert.True(t, g.InCheck)
	moves := GenerateLegalMoves(g)
	assert.Contains(t, moveStrings(moves), "e5d6")
}

func TestEnPassantNeedsEnemyPawn(t *testing.T) {
	for _, fen := range []string{
		// nothing was pushed past d6
		"4k3/8/8/4P3/8/8/8/4K3 w - d6 0 1",
		// white's own pawn sits behind e3
		"4k3/8/8/8/8/8/3PP3/K7 w - e3 0 1",
		// wrong rank for the side to move
		"4k3/8/8/3pP3/8/8/8/4K3 b - d6 0 1",
		// target square is occupied
		"4k3/8/3n4/3pP3/8/8/8/4K3 w - d6 0 1",
	} {
		_, err := GamestateFromFenString(fen)
		assert.False(t, IsNil(err), fen)
	}

	// a target set without a pawn to capture generates nothing
	g := parseFen(t, "4k3/8/8/4P3/8/8/8/4K3 w - - 0 1")
	g.EnPassantTarget = Some(Square{2, 3})
	before := snapshot(g)
	assert.NotContains(t, moveStrings(GenerateLegalMoves(g)), "e5d6")

	g = parseFen(t, "4k3/8/8/8/8/8/3PP3/K7 w - - 0 1")
	g.EnPassantTarget = Some(Square{5, 4})
	moves := GenerateLegalMoves(g)
	assert.NotContains(t, moveStrings(moves), "d2e3")
	for _, m := range moves {
		assert.False(t, m.IsEnPassant, m.String())
	}

	g = parseFen(t, "4k3/8/8/4P3/8/8/8/4K3 w - - 0 1")
	g.EnPassantTarget = Some(Square{2, 3})
	for _, m := range GenerateLegalMoves(g) {
		g.MakeMove(m)
		g.UndoMove()
	}
	assert.Equal(t, "", cmp.Diff(before, snapshot(g)))
}

func TestKnightCheckOnlyCaptureOrKingMove(t *testing.T) {
	g := parseFen(t, "3R3k/8/8/8/8/3n4/2B5/4K3 w - - 0 1")
	inCheck, _, checks := PinsAndChecks(g)
	assert.True(t, inCheck)
	assert.Equal(t, 1, len(checks), pp(checks))

	moves := moveStrings(GenerateLegalMoves(g))
	assert.Equal(t, []string{"c2d3", "d8d3", "e1d1", "e1d2", "e1e2", "e1f1"}, moves)

	// the rook and bishop reach squares around the king but nothing blocks a knight
	assert.NotContains(t, moves, "d8d2")
	assert.NotContains(t, moves, "c2d1")
}

func TestCastling(t *testing.T) {
	g := parseFen(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	before := snapshot(g)

	moves := moveStrings(GenerateLegalMoves(g))
	assert.Contains(t, moves, "e1g1")
	assert.Contains(t, moves, "e1c1")

	playMoves(t, g, "e1g1")
	assert.Equal(t, WK, g.Board.At(Square{7, 6}))
	assert.Equal(t, WR, g.Board.At(Square{7, 5}))
	assert.Equal(t, XX, g.Board.At(Square{7, 7}))
	assert.False(t, g.CanCastle(White, Kingside))
	assert.False(t, g.CanCastle(White, Queenside))
	assert.Equal(t, "O-O", Notation(g.LastMove().Value()))

	g.UndoMove()
	assert.Equal(t, "", cmp.Diff(before, snapshot(g)))

	playMoves(t, g, "e1c1")
	assert.Equal(t, WK, g.Board.At(Square{7, 2}))
	assert.Equal(t, WR, g.Board.At(Square{7, 3}))
	assert.Equal(t, "O-O-O", Notation(g.LastMove().Value()))
}

func TestCastlingBlocked(t *testing.T) {
	// f1 is attacked
	g := parseFen(t, "r3k2r/8/8/8/8/8/5r2/R3K2R w KQkq - 0 1")
	moves := moveStrings(GenerateLegalMoves(g))
	assert.NotContains(t, moves, "e1g1")
	assert.Contains(t, moves, "e1c1")

	// b1 is occupied
	g = parseFen(t, "r3k2r/8/8/8/8/8/8/RN2K2R w KQkq - 0 1")
	moves = moveStrings(GenerateLegalMoves(g))
	assert.NotContains(t, moves, "e1c1")
	assert.Contains(t, moves, "e1g1")

	// no castling out of check
	g = parseFen(t, "4k3/8/8/8/8/8/4r3/R3K2R w KQ - 0 1")
	moves = moveStrings(GenerateLegalMoves(g))
	assert.NotContains(t, moves, "e1g1")
	assert.NotContains(t, moves, "e1c1")
}

func TestCastlingRightsNeverRestored(t *testing.T) {
	g := parseFen(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	playMoves(t, g, "h1h2", "a8a7", "h2h1", "a7a8")

	assert.False(t, g.CanCastle(White, Kingside))
	assert.True(t, g.CanCastle(White, Queenside))
	assert.True(t, g.CanCastle(Black, Kingside))
	assert.False(t, g.CanCastle(Black, Queenside))

	moves := moveStrings(GenerateLegalMoves(g))
	assert.NotContains(t, moves, "e1g1")
	assert.Equal(t, "Qk", fenStringForCastlingRights(g.CastlingRights))
}

func TestCapturingRookClearsRights(t *testing.T) {
	g := parseFen(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	playMoves(t, g, "a1a8")
	assert.False(t, g.CanCastle(White, Queenside))
	assert.False(t, g.CanCastle(Black, Queenside))
	assert.True(t, g.CanCastle(Black, Kingside))
}

func TestPromotion(t *testing.T) {
	g := parseFen(t, "8/P6k/8/8/8/8/8/K7 w - - 0 1")
	before := snapshot(g)

	playMoves(t, g, "a7a8")
	assert.Equal(t, WQ, g.Board.At(Square{0, 0}))
	assert.True(t, g.LastMove().Value().IsPromotion)

	g.UndoMove()
	assert.Equal(t, WP, g.Board.At(Square{1, 0}))
	assert.Equal(t, "", cmp.Diff(before, snapshot(g)))
}

func TestBackRankMate(t *testing.T) {
	g := parseFen(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	playMoves(t, g, "a1a8")

	moves := GenerateLegalMoves(g)
	assert.Equal(t, 0, len(moves))
	assert.True(t, g.InCheck)
	assert.True(t, g.Checkmate)
	assert.False(t, g.Stalemate)

	g.UndoMove()
	assert.False(t, g.Checkmate)
}

func TestStalemate(t *testing.T) {
	g := parseFen(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	moves := GenerateLegalMoves(g)
	assert.Equal(t, 0, len(moves))
	assert.False(t, g.InCheck)
	assert.False(t, g.Checkmate)
	assert.True(t, g.Stalemate)
}

func TestUndoOnEmptyHistory(t *testing.T) {
	g := NewGame()
	before := snapshot(g)
	g.UndoMove()
	assert.Equal(t, "", cmp.Diff(before, snapshot(g)))
}

func TestClocks(t *testing.T) {
	g := NewGame()
	playMoves(t, g, "g1f3", "g8f6", "f3g1")
	assert.Equal(t, 3, g.HalfMoveClock)
	assert.Equal(t, 2, g.FullMoveClock)

	playMoves(t, g, "e7e5")
	assert.Equal(t, 0, g.HalfMoveClock)
	assert.Equal(t, 3, g.FullMoveClock)
}

func TestRandomWalkMakeUndo(t *testing.T) {
	for _, fen := range []string{StartingFen, kiwipeteFen, endgameFen} {
		r := rand.New(rand.NewSource(42))
		g := parseFen(t, fen)

		for ply := 0; ply < 120; ply++ {
			moves := GenerateLegalMoves(g)
			if len(moves) == 0 {
				break
			}

			before := snapshot(g)
			for _, move := range moves {
				mover := g.Player
				g.MakeMove(move)
				g.CheckInvariants()
				assert.False(t, SquareIsAttacked(g, g.KingSquare(mover), mover),
					"%v leaves the king attacked in %v", move.DebugString(), FenStringForGame(g))
				g.UndoMove()

				if diff := cmp.Diff(before, snapshot(g)); diff != "" {
					t.Fatalf("undo of %v did not restore state: %v", move.DebugString(), diff)
				}
			}

			g.MakeMove(moves[r.Intn(len(moves))])
		}
	}
}

func TestFenRoundTrip(t *testing.T) {
	for _, fen := range []string{
		StartingFen,
		kiwipeteFen,
		endgameFen,
		"rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2",
	} {
		g := parseFen(t, fen)
		assert.Equal(t, fen, FenStringForGame(g))
	}

	g := NewGame()
	playMoves(t, g, "e2e4")
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1", FenStringForGame(g))
}

func TestFenErrors(t *testing.T) {
	for _, fen := range []string{
		"",
		"8/8/8/8/8/8/8/8 w - - 0 1",
		"4k3/8/8/8/8/8/8/4KK2 w - - 0 1",
		"4k3/8/8/8/8/8/8/4X3 w - - 0 1",
		"4k3/8/8/8/8/8/4K3 w - - 0 1",
		"4k3/8/8/8/8/8/8/4K3 x - - 0 1",
		"4k3/8/8/8/8/8/8/4K3 w - z9 0 1",
		"4k3/8/8/8/8/8/8/4K3 w - - -1 1",
		"4k3/8/8/8/8/8/8/4K3 w - - 0 0",
		"4k3/8/8/8/8/8/8/4K3 w - - 0 -3",
	} {
		_, err := GamestateFromFenString(fen)
		assert.False(t, IsNil(err), fen)
	}
}

func TestNotationAndMoveLog(t *testing.T) {
	g := NewGame()
	playMoves(t, g, "e2e4", "e7e5", "g1f3", "b8c6", "f1b5", "a7a6", "b5c6")

	moves := MapSlice(g.History, func(h HistoryEntry) Move { return h.Move })
	assert.Equal(t, []string{
		"1. e4 e5",
		"2. Nf3 Nc6",
		"3. Bb5 a6",
		"4. Bxc6",
	}, MoveLog(moves))

	playMoves(t, g, "d7c6")
	assert.Equal(t, "dxc6", Notation(g.LastMove().Value()))
}

func TestFindMove(t *testing.T) {
	moves := GenerateLegalMoves(NewGame())

	move, err := FindMove(moves, "e2e4")
	assert.True(t, IsNil(err))
	assert.Equal(t, "e2e4", move.Value().String())

	move, err = FindMove(moves, "e2e5")
	assert.True(t, IsNil(err))
	assert.True(t, move.IsEmpty())

	_, err = FindMove(moves, "zz")
	assert.False(t, IsNil(err))
}

func TestPerft(t *testing.T) {
	testCases := []struct {
		fen    string
		counts []int
	}{
		{StartingFen, []int{20, 400, 8902}},
		{kiwipeteFen, []int{48, 2039}},
		{endgameFen, []int{14, 191, 2812}},
	}

	for _, tc := range testCases {
		g := parseFen(t, tc.fen)
		for i, expected := range tc.counts {
			before := snapshot(g)
			assert.Equal(t, expected, Perft(g, i+1).Leaves, "%v depth %v", tc.fen, i+1)
			assert.Equal(t, "", cmp.Diff(before, snapshot(g)))
		}
	}
}

func TestPerftDivide(t *testing.T) {
	g := NewGame()
	done := 0
	divide := PerftDivide(g, 2, func(n int, total int) {
		done = n
		assert.Equal(t, 20, total)
	})
	assert.Equal(t, 20, done)
	assert.Equal(t, 20, len(divide))
	assert.Equal(t, 20, divide["e2e4"].Leaves)

	sum := PerftResult{}
	for _, result := range divide {
		sum.Add(result)
	}
	assert.Equal(t, 400, sum.Leaves)
}
