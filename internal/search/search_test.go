package search

import (
	"math/rand"
	"sort"
	"testing"

	. "github.com/cricklet/chessmate/internal/game"
	. "github.com/cricklet/chessmate/internal/helpers"
	"github.com/stretchr/testify/assert"
)

func searchFen(t *testing.T, fen string, opts ...SearchOption) (*GameState, Optional[Move]) {
	g, err := GamestateFromFenString(fen)
	assert.True(t, IsNil(err), err)

	moves := GenerateLegalMoves(g)
	opts = append([]SearchOption{WithRand(rand.New(rand.NewSource(1)))}, opts...)
	return g, FindBestMove(g, moves, opts...)
}

func TestOpening(t *testing.T) {
	g := NewGame()
	moves := GenerateLegalMoves(g)
	fenBefore := FenStringForGame(g)

	lines := []string{}
	result := FindBestMove(g, moves,
		WithLogger(FuncLogger(func(s string) { lines = append(lines, s) })))

	assert.True(t, result.HasValue())
	assert.True(t, Contains(moveStrings(moves), result.Value().String()), result.Value().String())

	assert.Equal(t, fenBefore, FenStringForGame(g))
	assert.Equal(t, 0, len(g.History))
	assert.Equal(t, 20, len(GenerateLegalMoves(g)))

	assert.Equal(t, 1, len(lines))
	assert.Contains(t, lines[0], "best move")
}

func TestSearchLeavesCallerMovesAlone(t *testing.T) {
	g := NewGame()
	moves := GenerateLegalMoves(g)
	ordered := moveStrings(moves)
	original := MapSlice(moves, func(m Move) string { return m.String() })

	FindBestMove(g, moves, WithDepth(2))
	assert.Equal(t, original, MapSlice(moves, func(m Move) string { return m.String() }))
	assert.Equal(t, ordered, moveStrings(moves))
}

func TestCheckMateInOne(t *testing.T) {
	for _, depth := range []int{1, 2, 3} {
		_, result := searchFen(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", WithDepth(depth))
		assert.True(t, result.HasValue())
		assert.Equal(t, "a1a8", result.Value().String(), "depth %v", depth)

		_, result = searchFen(t, "r5k1/8/8/8/8/8/5PPP/6K1 b - - 0 1", WithDepth(depth))
		assert.True(t, result.HasValue())
		assert.Equal(t, "a8a1", result.Value().String(), "depth %v", depth)
	}
}

func TestCapturesHangingQueen(t *testing.T) {
	_, result := searchFen(t, "4k3/8/8/3q4/8/8/3R4/4K3 w - - 0 1")
	assert.True(t, result.HasValue())
	assert.Equal(t, "d2d5", result.Value().String())
}

func TestEveryMoveLoses(t *testing.T) {
	// Kb8 is forced and Rh8 mates
	g, result := searchFen(t, "k7/8/1K6/8/8/8/8/7R b - - 0 1")
	assert.True(t, result.IsEmpty())

	moves := GenerateLegalMoves(g)
	assert.Equal(t, 1, len(moves))
	assert.Equal(t, "a8b8", FindRandomMove(moves, rand.New(rand.NewSource(3))).String())
}

func TestNoLegalMoves(t *testing.T) {
	_, result := searchFen(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	assert.True(t, result.IsEmpty())
}

func TestRandomOption(t *testing.T) {
	g := NewGame()
	moves := GenerateLegalMoves(g)

	options, err := SearchOptionsFromArgs("random")
	assert.True(t, IsNil(err), err)

	for i := 0; i < 10; i++ {
		result := FindBestMove(g, moves, WithSearchOptions(options))
		assert.True(t, result.HasValue())
		assert.True(t, Contains(moveStrings(moves), result.Value().String()))
	}
}

func TestSearchOptionsFromArgs(t *testing.T) {
	options, err := SearchOptionsFromArgs()
	assert.True(t, IsNil(err), err)
	assert.Equal(t, DefaultSearchOptions, options)

	options, err = SearchOptionsFromArgs("depth=4", "random")
	assert.True(t, IsNil(err), err)
	assert.Equal(t, SearchOptions{Depth: 4, Random: true}, options)

	_, err = SearchOptionsFromArgs("depth")
	assert.False(t, IsNil(err))
	_, err = SearchOptionsFromArgs("depth=0")
	assert.False(t, IsNil(err))
	_, err = SearchOptionsFromArgs("quiescence")
	assert.False(t, IsNil(err))
}

func moveStrings(moves []Move) []string {
	result := MapSlice(moves, func(m Move) string { return m.String() })
	sort.Strings(result)
	return result
}
