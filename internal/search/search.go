package search

import (
	"math/rand"
	"strconv"
	"strings"
	"time"

	. "github.com/cricklet/chessmate/internal/game"
	. "github.com/cricklet/chessmate/internal/helpers"
)

const DefaultDepth = 3

type SearchOptions struct {
	Depth int
	// Skip the search and pick uniformly among the legal moves.
	Random bool
}

var DefaultSearchOptions = SearchOptions{
	Depth: DefaultDepth,
}

var AllSearchOptions = []string{
	"depth",
	"random",
}

func SearchOptionsFromArgs(args ...string) (SearchOptions, Error) {
	options := DefaultSearchOptions

	for _, arg := range args {
		if strings.HasPrefix(arg, "depth") {
			if !strings.Contains(arg, "=") {
				return options, Errorf("depth needs a value, eg depth=4: %v", arg)
			}
			n, err := strconv.ParseInt(strings.Split(arg, "=")[1], 10, 64)
			if err != nil {
				return options, Wrap(err)
			}
			if n < 1 {
				return options, Errorf("depth must be positive: %v", arg)
			}
			options.Depth = int(n)
		} else if arg == "random" {
			options.Random = true
		} else {
			return options, Errorf("unknown option: %s", arg)
		}
	}

	return options, NilError
}

type SearchOption func(*searcher)

func WithDepth(depth int) SearchOption {
	return func(s *searcher) {
		s.options.Depth = depth
	}
}

func WithSearchOptions(options SearchOptions) SearchOption {
	return func(s *searcher) {
		s.options = options
	}
}

func WithLogger(logger Logger) SearchOption {
	return func(s *searcher) {
		s.logger = logger
	}
}

func WithRand(r *rand.Rand) SearchOption {
	return func(s *searcher) {
		s.rand = r
	}
}

var GetMovesBuffer, ReleaseMovesBuffer, MovesBufferStats = CreatePool(
	func() []Move {
		return make([]Move, 0, 64)
	},
	func(t *[]Move) {
		*t = (*t)[:0]
	},
)

type searcher struct {
	logger  Logger
	rand    *rand.Rand
	options SearchOptions

	game *GameState

	nodes       int
	evaluations int
}

func newSearcher(g *GameState, opts ...SearchOption) *searcher {
	s := &searcher{
		logger:  &SilentLogger,
		options: DefaultSearchOptions,
		game:    g,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rand == nil {
		s.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// Picks uniformly. moves must not be empty.
func FindRandomMove(moves []Move, r *rand.Rand) Move {
	return moves[r.Intn(len(moves))]
}

// Negamax with alpha-beta over legalMoves, which must be the legal moves of g.
// g is mutated during the search but every move made is undone before
// returning. Empty when every line loses to a forced mate (or there are no
// moves); callers fall back to FindRandomMove.
func FindBestMove(g *GameState, legalMoves []Move, opts ...SearchOption) Optional[Move] {
	s := newSearcher(g, opts...)

	if len(legalMoves) == 0 {
		return Empty[Move]()
	}
	if s.options.Random {
		return Some(FindRandomMove(legalMoves, s.rand))
	}

	// shuffle a copy so the caller's slice keeps its order
	moves := append([]Move(nil), legalMoves...)
	s.rand.Shuffle(len(moves), func(i, j int) {
		moves[i], moves[j] = moves[j], moves[i]
	})

	start := time.Now()
	score, bestMove := s.searchRoot(moves)

	if bestMove.HasValue() {
		s.logger.Println("searched", s.nodes, "nodes,", s.evaluations, "evals in", time.Since(start),
			"- best move", bestMove.Value().String(), "- score", score)
	} else {
		s.logger.Println("searched", s.nodes, "nodes in", time.Since(start), "- no move avoids mate")
	}

	return bestMove
}

func turnMultiplier(player Player) int {
	if player == White {
		return 1
	}
	return -1
}

func (s *searcher) searchRoot(moves []Move) (int, Optional[Move]) {
	alpha, beta := -Inf, Inf
	maxScore := -Checkmate
	bestMove := Empty[Move]()
	multiplier := turnMultiplier(s.game.Player)

	for _, move := range moves {
		s.game.MakeMove(move)
		score := -s.negamax(s.options.Depth-1, -beta, -alpha, -multiplier)
		s.game.UndoMove()

		if score > maxScore {
			maxScore = score
			bestMove = Some(move)
		}
		if maxScore > alpha {
			alpha = maxScore
		}
	}

	return maxScore, bestMove
}

// Score from the perspective of the side to move.
func (s *searcher) negamax(depth int, alpha int, beta int, multiplier int) int {
	s.nodes++

	moves := GetMovesBuffer()
	defer ReleaseMovesBuffer(moves)

	GenerateLegalMovesInto(s.game, moves)

	if depth <= 0 || len(*moves) == 0 {
		s.evaluations++
		score := multiplier * Evaluate(s.game)
		if s.game.Checkmate {
			// prefer mates closer to the root
			score -= depth
		}
		return score
	}

	maxScore := -Inf
	for _, move := range *moves {
		s.game.MakeMove(move)
		score := -s.negamax(depth-1, -beta, -alpha, -multiplier)
		s.game.UndoMove()

		if score > maxScore {
			maxScore = score
		}
		if maxScore > alpha {
			alpha = maxScore
		}
		if alpha >= beta {
			break
		}
	}

	return maxScore
}
