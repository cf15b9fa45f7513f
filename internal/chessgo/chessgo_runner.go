package chessgo

import (
	"context"
	"math/rand"
	"sync"
	"time"

	. "github.com/cricklet/chessmate/internal/game"
	. "github.com/cricklet/chessmate/internal/helpers"
	"github.com/cricklet/chessmate/internal/search"
	"github.com/cricklet/chessmate/internal/storage"
)

type Status int

const (
	Playing Status = iota
	Checkmate
	Stalemate
)

func (s Status) String() string {
	switch s {
	case Playing:
		return "playing"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	}
	return "unknown"
}

// Drives one game: validates moves by membership in the legal move set,
// undoes, and hands positions to an isolated search worker. Safe to call
// from several goroutines.
type ChessGoRunner struct {
	Logger Logger

	mu sync.Mutex

	g          *GameState
	legalMoves []Move
	StartFen   string

	searchOptions search.SearchOptions
	rand          *rand.Rand
	pending       *PendingSearch

	store  *storage.Store
	gameID string
}

type RunnerOption func(*ChessGoRunner)

func WithLogger(logger Logger) RunnerOption {
	return func(r *ChessGoRunner) {
		r.Logger = logger
	}
}

func WithSearchOptions(options search.SearchOptions) RunnerOption {
	return func(r *ChessGoRunner) {
		r.searchOptions = options
	}
}

func WithSeed(seed int64) RunnerOption {
	return func(r *ChessGoRunner) {
		r.rand = rand.New(rand.NewSource(seed))
	}
}

// Every change to the game is saved to store under id.
func WithStorage(store *storage.Store, id string) RunnerOption {
	return func(r *ChessGoRunner) {
		r.store = store
		r.gameID = id
	}
}

// Starts from the standard initial position.
func NewChessGoRunner(opts ...RunnerOption) *ChessGoRunner {
	r := &ChessGoRunner{
		Logger:        &SilentLogger,
		searchOptions: search.DefaultSearchOptions,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rand == nil {
		r.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	r.reset()
	return r
}

func (r *ChessGoRunner) reset() {
	r.cancelSearch()
	r.g = NewGame()
	r.StartFen = StartingFen
	r.refreshLegalMoves()
}

func (r *ChessGoRunner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
	r.save()
}

func (r *ChessGoRunner) IsNew() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.g.History) == 0 && r.StartFen == StartingFen
}

func (r *ChessGoRunner) refreshLegalMoves() {
	GenerateLegalMovesInto(r.g, &r.legalMoves)
}

func (r *ChessGoRunner) cancelSearch() {
	if r.pending != nil {
		r.pending.Cancel()
		r.pending = nil
	}
}

func (r *ChessGoRunner) save() {
	if r.store == nil {
		return
	}
	err := r.store.SaveGame(storage.GameRecord{
		ID:       r.gameID,
		StartFen: r.StartFen,
		Moves:    r.moveHistory(),
		Result:   r.status().String(),
	})
	if !IsNil(err) {
		r.Logger.Println("save:", err)
	}
}

func (r *ChessGoRunner) SetupPosition(position Position) Error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.setupPosition(position)
	if IsNil(err) {
		r.save()
	}
	return err
}

func (r *ChessGoRunner) setupPosition(position Position) Error {
	g, err := GamestateFromFenString(position.Fen)
	if !IsNil(err) {
		return Errorf("couldn't create game from %v, %w", position, err)
	}

	r.cancelSearch()
	r.g = g
	r.StartFen = position.Fen
	r.refreshLegalMoves()

	for _, m := range position.Moves {
		ok, err := r.performMoveFromString(m)
		if !IsNil(err) {
			return err
		}
		if !ok {
			return Errorf("illegal move %v in %v", m, position)
		}
	}

	return NilError
}

// Loads a saved game and continues it under the same id.
func (r *ChessGoRunner) Restore(id string) Error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store == nil {
		return Errorf("no storage configured")
	}
	record, err := r.store.LoadGame(id)
	if !IsNil(err) {
		return err
	}
	if record.IsEmpty() {
		return Errorf("no saved game %v", id)
	}

	r.gameID = id
	return r.setupPosition(record.Value().Position())
}

func (r *ChessGoRunner) performMove(move Move) {
	r.cancelSearch()
	r.g.MakeMove(move)
	r.refreshLegalMoves()
}

// Plays s ("e2e4") if it is legal. An illegal move is ignored and reported
// as false; only malformed input is an error.
func (r *ChessGoRunner) PerformMoveFromString(s string) (Success, Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ok, err := r.performMoveFromString(s)
	if ok {
		r.save()
	}
	return ok, err
}

func (r *ChessGoRunner) performMoveFromString(s string) (Success, Error) {
	if r.status() != Playing {
		return false, NilError
	}

	move, err := FindMove(r.legalMoves, s)
	if !IsNil(err) {
		return false, err
	}
	if move.IsEmpty() {
		r.Logger.Println("ignoring illegal move", s)
		return false, NilError
	}

	r.performMove(move.Value())
	return true, NilError
}

func firstIndexNotMatching[A any, B any](a []A, b []B, matches func(A, B) bool) int {
	for i := 0; i < MinInt(len(a), len(b)); i++ {
		if !matches(a[i], b[i]) {
			return i
		}
	}
	return MinInt(len(a), len(b))
}

// Brings the game in line with startPos + moves, rewinding only as far as the
// histories diverge.
func (r *ChessGoRunner) PerformMoves(startPos string, moves []string) Error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.StartFen != startPos {
		return Errorf("positions don't match: %v != %v", r.StartFen, startPos)
	}

	history := r.moveHistory()
	startIndex := firstIndexNotMatching(history, moves, func(a string, b string) bool {
		return a == b
	})

	r.rewind(len(history) - startIndex)

	for i := startIndex; i < len(moves); i++ {
		ok, err := r.performMoveFromString(moves[i])
		if !IsNil(err) {
			return err
		}
		if !ok {
			return Errorf("illegal move %v", moves[i])
		}
	}

	r.save()
	return NilError
}

func (r *ChessGoRunner) rewind(num int) {
	r.cancelSearch()
	for i := 0; i < MinInt(num, len(r.g.History)); i++ {
		r.g.UndoMove()
	}
	r.refreshLegalMoves()
}

// Undoes up to num moves. Rewinding past the start is not an error.
func (r *ChessGoRunner) Rewind(num int) Error {
	if num < 0 {
		return Errorf("can't rewind %v moves", num)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.rewind(num)
	r.save()
	return NilError
}

// Destinations for the piece on selection ("e2"), in coordinate form.
func (r *ChessGoRunner) MovesForSelection(selection string) ([]string, Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	square, err := SquareFromString(selection)
	if !IsNil(err) {
		return nil, Errorf("failed to parse selection %w", err)
	}

	moves := FilterSlice(r.legalMoves, func(m Move) bool {
		return m.Start == square
	})
	return MapSlice(moves, func(m Move) string {
		return m.String()
	}), NilError
}

func (r *ChessGoRunner) LegalMoves() []Move {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Move(nil), r.legalMoves...)
}

func (r *ChessGoRunner) status() Status {
	if r.g.Checkmate {
		return Checkmate
	} else if r.g.Stalemate {
		return Stalemate
	}
	return Playing
}

func (r *ChessGoRunner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status()
}

func (r *ChessGoRunner) InCheck() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.g.InCheck
}

func (r *ChessGoRunner) FenString() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return FenStringForGame(r.g)
}

func (r *ChessGoRunner) Player() Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.g.Player
}

func (r *ChessGoRunner) Board() BoardArray {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.g.Board
}

func (r *ChessGoRunner) LastMove() Optional[Move] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.g.LastMove()
}

func (r *ChessGoRunner) moveHistory() []string {
	return MapSlice(r.g.History, func(h HistoryEntry) string {
		return h.Move.String()
	})
}

// Coordinate strings, oldest first.
func (r *ChessGoRunner) MoveHistory() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.moveHistory()
}

// Numbered notation pairs, eg "1. e4 e5".
func (r *ChessGoRunner) MoveLog() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return MoveLog(MapSlice(r.g.History, func(h HistoryEntry) Move {
		return h.Move
	}))
}

func (r *ChessGoRunner) Evaluate() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return search.Evaluate(r.g)
}

func (r *ChessGoRunner) DrawClock() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.g.HalfMoveClock
}

// Starts a search for the side to move on a private copy of the game,
// replacing (and cancelling) any search already pending. When the search
// finds nothing the worker falls back to a random legal move, so a result is
// only empty when the game is over.
func (r *ChessGoRunner) StartSearch() *PendingSearch {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancelSearch()

	p := newPendingSearch()
	r.pending = p

	g := r.g.Clone()
	moves := append([]Move(nil), r.legalMoves...)
	rng := rand.New(rand.NewSource(r.rand.Int63()))
	logger := r.Logger
	options := r.searchOptions

	go func() {
		result := search.FindBestMove(g, moves,
			search.WithSearchOptions(options),
			search.WithLogger(logger),
			search.WithRand(rng))

		if result.IsEmpty() && len(moves) > 0 {
			logger.Println("search found nothing, playing a random move")
			result = Some(search.FindRandomMove(moves, rng))
		}

		p.deliver(result)
	}()

	return p
}

// Plays the result of p if p is still the runner's current search.
func (r *ChessGoRunner) ApplySearch(p *PendingSearch) (Success, Error) {
	move, ok := p.Poll()
	if !ok {
		return false, NilError
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending != p {
		return false, NilError
	}
	r.pending = nil

	if move.IsEmpty() {
		return false, NilError
	}

	performed, err := r.performMoveFromString(move.Value().String())
	if performed {
		r.save()
	}
	return performed, err
}

// Runs a search to completion without playing the move.
func (r *ChessGoRunner) Search(ctx context.Context) (Optional[string], Error) {
	p := r.StartSearch()
	move, err := p.Wait(ctx)

	r.mu.Lock()
	if r.pending == p {
		r.pending = nil
	}
	r.mu.Unlock()

	if !IsNil(err) {
		return Empty[string](), err
	}
	if move.IsEmpty() {
		return Empty[string](), NilError
	}
	return Some(move.Value().String()), NilError
}
