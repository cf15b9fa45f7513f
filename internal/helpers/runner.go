package helpers

// A starting FEN plus the coordinate moves played from it.
type Position struct {
	Fen   string
	Moves []string
}
