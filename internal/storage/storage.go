package storage

import (
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	. "github.com/cricklet/chessmate/internal/helpers"
)

const gamePrefix = "game/"

// Enough to replay a game: the starting position plus every move in
// coordinate form.
type GameRecord struct {
	ID        string    `json:"id"`
	StartFen  string    `json:"start_fen"`
	Moves     []string  `json:"moves"`
	Result    string    `json:"result"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r GameRecord) Position() Position {
	return Position{
		Fen:   r.StartFen,
		Moves: append([]string(nil), r.Moves...),
	}
}

type Store struct {
	db *badger.DB
}

func Open(dir string) (*Store, Error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	return open(opts)
}

// Nothing touches disk. Used by tests and by the server when no directory is
// given.
func OpenInMemory() (*Store, Error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Store, Error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, Wrap(err)
	}
	return &Store{db: db}, NilError
}

func (s *Store) Close() Error {
	if s.db != nil {
		return Wrap(s.db.Close())
	}
	return NilError
}

func gameKey(id string) []byte {
	return []byte(gamePrefix + id)
}

func (s *Store) SaveGame(record GameRecord) Error {
	if record.ID == "" {
		return Errorf("game record needs an id")
	}
	record.UpdatedAt = time.Now()

	data, err := json.Marshal(record)
	if err != nil {
		return Wrap(err)
	}

	return Wrap(s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(gameKey(record.ID), data)
	}))
}

// Empty when no game with that id was saved.
func (s *Store) LoadGame(id string) (Optional[GameRecord], Error) {
	result := Empty[GameRecord]()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gameKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			record := GameRecord{}
			if err := json.Unmarshal(val, &record); err != nil {
				return err
			}
			result = Some(record)
			return nil
		})
	})

	return result, Wrap(err)
}

func (s *Store) DeleteGame(id string) Error {
	return Wrap(s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(gameKey(id))
	}))
}

// Most recently updated first.
func (s *Store) ListGames() ([]GameRecord, Error) {
	result := []GameRecord{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(gamePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				record := GameRecord{}
				if err := json.Unmarshal(val, &record); err != nil {
					return err
				}
				result = append(result, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, Wrap(err)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})

	return result, NilError
}
