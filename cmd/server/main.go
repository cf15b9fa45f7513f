package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cricklet/chessmate/internal/chessgo"
	. "github.com/cricklet/chessmate/internal/helpers"
	"github.com/cricklet/chessmate/internal/search"
	"github.com/cricklet/chessmate/internal/storage"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

type UpdateToWeb struct {
	GameID        string   `json:"gameId"`
	FenString     string   `json:"fenString"`
	LastMove      string   `json:"lastMove"`
	Selection     string   `json:"selection"`
	PossibleMoves []string `json:"possibleMoves"`
	Player        string   `json:"player"`
	Status        string   `json:"status"`
	InCheck       bool     `json:"inCheck"`
	MoveLog       []string `json:"moveLog"`
	Evaluation    int      `json:"evaluation"`
	DrawClock     int      `json:"drawClock"`
}

func (u UpdateToWeb) String() string {
	return fmt.Sprint("UpdateToWeb: ", u.FenString, ", ", u.LastMove, ", ", u.Selection, ", ", u.PossibleMoves, ", ", u.Status)
}

type MessageFromWeb struct {
	NewFen      *string `json:"newFen"`
	NewGame     *bool   `json:"newGame"`
	Restore     *string `json:"restore"`
	WhitePlayer *string `json:"whitePlayer"`
	BlackPlayer *string `json:"blackPlayer"`
	Selection   *string `json:"selection"`
	Move        *string `json:"move"`
	Ready       *bool   `json:"ready"`
	Rewind      *int    `json:"rewind"`
}

func (u MessageFromWeb) String() string {
	if u.NewFen != nil {
		return fmt.Sprint("MessageFromWeb NewFen: ", *u.NewFen)
	}
	if u.NewGame != nil {
		return fmt.Sprint("MessageFromWeb NewGame: ", *u.NewGame)
	}
	if u.Restore != nil {
		return fmt.Sprint("MessageFromWeb Restore: ", *u.Restore)
	}
	if u.WhitePlayer != nil {
		return fmt.Sprint("MessageFromWeb WhitePlayer: ", *u.WhitePlayer)
	}
	if u.BlackPlayer != nil {
		return fmt.Sprint("MessageFromWeb BlackPlayer: ", *u.BlackPlayer)
	}
	if u.Selection != nil {
		return fmt.Sprint("MessageFromWeb Selection: ", *u.Selection)
	}
	if u.Move != nil {
		return fmt.Sprint("MessageFromWeb Move: ", *u.Move)
	}
	if u.Ready != nil {
		return fmt.Sprint("MessageFromWeb Ready: ", *u.Ready)
	}
	if u.Rewind != nil {
		return fmt.Sprint("MessageFromWeb Rewind: ", *u.Rewind)
	}
	return "MessageFromWeb unknown"
}

type LogForwarding struct {
	writeCallback func(message string)
}

func (l *LogForwarding) Println(v ...any) {
	l.writeCallback(fmt.Sprintln(v...))
}
func (l *LogForwarding) Printf(format string, v ...any) {
	l.writeCallback(fmt.Sprintf(format, v...))
}
func (l *LogForwarding) Print(v ...any) {
	l.writeCallback(fmt.Sprint(v...))
}

type PlayerType int

const (
	User PlayerType = iota
	ChessGo
	Random
	Unknown
)

func (t PlayerType) String() string {
	switch t {
	case User:
		return "user"
	case ChessGo:
		return "chessgo"
	case Random:
		return "random"
	case Unknown:
		return "unknown"
	default:
		return "unknown"
	}
}

func PlayerTypeFromString(s string) PlayerType {
	switch s {
	case "user":
		return User
	case "chessgo":
		return ChessGo
	case "random":
		return Random
	}
	return Unknown
}

type serverConfig struct {
	port          int
	dbDir         string
	staticDir     string
	searchOptions search.SearchOptions
}

// Positional args: a bare number is the port, "db=<dir>" persists games,
// "static=<dir>" serves a web client, anything else is a search option.
func configFromArgs(args []string) (serverConfig, Error) {
	config := serverConfig{
		port:          8002,
		staticDir:     "static",
		searchOptions: search.DefaultSearchOptions,
	}

	searchArgs := []string{}
	for _, arg := range args {
		if parsed, err := strconv.ParseInt(arg, 10, 64); err == nil {
			config.port = int(parsed)
		} else if strings.HasPrefix(arg, "db=") {
			config.dbDir = strings.TrimPrefix(arg, "db=")
		} else if strings.HasPrefix(arg, "static=") {
			config.staticDir = strings.TrimPrefix(arg, "static=")
		} else {
			searchArgs = append(searchArgs, arg)
		}
	}

	options, err := search.SearchOptionsFromArgs(searchArgs...)
	if !IsNil(err) {
		return config, err
	}
	config.searchOptions = options

	return config, NilError
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(value)
	if err != nil {
		log.Println("writeJSON:", err)
	}
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintln(os.Stderr, fmt.Sprint(r))
			fmt.Fprintln(os.Stderr, string(debug.Stack()))
		}
	}()

	config, err := configFromArgs(os.Args[1:])
	if !IsNil(err) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var store *storage.Store
	if config.dbDir != "" {
		store, err = storage.Open(config.dbDir)
	} else {
		store, err = storage.OpenInMemory()
	}
	if !IsNil(err) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer store.Close()

	var upgrader = websocket.Upgrader{}

	var ws = func(w http.ResponseWriter, r *http.Request) {
		playerTypes := [2]PlayerType{User, User}
		ready := false

		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade:", err)
			return
		}
		defer c.Close()

		// mu guards both runners and the player settings; search workers report
		// back on their own goroutines. writeMu only guards the socket.
		var mu sync.Mutex
		var writeMu sync.Mutex

		var write = func(bytes []byte) error {
			writeMu.Lock()
			defer writeMu.Unlock()
			return c.WriteMessage(websocket.TextMessage, bytes)
		}

		var log = func(message string) {
			log.Print("logging: ", message)
			bytes, err := json.Marshal([]string{message})
			if err != nil {
				fmt.Fprintln(os.Stderr, fmt.Sprint("logging: json marshal: ", err))
			}
			err = write(bytes)
			if err != nil {
				fmt.Fprintln(os.Stderr, fmt.Sprint("logging: websocket: ", err))
			}
		}

		logger := &LogForwarding{
			writeCallback: func(message string) {
				log(fmt.Sprintf("server: %v", message))
			},
		}

		gameID := strconv.FormatInt(time.Now().UnixNano(), 36)

		chessGoRunner := chessgo.NewChessGoRunner(
			chessgo.WithSearchOptions(config.searchOptions),
			chessgo.WithStorage(store, gameID),
			chessgo.WithLogger(&LogForwarding{
				writeCallback: func(message string) {
					log(fmt.Sprintf("chessgo: %v", message))
				},
			}))

		randomOptions := config.searchOptions
		randomOptions.Random = true
		randomRunner := chessgo.NewChessGoRunner(chessgo.WithSearchOptions(randomOptions))

		var runnerForPlayer = func(p Player) *chessgo.ChessGoRunner {
			if playerTypes[p] == ChessGo {
				return chessGoRunner
			} else if playerTypes[p] == Random {
				return randomRunner
			}
			return nil
		}

		var pending *chessgo.PendingSearch
		var cancelPending = func() {
			if pending != nil {
				pending.Cancel()
				pending = nil
			}
		}

		var finalizeUpdate = func(update UpdateToWeb) {
			update.GameID = gameID
			update.FenString = chessGoRunner.FenString()
			update.Player = chessGoRunner.Player().String()
			update.Status = chessGoRunner.Status().String()
			update.InCheck = chessGoRunner.InCheck()
			update.MoveLog = chessGoRunner.MoveLog()
			update.Evaluation = chessGoRunner.Evaluate()
			update.DrawClock = chessGoRunner.DrawClock()
			if lastMove := chessGoRunner.LastMove(); lastMove.HasValue() {
				update.LastMove = lastMove.Value().String()
			}

			logger.Println("sending", update)
			bytes, err := json.Marshal(update)
			if err != nil {
				logger.Println("update: json marshal: ", err)
			}
			err = write(bytes)
			if err != nil {
				logger.Println("websocket: ", err)
			}
		}

		var startComputerMove func()
		startComputerMove = func() {
			if !ready || pending != nil {
				return
			}
			if chessGoRunner.Status() != chessgo.Playing {
				return
			}

			runner := runnerForPlayer(chessGoRunner.Player())
			if runner == nil {
				return
			}

			if runner != chessGoRunner {
				err := runner.SetupPosition(Position{
					Fen:   chessGoRunner.StartFen,
					Moves: chessGoRunner.MoveHistory(),
				})
				if !IsNil(err) {
					logger.Println("setup: ", err)
					return
				}
			}

			p := runner.StartSearch()
			pending = p

			go func() {
				move, err := p.Wait(context.Background())

				mu.Lock()
				defer mu.Unlock()

				if pending != p {
					return
				}
				pending = nil

				if !IsNil(err) {
					logger.Println("search: ", err)
					return
				}
				if move.IsEmpty() {
					logger.Println("no move found")
					return
				}

				logger.Println("search: ", move.Value())
				ok, err := chessGoRunner.PerformMoveFromString(move.Value().String())
				if !IsNil(err) || !bool(ok) {
					logger.Println("perform: ", move.Value(), err)
					return
				}

				finalizeUpdate(UpdateToWeb{})
				startComputerMove()
			}()
		}

		var handleMessageFromWeb = func(bytes []byte) {
			mu.Lock()
			defer mu.Unlock()

			var message MessageFromWeb
			err := json.Unmarshal(bytes, &message)
			if err != nil {
				logger.Println("handleMessageFromWeb: json unmarshal: ", err)
				return
			}
			logger.Println("received", message)

			var update UpdateToWeb
			shouldUpdate := false

			if message.NewFen != nil {
				cancelPending()
				err := chessGoRunner.SetupPosition(Position{
					Fen:   *message.NewFen,
					Moves: []string{},
				})
				if !IsNil(err) {
					logger.Println("chessgo setup: ", err)
				}
				shouldUpdate = true
			} else if message.NewGame != nil {
				cancelPending()
				chessGoRunner.Reset()
				shouldUpdate = true
			} else if message.Restore != nil {
				cancelPending()
				err := chessGoRunner.Restore(*message.Restore)
				if !IsNil(err) {
					logger.Println("restore: ", message.Restore, err)
				} else {
					gameID = *message.Restore
				}
				shouldUpdate = true
			} else if message.WhitePlayer != nil {
				playerTypes[White] = PlayerTypeFromString(*message.WhitePlayer)
			} else if message.BlackPlayer != nil {
				playerTypes[Black] = PlayerTypeFromString(*message.BlackPlayer)
			} else if message.Selection != nil {
				if *message.Selection != "" {
					update.Selection = *message.Selection
					result, err := chessGoRunner.MovesForSelection(*message.Selection)
					if !IsNil(err) {
						logger.Println("moves for: ", message.Selection, err)
					}
					update.PossibleMoves = result
				}
				shouldUpdate = true
			} else if message.Move != nil {
				if playerTypes[chessGoRunner.Player()] == User {
					ok, err := chessGoRunner.PerformMoveFromString(*message.Move)
					if !IsNil(err) {
						logger.Println("perform: ", message.Move, err)
					} else if !ok {
						logger.Println("ignored: ", *message.Move)
					}
				}
				shouldUpdate = true
			} else if message.Rewind != nil {
				cancelPending()
				err := chessGoRunner.Rewind(*message.Rewind)
				if !IsNil(err) {
					logger.Println("rewind: ", message.Rewind, err)
				}
				shouldUpdate = true
			} else if message.Ready != nil {
				if !ready {
					ready = *message.Ready
					shouldUpdate = true
				}
			}

			if shouldUpdate {
				finalizeUpdate(update)
			}
			startComputerMove()
		}

		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				logger.Printf("Error: %v", err)
				break
			} else {
				handleMessageFromWeb(message)
			}
		}

		mu.Lock()
		cancelPending()
		mu.Unlock()
	}

	var listGames = func(w http.ResponseWriter, r *http.Request) {
		games, err := store.ListGames()
		if !IsNil(err) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, games)
	}

	var getGame = func(w http.ResponseWriter, r *http.Request) {
		record, err := store.LoadGame(mux.Vars(r)["id"])
		if !IsNil(err) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if record.IsEmpty() {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, record.Value())
	}

	var index = func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, config.staticDir+"/index.html")
	}

	log.Println("serving at", config.port)

	router := mux.NewRouter()
	router.HandleFunc("/ws", ws)
	router.HandleFunc("/games", listGames).Methods(http.MethodGet)
	router.HandleFunc("/games/{id}", getGame).Methods(http.MethodGet)
	router.PathPrefix("/static").Handler(
		http.StripPrefix("/static", http.FileServer(http.Dir(config.staticDir))))
	router.PathPrefix("/{white}/{black}").HandlerFunc(index)
	router.HandleFunc("/", index)
	http.Handle("/", router)
	err = Wrap(http.ListenAndServe(fmt.Sprintf(":%v", config.port), router))
	if !IsNil(err) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
