package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	. "github.com/cricklet/chessmate/internal/game"
	. "github.com/cricklet/chessmate/internal/helpers"
	"github.com/dustin/go-humanize"
	"github.com/pkg/profile"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Usage: perft [profile] [depth=N] [divide] [fen...]
func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintln(os.Stderr, "recover()", r)
		}
	}()

	args := os.Args[1:]

	if Contains(args, "profile") {
		p := profile.Start(profile.ProfilePath("data/CmdPerftMain"))
		defer p.Stop()
	}
	divide := Contains(args, "divide")

	depth := 4
	fenParts := []string{}
	for _, arg := range args {
		if arg == "profile" || arg == "divide" {
			continue
		} else if strings.HasPrefix(arg, "depth=") {
			parsed, err := strconv.ParseInt(strings.TrimPrefix(arg, "depth="), 10, 64)
			if err != nil {
				fmt.Fprintln(os.Stderr, "invalid depth:", arg)
				os.Exit(1)
			}
			depth = int(parsed)
		} else {
			fenParts = append(fenParts, arg)
		}
	}

	fen := StartingFen
	if len(fenParts) > 0 {
		fen = strings.Join(fenParts, " ")
	}

	g, err := GamestateFromFenString(fen)
	if !IsNil(err) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Println(g.Board.Unicode())
	fmt.Println(FenStringForGame(g))

	label := fmt.Sprint("depth ", depth)
	var progress func(done int, total int)
	var finish func()

	if term.IsTerminal(int(os.Stdout.Fd())) {
		var bar *progressbar.ProgressBar
		progress = func(done int, total int) {
			if bar == nil {
				bar = progressbar.Default(int64(total), label)
			}
			bar.Set(done)
		}
		finish = func() {
			if bar != nil {
				bar.Finish()
			}
		}
	} else {
		var bar *ProgressBar
		progress = func(done int, total int) {
			if bar == nil {
				b := CreateProgressBar(os.Stderr, total, label)
				bar = &b
			}
			bar.Set(done)
		}
		finish = func() {
			if bar != nil {
				bar.Close()
			}
		}
	}

	start := time.Now()
	results := PerftDivide(g, depth, progress)
	finish()
	elapsed := time.Since(start)

	total := PerftResult{}
	keys := []string{}
	for move, result := range results {
		total.Add(result)
		keys = append(keys, move)
	}

	if divide {
		sort.Strings(keys)
		for _, move := range keys {
			fmt.Printf("%v: %v\n", move, results[move].Leaves)
		}
		fmt.Println()
	}

	fmt.Println(total)
	perSecond := int64(0)
	if elapsed.Seconds() > 0 {
		perSecond = int64(float64(total.Leaves) / elapsed.Seconds())
	}
	fmt.Printf("%v nodes in %v (%v/s)\n",
		humanize.Comma(int64(total.Leaves)), elapsed.Round(time.Millisecond), humanize.Comma(perSecond))
}
