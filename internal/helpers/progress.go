package helpers

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

type ProgressBar struct {
	Set   func(int)
	Add   func(int)
	Close func()
}

func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if !IsNil(err) {
		return 80
	}
	return MaxInt(80, MinInt(120, width))
}

func unitForDuration(d time.Duration) time.Duration {
	if d < time.Microsecond {
		return time.Nanosecond
	}
	if d < time.Millisecond {
		return time.Microsecond
	}
	if d < time.Second {
		return time.Millisecond
	}
	if d < time.Minute {
		return time.Second
	}
	return time.Minute
}

func progressLine(label string, value int, total int, elapsed time.Duration, width int) string {
	percent := float64(value) / float64(total)
	perSecond := int64(0)
	if elapsed > 0 {
		perSecond = int64(float64(value) / elapsed.Seconds())
	}
	expectedFinish := time.Duration(0)
	if percent > 0 {
		expectedFinish = time.Duration(float64(elapsed) / percent)
	}
	unit := unitForDuration(elapsed)

	prefix := fmt.Sprintf("%s %3d%% ", label, int(percent*100))
	suffix := fmt.Sprintf(" %v => %v @ %v/s", elapsed.Round(unit), expectedFinish.Round(unit), humanize.Comma(perSecond))

	textLen := utf8.RuneCountInString(prefix) + utf8.RuneCountInString(suffix)
	totalProgressLen := MaxInt(width-textLen, 0)
	currentProgressLen := MinInt(MaxInt(int(float64(totalProgressLen)*percent), 0), totalProgressLen)
	remainingProgressLen := totalProgressLen - currentProgressLen

	return prefix + strings.Repeat("=", currentProgressLen) + strings.Repeat(" ", remainingProgressLen) + suffix
}

// Prints a line at most every updateDuration (doubling each time) so long
// runs don't flood the terminal.
func CreateProgressBar(out io.Writer, total int, label string) ProgressBar {
	lock := sync.Mutex{}
	value := 0

	startTime := time.Now()
	updateDuration := time.Millisecond * 200

	var update = func(forceUpdate bool) {
		if time.Since(startTime) <= updateDuration && !forceUpdate {
			return
		}
		updateDuration *= 2

		if value > total {
			value = total
		} else if value == 0 || total == 0 {
			return
		}

		fmt.Fprintln(out, progressLine(label, value, total, time.Since(startTime), termWidth()))
	}

	return ProgressBar{
		func(i int) {
			lock.Lock()
			defer lock.Unlock()
			value = i
			update(false)
		},
		func(i int) {
			lock.Lock()
			defer lock.Unlock()
			value += i
			update(false)
		}, func() {
			lock.Lock()
			defer lock.Unlock()
			update(true)
		},
	}
}
