package msg

import (
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"
)

// ProgressBar reports how many files a walk has collected so far. The total is not known up front,
// so it shows a running count with a throbber and the directory currently being scanned.
type ProgressBar struct {
	Current    int64
	Indent     int
	Start      time.Time
	W          io.Writer
	mu         sync.Mutex
	drawn      bool // the counter line is on screen without a trailing newline
	lastPrint  time.Time
	lastDir    string
	throbIndex int
}

var throbbers = []rune{'|', '/', '-', '\\'}

// maximum width of the directory shown next to the counter
const dirWidth = 48

// NewProgressBar creates a counter and makes it the active one: messages logged until Finish
// move to a fresh line instead of being appended to the counter.
func NewProgressBar(indent int, w io.Writer) *ProgressBar {
	pb := &ProgressBar{
		Indent:    indent,
		Start:     time.Now(),
		W:         w,
		lastPrint: time.Now(),
	}
	activeMu.Lock()
	active = pb
	activeMu.Unlock()
	return pb
}

var (
	activeMu sync.Mutex
	active   *ProgressBar
)

// breakLine ends the active counter line, if one is on screen, so the next message starts at column 0.
// The counter is redrawn below it on the next update.
func breakLine() {
	activeMu.Lock()
	pb := active
	activeMu.Unlock()
	if pb == nil {
		return
	}

	pb.mu.Lock()
	defer pb.mu.Unlock()
	if pb.drawn {
		fmt.Fprintln(pb.W)
		pb.drawn = false
	}
}

// Add counts one file. Safe to call from multiple goroutines.
func (pb *ProgressBar) Add(file string) {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	pb.Current++
	pb.lastDir = path.Dir(file)
	if time.Since(pb.lastPrint) > 40*time.Millisecond {
		pb.print(false)
		pb.lastPrint = time.Now()
	}
}

func (pb *ProgressBar) print(finish bool) {
	throb := throbbers[pb.throbIndex%len(throbbers)]
	pb.throbIndex++

	dir := pb.lastDir
	if finish {
		throb = ' '
		dir = fmt.Sprintf("in %s", time.Since(pb.Start).Round(time.Millisecond))
	}
	if runes := []rune(dir); len(runes) > dirWidth {
		dir = "..." + string(runes[len(runes)-dirWidth+3:])
	}

	// %-*s pads by runes
	fmt.Fprintf(pb.W, "\r%s%c %d files %-*s",
		strings.Repeat(" ", pb.Indent),
		throb,
		pb.Current,
		dirWidth,
		dir,
	)
	pb.drawn = true
}

func (pb *ProgressBar) Finish() {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	pb.print(true)
	fmt.Fprintln(pb.W)
	pb.drawn = false

	activeMu.Lock()
	if active == pb {
		active = nil
	}
	activeMu.Unlock()
}
