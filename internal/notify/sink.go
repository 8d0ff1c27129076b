package notify

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

var colours = map[Kind]string{
	Info:    "\033[36m",
	Success: "\033[32m",
	Warning: "\033[33m",
	Danger:  "\033[31m",
}

// TerminalSink prints alerts as lines, coloured by kind when writing to a
// terminal.
type TerminalSink struct {
	w      io.Writer
	colour bool
}

func NewTerminalSink(f *os.File) *TerminalSink {
	fd := f.Fd()
	return &TerminalSink{w: f, colour: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)}
}

func (s *TerminalSink) Show(a Alert) {
	if s.colour {
		fmt.Fprintf(s.w, "%s[%s]\033[0m %s\n", colours[a.Kind], a.Kind, a.Message)
		return
	}
	fmt.Fprintf(s.w, "[%s] %s\n", a.Kind, a.Message)
}

func (s *TerminalSink) Hide(Alert) {}

// Recorder keeps every alert shown.
type Recorder struct {
	mu     sync.Mutex
	shown  []Alert
	hidden int
}

func (r *Recorder) Show(a Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, a)
}

func (r *Recorder) Hide(Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hidden++
}

func (r *Recorder) Alerts() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Alert(nil), r.shown...)
}

// Last is the most recent alert, or the zero Alert.
func (r *Recorder) Last() Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.shown) == 0 {
		return Alert{}
	}
	return r.shown[len(r.shown)-1]
}

func (r *Recorder) Hidden() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hidden
}
