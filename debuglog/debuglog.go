// Package debuglog carries the diagnostic channel that snapshots and analyzers
// write to. Nothing here is required for correctness; callers pass a Logger
// explicitly instead of flipping a global switch.
package debuglog

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Logger is the diagnostic sink
type Logger interface {
	Debugln(args ...interface{})
	Infoln(args ...interface{})
}

type gologger struct {
	l *logger.Logger
}

// New returns a Logger printing through gologger with a colored name prefix
func New(name string) Logger {
	return &gologger{
		l: logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, name)),
	}
}

func (g *gologger) Debugln(args ...interface{}) {
	g.l.Debugln(args...)
}

func (g *gologger) Infoln(args ...interface{}) {
	g.l.Infoln(args...)
}

type discard struct{}

func (discard) Debugln(...interface{}) {}
func (discard) Infoln(...interface{})  {}

// Discard returns a Logger that drops everything
func Discard() Logger {
	return discard{}
}

// Recorder keeps every line it is given. Useful in tests.
type Recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *Recorder) Debugln(args ...interface{}) {
	r.record("DEBUG", args)
}

func (r *Recorder) Infoln(args ...interface{}) {
	r.record("INFO", args)
}

func (r *Recorder) record(level string, args []interface{}) {
	line := strings.TrimSuffix(fmt.Sprintln(args...), "\n")
	r.mu.Lock()
	r.lines = append(r.lines, level+" "+line)
	r.mu.Unlock()
}

// Lines returns a copy of the recorded lines
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Contains reports whether any recorded line contains substr
func (r *Recorder) Contains(substr string) bool {
	for _, line := range r.Lines() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
