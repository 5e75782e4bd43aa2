package process

import (
	"bytes"
	"strings"
	"sync"
)

// lineWriter splits a byte stream into lines for an emit callback.
// exec.Cmd calls Write from a single goroutine per stream.
type lineWriter struct {
	source string
	emit   func(source, line string)
	buf    []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(w.source, strings.TrimRight(string(w.buf[:i]), "\r"))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

func (w *lineWriter) flush() {
	if len(w.buf) > 0 {
		w.emit(w.source, strings.TrimRight(string(w.buf), "\r"))
		w.buf = nil
	}
}

// OutputLine is one captured line of child output.
type OutputLine struct {
	Source string `json:"source"`
	Line   string `json:"line"`
}

// LineBuffer keeps the most recent output lines of a process.
type LineBuffer struct {
	mu    sync.RWMutex
	lines []OutputLine
	max   int
}

// NewLineBuffer creates a buffer holding at most max lines.
func NewLineBuffer(maxLines int) *LineBuffer {
	if maxLines < 1 {
		maxLines = 1
	}
	return &LineBuffer{max: maxLines}
}

// HandleLine implements OutputHandler.
func (b *LineBuffer) HandleLine(source, line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, OutputLine{Source: source, Line: line})
	if over := len(b.lines) - b.max; over > 0 {
		b.lines = append(b.lines[:0:0], b.lines[over:]...)
	}
}

// Lines returns a copy of the buffered lines, oldest first.
func (b *LineBuffer) Lines() []OutputLine {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]OutputLine, len(b.lines))
	copy(out, b.lines)
	return out
}

// Text returns the buffered lines joined as raw text.
func (b *LineBuffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var sb strings.Builder
	for _, l := range b.lines {
		sb.WriteString(l.Line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Reset discards all buffered lines.
func (b *LineBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = nil
}
