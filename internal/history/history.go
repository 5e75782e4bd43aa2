// Package history ingests the delimited history file an optimizer run
// appends to. Every successful poll re-reads the whole file; a
// modification time guard keeps unchanged or stale content from being
// reported twice.
package history

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/smazurov/rodopt/internal/logging"
)

// DefaultFileName is the history file written into each run directory.
const DefaultFileName = "DoE_history.csv"

// Snapshot is an immutable view of the history file at one modification
// time. A new poll returns a new Snapshot rather than mutating this one.
type Snapshot struct {
	LastSeenMTime time.Time  `json:"last_seen_mtime"`
	Header        []string   `json:"header"`
	Rows          [][]string `json:"rows"`
	Skipped       int        `json:"skipped"`
}

// Field is one header/value pair of a row.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Len returns the number of rows.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// Row returns row i as header/value pairs, or nil if i is out of range.
func (s *Snapshot) Row(i int) []Field {
	if s == nil || i < 0 || i >= len(s.Rows) {
		return nil
	}
	row := s.Rows[i]
	fields := make([]Field, len(s.Header))
	for k, name := range s.Header {
		fields[k] = Field{Name: name, Value: row[k]}
	}
	return fields
}

// Column returns the index of the named column, or -1.
func (s *Snapshot) Column(name string) int {
	if s == nil {
		return -1
	}
	for i, h := range s.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Ingestor polls a history file.
type Ingestor struct {
	// Comma is the field delimiter; zero means ','.
	Comma  rune
	logger *slog.Logger
}

// NewIngestor creates an Ingestor for comma separated files.
func NewIngestor() *Ingestor {
	return &Ingestor{
		Comma:  ',',
		logger: logging.GetLogger("history"),
	}
}

// Poll returns a fresh snapshot of path, or nil when there is nothing new:
// the file does not exist, is empty, has the modification time already
// recorded in prev, or was last modified before notBefore. Only I/O
// failures other than a missing file are returned as errors.
func (in *Ingestor) Poll(path string, notBefore time.Time, prev *Snapshot) (*Snapshot, error) {
	if path == "" {
		return nil, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat history file: %w", err)
	}

	mtime := info.ModTime()
	if prev != nil && mtime.Equal(prev.LastSeenMTime) {
		return nil, nil
	}
	if mtime.Before(notBefore) {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	snap := in.parse(data)
	snap.LastSeenMTime = mtime
	return snap, nil
}

// parse splits data into a header and rows. Lines with a column count
// different from the header, or that the CSV reader rejects, are skipped.
func (in *Ingestor) parse(data []byte) *Snapshot {
	r := csv.NewReader(bytes.NewReader(data))
	if in.Comma != 0 {
		r.Comma = in.Comma
	}
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	snap := &Snapshot{Rows: [][]string{}}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				snap.Skipped++
				continue
			}
			break
		}

		if snap.Header == nil {
			snap.Header = trimAll(record)
			continue
		}
		if len(record) != len(snap.Header) {
			snap.Skipped++
			continue
		}
		snap.Rows = append(snap.Rows, trimAll(record))
	}

	if snap.Skipped > 0 && in.logger != nil {
		in.logger.Debug("Skipped malformed history rows", "count", snap.Skipped)
	}
	if snap.Header == nil {
		snap.Header = []string{}
	}
	return snap
}

func trimAll(record []string) []string {
	for i, f := range record {
		record[i] = strings.TrimSpace(f)
	}
	return record
}
