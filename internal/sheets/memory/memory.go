// Package memory provides an in-process RowAppender used in tests and when
// no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	ports "centsible/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []ports.ExportRow
}

var _ ports.RowAppender = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendRow stores the row and returns a synthetic row reference.
func (s *Store) AppendRow(_ context.Context, row ports.ExportRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []ports.ExportRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.ExportRow(nil), s.rows...)
}
