// Package sources adapts external forward-only streams to chunks.Source so
// they can be chunked by a Cursor: database rows, Redis lists, text lines.
//
// Every adapter here bounds how long a single pull may block, either because
// the underlying read is already bounded or through an explicit timeout.
package sources

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"chunkseq/chunks"
)

// Rows is the part of *sql.Rows a SQLRows source needs.
type Rows interface {
	io.Closer
	Next() bool
	Err() error
	Scan(dest ...any) error
}

// RowScanner is what a row mapper reads from.
type RowScanner interface {
	Scan(dest ...any) error
}

// RowMapper turns the current row into an item.
type RowMapper[T any] func(RowScanner) (T, error)

// SQLRows pulls one mapped item per row.
type SQLRows[T any] struct {
	rows   Rows
	mapper RowMapper[T]
	done   bool
}

var _ chunks.Source[int] = (*SQLRows[int])(nil)

// NewSQLRows wraps rows. The source owns rows and closes them at the end of
// the result set or on Close.
func NewSQLRows[T any](rows Rows, mapper RowMapper[T]) *SQLRows[T] {
	if mapper == nil {
		panic("chunkseq.NewSQLRows: mapper cannot be nil")
	}
	return &SQLRows[T]{rows: rows, mapper: mapper}
}

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Query runs query and returns its result set as a source.
func Query[T any](ctx context.Context, db Querier, mapper RowMapper[T], query string, args ...any) (*SQLRows[T], error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sources: query: %w", err)
	}
	return NewSQLRows[T](rows, mapper), nil
}

func (s *SQLRows[T]) Next() (T, bool, error) {
	var zero T
	if s.done {
		return zero, false, nil
	}
	if !s.rows.Next() {
		s.done = true
		err := s.rows.Err()
		if cerr := s.rows.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return zero, false, fmt.Errorf("sources: rows: %w", err)
		}
		return zero, false, nil
	}
	v, err := s.mapper(s.rows)
	if err != nil {
		return zero, false, fmt.Errorf("sources: map row: %w", err)
	}
	return v, true, nil
}

// Close releases the result set.
func (s *SQLRows[T]) Close() error {
	s.done = true
	return s.rows.Close()
}
