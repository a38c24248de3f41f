package io

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/moviedex/preproc/internal/frame"
)

// SQLiteSink appends frames to a SQLite table, as an alternative destination
// to CSV files. The table is created from the first appended frame's columns,
// all TEXT, and later frames are aligned to it like the CSV sink aligns to
// its header.
type SQLiteSink struct {
	db     *sql.DB
	table  string
	owned  bool
	header []string
}

// NewSQLiteSink opens (or creates) the database at path.
func NewSQLiteSink(path, table string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db %s: %w", path, err)
	}
	return &SQLiteSink{db: db, table: table, owned: true}, nil
}

// NewSQLiteSinkDB wraps an existing database handle; Close leaves it open so
// the good and bad sinks can share one file.
func NewSQLiteSinkDB(db *sql.DB, table string) *SQLiteSink {
	return &SQLiteSink{db: db, table: table}
}

// NewSQLitePair opens one database holding both output tables. The good sink
// owns the handle; close it last.
func NewSQLitePair(path string) (good, bad *SQLiteSink, err error) {
	good, err = NewSQLiteSink(path, "good_rows")
	if err != nil {
		return nil, nil, err
	}
	return good, NewSQLiteSinkDB(good.db, "bad_rows"), nil
}

// Append writes all rows of the frame in a single transaction.
func (s *SQLiteSink) Append(f *frame.Frame) error {
	if s.header == nil {
		if err := s.createTable(f.Columns()); err != nil {
			return err
		}
		s.header = append([]string(nil), f.Columns()...)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(s.header)), ",")
	insert := fmt.Sprintf(`INSERT INTO %s VALUES (%s)`, quoteIdent(s.table), placeholders)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	stmt, err := tx.Prepare(insert)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(s.header))
	for r := 0; r < f.Len(); r++ {
		for i, col := range s.header {
			cell := f.Cell(col, r)
			if cell.IsMissing() {
				args[i] = nil
			} else {
				args[i] = cell.Text()
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("inserting row %d: %w", r, err)
		}
	}
	return tx.Commit()
}

// Close closes the database when this sink owns it.
func (s *SQLiteSink) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteSink) createTable(columns []string) error {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = quoteIdent(c) + " TEXT"
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (%s)`,
		quoteIdent(s.table), strings.Join(defs, ", "))
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("creating table %s: %w", s.table, err)
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
