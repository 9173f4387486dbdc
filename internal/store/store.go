// Package store persists trade ticks in a WAL-mode SQLite database and
// exposes the read surface used by analytics consumers.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"pairwatch-go/internal/market"
)

// ErrDuplicate reports an insert rejected by the (timestamp, symbol) primary
// key. Callers treat it as the expected dedup outcome, not a failure.
var ErrDuplicate = errors.New("store: duplicate tick")

const schema = `
CREATE TABLE IF NOT EXISTS ticks (
	timestamp INTEGER NOT NULL,
	symbol    TEXT    NOT NULL,
	price     REAL    NOT NULL,
	size      REAL    NOT NULL,
	PRIMARY KEY (timestamp, symbol)
)`

// Store wraps the tick database. Safe for many concurrent readers; the write
// path is owned by a single ingest.Writer.
type Store struct {
	db *sql.DB
}

// Open creates the data directory and schema if needed and returns a store
// in WAL journal mode so readers never block the writer.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=10000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Insert persists one tick, committing before return. A second tick with the
// same (timestamp, symbol) identity yields ErrDuplicate and leaves the stored
// row untouched.
func (s *Store) Insert(tk market.Tick) error {
	_, err := s.db.Exec(
		"INSERT INTO ticks (timestamp, symbol, price, size) VALUES (?, ?, ?, ?)",
		tk.TsMilli(), tk.Symbol, tk.Price, tk.Size,
	)
	if err == nil {
		return nil
	}
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
		return ErrDuplicate
	}
	return fmt.Errorf("insert tick: %w", err)
}

// History returns up to maxRows most recent ticks for symbol, ascending by
// timestamp. No rows is an empty slice, not an error.
func (s *Store) History(symbol string, maxRows int) ([]market.Tick, error) {
	rows, err := s.db.Query(`
		SELECT timestamp, symbol, price, size FROM (
			SELECT timestamp, symbol, price, size
			FROM ticks
			WHERE symbol = ?
			ORDER BY timestamp DESC
			LIMIT ?
		)
		ORDER BY timestamp ASC`,
		symbol, maxRows,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []market.Tick
	for rows.Next() {
		var ms int64
		var tk market.Tick
		if err := rows.Scan(&ms, &tk.Symbol, &tk.Price, &tk.Size); err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		tk.Ts = time.UnixMilli(ms)
		out = append(out, tk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// Latest returns the most recent tick for symbol. The boolean is false when
// the symbol has no rows.
func (s *Store) Latest(symbol string) (market.Tick, bool, error) {
	var ms int64
	var tk market.Tick
	err := s.db.QueryRow(
		"SELECT timestamp, symbol, price, size FROM ticks WHERE symbol = ? ORDER BY timestamp DESC LIMIT 1",
		symbol,
	).Scan(&ms, &tk.Symbol, &tk.Price, &tk.Size)
	if errors.Is(err, sql.ErrNoRows) {
		return market.Tick{}, false, nil
	}
	if err != nil {
		return market.Tick{}, false, fmt.Errorf("query latest: %w", err)
	}
	tk.Ts = time.UnixMilli(ms)
	return tk, true, nil
}

// LoadHistory fetches per-symbol history for a set of symbols. Symbols with
// no data map to an empty slice.
func (s *Store) LoadHistory(symbols []string, maxRows int) (map[string][]market.Tick, error) {
	out := make(map[string][]market.Tick, len(symbols))
	for _, sym := range symbols {
		ticks, err := s.History(sym, maxRows)
		if err != nil {
			return nil, err
		}
		if ticks == nil {
			ticks = []market.Tick{}
		}
		out[sym] = ticks
	}
	return out, nil
}

// LoadLatest fetches the most recent tick per symbol. Symbols with no data
// are absent from the result map.
func (s *Store) LoadLatest(symbols []string) (map[string]market.Tick, error) {
	out := make(map[string]market.Tick, len(symbols))
	for _, sym := range symbols {
		tk, ok, err := s.Latest(sym)
		if err != nil {
			return nil, err
		}
		if ok {
			out[sym] = tk
		}
	}
	return out, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
