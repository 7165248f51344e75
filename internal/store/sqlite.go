package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stockgrid/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ QuoteStore = (*SQLiteStore)(nil)
var _ WatchlistStore = (*SQLiteStore)(nil)

// SQLiteStore implements QuoteStore and WatchlistStore backed by a SQLite
// database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies
// the schema and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// One writer at a time; avoids SQLITE_BUSY under concurrent callers.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", dbPath, err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS quotes (
			market     TEXT NOT NULL,
			symbol     TEXT NOT NULL,
			name       TEXT NOT NULL DEFAULT '',
			sector     TEXT NOT NULL DEFAULT '',
			price      REAL NOT NULL DEFAULT 0,
			prev_close REAL NOT NULL DEFAULT 0,
			volume     INTEGER NOT NULL DEFAULT 0,
			turnover   REAL NOT NULL DEFAULT 0,
			market_cap REAL NOT NULL DEFAULT 0,
			pe         REAL,
			updated_at INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (market, symbol)
		)`,
		`CREATE TABLE IF NOT EXISTS watchlist (
			symbol   TEXT PRIMARY KEY,
			added_at INTEGER NOT NULL
		)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// UpsertQuotes writes quotes in a single transaction.
func (s *SQLiteStore) UpsertQuotes(ctx context.Context, quotes []domain.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning quote upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO quotes
		(market, symbol, name, sector, price, prev_close, volume, turnover, market_cap, pe, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(market, symbol) DO UPDATE SET
			name = excluded.name,
			sector = excluded.sector,
			price = excluded.price,
			prev_close = excluded.prev_close,
			volume = excluded.volume,
			turnover = excluded.turnover,
			market_cap = excluded.market_cap,
			pe = excluded.pe,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("preparing quote upsert: %w", err)
	}
	defer stmt.Close()

	for _, q := range quotes {
		pe := sql.NullFloat64{Float64: q.PE, Valid: !math.IsNaN(q.PE)}
		var updated int64
		if !q.UpdatedAt.IsZero() {
			updated = q.UpdatedAt.UnixMilli()
		}
		if _, err := stmt.ExecContext(ctx,
			string(q.Market), strings.ToUpper(q.Symbol), q.Name, q.Sector,
			q.Price, q.PrevClose, q.Volume, q.Turnover, q.MarketCap, pe, updated,
		); err != nil {
			return fmt.Errorf("upserting quote %s: %w", q.Symbol, err)
		}
	}
	return tx.Commit()
}

// ListQuotes returns quotes ordered by market then symbol.
func (s *SQLiteStore) ListQuotes(ctx context.Context, market domain.Market) ([]domain.Quote, error) {
	query := `SELECT market, symbol, name, sector, price, prev_close, volume,
		turnover, market_cap, pe, updated_at FROM quotes`
	var args []any
	if market != "" {
		query += ` WHERE market = ?`
		args = append(args, string(market))
	}
	query += ` ORDER BY market, symbol`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing quotes: %w", err)
	}
	defer rows.Close()

	var quotes []domain.Quote
	for rows.Next() {
		var (
			q       domain.Quote
			mkt     string
			pe      sql.NullFloat64
			updated int64
		)
		if err := rows.Scan(&mkt, &q.Symbol, &q.Name, &q.Sector, &q.Price, &q.PrevClose,
			&q.Volume, &q.Turnover, &q.MarketCap, &pe, &updated); err != nil {
			return nil, fmt.Errorf("scanning quote: %w", err)
		}
		q.Market = domain.Market(mkt)
		q.PE = math.NaN()
		if pe.Valid {
			q.PE = pe.Float64
		}
		if updated != 0 {
			q.UpdatedAt = time.UnixMilli(updated).UTC()
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// AddToWatchlist watches symbol. Adding an already watched symbol keeps
// its original position.
func (s *SQLiteStore) AddToWatchlist(ctx context.Context, symbol string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO watchlist (symbol, added_at) VALUES (?, ?)`,
		strings.ToUpper(symbol), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("adding %s to watchlist: %w", symbol, err)
	}
	return nil
}

// RemoveFromWatchlist stops watching symbol. Unknown symbols are ignored.
func (s *SQLiteStore) RemoveFromWatchlist(ctx context.Context, symbol string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM watchlist WHERE symbol = ?`, strings.ToUpper(symbol))
	if err != nil {
		return fmt.Errorf("removing %s from watchlist: %w", symbol, err)
	}
	return nil
}

// Watchlist returns watched symbols oldest first.
func (s *SQLiteStore) Watchlist(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol FROM watchlist ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing watchlist: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scanning watchlist: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}
