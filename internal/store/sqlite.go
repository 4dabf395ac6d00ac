package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "alphamind/internal/errors"
	"alphamind/internal/models"
)

// SQLiteStore implements DataStore using SQLite. Trades form an
// append-only record: rows are inserted on open, updated exactly once
// on close, never deleted.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		signal_id TEXT,
		symbol TEXT NOT NULL,
		direction TEXT NOT NULL,
		entry_price REAL NOT NULL,
		quantity REAL NOT NULL,
		stop_loss REAL NOT NULL,
		take_profit REAL NOT NULL,
		strategy TEXT,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		exit_price REAL,
		pnl REAL,
		closed_at DATETIME,
		close_reason TEXT
	);

	CREATE TABLE IF NOT EXISTS signals (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		class TEXT NOT NULL,
		mode TEXT NOT NULL,
		strategy TEXT,
		direction TEXT NOT NULL,
		current_price REAL NOT NULL,
		optimal_entry REAL NOT NULL,
		entry_type TEXT NOT NULL,
		stop_loss REAL NOT NULL,
		take_profit_1 REAL NOT NULL,
		take_profit_2 REAL,
		take_profit_3 REAL,
		rr_ratio REAL NOT NULL,
		confidence REAL NOT NULL,
		structure TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
	CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);
	CREATE INDEX IF NOT EXISTS idx_signals_symbol ON signals(symbol);
	CREATE INDEX IF NOT EXISTS idx_signals_created ON signals(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveTrade inserts a newly opened trade.
func (s *SQLiteStore) SaveTrade(ctx context.Context, t *models.Trade) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (id, signal_id, symbol, direction, entry_price, quantity,
			stop_loss, take_profit, strategy, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.SignalID, t.Symbol, string(t.Direction), t.EntryPrice, t.Quantity,
		t.StopLoss, t.TakeProfit, t.Strategy, string(t.Status), t.CreatedAt)
	if err != nil {
		return &apperrors.DataError{DataType: "trade", Symbol: t.Symbol, Message: "insert failed", Err: err}
	}
	return nil
}

// UpdateTrade records the close fields of a trade. Open fields are
// immutable once written.
func (s *SQLiteStore) UpdateTrade(ctx context.Context, t *models.Trade) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE trades
		SET status = ?, exit_price = ?, pnl = ?, closed_at = ?, close_reason = ?
		WHERE id = ?
	`, string(t.Status), t.ExitPrice, t.PnL, t.ClosedAt, string(t.CloseReason), t.ID)
	if err != nil {
		return &apperrors.DataError{DataType: "trade", Symbol: t.Symbol, Message: "update failed", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrTradeNotFound
	}
	return nil
}

// LoadTrades returns every trade ordered by creation time.
func (s *SQLiteStore) LoadTrades(ctx context.Context) ([]*models.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, signal_id, symbol, direction, entry_price, quantity,
			stop_loss, take_profit, strategy, status, created_at,
			exit_price, pnl, closed_at, close_reason
		FROM trades
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []*models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// GetTrade returns a single trade by id.
func (s *SQLiteStore) GetTrade(ctx context.Context, id string) (*models.Trade, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, signal_id, symbol, direction, entry_price, quantity,
			stop_loss, take_profit, strategy, status, created_at,
			exit_price, pnl, closed_at, close_reason
		FROM trades
		WHERE id = ?
	`, id)
	t, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrTradeNotFound
	}
	return t, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrade(row rowScanner) (*models.Trade, error) {
	var t models.Trade
	var direction, status string
	var exitPrice, pnl sql.NullFloat64
	var closedAt sql.NullTime
	var closeReason sql.NullString

	err := row.Scan(&t.ID, &t.SignalID, &t.Symbol, &direction, &t.EntryPrice, &t.Quantity,
		&t.StopLoss, &t.TakeProfit, &t.Strategy, &status, &t.CreatedAt,
		&exitPrice, &pnl, &closedAt, &closeReason)
	if err != nil {
		return nil, err
	}

	t.Direction = models.Direction(direction)
	t.Status = models.TradeStatus(status)
	if exitPrice.Valid {
		t.ExitPrice = exitPrice.Float64
	}
	if pnl.Valid {
		t.PnL = pnl.Float64
	}
	if closedAt.Valid {
		t.ClosedAt = closedAt.Time
	}
	if closeReason.Valid {
		t.CloseReason = models.CloseReason(closeReason.String)
	}
	return &t, nil
}

// SaveSignal persists a generated signal. The structure snapshot is
// stored as JSON alongside the scalar levels.
func (s *SQLiteStore) SaveSignal(ctx context.Context, sig *models.Signal) error {
	structureJSON, err := json.Marshal(sig.Structure)
	if err != nil {
		return fmt.Errorf("failed to marshal structure: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO signals (id, symbol, timeframe, class, mode, strategy, direction,
			current_price, optimal_entry, entry_type, stop_loss,
			take_profit_1, take_profit_2, take_profit_3,
			rr_ratio, confidence, structure, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sig.ID, sig.Symbol, sig.Timeframe, string(sig.Class), string(sig.Mode), sig.Strategy,
		string(sig.Direction), sig.CurrentPrice, sig.OptimalEntry, string(sig.EntryType),
		sig.StopLoss, sig.TakeProfit1, sig.TakeProfit2, sig.TakeProfit3,
		sig.RRRatio, sig.Confidence, string(structureJSON), sig.CreatedAt)
	if err != nil {
		return &apperrors.DataError{DataType: "signal", Symbol: sig.Symbol, Message: "insert failed", Err: err}
	}
	return nil
}

// GetSignals returns signals matching the filter, newest first.
func (s *SQLiteStore) GetSignals(ctx context.Context, filter SignalFilter) ([]*models.Signal, error) {
	query := `
		SELECT id, symbol, timeframe, class, mode, strategy, direction,
			current_price, optimal_entry, entry_type, stop_loss,
			take_profit_1, take_profit_2, take_profit_3,
			rr_ratio, confidence, structure, created_at
		FROM signals
		WHERE 1=1
	`
	var args []interface{}
	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.Strategy != "" {
		query += " AND strategy = ?"
		args = append(args, filter.Strategy)
	}
	if !filter.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.Since)
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var signals []*models.Signal
	for rows.Next() {
		var sig models.Signal
		var class, mode, direction, entryType, structureJSON string
		err := rows.Scan(&sig.ID, &sig.Symbol, &sig.Timeframe, &class, &mode, &sig.Strategy,
			&direction, &sig.CurrentPrice, &sig.OptimalEntry, &entryType, &sig.StopLoss,
			&sig.TakeProfit1, &sig.TakeProfit2, &sig.TakeProfit3,
			&sig.RRRatio, &sig.Confidence, &structureJSON, &sig.CreatedAt)
		if err != nil {
			return nil, err
		}
		sig.Class = models.InstrumentClass(class)
		sig.Mode = models.TradingMode(mode)
		sig.Direction = models.Direction(direction)
		sig.EntryType = models.EntryType(entryType)
		if structureJSON != "" {
			if err := json.Unmarshal([]byte(structureJSON), &sig.Structure); err != nil {
				return nil, fmt.Errorf("failed to unmarshal structure: %w", err)
			}
		}
		signals = append(signals, &sig)
	}
	return signals, rows.Err()
}
