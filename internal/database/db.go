package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/oracle/models"
)

// DB is the PostgreSQL signal journal
type DB struct {
	*sqlx.DB
	logger zerolog.Logger
}

// New opens the database, checks the connection and creates tables.
func New(ctx context.Context, dsn string) (*DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{DB: db, logger: log.With().Str("component", "signal_journal").Logger()}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS signals (
			id          TEXT PRIMARY KEY,
			symbol      TEXT NOT NULL,
			bar_time    TIMESTAMPTZ NOT NULL,
			direction   TEXT NOT NULL,
			price       DOUBLE PRECISION NOT NULL,
			vti_score   SMALLINT NOT NULL,
			vti_status  TEXT NOT NULL,
			confidence  SMALLINT NOT NULL,
			risk_level  TEXT NOT NULL,
			stop_loss   DOUBLE PRECISION,
			payload     JSONB NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("create signals table: %w", err)
	}

	_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS signals_symbol_time ON signals (symbol, bar_time DESC)`)
	return err
}

// signalRow is the stored form of a signal; payload holds the full JSON.
type signalRow struct {
	ID         string          `db:"id"`
	Symbol     string          `db:"symbol"`
	BarTime    time.Time       `db:"bar_time"`
	Direction  string          `db:"direction"`
	Price      float64         `db:"price"`
	VTIScore   int             `db:"vti_score"`
	VTIStatus  string          `db:"vti_status"`
	Confidence int             `db:"confidence"`
	RiskLevel  string          `db:"risk_level"`
	StopLoss   sql.NullFloat64 `db:"stop_loss"`
	Payload    []byte          `db:"payload"`
}

func toRow(s *models.Signal) (signalRow, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return signalRow{}, fmt.Errorf("marshal signal: %w", err)
	}
	row := signalRow{
		ID:         s.ID,
		Symbol:     s.Instrument.Symbol,
		BarTime:    s.Timestamp.UTC(),
		Direction:  string(s.Direction),
		Price:      s.Price,
		VTIScore:   s.VTI.Score,
		VTIStatus:  string(s.VTI.Status),
		Confidence: s.VTI.Confidence,
		RiskLevel:  string(s.RiskLevel),
		Payload:    payload,
	}
	if s.Risk != nil {
		row.StopLoss = sql.NullFloat64{Float64: s.Risk.StopLoss, Valid: true}
	}
	return row, nil
}

func (r signalRow) signal() (*models.Signal, error) {
	var s models.Signal
	if err := json.Unmarshal(r.Payload, &s); err != nil {
		return nil, fmt.Errorf("decode signal %s: %w", r.ID, err)
	}
	return &s, nil
}

// SaveSignal stores a signal. Saving the same signal twice is a no-op.
func (db *DB) SaveSignal(ctx context.Context, s *models.Signal) error {
	row, err := toRow(s)
	if err != nil {
		return err
	}

	_, err = db.NamedExecContext(ctx, `
		INSERT INTO signals (
			id, symbol, bar_time, direction, price, vti_score, vti_status,
			confidence, risk_level, stop_loss, payload
		) VALUES (
			:id, :symbol, :bar_time, :direction, :price, :vti_score, :vti_status,
			:confidence, :risk_level, :stop_loss, :payload
		)
		ON CONFLICT (id) DO NOTHING
	`, row)
	if err != nil {
		return fmt.Errorf("insert signal %s: %w", s.ID, err)
	}
	return nil
}

// RecentSignals returns up to limit signals for symbol, newest first.
func (db *DB) RecentSignals(ctx context.Context, symbol string, limit int) ([]*models.Signal, error) {
	var rows []signalRow
	err := db.SelectContext(ctx, &rows, `
		SELECT id, symbol, bar_time, direction, price, vti_score, vti_status,
			confidence, risk_level, stop_loss, payload
		FROM signals
		WHERE symbol = $1
		ORDER BY bar_time DESC
		LIMIT $2
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query signals for %s: %w", symbol, err)
	}

	out := make([]*models.Signal, 0, len(rows))
	for _, r := range rows {
		s, err := r.signal()
		if err != nil {
			db.logger.Warn().Err(err).Msg("Skipping undecodable signal")
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// Notify implements models.Notifier by journaling every signal.
func (db *DB) Notify(ctx context.Context, s *models.Signal) error {
	return db.SaveSignal(ctx, s)
}
