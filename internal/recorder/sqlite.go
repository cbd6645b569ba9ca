package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"fintwin/internal/game"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder writes history rows to a local SQLite file.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *slog.Logger
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *slog.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("history recorder opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS turns (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			session_id TEXT NOT NULL,
			career     TEXT NOT NULL,
			turn       INTEGER NOT NULL,
			kind       TEXT,
			decision   TEXT,
			matched    INTEGER NOT NULL,
			event_type TEXT,
			xp         INTEGER,
			level      INTEGER,
			income     TEXT,
			expenses   TEXT,
			savings    TEXT,
			debt       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS turns_session_idx ON turns (session_id)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			session_id     TEXT NOT NULL,
			player         TEXT,
			career         TEXT NOT NULL,
			turns          INTEGER,
			xp             INTEGER,
			level          INTEGER,
			achievements   TEXT,
			income         TEXT,
			expenses       TEXT,
			savings        TEXT,
			debt           TEXT,
			debt_to_income REAL,
			savings_ratio  REAL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordTurn(ctx context.Context, rec game.TurnRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO turns
		(timestamp, session_id, career, turn, kind, decision, matched, event_type,
		 xp, level, income, expenses, savings, debt)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.At.Unix(), rec.SessionID, string(rec.Career), rec.Turn, string(rec.Kind),
		rec.Decision, rec.Matched, rec.EventType, rec.XP, rec.Level,
		rec.Income.String(), rec.Expenses.String(), rec.Savings.String(), rec.Debt.String(),
	)
	return err
}

func (r *SQLiteRecorder) RecordOutcome(ctx context.Context, rec game.OutcomeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(rec.Achievements))
	for i, a := range rec.Achievements {
		names[i] = string(a)
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO outcomes
		(timestamp, session_id, player, career, turns, xp, level, achievements,
		 income, expenses, savings, debt, debt_to_income, savings_ratio)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.EndedAt.Unix(), rec.SessionID, rec.Player, string(rec.Career), rec.Turns,
		rec.XP, rec.Level, strings.Join(names, ","),
		rec.Income.String(), rec.Expenses.String(), rec.Savings.String(), rec.Debt.String(),
		rec.DebtToIncomeRatio, rec.SavingsRatio,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing history recorder")
	return r.db.Close()
}
