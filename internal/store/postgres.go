package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintwin/internal/db"
	"fintwin/internal/game"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	sessionsTable     = "fintwin.sessions"
	achievementsTable = "fintwin.session_achievements"
	decisionsTable    = "fintwin.session_decisions"

	colID          = "id"
	colPlayer      = "player"
	colCareer      = "career"
	colStage       = "stage"
	colIncome      = "income"
	colExpenses    = "expenses"
	colSavings     = "savings"
	colDebt        = "debt"
	colXP          = "xp"
	colLevel       = "level"
	colTurns       = "turns"
	colTranscript  = "transcript"
	colIdemKey     = "idem_key"
	colUpdatedAt   = "updated_at"
	colSessionID   = "session_id"
	colPosition    = "position"
	colAchievement = "achievement"

	saveAttempts = 3
)

// Postgres stores snapshots in the fintwin schema (see db.EnsureSchema).
type Postgres struct {
	pool   *pgxpool.Pool
	tx     trm.Manager
	getter *trmpgx.CtxGetter
	sb     sq.StatementBuilderType
}

func NewPostgres(pool *pgxpool.Pool) (*Postgres, error) {
	m, err := manager.New(trmpgx.NewDefaultFactory(pool))
	if err != nil {
		return nil, fmt.Errorf("transaction manager: %w", err)
	}
	return &Postgres{
		pool:   pool,
		tx:     m,
		getter: trmpgx.DefaultCtxGetter,
		sb:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

func (p *Postgres) conn(ctx context.Context) trmpgx.Tr {
	return p.getter.DefaultTrOrDB(ctx, p.pool)
}

// Save upserts the session row and replaces its achievement and decision key
// rows in one transaction, retrying serialization failures.
func (p *Postgres) Save(ctx context.Context, snap game.Snapshot) error {
	var err error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		err = p.tx.Do(ctx, func(ctx context.Context) error {
			return p.save(ctx, snap)
		})
		if err == nil || !db.IsSerializationError(err) {
			break
		}
		if serr := sleepWithContext(ctx, time.Duration(attempt)*25*time.Millisecond); serr != nil {
			return serr
		}
	}
	if err != nil {
		return fmt.Errorf("save session %s: %w", snap.ID, err)
	}
	return nil
}

func (p *Postgres) save(ctx context.Context, snap game.Snapshot) error {
	s := snap.State
	transcript := snap.Transcript
	if transcript == nil {
		transcript = []game.Message{}
	}
	rawTranscript, err := json.Marshal(transcript)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	upsert := p.sb.Insert(sessionsTable).
		Columns(colID, colPlayer, colCareer, colStage, colIncome, colExpenses, colSavings, colDebt, colXP, colLevel, colTurns, colTranscript, colUpdatedAt).
		Values(snap.ID, snap.Player, string(snap.Career), string(snap.Stage),
			s.Income.String(), s.Expenses.String(), s.Savings.String(), s.Debt.String(),
			s.XP, s.Level, snap.Turns, sq.Expr("?::jsonb", string(rawTranscript)), snap.UpdatedAt).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			player = EXCLUDED.player,
			career = EXCLUDED.career,
			stage = EXCLUDED.stage,
			income = EXCLUDED.income,
			expenses = EXCLUDED.expenses,
			savings = EXCLUDED.savings,
			debt = EXCLUDED.debt,
			xp = EXCLUDED.xp,
			level = EXCLUDED.level,
			turns = EXCLUDED.turns,
			transcript = EXCLUDED.transcript,
			updated_at = EXCLUDED.updated_at`)
	if err := p.exec(ctx, upsert); err != nil {
		return err
	}

	achievements := make([]string, len(s.Achievements))
	for i, id := range s.Achievements {
		achievements[i] = string(id)
	}
	if err := p.replaceRows(ctx, achievementsTable, colAchievement, snap.ID, achievements); err != nil {
		return err
	}
	return p.replaceRows(ctx, decisionsTable, colIdemKey, snap.ID, snap.Keys)
}

// replaceRows swaps the ordered child rows of one session.
func (p *Postgres) replaceRows(ctx context.Context, table, col, id string, values []string) error {
	if err := p.exec(ctx, p.sb.Delete(table).Where(sq.Eq{colSessionID: id})); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	ins := p.sb.Insert(table).Columns(colSessionID, colPosition, col)
	for i, v := range values {
		ins = ins.Values(id, i, v)
	}
	return p.exec(ctx, ins)
}

func (p *Postgres) exec(ctx context.Context, q sq.Sqlizer) error {
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return err
	}
	_, err = p.conn(ctx).Exec(ctx, sqlStr, args...)
	return err
}

func (p *Postgres) Load(ctx context.Context, id string) (game.Snapshot, error) {
	query := p.sb.Select(colPlayer, colCareer, colStage,
		colIncome+"::text", colExpenses+"::text", colSavings+"::text", colDebt+"::text",
		colXP, colLevel, colTurns, colTranscript+"::text", colUpdatedAt).
		From(sessionsTable).
		Where(sq.Eq{colID: id})
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return game.Snapshot{}, err
	}

	snap := game.Snapshot{ID: id}
	var career, stage string
	var money [4]string
	var transcript string
	err = p.conn(ctx).QueryRow(ctx, sqlStr, args...).Scan(
		&snap.Player, &career, &stage,
		&money[0], &money[1], &money[2], &money[3],
		&snap.State.XP, &snap.State.Level, &snap.Turns, &transcript, &snap.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return game.Snapshot{}, game.ErrSessionNotFound
	}
	if err != nil {
		return game.Snapshot{}, fmt.Errorf("load session %s: %w", id, err)
	}
	snap.Career = game.CareerID(career)
	snap.Stage = game.Stage(stage)
	fields := []*decimal.Decimal{&snap.State.Income, &snap.State.Expenses, &snap.State.Savings, &snap.State.Debt}
	for i, raw := range money {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return game.Snapshot{}, fmt.Errorf("load session %s: %w", id, err)
		}
		*fields[i] = v
	}

	if err := json.Unmarshal([]byte(transcript), &snap.Transcript); err != nil {
		return game.Snapshot{}, fmt.Errorf("decode transcript %s: %w", id, err)
	}

	achievements, err := p.childRows(ctx, achievementsTable, colAchievement, id)
	if err != nil {
		return game.Snapshot{}, err
	}
	snap.State.Achievements = make([]game.AchievementID, len(achievements))
	for i, a := range achievements {
		snap.State.Achievements[i] = game.AchievementID(a)
	}
	if snap.Keys, err = p.childRows(ctx, decisionsTable, colIdemKey, id); err != nil {
		return game.Snapshot{}, err
	}
	return snap, nil
}

func (p *Postgres) childRows(ctx context.Context, table, col, id string) ([]string, error) {
	sqlStr, args, err := p.sb.Select(col).
		From(table).
		Where(sq.Eq{colSessionID: id}).
		OrderBy(colPosition).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := p.conn(ctx).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", table, id, err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	if err := p.exec(ctx, p.sb.Delete(sessionsTable).Where(sq.Eq{colID: id})); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func (p *Postgres) DeleteIdle(ctx context.Context, before time.Time) (int64, error) {
	sqlStr, args, err := p.sb.Delete(sessionsTable).Where(sq.Lt{colUpdatedAt: before}).ToSql()
	if err != nil {
		return 0, err
	}
	tag, err := p.conn(ctx).Exec(ctx, sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("delete idle sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
