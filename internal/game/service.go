package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStore persists engine snapshots between requests and restarts.
// Load returns ErrSessionNotFound for unknown ids.
type SessionStore interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context, id string) (Snapshot, error)
	Delete(ctx context.Context, id string) error
	DeleteIdle(ctx context.Context, before time.Time) (int64, error)
}

type Recorder interface {
	RecordTurn(ctx context.Context, rec TurnRecord) error
	RecordOutcome(ctx context.Context, rec OutcomeRecord) error
}

// Advisor writes free-form closing advice for a finished game.
type Advisor interface {
	Advise(ctx context.Context, sum Summary) (string, error)
}

type ServiceOption func(*Service)

func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) { s.rec = r }
}

func WithAdvisor(a Advisor) ServiceOption {
	return func(s *Service) { s.advisor = a }
}

func WithSessionClamp(p ClampPolicy) ServiceOption {
	return func(s *Service) { s.clamp = p }
}

func WithRandFactory(f func() Rand) ServiceOption {
	return func(s *Service) { s.newRand = f }
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// maxDecisionKeys bounds the idempotency keys remembered per session.
const maxDecisionKeys = 256

type session struct {
	id      string
	engine  *Engine
	keys    map[string]struct{}
	order   []string
	touched time.Time
}

func newSession(id string, engine *Engine, keys []string, now time.Time) *session {
	sess := &session{id: id, engine: engine, keys: make(map[string]struct{}), touched: now}
	for _, k := range keys {
		sess.remember(k)
	}
	return sess
}

// remember records key and reports false when it was already used. The
// oldest key is forgotten once the window is full.
func (sess *session) remember(key string) bool {
	if _, dup := sess.keys[key]; dup {
		return false
	}
	sess.keys[key] = struct{}{}
	sess.order = append(sess.order, key)
	if len(sess.order) > maxDecisionKeys {
		delete(sess.keys, sess.order[0])
		sess.order = sess.order[1:]
	}
	return true
}

func (sess *session) forget(key string) {
	if _, ok := sess.keys[key]; !ok {
		return
	}
	delete(sess.keys, key)
	sess.order = slices.DeleteFunc(sess.order, func(k string) bool { return k == key })
}

type Service struct {
	content *Content
	store   SessionStore
	rec     Recorder
	advisor Advisor
	log     *slog.Logger
	clamp   ClampPolicy
	newRand func() Rand
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewService(content *Content, store SessionStore, logger *slog.Logger, opts ...ServiceOption) *Service {
	if content == nil {
		content = DefaultContent()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		content:  content,
		store:    store,
		log:      logger,
		clamp:    ClampNone,
		newRand:  func() Rand { return NewRand(0) },
		now:      time.Now,
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SeededRandFactory hands every new session its own source derived from seed.
func SeededRandFactory(seed int64) func() Rand {
	var mu sync.Mutex
	next := seed
	return func() Rand {
		mu.Lock()
		defer mu.Unlock()
		next++
		return NewRand(next)
	}
}

func (s *Service) engineOptions() []EngineOption {
	return []EngineOption{
		WithScheduler(Immediate{}),
		WithRand(s.newRand()),
		WithClampPolicy(s.clamp),
	}
}

func (s *Service) Careers() []CareerView {
	out := make([]CareerView, 0, len(s.content.Careers))
	for _, c := range s.content.Careers {
		out = append(out, CareerView{
			ID:        c.ID,
			Name:      c.Name,
			Income:    c.Preset.Income.InexactFloat64(),
			Expenses:  c.Preset.Expenses.InexactFloat64(),
			Savings:   c.Preset.Savings.InexactFloat64(),
			Debt:      c.Preset.Debt.InexactFloat64(),
			Scenarios: len(c.Scenarios),
		})
	}
	return out
}

func (s *Service) StartGame(ctx context.Context, playerName, career string) (StartResult, error) {
	engine := NewEngine(s.content, s.engineOptions()...)
	if err := engine.Start(career, playerName); err != nil {
		if errors.Is(err, ErrUnknownCareer) {
			s.log.Warn("unknown career requested", "career", career)
		}
		return StartResult{}, err
	}

	sess := newSession(uuid.NewString(), engine, nil, s.now())
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	s.persist(ctx, sess)

	messages := engine.Transcript()
	texts := make([]string, len(messages))
	for i, m := range messages {
		texts[i] = m.Text
	}
	snap := engine.Snapshot()
	s.log.Info("game started", "session_id", sess.id, "career", snap.Career)
	return StartResult{
		SessionID: sess.id,
		Stage:     snap.Stage,
		Content:   strings.Join(texts, "\n\n"),
		Messages:  messages,
		State:     NewStateView(snap.State),
		Metrics:   NewMetricsView(snap.State.Metrics()),
	}, nil
}

func (s *Service) Decide(ctx context.Context, sessionID string, in DecisionInput) (TurnResult, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return TurnResult{}, err
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		s.mu.Lock()
		fresh := sess.remember(key)
		s.mu.Unlock()
		if !fresh {
			return TurnResult{}, ErrDuplicateDecision
		}
	}

	var turn Turn
	if strings.TrimSpace(in.Kind) != "" {
		var kind DecisionKind
		kind, err = ParseDecisionKind(in.Kind)
		if err == nil {
			turn, err = sess.engine.Choose(kind)
		}
	} else {
		turn, err = sess.engine.MakeDecision(in.Text)
	}
	if err != nil {
		if key != "" {
			s.mu.Lock()
			sess.forget(key)
			s.mu.Unlock()
		}
		return TurnResult{}, err
	}

	s.touch(sess)
	s.persist(ctx, sess)
	s.recordTurn(ctx, sess, turn)
	if !turn.Matched {
		s.log.Info("decision matched no rule", "session_id", sess.id, "decision", turn.Decision)
	}
	return newTurnResult(sess.id, turn), nil
}

func (s *Service) EndGame(ctx context.Context, sessionID string) (EndResult, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return EndResult{}, err
	}
	sum, err := sess.engine.End()
	if err != nil {
		return EndResult{}, err
	}

	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
	if s.store != nil {
		if err := s.store.Delete(ctx, sess.id); err != nil {
			s.log.Warn("session delete failed", "session_id", sess.id, "err", err)
		}
	}
	if s.rec != nil {
		if err := s.rec.RecordOutcome(ctx, s.outcome(sess.id, sum)); err != nil {
			s.log.Warn("record outcome failed", "session_id", sess.id, "err", err)
		}
	}

	out := EndResult{
		SessionID: sess.id,
		Content:   sum.Narration,
		Insights:  sum.Insights,
		Turns:     sum.Turns,
		State:     NewStateView(sum.State),
		Metrics:   NewMetricsView(sum.Metrics),
	}
	if s.advisor != nil {
		advice, err := s.advisor.Advise(ctx, sum)
		if err != nil {
			s.log.Warn("advisor failed", "session_id", sess.id, "err", err)
		} else {
			out.Advice = strings.TrimSpace(advice)
		}
	}
	s.log.Info("game ended", "session_id", sess.id, "turns", sum.Turns, "level", sum.State.Level)
	return out, nil
}

func (s *Service) Session(ctx context.Context, sessionID string) (SessionView, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	snap := sess.engine.Snapshot()
	return SessionView{
		SessionID:  sess.id,
		Player:     snap.Player,
		Career:     snap.Career,
		Stage:      snap.Stage,
		Turns:      snap.Turns,
		State:      NewStateView(snap.State),
		Metrics:    NewMetricsView(snap.State.Metrics()),
		Transcript: sess.engine.Transcript(),
	}, nil
}

// SweepIdle evicts sessions untouched for maxIdle and removes their stored
// snapshots. It returns the number of stored snapshots deleted.
func (s *Service) SweepIdle(ctx context.Context, maxIdle time.Duration) (int64, error) {
	cutoff := s.now().Add(-maxIdle)
	s.mu.Lock()
	evicted := 0
	for id, sess := range s.sessions {
		if sess.touched.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	s.mu.Unlock()
	if evicted > 0 {
		s.log.Info("idle sessions evicted", "count", evicted)
	}
	if s.store == nil {
		return 0, nil
	}
	n, err := s.store.DeleteIdle(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete idle sessions: %w", err)
	}
	return n, nil
}

func (s *Service) session(ctx context.Context, id string) (*session, error) {
	id = strings.TrimSpace(id)
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		return sess, nil
	}
	if s.store == nil || id == "" {
		return nil, ErrSessionNotFound
	}

	snap, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	engine, err := Restore(s.content, snap, s.engineOptions()...)
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[id]; ok {
		return existing, nil
	}
	sess = newSession(id, engine, snap.Keys, s.now())
	s.sessions[id] = sess
	return sess, nil
}

func (s *Service) touch(sess *session) {
	s.mu.Lock()
	sess.touched = s.now()
	s.mu.Unlock()
}

func (s *Service) persist(ctx context.Context, sess *session) {
	if s.store == nil {
		return
	}
	snap := sess.engine.Snapshot()
	snap.ID = sess.id
	s.mu.Lock()
	snap.Keys = slices.Clone(sess.order)
	s.mu.Unlock()
	snap.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, snap); err != nil {
		s.log.Warn("session save failed", "session_id", sess.id, "err", err)
	}
}

func (s *Service) recordTurn(ctx context.Context, sess *session, t Turn) {
	if s.rec == nil {
		return
	}
	rec := TurnRecord{
		SessionID: sess.id,
		Career:    sess.engine.Snapshot().Career,
		Turn:      t.Number,
		Kind:      t.Kind,
		Decision:  t.Decision,
		Matched:   t.Matched,
		XP:        t.State.XP,
		Level:     t.State.Level,
		Income:    t.State.Income,
		Expenses:  t.State.Expenses,
		Savings:   t.State.Savings,
		Debt:      t.State.Debt,
		At:        s.now().UTC(),
	}
	if t.Event != nil {
		rec.EventType = t.Event.Type
	}
	if err := s.rec.RecordTurn(ctx, rec); err != nil {
		s.log.Warn("record turn failed", "session_id", sess.id, "err", err)
	}
}

func (s *Service) outcome(id string, sum Summary) OutcomeRecord {
	return OutcomeRecord{
		SessionID:         id,
		Player:            sum.Player,
		Career:            sum.Career,
		Turns:             sum.Turns,
		XP:                sum.State.XP,
		Level:             sum.State.Level,
		Achievements:      sum.State.Achievements,
		Income:            sum.State.Income,
		Expenses:          sum.State.Expenses,
		Savings:           sum.State.Savings,
		Debt:              sum.State.Debt,
		DebtToIncomeRatio: sum.Metrics.DebtToIncomeRatio,
		SavingsRatio:      sum.Metrics.SavingsRatio,
		EndedAt:           s.now().UTC(),
	}
}
