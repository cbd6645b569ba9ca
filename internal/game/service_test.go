package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeStore struct {
	mu    sync.Mutex
	snaps map[string]Snapshot
}

func newFakeStore() *fakeStore {
	return &fakeStore{snaps: make(map[string]Snapshot)}
}

func (f *fakeStore) Save(_ context.Context, snap Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snaps[snap.ID] = snap
	return nil
}

func (f *fakeStore) Load(_ context.Context, id string) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.snaps[id]
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}
	return snap, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snaps, id)
	return nil
}

func (f *fakeStore) DeleteIdle(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, snap := range f.snaps {
		if snap.UpdatedAt.Before(before) {
			delete(f.snaps, id)
			n++
		}
	}
	return n, nil
}

type fakeRecorder struct {
	turns    []TurnRecord
	outcomes []OutcomeRecord
}

func (f *fakeRecorder) RecordTurn(_ context.Context, rec TurnRecord) error {
	f.turns = append(f.turns, rec)
	return nil
}

func (f *fakeRecorder) RecordOutcome(_ context.Context, rec OutcomeRecord) error {
	f.outcomes = append(f.outcomes, rec)
	return nil
}

type fakeAdvisor struct {
	err error
}

func (f fakeAdvisor) Advise(_ context.Context, sum Summary) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "  Keep going, " + sum.Player + ".  ", nil
}

func newTestService(store SessionStore, opts ...ServiceOption) *Service {
	opts = append([]ServiceOption{WithRandFactory(func() Rand { return &scriptedRand{} })}, opts...)
	return NewService(nil, store, nil, opts...)
}

func TestServiceStartGame(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeStore())
	res, err := svc.StartGame(ctx, "Ana", "Student")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if res.SessionID == "" || res.Stage != StageDeciding {
		t.Fatalf("result %+v", res)
	}
	if res.State.Income != 1200 || res.State.Debt != 20000 || res.State.Level != 1 {
		t.Fatalf("state %+v", res.State)
	}
	if !strings.Contains(res.Content, "Welcome") || !strings.Contains(res.Content, "first challenge") {
		t.Fatalf("content %q", res.Content)
	}

	if _, err := svc.StartGame(ctx, "Ana", "astronaut"); !errors.Is(err, ErrUnknownCareer) {
		t.Fatalf("expected ErrUnknownCareer, got %v", err)
	}
}

func TestServiceDecide(t *testing.T) {
	ctx := context.Background()
	rec := &fakeRecorder{}
	svc := newTestService(newFakeStore(), WithRecorder(rec))
	res, err := svc.StartGame(ctx, "Ana", "student")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	turn, err := svc.Decide(ctx, res.SessionID, DecisionInput{Text: "I will pay off my loan", IdempotencyKey: "k1"})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if turn.State.Debt != 18000 || turn.State.Savings != 0 || turn.Kind != DecisionPayDebt {
		t.Fatalf("turn %+v", turn)
	}
	if _, err := svc.Decide(ctx, res.SessionID, DecisionInput{Text: "save", IdempotencyKey: "k1"}); !errors.Is(err, ErrDuplicateDecision) {
		t.Fatalf("expected ErrDuplicateDecision, got %v", err)
	}

	if _, err := svc.Decide(ctx, res.SessionID, DecisionInput{Kind: "gamble", IdempotencyKey: "k2"}); !errors.Is(err, ErrUnknownDecision) {
		t.Fatalf("expected ErrUnknownDecision, got %v", err)
	}
	if _, err := svc.Decide(ctx, res.SessionID, DecisionInput{Kind: "save", IdempotencyKey: "k2"}); err != nil {
		t.Fatalf("failed decisions must release their key: %v", err)
	}
	if len(rec.turns) != 2 || rec.turns[0].Turn != 1 || rec.turns[1].Kind != DecisionSave {
		t.Fatalf("recorded turns %+v", rec.turns)
	}

	if _, err := svc.Decide(ctx, "missing", DecisionInput{Text: "save"}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestServiceEndGame(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	rec := &fakeRecorder{}
	svc := newTestService(store, WithRecorder(rec), WithAdvisor(fakeAdvisor{}))
	res, err := svc.StartGame(ctx, "Ana", "banker")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.Decide(ctx, res.SessionID, DecisionInput{Kind: "invest"}); err != nil {
		t.Fatalf("decide: %v", err)
	}

	end, err := svc.EndGame(ctx, res.SessionID)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if end.Turns != 1 || len(end.Insights) == 0 || end.Advice != "Keep going, Ana." {
		t.Fatalf("end %+v", end)
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0].Career != CareerBanker {
		t.Fatalf("outcomes %+v", rec.outcomes)
	}
	if _, err := svc.Session(ctx, res.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ended session to be gone, got %v", err)
	}
	if _, err := svc.EndGame(ctx, res.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestServiceAdvisorFailureIsSoft(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil, WithAdvisor(fakeAdvisor{err: errors.New("quota")}))
	res, err := svc.StartGame(ctx, "Ana", "artist")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	end, err := svc.EndGame(ctx, res.SessionID)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if end.Advice != "" || !strings.Contains(end.Content, "Game over") {
		t.Fatalf("end %+v", end)
	}
}

func TestServiceRestoresFromStore(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	first := newTestService(store)
	res, err := first.StartGame(ctx, "Ana", "entrepreneur")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := first.Decide(ctx, res.SessionID, DecisionInput{Kind: "save"}); err != nil {
		t.Fatalf("decide: %v", err)
	}

	second := newTestService(store)
	view, err := second.Session(ctx, res.SessionID)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if view.Turns != 1 || view.Stage != StageDeciding || view.State.Savings != 10500 {
		t.Fatalf("view %+v", view)
	}
	turn, err := second.Decide(ctx, res.SessionID, DecisionInput{Kind: "continue"})
	if err != nil {
		t.Fatalf("decide after restore: %v", err)
	}
	if turn.Turn != 2 {
		t.Fatalf("turn %d", turn.Turn)
	}
}

func TestServiceSweepIdle(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, WithClock(func() time.Time { return now }))
	old, err := svc.StartGame(ctx, "Ana", "student")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	now = now.Add(2 * time.Hour)
	fresh, err := svc.StartGame(ctx, "Bo", "student")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	n, err := svc.SweepIdle(ctx, time.Hour)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("deleted %d", n)
	}
	if _, err := svc.Session(ctx, old.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected idle session gone, got %v", err)
	}
	if _, err := svc.Session(ctx, fresh.SessionID); err != nil {
		t.Fatalf("fresh session: %v", err)
	}
}

func TestServiceCareers(t *testing.T) {
	got := newTestService(nil).Careers()
	if len(got) != 4 || got[0].ID != CareerStudent || got[0].Income != 1200 || got[0].Scenarios != 4 {
		t.Fatalf("careers %+v", got)
	}
}

func TestServiceDuplicateKeySurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	first := newTestService(store)
	res, err := first.StartGame(ctx, "Ana", "student")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := first.Decide(ctx, res.SessionID, DecisionInput{Kind: "save", IdempotencyKey: "k1"}); err != nil {
		t.Fatalf("decide: %v", err)
	}

	second := newTestService(store)
	if _, err := second.Decide(ctx, res.SessionID, DecisionInput{Kind: "save", IdempotencyKey: "k1"}); !errors.Is(err, ErrDuplicateDecision) {
		t.Fatalf("expected ErrDuplicateDecision after restart, got %v", err)
	}
	view, err := second.Session(ctx, res.SessionID)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if view.State.Savings != 1000 || view.Turns != 1 {
		t.Fatalf("replayed decision was applied again: %+v", view)
	}
	if len(view.Transcript) != 3 || view.Transcript[0].Kind != MessageWelcome || view.Transcript[2].Kind != MessageStatus {
		t.Fatalf("transcript after restart %+v", view.Transcript)
	}

	if _, err := second.Decide(ctx, res.SessionID, DecisionInput{Kind: "save", IdempotencyKey: "k2"}); err != nil {
		t.Fatalf("new key after restart: %v", err)
	}
	if keys := store.snaps[res.SessionID].Keys; len(keys) != 2 || keys[0] != "k1" || keys[1] != "k2" {
		t.Fatalf("persisted keys %v", keys)
	}
}

func TestSessionKeyWindow(t *testing.T) {
	sess := newSession("s", nil, []string{"a", "b"}, time.Now())
	if sess.remember("a") {
		t.Fatalf("seeded key accepted twice")
	}
	for i := 0; i < maxDecisionKeys; i++ {
		if !sess.remember(fmt.Sprintf("k%d", i)) {
			t.Fatalf("fresh key k%d rejected", i)
		}
	}
	if len(sess.order) != maxDecisionKeys || len(sess.keys) != maxDecisionKeys {
		t.Fatalf("window order=%d keys=%d", len(sess.order), len(sess.keys))
	}
	if !sess.remember("a") {
		t.Fatalf("oldest key should have left the window")
	}
	if sess.order[0] != "k1" {
		t.Fatalf("oldest remembered key %q", sess.order[0])
	}

	sess.forget("a")
	if _, ok := sess.keys["a"]; ok || sess.order[len(sess.order)-1] == "a" {
		t.Fatalf("forget left key behind")
	}
}
