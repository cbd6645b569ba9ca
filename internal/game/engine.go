package game

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

type Stage string

const (
	StageNew          Stage = "new"
	StageWelcome      Stage = "welcome"
	StageInitializing Stage = "initializing"
	StageDeciding     Stage = "deciding"
	StageFinished     Stage = "finished"
)

type Listener func(Message)

type Turn struct {
	Number       int
	Decision     string
	Kind         DecisionKind
	Matched      bool
	Event        *FinancialEvent
	Unlocked     []AchievementID
	XPGained     int
	State        GameState
	Metrics      Metrics
	NextScenario string
	Narration    string
}

type Summary struct {
	Player     string
	Career     CareerID
	CareerName string
	Turns      int
	State      GameState
	Metrics    Metrics
	Insights   []string
	Narration  string
}

// Snapshot is the persisted form of an engine. Keys holds the most recent
// decision idempotency keys of the session, oldest first; the engine itself
// ignores them.
type Snapshot struct {
	ID         string    `json:"id"`
	Player     string    `json:"player"`
	Career     CareerID  `json:"career"`
	Stage      Stage     `json:"stage"`
	State      GameState `json:"state"`
	Turns      int       `json:"turns"`
	Transcript []Message `json:"transcript"`
	Keys       []string  `json:"keys,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (s Snapshot) Clone() Snapshot {
	s.State = s.State.Clone()
	s.Transcript = slices.Clone(s.Transcript)
	s.Keys = slices.Clone(s.Keys)
	return s
}

type EngineOption func(*Engine)

func WithRand(r Rand) EngineOption {
	return func(e *Engine) { e.rand = r }
}

func WithScheduler(s Scheduler) EngineOption {
	return func(e *Engine) { e.sched = s }
}

func WithPacing(p Pacing) EngineOption {
	return func(e *Engine) { e.pacing = p }
}

func WithListener(l Listener) EngineOption {
	return func(e *Engine) { e.listener = l }
}

func WithClampPolicy(p ClampPolicy) EngineOption {
	return func(e *Engine) { e.clamp = p }
}

// Engine owns the financial state of one play session.
type Engine struct {
	mu       sync.Mutex
	content  *Content
	rand     Rand
	sched    Scheduler
	pacing   Pacing
	listener Listener
	clamp    ClampPolicy

	stage      Stage
	player     string
	career     Career
	state      GameState
	turns      int
	transcript []Message
	pending    []func()
	ready      chan struct{}
	readyOnce  sync.Once
}

func NewEngine(content *Content, opts ...EngineOption) *Engine {
	if content == nil {
		content = DefaultContent()
	}
	e := &Engine{
		content: content,
		sched:   TimerScheduler{},
		pacing:  DefaultPacing(),
		clamp:   ClampNone,
		stage:   StageNew,
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rand == nil {
		e.rand = NewRand(0)
	}
	return e
}

// Restore rebuilds an engine from a snapshot. Anything but a finished session
// resumes in StageDeciding, including sessions persisted mid-pacing.
func Restore(content *Content, snap Snapshot, opts ...EngineOption) (*Engine, error) {
	e := NewEngine(content, opts...)
	career, ok := e.content.Career(snap.Career)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCareer, snap.Career)
	}
	e.player = snap.Player
	e.career = career
	e.state = snap.State.Clone()
	e.state.Level = LevelForXP(e.state.XP)
	e.turns = snap.Turns
	e.transcript = slices.Clone(snap.Transcript)
	e.stage = StageDeciding
	if snap.Stage == StageFinished {
		e.stage = StageFinished
	}
	e.markReady()
	return e, nil
}

func (e *Engine) Ready() <-chan struct{} {
	return e.ready
}

func (e *Engine) markReady() {
	e.readyOnce.Do(func() { close(e.ready) })
}

// Start is the game initialization: it loads the career preset and narrates
// the welcome and initialization messages, paced by the scheduler.
func (e *Engine) Start(careerName, player string) error {
	career, err := e.content.ParseCareer(careerName)
	if err != nil {
		return err
	}
	player = strings.TrimSpace(player)
	if player == "" {
		player = "Player"
	}

	e.mu.Lock()
	if e.stage != StageNew {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	e.player = player
	e.career = career
	e.state = NewState(career.Preset)
	e.state.Clamp(e.clamp)
	e.stage = StageWelcome
	msg := e.record(MessageWelcome, welcomeText(player, career))
	e.mu.Unlock()

	e.emit(msg)
	e.schedule(e.pacing.Welcome, e.initialize)
	return nil
}

func (e *Engine) initialize() {
	e.mu.Lock()
	if e.stage != StageWelcome {
		e.mu.Unlock()
		return
	}
	e.stage = StageInitializing
	scenario := e.content.FallbackScenario
	if len(e.career.Scenarios) > 0 {
		scenario = e.career.Scenarios[0]
	}
	msg := e.record(MessageInit, initText(e.career, e.state, scenario))
	e.mu.Unlock()

	e.emit(msg)
	e.schedule(e.pacing.Reveal, e.enterDeciding)
}

func (e *Engine) enterDeciding() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stage != StageInitializing {
		return
	}
	e.stage = StageDeciding
	e.markReady()
}

func (e *Engine) schedule(d time.Duration, fn func()) {
	cancel := e.sched.Schedule(d, fn)
	e.mu.Lock()
	e.pending = append(e.pending, cancel)
	e.mu.Unlock()
}

// MakeDecision classifies free text and plays it. Text matching no rule is
// played as DecisionUnmatched and reported with Turn.Matched == false.
func (e *Engine) MakeDecision(text string) (Turn, error) {
	return e.play(strings.TrimSpace(text), ClassifyDecision(text))
}

func (e *Engine) Choose(kind DecisionKind) (Turn, error) {
	if !slices.Contains(DecisionKinds, kind) {
		return Turn{}, fmt.Errorf("%w: %q", ErrUnknownDecision, kind)
	}
	return e.play(kind.Label(), kind)
}

func (e *Engine) play(text string, kind DecisionKind) (Turn, error) {
	e.mu.Lock()
	switch e.stage {
	case StageDeciding:
	case StageFinished:
		e.mu.Unlock()
		return Turn{}, ErrGameOver
	default:
		e.mu.Unlock()
		return Turn{}, ErrNotReady
	}

	s := &e.state
	before := len(s.Achievements)
	xpBefore := s.XP

	applyDecision(s, kind, e.rand)
	s.Clamp(e.clamp)
	if s.Metrics().MonthlyBalance.IsPositive() {
		s.AddXP(XPPerGoodMonth)
	}

	var fired *FinancialEvent
	if evt, ok := rollEvent(e.content, e.rand); ok {
		ApplyEvent(s, evt)
		s.Clamp(e.clamp)
		fired = &evt
	}

	sweepAchievements(s)
	unlocked := slices.Clone(s.Achievements[before:])
	s.AddXP(XPPerAchievement * len(unlocked))
	s.Level = LevelForXP(s.XP)

	next := e.nextScenario()
	e.turns++
	turn := Turn{
		Number:       e.turns,
		Decision:     text,
		Kind:         kind,
		Matched:      kind != DecisionUnmatched,
		Event:        fired,
		Unlocked:     unlocked,
		XPGained:     s.XP - xpBefore,
		State:        s.Clone(),
		Metrics:      s.Metrics(),
		NextScenario: next,
		Narration:    statusText(text, *s, fired, next),
	}
	msg := e.record(MessageStatus, turn.Narration)
	e.mu.Unlock()

	e.emit(msg)
	return turn, nil
}

func (e *Engine) nextScenario() string {
	if len(e.career.Scenarios) == 0 {
		return e.content.FallbackScenario
	}
	return e.career.Scenarios[e.rand.Intn(len(e.career.Scenarios))]
}

// End finishes the game and narrates the closing summary. No state changes
// after End.
func (e *Engine) End() (Summary, error) {
	e.mu.Lock()
	switch e.stage {
	case StageNew:
		e.mu.Unlock()
		return Summary{}, ErrNotReady
	case StageFinished:
		e.mu.Unlock()
		return Summary{}, ErrGameOver
	}
	for _, cancel := range e.pending {
		cancel()
	}
	e.pending = nil
	e.stage = StageFinished
	e.markReady()

	m := e.state.Metrics()
	insights := Insights(m)
	sum := Summary{
		Player:     e.player,
		Career:     e.career.ID,
		CareerName: e.career.Name,
		Turns:      e.turns,
		State:      e.state.Clone(),
		Metrics:    m,
		Insights:   insights,
		Narration:  summaryText(e.player, e.career, e.state, insights),
	}
	msg := e.record(MessageSummary, sum.Narration)
	e.mu.Unlock()

	e.emit(msg)
	return sum, nil
}

func (e *Engine) record(kind MessageKind, text string) Message {
	msg := Message{Kind: kind, Text: text}
	e.transcript = append(e.transcript, msg)
	return msg
}

func (e *Engine) emit(msg Message) {
	if e.listener != nil {
		e.listener(msg)
	}
}

func (e *Engine) Stage() Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stage
}

func (e *Engine) State() GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

func (e *Engine) Transcript() []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.transcript)
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Player:     e.player,
		Career:     e.career.ID,
		Stage:      e.stage,
		State:      e.state.Clone(),
		Turns:      e.turns,
		Transcript: slices.Clone(e.transcript),
	}
}
