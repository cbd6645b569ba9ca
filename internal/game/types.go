package game

import (
	"time"

	"github.com/shopspring/decimal"
)

type StateView struct {
	Income       float64  `json:"income"`
	Expenses     float64  `json:"expenses"`
	Savings      float64  `json:"savings"`
	Debt         float64  `json:"debt"`
	Achievements []string `json:"achievements"`
	Level        int      `json:"level"`
	XPEarned     int      `json:"xpEarned"`
}

type MetricsView struct {
	MonthlyBalance    float64 `json:"monthlyBalance"`
	DebtToIncomeRatio float64 `json:"debtToIncomeRatio"`
	SavingsRatio      float64 `json:"savingsRatio"`
}

func NewMetricsView(m Metrics) MetricsView {
	return MetricsView{
		MonthlyBalance:    m.MonthlyBalance.InexactFloat64(),
		DebtToIncomeRatio: m.DebtToIncomeRatio,
		SavingsRatio:      m.SavingsRatio,
	}
}

func NewStateView(s GameState) StateView {
	achievements := make([]string, len(s.Achievements))
	for i, id := range s.Achievements {
		achievements[i] = string(id)
	}
	return StateView{
		Income:       s.Income.InexactFloat64(),
		Expenses:     s.Expenses.InexactFloat64(),
		Savings:      s.Savings.InexactFloat64(),
		Debt:         s.Debt.InexactFloat64(),
		Achievements: achievements,
		Level:        s.Level,
		XPEarned:     s.XP,
	}
}

type EventView struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type CareerView struct {
	ID        CareerID `json:"id"`
	Name      string   `json:"name"`
	Income    float64  `json:"income"`
	Expenses  float64  `json:"expenses"`
	Savings   float64  `json:"savings"`
	Debt      float64  `json:"debt"`
	Scenarios int      `json:"scenarios"`
}

type StartResult struct {
	SessionID string      `json:"sessionId"`
	Stage     Stage       `json:"stage"`
	Content   string      `json:"content"`
	Messages  []Message   `json:"messages"`
	State     StateView   `json:"state"`
	Metrics   MetricsView `json:"metrics"`
}

type DecisionInput struct {
	Text           string
	Kind           string
	IdempotencyKey string
}

type TurnResult struct {
	SessionID    string       `json:"sessionId"`
	Turn         int          `json:"turn"`
	Decision     string       `json:"decision"`
	Kind         DecisionKind `json:"kind"`
	Matched      bool         `json:"matched"`
	Event        *EventView   `json:"event,omitempty"`
	Unlocked     []string     `json:"unlocked"`
	XPGained     int          `json:"xpGained"`
	NextScenario string       `json:"nextScenario"`
	Content      string       `json:"content"`
	State        StateView    `json:"state"`
	Metrics      MetricsView  `json:"metrics"`
}

func newTurnResult(sessionID string, t Turn) TurnResult {
	out := TurnResult{
		SessionID:    sessionID,
		Turn:         t.Number,
		Decision:     t.Decision,
		Kind:         t.Kind,
		Matched:      t.Matched,
		Unlocked:     make([]string, len(t.Unlocked)),
		XPGained:     t.XPGained,
		NextScenario: t.NextScenario,
		Content:      t.Narration,
		State:        NewStateView(t.State),
		Metrics:      NewMetricsView(t.Metrics),
	}
	for i, id := range t.Unlocked {
		out.Unlocked[i] = string(id)
	}
	if t.Event != nil {
		out.Event = &EventView{Type: t.Event.Type, Title: t.Event.Title, Message: t.Event.Message}
	}
	return out
}

type EndResult struct {
	SessionID string      `json:"sessionId"`
	Content   string      `json:"content"`
	Insights  []string    `json:"insights"`
	Advice    string      `json:"advice,omitempty"`
	Turns     int         `json:"turns"`
	State     StateView   `json:"state"`
	Metrics   MetricsView `json:"metrics"`
}

type SessionView struct {
	SessionID  string      `json:"sessionId"`
	Player     string      `json:"playerName"`
	Career     CareerID    `json:"career"`
	Stage      Stage       `json:"stage"`
	Turns      int         `json:"turns"`
	State      StateView   `json:"state"`
	Metrics    MetricsView `json:"metrics"`
	Transcript []Message   `json:"transcript"`
}

type TurnRecord struct {
	SessionID string
	Career    CareerID
	Turn      int
	Kind      DecisionKind
	Decision  string
	Matched   bool
	EventType string
	XP        int
	Level     int
	Income    decimal.Decimal
	Expenses  decimal.Decimal
	Savings   decimal.Decimal
	Debt      decimal.Decimal
	At        time.Time
}

type OutcomeRecord struct {
	SessionID         string
	Player            string
	Career            CareerID
	Turns             int
	XP                int
	Level             int
	Achievements      []AchievementID
	Income            decimal.Decimal
	Expenses          decimal.Decimal
	Savings           decimal.Decimal
	Debt              decimal.Decimal
	DebtToIncomeRatio float64
	SavingsRatio      float64
	EndedAt           time.Time
}
