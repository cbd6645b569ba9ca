package game

import (
	"slices"

	"github.com/shopspring/decimal"
)

type Field string

const (
	FieldIncome   Field = "income"
	FieldExpenses Field = "expenses"
	FieldSavings  Field = "savings"
	FieldDebt     Field = "debt"
)

func (f Field) Valid() bool {
	switch f {
	case FieldIncome, FieldExpenses, FieldSavings, FieldDebt:
		return true
	}
	return false
}

type ClampPolicy string

const (
	// ClampNone lets events and payments drive fields below zero.
	ClampNone ClampPolicy = "none"
	// ClampAtZero floors every field at zero after each mutation.
	ClampAtZero ClampPolicy = "zero"
)

func ParseClampPolicy(s string) ClampPolicy {
	if ClampPolicy(s) == ClampAtZero {
		return ClampAtZero
	}
	return ClampNone
}

type AchievementID string

const (
	AchievementSuccessfulInvestor   AchievementID = "Successful Investor"
	AchievementSavingsMilestone     AchievementID = "Savings Milestone"
	AchievementDebtFreeChampion     AchievementID = "Debt Free Champion"
	AchievementSkillBuilder         AchievementID = "Skill Builder"
	AchievementPositiveCashFlow     AchievementID = "Positive Cash Flow Master"
	AchievementStrategicSaver       AchievementID = "Strategic Saver"
	AchievementDebtManagementExpert AchievementID = "Debt Management Expert"
	AchievementWealthBuilder        AchievementID = "Wealth Builder"
)

// GameState is owned by a single engine. Metrics are never stored; call Metrics().
type GameState struct {
	Income       decimal.Decimal `json:"income"`
	Expenses     decimal.Decimal `json:"expenses"`
	Savings      decimal.Decimal `json:"savings"`
	Debt         decimal.Decimal `json:"debt"`
	Achievements []AchievementID `json:"achievements"`
	XP           int             `json:"xp"`
	Level        int             `json:"level"`
}

type Metrics struct {
	MonthlyBalance    decimal.Decimal
	DebtToIncomeRatio float64
	SavingsRatio      float64
}

func NewState(p CareerPreset) GameState {
	return GameState{
		Income:       p.Income,
		Expenses:     p.Expenses,
		Savings:      p.Savings,
		Debt:         p.Debt,
		Achievements: []AchievementID{},
		Level:        LevelForXP(0),
	}
}

func (s GameState) Metrics() Metrics {
	m := Metrics{MonthlyBalance: s.Income.Sub(s.Expenses)}
	if !s.Income.IsPositive() {
		return m
	}
	m.DebtToIncomeRatio = s.Debt.Div(s.Income.Mul(decimal.NewFromInt(12))).InexactFloat64()
	m.SavingsRatio = s.Savings.Div(s.Income).InexactFloat64()
	return m
}

func (s *GameState) HasAchievement(id AchievementID) bool {
	return slices.Contains(s.Achievements, id)
}

// Unlock appends id once and reports whether it was new.
func (s *GameState) Unlock(id AchievementID) bool {
	if s.HasAchievement(id) {
		return false
	}
	s.Achievements = append(s.Achievements, id)
	return true
}

func (s *GameState) Get(f Field) decimal.Decimal {
	switch f {
	case FieldIncome:
		return s.Income
	case FieldExpenses:
		return s.Expenses
	case FieldSavings:
		return s.Savings
	case FieldDebt:
		return s.Debt
	}
	return decimal.Zero
}

func (s *GameState) Set(f Field, v decimal.Decimal) {
	switch f {
	case FieldIncome:
		s.Income = v
	case FieldExpenses:
		s.Expenses = v
	case FieldSavings:
		s.Savings = v
	case FieldDebt:
		s.Debt = v
	}
}

func (s *GameState) Clamp(policy ClampPolicy) {
	if policy != ClampAtZero {
		return
	}
	s.Income = positive(s.Income)
	s.Expenses = positive(s.Expenses)
	s.Savings = positive(s.Savings)
	s.Debt = positive(s.Debt)
}

func (s *GameState) AddXP(xp int) {
	s.XP += xp
	s.Level = LevelForXP(s.XP)
}

func (s GameState) Clone() GameState {
	out := s
	out.Achievements = slices.Clone(s.Achievements)
	if out.Achievements == nil {
		out.Achievements = []AchievementID{}
	}
	return out
}
