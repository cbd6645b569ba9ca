package game

import (
	"sort"

	"github.com/shopspring/decimal"
)

// IsFractional reports whether an impact value shrinks its field by a
// percentage instead of adding an absolute amount.
func IsFractional(v float64) bool {
	return v > -1 && v < 0
}

// ApplyEvent applies every impact of evt to s. Values in (-1, 0) scale the
// field (field += field*v); anything else is added as-is.
func ApplyEvent(s *GameState, evt FinancialEvent) {
	fields := make([]string, 0, len(evt.Impact))
	for f := range evt.Impact {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)

	for _, name := range fields {
		f := Field(name)
		v := decimal.NewFromFloat(evt.Impact[f])
		current := s.Get(f)
		if IsFractional(evt.Impact[f]) {
			s.Set(f, current.Add(current.Mul(v)))
			continue
		}
		s.Set(f, current.Add(v))
	}
}

// rollEvent returns the event that fires this cycle, if any.
func rollEvent(c *Content, r Rand) (FinancialEvent, bool) {
	if len(c.Events) == 0 {
		return FinancialEvent{}, false
	}
	if r.Float64() >= c.EventProbability {
		return FinancialEvent{}, false
	}
	return c.Events[r.Intn(len(c.Events))], true
}

type achievementRule struct {
	id   AchievementID
	when func(s GameState, m Metrics) bool
}

var achievementRules = []achievementRule{
	{AchievementPositiveCashFlow, func(_ GameState, m Metrics) bool { return m.MonthlyBalance.IsPositive() }},
	{AchievementStrategicSaver, func(_ GameState, m Metrics) bool { return m.SavingsRatio > StrategicSaverRatio }},
	{AchievementDebtManagementExpert, func(_ GameState, m Metrics) bool { return m.DebtToIncomeRatio < HealthyDebtRatio }},
	{AchievementWealthBuilder, func(s GameState, _ Metrics) bool { return s.Savings.GreaterThan(Money(WealthBuilderSavings)) }},
}

// sweepAchievements unlocks every global achievement whose condition holds.
func sweepAchievements(s *GameState) []AchievementID {
	m := s.Metrics()
	var unlocked []AchievementID
	for _, rule := range achievementRules {
		if rule.when(*s, m) && s.Unlock(rule.id) {
			unlocked = append(unlocked, rule.id)
		}
	}
	return unlocked
}
