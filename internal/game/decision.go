package game

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type DecisionKind string

const (
	DecisionInvest    DecisionKind = "invest"
	DecisionSave      DecisionKind = "save"
	DecisionPayDebt   DecisionKind = "pay_debt"
	DecisionUpgrade   DecisionKind = "upgrade_skills"
	DecisionContinue  DecisionKind = "continue"
	DecisionUnmatched DecisionKind = ""
)

var DecisionKinds = []DecisionKind{
	DecisionInvest,
	DecisionSave,
	DecisionPayDebt,
	DecisionUpgrade,
	DecisionContinue,
}

func ParseDecisionKind(s string) (DecisionKind, error) {
	k := DecisionKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range DecisionKinds {
		if k == known {
			return k, nil
		}
	}
	return DecisionUnmatched, fmt.Errorf("%w: %q", ErrUnknownDecision, s)
}

func (k DecisionKind) Label() string {
	switch k {
	case DecisionInvest:
		return "Invest some of my savings"
	case DecisionSave:
		return "Save into my emergency fund"
	case DecisionPayDebt:
		return "Pay down my debt"
	case DecisionUpgrade:
		return "Upgrade my skills"
	case DecisionContinue:
		return "Continue as planned"
	}
	return "Do nothing"
}

type decisionRule struct {
	kind    DecisionKind
	matches func(text string) bool
}

func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// decisionRules is evaluated top to bottom; the first match wins.
var decisionRules = []decisionRule{
	{DecisionInvest, func(t string) bool { return strings.Contains(t, "invest") }},
	{DecisionSave, func(t string) bool { return containsAny(t, "save", "emergency fund") }},
	{DecisionPayDebt, func(t string) bool {
		return (strings.Contains(t, "pay") && strings.Contains(t, "debt")) || strings.Contains(t, "loan")
	}},
	{DecisionUpgrade, func(t string) bool { return containsAny(t, "upgrade", "skill") }},
	{DecisionContinue, func(t string) bool { return strings.Contains(t, "continue") }},
}

// ClassifyDecision maps free text to a decision kind. Unmatched text yields
// DecisionUnmatched.
func ClassifyDecision(text string) DecisionKind {
	t := strings.ToLower(text)
	for _, rule := range decisionRules {
		if rule.matches(t) {
			return rule.kind
		}
	}
	return DecisionUnmatched
}

// applyDecision mutates s for kind and returns the achievements it unlocked.
func applyDecision(s *GameState, kind DecisionKind, r Rand) []AchievementID {
	var unlocked []AchievementID
	unlock := func(id AchievementID) {
		if s.Unlock(id) {
			unlocked = append(unlocked, id)
		}
	}

	switch kind {
	case DecisionInvest:
		s.Savings = s.Savings.Sub(spendable(Money(InvestCost), s.Savings))
		if r.Float64() < InvestSuccessChance {
			s.Income = s.Income.Add(Money(InvestIncomeGain))
			unlock(AchievementSuccessfulInvestor)
		}
	case DecisionSave:
		s.Savings = s.Savings.Add(Money(SaveDeposit))
		unlock(AchievementSavingsMilestone)
	case DecisionPayDebt:
		payment := decimal.Min(Money(DebtPaymentCap), positive(s.Debt))
		s.Debt = s.Debt.Sub(payment)
		s.Savings = s.Savings.Sub(spendable(payment, s.Savings))
		if s.Debt.IsZero() {
			unlock(AchievementDebtFreeChampion)
		}
	case DecisionUpgrade:
		s.Savings = s.Savings.Sub(spendable(Money(SkillCost), s.Savings))
		s.Income = s.Income.Add(Money(SkillIncomeGain))
		unlock(AchievementSkillBuilder)
	}
	return unlocked
}
