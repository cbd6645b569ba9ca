package game

import (
	"fmt"
	"strings"
)

type MessageKind string

const (
	MessageWelcome MessageKind = "welcome"
	MessageInit    MessageKind = "initialization"
	MessageStatus  MessageKind = "status"
	MessageSummary MessageKind = "summary"
)

type Message struct {
	Kind MessageKind `json:"kind"`
	Text string      `json:"text"`
}

const (
	insightPositiveFlow = "You kept a positive monthly cash flow. Spending less than you earn is the foundation of every financial plan."
	insightNegativeFlow = "Your expenses outran your income. Trimming recurring costs or growing income should be your first priority."
	insightHighDebt     = "Your debt is heavy compared to your yearly income. Paying down high-interest balances will free up future cash."
	insightLowDebt      = "Your debt stayed manageable relative to your income. Keep borrowing for things that grow in value."
	insightStrongSaver  = "You built a solid savings cushion. An emergency fund of several months of expenses protects you from shocks."

	highDebtRatio = 0.36
)

func welcomeText(player string, career Career) string {
	return fmt.Sprintf("Welcome to your Financial Twin, %s! You are starting life as a %s. Every choice you make will shape your financial future.", player, career.Name)
}

func initText(career Career, s GameState, scenario string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Initializing your %s profile...\n\n", career.Name)
	b.WriteString("Starting position:\n")
	writeBalances(&b, s)
	fmt.Fprintf(&b, "\nYour first challenge:\n%s", scenario)
	return b.String()
}

func writeBalances(b *strings.Builder, s GameState) {
	fmt.Fprintf(b, "- Monthly Income: %s\n", FormatMoney(s.Income))
	fmt.Fprintf(b, "- Monthly Expenses: %s\n", FormatMoney(s.Expenses))
	fmt.Fprintf(b, "- Savings: %s\n", FormatMoney(s.Savings))
	fmt.Fprintf(b, "- Debt: %s\n", FormatMoney(s.Debt))
}

func achievementList(ids []AchievementID) string {
	if len(ids) == 0 {
		return "None yet"
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return strings.Join(names, ", ")
}

func statusText(decision string, s GameState, evt *FinancialEvent, next string) string {
	m := s.Metrics()
	var b strings.Builder
	fmt.Fprintf(&b, "Decision: %s\n", decision)
	fmt.Fprintf(&b, "Level %d | XP %d\n\n", s.Level, s.XP)
	b.WriteString("Financial status:\n")
	writeBalances(&b, s)
	fmt.Fprintf(&b, "- Monthly Balance: %s\n", FormatMoney(m.MonthlyBalance))
	fmt.Fprintf(&b, "- Debt-to-Income Ratio: %s\n", FormatPercent(m.DebtToIncomeRatio))
	fmt.Fprintf(&b, "- Savings Ratio: %s\n", FormatPercent(m.SavingsRatio))
	fmt.Fprintf(&b, "\nAchievements: %s\n", achievementList(s.Achievements))
	if evt != nil {
		fmt.Fprintf(&b, "\nEvent - %s: %s\n", evt.Title, evt.Message)
	}
	fmt.Fprintf(&b, "\nNext challenge:\n%s", next)
	return b.String()
}

// Insights evaluates each rule independently; the cash flow rule always
// yields one line, so the result holds between one and three entries.
func Insights(m Metrics) []string {
	out := make([]string, 0, 3)
	if m.MonthlyBalance.IsPositive() {
		out = append(out, insightPositiveFlow)
	} else {
		out = append(out, insightNegativeFlow)
	}
	switch {
	case m.DebtToIncomeRatio > highDebtRatio:
		out = append(out, insightHighDebt)
	case m.DebtToIncomeRatio < HealthyDebtRatio:
		out = append(out, insightLowDebt)
	}
	if m.SavingsRatio >= StrategicSaverRatio {
		out = append(out, insightStrongSaver)
	}
	return out
}

func summaryText(player string, career Career, s GameState, insights []string) string {
	m := s.Metrics()
	var b strings.Builder
	fmt.Fprintf(&b, "Game over, %s! Here is how your %s journey ended.\n\n", player, career.Name)
	fmt.Fprintf(&b, "Final level %d with %d XP.\n", s.Level, s.XP)
	writeBalances(&b, s)
	fmt.Fprintf(&b, "- Monthly Balance: %s\n", FormatMoney(m.MonthlyBalance))
	fmt.Fprintf(&b, "- Debt-to-Income Ratio: %s\n", FormatPercent(m.DebtToIncomeRatio))
	fmt.Fprintf(&b, "- Savings Ratio: %s\n", FormatPercent(m.SavingsRatio))
	fmt.Fprintf(&b, "\nAchievements: %s\n", achievementList(s.Achievements))
	b.WriteString("\nInsights:\n")
	for _, line := range insights {
		fmt.Fprintf(&b, "- %s\n", line)
	}
	return strings.TrimRight(b.String(), "\n")
}
