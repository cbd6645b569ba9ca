package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"fintwin/internal/game"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptOptional(label string) (string, error) {
	fmt.Printf("%s: ", label)
	text, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func promptChoice(label string, options []string, defaultValue string) (string, error) {
	normalized := make(map[string]struct{}, len(options))
	for _, opt := range options {
		normalized[strings.ToLower(strings.TrimSpace(opt))] = struct{}{}
	}
	for {
		fmt.Printf("%s (%s) [%s]: ", label, strings.Join(options, "/"), defaultValue)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.ToLower(strings.TrimSpace(text))
		if text == "" {
			text = strings.ToLower(strings.TrimSpace(defaultValue))
		}
		if _, ok := normalized[text]; ok {
			return text, nil
		}
		printWarn("Invalid option. Please pick one of the listed values.")
	}
}

// printMessage is the engine listener for local play; it may run on a timer
// goroutine while pacing.
func printMessage(m game.Message) {
	fmt.Println()
	switch m.Kind {
	case game.MessageWelcome:
		accent.Println(m.Text)
	case game.MessageSummary:
		success.Println(m.Text)
	default:
		neutral.Println(m.Text)
	}
}

func printDecisionMenu() {
	fmt.Println()
	accent.Println("What do you do? Pick a number, type your own plan, or `end` to finish.")
	for i, k := range game.DecisionKinds {
		fmt.Printf("  %d) %s\n", i+1, k.Label())
	}
}

func money(v float64) string {
	return game.FormatMoney(decimal.NewFromFloat(v))
}

func colorizeMoney(v float64) string {
	text := money(v)
	switch {
	case v > 0:
		return success.Sprint("+" + text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func renderState(s game.StateView, m game.MetricsView) {
	fmt.Printf("Level %d | XP %d\n", s.Level, s.XPEarned)
	fmt.Printf("  Income:   %s\n", money(s.Income))
	fmt.Printf("  Expenses: %s\n", money(s.Expenses))
	fmt.Printf("  Savings:  %s\n", money(s.Savings))
	fmt.Printf("  Debt:     %s\n", money(s.Debt))
	fmt.Printf("  Monthly balance: %s\n", colorizeMoney(m.MonthlyBalance))
	fmt.Printf("  Debt-to-income:  %s\n", game.FormatPercent(m.DebtToIncomeRatio))
	fmt.Printf("  Savings ratio:   %s\n", game.FormatPercent(m.SavingsRatio))
	if len(s.Achievements) > 0 {
		fmt.Printf("  Achievements: %s\n", strings.Join(s.Achievements, ", "))
	}
}

func renderCareers(careers []game.CareerView) {
	accent.Println("Careers")
	for _, c := range careers {
		fmt.Printf("  %-14s %-14s income %s  expenses %s  savings %s  debt %s\n",
			c.ID, c.Name, money(c.Income), money(c.Expenses), money(c.Savings), money(c.Debt))
	}
}

func renderTurn(t game.TurnResult) {
	if !t.Matched {
		printWarn("That plan did not match any move, so the month just went by.")
	}
	if t.Event != nil {
		warn.Printf("Event: %s\n", t.Event.Title)
		printInfo(t.Event.Message)
	}
	for _, a := range t.Unlocked {
		success.Printf("Achievement unlocked: %s\n", a)
	}
	if t.XPGained > 0 {
		success.Printf("+%d XP\n", t.XPGained)
	}
	renderState(t.State, t.Metrics)
	fmt.Println()
	accent.Println("Next challenge:")
	printInfo(t.NextScenario)
}

func renderEnd(out game.EndResult) {
	success.Println(out.Content)
	if out.Advice != "" {
		fmt.Println()
		accent.Println("Coach says:")
		printInfo(out.Advice)
	}
}
