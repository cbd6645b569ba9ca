package game

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	XPPerLevel       = 100
	XPPerGoodMonth   = 25
	XPPerAchievement = 25

	EventProbability     = 0.20
	InvestSuccessChance  = 0.70
	InvestCost           = 1000
	InvestIncomeGain     = 200
	SaveDeposit          = 500
	DebtPaymentCap       = 2000
	SkillCost            = 1500
	SkillIncomeGain      = 300
	StrategicSaverRatio  = 0.2
	HealthyDebtRatio     = 0.3
	WealthBuilderSavings = 50000
)

var (
	ErrUnknownCareer     = errors.New("unknown career")
	ErrUnknownDecision   = errors.New("unknown decision kind")
	ErrNotReady          = errors.New("game is not accepting decisions yet")
	ErrGameOver          = errors.New("game is over")
	ErrAlreadyStarted    = errors.New("game already started")
	ErrSessionNotFound   = errors.New("session not found")
	ErrDuplicateDecision = errors.New("duplicate idempotency key")
	ErrInvalidContent    = errors.New("invalid game content")
)

func Money(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// positive returns v, or zero when v is negative.
func positive(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

// spendable is how much of amount can be taken out of available.
func spendable(amount, available decimal.Decimal) decimal.Decimal {
	return decimal.Min(amount, positive(available))
}

func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

func FormatMoney(v decimal.Decimal) string {
	sign := ""
	if v.IsNegative() {
		sign = "-"
		v = v.Neg()
	}
	fixed := v.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + "$" + fixed
	}
	return sign + "$" + comma(n) + "." + frac
}

func FormatPercent(ratio float64) string {
	return strconv.FormatFloat(ratio*100, 'f', 1, 64) + "%"
}

func comma(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		if len(s) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}
