package game

import "testing"

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{xp: 0, want: 1},
		{xp: 99, want: 1},
		{xp: 100, want: 2},
		{xp: 250, want: 3},
		{xp: -10, want: 1},
	}
	for _, tc := range tests {
		if got := LevelForXP(tc.xp); got != tc.want {
			t.Fatalf("xp=%d got=%d want=%d", tc.xp, got, tc.want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{in: 0, want: "$0.00"},
		{in: 450, want: "$450.00"},
		{in: 1200, want: "$1,200.00"},
		{in: 100000, want: "$100,000.00"},
		{in: 1234567, want: "$1,234,567.00"},
		{in: -4500, want: "-$4,500.00"},
	}
	for _, tc := range tests {
		if got := FormatMoney(Money(tc.in)); got != tc.want {
			t.Fatalf("in=%d got=%q want=%q", tc.in, got, tc.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(500.0 / 1200.0); got != "41.7%" {
		t.Fatalf("got %q", got)
	}
	if got := FormatPercent(0); got != "0.0%" {
		t.Fatalf("got %q", got)
	}
}

func TestSpendable(t *testing.T) {
	tests := []struct {
		amount, available, want int64
	}{
		{amount: 1000, available: 500, want: 500},
		{amount: 1000, available: 5000, want: 1000},
		{amount: 1000, available: -200, want: 0},
	}
	for _, tc := range tests {
		got := spendable(Money(tc.amount), Money(tc.available))
		if !got.Equal(Money(tc.want)) {
			t.Fatalf("amount=%d available=%d got=%s want=%d", tc.amount, tc.available, got, tc.want)
		}
	}
}
