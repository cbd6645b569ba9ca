package game

import "testing"

func TestNewStateFromPreset(t *testing.T) {
	c, err := DefaultContent().ParseCareer("Student")
	if err != nil {
		t.Fatalf("parse career: %v", err)
	}
	s := NewState(c.Preset)
	want := map[Field]int64{FieldIncome: 1200, FieldExpenses: 1000, FieldSavings: 500, FieldDebt: 20000}
	for f, v := range want {
		if !s.Get(f).Equal(Money(v)) {
			t.Fatalf("%s got=%s want=%d", f, s.Get(f), v)
		}
	}
	if s.XP != 0 || s.Level != 1 || len(s.Achievements) != 0 {
		t.Fatalf("unexpected progress: xp=%d level=%d achievements=%v", s.XP, s.Level, s.Achievements)
	}
}

func TestMetrics(t *testing.T) {
	s := NewState(preset(1200, 1000, 500, 20000))
	m := s.Metrics()
	if !m.MonthlyBalance.Equal(Money(200)) {
		t.Fatalf("monthly balance %s", m.MonthlyBalance)
	}
	if m.DebtToIncomeRatio < 1.38 || m.DebtToIncomeRatio > 1.39 {
		t.Fatalf("debt ratio %f", m.DebtToIncomeRatio)
	}
	if m.SavingsRatio < 0.416 || m.SavingsRatio > 0.417 {
		t.Fatalf("savings ratio %f", m.SavingsRatio)
	}

	broke := NewState(preset(0, 800, 100, 1000))
	m = broke.Metrics()
	if m.DebtToIncomeRatio != 0 || m.SavingsRatio != 0 {
		t.Fatalf("expected zero ratios without income, got %+v", m)
	}
	if !m.MonthlyBalance.Equal(Money(-800)) {
		t.Fatalf("monthly balance %s", m.MonthlyBalance)
	}
}

func TestUnlockOnce(t *testing.T) {
	s := NewState(preset(1, 1, 1, 1))
	if !s.Unlock(AchievementSkillBuilder) {
		t.Fatalf("first unlock should report new")
	}
	if s.Unlock(AchievementSkillBuilder) {
		t.Fatalf("second unlock should be a no-op")
	}
	if len(s.Achievements) != 1 {
		t.Fatalf("achievements %v", s.Achievements)
	}
}

func TestClampPolicy(t *testing.T) {
	s := NewState(preset(100, 100, -50, -10))
	s.Clamp(ClampNone)
	if !s.Savings.Equal(Money(-50)) {
		t.Fatalf("none policy changed savings to %s", s.Savings)
	}
	s.Clamp(ClampAtZero)
	if !s.Savings.IsZero() || !s.Debt.IsZero() {
		t.Fatalf("zero policy left savings=%s debt=%s", s.Savings, s.Debt)
	}
	if ParseClampPolicy("zero") != ClampAtZero || ParseClampPolicy("bogus") != ClampNone {
		t.Fatalf("unexpected clamp parsing")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewState(preset(1, 1, 1, 1))
	s.Unlock(AchievementSavingsMilestone)
	c := s.Clone()
	c.Unlock(AchievementSkillBuilder)
	if len(s.Achievements) != 1 {
		t.Fatalf("clone shares achievements: %v", s.Achievements)
	}
}
