package game

import (
	"errors"
	"testing"
)

func TestDefaultContent(t *testing.T) {
	c := DefaultContent()
	if err := c.Validate(); err != nil {
		t.Fatalf("default content invalid: %v", err)
	}
	if len(c.Careers) != 4 || len(c.Events) != 6 {
		t.Fatalf("careers=%d events=%d", len(c.Careers), len(c.Events))
	}
	for _, name := range []string{"student", "Entrepreneur", "ARTIST", " banker "} {
		if _, err := c.ParseCareer(name); err != nil {
			t.Fatalf("parse %q: %v", name, err)
		}
	}
	if _, err := c.ParseCareer("pilot"); !errors.Is(err, ErrUnknownCareer) {
		t.Fatalf("expected ErrUnknownCareer, got %v", err)
	}
}

func TestParseContentOverlay(t *testing.T) {
	data := []byte(`
event_probability: 0.5
careers:
  - id: Nurse
    name: Nurse
    income: 4000
    expenses: 3000
    savings: 2500.50
    debt: 30000
    scenarios:
      - "Night shift bonus arrived. Save it?"
`)
	c, err := ParseContent(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.EventProbability != 0.5 {
		t.Fatalf("probability %v", c.EventProbability)
	}
	career, err := c.ParseCareer("nurse")
	if err != nil {
		t.Fatalf("parse career: %v", err)
	}
	if career.ID != "nurse" || career.Preset.Savings.String() != "2500.5" {
		t.Fatalf("career %+v", career)
	}
	if len(c.Events) != 6 {
		t.Fatalf("events should keep defaults, got %d", len(c.Events))
	}
	if c.FallbackScenario != defaultFallbackScenario {
		t.Fatalf("fallback %q", c.FallbackScenario)
	}
}

func TestParseContentRejectsBadTables(t *testing.T) {
	cases := map[string]string{
		"unknown field": "events:\n  - type: x\n    impact:\n      happiness: 10\n",
		"probability":   "event_probability: 1.5\n",
		"duplicate":     "careers:\n  - id: a\n  - id: A\n",
	}
	for name, data := range cases {
		if _, err := ParseContent([]byte(data)); !errors.Is(err, ErrInvalidContent) {
			t.Fatalf("%s: expected ErrInvalidContent, got %v", name, err)
		}
	}
	if _, err := ParseContent([]byte("careers: [")); err == nil {
		t.Fatalf("expected yaml error")
	}
}
