package game

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type CareerID string

const (
	CareerStudent      CareerID = "student"
	CareerEntrepreneur CareerID = "entrepreneur"
	CareerArtist       CareerID = "artist"
	CareerBanker       CareerID = "banker"
)

const defaultFallbackScenario = "Life goes on. What is your next financial move?"

type CareerPreset struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Savings  decimal.Decimal `json:"savings"`
	Debt     decimal.Decimal `json:"debt"`
}

type Career struct {
	ID        CareerID
	Name      string
	Preset    CareerPreset
	Scenarios []string
}

type FinancialEvent struct {
	Type    string
	Title   string
	Impact  map[Field]float64
	Message string
}

// Content is the read-only table set an engine plays from.
type Content struct {
	Careers          []Career
	Events           []FinancialEvent
	EventProbability float64
	FallbackScenario string
}

func preset(income, expenses, savings, debt int64) CareerPreset {
	return CareerPreset{
		Income:   Money(income),
		Expenses: Money(expenses),
		Savings:  Money(savings),
		Debt:     Money(debt),
	}
}

func DefaultContent() *Content {
	return &Content{
		EventProbability: EventProbability,
		FallbackScenario: defaultFallbackScenario,
		Careers: []Career{
			{
				ID:     CareerStudent,
				Name:   "Student",
				Preset: preset(1200, 1000, 500, 20000),
				Scenarios: []string{
					"Your student loan statement just arrived. Do you pay extra on the loan, or keep the cash for emergencies?",
					"A classmate pitches a side hustle that needs $500. Do you invest, or save the money?",
					"The campus bookstore offers a certification course. Upgrade your skills, or continue as planned?",
					"Summer break is coming. Build an emergency fund from your part-time job, or pay down debt?",
				},
			},
			{
				ID:     CareerEntrepreneur,
				Name:   "Entrepreneur",
				Preset: preset(5000, 4000, 10000, 50000),
				Scenarios: []string{
					"Your startup needs new equipment. Do you invest in growth, or pay down the business loan?",
					"A competitor is hiring away your staff. Upgrade your team's skills, or save for a slow quarter?",
					"An angel investor offers a bridge loan. Take it and pay off expensive debt, or continue bootstrapping?",
					"Revenue spiked this month. Save the surplus, or invest in marketing?",
				},
			},
			{
				ID:     CareerArtist,
				Name:   "Artist",
				Preset: preset(2500, 2000, 2000, 5000),
				Scenarios: []string{
					"A gallery offers you a show, but you must pay for framing. Invest in the show, or save your earnings?",
					"Commissions dried up this month. Dip into your emergency fund, or continue and hustle harder?",
					"A masterclass could level up your technique. Upgrade your skills, or pay down your credit card debt?",
					"An art fair sold out your prints. Save the windfall, or invest in new supplies?",
				},
			},
			{
				ID:     CareerBanker,
				Name:   "Banker",
				Preset: preset(8000, 5000, 30000, 100000),
				Scenarios: []string{
					"Bonus season arrived. Invest it in the market, or pay off part of your mortgage debt?",
					"Your firm sponsors an MBA. Upgrade your skills at night, or continue climbing the ladder?",
					"Interest rates just rose. Pay extra on your loan, or save in a high-yield account?",
					"A colleague shares a hot stock tip. Invest, or continue with your index funds?",
				},
			},
		},
		Events: []FinancialEvent{
			{
				Type:    "market_downturn",
				Title:   "Market Downturn",
				Impact:  map[Field]float64{FieldSavings: -0.1},
				Message: "The market took a dip! Your savings lost 10% of their value.",
			},
			{
				Type:    "medical_emergency",
				Title:   "Medical Emergency",
				Impact:  map[Field]float64{FieldSavings: -5000},
				Message: "An unexpected medical bill cost you $5,000 from your savings.",
			},
			{
				Type:    "job_promotion",
				Title:   "Job Promotion",
				Impact:  map[Field]float64{FieldIncome: 500},
				Message: "Your hard work paid off! You got a raise of $500 per month.",
			},
			{
				Type:    "rent_increase",
				Title:   "Rent Increase",
				Impact:  map[Field]float64{FieldExpenses: 200},
				Message: "Your landlord raised the rent by $200 per month.",
			},
			{
				Type:    "tax_refund",
				Title:   "Tax Refund",
				Impact:  map[Field]float64{FieldSavings: 1500},
				Message: "You received a $1,500 tax refund straight into savings.",
			},
			{
				Type:    "credit_card_surprise",
				Title:   "Credit Card Surprise",
				Impact:  map[Field]float64{FieldDebt: 1000},
				Message: "A forgotten subscription and late fees added $1,000 to your debt.",
			},
		},
	}
}

// ParseCareer matches a career by id or display name, ignoring case.
func (c *Content) ParseCareer(name string) (Career, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, career := range c.Careers {
		if string(career.ID) == key || strings.ToLower(career.Name) == key {
			return career, nil
		}
	}
	return Career{}, fmt.Errorf("%w: %q", ErrUnknownCareer, name)
}

func (c *Content) Career(id CareerID) (Career, bool) {
	for _, career := range c.Careers {
		if career.ID == id {
			return career, true
		}
	}
	return Career{}, false
}

func (c *Content) Validate() error {
	if len(c.Careers) == 0 {
		return fmt.Errorf("%w: no careers", ErrInvalidContent)
	}
	seen := make(map[CareerID]struct{}, len(c.Careers))
	for _, career := range c.Careers {
		if strings.TrimSpace(string(career.ID)) == "" {
			return fmt.Errorf("%w: career without id", ErrInvalidContent)
		}
		if _, ok := seen[career.ID]; ok {
			return fmt.Errorf("%w: duplicate career %q", ErrInvalidContent, career.ID)
		}
		seen[career.ID] = struct{}{}
	}
	for _, evt := range c.Events {
		for f := range evt.Impact {
			if !f.Valid() {
				return fmt.Errorf("%w: event %q has unknown field %q", ErrInvalidContent, evt.Type, f)
			}
		}
	}
	if c.EventProbability < 0 || c.EventProbability > 1 {
		return fmt.Errorf("%w: event probability %.2f out of range", ErrInvalidContent, c.EventProbability)
	}
	return nil
}

type contentFile struct {
	EventProbability *float64 `yaml:"event_probability"`
	FallbackScenario string   `yaml:"fallback_scenario"`
	Careers          []struct {
		ID        string   `yaml:"id"`
		Name      string   `yaml:"name"`
		Income    float64  `yaml:"income"`
		Expenses  float64  `yaml:"expenses"`
		Savings   float64  `yaml:"savings"`
		Debt      float64  `yaml:"debt"`
		Scenarios []string `yaml:"scenarios"`
	} `yaml:"careers"`
	Events []struct {
		Type    string             `yaml:"type"`
		Title   string             `yaml:"title"`
		Impact  map[string]float64 `yaml:"impact"`
		Message string             `yaml:"message"`
	} `yaml:"events"`
}

// LoadContent reads a YAML table file on top of the built-in content.
// Any table present in the file replaces the built-in one.
func LoadContent(path string) (*Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	return ParseContent(data)
}

func ParseContent(data []byte) (*Content, error) {
	var raw contentFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}

	out := DefaultContent()
	if raw.EventProbability != nil {
		out.EventProbability = *raw.EventProbability
	}
	if strings.TrimSpace(raw.FallbackScenario) != "" {
		out.FallbackScenario = strings.TrimSpace(raw.FallbackScenario)
	}
	if len(raw.Careers) > 0 {
		out.Careers = make([]Career, 0, len(raw.Careers))
		for _, rc := range raw.Careers {
			name := rc.Name
			if name == "" {
				name = rc.ID
			}
			out.Careers = append(out.Careers, Career{
				ID:   CareerID(strings.ToLower(strings.TrimSpace(rc.ID))),
				Name: name,
				Preset: CareerPreset{
					Income:   decimal.NewFromFloat(rc.Income),
					Expenses: decimal.NewFromFloat(rc.Expenses),
					Savings:  decimal.NewFromFloat(rc.Savings),
					Debt:     decimal.NewFromFloat(rc.Debt),
				},
				Scenarios: rc.Scenarios,
			})
		}
	}
	if len(raw.Events) > 0 {
		out.Events = make([]FinancialEvent, 0, len(raw.Events))
		for _, re := range raw.Events {
			impact := make(map[Field]float64, len(re.Impact))
			for k, v := range re.Impact {
				impact[Field(strings.ToLower(k))] = v
			}
			out.Events = append(out.Events, FinancialEvent{
				Type:    re.Type,
				Title:   re.Title,
				Impact:  impact,
				Message: re.Message,
			})
		}
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
