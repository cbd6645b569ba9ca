package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fintwin/internal/game"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var ErrEmptyAdvice = errors.New("advisor returned no text")

// GeminiAdvisor asks a Gemini model for a short closing note on a finished game.
type GeminiAdvisor struct {
	client *genai.Client
	model  string
}

func NewGeminiAdvisor(ctx context.Context, apiKey, model string) (*GeminiAdvisor, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiAdvisor{client: client, model: model}, nil
}

func (a *GeminiAdvisor) Advise(ctx context.Context, sum game.Summary) (string, error) {
	model := a.client.GenerativeModel(a.model)
	resp, err := model.GenerateContent(ctx, genai.Text(Prompt(sum)))
	if err != nil {
		return "", fmt.Errorf("generate advice: %w", err)
	}
	text := strings.TrimSpace(responseText(resp))
	if text == "" {
		return "", ErrEmptyAdvice
	}
	return text, nil
}

func (a *GeminiAdvisor) Close() error {
	return a.client.Close()
}

// Prompt renders the summary as plain facts for the model.
func Prompt(sum game.Summary) string {
	var b strings.Builder
	b.WriteString("You are a friendly personal finance coach. A player just finished a financial life simulation.\n")
	b.WriteString("In at most three sentences, give them one concrete next step based on these results. Do not repeat the numbers back.\n\n")
	fmt.Fprintf(&b, "Career: %s\n", sum.CareerName)
	fmt.Fprintf(&b, "Months played: %d\n", sum.Turns)
	fmt.Fprintf(&b, "Monthly income: %s\n", game.FormatMoney(sum.State.Income))
	fmt.Fprintf(&b, "Monthly expenses: %s\n", game.FormatMoney(sum.State.Expenses))
	fmt.Fprintf(&b, "Savings: %s\n", game.FormatMoney(sum.State.Savings))
	fmt.Fprintf(&b, "Debt: %s\n", game.FormatMoney(sum.State.Debt))
	fmt.Fprintf(&b, "Debt-to-income ratio: %s\n", game.FormatPercent(sum.Metrics.DebtToIncomeRatio))
	fmt.Fprintf(&b, "Savings ratio: %s\n", game.FormatPercent(sum.Metrics.SavingsRatio))
	if len(sum.Insights) > 0 {
		b.WriteString("Observations:\n")
		for _, line := range sum.Insights {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}
	return b.String()
}

func responseText(resp *genai.GenerateContentResponse) string {
	var text string
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				text += string(txt)
			}
		}
	}
	return text
}
