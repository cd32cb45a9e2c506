package orchestrator

import (
	"context"
	"fmt"

	"github.com/tripwise/tripchat/pkg/jsonx"
	"github.com/tripwise/tripchat/pkg/llm"
	"github.com/tripwise/tripchat/pkg/prompt"
)

// BudgetExtraction is the budget extractor's structured output.
type BudgetExtraction struct {
	Budget   *float64 `json:"budget"`
	Currency string   `json:"currency"`
	Found    bool     `json:"found"`
}

// ParseBudgetExtraction reads the extractor JSON; failures read as
// not found.
func ParseBudgetExtraction(text string) BudgetExtraction {
	var out BudgetExtraction
	if !jsonx.Decode(text, &out) {
		return BudgetExtraction{}
	}
	if out.Budget == nil {
		out.Found = false
	}
	if out.Currency == "" {
		out.Currency = "USD"
	}
	return out
}

// extractBudget runs the budget extractor stage over the utterance.
func (o *Orchestrator) extractBudget(ctx context.Context, message string) (BudgetExtraction, error) {
	text, err := llm.Collect(ctx, o.gateway, prompt.BudgetExtractor, map[string]string{
		"user_input": message,
	})
	if err != nil {
		return BudgetExtraction{}, fmt.Errorf("budget extractor stage failed: %w", err)
	}
	return ParseBudgetExtraction(text), nil
}
