package orchestrator

import (
	"context"
	"fmt"

	"github.com/tripwise/tripchat/pkg/jsonx"
	"github.com/tripwise/tripchat/pkg/llm"
	"github.com/tripwise/tripchat/pkg/prompt"
)

// Audit error types reported by the budget auditor.
const (
	AuditErrorNone       = "NONE"
	AuditErrorOverBudget = "OVER_BUDGET"
	AuditErrorHardLimit  = "HARD_LIMIT"
)

// AuditReport is the budget auditor's structured verdict.
type AuditReport struct {
	IsFeasible         bool    `json:"is_feasible"`
	BudgetOK           bool    `json:"budget_ok"`
	Currency           string  `json:"currency"`
	MaxBudget          float64 `json:"max_budget"`
	TotalEstimatedCost float64 `json:"total_estimated_cost"`
	RemainingBudget    float64 `json:"remaining_budget"`
	ErrorType          string  `json:"error_type"`
	Reason             string  `json:"reason"`
	Suggestion         string  `json:"suggestion"`
}

// Passed reports whether the audit cleared the plan.
func (r AuditReport) Passed() bool {
	return r.BudgetOK && r.IsFeasible
}

// softPass is the default verdict when the auditor's output cannot be
// parsed: the plan proceeds rather than blocking on a malformed response.
func softPass(diagnostic string) AuditReport {
	return AuditReport{
		IsFeasible: true,
		BudgetOK:   true,
		ErrorType:  AuditErrorNone,
		Reason:     "Budget audit output could not be parsed: " + diagnostic,
	}
}

// ParseAuditReport extracts the auditor JSON from raw text, defaulting to a
// soft pass on failure.
func ParseAuditReport(text string) AuditReport {
	var report AuditReport
	if !jsonx.Decode(text, &report) {
		return softPass("no JSON object found")
	}
	if report.ErrorType == "" {
		report.ErrorType = AuditErrorNone
	}
	return report
}

// runAudit runs the budget auditor over the given plan texts and budget.
func (o *Orchestrator) runAudit(ctx context.Context, message, budget, route, restaurant string) (AuditReport, error) {
	text, err := llm.Collect(ctx, o.gateway, prompt.BudgetAuditor, map[string]string{
		"budget":          budget,
		"user_input":      message,
		"route_plan":      o.truncate(route),
		"restaurant_plan": o.truncate(restaurant),
	})
	if err != nil {
		return AuditReport{}, fmt.Errorf("budget audit stage failed: %w", err)
	}
	return ParseAuditReport(text), nil
}
