package orchestrator

import (
	"context"
	"fmt"

	"github.com/tripwise/tripchat/pkg/jsonx"
	"github.com/tripwise/tripchat/pkg/llm"
	"github.com/tripwise/tripchat/pkg/prompt"
	"github.com/tripwise/tripchat/pkg/session"
)

// Intent is the supervisor's classification of a travel utterance.
type Intent string

const (
	IntentNewPlan          Intent = "new_plan"
	IntentModifyRoute      Intent = "modify_route"
	IntentModifyRestaurant Intent = "modify_restaurant"
	IntentModifyBudget     Intent = "modify_budget"
	IntentReplanAfterFail  Intent = "replan_after_budget_fail"
	IntentConfirmPlan      Intent = "confirm_plan"
)

// ParseIntent maps a raw supervisor response onto the closed intent enum.
// Unknown values and parse failures default to new_plan, never an error.
func ParseIntent(text string) Intent {
	var out struct {
		Intent string `json:"intent"`
	}
	if !jsonx.Decode(text, &out) {
		return IntentNewPlan
	}
	switch Intent(out.Intent) {
	case IntentNewPlan, IntentModifyRoute, IntentModifyRestaurant,
		IntentModifyBudget, IntentReplanAfterFail, IntentConfirmPlan:
		return Intent(out.Intent)
	}
	return IntentNewPlan
}

// classifyIntent runs the supervisor stage over the utterance and session
// state.
func (o *Orchestrator) classifyIntent(ctx context.Context, message string, state session.State) (Intent, error) {
	text, err := llm.Collect(ctx, o.gateway, prompt.Supervisor, map[string]string{
		"user_input":      message,
		"route_plan":      planOrNone(state.RoutePlan),
		"restaurant_plan": planOrNone(state.RestaurantPlan),
		"budget":          budgetString(state),
		"awaiting_replan": fmt.Sprintf("%t", state.AwaitingReplanConfirmation),
	})
	if err != nil {
		return "", fmt.Errorf("supervisor stage failed: %w", err)
	}
	return ParseIntent(text), nil
}

// planOrNone substitutes the sentinel for an empty or degenerate plan text.
func planOrNone(plan string) string {
	if len(plan) < 10 {
		return "None"
	}
	return plan
}

func budgetString(state session.State) string {
	if state.Budget == nil {
		return "None"
	}
	currency := state.Currency
	if currency == "" {
		currency = "USD"
	}
	return fmt.Sprintf("%.2f %s", *state.Budget, currency)
}
