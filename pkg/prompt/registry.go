// Package prompt holds the immutable catalog of prompt templates used by the
// router, supervisor, and planner stages, plus the binding renderer.
//
// Templates use {name} placeholders. Rendering substitutes bound variables;
// unbound placeholders render as empty strings; the templates are written to
// tolerate blank sections (e.g. no prior plan, no budget constraint).
package prompt

import (
	"fmt"
	"regexp"
)

// Template IDs. Stable identifiers used by the orchestrator when invoking
// the LLM gateway.
const (
	Router            = "router"
	Supervisor        = "supervisor"
	RoutePlanner      = "route_planner"
	RestaurantPlanner = "restaurant_planner"
	BudgetAuditor     = "budget_auditor"
	BudgetExtractor   = "budget_extractor"
	Mediator          = "mediator"
	Confirmer         = "confirmer"
	Fallback          = "fallback"
	Bill              = "bill"
)

var templates = map[string]string{
	Router:            routerTemplate,
	Supervisor:        supervisorTemplate,
	RoutePlanner:      routePlannerTemplate,
	RestaurantPlanner: restaurantPlannerTemplate,
	BudgetAuditor:     budgetAuditorTemplate,
	BudgetExtractor:   budgetExtractorTemplate,
	Mediator:          mediatorTemplate,
	Confirmer:         confirmerTemplate,
	Fallback:          fallbackTemplate,
	Bill:              billTemplate,
}

var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// Render substitutes vars into the template identified by id.
// Unknown template ids are an error; unbound placeholders become empty.
func Render(id string, vars map[string]string) (string, error) {
	tmpl, ok := templates[id]
	if !ok {
		return "", fmt.Errorf("unknown prompt template: %s", id)
	}
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[1 : len(m)-1]
		return vars[name]
	}), nil
}

// Exists reports whether a template id is registered.
func Exists(id string) bool {
	_, ok := templates[id]
	return ok
}

// IDs returns all registered template ids.
func IDs() []string {
	ids := make([]string, 0, len(templates))
	for id := range templates {
		ids = append(ids, id)
	}
	return ids
}
