package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Substitution(t *testing.T) {
	out, err := Render(Router, map[string]string{"user_input": "3-day Paris trip"})
	require.NoError(t, err)
	assert.Contains(t, out, "3-day Paris trip")
	assert.NotContains(t, out, "{user_input}")
}

func TestRender_UnboundPlaceholderIsEmpty(t *testing.T) {
	out, err := Render(RoutePlanner, map[string]string{"user_input": "Rome weekend"})
	require.NoError(t, err)
	assert.NotContains(t, out, "{previous_route}")
	assert.NotContains(t, out, "{budget_constraint}")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, err := Render("no-such-template", nil)
	assert.Error(t, err)
}

func TestRegistry_AllStagesPresent(t *testing.T) {
	for _, id := range []string{
		Router, Supervisor, RoutePlanner, RestaurantPlanner, BudgetAuditor,
		BudgetExtractor, Mediator, Confirmer, Fallback, Bill,
	} {
		assert.True(t, Exists(id), "missing template %s", id)
	}
	assert.Len(t, IDs(), 10)
}

func TestTemplates_JSONLiteralsSurviveRendering(t *testing.T) {
	// The placeholder pattern must not eat the JSON examples embedded in the
	// templates ({"agent": ...} etc.); those contain quotes and uppercase,
	// which the pattern does not match.
	out, err := Render(Router, map[string]string{"user_input": "hi"})
	require.NoError(t, err)
	assert.Contains(t, out, `{"agent": "travel"}`)

	out, err = Render(BudgetAuditor, map[string]string{})
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, `"error_type"`))
}
