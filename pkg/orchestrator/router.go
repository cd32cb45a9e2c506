package orchestrator

import (
	"context"
	"fmt"

	"github.com/tripwise/tripchat/pkg/jsonx"
	"github.com/tripwise/tripchat/pkg/llm"
	"github.com/tripwise/tripchat/pkg/prompt"
)

// Agent is the router's coarse classification of an utterance.
type Agent string

const (
	AgentTravel  Agent = "travel"
	AgentBill    Agent = "bill"
	AgentUnknown Agent = "unknown"
)

// ParseAgent maps a raw router response onto the agent enum. Anything
// unrecognized is unknown, which routes to the fallback agent.
func ParseAgent(text string) Agent {
	var out struct {
		Agent string `json:"agent"`
	}
	if !jsonx.Decode(text, &out) {
		return AgentUnknown
	}
	switch Agent(out.Agent) {
	case AgentTravel, AgentBill:
		return Agent(out.Agent)
	}
	return AgentUnknown
}

// classifyAgent runs the router stage.
func (o *Orchestrator) classifyAgent(ctx context.Context, message string) (Agent, error) {
	text, err := llm.Collect(ctx, o.gateway, prompt.Router, map[string]string{
		"user_input": message,
	})
	if err != nil {
		return "", fmt.Errorf("router stage failed: %w", err)
	}
	return ParseAgent(text), nil
}
