// Package llm provides the streaming LLM gateway. A Gateway turns a
// (template id, variable bindings) pair into a finite stream of text chunks.
// Errors terminate the stream as an in-band chunk; consumers never see a
// panic or a mid-stream exception, and a stream is consumable exactly once.
package llm

import (
	"context"
	"errors"
	"strings"
)

// Chunk is one element of a gateway stream. A chunk carries either content
// or a terminal error, never both.
type Chunk struct {
	Content string
	Err     error
}

// Gateway streams LLM output for a rendered prompt template.
type Gateway interface {
	// Stream renders templateID with vars and starts a completion. The
	// returned channel is closed after the final chunk; a failure is
	// delivered as a last Chunk with Err set.
	Stream(ctx context.Context, templateID string, vars map[string]string) (<-chan Chunk, error)
}

// ErrNotConfigured is the terminal error produced by the Disabled gateway.
var ErrNotConfigured = errors.New("OpenAI API key not configured; check your .env file")

// Disabled is a Gateway used when no API key is present. Every stream yields
// a single terminal error chunk so the error surfaces in-band, matching the
// transport contract.
var Disabled Gateway = disabledGateway{}

type disabledGateway struct{}

func (disabledGateway) Stream(_ context.Context, _ string, _ map[string]string) (<-chan Chunk, error) {
	ch := make(chan Chunk, 1)
	ch <- Chunk{Err: ErrNotConfigured}
	close(ch)
	return ch, nil
}

// Collect drains a full stream into a single string. Used by the structured
// stages (router, supervisor, auditor, extractor) that must parse a complete
// response rather than forward tokens.
func Collect(ctx context.Context, gw Gateway, templateID string, vars map[string]string) (string, error) {
	stream, err := gw.Stream(ctx, templateID, vars)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for {
		select {
		case chunk, ok := <-stream:
			if !ok {
				return sb.String(), nil
			}
			if chunk.Err != nil {
				return sb.String(), chunk.Err
			}
			sb.WriteString(chunk.Content)
		case <-ctx.Done():
			return sb.String(), ctx.Err()
		}
	}
}
