package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGateway yields a fixed chunk sequence. Mirrors how orchestrator
// tests drive planner stages.
type scriptedGateway struct {
	chunks []Chunk
}

func (s *scriptedGateway) Stream(_ context.Context, _ string, _ map[string]string) (<-chan Chunk, error) {
	ch := make(chan Chunk, len(s.chunks))
	for _, c := range s.chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func TestCollect(t *testing.T) {
	gw := &scriptedGateway{chunks: []Chunk{
		{Content: "Day 1: "},
		{Content: "Louvre, "},
		{Content: "Eiffel Tower"},
	}}

	out, err := Collect(context.Background(), gw, "route_planner", nil)
	require.NoError(t, err)
	assert.Equal(t, "Day 1: Louvre, Eiffel Tower", out)
}

func TestCollect_TerminalError(t *testing.T) {
	boom := errors.New("rate limited")
	gw := &scriptedGateway{chunks: []Chunk{
		{Content: "partial"},
		{Err: boom},
	}}

	out, err := Collect(context.Background(), gw, "router", nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "partial", out)
}

func TestCollect_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	blocked := make(chan Chunk)
	gw := gatewayFunc(func(context.Context, string, map[string]string) (<-chan Chunk, error) {
		return blocked, nil
	})

	_, err := Collect(ctx, gw, "router", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

type gatewayFunc func(context.Context, string, map[string]string) (<-chan Chunk, error)

func (f gatewayFunc) Stream(ctx context.Context, id string, vars map[string]string) (<-chan Chunk, error) {
	return f(ctx, id, vars)
}

func TestDisabledGateway(t *testing.T) {
	stream, err := Disabled.Stream(context.Background(), "router", nil)
	require.NoError(t, err)

	chunk, ok := <-stream
	require.True(t, ok)
	assert.ErrorIs(t, chunk.Err, ErrNotConfigured)

	_, ok = <-stream
	assert.False(t, ok, "stream must close after the terminal error")
}
