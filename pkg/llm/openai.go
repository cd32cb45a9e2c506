package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tripwise/tripchat/pkg/prompt"
)

// streamBuffer bounds the chunk channel so a slow consumer applies
// backpressure to the API read loop instead of growing memory.
const streamBuffer = 100

// OpenAIGateway implements Gateway over the OpenAI Chat Completions API
// with stream=true. Prompts are rendered from the prompt registry and sent
// as a single user message at temperature 0, mirroring deterministic
// classification stages.
type OpenAIGateway struct {
	client *openai.Client
	model  string
}

// NewOpenAIGateway builds a gateway from an API key and model id.
func NewOpenAIGateway(apiKey, model string) (*OpenAIGateway, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	if model == "" {
		return nil, errors.New("model is required")
	}
	return &OpenAIGateway{client: openai.NewClient(apiKey), model: model}, nil
}

// Stream renders the template and streams the completion.
func (g *OpenAIGateway) Stream(ctx context.Context, templateID string, vars map[string]string) (<-chan Chunk, error) {
	rendered, err := prompt.Render(templateID, vars)
	if err != nil {
		return nil, err
	}

	stream, err := g.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: rendered},
		},
		Stream: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start completion stream for %s: %w", templateID, err)
	}

	chunks := make(chan Chunk, streamBuffer)
	go func() {
		defer close(chunks)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				slog.Warn("LLM stream error", "template", templateID, "error", err)
				select {
				case chunks <- Chunk{Err: fmt.Errorf("stream %s: %w", templateID, err)}:
				case <-ctx.Done():
				}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case chunks <- Chunk{Content: delta}:
			case <-ctx.Done():
				select {
				case chunks <- Chunk{Err: ctx.Err()}:
				default:
				}
				return
			}
		}
	}()

	return chunks, nil
}
