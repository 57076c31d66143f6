package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// openaiCompleter talks to OpenAI or any OpenAI-compatible endpoint (Gemini).
type openaiCompleter struct {
	client openai.Client
	model  string
}

func newOpenAICompleter(apiKey, baseURL, model string) *openaiCompleter {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"))
	}
	return &openaiCompleter{client: openai.NewClient(opts...), model: model}
}

func (o *openaiCompleter) complete(ctx context.Context, system, prompt string) (string, error) {
	var msgs []openai.ChatCompletionMessageParamUnion
	if system != "" {
		msgs = append(msgs, openai.SystemMessage(system))
	}
	msgs = append(msgs, openai.UserMessage(prompt))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("%s API error: %w", o.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty %s response", o.model)
	}
	return resp.Choices[0].Message.Content, nil
}
