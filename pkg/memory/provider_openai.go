package memory

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAISummarizer condenses conversation text with an OpenAI chat model.
type OpenAISummarizer struct {
	client openai.Client
	model  string
}

func NewOpenAISummarizer(apiKey, model string) *OpenAISummarizer {
	return &OpenAISummarizer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (s *OpenAISummarizer) Provider() string {
	return "openai"
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, text string) (string, error) {
	response, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(summaryPrompt),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai summarization failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("openai summarization returned no choices")
	}
	return response.Choices[0].Message.Content, nil
}
