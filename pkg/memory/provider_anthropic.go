package memory

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicSummaryMaxTokens = 512

// AnthropicSummarizer condenses conversation text with a Claude model.
type AnthropicSummarizer struct {
	client anthropic.Client
	model  string
}

func NewAnthropicSummarizer(apiKey, model string) *AnthropicSummarizer {
	return &AnthropicSummarizer{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (s *AnthropicSummarizer) Provider() string {
	return "anthropic"
}

func (s *AnthropicSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	response, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: anthropicSummaryMaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: summaryPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic summarization failed: %w", err)
	}

	var summary string
	for _, block := range response.Content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			summary += textBlock.Text
		}
	}
	if summary == "" {
		return "", fmt.Errorf("anthropic summarization returned no text")
	}
	return summary, nil
}
