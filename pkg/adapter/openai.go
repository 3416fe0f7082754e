package adapter

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI is the interface for OpenAI-compatible chat completion backends
type OpenAI interface {
	ChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type openAIClient struct {
	client *openai.Client
}

// NewOpenAI creates a new OpenAI API client
func NewOpenAI(apiKey string) OpenAI {
	return &openAIClient{
		client: openai.NewClient(apiKey),
	}
}

func (c *openAIClient) ChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return c.client.CreateChatCompletion(ctx, req)
}
