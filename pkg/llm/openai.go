package llm

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	openai "github.com/sashabaranov/go-openai"

	"github.com/botsmith-dev/botsmith/pkg/adapter"
	"github.com/botsmith-dev/botsmith/pkg/model"
)

const openAITimeout = 30 * time.Second

const (
	openAITemperature = 0.7
	openAIMaxTokens   = 1024
)

// openAIBackend builds a chat messages array and reads the first choice.
// Unlike Gemini, a success response with no content is a hard failure here,
// propagated so the answer service can apologize generically.
type openAIBackend struct {
	client adapter.OpenAI
}

func (b *openAIBackend) generate(ctx context.Context, modelName string, prompt model.Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, openAITimeout)
	defer cancel()

	// Unknown or empty model names land here via Classify; send the
	// designated default instead of forwarding an invalid name upstream.
	if !strings.Contains(strings.ToLower(modelName), "gpt") {
		modelName = defaultOpenAIModel
	}

	var messages []openai.ChatCompletionMessage
	if prompt.SystemInstruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: prompt.SystemInstruction,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt.UserContent,
	})

	resp, err := b.client.ChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       modelName,
		Messages:    messages,
		Temperature: openAITemperature,
		MaxTokens:   openAIMaxTokens,
	})
	if err != nil {
		return safeMessage(ctx, err, FamilyOpenAI, modelName), nil
	}

	if len(resp.Choices) == 0 {
		return "", goerr.New("chat completion returned no choices", goerr.V("model", modelName))
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", goerr.New("chat completion message content is empty", goerr.V("model", modelName))
	}

	return content, nil
}
