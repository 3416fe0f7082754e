// Package llm routes a grounded prompt to one of the configured language
// model backends and normalizes their request/response shapes. It is the
// only package that knows provider wire formats.
package llm

import (
	"context"
	"strings"

	"github.com/botsmith-dev/botsmith/pkg/model"
)

// Family identifies a backend variant. Adding a provider means adding a
// variant implementation, not another string check at call sites.
type Family string

const (
	FamilyGemini Family = "gemini"
	FamilyOpenAI Family = "openai"
)

// defaultOpenAIModel is used when the model name is empty or unknown
const defaultOpenAIModel = "gpt-4o-mini"

// Classify maps a bot's model name onto a backend family. Unknown or empty
// names fall back to the OpenAI family's default model.
func Classify(modelName string) Family {
	if strings.Contains(strings.ToLower(modelName), "gemini") {
		return FamilyGemini
	}
	return FamilyOpenAI
}

// backend is the capability interface every family implements
type backend interface {
	generate(ctx context.Context, modelName string, prompt model.Prompt) (string, error)
}

// User-safe replies for provider failures. Raw provider errors are logged
// for operators and never shown to the end user.
const (
	msgNotConfigured = "This chatbot's AI backend is not configured. Please ask the bot owner to check the API credentials."
	msgAuthError     = "This chatbot's AI credentials were rejected. Please ask the bot owner to check the configuration."
	msgRateLimited   = "I'm receiving a lot of questions right now. Please try again in a moment."
	msgBadRequest    = "I couldn't process that message. It may have been flagged by a content filter. Please rephrase and try again."
	msgUnavailable   = "I'm having temporary trouble reaching my AI service. Please try again shortly."
	msgSafetyBlocked = "I'm sorry, but I can't respond to that request."
	msgNoAnswer      = "I don't have enough information to answer that."
)
