package llm

import (
	"context"

	"github.com/botsmith-dev/botsmith/pkg/adapter"
	"github.com/botsmith-dev/botsmith/pkg/model"
	"github.com/botsmith-dev/botsmith/pkg/utils/logging"
)

// Router selects a backend family from a bot's model name and dispatches
// the prompt. Provider-side failures come back as user-safe reply strings,
// not errors; only a malformed success response is a hard failure.
type Router struct {
	backends map[Family]backend
}

// Option is a functional option for Router
type Option func(*Router)

// WithGemini wires the Gemini family backend
func WithGemini(gemini adapter.Gemini) Option {
	return func(r *Router) {
		r.backends[FamilyGemini] = &geminiBackend{client: gemini}
	}
}

// WithOpenAI wires the OpenAI family backend
func WithOpenAI(client adapter.OpenAI) Option {
	return func(r *Router) {
		r.backends[FamilyOpenAI] = &openAIBackend{client: client}
	}
}

// NewRouter creates a router. Families without a configured backend answer
// with a configuration-error message so operators can diagnose missing
// credentials without log access.
func NewRouter(opts ...Option) *Router {
	r := &Router{
		backends: make(map[Family]backend),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Answer dispatches the prompt to the backend selected by modelName and
// returns the reply text. The returned string is always safe to show to
// the end user.
func (r *Router) Answer(ctx context.Context, modelName string, prompt model.Prompt) (string, error) {
	family := Classify(modelName)

	b, ok := r.backends[family]
	if !ok {
		logging.From(ctx).Error("no backend configured for model family",
			"family", family,
			"model", modelName,
		)
		return msgNotConfigured, nil
	}

	return b.generate(ctx, modelName, prompt)
}
