package llm

import (
	"context"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/botsmith-dev/botsmith/pkg/adapter"
	"github.com/botsmith-dev/botsmith/pkg/model"
	"github.com/botsmith-dev/botsmith/pkg/utils/logging"
)

// Gemini tends to be slower than chat-completion backends, so it gets the
// longer request budget.
const geminiTimeout = 60 * time.Second

const (
	geminiTemperature     = 0.2
	geminiMaxOutputTokens = 1024
)

// geminiBackend sends the system instruction and user content in separate
// channels and parses the nested candidate response shape.
type geminiBackend struct {
	client adapter.Gemini
}

func (b *geminiBackend) generate(ctx context.Context, modelName string, prompt model.Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, geminiTimeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](geminiTemperature),
		MaxOutputTokens: geminiMaxOutputTokens,
	}
	if prompt.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(prompt.SystemInstruction, "")
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt.UserContent, genai.RoleUser),
	}

	resp, err := b.client.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return safeMessage(ctx, err, FamilyGemini, modelName), nil
	}

	// The whole prompt can be blocked before any candidate is produced
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		logging.From(ctx).Warn("gemini blocked prompt",
			"model", modelName,
			"block_reason", resp.PromptFeedback.BlockReason,
		)
		return msgSafetyBlocked, nil
	}

	if len(resp.Candidates) == 0 {
		logging.From(ctx).Warn("gemini returned no candidates", "model", modelName)
		return msgNoAnswer, nil
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		logging.From(ctx).Warn("gemini candidate blocked by safety filter", "model", modelName)
		return msgSafetyBlocked, nil
	}

	text := candidateText(candidate)
	if text == "" {
		logging.From(ctx).Warn("gemini candidate had no text content",
			"model", modelName,
			"finish_reason", candidate.FinishReason,
		)
		return msgNoAnswer, nil
	}

	return text, nil
}

func candidateText(candidate *genai.Candidate) string {
	if candidate == nil || candidate.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}
