package answer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/botsmith-dev/botsmith/pkg/model"
)

// ContextCeiling bounds the assembled context block regardless of how many
// or how large the matching chunks are, keeping model requests within
// provider limits and cost predictable.
const ContextCeiling = 3000

const defaultSystemPrompt = "You are a helpful AI assistant."

const (
	contextOpen  = "=== TRAINING CONTEXT START ==="
	contextClose = "=== TRAINING CONTEXT END ==="
)

const closedBookTemplate = `You are %q, a chatbot with the following description: %s

Answer the user's question using ONLY the information between the context markers below.
If the answer is not present in that context, reply that you don't have enough information to answer.
Never use outside knowledge and never invent details.

%s
%s
%s`

// BuildPrompt assembles the prompt for one incoming question. Three
// outcomes are possible:
//  1. targeted context from ranked chunks,
//  2. fallback to all training content when ranking found nothing,
//  3. open-book mode when the bot has no training data at all.
//
// Whenever the bot has any training data, the returned prompt is guaranteed
// to carry some of it in the system instruction.
func BuildPrompt(bot *model.Bot, message string, ranked []string) model.Prompt {
	prompt := assemble(bot, message, ranked)

	// Guard: a branching bug upstream must never produce an ungrounded
	// prompt while training data exists
	if bot.HasTrainingData() &&
		(prompt.ContextLength == 0 || !strings.Contains(prompt.SystemInstruction, contextOpen)) {
		prompt = assemble(bot, message, nil)
	}

	return prompt
}

func assemble(bot *model.Bot, message string, ranked []string) model.Prompt {
	if block := truncate(strings.TrimSpace(strings.Join(ranked, "\n\n")), ContextCeiling); block != "" {
		return model.Prompt{
			SystemInstruction: closedBook(bot, block),
			UserContent:       message,
			Source:            model.DataSourceChunks,
			ContextLength:     utf8.RuneCountInString(block),
		}
	}

	if bot.HasTrainingData() {
		block := truncate(allContent(bot), ContextCeiling)
		return model.Prompt{
			SystemInstruction: closedBook(bot, block),
			UserContent:       message,
			Source:            model.DataSourceFallback,
			ContextLength:     utf8.RuneCountInString(block),
		}
	}

	system := bot.SystemPrompt
	if system == "" {
		system = defaultSystemPrompt
	}
	return model.Prompt{
		SystemInstruction: system,
		UserContent:       message,
	}
}

func closedBook(bot *model.Bot, contextBlock string) string {
	return fmt.Sprintf(closedBookTemplate,
		bot.Name, bot.Description,
		contextOpen, contextBlock, contextClose,
	)
}

// allContent concatenates every document's raw content, used by the
// fallback-to-everything policy
func allContent(bot *model.Bot) string {
	var parts []string
	for _, doc := range bot.Documents {
		if doc != nil && doc.Content != "" {
			parts = append(parts, doc.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
