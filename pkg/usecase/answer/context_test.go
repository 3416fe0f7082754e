package answer_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/botsmith-dev/botsmith/pkg/model"
	"github.com/botsmith-dev/botsmith/pkg/usecase/answer"
)

func trainedBot() *model.Bot {
	return &model.Bot{
		ID:          model.NewBotID(),
		Name:        "support-bot",
		Description: "Answers questions about the store",
		Documents: []*model.Document{
			{
				Type:    model.DocumentTypeText,
				Content: "The office is open 9am-5pm. Returns accepted within 30 days.",
				Chunks:  []*model.Chunk{{Text: "The office is open 9am-5pm. Returns accepted within 30 days."}},
			},
		},
	}
}

func TestBuildPromptTargetedContext(t *testing.T) {
	bot := trainedBot()
	ranked := []string{"The office is open 9am-5pm."}

	prompt := answer.BuildPrompt(bot, "What are your hours?", ranked)

	gt.Equal(t, prompt.Source, model.DataSourceChunks)
	gt.S(t, prompt.SystemInstruction).Contains("9am-5pm")
	gt.S(t, prompt.SystemInstruction).Contains("support-bot")
	gt.S(t, prompt.SystemInstruction).Contains("Answers questions about the store")
	gt.S(t, prompt.SystemInstruction).Contains("ONLY")
	gt.Equal(t, prompt.UserContent, "What are your hours?")
}

func TestBuildPromptFallbackToEverything(t *testing.T) {
	bot := trainedBot()

	// ranking found nothing: all document content is sent instead
	prompt := answer.BuildPrompt(bot, "Tell me a story", nil)

	gt.Equal(t, prompt.Source, model.DataSourceFallback)
	gt.S(t, prompt.SystemInstruction).Contains("Returns accepted within 30 days")
}

func TestBuildPromptNoTrainingData(t *testing.T) {
	bot := &model.Bot{
		ID:           model.NewBotID(),
		Name:         "blank-bot",
		SystemPrompt: "You are a pirate assistant.",
	}

	prompt := answer.BuildPrompt(bot, "What is 2+2?", nil)

	gt.Equal(t, string(prompt.Source), "")
	gt.Equal(t, prompt.SystemInstruction, "You are a pirate assistant.")
	gt.Equal(t, prompt.UserContent, "What is 2+2?")
	gt.Equal(t, prompt.ContextLength, 0)
}

func TestBuildPromptDefaultSystemPrompt(t *testing.T) {
	bot := &model.Bot{ID: model.NewBotID(), Name: "blank-bot"}

	prompt := answer.BuildPrompt(bot, "hello", nil)
	gt.S(t, prompt.SystemInstruction).Contains("helpful AI assistant")
}

func TestBuildPromptCeiling(t *testing.T) {
	bot := trainedBot()

	var ranked []string
	for i := 0; i < 10; i++ {
		ranked = append(ranked, strings.Repeat("long chunk text ", 100))
	}

	prompt := answer.BuildPrompt(bot, "question", ranked)
	gt.Number(t, prompt.ContextLength).LessOrEqual(answer.ContextCeiling)
}

func TestBuildPromptCeilingMultiByte(t *testing.T) {
	bot := trainedBot()

	// the reported context length counts runes, like the ceiling itself
	var ranked []string
	for i := 0; i < 5; i++ {
		ranked = append(ranked, strings.Repeat("営業時間は九時から", 150))
	}

	prompt := answer.BuildPrompt(bot, "question", ranked)
	gt.Number(t, prompt.ContextLength).LessOrEqual(answer.ContextCeiling)
}

func TestBuildPromptFallbackCeiling(t *testing.T) {
	bot := &model.Bot{
		ID:   model.NewBotID(),
		Name: "big-bot",
		Documents: []*model.Document{
			{Type: model.DocumentTypeText, Content: strings.Repeat("a", 10_000)},
		},
	}

	prompt := answer.BuildPrompt(bot, "question", nil)
	gt.Equal(t, prompt.Source, model.DataSourceFallback)
	gt.Number(t, prompt.ContextLength).LessOrEqual(answer.ContextCeiling)
}

func TestBuildPromptGuardReinjectsTrainingData(t *testing.T) {
	bot := trainedBot()

	// a ranked result that is somehow empty strings must not produce an
	// ungrounded prompt while training data exists
	prompt := answer.BuildPrompt(bot, "question", []string{""})

	gt.True(t, prompt.Source != "")
	gt.S(t, prompt.SystemInstruction).Contains("9am-5pm")
}
