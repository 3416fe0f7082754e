package answer_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/botsmith-dev/botsmith/pkg/llm"
	"github.com/botsmith-dev/botsmith/pkg/model"
	"github.com/botsmith-dev/botsmith/pkg/repository"
	"github.com/botsmith-dev/botsmith/pkg/usecase/answer"
)

// mockGemini records the last request and returns a canned reply
type mockGemini struct {
	lastModel  string
	lastSystem string
	lastUser   string
	reply      string
	err        error
}

func (m *mockGemini) GenerateContent(ctx context.Context, modelName string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.lastModel = modelName
	m.lastSystem = ""
	if config != nil && config.SystemInstruction != nil {
		for _, part := range config.SystemInstruction.Parts {
			m.lastSystem += part.Text
		}
	}
	m.lastUser = ""
	for _, content := range contents {
		for _, part := range content.Parts {
			m.lastUser += part.Text
		}
	}

	if m.err != nil {
		return nil, m.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: m.reply}}}},
		},
	}, nil
}

func (m *mockGemini) Embedding(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

// mockOpenAI returns a canned completion or error
type mockOpenAI struct {
	lastReq openai.ChatCompletionRequest
	reply   string
	err     error
}

func (m *mockOpenAI) ChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return openai.ChatCompletionResponse{}, m.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: m.reply}},
		},
	}, nil
}

// nullEmbedder simulates an unreachable embedding service
type nullEmbedder struct{}

func (nullEmbedder) Embed(ctx context.Context, text string) []float32 { return nil }

func storeBot(t *testing.T, repo repository.Repository, bot *model.Bot) {
	t.Helper()
	bot.CreatedAt = time.Now()
	gt.NoError(t, repo.PutBot(context.Background(), bot))
}

func TestChatTargetedContext(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	bot := trainedBot()
	bot.ModelName = "gemini-2.5-flash"
	storeBot(t, repo, bot)

	gemini := &mockGemini{reply: "We're open 9am to 5pm."}
	router := llm.NewRouter(llm.WithGemini(gemini))
	uc := answer.New(repo, router, nullEmbedder{})

	out, err := uc.Chat(ctx, bot.ID, model.ChatInput{Message: "What are your office hours?"})
	gt.NoError(t, err)

	gt.Equal(t, out.Response, "We're open 9am to 5pm.")
	gt.True(t, out.TrainingDataUsed.HasData)
	gt.Equal(t, out.TrainingDataUsed.DataSource, model.DataSourceChunks)

	// the model request must carry the training content
	gt.S(t, gemini.lastSystem).Contains("9am-5pm")
	gt.Equal(t, gemini.lastUser, "What are your office hours?")
	gt.Equal(t, gemini.lastModel, "gemini-2.5-flash")
}

func TestChatOpenBookWithoutDocuments(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	bot := &model.Bot{
		ID:           model.NewBotID(),
		Name:         "blank-bot",
		SystemPrompt: "You are a helpful AI assistant.",
		ModelName:    "gemini-2.5-flash",
	}
	storeBot(t, repo, bot)

	gemini := &mockGemini{reply: "4"}
	router := llm.NewRouter(llm.WithGemini(gemini))
	uc := answer.New(repo, router, nullEmbedder{})

	out, err := uc.Chat(ctx, bot.ID, model.ChatInput{Message: "What is 2+2?"})
	gt.NoError(t, err)

	gt.False(t, out.TrainingDataUsed.HasData)
	gt.Equal(t, gemini.lastSystem, "You are a helpful AI assistant.")
	gt.S(t, gemini.lastSystem).NotContains("TRAINING CONTEXT")
}

func TestChatFallbackWhenNothingMatches(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	bot := trainedBot()
	bot.ModelName = "gpt-4o-mini"
	storeBot(t, repo, bot)

	backend := &mockOpenAI{reply: "Let me check."}
	router := llm.NewRouter(llm.WithOpenAI(backend))
	uc := answer.New(repo, router, nullEmbedder{})

	// no keyword overlap with any chunk: full fallback carries everything
	out, err := uc.Chat(ctx, bot.ID, model.ChatInput{Message: "zzz qqq"})
	gt.NoError(t, err)

	gt.Equal(t, out.TrainingDataUsed.DataSource, model.DataSourceFallback)
	gt.A(t, backend.lastReq.Messages).Length(2)
	gt.Equal(t, backend.lastReq.Messages[0].Role, openai.ChatMessageRoleSystem)
	gt.S(t, backend.lastReq.Messages[0].Content).Contains("Returns accepted within 30 days")
}

func TestChatKeywordFallbackWhenEmbeddingsUnavailable(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	// chunks persisted without vectors (embedding was unreachable at ingest)
	bot := trainedBot()
	bot.ModelName = "gpt-4o-mini"
	storeBot(t, repo, bot)

	backend := &mockOpenAI{reply: "9am to 5pm."}
	router := llm.NewRouter(llm.WithOpenAI(backend))
	uc := answer.New(repo, router, nullEmbedder{})

	out, err := uc.Chat(ctx, bot.ID, model.ChatInput{Message: "When does the office open?"})
	gt.NoError(t, err)

	gt.Equal(t, out.TrainingDataUsed.DataSource, model.DataSourceChunks)
	gt.Equal(t, out.Response, "9am to 5pm.")
}

func TestChatValidation(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	bot := trainedBot()
	storeBot(t, repo, bot)

	uc := answer.New(repo, llm.NewRouter(), nullEmbedder{})

	_, err := uc.Chat(ctx, bot.ID, model.ChatInput{Message: "  "})
	gt.Error(t, err)

	_, err = uc.Chat(ctx, bot.ID, model.ChatInput{Message: strings.Repeat("a", answer.MaxMessageLength+1)})
	gt.Error(t, err)
}

func TestChatUnknownBot(t *testing.T) {
	uc := answer.New(repository.NewMemory(), llm.NewRouter(), nullEmbedder{})

	_, err := uc.Chat(context.Background(), model.BotID("missing"), model.ChatInput{Message: "hello"})
	gt.Error(t, err)
}

func TestChatRateLimitedBackend(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	bot := trainedBot()
	bot.ModelName = "gpt-4o-mini"
	storeBot(t, repo, bot)

	backend := &mockOpenAI{err: &openai.APIError{HTTPStatusCode: 429, Message: "rate limit exceeded"}}
	router := llm.NewRouter(llm.WithOpenAI(backend))
	uc := answer.New(repo, router, nullEmbedder{})

	out, err := uc.Chat(ctx, bot.ID, model.ChatInput{Message: "What are your office hours?"})
	gt.NoError(t, err)

	// fixed user-safe message, never the vendor error body
	gt.S(t, out.Response).Contains("a lot of questions right now")
	gt.S(t, out.Response).NotContains("rate limit exceeded")
}

func TestChatNoBackendConfigured(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	bot := trainedBot()
	bot.ModelName = "gpt-4o-mini"
	storeBot(t, repo, bot)

	uc := answer.New(repo, llm.NewRouter(), nullEmbedder{})

	out, err := uc.Chat(ctx, bot.ID, model.ChatInput{Message: "What are your office hours?"})
	gt.NoError(t, err)
	gt.S(t, out.Response).Contains("not configured")
}

func TestChatPersistsBothTurns(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	bot := trainedBot()
	bot.ModelName = "gemini-2.5-flash"
	storeBot(t, repo, bot)

	router := llm.NewRouter(llm.WithGemini(&mockGemini{reply: "9am to 5pm."}))
	uc := answer.New(repo, router, nullEmbedder{})

	out, err := uc.Chat(ctx, bot.ID, model.ChatInput{Message: "What are your office hours?"})
	gt.NoError(t, err)
	gt.True(t, out.SessionID != "")

	messages, err := repo.ListMessages(ctx, out.SessionID, 0)
	gt.NoError(t, err)
	gt.A(t, messages).Length(2)
	gt.Equal(t, messages[0].Role, model.RoleUser)
	gt.Equal(t, messages[1].Role, model.RoleAssistant)
	gt.Equal(t, messages[1].Content, "9am to 5pm.")
}

func TestChatReusesSessionID(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	bot := trainedBot()
	bot.ModelName = "gemini-2.5-flash"
	storeBot(t, repo, bot)

	router := llm.NewRouter(llm.WithGemini(&mockGemini{reply: "ok"}))
	uc := answer.New(repo, router, nullEmbedder{})

	session := model.NewSessionID()
	out, err := uc.Chat(ctx, bot.ID, model.ChatInput{Message: "office hours?", SessionID: session})
	gt.NoError(t, err)
	gt.Equal(t, out.SessionID, session)

	out, err = uc.Chat(ctx, bot.ID, model.ChatInput{Message: "office again?", SessionID: session})
	gt.NoError(t, err)

	messages, err := repo.ListMessages(ctx, session, 0)
	gt.NoError(t, err)
	gt.A(t, messages).Length(4)
}
