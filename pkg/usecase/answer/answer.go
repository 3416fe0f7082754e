// Package answer orchestrates the retrieval-augmented answering pipeline:
// rank the bot's chunks against the question, assemble a grounded prompt,
// route it to the right model backend, and log the exchange.
package answer

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/botsmith-dev/botsmith/pkg/embedding"
	"github.com/botsmith-dev/botsmith/pkg/llm"
	"github.com/botsmith-dev/botsmith/pkg/model"
	"github.com/botsmith-dev/botsmith/pkg/repository"
	"github.com/botsmith-dev/botsmith/pkg/utils/logging"
)

// MaxMessageLength bounds an incoming chat message
const MaxMessageLength = 5000

var (
	// ErrEmptyMessage rejects blank messages before any network call
	ErrEmptyMessage = goerr.New("message is empty")

	// ErrMessageTooLong rejects oversized messages before any network call
	ErrMessageTooLong = goerr.New("message is too long")
)

// msgInternalError is the fixed reply for unexpected pipeline failures.
// The chat always returns a chat-shaped answer, never a raw error.
const msgInternalError = "I'm sorry, something went wrong while answering. Please try again."

// UseCase provides the chat answering operation
type UseCase struct {
	repo     repository.Repository
	router   *llm.Router
	embedder embedding.Embedder

	topK int
	now  func() time.Time
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithTopK overrides how many chunks feed a targeted context
func WithTopK(topK int) Option {
	return func(uc *UseCase) {
		uc.topK = topK
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// New creates a new answer UseCase instance
func New(repo repository.Repository, router *llm.Router, embedder embedding.Embedder, opts ...Option) *UseCase {
	uc := &UseCase{
		repo:     repo,
		router:   router,
		embedder: embedder,
		topK:     DefaultTopK,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Chat answers one incoming message for the given bot. Validation failures
// return an error before any network call; any failure past validation is
// caught here and turned into a fixed apologetic reply, so the caller can
// always render a chat bubble.
func (u *UseCase) Chat(ctx context.Context, botID model.BotID, input model.ChatInput) (*model.ChatOutput, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if len(message) > MaxMessageLength {
		return nil, goerr.Wrap(ErrMessageTooLong, "message exceeds limit",
			goerr.V("length", len(message)),
			goerr.V("limit", MaxMessageLength),
		)
	}

	bot, err := u.repo.GetBot(ctx, botID)
	if err != nil {
		return nil, err
	}

	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = model.NewSessionID()
	}

	reply, usage := u.reply(ctx, bot, message)

	u.persist(ctx, bot.ID, sessionID, message, reply)

	return &model.ChatOutput{
		Response:         reply,
		SessionID:        sessionID,
		TrainingDataUsed: usage,
	}, nil
}

// reply runs ranking, context assembly and model routing, degrading to the
// fixed apologetic message on any internal failure
func (u *UseCase) reply(ctx context.Context, bot *model.Bot, message string) (reply string, usage model.TrainingDataUsage) {
	defer func() {
		if r := recover(); r != nil {
			logging.From(ctx).Error("panic in answer pipeline", "bot_id", bot.ID, "panic", r)
			reply = msgInternalError
		}
	}()

	var ranked []string
	if bot.HasTrainingData() {
		queryVec := u.embedder.Embed(ctx, message)
		ranked = Rank(message, queryVec, bot.AllChunks(), u.topK)
	}

	prompt := BuildPrompt(bot, message, ranked)
	usage = model.TrainingDataUsage{
		HasData:    prompt.Source != "",
		DataSource: prompt.Source,
		DataLength: prompt.ContextLength,
	}

	logging.From(ctx).Debug("assembled prompt",
		"bot_id", bot.ID,
		"data_source", prompt.Source,
		"context_length", prompt.ContextLength,
		"ranked_chunks", len(ranked),
	)

	text, err := u.router.Answer(ctx, bot.ModelName, prompt)
	if err != nil {
		logging.From(ctx).Error("model routing failed",
			"bot_id", bot.ID,
			"model", bot.ModelName,
			"error", err,
		)
		return msgInternalError, usage
	}

	return text, usage
}

// persist appends both turns to the session log. A persistence failure is
// logged but never fails the chat.
func (u *UseCase) persist(ctx context.Context, botID model.BotID, sessionID model.SessionID, message, reply string) {
	now := u.now()
	messages := []*model.Message{
		{SessionID: sessionID, BotID: botID, Role: model.RoleUser, Content: message, CreatedAt: now},
		{SessionID: sessionID, BotID: botID, Role: model.RoleAssistant, Content: reply, CreatedAt: now.Add(time.Millisecond)},
	}

	if err := u.repo.PutMessages(ctx, messages); err != nil {
		logging.From(ctx).Warn("failed to persist conversation", "session_id", sessionID, "error", err)
	}
}
