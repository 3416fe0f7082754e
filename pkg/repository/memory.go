package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/botsmith-dev/botsmith/pkg/model"
)

// Memory implements Repository with an in-process map. It is used by tests
// and as the default store when no backend is configured.
type Memory struct {
	mu       sync.RWMutex
	bots     map[model.BotID]*model.Bot
	messages []*model.Message
}

// NewMemory creates a new in-memory repository
func NewMemory() *Memory {
	return &Memory{
		bots: make(map[model.BotID]*model.Bot),
	}
}

func copyBot(bot *model.Bot) *model.Bot {
	copied := *bot
	copied.Documents = make([]*model.Document, len(bot.Documents))
	for i, doc := range bot.Documents {
		d := *doc
		d.Chunks = make([]*model.Chunk, len(doc.Chunks))
		for j, chunk := range doc.Chunks {
			c := *chunk
			d.Chunks[j] = &c
		}
		copied.Documents[i] = &d
	}
	return &copied
}

func (r *Memory) PutBot(ctx context.Context, bot *model.Bot) error {
	if err := bot.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.bots[bot.ID] = copyBot(bot)
	return nil
}

func (r *Memory) GetBot(ctx context.Context, id model.BotID) (*model.Bot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bot, ok := r.bots[id]
	if !ok {
		return nil, goerr.Wrap(ErrBotNotFound, "bot does not exist", goerr.V("bot_id", id))
	}
	return copyBot(bot), nil
}

func (r *Memory) ListBots(ctx context.Context) ([]*model.Bot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bots := make([]*model.Bot, 0, len(r.bots))
	for _, bot := range r.bots {
		bots = append(bots, copyBot(bot))
	}
	sort.Slice(bots, func(i, j int) bool {
		return bots[i].CreatedAt.After(bots[j].CreatedAt)
	})
	return bots, nil
}

func (r *Memory) ReplaceDocuments(ctx context.Context, id model.BotID, docs []*model.Document, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bot, ok := r.bots[id]
	if !ok {
		return goerr.Wrap(ErrBotNotFound, "bot does not exist", goerr.V("bot_id", id))
	}
	if bot.DocVersion != expectedVersion {
		return goerr.Wrap(ErrVersionConflict, "concurrent document update",
			goerr.V("bot_id", id),
			goerr.V("expected", expectedVersion),
			goerr.V("actual", bot.DocVersion),
		)
	}

	bot.Documents = docs
	bot.DocVersion = expectedVersion + 1
	r.bots[id] = copyBot(bot)
	return nil
}

func (r *Memory) PutMessages(ctx context.Context, messages []*model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, msg := range messages {
		copied := *msg
		r.messages = append(r.messages, &copied)
	}
	return nil
}

func (r *Memory) ListMessages(ctx context.Context, sessionID model.SessionID, limit int) ([]*model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var messages []*model.Message
	for _, msg := range r.messages {
		if msg.SessionID != sessionID {
			continue
		}
		copied := *msg
		messages = append(messages, &copied)
		if limit > 0 && len(messages) >= limit {
			break
		}
	}
	return messages, nil
}
