package repository

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/botsmith-dev/botsmith/pkg/model"
)

var (
	// ErrBotNotFound is returned when the requested bot does not exist
	ErrBotNotFound = goerr.New("bot not found")

	// ErrVersionConflict is returned when a document replacement lost the
	// compare-and-swap race against a concurrent ingestion
	ErrVersionConflict = goerr.New("document version conflict")
)

// Repository defines the interface for bot and conversation persistence
type Repository interface {
	// PutBot saves a bot record
	PutBot(ctx context.Context, bot *model.Bot) error

	// GetBot retrieves a bot by ID
	GetBot(ctx context.Context, id model.BotID) (*model.Bot, error)

	// ListBots retrieves all bots ordered by creation time
	ListBots(ctx context.Context) ([]*model.Bot, error)

	// ReplaceDocuments atomically swaps the bot's document list. The write
	// succeeds only when the stored DocVersion equals expectedVersion;
	// otherwise ErrVersionConflict is returned and nothing changes.
	ReplaceDocuments(ctx context.Context, id model.BotID, docs []*model.Document, expectedVersion int64) error

	// PutMessages appends conversation turns to the session log
	PutMessages(ctx context.Context, messages []*model.Message) error

	// ListMessages retrieves a session's turns in chronological order
	ListMessages(ctx context.Context, sessionID model.SessionID, limit int) ([]*model.Message, error)
}
