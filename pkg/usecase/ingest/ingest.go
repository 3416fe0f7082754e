// Package ingest turns raw training material into searchable chunks and
// persists them on the owning bot.
package ingest

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/botsmith-dev/botsmith/pkg/adapter"
	"github.com/botsmith-dev/botsmith/pkg/embedding"
	"github.com/botsmith-dev/botsmith/pkg/model"
	"github.com/botsmith-dev/botsmith/pkg/repository"
	"github.com/botsmith-dev/botsmith/pkg/utils/logging"
)

const (
	// embeddingSkipThreshold defers embedding for very large inputs so the
	// ingestion request stays fast. Chunks keep nil embeddings and are
	// matched by keyword fallback until vectors are computed out of band.
	embeddingSkipThreshold = 100_000

	// replaceRetries bounds compare-and-swap retries against concurrent
	// ingestion jobs for the same bot
	replaceRetries = 3
)

// UseCase provides document ingestion operations
type UseCase struct {
	repo     repository.Repository
	embedder embedding.Embedder
	storage  adapter.Storage

	chunkSize    int
	chunkOverlap int
	now          func() time.Time
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithStorage enables best-effort archiving of raw uploads
func WithStorage(storage adapter.Storage) Option {
	return func(uc *UseCase) {
		uc.storage = storage
	}
}

// WithChunking overrides the chunk window geometry
func WithChunking(size, overlap int) Option {
	return func(uc *UseCase) {
		uc.chunkSize = size
		uc.chunkOverlap = overlap
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// New creates a new ingest UseCase instance
func New(repo repository.Repository, embedder embedding.Embedder, opts ...Option) *UseCase {
	uc := &UseCase{
		repo:         repo,
		embedder:     embedder,
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Input contains parameters for ingesting one piece of training material
type Input struct {
	BotID   model.BotID
	Type    model.DocumentType
	Name    string
	Content string
}

// Ingest chunks and embeds the content, then atomically installs the new
// document on the bot. Pasted text replaces the bot's existing text
// document; file uploads append. Embedding is best effort: a chunk whose
// embedding call fails is kept with a nil vector.
func (u *UseCase) Ingest(ctx context.Context, input Input) (*model.Document, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, goerr.New("content is empty", goerr.V("bot_id", input.BotID))
	}
	if err := input.Type.Validate(); err != nil {
		return nil, err
	}

	doc := &model.Document{
		Type:       input.Type,
		Name:       input.Name,
		Content:    input.Content,
		Chunks:     Chunk(input.Content, u.chunkSize, u.chunkOverlap),
		UploadedAt: u.now(),
	}

	u.embedChunks(ctx, doc)
	u.archive(ctx, input)

	if err := u.install(ctx, input.BotID, doc); err != nil {
		return nil, err
	}

	logging.From(ctx).Info("ingested document",
		"bot_id", input.BotID,
		"type", doc.Type,
		"content_length", len(doc.Content),
		"chunks", len(doc.Chunks),
	)

	return doc, nil
}

// embedChunks computes chunk embeddings one at a time to respect the
// embedding service's rate limits. A failed chunk keeps a nil vector and
// does not abort the rest.
func (u *UseCase) embedChunks(ctx context.Context, doc *model.Document) {
	if len(doc.Content) > embeddingSkipThreshold {
		logging.From(ctx).Info("embedding deferred for large document",
			"content_length", len(doc.Content),
		)
		return
	}

	for _, chunk := range doc.Chunks {
		chunk.Embedding = u.embedder.Embed(ctx, chunk.Text)
	}
}

// archive saves the raw upload when an archive bucket is configured.
// Failure is logged and never fails ingestion.
func (u *UseCase) archive(ctx context.Context, input Input) {
	if u.storage == nil || input.Type != model.DocumentTypeFile {
		return
	}

	key := adapter.UploadKey(string(input.BotID), input.Name)
	if err := u.storage.Put(ctx, key, strings.NewReader(input.Content)); err != nil {
		logging.From(ctx).Warn("failed to archive upload", "key", key, "error", err)
	}
}

// install replaces the bot's document list with a compare-and-swap so a
// concurrent chat read always sees a fully written set of chunks. On a
// version conflict the merge is recomputed from the fresh document list.
func (u *UseCase) install(ctx context.Context, botID model.BotID, doc *model.Document) error {
	var lastErr error
	for attempt := 0; attempt < replaceRetries; attempt++ {
		bot, err := u.repo.GetBot(ctx, botID)
		if err != nil {
			return err
		}

		docs := mergeDocuments(bot.Documents, doc)
		err = u.repo.ReplaceDocuments(ctx, botID, docs, bot.DocVersion)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}

		lastErr = err
		logging.From(ctx).Warn("document replace lost a race, retrying",
			"bot_id", botID,
			"attempt", attempt+1,
		)
	}

	return goerr.Wrap(lastErr, "gave up replacing documents after retries", goerr.V("bot_id", botID))
}

// mergeDocuments installs the new document: pasted text replaces the
// existing text document wholesale, file uploads are appended.
func mergeDocuments(existing []*model.Document, doc *model.Document) []*model.Document {
	merged := make([]*model.Document, 0, len(existing)+1)
	for _, d := range existing {
		if doc.Type == model.DocumentTypeText && d.Type == model.DocumentTypeText {
			continue
		}
		merged = append(merged, d)
	}
	return append(merged, doc)
}
