package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/botsmith-dev/botsmith/pkg/model"
)

const (
	collectionBots     = "bots"
	collectionMessages = "messages"
)

// Firestore implements Repository using Cloud Firestore
type Firestore struct {
	client *firestore.Client
}

// New creates a new Firestore repository
func New(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client")
	}

	return &Firestore{client: client}, nil
}

// Close releases the underlying client
func (r *Firestore) Close() error {
	return r.client.Close()
}

func (r *Firestore) PutBot(ctx context.Context, bot *model.Bot) error {
	if err := bot.Validate(); err != nil {
		return err
	}

	_, err := r.client.Collection(collectionBots).Doc(string(bot.ID)).Set(ctx, bot)
	if err != nil {
		return goerr.Wrap(err, "failed to put bot", goerr.V("bot_id", bot.ID))
	}
	return nil
}

func (r *Firestore) GetBot(ctx context.Context, id model.BotID) (*model.Bot, error) {
	snap, err := r.client.Collection(collectionBots).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrBotNotFound, "bot does not exist", goerr.V("bot_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get bot", goerr.V("bot_id", id))
	}

	var bot model.Bot
	if err := snap.DataTo(&bot); err != nil {
		return nil, goerr.Wrap(err, "failed to decode bot", goerr.V("bot_id", id))
	}
	return &bot, nil
}

func (r *Firestore) ListBots(ctx context.Context) ([]*model.Bot, error) {
	iter := r.client.Collection(collectionBots).OrderBy("CreatedAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var bots []*model.Bot
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate bots")
		}

		var bot model.Bot
		if err := snap.DataTo(&bot); err != nil {
			return nil, goerr.Wrap(err, "failed to decode bot")
		}
		bots = append(bots, &bot)
	}

	return bots, nil
}

func (r *Firestore) ReplaceDocuments(ctx context.Context, id model.BotID, docs []*model.Document, expectedVersion int64) error {
	ref := r.client.Collection(collectionBots).Doc(string(id))

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrBotNotFound, "bot does not exist", goerr.V("bot_id", id))
			}
			return goerr.Wrap(err, "failed to get bot in transaction")
		}

		var bot model.Bot
		if err := snap.DataTo(&bot); err != nil {
			return goerr.Wrap(err, "failed to decode bot in transaction")
		}

		if bot.DocVersion != expectedVersion {
			return goerr.Wrap(ErrVersionConflict, "concurrent document update",
				goerr.V("bot_id", id),
				goerr.V("expected", expectedVersion),
				goerr.V("actual", bot.DocVersion),
			)
		}

		return tx.Update(ref, []firestore.Update{
			{Path: "Documents", Value: docs},
			{Path: "DocVersion", Value: expectedVersion + 1},
		})
	})
	if err != nil {
		return err
	}
	return nil
}

func (r *Firestore) PutMessages(ctx context.Context, messages []*model.Message) error {
	bw := r.client.BulkWriter(ctx)

	jobs := make([]*firestore.BulkWriterJob, 0, len(messages))
	for _, msg := range messages {
		ref := r.client.Collection(collectionMessages).NewDoc()
		job, err := bw.Set(ref, msg)
		if err != nil {
			return goerr.Wrap(err, "failed to queue message write")
		}
		jobs = append(jobs, job)
	}
	bw.End()

	// Server-side write failures only surface through the job results
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to write message")
		}
	}
	return nil
}

func (r *Firestore) ListMessages(ctx context.Context, sessionID model.SessionID, limit int) ([]*model.Message, error) {
	q := r.client.Collection(collectionMessages).
		Where("SessionID", "==", string(sessionID)).
		OrderBy("CreatedAt", firestore.Asc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var messages []*model.Message
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate messages", goerr.V("session_id", sessionID))
		}

		var msg model.Message
		if err := snap.DataTo(&msg); err != nil {
			return nil, goerr.Wrap(err, "failed to decode message")
		}
		messages = append(messages, &msg)
	}

	return messages, nil
}
