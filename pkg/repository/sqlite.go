package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite"

	"github.com/botsmith-dev/botsmith/pkg/model"
)

// SQLite implements Repository with a local single-file database, intended
// for development without a Firestore project. Documents are stored as a
// JSON column; the compare-and-swap runs as a guarded UPDATE.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates a SQLite database at the given path
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite database", goerr.V("path", path))
	}

	r := &SQLite{db: db}
	if err := r.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// Close releases the underlying database handle
func (r *SQLite) Close() error {
	return r.db.Close()
}

func (r *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bots (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		description   TEXT NOT NULL DEFAULT '',
		system_prompt TEXT NOT NULL DEFAULT '',
		model_name    TEXT NOT NULL DEFAULT '',
		documents     TEXT NOT NULL DEFAULT '[]',
		doc_version   INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS messages (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		bot_id     TEXT NOT NULL,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at);
	`
	if _, err := r.db.Exec(schema); err != nil {
		return goerr.Wrap(err, "failed to migrate sqlite schema")
	}
	return nil
}

func (r *SQLite) PutBot(ctx context.Context, bot *model.Bot) error {
	if err := bot.Validate(); err != nil {
		return err
	}

	docs, err := json.Marshal(bot.Documents)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal documents")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO bots (id, name, description, system_prompt, model_name, documents, doc_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			system_prompt = excluded.system_prompt,
			model_name = excluded.model_name`,
		string(bot.ID), bot.Name, bot.Description, bot.SystemPrompt, bot.ModelName,
		string(docs), bot.DocVersion, bot.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to put bot", goerr.V("bot_id", bot.ID))
	}
	return nil
}

func (r *SQLite) scanBot(row interface{ Scan(...any) error }) (*model.Bot, error) {
	var (
		bot       model.Bot
		id        string
		docs      string
		createdAt string
	)
	if err := row.Scan(&id, &bot.Name, &bot.Description, &bot.SystemPrompt, &bot.ModelName, &docs, &bot.DocVersion, &createdAt); err != nil {
		return nil, err
	}
	bot.ID = model.BotID(id)

	if err := json.Unmarshal([]byte(docs), &bot.Documents); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal documents", goerr.V("bot_id", id))
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse created_at", goerr.V("bot_id", id))
	}
	bot.CreatedAt = ts

	return &bot, nil
}

const selectBot = `SELECT id, name, description, system_prompt, model_name, documents, doc_version, created_at FROM bots`

func (r *SQLite) GetBot(ctx context.Context, id model.BotID) (*model.Bot, error) {
	row := r.db.QueryRowContext(ctx, selectBot+` WHERE id = ?`, string(id))
	bot, err := r.scanBot(row)
	if err == sql.ErrNoRows {
		return nil, goerr.Wrap(ErrBotNotFound, "bot does not exist", goerr.V("bot_id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get bot", goerr.V("bot_id", id))
	}
	return bot, nil
}

func (r *SQLite) ListBots(ctx context.Context) ([]*model.Bot, error) {
	rows, err := r.db.QueryContext(ctx, selectBot+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list bots")
	}
	defer rows.Close()

	var bots []*model.Bot
	for rows.Next() {
		bot, err := r.scanBot(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan bot")
		}
		bots = append(bots, bot)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate bots")
	}
	return bots, nil
}

func (r *SQLite) ReplaceDocuments(ctx context.Context, id model.BotID, docs []*model.Document, expectedVersion int64) error {
	encoded, err := json.Marshal(docs)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal documents")
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE bots SET documents = ?, doc_version = doc_version + 1
		WHERE id = ? AND doc_version = ?`,
		string(encoded), string(id), expectedVersion,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to replace documents", goerr.V("bot_id", id))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return goerr.Wrap(err, "failed to check replace result")
	}
	if affected == 0 {
		if _, err := r.GetBot(ctx, id); err != nil {
			return err
		}
		return goerr.Wrap(ErrVersionConflict, "concurrent document update",
			goerr.V("bot_id", id),
			goerr.V("expected", expectedVersion),
		)
	}
	return nil
}

func (r *SQLite) PutMessages(ctx context.Context, messages []*model.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	for _, msg := range messages {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO messages (session_id, bot_id, role, content, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			string(msg.SessionID), string(msg.BotID), string(msg.Role), msg.Content,
			msg.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return goerr.Wrap(err, "failed to insert message", goerr.V("session_id", msg.SessionID))
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit messages")
	}
	return nil
}

func (r *SQLite) ListMessages(ctx context.Context, sessionID model.SessionID, limit int) ([]*model.Message, error) {
	query := `SELECT session_id, bot_id, role, content, created_at FROM messages WHERE session_id = ? ORDER BY id ASC`
	args := []any{string(sessionID)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list messages", goerr.V("session_id", sessionID))
	}
	defer rows.Close()

	var messages []*model.Message
	for rows.Next() {
		var (
			msg       model.Message
			sid       string
			botID     string
			role      string
			createdAt string
		)
		if err := rows.Scan(&sid, &botID, &role, &msg.Content, &createdAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan message")
		}
		msg.SessionID = model.SessionID(sid)
		msg.BotID = model.BotID(botID)
		msg.Role = model.Role(role)
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to parse message created_at")
		}
		msg.CreatedAt = ts
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate messages")
	}
	return messages, nil
}
