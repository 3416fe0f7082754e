package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/botsmith-dev/botsmith/pkg/adapter"
	"github.com/botsmith-dev/botsmith/pkg/embedding"
	"github.com/botsmith-dev/botsmith/pkg/llm"
	"github.com/botsmith-dev/botsmith/pkg/repository"
	"github.com/botsmith-dev/botsmith/pkg/utils/logging"
)

// config holds configuration values
type config struct {
	// Repository
	project  string
	database string
	sqlite   string

	// Adapters
	geminiAPIKey string
	openaiAPIKey string
	bucket       string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID (enables Firestore)",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "sqlite",
			Usage:       "Path to a local SQLite database (overrides Firestore)",
			Sources:     cli.EnvVars("BOTSMITH_SQLITE_PATH"),
			Destination: &cfg.sqlite,
		},
	}
}

// llmFlags returns flags for model and embedding backends with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key (gemini models and embeddings)",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key (gpt models)",
			Sources:     cli.EnvVars("OPENAI_API_KEY"),
			Destination: &cfg.openaiAPIKey,
		},
	}
}

// storageFlags returns flags for the raw upload archive
func storageFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket for archiving raw uploads",
			Sources:     cli.EnvVars("BOTSMITH_UPLOAD_BUCKET"),
			Destination: &cfg.bucket,
		},
	}
}

// newRepository picks the configured store: SQLite when a path is given,
// Firestore when a project is given, otherwise an in-process store.
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	if cfg.sqlite != "" {
		return repository.NewSQLite(cfg.sqlite)
	}
	if cfg.project != "" {
		if cfg.database == "" {
			return nil, goerr.New("database is required")
		}
		return repository.New(ctx, cfg.project, cfg.database)
	}

	logging.From(ctx).Warn("no store configured, using in-memory repository (data is lost on exit)")
	return repository.NewMemory(), nil
}

// newGemini creates the Gemini adapter, or nil when no key is configured.
// A missing key is not an error here: the router reports it per call.
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiAPIKey == "" {
		return nil, nil
	}
	gemini, err := adapter.NewGemini(ctx, cfg.geminiAPIKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini adapter")
	}
	return gemini, nil
}

// newEmbedder creates the best-effort embedder on top of Gemini
func (cfg *config) newEmbedder(ctx context.Context) (*embedding.Client, error) {
	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}
	return embedding.NewClient(gemini), nil
}

// newRouter wires the model router with every backend that has credentials
func (cfg *config) newRouter(ctx context.Context) (*llm.Router, error) {
	var opts []llm.Option

	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}
	if gemini != nil {
		opts = append(opts, llm.WithGemini(gemini))
	}
	if cfg.openaiAPIKey != "" {
		opts = append(opts, llm.WithOpenAI(adapter.NewOpenAI(cfg.openaiAPIKey)))
	}

	return llm.NewRouter(opts...), nil
}

// newStorage creates the upload archive, or nil when no bucket is configured
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.bucket == "" {
		return nil, nil
	}
	storage, err := adapter.NewStorage(ctx, cfg.bucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}
