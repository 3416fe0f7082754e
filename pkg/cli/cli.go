// Package cli wires the botsmith commands: bot management, document
// ingestion and chat.
package cli

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/botsmith-dev/botsmith/pkg/utils/logging"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	// Local development keeps credentials in .env; absence is fine
	_ = godotenv.Load()

	var logLevel string

	cmd := &cli.Command{
		Name:  "botsmith",
		Usage: "Grounded chatbot builder: ingest training material, chat with bots",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Log level (debug, info, warn, error)",
				Value:       "info",
				Sources:     cli.EnvVars("BOTSMITH_LOG_LEVEL"),
				Destination: &logLevel,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logging.SetDefault(logging.New(logLevel, os.Stderr))
			return ctx, nil
		},
		Commands: []*cli.Command{
			botCommand(),
			ingestCommand(),
			chatCommand(),
			messagesCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logging.Default().Error("command failed", "error", err)
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
