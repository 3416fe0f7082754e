package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/botsmith-dev/botsmith/pkg/model"
)

func messagesCommand() *cli.Command {
	var (
		cfg       config
		sessionID model.SessionID
		limit     int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "session",
			Aliases:     []string{"s"},
			Usage:       "Session ID to show",
			Required:    true,
			Destination: (*string)(&sessionID),
		},
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of turns to show",
			Value:       50,
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "messages",
		Usage: "Show a session's conversation log",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			messages, err := repo.ListMessages(ctx, sessionID, int(limit))
			if err != nil {
				return goerr.Wrap(err, "failed to list messages")
			}

			for _, msg := range messages {
				fmt.Fprintf(c.Root().Writer, "[%s] %s: %s\n",
					msg.CreatedAt.Format("2006-01-02 15:04:05"), msg.Role, msg.Content)
			}
			return nil
		},
	}
}
