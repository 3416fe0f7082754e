package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/botsmith-dev/botsmith/pkg/model"
	"github.com/botsmith-dev/botsmith/pkg/usecase/answer"
)

func chatCommand() *cli.Command {
	var (
		cfg       config
		botID     model.BotID
		sessionID model.SessionID
		message   string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "bot",
			Aliases:     []string{"b"},
			Usage:       "Bot ID to chat with",
			Required:    true,
			Destination: (*string)(&botID),
		},
		&cli.StringFlag{
			Name:        "session",
			Aliases:     []string{"s"},
			Usage:       "Session ID to continue an existing conversation",
			Destination: (*string)(&sessionID),
		},
		&cli.StringFlag{
			Name:        "message",
			Aliases:     []string{"m"},
			Usage:       "One-shot message (omit for an interactive session)",
			Destination: &message,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Chat with a bot",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			router, err := cfg.newRouter(ctx)
			if err != nil {
				return err
			}
			embedder, err := cfg.newEmbedder(ctx)
			if err != nil {
				return err
			}

			uc := answer.New(repo, router, embedder)

			send := func(text string) error {
				sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				sp.Start()
				out, err := uc.Chat(ctx, botID, model.ChatInput{
					Message:   text,
					SessionID: sessionID,
				})
				sp.Stop()
				if err != nil {
					return goerr.Wrap(err, "failed to answer")
				}

				sessionID = out.SessionID
				fmt.Fprintf(c.Root().Writer, "%s\n", out.Response)
				if out.TrainingDataUsed.HasData {
					fmt.Fprintf(c.Root().Writer, "[grounded on %s, %d chars]\n",
						out.TrainingDataUsed.DataSource, out.TrainingDataUsed.DataLength)
				}
				return nil
			}

			if message != "" {
				if err := send(message); err != nil {
					return err
				}
				fmt.Fprintf(c.Root().Writer, "session: %s\n", sessionID)
				return nil
			}

			// Interactive chat loop
			scanner := bufio.NewScanner(os.Stdin)
			fmt.Fprintf(c.Root().Writer, "Chat session started. Type 'exit' to quit.\n")

			for {
				fmt.Fprintf(c.Root().Writer, "> ")
				if !scanner.Scan() {
					break
				}

				text := scanner.Text()
				if text == "exit" {
					break
				}
				if text == "" {
					continue
				}

				if err := send(text); err != nil {
					return err
				}
			}

			fmt.Fprintf(c.Root().Writer, "\nChat session completed\n")
			return nil
		},
	}
}
