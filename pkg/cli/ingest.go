package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/botsmith-dev/botsmith/pkg/model"
	"github.com/botsmith-dev/botsmith/pkg/usecase/ingest"
)

func ingestCommand() *cli.Command {
	var (
		cfg   config
		botID model.BotID
		text  string
		file  string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "bot",
			Aliases:     []string{"b"},
			Usage:       "Bot ID to ingest into",
			Required:    true,
			Destination: (*string)(&botID),
		},
		&cli.StringFlag{
			Name:        "text",
			Aliases:     []string{"t"},
			Usage:       "Training text (replaces the bot's pasted text)",
			Destination: &text,
		},
		&cli.StringFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "Path to a plain-text file (appended as a file document)",
			Destination: &file,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:  "ingest",
		Usage: "Index training material for a bot",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if (text == "") == (file == "") {
				return goerr.New("exactly one of --text or --file is required")
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			embedder, err := cfg.newEmbedder(ctx)
			if err != nil {
				return err
			}

			var opts []ingest.Option
			storage, err := cfg.newStorage(ctx)
			if err != nil {
				return err
			}
			if storage != nil {
				opts = append(opts, ingest.WithStorage(storage))
			}

			uc := ingest.New(repo, embedder, opts...)

			input := ingest.Input{
				BotID:   botID,
				Type:    model.DocumentTypeText,
				Content: text,
			}
			if file != "" {
				raw, err := os.ReadFile(file)
				if err != nil {
					return goerr.Wrap(err, "failed to read file", goerr.V("path", file))
				}
				input.Type = model.DocumentTypeFile
				input.Name = filepath.Base(file)
				input.Content = string(raw)
			}

			doc, err := uc.Ingest(ctx, input)
			if err != nil {
				return goerr.Wrap(err, "failed to ingest")
			}

			embedded := 0
			for _, chunk := range doc.Chunks {
				if chunk.Embedding != nil {
					embedded++
				}
			}
			fmt.Fprintf(c.Root().Writer, "Ingested %d chars into %d chunks (%d embedded)\n",
				len(doc.Content), len(doc.Chunks), embedded)
			return nil
		},
	}
}
