package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/botsmith-dev/botsmith/pkg/model"
)

// botSpec is the YAML shape accepted by `bot new -f`
type botSpec struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	SystemPrompt string `yaml:"system_prompt"`
	Model        string `yaml:"model"`
}

func botCommand() *cli.Command {
	return &cli.Command{
		Name:  "bot",
		Usage: "Manage bots",
		Commands: []*cli.Command{
			newBotCommand(),
			listBotsCommand(),
		},
	}
}

func newBotCommand() *cli.Command {
	var (
		cfg  config
		spec botSpec
		file string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "Path to a YAML bot definition",
			Destination: &file,
		},
		&cli.StringFlag{
			Name:        "name",
			Aliases:     []string{"n"},
			Usage:       "Bot name",
			Destination: &spec.Name,
		},
		&cli.StringFlag{
			Name:        "description",
			Usage:       "What this bot is about",
			Destination: &spec.Description,
		},
		&cli.StringFlag{
			Name:        "system-prompt",
			Usage:       "System prompt used when the bot has no training data",
			Destination: &spec.SystemPrompt,
		},
		&cli.StringFlag{
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "Model name (family is inferred, e.g. gemini-2.5-flash, gpt-4o-mini)",
			Destination: &spec.Model,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "new",
		Usage: "Create a new bot",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if file != "" {
				raw, err := os.ReadFile(file)
				if err != nil {
					return goerr.Wrap(err, "failed to read bot definition", goerr.V("path", file))
				}
				if err := yaml.Unmarshal(raw, &spec); err != nil {
					return goerr.Wrap(err, "failed to parse bot definition", goerr.V("path", file))
				}
			}
			if spec.Name == "" {
				return goerr.New("bot name is required (use --name or --file)")
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			bot := &model.Bot{
				ID:           model.NewBotID(),
				Name:         spec.Name,
				Description:  spec.Description,
				SystemPrompt: spec.SystemPrompt,
				ModelName:    spec.Model,
				CreatedAt:    time.Now(),
			}
			if err := repo.PutBot(ctx, bot); err != nil {
				return goerr.Wrap(err, "failed to create bot")
			}

			fmt.Fprintf(c.Root().Writer, "Created bot %s (%s)\n", bot.Name, bot.ID)
			return nil
		},
	}
}

func listBotsCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "list",
		Usage: "List all bots",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			bots, err := repo.ListBots(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to list bots")
			}

			for _, bot := range bots {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\tmodel=%s\tdocs=%d\n",
					bot.ID, bot.Name, bot.ModelName, len(bot.Documents))
			}
			return nil
		},
	}
}
