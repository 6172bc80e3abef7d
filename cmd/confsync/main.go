package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/confsync/internal/app"
	"github.com/tildaslashalef/confsync/internal/commands"
)

// Version information - populated at build time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var globalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the sync configuration file",
		Value:   "config.yml",
	},
	&cli.StringFlag{
		Name:  "env-file",
		Usage: "Path to an env file with credentials (default: .env if present)",
	},
	&cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level: debug, info, warn, error",
	},
	&cli.StringFlag{
		Name:  "log-format",
		Usage: "Log format: text or json",
	},
}

func main() {
	cliApp := &cli.App{
		Name:  "confsync",
		Usage: "Mirror Markdown docs from GitHub to Confluence",
		Description: "Confsync reads a YAML sync configuration, fetches Markdown files from GitHub,\n" +
			"converts them to Confluence storage format, and creates or updates the matching\n" +
			"pages. Running without a subcommand performs a sync run.",
		Version: Version,
		Compiled: func() time.Time {
			t, err := time.Parse(time.RFC3339, BuildTime)
			if err != nil {
				return time.Now()
			}
			return t
		}(),
		Flags: globalFlags,
		Before: func(c *cli.Context) error {
			application, err := app.New(c)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			c.App.Metadata = map[string]interface{}{
				"app": application,
			}

			return nil
		},
		Commands: []*cli.Command{
			commands.RunCommand(),
			commands.CheckCommand(),
			commands.ConvertCommand(),
		},
		Action: func(c *cli.Context) error {
			// Default action is a sync run
			return commands.RunCommand().Action(c)
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
