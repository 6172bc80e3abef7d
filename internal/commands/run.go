package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/confsync/internal/app"
	"github.com/tildaslashalef/confsync/internal/sync"
	"github.com/tildaslashalef/confsync/internal/utils"
)

// RunCommand returns the CLI command that performs a full sync run
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:        "run",
		Usage:       "Sync configured documents to Confluence",
		Description: "Fetch each configured Markdown document from GitHub, convert it to Confluence storage format, and create or update the matching page.",
		Action:      runAction,
	}
}

// runAction is the main action for the run command
func runAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	syncFile, err := application.RequireSyncFile()
	if err != nil {
		return err
	}
	if err := application.RequireCredentials(); err != nil {
		return err
	}

	utils.PrintHeading("Syncing documents to Confluence")

	result, err := application.Sync.Run(c.Context, syncFile.Sync)
	if result != nil {
		printRunSummary(result)
	}
	if err != nil {
		return err
	}

	// Individual document failures are logged and reflected in the summary
	// but do not fail the process.
	return nil
}

func printRunSummary(result *sync.Result) {
	utils.PrintDivider()
	utils.PrintKeyValue("Entries processed", fmt.Sprintf("%d", result.Entries))
	utils.PrintKeyValue("Documents synced", fmt.Sprintf("%d", result.Synced))
	if result.Failed > 0 {
		utils.PrintWarning(fmt.Sprintf("%d document(s) failed, see log output", result.Failed))
		return
	}
	utils.PrintSuccess("All documents synced")
}
