package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/confsync/internal/app"
	"github.com/tildaslashalef/confsync/internal/config"
	"github.com/tildaslashalef/confsync/internal/utils"
)

// CheckCommand returns the CLI command that validates the configuration
// against both remote services without modifying anything
func CheckCommand() *cli.Command {
	return &cli.Command{
		Name:        "check",
		Usage:       "Validate configuration and remote access",
		Description: "Verify credentials, repository contents, Confluence spaces, and parent pages for every sync entry. No pages are created or updated.",
		Action:      checkAction,
	}
}

func checkAction(c *cli.Context) error {
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

	utils.PrintHeading("Checking sync configuration")

	failures := 0
	rows := make([][]string, 0, len(syncFile.Sync))
	for i := range syncFile.Sync {
		entry := &syncFile.Sync[i]
		utils.PrintInfo(fmt.Sprintf("entry %d: %s (space %s)", i+1, entry.GitHubRepo, entry.ConfluenceSpace))

		status := "ok"
		if err := checkEntry(c, application, entry); err != nil {
			utils.PrintError(err.Error())
			status = "failed"
			failures++
		}
		rows = append(rows, []string{entry.GitHubRepo, entry.ConfluenceSpace, entryMode(entry), status})
	}

	utils.PrintTable("Check results", []string{"Repository", "Space", "Mode", "Status"}, rows)

	if failures > 0 {
		return fmt.Errorf("%d sync entr(ies) failed validation", failures)
	}
	utils.PrintSuccess("All sync entries validated")
	return nil
}

func entryMode(entry *config.SyncEntry) string {
	if entry.TreeMode() {
		return "tree"
	}
	return "documents"
}

func checkEntry(c *cli.Context, application *app.App, entry *config.SyncEntry) error {
	ctx := c.Context

	if entry.TreeMode() {
		files, err := application.GitHub.ListDocs(ctx, entry.GitHubRepo, entry.GitHubBranch, entry.DocsRoot)
		if err != nil {
			return fmt.Errorf("listing %s in %s: %w", entry.DocsRoot, entry.GitHubRepo, err)
		}
		utils.PrintKeyValue("  markdown files under docs root", fmt.Sprintf("%d", len(files)))
	} else {
		for _, doc := range entry.Documents {
			if _, err := application.GitHub.GetFileContent(ctx, entry.GitHubRepo, doc.GitHubPath, entry.GitHubBranch); err != nil {
				return fmt.Errorf("fetching %s from %s: %w", doc.GitHubPath, entry.GitHubRepo, err)
			}
		}
		utils.PrintKeyValue("  documents found in repository", fmt.Sprintf("%d", len(entry.Documents)))
	}

	if entry.ConfluenceParentID != "" {
		parent, err := application.Confluence.GetPageByID(ctx, entry.ConfluenceParentID)
		if err != nil {
			return fmt.Errorf("fetching parent page %s: %w", entry.ConfluenceParentID, err)
		}
		if parent == nil {
			return fmt.Errorf("parent page %s not found at %s", entry.ConfluenceParentID, application.Confluence.BaseURL())
		}
		if parent.Space.Key != "" && parent.Space.Key != entry.ConfluenceSpace {
			utils.PrintWarning(fmt.Sprintf("  parent page %s lives in space %s, not configured space %s",
				entry.ConfluenceParentID, parent.Space.Key, entry.ConfluenceSpace))
		}
		utils.PrintKeyValue("  parent page", parent.Title)
	} else if len(entry.Documents) > 0 {
		// No parent to probe; a title lookup verifies the space exists.
		if _, err := application.Confluence.GetPageByTitle(ctx, entry.ConfluenceSpace, entry.Documents[0].ConfluenceTitle); err != nil {
			return fmt.Errorf("querying space %s: %w", entry.ConfluenceSpace, err)
		}
		utils.PrintKeyValue("  space", entry.ConfluenceSpace)
	}

	return nil
}
