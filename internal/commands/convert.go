package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/confsync/internal/markdown"
)

// ConvertCommand returns the CLI command that converts a local Markdown file
// to Confluence storage format. It is fully offline and needs no credentials.
func ConvertCommand() *cli.Command {
	return &cli.Command{
		Name:        "convert",
		Usage:       "Convert a Markdown file to Confluence storage format",
		ArgsUsage:   "[file]",
		Description: "Convert the given Markdown file (or standard input when no file is given) and print the resulting storage-format XHTML to standard output.",
		Action:      convertAction,
	}
}

func convertAction(c *cli.Context) error {
	var source []byte
	var err error

	if c.Args().Len() > 0 {
		source, err = os.ReadFile(c.Args().First())
		if err != nil {
			return fmt.Errorf("reading input file: %w", err)
		}
	} else {
		source, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading standard input: %w", err)
		}
	}

	fmt.Println(markdown.Convert(string(source)))
	return nil
}
