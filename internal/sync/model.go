package sync

import (
	"path"
	"strings"
)

// Result summarizes one run across all sync entries
type Result struct {
	Entries int // sync entries processed
	Synced  int // documents and files successfully mirrored
	Failed  int // items that errored and were skipped
}

// Success reports whether every item made it through
func (r *Result) Success() bool {
	return r.Failed == 0
}

// folderBody is the body folder pages are created with; Confluence rejects
// page creation with an empty body.
const folderBody = "<p></p>"

// DeriveTitle derives the target page title from a file name. A file named
// README (any case, any extension handling) designates the containing
// folder's page itself and yields an empty title; any other file maps to
// its name without the extension, and an extensionless file to its bare
// name.
func DeriveTitle(fileName string) string {
	ext := path.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)
	if strings.EqualFold(base, "README") {
		return ""
	}
	return base
}
