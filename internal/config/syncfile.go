package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// SyncFile is the declarative sync configuration loaded from YAML
type SyncFile struct {
	Confluence ConfluenceDefaults `yaml:"confluence"`
	Sync       []SyncEntry        `yaml:"sync" validate:"required,dive"`
}

// ConfluenceDefaults carries fallback values for credentials that may also
// come from the environment
type ConfluenceDefaults struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
}

// SyncEntry maps one GitHub repository to a Confluence target, either as an
// explicit document list (flat mode) or a docs-root subtree (tree mode)
type SyncEntry struct {
	GitHubRepo         string     `yaml:"github_repo" validate:"required"`
	GitHubBranch       string     `yaml:"github_branch"`
	ConfluenceSpace    string     `yaml:"confluence_space" validate:"required"`
	ConfluenceParentID string     `yaml:"confluence_parent_id"`
	Documents          []Document `yaml:"documents" validate:"dive"`
	DocsRoot           string     `yaml:"docs_root"`
}

// Document maps one source file to one page title (flat mode)
type Document struct {
	GitHubPath      string `yaml:"github_path" validate:"required"`
	ConfluenceTitle string `yaml:"confluence_title" validate:"required"`
}

// TreeMode reports whether this entry mirrors a whole subtree instead of an
// explicit document list
func (e *SyncEntry) TreeMode() bool {
	return e.DocsRoot != ""
}

// githubURLPattern matches full GitHub URLs like
// https://github.com/owner/name(.git)
var githubURLPattern = regexp.MustCompile(`^https?://github\.com/([^/]+)/([^/]+?)(?:\.git)?/?$`)

// NormalizeRepo reduces a repository reference to the owner/name form,
// accepting full GitHub URLs with an optional .git suffix or trailing slash
func NormalizeRepo(repo string) string {
	if m := githubURLPattern.FindStringSubmatch(repo); m != nil {
		return m[1] + "/" + m[2]
	}
	return repo
}

// LoadSyncFile reads and validates the YAML sync configuration. Repository
// references are normalized and the branch defaults to "main".
func LoadSyncFile(path string) (*SyncFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sync config %s: %w", path, err)
	}

	var f SyncFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing sync config %s: %w", path, err)
	}

	for i := range f.Sync {
		f.Sync[i].GitHubRepo = NormalizeRepo(f.Sync[i].GitHubRepo)
		if f.Sync[i].GitHubBranch == "" {
			f.Sync[i].GitHubBranch = "main"
		}
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sync config %s: %w", path, err)
	}

	return &f, nil
}

// Validate checks required fields and the mode constraints on each entry
func (f *SyncFile) Validate() error {
	v := validator.New()
	if err := v.Struct(f); err != nil {
		return err
	}

	for i := range f.Sync {
		entry := &f.Sync[i]
		hasDocs := len(entry.Documents) > 0
		hasRoot := entry.DocsRoot != ""

		switch {
		case hasDocs && hasRoot:
			return fmt.Errorf("sync entry %d (%s): documents and docs_root are mutually exclusive", i, entry.GitHubRepo)
		case !hasDocs && !hasRoot:
			return fmt.Errorf("sync entry %d (%s): either documents or docs_root must be set", i, entry.GitHubRepo)
		}

		if hasRoot && entry.ConfluenceParentID == "" {
			return fmt.Errorf("sync entry %d (%s): docs_root requires confluence_parent_id", i, entry.GitHubRepo)
		}
	}

	return nil
}
