// Package github reads documentation sources from GitHub repositories: file
// content by path and ref, and a recursive listing of Markdown files.
package github

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/go-github/v59/github"
	"golang.org/x/oauth2"

	"github.com/tildaslashalef/confsync/internal/config"
	"github.com/tildaslashalef/confsync/internal/loggy"
)

// markdownExt is matched case-insensitively against listed file names
const markdownExt = ".md"

// Client represents a GitHub API client
type Client struct {
	client *github.Client
	logger *loggy.Logger
}

// NewClient creates a new GitHub API client with the configured token
func NewClient(cfg config.GitHubConfig, logger *loggy.Logger) *Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.Token},
	)

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = timeout

	// Create GitHub client with custom base URL if specified
	var client *github.Client
	if cfg.APIURL != "" && cfg.APIURL != "https://api.github.com" {
		var err error
		client, err = github.NewEnterpriseClient(cfg.APIURL, cfg.APIURL, tc)
		if err != nil {
			// Fall back to default client if enterprise client creation fails
			client = github.NewClient(tc)
		}
	} else {
		client = github.NewClient(tc)
	}

	return &Client{
		client: client,
		logger: logger,
	}
}

// SplitRepo splits an owner/name repository reference
func SplitRepo(repo string) (owner, name string, err error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository reference %q, want owner/name", repo)
	}
	return parts[0], parts[1], nil
}

// GetFileContent fetches and decodes the text content of a single file at
// the given branch
func (c *Client) GetFileContent(ctx context.Context, repo, filePath, branch string) (string, error) {
	owner, name, err := SplitRepo(repo)
	if err != nil {
		return "", err
	}

	opts := &github.RepositoryContentGetOptions{Ref: branch}
	fileContent, _, _, err := c.client.Repositories.GetContents(ctx, owner, name, filePath, opts)
	if err != nil {
		return "", fmt.Errorf("fetching %s from %s@%s: %w", filePath, repo, branch, err)
	}
	if fileContent == nil {
		return "", fmt.Errorf("%s in %s@%s is not a file", filePath, repo, branch)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return "", fmt.Errorf("decoding %s from %s@%s: %w", filePath, repo, branch, err)
	}

	return content, nil
}

// ListDocs fetches the repository file tree in one recursive call and
// returns the paths of regular Markdown files under rootPrefix, sorted.
// The extension match is case-insensitive.
func (c *Client) ListDocs(ctx context.Context, repo, branch, rootPrefix string) ([]string, error) {
	owner, name, err := SplitRepo(repo)
	if err != nil {
		return nil, err
	}

	tree, _, err := c.client.Git.GetTree(ctx, owner, name, branch, true)
	if err != nil {
		return nil, fmt.Errorf("listing tree of %s@%s: %w", repo, branch, err)
	}

	var docs []string
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		entryPath := entry.GetPath()
		if !underRoot(entryPath, rootPrefix) {
			continue
		}
		if !strings.EqualFold(path.Ext(entryPath), markdownExt) {
			continue
		}
		docs = append(docs, entryPath)
	}

	sort.Strings(docs)

	c.logger.Debug("listed markdown files",
		"repo", repo,
		"branch", branch,
		"root", rootPrefix,
		"count", len(docs),
	)

	return docs, nil
}

func underRoot(entryPath, rootPrefix string) bool {
	if rootPrefix == "" {
		return true
	}
	return entryPath == rootPrefix || strings.HasPrefix(entryPath, rootPrefix+"/")
}
