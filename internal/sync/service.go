// Package sync resolves source files to Confluence pages and drives the
// create-or-update flow for both the explicit document list (flat mode) and
// the recursive docs-root mirror (tree mode).
package sync

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/tildaslashalef/confsync/internal/config"
	"github.com/tildaslashalef/confsync/internal/confluence"
	"github.com/tildaslashalef/confsync/internal/loggy"
	"github.com/tildaslashalef/confsync/internal/markdown"
)

// ContentClient is the Confluence surface the orchestrator needs
type ContentClient interface {
	GetPageByTitle(ctx context.Context, space, title string) (*confluence.Page, error)
	GetPageByTitleUnderParent(ctx context.Context, space, title, parentID string) (*confluence.Page, error)
	GetPageByID(ctx context.Context, pageID string) (*confluence.Page, error)
	CreatePage(ctx context.Context, space, title, content, parentID string) (*confluence.Page, error)
	UpdatePage(ctx context.Context, pageID, title, content string, currentVersion int) (*confluence.Page, error)
	BaseURL() string
}

// SourceClient is the repository surface the orchestrator needs
type SourceClient interface {
	GetFileContent(ctx context.Context, repo, filePath, branch string) (string, error)
	ListDocs(ctx context.Context, repo, branch, rootPrefix string) ([]string, error)
}

// Service orchestrates one sync run. It holds no state across runs; the
// remote service is the source of truth for page existence and versions.
type Service struct {
	content ContentClient
	source  SourceClient
	logger  *loggy.Logger
}

// NewService creates a new sync service
func NewService(content ContentClient, source SourceClient, logger *loggy.Logger) *Service {
	return &Service{
		content: content,
		source:  source,
		logger:  logger,
	}
}

// Run processes every sync entry sequentially. Per-item failures are logged
// and counted without affecting sibling items; configuration errors abort
// the run before any further mutation.
func (s *Service) Run(ctx context.Context, entries []config.SyncEntry) (*Result, error) {
	result := &Result{}

	for i := range entries {
		entry := &entries[i]
		result.Entries++

		s.logger.Info("processing sync entry",
			"repo", entry.GitHubRepo,
			"branch", entry.GitHubBranch,
			"space", entry.ConfluenceSpace,
		)

		var synced, failed int
		var err error
		if entry.TreeMode() {
			synced, failed, err = s.SyncTree(ctx, entry)
		} else {
			synced, failed = s.syncDocuments(ctx, entry)
		}

		result.Synced += synced
		result.Failed += failed

		if err != nil {
			var cfgErr *confluence.ConfigError
			if errors.As(err, &cfgErr) {
				return result, err
			}
			s.logger.Error("sync entry failed",
				"repo", entry.GitHubRepo,
				"space", entry.ConfluenceSpace,
				"error", err,
			)
			result.Failed++
		}
	}

	return result, nil
}

// syncDocuments handles flat mode: each configured document is fetched,
// converted, and synced to a page directly under the configured parent.
func (s *Service) syncDocuments(ctx context.Context, entry *config.SyncEntry) (synced, failed int) {
	for _, doc := range entry.Documents {
		s.logger.Info("syncing document",
			"path", doc.GitHubPath,
			"repo", entry.GitHubRepo,
			"branch", entry.GitHubBranch,
			"title", doc.ConfluenceTitle,
		)

		markdownText, err := s.source.GetFileContent(ctx, entry.GitHubRepo, doc.GitHubPath, entry.GitHubBranch)
		if err == nil {
			content := markdown.Convert(markdownText)
			err = s.SyncDocument(ctx, entry.ConfluenceSpace, doc.ConfluenceTitle, content, entry.ConfluenceParentID)
		}

		if err != nil {
			s.logger.Error("failed to sync document",
				"path", doc.GitHubPath,
				"error", err,
			)
			failed++
			continue
		}
		synced++
	}

	return synced, failed
}

// SyncDocument creates a page with the given title, or updates it when it
// already exists, looking the title up globally within the space.
func (s *Service) SyncDocument(ctx context.Context, space, title, content, parentID string) error {
	existing, err := s.content.GetPageByTitle(ctx, space, title)
	if err != nil {
		return err
	}

	if existing != nil {
		s.logger.Info("updating page",
			"title", title,
			"id", existing.ID,
			"version", existing.Version.Number,
		)
		_, err := s.content.UpdatePage(ctx, existing.ID, title, content, existing.Version.Number)
		return err
	}

	s.logger.Info("creating page", "title", title, "space", space)
	created, err := s.content.CreatePage(ctx, space, title, content, parentID)
	if err != nil {
		return err
	}
	s.logger.Info("created page", "title", title, "id", created.ID)
	return nil
}

// SyncTree mirrors all Markdown files under the entry's docs root into a
// hierarchy of pages beneath the configured root parent page. The root
// parent is verified before any mutation. Each file is processed
// independently; a per-file failure is logged and does not abort the rest.
func (s *Service) SyncTree(ctx context.Context, entry *config.SyncEntry) (synced, failed int, err error) {
	root, err := s.content.GetPageByID(ctx, entry.ConfluenceParentID)
	if err != nil {
		return 0, 0, err
	}
	if root == nil {
		return 0, 0, &confluence.ConfigError{
			Setting: "confluence_parent_id",
			Detail: fmt.Sprintf("root parent page %s not found in space %s at %s",
				entry.ConfluenceParentID, entry.ConfluenceSpace, s.content.BaseURL()),
		}
	}
	if root.Space.Key != "" && root.Space.Key != entry.ConfluenceSpace {
		s.logger.Warn("root parent page space differs from configured space",
			"parent_id", entry.ConfluenceParentID,
			"parent_space", root.Space.Key,
			"configured_space", entry.ConfluenceSpace,
		)
	}

	files, err := s.source.ListDocs(ctx, entry.GitHubRepo, entry.GitHubBranch, entry.DocsRoot)
	if err != nil {
		return 0, 0, err
	}

	// Folder pages resolved so far this run, keyed by directory path
	// relative to the docs root. The root directory maps to the configured
	// parent page.
	folders := map[string]string{"": entry.ConfluenceParentID}

	for _, file := range files {
		ok, fileErr := s.syncTreeFile(ctx, entry, file, folders)
		if fileErr != nil {
			s.logger.Error("failed to sync file",
				"path", file,
				"error", fileErr,
			)
			failed++
			continue
		}
		if ok {
			synced++
		}
	}

	return synced, failed, nil
}

// syncTreeFile mirrors a single file. A README updates its directory's own
// folder page; every other file becomes (or updates) a child page of that
// folder page. Returns false with a nil error when the file was
// deliberately skipped.
func (s *Service) syncTreeFile(ctx context.Context, entry *config.SyncEntry, file string, folders map[string]string) (bool, error) {
	rel := strings.TrimPrefix(file, entry.DocsRoot+"/")
	dir := path.Dir(rel)
	if dir == "." {
		dir = ""
	}
	title := DeriveTitle(path.Base(rel))

	folderID, err := s.resolveFolder(ctx, entry.ConfluenceSpace, dir, folders)
	if err != nil {
		return false, err
	}

	markdownText, err := s.source.GetFileContent(ctx, entry.GitHubRepo, file, entry.GitHubBranch)
	if err != nil {
		return false, err
	}
	content := markdown.Convert(markdownText)

	if title == "" {
		// README: the folder page itself is the target, title unchanged
		folderPage, err := s.content.GetPageByID(ctx, folderID)
		if err != nil {
			return false, err
		}
		if folderPage == nil {
			s.logger.Warn("folder page not found at update time, skipping README",
				"path", file,
				"folder_id", folderID,
			)
			return false, nil
		}

		s.logger.Info("updating folder page from README",
			"path", file,
			"id", folderPage.ID,
			"title", folderPage.Title,
		)
		_, err = s.content.UpdatePage(ctx, folderPage.ID, folderPage.Title, content, folderPage.Version.Number)
		return err == nil, err
	}

	existing, err := s.content.GetPageByTitleUnderParent(ctx, entry.ConfluenceSpace, title, folderID)
	if err != nil {
		return false, err
	}

	if existing != nil {
		s.logger.Info("updating page",
			"path", file,
			"title", title,
			"id", existing.ID,
			"version", existing.Version.Number,
		)
		_, err = s.content.UpdatePage(ctx, existing.ID, title, content, existing.Version.Number)
		return err == nil, err
	}

	s.logger.Info("creating page",
		"path", file,
		"title", title,
		"parent_id", folderID,
	)
	_, err = s.content.CreatePage(ctx, entry.ConfluenceSpace, title, content, folderID)
	return err == nil, err
}

// resolveFolder walks the directory components from the docs root, creating
// one folder page per directory as a child of its parent directory's page.
// Lookups happen before creates, so re-runs reuse existing pages.
func (s *Service) resolveFolder(ctx context.Context, space, dir string, folders map[string]string) (string, error) {
	if dir == "" {
		return folders[""], nil
	}

	parentID := folders[""]
	prefix := ""
	for _, component := range strings.Split(dir, "/") {
		if prefix == "" {
			prefix = component
		} else {
			prefix = prefix + "/" + component
		}

		if id, ok := folders[prefix]; ok {
			parentID = id
			continue
		}

		id, err := s.ensureFolderPage(ctx, space, component, parentID)
		if err != nil {
			return "", fmt.Errorf("resolving folder %q: %w", prefix, err)
		}
		folders[prefix] = id
		parentID = id
	}

	return parentID, nil
}

// ensureFolderPage finds a folder page by title under its parent, creating
// it when absent. Folder pages are created with a non-empty body because
// the content API rejects empty ones.
func (s *Service) ensureFolderPage(ctx context.Context, space, title, parentID string) (string, error) {
	existing, err := s.content.GetPageByTitleUnderParent(ctx, space, title, parentID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.ID, nil
	}

	s.logger.Info("creating folder page", "title", title, "parent_id", parentID)
	created, err := s.content.CreatePage(ctx, space, title, folderBody, parentID)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}
