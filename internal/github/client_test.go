package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/confsync/internal/config"
	"github.com/tildaslashalef/confsync/internal/loggy"
)

// setupTestServer creates a test server and a client pointed at it. The
// enterprise base URL places the API under the /api/v3/ prefix.
func setupTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.GitHubConfig{
		Token:  "test-github-token",
		APIURL: server.URL,
	}, loggy.NewNoop())
}

func TestSplitRepo(t *testing.T) {
	tests := []struct {
		name      string
		repo      string
		wantOwner string
		wantName  string
		wantErr   bool
	}{
		{name: "valid", repo: "acme/widgets", wantOwner: "acme", wantName: "widgets"},
		{name: "missing name", repo: "acme", wantErr: true},
		{name: "empty owner", repo: "/widgets", wantErr: true},
		{name: "empty", repo: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, name, err := SplitRepo(tt.repo)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, owner)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestGetFileContent(t *testing.T) {
	t.Run("decodes base64 content", func(t *testing.T) {
		content := "# Install Guide\n\nSteps here.\n"
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v3/repos/acme/widgets/contents/docs/install.md", r.URL.Path)
			assert.Equal(t, "main", r.URL.Query().Get("ref"))

			w.Header().Set("Content-Type", "application/json")
			require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
				"type":     "file",
				"name":     "install.md",
				"path":     "docs/install.md",
				"encoding": "base64",
				"content":  base64.StdEncoding.EncodeToString([]byte(content)),
			}))
		})

		got, err := client.GetFileContent(context.Background(), "acme/widgets", "docs/install.md", "main")
		require.NoError(t, err)
		assert.Equal(t, content, got)
	})

	t.Run("missing file", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message": "Not Found"}`)
		})

		_, err := client.GetFileContent(context.Background(), "acme/widgets", "docs/nope.md", "main")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "docs/nope.md")
	})

	t.Run("directory path is rejected", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `[{"type": "file", "name": "a.md", "path": "docs/a.md"}]`)
		})

		_, err := client.GetFileContent(context.Background(), "acme/widgets", "docs", "main")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a file")
	})

	t.Run("invalid repo reference", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})

		_, err := client.GetFileContent(context.Background(), "justaname", "README.md", "main")
		assert.Error(t, err)
	})
}

func TestListDocs(t *testing.T) {
	treeHandler := func(t *testing.T) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v3/repos/acme/widgets/git/trees/main", r.URL.Path)
			assert.Equal(t, "1", r.URL.Query().Get("recursive"))

			w.Header().Set("Content-Type", "application/json")
			require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
				"sha": "abc123",
				"tree": []map[string]interface{}{
					{"path": "README.md", "type": "blob"},
					{"path": "Docs", "type": "tree"},
					{"path": "Docs/README.md", "type": "blob"},
					{"path": "Docs/Install.md", "type": "blob"},
					{"path": "Docs/Notes.MD", "type": "blob"},
					{"path": "Docs/diagram.png", "type": "blob"},
					{"path": "Docs/HowTo", "type": "tree"},
					{"path": "Docs/HowTo/Test.md", "type": "blob"},
					{"path": "Documentation/Other.md", "type": "blob"},
					{"path": "src/main.go", "type": "blob"},
				},
			}))
		}
	}

	t.Run("filters to markdown under root", func(t *testing.T) {
		client := setupTestServer(t, treeHandler(t))

		docs, err := client.ListDocs(context.Background(), "acme/widgets", "main", "Docs")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"Docs/HowTo/Test.md",
			"Docs/Install.md",
			"Docs/Notes.MD",
			"Docs/README.md",
		}, docs)
	})

	t.Run("empty root lists whole repo", func(t *testing.T) {
		client := setupTestServer(t, treeHandler(t))

		docs, err := client.ListDocs(context.Background(), "acme/widgets", "main", "")
		require.NoError(t, err)
		assert.Contains(t, docs, "README.md")
		assert.Contains(t, docs, "Documentation/Other.md")
		assert.NotContains(t, docs, "src/main.go")
	})
}

func TestUnderRoot(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		root     string
		expected bool
	}{
		{name: "empty root matches all", path: "anything.md", root: "", expected: true},
		{name: "direct child", path: "Docs/a.md", root: "Docs", expected: true},
		{name: "nested child", path: "Docs/Sub/a.md", root: "Docs", expected: true},
		{name: "sibling prefix does not match", path: "Documentation/a.md", root: "Docs", expected: false},
		{name: "outside root", path: "src/a.md", root: "Docs", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, underRoot(tt.path, tt.root))
		})
	}
}
