// Package confluence is a thin, stateless client for the Confluence REST
// API: page lookup by title, by title under a parent, by id, plus create
// and versioned update.
package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tildaslashalef/confsync/internal/config"
	"github.com/tildaslashalef/confsync/internal/loggy"
)

// errorBodyLimit caps how much of a response body is echoed into error
// messages and logs.
const errorBodyLimit = 500

// Client handles HTTP communication with the Confluence REST API
type Client struct {
	baseURL    string
	username   string
	apiToken   string
	httpClient *http.Client
	logger     *loggy.Logger
}

// NewClient creates a new Confluence API client
func NewClient(cfg config.ConfluenceConfig, logger *loggy.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		apiToken: cfg.APIToken,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		logger: logger,
	}
}

// BaseURL returns the configured site address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError represents an error response from the API
type APIError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Reason     string `json:"reason"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("confluence API error %d: %s", e.StatusCode, e.Message)
}

// ConfigError marks a failure caused by the sync configuration rather than
// the remote service: an unknown space key, an unreachable parent page.
// These are fatal and raised before any mutation.
type ConfigError struct {
	Setting string
	Detail  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error (%s): %s", e.Setting, e.Detail)
}

// GetPageByTitle looks up a page by exact title within a space, expanding
// its version. Returns (nil, nil) when no page with that title exists. An
// unknown space key is a ConfigError, distinct from "page not found".
func (c *Client) GetPageByTitle(ctx context.Context, space, title string) (*Page, error) {
	query := url.Values{
		"spaceKey": {space},
		"title":    {title},
		"expand":   {"version,space"},
	}

	var res searchResponse
	err := c.doRequest(ctx, http.MethodGet, "/rest/api/content", query, nil, &res)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		if strings.Contains(apiErr.Message, "No space with key") {
			return nil, &ConfigError{
				Setting: "confluence_space",
				Detail:  fmt.Sprintf("space %q rejected by %s: %s", space, c.baseURL, apiErr.Message),
			}
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up page %q in space %q: %w", title, space, err)
	}

	if len(res.Results) == 0 {
		return nil, nil
	}
	return &res.Results[0], nil
}

// GetPageByTitleUnderParent looks up a page by title among the direct
// children of parentID, disambiguating same-titled pages across the
// hierarchy. Returns (nil, nil) when absent.
func (c *Client) GetPageByTitleUnderParent(ctx context.Context, space, title, parentID string) (*Page, error) {
	cql := fmt.Sprintf(`title = "%s" and parent = %s and space = "%s" and type = page`,
		title, parentID, space)
	query := url.Values{
		"cql":    {cql},
		"expand": {"version,space"},
	}

	var res searchResponse
	err := c.doRequest(ctx, http.MethodGet, "/rest/api/content/search", query, nil, &res)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up page %q under parent %s: %w", title, parentID, err)
	}

	if len(res.Results) == 0 {
		return nil, nil
	}
	return &res.Results[0], nil
}

// GetPageByID fetches a page by id, expanding version and space. Returns
// (nil, nil) when the page does not exist.
func (c *Client) GetPageByID(ctx context.Context, pageID string) (*Page, error) {
	query := url.Values{"expand": {"version,space"}}

	var page Page
	err := c.doRequest(ctx, http.MethodGet, "/rest/api/content/"+pageID, query, nil, &page)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching page %s: %w", pageID, err)
	}

	return &page, nil
}

// CreatePage creates a new page in the given space. The parent association
// is supplied only when parentID is non-empty.
func (c *Client) CreatePage(ctx context.Context, space, title, content, parentID string) (*Page, error) {
	body := createRequest{
		Type:  "page",
		Title: title,
		Space: spaceRef{Key: space},
		Body:  storageOf(content),
	}
	if parentID != "" {
		body.Ancestors = []ancestorRef{{ID: parentID}}
	}

	var page Page
	if err := c.doRequest(ctx, http.MethodPost, "/rest/api/content", nil, body, &page); err != nil {
		return nil, fmt.Errorf("creating page %q in space %q: %w", title, space, err)
	}
	return &page, nil
}

// UpdatePage updates an existing page, submitting currentVersion+1.
// Concurrent external edits are not detected; a version conflict surfaces
// as a request failure.
func (c *Client) UpdatePage(ctx context.Context, pageID, title, content string, currentVersion int) (*Page, error) {
	body := updateRequest{
		Type:    "page",
		Title:   title,
		Version: Version{Number: currentVersion + 1},
		Body:    storageOf(content),
	}

	var page Page
	if err := c.doRequest(ctx, http.MethodPut, "/rest/api/content/"+pageID, nil, body, &page); err != nil {
		return nil, fmt.Errorf("updating page %s: %w", pageID, err)
	}
	return &page, nil
}

// doRequest is a helper to make a single request to the Confluence API and
// interpret the response as structured data. A non-JSON response (an SSO
// login page, for example) fails with a descriptive error that names the
// method, address, status, and content type — and never the credential.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, reqBody, respBody interface{}) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if reqBody != nil {
		bodyBytes, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		return fmt.Errorf("confluence %s %s returned non-JSON response (status %d, content type %s): %s",
			method, reqURL, resp.StatusCode, contentType, bodySnippet(data))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("confluence request failed",
			"method", method,
			"url", reqURL,
			"status", resp.StatusCode,
			"body", bodySnippet(data),
		)

		var errRes errorResponse
		if jsonErr := json.Unmarshal(data, &errRes); jsonErr == nil && errRes.Message != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errRes.Message, Reason: errRes.Reason}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: bodySnippet(data)}
	}

	if respBody != nil {
		if err := json.Unmarshal(data, respBody); err != nil {
			return fmt.Errorf("confluence %s %s returned invalid JSON (status %d): %w",
				method, reqURL, resp.StatusCode, err)
		}
	}

	return nil
}

func bodySnippet(data []byte) string {
	if len(data) > errorBodyLimit {
		return string(data[:errorBodyLimit])
	}
	return string(data)
}
