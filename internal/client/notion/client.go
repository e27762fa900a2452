package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const defaultHost = "https://api.notion.com"

// Client talks to the Notion REST API for one target database.
type Client struct {
	host       string
	token      string
	version    string
	databaseID string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, token, databaseID, version string) *Client {
	if version == "" {
		version = "2022-06-28"
	}
	return &Client{
		host:       defaultHost,
		token:      token,
		version:    version,
		databaseID: databaseID,
		httpClient: httpClient,
	}
}

// SetHost overrides the API host, for tests.
func (c *Client) SetHost(host string) {
	c.host = strings.TrimRight(host, "/")
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.host+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

type Page struct {
	ID string `json:"id"`
}

// CreatePage creates one page in the target database and returns its id.
func (c *Client) CreatePage(ctx context.Context, properties Properties) (Page, error) {
	payload := map[string]any{
		"parent":     map[string]any{"database_id": c.databaseID},
		"properties": properties,
	}
	raw, err := c.doRequest(ctx, http.MethodPost, "/v1/pages", payload)
	if err != nil {
		return Page{}, err
	}
	var page Page
	if err := json.Unmarshal(raw, &page); err != nil {
		return Page{}, fmt.Errorf("failed to decode page response: %w", err)
	}
	return page, nil
}

// ArchivePage soft-deletes a page.
func (c *Client) ArchivePage(ctx context.Context, pageID string) error {
	payload := map[string]any{"archived": true}
	_, err := c.doRequest(ctx, http.MethodPatch, "/v1/pages/"+url.PathEscape(pageID), payload)
	return err
}

// TestConnection retrieves the target database and returns its title.
func (c *Client) TestConnection(ctx context.Context) (string, error) {
	raw, err := c.doRequest(ctx, http.MethodGet, "/v1/databases/"+url.PathEscape(c.databaseID), nil)
	if err != nil {
		return "", err
	}
	var out struct {
		Title []struct {
			PlainText string `json:"plain_text"`
		} `json:"title"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("failed to decode database response: %w", err)
	}
	if len(out.Title) == 0 {
		return "Untitled", nil
	}
	return out.Title[0].PlainText, nil
}
