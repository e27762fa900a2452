package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client talks to the Shopify Admin GraphQL API.
type Client struct {
	storeURL    string
	accessToken string
	apiVersion  string
	httpClient  *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify API error (%d): %s", e.Status, e.Body)
}

// GraphQLError is a non-transport failure reported inside a 200 response.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "shopify GraphQL errors: " + strings.Join(e.Messages, "; ")
}

func NewClient(httpClient *http.Client, storeURL, accessToken, apiVersion string) *Client {
	if apiVersion == "" {
		apiVersion = "2023-10"
	}
	storeURL = strings.TrimRight(strings.TrimPrefix(strings.TrimPrefix(storeURL, "https://"), "http://"), "/")
	return &Client{
		storeURL:    storeURL,
		accessToken: accessToken,
		apiVersion:  apiVersion,
		httpClient:  httpClient,
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

func (c *Client) execute(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("https://%s/admin/api/%s/graphql.json", c.storeURL, c.apiVersion)
	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var decoded graphqlResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(decoded.Errors) > 0 {
		gqlErr := &GraphQLError{}
		for _, e := range decoded.Errors {
			gqlErr.Messages = append(gqlErr.Messages, e.Message)
		}
		return nil, gqlErr
	}
	return decoded.Data, nil
}

// TestConnection runs a minimal shop query and returns the store name.
func (c *Client) TestConnection(ctx context.Context) (string, error) {
	data, err := c.execute(ctx, `query { shop { name email } }`, nil)
	if err != nil {
		return "", err
	}
	var out struct {
		Shop struct {
			Name string `json:"name"`
		} `json:"shop"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("failed to decode shop response: %w", err)
	}
	return out.Shop.Name, nil
}
