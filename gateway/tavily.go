package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	campaigner "github.com/spetersoncode/campaigner"
)

const defaultTavilyURL = "https://api.tavily.com/search"

// TavilyClient implements Searcher against the Tavily search API.
type TavilyClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// TavilyOption configures a TavilyClient.
type TavilyOption func(*TavilyClient)

// WithTavilyHTTPClient overrides the HTTP client used for requests.
func WithTavilyHTTPClient(hc *http.Client) TavilyOption {
	return func(c *TavilyClient) { c.httpClient = hc }
}

// WithTavilyBaseURL overrides the API endpoint. Used in tests.
func WithTavilyBaseURL(url string) TavilyOption {
	return func(c *TavilyClient) { c.baseURL = url }
}

// NewTavilyClient creates a search client with the given API key.
func NewTavilyClient(apiKey string, opts ...TavilyOption) *TavilyClient {
	c := &TavilyClient{
		apiKey:     apiKey,
		baseURL:    defaultTavilyURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tavilyRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search runs one query and returns up to maxResults hits.
func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:      c.apiKey,
		Query:       query,
		SearchDepth: "advanced",
		MaxResults:  maxResults,
	})
	if err != nil {
		return nil, campaigner.NewPermanentError("tavily: encoding request", 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, campaigner.NewPermanentError("tavily: building request", 0, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, campaigner.NewTransientError("tavily: request failed", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, categorizeHTTPStatus("tavily", resp.StatusCode)
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return nil, campaigner.NewTransientError("tavily: decoding response", 0, err)
	}

	results := make([]SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Content,
		})
	}
	return results, nil
}

// categorizeHTTPStatus maps an HTTP status to the shared error taxonomy.
// 408, 429 and 5xx are worth retrying; everything else is not.
func categorizeHTTPStatus(service string, status int) error {
	msg := fmt.Sprintf("%s: unexpected status %d", service, status)
	if status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500 {
		return campaigner.NewTransientError(msg, status, nil)
	}
	return campaigner.NewPermanentError(msg, status, nil)
}

var _ Searcher = (*TavilyClient)(nil)
