/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/mikeb26/chorus/internal/quota"
	"github.com/mikeb26/chorus/internal/types"
	"github.com/rs/zerolog/log"
)

const (
	DefaultSearchEndpoint   = "https://api.search.brave.com/res/v1/web/search"
	DefaultSearchMaxResults = 3
)

type SearchConfig struct {
	Endpoint   string
	APIKey     string
	MaxResults int
	Timeout    time.Duration
}

type WebSearchTool struct {
	cfg     SearchConfig
	counter *quota.Counter
	client  *http.Client
}

type WebSearchReq struct {
	Query string `json:"query" jsonschema:"description=The search query"`
}

type SearchResult struct {
	Title   string `json:"title" jsonschema:"description=The page title"`
	URL     string `json:"url" jsonschema:"description=The page URL"`
	Snippet string `json:"snippet" jsonschema:"description=A short excerpt of the page"`
}

type WebSearchResp struct {
	Results []SearchResult `json:"results" jsonschema:"description=The top search results"`
	Message string         `json:"message,omitempty" jsonschema:"description=Why no results were returned"`
}

// braveResponse is the subset of the search API response we read.
type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func (t WebSearchTool) GetOp() types.ToolCallOp {
	return types.WebSearch
}

// NewWebSearchTool builds the search tool. counter is shared by every
// request in the process.
func NewWebSearchTool(cfg SearchConfig, counter *quota.Counter) *WebSearchTool {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultSearchEndpoint
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultSearchMaxResults
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSearchTimeout
	}
	if counter == nil {
		counter = quota.NewCounter(quota.DefaultMonthlyLimit)
	}

	return &WebSearchTool{
		cfg:     cfg,
		counter: counter,
		client:  newHTTPClient(cfg.Timeout),
	}
}

func (t WebSearchTool) Define() types.LlmTool {
	ret, err := utils.InferTool(string(t.GetOp()),
		"Search the web for current information. Returns the top results with title, url and snippet.",
		t.Invoke)
	if err != nil {
		panic(err)
	}

	return ret
}

func (t WebSearchTool) Invoke(ctx context.Context,
	req *WebSearchReq) (*WebSearchResp, error) {

	ret := &WebSearchResp{Results: []SearchResult{}}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		ret.Message = "A search query is required."
		return ret, nil
	}
	if t.cfg.APIKey == "" {
		ret.Message = "Web search is not configured; answer from existing knowledge."
		return ret, nil
	}
	if !t.counter.Reserve() {
		st := t.counter.Snapshot()
		ret.Message = fmt.Sprintf("Search quota exceeded (%v/%v used this month); answer from existing knowledge.",
			st.Used, st.Limit)
		return ret, nil
	}

	results, err := t.search(ctx, query)
	if err != nil {
		log.Warn().Err(err).Str("tool", string(t.GetOp())).Str("query", query).
			Msg("search failed")
		ret.Message = err.Error()
		return ret, nil
	}
	ret.Results = results
	if len(results) == 0 {
		ret.Message = fmt.Sprintf("No results found for: %v", query)
	}

	return ret, nil
}

func (t WebSearchTool) search(ctx context.Context,
	query string) ([]SearchResult, error) {

	u, err := url.Parse(t.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("Invalid search endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("count", strconv.Itoa(t.cfg.MaxResults))
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Subscription-Token", t.cfg.APIKey)

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("Search request failed: %w", err)
	}
	defer httpResp.Body.Close()

	// usage headers are present on rejections too
	t.counter.ObserveHeaders(httpResp.Header)

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, fmt.Errorf("Search failed: %v", httpResp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("Failed to read search response: %w", err)
	}
	var parsed braveResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("Failed to parse search response: %w", err)
	}

	results := make([]SearchResult, 0, t.cfg.MaxResults)
	for _, r := range parsed.Web.Results {
		if len(results) >= t.cfg.MaxResults {
			break
		}
		results = append(results, SearchResult{
			Title:   stripTags(r.Title),
			URL:     r.URL,
			Snippet: stripTags(r.Description),
		})
	}

	return results, nil
}
