/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mikeb26/chorus/internal/quota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const braveBody = `{"web":{"results":[
	{"title":"A <strong>one</strong>","url":"https://a.example","description":"first &amp; best"},
	{"title":"B","url":"https://b.example","description":"second"},
	{"title":"C","url":"https://c.example","description":"third"},
	{"title":"D","url":"https://d.example","description":"fourth"}
]}}`

func TestWebSearch_TopResultsAndHeaders(t *testing.T) {
	var gotToken, gotQuery, gotCount string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Subscription-Token")
		gotQuery = r.URL.Query().Get("q")
		gotCount = r.URL.Query().Get("count")
		w.Header().Set("X-RateLimit-Limit", "1, 1000")
		w.Header().Set("X-RateLimit-Remaining", "0, 988")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(braveBody))
	}))
	defer srv.Close()

	counter := quota.NewCounter(1000)
	tool := NewWebSearchTool(SearchConfig{Endpoint: srv.URL, APIKey: "k"}, counter)

	resp, err := tool.Invoke(context.Background(), &WebSearchReq{Query: "go streams"})
	require.NoError(t, err)

	assert.Equal(t, "k", gotToken)
	assert.Equal(t, "go streams", gotQuery)
	assert.Equal(t, "3", gotCount)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, SearchResult{Title: "A one", URL: "https://a.example",
		Snippet: "first & best"}, resp.Results[0])
	assert.Empty(t, resp.Message)
	assert.Equal(t, int64(12), counter.Snapshot().Used)
}

func TestWebSearch_QuotaExceededSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(braveBody))
	}))
	defer srv.Close()

	counter := quota.NewCounter(1000)
	counter.Observe(1000)
	tool := NewWebSearchTool(SearchConfig{Endpoint: srv.URL, APIKey: "k"}, counter)

	resp, err := tool.Invoke(context.Background(), &WebSearchReq{Query: "anything"})
	require.NoError(t, err)

	assert.Equal(t, int32(0), calls.Load())
	assert.Empty(t, resp.Results)
	assert.NotNil(t, resp.Results)
	assert.Equal(t, "Search quota exceeded (1000/1000 used this month); answer from existing knowledge.",
		resp.Message)
}

func TestWebSearch_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0, 0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	counter := quota.NewCounter(1000)
	tool := NewWebSearchTool(SearchConfig{Endpoint: srv.URL, APIKey: "k"}, counter)

	resp, err := tool.Invoke(context.Background(), &WebSearchReq{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, "Search failed: 429", resp.Message)
	assert.Equal(t, quota.StatusExceeded, counter.Snapshot().Status)

	unconfigured := NewWebSearchTool(SearchConfig{Endpoint: srv.URL}, nil)
	resp, err = unconfigured.Invoke(context.Background(), &WebSearchReq{Query: "q"})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "not configured")

	resp, err = tool.Invoke(context.Background(), &WebSearchReq{Query: " "})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "required")
}
