/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mikeb26/chorus/internal/events"
	"github.com/mikeb26/chorus/internal/quota"
	"github.com/mikeb26/chorus/internal/types"
)

// Client talks to a chorus server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the server at baseURL. Chat responses
// stream for as long as the turn runs, so the HTTP client has no overall
// timeout; cancel the context instead.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// Chat posts one turn and feeds the streamed events to sink as they
// arrive. It returns once the server ends the stream.
func (c *Client) Chat(ctx context.Context, req types.ChatRequest,
	sink events.Sink) error {

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	return Decode(ctx, resp.Body, sink)
}

func (c *Client) Quota(ctx context.Context) (quota.RateLimitState, error) {
	var st quota.RateLimitState
	err := c.doJSON(ctx, http.MethodGet, "/api/quota", &st)
	return st, err
}

func (c *Client) ResetQuota(ctx context.Context) (quota.RateLimitState, error) {
	var st quota.RateLimitState
	err := c.doJSON(ctx, http.MethodPost, "/api/quota/reset", &st)
	return st, err
}

// ListChats returns the stored conversations, newest first.
func (c *Client) ListChats(ctx context.Context) ([]*types.ChatHistory, error) {
	var ret []*types.ChatHistory
	err := c.doJSON(ctx, http.MethodGet, "/api/chats", &ret)
	return ret, err
}

func (c *Client) GetChat(ctx context.Context,
	id string) (*types.ChatHistory, error) {

	var ret types.ChatHistory
	err := c.doJSON(ctx, http.MethodGet, "/api/chats/"+url.PathEscape(id), &ret)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

func (c *Client) DeleteChat(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/chats/"+url.PathEscape(id),
		nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string,
	out any) error {

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%v %v failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("server returned %v: %v", resp.StatusCode,
		strings.TrimSpace(string(msg)))
}
