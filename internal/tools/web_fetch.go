/* Copyright © 2025-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/chromedp/chromedp"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/mikeb26/chorus/internal/types"
	"github.com/rs/zerolog/log"
)

const DefaultFetchMaxChars = 8000

type FetchConfig struct {
	MaxChars int
	// RenderJS enables a headless browser pass for pages whose raw HTML is
	// a script shell.
	RenderJS      bool
	Timeout       time.Duration
	RenderTimeout time.Duration
}

// renderFunc returns the visible text of a page, optionally restricted to
// the elements matched by a CSS selector.
type renderFunc func(ctx context.Context, pageURL, selector string,
	timeout time.Duration) (string, error)

type WebFetchTool struct {
	cfg    FetchConfig
	client *http.Client
	render renderFunc
}

type WebFetchReq struct {
	URL      string `json:"url" jsonschema:"description=The http or https URL of the page to fetch"`
	Selector string `json:"selector,omitempty" jsonschema:"description=Optional CSS selector such as 'article' or '#main > p.note' restricting which part of the page is returned"`
}

type WebFetchResp struct {
	Content string `json:"content,omitempty" jsonschema:"description=The readable text of the page"`
	Error   string `json:"error,omitempty" jsonschema:"description=The error status of the fetch"`
}

func (t WebFetchTool) GetOp() types.ToolCallOp {
	return types.WebFetch
}

func NewWebFetchTool(cfg FetchConfig) *WebFetchTool {
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultFetchMaxChars
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultFetchTimeout
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = DefaultRenderTimeout
	}

	return &WebFetchTool{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout),
		render: renderVisibleText,
	}
}

func (t WebFetchTool) Define() types.LlmTool {
	ret, err := utils.InferTool(string(t.GetOp()),
		"Fetch a web page and return its readable text content (never raw HTML).",
		t.Invoke)
	if err != nil {
		panic(err)
	}

	return ret
}

func (t WebFetchTool) Invoke(ctx context.Context,
	req *WebFetchReq) (*WebFetchResp, error) {

	ret := &WebFetchResp{}

	u, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		ret.Error = fmt.Sprintf("Invalid URL: %v", req.URL)
		return ret, nil
	}
	pageURL := u.String()

	sel, err := parseSelector(req.Selector)
	if err != nil {
		ret.Error = err.Error()
		return ret, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		ret.Error = err.Error()
		return ret, nil
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Accept",
		"text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		ret.Error = fmt.Sprintf("Failed to fetch %v: %v", pageURL, err)
		return ret, nil
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		ret.Error = fmt.Sprintf("Failed to fetch %v: %v", pageURL,
			httpResp.StatusCode)
		return ret, nil
	}

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 2<<20))
	if err != nil {
		ret.Error = fmt.Sprintf("Failed to read response body: %v", err)
		return ret, nil
	}

	content, err := t.extract(ctx, pageURL, req.Selector, sel, httpResp.Header,
		string(body))
	if err != nil {
		ret.Error = err.Error()
		return ret, nil
	}
	ret.Content = truncateChars(content, t.cfg.MaxChars)

	return ret, nil
}

func (t WebFetchTool) extract(ctx context.Context, pageURL, rawSel string,
	sel cascadia.Matcher, header http.Header, body string) (string, error) {

	ct := strings.ToLower(header.Get("Content-Type"))
	if strings.Contains(ct, "text/plain") || strings.Contains(ct, "text/markdown") {
		return body, nil
	}

	text, err := htmlToText(body, sel)
	if err != nil {
		return "", fmt.Errorf("Failed to parse page: %w", err)
	}

	if t.cfg.RenderJS && t.render != nil &&
		(strings.TrimSpace(text) == "" || shouldAutoRender(header, body)) {

		rendered, rerr := t.render(ctx, pageURL, rawSel, t.cfg.RenderTimeout)
		if rerr != nil {
			// best-effort; keep whatever static extraction produced
			log.Debug().Err(rerr).Str("url", pageURL).Msg("render failed")
		} else if strings.TrimSpace(rendered) != "" {
			text = cleanText(rendered)
		}
	}

	if strings.TrimSpace(text) == "" && sel != nil {
		return "", fmt.Errorf("No content matched selector %q", rawSel)
	}

	return text, nil
}

func shouldAutoRender(header http.Header, body string) bool {
	if body == "" {
		return false
	}

	ct := strings.ToLower(strings.TrimSpace(header.Get("Content-Type")))
	if strings.Contains(ct, "javascript") || strings.Contains(ct, "ecmascript") {
		return true
	}

	// large HTML pages with lots of scripts are likely SPA shells
	if strings.Contains(ct, "text/html") || strings.Contains(body, "<html") {
		lower := strings.ToLower(body)
		if len(body) > 200_000 && strings.Count(lower, "<script") >= 5 {
			return true
		}
		if strings.Contains(lower, `<div id="root"></div>`) ||
			strings.Contains(lower, `<div id="app"></div>`) {
			return true
		}
	}

	return false
}

func renderVisibleText(ctx context.Context, pageURL, sel string,
	timeout time.Duration) (string, error) {

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chromeCtx, cancelChrome := chromedp.NewContext(ctx)
	defer cancelChrome()

	query := "body"
	if strings.TrimSpace(sel) != "" {
		query = sel
	}

	var pageText string
	err := chromedp.Run(chromeCtx,
		chromedp.EmulateViewport(1920, 1080),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(
			`Array.from(document.querySelectorAll(%q)).map(e => e.innerText).join("\n\n")`,
			query), &pageText),
	)
	if err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}

	return pageText, nil
}
