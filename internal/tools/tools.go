/* Copyright © 2025-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */

// Package tools implements the capabilities the dispatcher can call. Every
// tool reports failure inside its result; Invoke never returns an error to
// the agent loop.
package tools

import (
	"net/http"
	"time"

	"github.com/mikeb26/chorus/internal/types"
)

const (
	DefaultSearchTimeout = 15 * time.Second
	DefaultFetchTimeout  = 30 * time.Second
	DefaultRenderTimeout = 30 * time.Second
)

// userAgent is sent on outbound fetches; some sites reject Go's default.
const userAgent = "Mozilla/5.0 (compatible; chorus/1.0)"

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// Define returns the eino tool for each capability, in the order they are
// offered to the model.
func Define(tt ...types.Tool) []types.LlmTool {
	ret := make([]types.LlmTool, 0, len(tt))
	for _, t := range tt {
		ret = append(ret, t.Define())
	}
	return ret
}

