/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */

// Package quota tracks usage of a metered external capability against a
// fixed monthly budget.
package quota

import (
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const DefaultMonthlyLimit = 1000

// WarningRatio is the fraction of the budget after which the state reports
// StatusWarning.
const WarningRatio = 0.8

type Status string

const (
	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusExceeded Status = "exceeded"
)

// RateLimitState is a point-in-time view of a Counter.
type RateLimitState struct {
	Used      int64     `json:"used"`
	Remaining int64     `json:"remaining"`
	Limit     int64     `json:"limit"`
	ResetTime time.Time `json:"reset_time,omitempty"`
	Status    Status    `json:"status"`
}

// Counter is shared by every request in the process. used never decreases
// except through Reset; all updates are lock-free compare-and-swap loops.
type Counter struct {
	used  atomic.Int64
	limit atomic.Int64
	reset atomic.Int64 // unix seconds, 0 when unknown

	now func() time.Time
}

func NewCounter(monthlyLimit int64) *Counter {
	if monthlyLimit <= 0 {
		monthlyLimit = DefaultMonthlyLimit
	}
	c := &Counter{now: time.Now}
	c.limit.Store(monthlyLimit)
	return c
}

// Reserve claims one call against the budget. It returns false, without
// changing anything, once the budget is spent.
func (c *Counter) Reserve() bool {
	for {
		used := c.used.Load()
		if used >= c.limit.Load() {
			return false
		}
		if c.used.CompareAndSwap(used, used+1) {
			return true
		}
	}
}

// Observe records usage reported by the provider. The recorded value only
// moves forward: a stale or racing report that computes a lower usage than
// what is already recorded is ignored.
func (c *Counter) Observe(used int64) {
	for {
		cur := c.used.Load()
		if used <= cur {
			return
		}
		if c.used.CompareAndSwap(cur, used) {
			return
		}
	}
}

// SetLimit replaces the budget, e.g. with the value the provider reports.
func (c *Counter) SetLimit(limit int64) {
	if limit > 0 {
		c.limit.Store(limit)
	}
}

// SetResetTime records when the provider's window rolls over.
func (c *Counter) SetResetTime(t time.Time) {
	c.reset.Store(t.Unix())
}

// ObserveHeaders updates the counter from rate-limit response headers and
// reports whether any usable header was present. Each header may hold a
// comma separated list of windows (per-second, per-month); the last entry
// is the monthly window.
func (c *Counter) ObserveHeaders(h http.Header) bool {
	limit, okLimit := lastHeaderInt(h, "X-RateLimit-Limit")
	remaining, okRemaining := lastHeaderInt(h, "X-RateLimit-Remaining")
	if okLimit {
		c.SetLimit(limit)
	}
	if reset, ok := lastHeaderInt(h, "X-RateLimit-Reset"); ok {
		c.SetResetTime(c.now().Add(time.Duration(reset) * time.Second))
	}
	if !okRemaining {
		return false
	}
	if !okLimit {
		limit = c.limit.Load()
	}
	c.Observe(limit - remaining)
	return true
}

// Reset zeroes usage, typically when a new billing window begins.
func (c *Counter) Reset() {
	c.used.Store(0)
	c.reset.Store(0)
}

func (c *Counter) Snapshot() RateLimitState {
	used := c.used.Load()
	limit := c.limit.Load()
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	st := RateLimitState{
		Used:      used,
		Remaining: remaining,
		Limit:     limit,
		Status:    StatusOK,
	}
	if r := c.reset.Load(); r != 0 {
		st.ResetTime = time.Unix(r, 0)
	}
	switch {
	case used >= limit:
		st.Status = StatusExceeded
	case float64(used) >= float64(limit)*WarningRatio:
		st.Status = StatusWarning
	}
	return st
}

func lastHeaderInt(h http.Header, key string) (int64, bool) {
	v := strings.TrimSpace(h.Get(key))
	if v == "" {
		return 0, false
	}
	parts := strings.Split(v, ",")
	n, err := strconv.ParseInt(strings.TrimSpace(parts[len(parts)-1]), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
