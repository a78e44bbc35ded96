/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package quota

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter_ReserveStopsAtLimit(t *testing.T) {
	c := NewCounter(3)
	assert.True(t, c.Reserve())
	assert.True(t, c.Reserve())
	assert.True(t, c.Reserve())
	assert.False(t, c.Reserve())

	st := c.Snapshot()
	assert.Equal(t, int64(3), st.Used)
	assert.Equal(t, int64(0), st.Remaining)
	assert.Equal(t, StatusExceeded, st.Status)
}

func TestCounter_ExhaustedMonthlyBudget(t *testing.T) {
	c := NewCounter(0)
	c.Observe(DefaultMonthlyLimit)
	assert.False(t, c.Reserve())
	assert.Equal(t, int64(DefaultMonthlyLimit), c.Snapshot().Used)
}

func TestCounter_ConcurrentReserve(t *testing.T) {
	c := NewCounter(50)
	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Reserve() {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, granted)
	assert.Equal(t, int64(50), c.Snapshot().Used)
}

func TestCounter_ObserveKeepsMax(t *testing.T) {
	c := NewCounter(1000)

	var wg sync.WaitGroup
	for _, used := range []int64{15, 12} {
		wg.Add(1)
		go func(u int64) {
			defer wg.Done()
			c.Observe(u)
		}(used)
	}
	wg.Wait()
	assert.Equal(t, int64(15), c.Snapshot().Used)

	c.Observe(12)
	assert.Equal(t, int64(15), c.Snapshot().Used)
}

func TestCounter_ObserveHeaders(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c := NewCounter(1000)
	c.now = func() time.Time { return now }

	h := http.Header{}
	h.Set("X-RateLimit-Limit", "1, 2000")
	h.Set("X-RateLimit-Remaining", "0, 1985")
	h.Set("X-RateLimit-Reset", "1, 3600")
	require.True(t, c.ObserveHeaders(h))

	st := c.Snapshot()
	assert.Equal(t, int64(2000), st.Limit)
	assert.Equal(t, int64(15), st.Used)
	assert.Equal(t, int64(1985), st.Remaining)
	assert.Equal(t, now.Add(time.Hour).Unix(), st.ResetTime.Unix())
	assert.Equal(t, StatusOK, st.Status)

	assert.False(t, c.ObserveHeaders(http.Header{}))
	h.Set("X-RateLimit-Remaining", "garbage")
	assert.False(t, c.ObserveHeaders(h))
}

func TestCounter_WarningAndReset(t *testing.T) {
	c := NewCounter(10)
	c.Observe(8)
	assert.Equal(t, StatusWarning, c.Snapshot().Status)

	c.Reset()
	st := c.Snapshot()
	assert.Equal(t, int64(0), st.Used)
	assert.Equal(t, StatusOK, st.Status)
	assert.True(t, st.ResetTime.IsZero())
}
