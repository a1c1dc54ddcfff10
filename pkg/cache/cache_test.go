package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache() (*Cache, *fakeClock) {
	clk := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return New(DefaultTTL, WithClock(clk.Now)), clk
}

func TestGetMissing(t *testing.T) {
	c, _ := newTestCache()

	v, ok := c.Get("audio_dQw4w9WgXcQ_bestaudio")
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestSetThenGetWithinWindow(t *testing.T) {
	c, clk := newTestCache()

	c.Set("audio_dQw4w9WgXcQ_bestaudio", "https://cdn.example/a")
	clk.Advance(29 * time.Minute)

	v, ok := c.Get("audio_dQw4w9WgXcQ_bestaudio")
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example/a", v)
}

func TestEntryExpiresAfterTTL(t *testing.T) {
	c, clk := newTestCache()

	c.Set("k", "v")
	clk.Advance(DefaultTTL)
	_, ok := c.Get("k")
	assert.True(t, ok, "an entry exactly TTL old is still fresh")

	clk.Advance(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len(), "stale entries are not swept, only hidden")
}

func TestSetResetsInsertionTime(t *testing.T) {
	c, clk := newTestCache()

	c.Set("k", "old")
	clk.Advance(25 * time.Minute)
	c.Set("k", "new")
	clk.Advance(25 * time.Minute)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestStaleEntryIsOverwritten(t *testing.T) {
	c, clk := newTestCache()

	c.Set("k", "old")
	clk.Advance(time.Hour)
	c.Set("k", "new")

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestKeysAreIndependent(t *testing.T) {
	c, _ := newTestCache()

	c.Set("audio_X_bestaudio", "best")

	_, ok := c.Get("audio_X_worstaudio")
	assert.False(t, ok)
}

func TestClearAndDelete(t *testing.T) {
	c, _ := newTestCache()
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestNonPositiveTTLFallsBackToDefault(t *testing.T) {
	assert.Equal(t, DefaultTTL, New(0).TTL())
	assert.Equal(t, time.Minute, New(time.Minute).TTL())
}

func TestConcurrentAccess(t *testing.T) {
	c, _ := newTestCache()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%4)
			for j := 0; j < 100; j++ {
				c.Set(key, j)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, c.Len())
}
