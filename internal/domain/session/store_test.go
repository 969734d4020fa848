package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devlens/devlens/internal/shared/types"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(clock *fakeClock) *Store {
	cfg := DefaultConfig()
	cfg.Now = clock.Now
	return NewStore(cfg)
}

func TestGetOrCreateIdempotent(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)

	first := store.GetOrCreate("s1")
	startTime := first.StartTime

	clock.Advance(5 * time.Second)
	second := store.GetOrCreate("s1")

	assert.Same(t, first, second, "same id must return the same session")
	assert.Equal(t, startTime, second.StartTime, "startTime must not reset")
	assert.Greater(t, second.LastActivity, startTime, "lastActivity must advance")
}

func TestLastActivityMonotonic(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)

	store.GetOrCreate("s1")
	clock.Advance(10 * time.Second)
	sess := store.GetOrCreate("s1")
	activity := sess.LastActivity

	// Clock skew backwards must not decrease lastActivity
	clock.Advance(-30 * time.Second)
	sess = store.GetOrCreate("s1")
	assert.Equal(t, activity, sess.LastActivity)
}

func TestLogRingBuffer(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)

	for i := 0; i < 1200; i++ {
		store.AppendLog("s1", types.LogEntry{
			Level:   types.LevelLog,
			Message: fmt.Sprintf("msg-%d", i),
		})
	}

	logs, err := store.Logs("s1", "", 0)
	require.NoError(t, err)
	require.Len(t, logs, 1000, "ring must retain exactly the capacity")
	assert.Equal(t, "msg-200", logs[0].Message, "oldest entries evicted first")
	assert.Equal(t, "msg-1199", logs[999].Message, "insertion order preserved")
}

func TestLogRingUnderCapacity(t *testing.T) {
	store := newTestStore(newFakeClock())

	for i := 0; i < 10; i++ {
		store.AppendLog("s1", types.LogEntry{Level: types.LevelLog, Message: fmt.Sprintf("m%d", i)})
	}

	logs, err := store.Logs("s1", "", 0)
	require.NoError(t, err)
	require.Len(t, logs, 10)
	for i, entry := range logs {
		assert.Equal(t, fmt.Sprintf("m%d", i), entry.Message)
	}
}

func TestStateRingBuffer(t *testing.T) {
	store := newTestStore(newFakeClock())

	for i := 0; i < 80; i++ {
		store.AppendState("s1", types.StateSnapshot{URL: fmt.Sprintf("https://app.test/p%d", i)})
	}

	summary, err := store.Summary("s1")
	require.NoError(t, err)
	assert.Equal(t, 50, summary.StatesCount)

	latest, ok := store.LatestState("s1")
	require.True(t, ok)
	assert.Equal(t, "https://app.test/p79", latest.URL)
}

func TestErrorsCountTracksEvictions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLogs = 5
	cfg.Now = newFakeClock().Now
	store := NewStore(cfg)

	// Two errors, then enough plain logs to evict both
	store.AppendLog("s1", types.LogEntry{Level: types.LevelError, Message: "boom"})
	store.AppendLog("s1", types.LogEntry{Level: types.LevelError, Message: "boom again"})
	for i := 0; i < 5; i++ {
		store.AppendLog("s1", types.LogEntry{Level: types.LevelLog, Message: "noise"})
	}

	summary, err := store.Summary("s1")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.ErrorsCount, "evicted errors must leave the count")
	assert.Equal(t, 5, summary.LogsCount)
}

func TestLogsLevelFilterAndLimit(t *testing.T) {
	store := newTestStore(newFakeClock())

	for i := 0; i < 6; i++ {
		store.AppendLog("s1", types.LogEntry{Level: types.LevelLog, Message: fmt.Sprintf("log-%d", i)})
		store.AppendLog("s1", types.LogEntry{Level: types.LevelError, Message: fmt.Sprintf("err-%d", i)})
	}

	errors, err := store.Logs("s1", types.LevelError, 0)
	require.NoError(t, err)
	require.Len(t, errors, 6)

	limited, err := store.Logs("s1", types.LevelError, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "err-4", limited[0].Message, "limit keeps the newest entries")
	assert.Equal(t, "err-5", limited[1].Message)
}

func TestRecentErrors(t *testing.T) {
	store := newTestStore(newFakeClock())

	for i := 0; i < 8; i++ {
		store.AppendLog("s1", types.LogEntry{Level: types.LevelError, Message: fmt.Sprintf("e%d", i)})
		store.AppendLog("s1", types.LogEntry{Level: types.LevelInfo, Message: "between"})
	}

	recent := store.RecentErrors("s1", 5)
	require.Len(t, recent, 5)
	assert.Equal(t, "e3", recent[0].Message, "chronological order, newest five")
	assert.Equal(t, "e7", recent[4].Message)

	assert.Nil(t, store.RecentErrors("missing", 5))
}

func TestSweep(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)

	store.GetOrCreate("old")
	clock.Advance(time.Minute)
	store.GetOrCreate("fresh")

	// "old" idle 30min, "fresh" idle 29min
	removed := store.Sweep(clock.Now().Add(29 * time.Minute))
	assert.Equal(t, 1, removed)

	_, err := store.Summary("old")
	var notFound *types.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	_, err = store.Summary("fresh")
	assert.NoError(t, err, "29 minutes idle must be retained")
}

func TestSweepExactTimeoutBoundary(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)

	store.GetOrCreate("s1")

	// now - lastActivity == timeout removes the session (>= comparison)
	removed := store.Sweep(clock.Now().Add(30 * time.Minute))
	assert.Equal(t, 1, removed)
}

func TestRecreateAfterSweepResetsStartTime(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)

	first := store.GetOrCreate("s1")
	firstStart := first.StartTime

	clock.Advance(31 * time.Minute)
	require.Equal(t, 1, store.Sweep(clock.Now()))

	recreated := store.GetOrCreate("s1")
	assert.Greater(t, recreated.StartTime, firstStart, "recreated session gets a fresh startTime")
	assert.Empty(t, recreated.Logs)
}

func TestActiveSummariesExcludesExpired(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)

	store.GetOrCreate("stale")
	clock.Advance(31 * time.Minute)
	store.GetOrCreate("live")

	summaries := store.ActiveSummaries()
	require.Len(t, summaries, 1)
	assert.Equal(t, "live", summaries[0].ID)

	// Not yet swept, both still counted as held
	assert.Equal(t, 2, store.Count())
}

func TestConversationUnbounded(t *testing.T) {
	store := newTestStore(newFakeClock())

	for i := 0; i < 2000; i++ {
		role := types.RoleUser
		if i%2 == 1 {
			role = types.RoleAssistant
		}
		store.AppendTurn("s1", types.Turn{Role: role, Content: fmt.Sprintf("t%d", i)})
	}

	turns, err := store.Conversation("s1")
	require.NoError(t, err)
	assert.Len(t, turns, 2000)
	assert.Equal(t, "t0", turns[0].Content)
}

func TestConcurrentAppendsSameSession(t *testing.T) {
	store := newTestStore(newFakeClock())

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				store.AppendLog("shared", types.LogEntry{Level: types.LevelLog, Message: "m"})
			}
		}()
	}
	wg.Wait()

	summary, err := store.Summary("shared")
	require.NoError(t, err)
	assert.Equal(t, 800, summary.LogsCount, "no lost updates under concurrent appends")
}

func TestConcurrentIndependentSessions(t *testing.T) {
	store := newTestStore(newFakeClock())

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			id := fmt.Sprintf("session-%d", g)
			for i := 0; i < 50; i++ {
				store.AppendLog(id, types.LogEntry{Level: types.LevelLog, Message: "m"})
				store.AppendState(id, types.StateSnapshot{URL: "https://app.test"})
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 16, store.Count())
	for g := 0; g < 16; g++ {
		summary, err := store.Summary(fmt.Sprintf("session-%d", g))
		require.NoError(t, err)
		assert.Equal(t, 50, summary.LogsCount)
		assert.Equal(t, 50, summary.StatesCount)
	}
}
