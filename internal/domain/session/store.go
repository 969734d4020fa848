package session

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/devlens/devlens/internal/infrastructure/monitoring"
	"github.com/devlens/devlens/internal/shared/types"
)

const shardCount = 16

// Session is per-client bounded telemetry plus conversation history.
// The store is the sole owner; all mutation goes through store methods,
// which serialize same-id access on the owning shard lock.
type Session struct {
	ID           string
	StartTime    int64 // ms since epoch
	LastActivity int64 // ms since epoch, monotone non-decreasing
	Logs         []types.LogEntry
	States       []types.StateSnapshot
	Conversation []types.Turn

	errorsCount int
}

// Config holds retention parameters
type Config struct {
	MaxLogs   int           // ring capacity for console logs
	MaxStates int           // ring capacity for state snapshots
	Timeout   time.Duration // inactivity TTL before sweep removal
	Now       func() time.Time
}

// DefaultConfig returns production retention parameters
func DefaultConfig() Config {
	return Config{
		MaxLogs:   1000,
		MaxStates: 50,
		Timeout:   30 * time.Minute,
	}
}

// Store owns the session map. The map is sharded so mutations to
// independent sessions never contend; the TTL sweep locks one shard
// at a time.
type Store struct {
	cfg     Config
	shards  [shardCount]shard
	metrics *monitoring.Metrics
}

type shard struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates a session store
func NewStore(cfg Config) *Store {
	if cfg.MaxLogs <= 0 {
		cfg.MaxLogs = 1000
	}
	if cfg.MaxStates <= 0 {
		cfg.MaxStates = 50
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Store{cfg: cfg}
	for i := range s.shards {
		s.shards[i].sessions = make(map[string]*Session)
	}
	return s
}

// WithMetrics adds metrics tracking to the store
func (s *Store) WithMetrics(metrics *monitoring.Metrics) *Store {
	s.metrics = metrics
	return s
}

func (s *Store) shardFor(id string) *shard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &s.shards[h.Sum32()%shardCount]
}

// GetOrCreate returns the session for id, creating it lazily on first
// reference. LastActivity is always touched. The returned pointer is
// owned by the store; callers must not mutate it directly.
func (s *Store) GetOrCreate(id string) *Session {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return s.getOrCreateLocked(sh, id)
}

// getOrCreateLocked requires the shard lock to be held
func (s *Store) getOrCreateLocked(sh *shard, id string) *Session {
	nowMs := s.cfg.Now().UnixMilli()

	sess, ok := sh.sessions[id]
	if !ok {
		sess = &Session{
			ID:           id,
			StartTime:    nowMs,
			LastActivity: nowMs,
		}
		sh.sessions[id] = sess
		if s.metrics != nil {
			s.metrics.SessionCreated()
		}
		return sess
	}

	if nowMs > sess.LastActivity {
		sess.LastActivity = nowMs
	}
	return sess
}

// AppendLog appends a log entry, enforcing the ring bound
func (s *Store) AppendLog(id string, entry types.LogEntry) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess := s.getOrCreateLocked(sh, id)
	sess.Logs = append(sess.Logs, entry)
	if len(sess.Logs) > s.cfg.MaxLogs {
		evicted := sess.Logs[0]
		if evicted.Level == types.LevelError {
			sess.errorsCount--
		}
		sess.Logs = sess.Logs[1:]
	}
	if entry.Level == types.LevelError {
		sess.errorsCount++
	}
}

// AppendState appends a state snapshot, enforcing the ring bound
func (s *Store) AppendState(id string, snap types.StateSnapshot) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess := s.getOrCreateLocked(sh, id)
	sess.States = append(sess.States, snap)
	if len(sess.States) > s.cfg.MaxStates {
		sess.States = sess.States[1:]
	}
}

// AppendTurn appends a conversation turn. The conversation is unbounded.
func (s *Store) AppendTurn(id string, turn types.Turn) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess := s.getOrCreateLocked(sh, id)
	sess.Conversation = append(sess.Conversation, turn)
}

// Summary returns the read-model projection for one session
func (s *Store) Summary(id string) (types.SessionSummary, error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	sess, ok := sh.sessions[id]
	if !ok {
		return types.SessionSummary{}, &types.NotFoundError{SessionID: id}
	}
	return summarize(sess), nil
}

// Logs returns up to limit entries for the session, newest last, with an
// optional level filter. A zero limit returns everything retained.
func (s *Store) Logs(id string, level types.LogLevel, limit int) ([]types.LogEntry, error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	sess, ok := sh.sessions[id]
	if !ok {
		return nil, &types.NotFoundError{SessionID: id}
	}

	logs := sess.Logs
	if level != "" {
		filtered := make([]types.LogEntry, 0, len(logs))
		for _, entry := range logs {
			if entry.Level == level {
				filtered = append(filtered, entry)
			}
		}
		logs = filtered
	}
	if limit > 0 && len(logs) > limit {
		logs = logs[len(logs)-limit:]
	}

	out := make([]types.LogEntry, len(logs))
	copy(out, logs)
	return out, nil
}

// RecentErrors returns up to n of the most recent error-level entries
func (s *Store) RecentErrors(id string, n int) []types.LogEntry {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	sess, ok := sh.sessions[id]
	if !ok {
		return nil
	}

	var out []types.LogEntry
	for i := len(sess.Logs) - 1; i >= 0 && len(out) < n; i-- {
		if sess.Logs[i].Level == types.LevelError {
			out = append(out, sess.Logs[i])
		}
	}
	// Restore chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// LatestState returns the most recent state snapshot, if any
func (s *Store) LatestState(id string) (types.StateSnapshot, bool) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	sess, ok := sh.sessions[id]
	if !ok || len(sess.States) == 0 {
		return types.StateSnapshot{}, false
	}
	return sess.States[len(sess.States)-1], true
}

// Conversation returns a copy of the conversation history
func (s *Store) Conversation(id string) ([]types.Turn, error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	sess, ok := sh.sessions[id]
	if !ok {
		return nil, &types.NotFoundError{SessionID: id}
	}

	out := make([]types.Turn, len(sess.Conversation))
	copy(out, sess.Conversation)
	return out, nil
}

// ActiveSummaries returns summaries of every non-expired session
func (s *Store) ActiveSummaries() []types.SessionSummary {
	nowMs := s.cfg.Now().UnixMilli()
	timeoutMs := s.cfg.Timeout.Milliseconds()

	summaries := make([]types.SessionSummary, 0)
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for _, sess := range sh.sessions {
			if nowMs-sess.LastActivity < timeoutMs {
				summaries = append(summaries, summarize(sess))
			}
		}
		sh.mu.RUnlock()
	}
	return summaries
}

// Count returns the number of live sessions
func (s *Store) Count() int {
	total := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		total += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return total
}

// Sweep removes every session idle for at least the configured timeout and
// returns the count removed. Called periodically, not on every mutation,
// so the steady-state cost of ingestion stays O(1) amortized.
func (s *Store) Sweep(now time.Time) int {
	nowMs := now.UnixMilli()
	timeoutMs := s.cfg.Timeout.Milliseconds()

	removed := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for id, sess := range sh.sessions {
			if nowMs-sess.LastActivity >= timeoutMs {
				delete(sh.sessions, id)
				removed++
			}
		}
		sh.mu.Unlock()
	}

	if s.metrics != nil {
		s.metrics.SessionsSwept(removed)
	}
	return removed
}

func summarize(sess *Session) types.SessionSummary {
	return types.SessionSummary{
		ID:                 sess.ID,
		StartTime:          sess.StartTime,
		LastActivity:       sess.LastActivity,
		LogsCount:          len(sess.Logs),
		ErrorsCount:        sess.errorsCount,
		StatesCount:        len(sess.States),
		ConversationLength: len(sess.Conversation),
	}
}
