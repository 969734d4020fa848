package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/devlens/devlens/internal/domain/session"
	"github.com/devlens/devlens/internal/infrastructure/logging"
	"github.com/devlens/devlens/internal/infrastructure/monitoring"
	"github.com/devlens/devlens/internal/provider"
	"github.com/devlens/devlens/internal/shared/types"
)

// analysisTimeout bounds background provider calls so a stalled backend
// cannot pin the worker forever
const analysisTimeout = 2 * time.Minute

// TextGenerator is the single outbound capability this service consumes
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, opts provider.Options) (string, error)
}

// Config holds routing and trigger policy parameters
type Config struct {
	AutoAnalysis   bool // enables the background trigger path
	ErrorWindow    int  // how many recent errors the trigger inspects
	ErrorThreshold int  // minimum errors in the window to justify a call
	ContextLogs    int  // log tail included in provider context
	QueueSize      int  // analysis task queue capacity
	Now            func() time.Time
}

// DefaultConfig returns production trigger policy
func DefaultConfig() Config {
	return Config{
		AutoAnalysis:   true,
		ErrorWindow:    5,
		ErrorThreshold: 2,
		ContextLogs:    20,
		QueueSize:      64,
	}
}

// Service routes inbound telemetry messages: classifies them, updates the
// session store, and triggers analysis. Side effects are strictly additive
// to the addressed session; the only cross-session coupling is the shared
// provider rate-limiter budget inside the generator.
type Service struct {
	store   *session.Store
	gen     TextGenerator
	bus     *Bus
	cfg     Config
	logger  *logging.Logger
	metrics *monitoring.Metrics

	tasks     chan string
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewService creates an ingestion service
func NewService(store *session.Store, gen TextGenerator, bus *Bus, cfg Config, logger *logging.Logger) *Service {
	if cfg.ErrorWindow <= 0 {
		cfg.ErrorWindow = 5
	}
	if cfg.ErrorThreshold <= 0 {
		cfg.ErrorThreshold = 2
	}
	if cfg.ContextLogs <= 0 {
		cfg.ContextLogs = 20
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Service{
		store:  store,
		gen:    gen,
		bus:    bus,
		cfg:    cfg,
		logger: logger,
		tasks:  make(chan string, cfg.QueueSize),
		done:   make(chan struct{}),
	}
}

// WithMetrics adds metrics tracking to the service
func (s *Service) WithMetrics(metrics *monitoring.Metrics) *Service {
	s.metrics = metrics
	return s
}

// Start launches the background analysis worker
func (s *Service) Start() {
	s.wg.Add(1)
	go s.analysisLoop()
}

// Close stops the worker and waits for an in-flight analysis to finish
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}

// Handle routes one inbound message. Validation failures and unknown types
// return before any session is created or mutated.
func (s *Service) Handle(ctx context.Context, msg types.Message) (*types.Result, error) {
	start := time.Now()
	res, err := s.handle(ctx, msg)

	if s.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		s.metrics.RecordMessage(string(msg.Type), outcome, time.Since(start))
	}
	return res, err
}

func (s *Service) handle(ctx context.Context, msg types.Message) (*types.Result, error) {
	if msg.Type == "" {
		return nil, types.NewValidationError("type", "required")
	}
	if !msg.Type.Valid() {
		return nil, types.NewValidationError("type", fmt.Sprintf("unsupported message type %q", msg.Type))
	}
	if msg.SessionID == "" {
		return nil, types.NewValidationError("sessionId", "required")
	}

	switch msg.Type {
	case types.MessageConsole:
		return s.handleConsole(msg)
	case types.MessageError:
		return s.handleError(ctx, msg)
	case types.MessageState:
		return s.handleState(msg)
	case types.MessageChat:
		return s.handleChat(ctx, msg)
	case types.MessageHealth:
		return s.handleHealth(msg)
	}
	return nil, types.NewValidationError("type", fmt.Sprintf("unsupported message type %q", msg.Type))
}

// handleConsole appends a log entry. Error-level entries publish an
// error-detected event and arm the auto-analysis trigger; trigger failures
// never reach the ingestion caller.
func (s *Service) handleConsole(msg types.Message) (*types.Result, error) {
	entry, err := s.decodeLogEntry(msg)
	if err != nil {
		return nil, err
	}

	s.store.AppendLog(msg.SessionID, entry)

	if entry.Level == types.LevelError {
		s.publishErrorDetected(msg.SessionID, entry)
		s.enqueueAnalysis(msg.SessionID)
	}

	return s.result(map[string]interface{}{
		"logged": true,
		"level":  entry.Level,
	}), nil
}

// handleError is the console path with the level forced to error, plus a
// synchronous single-error analysis. It does not arm the auto-analysis
// trigger: the caller already receives a full analysis of this error.
func (s *Service) handleError(ctx context.Context, msg types.Message) (*types.Result, error) {
	entry, err := s.decodeLogEntry(msg)
	if err != nil {
		return nil, err
	}
	entry.Level = types.LevelError

	s.store.AppendLog(msg.SessionID, entry)
	s.publishErrorDetected(msg.SessionID, entry)

	prompt := s.buildContext(msg.SessionID) +
		"\n\nAnalyze this error:\n" + entry.Message
	if entry.Stack != "" {
		prompt += "\n" + entry.Stack
	}

	text, err := s.gen.GenerateText(ctx, prompt, provider.Options{SystemPrompt: analysisSystemPrompt})
	if err != nil {
		// The log entry is already recorded; only the analysis failed
		return nil, fmt.Errorf("error analysis failed: %w", err)
	}

	return s.result(map[string]interface{}{
		"analysis": text,
	}), nil
}

func (s *Service) handleState(msg types.Message) (*types.Result, error) {
	var payload types.StatePayload
	if err := s.decodeData(msg, &payload); err != nil {
		return nil, err
	}

	snap := types.StateSnapshot{
		URL:         payload.URL,
		Timestamp:   s.eventTimestamp(payload.Timestamp, msg.Timestamp),
		UserAgent:   payload.UserAgent,
		Viewport:    payload.Viewport,
		Performance: payload.Performance,
	}
	s.store.AppendState(msg.SessionID, snap)

	return s.result(map[string]interface{}{
		"recorded": true,
	}), nil
}

// handleChat runs one conversation exchange against the provider. The user
// turn is recorded before the provider call, so a failed exchange still
// leaves the question in history.
func (s *Service) handleChat(ctx context.Context, msg types.Message) (*types.Result, error) {
	var payload types.ChatPayload
	if err := s.decodeData(msg, &payload); err != nil {
		return nil, err
	}
	if payload.Content == "" {
		return nil, types.NewValidationError("data.content", "required")
	}

	nowMs := s.cfg.Now().UnixMilli()
	s.store.AppendTurn(msg.SessionID, types.Turn{
		Role:      types.RoleUser,
		Content:   payload.Content,
		Timestamp: nowMs,
	})

	prompt := s.buildContext(msg.SessionID) + "\n\nUser message: " + payload.Content
	text, err := s.gen.GenerateText(ctx, prompt, provider.Options{SystemPrompt: chatSystemPrompt})
	if err != nil {
		return nil, fmt.Errorf("chat generation failed: %w", err)
	}

	s.store.AppendTurn(msg.SessionID, types.Turn{
		Role:      types.RoleAssistant,
		Content:   text,
		Timestamp: s.cfg.Now().UnixMilli(),
	})

	return s.result(map[string]interface{}{
		"response": text,
	}), nil
}

// handleHealth is a read of session vitals; the implicit lastActivity touch
// from session lookup is the only mutation.
func (s *Service) handleHealth(msg types.Message) (*types.Result, error) {
	sess := s.store.GetOrCreate(msg.SessionID)
	summary, err := s.store.Summary(sess.ID)
	if err != nil {
		return nil, err
	}

	report := types.HealthReport{
		SessionID:    summary.ID,
		UptimeMs:     summary.LastActivity - summary.StartTime,
		LogsCount:    summary.LogsCount,
		ErrorsCount:  summary.ErrorsCount,
		LastActivity: summary.LastActivity,
	}

	if s.bus != nil {
		s.bus.Publish(types.Event{
			Type:      types.EventHealthCheck,
			SessionID: msg.SessionID,
			Data:      report,
			Timestamp: s.cfg.Now().UnixMilli(),
		})
	}

	return s.result(report), nil
}

func (s *Service) decodeLogEntry(msg types.Message) (types.LogEntry, error) {
	var payload types.ConsolePayload
	if err := s.decodeData(msg, &payload); err != nil {
		return types.LogEntry{}, err
	}
	if payload.Message == "" {
		return types.LogEntry{}, types.NewValidationError("data.message", "required")
	}

	level := payload.Level
	if level == "" {
		level = types.LevelLog
	}
	if !level.Valid() {
		return types.LogEntry{}, types.NewValidationError("data.level", fmt.Sprintf("unknown level %q", payload.Level))
	}

	return types.LogEntry{
		Level:     level,
		Message:   payload.Message,
		Timestamp: s.eventTimestamp(payload.Timestamp, msg.Timestamp),
		Stack:     payload.Stack,
		Metadata:  payload.Metadata,
	}, nil
}

func (s *Service) decodeData(msg types.Message, v interface{}) error {
	if len(msg.Data) == 0 {
		return types.NewValidationError("data", "required")
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return types.NewValidationError("data", err.Error())
	}
	return nil
}

// eventTimestamp prefers the payload clock, then the envelope clock, then
// the server clock
func (s *Service) eventTimestamp(payloadTs, envelopeTs int64) int64 {
	if payloadTs != 0 {
		return payloadTs
	}
	if envelopeTs != 0 {
		return envelopeTs
	}
	return s.cfg.Now().UnixMilli()
}

func (s *Service) publishErrorDetected(sessionID string, entry types.LogEntry) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(types.Event{
		Type:      types.EventErrorDetected,
		SessionID: sessionID,
		Data:      entry,
		Timestamp: s.cfg.Now().UnixMilli(),
	})
}

func (s *Service) result(data interface{}) *types.Result {
	return &types.Result{Data: data, Timestamp: s.cfg.Now().UnixMilli()}
}
