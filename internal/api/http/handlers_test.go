package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devlens/devlens/internal/domain/ingest"
	"github.com/devlens/devlens/internal/domain/session"
	"github.com/devlens/devlens/internal/provider"
	"github.com/devlens/devlens/internal/shared/types"
)

type stubGenerator struct {
	response string
	err      error
	calls    int
}

func (g *stubGenerator) GenerateText(ctx context.Context, prompt string, opts provider.Options) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *session.Store, *stubGenerator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := session.NewStore(session.DefaultConfig())
	gen := &stubGenerator{response: "stub answer"}
	bus := ingest.NewBus()
	t.Cleanup(bus.Close)
	service := ingest.NewService(store, gen, bus, ingest.DefaultConfig(), nil)

	handlers := NewHandlers(store, service)

	router := gin.New()
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.POST("/ingest", handlers.Ingest)
	router.GET("/sessions", handlers.ListSessions)
	router.GET("/sessions/:id", handlers.GetSession)
	router.GET("/sessions/:id/logs", handlers.GetLogs)
	router.GET("/sessions/:id/conversation", handlers.GetConversation)
	router.GET("/sessions/:id/health", handlers.GetSessionHealth)

	return router, store, gen
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIngestConsole(t *testing.T) {
	router, store, _ := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/ingest",
		`{"type":"console","sessionId":"s1","data":{"level":"info","message":"hello","timestamp":1000}}`)

	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Success   bool            `json:"success"`
		Data      json.RawMessage `json:"data"`
		Timestamp int64           `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.NotZero(t, envelope.Timestamp)

	summary, err := store.Summary("s1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.LogsCount)
}

func TestIngestChat(t *testing.T) {
	router, store, gen := newTestRouter(t)
	gen.response = "try awaiting the promise"

	w := doRequest(router, http.MethodPost, "/ingest",
		`{"type":"chat","sessionId":"s2","data":{"content":"why is this failing?"}}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "try awaiting the promise")

	turns, err := store.Conversation("s2")
	require.NoError(t, err)
	assert.Len(t, turns, 2)
}

func TestIngestValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing type", `{"sessionId":"s3","data":{"message":"x"}}`},
		{"unknown type", `{"type":"nonsense","sessionId":"s3","data":{}}`},
		{"missing session", `{"type":"console","data":{"message":"x"}}`},
		{"not json", `{{{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, store, _ := newTestRouter(t)

			w := doRequest(router, http.MethodPost, "/ingest", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "error")
			assert.Equal(t, 0, store.Count(), "rejected message must not create sessions")
		})
	}
}

func TestIngestProviderFailure(t *testing.T) {
	router, store, gen := newTestRouter(t)
	gen.err = &provider.Error{Kind: provider.KindHTTP, Status: 503, Body: "overloaded"}

	w := doRequest(router, http.MethodPost, "/ingest",
		`{"type":"chat","sessionId":"s1","data":{"content":"hello?"}}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "provider_error")
	assert.Contains(t, w.Body.String(), "503")

	// Telemetry side effects survive the failed provider call
	summary, err := store.Summary("s1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ConversationLength)
}

func TestGetSessionNotFound(t *testing.T) {
	router, _, _ := newTestRouter(t)

	for _, path := range []string{
		"/sessions/ghost",
		"/sessions/ghost/logs",
		"/sessions/ghost/conversation",
		"/sessions/ghost/health",
	} {
		w := doRequest(router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Contains(t, w.Body.String(), "session_not_found")
	}
}

func TestGetLogsFilterAndLimit(t *testing.T) {
	router, store, _ := newTestRouter(t)

	for i := 0; i < 5; i++ {
		store.AppendLog("s1", types.LogEntry{Level: types.LevelError, Message: fmt.Sprintf("err-%d", i)})
		store.AppendLog("s1", types.LogEntry{Level: types.LevelInfo, Message: fmt.Sprintf("info-%d", i)})
	}

	w := doRequest(router, http.MethodGet, "/sessions/s1/logs?level=error&limit=3", "")
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			Logs  []types.LogEntry `json:"logs"`
			Count int              `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, 3, envelope.Data.Count)
	assert.Equal(t, "err-2", envelope.Data.Logs[0].Message)
	assert.Equal(t, "err-4", envelope.Data.Logs[2].Message)
}

func TestGetLogsBadQuery(t *testing.T) {
	router, store, _ := newTestRouter(t)
	store.AppendLog("s1", types.LogEntry{Level: types.LevelInfo, Message: "x"})

	w := doRequest(router, http.MethodGet, "/sessions/s1/logs?level=shout", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodGet, "/sessions/s1/logs?limit=-2", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListSessions(t *testing.T) {
	router, store, _ := newTestRouter(t)
	store.GetOrCreate("a")
	store.GetOrCreate("b")

	w := doRequest(router, http.MethodGet, "/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []types.SessionSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 2)
}

func TestLivenessProbe(t *testing.T) {
	router, store, _ := newTestRouter(t)
	store.GetOrCreate("a")

	w := doRequest(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"active_sessions":1`)
}

func TestSessionHealthEndpoint(t *testing.T) {
	router, store, _ := newTestRouter(t)

	store.AppendLog("s1", types.LogEntry{Level: types.LevelError, Message: "boom"})
	store.AppendLog("s1", types.LogEntry{Level: types.LevelLog, Message: "fine"})

	w := doRequest(router, http.MethodGet, "/sessions/s1/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data types.HealthReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "s1", envelope.Data.SessionID)
	assert.Equal(t, 2, envelope.Data.LogsCount)
	assert.Equal(t, 1, envelope.Data.ErrorsCount)
}
