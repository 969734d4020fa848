package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/devlens/devlens/internal/infrastructure/logging"
	"github.com/devlens/devlens/internal/infrastructure/monitoring"
)

const completionsPath = "/v1/chat/completions"

// Limiter gates outbound calls; satisfied by resilience.Limiter
type Limiter interface {
	Acquire(ctx context.Context) error
}

// Options override per-call generation parameters
type Options struct {
	SystemPrompt string  // overrides default instruction context
	Model        string  // overrides default model id
	Temperature  float64 // sampling randomness in [0,2]; zero means default
	MaxTokens    int     // response length cap; zero means default
}

// Config holds client construction parameters
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// Client adapts abstract generate/stream requests to the backend wire
// protocol. Every call path obtains a limiter permit before touching the
// network; that permit is the sole admission-control point.
type Client struct {
	resty   *resty.Client
	limiter Limiter
	cfg     Config
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// New creates a provider client
func New(cfg Config, limiter Limiter, logger *logging.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	r := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "DevLens/1.0")
	if cfg.APIKey != "" {
		r.SetAuthToken(cfg.APIKey)
	}

	return &Client{
		resty:   r,
		limiter: limiter,
		cfg:     cfg,
		logger:  logger,
	}
}

// WithMetrics adds metrics tracking to the client
func (c *Client) WithMetrics(metrics *monitoring.Metrics) *Client {
	c.metrics = metrics
	return c
}

// Wire types for the chat-completions protocol. Kept private: nothing
// outside this package depends on the backend payload shape.

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
}

// GenerateText sends a prompt and returns the completion text
func (c *Client) GenerateText(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := c.acquire(ctx); err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := c.resty.R().
		SetContext(ctx).
		SetBody(c.buildRequest(prompt, opts, false)).
		Post(completionsPath)
	if err != nil {
		c.record("generate", "error", start)
		return "", fmt.Errorf("provider request failed: %w", err)
	}

	if resp.IsError() {
		c.record("generate", "error", start)
		return "", &Error{Kind: KindHTTP, Status: resp.StatusCode(), Body: bodyExcerpt(resp.Body())}
	}

	var parsed completionResponse
	if err := sonic.Unmarshal(resp.Body(), &parsed); err != nil {
		c.record("generate", "error", start)
		return "", &Error{Kind: KindInvalidResponse, Err: err}
	}
	if len(parsed.Choices) == 0 {
		c.record("generate", "error", start)
		return "", &Error{Kind: KindInvalidResponse, Err: fmt.Errorf("response has no choices")}
	}

	c.record("generate", "ok", start)
	return parsed.Choices[0].Message.Content, nil
}

// GenerateJSON is GenerateText followed by strict JSON parsing into v.
// Parse failure yields a malformed-JSON error and is not retried; the
// caller decides whether to re-prompt.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, opts Options, v interface{}) error {
	text, err := c.GenerateText(ctx, prompt, opts)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal([]byte(text), v); err != nil {
		return &Error{Kind: KindMalformedJSON, Err: err}
	}
	return nil
}

// StreamText produces text fragments as they arrive over the chunked
// transport. The caller must drain or Close the returned stream; early
// Close releases the underlying connection deterministically.
func (c *Client) StreamText(ctx context.Context, prompt string, opts Options) (*Stream, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.resty.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetBody(c.buildRequest(prompt, opts, true)).
		Post(completionsPath)
	if err != nil {
		c.record("stream", "error", start)
		return nil, fmt.Errorf("provider request failed: %w", err)
	}

	if resp.IsError() {
		body := readExcerpt(resp.RawBody())
		resp.RawBody().Close()
		c.record("stream", "error", start)
		return nil, &Error{Kind: KindHTTP, Status: resp.StatusCode(), Body: body}
	}

	c.record("stream", "ok", start)
	return newStream(resp.RawBody()), nil
}

// acquire waits for a limiter permit, recording the wait duration
func (c *Client) acquire(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	start := time.Now()
	if err := c.limiter.Acquire(ctx); err != nil {
		return fmt.Errorf("rate limit wait cancelled: %w", err)
	}
	if wait := time.Since(start); wait > time.Second {
		c.logger.Debug("Rate limiter delayed provider call", zap.Duration("wait", wait))
	}
	if c.metrics != nil {
		c.metrics.RecordLimiterWait(time.Since(start))
	}
	return nil
}

func (c *Client) buildRequest(prompt string, opts Options, stream bool) completionRequest {
	model := c.cfg.Model
	if opts.Model != "" {
		model = opts.Model
	}
	temperature := c.cfg.Temperature
	if opts.Temperature != 0 {
		temperature = opts.Temperature
	}
	maxTokens := c.cfg.MaxTokens
	if opts.MaxTokens != 0 {
		maxTokens = opts.MaxTokens
	}

	var messages []wireMessage
	if opts.SystemPrompt != "" {
		messages = append(messages, wireMessage{Role: "system", Content: opts.SystemPrompt})
	}
	messages = append(messages, wireMessage{Role: "user", Content: prompt})

	return completionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      stream,
	}
}

func (c *Client) record(op, outcome string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordProviderCall(op, outcome, time.Since(start))
	}
}

func bodyExcerpt(body []byte) string {
	const max = 512
	if len(body) > max {
		return string(body[:max])
	}
	return string(body)
}
