// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/uhailink/uhailink/internal/chat")

// Defaults for the completion endpoint.
const (
	DefaultEndpoint    = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel       = "deepseek/deepseek-r1-0528:free"
	DefaultTitle       = "Uhai Assist"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500
)

// Streamer streams a completion for messages, calling onDelta as text
// arrives, and returns the assembled reply.
type Streamer interface {
	Stream(ctx context.Context, messages []Message, onDelta func(string)) (string, error)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	Endpoint    string
	APIKey      string
	Model       string
	Referer     string
	Title       string
	Temperature float64
	MaxTokens   int
	// Timeout bounds the whole request including the streamed body.
	Timeout time.Duration
}

// Client talks to an OpenAI-compatible streaming completion endpoint.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

// NewClient creates a Client, filling unset fields with defaults. A nil
// httpClient uses a client without its own timeout.
func NewClient(cfg ClientConfig, httpClient *http.Client) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{cfg: cfg, http: httpClient}
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// Stream posts messages and decodes the event stream. A non-2xx status
// returns an *UpstreamError before any delta is delivered.
func (c *Client) Stream(ctx context.Context, messages []Message, onDelta func(string)) (reply string, err error) {
	ctx, span := tracer.Start(ctx, "chat.Stream", trace.WithAttributes(
		attribute.String("chat.model", c.cfg.Model),
		attribute.Int("chat.messages", len(messages)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "stream failed")
		}
		span.SetAttributes(attribute.Int("chat.reply_bytes", len(reply)))
		span.End()
	}()

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(completionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Stream:      true,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", oops.Code("CHAT_ENCODE_FAILED").Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", oops.Code("CHAT_REQUEST_INVALID").With("endpoint", c.cfg.Endpoint).Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	req.Header.Set("X-Title", c.cfg.Title)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", oops.Code("CHAT_NETWORK_ERROR").Wrap(err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096)) //nolint:errcheck // best effort detail
		return "", &UpstreamError{Status: resp.StatusCode, Body: string(detail)}
	}

	reply, err = Decode(resp.Body, onDelta)
	if err != nil {
		return reply, oops.Code("CHAT_STREAM_INTERRUPTED").With("received", len(reply)).Wrap(err)
	}
	return reply, nil
}

// UpstreamError is a non-success response from the completion endpoint.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("completion endpoint returned %d: %s", e.Status, e.Body)
}

// UserMessage is the notice shown to the user for this failure.
func (e *UpstreamError) UserMessage() string {
	switch e.Status {
	case http.StatusTooManyRequests:
		return "Too many requests. Please try again in 30 seconds."
	case http.StatusPaymentRequired, http.StatusForbidden:
		return "Service temporarily unavailable."
	default:
		return UnavailableMessage
	}
}

// UnavailableMessage is shown for any failure without a more specific
// notice.
const UnavailableMessage = "AI is temporarily down. CALL 999 or 112 IMMEDIATELY for help."
