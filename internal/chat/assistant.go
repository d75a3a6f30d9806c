// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/oops"

	"github.com/uhailink/uhailink/pkg/errutil"
)

// Reply is the assistant's answer to one message.
type Reply struct {
	Text string `json:"text"`
	// Offline is set when Text came from the offline guides.
	Offline bool `json:"offline"`
}

// Assistant answers first-aid questions through a Streamer, falling back
// to static guides when the endpoint cannot be reached.
type Assistant struct {
	streamer  Streamer
	blocklist *Blocklist
	guides    *GuideSet
	conn      Connectivity
	speaker   Speaker
	metrics   *Metrics
}

// AssistantOption configures an Assistant.
type AssistantOption func(*Assistant)

// WithBlocklist replaces the default blocklist.
func WithBlocklist(b *Blocklist) AssistantOption {
	return func(a *Assistant) { a.blocklist = b }
}

// WithGuides replaces the built-in offline guides.
func WithGuides(g *GuideSet) AssistantOption {
	return func(a *Assistant) { a.guides = g }
}

// WithConnectivity sets the connectivity signal. The default always
// reports online.
func WithConnectivity(c Connectivity) AssistantOption {
	return func(a *Assistant) { a.conn = c }
}

// WithSpeaker reads replies aloud.
func WithSpeaker(s Speaker) AssistantOption {
	return func(a *Assistant) { a.speaker = s }
}

// WithMetrics records assistant metrics.
func WithMetrics(m *Metrics) AssistantOption {
	return func(a *Assistant) { a.metrics = m }
}

// NewAssistant creates an Assistant.
func NewAssistant(streamer Streamer, opts ...AssistantOption) *Assistant {
	a := &Assistant{
		streamer:  streamer,
		blocklist: NewBlocklist(),
		conn:      StaticConnectivity(true),
		speaker:   NopSpeaker{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.guides == nil {
		a.guides = DefaultGuides()
	}
	return a
}

// Check applies the blocklist to text without sending anything.
func (a *Assistant) Check(text string) error {
	if strings.TrimSpace(text) == "" {
		return oops.Code("CHAT_EMPTY").Errorf("message cannot be empty")
	}
	if err := a.blocklist.Check(text); err != nil {
		a.metrics.blocked()
		return err
	}
	return nil
}

// Send appends text to conv and streams the reply into it, calling onDelta
// for each fragment. patientContext is appended to the system prompt.
//
// A blocked message returns an error wrapping ErrBlocked and leaves conv
// untouched. When the endpoint is unreachable and the connectivity signal
// reports offline, the reply is a static guide; a failed stream in that
// state returns both the fallback reply and the stream error, and the guide
// replaces any partial reply in conv.
func (a *Assistant) Send(ctx context.Context, conv *Conversation, text, patientContext string, onDelta func(string)) (Reply, error) {
	text = strings.TrimSpace(text)
	if err := a.Check(text); err != nil {
		return Reply{}, err
	}

	history := conv.Messages()
	conv.Append(Message{Role: RoleUser, Content: text})
	asked := conv.Len()

	if !a.conn.Online(ctx) {
		return a.fallback(ctx, conv, text), nil
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: SystemPrompt + patientContext})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: RoleUser, Content: text})

	reply, err := a.streamer.Stream(ctx, messages, func(delta string) {
		conv.AppendDelta(delta)
		if onDelta != nil {
			onDelta(delta)
		}
	})
	if err != nil {
		a.metrics.stream(outcomeError)
		errutil.LogErrorContext(ctx, slog.Default(), "assistant stream failed", err)
		if !a.conn.Online(context.WithoutCancel(ctx)) {
			conv.truncate(asked)
			return a.fallback(ctx, conv, text), err
		}
		return Reply{Text: reply}, err
	}

	a.metrics.stream(outcomeOK)
	a.speak(ctx, reply)
	return Reply{Text: reply}, nil
}

func (a *Assistant) fallback(ctx context.Context, conv *Conversation, query string) Reply {
	a.metrics.offline()
	guide := a.guides.Select(query)
	conv.Append(Message{Role: RoleAssistant, Content: OfflinePrefix + guide})
	a.speak(ctx, guide)
	return Reply{Text: OfflinePrefix + guide, Offline: true}
}

// OfflineGuide returns the fallback reply for query without touching any
// conversation.
func (a *Assistant) OfflineGuide(query string) string {
	return OfflinePrefix + a.guides.Select(query)
}

func (a *Assistant) speak(ctx context.Context, text string) {
	if text == "" {
		return
	}
	if err := a.speaker.Speak(ctx, text); err != nil {
		slog.WarnContext(ctx, "speech failed", "error", err)
	}
}

// UserMessage returns the notice to show for a Send error.
func UserMessage(err error) string {
	var upstream *UpstreamError
	switch {
	case errors.Is(err, ErrBlocked):
		return BlockedMessage
	case errors.As(err, &upstream):
		return upstream.UserMessage()
	default:
		return UnavailableMessage
	}
}
