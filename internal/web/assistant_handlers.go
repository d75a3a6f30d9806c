// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/oklog/ulid/v2"

	"github.com/uhailink/uhailink/internal/chat"
	"github.com/uhailink/uhailink/pkg/errutil"
)

// offlineHeader marks a reply that came from the offline guides.
const offlineHeader = "X-Uhailink-Offline"

// maxHistory caps how many earlier turns a client may send back.
const maxHistory = 40

type chatRequest struct {
	Message string         `json:"message"`
	History []chat.Message `json:"history"`
}

type chatError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	// Offline carries the offline guide when the failure happened while
	// disconnected.
	Offline string `json:"offline,omitempty"`
}

// completionChunk mirrors one frame of the upstream completion stream so
// browser clients can decode relayed and upstream streams alike.
type completionChunk struct {
	Choices []chunkChoice `json:"choices"`
}

type chunkChoice struct {
	Delta chunkDelta `json:"delta"`
}

type chunkDelta struct {
	Content string `json:"content"`
}

func chunk(text string) completionChunk {
	return completionChunk{Choices: []chunkChoice{{Delta: chunkDelta{Content: text}}}}
}

// history keeps only user and assistant turns; system prompts are the
// server's to set.
func (req chatRequest) history() []chat.Message {
	out := make([]chat.Message, 0, len(req.History))
	for _, m := range req.History {
		if m.Role == chat.RoleUser || m.Role == chat.RoleAssistant {
			out = append(out, m)
		}
	}
	if len(out) > maxHistory {
		out = out[len(out)-maxHistory:]
	}
	return out
}

// assistantChat relays the assistant's reply as server-sent events. Blocked
// and empty messages are rejected before anything is sent upstream. A
// failure before the first fragment is answered with a JSON error; a
// failure mid-stream sends an "error" event before [DONE]. Either error
// carries the offline guide when the assistant fell back to it.
func (s *Server) assistantChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.deps.Assistant.Check(req.Message); err != nil {
		if errors.Is(err, chat.ErrBlocked) {
			writeJSON(w, http.StatusUnprocessableEntity, chatError{Error: chat.BlockedMessage, Code: "CHAT_BLOCKED"})
			return
		}
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	var stream *eventStream
	onDelta := func(delta string) {
		if stream == nil {
			stream = startEventStream(w)
		}
		_ = stream.send("", chunk(delta)) //nolint:errcheck // a gone client surfaces as ctx cancellation
	}

	conv := chat.NewConversation(req.history()...)
	reply, err := s.deps.Assistant.Send(ctx, conv, req.Message, s.patientContext(r), onDelta)
	if err != nil {
		body := chatError{Error: chat.UserMessage(err), Code: errutil.Code(err)}
		if reply.Offline {
			body.Offline = reply.Text
		}
		if stream != nil {
			_ = stream.send("error", body) //nolint:errcheck // best effort
			_ = stream.data("", "[DONE]") //nolint:errcheck // best effort
			return
		}
		if reply.Offline {
			w.Header().Set(offlineHeader, "true")
		}
		writeJSON(w, upstreamStatus(err), body)
		return
	}

	if stream == nil {
		if reply.Offline {
			w.Header().Set(offlineHeader, "true")
		}
		stream = startEventStream(w)
		if reply.Text != "" {
			_ = stream.send("", chunk(reply.Text)) //nolint:errcheck // best effort
		}
	}
	_ = stream.data("", "[DONE]") //nolint:errcheck // best effort
}

// upstreamStatus maps a completion failure onto the relay's status.
func upstreamStatus(err error) int {
	var upstream *chat.UpstreamError
	if errors.As(err, &upstream) {
		switch upstream.Status {
		case http.StatusTooManyRequests:
			return http.StatusTooManyRequests
		case http.StatusPaymentRequired, http.StatusForbidden:
			return http.StatusServiceUnavailable
		}
	}
	return http.StatusBadGateway
}

// patientContext returns the prompt suffix for a signed-in caller with a
// medical profile, or "" otherwise.
func (s *Server) patientContext(r *http.Request) string {
	token := sessionToken(r)
	if token == "" {
		return ""
	}
	ctx := r.Context()
	session, err := s.deps.Auth.SessionSource(token).CurrentSession(ctx)
	if err != nil || session == nil {
		return ""
	}
	userID, err := ulid.Parse(session.UserID)
	if err != nil {
		return ""
	}
	pc, err := s.deps.Profiles.PatientContext(ctx, userID)
	if err != nil {
		errutil.LogErrorContext(ctx, slog.Default(), "patient context unavailable", err)
		return ""
	}
	return pc
}
