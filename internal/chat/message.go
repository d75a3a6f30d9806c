// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

// Package chat implements the first-aid assistant: a streaming client for
// an OpenAI-compatible completion endpoint, the guard rails around it, and
// the offline fallback guides.
package chat

import "sync"

// Role is the author of a chat message.
type Role string

// Message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is a message history. It is safe for concurrent use.
type Conversation struct {
	mu       sync.Mutex
	messages []Message
}

// NewConversation creates a conversation seeded with history.
func NewConversation(history ...Message) *Conversation {
	return &Conversation{messages: append([]Message(nil), history...)}
}

// Append adds a message.
func (c *Conversation) Append(m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, m)
}

// AppendDelta extends the trailing assistant message with delta, starting
// a new assistant message if the last one is not from the assistant.
func (c *Conversation) AppendDelta(delta string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.messages); n > 0 && c.messages[n-1].Role == RoleAssistant {
		c.messages[n-1].Content += delta
		return
	}
	c.messages = append(c.messages, Message{Role: RoleAssistant, Content: delta})
}

// truncate drops every message after the first n.
func (c *Conversation) truncate(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < len(c.messages) {
		c.messages = c.messages[:n]
	}
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Clear empties the history.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}
