// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package chat

import (
	"context"
	"os/exec"

	"github.com/samber/oops"
)

// Speaker reads text aloud. Speech is a side effect; failures never block
// a reply.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// NopSpeaker discards speech.
type NopSpeaker struct{}

// Speak does nothing.
func (NopSpeaker) Speak(context.Context, string) error { return nil }

// CommandSpeaker speaks through an external text-to-speech program such as
// espeak-ng. The text is passed as the final argument.
type CommandSpeaker struct {
	Command []string
}

// DefaultSpeechCommand is an en-KE-like voice at a slightly slowed rate.
var DefaultSpeechCommand = []string{"espeak-ng", "-v", "en", "-s", "150"}

// Speak runs the command and waits for it to finish.
func (s CommandSpeaker) Speak(ctx context.Context, text string) error {
	if len(s.Command) == 0 || text == "" {
		return nil
	}
	args := append(append([]string(nil), s.Command[1:]...), text)
	cmd := exec.CommandContext(ctx, s.Command[0], args...) //nolint:gosec // operator-configured command
	if out, err := cmd.CombinedOutput(); err != nil {
		return oops.Code("SPEECH_FAILED").With("command", s.Command[0]).With("output", string(out)).Wrap(err)
	}
	return nil
}
