// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/uhailink/uhailink/internal/chat"
)

// NewAskCmd creates the ask subcommand.
func NewAskCmd() *cobra.Command {
	return newAskCmd(nil)
}

// newAskCmd builds the command around streamer; nil uses the configured
// completion endpoint.
func newAskCmd(streamer chat.Streamer) *cobra.Command {
	var speak bool

	cmd := &cobra.Command{
		Use:   "ask MESSAGE...",
		Short: "Ask the first-aid assistant a question",
		Long: `Stream a first-aid answer to standard output. Blocked topics are
refused and the offline guides answer when the assistant is unreachable.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if speak && len(cfg.Chat.SpeechCommand) == 0 {
				cfg.Chat.SpeechCommand = chat.DefaultSpeechCommand
			}
			assistant, err := newAssistant(cfg, streamer, nil)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runAsk(ctx, cmd, assistant, strings.Join(args, " "))
		},
	}

	cmd.Flags().BoolVar(&speak, "speak", false, "read the answer aloud (espeak-ng unless chat.speech_command is set)")

	return cmd
}

func runAsk(ctx context.Context, cmd *cobra.Command, assistant *chat.Assistant, message string) error {
	out := cmd.OutOrStdout()
	streamed := false
	reply, err := assistant.Send(ctx, chat.NewConversation(), message, "", func(delta string) {
		streamed = true
		_, _ = fmt.Fprint(out, delta) //nolint:errcheck // terminal output
	})

	switch {
	case errors.Is(err, chat.ErrBlocked):
		cmd.PrintErrln(chat.BlockedMessage)
		return oops.Code("CHAT_BLOCKED").Wrap(err)
	case err != nil && reply.Offline:
		slog.WarnContext(ctx, "assistant unreachable, answered from offline guides", "error", err)
	case err != nil:
		if streamed {
			_, _ = fmt.Fprintln(out) //nolint:errcheck // terminal output
		}
		cmd.PrintErrln(chat.UserMessage(err))
		return err
	}

	if !streamed {
		_, _ = fmt.Fprint(out, reply.Text) //nolint:errcheck // terminal output
	}
	_, _ = fmt.Fprintln(out) //nolint:errcheck // terminal output
	return nil
}
