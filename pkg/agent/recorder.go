package agent

import (
	"context"

	"github.com/binkshq/binks/pkg/llm"
)

// ConversationMessage is one entry handed to a ConversationRecorder:
// the appended message.
type ConversationMessage struct {
	llm.Message
}

// ConversationRecorder is an append-only persistence hook (§3). The
// agent loop calls it after every history append — user, assistant,
// and tool messages alike — and does not implement storage itself.
type ConversationRecorder interface {
	RecordTurn(ctx context.Context, msg ConversationMessage) error
}

// NoopRecorder discards every turn. It is the default when no
// recorder is configured.
type NoopRecorder struct{}

func (NoopRecorder) RecordTurn(context.Context, ConversationMessage) error { return nil }
