// Package llm provides the upstream chat-completion client used by the
// stream relay. The upstream speaks the OpenAI-compatible SSE delta format;
// that is the single wire contract parsed here.
package llm

import (
	"context"
	"io"
)

// Message is one role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options selects the upstream model for one request.
type Options struct {
	Model       string
	Temperature float32
}

// Streamer produces a chat completion, forwarding each text delta to w the
// moment it arrives and returning the assembled full reply. One upstream
// attempt per call; retry policy belongs to the caller.
type Streamer interface {
	Stream(ctx context.Context, messages []Message, opts Options, w io.Writer) (string, error)
}
