// Package cp implements the Capability Protocol transport: a
// JSON-RPC-shaped exchange with an external capability server over
// either a spawned subprocess's stdio or an SSE/streamable-HTTP
// endpoint.
package cp

import (
	"context"
	"errors"
	"fmt"
)

// ErrKind distinguishes the transport's error taxonomy.
type ErrKind int

const (
	ErrStartupTimeout ErrKind = iota
	ErrCallTimeout
	ErrTransportClosed
	ErrProtocol
)

// Error is a CP transport failure tagged with its taxonomy kind.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(kind ErrKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// IsKind reports whether err (or a wrapped cause) is a *Error of kind.
func IsKind(err error, kind ErrKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// ToolDescriptor mirrors §3's tool descriptor: a tool's identity and
// opaque, unsanitised input schema as reported by a capability server.
type ToolDescriptor struct {
	ServerID    string
	Name        string
	Description string
	InputSchema map[string]any
}

// ToolResult is the outcome of a call_tool exchange.
type ToolResult struct {
	Content []ContentPart
	IsError bool
}

// ContentPart is one piece of structured tool output. Only text parts
// are modeled — the CP servers this runtime talks to emit text.
type ContentPart struct {
	Type string
	Text string
}

// Text concatenates every text content part, the common case callers
// want.
func (r ToolResult) Text() string {
	if len(r.Content) == 1 {
		return r.Content[0].Text
	}
	out := ""
	for i, c := range r.Content {
		if i > 0 {
			out += "\n"
		}
		out += c.Text
	}
	return out
}

// Transport is one live CP connection to a capability server: either a
// spawned subprocess over stdio, or an SSE/streamable-HTTP client.
// Start must complete the full spawn+initialize handshake within the
// caller's context deadline; CallTool must complete within its own.
type Transport interface {
	Start(ctx context.Context) error
	ListTools(ctx context.Context) ([]ToolDescriptor, error)
	CallTool(ctx context.Context, name string, args map[string]any) (ToolResult, error)
	Close() error
}
