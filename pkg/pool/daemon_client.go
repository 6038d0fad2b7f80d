package pool

import (
	"context"

	"github.com/binkshq/binks/pkg/cp"
)

// DaemonClient is the subset of the supervisor daemon's wire protocol
// (§4.4) the pool needs to route calls through it. pkg/daemon's client
// implementation satisfies this; the pool never dials the socket
// itself, keeping the two packages independently testable.
type DaemonClient interface {
	// Ping reports whether the daemon is reachable and responsive.
	Ping(ctx context.Context) bool
	ListTools(ctx context.Context, server string) ([]cp.ToolDescriptor, error)
	ListAllTools(ctx context.Context) ([]cp.ToolDescriptor, error)
	CallTool(ctx context.Context, server, tool string, args map[string]any) (cp.ToolResult, error)
}
