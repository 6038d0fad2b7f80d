// Package daemon implements the supervisor daemon (C4): a background
// process that owns every capability server's live connection and
// serves list/call requests to agent processes over a Unix domain
// socket, so that subprocess and SSE connections are never duplicated
// across concurrently running agent invocations.
package daemon

import "github.com/binkshq/binks/pkg/cp"

// RequestType discriminates the line-delimited JSON wire protocol's
// "type" field (§4.4).
type RequestType string

const (
	ReqPing          RequestType = "ping"
	ReqListTools     RequestType = "list_tools"
	ReqListAllTools  RequestType = "list_all_tools"
	ReqCallTool      RequestType = "call_tool"
	ReqStatus        RequestType = "status"
	ReqRefreshServer RequestType = "refresh_server"
	ReqRefreshAll    RequestType = "refresh_all"
	ReqShutdown      RequestType = "shutdown"
)

// ResponseType discriminates a daemon response envelope.
type ResponseType string

const (
	RespPong   ResponseType = "pong"
	RespTools  ResponseType = "tools"
	RespResult ResponseType = "tool_result"
	RespStatus ResponseType = "status"
	RespOk     ResponseType = "ok"
	RespError  ResponseType = "error"
)

// Request is one line of the daemon's request stream. Only the fields
// relevant to Type are populated.
type Request struct {
	Type      RequestType    `json:"type"`
	Server    string         `json:"server,omitempty"`
	Tool      string         `json:"tool,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Response is one line of the daemon's response stream.
type Response struct {
	Type    ResponseType     `json:"type"`
	Tools   []cp.ToolDescriptor `json:"tools,omitempty"`
	Result  *cp.ToolResult   `json:"result,omitempty"`
	Servers []ServerStatus   `json:"servers,omitempty"`
	Message string           `json:"message,omitempty"`
}

// State is a capability server's lifecycle state (§4.4's FSM:
// idle → starting → running → {failed, stopped}). Refresh does not
// move a running record to starting: it tears the child down and
// returns the record to idle, and the next use restarts it through
// idle → starting.
type State string

const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateFailed   State = "failed"
	StateStopped  State = "stopped"
)

// ServerStatus reports one managed server's current state for the
// `status` request.
type ServerStatus struct {
	Name         string `json:"name"`
	State        State  `json:"state"`
	ToolCount    int    `json:"tool_count"`
	LastUsedSecs *int64 `json:"last_used_secs,omitempty"`
	UptimeSecs   *int64 `json:"uptime_secs,omitempty"`
}
