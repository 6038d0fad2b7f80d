package capability

import (
	"fmt"
	"time"

	"github.com/binkshq/binks/pkg/cp"
	"github.com/binkshq/binks/pkg/schema"
)

// nowArgs is the (empty) argument struct for the "now" tool.
type nowArgs struct{}

// sleepArgs is the argument struct for the "sleep" tool.
type sleepArgs struct {
	Milliseconds int `json:"milliseconds" jsonschema:"required,description=How long to sleep in milliseconds,minimum=0,maximum=60000"`
}

// Control is the core's one built-in embedded capability server: a
// "now" tool returning the current time and a "sleep" tool that gives
// tests and demos a long-running call without needing an external
// subprocess. The sleep always runs its full duration; it is not
// interrupted when the caller's context is cancelled.
type Control struct {
	nowSchema   map[string]any
	sleepSchema map[string]any
}

// NewControl builds the control server, generating its tool schemas
// once at construction time.
func NewControl() *Control {
	return &Control{
		nowSchema:   schema.Describe(nowArgs{}),
		sleepSchema: schema.Describe(sleepArgs{}),
	}
}

func (c *Control) ServerName() string { return "control" }

func (c *Control) ListTools() []cp.ToolDescriptor {
	return []cp.ToolDescriptor{
		{
			ServerID:    "control",
			Name:        "now",
			Description: "Returns the current time in RFC 3339 format.",
			InputSchema: c.nowSchema,
		},
		{
			ServerID:    "control",
			Name:        "sleep",
			Description: "Sleeps for the given number of milliseconds; the sleep is not interrupted by cancellation.",
			InputSchema: c.sleepSchema,
		},
	}
}

func (c *Control) Call(name string, args map[string]any) (cp.ToolResult, error) {
	switch name {
	case "now":
		return c.callNow()
	case "sleep":
		return c.callSleep(args)
	default:
		return cp.ToolResult{}, fmt.Errorf("control: unknown tool %q", name)
	}
}

func (c *Control) callNow() (cp.ToolResult, error) {
	text := time.Now().Format(time.RFC3339)
	return cp.ToolResult{Content: []cp.ContentPart{{Type: "text", Text: text}}}, nil
}

func (c *Control) callSleep(args map[string]any) (cp.ToolResult, error) {
	ms, _ := args["milliseconds"].(float64)
	if ms < 0 {
		ms = 0
	}

	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	<-timer.C

	return cp.ToolResult{Content: []cp.ContentPart{{Type: "text", Text: "slept"}}}, nil
}
