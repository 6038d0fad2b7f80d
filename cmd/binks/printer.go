package main

import (
	"fmt"
	"os"

	"github.com/binkshq/binks/pkg/events"
)

// streamSink renders agent-loop events to the terminal as they arrive:
// tokens print inline to stdout, thinking only at verbose>=2, tool
// activity and warnings/errors to stderr (§4.8, §7's "errors surface
// as events").
func streamSink(verbose int) func(events.Event) {
	return func(ev events.Event) {
		switch ev.Kind {
		case events.KindToken:
			fmt.Print(ev.Text)
		case events.KindThinking:
			if verbose >= 2 {
				fmt.Fprintf(os.Stderr, "\033[90m%s\033[0m", ev.Text)
			}
		case events.KindToolStart:
			fmt.Fprintf(os.Stderr, "\n→ %s(%v)\n", ev.ToolName, ev.ToolArgs)
		case events.KindToolComplete:
			mark := "✓"
			if ev.ToolIsError {
				mark = "✗"
			}
			fmt.Fprintf(os.Stderr, "%s %s (%s)\n", mark, ev.ToolName, ev.Duration)
			if verbose >= 1 {
				fmt.Fprintf(os.Stderr, "  %s\n", ev.ToolResult)
			}
		case events.KindWarning:
			fmt.Fprintf(os.Stderr, "warning: %s\n", ev.Text)
		case events.KindError:
			fmt.Fprintf(os.Stderr, "error: %s\n", ev.Text)
		}
	}
}
