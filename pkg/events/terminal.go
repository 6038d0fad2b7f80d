package events

import (
	"fmt"
	"io"
	"os"
)

// TerminalRenderer is the CLI's consumer (§4.8): it prints tokens as
// they stream and renders non-token events as single status lines.
type TerminalRenderer struct {
	w        io.Writer
	useColor bool
}

// NewTerminalRenderer creates a renderer writing to w, colorizing output
// when w is a terminal.
func NewTerminalRenderer(w io.Writer) *TerminalRenderer {
	useColor := false
	if f, ok := w.(*os.File); ok {
		if fi, err := f.Stat(); err == nil {
			useColor = (fi.Mode() & os.ModeCharDevice) != 0
		}
	}
	return &TerminalRenderer{w: w, useColor: useColor}
}

// Run drains sub until its channel is closed, rendering each event.
// Intended to run in its own goroutine alongside the agent loop.
func (r *TerminalRenderer) Run(sub *Subscription) {
	for ev := range sub.Events() {
		r.render(ev)
	}
}

func (r *TerminalRenderer) render(ev Event) {
	switch ev.Kind {
	case KindToken:
		fmt.Fprint(r.w, ev.Text)
	case KindThinking:
		r.line("90", "thinking: "+ev.Text)
	case KindToolStart:
		r.line("36", fmt.Sprintf("-> %s(%v)", ev.ToolName, ev.ToolArgs))
	case KindToolComplete:
		color := "32"
		prefix := "<-"
		if ev.ToolIsError {
			color = "31"
			prefix = "x-"
		}
		r.line(color, fmt.Sprintf("%s %s (%s): %s", prefix, ev.ToolName, ev.Duration, ev.ToolResult))
	case KindProgress:
		r.line("36", ev.Text)
	case KindStatus:
		r.line("36", ev.Text)
	case KindWarning:
		r.line("33", "warning: "+ev.Text)
	case KindError:
		r.line("31", "error: "+ev.Text)
	case KindSystem:
		r.line("90", ev.Text)
	case KindText:
		fmt.Fprintln(r.w, ev.Text)
	}
}

func (r *TerminalRenderer) line(colorCode, text string) {
	if r.useColor {
		fmt.Fprintf(r.w, "\033[%sm%s\033[0m\n", colorCode, text)
		return
	}
	fmt.Fprintln(r.w, text)
}
