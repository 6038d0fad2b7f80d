// Package events defines the agent loop's typed event stream (§3, §4.8)
// and a best-effort, per-consumer fan-out bus.
package events

import "time"

// Kind discriminates an Event's variant.
type Kind string

const (
	KindToken        Kind = "token"
	KindThinking     Kind = "thinking"
	KindToolStart    Kind = "tool_start"
	KindToolComplete Kind = "tool_complete"
	KindProgress     Kind = "progress"
	KindStatus       Kind = "status"
	KindWarning      Kind = "warning"
	KindError        Kind = "error"
	KindSystem       Kind = "system"
	KindText         Kind = "text"
)

// Event is a tagged union carried on the bus. Only the fields relevant
// to Kind are populated; the rest are zero.
type Event struct {
	Kind Kind

	// Token, Thinking, Status, Warning, Error, System, Text
	Text string

	// ToolStart, ToolComplete
	ToolName string
	ToolID   string
	ToolArgs map[string]any

	// ToolComplete only
	ToolResult  string
	ToolIsError bool
	Duration    time.Duration

	// Progress only
	ProgressDone bool
}

func Token(s string) Event    { return Event{Kind: KindToken, Text: s} }
func Thinking(s string) Event { return Event{Kind: KindThinking, Text: s} }
func Status(s string) Event   { return Event{Kind: KindStatus, Text: s} }
func Warning(s string) Event  { return Event{Kind: KindWarning, Text: s} }
func Error(s string) Event    { return Event{Kind: KindError, Text: s} }
func System(s string) Event   { return Event{Kind: KindSystem, Text: s} }
func Text(s string) Event     { return Event{Kind: KindText, Text: s} }

func Progress(message string, done bool) Event {
	return Event{Kind: KindProgress, Text: message, ProgressDone: done}
}

func ToolStart(id, name string, args map[string]any) Event {
	return Event{Kind: KindToolStart, ToolID: id, ToolName: name, ToolArgs: args}
}

func ToolComplete(id, name, result string, duration time.Duration, isError bool) Event {
	return Event{
		Kind:        KindToolComplete,
		ToolID:      id,
		ToolName:    name,
		ToolResult:  result,
		ToolIsError: isError,
		Duration:    duration,
	}
}
