package main

import "fmt"

// ChatCmd implements `chat MESSAGE` (§6): a single-shot LLM call with
// no tool calling and no conversation state.
type ChatCmd struct {
	Message string `arg:"" help:"Message to send."`
}

func (c *ChatCmd) Run(cc *CommandContext) error {
	reply, err := cc.LLM.Chat(backgroundCtx(), c.Message)
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	fmt.Println(reply)
	return nil
}
