package llm

import "testing"

func TestHistoryClearPreservesSystemPrompt(t *testing.T) {
	h := NewHistory("you are a helper")
	h.Append(Message{Role: RoleUser, Content: "hi"})
	h.Append(Message{Role: RoleAssistant, Content: "hello"})

	h.Clear()

	msgs := h.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message after clear, got %d", len(msgs))
	}
	if msgs[0].Role != RoleSystem || msgs[0].Content != "you are a helper" {
		t.Fatalf("unexpected surviving message: %+v", msgs[0])
	}
}

func TestHistoryClearWithNoSystemPromptIsEmpty(t *testing.T) {
	h := NewHistory("")
	h.Append(Message{Role: RoleUser, Content: "hi"})

	h.Clear()

	if len(h.Messages()) != 0 {
		t.Fatalf("expected empty history, got %+v", h.Messages())
	}
}

func TestNewHistorySeedsSystemPrompt(t *testing.T) {
	h := NewHistory("sys")
	msgs := h.Messages()
	if len(msgs) != 1 || msgs[0].Role != RoleSystem {
		t.Fatalf("expected seeded system message, got %+v", msgs)
	}
}
