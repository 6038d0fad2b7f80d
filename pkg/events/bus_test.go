package events

import "testing"

func TestBusFanOutPreservesOrder(t *testing.T) {
	b := NewBus(8)
	sub := b.Subscribe()

	b.Publish(Token("a"))
	b.Publish(Token("b"))
	b.Publish(Token("c"))
	b.Close()

	var got []string
	for ev := range sub.Events() {
		got = append(got, ev.Text)
	}
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBusDropsOnFullChannelWithoutBlocking(t *testing.T) {
	b := NewBus(1)
	sub := b.Subscribe()

	b.Publish(Token("1")) // fills the buffer
	b.Publish(Token("2")) // dropped
	b.Publish(Token("3")) // dropped

	if d := b.Dropped(sub); d != 2 {
		t.Errorf("Dropped() = %d, want 2", d)
	}
}

func TestBusIndependentConsumers(t *testing.T) {
	b := NewBus(8)
	sub1 := b.Subscribe()
	sub2 := b.Subscribe()

	b.Publish(Status("hello"))
	sub1.Close()
	b.Publish(Status("world"))

	ev := <-sub2.Events()
	if ev.Text != "hello" {
		t.Fatalf("sub2 first event = %q, want hello", ev.Text)
	}
	ev = <-sub2.Events()
	if ev.Text != "world" {
		t.Fatalf("sub2 second event = %q, want world", ev.Text)
	}
}
