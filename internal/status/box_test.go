package status

import (
	"testing"
	"time"
)

func TestSetAndCurrent(t *testing.T) {
	b := New(time.Second)
	defer b.Close()

	if _, ok := b.Current(); ok {
		t.Fatal("new box should be empty")
	}

	b.Info("Expense added")
	msg, ok := b.Current()
	if !ok || msg.Text != "Expense added" || msg.Kind != Info {
		t.Fatalf("unexpected message: %+v, %v", msg, ok)
	}

	b.Error("Something failed")
	msg, _ = b.Current()
	if msg.Kind != Error {
		t.Fatalf("latest message should win, got %+v", msg)
	}
}

func TestAutoDismissAfterTTL(t *testing.T) {
	b := New(30 * time.Millisecond)
	defer b.Close()

	b.Info("short-lived")
	if _, ok := b.Current(); !ok {
		t.Fatal("message should be visible right after set")
	}

	time.Sleep(80 * time.Millisecond)
	if msg, ok := b.Current(); ok {
		t.Fatalf("message should have expired, still showing %+v", msg)
	}
}

func TestNewMessageRestartsTimer(t *testing.T) {
	b := New(60 * time.Millisecond)
	defer b.Close()

	b.Info("first")
	time.Sleep(40 * time.Millisecond)
	b.Info("second") // restarts the countdown

	time.Sleep(40 * time.Millisecond)
	msg, ok := b.Current()
	if !ok || msg.Text != "second" {
		t.Fatalf("second message should still be visible, got %+v, %v", msg, ok)
	}

	time.Sleep(50 * time.Millisecond)
	if _, ok := b.Current(); ok {
		t.Fatal("second message should have expired by now")
	}
}

func TestSupersedingAtTTLBoundaryKeepsFullLifetime(t *testing.T) {
	ttl := 40 * time.Millisecond
	b := New(ttl)
	defer b.Close()

	// Setting the second message exactly when the first one's timer fires
	// used to let the stale callback dismiss it almost immediately.
	for i := 0; i < 20; i++ {
		b.Info("first")
		time.Sleep(ttl)
		b.Info("second")

		time.Sleep(ttl / 4)
		msg, ok := b.Current()
		if !ok || msg.Text != "second" {
			t.Fatalf("iteration %d: superseding message dismissed early, got %+v, %v", i, msg, ok)
		}
	}
}

func TestChangesDeliversTransitions(t *testing.T) {
	b := New(30 * time.Millisecond)
	defer b.Close()

	b.Info("hello")
	select {
	case msg := <-b.Changes():
		if msg.Text != "hello" {
			t.Fatalf("unexpected change: %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no change delivered")
	}

	// Expiry emits the empty message.
	select {
	case msg := <-b.Changes():
		if msg.Text != "" {
			t.Fatalf("expected empty message on expiry, got %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no expiry change delivered")
	}
}

func TestCloseStopsTimer(t *testing.T) {
	b := New(20 * time.Millisecond)
	b.Info("message")
	b.Close()

	time.Sleep(50 * time.Millisecond)
	// After Close the box keeps its last state and ignores writes.
	b.Info("ignored")
	if msg, ok := b.Current(); ok && msg.Text == "ignored" {
		t.Fatal("closed box must ignore writes")
	}
}
