package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, owner string) *Client {
	return &Client{
		hub:   hub,
		owner: owner,
		send:  make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, "alice@example.com")
	c2 := mockClient(hub, "alice@example.com")
	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)
	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, "alice@example.com")
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcastScopedToOwner(t *testing.T) {
	hub := NewHub(slog.Default())

	alice := mockClient(hub, "alice@example.com")
	bob := mockClient(hub, "bob@example.com")
	hub.Register(alice)
	hub.Register(bob)

	msg := NewMessage("subscription", "updated", "sub-42", map[string]any{"status": "paused"})
	hub.Broadcast("alice@example.com", msg)

	select {
	case data := <-alice.send:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != "subscription_updated" {
			t.Errorf("type = %q, want subscription_updated", got.Type)
		}
		if got.ID != "sub-42" {
			t.Errorf("id = %q, want sub-42", got.ID)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}

	select {
	case <-bob.send:
		t.Fatal("bob received alice's message")
	default:
	}

	hub.Unregister(alice)
	hub.Unregister(bob)
}

func TestBroadcastEmptyHub(t *testing.T) {
	hub := NewHub(slog.Default())
	// Should not panic
	hub.Broadcast("nobody@example.com", NewMessage("category", "deleted", "cat-1", nil))
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())

	c := mockClient(hub, "alice@example.com")
	hub.Register(c)

	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast("alice@example.com", NewMessage("subscription", "updated", "x", nil))
	}

	// This one is dropped, not blocked on.
	hub.Broadcast("alice@example.com", NewMessage("subscription", "updated", "dropped", nil))

	count := 0
	for {
		select {
		case <-c.send:
			count++
		default:
			goto done
		}
	}
done:
	if count != sendBufferSize {
		t.Errorf("expected %d messages, got %d", sendBufferSize, count)
	}

	hub.Unregister(c)
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("subscription", "created", "sub-5", nil)
	if msg.Type != "subscription_created" {
		t.Errorf("type = %q", msg.Type)
	}
	if msg.Entity != "subscription" || msg.Action != "created" || msg.ID != "sub-5" {
		t.Errorf("fields = %+v", msg)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub, "alice@example.com")
			hub.Register(c)
			hub.Broadcast("alice@example.com", NewMessage("subscription", "updated", "c", nil))
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}

	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}
