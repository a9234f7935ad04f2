package sse

import (
	"testing"
	"time"

	"github.com/LBIT2016/trading-gamers/internal/testutil"
)

func TestFormatSSEMessage(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		data      string
		expected  string
	}{
		{
			name:      "single line data",
			eventName: "test-event",
			data:      "hello world",
			expected:  "event: test-event\ndata: hello world\n\n",
		},
		{
			name:      "multi-line data",
			eventName: "listings-update",
			data:      "<div>\n  <p>line1</p>\n  <p>line2</p>\n</div>",
			expected:  "event: listings-update\ndata: <div>\ndata:   <p>line1</p>\ndata:   <p>line2</p>\ndata: </div>\n\n",
		},
		{
			name:      "empty data",
			eventName: "ping",
			data:      "",
			expected:  "event: ping\ndata: \n\n",
		},
		{
			name:      "data with carriage returns",
			eventName: "test",
			data:      "line1\r\nline2",
			expected:  "event: test\ndata: line1\ndata: line2\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatSSEMessage(tt.eventName, tt.data)
			if string(result) != tt.expected {
				t.Errorf("formatSSEMessage(%q, %q)\ngot:  %q\nwant: %q",
					tt.eventName, tt.data, string(result), tt.expected)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "single line",
			input:    "hello",
			expected: []string{"hello"},
		},
		{
			name:     "two lines",
			input:    "line1\nline2",
			expected: []string{"line1", "line2"},
		},
		{
			name:     "trailing newline",
			input:    "line1\n",
			expected: []string{"line1"},
		},
		{
			name:     "empty string",
			input:    "",
			expected: []string{""},
		},
		{
			name:     "crlf line endings",
			input:    "line1\r\nline2\r\n",
			expected: []string{"line1", "line2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitLines(tt.input)
			if len(result) != len(tt.expected) {
				t.Errorf("splitLines(%q) returned %d lines, want %d",
					tt.input, len(result), len(tt.expected))
				return
			}
			for i, line := range result {
				if line != tt.expected[i] {
					t.Errorf("splitLines(%q)[%d] = %q, want %q",
						tt.input, i, line, tt.expected[i])
				}
			}
		})
	}
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub(TopicListings, testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient("client1")
	hub.Register(client)

	// Give the hub time to process registration
	time.Sleep(10 * time.Millisecond)

	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount() = %d, want 1", hub.ClientCount())
	}

	hub.BroadcastEvent("test-event", "test data")

	select {
	case msg := <-client.send:
		expected := "event: test-event\ndata: test data\n\n"
		if string(msg) != expected {
			t.Errorf("client received %q, want %q", string(msg), expected)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("client did not receive message")
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub(TopicListings, testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient("client1")
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	hub.Unregister(client)
	time.Sleep(10 * time.Millisecond)

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after unregister, want 0", hub.ClientCount())
	}

	// The send channel is closed on unregister
	if _, ok := <-client.send; ok {
		t.Error("client channel still open after unregister")
	}
}

func TestHub_BroadcastToMultipleClients(t *testing.T) {
	hub := NewHub(TopicUsers, testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	clients := []*Client{NewClient("a"), NewClient("b"), NewClient("c")}
	for _, c := range clients {
		hub.Register(c)
	}
	time.Sleep(10 * time.Millisecond)

	if hub.ClientCount() != 3 {
		t.Errorf("ClientCount() = %d, want 3", hub.ClientCount())
	}

	hub.BroadcastEvent("update", "data")

	for i, client := range clients {
		select {
		case msg := <-client.send:
			expected := "event: update\ndata: data\n\n"
			if string(msg) != expected {
				t.Errorf("client %d received %q, want %q", i+1, string(msg), expected)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("client %d did not receive message", i+1)
		}
	}
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub := NewHub(TopicUsers, testutil.NopLogger())
	go hub.Run()

	client := NewClient("a")
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	hub.Close()

	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("expected closed channel after hub close")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("client channel not closed after hub close")
	}
}

func TestNewClient_GeneratesID(t *testing.T) {
	if got := NewClient("fixed").ID(); got != "fixed" {
		t.Errorf("ID() = %q, want fixed", got)
	}
	a, b := NewClient(""), NewClient("")
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("generated ids %q and %q should be distinct and non-empty", a.ID(), b.ID())
	}
}

func TestHubManager_GetOrCreateHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.CloseAll()

	hub1 := manager.GetOrCreateHub(TopicListings)
	if hub1 == nil {
		t.Fatal("GetOrCreateHub returned nil")
	}

	if hub2 := manager.GetOrCreateHub(TopicListings); hub1 != hub2 {
		t.Error("GetOrCreateHub returned different hub for same topic")
	}

	if hub3 := manager.GetOrCreateHub(TopicUsers); hub3 == hub1 {
		t.Error("GetOrCreateHub returned same hub for different topic")
	}
}

func TestHubManager_GetHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.CloseAll()

	if hub := manager.GetHub("missing"); hub != nil {
		t.Error("GetHub returned non-nil for non-existent hub")
	}

	created := manager.GetOrCreateHub(TopicListings)
	if got := manager.GetHub(TopicListings); got != created {
		t.Error("GetHub returned different hub than GetOrCreateHub")
	}
}

func TestHubManager_CloseAll(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())

	manager.GetOrCreateHub(TopicListings)
	manager.GetOrCreateHub(TopicUsers)
	manager.CloseAll()

	if manager.GetHub(TopicListings) != nil || manager.GetHub(TopicUsers) != nil {
		t.Error("hubs still exist after CloseAll")
	}

	// Closing again is a no-op
	manager.CloseAll()
}
