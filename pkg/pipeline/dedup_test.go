package pipeline

import (
	"testing"
	"time"
)

func TestDeduperDropsRedelivery(t *testing.T) {
	d := NewDeduper(2 * time.Minute)
	msg := Message{From: "123@g.us", Timestamp: 1756357000, Body: "@628 report"}

	if !d.ShouldProcess(msg) {
		t.Fatalf("first delivery must pass")
	}
	for i := 0; i < 3; i++ {
		if d.ShouldProcess(msg) {
			t.Fatalf("redelivery %d must be dropped", i)
		}
	}

	// A different timestamp is a different message even with the same body.
	other := msg
	other.Timestamp++
	if !d.ShouldProcess(other) {
		t.Fatalf("distinct message must pass")
	}
}

func TestDeduperExpiry(t *testing.T) {
	d := NewDeduper(2 * time.Minute)
	now := time.Now()
	d.now = func() time.Time { return now }

	msg := Message{From: "123@g.us", Timestamp: 1756357000, Body: "status"}
	if !d.ShouldProcess(msg) {
		t.Fatalf("first delivery must pass")
	}

	now = now.Add(119 * time.Second)
	if d.ShouldProcess(msg) {
		t.Fatalf("within TTL must be dropped")
	}

	now = now.Add(2 * time.Second)
	if !d.ShouldProcess(msg) {
		t.Fatalf("after TTL the same key must pass again")
	}
}

func TestDeduperSweep(t *testing.T) {
	d := NewDeduper(time.Minute)
	now := time.Now()
	d.now = func() time.Time { return now }

	for i := int64(0); i < 5; i++ {
		d.ShouldProcess(Message{From: "123@g.us", Timestamp: i})
	}
	now = now.Add(2 * time.Minute)
	if got := d.sweep(); got != 5 {
		t.Fatalf("sweep removed %d entries, want 5", got)
	}
	if len(d.expiry) != 0 {
		t.Fatalf("expired entries left behind: %d", len(d.expiry))
	}
}

func TestDedupKeyUsesBodyPrefix(t *testing.T) {
	d := NewDeduper(time.Minute)
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	a := Message{From: "1@g.us", Timestamp: 1, Body: string(long)}
	b := a
	b.Body = string(long) + "tail beyond the prefix"

	if d.Key(a) != d.Key(b) {
		t.Fatalf("bodies sharing the first 50 chars must share a key")
	}

	if d.Key(Message{From: "1@g.us", Timestamp: 1, Body: "x"}) == d.Key(Message{From: "2@g.us", Timestamp: 1, Body: "x"}) {
		t.Fatalf("sender must be part of the key")
	}
}

func TestEventTimestampFallsBackToRawData(t *testing.T) {
	msg := Message{Data: &MessageData{T: 1756357000}}
	if got := msg.EventTimestamp(); got != "1756357000" {
		t.Fatalf("unexpected timestamp: %q", got)
	}
	msg.Timestamp = 1756357001
	if got := msg.EventTimestamp(); got != "1756357001" {
		t.Fatalf("top-level timestamp must win: %q", got)
	}
}
