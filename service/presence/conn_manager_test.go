package presence

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func testClock(t0 time.Time) (func() time.Time, func(d time.Duration)) {
	now := t0
	return func() time.Time { return now },
		func(d time.Duration) { now = now.Add(d) }
}

func TestAddRemoveEdges(t *testing.T) {
	clock, _ := testClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	m := NewConnManager(ManagerConf{Clock: clock, SweepEvery: time.Hour}, "gw-test")
	defer m.Close()

	ws1 := &websocket.Conn{}
	ws2 := &websocket.Conn{}

	_, first := m.Add("u1", ws1)
	if !first {
		t.Fatal("first connection must report first=true")
	}
	if got := m.CountFor("u1"); got != 1 {
		t.Fatalf("CountFor = %d, want 1", got)
	}

	// 第二个 tab：不是首连
	_, first = m.Add("u1", ws2)
	if first {
		t.Fatal("second connection must report first=false")
	}
	if got := m.CountFor("u1"); got != 2 {
		t.Fatalf("CountFor = %d, want 2", got)
	}

	_, last := m.Remove(ws1)
	if last {
		t.Fatal("user still has one connection, last must be false")
	}
	_, last = m.Remove(ws2)
	if !last {
		t.Fatal("final disconnect must report last=true")
	}
	if got := m.CountFor("u1"); got != 0 {
		t.Fatalf("CountFor after removal = %d, want 0", got)
	}
}

func TestRemoveUnknownConn(t *testing.T) {
	clock, _ := testClock(time.Now())
	m := NewConnManager(ManagerConf{Clock: clock, SweepEvery: time.Hour}, "gw-test")
	defer m.Close()

	c, last := m.Remove(&websocket.Conn{})
	if c != nil || last {
		t.Fatalf("Remove(unknown) = (%v, %v), want (nil, false)", c, last)
	}
}

func TestRemoveClosesDone(t *testing.T) {
	clock, _ := testClock(time.Now())
	m := NewConnManager(ManagerConf{Clock: clock, SweepEvery: time.Hour}, "gw-test")
	defer m.Close()

	ws := &websocket.Conn{}
	c, _ := m.Add("u1", ws)
	select {
	case <-c.Done():
		t.Fatal("Done closed before Remove")
	default:
	}
	m.Remove(ws)
	select {
	case <-c.Done():
	default:
		t.Fatal("Done not closed after Remove")
	}
}

func TestTouchExtendsExpiry(t *testing.T) {
	clock, advance := testClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	m := NewConnManager(ManagerConf{Clock: clock, TTL: 90 * time.Second, SweepEvery: time.Hour}, "gw-test")
	defer m.Close()

	ws := &websocket.Conn{}
	c, _ := m.Add("u1", ws)
	expire0 := c.ExpireAt

	advance(60 * time.Second)
	m.Touch(ws)
	if !c.ExpireAt.After(expire0) {
		t.Fatalf("Touch did not extend expiry: before=%v after=%v", expire0, c.ExpireAt)
	}
	want := clock().Add(90 * time.Second)
	if !c.ExpireAt.Equal(want) {
		t.Fatalf("ExpireAt = %v, want %v", c.ExpireAt, want)
	}

	m.Remove(ws)
}

func TestSnapshot(t *testing.T) {
	clock, _ := testClock(time.Now())
	m := NewConnManager(ManagerConf{Clock: clock, SweepEvery: time.Hour}, "gw-test")
	defer m.Close()

	ws1, ws2 := &websocket.Conn{}, &websocket.Conn{}
	m.Add("u1", ws1)
	m.Add("u2", ws2)

	snap := m.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot len = %d, want 2", len(snap))
	}
	seen := map[string]bool{}
	for _, c := range snap {
		seen[c.UserID] = true
	}
	if !seen["u1"] || !seen["u2"] {
		t.Fatalf("Snapshot missing users: %v", seen)
	}

	m.Remove(ws1)
	m.Remove(ws2)
}
