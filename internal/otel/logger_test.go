package otel

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

// decodeLines parses every JSONL line written to buf.
func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line %d is not JSON: %v", len(out)+1, err)
		}
		out = append(out, m)
	}
	return out
}

func TestMoveLifecycleFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Emit(Event{Level: LevelDebug, Kind: KindDepart, Comp: "movecoord", Category: "element", Ticket: 3, From: "0#2"})
	l.Emit(Event{Level: LevelDebug, Kind: KindArrive, Comp: "movecoord", Category: "element", Ticket: 4, To: "1#0"})
	l.Emit(Event{Level: LevelInfo, Kind: KindResolve, Comp: "movecoord", Category: "element", Ticket: 3,
		From: "0#2", To: "1#0", Dur: 40 * time.Millisecond})
	l.Emit(Event{Level: LevelInfo, Kind: KindApply, Comp: "board", Category: "element", Msg: "moved 0#2 -> 1#0"})
	l.Close()

	lines := decodeLines(t, &buf)
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}

	tests := []struct {
		kind, level, comp, from, to string
		ticket                      float64
	}{
		{"move.depart", "debug", "movecoord", "0#2", "", 3},
		{"move.arrive", "debug", "movecoord", "", "1#0", 4},
		{"move.resolve", "info", "movecoord", "0#2", "1#0", 3},
		{"board.apply", "info", "board", "", "", 0},
	}
	for i, tt := range tests {
		m := lines[i]
		if m["kind"] != tt.kind || m["level"] != tt.level || m["comp"] != tt.comp {
			t.Errorf("line %d = %v %v %v, want %s %s %s", i, m["kind"], m["level"], m["comp"], tt.kind, tt.level, tt.comp)
		}
		if m["cat"] != "element" {
			t.Errorf("line %d cat = %v", i, m["cat"])
		}
		if got, _ := m["from"].(string); got != tt.from {
			t.Errorf("line %d from = %q, want %q", i, got, tt.from)
		}
		if got, _ := m["to"].(string); got != tt.to {
			t.Errorf("line %d to = %q, want %q", i, got, tt.to)
		}
		if got, _ := m["ticket"].(float64); got != tt.ticket {
			t.Errorf("line %d ticket = %v, want %v", i, got, tt.ticket)
		}
	}
	if lines[2]["dur_ms"] != float64(40) {
		t.Errorf("resolve dur_ms = %v, want 40", lines[2]["dur_ms"])
	}
}

func TestExpireCarriesWindow(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Emit(Event{Level: LevelInfo, Kind: KindExpire, Category: "room", Ticket: 9, To: "/#1",
		Dur: 1500 * time.Millisecond, Msg: "arrival unmatched"})
	l.Close()

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines", len(lines))
	}
	m := lines[0]
	if m["dur_ms"] != float64(1500) {
		t.Errorf("dur_ms = %v", m["dur_ms"])
	}
	if _, ok := m["from"]; ok {
		t.Error("an expired arrival has no origin")
	}
	if m["msg"] != "arrival unmatched" || m["cat"] != "room" {
		t.Errorf("unexpected fields: %v", m)
	}
}

func TestStampsTimeAndSession(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	before := time.Now()
	l.Emit(Event{Kind: KindStartup})
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l.Emit(Event{Kind: KindShutdown, Time: fixed})
	l.Close()

	var evs []Event
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatal(err)
		}
		evs = append(evs, ev)
	}
	if len(evs) != 2 {
		t.Fatalf("got %d events", len(evs))
	}
	if evs[0].Time.Before(before) {
		t.Errorf("startup time %v precedes Emit", evs[0].Time)
	}
	if !evs[1].Time.Equal(fixed) {
		t.Errorf("explicit time overwritten: %v", evs[1].Time)
	}
	if len(evs[0].SessionID) != 16 || evs[0].SessionID != evs[1].SessionID || evs[0].SessionID != l.SessionID() {
		t.Errorf("session ids %q %q, logger %q", evs[0].SessionID, evs[1].SessionID, l.SessionID())
	}
}

func TestQuietEventOmitsLocation(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Emit(Event{Kind: KindStartup})
	l.Close()

	m := decodeLines(t, &buf)[0]
	for _, field := range []string{"dur_ms", "count", "cat", "ticket", "from", "to", "err", "msg", "extra"} {
		if _, ok := m[field]; ok {
			t.Errorf("%s present on a bare startup event", field)
		}
	}
}

func TestErrorHelper(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Error(KindApplyError, "board", errors.New("no container at 3"))
	l.Error(KindJournalError, "journal", nil)
	l.Close()

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if lines[0]["level"] != "error" || lines[0]["kind"] != "board.apply_error" || lines[0]["err"] != "no container at 3" {
		t.Errorf("apply error = %v", lines[0])
	}
	if _, ok := lines[1]["err"]; ok {
		t.Errorf("nil error should leave err empty: %v", lines[1])
	}
}

func TestTimerGoroutinesEmitConcurrently(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(ticket uint64) {
			defer wg.Done()
			l.Emit(Event{Kind: KindExpire, Comp: "movecoord", Ticket: ticket})
		}(uint64(i))
	}
	wg.Wait()
	l.Close()

	seen := make(map[float64]bool)
	for _, m := range decodeLines(t, &buf) {
		seen[m["ticket"].(float64)] = true
	}
	if len(seen) != 100 {
		t.Errorf("saw %d distinct tickets, want 100", len(seen))
	}
}

func TestCloseFlushesAndIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Emit(Event{Kind: KindStartup})
	l.Emit(Event{Kind: KindShutdown})
	l.Close()
	l.Close()

	if n := len(decodeLines(t, &buf)); n != 2 {
		t.Fatalf("got %d lines after Close, want 2", n)
	}
	l.Emit(Event{Kind: KindApply})
	if l.Dropped() != 1 {
		t.Errorf("Dropped = %d after emitting into a closed logger", l.Dropped())
	}
}

func TestFullQueueDrops(t *testing.T) {
	w := &stalledWriter{entered: make(chan struct{}), release: make(chan struct{})}
	l := NewLogger(w)

	l.Emit(Event{Kind: KindDepart})
	<-w.entered

	for i := 0; i < queueSize+10; i++ {
		l.Emit(Event{Kind: KindDepart})
	}
	if l.Dropped() == 0 {
		t.Error("no drops with the writer stalled and the queue overfilled")
	}

	close(w.release)
	l.Close()
}

// stalledWriter blocks its first Write until release is closed.
type stalledWriter struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (w *stalledWriter) Write(p []byte) (int, error) {
	w.once.Do(func() {
		close(w.entered)
		<-w.release
	})
	return len(p), nil
}

func TestRingKeepsExactDuration(t *testing.T) {
	ring := NewRingBuffer(8)
	l := NewNullLogger()
	l.SetRingBuffer(ring)

	l.Emit(Event{Kind: KindResolve, Ticket: 1, Dur: 1234567 * time.Nanosecond})
	l.Close()

	last := ring.Last(1)
	if len(last) != 1 || last[0].Dur != 1234567*time.Nanosecond {
		t.Errorf("ring = %+v", last)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Emit(Event{Kind: KindStartup})
	l.Error(KindError, "main", errors.New("x"))
	l.SetRingBuffer(NewRingBuffer(4))
	if l.Dropped() != 0 || l.SessionID() != "" {
		t.Error("nil logger should report zero values")
	}
	l.Close()
}
