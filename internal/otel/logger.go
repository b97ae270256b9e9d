package otel

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// queueSize bounds the events waiting for the writer. Engine timers emit from
// their own goroutines and must never wait on disk.
const queueSize = 4096

// queued is one encoded line plus the event it came from; the ring keeps the
// event so Dur is not lost to the millisecond rounding of the JSON form.
type queued struct {
	line []byte
	ev   Event
}

// Logger appends events to a JSONL stream from a single writer goroutine.
//
// The writer goroutine owns w and is the only reader of queue. mu guards the
// ring pointer, which SetRingBuffer may swap while the writer runs. A nil
// *Logger is valid and discards everything.
type Logger struct {
	w       io.Writer
	queue   chan queued
	stopped chan struct{}
	session string

	mu   sync.Mutex
	ring *RingBuffer

	dropped atomic.Uint64
	closing atomic.Bool
	once    sync.Once
}

// NewLogger starts a Logger that writes to w. Close flushes it.
func NewLogger(w io.Writer) *Logger {
	l := &Logger{
		w:       w,
		queue:   make(chan queued, queueSize),
		stopped: make(chan struct{}),
		session: newSessionID(),
	}
	go l.run()
	return l
}

// NewNullLogger returns a Logger that encodes events but writes nowhere. A
// ring buffer attached to it still fills.
func NewNullLogger() *Logger {
	return NewLogger(io.Discard)
}

func newSessionID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

func (l *Logger) run() {
	defer close(l.stopped)
	for q := range l.queue {
		if _, err := l.w.Write(q.line); err != nil {
			l.dropped.Add(1)
		}
		l.mu.Lock()
		ring := l.ring
		l.mu.Unlock()
		if ring != nil {
			ring.Push(q.ev)
		}
	}
}

// Emit stamps e with the session and, if unset, the current time, then
// queues it. A full queue or a closed logger drops the event.
func (l *Logger) Emit(e Event) {
	if l == nil {
		return
	}
	if l.closing.Load() {
		l.dropped.Add(1)
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = l.session

	line, err := json.Marshal(e)
	if err != nil {
		l.dropped.Add(1)
		return
	}
	l.enqueue(queued{line: append(line, '\n'), ev: e})
}

// enqueue recovers from a send racing with Close.
func (l *Logger) enqueue(q queued) {
	defer func() {
		if recover() != nil {
			l.dropped.Add(1)
		}
	}()
	select {
	case l.queue <- q:
	default:
		l.dropped.Add(1)
	}
}

// Error emits an error-level event carrying err's text.
func (l *Logger) Error(kind EventKind, comp string, err error) {
	e := Event{Level: LevelError, Kind: kind, Comp: comp}
	if err != nil {
		e.Err = err.Error()
	}
	l.Emit(e)
}

// SetRingBuffer mirrors every written event into buf.
func (l *Logger) SetRingBuffer(buf *RingBuffer) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.ring = buf
	l.mu.Unlock()
}

// SessionID is the hex identifier shared by every event of this run.
func (l *Logger) SessionID() string {
	if l == nil {
		return ""
	}
	return l.session
}

// Dropped counts events lost to a full queue, a closed logger or a failed
// write.
func (l *Logger) Dropped() uint64 {
	if l == nil {
		return 0
	}
	return l.dropped.Load()
}

// Close drains the queue and waits for the writer. Later calls do nothing.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.once.Do(func() {
		l.closing.Store(true)
		close(l.queue)
		<-l.stopped
		if n := l.dropped.Load(); n > 0 {
			fmt.Fprintf(os.Stderr, "roomboard: session %s lost %d events\n", l.session, n)
		}
	})
}
