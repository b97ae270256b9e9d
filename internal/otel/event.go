// Package otel provides structured observability for roomboard.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously via a buffered channel and background drain goroutine.
// An optional RingBuffer keeps recent events for the editor's debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an observability event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Coordination events
	KindDepart  EventKind = "move.depart"
	KindArrive  EventKind = "move.arrive"
	KindResolve EventKind = "move.resolve"
	KindExpire  EventKind = "move.expire"
	KindReject  EventKind = "move.reject"

	// Board events
	KindApply      EventKind = "board.apply"
	KindApplyError EventKind = "board.apply_error"
	KindClamp      EventKind = "board.clamp"
	KindBacklog    EventKind = "board.backlog"

	// Journal events
	KindJournalError EventKind = "journal.error"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// Trace events
	KindMsgReceived EventKind = "trace.msg_received"
)

// Event is the universal observability record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`       // component: "movecoord", "board", "ui", "main"
	SessionID string         `json:"session_id,omitempty"` // random hex, same for entire app run
	Category  string         `json:"cat,omitempty"`
	Ticket    uint64         `json:"ticket,omitempty"`
	From      string         `json:"from,omitempty"` // "<path>#<index>"
	To        string         `json:"to,omitempty"`   // "<path>#<index>"
	Dur       time.Duration  `json:"-"`              // not serialized directly
	DurMs     float64        `json:"dur_ms,omitempty"`
	Count     int            `json:"count,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
