package ui

import (
	"sync"

	"github.com/abelbrown/roomboard/internal/tree"
)

// activityDepth is how many applied events the status line can recall.
const activityDepth = 8

// Activity remembers the most recent applied events for the status line.
// Its Record method is a board sink.
type Activity struct {
	mu     sync.Mutex
	events []tree.Event
	total  int
}

// NewActivity returns an empty Activity.
func NewActivity() *Activity {
	return &Activity{}
}

// Record stores ev.
func (a *Activity) Record(ev tree.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
	if len(a.events) > activityDepth {
		a.events = a.events[len(a.events)-activityDepth:]
	}
	a.total++
}

// Last returns the newest event, if any.
func (a *Activity) Last() (tree.Event, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.events) == 0 {
		return tree.Event{}, false
	}
	return a.events[len(a.events)-1], true
}

// Total returns how many events were recorded.
func (a *Activity) Total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total
}
