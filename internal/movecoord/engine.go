package movecoord

import (
	"sync"
	"time"

	"github.com/abelbrown/roomboard/internal/clock"
	"github.com/abelbrown/roomboard/internal/otel"
	"github.com/abelbrown/roomboard/internal/path"
)

const comp = "movecoord"

// record is one pending notification.
type record[T any] struct {
	ticket  Ticket
	kind    Kind
	cat     Category
	loc     Location
	payload T
	at      time.Time
	timer   clock.Timer
	notify  func(Notice[T])
}

// Engine correlates departures and arrivals. One Engine is shared by every
// container adapter; create it at startup and pass it around.
//
// Calls are serialised by an internal mutex, so expiry callbacks running on
// timer goroutines observe the same single-threaded model as the UI loop.
// A record leaves its queue exactly once, under that mutex, either by a
// match or by its timer; whichever comes second finds nothing to do.
type Engine[T any] struct {
	mu         sync.Mutex
	cfg        engineConfig[T]
	departures map[Category][]*record[T]
	arrivals   map[Category][]*record[T]
	nextTicket Ticket
	stats      Stats
	closed     bool
}

// New creates an Engine. Without options it uses the wall clock, a 150ms
// window and FIFO matching.
func New[T any](opts ...Option[T]) *Engine[T] {
	cfg := engineConfig[T]{
		window: DefaultWindow,
		clock:  clock.Real(),
		policy: FIFO,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine[T]{
		cfg:        cfg,
		departures: make(map[Category][]*record[T]),
		arrivals:   make(map[Category][]*record[T]),
	}
}

// Window returns the correlation window.
func (e *Engine[T]) Window() time.Duration {
	return e.cfg.window
}

// RecordDeparture reports that payload left src at index.
//
// If an arrival in the same category is waiting, the pair resolves as a
// move: the arrival's owner receives a Matched notice carrying payload and
// the call returns Resolved with the arrival's location. Otherwise the
// departure waits and the call returns Pending; notify (or the engine-wide
// sink) later receives exactly one Matched or Expired notice.
//
// payload must be a copy the caller will not mutate afterwards.
func (e *Engine[T]) RecordDeparture(cat Category, src path.Path, index int, payload T, notify func(Notice[T])) Outcome[T] {
	return e.record(Departure, cat, Location{Path: src, Index: index}, payload, notify)
}

// RecordArrival reports that an item entered dst at index.
//
// If a departure in the same category is waiting, the call returns Resolved
// with the departure's location and payload, and the departure's owner
// receives a Matched notice. Otherwise the arrival waits and the call
// returns Pending.
func (e *Engine[T]) RecordArrival(cat Category, dst path.Path, index int, notify func(Notice[T])) Outcome[T] {
	var zero T
	return e.record(Arrival, cat, Location{Path: dst, Index: index}, zero, notify)
}

func (e *Engine[T]) record(kind Kind, cat Category, loc Location, payload T, notify func(Notice[T])) Outcome[T] {
	if err := e.validate(cat, loc.Index); err != nil {
		return e.reject(kind, cat, loc, err)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return e.reject(kind, cat, loc, ErrClosed)
	}

	if kind == Departure {
		e.stats.Departures++
	} else {
		e.stats.Arrivals++
	}

	waiting, own := e.queues(kind)
	if match := e.take(waiting, cat); match != nil {
		e.stats.Resolved++
		e.mu.Unlock()

		moved := payload
		if kind == Arrival {
			moved = match.payload
		}
		e.logResolve(match, loc)
		e.deliver(match, Notice[T]{
			Ticket:      match.ticket,
			Kind:        match.kind,
			Terminal:    Matched,
			Category:    cat,
			Own:         match.loc,
			Counterpart: loc,
			Payload:     moved,
		})
		return Outcome[T]{
			State:       Resolved,
			Ticket:      match.ticket,
			Counterpart: match.loc,
			Payload:     moved,
		}
	}

	e.nextTicket++
	rec := &record[T]{
		ticket:  e.nextTicket,
		kind:    kind,
		cat:     cat,
		loc:     loc,
		payload: payload,
		at:      e.cfg.clock.Now(),
		notify:  notify,
	}
	own[cat] = append(own[cat], rec)
	rec.timer = e.cfg.clock.AfterFunc(e.cfg.window, func() { e.expire(rec) })
	e.mu.Unlock()

	ev := otel.Event{
		Level:    otel.LevelDebug,
		Kind:     otel.KindDepart,
		Comp:     comp,
		Category: string(cat),
		Ticket:   uint64(rec.ticket),
	}
	if kind == Departure {
		ev.From = loc.String()
	} else {
		ev.Kind = otel.KindArrive
		ev.To = loc.String()
	}
	e.cfg.logger.Emit(ev)

	return Outcome[T]{State: Pending, Ticket: rec.ticket}
}

// queues returns the queue a new notification of kind matches against and
// the queue it waits in. Caller holds e.mu.
func (e *Engine[T]) queues(kind Kind) (waiting, own map[Category][]*record[T]) {
	if kind == Departure {
		return e.arrivals, e.departures
	}
	return e.departures, e.arrivals
}

// take removes and returns the record the policy selects, skipping records
// whose window has already elapsed (their timer is about to expire them).
// Caller holds e.mu.
func (e *Engine[T]) take(q map[Category][]*record[T], cat Category) *record[T] {
	recs := q[cat]
	now := e.cfg.clock.Now()
	for n := range recs {
		i := n
		if e.cfg.policy == LIFO {
			i = len(recs) - 1 - n
		}
		r := recs[i]
		if now.Sub(r.at) >= e.cfg.window {
			continue
		}
		e.removeAt(q, cat, i)
		r.timer.Stop()
		return r
	}
	return nil
}

// expire runs when a record's window elapses.
func (e *Engine[T]) expire(rec *record[T]) {
	e.mu.Lock()
	q := e.departures
	if rec.kind == Arrival {
		q = e.arrivals
	}
	i := indexOf(q[rec.cat], rec)
	if i < 0 {
		// Consumed by a match first.
		e.mu.Unlock()
		return
	}
	e.removeAt(q, rec.cat, i)
	if rec.kind == Departure {
		e.stats.ExpiredDepartures++
	} else {
		e.stats.ExpiredArrivals++
	}
	e.mu.Unlock()

	ev := otel.Event{
		Level:    otel.LevelInfo,
		Kind:     otel.KindExpire,
		Comp:     comp,
		Category: string(rec.cat),
		Ticket:   uint64(rec.ticket),
		Dur:      e.cfg.window,
		Msg:      rec.kind.String() + " unmatched",
	}
	if rec.kind == Departure {
		ev.From = rec.loc.String()
	} else {
		ev.To = rec.loc.String()
	}
	e.cfg.logger.Emit(ev)

	e.deliver(rec, Notice[T]{
		Ticket:   rec.ticket,
		Kind:     rec.kind,
		Terminal: Expired,
		Category: rec.cat,
		Own:      rec.loc,
		Payload:  rec.payload,
	})
}

// removeAt deletes q[cat][i], dropping the key when the queue empties.
// Caller holds e.mu.
func (e *Engine[T]) removeAt(q map[Category][]*record[T], cat Category, i int) {
	recs := q[cat]
	if len(recs) == 1 {
		delete(q, cat)
		return
	}
	out := make([]*record[T], 0, len(recs)-1)
	out = append(out, recs[:i]...)
	out = append(out, recs[i+1:]...)
	q[cat] = out
}

func indexOf[T any](recs []*record[T], rec *record[T]) int {
	for i, r := range recs {
		if r == rec {
			return i
		}
	}
	return -1
}

// deliver hands a notice to the record's owner. Called without e.mu held so
// owners may call back into the engine.
func (e *Engine[T]) deliver(rec *record[T], n Notice[T]) {
	switch {
	case rec.notify != nil:
		rec.notify(n)
	case e.cfg.notify != nil:
		e.cfg.notify(n)
	}
}

func (e *Engine[T]) validate(cat Category, index int) error {
	if cat == "" {
		return ErrNoCategory
	}
	if index < 0 {
		return ErrInvalidIndex
	}
	return nil
}

func (e *Engine[T]) reject(kind Kind, cat Category, loc Location, err error) Outcome[T] {
	e.mu.Lock()
	e.stats.Rejected++
	e.mu.Unlock()
	e.cfg.logger.Emit(otel.Event{
		Level:    otel.LevelWarn,
		Kind:     otel.KindReject,
		Comp:     comp,
		Category: string(cat),
		From:     loc.String(),
		Err:      err.Error(),
		Msg:      kind.String(),
	})
	return Outcome[T]{State: Rejected, Err: err}
}

func (e *Engine[T]) logResolve(match *record[T], loc Location) {
	ev := otel.Event{
		Level:    otel.LevelInfo,
		Kind:     otel.KindResolve,
		Comp:     comp,
		Category: string(match.cat),
		Ticket:   uint64(match.ticket),
		Dur:      e.cfg.clock.Now().Sub(match.at),
	}
	if match.kind == Departure {
		ev.From, ev.To = match.loc.String(), loc.String()
	} else {
		ev.From, ev.To = loc.String(), match.loc.String()
	}
	e.cfg.logger.Emit(ev)
}

// Pending returns the number of waiting records in cat, both kinds.
func (e *Engine[T]) Pending(cat Category) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.departures[cat]) + len(e.arrivals[cat])
}

// Stats returns a snapshot of the activity counters.
func (e *Engine[T]) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Close cancels every pending timer and drops all waiting records without
// notifying their owners. Later calls return Rejected with ErrClosed.
func (e *Engine[T]) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for _, q := range []map[Category][]*record[T]{e.departures, e.arrivals} {
		for cat, recs := range q {
			for _, r := range recs {
				r.timer.Stop()
			}
			delete(q, cat)
		}
	}
}
