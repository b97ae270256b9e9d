// Package board connects list containers on screen to the configuration
// document. Each container reports its own drag events; the board pairs
// cross-container halves through a movecoord.Engine and turns every gesture
// into exactly one semantic tree.Event.
package board

import (
	"errors"
	"fmt"
	"sync"

	"github.com/abelbrown/roomboard/internal/movecoord"
	"github.com/abelbrown/roomboard/internal/otel"
	"github.com/abelbrown/roomboard/internal/path"
	"github.com/abelbrown/roomboard/internal/tree"
)

const comp = "board"

// ErrUnknownContainer is returned for notices addressed to a container that
// was never opened.
var ErrUnknownContainer = errors.New("board: unknown container")

type (
	// Engine is the coordinator instantiated for document nodes.
	Engine = movecoord.Engine[*tree.Node]
	// Notice is a terminal notice about a node.
	Notice = movecoord.Notice[*tree.Node]
	// Outcome is the immediate result of Left or Entered.
	Outcome = movecoord.Outcome[*tree.Node]
)

// Board owns the document and the containers that edit it.
type Board struct {
	mu         sync.Mutex
	doc        *tree.Document
	containers map[path.Path]*Container

	engine *Engine
	sinks  []func(tree.Event)
	post   func(Notice)
	logger *otel.Logger
}

// Option configures a Board.
type Option func(*Board)

// WithSink registers a callback for every applied event. Sinks run after the
// document has changed, outside the board lock.
func WithSink(f func(tree.Event)) Option {
	return func(b *Board) { b.sinks = append(b.sinks, f) }
}

// WithPost routes engine notices through f instead of handling them on the
// goroutine that produced them. An event loop passes its own send function and
// later hands each notice back via Deliver.
func WithPost(f func(Notice)) Option {
	return func(b *Board) { b.post = f }
}

// WithLogger attaches an observability logger.
func WithLogger(l *otel.Logger) Option {
	return func(b *Board) { b.logger = l }
}

// New creates a Board editing doc. Without an engine option the board builds
// its own with default settings.
func New(doc *tree.Document, engine *Engine, opts ...Option) *Board {
	if engine == nil {
		engine = movecoord.New[*tree.Node]()
	}
	b := &Board{
		doc:        doc,
		engine:     engine,
		containers: make(map[path.Path]*Container),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Engine returns the coordinator shared by all containers.
func (b *Board) Engine() *Engine {
	return b.engine
}

// Open returns the container at p, creating it on first use.
func (b *Board) Open(p path.Path, cat movecoord.Category) (*Container, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.containers[p]; ok {
		if c.cat != cat {
			return nil, fmt.Errorf("board: container %s already open as %s", p, c.cat)
		}
		return c, nil
	}
	if _, err := b.doc.Container(p); err != nil {
		return nil, err
	}
	c := &Container{board: b, path: p, cat: cat}
	b.containers[p] = c
	return c, nil
}

// Snapshot returns a deep copy of the document.
func (b *Board) Snapshot() *tree.Document {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.doc.Clone()
}

// Deliver handles a notice that was routed through WithPost.
func (b *Board) Deliver(n Notice) error {
	b.mu.Lock()
	c, ok := b.containers[n.Own.Path]
	b.mu.Unlock()
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownContainer, n.Own.Path)
		b.logger.Error(otel.KindApplyError, comp, err)
		return err
	}
	return c.handle(n)
}

// route is the notify callback given to the engine.
func (b *Board) route(n Notice) {
	if b.post != nil {
		b.post(n)
		return
	}
	b.Deliver(n)
}

// apply performs ev on the document and fans it out to the sinks.
func (b *Board) apply(ev tree.Event) error {
	b.mu.Lock()
	b.clamp(&ev)
	err := b.doc.Apply(ev)
	b.mu.Unlock()

	if err != nil {
		b.logger.Emit(otel.Event{
			Level:    otel.LevelError,
			Kind:     otel.KindApplyError,
			Comp:     comp,
			Category: ev.Category,
			Err:      err.Error(),
			Msg:      ev.String(),
		})
		return err
	}

	b.logger.Emit(otel.Event{
		Level:    otel.LevelInfo,
		Kind:     otel.KindApply,
		Comp:     comp,
		Category: ev.Category,
		Msg:      ev.String(),
	})
	for _, sink := range b.sinks {
		sink(ev)
	}
	return nil
}

// clamp pulls a stale insertion index back inside the destination. The
// arrival recorded it against a list that may have shrunk since.
// Caller holds b.mu.
func (b *Board) clamp(ev *tree.Event) {
	if ev.Kind != tree.Added && ev.Kind != tree.Moved {
		return
	}
	n := len(b.doc.Items(ev.To))
	if ev.Kind == tree.Moved && ev.From.Equal(ev.To) {
		n--
	}
	if n < 0 || ev.ToIndex <= n {
		return
	}
	b.logger.Emit(otel.Event{
		Level:    otel.LevelWarn,
		Kind:     otel.KindClamp,
		Comp:     comp,
		Category: ev.Category,
		To:       ev.To.String(),
		Count:    ev.ToIndex,
		Msg:      fmt.Sprintf("insert index %d clamped to %d", ev.ToIndex, n),
	})
	ev.ToIndex = n
}
