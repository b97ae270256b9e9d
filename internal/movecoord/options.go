package movecoord

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/roomboard/internal/clock"
	"github.com/abelbrown/roomboard/internal/otel"
)

// DefaultWindow is how long a one-sided notification waits for its counterpart.
const DefaultWindow = 150 * time.Millisecond

// Policy picks which waiting record a new notification matches.
type Policy int

const (
	// FIFO matches the oldest waiting record.
	FIFO Policy = iota
	// LIFO matches the newest waiting record.
	LIFO
)

func (p Policy) String() string {
	if p == LIFO {
		return "lifo"
	}
	return "fifo"
}

// ParsePolicy accepts "fifo" or "lifo", case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fifo":
		return FIFO, nil
	case "lifo":
		return LIFO, nil
	}
	return FIFO, fmt.Errorf("movecoord: unknown policy %q", s)
}

type engineConfig[T any] struct {
	window time.Duration
	clock  clock.Clock
	policy Policy
	logger *otel.Logger
	notify func(Notice[T])
}

// Option configures an Engine.
type Option[T any] func(*engineConfig[T])

// WithWindow sets the correlation window. Non-positive values keep the default.
func WithWindow[T any](d time.Duration) Option[T] {
	return func(c *engineConfig[T]) {
		if d > 0 {
			c.window = d
		}
	}
}

// WithClock replaces the wall clock, typically with a clock.Manual in tests.
func WithClock[T any](clk clock.Clock) Option[T] {
	return func(c *engineConfig[T]) { c.clock = clk }
}

// WithPolicy sets the tie-break policy for multiple waiting records.
func WithPolicy[T any](p Policy) Option[T] {
	return func(c *engineConfig[T]) { c.policy = p }
}

// WithLogger attaches an observability logger.
func WithLogger[T any](l *otel.Logger) Option[T] {
	return func(c *engineConfig[T]) { c.logger = l }
}

// WithNotify sets the sink for notices of records registered without their
// own callback.
func WithNotify[T any](f func(Notice[T])) Option[T] {
	return func(c *engineConfig[T]) { c.notify = f }
}
