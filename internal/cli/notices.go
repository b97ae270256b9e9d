package cli

import (
	"sync"

	"github.com/abelbrown/roomboard/internal/board"
	"github.com/abelbrown/roomboard/internal/otel"
)

// noticeQueue hands engine notices to the editor loop. Post never blocks:
// a match resolved inside Update posts from the loop's own goroutine, so a
// full channel must not stall it. Notices past the channel's capacity wait in
// an unbounded backlog that a forwarding goroutine drains in order.
type noticeQueue struct {
	out    chan board.Notice
	logger *otel.Logger

	mu      sync.Mutex
	backlog []board.Notice
	wake    chan struct{}
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

func newNoticeQueue(size int, logger *otel.Logger) *noticeQueue {
	q := &noticeQueue{
		out:    make(chan board.Notice, size),
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	q.wg.Add(1)
	go q.forward()
	return q
}

// C is the channel the editor listens on.
func (q *noticeQueue) C() <-chan board.Notice { return q.out }

// Post queues n for the editor.
func (q *noticeQueue) Post(n board.Notice) {
	q.mu.Lock()
	defer q.mu.Unlock()
	select {
	case <-q.done:
		return
	default:
	}
	if len(q.backlog) == 0 {
		select {
		case q.out <- n:
			return
		default:
		}
	}
	q.backlog = append(q.backlog, n)
	if len(q.backlog) == 1 {
		q.logger.Emit(otel.Event{
			Level:    otel.LevelWarn,
			Kind:     otel.KindBacklog,
			Comp:     "editor",
			Category: string(n.Category),
			Ticket:   uint64(n.Ticket),
			Msg:      "notice channel full",
		})
	}
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pending reports how many notices wait behind the channel.
func (q *noticeQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.backlog)
}

func (q *noticeQueue) forward() {
	defer q.wg.Done()
	for {
		select {
		case <-q.wake:
		case <-q.done:
			return
		}
		for {
			q.mu.Lock()
			if len(q.backlog) == 0 {
				q.mu.Unlock()
				break
			}
			n := q.backlog[0]
			q.mu.Unlock()

			select {
			case q.out <- n:
			case <-q.done:
				return
			}

			q.mu.Lock()
			q.backlog[0] = board.Notice{}
			q.backlog = q.backlog[1:]
			q.mu.Unlock()
		}
	}
}

// Close stops forwarding. Notices posted afterwards are dropped.
func (q *noticeQueue) Close() {
	q.once.Do(func() {
		q.mu.Lock()
		close(q.done)
		q.mu.Unlock()
		q.wg.Wait()
	})
}
