package cli

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/abelbrown/roomboard/internal/board"
	"github.com/abelbrown/roomboard/internal/movecoord"
	"github.com/abelbrown/roomboard/internal/path"
	"github.com/abelbrown/roomboard/internal/tree"
)

// simOptions shapes a synthetic drag workload.
type simOptions struct {
	Gestures   int
	Rooms      int
	Cards      int
	Jitter     time.Duration // max delay before each half is delivered
	Rate       float64       // gestures started per second; <= 0 is unlimited
	OrphanRate float64       // share of gestures that deliver only one half
	Seed       int64
}

// simResult is what a run observed. Applied counts events by kind as the
// board reported them to its sinks.
type simResult struct {
	Gestures    int
	Skipped     int
	Stats       movecoord.Stats
	Applied     map[tree.EventKind]int
	ApplyErrors int
	CardsBefore int
	CardsAfter  int
	Duplicates  int
	Elapsed     time.Duration
}

// Settled reports whether every record reached exactly one terminal state.
func (r simResult) Settled() bool {
	s := r.Stats
	return s.Departures == s.Resolved+s.ExpiredDepartures &&
		s.Arrivals == s.Resolved+s.ExpiredArrivals
}

// Conserved reports whether the final card count is explained by the
// applied additions and removals, with no card duplicated or lost.
func (r simResult) Conserved() bool {
	want := r.CardsBefore - r.Applied[tree.Removed] + r.Applied[tree.Added]
	return r.CardsAfter == want && r.Duplicates == 0 && r.ApplyErrors == 0
}

// simulator drives one board from many goroutines. mu serialises every call
// into the board so a departure's index still names the card it picked.
type simulator struct {
	opts  simOptions
	board *board.Board
	rooms []*board.Container

	mu       sync.Mutex
	rng      *rand.Rand
	inflight map[string]bool
	skipped  int

	countMu     sync.Mutex
	applied     map[tree.EventKind]int
	applyErrors int

	posted     atomic.Int64
	deliveries sync.WaitGroup
}

// SimulateCmd returns the simulate command
func SimulateCmd() *cobra.Command {
	var (
		opts    simOptions
		window  time.Duration
		persist bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay synthetic cross-room drags against the coordinator",
		Long: `Run many concurrent drags between rooms of a synthetic board.

Each drag delivers its two halves from separate goroutines in random order
after a random delay. Some drags deliver only one half, which must expire
into a removal or an addition. The run checks that every record settled
exactly once and that no card was duplicated or lost.

Examples:
  roomboard simulate
  roomboard simulate --gestures 500 --jitter 100ms
  roomboard simulate --window 20ms --jitter 50ms   # force expiries`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if window > 0 {
				cfg.Coordination.Window = window
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			journalPath := ":memory:"
			if persist {
				journalPath = ""
			}
			rt, err := openRuntime(cfg, journalPath)
			if err != nil {
				return err
			}
			defer rt.close()

			fmt.Printf("Simulating %d drags across %d rooms (window %s, jitter ≤%s, %s)...\n",
				opts.Gestures, opts.Rooms, cfg.Coordination.Window, opts.Jitter, cfg.MovePolicy())

			res, err := runSimulation(cmd.Context(), rt.engine, opts,
				board.WithSink(rt.journal.Sink(rt.logger)),
				board.WithLogger(rt.logger),
			)
			if err != nil {
				return err
			}

			journaled, err := rt.journal.Count()
			if err != nil {
				return fmt.Errorf("count journal: %w", err)
			}
			printSimResult(cmd.OutOrStdout(), res, journaled)

			if !res.Settled() || !res.Conserved() {
				return fmt.Errorf("simulation found inconsistencies")
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.Gestures, "gestures", "n", 200, "Number of drags")
	cmd.Flags().IntVar(&opts.Rooms, "rooms", 4, "Number of rooms")
	cmd.Flags().IntVar(&opts.Cards, "cards", 12, "Initial cards per room")
	cmd.Flags().DurationVar(&opts.Jitter, "jitter", 40*time.Millisecond, "Max delay before each half is delivered")
	cmd.Flags().Float64Var(&opts.Rate, "rate", 100, "Drags started per second (0 = unlimited)")
	cmd.Flags().Float64Var(&opts.OrphanRate, "orphans", 0.1, "Share of drags that deliver only one half")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "Random seed (0 = time based)")
	cmd.Flags().DurationVar(&window, "window", 0, "Correlation window (default from config)")
	cmd.Flags().BoolVar(&persist, "persist", false, "Write applied events to the configured journal")
	return cmd
}

// runSimulation builds a synthetic board on engine and replays opts against
// it. The engine must use a real clock.
func runSimulation(ctx context.Context, engine *board.Engine, opts simOptions, boardOpts ...board.Option) (simResult, error) {
	if opts.Rooms < 2 {
		return simResult{}, fmt.Errorf("simulate: need at least 2 rooms, got %d", opts.Rooms)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &simulator{
		opts:     opts,
		rng:      rand.New(rand.NewSource(seed)),
		inflight: make(map[string]bool),
		applied:  make(map[tree.EventKind]int),
	}
	doc := syntheticDocument(opts.Rooms, opts.Cards)
	before := countCards(doc)

	boardOpts = append(boardOpts,
		board.WithSink(s.record),
		board.WithPost(s.post),
	)
	s.board = board.New(doc, engine, boardOpts...)
	for i := range doc.Rooms {
		c, err := s.board.Open(path.Of(i), movecoord.CategoryElement)
		if err != nil {
			return simResult{}, err
		}
		s.rooms = append(s.rooms, c)
	}

	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	limiter := rate.NewLimiter(limit, 1)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < opts.Gestures; i++ {
		if err := limiter.Wait(gctx); err != nil {
			break
		}
		g.Go(func() error { return s.gesture(gctx) })
	}
	if err := g.Wait(); err != nil {
		return simResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return simResult{}, err
	}
	if err := s.settle(ctx, engine); err != nil {
		return simResult{}, err
	}

	after := s.board.Snapshot()
	s.countMu.Lock()
	applied := make(map[tree.EventKind]int, len(s.applied))
	for k, n := range s.applied {
		applied[k] = n
	}
	applyErrors := s.applyErrors
	s.countMu.Unlock()

	s.mu.Lock()
	skipped := s.skipped
	s.mu.Unlock()

	return simResult{
		Gestures:    opts.Gestures,
		Skipped:     skipped,
		Stats:       engine.Stats(),
		Applied:     applied,
		ApplyErrors: applyErrors,
		CardsBefore: before,
		CardsAfter:  countCards(after),
		Duplicates:  countDuplicates(after),
		Elapsed:     time.Since(start),
	}, nil
}

// gesture delivers one drag. Pairs pick distinct rooms; orphans deliver a
// single half.
func (s *simulator) gesture(ctx context.Context) error {
	s.mu.Lock()
	src := s.rng.Intn(len(s.rooms))
	dst := (src + 1 + s.rng.Intn(len(s.rooms)-1)) % len(s.rooms)
	leave, enter := true, true
	if s.rng.Float64() < s.opts.OrphanRate {
		if s.rng.Intn(2) == 0 {
			enter = false
		} else {
			leave = false
		}
	}
	s.mu.Unlock()

	var g errgroup.Group
	if leave {
		g.Go(func() error {
			if err := s.pause(ctx); err != nil {
				return err
			}
			return s.leave(s.rooms[src])
		})
	}
	if enter {
		g.Go(func() error {
			if err := s.pause(ctx); err != nil {
				return err
			}
			return s.enter(s.rooms[dst])
		})
	}
	return g.Wait()
}

func (s *simulator) pause(ctx context.Context) error {
	if s.opts.Jitter <= 0 {
		return nil
	}
	s.mu.Lock()
	d := time.Duration(s.rng.Int63n(int64(s.opts.Jitter)))
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// leave drags a random settled card out of c.
func (s *simulator) leave(c *board.Container) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var candidates []int
	for i, n := range c.Items() {
		if !s.inflight[n.ID] {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		s.skipped++
		return nil
	}
	index := candidates[s.rng.Intn(len(candidates))]
	s.inflight[c.Items()[index].ID] = true
	_, err := c.Left(index)
	return err
}

// enter drops into c at a random position, including the end.
func (s *simulator) enter(c *board.Container) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.rng.Intn(c.Len() + 1)
	out, err := c.Entered(index)
	if err != nil {
		if out.State == movecoord.Rejected {
			return err
		}
		s.countApplyError()
	}
	return nil
}

// post hands a notice to its own goroutine, which waits for mu like every
// other board call.
func (s *simulator) post(n board.Notice) {
	s.posted.Add(1)
	s.deliveries.Add(1)
	go func() {
		defer s.deliveries.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.board.Deliver(n); err != nil {
			s.countApplyError()
		}
	}()
}

// record is the board sink. It runs while the caller holds mu.
func (s *simulator) record(ev tree.Event) {
	if ev.Kind == tree.Moved || ev.Kind == tree.Removed {
		delete(s.inflight, ev.NodeID())
	}
	s.countMu.Lock()
	s.applied[ev.Kind]++
	s.countMu.Unlock()
}

func (s *simulator) countApplyError() {
	s.countMu.Lock()
	s.applyErrors++
	s.countMu.Unlock()
}

// settle waits until every record has reached a terminal state and every
// resulting notice has been delivered. A match produces one notice for the
// waiting side; an expiry produces one for the expired record.
func (s *simulator) settle(ctx context.Context, engine *board.Engine) error {
	deadline := time.Now().Add(4*engine.Window() + 2*s.opts.Jitter + time.Second)
	for {
		st := engine.Stats()
		want := int64(st.Resolved + st.ExpiredDepartures + st.ExpiredArrivals)
		if engine.Pending(movecoord.CategoryElement) == 0 && s.posted.Load() == want {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("simulate: engine did not settle (%d pending)", engine.Pending(movecoord.CategoryElement))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
	s.deliveries.Wait()
	return nil
}

// syntheticDocument builds rooms "Room 1".."Room n" holding cards each.
func syntheticDocument(rooms, cards int) *tree.Document {
	doc := &tree.Document{Title: "Simulation"}
	for r := 0; r < rooms; r++ {
		room := &tree.Node{Kind: tree.KindRoom, Name: fmt.Sprintf("Room %d", r+1), Children: []*tree.Node{}}
		for c := 0; c < cards; c++ {
			room.Children = append(room.Children, &tree.Node{
				Kind: tree.KindCard,
				Name: fmt.Sprintf("Card %d.%d", r+1, c+1),
			})
		}
		doc.Rooms = append(doc.Rooms, room)
	}
	doc.EnsureIDs()
	return doc
}

func countCards(doc *tree.Document) int {
	n := 0
	for _, r := range doc.Rooms {
		n += len(r.Children)
	}
	return n
}

func countDuplicates(doc *tree.Document) int {
	seen := make(map[string]bool)
	dups := 0
	for _, r := range doc.Rooms {
		for _, c := range r.Children {
			if seen[c.ID] {
				dups++
			}
			seen[c.ID] = true
		}
	}
	return dups
}

func printSimResult(w io.Writer, r simResult, journaled int) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	check := func(ok bool) string {
		if ok {
			return green("✓")
		}
		return red("✗")
	}

	s := r.Stats
	fmt.Fprintf(w, "\n%d drags in %s\n", r.Gestures, r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  records:   %d departures, %d arrivals\n", s.Departures, s.Arrivals)
	fmt.Fprintf(w, "  resolved:  %s\n", green(s.Resolved))
	fmt.Fprintf(w, "  expired:   %s departures, %s arrivals\n", yellow(s.ExpiredDepartures), yellow(s.ExpiredArrivals))
	if s.Rejected > 0 || r.Skipped > 0 {
		fmt.Fprintf(w, "  rejected:  %d, skipped: %d\n", s.Rejected, r.Skipped)
	}
	fmt.Fprintf(w, "  applied:   %d moved, %d removed, %d added (%d journaled)\n",
		r.Applied[tree.Moved], r.Applied[tree.Removed], r.Applied[tree.Added], journaled)
	fmt.Fprintf(w, "  cards:     %d -> %d\n", r.CardsBefore, r.CardsAfter)
	fmt.Fprintf(w, "\n%s every record settled exactly once\n", check(r.Settled()))
	fmt.Fprintf(w, "%s no card lost or duplicated", check(r.Conserved()))
	if r.ApplyErrors > 0 {
		fmt.Fprintf(w, " (%s)", red(fmt.Sprintf("%d apply errors", r.ApplyErrors)))
	}
	fmt.Fprintln(w)
}
