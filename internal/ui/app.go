package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/roomboard/internal/board"
	"github.com/abelbrown/roomboard/internal/movecoord"
	"github.com/abelbrown/roomboard/internal/otel"
	"github.com/abelbrown/roomboard/internal/path"
)

const comp = "ui"

// held is an element picked up and not yet dropped. It is tracked by ID:
// expiries and matches can shift its position while it is carried.
type held struct {
	id    string
	label string
}

// App is the root Bubble Tea model.
//
// The board may post notices from inside Update (a synchronous match) or
// from a timer goroutine (an expiry), so notices arrive on a buffered
// channel that App drains with a listen command, never via Program.Send.
type App struct {
	board    *board.Board
	notices  <-chan board.Notice
	activity *Activity
	ring     *otel.RingBuffer
	logger   *otel.Logger
	ctx      context.Context
	cancel   context.CancelFunc

	help      help.Model
	col, row  int
	held      *held
	status    string
	err       error
	width     int
	height    int
	ready     bool
	showHelp  bool
	showDebug bool
}

// Config wires an App to its collaborators. Only Board is required.
type Config struct {
	Board    *board.Board
	Notices  <-chan board.Notice
	Activity *Activity
	Ring     *otel.RingBuffer
	Logger   *otel.Logger
}

// NewApp creates an App editing cfg.Board.
func NewApp(cfg Config) App {
	ctx, cancel := context.WithCancel(context.Background())
	act := cfg.Activity
	if act == nil {
		act = NewActivity()
	}
	return App{
		board:    cfg.Board,
		notices:  cfg.Notices,
		activity: act,
		ring:     cfg.Ring,
		logger:   cfg.Logger,
		ctx:      ctx,
		cancel:   cancel,
		help:     help.New(),
		status:   "ready",
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return a.listenForNotices()
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if otel.Tracing(comp) {
		a.logger.Emit(otel.Event{
			Level: otel.LevelDebug,
			Kind:  otel.KindMsgReceived,
			Comp:  comp,
			Msg:   fmt.Sprintf("%T", msg),
		})
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.ready = true
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case leftMsg:
		c, err := a.room(msg.room)
		if err == nil {
			var out board.Outcome
			out, err = c.Left(msg.index)
			a.status = describe("left", out)
		}
		a.err = err
		a.clampCursor()
		return a, nil

	case enteredMsg:
		c, err := a.room(msg.room)
		if err == nil {
			var out board.Outcome
			out, err = c.Entered(msg.index)
			a.status = describe("entered", out)
		}
		a.err = err
		a.clampCursor()
		return a, nil

	case noticeMsg:
		if err := a.board.Deliver(board.Notice(msg)); err != nil {
			a.err = err
		}
		a.status = a.lastActivity()
		a.clampCursor()
		return a, a.listenForNotices()

	case listenClosed:
		return a, nil
	}

	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.err = nil

	switch {
	case key.Matches(msg, keys.Quit):
		a.cancel()
		return a, tea.Quit
	case key.Matches(msg, keys.Help):
		a.showHelp = !a.showHelp
		a.help.ShowAll = a.showHelp
	case key.Matches(msg, keys.Debug):
		a.showDebug = !a.showDebug
	case key.Matches(msg, keys.Up):
		if a.row > 0 {
			a.row--
		}
	case key.Matches(msg, keys.Down):
		a.row++
		a.clampCursor()
	case key.Matches(msg, keys.Left):
		if a.col > 0 {
			a.col--
		}
		a.clampCursor()
	case key.Matches(msg, keys.Right):
		a.col++
		a.clampCursor()
	case key.Matches(msg, keys.Pick):
		a.pick()
	case key.Matches(msg, keys.Cancel):
		a.held = nil
		a.status = "cancelled"
		a.clampCursor()
	case key.Matches(msg, keys.Drop):
		return a.drop()
	case key.Matches(msg, keys.Trash):
		return a.trash()
	case key.Matches(msg, keys.New):
		a.status = "new card pending"
		return a, sendEntered(a.col, a.row)
	case key.Matches(msg, keys.RaiseEl):
		a.reorder(-1)
	case key.Matches(msg, keys.LowerEl):
		a.reorder(1)
	case key.Matches(msg, keys.RoomLeft):
		a.moveRoom(-1)
	case key.Matches(msg, keys.RoomRt):
		a.moveRoom(1)
	}
	return a, nil
}

func (a *App) pick() {
	items := a.items(a.col)
	if a.row >= len(items) {
		return
	}
	a.held = &held{id: items[a.row].id, label: items[a.row].label}
	a.status = "carrying " + a.held.label
}

// drop finishes a carry. Within one room it is a plain reorder; across rooms
// each room reports its own half as a separate message.
func (a App) drop() (tea.Model, tea.Cmd) {
	if a.held == nil {
		return a, nil
	}
	h := *a.held
	a.held = nil

	room, index, ok := a.locate(h.id)
	if !ok {
		a.status = h.label + " is gone"
		a.clampCursor()
		return a, nil
	}
	if room == a.col {
		to := a.row
		if n := len(a.items(a.col)); to >= n {
			to = n - 1
		}
		c, err := a.room(a.col)
		if err == nil {
			err = c.Reorder(index, to)
		}
		a.err = err
		a.status = a.lastActivity()
		a.clampCursor()
		return a, nil
	}

	a.status = fmt.Sprintf("moving %s", h.label)
	return a, tea.Batch(sendLeft(room, index), sendEntered(a.col, a.row))
}

// trash sends the carried (or selected) element out with no destination.
func (a App) trash() (tea.Model, tea.Cmd) {
	room, index := a.col, a.row
	if a.held != nil {
		h := *a.held
		a.held = nil
		var ok bool
		if room, index, ok = a.locate(h.id); !ok {
			a.status = h.label + " is gone"
			a.clampCursor()
			return a, nil
		}
	}
	if index >= len(a.items(room)) {
		return a, nil
	}
	a.status = "removing"
	return a, sendLeft(room, index)
}

func (a *App) reorder(delta int) {
	to := a.row + delta
	items := a.items(a.col)
	if a.row >= len(items) || to < 0 || to >= len(items) {
		return
	}
	c, err := a.room(a.col)
	if err == nil {
		err = c.Reorder(a.row, to)
	}
	if err != nil {
		a.err = err
		return
	}
	a.row = to
	a.status = a.lastActivity()
}

func (a *App) moveRoom(delta int) {
	// Waiting drags address rooms by position.
	if a.board.Engine().Pending(movecoord.CategoryElement) > 0 {
		a.status = "wait for pending drags before moving rooms"
		return
	}
	to := a.col + delta
	rooms, err := a.board.Open(path.Root(), movecoord.CategoryRoom)
	if err != nil {
		a.err = err
		return
	}
	if to < 0 || to >= rooms.Len() {
		return
	}
	if err := rooms.Reorder(a.col, to); err != nil {
		a.err = err
		return
	}
	a.col = to
	a.status = a.lastActivity()
}

func sendLeft(room, index int) tea.Cmd {
	return func() tea.Msg { return leftMsg{room: room, index: index} }
}

func sendEntered(room, index int) tea.Cmd {
	return func() tea.Msg { return enteredMsg{room: room, index: index} }
}

func (a App) listenForNotices() tea.Cmd {
	if a.notices == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case n, ok := <-a.notices:
			if !ok {
				return listenClosed{}
			}
			return noticeMsg(n)
		case <-a.ctx.Done():
			return listenClosed{}
		}
	}
}

func (a App) room(i int) (*board.Container, error) {
	return a.board.Open(path.Of(i), movecoord.CategoryElement)
}

// locate finds the room and row currently holding the element with id.
func (a App) locate(id string) (room, index int, ok bool) {
	for r := 0; r < a.roomCount(); r++ {
		for i, it := range a.items(r) {
			if it.id == id {
				return r, i, true
			}
		}
	}
	return 0, 0, false
}

func (a App) roomCount() int {
	rooms, err := a.board.Open(path.Root(), movecoord.CategoryRoom)
	if err != nil {
		return 0
	}
	return rooms.Len()
}

func (a App) items(i int) []boardItem {
	c, err := a.room(i)
	if err != nil {
		return nil
	}
	nodes := c.Items()
	out := make([]boardItem, len(nodes))
	for j, n := range nodes {
		out[j] = boardItem{id: n.ID, label: n.Label(), entity: entityOf(n.Config)}
	}
	return out
}

// clampCursor keeps the cursor on a room and on an item; while carrying, the
// row may sit one past the end to drop at the bottom.
func (a *App) clampCursor() {
	if n := a.roomCount(); a.col >= n {
		a.col = n - 1
	}
	if a.col < 0 {
		a.col = 0
	}
	limit := len(a.items(a.col))
	if a.held == nil {
		limit--
	}
	if a.row > limit {
		a.row = limit
	}
	if a.row < 0 {
		a.row = 0
	}
}

func (a App) lastActivity() string {
	if ev, ok := a.activity.Last(); ok {
		return ev.String()
	}
	return a.status
}

func describe(side string, out board.Outcome) string {
	switch out.State {
	case movecoord.Resolved:
		return fmt.Sprintf("%s: paired with %s", side, out.Counterpart)
	case movecoord.Pending:
		return fmt.Sprintf("%s: waiting (ticket %d)", side, out.Ticket)
	}
	return side + ": rejected"
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	statusBar := a.renderStatusBar()
	if a.showDebug {
		return debugOverlay(a.ring, a.width, a.height-1) + "\n" + debugStatusBar(a.width)
	}

	var b strings.Builder
	b.WriteString(a.renderColumns())
	b.WriteString("\n")
	if a.err != nil {
		b.WriteString(ErrorStyle.Width(a.width).Render("Error: " + a.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(statusBar)
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render(a.help.View(keys)))
	return b.String()
}

func (a App) renderColumns() string {
	n := a.roomCount()
	if n == 0 {
		return HelpStyle.Render("No rooms. Wait for one to appear or edit the document.")
	}
	snap := a.board.Snapshot()
	colWidth := 24
	if a.width > 0 {
		if w := a.width/n - 4; w < colWidth {
			colWidth = max(w, 12)
		}
	}

	cols := make([]string, 0, n)
	for i := 0; i < n && i < len(snap.Rooms); i++ {
		cols = append(cols, a.renderColumn(i, snap.Rooms[i].Label(), colWidth))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (a App) renderColumn(i int, name string, width int) string {
	items := a.items(i)
	lines := []string{RoomHeader.Render(fmt.Sprintf("%s (%d)", name, len(items)))}

	for j := 0; j <= len(items); j++ {
		if a.held != nil && a.col == i && a.row == j {
			lines = append(lines, DropMarker.Render("▸ drop here"))
		}
		if j == len(items) {
			break
		}
		it := items[j]
		text := truncateRunes(it.label, width)
		switch {
		case a.held != nil && a.held.id == it.id:
			lines = append(lines, HeldItem.Render(text))
		case a.held == nil && a.col == i && a.row == j:
			lines = append(lines, SelectedItem.Render(text))
		default:
			lines = append(lines, NormalItem.Render(text))
		}
		if it.entity != "" {
			lines = append(lines, EntityText.Render("  "+truncateRunes(it.entity, width-2)))
		}
	}

	style := RoomColumn
	if a.col == i {
		style = ActiveColumn
	}
	return style.Width(width).Render(strings.Join(lines, "\n"))
}

func (a App) renderStatusBar() string {
	pending := a.board.Engine().Pending(movecoord.CategoryElement) + a.board.Engine().Pending(movecoord.CategoryRoom)
	left := StatusBarText.Render(a.status)
	right := StatusBarKey.Render(fmt.Sprintf("%d pending", pending)) +
		StatusBarText.Render(fmt.Sprintf("  %d changes", a.activity.Total()))
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return StatusBar.Width(a.width).Render(left + strings.Repeat(" ", gap) + right)
}

// boardItem is the rendered form of a node.
type boardItem struct {
	id     string
	label  string
	entity string
}

func entityOf(cfg map[string]any) string {
	if s, ok := cfg["entity"].(string); ok {
		return s
	}
	return ""
}

// truncateRunes shortens s to at most n runes, marking the cut with "…".
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

// Cursor returns the current room and row (for testing).
func (a App) Cursor() (int, int) {
	return a.col, a.row
}

// Status returns the status line text (for testing).
func (a App) Status() string {
	return a.status
}
