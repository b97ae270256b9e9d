package board

import (
	"fmt"

	"github.com/abelbrown/roomboard/internal/movecoord"
	"github.com/abelbrown/roomboard/internal/ordered"
	"github.com/abelbrown/roomboard/internal/path"
	"github.com/abelbrown/roomboard/internal/tree"
)

// Container is the adapter for one on-screen list. It only ever sees its own
// side of a drag.
type Container struct {
	board *Board
	path  path.Path
	cat   movecoord.Category
}

// Path returns the container's address.
func (c *Container) Path() path.Path { return c.path }

// Category returns the item category the container holds.
func (c *Container) Category() movecoord.Category { return c.cat }

// Items returns the container's current nodes.
func (c *Container) Items() []*tree.Node {
	c.board.mu.Lock()
	defer c.board.mu.Unlock()
	items := c.board.doc.Items(c.path)
	out := make([]*tree.Node, len(items))
	copy(out, items)
	return out
}

// Len returns the number of items in the container.
func (c *Container) Len() int {
	c.board.mu.Lock()
	defer c.board.mu.Unlock()
	return len(c.board.doc.Items(c.path))
}

// Reorder moves an item within the container. It never involves the engine.
func (c *Container) Reorder(from, to int) error {
	return c.board.apply(tree.Event{
		Kind:      tree.Reordered,
		Category:  string(c.cat),
		From:      c.path,
		FromIndex: from,
		ToIndex:   to,
	})
}

// Left reports that the item at index was dragged out of the container.
//
// The item stays in the document until the gesture settles: if an arrival
// claims it, the arriving container splices it across; if nothing claims it
// within the window, it is removed.
func (c *Container) Left(index int) (Outcome, error) {
	c.board.mu.Lock()
	items := c.board.doc.Items(c.path)
	if index < 0 || index >= len(items) {
		c.board.mu.Unlock()
		return Outcome{}, fmt.Errorf("left %s: %w", c.path, &ordered.IndexError{Op: "left", Index: index, Len: len(items)})
	}
	payload := items[index].Clone()
	c.board.mu.Unlock()

	out := c.board.engine.RecordDeparture(c.cat, c.path, index, payload, c.board.route)
	if out.State == movecoord.Rejected {
		return out, out.Err
	}
	return out, nil
}

// Entered reports that an item was dropped into the container at index.
// index may equal the current length.
func (c *Container) Entered(index int) (Outcome, error) {
	out := c.board.engine.RecordArrival(c.cat, c.path, index, c.board.route)
	switch out.State {
	case movecoord.Rejected:
		return out, out.Err
	case movecoord.Resolved:
		return out, c.board.apply(tree.Event{
			Kind:      tree.Moved,
			Category:  string(c.cat),
			From:      out.Counterpart.Path,
			FromIndex: out.Counterpart.Index,
			To:        c.path,
			ToIndex:   index,
			Node:      out.Payload,
		})
	}
	return out, nil
}

// handle settles one of this container's pending records.
func (c *Container) handle(n Notice) error {
	switch {
	case n.Kind == movecoord.Arrival && n.Terminal == movecoord.Matched:
		return c.board.apply(tree.Event{
			Kind:      tree.Moved,
			Category:  string(c.cat),
			From:      n.Counterpart.Path,
			FromIndex: n.Counterpart.Index,
			To:        c.path,
			ToIndex:   n.Own.Index,
			Node:      n.Payload,
		})
	case n.Kind == movecoord.Arrival && n.Terminal == movecoord.Expired:
		kind := tree.KindCard
		if c.cat == movecoord.CategoryRoom {
			kind = tree.KindRoom
		}
		return c.board.apply(tree.Event{
			Kind:     tree.Added,
			Category: string(c.cat),
			To:       c.path,
			ToIndex:  n.Own.Index,
			Node:     tree.DefaultNode(kind),
		})
	case n.Kind == movecoord.Departure && n.Terminal == movecoord.Expired:
		return c.board.apply(tree.Event{
			Kind:      tree.Removed,
			Category:  string(c.cat),
			From:      c.path,
			FromIndex: n.Own.Index,
			Node:      n.Payload,
		})
	}
	// A matched departure: the arriving container completed the move.
	return nil
}
