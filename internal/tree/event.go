package tree

import (
	"fmt"

	"github.com/abelbrown/roomboard/internal/path"
)

// EventKind names a semantic change to the document.
type EventKind string

const (
	// Reordered moves an item within one container.
	Reordered EventKind = "reordered"
	// Removed deletes an item that left its container for good.
	Removed EventKind = "removed"
	// Added inserts an item that appeared without an origin.
	Added EventKind = "added"
	// Moved relocates an item from one container to another.
	Moved EventKind = "moved"
)

// Event is one change produced by the board. Fields not used by Kind are zero.
//
//	Reordered: From, FromIndex, ToIndex
//	Removed:   From, FromIndex, Node (the item that left)
//	Added:     To, ToIndex, Node
//	Moved:     From, FromIndex, To, ToIndex, Node (the moved copy)
type Event struct {
	Kind      EventKind
	Category  string
	From      path.Path
	FromIndex int
	To        path.Path
	ToIndex   int
	Node      *Node
}

func (e Event) String() string {
	switch e.Kind {
	case Reordered:
		return fmt.Sprintf("reordered %s %d->%d", e.From, e.FromIndex, e.ToIndex)
	case Removed:
		return fmt.Sprintf("removed %s#%d %s", e.From, e.FromIndex, e.nodeLabel())
	case Added:
		return fmt.Sprintf("added %s#%d %s", e.To, e.ToIndex, e.nodeLabel())
	case Moved:
		return fmt.Sprintf("moved %s %s#%d -> %s#%d", e.nodeLabel(), e.From, e.FromIndex, e.To, e.ToIndex)
	}
	return string(e.Kind)
}

// NodeID returns the ID of the node carried by the event, if any.
func (e Event) NodeID() string {
	if e.Node == nil {
		return ""
	}
	return e.Node.ID
}

func (e Event) nodeLabel() string {
	if e.Node == nil {
		return "?"
	}
	return fmt.Sprintf("%q", e.Node.Label())
}
