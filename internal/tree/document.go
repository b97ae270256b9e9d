package tree

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/abelbrown/roomboard/internal/ordered"
	"github.com/abelbrown/roomboard/internal/path"
)

var (
	// ErrNoContainer is returned for a Path that does not address a list.
	ErrNoContainer = errors.New("tree: no such container")
	// ErrNodeNotFound is returned when an event names a node that is gone.
	ErrNodeNotFound = errors.New("tree: node not found")
	// ErrCycle is returned when a move would put a node inside itself.
	ErrCycle = errors.New("tree: move into own subtree")
)

// Document is the whole configuration: an ordered list of rooms.
type Document struct {
	Title string  `yaml:"title,omitempty"`
	Rooms []*Node `yaml:"rooms"`
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	cp := &Document{Title: d.Title, Rooms: make([]*Node, len(d.Rooms))}
	for i, r := range d.Rooms {
		cp.Rooms[i] = r.Clone()
	}
	return cp
}

// Container returns the list addressed by p. The root Path is the room list,
// [r] the elements of room r, and each further present discriminator steps
// into that element's children. Trailing absent discriminators stay at the
// level reached so far.
func (d *Document) Container(p path.Path) (*[]*Node, error) {
	list := &d.Rooms
	absent := false
	for i, seg := range p.Segments() {
		n, ok := seg.Value()
		if !ok {
			absent = true
			continue
		}
		if absent || n >= len(*list) {
			return nil, fmt.Errorf("%w: %s (at segment %d)", ErrNoContainer, p, i)
		}
		list = &(*list)[n].Children
	}
	return list, nil
}

// Items returns the nodes of the container at p, or nil if there is none.
func (d *Document) Items(p path.Path) []*Node {
	list, err := d.Container(p)
	if err != nil {
		return nil
	}
	return *list
}

// Apply performs one event. The document is unchanged when Apply fails.
func (d *Document) Apply(ev Event) error {
	switch ev.Kind {
	case Reordered:
		return d.reorder(ev)
	case Removed:
		_, err := d.remove(ev.From, ev.FromIndex, ev.NodeID())
		return err
	case Added:
		return d.add(ev)
	case Moved:
		return d.move(ev)
	}
	return fmt.Errorf("tree: unknown event kind %q", ev.Kind)
}

func (d *Document) reorder(ev Event) error {
	list, err := d.Container(ev.From)
	if err != nil {
		return err
	}
	out, err := ordered.Move(*list, ev.FromIndex, ev.ToIndex)
	if err != nil {
		return fmt.Errorf("reorder %s: %w", ev.From, err)
	}
	*list = out
	return nil
}

func (d *Document) add(ev Event) error {
	if ev.Node == nil {
		return fmt.Errorf("tree: add to %s without a node", ev.To)
	}
	list, err := d.Container(ev.To)
	if err != nil {
		return err
	}
	out, err := ordered.Insert(*list, ev.ToIndex, ev.Node)
	if err != nil {
		return fmt.Errorf("add to %s: %w", ev.To, err)
	}
	*list = out
	return nil
}

// remove deletes the node at index, or the node with id if it has drifted.
func (d *Document) remove(p path.Path, index int, id string) (*Node, error) {
	list, i, err := d.source(p, index, id)
	if err != nil {
		return nil, fmt.Errorf("remove from %s: %w", p, err)
	}
	out, n, err := ordered.Remove(*list, i)
	if err != nil {
		return nil, fmt.Errorf("remove from %s: %w", p, err)
	}
	*list = out
	return n, nil
}

// move removes the origin node and inserts ev.Node in one step, so the
// document never holds the item twice.
func (d *Document) move(ev Event) error {
	if ev.Node == nil {
		return fmt.Errorf("tree: move to %s without a node", ev.To)
	}
	src, i, err := d.source(ev.From, ev.FromIndex, ev.NodeID())
	if err != nil {
		return fmt.Errorf("move from %s: %w", ev.From, err)
	}
	// Resolve the destination before removing so index shifts in the source
	// cannot change which list it is.
	dst, err := d.Container(ev.To)
	if err != nil {
		return err
	}

	if (*src)[i].contains(dst) {
		return fmt.Errorf("%w: %s into %s", ErrCycle, ev.From, ev.To)
	}

	trimmed, _, err := ordered.Remove(*src, i)
	if err != nil {
		return err
	}
	target := *dst
	if src == dst {
		target = trimmed
	}
	out, err := ordered.Insert(target, ev.ToIndex, ev.Node)
	if err != nil {
		return fmt.Errorf("move to %s: %w", ev.To, err)
	}
	*src = trimmed
	*dst = out
	return nil
}

// source finds the list and position of the node an event takes away. A node
// that is no longer in the container at p (its room was reordered, or it was
// nested elsewhere) is looked up by id across the whole document.
func (d *Document) source(p path.Path, index int, id string) (*[]*Node, int, error) {
	list, err := d.Container(p)
	if err == nil {
		var i int
		if i, err = locate(*list, index, id); err == nil {
			return list, i, nil
		}
	}
	if id != "" {
		if list, i := d.find(id); list != nil {
			return list, i, nil
		}
	}
	return nil, -1, err
}

// find returns the list holding the node with id and its index there.
func (d *Document) find(id string) (*[]*Node, int) {
	var walk func(list *[]*Node) (*[]*Node, int)
	walk = func(list *[]*Node) (*[]*Node, int) {
		for i, n := range *list {
			if n.ID == id {
				return list, i
			}
			if found, j := walk(&n.Children); found != nil {
				return found, j
			}
		}
		return nil, -1
	}
	return walk(&d.Rooms)
}

// locate returns index when it holds id (or id is empty), else searches for id.
func locate(list []*Node, index int, id string) (int, error) {
	if index >= 0 && index < len(list) && (id == "" || list[index].ID == id) {
		return index, nil
	}
	if id != "" {
		for i, n := range list {
			if n.ID == id {
				return i, nil
			}
		}
		return -1, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return -1, &ordered.IndexError{Op: "locate", Index: index, Len: len(list)}
}

// EnsureIDs assigns a fresh ID to every node that lacks one.
func (d *Document) EnsureIDs() {
	var walk func([]*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			if n.ID == "" {
				n.ID = uuid.NewString()
			}
			walk(n.Children)
		}
	}
	walk(d.Rooms)
}

// Sample returns a small document for first runs.
func Sample() *Document {
	card := func(name, entity string) *Node {
		return &Node{Kind: KindCard, Name: name, Config: map[string]any{"entity": entity}}
	}
	d := &Document{
		Title: "Home",
		Rooms: []*Node{
			{Kind: KindRoom, Name: "Living room", Children: []*Node{
				card("Ceiling", "light.living_ceiling"),
				card("Floor lamp", "light.living_floor"),
				card("Thermostat", "climate.living"),
			}},
			{Kind: KindRoom, Name: "Kitchen", Children: []*Node{
				card("Counter", "light.kitchen_counter"),
				card("Kettle", "switch.kettle"),
			}},
			{Kind: KindRoom, Name: "Bedroom", Children: []*Node{
				card("Bedside", "light.bedside"),
			}},
		},
	}
	d.EnsureIDs()
	return d
}
