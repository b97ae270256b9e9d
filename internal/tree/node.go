// Package tree holds the room/element configuration document that the board
// edits, and applies semantic change events to it.
package tree

import (
	"github.com/google/uuid"
)

// Node kinds created by the editor.
const (
	KindRoom = "room"
	KindCard = "card"
)

// Node is one room or element. Rooms hold elements in Children; elements may
// nest further elements.
type Node struct {
	ID       string         `yaml:"id"`
	Kind     string         `yaml:"kind"`
	Name     string         `yaml:"name,omitempty"`
	Config   map[string]any `yaml:"config,omitempty"`
	Children []*Node        `yaml:"children,omitempty"`
}

// Clone returns a deep copy of n, including nested config values.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	cp := &Node{
		ID:     n.ID,
		Kind:   n.Kind,
		Name:   n.Name,
		Config: cloneMap(n.Config),
	}
	if n.Children != nil {
		cp.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			cp.Children[i] = c.Clone()
		}
	}
	return cp
}

// Label is the name shown in the editor, falling back to the kind.
func (n *Node) Label() string {
	if n.Name != "" {
		return n.Name
	}
	return n.Kind
}

// contains reports whether list is the Children slice of n or of any descendant.
func (n *Node) contains(list *[]*Node) bool {
	if &n.Children == list {
		return true
	}
	for _, c := range n.Children {
		if c.contains(list) {
			return true
		}
	}
	return false
}

// DefaultNode returns a fresh node for an item that appeared without a known
// origin: an empty room for rooms, a blank card otherwise.
func DefaultNode(kind string) *Node {
	if kind == KindRoom {
		return &Node{ID: uuid.NewString(), Kind: KindRoom, Name: "New room", Children: []*Node{}}
	}
	return &Node{ID: uuid.NewString(), Kind: KindCard, Name: "New card"}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
