package tree

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abelbrown/roomboard/internal/ordered"
	"github.com/abelbrown/roomboard/internal/path"
)

func names(nodes []*Node) string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return strings.Join(out, ",")
}

func testDoc() *Document {
	n := func(name string, children ...*Node) *Node {
		return &Node{ID: name, Kind: KindCard, Name: name, Children: children}
	}
	return &Document{Rooms: []*Node{
		{ID: "r0", Kind: KindRoom, Name: "r0", Children: []*Node{n("a"), n("b"), n("c"), n("d")}},
		{ID: "r1", Kind: KindRoom, Name: "r1", Children: []*Node{n("x", n("x1"), n("x2"))}},
	}}
}

func TestContainer(t *testing.T) {
	d := testDoc()
	tests := []struct {
		p    path.Path
		want string
	}{
		{path.Root(), "r0,r1"},
		{path.Of(0), "a,b,c,d"},
		{path.Of(1, 0), "x1,x2"},
		{path.New(path.At(1), path.Absent()), "x"},
	}
	for _, tt := range tests {
		list, err := d.Container(tt.p)
		if err != nil {
			t.Errorf("Container(%s): %v", tt.p, err)
			continue
		}
		if got := names(*list); got != tt.want {
			t.Errorf("Container(%s) = %s, want %s", tt.p, got, tt.want)
		}
	}

	for _, p := range []path.Path{path.Of(5), path.Of(0, 9), path.New(path.Absent(), path.At(0))} {
		if _, err := d.Container(p); !errors.Is(err, ErrNoContainer) {
			t.Errorf("Container(%s) err = %v, want ErrNoContainer", p, err)
		}
	}
}

func TestApplyReordered(t *testing.T) {
	d := testDoc()
	err := d.Apply(Event{Kind: Reordered, From: path.Of(0), FromIndex: 0, ToIndex: 2})
	if err != nil {
		t.Fatal(err)
	}
	if got := names(d.Items(path.Of(0))); got != "b,c,a,d" {
		t.Errorf("got %s, want b,c,a,d", got)
	}

	err = d.Apply(Event{Kind: Reordered, From: path.Of(0), FromIndex: 0, ToIndex: 4})
	if !errors.Is(err, ordered.ErrIndexOutOfRange) {
		t.Errorf("err = %v, want ErrIndexOutOfRange", err)
	}
}

func TestApplyMoved(t *testing.T) {
	d := testDoc()
	moved := d.Rooms[0].Children[2].Clone()
	err := d.Apply(Event{Kind: Moved, From: path.Of(0), FromIndex: 2, To: path.Of(1), ToIndex: 0, Node: moved})
	if err != nil {
		t.Fatal(err)
	}
	if got := names(d.Items(path.Of(0))); got != "a,b,d" {
		t.Errorf("source = %s", got)
	}
	if got := names(d.Items(path.Of(1))); got != "c,x" {
		t.Errorf("destination = %s", got)
	}
	if d.Rooms[1].Children[0] != moved {
		t.Errorf("destination should hold the moved copy")
	}
}

func TestApplyMovedFindsDriftedNode(t *testing.T) {
	d := testDoc()
	moved := d.Rooms[0].Children[1].Clone() // b
	// b has shifted to index 0 since the gesture started.
	if err := d.Apply(Event{Kind: Removed, From: path.Of(0), FromIndex: 0, Node: &Node{ID: "a"}}); err != nil {
		t.Fatal(err)
	}
	err := d.Apply(Event{Kind: Moved, From: path.Of(0), FromIndex: 1, To: path.Of(1), ToIndex: 1, Node: moved})
	if err != nil {
		t.Fatal(err)
	}
	if got := names(d.Items(path.Of(0))); got != "c,d" {
		t.Errorf("source = %s", got)
	}
	if got := names(d.Items(path.Of(1))); got != "x,b" {
		t.Errorf("destination = %s", got)
	}
}

func TestApplyFollowsNodeIntoAnotherRoom(t *testing.T) {
	d := testDoc()
	// The rooms swapped places after both events were recorded.
	if err := d.Apply(Event{Kind: Reordered, From: path.Root(), FromIndex: 0, ToIndex: 1}); err != nil {
		t.Fatal(err)
	}

	if err := d.Apply(Event{Kind: Removed, From: path.Of(0), FromIndex: 1, Node: &Node{ID: "b"}}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	c := d.Rooms[1].Children[1].Clone()
	if c.ID != "c" {
		t.Fatalf("setup: got %s", c.ID)
	}
	err := d.Apply(Event{Kind: Moved, From: path.Of(0), FromIndex: 1, To: path.Of(0), ToIndex: 0, Node: c})
	if err != nil {
		t.Fatalf("move: %v", err)
	}

	if got := names(d.Items(path.Of(0))); got != "c,x" {
		t.Errorf("x's room = %s", got)
	}
	if got := names(d.Items(path.Of(1))); got != "a,d" {
		t.Errorf("a's room = %s", got)
	}
}

func TestApplyUnknownNodeStillFails(t *testing.T) {
	d := testDoc()
	err := d.Apply(Event{Kind: Removed, From: path.Of(0), FromIndex: 0, Node: &Node{ID: "ghost"}})
	if !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("err = %v, want ErrNodeNotFound", err)
	}
	if got := names(d.Items(path.Of(0))); got != "a,b,c,d" {
		t.Errorf("room changed: %s", got)
	}
}

func TestApplyMovedIntoNestedSibling(t *testing.T) {
	d := testDoc()
	// x cannot move into its own children.
	x := d.Rooms[1].Children[0]
	err := d.Apply(Event{Kind: Moved, From: path.Of(1), FromIndex: 0, To: path.Of(1, 0), ToIndex: 0, Node: x.Clone()})
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("err = %v, want ErrCycle", err)
	}
	if got := names(d.Items(path.Of(1))); got != "x" {
		t.Errorf("document changed on failure: %s", got)
	}

	// Move b from room 0 into x's children.
	b := d.Rooms[0].Children[1].Clone()
	if err := d.Apply(Event{Kind: Moved, From: path.Of(0), FromIndex: 1, To: path.Of(1, 0), ToIndex: 2, Node: b}); err != nil {
		t.Fatal(err)
	}
	if got := names(d.Items(path.Of(1, 0))); got != "x1,x2,b" {
		t.Errorf("nested = %s", got)
	}
}

func TestApplyMovedBadDestinationLeavesSource(t *testing.T) {
	d := testDoc()
	err := d.Apply(Event{Kind: Moved, From: path.Of(0), FromIndex: 0, To: path.Of(1), ToIndex: 7, Node: &Node{ID: "a", Name: "a"}})
	if !errors.Is(err, ordered.ErrIndexOutOfRange) {
		t.Fatalf("err = %v", err)
	}
	if got := names(d.Items(path.Of(0))); got != "a,b,c,d" {
		t.Errorf("source changed on failure: %s", got)
	}
}

func TestApplyAddedAndRemoved(t *testing.T) {
	d := testDoc()
	n := DefaultNode(KindCard)
	if err := d.Apply(Event{Kind: Added, To: path.Of(1), ToIndex: 1, Node: n}); err != nil {
		t.Fatal(err)
	}
	if got := names(d.Items(path.Of(1))); got != "x,New card" {
		t.Errorf("after add = %s", got)
	}
	if err := d.Apply(Event{Kind: Removed, From: path.Of(1), FromIndex: 1, Node: n}); err != nil {
		t.Fatal(err)
	}
	if got := names(d.Items(path.Of(1))); got != "x" {
		t.Errorf("after remove = %s", got)
	}
	err := d.Apply(Event{Kind: Removed, From: path.Of(1), FromIndex: 0, Node: &Node{ID: "gone"}})
	if !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("err = %v, want ErrNodeNotFound", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	n := &Node{ID: "1", Kind: KindCard, Config: map[string]any{
		"entity": "light.x",
		"tap":    map[string]any{"action": "toggle"},
		"list":   []any{"a", map[string]any{"b": 1}},
	}, Children: []*Node{{ID: "2"}}}
	cp := n.Clone()

	cp.Config["tap"].(map[string]any)["action"] = "more-info"
	cp.Config["list"].([]any)[1].(map[string]any)["b"] = 2
	cp.Children[0].ID = "changed"

	if n.Config["tap"].(map[string]any)["action"] != "toggle" {
		t.Error("nested map aliased")
	}
	if n.Config["list"].([]any)[1].(map[string]any)["b"] != 1 {
		t.Error("nested slice aliased")
	}
	if n.Children[0].ID != "2" {
		t.Error("children aliased")
	}
}

func TestDefaultNode(t *testing.T) {
	room := DefaultNode(KindRoom)
	card := DefaultNode("element")
	if room.Kind != KindRoom || card.Kind != KindCard {
		t.Errorf("kinds = %s, %s", room.Kind, card.Kind)
	}
	if room.ID == "" || room.ID == card.ID {
		t.Errorf("ids should be fresh: %q %q", room.ID, card.ID)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	src := `title: Test
rooms:
  - kind: room
    name: Hall
    children:
      - kind: card
        name: Door
        config:
          entity: lock.front
`
	d, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if d.Rooms[0].ID == "" || d.Rooms[0].Children[0].ID == "" {
		t.Error("Load should assign IDs")
	}
	if d.Rooms[0].Children[0].Config["entity"] != "lock.front" {
		t.Errorf("config = %v", d.Rooms[0].Children[0].Config)
	}

	var buf bytes.Buffer
	if err := d.Save(&buf); err != nil {
		t.Fatal(err)
	}
	again, err := Load(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if again.Rooms[0].Children[0].ID != d.Rooms[0].Children[0].ID {
		t.Error("IDs not preserved across save/load")
	}
}

func TestSaveFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "board.yaml")
	d := Sample()
	if err := d.SaveFile(p); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if names(got.Rooms) != names(d.Rooms) {
		t.Errorf("rooms = %s, want %s", names(got.Rooms), names(d.Rooms))
	}
	entries, _ := os.ReadDir(filepath.Dir(p))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestLoadEmpty(t *testing.T) {
	d, err := Load(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Rooms) != 0 {
		t.Errorf("rooms = %d", len(d.Rooms))
	}
}
