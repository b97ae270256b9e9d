package ordered

import (
	"errors"
	"slices"
	"testing"
)

func TestMoveScenario(t *testing.T) {
	got, err := Move([]string{"a", "b", "c", "d"}, 0, 2)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	want := []string{"b", "c", "a", "d"}
	if !slices.Equal(got, want) {
		t.Errorf("Move = %v, want %v", got, want)
	}
}

func TestMoveBackward(t *testing.T) {
	got, err := Move([]string{"a", "b", "c", "d"}, 3, 1)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	want := []string{"a", "d", "b", "c"}
	if !slices.Equal(got, want) {
		t.Errorf("Move = %v, want %v", got, want)
	}
}

// For every valid (i, j) the result is a permutation with s[i] at j, the
// remaining elements in their original order, and moving back restores s.
func TestMoveProperties(t *testing.T) {
	s := []int{10, 11, 12, 13, 14, 15}
	for i := range s {
		for j := range s {
			got, err := Move(s, i, j)
			if err != nil {
				t.Fatalf("Move(%d, %d): %v", i, j, err)
			}
			if len(got) != len(s) {
				t.Fatalf("Move(%d, %d) changed length to %d", i, j, len(got))
			}
			if got[j] != s[i] {
				t.Errorf("Move(%d, %d)[%d] = %d, want %d", i, j, j, got[j], s[i])
			}

			rest := slices.Delete(slices.Clone(s), i, i+1)
			gotRest := slices.Delete(slices.Clone(got), j, j+1)
			if !slices.Equal(rest, gotRest) {
				t.Errorf("Move(%d, %d) reordered others: %v vs %v", i, j, gotRest, rest)
			}

			back, err := Move(got, j, i)
			if err != nil {
				t.Fatalf("Move back (%d, %d): %v", j, i, err)
			}
			if !slices.Equal(back, s) {
				t.Errorf("round trip (%d, %d) = %v, want %v", i, j, back, s)
			}
		}
	}
}

func TestMoveReturnsFreshSlice(t *testing.T) {
	s := []int{1, 2, 3}
	got, err := Move(s, 1, 1)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if !slices.Equal(got, s) {
		t.Errorf("no-op move changed contents: %v", got)
	}
	if &got[0] == &s[0] {
		t.Errorf("no-op move returned the input backing array")
	}
	got[0] = 99
	if s[0] != 1 {
		t.Errorf("mutating the result leaked into the input")
	}
}

func TestMoveOutOfRange(t *testing.T) {
	s := []int{1, 2, 3}
	cases := []struct{ from, to int }{{-1, 0}, {0, 3}, {3, 0}, {0, -1}}
	for _, c := range cases {
		_, err := Move(s, c.from, c.to)
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Move(%d, %d) err = %v, want ErrIndexOutOfRange", c.from, c.to, err)
		}
		var ie *IndexError
		if !errors.As(err, &ie) {
			t.Errorf("Move(%d, %d) err is not *IndexError", c.from, c.to)
		}
	}
	if _, err := Move([]int{}, 0, 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Move on empty slice err = %v", err)
	}
}

func TestInsertRemove(t *testing.T) {
	s := []string{"a", "c"}
	got, err := Insert(s, 1, "b")
	if err != nil || !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("Insert = %v, %v", got, err)
	}
	got, err = Insert(got, 3, "d")
	if err != nil || !slices.Equal(got, []string{"a", "b", "c", "d"}) {
		t.Fatalf("Insert at end = %v, %v", got, err)
	}
	if _, err := Insert(s, 3, "x"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Insert past end err = %v", err)
	}

	rest, v, err := Remove(got, 0)
	if err != nil || v != "a" || !slices.Equal(rest, []string{"b", "c", "d"}) {
		t.Fatalf("Remove = %v, %q, %v", rest, v, err)
	}
	if got[0] != "a" {
		t.Errorf("Remove mutated its input")
	}
	if _, _, err := Remove(rest, 3); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Remove out of range err = %v", err)
	}
}
