package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/abelbrown/roomboard/internal/journal"
	"github.com/abelbrown/roomboard/internal/tree"
)

func TestFormatEntry(t *testing.T) {
	color.NoColor = true
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)

	tests := []struct {
		entry journal.Entry
		want  string
	}{
		{journal.Entry{Kind: tree.Moved, FromPath: "0", FromIndex: 2, ToPath: "1", ToIndex: 0, NodeName: "Lamp", AppliedAt: at}, "0#2 -> 1#0"},
		{journal.Entry{Kind: tree.Reordered, FromPath: "2", FromIndex: 0, ToIndex: 3, AppliedAt: at}, "2 0->3"},
		{journal.Entry{Kind: tree.Removed, FromPath: "1", FromIndex: 4, AppliedAt: at}, "1#4"},
		{journal.Entry{Kind: tree.Added, ToPath: "0", ToIndex: 1, NodeName: "New card", AppliedAt: at}, "New card"},
	}
	for _, tt := range tests {
		got := formatEntry(tt.entry)
		if !strings.Contains(got, tt.want) || !strings.Contains(got, string(tt.entry.Kind)) {
			t.Errorf("formatEntry(%s) = %q, want it to contain %q", tt.entry.Kind, got, tt.want)
		}
		if !strings.HasPrefix(got, "2024-03-01 12:00:00") {
			t.Errorf("formatEntry should lead with the timestamp, got %q", got)
		}
	}
}

func TestPrintEntriesOldestFirst(t *testing.T) {
	color.NoColor = true
	newest := journal.Entry{Kind: tree.Added, NodeName: "newest", AppliedAt: time.Now()}
	oldest := journal.Entry{Kind: tree.Added, NodeName: "oldest", AppliedAt: time.Now().Add(-time.Minute)}

	var buf bytes.Buffer
	printEntries(&buf, []journal.Entry{newest, oldest})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if !strings.HasSuffix(lines[0], "oldest") || !strings.HasSuffix(lines[1], "newest") {
		t.Errorf("lines out of order:\n%s", buf.String())
	}
}

func TestPrintKindCounts(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	printKindCounts(&buf, map[tree.EventKind]int{tree.Moved: 3, tree.Added: 1})
	out := buf.String()
	if !strings.HasPrefix(out, "added") {
		t.Errorf("kinds should be sorted, got:\n%s", out)
	}
	if !strings.Contains(out, "total          4") {
		t.Errorf("missing total, got:\n%s", out)
	}
}
