package cli

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abelbrown/roomboard/internal/journal"
	"github.com/abelbrown/roomboard/internal/tree"
)

// kindColors maps journal event kinds to their display colour.
var kindColors = map[tree.EventKind]*color.Color{
	tree.Moved:     color.New(color.FgCyan),
	tree.Reordered: color.New(color.FgBlue),
	tree.Added:     color.New(color.FgGreen),
	tree.Removed:   color.New(color.FgRed),
}

// JournalCmd returns the journal command
func JournalCmd() *cobra.Command {
	var limit int
	var summary bool

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recently applied board events",
		Long: `Print the newest entries of the event journal, one per line.

Examples:
  roomboard journal              # last 20 events
  roomboard journal --limit 100
  roomboard journal --summary    # counts per event kind`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if _, err := os.Stat(cfg.Journal.Path); os.IsNotExist(err) {
				fmt.Println("No journal yet. Run 'roomboard edit' first.")
				return nil
			}

			j, err := journal.Open(cfg.Journal.Path)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer j.Close()

			if summary {
				counts, err := j.CountByKind()
				if err != nil {
					return fmt.Errorf("count events: %w", err)
				}
				printKindCounts(os.Stdout, counts)
				return nil
			}

			entries, err := j.Recent(limit)
			if err != nil {
				return fmt.Errorf("read journal: %w", err)
			}
			if len(entries) == 0 {
				fmt.Println("Journal is empty.")
				return nil
			}
			printEntries(os.Stdout, entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().BoolVar(&summary, "summary", false, "Show counts per event kind instead of entries")
	return cmd
}

// printEntries writes entries oldest first so the newest ends up at the
// bottom of the terminal.
func printEntries(w io.Writer, entries []journal.Entry) {
	for i := len(entries) - 1; i >= 0; i-- {
		fmt.Fprintln(w, formatEntry(entries[i]))
	}
}

func formatEntry(e journal.Entry) string {
	kind := fmt.Sprintf("%-9s", e.Kind)
	if c, ok := kindColors[e.Kind]; ok {
		kind = c.Sprint(kind)
	}

	var where string
	switch e.Kind {
	case tree.Moved:
		where = fmt.Sprintf("%s#%d -> %s#%d", e.FromPath, e.FromIndex, e.ToPath, e.ToIndex)
	case tree.Reordered:
		where = fmt.Sprintf("%s %d->%d", e.FromPath, e.FromIndex, e.ToIndex)
	case tree.Removed:
		where = fmt.Sprintf("%s#%d", e.FromPath, e.FromIndex)
	case tree.Added:
		where = fmt.Sprintf("%s#%d", e.ToPath, e.ToIndex)
	}

	line := fmt.Sprintf("%s  %s  %-22s", e.AppliedAt.Local().Format("2006-01-02 15:04:05"), kind, where)
	if e.NodeName != "" {
		line += "  " + e.NodeName
	}
	return line
}

func printKindCounts(w io.Writer, counts map[tree.EventKind]int) {
	kinds := make([]tree.EventKind, 0, len(counts))
	total := 0
	for k, n := range counts {
		kinds = append(kinds, k)
		total += n
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, k := range kinds {
		label := fmt.Sprintf("%-9s", k)
		if c, ok := kindColors[k]; ok {
			label = c.Sprint(label)
		}
		fmt.Fprintf(w, "%s %6d\n", label, counts[k])
	}
	fmt.Fprintf(w, "%-9s %6d\n", "total", total)
}
