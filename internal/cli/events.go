package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// eventRecord mirrors otel.Event for JSON decoding. Decoding the JSONL
// directly keeps the viewer working across schema changes.
type eventRecord struct {
	Time      time.Time      `json:"t"`
	Level     string         `json:"level"`
	Kind      string         `json:"kind"`
	Comp      string         `json:"comp"`
	SessionID string         `json:"session_id"`
	Category  string         `json:"cat"`
	Ticket    uint64         `json:"ticket"`
	From      string         `json:"from"`
	To        string         `json:"to"`
	DurMs     float64        `json:"dur_ms"`
	Count     int            `json:"count"`
	Err       string         `json:"err"`
	Msg       string         `json:"msg"`
	Extra     map[string]any `json:"extra"`
}

// levelRank returns a numeric rank for filtering (higher = more severe).
func levelRank(level string) int {
	switch level {
	case "debug":
		return 0
	case "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	default:
		return 0
	}
}

// eventFilter selects which records the viewer prints.
type eventFilter struct {
	kind    string
	level   string
	comp    string
	cat     string
	ticket  uint64
	session string
}

func (f eventFilter) match(ev eventRecord) bool {
	if f.kind != "" && !strings.HasPrefix(ev.Kind, f.kind) {
		return false
	}
	if f.level != "" && levelRank(ev.Level) < levelRank(f.level) {
		return false
	}
	if f.comp != "" && ev.Comp != f.comp {
		return false
	}
	if f.cat != "" && ev.Category != f.cat {
		return false
	}
	if f.ticket != 0 && ev.Ticket != f.ticket {
		return false
	}
	if f.session != "" && !strings.HasPrefix(ev.SessionID, f.session) {
		return false
	}
	return true
}

var levelColors = map[string]*color.Color{
	"warn":  color.New(color.FgYellow),
	"error": color.New(color.FgRed, color.Bold),
}

// formatEvent renders one record as a single human-readable line.
func formatEvent(ev eventRecord) string {
	ts := ev.Time.Local().Format("15:04:05.000")
	lvl := strings.ToUpper(ev.Level)
	if lvl == "" {
		lvl = "?"
	}
	lvl = fmt.Sprintf("%-5s", lvl)
	if c, ok := levelColors[ev.Level]; ok {
		lvl = c.Sprint(lvl)
	}

	parts := []string{fmt.Sprintf("%s %s [%-9s] %-18s", ts, lvl, ev.Comp, ev.Kind)}

	if ev.Ticket != 0 {
		parts = append(parts, fmt.Sprintf("#%d", ev.Ticket))
	}
	if ev.Category != "" {
		parts = append(parts, "cat="+ev.Category)
	}
	if ev.From != "" || ev.To != "" {
		parts = append(parts, fmt.Sprintf("%s→%s", orDash(ev.From), orDash(ev.To)))
	}
	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}

	return strings.Join(parts, " ")
}

// EventsCmd returns the events command
func EventsCmd() *cobra.Command {
	var (
		tail    int
		follow  bool
		rawJSON bool
		filter  eventFilter
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "View the JSONL observability log",
		Long: `Print recent coordination and board events from the event log.

Examples:
  roomboard events                      # last 50 events
  roomboard events -f                   # follow new events
  roomboard events --kind move.         # coordination events only
  roomboard events --level warn         # warnings and errors
  roomboard events --ticket 12          # one record's lifecycle`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			f, err := os.Open(cfg.Events.Path)
			if err != nil {
				return fmt.Errorf("event log not found at %s (run 'roomboard edit' first): %w", cfg.Events.Path, err)
			}
			defer f.Close()

			out := cmd.OutOrStdout()
			format := func(l parsedLine) string {
				if rawJSON {
					return string(l.raw)
				}
				return formatEvent(l.ev)
			}

			for _, l := range readTailLines(f, tail, filter.match) {
				fmt.Fprintln(out, format(l))
			}
			if !follow {
				return nil
			}

			// Follow mode: poll for lines appended after the tail.
			ctx := cmd.Context()
			reader := bufio.NewReader(f)
			for {
				line, err := reader.ReadBytes('\n')
				if err != nil {
					if err != io.EOF {
						return err
					}
					select {
					case <-ctx.Done():
						return nil
					case <-time.After(100 * time.Millisecond):
					}
					continue
				}
				line = trimLine(line)
				if len(line) == 0 {
					continue
				}
				var ev eventRecord
				if json.Unmarshal(line, &ev) != nil {
					continue
				}
				if filter.match(ev) {
					fmt.Fprintln(out, format(parsedLine{ev: ev, raw: line}))
				}
			}
		},
	}

	cmd.Flags().IntVar(&tail, "tail", 50, "Number of recent lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow mode (like tail -f)")
	cmd.Flags().BoolVar(&rawJSON, "json", false, "Output raw JSON lines")
	cmd.Flags().StringVar(&filter.kind, "kind", "", "Filter by event kind prefix (e.g. 'move.')")
	cmd.Flags().StringVar(&filter.level, "level", "", "Minimum level: debug, info, warn, error")
	cmd.Flags().StringVar(&filter.comp, "comp", "", "Filter by component name")
	cmd.Flags().StringVar(&filter.cat, "cat", "", "Filter by item category")
	cmd.Flags().Uint64Var(&filter.ticket, "ticket", 0, "Filter by coordination ticket")
	cmd.Flags().StringVar(&filter.session, "session", "", "Filter by session ID prefix")
	return cmd
}

type parsedLine struct {
	ev  eventRecord
	raw []byte
}

// readTailLines reads r and returns the last n lines matching the filter.
func readTailLines(r io.Reader, n int, match func(eventRecord) bool) []parsedLine {
	scanner := bufio.NewScanner(r)
	// Allow large lines (Extra maps can be big)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	var ring []parsedLine
	if n > 0 {
		ring = make([]parsedLine, 0, n)
	}

	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(raw, &ev) != nil {
			continue
		}
		if !match(ev) || n <= 0 {
			continue
		}
		// The scanner reuses its buffer.
		rawCopy := make([]byte, len(raw))
		copy(rawCopy, raw)

		if len(ring) < n {
			ring = append(ring, parsedLine{ev: ev, raw: rawCopy})
		} else {
			copy(ring, ring[1:])
			ring[n-1] = parsedLine{ev: ev, raw: rawCopy}
		}
	}

	return ring
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
