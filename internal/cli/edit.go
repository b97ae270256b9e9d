package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abelbrown/roomboard/internal/board"
	"github.com/abelbrown/roomboard/internal/config"
	"github.com/abelbrown/roomboard/internal/logging"
	"github.com/abelbrown/roomboard/internal/otel"
	"github.com/abelbrown/roomboard/internal/tree"
	"github.com/abelbrown/roomboard/internal/ui"
)

// noticeBuffer is the channel capacity between the engine and the UI loop.
const noticeBuffer = 256

// EditCmd returns the edit command
func EditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit [file]",
		Short: "Edit a board document in the terminal",
		Long: `Open a YAML board document in the interactive editor.

Rooms are shown as columns. Carry a card with space and drop it with enter;
dropping into another room pairs the two halves of the drag. A card that
leaves and lands nowhere is deleted, and a drop that nothing left for adds a
new card. The document is saved when the editor quits.

Examples:
  roomboard edit                 # the configured document
  roomboard edit house.yaml      # a specific file (created if missing)`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			docPath := cfg.Document.Path
			if len(args) == 1 {
				docPath = args[0]
			}
			return runEdit(cfg, docPath)
		},
	}
}

func runEdit(cfg *config.Config, docPath string) error {
	doc, created, err := loadOrSample(docPath)
	if err != nil {
		return err
	}

	rt, err := openRuntime(cfg, "")
	if err != nil {
		return err
	}
	defer rt.close()

	rt.logger.Emit(otel.Event{
		Level: otel.LevelInfo,
		Kind:  otel.KindStartup,
		Comp:  "main",
		Msg:   docPath,
		Extra: map[string]any{"created": created, "rooms": len(doc.Rooms)},
	})
	start := time.Now()

	notices := newNoticeQueue(noticeBuffer, rt.logger)

	activity := ui.NewActivity()
	b := board.New(doc, rt.engine,
		board.WithSink(rt.journal.Sink(rt.logger)),
		board.WithSink(activity.Record),
		board.WithPost(notices.Post),
		board.WithLogger(rt.logger),
	)

	app := ui.NewApp(ui.Config{
		Board:    b,
		Notices:  notices.C(),
		Activity: activity,
		Ring:     rt.ring,
		Logger:   rt.logger,
	})
	program := tea.NewProgram(app, tea.WithAltScreen())
	_, runErr := program.Run()
	notices.Close()

	// Pending drags die with the session.
	rt.engine.Close()

	saveErr := b.Snapshot().SaveFile(docPath)
	if saveErr != nil {
		logging.Error("save document", "path", docPath, "error", saveErr)
		rt.logger.Error(otel.KindError, "main", saveErr)
	}

	stats := rt.engine.Stats()
	rt.logger.Emit(otel.Event{
		Level: otel.LevelInfo,
		Kind:  otel.KindShutdown,
		Comp:  "main",
		Dur:   time.Since(start),
		Count: activity.Total(),
		Extra: map[string]any{
			"resolved":           stats.Resolved,
			"expired_departures": stats.ExpiredDepartures,
			"expired_arrivals":   stats.ExpiredArrivals,
		},
	})

	if runErr != nil {
		return fmt.Errorf("run editor: %w", runErr)
	}
	if saveErr != nil {
		return fmt.Errorf("save %s: %w", docPath, saveErr)
	}
	fmt.Printf("%s %s (%d changes)\n", color.New(color.FgGreen).Sprint("✓ saved"), docPath, activity.Total())
	return nil
}

// loadOrSample reads path, or returns the sample document when the file does
// not exist yet.
func loadOrSample(path string) (*tree.Document, bool, error) {
	doc, err := tree.LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return tree.Sample(), true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", path, err)
	}
	return doc, false, nil
}
