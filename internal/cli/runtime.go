// Package cli implements the roomboard subcommands.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abelbrown/roomboard/internal/config"
	"github.com/abelbrown/roomboard/internal/journal"
	"github.com/abelbrown/roomboard/internal/logging"
	"github.com/abelbrown/roomboard/internal/movecoord"
	"github.com/abelbrown/roomboard/internal/otel"
	"github.com/abelbrown/roomboard/internal/tree"
)

// ConfigFile is bound to the root --config flag.
var ConfigFile string

// loadConfig reads the config named by --config, falling back to
// ROOMBOARD_CONFIG and then ~/.roomboard/config.json.
func loadConfig() (*config.Config, error) {
	if ConfigFile != "" {
		return config.LoadFrom(ConfigFile)
	}
	return config.Load()
}

// runtime bundles the long-lived pieces an interactive or simulated session
// needs. close releases them in reverse order.
type runtime struct {
	cfg     *config.Config
	logger  *otel.Logger
	ring    *otel.RingBuffer
	journal *journal.Journal
	engine  *movecoord.Engine[*tree.Node]

	eventsFile *os.File
}

// openRuntime wires config into an event logger, a journal and an engine.
// An empty journalPath uses the configured one.
func openRuntime(cfg *config.Config, journalPath string) (*runtime, error) {
	rt := &runtime{cfg: cfg}

	if err := logging.Init(filepath.Join(config.Dir(), "logs")); err != nil {
		fmt.Fprintf(os.Stderr, "warning: file logging disabled: %v\n", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Events.Path), 0755); err != nil {
		return nil, fmt.Errorf("create events dir: %w", err)
	}
	f, err := os.OpenFile(cfg.Events.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logging.Warn("event log unavailable", "path", cfg.Events.Path, "error", err)
		rt.logger = otel.NewNullLogger()
	} else {
		rt.eventsFile = f
		rt.logger = otel.NewLogger(f)
	}
	rt.ring = otel.NewRingBuffer(otel.DefaultRingSize)
	rt.logger.SetRingBuffer(rt.ring)

	if journalPath == "" {
		journalPath = cfg.Journal.Path
	}
	if journalPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(journalPath), 0755); err != nil {
			rt.close()
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	j, err := journal.Open(journalPath)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("open journal: %w", err)
	}
	rt.journal = j

	rt.engine = movecoord.New(
		movecoord.WithWindow[*tree.Node](cfg.Coordination.Window),
		movecoord.WithPolicy[*tree.Node](cfg.MovePolicy()),
		movecoord.WithLogger[*tree.Node](rt.logger),
	)

	logging.Info("runtime ready",
		"window", cfg.Coordination.Window,
		"policy", cfg.Coordination.Policy,
		"journal", journalPath,
		"session", rt.logger.SessionID())
	return rt, nil
}

func (rt *runtime) close() {
	if rt.engine != nil {
		rt.engine.Close()
	}
	if rt.journal != nil {
		if err := rt.journal.Close(); err != nil {
			logging.Warn("close journal", "error", err)
		}
	}
	if rt.logger != nil {
		rt.logger.Close()
	}
	if rt.eventsFile != nil {
		rt.eventsFile.Close()
	}
	logging.Close()
}
