package otel

import (
	"os"
	"strings"
	"sync/atomic"
)

// ROOMBOARD_TRACE turns on per-message trace events. "1", "true" and "all"
// trace every component; any other value is a comma-separated list of
// component names such as "ui,board".
const traceEnv = "ROOMBOARD_TRACE"

type traceSet struct {
	all   bool
	comps map[string]bool
}

var tracing atomic.Pointer[traceSet]

func init() {
	setTrace(os.Getenv(traceEnv))
}

func parseTrace(v string) *traceSet {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "", "0", "false", "off":
		return &traceSet{}
	case "1", "true", "all":
		return &traceSet{all: true}
	}
	ts := &traceSet{comps: make(map[string]bool)}
	for _, c := range strings.Split(v, ",") {
		if c = strings.TrimSpace(c); c != "" {
			ts.comps[c] = true
		}
	}
	return ts
}

// Tracing reports whether comp should emit trace events.
func Tracing(comp string) bool {
	ts := tracing.Load()
	return ts.all || ts.comps[comp]
}

// setTrace replaces the trace selection; tests use it in place of the
// environment.
func setTrace(v string) {
	tracing.Store(parseTrace(v))
}
