package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/roomboard/internal/otel"
)

func TestDebugOverlayNilRing(t *testing.T) {
	result := debugOverlay(nil, 80, 24)
	if result != "" {
		t.Errorf("debugOverlay(nil) should return empty string, got %q", result)
	}
}

func TestDebugOverlayRendersStats(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	ring.Push(otel.Event{Kind: otel.KindDepart, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindDepart, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindArrive, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindResolve, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindExpire, Time: time.Now()})

	result := debugOverlay(ring, 80, 40)

	if !strings.Contains(result, "Coordination") {
		t.Error("overlay should contain 'Coordination' header")
	}
	if !strings.Contains(result, "2 departures, 1 arrivals") {
		t.Errorf("overlay should show record counts, got:\n%s", result)
	}
	if !strings.Contains(result, "1 resolved, 1 expired, 0 rejected") {
		t.Errorf("overlay should show outcome counts, got:\n%s", result)
	}
	if !strings.Contains(result, "5 events") {
		t.Errorf("overlay should show buffer size, got:\n%s", result)
	}
}

func TestDebugOverlayRecentEvents(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	ring.Push(otel.Event{Kind: otel.KindApply, Time: time.Now(), Msg: "hello world"})
	ring.Push(otel.Event{Kind: otel.KindApplyError, Time: time.Now(), Err: "timeout"})
	ring.Push(otel.Event{Kind: otel.KindResolve, Time: time.Now(), Ticket: 42, From: "0#2", To: "1#0"})

	result := debugOverlay(ring, 80, 40)

	if !strings.Contains(result, "Recent Events") {
		t.Error("overlay should contain 'Recent Events' header")
	}
	if !strings.Contains(result, "hello world") {
		t.Errorf("overlay should show event message, got:\n%s", result)
	}
	if !strings.Contains(result, "ERR:timeout") {
		t.Errorf("overlay should show error, got:\n%s", result)
	}
	if !strings.Contains(result, "#42") || !strings.Contains(result, "0#2→1#0") {
		t.Errorf("overlay should show ticket and locations, got:\n%s", result)
	}
}

func TestDebugOverlayTruncation(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	for i := 0; i < 30; i++ {
		ring.Push(otel.Event{Kind: otel.KindDepart, Time: time.Now()})
	}

	// Very small height should still render without panic
	result := debugOverlay(ring, 80, 10)
	if result == "" {
		t.Error("overlay should still render with small height")
	}

	lines := strings.Count(result, "\n")
	if lines > 20 { // generous bound accounting for lipgloss borders
		t.Errorf("overlay should be truncated, got %d lines", lines)
	}
}

func TestDebugToggle(t *testing.T) {
	f := newFixture(t)
	ring := otel.NewRingBuffer(16)
	f.app.ring = ring

	if f.app.showDebug {
		t.Error("debug should be hidden initially")
	}

	model, _ := f.app.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	updated := model.(App)
	if !updated.showDebug {
		t.Error("ctrl+d should show debug overlay")
	}
	if view := updated.View(); !strings.Contains(view, "[DEBUG]") {
		t.Errorf("debug view should contain '[DEBUG]', got:\n%s", view)
	}

	model, _ = updated.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	if model.(App).showDebug {
		t.Error("second ctrl+d should hide debug overlay")
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		dur  time.Duration
		want string
	}{
		{0, "0ms"},
		{50 * time.Millisecond, "50ms"},
		{999 * time.Millisecond, "999ms"},
		{1500 * time.Millisecond, "1.5s"},
		{30 * time.Second, "30.0s"},
		{90 * time.Second, "2m"}, // 1.5 minutes rounds to 2 with %.0f
		{5 * time.Minute, "5m"},
	}
	for _, tt := range tests {
		got := formatAge(tt.dur)
		if got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.dur, got, tt.want)
		}
	}
}

func TestFormatAgeNegative(t *testing.T) {
	got := formatAge(-5 * time.Second)
	if got != "0ms" {
		t.Errorf("formatAge(-5s) = %q, want \"0ms\"", got)
	}
}
