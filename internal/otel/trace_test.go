package otel

import "testing"

func TestTracingSelection(t *testing.T) {
	orig := tracing.Load()
	t.Cleanup(func() { tracing.Store(orig) })

	tests := []struct {
		env  string
		comp string
		want bool
	}{
		{"", "ui", false},
		{"1", "movecoord", true},
		{"ALL", "board", true},
		{"true", "ui", true},
		{"ui", "ui", true},
		{"ui", "board", false},
		{" ui , board ", "board", true},
		{"board,", "movecoord", false},
		{"0", "ui", false},
	}
	for _, tt := range tests {
		setTrace(tt.env)
		if got := Tracing(tt.comp); got != tt.want {
			t.Errorf("ROOMBOARD_TRACE=%q Tracing(%q) = %v, want %v", tt.env, tt.comp, got, tt.want)
		}
	}
}
