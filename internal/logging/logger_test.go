package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestInitWritesDatedFile(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir); err != nil {
		t.Fatal(err)
	}
	Info("board opened", "rooms", 3)
	Close()
	Logger = nil

	name := filepath.Join(dir, "roomboard-"+time.Now().Format("2006-01-02")+".log")
	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "board opened") || !strings.Contains(string(data), "rooms=3") {
		t.Errorf("log = %q", data)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	Logger = nil
	Info("x")
	Debug("x")
	Warn("x")
	Error("x")
}

func TestInitWriter(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	defer func() { Logger = nil }()

	Warn("window elapsed", "ticket", 7)
	if !strings.Contains(buf.String(), "window elapsed") {
		t.Errorf("output = %q", buf.String())
	}
}
