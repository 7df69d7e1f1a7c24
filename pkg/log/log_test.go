package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func restore(t *testing.T) {
	level, out := Level(), active.Load().out
	t.Cleanup(func() { install(level, out) })
}

func TestLevels(t *testing.T) {
	restore(t)
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelInfo)

	Debug("hidden %d", 1)
	Info("shown %d", 2)
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown 2") {
		t.Fatalf("info level output = %q", buf.String())
	}

	buf.Reset()
	SetLevel(LevelTrace)
	Trace("scan %s", "A1")
	if !strings.Contains(buf.String(), "level=TRACE") || !strings.Contains(buf.String(), "scan A1") {
		t.Errorf("trace output = %q", buf.String())
	}
	if Level() != LevelTrace {
		t.Errorf("Level() = %v, want trace", Level())
	}
}

func TestToFile(t *testing.T) {
	restore(t)
	var term bytes.Buffer
	SetOutput(&term)

	path := filepath.Join(t.TempDir(), "qrscan.log")
	done, err := ToFile(path)
	if err != nil {
		t.Fatalf("ToFile: %v", err)
	}
	Info("while the screen is busy")
	if err := done(); err != nil {
		t.Fatalf("closing log file: %v", err)
	}
	Info("back on the terminal")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "while the screen is busy") || strings.Contains(string(data), "back on the terminal") {
		t.Errorf("log file = %q", data)
	}
	if !strings.Contains(term.String(), "back on the terminal") {
		t.Errorf("restored output = %q", term.String())
	}

	if _, err := ToFile(filepath.Join(t.TempDir(), "missing", "x.log")); err == nil {
		t.Error("ToFile into a missing directory should fail")
	}
}
