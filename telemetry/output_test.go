package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/flock/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatalf("empty dir should disable output, got error: %v", err)
	}
	if om != nil {
		t.Fatal("expected nil manager for empty dir")
	}

	// All writes on a nil manager are no-ops.
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Errorf("nil manager WriteTelemetry: %v", err)
	}
	if err := om.WriteConfig(config.Default()); err != nil {
		t.Errorf("nil manager WriteConfig: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("nil manager Close: %v", err)
	}
}

func TestOutputManagerWritesCSVAndConfig(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager failed: %v", err)
	}

	if err := om.WriteConfig(config.Default()); err != nil {
		t.Fatalf("WriteConfig failed: %v", err)
	}
	for i := int64(1); i <= 2; i++ {
		stats := WindowStats{WindowEndTick: i * 100, Agents: 10, Polarization: 0.5}
		if err := om.WriteTelemetry(stats); err != nil {
			t.Fatalf("WriteTelemetry failed: %v", err)
		}
		if err := om.WritePerf(PerfStats{}, i*100); err != nil {
			t.Fatalf("WritePerf failed: %v", err)
		}
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatalf("reading telemetry.csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("telemetry.csv has %d lines, want header + 2 records", len(lines))
	}
	if !strings.Contains(lines[0], "window_end") || !strings.Contains(lines[0], "polarization") {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "100") {
		t.Errorf("first record missing window end: %q", lines[1])
	}

	if _, err := os.Stat(filepath.Join(dir, "perf.csv")); err != nil {
		t.Errorf("perf.csv missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml snapshot missing: %v", err)
	}
}
