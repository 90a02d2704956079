package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestConfigureOnce(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "loxkit-test"})

	// A second Configure must not replace the writer.
	Configure(Config{Output: &bytes.Buffer{}, Service: "other"})

	logger := WithComponent("worker")
	logger.Info().Str("event", "test.emit").Msg("hello")
	logger.Debug().Msg("debug visible")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["service"] != "loxkit-test" {
		t.Errorf("service = %v, want loxkit-test", entry["service"])
	}
	if entry["component"] != "worker" {
		t.Errorf("component = %v, want worker", entry["component"])
	}
	if entry["event"] != "test.emit" {
		t.Errorf("event = %v, want test.emit", entry["event"])
	}
	if entry["time"] == nil {
		t.Error("expected a time field")
	}
}

func TestDerive(t *testing.T) {
	logger := Derive(nil)
	logger.Info().Msg("derive with nil builder must not panic")
}
