package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestCriticalLevelLabel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelCritical, "json")

	log.Error("should be filtered")
	log.Critical("boom", "component", "startup")

	out := buf.String()
	if strings.Contains(out, "should be filtered") {
		t.Fatalf("error record emitted below the critical threshold: %s", out)
	}
	if !strings.Contains(out, `"CRITICAL"`) || !strings.Contains(out, "boom") {
		t.Fatalf("expected a CRITICAL record, got %s", out)
	}
}
