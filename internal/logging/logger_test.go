package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestEnabledToggle(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)
	defer SetEnabled(true)

	SetEnabled(false)
	LogInfo("hidden", "k", 1)
	if buf.Len() != 0 {
		t.Fatalf("disabled logger wrote %q", buf.String())
	}

	SetEnabled(true)
	LogInfo("shown", "k", 2)
	if !strings.Contains(buf.String(), "shown") || !strings.Contains(buf.String(), "k=2") {
		t.Errorf("enabled logger output = %q", buf.String())
	}
}

func TestDebugMode(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)
	defer SetDebugMode(false)

	SetDebugMode(false)
	LogDebug("quiet")
	if buf.Len() != 0 {
		t.Fatalf("debug message logged at info level: %q", buf.String())
	}
	if IsDebugMode() {
		t.Fatal("IsDebugMode() = true, want false")
	}

	SetDebugMode(true)
	LogDebug("loud")
	if !strings.Contains(buf.String(), "loud") {
		t.Errorf("debug output = %q", buf.String())
	}
}
