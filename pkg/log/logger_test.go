package log

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"info", LevelInfo},
		{"nonsense", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupAndFields(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, LevelInfo)
	defer Setup(nil, LevelInfo)

	logger := GetLoggerWithName("trainer").With(OperationKey, "fit")
	logger.Info("model fitted", SamplesKey, 150)

	out := buf.String()
	for _, want := range []string{`"component":"trainer"`, `"operation":"fit"`, `"n_samples":150`, "model fitted"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, LevelWarn)
	defer Setup(nil, LevelInfo)

	logger := GetLogger()
	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("low-level records leaked: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn record missing: %q", out)
	}
	if logger.Enabled(context.Background(), LevelInfo) {
		t.Error("Enabled(info) = true at warn level")
	}
	if !logger.Enabled(context.Background(), LevelError) {
		t.Error("Enabled(error) = false at warn level")
	}
}
