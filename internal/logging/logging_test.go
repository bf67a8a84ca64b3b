package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSetupLevelAndFormat(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	Setup(&buf, "warn", "json")
	slog.Info("hidden")
	slog.Warn("shown", "zoom", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line leaked at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"zoom":3`) {
		t.Errorf("unexpected json output: %s", out)
	}
}

func TestSetupDefaultsToTextInfo(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	Setup(&buf, "", "")
	slog.Debug("quiet")
	slog.Info("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") || !strings.Contains(out, "msg=loud") {
		t.Errorf("unexpected text output: %s", out)
	}
}

func TestSetupUnknownLevelIsInfo(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	Setup(&buf, "verbose", "JSON")
	slog.Debug("quiet")
	slog.Info("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") || !strings.Contains(out, `"msg":"loud"`) {
		t.Errorf("unexpected output: %s", out)
	}
}
