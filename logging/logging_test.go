package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"WARN", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSetupConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	logFile := filepath.Join(t.TempDir(), "logs", "pepcensus.log")

	logger, closer, err := Setup(Options{
		Level:   "info",
		File:    logFile,
		Console: &console,
		NoColor: true,
	})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.With("mode", "pep").Error("status mismatch", "url", "https://peps.python.org/pep-0001/")
	require.NoError(t, closer.Close())

	require.NotContains(t, console.String(), "hidden")
	require.Contains(t, console.String(), "status mismatch")
	require.Contains(t, console.String(), "url=https://peps.python.org/pep-0001/")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	require.Equal(t, "status mismatch", record["msg"])
	require.Equal(t, "ERROR", record["level"])
	require.Equal(t, "pep", record["mode"])
}

func TestSetupJSONConsoleWithoutFile(t *testing.T) {
	var console bytes.Buffer
	logger, closer, err := Setup(Options{Format: "json", File: "-", Console: &console})
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("archive downloaded", "path", "downloads/python-docs-pdf-a4.zip")

	var record map[string]any
	require.NoError(t, json.Unmarshal(console.Bytes(), &record))
	require.Equal(t, "downloads/python-docs-pdf-a4.zip", record["path"])
}

func TestSetupQuietConsole(t *testing.T) {
	logger, closer, err := Setup(Options{File: filepath.Join(t.TempDir(), "run.log")})
	require.NoError(t, err)
	defer closer.Close()

	require.True(t, logger.Enabled(t.Context(), slog.LevelInfo))
	require.False(t, logger.Enabled(t.Context(), slog.LevelDebug))
}

func TestSetupWithoutSink(t *testing.T) {
	for _, file := range []string{"", "-"} {
		_, _, err := Setup(Options{Level: "info", File: file})
		require.ErrorIs(t, err, ErrNoSink, "file %q", file)
	}
}

func TestSetupInvalidLevel(t *testing.T) {
	_, _, err := Setup(Options{Level: "chatty"})
	require.Error(t, err)
}

func TestFanoutWithGroup(t *testing.T) {
	var a, b bytes.Buffer
	logger := slog.New(NewFanout(
		slog.NewTextHandler(&a, nil),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	))

	logger.WithGroup("pep").Info("entry tallied", "category", "A")

	require.Contains(t, a.String(), "pep.category=A")
	require.Empty(t, b.String())
}
