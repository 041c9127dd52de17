package logroute

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/asys-go/core/actor"
)

func TestHandler_routes_actor_records(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, slog.LevelDebug))

	log.Info("system started", slog.String("system", "demo"))
	log.With(slog.String(actor.LogKeyAddress, "actor-1")).Info("actor created", slog.Int("n", 3))
	log.Warn("ask timed out", slog.String(actor.LogKeyAddress, "actor-2"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	require.Contains(t, lines[0], `level=INFO msg="system started" system=demo`)
	require.Contains(t, lines[1], "INFO actor-1 => actor created n=3")
	require.NotContains(t, lines[1], "level=")
	require.Contains(t, lines[2], "WARN actor-2 => ask timed out")
}

func TestHandler_actor_format_groups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, slog.LevelDebug)).
		With(slog.String(actor.LogKeyAddress, "actor-1"), slog.String("system", "demo"))

	req := log.WithGroup("req").With(slog.String("user", "bob"))
	req.Info("handled", slog.Int("id", 7), slog.Group("http", slog.Int("code", 200)))
	log.Info("plain", slog.Group("", slog.String("inline", "yes")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "actor-1 => handled system=demo req.user=bob req.id=7 req.http.code=200")
	require.Contains(t, lines[1], "actor-1 => plain inline=yes")
}

func TestHandler_level(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, slog.LevelWarn))

	log.Info("hidden")
	log.With(slog.String(actor.LogKeyAddress, "a")).Debug("hidden")
	log.Error("shown")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
}

func TestNew_file(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "demo.log")

	log, closeFn := New(Config{File: path, Writer: &buf})
	log.With(slog.String(actor.LogKeyAddress, "actor-x")).Info("hello")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "actor-x => hello")
	require.Equal(t, buf.String(), string(data))
}
