package main

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xolox/negotiator/pkg/host"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })
	return &buf
}

func TestWorkerLoggerCarriesSupervisorAssignedID(t *testing.T) {
	t.Setenv(host.EnvWorkerID, "1a2b3c4d")
	buf := captureLogs(t)

	workerLogger("webserver").Info("worker started")
	require.Contains(t, buf.String(), "guest=webserver")
	require.Contains(t, buf.String(), "worker=1a2b3c4d")
}

func TestWorkerLoggerWithoutAssignedID(t *testing.T) {
	t.Setenv(host.EnvWorkerID, "")
	buf := captureLogs(t)

	workerLogger("webserver").Info("worker started")
	require.Contains(t, buf.String(), "guest=webserver")
	require.NotContains(t, buf.String(), "worker=")
}
