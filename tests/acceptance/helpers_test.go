//go:build acceptance

package acceptance

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xolox/negotiator/pkg/protocol"
)

const cliTimeout = 15 * time.Second

func hostBin(t *testing.T) string {
	t.Helper()
	if bin := os.Getenv("NEGOTIATOR_HOST_BIN"); bin != "" {
		return bin
	}
	return "negotiator-host"
}

// fakeVirsh writes a shell script that emulates the two virsh invocations
// the host side performs: listing domains and dumping domain XML.
func fakeVirsh(t *testing.T, guests map[string]map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	var listing strings.Builder
	listing.WriteString(" Id   Name   State\n--------------------------\n")
	id := 1
	for name := range guests {
		fmt.Fprintf(&listing, " %d    %s    running\n", id, name)
		id++
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "list.txt"),
		[]byte(listing.String()), 0o644))

	for name, channels := range guests {
		var xml strings.Builder
		xml.WriteString("<domain type='kvm'>\n  <devices>\n")
		for channel, path := range channels {
			fmt.Fprintf(&xml, `    <channel type='unix'>
      <source mode='bind' path='%s'/>
      <target type='virtio' name='%s'/>
    </channel>
`, path, channel)
		}
		xml.WriteString("  </devices>\n</domain>\n")
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".xml"),
			[]byte(xml.String()), 0o644))
	}

	script := fmt.Sprintf(`#!/bin/sh
case "$1" in
  list) cat %s/list.txt ;;
  dumpxml) cat "%s/$2.xml" ;;
  *) echo "unsupported: $@" >&2; exit 1 ;;
esac
`, dir, dir)
	path := filepath.Join(dir, "virsh")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o600))
	require.NoError(t, os.Chmod(path, 0o755))
	return path
}

// serveAsGuest listens on the socket and answers one connection with the
// given dispatcher, playing the part of the guest agent.
func serveAsGuest(t *testing.T, socketPath string, d protocol.Dispatcher) {
	t.Helper()
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		endpoint := protocol.NewEndpoint(conn, "acceptance guest")
		defer endpoint.Close()
		endpoint.Serve(ctx, d)
	}()
}

func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	bin := hostBin(t)
	cmd := exec.Command(bin, args...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	require.NoError(t, cmd.Start(), "failed to start %s %v", bin, args)
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		exitCode := 0
		if err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				exitCode = exitErr.ExitCode()
			} else {
				require.NoError(t, err, "failed to run %s %v", bin, args)
			}
		}
		return stdout.String(), stderr.String(), exitCode
	case <-time.After(cliTimeout):
		cmd.Process.Kill()
		require.Fail(t, "command timed out", "%s %v", bin, args)
		return "", "", -1
	}
}
