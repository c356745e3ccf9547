package host

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xolox/negotiator/pkg/commands"
	"github.com/xolox/negotiator/pkg/protocol"
)

func listenUnix(t *testing.T) (net.Listener, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "channel.sock")
	listener, err := net.Listen("unix", path)
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })
	return listener, path
}

func TestDialGuestConnects(t *testing.T) {
	listener, path := listenUnix(t)
	ctrl := &fakeController{channels: map[string]map[string]string{
		"g1": {protocol.GuestToHostChannel: path},
	}}

	endpoint, err := DialGuest(context.Background(), ctrl, "g1", protocol.GuestToHostChannel)
	require.NoError(t, err)
	defer endpoint.Close()

	conn, err := listener.Accept()
	require.NoError(t, err)
	conn.Close()
}

func TestDialGuestMissingChannel(t *testing.T) {
	ctrl := &fakeController{channels: map[string]map[string]string{"g1": {}}}

	_, err := DialGuest(context.Background(), ctrl, "g1", protocol.GuestToHostChannel)
	require.ErrorIs(t, err, ErrChannelInit)
	require.Contains(t, err.Error(), protocol.GuestToHostChannel)
}

func TestDialGuestInspectionFailure(t *testing.T) {
	ctrl := &fakeController{channelErr: map[string]error{
		"g1": fmt.Errorf("no domain with matching name"),
	}}

	_, err := DialGuest(context.Background(), ctrl, "g1", protocol.GuestToHostChannel)
	require.ErrorIs(t, err, ErrChannelInit)
}

func TestDialGuestNobodyListening(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dangling.sock")
	ctrl := &fakeController{channels: map[string]map[string]string{
		"g1": {protocol.GuestToHostChannel: path},
	}}

	_, err := DialGuest(context.Background(), ctrl, "g1", protocol.GuestToHostChannel)
	require.ErrorIs(t, err, ErrChannelInit)
}

// TestServeGuestAnswersCalls drives a full worker serve loop over a real
// UNIX socket: the test plays the guest and calls execute, checking that the
// spawned script sees NEGOTIATOR_GUEST.
func TestServeGuestAnswersCalls(t *testing.T) {
	listener, path := listenUnix(t)
	ctrl := &fakeController{channels: map[string]map[string]string{
		"g1": {protocol.GuestToHostChannel: path},
	}}

	builtin := t.TempDir()
	script := filepath.Join(builtin, "whoami")
	require.NoError(t, os.WriteFile(script,
		[]byte("#!/bin/sh\nprintf '%s' \"$NEGOTIATOR_GUEST\"\n"), 0o600))
	require.NoError(t, os.Chmod(script, 0o755))
	catalog := commands.NewCatalog(builtin, t.TempDir())

	served := make(chan error, 1)
	go func() {
		served <- ServeGuest(context.Background(), ctrl, "g1", catalog)
	}()

	conn, err := listener.Accept()
	require.NoError(t, err)
	guest := protocol.NewEndpoint(conn, "test guest")

	result, err := guest.Call(context.Background(), "execute", []any{"whoami"}, nil)
	require.NoError(t, err)
	require.Equal(t, "g1", result)

	result, err = guest.Call(context.Background(), "list_commands", nil, nil)
	require.NoError(t, err)
	require.Equal(t, []any{"whoami"}, result)

	require.NoError(t, guest.Close())
	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("serve loop did not stop after the guest hung up")
	}
}
