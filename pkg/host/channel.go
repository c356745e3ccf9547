package host

import (
	"context"
	"net"

	"github.com/xolox/negotiator/internal/errx"
	"github.com/xolox/negotiator/pkg/commands"
	"github.com/xolox/negotiator/pkg/hypervisor"
	"github.com/xolox/negotiator/pkg/protocol"
)

// DialGuest derives the UNIX socket for one of a guest's negotiator
// channels from the hypervisor's domain XML and connects to it. A guest
// that doesn't expose the channel, or a socket nobody is listening on yet,
// surfaces as ErrChannelInit — a transient the supervisor retries quietly.
func DialGuest(ctx context.Context, ctrl hypervisor.Controller, guest, channelName string) (*protocol.Endpoint, error) {
	paths, err := ctrl.ChannelPaths(ctx, guest)
	if err != nil {
		return nil, errx.Wrap(ErrChannelInit, err)
	}
	path, ok := paths[channelName]
	if !ok {
		return nil, errx.With(ErrChannelInit,
			": guest %s does not expose the channel %s", guest, channelName)
	}
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, errx.Wrap(ErrChannelInit, err)
	}
	return protocol.NewEndpoint(conn, "UNIX socket "+path), nil
}

// NewDispatcher builds the host-side command dispatcher for one guest.
// Scripts learn which guest issued the call through NEGOTIATOR_GUEST.
func NewDispatcher(guest string, catalog *commands.Catalog) *commands.Dispatcher {
	return commands.NewDispatcher(catalog, func() []string {
		return []string{"NEGOTIATOR_GUEST=" + guest}
	})
}

// ServeGuest is the body of one worker process: connect to the guest's
// guest-to-host socket and answer the guest's calls until the connection
// drops or ctx is cancelled.
func ServeGuest(ctx context.Context, ctrl hypervisor.Controller, guest string, catalog *commands.Catalog) error {
	endpoint, err := DialGuest(ctx, ctrl, guest, protocol.GuestToHostChannel)
	if err != nil {
		return err
	}
	defer endpoint.Close()
	return endpoint.Serve(ctx, NewDispatcher(guest, catalog))
}
