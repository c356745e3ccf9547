package guest

import (
	"context"
	"io"

	"github.com/xolox/negotiator/pkg/commands"
	"github.com/xolox/negotiator/pkg/protocol"
)

// Agent is the daemon running inside the guest. It serves host-originated
// calls on the host-to-guest port; guest-originated calls toward the host go
// through a separate endpoint on the guest-to-host port.
type Agent struct {
	endpoint   *protocol.Endpoint
	dispatcher *commands.Dispatcher
}

// NewAgent wraps an opened character device. No extra environment is
// injected on the guest side.
func NewAgent(device io.ReadWriteCloser, label string, catalog *commands.Catalog) *Agent {
	return &Agent{
		endpoint:   protocol.NewEndpoint(device, label),
		dispatcher: commands.NewDispatcher(catalog, nil),
	}
}

// Serve answers host requests until ctx is cancelled or the transport fails.
func (a *Agent) Serve(ctx context.Context) error {
	return a.endpoint.Serve(ctx, a.dispatcher)
}

func (a *Agent) Close() error {
	return a.endpoint.Close()
}
