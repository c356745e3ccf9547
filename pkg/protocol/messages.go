package protocol

// Channel target names shared by both ends. Each guest exposes two virtio
// channels, one per call direction: the host serves guest-originated calls
// on the guest-to-host channel and issues its own calls on the
// host-to-guest channel.
const (
	GuestToHostChannel = "negotiator-guest-to-host.0"
	HostToGuestChannel = "negotiator-host-to-guest.0"
)

// Request is one remote method invocation. Peers must accept requests with
// missing args or kw and treat them as empty.
type Request struct {
	Method string         `json:"method"`
	Args   []any          `json:"args"`
	Kwargs map[string]any `json:"kw"`
}

// Response carries either the method result or a failure string. The result
// key is always present so peers can index it unconditionally; a method
// without a return value yields "result":null.
type Response struct {
	Success bool   `json:"success"`
	Result  any    `json:"result"`
	Error   string `json:"error,omitempty"`
}
