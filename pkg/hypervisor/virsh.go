// Package hypervisor wraps the external control tool used to enumerate
// running guests and inspect their channel configuration. The rest of the
// system consumes only the Controller interface, keeping the tool an
// external collaborator.
package hypervisor

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/xolox/negotiator/internal/errx"
)

// Controller is the surface the host side needs from the hypervisor.
type Controller interface {
	// RunningGuests returns the names of the guests currently running.
	// Failures are reported as ErrGuestDiscovery.
	RunningGuests(ctx context.Context) ([]string, error)
	// ChannelPaths maps recognized negotiator channel names to the UNIX
	// socket paths the hypervisor exposes for the named guest.
	ChannelPaths(ctx context.Context, guest string) (map[string]string, error)
}

// Virsh drives the libvirt command line client.
type Virsh struct {
	Binary string
}

func NewVirsh(binary string) *Virsh {
	if binary == "" {
		binary = "virsh"
	}
	return &Virsh{Binary: binary}
}

func (v *Virsh) RunningGuests(ctx context.Context) ([]string, error) {
	output, err := v.run(ctx, "list", "--all")
	if err != nil {
		return nil, errx.Wrap(ErrGuestDiscovery, err)
	}
	return parseGuestList(output), nil
}

func (v *Virsh) ChannelPaths(ctx context.Context, guest string) (map[string]string, error) {
	output, err := v.run(ctx, "dumpxml", guest)
	if err != nil {
		return nil, errx.With(ErrDomainXML, " for %s: %w", guest, err)
	}
	paths, err := parseChannels([]byte(output))
	if err != nil {
		return nil, errx.With(ErrDomainXML, " for %s: %w", guest, err)
	}
	return paths, nil
}

func (v *Virsh) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, v.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Debug("running hypervisor control command", "binary", v.Binary, "args", args)
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", errx.With(err, ": %s", detail)
		}
		return "", err
	}
	return stdout.String(), nil
}

// parseGuestList extracts the names with status "running" from the listing
// output. Each data line has the shape "<id> <name> <status>"; header and
// separator lines don't match and are skipped.
func parseGuestList(output string) []string {
	var running []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		if fields[2] == "running" {
			running = append(running, fields[1])
		}
	}
	return running
}
