package guest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/xolox/negotiator/internal/errx"
)

// DefaultVirtioPortsDir is where the kernel publishes the name of each
// virtio serial port.
const DefaultVirtioPortsDir = "/sys/class/virtio-ports"

// FindPort auto-detects the character device for a named virtio port by
// matching the port name files under /sys/class/virtio-ports.
func FindPort(portName string) (string, error) {
	return findPortIn(DefaultVirtioPortsDir, "/dev", portName)
}

func findPortIn(sysfsDir, devDir, portName string) (string, error) {
	entries, err := os.ReadDir(sysfsDir)
	if err != nil {
		return "", errx.With(ErrPortScan, ": %w", err)
	}
	for _, entry := range entries {
		data, err := os.ReadFile(filepath.Join(sysfsDir, entry.Name(), "name"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(data)) == portName {
			return filepath.Join(devDir, entry.Name()), nil
		}
	}
	return "", errx.With(ErrPortNotFound,
		": none of the ports under %s is named %q", sysfsDir, portName)
}
