package guest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func fakePort(t *testing.T, sysfsDir, entry, portName string) {
	t.Helper()
	dir := filepath.Join(sysfsDir, entry)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "name"), []byte(portName+"\n"), 0o644))
}

func TestFindPortMatchesByName(t *testing.T) {
	sysfs := t.TempDir()
	fakePort(t, sysfs, "vport0p1", "org.qemu.guest_agent.0")
	fakePort(t, sysfs, "vport0p2", "negotiator-host-to-guest.0")

	path, err := findPortIn(sysfs, "/dev", "negotiator-host-to-guest.0")
	require.NoError(t, err)
	require.Equal(t, "/dev/vport0p2", path)
}

func TestFindPortUnknownName(t *testing.T) {
	sysfs := t.TempDir()
	fakePort(t, sysfs, "vport0p1", "org.qemu.guest_agent.0")

	_, err := findPortIn(sysfs, "/dev", "negotiator-guest-to-host.0")
	require.ErrorIs(t, err, ErrPortNotFound)
}

func TestFindPortSkipsEntriesWithoutNameFile(t *testing.T) {
	sysfs := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(sysfs, "vport0p1"), 0o755))
	fakePort(t, sysfs, "vport0p2", "negotiator-guest-to-host.0")

	path, err := findPortIn(sysfs, "/dev", "negotiator-guest-to-host.0")
	require.NoError(t, err)
	require.Equal(t, "/dev/vport0p2", path)
}

func TestFindPortMissingSysfsDir(t *testing.T) {
	_, err := findPortIn("/nonexistent/virtio-ports", "/dev", "negotiator-guest-to-host.0")
	require.ErrorIs(t, err, ErrPortScan)
}
