package guest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sys/unix"

	"github.com/xolox/negotiator/internal/errx"
)

// retryInterval is the cadence for both the EBUSY open retry and the
// fallback wait while the port is not yet connected on the host side.
const retryInterval = time.Second

// Device is a virtio serial character device opened in read/write mode. It
// implements io.ReadWriteCloser with blocking-read emulation: a virtio port
// whose host side is not connected yields empty reads instead of blocking,
// so Read parks in poll(2) between attempts rather than spinning.
type Device struct {
	fd   int
	path string
}

// OpenDevice opens the character device at path. Opening can fail with
// EBUSY when another (possibly half-dead) reader briefly holds the port;
// with retryBusy the open is retried every second until ctx is cancelled.
// Callers that need bounded time must attach a deadline to ctx.
func OpenDevice(ctx context.Context, path string, retryBusy bool) (*Device, error) {
	for {
		fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK, 0)
		if err == nil {
			slog.Debug("opened character device", "path", path)
			return &Device{fd: fd, path: path}, nil
		}
		if !retryBusy || !errors.Is(err, unix.EBUSY) {
			return nil, errx.With(ErrDeviceOpen, " %s: %w", path, err)
		}
		slog.Debug("character device is busy, retrying", "path", path)
		select {
		case <-ctx.Done():
			return nil, errx.With(ErrDeviceOpen, " %s: %w", path, ctx.Err())
		case <-time.After(retryInterval):
		}
	}
}

// Path returns the pathname the device was opened from.
func (d *Device) Path() string { return d.path }

// Read blocks until data arrives. An empty read means the port is not
// connected; EAGAIN means the port is connected but idle. Either way we
// wait for readability with a bounded poll and try again, so a
// disconnected port costs one wakeup per second instead of a busy loop.
func (d *Device) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		n, err := unix.Read(d.fd, p)
		switch {
		case n > 0:
			return n, nil
		case err == nil || errors.Is(err, unix.EAGAIN):
			// Not connected (0 bytes) or no data yet (EAGAIN).
		case errors.Is(err, unix.EINTR):
			continue
		default:
			return 0, err
		}
		if err := d.waitReadable(); err != nil {
			return 0, err
		}
		if err == nil {
			// The port reported readable while disconnected; back off so
			// the poll wakeup cannot degenerate into a spin.
			time.Sleep(retryInterval)
		}
	}
}

func (d *Device) waitReadable() error {
	fds := []unix.PollFd{{Fd: int32(d.fd), Events: unix.POLLIN}}
	for {
		_, err := unix.Poll(fds, int(retryInterval.Milliseconds()))
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if errors.Is(err, unix.EBADF) {
			return io.EOF
		}
		return err
	}
}

// Write writes the whole buffer, retrying short writes and EAGAIN.
func (d *Device) Write(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := unix.Write(d.fd, p[total:])
		if n > 0 {
			total += n
			continue
		}
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
			fds := []unix.PollFd{{Fd: int32(d.fd), Events: unix.POLLOUT}}
			unix.Poll(fds, int(retryInterval.Milliseconds()))
			continue
		}
		return total, err
	}
	return total, nil
}

func (d *Device) Close() error {
	return unix.Close(d.fd)
}
