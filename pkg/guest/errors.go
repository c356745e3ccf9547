package guest

import "errors"

var (
	ErrPortNotFound = errors.New("no virtio port with the requested name")
	ErrPortScan     = errors.New("failed to scan virtio ports")
	ErrDeviceOpen   = errors.New("failed to open character device")
)
