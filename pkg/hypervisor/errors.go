package hypervisor

import "errors"

var (
	ErrGuestDiscovery = errors.New("failed to discover running guests")
	ErrDomainXML      = errors.New("failed to dump guest configuration")
)
