package protocol

import "errors"

// Framing errors
var (
	ErrProtocol    = errors.New("protocol violation")
	ErrWriteFrame  = errors.New("write frame")
	ErrEncodeFrame = errors.New("encode frame payload")
)

// Call errors
var (
	ErrRemoteMethod     = errors.New("remote method failed")
	ErrCallTimedOut     = errors.New("remote call interrupted")
	ErrEndpointPoisoned = errors.New("endpoint discarded after interrupted call")
)
