package host

import "errors"

var (
	ErrChannelInit = errors.New("failed to initialize guest channel")
	ErrWorkerSpawn = errors.New("failed to spawn guest worker")
)
