package commands

import "errors"

var (
	ErrCommandNotFound = errors.New("no such command")
	ErrCommandFailed   = errors.New("command failed")
	ErrEmptyCommand    = errors.New("a command name is required")
	ErrBadArgument     = errors.New("invalid argument")
)
