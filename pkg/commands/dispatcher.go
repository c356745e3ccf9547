package commands

import (
	"context"
	"strings"

	"github.com/xolox/negotiator/internal/errx"
)

// EnvFunc supplies extra environment variables for script execution. The
// host side uses it to inject NEGOTIATOR_GUEST before spawning commands.
type EnvFunc func() []string

// Dispatcher exposes the two methods both endpoints register: list_commands
// and execute. It implements protocol.Dispatcher.
type Dispatcher struct {
	catalog *Catalog
	runner  *Runner
	env     EnvFunc
}

// NewDispatcher builds the shared command dispatcher. The catalog's builtin
// scripts are force-chmoded once at construction (endpoint startup). env may
// be nil when no extra variables are needed.
func NewDispatcher(catalog *Catalog, env EnvFunc) *Dispatcher {
	catalog.MakeExecutable()
	return &Dispatcher{catalog: catalog, runner: &Runner{}, env: env}
}

func (d *Dispatcher) Methods() []string {
	return []string{"list_commands", "execute"}
}

func (d *Dispatcher) Invoke(ctx context.Context, name string, args []any, kwargs map[string]any) (any, error) {
	switch name {
	case "list_commands":
		return d.catalog.List(), nil
	case "execute":
		return d.execute(ctx, args, kwargs)
	default:
		return nil, errx.With(ErrBadArgument, ": unknown method %s", name)
	}
}

func (d *Dispatcher) execute(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
	if len(args) == 0 {
		return nil, ErrEmptyCommand
	}
	argv := make([]string, len(args))
	for i, arg := range args {
		s, ok := arg.(string)
		if !ok {
			return nil, errx.With(ErrBadArgument, ": argv[%d] is not a string", i)
		}
		argv[i] = s
	}

	var input *string
	if raw, ok := kwargs["input"]; ok && raw != nil {
		s, ok := raw.(string)
		if !ok {
			return nil, errx.With(ErrBadArgument, ": input must be a string")
		}
		input = &s
	}
	capture := true
	if raw, ok := kwargs["capture"]; ok {
		b, ok := raw.(bool)
		if !ok {
			return nil, errx.With(ErrBadArgument, ": capture must be a boolean")
		}
		capture = b
	}

	path, err := d.catalog.Resolve(argv[0])
	if err != nil {
		return nil, err
	}
	var extraEnv []string
	if d.env != nil {
		extraEnv = d.env()
	}
	output, err := d.runner.Run(ctx, path, argv[1:], input, extraEnv)
	if err != nil {
		return nil, err
	}
	if !capture {
		return nil, nil
	}
	return strings.TrimRight(output, "\n"), nil
}
