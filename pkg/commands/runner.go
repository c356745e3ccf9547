package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/xolox/negotiator/internal/errx"
)

// Runner executes resolved command scripts with captured standard output.
type Runner struct{}

// Run starts the script at path with the given arguments. When input is
// non-nil it is fed to the script on standard input. Extra environment
// variables are appended to the inherited environment. Standard output is
// captured and returned; a nonzero exit status is reported as
// ErrCommandFailed carrying the status and anything the script printed on
// standard error.
func (r *Runner) Run(ctx context.Context, path string, args []string, input *string, extraEnv []string) (string, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = append(os.Environ(), extraEnv...)
	if input != nil {
		cmd.Stdin = strings.NewReader(*input)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("executing external command", "path", path, "args", args)
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", errx.With(ErrCommandFailed, ": %s: %v: %s", path, err, detail)
		}
		return "", errx.With(ErrCommandFailed, ": %s: %v", path, err)
	}
	return stdout.String(), nil
}
