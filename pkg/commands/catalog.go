package commands

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xolox/negotiator/internal/errx"
)

// Default command directory locations. The builtin directory ships with the
// package; the user directory is operator controlled and shadows builtins
// by filename.
const (
	DefaultBuiltinDir = "/usr/share/negotiator/commands"
	DefaultUserDir    = "/usr/lib/negotiator/commands"
)

// Catalog locates executable command scripts across the builtin and user
// directories. Entries are re-discovered on every listing; nothing is cached.
type Catalog struct {
	BuiltinDir string
	UserDir    string
}

func NewCatalog(builtinDir, userDir string) *Catalog {
	if builtinDir == "" {
		builtinDir = DefaultBuiltinDir
	}
	if userDir == "" {
		userDir = DefaultUserDir
	}
	return &Catalog{BuiltinDir: builtinDir, UserDir: userDir}
}

// List returns the union of executable filenames in both directories. The
// order is unspecified; front-ends sort before printing. Unreadable
// directories contribute nothing.
func (c *Catalog) List() []string {
	seen := make(map[string]struct{})
	for _, dir := range []string{c.BuiltinDir, c.UserDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if isExecutableFile(filepath.Join(dir, entry.Name())) {
				seen[entry.Name()] = struct{}{}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	return names
}

// Resolve maps a bare command name to the path that should run. Any
// directory component is stripped first; a user script wins over a builtin
// with the same filename.
func (c *Catalog) Resolve(name string) (string, error) {
	base := filepath.Base(name)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "", ErrEmptyCommand
	}
	userPath := filepath.Join(c.UserDir, base)
	if info, err := os.Stat(userPath); err == nil && info.Mode().IsRegular() {
		return userPath, nil
	}
	builtinPath := filepath.Join(c.BuiltinDir, base)
	if info, err := os.Stat(builtinPath); err == nil && info.Mode().IsRegular() {
		return builtinPath, nil
	}
	return "", errx.With(ErrCommandNotFound, " %q in %s or %s", base, c.UserDir, c.BuiltinDir)
}

// MakeExecutable force-chmods the builtin scripts to 0755. Packaging layers
// have a habit of stripping the executable bit, which would otherwise make
// every builtin invisible to List.
func (c *Catalog) MakeExecutable() {
	entries, err := os.ReadDir(c.BuiltinDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		pathname := filepath.Join(c.BuiltinDir, entry.Name())
		info, err := os.Stat(pathname)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if info.Mode().Perm()&0o111 == 0o111 {
			continue
		}
		slog.Debug("making builtin command executable", "path", pathname)
		if err := os.Chmod(pathname, 0o755); err != nil {
			slog.Warn("failed to chmod builtin command", "path", pathname, "error", err)
		}
	}
}

func isExecutableFile(pathname string) bool {
	info, err := os.Stat(pathname)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}
