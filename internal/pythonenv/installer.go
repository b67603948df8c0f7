package pythonenv

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// ErrNotRoot indicates the system installer was run without elevated privileges.
var ErrNotRoot = fmt.Errorf("system python install requires root (re-run with sudo)")

// SystemInstaller installs a versioned Python line system-wide from the
// deadsnakes package repository.
type SystemInstaller struct {
	version string
	runner  CommandRunner
	euid    func() int
	logger  *slog.Logger
}

// NewSystemInstaller builds an installer for the given version line.
func NewSystemInstaller(version string, logger *slog.Logger) *SystemInstaller {
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemInstaller{
		version: version,
		runner: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
		euid:   os.Geteuid,
		logger: logger.With("component", "sysinstall"),
	}
}

// WithRunner sets a custom command runner (for testing).
func (i *SystemInstaller) WithRunner(runner CommandRunner) *SystemInstaller {
	i.runner = runner
	return i
}

// WithEUID overrides the effective-uid probe (for testing).
func (i *SystemInstaller) WithEUID(fn func() int) *SystemInstaller {
	i.euid = fn
	return i
}

// Install adds the deadsnakes PPA and installs the python packages for the
// configured version line.
func (i *SystemInstaller) Install(ctx context.Context) error {
	if i.euid() != 0 {
		return ErrNotRoot
	}

	python := "python" + i.version
	steps := []struct {
		name string
		args []string
	}{
		{"apt-get", []string{"install", "-y", "software-properties-common"}},
		{"add-apt-repository", []string{"-y", "ppa:deadsnakes/ppa"}},
		{"apt-get", []string{"update"}},
		{"apt-get", []string{"install", "-y", python, python + "-venv", python + "-dev"}},
	}

	for _, step := range steps {
		i.logger.Info("running install step", "cmd", step.name, "args", fmt.Sprint(step.args))
		if output, err := i.runner(ctx, step.name, step.args...); err != nil {
			return fmt.Errorf("%s: %w: %s", step.name, err, string(output))
		}
	}

	i.logger.Info("system python installed", "version", i.version)
	return nil
}
