package pythonenv

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"benchenv/internal/config"
)

const lockRetryDelay = 250 * time.Millisecond

// CommandRunner executes a command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Provisioner creates and populates the managed Python environment.
type Provisioner struct {
	cfg      config.Python
	stateDir string
	locator  *Locator
	runner   CommandRunner
	logger   *slog.Logger
}

// Result reports what Provision did.
type Result struct {
	Manager string
	// EnvName is set for conda environments.
	EnvName string
	// VenvDir is set for venv environments.
	VenvDir string
	// Python is the interpreter inside the provisioned environment.
	Python string
	// Created is false when the environment already existed.
	Created bool
	// Packages lists what was installed.
	Packages []string
}

// NewProvisioner builds a provisioner from config.
func NewProvisioner(cfg config.Python, stateDir string, logger *slog.Logger) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{
		cfg:      cfg,
		stateDir: stateDir,
		locator:  NewLocator(cfg.Version, cfg.CondaRoots),
		runner: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
		logger: logger.With("component", "pythonenv"),
	}
}

// WithRunner sets a custom command runner (for testing).
func (p *Provisioner) WithRunner(runner CommandRunner) *Provisioner {
	p.runner = runner
	return p
}

// WithLocator sets a custom locator (for testing).
func (p *Provisioner) WithLocator(locator *Locator) *Provisioner {
	p.locator = locator
	return p
}

// Provision locates a toolchain and builds the environment. The state dir
// lock serializes concurrent invocations.
func (p *Provisioner) Provision(ctx context.Context) (Result, error) {
	found, err := p.locator.Locate(p.cfg.Manager)
	if err != nil {
		return Result{}, err
	}

	if err := os.MkdirAll(p.stateDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("ensure state dir: %w", err)
	}
	lock := flock.New(filepath.Join(p.stateDir, "python.lock"))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return Result{}, fmt.Errorf("acquire provision lock: %w", err)
	}
	if !locked {
		return Result{}, fmt.Errorf("acquire provision lock: already held")
	}
	defer func() {
		_ = lock.Unlock()
	}()

	switch found.Manager {
	case ManagerConda:
		return p.provisionConda(ctx, found.Conda)
	default:
		return p.provisionVenv(ctx, found.Python)
	}
}

func (p *Provisioner) run(ctx context.Context, name string, args ...string) error {
	p.logger.Debug("exec", "cmd", name, "args", strings.Join(args, " "))
	if output, err := p.runner(ctx, name, args...); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (p *Provisioner) provisionConda(ctx context.Context, conda string) (Result, error) {
	result := Result{
		Manager:  ManagerConda,
		EnvName:  p.cfg.EnvName,
		Packages: p.cfg.Packages,
	}

	exists, err := p.condaEnvExists(ctx, conda)
	if err != nil {
		return Result{}, err
	}
	if !exists {
		p.logger.Info("creating conda env", "env", p.cfg.EnvName, "python", p.cfg.Version)
		if err := p.run(ctx, conda, "create", "-y", "-n", p.cfg.EnvName, "python="+p.cfg.Version); err != nil {
			return Result{}, fmt.Errorf("create conda env: %w", err)
		}
		result.Created = true
	}

	if len(p.cfg.Packages) > 0 {
		args := append([]string{"run", "-n", p.cfg.EnvName, "python", "-m", "pip", "install", "--upgrade"}, p.cfg.Packages...)
		if err := p.run(ctx, conda, args...); err != nil {
			return Result{}, fmt.Errorf("install packages: %w", err)
		}
	}

	result.Python = fmt.Sprintf("conda run -n %s python", p.cfg.EnvName)
	return result, nil
}

func (p *Provisioner) condaEnvExists(ctx context.Context, conda string) (bool, error) {
	output, err := p.runner(ctx, conda, "env", "list")
	if err != nil {
		return false, fmt.Errorf("conda env list: %w: %s", err, strings.TrimSpace(string(output)))
	}
	for _, line := range strings.Split(string(output), "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == p.cfg.EnvName {
			return true, nil
		}
	}
	return false, nil
}

func (p *Provisioner) provisionVenv(ctx context.Context, python string) (Result, error) {
	result := Result{
		Manager:  ManagerVenv,
		VenvDir:  p.cfg.VenvDir,
		Packages: p.cfg.Packages,
	}

	venvPython := filepath.Join(p.cfg.VenvDir, "bin", "python")
	if _, err := os.Stat(venvPython); err != nil {
		p.logger.Info("creating venv", "dir", p.cfg.VenvDir, "python", python)
		if err := p.run(ctx, python, "-m", "venv", p.cfg.VenvDir); err != nil {
			return Result{}, fmt.Errorf("create venv: %w", err)
		}
		result.Created = true
	}

	if err := p.run(ctx, venvPython, "-m", "pip", "install", "--upgrade", "pip", "setuptools", "wheel"); err != nil {
		return Result{}, fmt.Errorf("upgrade pip: %w", err)
	}
	if len(p.cfg.Packages) > 0 {
		args := append([]string{"-m", "pip", "install", "--upgrade"}, p.cfg.Packages...)
		if err := p.run(ctx, venvPython, args...); err != nil {
			return Result{}, fmt.Errorf("install packages: %w", err)
		}
	}

	result.Python = venvPython
	return result, nil
}
