package pythonenv

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNoInterpreter indicates neither conda nor a matching python binary was found.
var ErrNoInterpreter = errors.New("no usable conda installation or python interpreter found")

// ManagerConda and ManagerVenv identify how an environment is managed.
const (
	ManagerConda = "conda"
	ManagerVenv  = "venv"
)

// Found describes a located Python toolchain.
type Found struct {
	Manager string
	// Conda is the conda binary path when Manager is conda.
	Conda string
	// Python is the versioned interpreter path when Manager is venv.
	Python string
}

// Locator discovers conda installations and versioned python binaries.
type Locator struct {
	version    string
	condaRoots []string
	lookPath   func(string) (string, error)
	stat       func(string) (os.FileInfo, error)
}

// NewLocator builds a locator for the given python version line (e.g. "3.12")
// searching the provided conda roots.
func NewLocator(version string, condaRoots []string) *Locator {
	return &Locator{
		version:    version,
		condaRoots: condaRoots,
		lookPath:   exec.LookPath,
		stat:       os.Stat,
	}
}

// WithLookPath overrides PATH resolution (for testing).
func (l *Locator) WithLookPath(fn func(string) (string, error)) *Locator {
	l.lookPath = fn
	return l
}

// WithStat overrides filesystem probing (for testing).
func (l *Locator) WithStat(fn func(string) (os.FileInfo, error)) *Locator {
	l.stat = fn
	return l
}

// Locate finds a toolchain honoring the manager preference: "conda" and
// "venv" force their manager, "auto" prefers conda and falls back to a
// versioned python binary.
func (l *Locator) Locate(manager string) (Found, error) {
	switch manager {
	case ManagerConda:
		if conda, ok := l.findConda(); ok {
			return Found{Manager: ManagerConda, Conda: conda}, nil
		}
		return Found{}, fmt.Errorf("python.manager is conda: %w", ErrNoInterpreter)
	case ManagerVenv:
		if python, ok := l.findPython(); ok {
			return Found{Manager: ManagerVenv, Python: python}, nil
		}
		return Found{}, fmt.Errorf("python.manager is venv: %w", ErrNoInterpreter)
	default:
		if conda, ok := l.findConda(); ok {
			return Found{Manager: ManagerConda, Conda: conda}, nil
		}
		if python, ok := l.findPython(); ok {
			return Found{Manager: ManagerVenv, Python: python}, nil
		}
		return Found{}, ErrNoInterpreter
	}
}

func (l *Locator) findConda() (string, bool) {
	roots := l.condaRoots
	if env := strings.TrimSpace(os.Getenv("CONDA_HOME")); env != "" {
		roots = append([]string{env}, roots...)
	}
	for _, root := range roots {
		candidate := filepath.Join(root, "bin", "conda")
		if info, err := l.stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	if path, err := l.lookPath("conda"); err == nil {
		return path, true
	}
	return "", false
}

func (l *Locator) findPython() (string, bool) {
	if path, err := l.lookPath("python" + l.version); err == nil {
		return path, true
	}
	return "", false
}
