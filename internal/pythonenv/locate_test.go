package pythonenv

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeStub(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
}

func TestLocateCondaFromRoot(t *testing.T) {
	root := t.TempDir()
	conda := filepath.Join(root, "bin", "conda")
	writeStub(t, conda)

	locator := NewLocator("3.12", []string{root}).
		WithLookPath(func(string) (string, error) { return "", errors.New("not found") })

	found, err := locator.Locate("auto")
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if found.Manager != ManagerConda {
		t.Fatalf("expected conda manager, got %q", found.Manager)
	}
	if found.Conda != conda {
		t.Fatalf("unexpected conda path: %q", found.Conda)
	}
}

func TestLocateCondaHomeEnvWins(t *testing.T) {
	condaHome := t.TempDir()
	writeStub(t, filepath.Join(condaHome, "bin", "conda"))
	t.Setenv("CONDA_HOME", condaHome)

	locator := NewLocator("3.12", nil).
		WithLookPath(func(string) (string, error) { return "", errors.New("not found") })

	found, err := locator.Locate("conda")
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if found.Conda != filepath.Join(condaHome, "bin", "conda") {
		t.Fatalf("expected CONDA_HOME conda, got %q", found.Conda)
	}
}

func TestLocateFallsBackToPython(t *testing.T) {
	locator := NewLocator("3.12", nil).
		WithLookPath(func(name string) (string, error) {
			if name == "python3.12" {
				return "/usr/bin/python3.12", nil
			}
			return "", errors.New("not found")
		})

	found, err := locator.Locate("auto")
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if found.Manager != ManagerVenv {
		t.Fatalf("expected venv manager, got %q", found.Manager)
	}
	if found.Python != "/usr/bin/python3.12" {
		t.Fatalf("unexpected python: %q", found.Python)
	}
}

func TestLocateNothingFound(t *testing.T) {
	locator := NewLocator("3.12", nil).
		WithLookPath(func(string) (string, error) { return "", errors.New("not found") })

	if _, err := locator.Locate("auto"); !errors.Is(err, ErrNoInterpreter) {
		t.Fatalf("expected ErrNoInterpreter, got %v", err)
	}
}

func TestLocateForcedCondaMissing(t *testing.T) {
	locator := NewLocator("3.12", nil).
		WithLookPath(func(name string) (string, error) {
			if name == "python3.12" {
				return "/usr/bin/python3.12", nil
			}
			return "", errors.New("not found")
		})

	if _, err := locator.Locate("conda"); !errors.Is(err, ErrNoInterpreter) {
		t.Fatalf("expected ErrNoInterpreter for forced conda, got %v", err)
	}
}

func TestLocateForcedVenvIgnoresConda(t *testing.T) {
	root := t.TempDir()
	writeStub(t, filepath.Join(root, "bin", "conda"))

	locator := NewLocator("3.12", []string{root}).
		WithLookPath(func(name string) (string, error) {
			if name == "python3.12" {
				return "/usr/bin/python3.12", nil
			}
			return "", errors.New("not found")
		})

	found, err := locator.Locate("venv")
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if found.Manager != ManagerVenv {
		t.Fatalf("expected venv manager, got %q", found.Manager)
	}
}
