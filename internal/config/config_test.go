package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, path, exists, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if path == "" {
		t.Fatal("expected resolved path")
	}
	if cfg.Python.Version != defaultPythonVersion {
		t.Fatalf("expected default python version, got %q", cfg.Python.Version)
	}
	if cfg.Docker.ImagePrefix != defaultDockerImagePrefix {
		t.Fatalf("expected default image prefix, got %q", cfg.Docker.ImagePrefix)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
workspaces_root = "` + filepath.Join(dir, "ws") + `"

[python]
version = "3.12"
packages = ["requests", "requests", " ", "pytest"]

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json format, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Logging.Level)
	}
	if len(cfg.Python.Packages) != 2 {
		t.Fatalf("expected deduped packages, got %v", cfg.Python.Packages)
	}
	if !filepath.IsAbs(cfg.Paths.WorkspacesRoot) {
		t.Fatalf("expected absolute workspaces root, got %q", cfg.Paths.WorkspacesRoot)
	}
}

func TestValidateRejectsBadPythonVersion(t *testing.T) {
	cfg := Default()
	cfg.Python.Version = "2.7x"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for bad python version")
	}
}

func TestValidateRejectsBadManager(t *testing.T) {
	cfg := Default()
	cfg.Python.Manager = "pipenv"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unsupported manager")
	}
}

func TestValidateRejectsEqualPorts(t *testing.T) {
	cfg := Default()
	cfg.Agent.ProtoPort = 26040
	cfg.Agent.HostbridgePort = 26040
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for equal ports")
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	expanded, err := ExpandPath("~/state")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if !strings.HasPrefix(expanded, home) {
		t.Fatalf("expected %q under home %q", expanded, home)
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Paths.WorkspacesRoot = filepath.Join(dir, "ws")
	cfg.Paths.ResultsDir = filepath.Join(dir, "results")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Paths.StateDir = filepath.Join(dir, "state")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	for _, p := range []string{cfg.Paths.WorkspacesRoot, cfg.Paths.ResultsDir, cfg.Paths.LogDir, cfg.Paths.StateDir} {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", p, err)
		}
	}
}

func TestCreateSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(target); err != nil {
		t.Fatalf("create sample: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[python]") {
		t.Fatal("expected sample to contain a [python] section")
	}
}

func TestDockerBinaryFallback(t *testing.T) {
	cfg := Default()
	cfg.Docker.Binary = "  "
	if got := cfg.DockerBinary(); got != "docker" {
		t.Fatalf("expected docker fallback, got %q", got)
	}
}

func TestPythonBinary(t *testing.T) {
	cfg := Default()
	if got := cfg.PythonBinary(); got != "python3.12" {
		t.Fatalf("expected python3.12, got %q", got)
	}
}

func TestAPIKeyFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg, _, _, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	found := false
	for _, key := range cfg.Checks.EnvVars {
		if key == "ANTHROPIC_API_KEY" {
			found = true
		}
		if key == "OPENAI_API_KEY" {
			t.Fatal("OPENAI_API_KEY requirement should have been swapped")
		}
	}
	if !found {
		t.Fatalf("expected ANTHROPIC_API_KEY requirement, got %v", cfg.Checks.EnvVars)
	}
}

func TestAPIKeyFallbackKeepsOpenAIWhenSet(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg, _, _, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, key := range cfg.Checks.EnvVars {
		if key == "OPENAI_API_KEY" {
			return
		}
	}
	t.Fatalf("expected OPENAI_API_KEY requirement, got %v", cfg.Checks.EnvVars)
}

func TestAPIKeyFallbackLeavesExplicitKeysAlone(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "[checks]\nenv_vars = [\"MY_CUSTOM_TOKEN\"]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Checks.EnvVars) != 1 || cfg.Checks.EnvVars[0] != "MY_CUSTOM_TOKEN" {
		t.Fatalf("custom env vars should be untouched, got %v", cfg.Checks.EnvVars)
	}
}
