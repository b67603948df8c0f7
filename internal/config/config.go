package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkspacesRoot string `toml:"workspaces_root"`
	ResultsDir     string `toml:"results_dir"`
	LogDir         string `toml:"log_dir"`
	StateDir       string `toml:"state_dir"`
}

// Python contains configuration for the managed Python runtime.
type Python struct {
	Version    string   `toml:"version"`
	EnvName    string   `toml:"env_name"`
	VenvDir    string   `toml:"venv_dir"`
	Packages   []string `toml:"packages"`
	Manager    string   `toml:"manager"`
	CondaRoots []string `toml:"conda_roots"`
}

// Agent contains configuration for the coding-agent server this host runs
// evaluations against.
type Agent struct {
	RepoPath              string `toml:"repo_path"`
	Host                  string `toml:"host"`
	ProtoPort             int    `toml:"proto_port"`
	HostbridgePort        int    `toml:"hostbridge_port"`
	StartupTimeoutSeconds int    `toml:"startup_timeout_seconds"`
}

// Docker contains configuration for the local Docker daemon and the
// evaluation image inventory.
type Docker struct {
	Binary                string `toml:"binary"`
	ImagePrefix           string `toml:"image_prefix"`
	MinImages             int    `toml:"min_images"`
	InspectTimeoutSeconds int    `toml:"inspect_timeout_seconds"`
}

// Checks contains the extra prerequisites the pre-run checklist probes for.
type Checks struct {
	EnvVars       []string `toml:"env_vars"`
	Commands      []string `toml:"commands"`
	PythonImports []string `toml:"python_imports"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for benchenv.
//
// Configuration sections by subsystem:
//   - Paths: workspace, result, log, and state directories
//   - Python: managed interpreter version, env location, package set
//   - Agent: agent repo location and server ports
//   - Docker: daemon binary and evaluation image expectations
//   - Checks: env vars, commands, and imports the checklist verifies
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Python  Python  `toml:"python"`
	Agent   Agent   `toml:"agent"`
	Docker  Docker  `toml:"docker"`
	Checks  Checks  `toml:"checks"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/benchenv/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("benchenv.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories benchenv writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkspacesRoot, c.Paths.ResultsDir, c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DockerBinary returns the Docker executable name.
func (c *Config) DockerBinary() string {
	if strings.TrimSpace(c.Docker.Binary) != "" {
		return c.Docker.Binary
	}
	return "docker"
}

// PythonBinary returns the versioned python executable name, e.g. "python3.12".
func (c *Config) PythonBinary() string {
	return "python" + c.Python.Version
}

// DockerInspectTimeout returns the per-inspect deadline as a duration.
func (c *Config) DockerInspectTimeout() time.Duration {
	return time.Duration(c.Docker.InspectTimeoutSeconds) * time.Second
}

// AgentStartupTimeout returns how long to wait for the agent server.
func (c *Config) AgentStartupTimeout() time.Duration {
	return time.Duration(c.Agent.StartupTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
