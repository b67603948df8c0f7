package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizePython(); err != nil {
		return err
	}
	c.normalizeAgent()
	c.normalizeDocker()
	c.normalizeChecks()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkspacesRoot) == "" {
		c.Paths.WorkspacesRoot = defaultWorkspacesRoot
	}
	if c.Paths.WorkspacesRoot, err = expandPath(c.Paths.WorkspacesRoot); err != nil {
		return fmt.Errorf("paths.workspaces_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.ResultsDir) == "" {
		c.Paths.ResultsDir = defaultResultsDir
	}
	if c.Paths.ResultsDir, err = expandPath(c.Paths.ResultsDir); err != nil {
		return fmt.Errorf("paths.results_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePython() error {
	var err error
	c.Python.Version = strings.TrimSpace(c.Python.Version)
	if c.Python.Version == "" {
		c.Python.Version = defaultPythonVersion
	}
	c.Python.EnvName = strings.TrimSpace(c.Python.EnvName)
	if c.Python.EnvName == "" {
		c.Python.EnvName = defaultPythonEnvName
	}
	if strings.TrimSpace(c.Python.VenvDir) == "" {
		c.Python.VenvDir = defaultPythonVenvDir
	}
	if c.Python.VenvDir, err = expandPath(c.Python.VenvDir); err != nil {
		return fmt.Errorf("python.venv_dir: %w", err)
	}
	c.Python.Manager = strings.ToLower(strings.TrimSpace(c.Python.Manager))
	if c.Python.Manager == "" {
		c.Python.Manager = defaultPythonManager
	}
	if len(c.Python.CondaRoots) == 0 {
		c.Python.CondaRoots = defaultCondaRoots()
	}
	roots := make([]string, 0, len(c.Python.CondaRoots))
	for _, root := range c.Python.CondaRoots {
		if strings.TrimSpace(root) == "" {
			continue
		}
		expanded, expandErr := expandPath(root)
		if expandErr != nil {
			return fmt.Errorf("python.conda_roots: %w", expandErr)
		}
		roots = append(roots, expanded)
	}
	c.Python.CondaRoots = roots
	c.Python.Packages = dedupeStrings(c.Python.Packages)
	if len(c.Python.Packages) == 0 {
		c.Python.Packages = defaultPythonPackages()
	}
	return nil
}

func (c *Config) normalizeAgent() {
	c.Agent.RepoPath = strings.TrimSpace(c.Agent.RepoPath)
	if c.Agent.RepoPath != "" {
		if expanded, err := expandPath(c.Agent.RepoPath); err == nil {
			c.Agent.RepoPath = expanded
		}
	}
	c.Agent.Host = strings.TrimSpace(c.Agent.Host)
	if c.Agent.Host == "" {
		c.Agent.Host = defaultAgentHost
	}
	if c.Agent.ProtoPort <= 0 {
		c.Agent.ProtoPort = defaultAgentProtoPort
	}
	if c.Agent.HostbridgePort <= 0 {
		c.Agent.HostbridgePort = defaultAgentHostbridgePort
	}
	if c.Agent.StartupTimeoutSeconds <= 0 {
		c.Agent.StartupTimeoutSeconds = defaultAgentStartupTimeout
	}
}

func (c *Config) normalizeDocker() {
	c.Docker.Binary = strings.TrimSpace(c.Docker.Binary)
	if c.Docker.Binary == "" {
		c.Docker.Binary = defaultDockerBinary
	}
	c.Docker.ImagePrefix = strings.TrimSpace(c.Docker.ImagePrefix)
	if c.Docker.ImagePrefix == "" {
		c.Docker.ImagePrefix = defaultDockerImagePrefix
	}
	if c.Docker.MinImages < 0 {
		c.Docker.MinImages = 0
	}
	if c.Docker.InspectTimeoutSeconds <= 0 {
		c.Docker.InspectTimeoutSeconds = defaultDockerInspectTimeout
	}
}

func (c *Config) normalizeChecks() {
	c.Checks.EnvVars = applyAPIKeyFallback(dedupeStrings(c.Checks.EnvVars))
	c.Checks.Commands = dedupeStrings(c.Checks.Commands)
	c.Checks.PythonImports = dedupeStrings(c.Checks.PythonImports)
}

// applyAPIKeyFallback swaps the OPENAI_API_KEY requirement for
// ANTHROPIC_API_KEY when only the latter is exported, so hosts using either
// provider pass the checklist without editing config.
func applyAPIKeyFallback(envVars []string) []string {
	for i, key := range envVars {
		if key != defaultCheckAPIKeyEnv {
			continue
		}
		if os.Getenv(defaultCheckAPIKeyEnv) == "" && os.Getenv(fallbackCheckAPIKeyEnv) != "" {
			envVars[i] = fallbackCheckAPIKeyEnv
		}
	}
	return envVars
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func dedupeStrings(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
