package preflight

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"benchenv/internal/deps"
)

// Minimum Node.js line the agent's standalone server supports.
var minNodeVersion = deps.Version{Major: 18}

// Build artifacts the standalone agent server needs, relative to the repo.
var agentArtifacts = []string{
	"dist-standalone/cline-core.js",
	"dist-standalone/proto/descriptor_set.pb",
}

// CheckNode verifies Node.js is installed and recent enough.
func (c *Checker) CheckNode(ctx context.Context) Result {
	const name = "Node.js"

	status := deps.CheckBinary(deps.Requirement{Name: name, Command: "node"})
	if !status.Available {
		return Result{Name: name, Detail: status.Detail + " (install Node.js >= 18)"}
	}
	version, err := c.probeVersion(ctx, status.Command, "--version")
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("version probe failed: %v", err)}
	}
	if !version.AtLeast(minNodeVersion) {
		return Result{Name: name, Detail: fmt.Sprintf("version %s too old (need >= %d)", version, minNodeVersion.Major)}
	}
	return Result{Name: name, Passed: true, Detail: "v" + version.String()}
}

// CheckNpx verifies npx is available for launching the agent server.
func (c *Checker) CheckNpx(_ context.Context) Result {
	return commandResult("npx", "npx", "required to launch the agent server")
}

// CheckTsx reports whether tsx is installed. npx can bootstrap it on
// demand, so this check is optional.
func (c *Checker) CheckTsx(_ context.Context) Result {
	result := commandResult("tsx", "tsx", "")
	result.Optional = true
	if !result.Passed {
		result.Detail = "not installed (npx --yes tsx will be used instead)"
	}
	return result
}

// CheckGrpcurl verifies grpcurl is available for agent server probes.
func (c *Checker) CheckGrpcurl(_ context.Context) Result {
	return commandResult("grpcurl", "grpcurl", "required for agent server readiness probes")
}

// CheckRipgrep verifies ripgrep is available.
func (c *Checker) CheckRipgrep(_ context.Context) Result {
	return commandResult("ripgrep", "rg", "required by the agent for workspace search")
}

// CheckExtraCommands verifies the additional commands from config.
func (c *Checker) CheckExtraCommands(_ context.Context) Result {
	const name = "Extra commands"

	if len(c.cfg.Checks.Commands) == 0 {
		return Result{Name: name, Passed: true, Detail: "none configured"}
	}
	requirements := make([]deps.Requirement, 0, len(c.cfg.Checks.Commands))
	for _, command := range c.cfg.Checks.Commands {
		requirements = append(requirements, deps.Requirement{Name: command, Command: command})
	}
	var missing []string
	for _, status := range deps.CheckBinaries(requirements) {
		if !status.Available {
			missing = append(missing, status.Name)
		}
	}
	if len(missing) > 0 {
		return Result{Name: name, Detail: "missing: " + strings.Join(missing, ", ")}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d present", len(c.cfg.Checks.Commands))}
}

// CheckPythonVersion verifies the pinned Python line is runnable.
func (c *Checker) CheckPythonVersion(ctx context.Context) Result {
	const name = "Python"

	python, err := c.resolvePython()
	if err != nil {
		return Result{Name: name, Detail: err.Error() + " (run `benchenv setup python`)"}
	}
	version, err := c.probeVersion(ctx, python, "--version")
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("version probe failed: %v", err)}
	}
	want, err := deps.ParseVersion(c.cfg.Python.Version)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("bad configured version %q", c.cfg.Python.Version)}
	}
	if !version.SameMinor(want) {
		return Result{Name: name, Detail: fmt.Sprintf("%s reports %s, want %s.x", python, version, c.cfg.Python.Version)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", version, python)}
}

// CheckPythonImports verifies the configured packages import cleanly.
func (c *Checker) CheckPythonImports(ctx context.Context) Result {
	const name = "Python imports"

	if len(c.cfg.Checks.PythonImports) == 0 {
		return Result{Name: name, Passed: true, Detail: "none configured"}
	}
	python, err := c.resolvePython()
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	var failing []string
	for _, module := range c.cfg.Checks.PythonImports {
		if _, err := c.runner(ctx, python, "-c", "import "+module); err != nil {
			failing = append(failing, module)
		}
	}
	if len(failing) > 0 {
		return Result{Name: name, Detail: "import failed: " + strings.Join(failing, ", ") + " (run `benchenv setup python`)"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d modules importable", len(c.cfg.Checks.PythonImports))}
}

// CheckEnvVars verifies required environment variables are set and non-empty.
func (c *Checker) CheckEnvVars(_ context.Context) Result {
	const name = "Environment variables"

	if len(c.cfg.Checks.EnvVars) == 0 {
		return Result{Name: name, Passed: true, Detail: "none configured"}
	}
	var missing []string
	for _, key := range c.cfg.Checks.EnvVars {
		if strings.TrimSpace(c.getenv(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Result{Name: name, Detail: "unset: " + strings.Join(missing, ", ")}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d set", len(c.cfg.Checks.EnvVars))}
}

// CheckAgentArtifacts verifies the agent repo has a built standalone server.
func (c *Checker) CheckAgentArtifacts(_ context.Context) Result {
	const name = "Agent build"

	repo := c.cfg.Agent.RepoPath
	if repo == "" {
		return Result{Name: name, Detail: "agent.repo_path not configured"}
	}
	if err := unix.Access(repo, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s: %v", repo, err)}
	}
	var missing []string
	for _, artifact := range agentArtifacts {
		if err := unix.Access(filepath.Join(repo, artifact), unix.R_OK); err != nil {
			missing = append(missing, artifact)
		}
	}
	if len(missing) > 0 {
		return Result{Name: name, Detail: "missing " + strings.Join(missing, ", ") + " (run the standalone build)"}
	}
	return Result{Name: name, Passed: true, Detail: repo}
}

// CheckDockerImages verifies the daemon is reachable and enough evaluation
// images are present.
func (c *Checker) CheckDockerImages(ctx context.Context) Result {
	const name = "Docker"

	if err := c.docker.DaemonAvailable(ctx); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	count, err := c.docker.CountImages(ctx, c.cfg.Docker.ImagePrefix)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("list images: %v", err)}
	}
	if count < c.cfg.Docker.MinImages {
		return Result{Name: name, Detail: fmt.Sprintf(
			"%d %q images present, need >= %d (build or pull evaluation images)",
			count, c.cfg.Docker.ImagePrefix, c.cfg.Docker.MinImages,
		)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d %q images", count, c.cfg.Docker.ImagePrefix)}
}

// CheckDirectories verifies workspace and result directories are usable.
func (c *Checker) CheckDirectories(_ context.Context) Result {
	const name = "Directories"

	var problems []string
	for _, entry := range []struct{ label, dir string }{
		{"workspaces_root", c.cfg.Paths.WorkspacesRoot},
		{"results_dir", c.cfg.Paths.ResultsDir},
	} {
		if err := checkDirAccess(entry.dir); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", entry.label, err))
		}
	}
	if len(problems) > 0 {
		return Result{Name: name, Detail: strings.Join(problems, "; ")}
	}
	return Result{Name: name, Passed: true, Detail: "read/write ok"}
}

// CheckAgentServer reports whether the agent server is already answering
// gRPC on the configured port. The checklist usually runs before the server
// starts, so this never fails the run.
func (c *Checker) CheckAgentServer(ctx context.Context) Result {
	const name = "Agent server"

	result := Result{Name: name, Optional: true}
	if err := c.probe.Ready(ctx, c.cfg.Agent.Host, c.cfg.Agent.ProtoPort); err != nil {
		result.Detail = fmt.Sprintf("not running on %s:%d", c.cfg.Agent.Host, c.cfg.Agent.ProtoPort)
		return result
	}
	result.Passed = true
	result.Detail = fmt.Sprintf("answering on %s:%d", c.cfg.Agent.Host, c.cfg.Agent.ProtoPort)
	return result
}

func (c *Checker) resolvePython() (string, error) {
	venvPython := filepath.Join(c.cfg.Python.VenvDir, "bin", "python")
	if err := unix.Access(venvPython, unix.X_OK); err == nil {
		return venvPython, nil
	}
	binary := c.cfg.PythonBinary()
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("interpreter %q not found", binary)
	}
	return resolved, nil
}

func (c *Checker) probeVersion(ctx context.Context, command, arg string) (deps.Version, error) {
	output, err := c.runner(ctx, command, arg)
	if err != nil {
		return deps.Version{}, fmt.Errorf("%s %s: %w", command, arg, err)
	}
	return deps.ParseVersion(string(output))
}

func commandResult(name, command, hint string) Result {
	status := deps.CheckBinary(deps.Requirement{Name: name, Command: command})
	if !status.Available {
		detail := status.Detail
		if hint != "" {
			detail += " (" + hint + ")"
		}
		return Result{Name: name, Detail: detail}
	}
	return Result{Name: name, Passed: true, Detail: status.Command}
}

func checkDirAccess(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("not configured")
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("%s: %v", path, err)
	}
	return nil
}
