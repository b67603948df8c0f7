package preflight

import (
	"context"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"

	"benchenv/internal/config"
	"benchenv/internal/netprobe"
	"benchenv/internal/services/docker"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// Summary aggregates the results of a checklist run.
type Summary struct {
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
	Results   []Result  `json:"results"`
}

// Failed counts failing required checks. Optional checks never count.
func (s Summary) Failed() int {
	failed := 0
	for _, r := range s.Results {
		if !r.Passed && !r.Optional {
			failed++
		}
	}
	return failed
}

// Passed counts passing checks, optional included.
func (s Summary) Passed() int {
	passed := 0
	for _, r := range s.Results {
		if r.Passed {
			passed++
		}
	}
	return passed
}

// CommandRunner executes a command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Checker runs the pre-run checklist for a host.
type Checker struct {
	cfg    *config.Config
	docker *docker.Client
	probe  *netprobe.GRPCProbe
	runner CommandRunner
	getenv func(string) string
}

// NewChecker builds a checker from config.
func NewChecker(cfg *config.Config) *Checker {
	return &Checker{
		cfg:    cfg,
		docker: docker.NewClient(cfg.DockerBinary()).WithInspectTimeout(cfg.DockerInspectTimeout()),
		probe:  netprobe.NewGRPCProbe("grpcurl"),
		runner: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
		getenv: os.Getenv,
	}
}

// WithDocker sets a custom docker client (for testing).
func (c *Checker) WithDocker(client *docker.Client) *Checker {
	c.docker = client
	return c
}

// WithRunner sets a custom command runner (for testing).
func (c *Checker) WithRunner(runner CommandRunner) *Checker {
	c.runner = runner
	return c
}

// WithGetenv sets a custom environment lookup (for testing).
func (c *Checker) WithGetenv(fn func(string) string) *Checker {
	c.getenv = fn
	return c
}

// RunAll executes every applicable check concurrently and returns results
// in declaration order.
func (c *Checker) RunAll(ctx context.Context) Summary {
	started := time.Now()

	type namedCheck struct {
		run func(context.Context) Result
	}
	checks := []namedCheck{
		{c.CheckNode},
		{c.CheckNpx},
		{c.CheckTsx},
		{c.CheckGrpcurl},
		{c.CheckRipgrep},
		{c.CheckExtraCommands},
		{c.CheckPythonVersion},
		{c.CheckPythonImports},
		{c.CheckEnvVars},
		{c.CheckAgentArtifacts},
		{c.CheckDockerImages},
		{c.CheckDirectories},
		{c.CheckAgentServer},
	}

	results := make([]Result, len(checks))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, check := range checks {
		i, check := i, check
		group.Go(func() error {
			results[i] = check.run(groupCtx)
			return nil
		})
	}
	_ = group.Wait()

	return Summary{
		StartedAt: started.UTC(),
		Duration:  time.Since(started).Round(time.Millisecond).String(),
		Results:   results,
	}
}
