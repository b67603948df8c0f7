package workspace

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner executes a command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

type gitRunner struct {
	runner CommandRunner
}

func newGitRunner() *gitRunner {
	return &gitRunner{
		runner: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
	}
}

func (g *gitRunner) run(ctx context.Context, dir string, args ...string) (string, error) {
	full := append([]string{"-C", dir}, args...)
	output, err := g.runner(ctx, "git", full...)
	text := strings.TrimSpace(string(output))
	if err != nil {
		return text, fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, text)
	}
	return text, nil
}

// EnsureGitBaseline guarantees dir is a git work tree with at least one
// commit, so later patch export can diff against HEAD. Materialized repos
// usually arrive with their history intact; freshly forced workspaces may
// not, in which case everything present is committed as the baseline.
func (m *Manager) EnsureGitBaseline(ctx context.Context, dir string) error {
	if _, err := m.git.run(ctx, dir, "rev-parse", "--is-inside-work-tree"); err != nil {
		if _, initErr := m.git.run(ctx, dir, "init"); initErr != nil {
			return fmt.Errorf("git baseline: %w", initErr)
		}
	}

	if _, err := m.git.run(ctx, dir, "rev-parse", "--verify", "HEAD"); err == nil {
		return nil
	}

	identity := []string{"-c", "user.email=benchenv@localhost", "-c", "user.name=benchenv"}
	if _, err := m.git.run(ctx, dir, append(identity, "add", "-A")...); err != nil {
		return fmt.Errorf("git baseline: %w", err)
	}
	if _, err := m.git.run(ctx, dir, append(identity, "commit", "-m", "baseline", "--allow-empty")...); err != nil {
		return fmt.Errorf("git baseline: %w", err)
	}
	return nil
}
