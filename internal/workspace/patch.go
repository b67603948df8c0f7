package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Databases are staged nowhere: test runs leave sqlite files behind and a
// patch containing them never applies cleanly.
var stageExcludes = []string{
	":(exclude)**/*.sqlite3",
	":(exclude)**/*.sqlite",
	":(exclude)**/*.db",
}

// diffExcludes filters caches, build output, agent scratch dirs, and
// non-source artifacts out of the exported diff.
var diffExcludes = []string{
	":(exclude)**/__pycache__/**",
	":(exclude)**/*.pyc",
	":(exclude)**/.git/**",
	":(exclude)**/.clinerules/**",
	":(exclude)**/*.egg-info/**",
	":(exclude)**/build/**",
	":(exclude)**/dist/**",
	":(exclude)**/.venv/**",
	":(exclude)**/venv/**",
	":(exclude)**/*.sqlite3",
	":(exclude)**/*.sqlite",
	":(exclude)**/*.db",
	":(exclude)**/*.html",
	":(exclude)**/*.txt",
	":(exclude)**/*.rst",
	":(exclude)**/*.md",
}

// ExportPatch stages the workspace changes, diffs them against the baseline
// HEAD, and writes the unified diff to resultsDir as <instance>.patch. The
// workspace is unstaged afterwards so later exports see the same state.
func (m *Manager) ExportPatch(ctx context.Context, instanceID, resultsDir string) (string, error) {
	instanceID = strings.TrimSpace(instanceID)
	if instanceID == "" {
		return "", fmt.Errorf("export patch: instance id required")
	}
	dir := m.Dir(instanceID)
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("export patch: workspace %s: %w", dir, err)
	}

	stageArgs := append([]string{"-c", "core.fileMode=false", "add", "-A", "--", "."}, stageExcludes...)
	if _, err := m.git.run(ctx, dir, stageArgs...); err != nil {
		return "", fmt.Errorf("export patch: stage: %w", err)
	}
	defer func() {
		_, _ = m.git.run(ctx, dir, "reset", "-q")
	}()

	diffArgs := append([]string{"-c", "core.fileMode=false", "diff", "--cached", "--", "."}, diffExcludes...)
	patch, err := m.git.run(ctx, dir, diffArgs...)
	if err != nil {
		return "", fmt.Errorf("export patch: diff: %w", err)
	}
	if patch != "" {
		patch += "\n"
	}

	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return "", fmt.Errorf("export patch: results dir: %w", err)
	}
	path := filepath.Join(resultsDir, strings.ToLower(instanceID)+".patch")
	if err := os.WriteFile(path, []byte(patch), 0o644); err != nil {
		return "", fmt.Errorf("export patch: write: %w", err)
	}

	m.logger.Info("patch exported", "instance", instanceID, "path", path, "bytes", len(patch))
	return path, nil
}
