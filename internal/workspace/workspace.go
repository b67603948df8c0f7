// Package workspace prepares per-instance evaluation workspaces: the
// instance repo is materialized from its Docker image onto the host, given
// a git baseline commit for later diffing, and bound into a long-lived
// container so edits persist on both sides.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"benchenv/internal/services/docker"
)

// Manager owns workspace directories under a configured root.
type Manager struct {
	root   string
	docker *docker.Client
	git    *gitRunner
	logger *slog.Logger
}

// NewManager creates a workspace manager rooted at root.
func NewManager(root string, client *docker.Client, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		root:   root,
		docker: client,
		git:    newGitRunner(),
		logger: logger.With("component", "workspace"),
	}
}

// WithGitRunner overrides the git command runner (for testing).
func (m *Manager) WithGitRunner(runner CommandRunner) *Manager {
	m.git.runner = runner
	return m
}

// Prepared describes a workspace that is ready for an evaluation run.
type Prepared struct {
	RunID       string
	InstanceID  string
	ImageTag    string
	Dir         string
	ContainerID string
	Container   string
}

// Dir returns the workspace directory for an instance.
func (m *Manager) Dir(instanceID string) string {
	return filepath.Join(m.root, strings.ToLower(strings.TrimSpace(instanceID)))
}

// Prepare materializes the instance repo from its image, ensures a git
// baseline, and starts the bound container. Any previous container for the
// instance is removed first.
func (m *Manager) Prepare(ctx context.Context, instanceID, imageTag string, force bool) (*Prepared, error) {
	instanceID = strings.TrimSpace(instanceID)
	if instanceID == "" {
		return nil, fmt.Errorf("prepare workspace: instance id required")
	}
	if strings.TrimSpace(imageTag) == "" {
		return nil, fmt.Errorf("prepare workspace: image tag required")
	}
	if !m.docker.ImageExists(ctx, imageTag) {
		return nil, fmt.Errorf("prepare workspace: image %s not found locally", imageTag)
	}

	dir := m.Dir(instanceID)
	if err := m.Materialize(ctx, imageTag, dir, force); err != nil {
		return nil, err
	}
	if err := m.EnsureGitBaseline(ctx, dir); err != nil {
		return nil, err
	}

	name := docker.ContainerNameFor(instanceID)
	if err := m.docker.RemoveContainer(ctx, name); err != nil {
		return nil, fmt.Errorf("remove stale container %s: %w", name, err)
	}
	containerID, err := m.docker.RunDetached(ctx, name, imageTag, dir)
	if err != nil {
		return nil, fmt.Errorf("start bound container: %w", err)
	}

	prepared := &Prepared{
		RunID:       uuid.NewString(),
		InstanceID:  instanceID,
		ImageTag:    imageTag,
		Dir:         dir,
		ContainerID: containerID,
		Container:   name,
	}
	m.logger.Info("workspace prepared",
		"instance", instanceID,
		"dir", dir,
		"container", name,
		"run_id", prepared.RunID,
	)
	return prepared, nil
}

// Stop removes the bound container for an instance. The workspace directory
// is left in place.
func (m *Manager) Stop(ctx context.Context, instanceID string) error {
	name := docker.ContainerNameFor(instanceID)
	if err := m.docker.RemoveContainer(ctx, name); err != nil {
		return fmt.Errorf("stop container %s: %w", name, err)
	}
	m.logger.Info("container stopped", "instance", instanceID, "container", name)
	return nil
}

// Materialize copies /testbed from the image into dir. A populated dir is
// left untouched unless force is set, in which case its contents are
// cleared first.
func (m *Manager) Materialize(ctx context.Context, imageTag, dir string, force bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create workspace dir: %w", err)
	}

	populated, err := dirPopulated(dir)
	if err != nil {
		return err
	}
	if populated && !force {
		return nil
	}
	if force {
		if err := clearDir(dir); err != nil {
			return fmt.Errorf("clear workspace dir: %w", err)
		}
	}

	containerID, err := m.docker.CreateContainer(ctx, imageTag)
	if err != nil {
		return fmt.Errorf("materialize from %s: %w", imageTag, err)
	}
	defer func() {
		_ = m.docker.RemoveContainer(ctx, containerID)
	}()

	if err := m.docker.CopyFromContainer(ctx, containerID, "/testbed/.", dir); err != nil {
		return fmt.Errorf("copy /testbed from %s: %w", imageTag, err)
	}
	return nil
}

func dirPopulated(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, fmt.Errorf("read workspace dir: %w", err)
	}
	return len(entries) > 0, nil
}

func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
