package docker

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	defaultInspectTimeout = 5 * time.Second
	listTimeout           = 30 * time.Second
)

// CommandRunner executes a command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Client shells out to the Docker CLI for image and container operations.
type Client struct {
	binary         string
	inspectTimeout time.Duration
	runner         CommandRunner
}

// NewClient creates a Docker client using the given binary name.
func NewClient(binary string) *Client {
	if strings.TrimSpace(binary) == "" {
		binary = "docker"
	}
	return &Client{
		binary:         binary,
		inspectTimeout: defaultInspectTimeout,
		runner: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
	}
}

// WithRunner sets a custom command runner (for testing).
func (c *Client) WithRunner(runner CommandRunner) *Client {
	c.runner = runner
	return c
}

// WithInspectTimeout overrides the per-inspect deadline.
func (c *Client) WithInspectTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.inspectTimeout = timeout
	}
	return c
}

// Binary returns the configured Docker executable.
func (c *Client) Binary() string {
	return c.binary
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	output, err := c.runner(ctx, c.binary, args...)
	text := strings.TrimSpace(string(output))
	if err != nil {
		return text, fmt.Errorf("%s %s: %w: %s", c.binary, strings.Join(args, " "), err, text)
	}
	return text, nil
}

// DaemonAvailable reports whether the Docker daemon responds to `docker info`.
func (c *Client) DaemonAvailable(ctx context.Context) error {
	if _, err := exec.LookPath(c.binary); err != nil {
		return fmt.Errorf("binary %q not found", c.binary)
	}
	infoCtx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()
	if _, err := c.run(infoCtx, "info", "--format", "{{.ServerVersion}}"); err != nil {
		return fmt.Errorf("daemon unreachable: %w", err)
	}
	return nil
}

// ImageExists reports whether an image tag is present locally.
func (c *Client) ImageExists(ctx context.Context, imageTag string) bool {
	if strings.TrimSpace(imageTag) == "" {
		return false
	}
	inspectCtx, cancel := context.WithTimeout(ctx, c.inspectTimeout)
	defer cancel()
	_, err := c.run(inspectCtx, "image", "inspect", imageTag)
	return err == nil
}

// CountImages returns how many local image repositories start with prefix.
// An empty prefix counts every image.
func (c *Client) CountImages(ctx context.Context, prefix string) (int, error) {
	listCtx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()
	output, err := c.run(listCtx, "images", "--format", "{{.Repository}}")
	if err != nil {
		return 0, err
	}
	if output == "" {
		return 0, nil
	}
	count := 0
	for _, line := range strings.Split(output, "\n") {
		repo := strings.TrimSpace(line)
		if repo == "" || repo == "<none>" {
			continue
		}
		if prefix == "" || strings.HasPrefix(repo, prefix) {
			count++
		}
	}
	return count, nil
}

// CreateContainer creates a stopped container from an image and returns its ID.
func (c *Client) CreateContainer(ctx context.Context, imageTag string) (string, error) {
	output, err := c.run(ctx, "create", imageTag)
	if err != nil {
		return "", err
	}
	// docker create prints warnings before the ID; the ID is the last line.
	lines := strings.Split(output, "\n")
	id := strings.TrimSpace(lines[len(lines)-1])
	if id == "" {
		return "", fmt.Errorf("docker create %s: empty container id", imageTag)
	}
	return id, nil
}

// CopyFromContainer copies a path out of a container into destDir.
func (c *Client) CopyFromContainer(ctx context.Context, containerID, sourcePath, destDir string) error {
	_, err := c.run(ctx, "cp", containerID+":"+sourcePath, destDir)
	return err
}

// RemoveContainer force-removes a container. Missing containers are not errors.
func (c *Client) RemoveContainer(ctx context.Context, nameOrID string) error {
	_, err := c.run(ctx, "rm", "-f", nameOrID)
	if err != nil && strings.Contains(err.Error(), "No such container") {
		return nil
	}
	return err
}

// RunDetached starts a long-lived container with the workspace bind-mounted
// at /testbed and returns the container ID.
func (c *Client) RunDetached(ctx context.Context, name, imageTag, workspaceDir string) (string, error) {
	output, err := c.run(ctx,
		"run", "-d", "--rm",
		"--name", name,
		"-w", "/testbed",
		"-v", workspaceDir+":/testbed",
		imageTag,
		"tail", "-f", "/dev/null",
	)
	if err != nil {
		return "", err
	}
	lines := strings.Split(output, "\n")
	return strings.TrimSpace(lines[len(lines)-1]), nil
}

// ContainerNameFor derives the bound-container name for an instance ID.
func ContainerNameFor(instanceID string) string {
	return "sweb_" + strings.ToLower(strings.TrimSpace(instanceID))
}
