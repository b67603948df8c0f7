package docker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type call struct {
	name string
	args []string
}

func fakeRunner(t *testing.T, calls *[]call, output string, err error) CommandRunner {
	t.Helper()
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, call{name: name, args: args})
		return []byte(output), err
	}
}

func TestImageExists(t *testing.T) {
	var calls []call
	client := NewClient("docker").WithRunner(fakeRunner(t, &calls, `[{"Id":"sha256:abc"}]`, nil))

	if !client.ImageExists(context.Background(), "sweb.eval.x86_64.django:latest") {
		t.Fatal("expected image to exist")
	}
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %d", len(calls))
	}
	if got := strings.Join(calls[0].args, " "); got != "image inspect sweb.eval.x86_64.django:latest" {
		t.Fatalf("unexpected args: %s", got)
	}
}

func TestImageExistsFailure(t *testing.T) {
	var calls []call
	client := NewClient("docker").WithRunner(fakeRunner(t, &calls, "Error: No such image", errors.New("exit status 1")))

	if client.ImageExists(context.Background(), "missing:latest") {
		t.Fatal("expected missing image")
	}
}

func TestImageExistsEmptyTag(t *testing.T) {
	client := NewClient("docker").WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		t.Fatal("runner should not be called for empty tag")
		return nil, nil
	})
	if client.ImageExists(context.Background(), "  ") {
		t.Fatal("expected empty tag to report false")
	}
}

func TestCountImages(t *testing.T) {
	output := strings.Join([]string{
		"sweb.eval.x86_64.django__django-11099",
		"sweb.eval.x86_64.sympy__sympy-20590",
		"ubuntu",
		"<none>",
		"",
	}, "\n")
	var calls []call
	client := NewClient("docker").WithRunner(fakeRunner(t, &calls, output, nil))

	count, err := client.CountImages(context.Background(), "sweb.eval")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 matching images, got %d", count)
	}

	all, err := client.CountImages(context.Background(), "")
	if err != nil {
		t.Fatalf("count all: %v", err)
	}
	if all != 3 {
		t.Fatalf("expected 3 images total, got %d", all)
	}
}

func TestCountImagesError(t *testing.T) {
	var calls []call
	client := NewClient("docker").WithRunner(fakeRunner(t, &calls, "Cannot connect to the Docker daemon", errors.New("exit status 1")))
	if _, err := client.CountImages(context.Background(), ""); err == nil {
		t.Fatal("expected error when docker fails")
	}
}

func TestCreateContainerReturnsLastLine(t *testing.T) {
	var calls []call
	client := NewClient("docker").WithRunner(fakeRunner(t, &calls, "WARNING: platform mismatch\nabcdef012345\n", nil))

	id, err := client.CreateContainer(context.Background(), "img:latest")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != "abcdef012345" {
		t.Fatalf("unexpected id: %q", id)
	}
}

func TestRunDetachedArgs(t *testing.T) {
	var calls []call
	client := NewClient("docker").WithRunner(fakeRunner(t, &calls, "deadbeef\n", nil))

	id, err := client.RunDetached(context.Background(), "sweb_x", "img:latest", "/tmp/ws")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if id != "deadbeef" {
		t.Fatalf("unexpected id: %q", id)
	}
	got := strings.Join(calls[0].args, " ")
	want := "run -d --rm --name sweb_x -w /testbed -v /tmp/ws:/testbed img:latest tail -f /dev/null"
	if got != want {
		t.Fatalf("unexpected args:\n got: %s\nwant: %s", got, want)
	}
}

func TestRemoveContainerMissingIsNotError(t *testing.T) {
	var calls []call
	client := NewClient("docker").WithRunner(fakeRunner(t, &calls, "Error response from daemon: No such container: sweb_x", errors.New("exit status 1")))
	if err := client.RemoveContainer(context.Background(), "sweb_x"); err != nil {
		t.Fatalf("expected missing container to be tolerated, got %v", err)
	}
}

func TestContainerNameFor(t *testing.T) {
	if got := ContainerNameFor(" Django__Django-11099 "); got != "sweb_django__django-11099" {
		t.Fatalf("unexpected name: %q", got)
	}
}

func TestWithInspectTimeoutBoundsContext(t *testing.T) {
	var deadline time.Time
	client := NewClient("docker").
		WithInspectTimeout(100 * time.Millisecond).
		WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
			deadline, _ = ctx.Deadline()
			return []byte("[{}]"), nil
		})

	client.ImageExists(context.Background(), "img:latest")
	if deadline.IsZero() {
		t.Fatal("expected inspect context to carry a deadline")
	}
	if remaining := time.Until(deadline); remaining > 150*time.Millisecond {
		t.Fatalf("deadline %v exceeds configured timeout", remaining)
	}
}

func TestWithInspectTimeoutIgnoresNonPositive(t *testing.T) {
	client := NewClient("docker").WithInspectTimeout(0)
	if client.inspectTimeout != defaultInspectTimeout {
		t.Fatalf("zero timeout should keep default, got %v", client.inspectTimeout)
	}
}
