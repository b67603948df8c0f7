// Package netprobe provides TCP and gRPC reachability probes for the agent
// server ports the harness depends on.
package netprobe

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"time"
)

const (
	dialTimeout    = 500 * time.Millisecond
	pollInterval   = 500 * time.Millisecond
	grpcurlTimeout = 5 * time.Second
)

// CommandRunner executes a command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func defaultRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// IsPortOpen reports whether a TCP connection to host:port succeeds.
func IsPortOpen(host string, port int) bool {
	address := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	conn, err := net.DialTimeout("tcp", address, dialTimeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// WaitForPort polls until the port accepts connections or the context ends.
func WaitForPort(ctx context.Context, host string, port int) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if IsPortOpen(host, port) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("port %s:%d not open: %w", host, port, ctx.Err())
		case <-ticker.C:
		}
	}
}

// GRPCProbe checks gRPC server readiness via grpcurl.
type GRPCProbe struct {
	Grpcurl string
	runner  CommandRunner
}

// NewGRPCProbe builds a probe using the grpcurl binary name.
func NewGRPCProbe(grpcurl string) *GRPCProbe {
	if strings.TrimSpace(grpcurl) == "" {
		grpcurl = "grpcurl"
	}
	return &GRPCProbe{Grpcurl: grpcurl, runner: defaultRunner}
}

// WithRunner sets a custom command runner (for testing).
func (p *GRPCProbe) WithRunner(runner CommandRunner) *GRPCProbe {
	p.runner = runner
	return p
}

// Ready performs a single readiness probe: the port must accept connections
// and, when grpcurl is installed, `grpcurl -plaintext host:port list` must
// succeed. Without grpcurl an open port counts as ready.
func (p *GRPCProbe) Ready(ctx context.Context, host string, port int) error {
	if !IsPortOpen(host, port) {
		return fmt.Errorf("port %s:%d not open", host, port)
	}
	if _, err := exec.LookPath(p.Grpcurl); err != nil {
		return nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, grpcurlTimeout)
	defer cancel()

	target := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	output, err := p.runner(probeCtx, p.Grpcurl, "-plaintext", target, "list")
	if err != nil {
		return fmt.Errorf("grpcurl list %s: %w: %s", target, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// WaitReady polls Ready until it succeeds or the context ends. The last
// probe error is included in the timeout report.
func (p *GRPCProbe) WaitReady(ctx context.Context, host string, port int) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		if err := p.Ready(ctx, host, port); err == nil {
			return nil
		} else {
			lastErr = err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("grpc server not ready at %s:%d: %w (last probe: %v)", host, port, ctx.Err(), lastErr)
		case <-ticker.C:
		}
	}
}
