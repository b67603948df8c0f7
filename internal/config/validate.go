package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var pythonVersionPattern = regexp.MustCompile(`^3\.\d{1,2}$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePython(); err != nil {
		return err
	}
	if err := c.validateAgent(); err != nil {
		return err
	}
	if err := c.validateDocker(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePython() error {
	if !pythonVersionPattern.MatchString(c.Python.Version) {
		return fmt.Errorf("python.version must look like 3.NN, got %q", c.Python.Version)
	}
	switch c.Python.Manager {
	case "auto", "conda", "venv":
	default:
		return fmt.Errorf("python.manager must be one of auto, conda, venv; got %q", c.Python.Manager)
	}
	if strings.TrimSpace(c.Python.EnvName) == "" {
		return errors.New("python.env_name must be set")
	}
	return nil
}

func (c *Config) validateAgent() error {
	if err := ensurePortMap(map[string]int{
		"agent.proto_port":      c.Agent.ProtoPort,
		"agent.hostbridge_port": c.Agent.HostbridgePort,
	}); err != nil {
		return err
	}
	if c.Agent.ProtoPort == c.Agent.HostbridgePort {
		return errors.New("agent.proto_port and agent.hostbridge_port must differ")
	}
	if c.Agent.StartupTimeoutSeconds <= 0 {
		return errors.New("agent.startup_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateDocker() error {
	if strings.TrimSpace(c.Docker.Binary) == "" {
		return errors.New("docker.binary must be set")
	}
	if c.Docker.MinImages < 0 {
		return errors.New("docker.min_images must be >= 0")
	}
	if c.Docker.InspectTimeoutSeconds <= 0 {
		return errors.New("docker.inspect_timeout_seconds must be positive")
	}
	return nil
}

func ensurePortMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 || value > 65535 {
			return fmt.Errorf("%s must be a valid TCP port", key)
		}
	}
	return nil
}
