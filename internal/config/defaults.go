package config

const (
	defaultWorkspacesRoot        = "~/.local/share/benchenv/workspaces"
	defaultResultsDir            = "~/.local/share/benchenv/results"
	defaultLogDir                = "~/.local/share/benchenv/logs"
	defaultStateDir              = "~/.local/share/benchenv/state"
	defaultPythonVersion         = "3.12"
	defaultPythonEnvName         = "benchenv"
	defaultPythonVenvDir         = "~/.local/share/benchenv/python-venv"
	defaultPythonManager         = "auto"
	defaultAgentHost             = "127.0.0.1"
	defaultAgentProtoPort        = 26040
	defaultAgentHostbridgePort   = 26041
	defaultAgentStartupTimeout   = 120
	defaultDockerBinary          = "docker"
	defaultDockerImagePrefix     = "sweb.eval"
	defaultDockerMinImages       = 1
	defaultDockerInspectTimeout  = 5
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

func defaultPythonPackages() []string {
	return []string{"pip", "setuptools", "wheel", "pytest", "requests"}
}

func defaultCondaRoots() []string {
	return []string{"~/miniconda3", "~/anaconda3", "/opt/conda", "/usr/local/miniconda3"}
}

const (
	defaultCheckAPIKeyEnv  = "OPENAI_API_KEY"
	fallbackCheckAPIKeyEnv = "ANTHROPIC_API_KEY"
)

func defaultCheckEnvVars() []string {
	return []string{defaultCheckAPIKeyEnv}
}

// Core tools (node, npx, grpcurl, rg) have dedicated checks; this list is
// for additional host-specific commands.
func defaultCheckCommands() []string {
	return []string{"git"}
}

func defaultPythonImports() []string {
	return []string{"requests", "pytest"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspacesRoot: defaultWorkspacesRoot,
			ResultsDir:     defaultResultsDir,
			LogDir:         defaultLogDir,
			StateDir:       defaultStateDir,
		},
		Python: Python{
			Version:    defaultPythonVersion,
			EnvName:    defaultPythonEnvName,
			VenvDir:    defaultPythonVenvDir,
			Packages:   defaultPythonPackages(),
			Manager:    defaultPythonManager,
			CondaRoots: defaultCondaRoots(),
		},
		Agent: Agent{
			Host:                  defaultAgentHost,
			ProtoPort:             defaultAgentProtoPort,
			HostbridgePort:        defaultAgentHostbridgePort,
			StartupTimeoutSeconds: defaultAgentStartupTimeout,
		},
		Docker: Docker{
			Binary:                defaultDockerBinary,
			ImagePrefix:           defaultDockerImagePrefix,
			MinImages:             defaultDockerMinImages,
			InspectTimeoutSeconds: defaultDockerInspectTimeout,
		},
		Checks: Checks{
			EnvVars:       defaultCheckEnvVars(),
			Commands:      defaultCheckCommands(),
			PythonImports: defaultPythonImports(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
