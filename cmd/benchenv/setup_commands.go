package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"benchenv/internal/deps"
	"benchenv/internal/pythonenv"
)

func newSetupCommand(ctx *commandContext) *cobra.Command {
	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "Provision evaluation prerequisites",
	}

	setupCmd.AddCommand(newSetupPythonCommand(ctx))
	setupCmd.AddCommand(newSetupSystemCommand(ctx))

	return setupCmd
}

func newSetupPythonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "python",
		Short: "Provision the pinned Python environment",
		Long: "Locate a conda installation or a versioned python on PATH and\n" +
			"build the managed environment with the configured package set.\n" +
			"Existing environments are reused and their packages upgraded.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			provisioner := pythonenv.NewProvisioner(cfg.Python, cfg.Paths.StateDir, ctx.ensureLogger())
			result, err := provisioner.Provision(cmd.Context())
			if err != nil {
				if errors.Is(err, pythonenv.ErrNoInterpreter) {
					return fmt.Errorf("no conda or python%s found; install one or run `benchenv setup system` as root", cfg.Python.Version)
				}
				return err
			}

			out := cmd.OutOrStdout()
			action := "reused existing"
			if result.Created {
				action = "created"
			}
			switch result.Manager {
			case pythonenv.ManagerConda:
				fmt.Fprintf(out, "%s conda env %q\n", action, result.EnvName)
			default:
				fmt.Fprintf(out, "%s venv at %s\n", action, result.VenvDir)
			}
			interpreter := result.Python
			if result.Manager == pythonenv.ManagerVenv {
				// Conda interpreters are behind `conda run`; only real paths
				// can be probed.
				if version, err := deps.ProbeVersion(cmd.Context(), result.Python, ""); err == nil {
					interpreter = fmt.Sprintf("%s (%s)", result.Python, version)
				}
			}
			fmt.Fprintf(out, "Interpreter: %s\n", interpreter)
			if len(result.Packages) > 0 {
				fmt.Fprintf(out, "Packages: %d installed or upgraded\n", len(result.Packages))
			}
			return nil
		},
	}
}

func newSetupSystemCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "system",
		Short: "Install the pinned Python system-wide (requires root)",
		Long: "Install the configured Python line from the deadsnakes PPA via\n" +
			"apt. This changes system packages and must run as root.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			installer := pythonenv.NewSystemInstaller(cfg.Python.Version, ctx.ensureLogger())
			if err := installer.Install(cmd.Context()); err != nil {
				if errors.Is(err, pythonenv.ErrNotRoot) {
					return fmt.Errorf("system install requires root; rerun with sudo")
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "python%s installed system-wide\n", cfg.Python.Version)
			return nil
		},
	}
}
