package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"benchenv/internal/services/docker"
	"benchenv/internal/workspace"
)

func newWorkspaceCommand(ctx *commandContext) *cobra.Command {
	workspaceCmd := &cobra.Command{
		Use:   "workspace",
		Short: "Manage per-instance evaluation workspaces",
	}

	workspaceCmd.AddCommand(newWorkspacePrepareCommand(ctx))
	workspaceCmd.AddCommand(newWorkspaceStopCommand(ctx))
	workspaceCmd.AddCommand(newWorkspaceExportPatchCommand(ctx))

	return workspaceCmd
}

func newWorkspacePrepareCommand(ctx *commandContext) *cobra.Command {
	var imageTag string
	var force bool

	cmd := &cobra.Command{
		Use:   "prepare <instance-id>",
		Short: "Materialize an instance workspace and start its container",
		Long: "Copy the instance repo out of its evaluation image, commit a git\n" +
			"baseline for diffing, and start a long-lived container with the\n" +
			"workspace bind-mounted at /testbed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			instanceID := strings.TrimSpace(args[0])

			tag := strings.TrimSpace(imageTag)
			if tag == "" {
				tag = defaultImageTag(cfg.Docker.ImagePrefix, instanceID)
			}

			manager := workspace.NewManager(
				cfg.Paths.WorkspacesRoot,
				docker.NewClient(cfg.DockerBinary()).WithInspectTimeout(cfg.DockerInspectTimeout()),
				ctx.ensureLogger(),
			)
			prepared, err := manager.Prepare(cmd.Context(), instanceID, tag, force)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Workspace:  %s\n", prepared.Dir)
			fmt.Fprintf(out, "Image:      %s\n", prepared.ImageTag)
			fmt.Fprintf(out, "Container:  %s\n", prepared.Container)
			fmt.Fprintf(out, "Run ID:     %s\n", prepared.RunID)
			return nil
		},
	}

	cmd.Flags().StringVar(&imageTag, "image", "", "Evaluation image tag (defaults to the per-instance tag)")
	cmd.Flags().BoolVar(&force, "force", false, "Re-materialize even if the workspace is populated")
	return cmd
}

func newWorkspaceStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <instance-id>",
		Short: "Remove the bound container for an instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			manager := workspace.NewManager(
				cfg.Paths.WorkspacesRoot,
				docker.NewClient(cfg.DockerBinary()).WithInspectTimeout(cfg.DockerInspectTimeout()),
				ctx.ensureLogger(),
			)
			if err := manager.Stop(cmd.Context(), strings.TrimSpace(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stopped container for %s (workspace kept)\n", args[0])
			return nil
		},
	}
}

func newWorkspaceExportPatchCommand(ctx *commandContext) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export-patch <instance-id>",
		Short: "Write the workspace's diff against its baseline",
		Long: "Stage the workspace changes, diff them against the baseline\n" +
			"commit, and write the unified diff to the results directory.\n" +
			"Caches, build output, and non-source artifacts are excluded.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dest := strings.TrimSpace(outDir)
			if dest == "" {
				dest = cfg.Paths.ResultsDir
			}

			manager := workspace.NewManager(
				cfg.Paths.WorkspacesRoot,
				docker.NewClient(cfg.DockerBinary()).WithInspectTimeout(cfg.DockerInspectTimeout()),
				ctx.ensureLogger(),
			)
			path, err := manager.ExportPatch(cmd.Context(), args[0], dest)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Patch written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for the patch file (defaults to results_dir)")
	return cmd
}

// defaultImageTag derives the conventional per-instance image tag, e.g.
// sweb.eval.x86_64.astropy__astropy-12907.
func defaultImageTag(prefix, instanceID string) string {
	return fmt.Sprintf("%s.x86_64.%s", prefix, strings.ToLower(strings.TrimSpace(instanceID)))
}
