package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"benchenv/internal/netprobe"
)

func newAgentCommand(ctx *commandContext) *cobra.Command {
	agentCmd := &cobra.Command{
		Use:   "agent",
		Short: "Interact with the agent server",
	}

	agentCmd.AddCommand(newAgentWaitCommand(ctx))

	return agentCmd
}

func newAgentWaitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "wait",
		Short: "Block until the agent server is ready",
		Long: "Poll the agent's gRPC port until it answers (via grpcurl when\n" +
			"installed) and the hostbridge port accepts connections, bounded\n" +
			"by agent.startup_timeout_seconds.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			waitCtx, cancel := context.WithTimeout(cmd.Context(), cfg.AgentStartupTimeout())
			defer cancel()

			probe := netprobe.NewGRPCProbe("grpcurl")
			if err := probe.WaitReady(waitCtx, cfg.Agent.Host, cfg.Agent.ProtoPort); err != nil {
				return err
			}
			if err := netprobe.WaitForPort(waitCtx, cfg.Agent.Host, cfg.Agent.HostbridgePort); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Agent server ready on %s (grpc %d, hostbridge %d)\n",
				cfg.Agent.Host, cfg.Agent.ProtoPort, cfg.Agent.HostbridgePort)
			return nil
		},
	}
}
