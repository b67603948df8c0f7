package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"benchenv/internal/runlog"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool
	var pruneDays int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded checklist runs",
		Long: "List recent checklist runs recorded with `benchenv check --record`.\n" +
			"Pass a run ID to show that run's per-check results.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := runlog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer store.Close()

			if pruneDays > 0 {
				cutoff := time.Now().AddDate(0, 0, -pruneDays)
				removed, err := store.Prune(cmd.Context(), cutoff)
				if err != nil {
					return fmt.Errorf("prune run history: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d runs older than %d days\n", removed, pruneDays)
			}

			if len(args) == 1 {
				return showRunResults(cmd, store, args[0], jsonOutput)
			}

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs. Use `benchenv check --record` to record one.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.StartedAt.Local().Format(time.DateTime),
					run.ID,
					strconv.Itoa(run.Passed),
					strconv.Itoa(run.Failed),
					run.Duration,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Started", "Run ID", "Passed", "Failed", "Duration"},
				rows,
				3, 4,
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to list")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit history as JSON")
	cmd.Flags().IntVar(&pruneDays, "prune-days", 0, "Delete runs older than this many days before listing")
	return cmd
}

func showRunResults(cmd *cobra.Command, store *runlog.Store, runID string, jsonOutput bool) error {
	results, err := store.Results(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	if jsonOutput {
		return writeJSON(cmd, results)
	}

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, result := range results {
		kind := statusOK
		if !result.Passed {
			kind = statusError
			if result.Optional {
				kind = statusWarn
			}
		}
		fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
	return nil
}
