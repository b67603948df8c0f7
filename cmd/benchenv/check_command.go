package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"benchenv/internal/preflight"
	"benchenv/internal/runlog"
)

// checkFailuresError carries the failed-check count so main can exit with it.
type checkFailuresError struct {
	count int
}

func (e *checkFailuresError) Error() string {
	if e.count == 1 {
		return "1 check failed"
	}
	return fmt.Sprintf("%d checks failed", e.count)
}

type checkReport struct {
	StartedAt string             `json:"started_at"`
	Duration  string             `json:"duration"`
	Passed    int                `json:"passed"`
	Failed    int                `json:"failed"`
	Results   []preflight.Result `json:"results"`
	RunID     string             `json:"run_id,omitempty"`
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var record bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the pre-run checklist",
		Long: "Run the pre-run checklist and exit with the number of failed\n" +
			"required checks. A zero exit status means the host is ready.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			summary := preflight.NewChecker(cfg).RunAll(cmd.Context())

			var runID string
			if record {
				store, err := runlog.Open(cfg)
				if err != nil {
					return fmt.Errorf("open run history: %w", err)
				}
				defer store.Close()
				runID, err = store.Record(cmd.Context(), summary)
				if err != nil {
					return fmt.Errorf("record run: %w", err)
				}
			}

			if jsonOutput {
				report := checkReport{
					StartedAt: summary.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
					Duration:  summary.Duration,
					Passed:    summary.Passed(),
					Failed:    summary.Failed(),
					Results:   summary.Results,
					RunID:     runID,
				}
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				renderCheckSummary(cmd, summary, runID)
			}

			if failed := summary.Failed(); failed > 0 {
				return &checkFailuresError{count: failed}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the checklist as JSON")
	cmd.Flags().BoolVar(&record, "record", false, "Persist this run to the local history")
	return cmd
}

func renderCheckSummary(cmd *cobra.Command, summary preflight.Summary, runID string) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Pre-run checklist", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, result := range summary.Results {
		kind := statusOK
		if !result.Passed {
			kind = statusError
			if result.Optional {
				kind = statusWarn
			}
		}
		fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}

	fmt.Fprintf(out, "\n%d/%d checks passed in %s", summary.Passed(), len(summary.Results), summary.Duration)
	if failed := summary.Failed(); failed > 0 {
		fmt.Fprintf(out, ", %d failed", failed)
	}
	fmt.Fprintln(out)
	if runID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded run %s\n", runID)
	}
}
