package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/andresmejia3/emojify/internal/store"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:         "history [run-id]",
	Short:       "List recorded runs, or show the faces of one run",
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{dbAnnotation: dbRequired},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		if len(args) == 1 {
			return showRun(cmd.Context(), cmd.OutOrStdout(), DB, args[0])
		}
		return listRuns(cmd.Context(), cmd.OutOrStdout(), DB, historyLimit)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func listRuns(ctx context.Context, out io.Writer, db *store.Store, limit int) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tINPUT\tOUTPUT\tFACES\tPROCESSED")
	fmt.Fprintln(w, "--\t-----\t------\t-----\t---------")

	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", shortID(r.ID), r.InputPath, r.OutputPath, r.FaceCount, r.ProcessedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func showRun(ctx context.Context, out io.Writer, db *store.Store, id string) error {
	run, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Run %s\n  input:  %s\n  output: %s\n  at:     %s\n\n", run.ID, run.InputPath, run.OutputPath, run.ProcessedAt.Local().Format("2006-01-02 15:04:05"))
	if len(run.Faces) == 0 {
		fmt.Fprintln(out, "No faces detected.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "FACE\tBOX\tSMILING\tLEFT EYE\tRIGHT EYE\tEMOJI")
	for _, f := range run.Faces {
		o := f.Observation
		name := f.Emoji.String()
		if f.Skipped {
			name += " (skipped)"
		}
		fmt.Fprintf(w, "%d\t%.0f,%.0f %.0fx%.0f\t%.2f\t%.2f\t%.2f\t%s\n", f.FaceIndex, o.X, o.Y, o.Width, o.Height,
			o.SmilingProbability, o.LeftEyeOpenProbability, o.RightEyeOpenProbability, name)
	}
	return w.Flush()
}

// shortID trims run ids (sha256 hex) for display.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
