package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/andresmejia3/emojify/internal/utils"
	"github.com/spf13/cobra"
)

var (
	resetYes    bool
	resetAssets string
)

var resetCmd = &cobra.Command{
	Use:         "reset",
	Short:       "Reset system state (run history, exported assets)",
	Long:        "Drops the run history tables. Use --assets to also delete a directory of exported emoji images.",
	Annotations: map[string]string{dbAnnotation: dbRequired},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		reader := bufio.NewReader(cmd.InOrStdin())

		if resetYes || confirm(reader, cmd.OutOrStdout(), "⚠️  Are you sure you want to DROP all run history tables?") {
			fmt.Fprintln(cmd.OutOrStdout(), "🗑️  Clearing Database...")
			if err := DB.Reset(cmd.Context()); err != nil {
				utils.ShowError("Failed to reset database", err, nil)
				return err
			}
		}

		if resetAssets != "" {
			if resetYes || confirm(reader, cmd.OutOrStdout(), fmt.Sprintf("⚠️  Are you sure you want to delete %s?", resetAssets)) {
				fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Removing %s...\n", resetAssets)
				removeDir(cmd.ErrOrStderr(), resetAssets)
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), "✨ System Reset Complete.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Do not ask for confirmation")
	resetCmd.Flags().StringVar(&resetAssets, "assets", "", "Exported asset directory to delete as well")
	rootCmd.AddCommand(resetCmd)
}

func confirm(r *bufio.Reader, w io.Writer, prompt string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", prompt)
	res, _ := r.ReadString('\n')
	res = strings.TrimSpace(strings.ToLower(res))
	return res == "y" || res == "yes"
}

func removeDir(w io.Writer, path string) {
	if err := os.RemoveAll(path); err != nil {
		fmt.Fprintf(w, "⚠️  Failed to remove %s: %v\n", path, err)
	}
}
