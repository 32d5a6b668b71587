package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/andresmejia3/emojify/internal/emoji"
	"github.com/spf13/cobra"
)

var (
	classifySmile   float64
	classifyEye     float64
	classifyVerbose bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify <smiling> <left-eye-open> <right-eye-open>",
	Short: "Print the emoji category for a set of expression probabilities",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		t := emoji.Thresholds{Smile: Cfg.SmileThreshold, EyeOpen: Cfg.EyeThreshold}
		if cmd.Flags().Changed("smile-threshold") {
			t.Smile = classifySmile
		}
		if cmd.Flags().Changed("eye-threshold") {
			t.EyeOpen = classifyEye
		}
		return runClassify(cmd.OutOrStdout(), args, t, classifyVerbose)
	},
}

func init() {
	classifyCmd.Flags().Float64Var(&classifySmile, "smile-threshold", 0.5, "Smiling probability above which a face counts as smiling")
	classifyCmd.Flags().Float64Var(&classifyEye, "eye-threshold", 0.4, "Eye-open probability above which an eye counts as open")
	classifyCmd.Flags().BoolVarP(&classifyVerbose, "verbose", "v", false, "Also print the binarized expression and asset name")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(w io.Writer, args []string, t emoji.Thresholds, verbose bool) error {
	var scores [3]float64
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("invalid probability %q: %w", a, err)
		}
		scores[i] = v
	}

	x := t.Binarize(scores[0], scores[1], scores[2])
	e := x.Emoji()
	fmt.Fprintln(w, e)
	if verbose {
		fmt.Fprintf(w, "smiling=%t left_eye_open=%t right_eye_open=%t asset=%s\n", x.Smiling, x.LeftEyeOpen, x.RightEyeOpen, e.AssetName())
	}
	return nil
}
