package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/andresmejia3/emojify/internal/emoji"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:         "stats",
	Short:       "Show how often each emoji has been drawn across recorded runs",
	Annotations: map[string]string{dbAnnotation: dbRequired},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		counts, err := DB.EmojiCounts(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to count emoji: %w", err)
		}
		renderStats(cmd.OutOrStdout(), counts)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

// renderStats prints one row per category, in category order, including zeros.
func renderStats(out io.Writer, counts map[emoji.Emoji]int) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Emoji", "Asset", "Faces", "Share"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	total := 0
	for _, n := range counts {
		total += n
	}

	for _, e := range emoji.All() {
		share := "-"
		if total > 0 {
			share = fmt.Sprintf("%.1f%%", 100*float64(counts[e])/float64(total))
		}
		table.Append([]string{e.String(), e.AssetName(), strconv.Itoa(counts[e]), share})
	}
	table.SetFooter([]string{"", "Total", strconv.Itoa(total), ""})
	table.Render()
}
