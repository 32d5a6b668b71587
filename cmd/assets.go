package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/andresmejia3/emojify/internal/assets"
	"github.com/andresmejia3/emojify/internal/emoji"
	"github.com/andresmejia3/emojify/internal/utils"
	"github.com/spf13/cobra"
)

var (
	exportDir  string
	exportSize int
)

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Manage the emoji artwork",
}

var assetsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the built-in emoji images to a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		if err := runAssetsExport(cmd.OutOrStdout(), exportDir, exportSize); err != nil {
			utils.ShowError("Failed to export assets", err, nil)
			return err
		}
		return nil
	},
}

var assetsCheckCmd = &cobra.Command{
	Use:   "check <dir>",
	Short: "Verify that a directory holds an image for every category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runAssetsCheck(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	assetsExportCmd.Flags().StringVarP(&exportDir, "output", "o", "assets", "Directory to write the images to")
	assetsExportCmd.Flags().IntVar(&exportSize, "size", assets.DefaultSize, "Edge length of each image in pixels")

	assetsCmd.AddCommand(assetsExportCmd, assetsCheckCmd)
	rootCmd.AddCommand(assetsCmd)
}

func runAssetsExport(w io.Writer, dir string, size int) error {
	if size < 1 {
		return fmt.Errorf("size must be positive, got %d", size)
	}
	if err := assets.Export(dir, assets.Builtin(size)); err != nil {
		return err
	}
	for _, e := range emoji.All() {
		fmt.Fprintf(w, "%-22s %s\n", e, filepath.Join(dir, e.AssetName()+".png"))
	}
	return nil
}

func runAssetsCheck(w io.Writer, dir string) error {
	if _, err := assets.LoadDir(dir); err != nil {
		return err
	}
	fmt.Fprintf(w, "✅ %s has all %d emoji\n", dir, emoji.Count)
	return nil
}
