package cli

import (
	"github.com/spf13/cobra"

	"fraudguard/internal/app"
)

var (
	exportCSVPath   string
	exportChartsDir string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export prediction history as CSV and/or PNG charts",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			CSVPath:   exportCSVPath,
			ChartsDir: exportChartsDir,
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().StringVar(&exportChartsDir, "charts-dir", "", "Directory to write daily/amount/hour PNG charts")
}
