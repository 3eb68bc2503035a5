package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"fraudguard/internal/app"
)

var (
	showLimit int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display recent predictions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit < 0 {
			return fmt.Errorf("--limit must not be negative")
		}

		opts := app.ShowOptions{
			Limit: showLimit,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print dashboard metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Stats(cmd.Context())
	},
}

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored prediction",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearYes {
			return fmt.Errorf("refusing to clear history without --yes")
		}
		return getApp().Clear(cmd.Context())
	},
}

func init() {
	showCmd.Flags().IntVar(&showLimit, "limit", 0, "Number of predictions to display (defaults to config)")
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "Confirm deletion")
}
