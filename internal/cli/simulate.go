package cli

import (
	"github.com/spf13/cobra"
)

var simulateList bool

var simulateCmd = &cobra.Command{
	Use:   "simulate [scenario]",
	Short: "Score a preset transaction scenario",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateList || len(args) == 0 {
			getApp().ListScenarios()
			return nil
		}
		return getApp().Simulate(cmd.Context(), args[0])
	},
}

func init() {
	simulateCmd.Flags().BoolVar(&simulateList, "list", false, "List available scenarios")
}
