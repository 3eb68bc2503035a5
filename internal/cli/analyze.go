package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"fraudguard/internal/features"
)

var analyzeInput features.Input

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a manually entered transaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkRange("amount", analyzeInput.Amount, 0, 20000); err != nil {
			return err
		}
		if analyzeInput.Hour < 0 || analyzeInput.Hour > 24 {
			return fmt.Errorf("--hour must be between 0 and 24")
		}
		for name, v := range map[string]float64{"v12": analyzeInput.V12, "v14": analyzeInput.V14, "v17": analyzeInput.V17} {
			if err := checkRange(name, v, -20, 20); err != nil {
				return err
			}
		}

		return getApp().Analyze(cmd.Context(), analyzeInput)
	},
}

func checkRange(flag string, v, lo, hi float64) error {
	if v < lo || v > hi {
		return fmt.Errorf("--%s must be between %g and %g", flag, lo, hi)
	}
	return nil
}

func init() {
	analyzeCmd.Flags().Float64Var(&analyzeInput.Amount, "amount", 100, "Transaction amount ($)")
	analyzeCmd.Flags().IntVar(&analyzeInput.Hour, "hour", 12, "Hour of day (0-24)")
	analyzeCmd.Flags().Float64Var(&analyzeInput.V12, "v12", 0, "Anonymised component V12")
	analyzeCmd.Flags().Float64Var(&analyzeInput.V14, "v14", 0, "Anonymised component V14")
	analyzeCmd.Flags().Float64Var(&analyzeInput.V17, "v17", 0, "Anonymised component V17")
}
