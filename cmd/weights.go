package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/basellab/superblock-cli/internal/model"
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "List the available scoring weight presets",
	RunE: func(_ *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PRESET\tBUILDING\tRATIO")
		for _, name := range model.WeightPresets() {
			weights, err := model.WeightPreset(name)
			if err != nil {
				return err
			}
			marker := ""
			if name == model.DefaultPreset {
				marker = " (default)"
			}
			fmt.Fprintf(w, "%s%s\t%.2f\t%.2f\n", name, marker, weights.Building, weights.Ratio)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(weightsCmd)
}
