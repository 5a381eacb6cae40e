package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cmlabs-hris/hris-payroll-go/internal/config"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "payrollctl",
		Short:         "Normalize punches and calculate salary slips offline",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("rules", "", "Rules file overriding office hours and payroll thresholds")

	root.AddCommand(normalizeCmd())
	root.AddCommand(calculateCmd())

	return root
}

func loadRules(cmd *cobra.Command) (config.Rules, error) {
	path, err := cmd.Flags().GetString("rules")
	if err != nil {
		return config.Rules{}, err
	}
	return config.LoadRules(path)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
