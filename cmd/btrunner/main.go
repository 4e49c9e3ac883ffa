// Command btrunner is the replay-engine CLI surface (spec §6): it loads a
// YAML backtest config and a YAML log config, wires the engine packages
// together for one of the three strategy flavors, runs the replay to
// completion, and flushes the five output CSVs plus the incremental-resume
// snapshot. Concrete strategy logic is a collaborator concern per spec §1
// ("concrete strategy implementations" are out of scope); the demo
// strategies in demo_strategy.go exist only to exercise the pipeline
// end-to-end, the way the teacher's own cmd/demos/* programs exercise
// its trading stack without being the product itself.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgPath string
	logPath string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "btrunner",
		Short:         "Run a historical-data replay backtest",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFromFiles(cfgPath, logPath)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "./configbt.yaml", "backtest config file")
	cmd.Flags().StringVarP(&logPath, "logcfg", "l", "./logcfgbt.yaml", "logging config file")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
