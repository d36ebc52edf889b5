package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/canopyhq/canopy/pkg/adapters/process"
	"github.com/canopyhq/canopy/pkg/dispatcher"
	"github.com/canopyhq/canopy/pkg/flowfile"
	"github.com/canopyhq/canopy/pkg/ports"
	"github.com/canopyhq/canopy/pkg/registry"
	"github.com/canopyhq/canopy/pkg/runner"
	"github.com/canopyhq/canopy/pkg/validator"
	"github.com/spf13/cobra"
)

// runners holds the execution backends selectable via --runner.
// Hosts embedding the CLI register their own (e.g. a Playwright bridge).
var runners = registry.New()

func init() {
	runners.Register("dry-run", &runner.DryRun{})
}

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <flow-file>",
	Short: "Execute a flow file",
	Long:  `Parses a YAML flow file, validates it, and dispatches it to the selected runner.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runnerName, _ := cmd.Flags().GetString("runner")
		delay, _ := cmd.Flags().GetDuration("step-delay")
		verbose, _ := cmd.Flags().GetBool("verbose")

		flow, err := flowfile.ParseFile(args[0])
		if err != nil {
			fmt.Printf("Error reading flow: %v\n", err)
			os.Exit(1)
		}

		if err := validator.Check(flow); err != nil {
			fmt.Printf("Flow is not runnable: %v\n", err)
			os.Exit(1)
		}

		var r ports.Runner
		if execCommand, _ := cmd.Flags().GetString("exec"); execCommand != "" {
			parts := strings.Fields(execCommand)
			r = process.NewRunner(parts[0], process.WithArgs(parts[1:]...))
		} else {
			r, err = runners.Get(runnerName)
			if err != nil {
				fmt.Printf("Error: %v (available: %s)\n", err, strings.Join(runners.Names(), ", "))
				os.Exit(1)
			}
		}
		if dr, ok := r.(*runner.DryRun); ok && delay > 0 {
			dr.StepDelay = delay
		}

		opts := []dispatcher.Option{}
		if verbose {
			opts = append(opts, dispatcher.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))))
		}

		d := dispatcher.New(r, opts...)
		start := time.Now()
		d.Run(cmd.Context(), flow)

		failed := false
		for _, res := range d.Results() {
			marker := "✔"
			if res.Status == "failed" {
				marker = "✘"
				failed = true
			}
			fmt.Printf("  %s %s  %s\n", marker, res.NodeID, res.Message)
		}
		fmt.Printf("\n%d steps in %s\n", len(d.Results()), time.Since(start).Round(time.Millisecond))

		if failed {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("runner", "dry-run", "Execution backend to use")
	runCmd.Flags().String("exec", "", "External runner command (flow JSON on stdin, results JSON on stdout)")
	runCmd.Flags().Duration("step-delay", 0, "Artificial delay per step (dry-run only)")
	runCmd.Flags().BoolP("verbose", "v", false, "Log dispatcher activity to stderr")
}
