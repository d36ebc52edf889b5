package main

import (
	"fmt"
	"os"

	"github.com/canopyhq/canopy/pkg/flowfile"
	"github.com/canopyhq/canopy/pkg/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <flow-file>",
	Short: "Check a flow for runnability",
	Long:  `Checks that the flow has a start action node and that every node participates in at least one edge.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		flow, err := flowfile.ParseFile(args[0])
		if err != nil {
			fmt.Printf("Error reading flow: %v\n", err)
			os.Exit(1)
		}

		if err := validator.Check(flow); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Flow is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
