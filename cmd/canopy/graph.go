package main

import (
	"fmt"
	"os"

	"github.com/canopyhq/canopy/internal/presentation/graph"
	"github.com/canopyhq/canopy/pkg/flowfile"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <flow-file>",
	Short: "Export the flow graph visualization",
	Long:  `Reads a flow file and outputs a Mermaid diagram (graph TD) representing its steps and edges.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		flow, err := flowfile.ParseFile(args[0])
		if err != nil {
			fmt.Printf("Error reading flow: %v\n", err)
			os.Exit(1)
		}

		fmt.Print(graph.GenerateMermaid(flow, nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
