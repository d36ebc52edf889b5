package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/canopyhq/canopy"
	"github.com/canopyhq/canopy/internal/presentation/tui"
	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/canopyhq/canopy/pkg/flowfile"
	"github.com/canopyhq/canopy/pkg/runner"
	"github.com/canopyhq/canopy/pkg/validator"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <flow-file>",
	Short: "Pretty-print a flow in the terminal",
	Long:  `Reads a flow file and renders a human-readable summary of its steps, edges and validity.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		flow, err := flowfile.ParseFile(args[0])
		if err != nil {
			fmt.Printf("Error reading flow: %v\n", err)
			os.Exit(1)
		}

		isTTY := term.IsTerminal(int(os.Stdout.Fd()))
		if isTTY {
			tui.PrintBanner(canopy.Version)
		}

		markdown := flowMarkdown(flow)
		if !isTTY {
			fmt.Print(markdown)
			return
		}

		render := tui.NewRenderer()
		out, err := render(markdown)
		if err != nil {
			fmt.Print(markdown)
			return
		}
		fmt.Print(out)
	},
}

// flowMarkdown summarizes a flow as markdown for the glamour renderer.
func flowMarkdown(flow domain.Flow) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", flow.Name)
	if flow.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", flow.Description)
	}

	if err := validator.Check(flow); err != nil {
		fmt.Fprintf(&sb, "> **Not runnable:** %v\n\n", err)
	}

	sb.WriteString("## Steps\n\n")
	for _, node := range flow.Nodes {
		fmt.Fprintf(&sb, "- `%s`: %s\n", node.ID, runner.Describe(node))
	}

	sb.WriteString("\n## Edges\n\n")
	for _, edge := range flow.Edges {
		fmt.Fprintf(&sb, "- `%s` → `%s`\n", edge.Source, edge.Target)
	}

	return sb.String()
}

func init() {
	rootCmd.AddCommand(showCmd)
}
