/*
Package canopy is a toolkit for building and executing browser test flows.

A flow is a graph of nodes (click, navigate, input, assertion, condition,
wait) connected by directed edges. The library manages the graph model,
selector generation, validation, and run dispatch, while the host manages
the actual browser: real automation is injected as a ports.Runner
(Playwright bridge, CDP client, AI agent). This hexagonal split lets the
same core back a CLI, an HTTP API, or an MCP agent surface.

# Usage

The Workbench is the high-level entry point. It holds the working copy of
one flow and applies editor-style change-sets to it.

	package main

	import (
		"context"
		"log"

		"github.com/canopyhq/canopy"
		"github.com/canopyhq/canopy/pkg/domain"
		"github.com/canopyhq/canopy/pkg/graph"
		"github.com/canopyhq/canopy/pkg/runner"
	)

	func main() {
		wb := canopy.NewWorkbench("checkout",
			canopy.WithRunner(&runner.DryRun{}),
		)

		// Build the graph: a start node and a click step.
		wb.ApplyNodeChanges([]graph.NodeChange{
			{Type: graph.ChangeAdd, Node: domain.Node{
				ID:   "start",
				Kind: domain.NodeKindAction,
				Data: domain.NodeData{ActionType: domain.ActionStart},
			}},
			{Type: graph.ChangeAdd, Node: domain.Node{
				ID:   "buy",
				Kind: domain.NodeKindAction,
				Data: domain.NodeData{ActionType: domain.ActionClick, Selector: "#buy"},
			}},
		})
		wb.Connect(domain.Connection{Source: "start", Target: "buy"})

		// Execute. Invalid flows are refused silently; check first.
		if !wb.Validate() {
			log.Fatal("flow is not runnable")
		}
		wb.Run(context.Background())

		for _, r := range wb.Results() {
			log.Println(r.NodeID, r.Status)
		}
	}

Lower-level building blocks live under pkg: the graph change-set model
(pkg/graph), CSS selector generation (pkg/selector), flow validation
(pkg/validator), run dispatch (pkg/dispatcher), persistence (pkg/adapters,
pkg/persistence) and serving surfaces (pkg/adapters/http, pkg/adapters/mcp).
*/
package canopy
