package graph

import (
	"fmt"
	"strings"

	"github.com/canopyhq/canopy/pkg/domain"
)

// Overlay contains run state to visualize on top of the graph.
type Overlay struct {
	PassedNodes []string
	FailedNode  string
}

// GenerateMermaid produces a Mermaid flowchart from a flow.
// It applies semantic styling:
// - Start action: ((Circle))
// - Condition: {Diamond}
// - Assertion: [[Subroutine]]
// - Input: [/Parallelogram/]
// - Default: [Rectangle]
// It also applies overlay styles (Passed/Failed) if provided.
func GenerateMermaid(flow domain.Flow, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range flow.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case node.IsStart():
			opener, closer = "((", "))"
		case node.Kind == domain.NodeKindCondition:
			opener, closer = "{", "}"
		case node.Kind == domain.NodeKindAssertion:
			opener, closer = "[[", "]]"
		case node.Kind == domain.NodeKindInput:
			opener, closer = "[/", "/]"
		}

		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, nodeLabel(node), closer))
	}

	for _, edge := range flow.Edges {
		sb.WriteString(fmt.Sprintf("    %s --> %s\n",
			sanitizeMermaidID(edge.Source),
			sanitizeMermaidID(edge.Target),
		))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high contrast regardless of theme
		sb.WriteString("    classDef passed fill:#e8f5e9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffebee,stroke:#c62828,stroke-width:4px,color:#000;\n")

		passedSet := make(map[string]bool)
		for _, id := range overlay.PassedNodes {
			safeID := sanitizeMermaidID(id)
			if !passedSet[safeID] && safeID != "" {
				passedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s passed;\n", safeID))
			}
		}

		if overlay.FailedNode != "" {
			sb.WriteString(fmt.Sprintf("    class %s failed;\n", sanitizeMermaidID(overlay.FailedNode)))
		}
	}

	return sb.String()
}

// nodeLabel builds a human-readable label for a node.
func nodeLabel(node domain.Node) string {
	var parts []string
	switch node.Kind {
	case domain.NodeKindAction:
		if node.Data.ActionType != "" {
			parts = append(parts, string(node.Data.ActionType))
		} else {
			parts = append(parts, "action")
		}
	default:
		parts = append(parts, string(node.Kind))
	}
	if node.Data.Selector != "" {
		parts = append(parts, node.Data.Selector)
	}
	if node.Data.Expression != "" {
		parts = append(parts, node.Data.Expression)
	}
	// Escape double quotes for Mermaid labels
	return strings.ReplaceAll(strings.Join(parts, " <br/> "), "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
