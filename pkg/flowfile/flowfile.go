// Package flowfile reads and writes the YAML representation of a flow.
//
// Flow files are the authored form of a flow graph; the editor's saved
// state and the CLI both speak this format. Node params are kind-specific
// and decoded leniently: unknown keys are ignored so older binaries can
// open newer files.
package flowfile

import (
	"fmt"
	"os"

	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

type rawFlow struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Nodes       []rawNode `yaml:"nodes"`
	Edges       []rawEdge `yaml:"edges"`
}

type rawNode struct {
	ID       string          `yaml:"id,omitempty"`
	Kind     string          `yaml:"kind"`
	Position domain.Position `yaml:"position,omitempty"`
	Params   map[string]any  `yaml:"params,omitempty"`
}

type rawEdge struct {
	ID     string `yaml:"id,omitempty"`
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

// Parse decodes a YAML flow document. Nodes and edges without explicit
// identifiers are assigned fresh ones, so hand-written files can omit
// them.
func Parse(data []byte) (domain.Flow, error) {
	var raw rawFlow
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return domain.Flow{}, fmt.Errorf("failed to parse flow file: %w", err)
	}

	flow := domain.Flow{
		ID:          raw.ID,
		Name:        raw.Name,
		Description: raw.Description,
	}
	if flow.ID == "" {
		flow.ID = uuid.NewString()
	}

	for i, rn := range raw.Nodes {
		node := domain.Node{
			ID:       rn.ID,
			Kind:     rn.Kind,
			Position: rn.Position,
		}
		if node.ID == "" {
			node.ID = uuid.NewString()
		}
		if err := mapstructure.WeakDecode(rn.Params, &node.Data); err != nil {
			return domain.Flow{}, fmt.Errorf("node %d (%s): invalid params: %w", i, node.ID, err)
		}
		flow.Nodes = append(flow.Nodes, node)
	}

	for _, re := range raw.Edges {
		edge := domain.Edge{
			ID:     re.ID,
			Source: re.Source,
			Target: re.Target,
		}
		if edge.ID == "" {
			edge.ID = uuid.NewString()
		}
		flow.Edges = append(flow.Edges, edge)
	}

	return flow, nil
}

// ParseFile reads and parses a flow file from disk.
func ParseFile(path string) (domain.Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Flow{}, fmt.Errorf("failed to read flow file: %w", err)
	}
	return Parse(data)
}

// encNode mirrors rawNode with typed params for encoding.
type encNode struct {
	ID       string          `yaml:"id"`
	Kind     string          `yaml:"kind"`
	Position domain.Position `yaml:"position,omitempty"`
	Params   domain.NodeData `yaml:"params,omitempty"`
}

type encFlow struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Nodes       []encNode `yaml:"nodes"`
	Edges       []rawEdge `yaml:"edges"`
}

// Encode renders a flow as YAML.
func Encode(flow domain.Flow) ([]byte, error) {
	enc := encFlow{
		ID:          flow.ID,
		Name:        flow.Name,
		Description: flow.Description,
	}
	for _, n := range flow.Nodes {
		enc.Nodes = append(enc.Nodes, encNode{
			ID:       n.ID,
			Kind:     n.Kind,
			Position: n.Position,
			Params:   n.Data,
		})
	}
	for _, e := range flow.Edges {
		enc.Edges = append(enc.Edges, rawEdge{ID: e.ID, Source: e.Source, Target: e.Target})
	}

	data, err := yaml.Marshal(enc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode flow: %w", err)
	}
	return data, nil
}

// WriteFile encodes the flow and writes it to path.
func WriteFile(path string, flow domain.Flow) error {
	data, err := Encode(flow)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write flow file: %w", err)
	}
	return nil
}
