package graph

import (
	"fmt"
	"os"

	apperrors "github.com/Adithya-Monish-Kumar-K/authority-search/pkg/errors"
	"gopkg.in/yaml.v3"
)

// graphFile is the on-disk layout accepted by LoadFile. JSON documents parse
// as well since JSON is valid YAML.
type graphFile struct {
	Nodes []Node `yaml:"nodes"`
	Edges []Edge `yaml:"edges"`
}

// LoadFile reads a graph description holding either a node list with
// indegrees or an edge list from which indegrees are computed.
func LoadFile(path string) ([]Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading graph file %s: %w", path, err)
	}
	var gf graphFile
	if err := yaml.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("parsing graph file %s: %v: %w", path, err, apperrors.ErrGraphLoad)
	}
	switch {
	case len(gf.Nodes) > 0 && len(gf.Edges) > 0:
		return nil, fmt.Errorf("graph file %s: nodes and edges are mutually exclusive: %w", path, apperrors.ErrGraphLoad)
	case len(gf.Nodes) > 0:
		return gf.Nodes, nil
	case len(gf.Edges) > 0:
		return IndegreeFromEdges(gf.Edges), nil
	default:
		return nil, fmt.Errorf("graph file %s: no nodes or edges: %w", path, apperrors.ErrGraphLoad)
	}
}
