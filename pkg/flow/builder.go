package flow

import (
	"fmt"
	"strings"
)

// Build folds classified lines into a flow graph.
//
// Every binding or operation becomes one node, linked to the node produced
// by the previous recognized line. An edge between two operations is a call
// continuation and is chained; every other edge is sequential. Names are not
// resolved: the graph follows textual order, not variable dependencies.
// Returns ErrEmptyResult when no node was produced.
func Build(classes []Classification) (*Graph, error) {
	g := &Graph{}
	var last Node
	for _, c := range classes {
		last = step(g, last, c)
	}

	if len(g.Nodes) == 0 {
		return nil, ErrEmptyResult
	}
	return g, nil
}

// step applies one classification to g and returns the new last node.
// A zero last means no node has been produced yet.
func step(g *Graph, last Node, c Classification) Node {
	var node Node

	switch c.Kind {
	case ClassBinding:
		node = Node{
			ID:         nodeID("v", c.Name, c.Line),
			Kind:       NodeKindBinding,
			Name:       c.Name,
			Label:      "let " + c.Name,
			SourceLine: c.Line,
		}
	case ClassOperation:
		node = Node{
			ID:         nodeID("op", c.Name, c.Line),
			Kind:       NodeKindOperation,
			Name:       c.Name,
			Label:      c.Name + "()",
			SourceLine: c.Line,
		}
	default:
		return last
	}

	g.Nodes = append(g.Nodes, node)
	if last.ID != "" {
		style := EdgeStyleSequential
		if last.Kind == NodeKindOperation && node.Kind == NodeKindOperation {
			style = EdgeStyleChained
		}
		g.Edges = append(g.Edges, Edge{From: last.ID, To: node.ID, Style: style})
	}
	return node
}

func nodeID(role, name string, line int) string {
	return fmt.Sprintf("%s_%s_%d", role, name, line)
}

// Extractor turns a whole buffer into a flow graph.
type Extractor struct {
	classifier *Classifier
}

// NewExtractor creates an extractor for the given options.
func NewExtractor(opts Options) *Extractor {
	return &Extractor{classifier: NewClassifier(opts)}
}

// Classify classifies every line of buffer in order.
func (e *Extractor) Classify(buffer string) []Classification {
	lines := strings.Split(buffer, "\n")
	classes := make([]Classification, 0, len(lines))
	for i, line := range lines {
		classes = append(classes, e.classifier.Classify(line, i))
	}
	return classes
}

// Extract classifies buffer and builds its flow graph.
func (e *Extractor) Extract(buffer string) (*Graph, error) {
	return Build(e.Classify(buffer))
}

// Extract builds the flow graph of buffer with the default options.
func Extract(buffer string) (*Graph, error) {
	return defaultExtractor.Extract(buffer)
}

var defaultExtractor = &Extractor{classifier: defaultClassifier}
