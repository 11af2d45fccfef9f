// Package flow defines the flow graph extracted from jackal source text.
// It provides the line classifier, the graph builder and the Mermaid serializer.
package flow

import "errors"

// ErrEmptyResult is returned when a buffer contains no recognizable lines.
var ErrEmptyResult = errors.New("no flow detected")

// NodeKind represents the role of a node in the flow graph.
type NodeKind string

const (
	NodeKindBinding   NodeKind = "binding"   // Named variable assignment
	NodeKindOperation NodeKind = "operation" // Chained call on a preceding value
)

// EdgeStyle represents how an edge is drawn.
type EdgeStyle string

const (
	EdgeStyleSequential EdgeStyle = "sequential" // Any edge not between two operations, plain arrow
	EdgeStyleChained    EdgeStyle = "chained"    // Operation to operation, emphasized arrow
)

// Node represents one recognized source line.
type Node struct {
	ID         string   `json:"id"`          // Deterministic from kind, name and line
	Kind       NodeKind `json:"kind"`        // Binding or operation
	Name       string   `json:"name"`        // Bound variable or called operation
	Label      string   `json:"label"`       // Text shown in the diagram
	SourceLine int      `json:"source_line"` // Zero-based line index
}

// Edge connects two consecutive recognized lines.
type Edge struct {
	From  string    `json:"from"`
	To    string    `json:"to"`
	Style EdgeStyle `json:"style"`
}

// Graph is the flow graph for one extraction call.
// Nodes and edges are kept in source order.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Options controls how source lines are recognized.
type Options struct {
	// CommentPrefix marks a line as a comment. Empty means "//".
	CommentPrefix string

	// BindingKeywords may precede a bound name. Nil means {"let"}.
	BindingKeywords []string
}

// DefaultOptions returns the options used by the notebook.
func DefaultOptions() Options {
	return Options{
		CommentPrefix:   DefaultCommentPrefix,
		BindingKeywords: []string{"let"},
	}
}

// DefaultCommentPrefix is the jackal line comment marker.
const DefaultCommentPrefix = "//"
