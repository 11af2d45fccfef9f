package flow

import (
	"fmt"
	"io"
	"strings"
)

// Graph directions understood by the renderer.
const (
	DirectionTopDown   = "TD"
	DirectionLeftRight = "LR"
)

// Arrow glyphs per edge style.
const (
	arrowSequential = "-->"
	arrowChained    = "==>"
)

// NormalizeDirection returns dir if it is a known direction, TD otherwise.
func NormalizeDirection(dir string) string {
	switch strings.ToUpper(strings.TrimSpace(dir)) {
	case DirectionLeftRight:
		return DirectionLeftRight
	case DirectionTopDown, "TB":
		return DirectionTopDown
	default:
		return DirectionTopDown
	}
}

// Mermaid serializes g in Mermaid flowchart syntax: a direction header,
// one line per node and one line per edge.
func Mermaid(g *Graph, direction string) string {
	var sb strings.Builder
	WriteMermaid(&sb, g, direction)
	return sb.String()
}

// WriteMermaid writes the Mermaid description of g to w.
func WriteMermaid(w io.Writer, g *Graph, direction string) {
	fmt.Fprintf(w, "graph %s\n", NormalizeDirection(direction))
	if g == nil {
		return
	}

	for _, n := range g.Nodes {
		label := strings.ReplaceAll(n.Label, "\"", "'")
		switch n.Kind {
		case NodeKindOperation:
			fmt.Fprintf(w, "%s{{\"%s\"}}\n", n.ID, label)
		default:
			fmt.Fprintf(w, "%s[\"%s\"]\n", n.ID, label)
		}
	}

	for _, e := range g.Edges {
		arrow := arrowSequential
		if e.Style == EdgeStyleChained {
			arrow = arrowChained
		}
		fmt.Fprintf(w, "%s %s %s\n", e.From, arrow, e.To)
	}
}
