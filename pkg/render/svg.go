package render

import (
	"strings"

	"golang.org/x/net/html"
)

// mermaidNodePrefix is prepended by Mermaid to flowchart node element ids.
const mermaidNodePrefix = "flowchart-"

// ExtractNodes lists the flowchart nodes drawn in a Mermaid SVG, in document order.
// Elements are <g> tags whose class list contains "node".
func ExtractNodes(svg string) []RenderedNode {
	var nodes []RenderedNode

	z := html.NewTokenizer(strings.NewReader(svg))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or a malformed document; keep what was found.
			return nodes
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "g" {
				continue
			}
			id, class := "", ""
			for _, a := range tok.Attr {
				switch a.Key {
				case "id":
					id = a.Val
				case "class":
					class = a.Val
				}
			}
			if id == "" || !hasClass(class, "node") {
				continue
			}
			nodes = append(nodes, RenderedNode{ElementID: id, NodeID: nodeIDFromElement(id)})
		}
	}
}

func hasClass(list, class string) bool {
	for _, c := range strings.Fields(list) {
		if c == class {
			return true
		}
	}
	return false
}

// nodeIDFromElement maps "flowchart-v_a_0-12" to "v_a_0".
func nodeIDFromElement(id string) string {
	id = strings.TrimPrefix(id, mermaidNodePrefix)
	if i := strings.LastIndexByte(id, '-'); i > 0 && isDigits(id[i+1:]) {
		return id[:i]
	}
	return id
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
