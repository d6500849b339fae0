package chain

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
)

// ToDOT converts a chain to Graphviz DOT format. Unmapped nodes are
// rendered dashed and grey; cyclic terminals are outlined red. The
// resulting DOT string can be rendered with [RenderSVG].
func ToDOT(res *Result) string {
	var buf bytes.Buffer
	buf.WriteString("digraph chain {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	ids := map[*Node]string{}
	var walk func(n *Node)
	var edges []string
	walk = func(n *Node) {
		id := fmt.Sprintf("n%d", len(ids))
		ids[n] = id
		fmt.Fprintf(&buf, "  %s [%s];\n", id, strings.Join(nodeAttrs(n), ", "))
		for _, c := range n.Children {
			walk(c)
			edges = append(edges, fmt.Sprintf("  %s -> %s;", id, ids[c]))
		}
	}
	walk(res.Root)

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e + "\n")
	}
	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n *Node) []string {
	attrs := []string{fmt.Sprintf("label=%q", nodeLabel(n))}
	switch {
	case n.Unmapped:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	case n.Cyclic:
		attrs = append(attrs, "color=red")
	case n.DepthCapped:
		attrs = append(attrs, "style=\"rounded,filled,dotted\"")
	}
	return attrs
}

func nodeLabel(n *Node) string {
	var parts []string
	if !n.Repo.IsZero() {
		parts = append(parts, n.Repo.String())
	}
	if n.Coordinate.Key() != ":" {
		parts = append(parts, n.Coordinate.String())
	}
	switch {
	case n.Unmapped:
		parts = append(parts, "(unmapped)")
	case n.Cyclic:
		parts = append(parts, "(cycle)")
	case n.DepthCapped:
		parts = append(parts, "(depth cap)")
	}
	return strings.Join(parts, "\n")
}

// RenderSVG renders a chain's DOT form to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
