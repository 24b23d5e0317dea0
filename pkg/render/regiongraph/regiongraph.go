// Package regiongraph draws the region structure of a frame as a graph:
// one node per region labeled with its condition and size, and an edge
// from each bar to every crossing carved out of it. It is a debugging aid
// for layouts that fail validation or look wrong.
package regiongraph

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/prfstim/prfstim/pkg/layout"
	"github.com/prfstim/prfstim/pkg/stim"
)

// ToDOT converts the regions of f to Graphviz DOT.
func ToDOT(f *stim.Frame) string {
	var buf bytes.Buffer
	buf.WriteString("digraph regions {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n\n")

	barOf := make(map[string]string)
	bar := 0
	for _, r := range f.Regions {
		var label, fill string
		switch {
		case r.Key == layout.KeyBackground:
			label = fmt.Sprintf("%s\n%d points", r.Key, r.Count())
			fill = "lightgrey"
		case len(r.Conditions) == 2:
			label = fmt.Sprintf("%s\n%s × %s\n%d points", r.Key, r.Conditions[0], r.Conditions[1], r.Count())
			fill = "lightyellow"
		default:
			cond := ""
			if bar < len(f.Conditions) {
				cond = f.Conditions[bar]
				barOf[cond] = r.Key
			}
			dir := ""
			if bar < len(f.Bars) {
				dir = " " + f.Bars[bar].Direction.String()
			}
			label = fmt.Sprintf("%s%s\n%s\n%d points", r.Key, dir, cond, r.Count())
			fill = "white"
			bar++
		}
		fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=%s];\n", r.Key, label, fill)
	}

	buf.WriteString("\n")
	for _, r := range f.Regions {
		if len(r.Conditions) != 2 {
			continue
		}
		for _, c := range r.Conditions {
			if parent, ok := barOf[c]; ok {
				fmt.Fprintf(&buf, "  %q -> %q;\n", parent, r.Key)
			}
		}
	}
	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG lays out a DOT graph with Graphviz and returns SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
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

// Edges returns the bar→crossing pairs of a DOT graph built by [ToDOT],
// in order. It exists for callers that only need the structure.
func Edges(dot string) [][2]string {
	var out [][2]string
	for _, line := range strings.Split(dot, "\n") {
		from, to, ok := strings.Cut(strings.TrimSpace(line), " -> ")
		if !ok {
			continue
		}
		out = append(out, [2]string{unquote(from), unquote(strings.TrimSuffix(to, ";"))})
	}
	return out
}

func unquote(s string) string { return strings.Trim(s, `"`) }
