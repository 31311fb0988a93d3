// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package diagram

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var nonIdentifier = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// mermaidArrows maps edge kinds to classDiagram relation syntax.
var mermaidArrows = map[EdgeKind]string{
	EdgeUsage:          "..>",
	EdgeInheritance:    "--|>",
	EdgeImplementation: "..|>",
}

// WriteMermaid writes g as a Mermaid classDiagram.
//
// Mermaid namespaces do not nest, so every group becomes one namespace
// named after its full path. Notes are drawn as classes carrying their
// stereotype and a single signature line. Generic brackets are written
// with Mermaid's ~T~ notation.
func WriteMermaid(w io.Writer, g *Graph) error {
	if g == nil {
		return ErrNilGraph
	}

	bw := bufio.NewWriter(w)
	ids := make(map[Node]string)
	next := 0
	nodeID := func(n Node) string {
		id := "n" + strconv.Itoa(next)
		next++
		ids[n] = id
		return id
	}

	fmt.Fprintln(bw, "classDiagram")

	var writeLevel func(indent string, g *Graph)
	writeLevel = func(indent string, g *Graph) {
		for _, n := range g.Nodes {
			writeMermaidClass(bw, indent, nodeID(n), n.Name, n.Stereotype, n.Attributes, n.Methods)
		}
		for _, n := range g.Notes {
			writeMermaidClass(bw, indent, nodeID(n), n.Text, n.Stereotype, nil, nil)
		}
	}

	writeLevel("  ", g)
	g.Walk(func(path string, level *Graph) {
		if level == g || (len(level.Nodes) == 0 && len(level.Notes) == 0) {
			return
		}
		fmt.Fprintf(bw, "  namespace %s {\n", namespaceName(path))
		writeLevel("    ", level)
		fmt.Fprintln(bw, "  }")
	})

	for _, e := range g.Edges {
		source, okS := ids[e.Source]
		target, okT := ids[e.Target]
		if !okS || !okT {
			return fmt.Errorf("edge %s references a node outside the graph", e.Kind)
		}
		fmt.Fprintf(bw, "  %s %s %s : %s\n", source, mermaidArrows[e.Kind], target, e.Kind)
	}

	return bw.Flush()
}

func writeMermaidClass(w io.Writer, indent, id, label, stereotype string, attributes, methods []string) {
	fmt.Fprintf(w, "%sclass %s[\"%s\"] {\n", indent, id, mermaidText(label))
	if stereotype != "" {
		fmt.Fprintf(w, "%s  <<%s>>\n", indent, stereotype)
	}
	for _, line := range attributes {
		fmt.Fprintf(w, "%s  %s\n", indent, mermaidText(line))
	}
	for _, line := range methods {
		fmt.Fprintf(w, "%s  %s\n", indent, mermaidText(line))
	}
	fmt.Fprintf(w, "%s}\n", indent)
}

// mermaidText rewrites characters Mermaid treats as syntax.
func mermaidText(s string) string {
	return strings.NewReplacer("<", "~", ">", "~", `"`, "'", "{", "(", "}", ")").Replace(s)
}

func namespaceName(path string) string {
	name := strings.Trim(nonIdentifier.ReplaceAllString(path, "_"), "_")
	if name == "" {
		return "root"
	}
	return name
}
