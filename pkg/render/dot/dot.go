// Package dot renders snapshots as Graphviz diagrams.
//
// Each group becomes a cluster, entities become boxes, and reference
// attributes become edges. The DOT output is deterministic: groups, types,
// entities, and attributes are emitted in sorted order.
//
//	src := dot.ToDOT(snap, dot.Options{Detailed: true})
//	svg, err := dot.RenderSVG(src)
package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/schemasnap/schemasnap/pkg/snapshot"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed includes entity attributes in node labels. When false, only
	// the entity name is shown.
	Detailed bool
}

// nodeTypes are the entity types drawn as boxes. Columns stay inside their
// table's label; catalogs and schemas become clusters.
var nodeTypes = []snapshot.TypeTag{
	snapshot.TypeTable,
	snapshot.TypeView,
	snapshot.TypeSequence,
	snapshot.TypeIndex,
	snapshot.TypeForeignKey,
}

// ToDOT converts a snapshot to Graphviz DOT format. The resulting string
// can be rendered with [RenderSVG] or external Graphviz tools.
func ToDOT(snap *snapshot.Snapshot, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph schema {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.7;\n")
	buf.WriteString("  nodesep=0.4;\n")

	nodes := collectNodes(snap)

	groups := snap.Groups()
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Label(snap.TwoLevelGrouping) < groups[j].Label(snap.TwoLevelGrouping)
	})

	for i, g := range groups {
		members := membersOf(nodes, &g)
		if len(members) == 0 {
			continue
		}
		buf.WriteString("\n")
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", g.Label(snap.TwoLevelGrouping))
		buf.WriteString("    style=rounded;\n")
		for _, e := range members {
			fmt.Fprintf(&buf, "    %q [label=%q];\n", nodeID(e), fmtLabel(e, opts.Detailed))
		}
		buf.WriteString("  }\n")
	}

	// Ungrouped entities sit outside any cluster.
	loose := membersOf(nodes, nil)
	if len(loose) > 0 {
		buf.WriteString("\n")
		for _, e := range loose {
			fmt.Fprintf(&buf, "  %q [label=%q];\n", nodeID(e), fmtLabel(e, opts.Detailed))
		}
	}

	buf.WriteString("\n")
	for _, line := range edgeLines(nodes) {
		buf.WriteString(line)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func collectNodes(snap *snapshot.Snapshot) []*snapshot.Entity {
	var nodes []*snapshot.Entity
	for _, t := range nodeTypes {
		members := snap.EntitiesOf(t)
		sort.Slice(members, func(i, j int) bool {
			return members[i].Name < members[j].Name
		})
		nodes = append(nodes, members...)
	}
	return nodes
}

func membersOf(nodes []*snapshot.Entity, g *snapshot.GroupKey) []*snapshot.Entity {
	var out []*snapshot.Entity
	for _, e := range nodes {
		switch {
		case g == nil && e.Group == nil:
			out = append(out, e)
		case g != nil && e.Group != nil && *e.Group == *g:
			out = append(out, e)
		}
	}
	return out
}

func nodeID(e *snapshot.Entity) string {
	var group string
	if e.Group != nil {
		group = e.Group.String()
	}
	return fmt.Sprintf("%s/%s/%s", e.Type, group, e.Name)
}

func fmtLabel(e *snapshot.Entity, detailed bool) string {
	if !detailed {
		return e.Name
	}

	var parts []string
	for _, attr := range e.AttributeNames() {
		v := e.Attribute(attr)
		switch v.Kind() {
		case snapshot.KindRef, snapshot.KindEntities, snapshot.KindNull:
			continue
		}
		raw := v.Raw()
		if raw == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", attr, raw))
	}
	if len(parts) == 0 {
		return e.Name
	}
	return e.Name + "\n" + strings.Join(parts, "\n")
}

// edgeLines emits one edge per reference attribute between node entities,
// labeled with the attribute name.
func edgeLines(nodes []*snapshot.Entity) []string {
	drawable := make(map[*snapshot.Entity]bool, len(nodes))
	for _, e := range nodes {
		drawable[e] = true
	}

	var lines []string
	for _, e := range nodes {
		for _, attr := range e.AttributeNames() {
			v := e.Attribute(attr)
			if v.Kind() != snapshot.KindRef {
				continue
			}
			target := v.Ref()
			if target == nil || !drawable[target] {
				continue
			}
			lines = append(lines,
				fmt.Sprintf("  %q -> %q [label=%q, fontsize=10];\n", nodeID(e), nodeID(target), attr))
		}
	}
	return lines
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
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
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the svg element so the diagram scales to its
// container instead of using Graphviz's fixed point size.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
