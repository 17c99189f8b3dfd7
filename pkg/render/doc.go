// Package render contains the snapshot renderers.
//
// # Overview
//
// Renderers turn a captured snapshot into an output document:
//
//   - Readable text documents (in [readable] subpackage)
//   - Node-link diagrams (in [dot] subpackage)
//
// # Readable Text
//
// The [readable] subpackage produces the canonical text document: a header
// describing the source, the list of included types, and one section per
// group with entities rendered in deterministic order. Nested references
// expand inline up to a configurable depth, with cycle suppression keyed
// by entity name.
//
//	ser := readable.New()
//	text, err := ser.Serialize(snap)
//
// # Node-Link Diagrams
//
// The [dot] subpackage renders tables, views, and their relations as a
// Graphviz digraph, grouped into clusters per schema. The DOT source can
// be rendered to SVG via the graphviz library.
//
//	src := dot.ToDOT(snap, dot.Options{})
//	svg, err := dot.RenderSVG(src)
//
// [readable]: github.com/schemasnap/schemasnap/pkg/render/readable
// [dot]: github.com/schemasnap/schemasnap/pkg/render/dot
package render
