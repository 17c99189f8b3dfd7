// Package pkg provides the core libraries for Schemasnap schema snapshots.
//
// # Overview
//
// Schemasnap captures the structure of a database or declarative schema
// manifest as a snapshot and renders it as deterministic, human-readable
// text. The pkg directory is organized into these areas:
//
//  1. [snapshot] - Domain model (sources, groups, entities, attribute values)
//  2. [source] - Capture providers (SQLite introspection, TOML/YAML manifests)
//  3. [render] - Output renderers (readable text, Graphviz diagrams)
//  4. [io] - Portable JSON export and import of snapshots
//  5. [cache] - Capture and render caching (file, Redis, null)
//  6. [store] - Snapshot archives (memory, MongoDB)
//
// # Architecture
//
// The typical data flow through Schemasnap:
//
//	Database file / Schema manifest
//	         ↓
//	    [source] package (capture entities and groups)
//	         ↓
//	    [snapshot] package (typed entity model)
//	         ↓
//	    [render/readable] or [render/dot] package
//	         ↓
//	    Text document / DOT / SVG output
//
// # Quick Start
//
// Capture a source and render the readable document:
//
//	import (
//	    "context"
//	    "github.com/schemasnap/schemasnap/pkg/render/readable"
//	    "github.com/schemasnap/schemasnap/pkg/source"
//	)
//
//	provider, _ := source.Detect("schema.toml", source.Default()...)
//	snap, _ := provider.Snapshot(context.Background(), "schema.toml")
//	text, _ := readable.New().Serialize(snap)
//	fmt.Print(text)
//
// # Main Packages
//
// [snapshot] - The entity model: a Snapshot holds a Source, the set of
// included types, groups (catalog or catalog.schema), and typed entities
// whose attributes hold scalars, references, or collections.
//
// [source] - Capture providers. The SQLite provider introspects database
// files via pragma functions; the manifest provider decodes TOML and YAML
// schema descriptions. source.Detect picks the provider from the file name.
//
// [render/readable] - The deterministic text renderer: stable type and
// entity ordering, bounded reference expansion, and cycle suppression.
//
// [render/dot] - Graphviz node-link diagrams of tables, views, and their
// relations, with optional SVG rendering.
//
// [io] - Portable JSON documents. Export flattens entity references to
// (type, name, group) keys; import resolves them back to pointers.
//
// [cache] - Cache interface with file, Redis, and null implementations,
// plus content-addressed key derivation from source metadata.
//
// [store] - Archive storage for captured snapshots behind the HTTP API,
// with in-memory and MongoDB implementations.
//
// [errors] - Coded errors shared across the module, with user-facing
// messages for the CLI and HTTP status mapping for the server.
//
// [observability] - Hook registries for capture, cache, and HTTP request
// instrumentation.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                  # All tests
//	go test ./pkg/render/readable/...  # Specific package
//
// [snapshot]: https://pkg.go.dev/github.com/schemasnap/schemasnap/pkg/snapshot
// [source]: https://pkg.go.dev/github.com/schemasnap/schemasnap/pkg/source
// [render]: https://pkg.go.dev/github.com/schemasnap/schemasnap/pkg/render
// [render/readable]: https://pkg.go.dev/github.com/schemasnap/schemasnap/pkg/render/readable
// [render/dot]: https://pkg.go.dev/github.com/schemasnap/schemasnap/pkg/render/dot
// [io]: https://pkg.go.dev/github.com/schemasnap/schemasnap/pkg/io
// [cache]: https://pkg.go.dev/github.com/schemasnap/schemasnap/pkg/cache
// [store]: https://pkg.go.dev/github.com/schemasnap/schemasnap/pkg/store
// [errors]: https://pkg.go.dev/github.com/schemasnap/schemasnap/pkg/errors
// [observability]: https://pkg.go.dev/github.com/schemasnap/schemasnap/pkg/observability
package pkg
