// Package source captures snapshots from concrete sources.
//
// A Provider turns a path (a database file, a manifest) into a
// [snapshot.Snapshot]. Two providers ship with schemasnap:
//
//   - SQLite: introspects a SQLite database file through the sqlite_master
//     catalog and table PRAGMAs.
//   - Manifest: reads a declarative TOML or YAML description of a schema,
//     for offline snapshots and fixtures.
//
// Use [Detect] to pick the provider for a path, mirroring how manifest
// parsers are selected elsewhere:
//
//	p, err := source.Detect(path, source.Default()...)
//	if err != nil { ... }
//	snap, err := p.Snapshot(ctx, path)
//
// [snapshot.Snapshot]: github.com/schemasnap/schemasnap/pkg/snapshot.Snapshot
package source

import (
	"context"
	"path/filepath"

	"github.com/schemasnap/schemasnap/pkg/errors"
	"github.com/schemasnap/schemasnap/pkg/snapshot"
)

// Provider captures a snapshot from one kind of source.
type Provider interface {
	// Snapshot captures the source at path. The returned snapshot is fully
	// materialized; no connection or file handle outlives the call.
	Snapshot(ctx context.Context, path string) (*snapshot.Snapshot, error)
	// Supports reports whether this provider handles the given filename.
	Supports(filename string) bool
	// Type returns the provider identifier (e.g. "sqlite", "manifest").
	Type() string
}

// Default returns the built-in providers in detection order.
func Default() []Provider {
	return []Provider{&SQLite{}, &Manifest{}}
}

// Detect finds a provider that supports the given file path.
// Returns an UNSUPPORTED error if no provider matches.
func Detect(path string, providers ...Provider) (Provider, error) {
	if err := errors.ValidateSourcePath(path); err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	for _, p := range providers {
		if p.Supports(name) {
			return p, nil
		}
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "no provider for %s", name)
}
