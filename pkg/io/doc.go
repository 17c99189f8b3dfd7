// Package io provides JSON import and export for snapshot graphs.
//
// # Overview
//
// This package enables serialization of a [snapshot.Snapshot] to and from a
// JSON interchange format. The format is designed for:
//
//   - Submitting snapshots to the HTTP API without a live database
//   - Archiving captured snapshots (see pkg/store)
//   - Moving snapshots between machines or check-ins
//
// The readable text document (pkg/render/readable) is write-only; this JSON
// format is the round-trippable representation of the same graph.
//
// # JSON Format
//
//	{
//	  "source": {"url": "sqlite://app.db", "name": "SQLite", "version": "3.45.0"},
//	  "two_level_grouping": false,
//	  "groups": [{"catalog": "main"}],
//	  "entities": [
//	    {
//	      "type": "Table",
//	      "name": "users",
//	      "group": {"catalog": "main"},
//	      "attributes": {
//	        "remarks": {"scalar": "account table"},
//	        "columns": {"refs": [{"type": "Column", "name": "id", "group": {"catalog": "main"}}]}
//	      }
//	    }
//	  ]
//	}
//
// Attribute values carry exactly one of "scalar", "ref", "refs", or
// "scalars"; an empty object is the null value. References identify their
// target by (type, name, group) and must resolve to an entity in the
// "entities" array. Export walks attribute references and includes every
// reachable entity, so a well-formed export always re-imports.
//
// # Determinism
//
// Entities are sorted by (type, name, group) and attribute maps marshal
// with sorted keys, so exporting the same snapshot twice produces identical
// bytes.
//
// [snapshot.Snapshot]: github.com/schemasnap/schemasnap/pkg/snapshot.Snapshot
package io
