package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/schemasnap/schemasnap/pkg/snapshot"
)

type document struct {
	ID               string       `json:"id,omitempty"`
	Source           sourceJSON   `json:"source"`
	TwoLevelGrouping bool         `json:"two_level_grouping,omitempty"`
	Groups           []groupJSON  `json:"groups,omitempty"`
	IncludedTypes    []string     `json:"included_types,omitempty"`
	Entities         []entityJSON `json:"entities"`
}

type sourceJSON struct {
	URL     string `json:"url,omitempty"`
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	User    string `json:"user,omitempty"`
}

type groupJSON struct {
	Catalog string `json:"catalog"`
	Schema  string `json:"schema,omitempty"`
}

type entityJSON struct {
	Type       string               `json:"type"`
	Name       string               `json:"name"`
	Group      *groupJSON           `json:"group,omitempty"`
	Attributes map[string]valueJSON `json:"attributes,omitempty"`
}

// valueJSON carries exactly one of its fields; all empty means null.
type valueJSON struct {
	Scalar  *string   `json:"scalar,omitempty"`
	Ref     *refJSON  `json:"ref,omitempty"`
	Refs    []refJSON `json:"refs,omitempty"`
	Scalars []string  `json:"scalars,omitempty"`
}

type refJSON struct {
	Type  string     `json:"type"`
	Name  string     `json:"name"`
	Group *groupJSON `json:"group,omitempty"`
}

// entityKey identifies an entity within a document: type, name, and group.
type entityKey struct {
	t       string
	name    string
	catalog string
	schema  string
}

func keyOf(e *snapshot.Entity) entityKey {
	k := entityKey{t: string(e.Type), name: e.Name}
	if e.Group != nil {
		k.catalog = e.Group.Catalog
		k.schema = e.Group.Schema
	}
	return k
}

func groupOf(e *snapshot.Entity) *groupJSON {
	if e.Group == nil {
		return nil
	}
	return &groupJSON{Catalog: e.Group.Catalog, Schema: e.Group.Schema}
}

func refOf(e *snapshot.Entity) refJSON {
	return refJSON{Type: string(e.Type), Name: e.Name, Group: groupOf(e)}
}

// MarshalSnapshot converts a snapshot to JSON bytes. Entities are sorted by
// (type, name, group) for deterministic output.
func MarshalSnapshot(s *snapshot.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteSnapshot(s, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteSnapshot encodes a snapshot as JSON and writes it to w.
// The output can be re-imported with [ReadSnapshot].
func WriteSnapshot(s *snapshot.Snapshot, w io.Writer) error {
	out := document{
		ID: s.ID,
		Source: sourceJSON{
			URL:     s.Source.URL,
			Name:    s.Source.Name,
			Version: s.Source.Version,
			User:    s.Source.User,
		},
		TwoLevelGrouping: s.TwoLevelGrouping,
	}

	for _, g := range s.Groups() {
		out.Groups = append(out.Groups, groupJSON{Catalog: g.Catalog, Schema: g.Schema})
	}

	for _, t := range s.IncludedTypes() {
		out.IncludedTypes = append(out.IncludedTypes, string(t))
	}

	// Collect the top-level entities plus everything reachable through
	// attribute references, so every ref in the document resolves.
	seen := make(map[entityKey]*snapshot.Entity)
	var order []*snapshot.Entity
	var collect func(e *snapshot.Entity)
	collect = func(e *snapshot.Entity) {
		k := keyOf(e)
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = e
		order = append(order, e)
		for _, attr := range e.AttributeNames() {
			v := e.Attribute(attr)
			switch v.Kind() {
			case snapshot.KindRef:
				collect(v.Ref())
			case snapshot.KindEntities:
				for _, member := range v.Entities() {
					collect(member)
				}
			}
		}
	}
	for _, t := range s.IncludedTypes() {
		for _, e := range s.EntitiesOf(t) {
			collect(e)
		}
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := keyOf(order[i]), keyOf(order[j])
		if a.t != b.t {
			return a.t < b.t
		}
		if a.name != b.name {
			return a.name < b.name
		}
		if a.catalog != b.catalog {
			return a.catalog < b.catalog
		}
		return a.schema < b.schema
	})

	out.Entities = make([]entityJSON, 0, len(order))
	for _, e := range order {
		out.Entities = append(out.Entities, exportEntity(e))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportSnapshot writes a snapshot to a JSON file at path.
func ExportSnapshot(s *snapshot.Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteSnapshot(s, f)
}

func exportEntity(e *snapshot.Entity) entityJSON {
	out := entityJSON{
		Type:  string(e.Type),
		Name:  e.Name,
		Group: groupOf(e),
	}

	names := e.AttributeNames()
	if len(names) == 0 {
		return out
	}

	out.Attributes = make(map[string]valueJSON, len(names))
	for _, attr := range names {
		out.Attributes[attr] = exportValue(e.Attribute(attr))
	}
	return out
}

func exportValue(v snapshot.Value) valueJSON {
	switch v.Kind() {
	case snapshot.KindScalar:
		s := v.Raw()
		return valueJSON{Scalar: &s}
	case snapshot.KindRef:
		r := refOf(v.Ref())
		return valueJSON{Ref: &r}
	case snapshot.KindEntities:
		refs := make([]refJSON, len(v.Entities()))
		for i, member := range v.Entities() {
			refs[i] = refOf(member)
		}
		return valueJSON{Refs: refs}
	case snapshot.KindScalars:
		return valueJSON{Scalars: v.Scalars()}
	}
	return valueJSON{}
}
