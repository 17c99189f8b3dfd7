// Package readable renders a snapshot graph as a stable, indented,
// human-readable text document suitable for diffing, review, or
// documentation.
//
// The format is write-only: it is not meant to be parsed back into
// objects, and its exact shape is not guaranteed to be stable across
// versions. What is guaranteed:
//
//   - Determinism: serializing the same snapshot with the same expand
//     depth produces byte-identical output.
//   - Total ordering: type tags sort by full name, entities by their
//     natural order (name, then group), attributes lexicographically.
//   - Cycle safety: an entity already on the current recursive path is
//     never expanded again; the referencing attribute is suppressed.
//
// The expand depth controls how deep embedded entities are rendered in
// full. At the default depth of 1, the root entity's direct children
// are expanded and grandchildren print as opaque references.
package readable

import (
	"io"
	"strings"

	"github.com/schemasnap/schemasnap/pkg/errors"
	"github.com/schemasnap/schemasnap/pkg/snapshot"
)

// DefaultExpandDepth expands only the direct children of each top-level
// entity.
const DefaultExpandDepth = 1

// FileExtension is the suggested extension for serialized documents.
const FileExtension = "txt"

// Serializer renders snapshots to readable text. The zero value renders
// with no expansion at all; use New for the default depth.
type Serializer struct {
	// ExpandDepth is the maximum nesting level at which referenced
	// entities are rendered in full rather than as opaque references.
	ExpandDepth int
}

// New creates a serializer with the default expand depth.
func New() *Serializer {
	return &Serializer{ExpandDepth: DefaultExpandDepth}
}

// Serialize renders the complete document for snap.
//
// Serialization is all-or-nothing: on any failure the document is
// discarded and a single error is returned. Sorting contract violations
// surface as UNSUPPORTED_COMPARISON; anything else encountered while
// walking the graph is wrapped as UNEXPECTED_STATE.
func (s *Serializer) Serialize(snap *snapshot.Snapshot) (string, error) {
	var b strings.Builder

	b.WriteString("Database snapshot for " + snap.Source.URL + "\n")
	b.WriteString(divider + "\n")
	b.WriteString("Database type: " + snap.Source.Name + "\n")
	b.WriteString("Database version: " + snap.Source.Version + "\n")
	b.WriteString("Database user: " + snap.Source.User + "\n")

	included, err := sortTypes(snap.IncludedTypes())
	if err != nil {
		return "", err
	}

	names := make([]string, len(included))
	for i, t := range included {
		names[i] = string(t)
	}
	b.WriteString("Included types:\n" + indent(strings.Join(names, "\n")) + "\n")

	groups := snap.Groups()
	sortGroups(groups, snap.TwoLevelGrouping)

	for _, group := range groups {
		if snap.TwoLevelGrouping {
			b.WriteString("\nCatalog & Schema: " + group.Catalog + " / " + group.Schema + "\n")
		} else {
			b.WriteString("\nCatalog: " + group.Catalog + "\n")
		}

		var section strings.Builder
		for _, t := range included {
			if t == snapshot.TypeSchema || t == snapshot.TypeCatalog || t == snapshot.TypeColumn {
				continue
			}
			members := filterByGroup(snap.EntitiesOf(t), group)
			if err := s.writeTypeListing(&section, t, members); err != nil {
				return "", err
			}
		}
		if section.Len() > 0 {
			b.WriteString(indent(section.String()))
		}
	}

	return normalizeNewlines(b.String()), nil
}

// Write serializes snap and writes the raw bytes to w. This is the only
// I/O surface of the package; Serialize itself performs none.
func (s *Serializer) Write(snap *snapshot.Snapshot, w io.Writer) error {
	doc, err := s.Serialize(snap)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(doc)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "writing snapshot document")
	}
	return nil
}

// filterByGroup keeps only entities whose group equals g by value.
// Entities with no group are excluded.
func filterByGroup(entities []*snapshot.Entity, g snapshot.GroupKey) []*snapshot.Entity {
	var out []*snapshot.Entity
	for _, e := range entities {
		if e.Group != nil && *e.Group == g {
			out = append(out, e)
		}
	}
	return out
}

// writeTypeListing emits one type sub-listing: the type header followed by
// each entity's name and indented attribute block. Empty listings are
// skipped entirely.
func (s *Serializer) writeTypeListing(w *strings.Builder, t snapshot.TypeTag, members []*snapshot.Entity) error {
	sorted, err := sortEntities(members)
	if err != nil {
		return err
	}
	if len(sorted) == 0 {
		return nil
	}

	w.WriteString(string(t) + ":\n")

	var listing strings.Builder
	for _, e := range sorted {
		block, err := s.renderEntity(e, nil, e.Name)
		if err != nil {
			return err
		}
		listing.WriteString(e.Name + "\n")
		listing.WriteString(indent(block) + "\n")
	}

	w.WriteString(indent(listing.String()) + "\n")
	return nil
}

// renderEntity renders one entity's attribute block.
//
// visited holds the names of every entity on the current recursive path;
// owner is the name of the entity whose attribute referenced e. The two
// are combined into a fresh set per call, so sibling branches never see
// each other's suppressions. A referenced name already on the path is
// the cycle break: the attribute is dropped rather than expanded.
func (s *Serializer) renderEntity(e *snapshot.Entity, visited map[string]bool, owner string) (string, error) {
	path := make(map[string]bool, len(visited)+1)
	for name := range visited {
		path[name] = true
	}
	path[owner] = true

	expand := len(path) <= s.ExpandDepth

	attrs := e.AttributeNames()
	sortAttributes(attrs)

	var b strings.Builder
	for _, attr := range attrs {
		// Structural attributes, not descriptive ones.
		if attr == "name" || attr == "schema" || attr == "catalog" {
			continue
		}

		rendered, err := s.renderValue(e, attr, path, expand)
		if err != nil {
			return "", err
		}
		if rendered == "" {
			continue
		}
		if strings.HasPrefix(rendered, "\n") {
			b.WriteString(attr + ":" + rendered + "\n")
		} else {
			b.WriteString(attr + ": " + rendered + "\n")
		}
	}

	return strings.TrimSuffix(b.String(), "\n"), nil
}

// renderValue renders a single attribute value. An empty return means the
// attribute line is suppressed.
func (s *Serializer) renderValue(e *snapshot.Entity, attr string, path map[string]bool, expand bool) (string, error) {
	v := e.Attribute(attr)

	switch v.Kind() {
	case snapshot.KindNull:
		return "", nil

	case snapshot.KindRef:
		target := v.Ref()
		if target.Type == snapshot.TypeSchema {
			return "", nil
		}
		if path[target.Name] {
			return "", nil
		}
		if !expand {
			return e.Raw(attr), nil
		}
		block, err := s.renderEntity(target, path, e.Name)
		if err != nil {
			return "", err
		}
		return target.Name + "\n" + indent(block), nil

	case snapshot.KindEntities:
		members := v.Entities()
		if len(members) == 0 {
			return "", nil
		}
		if !expand {
			return e.Raw(attr), nil
		}
		sorted, err := sortEntities(members)
		if err != nil {
			return "", err
		}
		var parts []string
		for _, member := range sorted {
			if path[member.Name] {
				continue
			}
			block, err := s.renderEntity(member, path, e.Name)
			if err != nil {
				return "", err
			}
			parts = append(parts, member.Name+"\n"+indent(block))
		}
		if len(parts) == 0 {
			return "", nil
		}
		return "\n" + indent(strings.Join(parts, "\n")), nil

	case snapshot.KindScalars:
		if len(v.Scalars()) == 0 {
			return "", nil
		}
		return v.Raw(), nil

	case snapshot.KindScalar:
		return v.Raw(), nil
	}

	return "", errors.New(errors.ErrCodeUnexpectedState,
		"unhandled value kind %d for attribute %q of %q", v.Kind(), attr, e.Name)
}
