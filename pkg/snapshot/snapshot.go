// Package snapshot defines the in-memory model of a database snapshot:
// a graph of typed, named entities (tables, columns, indexes, ...) clustered
// under catalog/schema groups.
//
// A Snapshot is built once by a provider (see pkg/source) and treated as
// read-only afterwards. Serializers (pkg/render/readable, pkg/render/dot)
// and the interchange codec (pkg/io) only traverse it.
//
// # Model
//
//   - Snapshot: source descriptor, capability flags, group list, and the
//     entity collections keyed by type tag.
//   - Entity: one named object with a type tag, an optional owning group,
//     and a map of attribute name to Value.
//   - Value: a tagged union of scalar, entity reference, entity collection,
//     scalar collection, or null.
//
// Entities may reference each other freely, including cyclically; consumers
// that recurse through references are responsible for cycle handling.
package snapshot

import (
	"github.com/google/uuid"
)

// TypeTag identifies an entity type by its full name. Tags are ordered
// lexicographically wherever a deterministic type order is needed.
type TypeTag string

// Built-in type tags. Providers may introduce additional tags; the
// serializers treat all tags uniformly except for the grouping tags
// (Catalog, Schema) and the Column leaf tag, which are excluded from
// per-group type listings.
const (
	TypeCatalog    TypeTag = "Catalog"
	TypeSchema     TypeTag = "Schema"
	TypeTable      TypeTag = "Table"
	TypeColumn     TypeTag = "Column"
	TypeIndex      TypeTag = "Index"
	TypeView       TypeTag = "View"
	TypeForeignKey TypeTag = "ForeignKey"
	TypeSequence   TypeTag = "Sequence"
)

// GroupKey identifies the owning namespace of an entity as a catalog/schema
// pair. Keys compare by value; two entities belong together when their keys
// are equal, not when they share a pointer.
type GroupKey struct {
	Catalog string
	Schema  string
}

// Label renders the key for display. With two-level grouping the label is
// "catalog / schema"; otherwise just the catalog name.
func (g GroupKey) Label(twoLevel bool) string {
	if twoLevel {
		return g.Catalog + " / " + g.Schema
	}
	return g.Catalog
}

// String returns a compact form for logging and debugging.
func (g GroupKey) String() string {
	if g.Schema == "" {
		return g.Catalog
	}
	return g.Catalog + "." + g.Schema
}

// Source describes where a snapshot was captured from. All fields are
// opaque passthrough strings used in the document header.
type Source struct {
	URL     string // connection URL or file path
	Name    string // database product name
	Version string // database product version
	User    string // connection user, may be empty
}

// Snapshot is the root of a captured entity graph.
//
// The zero value is not usable - use New. A Snapshot is not safe for
// concurrent mutation; once a provider has finished building it, it is
// immutable by convention and safe for concurrent reads.
type Snapshot struct {
	// ID uniquely identifies this capture. Assigned by New and used as the
	// archive document key.
	ID string

	// Source describes the origin of the snapshot.
	Source Source

	// TwoLevelGrouping reports whether the source distinguishes catalogs
	// from schemas. Controls the group section labels.
	TwoLevelGrouping bool

	groups   []GroupKey
	included []TypeTag
	entities map[TypeTag][]*Entity
}

// New creates an empty snapshot for the given source with a fresh ID.
func New(src Source) *Snapshot {
	return &Snapshot{
		ID:       uuid.NewString(),
		Source:   src,
		entities: make(map[TypeTag][]*Entity),
	}
}

// AddGroup registers an owning group. Duplicate keys are ignored.
func (s *Snapshot) AddGroup(g GroupKey) {
	for _, have := range s.groups {
		if have == g {
			return
		}
	}
	s.groups = append(s.groups, g)
}

// Include marks the given type tags as part of the snapshot, whether or not
// any entities of that type exist. Duplicates are ignored.
func (s *Snapshot) Include(tags ...TypeTag) {
	for _, t := range tags {
		if !s.includes(t) {
			s.included = append(s.included, t)
		}
	}
}

func (s *Snapshot) includes(t TypeTag) bool {
	for _, have := range s.included {
		if have == t {
			return true
		}
	}
	return false
}

// Add appends an entity to its type's collection and includes the type.
func (s *Snapshot) Add(e *Entity) {
	s.Include(e.Type)
	s.entities[e.Type] = append(s.entities[e.Type], e)
}

// Groups returns the registered group keys in insertion order.
func (s *Snapshot) Groups() []GroupKey {
	out := make([]GroupKey, len(s.groups))
	copy(out, s.groups)
	return out
}

// IncludedTypes returns the included type tags in insertion order.
// Callers needing a deterministic order must sort.
func (s *Snapshot) IncludedTypes() []TypeTag {
	out := make([]TypeTag, len(s.included))
	copy(out, s.included)
	return out
}

// EntitiesOf returns the entities captured for the given type tag.
// The returned slice is a copy; the underlying entities are shared.
func (s *Snapshot) EntitiesOf(t TypeTag) []*Entity {
	have := s.entities[t]
	out := make([]*Entity, len(have))
	copy(out, have)
	return out
}
