package snapshot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/schemasnap/schemasnap/pkg/errors"
)

// Kind discriminates the cases of a Value.
type Kind int

const (
	// KindNull is an absent value. Null attributes render as nothing.
	KindNull Kind = iota
	// KindScalar is a plain value carried as its string representation.
	KindScalar
	// KindRef is a reference to a single entity.
	KindRef
	// KindEntities is a collection of entities. Order is not significant;
	// consumers sort before rendering.
	KindEntities
	// KindScalars is a collection of plain values.
	KindScalars
)

// Value is the tagged union of attribute values. The zero value is Null.
// Values are immutable once constructed.
type Value struct {
	kind     Kind
	scalar   string
	ref      *Entity
	entities []*Entity
	scalars  []string
}

// NullValue returns the absent value.
func NullValue() Value { return Value{} }

// ScalarValue wraps v's default string representation as a scalar.
func ScalarValue(v any) Value {
	return Value{kind: KindScalar, scalar: fmt.Sprint(v)}
}

// RefValue wraps a reference to e. A nil entity yields Null.
func RefValue(e *Entity) Value {
	if e == nil {
		return Value{}
	}
	return Value{kind: KindRef, ref: e}
}

// EntitiesValue wraps a collection of entities.
func EntitiesValue(es ...*Entity) Value {
	return Value{kind: KindEntities, entities: es}
}

// ScalarsValue wraps a collection of plain values.
func ScalarsValue(vs ...string) Value {
	return Value{kind: KindScalars, scalars: vs}
}

// Kind returns the case of the union.
func (v Value) Kind() Kind { return v.kind }

// Ref returns the referenced entity for KindRef values, nil otherwise.
func (v Value) Ref() *Entity { return v.ref }

// Entities returns the entity collection for KindEntities values.
func (v Value) Entities() []*Entity { return v.entities }

// Scalars returns the scalar collection for KindScalars values.
func (v Value) Scalars() []string { return v.scalars }

// Raw returns the opaque fallback representation used when a value is not
// expanded: the scalar itself, the referenced entity's name, or a bracketed
// join of collection member names. Null yields the empty string.
func (v Value) Raw() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindScalar:
		return v.scalar
	case KindRef:
		return v.ref.Name
	case KindEntities:
		names := make([]string, len(v.entities))
		for i, e := range v.entities {
			names[i] = e.Name
		}
		return "[" + strings.Join(names, ", ") + "]"
	case KindScalars:
		return "[" + strings.Join(v.scalars, ", ") + "]"
	}
	return ""
}

// Entity is one structured object in the snapshot graph.
//
// Name is the identity used for cycle suppression during recursive
// rendering; it does not have to be globally unique, only meaningful
// within a traversal path.
type Entity struct {
	Name  string
	Type  TypeTag
	Group *GroupKey // nil for ungrouped entities

	attrs map[string]Value
}

// NewEntity creates an entity with no attributes.
func NewEntity(t TypeTag, name string, group *GroupKey) *Entity {
	return &Entity{
		Name:  name,
		Type:  t,
		Group: group,
		attrs: make(map[string]Value),
	}
}

// SetAttr sets (or replaces) an attribute.
func (e *Entity) SetAttr(name string, v Value) {
	e.attrs[name] = v
}

// AttributeNames returns the attribute names in sorted order.
func (e *Entity) AttributeNames() []string {
	out := make([]string, 0, len(e.attrs))
	for name := range e.attrs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Attribute returns the value for name, Null if the attribute is unset.
func (e *Entity) Attribute(name string) Value {
	return e.attrs[name]
}

// Raw returns the fallback representation of the named attribute.
func (e *Entity) Raw(name string) string {
	return e.attrs[name].Raw()
}

// Compare orders entities by name, then by group catalog and schema.
// Entities with no group sort before grouped ones of the same name.
// Returns UNSUPPORTED_COMPARISON when other is not an *Entity.
func (e *Entity) Compare(other any) (int, error) {
	o, ok := other.(*Entity)
	if !ok {
		return 0, errors.New(errors.ErrCodeUnsupportedComparison,
			"cannot compare entity with %T", other)
	}
	if c := strings.Compare(e.Name, o.Name); c != 0 {
		return c, nil
	}
	return strings.Compare(groupSortKey(e.Group), groupSortKey(o.Group)), nil
}

func groupSortKey(g *GroupKey) string {
	if g == nil {
		return ""
	}
	return g.Catalog + "\x00" + g.Schema
}
