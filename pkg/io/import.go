package io

import (
	"encoding/json"
	"io"
	"os"

	"github.com/schemasnap/schemasnap/pkg/errors"
	"github.com/schemasnap/schemasnap/pkg/snapshot"
)

// ReadSnapshot decodes a JSON snapshot document from r.
//
// ReadSnapshot returns an INVALID_SNAPSHOT error if:
//   - The JSON is malformed
//   - An entity is missing its type or name
//   - Two entities share the same (type, name, group) identity
//   - An attribute reference does not resolve to an entity in the document
//   - An attribute value carries more than one union case
//
// The returned snapshot is independent of r; ReadSnapshot does not close r.
func ReadSnapshot(r io.Reader) (*snapshot.Snapshot, error) {
	var data document
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "decoding snapshot document")
	}

	snap := snapshot.New(snapshot.Source{
		URL:     data.Source.URL,
		Name:    data.Source.Name,
		Version: data.Source.Version,
		User:    data.Source.User,
	})
	if data.ID != "" {
		snap.ID = data.ID
	}
	snap.TwoLevelGrouping = data.TwoLevelGrouping

	for _, g := range data.Groups {
		snap.AddGroup(snapshot.GroupKey{Catalog: g.Catalog, Schema: g.Schema})
	}

	// Documents distinguish included types from merely referenced entities
	// (a Column may appear only as a ref target). Without an explicit list,
	// every entity type counts as included.
	included := make(map[snapshot.TypeTag]bool, len(data.IncludedTypes))
	for _, t := range data.IncludedTypes {
		tag := snapshot.TypeTag(t)
		included[tag] = true
		snap.Include(tag)
	}

	// First pass: materialize every entity so references can resolve
	// regardless of declaration order.
	byKey := make(map[entityKey]*snapshot.Entity, len(data.Entities))
	for _, ej := range data.Entities {
		if ej.Type == "" || ej.Name == "" {
			return nil, errors.New(errors.ErrCodeInvalidSnapshot,
				"entity missing type or name: %q/%q", ej.Type, ej.Name)
		}
		if err := errors.ValidateEntityName(ej.Name); err != nil {
			return nil, err
		}

		var group *snapshot.GroupKey
		if ej.Group != nil {
			group = &snapshot.GroupKey{Catalog: ej.Group.Catalog, Schema: ej.Group.Schema}
			snap.AddGroup(*group)
		}

		e := snapshot.NewEntity(snapshot.TypeTag(ej.Type), ej.Name, group)
		k := keyOf(e)
		if _, dup := byKey[k]; dup {
			return nil, errors.New(errors.ErrCodeInvalidSnapshot,
				"duplicate entity %s %q", ej.Type, ej.Name)
		}
		byKey[k] = e
		if len(included) == 0 || included[e.Type] {
			snap.Add(e)
		}
	}

	// Second pass: attach attributes, resolving references by identity.
	for _, ej := range data.Entities {
		e := byKey[jsonKey(ej)]
		for attr, vj := range ej.Attributes {
			v, err := importValue(vj, byKey, ej.Name, attr)
			if err != nil {
				return nil, err
			}
			e.SetAttr(attr, v)
		}
	}

	return snap, nil
}

// ImportSnapshot reads a JSON file at path and returns the decoded snapshot.
func ImportSnapshot(path string) (*snapshot.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()
	return ReadSnapshot(f)
}

func jsonKey(ej entityJSON) entityKey {
	k := entityKey{t: ej.Type, name: ej.Name}
	if ej.Group != nil {
		k.catalog = ej.Group.Catalog
		k.schema = ej.Group.Schema
	}
	return k
}

func refKey(r refJSON) entityKey {
	k := entityKey{t: r.Type, name: r.Name}
	if r.Group != nil {
		k.catalog = r.Group.Catalog
		k.schema = r.Group.Schema
	}
	return k
}

func importValue(vj valueJSON, byKey map[entityKey]*snapshot.Entity, owner, attr string) (snapshot.Value, error) {
	cases := 0
	if vj.Scalar != nil {
		cases++
	}
	if vj.Ref != nil {
		cases++
	}
	if vj.Refs != nil {
		cases++
	}
	if vj.Scalars != nil {
		cases++
	}
	if cases > 1 {
		return snapshot.Value{}, errors.New(errors.ErrCodeInvalidSnapshot,
			"attribute %q of %q carries multiple value cases", attr, owner)
	}

	switch {
	case vj.Scalar != nil:
		return snapshot.ScalarValue(*vj.Scalar), nil

	case vj.Ref != nil:
		target, ok := byKey[refKey(*vj.Ref)]
		if !ok {
			return snapshot.Value{}, errors.New(errors.ErrCodeInvalidSnapshot,
				"attribute %q of %q references unknown entity %s %q",
				attr, owner, vj.Ref.Type, vj.Ref.Name)
		}
		return snapshot.RefValue(target), nil

	case vj.Refs != nil:
		members := make([]*snapshot.Entity, len(vj.Refs))
		for i, r := range vj.Refs {
			target, ok := byKey[refKey(r)]
			if !ok {
				return snapshot.Value{}, errors.New(errors.ErrCodeInvalidSnapshot,
					"attribute %q of %q references unknown entity %s %q",
					attr, owner, r.Type, r.Name)
			}
			members[i] = target
		}
		return snapshot.EntitiesValue(members...), nil

	case vj.Scalars != nil:
		return snapshot.ScalarsValue(vj.Scalars...), nil
	}

	return snapshot.NullValue(), nil
}
