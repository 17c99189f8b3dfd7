package readable

import (
	"sort"
	"strings"

	"github.com/schemasnap/schemasnap/pkg/errors"
	"github.com/schemasnap/schemasnap/pkg/snapshot"
)

// Comparable is implemented by elements that define their own natural
// ordering, such as snapshot entities (name, then group).
type Comparable interface {
	// Compare orders the receiver relative to other. It returns an error
	// when other is not of a comparable kind.
	Compare(other any) (int, error)
}

// Sort returns a new slice with a total deterministic order imposed on
// items. Each element must either implement Comparable or be a
// snapshot.TypeTag (ordered by its full name). Mixing incomparable kinds
// is a contract violation and fails fast with UNSUPPORTED_COMPARISON;
// the input is never modified.
func Sort(items []any) ([]any, error) {
	out := make([]any, len(items))
	copy(out, items)

	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		c, err := compareElements(out[i], out[j])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return c < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return out, nil
}

func compareElements(a, b any) (int, error) {
	switch av := a.(type) {
	case Comparable:
		return av.Compare(b)
	case snapshot.TypeTag:
		bv, ok := b.(snapshot.TypeTag)
		if !ok {
			return 0, errors.New(errors.ErrCodeUnsupportedComparison,
				"cannot compare type tag with %T", b)
		}
		return strings.Compare(string(av), string(bv)), nil
	}
	return 0, errors.New(errors.ErrCodeUnsupportedComparison,
		"%T is neither comparable nor a type tag", a)
}

func sortTypes(tags []snapshot.TypeTag) ([]snapshot.TypeTag, error) {
	items := make([]any, len(tags))
	for i, t := range tags {
		items[i] = t
	}
	sorted, err := Sort(items)
	if err != nil {
		return nil, err
	}
	out := make([]snapshot.TypeTag, len(sorted))
	for i, v := range sorted {
		out[i] = v.(snapshot.TypeTag)
	}
	return out, nil
}

func sortEntities(entities []*snapshot.Entity) ([]*snapshot.Entity, error) {
	items := make([]any, len(entities))
	for i, e := range entities {
		items[i] = e
	}
	sorted, err := Sort(items)
	if err != nil {
		return nil, err
	}
	out := make([]*snapshot.Entity, len(sorted))
	for i, v := range sorted {
		out[i] = v.(*snapshot.Entity)
	}
	return out, nil
}

// sortAttributes orders attribute names in place, plain lexicographic
// ascending.
func sortAttributes(names []string) {
	sort.Strings(names)
}

// sortGroups orders group keys in place by their rendered label.
func sortGroups(groups []snapshot.GroupKey, twoLevel bool) {
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Label(twoLevel) < groups[j].Label(twoLevel)
	})
}
