package readable

import (
	"bytes"
	"strings"
	"testing"

	"github.com/schemasnap/schemasnap/pkg/errors"
	"github.com/schemasnap/schemasnap/pkg/snapshot"
)

// usersSnapshot builds the canonical fixture: one catalog "public", one
// Table "users" with two columns and a self-referencing owner attribute.
func usersSnapshot() *snapshot.Snapshot {
	group := snapshot.GroupKey{Catalog: "public"}

	snap := snapshot.New(snapshot.Source{
		URL:     "sqlite://app.db",
		Name:    "SQLite",
		Version: "3.45.0",
		User:    "app",
	})
	snap.AddGroup(group)

	colA := snapshot.NewEntity(snapshot.TypeColumn, "colA", &group)
	colA.SetAttr("type", snapshot.ScalarValue("integer"))

	colB := snapshot.NewEntity(snapshot.TypeColumn, "colB", &group)
	colB.SetAttr("type", snapshot.ScalarValue("text"))

	users := snapshot.NewEntity(snapshot.TypeTable, "users", &group)
	users.SetAttr("columns", snapshot.EntitiesValue(colA, colB))
	users.SetAttr("owner", snapshot.RefValue(users))
	snap.Add(users)

	return snap
}

func TestSerializeUsersExample(t *testing.T) {
	doc, err := New().Serialize(usersSnapshot())
	if err != nil {
		t.Fatalf("Serialize error: %v", err)
	}

	want := "Database snapshot for sqlite://app.db\n" +
		"-----------------------------------------------------------------\n" +
		"Database type: SQLite\n" +
		"Database version: 3.45.0\n" +
		"Database user: app\n" +
		"Included types:\n" +
		"    Table\n" +
		"\n" +
		"Catalog: public\n" +
		"    Table:\n" +
		"        users\n" +
		"            columns:\n" +
		"                colA\n" +
		"                    type: integer\n" +
		"                colB\n" +
		"                    type: text\n" +
		"\n"

	if doc != want {
		t.Errorf("document mismatch\ngot:\n%s\nwant:\n%s", doc, want)
	}

	// The self-referencing owner attribute must be absent entirely.
	if strings.Contains(doc, "owner") {
		t.Error("cyclic owner reference should be suppressed, not rendered")
	}
}

func TestSerializeDeterministic(t *testing.T) {
	snap := usersSnapshot()
	s := New()

	first, err := s.Serialize(snap)
	if err != nil {
		t.Fatalf("Serialize error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := s.Serialize(snap)
		if err != nil {
			t.Fatalf("Serialize error on repeat %d: %v", i, err)
		}
		if again != first {
			t.Fatalf("repeat %d differs from first serialization", i)
		}
	}
}

func TestSerializeTwoLevelGrouping(t *testing.T) {
	group := snapshot.GroupKey{Catalog: "main", Schema: "sales"}
	snap := snapshot.New(snapshot.Source{URL: "db://x"})
	snap.TwoLevelGrouping = true
	snap.AddGroup(group)

	orders := snapshot.NewEntity(snapshot.TypeTable, "orders", &group)
	orders.SetAttr("remarks", snapshot.ScalarValue("order book"))
	snap.Add(orders)

	doc, err := New().Serialize(snap)
	if err != nil {
		t.Fatalf("Serialize error: %v", err)
	}
	if !strings.Contains(doc, "Catalog & Schema: main / sales\n") {
		t.Errorf("missing two-level group header:\n%s", doc)
	}
}

func TestSerializeGroupFiltering(t *testing.T) {
	sales := snapshot.GroupKey{Catalog: "sales"}
	hr := snapshot.GroupKey{Catalog: "hr"}

	snap := snapshot.New(snapshot.Source{URL: "db://x"})
	snap.AddGroup(sales)
	snap.AddGroup(hr)

	snap.Add(snapshot.NewEntity(snapshot.TypeTable, "orders", &sales))
	snap.Add(snapshot.NewEntity(snapshot.TypeTable, "people", &hr))
	snap.Add(snapshot.NewEntity(snapshot.TypeTable, "orphan", nil))

	doc, err := New().Serialize(snap)
	if err != nil {
		t.Fatalf("Serialize error: %v", err)
	}

	// Groups sort by rendered label: hr before sales.
	hrIdx := strings.Index(doc, "Catalog: hr")
	salesIdx := strings.Index(doc, "Catalog: sales")
	if hrIdx < 0 || salesIdx < 0 || hrIdx > salesIdx {
		t.Errorf("group sections missing or out of order:\n%s", doc)
	}

	// Ungrouped entities never render under any group.
	if strings.Contains(doc, "orphan") {
		t.Errorf("ungrouped entity rendered:\n%s", doc)
	}

	// Each section lists only its own entities.
	hrSection := doc[hrIdx:salesIdx]
	if strings.Contains(hrSection, "orders") {
		t.Errorf("hr section contains sales entity:\n%s", hrSection)
	}
}

func TestSerializeTypeOrdering(t *testing.T) {
	group := snapshot.GroupKey{Catalog: "public"}
	snap := snapshot.New(snapshot.Source{URL: "db://x"})
	snap.AddGroup(group)

	snap.Add(snapshot.NewEntity(snapshot.TypeView, "v_orders", &group))
	snap.Add(snapshot.NewEntity(snapshot.TypeTable, "orders", &group))
	snap.Add(snapshot.NewEntity(snapshot.TypeIndex, "idx_orders", &group))

	doc, err := New().Serialize(snap)
	if err != nil {
		t.Fatalf("Serialize error: %v", err)
	}

	// Included types and per-group listings follow lexicographic tag order:
	// Index < Table < View.
	iIdx := strings.Index(doc, "Index:")
	tIdx := strings.Index(doc, "Table:")
	vIdx := strings.Index(doc, "View:")
	if !(iIdx >= 0 && tIdx > iIdx && vIdx > tIdx) {
		t.Errorf("type listings out of order (i=%d t=%d v=%d):\n%s", iIdx, tIdx, vIdx, doc)
	}
}

func TestSerializeEntityAndAttributeOrdering(t *testing.T) {
	group := snapshot.GroupKey{Catalog: "public"}
	snap := snapshot.New(snapshot.Source{URL: "db://x"})
	snap.AddGroup(group)

	zebra := snapshot.NewEntity(snapshot.TypeTable, "zebra", &group)
	zebra.SetAttr("zeta", snapshot.ScalarValue("last"))
	zebra.SetAttr("alpha", snapshot.ScalarValue("first"))
	snap.Add(zebra)
	snap.Add(snapshot.NewEntity(snapshot.TypeTable, "apple", &group))

	doc, err := New().Serialize(snap)
	if err != nil {
		t.Fatalf("Serialize error: %v", err)
	}

	if strings.Index(doc, "apple") > strings.Index(doc, "zebra") {
		t.Errorf("entities not in natural order:\n%s", doc)
	}
	if strings.Index(doc, "alpha: first") > strings.Index(doc, "zeta: last") {
		t.Errorf("attributes not in lexicographic order:\n%s", doc)
	}
}

func TestSerializeCycleOfLengthTwo(t *testing.T) {
	group := snapshot.GroupKey{Catalog: "public"}
	snap := snapshot.New(snapshot.Source{URL: "db://x"})
	snap.AddGroup(group)

	a := snapshot.NewEntity(snapshot.TypeTable, "alpha", &group)
	b := snapshot.NewEntity(snapshot.TypeTable, "beta", &group)
	a.SetAttr("partner", snapshot.RefValue(b))
	b.SetAttr("partner", snapshot.RefValue(a))
	b.SetAttr("remarks", snapshot.ScalarValue("second"))
	snap.Add(a)
	snap.Add(b)

	s := &Serializer{ExpandDepth: 5}
	doc, err := s.Serialize(snap)
	if err != nil {
		t.Fatalf("Serialize error: %v", err)
	}

	// alpha expands beta; beta's reference back to alpha is suppressed,
	// so beta's expanded block lists only remarks.
	want := "alpha\n" +
		"            partner: beta\n" +
		"                remarks: second\n"
	if !strings.Contains(doc, want) {
		t.Errorf("cycle not suppressed as expected:\n%s", doc)
	}
}

func TestSerializeSiblingIndependence(t *testing.T) {
	group := snapshot.GroupKey{Catalog: "public"}
	snap := snapshot.New(snapshot.Source{URL: "db://x"})
	snap.AddGroup(group)

	first := snapshot.NewEntity(snapshot.TypeColumn, "X", &group)
	first.SetAttr("type", snapshot.ScalarValue("integer"))
	second := snapshot.NewEntity(snapshot.TypeColumn, "X", &group)
	second.SetAttr("type", snapshot.ScalarValue("text"))

	root := snapshot.NewEntity(snapshot.TypeTable, "root", &group)
	root.SetAttr("left", snapshot.RefValue(first))
	root.SetAttr("right", snapshot.RefValue(second))
	snap.Add(root)

	doc, err := New().Serialize(snap)
	if err != nil {
		t.Fatalf("Serialize error: %v", err)
	}

	// Both siblings share the name "X" but sit on independent branches;
	// each must expand with its own attributes.
	if !strings.Contains(doc, "left: X\n") || !strings.Contains(doc, "right: X\n") {
		t.Errorf("sibling references not both expanded:\n%s", doc)
	}
	if !strings.Contains(doc, "type: integer") || !strings.Contains(doc, "type: text") {
		t.Errorf("sibling attribute blocks incomplete:\n%s", doc)
	}
}

func TestSerializeDepthMonotonicity(t *testing.T) {
	group := snapshot.GroupKey{Catalog: "public"}
	snap := snapshot.New(snapshot.Source{URL: "db://x"})
	snap.AddGroup(group)

	seq := snapshot.NewEntity(snapshot.TypeSequence, "user_seq", &group)
	seq.SetAttr("increment", snapshot.ScalarValue("1"))

	col := snapshot.NewEntity(snapshot.TypeColumn, "id", &group)
	col.SetAttr("default", snapshot.RefValue(seq))

	users := snapshot.NewEntity(snapshot.TypeTable, "users", &group)
	users.SetAttr("columns", snapshot.EntitiesValue(col))
	snap.Add(users)

	shallow, err := (&Serializer{ExpandDepth: 1}).Serialize(snap)
	if err != nil {
		t.Fatalf("Serialize depth 1 error: %v", err)
	}
	deep, err := (&Serializer{ExpandDepth: 2}).Serialize(snap)
	if err != nil {
		t.Fatalf("Serialize depth 2 error: %v", err)
	}

	// Depth 1: the grandchild column is expanded one level below the
	// table, so its default renders as the opaque reference only.
	if !strings.Contains(shallow, "default: user_seq\n") {
		t.Errorf("depth 1 should fall back to raw reference:\n%s", shallow)
	}
	if strings.Contains(shallow, "increment") {
		t.Errorf("depth 1 should not expand the sequence:\n%s", shallow)
	}

	// Depth 2 keeps everything from depth 1 and adds the nested block.
	if !strings.Contains(deep, "default: user_seq\n") {
		t.Errorf("depth 2 lost the reference line:\n%s", deep)
	}
	if !strings.Contains(deep, "increment: 1") {
		t.Errorf("depth 2 should expand the sequence:\n%s", deep)
	}
}

func TestSerializeZeroDepthFallsBackToRaw(t *testing.T) {
	doc, err := (&Serializer{ExpandDepth: 0}).Serialize(usersSnapshot())
	if err != nil {
		t.Fatalf("Serialize error: %v", err)
	}
	if !strings.Contains(doc, "columns: [colA, colB]\n") {
		t.Errorf("unexpanded collection should render raw:\n%s", doc)
	}
}

func TestSerializeSuppressions(t *testing.T) {
	group := snapshot.GroupKey{Catalog: "public"}
	snap := snapshot.New(snapshot.Source{URL: "db://x"})
	snap.AddGroup(group)

	schema := snapshot.NewEntity(snapshot.TypeSchema, "public", &group)

	users := snapshot.NewEntity(snapshot.TypeTable, "users", &group)
	users.SetAttr("name", snapshot.ScalarValue("shadowed"))
	users.SetAttr("schema", snapshot.ScalarValue("public"))
	users.SetAttr("catalog", snapshot.ScalarValue("public"))
	users.SetAttr("container", snapshot.RefValue(schema))
	users.SetAttr("triggers", snapshot.EntitiesValue())
	users.SetAttr("tags", snapshot.ScalarsValue())
	users.SetAttr("remarks", snapshot.ScalarValue(""))
	users.SetAttr("missing", snapshot.NullValue())
	users.SetAttr("kept", snapshot.ScalarValue("yes"))
	snap.Add(users)

	doc, err := New().Serialize(snap)
	if err != nil {
		t.Fatalf("Serialize error: %v", err)
	}

	for _, absent := range []string{"shadowed", "container", "triggers", "tags", "remarks", "missing"} {
		if strings.Contains(doc, absent) {
			t.Errorf("suppressed attribute %q leaked into output:\n%s", absent, doc)
		}
	}
	if !strings.Contains(doc, "kept: yes\n") {
		t.Errorf("surviving attribute missing:\n%s", doc)
	}
}

func TestSerializeNewlineNormalization(t *testing.T) {
	group := snapshot.GroupKey{Catalog: "public"}
	snap := snapshot.New(snapshot.Source{URL: "db://x\r\nweird"})
	snap.AddGroup(group)

	users := snapshot.NewEntity(snapshot.TypeTable, "users", &group)
	users.SetAttr("remarks", snapshot.ScalarValue("line1\r\nline2\rline3"))
	snap.Add(users)

	doc, err := New().Serialize(snap)
	if err != nil {
		t.Fatalf("Serialize error: %v", err)
	}
	if strings.Contains(doc, "\r") {
		t.Errorf("carriage returns survived normalization: %q", doc)
	}
}

func TestSerializeScalarCollection(t *testing.T) {
	group := snapshot.GroupKey{Catalog: "public"}
	snap := snapshot.New(snapshot.Source{URL: "db://x"})
	snap.AddGroup(group)

	idx := snapshot.NewEntity(snapshot.TypeIndex, "idx_users", &group)
	idx.SetAttr("columns", snapshot.ScalarsValue("id", "email"))
	snap.Add(idx)

	doc, err := New().Serialize(snap)
	if err != nil {
		t.Fatalf("Serialize error: %v", err)
	}
	if !strings.Contains(doc, "columns: [id, email]\n") {
		t.Errorf("scalar collection rendering missing:\n%s", doc)
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := New().Write(usersSnapshot(), &buf); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	doc, err := New().Serialize(usersSnapshot())
	if err != nil {
		t.Fatalf("Serialize error: %v", err)
	}
	if buf.String() != doc {
		t.Error("Write output differs from Serialize output")
	}
}

func TestSortMixedKindsFails(t *testing.T) {
	entity := snapshot.NewEntity(snapshot.TypeTable, "users", nil)

	_, err := Sort([]any{entity, snapshot.TypeTable})
	if !errors.Is(err, errors.ErrCodeUnsupportedComparison) {
		t.Errorf("Sort(entity, tag) error = %v, want UNSUPPORTED_COMPARISON", err)
	}

	_, err = Sort([]any{42, 7})
	if !errors.Is(err, errors.ErrCodeUnsupportedComparison) {
		t.Errorf("Sort(ints) error = %v, want UNSUPPORTED_COMPARISON", err)
	}
}

func TestSortLeavesInputUnmodified(t *testing.T) {
	items := []any{snapshot.TypeTag("View"), snapshot.TypeTag("Index"), snapshot.TypeTag("Table")}
	sorted, err := Sort(items)
	if err != nil {
		t.Fatalf("Sort error: %v", err)
	}

	if items[0] != snapshot.TypeTag("View") {
		t.Error("Sort modified its input")
	}
	want := []snapshot.TypeTag{"Index", "Table", "View"}
	for i, tag := range want {
		if sorted[i] != tag {
			t.Errorf("sorted[%d] = %v, want %v", i, sorted[i], tag)
		}
	}
}

func TestIndent(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
	}{
		{"single line", "a", "    a"},
		{"multi line", "a\nb", "    a\n    b"},
		{"empty line preserved", "a\n\nb", "    a\n\n    b"},
		{"empty input", "", ""},
		{"trailing newline", "a\n", "    a\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := indent(tt.in); got != tt.want {
				t.Errorf("indent(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeNewlines(t *testing.T) {
	if got := normalizeNewlines("a\r\nb\rc\nd"); got != "a\nb\nc\nd" {
		t.Errorf("normalizeNewlines = %q", got)
	}
}
