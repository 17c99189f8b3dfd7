package io

import (
	"bytes"
	"strings"
	"testing"

	"github.com/schemasnap/schemasnap/pkg/errors"
	"github.com/schemasnap/schemasnap/pkg/render/readable"
	"github.com/schemasnap/schemasnap/pkg/snapshot"
)

func fixtureSnapshot() *snapshot.Snapshot {
	group := snapshot.GroupKey{Catalog: "main", Schema: "public"}

	snap := snapshot.New(snapshot.Source{
		URL:     "sqlite://app.db",
		Name:    "SQLite",
		Version: "3.45.0",
	})
	snap.TwoLevelGrouping = true
	snap.AddGroup(group)

	id := snapshot.NewEntity(snapshot.TypeColumn, "id", &group)
	id.SetAttr("type", snapshot.ScalarValue("integer"))

	users := snapshot.NewEntity(snapshot.TypeTable, "users", &group)
	users.SetAttr("columns", snapshot.EntitiesValue(id))
	users.SetAttr("owner", snapshot.RefValue(users))
	users.SetAttr("tags", snapshot.ScalarsValue("core", "auth"))
	snap.Add(users)

	return snap
}

func TestRoundTrip(t *testing.T) {
	original := fixtureSnapshot()

	data, err := MarshalSnapshot(original)
	if err != nil {
		t.Fatalf("MarshalSnapshot error: %v", err)
	}

	restored, err := ReadSnapshot(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadSnapshot error: %v", err)
	}

	if restored.ID != original.ID {
		t.Errorf("ID = %q, want %q", restored.ID, original.ID)
	}
	if !restored.TwoLevelGrouping {
		t.Error("TwoLevelGrouping lost in round trip")
	}

	// The readable rendering is the observable behavior of a snapshot;
	// round-tripping must preserve it byte for byte.
	s := readable.New()
	want, err := s.Serialize(original)
	if err != nil {
		t.Fatalf("Serialize original: %v", err)
	}
	got, err := s.Serialize(restored)
	if err != nil {
		t.Fatalf("Serialize restored: %v", err)
	}
	if got != want {
		t.Errorf("round trip changed rendering\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	snap := fixtureSnapshot()

	first, err := MarshalSnapshot(snap)
	if err != nil {
		t.Fatalf("MarshalSnapshot error: %v", err)
	}
	second, err := MarshalSnapshot(snap)
	if err != nil {
		t.Fatalf("MarshalSnapshot error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("MarshalSnapshot is not deterministic")
	}
}

func TestExportIncludesReferencedEntities(t *testing.T) {
	data, err := MarshalSnapshot(fixtureSnapshot())
	if err != nil {
		t.Fatalf("MarshalSnapshot error: %v", err)
	}

	// The id column is only reachable through the table's columns
	// attribute but must still appear as a document entity.
	if !bytes.Contains(data, []byte(`"type": "Column"`)) {
		t.Errorf("referenced column not exported:\n%s", data)
	}
	// Only Table was included at the top level.
	if !bytes.Contains(data, []byte(`"included_types"`)) {
		t.Errorf("included_types missing:\n%s", data)
	}
}

func TestReadSnapshotUnknownRef(t *testing.T) {
	doc := `{
	  "source": {"url": "db://x"},
	  "entities": [
	    {"type": "Table", "name": "users",
	     "attributes": {"owner": {"ref": {"type": "Table", "name": "ghost"}}}}
	  ]
	}`

	_, err := ReadSnapshot(strings.NewReader(doc))
	if !errors.Is(err, errors.ErrCodeInvalidSnapshot) {
		t.Errorf("error = %v, want INVALID_SNAPSHOT", err)
	}
}

func TestReadSnapshotDuplicateEntity(t *testing.T) {
	doc := `{
	  "source": {"url": "db://x"},
	  "entities": [
	    {"type": "Table", "name": "users"},
	    {"type": "Table", "name": "users"}
	  ]
	}`

	_, err := ReadSnapshot(strings.NewReader(doc))
	if !errors.Is(err, errors.ErrCodeInvalidSnapshot) {
		t.Errorf("error = %v, want INVALID_SNAPSHOT", err)
	}
}

func TestReadSnapshotMultipleValueCases(t *testing.T) {
	doc := `{
	  "source": {"url": "db://x"},
	  "entities": [
	    {"type": "Table", "name": "users",
	     "attributes": {"bad": {"scalar": "x", "scalars": ["y"]}}}
	  ]
	}`

	_, err := ReadSnapshot(strings.NewReader(doc))
	if !errors.Is(err, errors.ErrCodeInvalidSnapshot) {
		t.Errorf("error = %v, want INVALID_SNAPSHOT", err)
	}
}

func TestReadSnapshotMalformed(t *testing.T) {
	_, err := ReadSnapshot(strings.NewReader("{not json"))
	if !errors.Is(err, errors.ErrCodeInvalidSnapshot) {
		t.Errorf("error = %v, want INVALID_SNAPSHOT", err)
	}
}

func TestExportImportFile(t *testing.T) {
	path := t.TempDir() + "/snap.json"

	if err := ExportSnapshot(fixtureSnapshot(), path); err != nil {
		t.Fatalf("ExportSnapshot error: %v", err)
	}
	restored, err := ImportSnapshot(path)
	if err != nil {
		t.Fatalf("ImportSnapshot error: %v", err)
	}
	if got := restored.Source.URL; got != "sqlite://app.db" {
		t.Errorf("Source.URL = %q", got)
	}

	if _, err := ImportSnapshot(t.TempDir() + "/missing.json"); err == nil {
		t.Error("ImportSnapshot of missing file should fail")
	}
}
