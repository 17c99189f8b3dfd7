package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/schemasnap/schemasnap/pkg/snapshot"
)

func browseTestSnapshot() *snapshot.Snapshot {
	snap := snapshot.New(snapshot.Source{URL: "sqlite://test.db", Name: "SQLite"})
	group := snapshot.GroupKey{Catalog: "main"}
	snap.AddGroup(group)
	snap.Include(snapshot.TypeTable, snapshot.TypeView)

	books := snapshot.NewEntity(snapshot.TypeTable, "books", &group)
	books.SetAttr("remarks", snapshot.ScalarValue("library catalog"))
	authors := snapshot.NewEntity(snapshot.TypeTable, "authors", &group)
	recent := snapshot.NewEntity(snapshot.TypeView, "recent_books", &group)

	snap.Add(books)
	snap.Add(authors)
	snap.Add(recent)
	return snap
}

func keyMsg(s string) tea.KeyMsg {
	if len(s) == 1 {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	panic("unknown key: " + s)
}

func TestNewBrowseModelOrder(t *testing.T) {
	m := NewBrowseModel(browseTestSnapshot())

	if len(m.Entries) != 3 {
		t.Fatalf("len(Entries) = %d, want 3", len(m.Entries))
	}

	// Types sort alphabetically (table before view), entities by name within a type.
	wantNames := []string{"authors", "books", "recent_books"}
	for i, want := range wantNames {
		if got := m.Entries[i].Entity.Name; got != want {
			t.Errorf("Entries[%d].Name = %q, want %q", i, got, want)
		}
	}
}

func TestBrowseModelNavigation(t *testing.T) {
	m := NewBrowseModel(browseTestSnapshot())

	next, _ := m.Update(keyMsg("down"))
	m = next.(BrowseModel)
	if m.Cursor != 1 {
		t.Errorf("Cursor after down = %d, want 1", m.Cursor)
	}

	next, _ = m.Update(keyMsg("j"))
	m = next.(BrowseModel)
	next, _ = m.Update(keyMsg("j"))
	m = next.(BrowseModel)
	if m.Cursor != 2 {
		t.Errorf("Cursor should clamp at last entry, got %d", m.Cursor)
	}

	next, _ = m.Update(keyMsg("up"))
	m = next.(BrowseModel)
	if m.Cursor != 1 {
		t.Errorf("Cursor after up = %d, want 1", m.Cursor)
	}
}

func TestBrowseModelScrollOffset(t *testing.T) {
	m := NewBrowseModel(browseTestSnapshot())
	m.Height = 2

	for i := 0; i < 2; i++ {
		next, _ := m.Update(keyMsg("down"))
		m = next.(BrowseModel)
	}
	if m.Offset != 1 {
		t.Errorf("Offset after scrolling past window = %d, want 1", m.Offset)
	}

	for i := 0; i < 2; i++ {
		next, _ := m.Update(keyMsg("up"))
		m = next.(BrowseModel)
	}
	if m.Offset != 0 {
		t.Errorf("Offset after scrolling back up = %d, want 0", m.Offset)
	}
}

func TestBrowseModelDetailView(t *testing.T) {
	m := NewBrowseModel(browseTestSnapshot())

	// Move to "books" and open the detail view.
	next, _ := m.Update(keyMsg("down"))
	m = next.(BrowseModel)
	next, _ = m.Update(keyMsg("enter"))
	m = next.(BrowseModel)

	if !m.showDetail {
		t.Fatal("enter should open the detail view")
	}

	view := m.View()
	if !strings.Contains(view, "books") {
		t.Errorf("detail view should contain entity name, got:\n%s", view)
	}
	if !strings.Contains(view, "library catalog") {
		t.Errorf("detail view should contain attribute value, got:\n%s", view)
	}

	// Esc returns to the list without quitting.
	next, cmd := m.Update(keyMsg("esc"))
	m = next.(BrowseModel)
	if m.showDetail {
		t.Error("esc should close the detail view")
	}
	if cmd != nil {
		t.Error("esc from detail view should not quit")
	}
}

func TestBrowseModelQuit(t *testing.T) {
	m := NewBrowseModel(browseTestSnapshot())

	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q should return a quit command")
	}

	_, cmd = m.Update(keyMsg("esc"))
	if cmd == nil {
		t.Fatal("esc from list view should return a quit command")
	}
}

func TestBrowseModelListView(t *testing.T) {
	m := NewBrowseModel(browseTestSnapshot())

	view := m.View()
	if !strings.Contains(view, "Snapshot of sqlite://test.db") {
		t.Errorf("list view should contain source URL, got:\n%s", view)
	}
	if !strings.Contains(view, "authors") || !strings.Contains(view, "recent_books") {
		t.Errorf("list view should list entities, got:\n%s", view)
	}
	if !strings.Contains(view, "1/3") {
		t.Errorf("list view should show position footer, got:\n%s", view)
	}
}

func TestBrowseModelEmptySnapshot(t *testing.T) {
	snap := snapshot.New(snapshot.Source{URL: "manifest://empty.toml"})
	m := NewBrowseModel(snap)

	view := m.View()
	if !strings.Contains(view, "(no entities)") {
		t.Errorf("empty snapshot view should show placeholder, got:\n%s", view)
	}

	// Enter with no entries must not open the detail view.
	next, _ := m.Update(keyMsg("enter"))
	m = next.(BrowseModel)
	if m.showDetail {
		t.Error("enter with no entries should not open detail view")
	}
}
