package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	snapio "github.com/schemasnap/schemasnap/pkg/io"
	"github.com/schemasnap/schemasnap/pkg/snapshot"
)

const testManifest = `
url = "jdbc:postgresql://localhost/test"
database = "PostgreSQL"
version = "16.1"
user = "tester"
two_level = true

[[schemas]]
catalog = "test"
schema = "public"

[[tables]]
name = "orders"
catalog = "test"
schema = "public"

  [[tables.columns]]
  name = "id"
  type = "bigint"
`

func writeTestManifest(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.toml")
	if err := os.WriteFile(path, []byte(testManifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func writeTestDocument(t *testing.T) string {
	t.Helper()
	snap := snapshot.New(snapshot.Source{
		URL:     "jdbc:postgresql://localhost/test",
		Name:    "PostgreSQL",
		Version: "16.1",
		User:    "tester",
	})
	group := snapshot.GroupKey{Catalog: "test", Schema: "public"}
	snap.TwoLevelGrouping = true
	snap.AddGroup(group)
	snap.Include(snapshot.TypeTable)
	snap.Add(snapshot.NewEntity(snapshot.TypeTable, "orders", &group))

	path := filepath.Join(t.TempDir(), "doc.json")
	if err := snapio.ExportSnapshot(snap, path); err != nil {
		t.Fatalf("export document: %v", err)
	}
	return path
}

// runCommand executes the root command with args and returns captured stdout.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	c := New(io.Discard, log.ErrorLevel)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	runErr := root.Execute()

	w.Close()
	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String(), runErr
}

func TestRenderCommand(t *testing.T) {
	doc := writeTestDocument(t)

	out, err := runCommand(t, "render", doc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !strings.HasPrefix(out, "Database snapshot for jdbc:postgresql://localhost/test") {
		t.Errorf("output should start with header, got:\n%s", out)
	}
	if !strings.Contains(out, "orders") {
		t.Errorf("output should contain table name, got:\n%s", out)
	}
}

func TestRenderCommandOutputFile(t *testing.T) {
	doc := writeTestDocument(t)
	outPath := filepath.Join(t.TempDir(), "doc.txt")

	if _, err := runCommand(t, "render", doc, "-o", outPath); err != nil {
		t.Fatalf("render: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "Database snapshot for") {
		t.Errorf("output file should contain rendered document, got:\n%s", data)
	}
}

func TestRenderCommandMissingFile(t *testing.T) {
	if _, err := runCommand(t, "render", filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("render with missing file should fail")
	}
}

func TestSnapshotCommandManifest(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	manifest := writeTestManifest(t)
	outPath := filepath.Join(t.TempDir(), "snap.txt")

	if _, err := runCommand(t, "snapshot", manifest, "-o", outPath, "--no-cache"); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "Database snapshot for jdbc:postgresql://localhost/test") {
		t.Errorf("output should contain header, got:\n%s", text)
	}
	if !strings.Contains(text, "Catalog & Schema: test / public") {
		t.Errorf("output should contain schema group, got:\n%s", text)
	}
}

func TestSnapshotCommandJSON(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	manifest := writeTestManifest(t)
	outPath := filepath.Join(t.TempDir(), "snap.json")

	if _, err := runCommand(t, "snapshot", manifest, "-o", outPath, "--json", "--no-cache"); err != nil {
		t.Fatalf("snapshot --json: %v", err)
	}

	snap, err := snapio.ImportSnapshot(outPath)
	if err != nil {
		t.Fatalf("import exported document: %v", err)
	}
	if snap.Source.Name != "PostgreSQL" {
		t.Errorf("Source.Name = %q, want PostgreSQL", snap.Source.Name)
	}
	if got := len(snap.EntitiesOf(snapshot.TypeTable)); got != 1 {
		t.Errorf("table count = %d, want 1", got)
	}
}

func TestSnapshotCommandUnknownSource(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte("a,b\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := runCommand(t, "snapshot", path, "--no-cache"); err == nil {
		t.Fatal("snapshot with unsupported source should fail")
	}
}

func TestVisualizeCommandDOT(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	doc := writeTestDocument(t)
	outPath := filepath.Join(t.TempDir(), "doc.dot")

	if _, err := runCommand(t, "visualize", doc, "--format", "dot", "-o", outPath); err != nil {
		t.Fatalf("visualize: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "digraph schema") {
		t.Errorf("output should be a DOT digraph, got:\n%s", text)
	}
	if !strings.Contains(text, "orders") {
		t.Errorf("output should contain table node, got:\n%s", text)
	}
}

func TestVisualizeCommandBadFormat(t *testing.T) {
	doc := writeTestDocument(t)

	if _, err := runCommand(t, "visualize", doc, "--format", "png"); err == nil {
		t.Fatal("visualize with unsupported format should fail")
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()

	want := []string{"snapshot", "render", "visualize", "browse", "serve", "cache", "completion"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command should register %q", name)
		}
	}
}

func TestRootCommandAttachesLogger(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	if err := root.PersistentPreRunE(cmd, nil); err != nil {
		t.Fatalf("PersistentPreRunE: %v", err)
	}

	if loggerFromContext(cmd.Context()) != c.Logger {
		t.Error("root command should attach its logger to the command context")
	}
}

func TestCachePathCommand(t *testing.T) {
	cacheHome := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cacheHome)

	out, err := runCommand(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	want := filepath.Join(cacheHome, appName)
	if strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", strings.TrimSpace(out), want)
	}
}

func TestCacheClearCommand(t *testing.T) {
	cacheHome := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cacheHome)

	// Populate the cache by capturing a manifest.
	manifest := writeTestManifest(t)
	outPath := filepath.Join(t.TempDir(), "snap.txt")
	if _, err := runCommand(t, "snapshot", manifest, "-o", outPath); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	dir := filepath.Join(cacheHome, appName)
	entries, err := countCacheEntries(dir)
	if err != nil || entries == 0 {
		t.Fatalf("expected cached captures, entries=%d err=%v", entries, err)
	}

	if _, err := runCommand(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("cache clear should remove the cache directory")
	}

	// Clearing again reports an empty cache without failing.
	if _, err := runCommand(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear on empty cache: %v", err)
	}
}
