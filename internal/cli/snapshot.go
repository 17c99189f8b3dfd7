package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/schemasnap/schemasnap/pkg/cache"
	snapio "github.com/schemasnap/schemasnap/pkg/io"
	"github.com/schemasnap/schemasnap/pkg/observability"
	"github.com/schemasnap/schemasnap/pkg/render/readable"
	"github.com/schemasnap/schemasnap/pkg/snapshot"
	"github.com/schemasnap/schemasnap/pkg/source"
)

// captureTTL is how long captured snapshots stay in the local cache.
const captureTTL = 24 * time.Hour

// snapshotCommand creates the snapshot command.
func (c *CLI) snapshotCommand() *cobra.Command {
	var (
		expandDepth int
		output      string
		asJSON      bool
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "snapshot [source]",
		Short: "Capture a source and render it as a readable snapshot",
		Long: `Capture a source and render it as a readable snapshot.

The source is a SQLite database file (.db, .sqlite, .sqlite3) or a schema
manifest (.toml, .yaml, .yml). The output is a deterministic text document;
identical schemas always render identically, so snapshots can be diffed.

With --json the portable JSON document is written instead of text. JSON
documents can be re-rendered later with 'schemasnap render' or posted to
the HTTP API.

Captures are cached locally and invalidated when the source file changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSnapshot(cmd.Context(), args[0], snapshotOptions{
				expandDepth: expandDepth,
				output:      output,
				asJSON:      asJSON,
				noCache:     noCache,
			})
		},
	}

	cmd.Flags().IntVarP(&expandDepth, "expand-depth", "d", readable.DefaultExpandDepth, "how many nesting levels to expand inline")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "write the portable JSON document instead of text")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the capture cache")

	return cmd
}

type snapshotOptions struct {
	expandDepth int
	output      string
	asJSON      bool
	noCache     bool
}

func (c *CLI) runSnapshot(ctx context.Context, path string, opts snapshotOptions) error {
	spin := startSpinner(ctx, fmt.Sprintf("Capturing %s...", filepath.Base(path)))

	snap, cacheHit, err := c.capture(ctx, path, opts.noCache)
	if err != nil {
		spin.fail("Capture failed")
		return err
	}
	spin.stop()

	var out []byte
	if opts.asJSON {
		out, err = snapio.MarshalSnapshot(snap)
	} else {
		var text string
		text, err = serializeDocument(ctx, snap, opts.expandDepth)
		out = []byte(text)
	}
	if err != nil {
		return err
	}

	if opts.output == "" {
		fmt.Print(string(out))
		return nil
	}
	if err := os.WriteFile(opts.output, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}

	printSuccess("Snapshot captured")
	printStats(entityCount(snap), len(snap.Groups()), cacheHit)
	printFile(opts.output)
	if !opts.asJSON {
		printNextStep("Visualize it", fmt.Sprintf("schemasnap visualize %s", path))
	}
	return nil
}

// capture resolves a provider for path and captures a snapshot, consulting
// the local cache first. Cache keys include file size and mtime, so edits
// to the source invalidate the entry.
func (c *CLI) capture(ctx context.Context, path string, noCache bool) (*snapshot.Snapshot, bool, error) {
	logger := loggerFromContext(ctx)

	provider, err := source.Detect(path, source.Default()...)
	if err != nil {
		return nil, false, err
	}

	store, err := newCache(noCache)
	if err != nil {
		return nil, false, err
	}
	defer store.Close()

	keyer := cache.NewDefaultKeyer()
	var key string
	if info, err := os.Stat(path); err == nil {
		key = keyer.SnapshotKey(provider.Type(), path, cache.SnapshotKeyOpts{
			Size:    info.Size(),
			ModTime: info.ModTime().UnixNano(),
		})
	}

	if key != "" {
		if data, hit, err := store.Get(ctx, key); err == nil && hit {
			if snap, err := snapio.ReadSnapshot(bytes.NewReader(data)); err == nil {
				logger.Debug("capture cache hit", "source", path)
				return snap, true, nil
			}
			// Corrupt entry: drop it and re-capture.
			_ = store.Delete(ctx, key)
		}
	}

	prog := newProgress(logger)
	snap, err := provider.Snapshot(ctx, path)
	if err != nil {
		return nil, false, err
	}
	prog.done(fmt.Sprintf("Captured %d entities", entityCount(snap)))

	if key != "" {
		if data, err := snapio.MarshalSnapshot(snap); err == nil {
			if err := store.Set(ctx, key, data, captureTTL); err != nil {
				logger.Warn("caching capture failed", "err", err)
			}
		}
	}
	return snap, false, nil
}

// serializeDocument renders the readable document at the given depth,
// reporting the serialization to the observability hooks.
func serializeDocument(ctx context.Context, snap *snapshot.Snapshot, depth int) (string, error) {
	start := time.Now()
	observability.Snapshot().OnSerializeStart(ctx, readable.FileExtension)

	ser := readable.New()
	ser.ExpandDepth = depth
	text, err := ser.Serialize(snap)

	observability.Snapshot().OnSerializeComplete(ctx, readable.FileExtension, len(text), time.Since(start), err)
	return text, err
}

// entityCount totals the entities across all included types.
func entityCount(snap *snapshot.Snapshot) int {
	total := 0
	for _, t := range snap.IncludedTypes() {
		total += len(snap.EntitiesOf(t))
	}
	return total
}

// loadSnapshot loads a snapshot from either an exported JSON document or a
// capturable source, keyed on the file extension.
func (c *CLI) loadSnapshot(ctx context.Context, path string, noCache bool) (*snapshot.Snapshot, error) {
	if filepath.Ext(path) == ".json" {
		return snapio.ImportSnapshot(path)
	}
	snap, _, err := c.capture(ctx, path, noCache)
	return snap, err
}
