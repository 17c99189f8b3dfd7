package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/schemasnap/schemasnap/pkg/errors"
	"github.com/schemasnap/schemasnap/pkg/observability"
	"github.com/schemasnap/schemasnap/pkg/snapshot"
)

// Manifest captures snapshots from declarative schema manifests. TOML and
// YAML carry the same structure; the file extension selects the decoder.
type Manifest struct{}

func (m *Manifest) Type() string { return "manifest" }

func (m *Manifest) Supports(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml", ".yaml", ".yml":
		return true
	}
	return false
}

// manifestFile is the on-disk shape shared by both decoders.
type manifestFile struct {
	URL      string `toml:"url" yaml:"url"`
	Database string `toml:"database" yaml:"database"`
	Version  string `toml:"version" yaml:"version"`
	User     string `toml:"user" yaml:"user"`
	TwoLevel bool   `toml:"two_level" yaml:"two_level"`

	Schemas   []manifestSchema   `toml:"schemas" yaml:"schemas"`
	Tables    []manifestTable    `toml:"tables" yaml:"tables"`
	Views     []manifestView     `toml:"views" yaml:"views"`
	Sequences []manifestSequence `toml:"sequences" yaml:"sequences"`
}

type manifestSchema struct {
	Catalog string `toml:"catalog" yaml:"catalog"`
	Schema  string `toml:"schema" yaml:"schema"`
}

type manifestTable struct {
	Name    string   `toml:"name" yaml:"name"`
	Catalog string   `toml:"catalog" yaml:"catalog"`
	Schema  string   `toml:"schema" yaml:"schema"`
	Remarks string   `toml:"remarks" yaml:"remarks"`
	Tags    []string `toml:"tags" yaml:"tags"`

	Columns []manifestColumn `toml:"columns" yaml:"columns"`
	Indexes []manifestIndex  `toml:"indexes" yaml:"indexes"`
}

type manifestColumn struct {
	Name     string `toml:"name" yaml:"name"`
	Type     string `toml:"type" yaml:"type"`
	Nullable bool   `toml:"nullable" yaml:"nullable"`
	Default  string `toml:"default" yaml:"default"`
}

type manifestIndex struct {
	Name    string   `toml:"name" yaml:"name"`
	Unique  bool     `toml:"unique" yaml:"unique"`
	Columns []string `toml:"columns" yaml:"columns"`
}

type manifestView struct {
	Name       string `toml:"name" yaml:"name"`
	Catalog    string `toml:"catalog" yaml:"catalog"`
	Schema     string `toml:"schema" yaml:"schema"`
	Definition string `toml:"definition" yaml:"definition"`
}

type manifestSequence struct {
	Name      string `toml:"name" yaml:"name"`
	Catalog   string `toml:"catalog" yaml:"catalog"`
	Schema    string `toml:"schema" yaml:"schema"`
	Start     int64  `toml:"start" yaml:"start"`
	Increment int64  `toml:"increment" yaml:"increment"`
}

func (m *Manifest) Snapshot(ctx context.Context, path string) (*snapshot.Snapshot, error) {
	start := time.Now()
	observability.Snapshot().OnCaptureStart(ctx, m.Type(), path)

	snap, count, err := m.capture(path)
	observability.Snapshot().OnCaptureComplete(ctx, m.Type(), path, count, time.Since(start), err)
	return snap, err
}

func (m *Manifest) capture(path string) (*snapshot.Snapshot, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeInvalidPath, err, "reading manifest %s", path)
	}

	var file manifestFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &file)
	default:
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parsing manifest %s", path)
	}

	return buildSnapshot(path, file)
}

func buildSnapshot(path string, file manifestFile) (*snapshot.Snapshot, int, error) {
	url := file.URL
	if url == "" {
		url = "manifest://" + filepath.Base(path)
	}
	name := file.Database
	if name == "" {
		name = "Manifest"
	}

	snap := snapshot.New(snapshot.Source{
		URL:     url,
		Name:    name,
		Version: file.Version,
		User:    file.User,
	})
	snap.TwoLevelGrouping = file.TwoLevel

	for _, s := range file.Schemas {
		snap.AddGroup(snapshot.GroupKey{Catalog: s.Catalog, Schema: s.Schema})
	}

	count := 0
	add := func(e *snapshot.Entity) {
		snap.Add(e)
		count++
	}

	for _, t := range file.Tables {
		if err := errors.ValidateEntityName(t.Name); err != nil {
			return nil, 0, err
		}
		group := snapshot.GroupKey{Catalog: t.Catalog, Schema: t.Schema}
		snap.AddGroup(group)

		table := snapshot.NewEntity(snapshot.TypeTable, t.Name, &group)
		if t.Remarks != "" {
			table.SetAttr("remarks", snapshot.ScalarValue(t.Remarks))
		}
		if len(t.Tags) > 0 {
			table.SetAttr("tags", snapshot.ScalarsValue(t.Tags...))
		}

		columns := make([]*snapshot.Entity, 0, len(t.Columns))
		for _, c := range t.Columns {
			if err := errors.ValidateEntityName(c.Name); err != nil {
				return nil, 0, err
			}
			col := snapshot.NewEntity(snapshot.TypeColumn, c.Name, &group)
			col.SetAttr("type", snapshot.ScalarValue(c.Type))
			col.SetAttr("nullable", snapshot.ScalarValue(c.Nullable))
			if c.Default != "" {
				col.SetAttr("default", snapshot.ScalarValue(c.Default))
			}
			col.SetAttr("relation", snapshot.RefValue(table))
			columns = append(columns, col)
			add(col)
		}
		if len(columns) > 0 {
			table.SetAttr("columns", snapshot.EntitiesValue(columns...))
		}

		for _, i := range t.Indexes {
			if err := errors.ValidateEntityName(i.Name); err != nil {
				return nil, 0, err
			}
			idx := snapshot.NewEntity(snapshot.TypeIndex, i.Name, &group)
			idx.SetAttr("table", snapshot.RefValue(table))
			idx.SetAttr("unique", snapshot.ScalarValue(i.Unique))
			if len(i.Columns) > 0 {
				idx.SetAttr("columns", snapshot.ScalarsValue(i.Columns...))
			}
			add(idx)
		}

		add(table)
	}

	for _, v := range file.Views {
		if err := errors.ValidateEntityName(v.Name); err != nil {
			return nil, 0, err
		}
		group := snapshot.GroupKey{Catalog: v.Catalog, Schema: v.Schema}
		snap.AddGroup(group)

		view := snapshot.NewEntity(snapshot.TypeView, v.Name, &group)
		if v.Definition != "" {
			view.SetAttr("definition", snapshot.ScalarValue(v.Definition))
		}
		add(view)
	}

	for _, q := range file.Sequences {
		if err := errors.ValidateEntityName(q.Name); err != nil {
			return nil, 0, err
		}
		group := snapshot.GroupKey{Catalog: q.Catalog, Schema: q.Schema}
		snap.AddGroup(group)

		seq := snapshot.NewEntity(snapshot.TypeSequence, q.Name, &group)
		if q.Start != 0 {
			seq.SetAttr("start", snapshot.ScalarValue(q.Start))
		}
		if q.Increment != 0 {
			seq.SetAttr("increment", snapshot.ScalarValue(q.Increment))
		}
		add(seq)
	}

	return snap, count, nil
}
