package source

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/schemasnap/schemasnap/pkg/errors"
	"github.com/schemasnap/schemasnap/pkg/observability"
	"github.com/schemasnap/schemasnap/pkg/snapshot"
)

// SQLite captures snapshots from SQLite database files by introspecting
// sqlite_master and the pragma table-valued functions.
//
// SQLite has a single implicit "main" catalog and no schemas, so captured
// snapshots report single-level grouping.
type SQLite struct{}

func (s *SQLite) Type() string { return "sqlite" }

func (s *SQLite) Supports(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

func (s *SQLite) Snapshot(ctx context.Context, path string) (*snapshot.Snapshot, error) {
	start := time.Now()
	observability.Snapshot().OnCaptureStart(ctx, s.Type(), path)

	snap, count, err := s.capture(ctx, path)
	observability.Snapshot().OnCaptureComplete(ctx, s.Type(), path, count, time.Since(start), err)
	return snap, err
}

func (s *SQLite) capture(ctx context.Context, path string) (*snapshot.Snapshot, int, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeStorage, err, "opening %s", path)
	}
	defer db.Close()

	var version string
	if err := db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeStorage, err, "reading version of %s", path)
	}

	snap := snapshot.New(snapshot.Source{
		URL:     "sqlite://" + path,
		Name:    "SQLite",
		Version: version,
	})
	group := snapshot.GroupKey{Catalog: "main"}
	snap.AddGroup(group)

	count := 0
	add := func(e *snapshot.Entity) {
		snap.Add(e)
		count++
	}

	tableNames, err := masterNames(ctx, db, "table")
	if err != nil {
		return nil, 0, err
	}

	tables := make(map[string]*snapshot.Entity, len(tableNames))
	type fkRow struct {
		table  string
		id     int
		target string
		from   []string
		to     []string
	}
	var fks []fkRow

	for _, name := range tableNames {
		table := snapshot.NewEntity(snapshot.TypeTable, name, &group)
		tables[name] = table

		columns, pk, err := tableColumns(ctx, db, table)
		if err != nil {
			return nil, 0, err
		}
		for _, col := range columns {
			add(col)
		}
		if len(columns) > 0 {
			members := make([]*snapshot.Entity, len(columns))
			copy(members, columns)
			table.SetAttr("columns", snapshot.EntitiesValue(members...))
		}
		if len(pk) > 0 {
			table.SetAttr("primaryKey", snapshot.ScalarsValue(pk...))
		}

		indexes, err := tableIndexes(ctx, db, &group, table)
		if err != nil {
			return nil, 0, err
		}
		for _, idx := range indexes {
			add(idx)
		}

		rows, err := foreignKeys(ctx, db, name)
		if err != nil {
			return nil, 0, err
		}
		for _, r := range rows {
			fks = append(fks, fkRow{table: name, id: r.id, target: r.target, from: r.from, to: r.to})
		}

		add(table)
	}

	// Foreign keys resolve after all tables exist, so forward references
	// within the schema work.
	for _, fk := range fks {
		e := snapshot.NewEntity(snapshot.TypeForeignKey,
			fmt.Sprintf("fk_%s_%d", fk.table, fk.id), &group)
		e.SetAttr("table", snapshot.RefValue(tables[fk.table]))
		if target, ok := tables[fk.target]; ok {
			e.SetAttr("referencedTable", snapshot.RefValue(target))
		} else {
			e.SetAttr("referencedTable", snapshot.ScalarValue(fk.target))
		}
		e.SetAttr("columns", snapshot.ScalarsValue(fk.from...))
		if len(fk.to) > 0 {
			e.SetAttr("referencedColumns", snapshot.ScalarsValue(fk.to...))
		}
		add(e)
	}

	views, err := viewEntities(ctx, db, &group)
	if err != nil {
		return nil, 0, err
	}
	for _, v := range views {
		add(v)
	}

	return snap, count, nil
}

// masterNames lists object names of the given kind from sqlite_master,
// excluding SQLite's internal bookkeeping tables.
func masterNames(ctx context.Context, db *sql.DB, kind string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = ? AND name NOT LIKE 'sqlite_%' ORDER BY name", kind)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "listing %ss", kind)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scanning %s name", kind)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func tableColumns(ctx context.Context, db *sql.DB, table *snapshot.Entity) ([]*snapshot.Entity, []string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`, table.Name)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeStorage, err, "columns of %s", table.Name)
	}
	defer rows.Close()

	var columns []*snapshot.Entity
	type pkCol struct {
		name string
		pos  int
	}
	var pk []pkCol

	for rows.Next() {
		var (
			name, colType string
			notNull, pkOr int
			dflt          sql.NullString
		)
		if err := rows.Scan(&name, &colType, &notNull, &dflt, &pkOr); err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeStorage, err, "scanning column of %s", table.Name)
		}

		col := snapshot.NewEntity(snapshot.TypeColumn, name, table.Group)
		if colType != "" {
			col.SetAttr("type", snapshot.ScalarValue(colType))
		}
		col.SetAttr("nullable", snapshot.ScalarValue(notNull == 0))
		if dflt.Valid {
			col.SetAttr("default", snapshot.ScalarValue(dflt.String))
		}
		col.SetAttr("relation", snapshot.RefValue(table))
		columns = append(columns, col)

		if pkOr > 0 {
			pk = append(pk, pkCol{name: name, pos: pkOr})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeStorage, err, "columns of %s", table.Name)
	}

	// pragma_table_info reports pk ordinals starting at 1.
	names := make([]string, len(pk))
	for _, c := range pk {
		names[c.pos-1] = c.name
	}
	return columns, names, nil
}

func tableIndexes(ctx context.Context, db *sql.DB, group *snapshot.GroupKey, table *snapshot.Entity) ([]*snapshot.Entity, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name, "unique" FROM pragma_index_list(?) WHERE name NOT LIKE 'sqlite_autoindex%' ORDER BY name`, table.Name)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "indexes of %s", table.Name)
	}
	defer rows.Close()

	type idxRow struct {
		name   string
		unique int
	}
	var list []idxRow
	for rows.Next() {
		var r idxRow
		if err := rows.Scan(&r.name, &r.unique); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scanning index of %s", table.Name)
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "indexes of %s", table.Name)
	}

	var out []*snapshot.Entity
	for _, r := range list {
		cols, err := indexColumns(ctx, db, r.name)
		if err != nil {
			return nil, err
		}

		idx := snapshot.NewEntity(snapshot.TypeIndex, r.name, group)
		idx.SetAttr("table", snapshot.RefValue(table))
		idx.SetAttr("unique", snapshot.ScalarValue(r.unique != 0))
		if len(cols) > 0 {
			idx.SetAttr("columns", snapshot.ScalarsValue(cols...))
		}
		out = append(out, idx)
	}
	return out, nil
}

func indexColumns(ctx context.Context, db *sql.DB, index string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT name FROM pragma_index_info(?) ORDER BY seqno", index)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "columns of index %s", index)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scanning index column of %s", index)
		}
		if name.Valid {
			cols = append(cols, name.String)
		}
	}
	return cols, rows.Err()
}

type foreignKey struct {
	id     int
	target string
	from   []string
	to     []string
}

func foreignKeys(ctx context.Context, db *sql.DB, table string) ([]foreignKey, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, "table", "from", "to" FROM pragma_foreign_key_list(?) ORDER BY id, seq`, table)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "foreign keys of %s", table)
	}
	defer rows.Close()

	var out []foreignKey
	for rows.Next() {
		var (
			id           int
			target, from string
			to           sql.NullString
		)
		if err := rows.Scan(&id, &target, &from, &to); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scanning foreign key of %s", table)
		}

		if n := len(out); n == 0 || out[n-1].id != id {
			out = append(out, foreignKey{id: id, target: target})
		}
		fk := &out[len(out)-1]
		fk.from = append(fk.from, from)
		if to.Valid {
			fk.to = append(fk.to, to.String)
		}
	}
	return out, rows.Err()
}

func viewEntities(ctx context.Context, db *sql.DB, group *snapshot.GroupKey) ([]*snapshot.Entity, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT name, sql FROM sqlite_master WHERE type = 'view' ORDER BY name")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "listing views")
	}
	defer rows.Close()

	var out []*snapshot.Entity
	for rows.Next() {
		var (
			name string
			def  sql.NullString
		)
		if err := rows.Scan(&name, &def); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scanning view")
		}

		view := snapshot.NewEntity(snapshot.TypeView, name, group)
		if def.Valid {
			view.SetAttr("definition", snapshot.ScalarValue(def.String))
		}
		out = append(out, view)
	}
	return out, rows.Err()
}
