// Package store archives captured snapshots alongside their rendered
// documents.
//
// Two backends implement the Store interface:
//   - memory: in-process storage for tests and the standalone server
//   - mongo: MongoDB-backed storage for deployments that keep history
//
// An Archive pairs the portable JSON document with the rendered text, so
// historical snapshots can be re-rendered or diffed without re-capturing
// the source.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/schemasnap/schemasnap/pkg/errors"
	snapio "github.com/schemasnap/schemasnap/pkg/io"
	"github.com/schemasnap/schemasnap/pkg/snapshot"
)

// Archive is one stored snapshot.
type Archive struct {
	ID         string          `json:"id" bson:"_id"`
	Source     snapshot.Source `json:"source" bson:"source"`
	CapturedAt time.Time       `json:"captured_at" bson:"captured_at"`
	Document   json.RawMessage `json:"document" bson:"document"`
	Rendered   string          `json:"rendered" bson:"rendered"`
}

// NewArchive builds an archive from a snapshot and its rendered document.
func NewArchive(snap *snapshot.Snapshot, rendered string) (*Archive, error) {
	doc, err := snapio.MarshalSnapshot(snap)
	if err != nil {
		return nil, err
	}
	return &Archive{
		ID:         snap.ID,
		Source:     snap.Source,
		CapturedAt: time.Now().UTC(),
		Document:   doc,
		Rendered:   rendered,
	}, nil
}

// Snapshot reconstructs the archived snapshot from its JSON document.
func (a *Archive) Snapshot() (*snapshot.Snapshot, error) {
	return snapio.ReadSnapshot(bytes.NewReader(a.Document))
}

// Store is the interface for archive backends.
type Store interface {
	// Put stores an archive, replacing any existing one with the same ID.
	Put(ctx context.Context, a *Archive) error

	// Get retrieves an archive by ID. Returns a SNAPSHOT_NOT_FOUND error
	// if no archive has that ID.
	Get(ctx context.Context, id string) (*Archive, error)

	// List returns all archives, newest first.
	List(ctx context.Context) ([]*Archive, error)

	// Delete removes an archive. Returns a SNAPSHOT_NOT_FOUND error if no
	// archive has that ID.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeSnapshotNotFound, "snapshot %s not found", id)
}
